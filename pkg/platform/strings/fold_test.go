package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "accented header", input: "Espécies", expected: "especies"},
		{name: "already plain", input: "Especies", expected: "especies"},
		{name: "surrounding whitespace", input: "  PREÇO Unitário ", expected: "preco unitario"},
		{name: "tilde", input: "Camarão", expected: "camarao"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Fold(tt.input))
		})
	}
}

func TestEqualFold(t *testing.T) {
	assert.True(t, EqualFold("Espécies", "ESPECIES"))
	assert.False(t, EqualFold("Praia", "Origem"))
}

func TestSlug(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "Macaneta", expected: "macaneta"},
		{input: "  Costa do Sol ", expected: "costa_do_sol"},
		{input: "Ponta\t d'Ouro", expected: "ponta_d'ouro"},
		{input: "Ilha de  Inhaca", expected: "ilha_de_inhaca"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slug(tt.input))
		})
	}
}

func TestTrimQuotes(t *testing.T) {
	assert.Equal(t, "Matusse, Jr.", TrimQuotes(`  "Matusse, Jr." `))
	assert.Equal(t, "plain", TrimQuotes("plain"))
	assert.Equal(t, `"`, TrimQuotes(`"`))
}
