package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTable(t *testing.T) {
	t.Run("quoted cell keeps embedded comma", func(t *testing.T) {
		table := ParseTable("Apelido,Telefone\n\"Matusse, Jr.\",84123456\n")

		require.Len(t, table.Rows, 1)
		assert.Equal(t, []string{"Apelido", "Telefone"}, table.Header)
		assert.Equal(t, []string{"Matusse, Jr.", "84123456"}, table.Rows[0])
		assert.Len(t, table.Rows[0], len(table.Header))
	})

	t.Run("fully quoted export with blank rows", func(t *testing.T) {
		text := "\"Nome\",\"Apelido\",\"Praia\"\n" +
			"\"Pedro\",\"Sitoe\",\"Inhaca\"\n" +
			"\"\",\"\",\"\"\n" +
			"\n" +
			"\"  Ana \",\"\",\"Macaneta\"\n"
		table := ParseTable(text)

		require.Len(t, table.Rows, 2)
		assert.Equal(t, []string{"Pedro", "Sitoe", "Inhaca"}, table.Rows[0])
		assert.Equal(t, []string{"Ana", "", "Macaneta"}, table.Rows[1])
	})

	t.Run("doubled quotes unescape", func(t *testing.T) {
		table := ParseTable("Nome\n\"Barco \"\"Esperança\"\"\"\n")
		require.Len(t, table.Rows, 1)
		assert.Equal(t, `Barco "Esperança"`, table.Rows[0][0])
	})

	t.Run("ragged rows are tolerated", func(t *testing.T) {
		table := ParseTable("A,B,C\n1\n1,2,3,4\n")
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "", Cell(table.Rows[0], 2))
		assert.Equal(t, "4", Cell(table.Rows[1], 3))
	})

	t.Run("empty input", func(t *testing.T) {
		table := ParseTable("")
		assert.Nil(t, table.Header)
		assert.Empty(t, table.Rows)
	})
}

func TestColumnLookup(t *testing.T) {
	table := ParseTable("ID,Origem (Praia),ESPÉCIES,Preço Unit.\n")

	assert.Equal(t, 2, table.ColumnNamed("especies"))
	assert.Equal(t, 1, table.ColumnContaining("origem", "praia"))
	assert.Equal(t, 3, table.ColumnContaining("preco"))
	assert.Equal(t, -1, table.ColumnNamed("nome"))
	assert.Equal(t, "", Cell(nil, 0))
}
