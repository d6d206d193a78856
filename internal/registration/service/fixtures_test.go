package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"ehopa/internal/location"
	"ehopa/internal/photos"
	"ehopa/internal/reference"
	"ehopa/internal/registration/models"
	"ehopa/pkg/domain"
)

func testRefs() *reference.Set {
	pargo := decimal.NewFromInt(150)
	return &reference.Set{
		Providers: []reference.Provider{
			{ID: "prov-0", FullName: "Pedro Sitoe", OriginHint: "Inhaca"},
			{ID: "prov-1", FullName: "Ana Matusse"},
			{ID: "prov-2", FullName: "João Macuácua", OriginHint: "Zalala"},
			{ID: "prov-3", FullName: "Carlos Nhaca", OriginHint: "INHACA"},
		},
		Origins: reference.NewOriginSet("Inhaca", "Macaneta", "Costa do Sol"),
		Species: []reference.Species{
			{Name: "Pargo", UnitPrice: &pargo},
			{Name: "Lula"},
		},
	}
}

func completeDraft() models.Draft {
	return models.Draft{
		Date:      "2024-03-10",
		Provider:  "Pedro Sitoe",
		Origin:    "Inhaca",
		Species:   "Pargo",
		Condition: domain.ConditionFresh,
		Quantity:  "20",
		UnitPrice: "150",
		Location:  &location.Sample{Latitude: -25.96, Longitude: 32.58},
	}
}

func ptr(s string) *string { return &s }

func pngImage(t *testing.T, name string) photos.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return photos.Image{Name: name, ContentType: "image/png", Data: buf.Bytes()}
}
