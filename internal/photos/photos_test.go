package photos

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAttachments(t *testing.T) {
	data := pngBytes(t, 4, 4)
	photo := Image{Name: "pargo.png", ContentType: "image/png", Data: data}

	t.Run("batch beyond the limit is rejected whole", func(t *testing.T) {
		var a Attachments
		require.NoError(t, a.Add(photo, photo, photo))

		err := a.Add(photo, photo, photo)

		assert.ErrorIs(t, err, ErrTooManyImages)
		assert.Equal(t, 3, a.Len())
		require.NoError(t, a.Add(photo, photo))
		assert.Equal(t, MaxImages, a.Len())
	})

	t.Run("unsupported file rejects the batch", func(t *testing.T) {
		var a Attachments
		err := a.Add(photo, Image{Name: "notes.txt", ContentType: "text/plain", Data: []byte("hello")})

		assert.ErrorIs(t, err, ErrUnsupportedType)
		assert.Zero(t, a.Len())
	})

	t.Run("content type is sniffed when not declared", func(t *testing.T) {
		var a Attachments
		require.NoError(t, a.Add(Image{Name: "x", Data: data}))
		assert.Equal(t, "image/png", a.List()[0].ContentType)
	})

	t.Run("remove", func(t *testing.T) {
		var a Attachments
		require.NoError(t, a.Add(photo, Image{Name: "second.png", Data: data}))

		removed, err := a.Remove(0)
		require.NoError(t, err)
		assert.Equal(t, "pargo.png", removed.Name)
		assert.Equal(t, "second.png", a.List()[0].Name)

		_, err = a.Remove(5)
		assert.ErrorIs(t, err, ErrNoSuchImage)
	})
}

func TestPreviews(t *testing.T) {
	p := NewPreviews(16)

	first, err := p.Create(Image{Data: pngBytes(t, 64, 32)})
	require.NoError(t, err)
	second, err := p.Create(Image{Data: pngBytes(t, 8, 8)})
	require.NoError(t, err)

	assert.Equal(t, 16, first.Width)
	assert.Equal(t, 8, first.Height)
	assert.Equal(t, 2, p.Open())

	p.Release(first.Handle)
	p.Release(first.Handle)
	assert.Equal(t, 1, p.Open())
	_, ok := p.Get(first.Handle)
	assert.False(t, ok)

	_, ok = p.Get(second.Handle)
	assert.True(t, ok)
	p.ReleaseAll()
	assert.Zero(t, p.Open())

	_, err = p.Create(Image{Data: []byte("not an image")})
	assert.Error(t, err)
}

func TestMemoryArchive(t *testing.T) {
	a := NewMemoryArchive()
	key := Key("inhaca_004", 1, "image/png")
	require.NoError(t, a.Put(context.Background(), key, []byte{1, 2}, "image/png"))

	assert.Equal(t, "inhaca_004/1.png", key)
	obj, ok := a.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2}, obj.Data)
	assert.Equal(t, "inhaca_004/2.jpg", Key("inhaca_004", 2, "image/jpeg"))
}
