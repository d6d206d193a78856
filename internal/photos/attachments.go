package photos

import (
	"errors"
	"net/http"
	"strings"
)

// MaxImages is the most photos one registration may carry.
const MaxImages = 5

var (
	ErrTooManyImages   = errors.New("a registration carries at most 5 photos")
	ErrUnsupportedType = errors.New("only PNG and JPEG photos are accepted")
	ErrNoSuchImage     = errors.New("no photo at that position")
)

// Image is one attached photo.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// Attachments holds the photos of a draft. Batches are all-or-nothing.
type Attachments struct {
	images []Image
}

// Add appends a batch. If the batch would exceed MaxImages or contains an
// unsupported file, nothing is added.
func (a *Attachments) Add(batch ...Image) error {
	if len(a.images)+len(batch) > MaxImages {
		return ErrTooManyImages
	}
	normalized := make([]Image, len(batch))
	for i, img := range batch {
		ct, ok := ContentType(img.ContentType, img.Data)
		if !ok {
			return ErrUnsupportedType
		}
		img.ContentType = ct
		normalized[i] = img
	}
	a.images = append(a.images, normalized...)
	return nil
}

// Remove drops the photo at index i.
func (a *Attachments) Remove(i int) (Image, error) {
	if i < 0 || i >= len(a.images) {
		return Image{}, ErrNoSuchImage
	}
	img := a.images[i]
	a.images = append(a.images[:i], a.images[i+1:]...)
	return img, nil
}

// List returns a copy of the attached photos in order.
func (a *Attachments) List() []Image {
	out := make([]Image, len(a.images))
	copy(out, a.images)
	return out
}

func (a *Attachments) Len() int {
	return len(a.images)
}

func (a *Attachments) Clear() {
	a.images = nil
}

// ContentType resolves the media type of a photo. A declared type is trusted
// only if it is PNG or JPEG; otherwise the bytes are sniffed.
func ContentType(declared string, data []byte) (string, bool) {
	declared = strings.ToLower(strings.TrimSpace(strings.SplitN(declared, ";", 2)[0]))
	switch declared {
	case "image/png", "image/jpeg":
		return declared, true
	case "image/jpg":
		return "image/jpeg", true
	}
	switch sniffed := http.DetectContentType(data); sniffed {
	case "image/png", "image/jpeg":
		return sniffed, true
	}
	return "", false
}

// Extension returns the file extension for a supported content type.
func Extension(contentType string) string {
	if contentType == "image/png" {
		return "png"
	}
	return "jpg"
}
