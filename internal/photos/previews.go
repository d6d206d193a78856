package photos

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Preview is a thumbnail handle. It must be released once the photo is no
// longer displayed.
type Preview struct {
	Handle string `json:"handle"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Previews owns the thumbnails of one form.
type Previews struct {
	size int

	mu   sync.Mutex
	live map[string][]byte
}

// NewPreviews renders thumbnails that fit in a size x size box.
func NewPreviews(size int) *Previews {
	if size <= 0 {
		size = 256
	}
	return &Previews{size: size, live: make(map[string][]byte)}
}

// Create decodes img and stores a JPEG thumbnail under a new handle.
func (p *Previews) Create(img Image) (Preview, error) {
	src, err := imaging.Decode(bytes.NewReader(img.Data), imaging.AutoOrientation(true))
	if err != nil {
		return Preview{}, fmt.Errorf("decode photo: %w", err)
	}
	thumb := imaging.Fit(src, p.size, p.size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return Preview{}, fmt.Errorf("encode preview: %w", err)
	}

	handle := uuid.NewString()
	p.mu.Lock()
	p.live[handle] = buf.Bytes()
	p.mu.Unlock()

	b := thumb.Bounds()
	return Preview{Handle: handle, Width: b.Dx(), Height: b.Dy()}, nil
}

// Get returns the thumbnail bytes for a live handle.
func (p *Previews) Get(handle string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.live[handle]
	return data, ok
}

// Release frees one thumbnail. Releasing an unknown handle is a no-op.
func (p *Previews) Release(handle string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.live, handle)
}

// ReleaseAll frees every thumbnail.
func (p *Previews) ReleaseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.live)
}

// Open reports how many thumbnails are still held.
func (p *Previews) Open() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}
