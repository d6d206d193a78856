package photos

import (
	"context"
	"fmt"
	"sync"
)

// Archive stores submitted photos.
type Archive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Key names the n-th photo (1-based) of a submission.
func Key(generatedID string, n int, contentType string) string {
	return fmt.Sprintf("%s/%d.%s", generatedID, n, Extension(contentType))
}

// Object is an archived photo.
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryArchive keeps archived photos in process memory.
type MemoryArchive struct {
	mu      sync.RWMutex
	objects map[string]Object
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{objects: make(map[string]Object)}
}

func (m *MemoryArchive) Put(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[key] = Object{Data: cp, ContentType: contentType}
	return nil
}

// Get returns an archived photo.
func (m *MemoryArchive) Get(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Len returns the number of archived photos.
func (m *MemoryArchive) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
