package testutil

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"sync"
)

// ImageStoreStub is an in-memory image store for tests.
type ImageStoreStub struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string
	PutErr  error
}

// NewImageStoreStub creates an empty in-memory image store.
func NewImageStoreStub() *ImageStoreStub {
	return &ImageStoreStub{Objects: make(map[string][]byte)}
}

// Put records the object and returns a fake URL for it.
func (s *ImageStoreStub) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	if s.PutErr != nil {
		return "", s.PutErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = append([]byte(nil), data...)
	return "http://images.test/" + key, nil
}

// Delete removes the object and remembers that it was asked to.
func (s *ImageStoreStub) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, key)
	s.Deleted = append(s.Deleted, key)
	return nil
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
