package resource

import (
	"fmt"
	"sync"
)

// Handle owns one downloadable blob. A handle is created by exactly one
// operation and must be released exactly once, either when superseded or
// at full reset, so a long batch cannot accumulate unbounded blobs.
// Handles are immutable after Put: release removes the store's reference
// but never mutates the handle, so a caller that already obtained one can
// keep reading its bytes while another goroutine releases it.
type Handle struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Size     int    `json:"size"`

	data []byte
}

// Bytes returns the owned blob.
func (h *Handle) Bytes() []byte {
	if h == nil {
		return nil
	}
	return h.data
}

// Store tracks live handles and enforces release-exactly-once.
type Store struct {
	mu      sync.Mutex
	nextID  int
	handles map[string]*Handle
}

// NewStore creates an empty handle store.
func NewStore() *Store {
	return &Store{handles: make(map[string]*Handle)}
}

// Put registers a new handle owning the given blob.
func (s *Store) Put(name, mimeType string, data []byte) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	h := &Handle{
		ID:       fmt.Sprintf("blob-%d", s.nextID),
		Name:     name,
		MIMEType: mimeType,
		Size:     len(data),
		data:     data,
	}
	s.handles[h.ID] = h
	return h
}

// Get returns a live handle by id.
func (s *Store) Get(id string) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handles[id]
	return h, ok
}

// Release drops the store's reference to a handle, making it
// unretrievable. Releasing an unknown or already released id is a
// no-op and reports false.
func (s *Store) Release(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.handles[id]; !ok {
		return false
	}
	delete(s.handles, id)
	return true
}

// ReleaseAll drops every live handle, for full reset and teardown.
func (s *Store) ReleaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.handles {
		delete(s.handles, id)
	}
}

// Len reports the number of live handles.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}
