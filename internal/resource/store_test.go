package resource

import (
	"sync"
	"testing"
)

// TestStorePutGetRelease verifies the release-exactly-once contract.
func TestStorePutGetRelease(t *testing.T) {
	s := NewStore()
	h := s.Put("song.mp3", "audio/mpeg", []byte{1, 2, 3})

	if h.ID == "" || h.Size != 3 {
		t.Fatalf("handle = %+v", h)
	}

	got, ok := s.Get(h.ID)
	if !ok || string(got.Bytes()) != "\x01\x02\x03" {
		t.Fatalf("Get() = %+v, %v", got, ok)
	}

	if !s.Release(h.ID) {
		t.Fatal("first release should succeed")
	}
	if s.Release(h.ID) {
		t.Fatal("second release should be a no-op")
	}
	if _, ok := s.Get(h.ID); ok {
		t.Fatal("released handle should not be retrievable")
	}
}

// TestStoreReleaseAll verifies full teardown drops every handle.
func TestStoreReleaseAll(t *testing.T) {
	s := NewStore()
	s.Put("a.mp3", "audio/mpeg", []byte{1})
	s.Put("b.mp3", "audio/mpeg", []byte{2})

	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}

	s.ReleaseAll()
	if s.Len() != 0 {
		t.Fatalf("len after release all = %d, want 0", s.Len())
	}
}

// TestIssuedHandleSurvivesConcurrentRelease verifies a handle already
// given out stays readable while another goroutine releases it, so a
// save in progress cannot observe a torn or nil blob.
func TestIssuedHandleSurvivesConcurrentRelease(t *testing.T) {
	s := NewStore()
	h := s.Put("song.mp3", "audio/mpeg", []byte("payload"))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if got := h.Bytes(); string(got) != "payload" {
				t.Errorf("iteration %d: bytes = %q", i, got)
				return
			}
		}
	}()

	s.Release(h.ID)
	s.ReleaseAll()
	wg.Wait()

	if string(h.Bytes()) != "payload" {
		t.Fatalf("bytes after release = %q", h.Bytes())
	}
	if _, ok := s.Get(h.ID); ok {
		t.Fatal("released handle should not be retrievable")
	}
}
