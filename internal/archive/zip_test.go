package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"testing"
)

// TestZipPackagerRoundTrip verifies the archive contains exactly the
// added entries with their payloads intact.
func TestZipPackagerRoundTrip(t *testing.T) {
	p := NewZipFactory()()
	entries := map[string][]byte{
		"one.mp3": []byte("first"),
		"two.mp3": []byte("second"),
	}
	for name, data := range entries {
		if err := p.AddEntry(name, data); err != nil {
			t.Fatalf("AddEntry(%s): %v", name, err)
		}
	}

	blob, err := p.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	r, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(r.File) != len(entries) {
		t.Fatalf("archive has %d files, want %d", len(r.File), len(entries))
	}
	for _, f := range r.File {
		want, ok := entries[f.Name]
		if !ok {
			t.Fatalf("unexpected entry %s", f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		got, err := io.ReadAll(rc)
		rc.Close()
		if err != nil || !bytes.Equal(got, want) {
			t.Fatalf("entry %s = %q (err %v), want %q", f.Name, got, err, want)
		}
	}
}

// TestZipPackagerEmpty verifies generating with no entries fails.
func TestZipPackagerEmpty(t *testing.T) {
	p := NewZipFactory()()
	if _, err := p.Generate(); !errors.Is(err, ErrNoEntries) {
		t.Fatalf("error = %v, want %v", err, ErrNoEntries)
	}
}

// TestZipPackagerRejectsUnnamedEntry verifies the name requirement.
func TestZipPackagerRejectsUnnamedEntry(t *testing.T) {
	p := NewZipFactory()()
	if err := p.AddEntry("", []byte("x")); err == nil {
		t.Fatal("expected error for empty entry name")
	}
}
