package config

import (
	"os"
	"path/filepath"
	"testing"

	"wav2mp3/internal/codec"
	"wav2mp3/internal/domain"
)

// TestJSONStoreRoundTrip verifies save and reload of settings.
func TestJSONStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	store := NewJSONStore(path)

	want := domain.Settings{OutputDir: "/tmp/out", BitrateKbps: 192}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Fatalf("Load() = %+v, want %+v", got, want)
	}
}

// TestJSONStoreMissingFileReturnsDefaults verifies first-launch behavior.
func TestJSONStoreMissingFileReturnsDefaults(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "absent.json"))

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.BitrateKbps != codec.DefaultBitrateKbps || got.OutputDir == "" {
		t.Fatalf("defaults = %+v", got)
	}
}

// TestJSONStoreCorruptFileFails verifies malformed JSON surfaces an error.
func TestJSONStoreCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewJSONStore(path).Load(); err == nil {
		t.Fatal("expected error for corrupt settings file")
	}
}

// TestNormalizeBitrateFallback verifies unrecognized rates become default.
func TestNormalizeBitrateFallback(t *testing.T) {
	cfg := Normalize(domain.Settings{OutputDir: " /music ", BitrateKbps: 999})
	if cfg.BitrateKbps != codec.DefaultBitrateKbps {
		t.Fatalf("bitrate = %d, want %d", cfg.BitrateKbps, codec.DefaultBitrateKbps)
	}
	if cfg.OutputDir != "/music" {
		t.Fatalf("output dir = %q", cfg.OutputDir)
	}
}
