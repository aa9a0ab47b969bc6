package config

import (
	"os"
	"path/filepath"
	"strings"

	"wav2mp3/internal/codec"
	"wav2mp3/internal/domain"
)

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		OutputDir:   filepath.Join(homeDir, "Music", "Converted"),
		BitrateKbps: codec.DefaultBitrateKbps,
	}
}

// Normalize trims user inputs and replaces unrecognized bit rates with
// the default.
func Normalize(cfg domain.Settings) domain.Settings {
	cfg.OutputDir = strings.TrimSpace(cfg.OutputDir)
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultSettings().OutputDir
	}
	cfg.BitrateKbps = codec.NormalizeBitrate(cfg.BitrateKbps)
	return cfg
}
