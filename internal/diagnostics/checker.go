package diagnostics

import (
	"fmt"
	"os"
	"strings"
	"time"

	"wav2mp3/internal/archive"
	"wav2mp3/internal/codec"
	"wav2mp3/internal/domain"
)

// Checker validates the encoding environment before any job is admitted,
// so a missing codec or archive capability surfaces as a persistent
// banner-level warning instead of per-job errors.
type Checker struct {
	newEncoder  codec.Factory
	newPackager archive.Factory
	mkdirAll    func(string, os.FileMode) error
	createTemp  func(string, string) (*os.File, error)
	remove      func(string) error
}

// NewChecker builds a checker over the production factories.
func NewChecker(newEncoder codec.Factory, newPackager archive.Factory) *Checker {
	return &Checker{
		newEncoder:  newEncoder,
		newPackager: newPackager,
		mkdirAll:    os.MkdirAll,
		createTemp:  os.CreateTemp,
		remove:      os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	encoder := c.checkEncoder()
	packager := c.checkPackager()
	items := []domain.DiagnosticItem{
		encoder,
		packager,
		c.checkOutputDir(settings.OutputDir),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt:       time.Now().UTC(),
		HasFailures:       hasFailures,
		ConversionBlocked: encoder.Status == domain.DiagnosticStatusFail,
		ExportDisabled:    packager.Status == domain.DiagnosticStatusFail,
		Items:             items,
	}
}

// checkEncoder probes the MP3 encoder by configuring a throwaway
// stereo instance at the default bit rate.
func (c *Checker) checkEncoder() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "mp3_encoder",
		Name: "MP3 encoder",
	}

	if c.newEncoder == nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "No MP3 encoder is configured."
		item.Hint = "Conversion is disabled until an encoder is available."
		return item
	}

	enc, err := c.newEncoder(2, 44100, codec.DefaultBitrateKbps)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("MP3 encoder probe failed: %v", err)
		item.Hint = "Install the LAME library so the encoder can initialize."
		return item
	}
	if _, err := enc.Flush(); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("MP3 encoder could not finalize a probe stream: %v", err)
		item.Hint = "Install the LAME library so the encoder can initialize."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = "MP3 encoder is available."
	return item
}

// checkPackager verifies the archive capability used by bulk export.
func (c *Checker) checkPackager() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "archive_packager",
		Name: "Archive packager",
	}

	if c.newPackager == nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "No archive packager is configured."
		item.Hint = "Bulk export is disabled; individual downloads still work."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = "Archive packager is available."
	return item
}

// checkOutputDir validates output directory existence and write access.
func (c *Checker) checkOutputDir(outputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "output_dir",
		Name: "Output directory",
	}

	if strings.TrimSpace(outputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Output directory is empty."
		item.Hint = "Set an output directory where MP3 files can be written."
		return item
	}

	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create output directory: %s", outputDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(outputDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output directory is not writable: %s", outputDir)
		item.Hint = "Choose a writable directory for converted files."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", outputDir)
	return item
}

// NewCheckerForTests creates a checker with injectable dependencies.
func NewCheckerForTests(
	newEncoder codec.Factory,
	newPackager archive.Factory,
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		newEncoder:  newEncoder,
		newPackager: newPackager,
		mkdirAll:    mkdirAll,
		createTemp:  createTemp,
		remove:      remove,
	}
}
