package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
)

// ArchiveName is the fixed name of the bulk-export artifact.
const ArchiveName = "converted_mp3s.zip"

// ErrNoEntries is returned when Generate is called on an empty packager.
var ErrNoEntries = errors.New("archive has no entries")

// Packager collects named byte blobs and produces a single archive blob.
type Packager interface {
	AddEntry(name string, data []byte) error
	Generate() ([]byte, error)
}

// Factory creates one packager per export operation.
type Factory func() Packager

// NewZipFactory returns a Factory producing zip packagers.
func NewZipFactory() Factory {
	return func() Packager {
		return &zipPackager{}
	}
}

// zipPackager buffers entries and writes them as a zip on Generate.
type zipPackager struct {
	names []string
	blobs [][]byte
}

// AddEntry queues one named blob for the archive.
func (p *zipPackager) AddEntry(name string, data []byte) error {
	if name == "" {
		return errors.New("entry name is required")
	}
	p.names = append(p.names, name)
	p.blobs = append(p.blobs, data)
	return nil
}

// Generate writes all queued entries into a single zip blob.
func (p *zipPackager) Generate() ([]byte, error) {
	if len(p.names) == 0 {
		return nil, ErrNoEntries
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for i, name := range p.names {
		entry, err := w.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create archive entry %s: %w", name, err)
		}
		if _, err := entry.Write(p.blobs[i]); err != nil {
			return nil, fmt.Errorf("write archive entry %s: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}

	return buf.Bytes(), nil
}
