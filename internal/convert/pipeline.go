package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wav2mp3/internal/codec"
	"wav2mp3/internal/domain"
	"wav2mp3/internal/wav"
)

// Request contains one file's input and observation callbacks for a run.
type Request struct {
	InputPath   string
	BitrateKbps int
	OnStatus    func(status domain.JobStatus)
	OnProgress  func(percent int)
}

// Result is one successful conversion's downloadable artifact.
type Result struct {
	Data       []byte
	OutputName string
	MIMEType   string
}

// PipelineError is a stage-aware error surfaced as the job's error message.
type PipelineError struct {
	Stage   domain.JobStatus `json:"stage"`
	Message string           `json:"message"`
	Err     error            `json:"-"`
}

// Error formats pipeline failures for events and UI.
func (e *PipelineError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Pipeline drives one file's bytes through read, decode, and encode stages.
type Pipeline struct {
	newEncoder codec.Factory
	readFile   func(name string) ([]byte, error)
}

// NewPipeline constructs the production pipeline with OS dependencies.
func NewPipeline(factory codec.Factory) *Pipeline {
	return &Pipeline{
		newEncoder: factory,
		readFile:   os.ReadFile,
	}
}

// Run performs reading, wav decoding, and mp3 encoding for one file.
// Every stage transition is observable so the queue can mirror it; all
// failures come back as a PipelineError, never a panic.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.InputPath) == "" {
		return Result{}, &PipelineError{
			Stage:   domain.JobStatusReading,
			Message: "input file path is required",
		}
	}
	bitrate := codec.NormalizeBitrate(req.BitrateKbps)

	emitStatus(req.OnStatus, domain.JobStatusReading)
	data, err := p.readFile(req.InputPath)
	if err != nil {
		return Result{}, &PipelineError{
			Stage:   domain.JobStatusReading,
			Message: fmt.Sprintf("cannot read input file: %s", req.InputPath),
			Err:     err,
		}
	}

	emitStatus(req.OnStatus, domain.JobStatusParsing)
	record, err := wav.Decode(data)
	if err != nil {
		return Result{}, &PipelineError{
			Stage:   domain.JobStatusParsing,
			Message: fmt.Sprintf("could not decode wav: %v", err),
			Err:     err,
		}
	}

	emitStatus(req.OnStatus, domain.JobStatusConverting)
	enc, err := p.newEncoder(record.Format.NumChannels, record.Format.SampleRate, bitrate)
	if err != nil {
		return Result{}, &PipelineError{
			Stage:   domain.JobStatusConverting,
			Message: fmt.Sprintf("encoder unavailable: %v", err),
			Err:     err,
		}
	}

	out, err := codec.Convert(ctx, record, enc, req.OnProgress)
	if err != nil {
		return Result{}, &PipelineError{
			Stage:   domain.JobStatusConverting,
			Message: fmt.Sprintf("encoding failed: %v", err),
			Err:     err,
		}
	}

	return Result{
		Data:       out,
		OutputName: OutputName(req.InputPath),
		MIMEType:   codec.MIMEType,
	}, nil
}

// emitStatus forwards stage updates when a callback is configured.
func emitStatus(cb func(domain.JobStatus), status domain.JobStatus) {
	if cb != nil {
		cb(status)
	}
}

// OutputName builds the artifact name by swapping the extension for .mp3.
func OutputName(inputPath string) string {
	base := filepath.Base(inputPath)
	name := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "converted"
	}
	return name + ".mp3"
}

// NewPipelineForTests constructs a pipeline with injectable dependencies.
func NewPipelineForTests(factory codec.Factory, readFile func(string) ([]byte, error)) *Pipeline {
	return &Pipeline{
		newEncoder: factory,
		readFile:   readFile,
	}
}
