package jobs

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"wav2mp3/internal/archive"
	"wav2mp3/internal/codec"
	"wav2mp3/internal/convert"
	"wav2mp3/internal/domain"
	"wav2mp3/internal/resource"
)

var (
	// ErrJobNotFound is returned for operations on unknown job ids.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobInFlight is returned when removing the currently admitted job.
	ErrJobInFlight = errors.New("job is currently converting")
	// ErrExportInProgress is returned when a bulk export blocks the operation.
	ErrExportInProgress = errors.New("bulk export in progress")
	// ErrConversionInProgress is returned when export is requested mid-run.
	ErrConversionInProgress = errors.New("a conversion is in progress")
	// ErrNothingToExport is returned when no completed results exist.
	ErrNothingToExport = errors.New("no completed jobs to export")
	// ErrExportUnavailable is returned when no packager is configured.
	ErrExportUnavailable = errors.New("archive packager unavailable")
)

// acceptedMediaTypes lists WAV media types, including the non-standard
// x- alias some platforms still report.
var acceptedMediaTypes = map[string]bool{
	"audio/wav":   true,
	"audio/wave":  true,
	"audio/x-wav": true,
}

// AcceptsFile reports whether a submitted path looks like WAV input,
// by extension or by the platform's declared media type for it.
func AcceptsFile(path string) bool {
	ext := filepath.Ext(path)
	if strings.EqualFold(ext, ".wav") {
		return true
	}

	declared := mime.TypeByExtension(strings.ToLower(ext))
	if declared == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	return err == nil && acceptedMediaTypes[mediaType]
}

// pipelineRunner isolates the conversion pipeline behind an interface.
type pipelineRunner interface {
	Run(ctx context.Context, req convert.Request) (convert.Result, error)
}

// AddReport lists the outcome of one submission batch. Duplicates of
// already queued jobs are silently dropped and appear in neither list.
type AddReport struct {
	Added    []domain.Job `json:"added"`
	Rejected []string     `json:"rejected"`
}

// Snapshot is a consistent copy of the queue for UI rendering.
type Snapshot struct {
	Jobs            []domain.Job `json:"jobs"`
	TotalInRun      int          `json:"totalInRun"`
	CompletedInRun  int          `json:"completedInRun"`
	OverallProgress int          `json:"overallProgress"`
	AdmittedID      string       `json:"admittedId,omitempty"`
	Exporting       bool         `json:"exporting"`
}

// Queue owns the submitted job list and serializes conversion work: at
// most one job occupies the conversion slot at a time, admission is
// suspended during bulk export, and every mutation happens under one
// lock so interleaved triggers never observe partial state.
type Queue struct {
	mu             sync.Mutex
	jobs           []*domain.Job
	admittedID     string
	exporting      bool
	startRequested bool
	totalInRun     int
	completedInRun int
	bitrate        int
	archiveID      string

	pipeline    pipelineRunner
	newPackager archive.Factory
	results     *resource.Store
	events      *EventBus
	stat        func(string) (os.FileInfo, error)
}

// NewQueue creates an empty queue over the given pipeline and stores.
func NewQueue(pipeline pipelineRunner, newPackager archive.Factory, results *resource.Store, events *EventBus) *Queue {
	return &Queue{
		pipeline:    pipeline,
		newPackager: newPackager,
		results:     results,
		events:      events,
		bitrate:     codec.DefaultBitrateKbps,
		stat:        os.Stat,
	}
}

// Add submits files as idle jobs. Non-WAV and unreadable paths are
// rejected by name; resubmissions of a queued file (same name, size,
// and modification time) are dropped.
func (q *Queue) Add(paths []string) AddReport {
	q.mu.Lock()
	defer q.mu.Unlock()

	var report AddReport
	for _, path := range paths {
		name := filepath.Base(path)
		if !AcceptsFile(path) {
			report.Rejected = append(report.Rejected, name)
			continue
		}

		info, err := q.stat(path)
		if err != nil {
			report.Rejected = append(report.Rejected, name)
			continue
		}

		id := jobID(name, info.Size(), info.ModTime().UnixMilli())
		if q.findLocked(id) != nil {
			continue
		}

		job := &domain.Job{
			ID:        id,
			InputPath: path,
			Name:      name,
			Status:    domain.JobStatusIdle,
		}
		q.jobs = append(q.jobs, job)
		report.Added = append(report.Added, *job)
	}

	return report
}

// StartAll begins working through idle jobs in submission order at the
// given bit rate. It is a no-op when a job is already admitted, an
// export is underway, or nothing is idle.
func (q *Queue) StartAll(bitrateKbps int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.bitrate = codec.NormalizeBitrate(bitrateKbps)
	q.startRequested = true
	q.admitNextLocked()
}

// Remove drops one job. The currently admitted job cannot be removed,
// and removal is refused during bulk export.
func (q *Queue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.exporting {
		return ErrExportInProgress
	}
	if q.admittedID == id {
		return ErrJobInFlight
	}

	idx := -1
	for i, job := range q.jobs {
		if job.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrJobNotFound
	}

	job := q.jobs[idx]
	wasIdle := job.Status == domain.JobStatusIdle
	if job.ResultID != "" {
		q.results.Release(job.ResultID)
	}
	q.jobs = append(q.jobs[:idx], q.jobs[idx+1:]...)

	if len(q.jobs) == 0 {
		q.totalInRun = 0
		q.completedInRun = 0
	} else if wasIdle && q.totalInRun > 0 {
		total := q.countIdleLocked()
		if q.admittedID != "" {
			total++
		}
		q.totalInRun = total
		if q.completedInRun > total {
			q.completedInRun = total
		}
	}

	q.events.Publish(Event{JobID: id, Type: EventTypeRemoved, Message: "Job removed"})
	return nil
}

// Reset clears every job, all run counters, the admitted-job marker,
// and every held result blob. Refused during bulk export.
func (q *Queue) Reset() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.exporting {
		return ErrExportInProgress
	}

	q.jobs = nil
	q.admittedID = ""
	q.startRequested = false
	q.totalInRun = 0
	q.completedInRun = 0
	q.archiveID = ""
	q.results.ReleaseAll()

	q.events.Publish(Event{Type: EventTypeReset, Message: "Queue reset"})
	return nil
}

// ExportAll packages every completed job's output into one zip blob and
// registers it as a downloadable handle. Admission stays suspended for
// the duration. A failed export clears the export flag without touching
// any job, so the user may retry.
func (q *Queue) ExportAll() (*resource.Handle, error) {
	q.mu.Lock()
	if q.exporting {
		q.mu.Unlock()
		return nil, ErrExportInProgress
	}
	if q.admittedID != "" {
		q.mu.Unlock()
		return nil, ErrConversionInProgress
	}
	if q.newPackager == nil {
		q.mu.Unlock()
		return nil, ErrExportUnavailable
	}

	type entry struct {
		name string
		data []byte
	}
	var entries []entry
	for _, job := range q.jobs {
		if job.Status != domain.JobStatusDone || job.ResultID == "" {
			continue
		}
		if h, ok := q.results.Get(job.ResultID); ok {
			entries = append(entries, entry{name: job.OutputName, data: h.Bytes()})
		}
	}
	if len(entries) == 0 {
		q.mu.Unlock()
		return nil, ErrNothingToExport
	}
	q.exporting = true
	q.mu.Unlock()

	packager := q.newPackager()
	var blob []byte
	var err error
	for _, e := range entries {
		if err = packager.AddEntry(e.name, e.data); err != nil {
			break
		}
	}
	if err == nil {
		blob, err = packager.Generate()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.exporting = false

	if err != nil {
		q.events.Publish(Event{
			Type:    EventTypeError,
			Message: fmt.Sprintf("archive export failed: %v", err),
		})
		return nil, fmt.Errorf("archive export: %w", err)
	}

	// a previous archive is superseded, not accumulated
	if q.archiveID != "" {
		q.results.Release(q.archiveID)
	}
	h := q.results.Put(archive.ArchiveName, "application/zip", blob)
	q.archiveID = h.ID

	q.events.Publish(Event{
		Type:       EventTypeExport,
		Message:    "Archive ready",
		OutputName: archive.ArchiveName,
		ResultID:   h.ID,
	})
	q.admitNextLocked()
	return h, nil
}

// Result returns the live result handle of a completed job.
func (q *Queue) Result(jobID string) (*resource.Handle, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job := q.findLocked(jobID)
	if job == nil {
		return nil, ErrJobNotFound
	}
	if job.Status != domain.JobStatusDone || job.ResultID == "" {
		return nil, fmt.Errorf("job %s has no result", jobID)
	}

	h, ok := q.results.Get(job.ResultID)
	if !ok {
		return nil, fmt.Errorf("job %s result was released", jobID)
	}
	return h, nil
}

// Snapshot returns a consistent copy of the queue state.
func (q *Queue) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]domain.Job, len(q.jobs))
	for i, job := range q.jobs {
		jobs[i] = *job
	}

	overall := 0
	if q.totalInRun > 0 {
		overall = q.completedInRun * 100 / q.totalInRun
	}

	return Snapshot{
		Jobs:            jobs,
		TotalInRun:      q.totalInRun,
		CompletedInRun:  q.completedInRun,
		OverallProgress: overall,
		AdmittedID:      q.admittedID,
		Exporting:       q.exporting,
	}
}

// admitNextLocked starts the first idle job when the conversion slot is
// free and a start was requested. The request stands until the idle jobs
// drain, so jobs queued mid-run join it, while jobs queued after the run
// (or during an export) wait for the next StartAll. A new run's counters
// are recomputed whenever the previous run has finished (completed
// caught up with total, or nothing tracked yet).
func (q *Queue) admitNextLocked() {
	if q.admittedID != "" || q.exporting || !q.startRequested {
		return
	}

	var next *domain.Job
	for _, job := range q.jobs {
		if job.Status == domain.JobStatusIdle {
			next = job
			break
		}
	}
	if next == nil {
		q.startRequested = false
		return
	}

	if q.totalInRun == 0 || q.completedInRun >= q.totalInRun {
		q.totalInRun = q.countIdleLocked()
		q.completedInRun = 0
	}

	q.admittedID = next.ID
	go q.runJob(next.ID, next.InputPath, q.bitrate)
}

// runJob executes the pipeline for one admitted job and reconciles the
// terminal outcome back into the queue.
func (q *Queue) runJob(id, inputPath string, bitrateKbps int) {
	result, err := q.pipeline.Run(context.Background(), convert.Request{
		InputPath:   inputPath,
		BitrateKbps: bitrateKbps,
		OnStatus: func(status domain.JobStatus) {
			q.mirrorStatus(id, status)
		},
		OnProgress: func(percent int) {
			q.mirrorProgress(id, percent)
		},
	})

	if err != nil {
		q.reconcileError(id, err)
		return
	}
	q.reconcileDone(id, result)
}

// mirrorStatus copies a pipeline stage transition onto the job.
func (q *Queue) mirrorStatus(id string, status domain.JobStatus) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job := q.findLocked(id)
	if job == nil || q.admittedID != id {
		return
	}

	job.Status = status
	q.events.Publish(Event{
		JobID:    id,
		Type:     EventTypeStatus,
		Status:   status,
		Progress: job.Progress,
	})
}

// mirrorProgress copies encode progress onto the job.
func (q *Queue) mirrorProgress(id string, percent int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job := q.findLocked(id)
	if job == nil || q.admittedID != id {
		return
	}

	job.Progress = percent
	q.events.Publish(Event{
		JobID:    id,
		Type:     EventTypeProgress,
		Status:   job.Status,
		Progress: percent,
	})
}

// reconcileDone stores the result, completes the run step, and admits
// the next idle job. A result for a job removed by reset is discarded.
func (q *Queue) reconcileDone(id string, result convert.Result) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job := q.findLocked(id)
	if job == nil || q.admittedID != id {
		return
	}

	if job.ResultID != "" {
		q.results.Release(job.ResultID)
	}
	h := q.results.Put(result.OutputName, result.MIMEType, result.Data)

	job.Status = domain.JobStatusDone
	job.Progress = 100
	job.OutputName = result.OutputName
	job.ResultID = h.ID
	job.Error = ""

	q.admittedID = ""
	q.completedInRun++

	q.events.Publish(Event{
		JobID:      id,
		Type:       EventTypeResult,
		Status:     domain.JobStatusDone,
		Progress:   100,
		Message:    "Conversion completed",
		OutputName: result.OutputName,
		ResultID:   h.ID,
	})
	q.admitNextLocked()
}

// reconcileError marks the job failed, completes the run step, and
// admits the next idle job.
func (q *Queue) reconcileError(id string, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job := q.findLocked(id)
	if job == nil || q.admittedID != id {
		return
	}

	job.Status = domain.JobStatusError
	job.Error = err.Error()

	q.admittedID = ""
	q.completedInRun++

	q.events.Publish(Event{
		JobID:   id,
		Type:    EventTypeError,
		Status:  domain.JobStatusError,
		Message: err.Error(),
	})
	q.admitNextLocked()
}

// findLocked returns the job with the given id, or nil.
func (q *Queue) findLocked(id string) *domain.Job {
	for _, job := range q.jobs {
		if job.ID == id {
			return job
		}
	}
	return nil
}

// countIdleLocked counts jobs still waiting for admission. The admitted
// job is excluded even while its status still reads idle, which it does
// until the pipeline's first stage callback lands.
func (q *Queue) countIdleLocked() int {
	n := 0
	for _, job := range q.jobs {
		if job.Status == domain.JobStatusIdle && job.ID != q.admittedID {
			n++
		}
	}
	return n
}

// jobID derives a deterministic id from file identity so duplicate
// submissions dedupe naturally.
func jobID(name string, size int64, modMilli int64) string {
	return fmt.Sprintf("%s:%d:%d", name, size, modMilli)
}

// NewQueueForTests creates a queue with an injectable stat dependency.
func NewQueueForTests(
	pipeline pipelineRunner,
	newPackager archive.Factory,
	results *resource.Store,
	events *EventBus,
	stat func(string) (os.FileInfo, error),
) *Queue {
	q := NewQueue(pipeline, newPackager, results, events)
	q.stat = stat
	return q
}
