package domain

// JobStatus tracks each pipeline stage for a single conversion job.
type JobStatus string

const (
	JobStatusIdle       JobStatus = "idle"
	JobStatusReading    JobStatus = "reading"
	JobStatusParsing    JobStatus = "parsing"
	JobStatusConverting JobStatus = "converting"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
)

// IsActive reports whether a status occupies the single conversion slot.
func (s JobStatus) IsActive() bool {
	switch s {
	case JobStatusReading, JobStatusParsing, JobStatusConverting:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether a status can only change through a full reset.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	OutputDir   string `json:"outputDir"`
	BitrateKbps int    `json:"bitrateKbps"`
}

// Job stores one submitted file and its conversion lifecycle.
type Job struct {
	ID         string    `json:"id"`
	InputPath  string    `json:"inputPath"`
	Name       string    `json:"name"`
	Status     JobStatus `json:"status"`
	Progress   int       `json:"progress"`
	OutputName string    `json:"outputName,omitempty"`
	ResultID   string    `json:"resultId,omitempty"`
	Error      string    `json:"error,omitempty"`
}
