package domain

import "time"

// DiagnosticStatus indicates the outcome of a single startup check.
type DiagnosticStatus string

const (
	DiagnosticStatusPass DiagnosticStatus = "pass"
	DiagnosticStatusFail DiagnosticStatus = "fail"
)

// DiagnosticItem is one startup check result with optional hint.
type DiagnosticItem struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Status  DiagnosticStatus `json:"status"`
	Message string           `json:"message"`
	Hint    string           `json:"hint,omitempty"`
}

// DiagnosticReport aggregates startup checks for the UI banner.
// ConversionBlocked is set when the MP3 encoder itself is unusable;
// the UI disables conversion entirely in that case rather than
// producing per-job errors.
type DiagnosticReport struct {
	GeneratedAt       time.Time        `json:"generatedAt"`
	HasFailures       bool             `json:"hasFailures"`
	ConversionBlocked bool             `json:"conversionBlocked"`
	ExportDisabled    bool             `json:"exportDisabled"`
	Items             []DiagnosticItem `json:"items"`
}
