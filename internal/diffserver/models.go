package diffserver

import (
	"time"

	"github.com/difflyhq/difflycore/internal/events"
)

// JobRequest is the JSON body accepted by POST /jobs: two CSV file paths
// readable by the server process, plus the run options enumerated in
// spec.md §6.
type JobRequest struct {
	APath                  string   `json:"a_path"`
	BPath                  string   `json:"b_path"`
	KeyColumns             []string `json:"key_columns"`
	HeaderMode             string   `json:"header_mode"`
	EmitUnchanged          bool     `json:"emit_unchanged"`
	EmitProgress           bool     `json:"emit_progress"`
	ProgressIntervalEvents int      `json:"progress_interval_events"`
	PartitionCount         *int     `json:"partition_count"`
}

// JobResponse is returned after a successful job creation.
type JobResponse struct {
	JobID string `json:"job_id"`
}

// JobStatus represents the runtime state of a launched diff job.
type JobStatus struct {
	JobID      string         `json:"job_id"`
	Status     string         `json:"status"` // queued | running | finished | error | cancelled
	ErrorCode  string         `json:"error_code,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Events     []events.Event `json:"events,omitempty"`
}
