package models

import "time"

// JobStatus represents the status of an ingestion job.
type JobStatus string

const (
	JobStatusIdle    JobStatus = "idle"
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusError   JobStatus = "error"
)

// Session holds all per-session state: the parsed model index, the current
// ingestion job, and the latest validation report. A new model upload resets
// the index, the job and the report in one step.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	ModelIndex *ModelIndex `json:"-"`
	Filename   string      `json:"filename,omitempty"`

	// JobEpoch increments on every upload. A background job only commits its
	// result while the session still carries the epoch it was started with,
	// so a late completion from a superseded upload is discarded.
	JobID       string    `json:"jobId,omitempty"`
	JobEpoch    int64     `json:"-"`
	JobStatus   JobStatus `json:"jobStatus"`
	JobProgress int       `json:"jobProgress"`
	JobMessage  string    `json:"jobMessage,omitempty"`

	Report *Report `json:"-"`
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		JobStatus: JobStatusIdle,
	}
}

// JobState is the pollable view of the session's current job.
type JobState struct {
	Status   JobStatus `json:"status"`
	Progress int       `json:"progress"`
	Message  string    `json:"message"`
}
