package model

import (
	"time"
)

// JobStatus represents the status of a background ingestion job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusDone      JobStatus = "done"
	JobStatusError     JobStatus = "error"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether the status can no longer change.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusDone || s == JobStatusError || s == JobStatusCancelled
}

// JobType represents the type of job being executed
type JobType string

const (
	JobTypeIndexDocument JobType = "index_document"
	JobTypeStructure     JobType = "structure"
)

// Job milestones reported while a document is indexed.
const (
	ProgressStarted    = 5
	ProgressStructured = 35
	ProgressSentences  = 60
	ProgressEmbedded   = 80
	ProgressStored     = 95
	ProgressDone       = 100
)

// Job represents a long-running background operation on one document
type Job struct {
	ID          string            `json:"jobId"`
	Type        JobType           `json:"type"`
	Status      JobStatus         `json:"status"`
	DocID       string            `json:"docId"`
	Progress    int               `json:"progress"`
	Message     string            `json:"message,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	StartedAt   *time.Time        `json:"startedAt,omitempty"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	c := *j
	if j.Metadata != nil {
		c.Metadata = make(map[string]string, len(j.Metadata))
		for k, v := range j.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// UploadResult is returned for every accepted upload.
type UploadResult struct {
	JobIDs []string `json:"jobIds"`
	DocID  string   `json:"docId"`
}
