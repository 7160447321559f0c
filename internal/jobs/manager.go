// Package jobs runs document ingestion in the background. Every job is
// persisted as tmp/{jobId}.json so its status survives a restart.
package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gcbaptista/prism/internal/errors"
	"github.com/gcbaptista/prism/internal/logger"
	"github.com/gcbaptista/prism/internal/persistence"
	"github.com/gcbaptista/prism/model"
)

// JobFunc is the body of a job. It reports milestones through progress and
// must return promptly once ctx is cancelled.
type JobFunc func(ctx context.Context, job *model.Job, progress func(percent int, message string)) error

// Manager handles background job execution and tracking
type Manager struct {
	dir string
	log logger.Logger

	mu      sync.RWMutex
	jobs    map[string]*model.Job
	cancels map[string]context.CancelFunc

	workers  chan struct{} // Limits concurrent jobs
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	metrics  *JobMetrics
}

// NewManager creates a new job manager with the given worker count. Jobs are
// persisted under dir; an empty dir keeps them in memory only.
func NewManager(maxWorkers int, dir string, log logger.Logger) (*Manager, error) {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create jobs directory %s: %w", dir, err)
		}
	}
	return &Manager{
		dir:      dir,
		log:      log.With("component", "jobs"),
		jobs:     make(map[string]*model.Job),
		cancels:  make(map[string]context.CancelFunc),
		workers:  make(chan struct{}, maxWorkers),
		stopChan: make(chan struct{}),
		metrics:  NewJobMetrics(),
	}, nil
}

// Start marks jobs left unfinished by a previous process as failed and
// starts the background cleanup of old jobs.
func (m *Manager) Start(retention time.Duration) {
	m.recoverInterrupted()
	m.log.Info("Job manager started", "workers", cap(m.workers))

	if retention > 0 {
		m.wg.Add(1)
		go m.cleanupRoutine(retention)
	}
}

// Stop cancels running jobs and waits for them to return.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
		m.mu.Lock()
		for _, cancel := range m.cancels {
			cancel()
		}
		m.mu.Unlock()
		m.wg.Wait()
		m.log.Info("Job manager stopped")
	})
}

// CreateJob registers a queued job for docID and returns it.
func (m *Manager) CreateJob(jobType model.JobType, docID string, metadata map[string]string) *model.Job {
	job := &model.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    model.JobStatusQueued,
		DocID:     docID,
		CreatedAt: time.Now().UTC(),
		Metadata:  metadata,
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.persistLocked(job)
	snapshot := job.Clone()
	m.mu.Unlock()

	m.metrics.RecordJobCreated(jobType)
	m.log.Debug("Created job", "jobId", job.ID, "type", job.Type, "docId", docID)
	return snapshot
}

// GetJob retrieves a job by ID, reading it from disk when this process has
// not seen it.
func (m *Manager) GetJob(jobID string) (*model.Job, error) {
	m.mu.RLock()
	job, exists := m.jobs[jobID]
	if exists {
		c := job.Clone()
		m.mu.RUnlock()
		return c, nil
	}
	m.mu.RUnlock()

	if m.dir == "" {
		return nil, errors.NewJobNotFoundError(jobID)
	}
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, errors.NewJobNotFoundError(jobID)
	}
	var stored model.Job
	if err := persistence.LoadJSON(m.path(jobID), &stored); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			m.log.Warn("Failed to read persisted job", "jobId", jobID, "error", err)
		}
		return nil, errors.NewJobNotFoundError(jobID)
	}
	return &stored, nil
}

// ListJobs returns the jobs of docID (all jobs when docID is empty),
// optionally filtered by status
func (m *Manager) ListJobs(docID string, status *model.JobStatus) []*model.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*model.Job, 0)
	for _, job := range m.jobs {
		if docID != "" && job.DocID != docID {
			continue
		}
		if status != nil && job.Status != *status {
			continue
		}
		result = append(result, job.Clone())
	}
	return result
}

// ExecuteJob runs jobFunc in the background once a worker slot is free. The
// job stays queued until then.
func (m *Manager) ExecuteJob(jobID string, jobFunc JobFunc) error {
	select {
	case <-m.stopChan:
		return errors.ErrManagerStopped
	default:
	}

	m.mu.Lock()
	job, exists := m.jobs[jobID]
	if !exists {
		m.mu.Unlock()
		return errors.NewJobNotFoundError(jobID)
	}
	if job.Status != model.JobStatusQueued {
		m.mu.Unlock()
		return fmt.Errorf("job with ID '%s' is not queued (current: %s)", jobID, job.Status)
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancels[jobID] = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer func() {
			m.mu.Lock()
			delete(m.cancels, jobID)
			m.mu.Unlock()
			cancel()
		}()

		// Acquire worker slot
		select {
		case m.workers <- struct{}{}:
		case <-ctx.Done():
			m.finish(jobID, model.JobStatusCancelled, "cancelled before start", 0)
			return
		}
		defer func() { <-m.workers }()
		if ctx.Err() != nil {
			m.finish(jobID, model.JobStatusCancelled, "cancelled before start", 0)
			return
		}

		snapshot, ok := m.start(jobID)
		if !ok {
			return
		}

		startTime := time.Now()
		err := m.run(ctx, snapshot, jobFunc)
		executionTime := time.Since(startTime)

		switch {
		case err == nil:
			m.finish(jobID, model.JobStatusDone, "", executionTime)
			m.log.Info("Job completed", "jobId", jobID, "docId", snapshot.DocID, "took", executionTime)
		case ctx.Err() != nil:
			m.finish(jobID, model.JobStatusCancelled, "cancelled", executionTime)
			m.log.Info("Job cancelled", "jobId", jobID, "docId", snapshot.DocID)
		default:
			m.finish(jobID, model.JobStatusError, err.Error(), executionTime)
			m.log.Error("Job failed", "jobId", jobID, "docId", snapshot.DocID, "took", executionTime, "error", err)
		}
	}()

	return nil
}

// run calls jobFunc, turning a panic into a job error.
func (m *Manager) run(ctx context.Context, job *model.Job, jobFunc JobFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return jobFunc(ctx, job, func(percent int, message string) {
		m.UpdateJobProgress(job.ID, percent, message)
	})
}

// CancelJob cancels a queued or running job.
func (m *Manager) CancelJob(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return errors.NewJobNotFoundError(jobID)
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("job '%s' is %s: %w", jobID, job.Status, errors.ErrJobFinished)
	}
	if cancel, ok := m.cancels[jobID]; ok {
		cancel()
		return nil
	}
	// Created but never submitted.
	m.setStatusLocked(job, model.JobStatusCancelled, "cancelled before start")
	return nil
}

// UpdateJobProgress records a milestone of a running job. Progress never
// moves backwards.
func (m *Manager) UpdateJobProgress(jobID string, percent int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists || job.Status != model.JobStatusRunning {
		return
	}
	if percent > job.Progress {
		job.Progress = min(percent, model.ProgressDone)
	}
	job.Message = message
	m.persistLocked(job)
}

func (m *Manager) start(jobID string) (*model.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists || job.Status != model.JobStatusQueued {
		return nil, false
	}
	now := time.Now().UTC()
	job.StartedAt = &now
	job.Progress = model.ProgressStarted
	m.setStatusLocked(job, model.JobStatusRunning, "")
	return job.Clone(), true
}

func (m *Manager) finish(jobID string, status model.JobStatus, errorMsg string, executionTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists || job.Status.IsTerminal() {
		return
	}
	switch status {
	case model.JobStatusDone:
		job.Progress = model.ProgressDone
		job.Message = "done"
		m.metrics.RecordJobCompleted(job.Type, executionTime)
	case model.JobStatusError:
		m.metrics.RecordJobFailed(job.Type)
	}
	m.setStatusLocked(job, status, errorMsg)
}

// setStatusLocked updates the status of a job and persists it. m.mu must be held.
func (m *Manager) setStatusLocked(job *model.Job, status model.JobStatus, errorMsg string) {
	oldStatus := job.Status
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	if status.IsTerminal() {
		now := time.Now().UTC()
		job.CompletedAt = &now
	}
	m.persistLocked(job)
	m.metrics.RecordJobStatusChange(oldStatus, status)
}

func (m *Manager) path(jobID string) string {
	return filepath.Join(m.dir, jobID+".json")
}

func (m *Manager) persistLocked(job *model.Job) {
	if m.dir == "" {
		return
	}
	if err := persistence.SaveJSON(m.path(job.ID), job); err != nil {
		m.log.Warn("Failed to persist job", "jobId", job.ID, "error", err)
	}
}

// recoverInterrupted fails persisted jobs that were queued or running when
// the previous process exited.
func (m *Manager) recoverInterrupted() {
	if m.dir == "" {
		return
	}
	paths, err := filepath.Glob(filepath.Join(m.dir, "*.json"))
	if err != nil {
		return
	}
	recovered := 0
	for _, p := range paths {
		var job model.Job
		if err := persistence.LoadJSON(p, &job); err != nil || job.ID == "" {
			continue
		}
		if job.Status.IsTerminal() {
			continue
		}
		now := time.Now().UTC()
		job.Status = model.JobStatusError
		job.Error = "interrupted by restart"
		job.CompletedAt = &now
		if err := persistence.SaveJSON(p, &job); err != nil {
			m.log.Warn("Failed to persist recovered job", "jobId", job.ID, "error", err)
			continue
		}
		recovered++
	}
	if recovered > 0 {
		m.log.Warn("Marked interrupted jobs as failed", "count", recovered)
	}
}

// cleanupRoutine runs periodic job cleanup
func (m *Manager) cleanupRoutine(retention time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanupOldJobs(retention)
		case <-m.stopChan:
			return
		}
	}
}

// CleanupOldJobs removes finished jobs older than maxAge, in memory and on disk.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	cleaned := 0
	for jobID, job := range m.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, jobID)
			if m.dir != "" {
				_ = os.Remove(m.path(jobID))
			}
			cleaned++
		}
	}

	if cleaned > 0 {
		m.log.Info("Cleaned up old jobs", "count", cleaned)
	}
	return cleaned
}

// GetMetrics returns current job performance metrics
func (m *Manager) GetMetrics() JobMetricsData {
	return m.metrics.GetMetrics()
}

// GetJobSuccessRate returns the overall job success rate
func (m *Manager) GetJobSuccessRate() float64 {
	return m.metrics.GetSuccessRate()
}

// GetCurrentWorkload returns the number of queued and running jobs
func (m *Manager) GetCurrentWorkload() int64 {
	return m.metrics.GetCurrentWorkload()
}
