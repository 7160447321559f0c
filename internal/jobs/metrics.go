package jobs

import (
	"maps"
	"sync"
	"time"

	"github.com/gcbaptista/prism/model"
)

// executionWindow bounds the execution times kept per job type.
const executionWindow = 100

// JobMetricsData represents job metrics data without mutex (safe for copying)
type JobMetricsData struct {
	JobsCreated                int64                           `json:"jobs_created"`
	JobsCompleted              int64                           `json:"jobs_completed"`
	JobsFailed                 int64                           `json:"jobs_failed"`
	TotalExecutionTime         time.Duration                   `json:"total_execution_time_ns"`
	AverageExecutionTime       time.Duration                   `json:"average_execution_time_ns"`
	AverageExecutionTimeByType map[model.JobType]time.Duration `json:"average_execution_time_by_type_ns"`
	JobsByType                 map[model.JobType]int64         `json:"jobs_by_type"`
	JobsByStatus               map[model.JobStatus]int64       `json:"jobs_by_status"`
	SuccessRate                float64                         `json:"success_rate"`
	LastUpdated                time.Time                       `json:"last_updated"`
}

// JobMetrics tracks performance metrics for ingestion jobs
type JobMetrics struct {
	mu                   sync.RWMutex
	jobsCreated          int64
	jobsCompleted        int64
	jobsFailed           int64
	totalExecutionTime   time.Duration
	jobsByType           map[model.JobType]int64
	jobsByStatus         map[model.JobStatus]int64
	executionTimesByType map[model.JobType][]time.Duration
	lastUpdated          time.Time
}

// NewJobMetrics creates a new metrics collector
func NewJobMetrics() *JobMetrics {
	return &JobMetrics{
		jobsByType:           make(map[model.JobType]int64),
		jobsByStatus:         make(map[model.JobStatus]int64),
		executionTimesByType: make(map[model.JobType][]time.Duration),
		lastUpdated:          time.Now(),
	}
}

// RecordJobCreated increments job creation counter
func (m *JobMetrics) RecordJobCreated(jobType model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobsCreated++
	m.jobsByType[jobType]++
	m.jobsByStatus[model.JobStatusQueued]++
	m.lastUpdated = time.Now()
}

// RecordJobStatusChange moves one job between status counters
func (m *JobMetrics) RecordJobStatusChange(oldStatus, newStatus model.JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oldStatus != "" {
		m.jobsByStatus[oldStatus]--
		if m.jobsByStatus[oldStatus] < 0 {
			m.jobsByStatus[oldStatus] = 0
		}
	}
	m.jobsByStatus[newStatus]++
	m.lastUpdated = time.Now()
}

// RecordJobCompleted records successful job completion
func (m *JobMetrics) RecordJobCompleted(jobType model.JobType, executionTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobsCompleted++
	m.totalExecutionTime += executionTime

	times := append(m.executionTimesByType[jobType], executionTime)
	if len(times) > executionWindow {
		times = times[1:]
	}
	m.executionTimesByType[jobType] = times
	m.lastUpdated = time.Now()
}

// RecordJobFailed records job failure
func (m *JobMetrics) RecordJobFailed(model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobsFailed++
	m.lastUpdated = time.Now()
}

// GetMetrics returns a copy of current metrics
func (m *JobMetrics) GetMetrics() JobMetricsData {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var avg time.Duration
	if m.jobsCompleted > 0 {
		avg = m.totalExecutionTime / time.Duration(m.jobsCompleted)
	}
	return JobMetricsData{
		JobsCreated:                m.jobsCreated,
		JobsCompleted:              m.jobsCompleted,
		JobsFailed:                 m.jobsFailed,
		TotalExecutionTime:         m.totalExecutionTime,
		AverageExecutionTime:       avg,
		AverageExecutionTimeByType: m.averagesByTypeLocked(),
		JobsByType:                 maps.Clone(m.jobsByType),
		JobsByStatus:               maps.Clone(m.jobsByStatus),
		SuccessRate:                m.successRateLocked(),
		LastUpdated:                m.lastUpdated,
	}
}

// averagesByTypeLocked returns the mean of the recent execution times of each
// job type that has completed at least once. Callers hold m.mu.
func (m *JobMetrics) averagesByTypeLocked() map[model.JobType]time.Duration {
	averages := make(map[model.JobType]time.Duration, len(m.executionTimesByType))
	for jobType, times := range m.executionTimesByType {
		if len(times) == 0 {
			continue
		}
		var total time.Duration
		for _, t := range times {
			total += t
		}
		averages[jobType] = total / time.Duration(len(times))
	}
	return averages
}

// GetSuccessRate returns the success rate (0.0 to 1.0)
func (m *JobMetrics) GetSuccessRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.successRateLocked()
}

func (m *JobMetrics) successRateLocked() float64 {
	finished := m.jobsCompleted + m.jobsFailed
	if finished == 0 {
		return 1.0 // No jobs yet, assume 100% success
	}
	return float64(m.jobsCompleted) / float64(finished)
}

// GetCurrentWorkload returns the number of queued and running jobs
func (m *JobMetrics) GetCurrentWorkload() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.jobsByStatus[model.JobStatusQueued] + m.jobsByStatus[model.JobStatusRunning]
}
