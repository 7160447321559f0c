package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/prism/model"
)

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")
	if result := ValidateJobID(jobID); result.HasErrors() {
		// Anything that is not a job id cannot name a job
		SendJobNotFoundError(c, jobID)
		return
	}

	job, err := api.service.JobStatus(jobID)
	if err != nil {
		SendServiceError(c, "job lookup", err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// CancelJobHandler cancels a queued or running job
func (api *API) CancelJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")
	if result := ValidateJobID(jobID); result.HasErrors() {
		SendJobNotFoundError(c, jobID)
		return
	}

	if err := api.service.CancelJob(jobID); err != nil {
		SendServiceError(c, "job cancellation", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "cancellation_requested",
		"jobId":  jobID,
	})
}

// GetJobMetricsHandler handles requests to get job performance metrics
func (api *API) GetJobMetricsHandler(c *gin.Context) {
	metrics := api.service.JobMetrics()

	c.JSON(http.StatusOK, gin.H{
		"metrics":          metrics,
		"success_rate":     metrics.SuccessRate,
		"current_workload": metrics.JobsByStatus[model.JobStatusQueued] + metrics.JobsByStatus[model.JobStatusRunning],
	})
}
