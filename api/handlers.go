package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/prism/internal/logger"
	"github.com/gcbaptista/prism/services"
)

// Options configures the router.
type Options struct {
	MaxBodyBytes int64 // 0 disables the body limit
	DefaultK     int   // hits returned when a request omits k
	Logger       logger.Logger
}

// API holds dependencies for API handlers, primarily the document service.
type API struct {
	service  services.DocumentService
	log      logger.Logger
	defaultK int
}

// NewAPI creates a new API handler structure.
func NewAPI(service services.DocumentService, opts Options) *API {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	defaultK := opts.DefaultK
	if defaultK <= 0 {
		defaultK = 5
	}
	return &API{service: service, log: log, defaultK: defaultK}
}

// NewRouter builds a gin engine with the standard middleware chain and all
// routes registered.
func NewRouter(service services.DocumentService, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestIDMiddleware(), CORSMiddleware())
	if opts.Logger != nil {
		router.Use(LoggingMiddleware(opts.Logger))
	}
	if opts.MaxBodyBytes > 0 {
		router.Use(RequestSizeLimitMiddleware(opts.MaxBodyBytes))
	}
	SetupRoutes(router, service, opts)
	return router
}

// SetupRoutes defines all the API routes of the document service.
func SetupRoutes(router *gin.Engine, service services.DocumentService, opts Options) {
	apiHandler := NewAPI(service, opts)

	// Health check route
	router.GET("/health", apiHandler.HealthCheckHandler)

	// Upload routes
	uploadRoutes := router.Group("/upload")
	{
		uploadRoutes.POST("/fresh", apiHandler.UploadFreshHandler) // Single PDF, field "file"
		uploadRoutes.POST("/bulk", apiHandler.UploadBulkHandler)   // Many PDFs, field "files"
		uploadRoutes.POST("/zip", apiHandler.UploadZipHandler)     // Zip archive of PDFs, field "file"
	}

	// Job routes
	router.GET("/status/:jobId", apiHandler.GetJobHandler)
	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("/metrics", apiHandler.GetJobMetricsHandler) // Get job performance metrics
		jobRoutes.DELETE("/:jobId", apiHandler.CancelJobHandler)    // Cancel a queued or running job
	}

	// Retrieval routes
	router.POST("/related", apiHandler.RelatedHandler)
	docRoutes := router.Group("/docs/:docId")
	{
		docRoutes.GET("/sections", apiHandler.GetSectionsHandler)
		docRoutes.GET("/outline", apiHandler.GetOutlineHandler)
	}

	// Blocklist administration
	adminRoutes := router.Group("/admin/blocklist")
	{
		adminRoutes.GET("", apiHandler.GetBlocklistHandler)
		adminRoutes.POST("/add", apiHandler.AddBlockedHandler)
		adminRoutes.POST("/remove", apiHandler.RemoveBlockedHandler)
		adminRoutes.POST("/clear", apiHandler.ClearBlocklistHandler)
	}
}

// HealthCheckHandler reports service health and index readiness. It always
// answers 200; readiness is reported in the body.
func (api *API) HealthCheckHandler(c *gin.Context) {
	health := api.service.Health()
	c.JSON(http.StatusOK, gin.H{
		"status":         health.Status,
		"service":        "prism",
		"indexReady":     health.IndexReady,
		"documents":      health.Documents,
		"vectors":        health.Vectors,
		"embeddingModel": health.EmbeddingModel,
		"activeJobs":     health.ActiveJobs,
		"timestamp":      time.Now().Unix(),
	})
}
