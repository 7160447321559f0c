// Package api provides the HTTP surface of the document service.
package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gcbaptista/prism/model"
)

// Request bounds.
const (
	maxQueryChars = 4000
	maxK          = 50
	maxDocIDs     = 500
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateJobID validates a job id path parameter. Job ids are UUIDs.
func ValidateJobID(jobID string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if jobID == "" {
		result.AddError("jobId", "Job ID is required")
		return result
	}
	if _, err := uuid.Parse(jobID); err != nil {
		result.AddError("jobId", "Job ID must be a UUID")
	}

	return result
}

// ValidateDocumentID validates a document id path parameter
func ValidateDocumentID(docID string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if docID == "" {
		result.AddError("docId", "Document ID is required")
		return result
	}

	if strings.TrimSpace(docID) != docID {
		result.AddError("docId", "Document ID cannot have leading or trailing whitespace")
		return result
	}

	if strings.ContainsAny(docID, `/\`) || strings.Contains(docID, "..") {
		result.AddError("docId", "Document ID cannot contain path separators")
	}

	return result
}

// ValidateDocIDs validates a list of document ids sent in a request body.
// Blank ids are not an error; CleanDocIDs drops them.
func ValidateDocIDs(field string, ids []string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(ids) > maxDocIDs {
		result.AddError(field, "Too many document IDs")
	}

	return result
}

// CleanDocIDs trims ids and drops blank entries. It returns nil when nothing
// is left, so an all-blank filter behaves like no filter.
func CleanDocIDs(ids []string) []string {
	var cleaned []string
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			cleaned = append(cleaned, id)
		}
	}
	return cleaned
}

// ValidateRelatedRequest validates and normalises a retrieval request.
// A missing k takes defaultK; k below 1 is clamped to 1.
func ValidateRelatedRequest(req *model.SearchQuery, defaultK int) *ValidationResult {
	result := &ValidationResult{Valid: true}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		result.AddError("query", "Query must not be empty")
	} else if len(req.Query) > maxQueryChars {
		result.AddError("query", "Query is too long")
	}

	switch {
	case req.K == 0:
		req.K = defaultK
	case req.K < 1:
		req.K = 1
	case req.K > maxK:
		result.AddError("k", "k cannot exceed 50")
	}

	if docIDs := ValidateDocIDs("docIds", req.DocFilter); docIDs.HasErrors() {
		result.Valid = false
		result.Errors = append(result.Errors, docIDs.Errors...)
	}
	req.DocFilter = CleanDocIDs(req.DocFilter)

	return result
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}

// ValidateJSONBinding validates JSON binding and returns a standardized error
func ValidateJSONBinding(c *gin.Context, target any) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindJSON(target); err != nil {
		result.AddError("request_body", "Invalid request body: "+err.Error())
	}

	return result
}
