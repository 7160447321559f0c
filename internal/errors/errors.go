package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common error conditions
var (
	// ErrExtractionFailed is returned when a PDF cannot be read at all
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrOCRUnavailable is returned when the OCR toolchain is missing
	ErrOCRUnavailable = errors.New("ocr engine unavailable")

	// ErrEmptyStructure is returned when structuring yields no sections
	ErrEmptyStructure = errors.New("empty structuring result")

	// ErrIndexNotReady is returned when no vectors have been indexed yet
	ErrIndexNotReady = errors.New("vector index not ready")

	// ErrEmbeddingFailed is returned when the embedding collaborator fails
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrDocumentNotFound is returned when a document is not found
	ErrDocumentNotFound = errors.New("document not found")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrJobFinished is returned when cancelling a job that already ended
	ErrJobFinished = errors.New("job already finished")

	// ErrManagerStopped is returned when work is submitted after shutdown
	ErrManagerStopped = errors.New("job manager stopped")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidUpload is returned when an uploaded file is not a PDF or zip
	ErrInvalidUpload = errors.New("invalid upload")

	// ErrSchemaViolation is returned when an outline fails schema validation
	ErrSchemaViolation = errors.New("schema violation")
)

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// ExtractionError represents a failure to read a PDF, optionally on one page
type ExtractionError struct {
	Path string
	Page int
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("extracting '%s' page %d: %v", e.Path, e.Page, e.Err)
	}
	return fmt.Sprintf("extracting '%s': %v", e.Path, e.Err)
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailed
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError creates a new ExtractionError
func NewExtractionError(path string, page int, err error) *ExtractionError {
	return &ExtractionError{Path: path, Page: page, Err: err}
}

// EmbeddingError represents a failure of the embedding provider
type EmbeddingError struct {
	Provider string
	Err      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding provider '%s': %v", e.Provider, e.Err)
}

func (e *EmbeddingError) Is(target error) bool {
	return target == ErrEmbeddingFailed
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// NewEmbeddingError creates a new EmbeddingError
func NewEmbeddingError(provider string, err error) *EmbeddingError {
	return &EmbeddingError{Provider: provider, Err: err}
}

// DocumentNotFoundError represents a document not found error with context
type DocumentNotFoundError struct {
	DocumentID string
}

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("document with ID '%s' not found", e.DocumentID)
}

func (e *DocumentNotFoundError) Is(target error) bool {
	return target == ErrDocumentNotFound
}

// NewDocumentNotFoundError creates a new DocumentNotFoundError
func NewDocumentNotFoundError(documentID string) *DocumentNotFoundError {
	return &DocumentNotFoundError{DocumentID: documentID}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UploadError represents a rejected upload
type UploadError struct {
	Filename string
	Reason   string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload '%s' rejected: %s", e.Filename, e.Reason)
}

func (e *UploadError) Is(target error) bool {
	return target == ErrInvalidUpload
}

// NewUploadError creates a new UploadError
func NewUploadError(filename, reason string) *UploadError {
	return &UploadError{Filename: filename, Reason: reason}
}

// SchemaError lists the violations found while validating an outline
type SchemaError struct {
	Details []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("outline schema validation failed: %s", strings.Join(e.Details, "; "))
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaViolation
}

// NewSchemaError creates a new SchemaError
func NewSchemaError(details []string) *SchemaError {
	return &SchemaError{Details: details}
}
