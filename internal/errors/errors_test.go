package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestExtractionError(t *testing.T) {
	err := NewExtractionError("report.pdf", 0, io.ErrUnexpectedEOF)

	expectedMsg := "extracting 'report.pdf': unexpected EOF"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	// Page-scoped variant
	pageErr := NewExtractionError("report.pdf", 3, io.ErrUnexpectedEOF)
	expectedPageMsg := "extracting 'report.pdf' page 3: unexpected EOF"
	if pageErr.Error() != expectedPageMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedPageMsg, pageErr.Error())
	}

	if !errors.Is(err, ErrExtractionFailed) {
		t.Error("Expected error to match ErrExtractionFailed sentinel")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("Expected error to unwrap to the underlying cause")
	}
	if errors.Is(err, ErrEmbeddingFailed) {
		t.Error("Error should not match ErrEmbeddingFailed")
	}
}

func TestEmbeddingError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewEmbeddingError("openai", cause)

	expectedMsg := "embedding provider 'openai': connection refused"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
	if !errors.Is(err, ErrEmbeddingFailed) {
		t.Error("Expected error to match ErrEmbeddingFailed sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected error to unwrap to its cause")
	}
}

func TestDocumentNotFoundError(t *testing.T) {
	err := NewDocumentNotFoundError("doc123")

	expectedMsg := "document with ID 'doc123' not found"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Error("Expected error to match ErrDocumentNotFound sentinel")
	}
}

func TestJobNotFoundError(t *testing.T) {
	err := NewJobNotFoundError("job-456")

	expectedMsg := "job with ID 'job-456' not found"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
	if !errors.Is(err, ErrJobNotFound) {
		t.Error("Expected error to match ErrJobNotFound sentinel")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("query", "cannot be empty")

	expectedMsg := "validation error for field 'query': cannot be empty"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	err2 := NewValidationError("", "cannot be empty")
	expectedMsg2 := "validation error: cannot be empty"
	if err2.Error() != expectedMsg2 {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg2, err2.Error())
	}

	if !errors.Is(err, ErrInvalidInput) || !errors.Is(err2, ErrInvalidInput) {
		t.Error("Expected validation errors to match ErrInvalidInput sentinel")
	}
}

func TestUploadAndSchemaErrors(t *testing.T) {
	up := NewUploadError("notes.txt", "not a PDF")
	if up.Error() != "upload 'notes.txt' rejected: not a PDF" {
		t.Errorf("Unexpected upload error message '%s'", up.Error())
	}
	if !errors.Is(up, ErrInvalidUpload) {
		t.Error("Expected upload error to match ErrInvalidUpload sentinel")
	}

	se := NewSchemaError([]string{"title: required", "outline: required"})
	if se.Error() != "outline schema validation failed: title: required; outline: required" {
		t.Errorf("Unexpected schema error message '%s'", se.Error())
	}
	if !errors.Is(se, ErrSchemaViolation) {
		t.Error("Expected schema error to match ErrSchemaViolation sentinel")
	}
}

func TestErrorChaining(t *testing.T) {
	originalErr := NewJobNotFoundError("job-1")
	wrappedErr := fmt.Errorf("loading status: %w", originalErr)

	if !Is(wrappedErr, ErrJobNotFound) {
		t.Error("Expected wrapped error to still match ErrJobNotFound sentinel")
	}

	var jobErr *JobNotFoundError
	if !As(wrappedErr, &jobErr) {
		t.Fatal("Expected to be able to unwrap to JobNotFoundError")
	}
	if jobErr.JobID != "job-1" {
		t.Errorf("Expected job ID 'job-1', got '%s'", jobErr.JobID)
	}
}
