package api

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/prism/model"
	"github.com/gcbaptista/prism/services"
)

// UploadFreshHandler stores one PDF and schedules its indexing.
// Form field: file. Response: {jobIds, docId}.
func (api *API) UploadFreshHandler(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		api.sendFormError(c, "file", err)
		return
	}

	f, err := header.Open()
	if err != nil {
		SendInternalError(c, "upload", err)
		return
	}
	defer func() { _ = f.Close() }()

	res, err := api.service.UploadPDF(header.Filename, f)
	if err != nil {
		SendServiceError(c, "upload", err)
		return
	}

	api.log.Info("Accepted upload", "file", header.Filename, "doc_id", res.DocID, "job_ids", res.JobIDs)
	c.JSON(http.StatusOK, res)
}

// UploadBulkHandler stores several PDFs. Form field: files (repeated).
// Response: one {jobIds, docId} per file.
func (api *API) UploadBulkHandler(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		api.sendFormError(c, "files", err)
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		result := &ValidationResult{Valid: true}
		result.AddError("files", "Provide at least one PDF")
		SendValidationError(c, result)
		return
	}

	files := make([]services.UploadFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			SendInternalError(c, "bulk upload", err)
			return
		}
		opened = append(opened, f)
		files = append(files, services.UploadFile{Name: h.Filename, Content: f})
	}

	results, err := api.service.UploadPDFs(files)
	if err != nil {
		SendServiceError(c, "bulk upload", err)
		return
	}

	api.log.Info("Accepted bulk upload", "files", len(results))
	c.JSON(http.StatusOK, results)
}

// UploadZipHandler stores the PDFs of a zip archive. Form field: file.
// Response: one {jobIds, docId} per distinct PDF in the archive.
func (api *API) UploadZipHandler(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		api.sendFormError(c, "file", err)
		return
	}

	f, err := header.Open()
	if err != nil {
		SendInternalError(c, "zip upload", err)
		return
	}
	defer func() { _ = f.Close() }()

	results, err := api.service.UploadZip(c.Request.Context(), header.Filename, f)
	if err != nil {
		SendServiceError(c, "zip upload", err)
		return
	}
	if results == nil {
		results = []model.UploadResult{} // Initialize as empty slice, not nil
	}

	api.log.Info("Accepted zip upload", "file", header.Filename, "pdfs", len(results))
	c.JSON(http.StatusOK, results)
}

// sendFormError reports an unreadable form. An oversized body maps to 413,
// anything else to a validation failure on field.
func (api *API) sendFormError(c *gin.Context, field string, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		SendServiceError(c, "upload", err)
		return
	}
	result := &ValidationResult{Valid: true}
	if errors.Is(err, http.ErrMissingFile) {
		result.AddError(field, "Multipart form field '"+field+"' is required")
	} else {
		result.AddError(field, "Invalid multipart form: "+err.Error())
	}
	SendValidationError(c, result)
}
