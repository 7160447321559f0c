package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/prism/internal/errors"
	"github.com/gcbaptista/prism/model"
)

// RelatedHandler returns the sections most related to a query.
// Request Body: model.SearchQuery
func (api *API) RelatedHandler(c *gin.Context) {
	var req model.SearchQuery
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidateRelatedRequest(&req, api.defaultK); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	res, err := api.service.Search(c.Request.Context(), req)
	if err != nil {
		SendServiceError(c, "search", err)
		return
	}
	if res.Hits == nil {
		res.Hits = []model.Hit{}
	}

	c.JSON(http.StatusOK, res)
}

// GetSectionsHandler returns the stored sections of a document.
func (api *API) GetSectionsHandler(c *gin.Context) {
	docID := c.Param("docId")
	if result := ValidateDocumentID(docID); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	sections, err := api.service.Sections(docID)
	if errors.Is(err, internalErrors.ErrDocumentNotFound) {
		SendDocumentNotFoundError(c, docID)
		return
	}
	if err != nil {
		SendServiceError(c, "sections lookup", err)
		return
	}

	c.JSON(http.StatusOK, sections)
}

// GetOutlineHandler returns the stored outline of a document.
func (api *API) GetOutlineHandler(c *gin.Context) {
	docID := c.Param("docId")
	if result := ValidateDocumentID(docID); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	outline, err := api.service.Outline(docID)
	if errors.Is(err, internalErrors.ErrDocumentNotFound) {
		SendDocumentNotFoundError(c, docID)
		return
	}
	if err != nil {
		SendServiceError(c, "outline lookup", err)
		return
	}

	c.JSON(http.StatusOK, outline)
}
