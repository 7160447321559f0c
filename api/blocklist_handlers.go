package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BlocklistRequest carries the document ids of an add or remove call.
type BlocklistRequest struct {
	DocIDs []string `json:"docIds"`
}

// GetBlocklistHandler lists the blocked document ids.
func (api *API) GetBlocklistHandler(c *gin.Context) {
	ids := api.service.Blocklist()
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"docIds": ids})
}

// AddBlockedHandler adds document ids to the blocklist.
func (api *API) AddBlockedHandler(c *gin.Context) {
	api.updateBlocklist(c, "blocklist add", api.service.BlockDocuments)
}

// RemoveBlockedHandler removes document ids from the blocklist.
func (api *API) RemoveBlockedHandler(c *gin.Context) {
	api.updateBlocklist(c, "blocklist remove", api.service.UnblockDocuments)
}

// ClearBlocklistHandler empties the blocklist.
func (api *API) ClearBlocklistHandler(c *gin.Context) {
	if err := api.service.ClearBlocklist(); err != nil {
		SendServiceError(c, "blocklist clear", err)
		return
	}
	api.log.Info("Cleared blocklist")
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (api *API) updateBlocklist(c *gin.Context, operation string, apply func([]string) ([]string, error)) {
	var req BlocklistRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidateDocIDs("docIds", req.DocIDs); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	req.DocIDs = CleanDocIDs(req.DocIDs)

	ids, err := apply(req.DocIDs)
	if err != nil {
		SendServiceError(c, operation, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}

	api.log.Info("Updated blocklist", "operation", operation, "docIds", req.DocIDs, "blocked", len(ids))
	c.JSON(http.StatusOK, gin.H{"docIds": ids})
}
