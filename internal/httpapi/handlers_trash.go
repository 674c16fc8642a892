package httpapi

import (
	"net/http"

	"inventory-platform/internal/trash"

	"github.com/gin-gonic/gin"
)

type trashListQuery struct {
	TableName string `form:"table_name"`
	UserID    string `form:"user_id"`
	// Alias accepted alongside the documented name.
	DeletedBy string `form:"deleted_by"`
	Search    string `form:"search"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

// TrashList lists recoverable items. A non-empty search switches to the
// free-text path over item_name/item_description.
func (h Handlers) TrashList(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req trashListQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid query parameters")
		return
	}

	var (
		res trash.ListResult
		err error
	)
	if req.UserID == "" {
		req.UserID = req.DeletedBy
	}

	if req.Search != "" {
		res, err = h.Trash.SearchDeletedItems(c.Request.Context(), id.WorkspaceID, req.Search, req.Limit, req.Offset)
	} else {
		res, err = h.Trash.GetDeletedItems(c.Request.Context(), trash.ListQuery{
			WorkspaceID: id.WorkspaceID,
			TableName:   req.TableName,
			DeletedBy:   req.UserID,
			Limit:       req.Limit,
			Offset:      req.Offset,
		})
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

func (h Handlers) TrashStats(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	stats, err := h.Trash.GetStats(c.Request.Context(), id.WorkspaceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, stats)
}

type recoverRequest struct {
	Reason string `json:"reason"`
}

func (h Handlers) TrashRecover(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req recoverRequest
	// Body is optional; an empty body means no reason given.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}

	item, err := h.Trash.RecoverItem(c.Request.Context(), id.WorkspaceID, c.Param("id"), id.UserID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, item)
}

// TrashCleanup triggers an immediate retention purge. The route is behind
// the trash:cleanup permission and the service re-checks the admin role.
func (h Handlers) TrashCleanup(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	res, err := h.Trash.ManualCleanup(c.Request.Context(), id.WorkspaceID, id.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}
