package httpapi

import (
	"net/http"
	"time"

	"inventory-platform/internal/audit"

	"github.com/gin-gonic/gin"
)

type auditRecentQuery struct {
	Limit     int    `form:"limit"`
	Operation string `form:"operation"`
	TableName string `form:"table_name"`
	UserID    string `form:"user_id"`
	From      string `form:"from"`
	To        string `form:"to"`
}

// AuditRecent lists audit records most-recent-first. Unknown operation
// values are rejected here with a field-level message; the service would
// treat them as matching nothing.
func (h Handlers) AuditRecent(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req auditRecentQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid query parameters")
		return
	}

	op := audit.Operation(req.Operation)
	if req.Operation != "" && !audit.ValidOperation(op) {
		respondError(c, http.StatusBadRequest, "operation must be one of INSERT, UPDATE, DELETE")
		return
	}
	if req.TableName != "" && !audit.IsTracked(req.TableName) {
		respondError(c, http.StatusBadRequest, "unknown table_name")
		return
	}
	from, ok := parseTimeParam(c, req.From, "from")
	if !ok {
		return
	}
	to, ok := parseTimeParam(c, req.To, "to")
	if !ok {
		return
	}

	records, err := h.Audit.ListRecent(c.Request.Context(), audit.Query{
		WorkspaceID: id.WorkspaceID,
		Operation:   op,
		TableName:   req.TableName,
		UserID:      req.UserID,
		From:        from,
		To:          to,
		Limit:       req.Limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"records": records, "count": len(records)})
}

type auditStatsQuery struct {
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
	// Short aliases accepted alongside the documented names.
	From string `form:"from"`
	To   string `form:"to"`
}

func (h Handlers) AuditStats(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req auditStatsQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid query parameters")
		return
	}
	if req.DateFrom == "" {
		req.DateFrom = req.From
	}
	if req.DateTo == "" {
		req.DateTo = req.To
	}
	from, ok := parseTimeParam(c, req.DateFrom, "date_from")
	if !ok {
		return
	}
	to, ok := parseTimeParam(c, req.DateTo, "date_to")
	if !ok {
		return
	}

	stats, err := h.Audit.GetStats(c.Request.Context(), id.WorkspaceID, from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, stats)
}

func (h Handlers) AuditUserActivity(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	userID := c.Param("user_id")
	var req struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid query parameters")
		return
	}

	records, err := h.Audit.GetUserActivity(c.Request.Context(), id.WorkspaceID, userID, req.Limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"records": records, "count": len(records)})
}

// parseTimeParam parses an optional time query value, accepting RFC 3339 or
// a bare date (taken as UTC midnight). On a malformed value it writes the
// 400 itself and reports false.
func parseTimeParam(c *gin.Context, raw, name string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t, err = time.Parse("2006-01-02", raw)
	}
	if err != nil {
		respondError(c, http.StatusBadRequest, name+" must be RFC 3339 or YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}
