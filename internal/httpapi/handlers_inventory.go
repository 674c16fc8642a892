package httpapi

import (
	"net/http"

	"inventory-platform/internal/inventory"

	"github.com/gin-gonic/gin"
)

type createItemRequest struct {
	SKU            string `json:"sku" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	CategoryID     string `json:"category_id"`
	LocationID     string `json:"location_id"`
	Quantity       int    `json:"quantity" binding:"gte=0"`
	UnitPriceMinor int64  `json:"unit_price_minor" binding:"gte=0"`
}

func (h Handlers) ItemCreate(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "sku and name required; quantity and unit_price_minor must be non-negative")
		return
	}
	item, err := h.Inventory.CreateItem(c.Request.Context(), inventory.CreateItemParams{
		WorkspaceID:    id.WorkspaceID,
		SKU:            req.SKU,
		Name:           req.Name,
		Description:    req.Description,
		CategoryID:     req.CategoryID,
		LocationID:     req.LocationID,
		Quantity:       req.Quantity,
		UnitPriceMinor: req.UnitPriceMinor,
	}, id.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, item)
}

func (h Handlers) ItemGet(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	item, err := h.Inventory.GetItem(c.Request.Context(), id.WorkspaceID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, item)
}

type itemListQuery struct {
	CategoryID string `form:"category_id"`
	LocationID string `form:"location_id"`
	Status     string `form:"status"`
	Search     string `form:"search"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

func (h Handlers) ItemList(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req itemListQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid query parameters")
		return
	}
	items, total, err := h.Inventory.ListItems(c.Request.Context(), inventory.ItemQuery{
		WorkspaceID: id.WorkspaceID,
		CategoryID:  req.CategoryID,
		LocationID:  req.LocationID,
		Status:      inventory.ItemStatus(req.Status),
		Search:      req.Search,
		Limit:       req.Limit,
		Offset:      req.Offset,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"items": items, "total": total})
}

type updateItemRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	CategoryID     *string `json:"category_id"`
	LocationID     *string `json:"location_id"`
	Quantity       *int    `json:"quantity"`
	UnitPriceMinor *int64  `json:"unit_price_minor"`
	Status         *string `json:"status"`
}

func (h Handlers) ItemUpdate(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	params := inventory.UpdateItemParams{
		Name:           req.Name,
		Description:    req.Description,
		CategoryID:     req.CategoryID,
		LocationID:     req.LocationID,
		Quantity:       req.Quantity,
		UnitPriceMinor: req.UnitPriceMinor,
	}
	if req.Status != nil {
		status := inventory.ItemStatus(*req.Status)
		params.Status = &status
	}
	item, err := h.Inventory.UpdateItem(c.Request.Context(), id.WorkspaceID, c.Param("id"), params, id.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, item)
}

func (h Handlers) ItemDelete(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	if err := h.Inventory.DeleteItem(c.Request.Context(), id.WorkspaceID, c.Param("id"), id.UserID); err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": true})
}

// ItemImportCSV accepts a multipart upload under the "file" field.
func (h Handlers) ItemImportCSV(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "multipart field 'file' required")
		return
	}
	defer file.Close()

	res, err := h.Importer.ImportItemsCSV(c.Request.Context(), id.WorkspaceID, id.UserID, file)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

type createNamedRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h Handlers) CategoryCreate(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req createNamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "name required")
		return
	}
	cat, err := h.Inventory.CreateCategory(c.Request.Context(), id.WorkspaceID, req.Name, req.Description, id.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, cat)
}

func (h Handlers) CategoryList(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	cats, err := h.Inventory.ListCategories(c.Request.Context(), id.WorkspaceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"categories": cats})
}

func (h Handlers) CategoryDelete(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	if err := h.Inventory.DeleteCategory(c.Request.Context(), id.WorkspaceID, c.Param("id"), id.UserID); err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": true})
}

func (h Handlers) LocationCreate(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req createNamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "name required")
		return
	}
	loc, err := h.Inventory.CreateLocation(c.Request.Context(), id.WorkspaceID, req.Name, req.Description, id.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, loc)
}

func (h Handlers) LocationList(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	locs, err := h.Inventory.ListLocations(c.Request.Context(), id.WorkspaceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"locations": locs})
}

func (h Handlers) LocationDelete(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	if err := h.Inventory.DeleteLocation(c.Request.Context(), id.WorkspaceID, c.Param("id"), id.UserID); err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": true})
}
