package httpapi

import (
	"net/http"

	"inventory-platform/internal/users"

	"github.com/gin-gonic/gin"
)

type createUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h Handlers) UserCreate(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "email, name, role and password (min 8 chars) required")
		return
	}
	u, err := h.Users.Create(c.Request.Context(), users.CreateParams{
		WorkspaceID: id.WorkspaceID,
		Email:       req.Email,
		Name:        req.Name,
		Role:        req.Role,
		Password:    req.Password,
	}, id.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, u)
}

func (h Handlers) UserGet(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	u, err := h.Users.Get(c.Request.Context(), id.WorkspaceID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, u)
}

func (h Handlers) UserList(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	list, err := h.Users.List(c.Request.Context(), id.WorkspaceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"users": list})
}

type updateUserRequest struct {
	Name   *string `json:"name"`
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

func (h Handlers) UserUpdate(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	params := users.UpdateParams{Name: req.Name, Role: req.Role}
	if req.Status != nil {
		status := users.Status(*req.Status)
		params.Status = &status
	}
	u, err := h.Users.Update(c.Request.Context(), id.WorkspaceID, c.Param("id"), params, id.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, u)
}

func (h Handlers) UserDelete(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	if err := h.Users.Delete(c.Request.Context(), id.WorkspaceID, c.Param("id"), id.UserID); err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": true})
}
