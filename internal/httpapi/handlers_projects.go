package httpapi

import (
	"net/http"

	"inventory-platform/internal/projects"

	"github.com/gin-gonic/gin"
)

type createProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h Handlers) ProjectCreate(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "name required")
		return
	}
	p, err := h.Projects.CreateProject(c.Request.Context(), id.WorkspaceID, req.Name, req.Description, id.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, p)
}

func (h Handlers) ProjectGet(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	p, err := h.Projects.GetProject(c.Request.Context(), id.WorkspaceID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, p)
}

func (h Handlers) ProjectList(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	status := projects.ProjectStatus(c.Query("status"))
	list, err := h.Projects.ListProjects(c.Request.Context(), id.WorkspaceID, status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"projects": list})
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (h Handlers) ProjectUpdate(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	params := projects.UpdateProjectParams{Name: req.Name, Description: req.Description}
	if req.Status != nil {
		status := projects.ProjectStatus(*req.Status)
		params.Status = &status
	}
	p, err := h.Projects.UpdateProject(c.Request.Context(), id.WorkspaceID, c.Param("id"), params, id.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, p)
}

func (h Handlers) ProjectDelete(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	if err := h.Projects.DeleteProject(c.Request.Context(), id.WorkspaceID, c.Param("id"), id.UserID); err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": true})
}

type createTaskRequest struct {
	Kind       string `json:"kind" binding:"required"`
	Title      string `json:"title" binding:"required"`
	AssigneeID string `json:"assignee_id"`
}

func (h Handlers) TaskCreate(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "kind and title required")
		return
	}
	kind := projects.TaskKind(req.Kind)
	if !projects.ValidTaskKind(kind) {
		respondError(c, http.StatusBadRequest, "kind must be CL or IMP")
		return
	}
	t, err := h.Projects.CreateTask(c.Request.Context(), projects.CreateTaskParams{
		WorkspaceID: id.WorkspaceID,
		ProjectID:   c.Param("id"),
		Kind:        kind,
		Title:       req.Title,
		AssigneeID:  req.AssigneeID,
	}, id.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, t)
}

func (h Handlers) TaskList(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	kind := projects.TaskKind(c.Query("kind"))
	tasks, err := h.Projects.ListTasks(c.Request.Context(), id.WorkspaceID, c.Param("id"), kind)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"tasks": tasks})
}

type updateTaskRequest struct {
	Title      *string `json:"title"`
	Status     *string `json:"status"`
	Position   *int    `json:"position"`
	AssigneeID *string `json:"assignee_id"`
}

func (h Handlers) TaskUpdate(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	params := projects.UpdateTaskParams{Title: req.Title, Position: req.Position, AssigneeID: req.AssigneeID}
	if req.Status != nil {
		status := projects.TaskStatus(*req.Status)
		params.Status = &status
	}
	t, err := h.Projects.UpdateTask(c.Request.Context(), id.WorkspaceID, c.Param("task_id"), params, id.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, t)
}

func (h Handlers) TaskDelete(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	if err := h.Projects.DeleteTask(c.Request.Context(), id.WorkspaceID, c.Param("task_id"), id.UserID); err != nil {
		respondServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": true})
}
