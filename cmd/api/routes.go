package main

import (
	"inventory-platform/internal/httpapi"
	"inventory-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", httpapi.Healthz)

	v1 := r.Group("/v1")

	// Login is the one unauthenticated v1 route.
	v1.POST("/auth/login", h.Login)

	protected := v1.Group("")
	protected.Use(authMW)
	protected.Use(rbac.RequireWorkspace())
	{
		// Logout revokes the cached credential locally and broadcasts the
		// eviction to peer instances.
		protected.POST("/auth/logout", h.Logout)

		// AUDIT routes (read-only)
		auditGroup := protected.Group("/audit")
		auditGroup.Use(rbac.RequirePermission(rbac.PermAuditRead))
		{
			auditGroup.GET("/recent", h.AuditRecent)
			auditGroup.GET("/stats", h.AuditStats)
			auditGroup.GET("/user/:user_id", h.AuditUserActivity)
		}

		// TRASH routes (soft-delete ledger)
		trashGroup := protected.Group("/deleted-items")
		{
			trashGroup.GET("", rbac.RequirePermission(rbac.PermTrashRead), h.TrashList)
			trashGroup.GET("/stats", rbac.RequirePermission(rbac.PermTrashRead), h.TrashStats)
			trashGroup.POST("/:id/recover", rbac.RequirePermission(rbac.PermTrashRecover), h.TrashRecover)
			trashGroup.POST("/cleanup", rbac.RequirePermission(rbac.PermTrashCleanup), h.TrashCleanup)
		}

		// INVENTORY routes
		items := protected.Group("/items")
		{
			items.GET("", rbac.RequirePermission(rbac.PermInventoryRead), h.ItemList)
			items.GET("/:id", rbac.RequirePermission(rbac.PermInventoryRead), h.ItemGet)
			items.POST("", rbac.RequirePermission(rbac.PermInventoryWrite), h.ItemCreate)
			items.POST("/import", rbac.RequirePermission(rbac.PermInventoryWrite), h.ItemImportCSV)
			items.PATCH("/:id", rbac.RequirePermission(rbac.PermInventoryWrite), h.ItemUpdate)
			items.DELETE("/:id", rbac.RequirePermission(rbac.PermInventoryWrite), h.ItemDelete)
		}

		categories := protected.Group("/categories")
		{
			categories.GET("", rbac.RequirePermission(rbac.PermInventoryRead), h.CategoryList)
			categories.POST("", rbac.RequirePermission(rbac.PermInventoryWrite), h.CategoryCreate)
			categories.DELETE("/:id", rbac.RequirePermission(rbac.PermInventoryWrite), h.CategoryDelete)
		}

		locations := protected.Group("/locations")
		{
			locations.GET("", rbac.RequirePermission(rbac.PermInventoryRead), h.LocationList)
			locations.POST("", rbac.RequirePermission(rbac.PermInventoryWrite), h.LocationCreate)
			locations.DELETE("/:id", rbac.RequirePermission(rbac.PermInventoryWrite), h.LocationDelete)
		}

		// PROJECTS routes
		projectsGroup := protected.Group("/projects")
		{
			projectsGroup.GET("", rbac.RequirePermission(rbac.PermProjectsRead), h.ProjectList)
			projectsGroup.GET("/:id", rbac.RequirePermission(rbac.PermProjectsRead), h.ProjectGet)
			projectsGroup.POST("", rbac.RequirePermission(rbac.PermProjectsWrite), h.ProjectCreate)
			projectsGroup.PATCH("/:id", rbac.RequirePermission(rbac.PermProjectsWrite), h.ProjectUpdate)
			projectsGroup.DELETE("/:id", rbac.RequirePermission(rbac.PermProjectsWrite), h.ProjectDelete)

			projectsGroup.GET("/:id/tasks", rbac.RequirePermission(rbac.PermProjectsRead), h.TaskList)
			projectsGroup.POST("/:id/tasks", rbac.RequirePermission(rbac.PermProjectsWrite), h.TaskCreate)
			projectsGroup.PATCH("/:id/tasks/:task_id", rbac.RequirePermission(rbac.PermProjectsWrite), h.TaskUpdate)
			projectsGroup.DELETE("/:id/tasks/:task_id", rbac.RequirePermission(rbac.PermProjectsWrite), h.TaskDelete)
		}

		// USERS routes
		usersGroup := protected.Group("/users")
		{
			usersGroup.GET("", rbac.RequirePermission(rbac.PermUsersRead), h.UserList)
			usersGroup.GET("/:id", rbac.RequirePermission(rbac.PermUsersRead), h.UserGet)
			usersGroup.POST("", rbac.RequirePermission(rbac.PermUsersWrite), h.UserCreate)
			usersGroup.PATCH("/:id", rbac.RequirePermission(rbac.PermUsersWrite), h.UserUpdate)
			usersGroup.DELETE("/:id", rbac.RequirePermission(rbac.PermUsersWrite), h.UserDelete)
		}
	}
}
