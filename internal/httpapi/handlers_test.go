package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inventory-platform/internal/audit"
	"inventory-platform/internal/auth"
	"inventory-platform/internal/config"
	"inventory-platform/internal/inventory"
	"inventory-platform/internal/projects"
	"inventory-platform/internal/rbac"
	"inventory-platform/internal/trash"
	"inventory-platform/internal/users"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	handlers  Handlers
	trashRepo *trash.MemoryRepo
	usersRepo *users.MemoryRepo
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	m, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("auth manager: %v", err)
	}
	trashRepo := trash.NewMemoryRepo()
	usersRepo := users.NewMemoryRepo()
	return testEnv{
		handlers: Handlers{
			Auth:      m,
			Users:     users.NewService(usersRepo, nil),
			Audit:     audit.NewService(audit.NewMemoryRepo()),
			Trash:     trash.NewService(trashRepo, 0, nil),
			Inventory: inventory.NewService(inventory.NewMemoryRepo(), nil),
			Projects:  projects.NewService(projects.NewMemoryRepo(), nil),
		},
		trashRepo: trashRepo,
		usersRepo: usersRepo,
	}
}

// injectIdentity stands in for the auth middleware.
func injectIdentity(id auth.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", id.UserID)
		c.Set("workspace_id", id.WorkspaceID)
		c.Set("role", id.Role)
		c.Next()
	}
}

func adminIdentity() auth.Identity {
	return auth.Identity{
		UserID:      "admin-1",
		WorkspaceID: "w1",
		Role:        rbac.RoleAdmin,
		Permissions: rbac.PermissionsFor(rbac.RoleAdmin),
	}
}

func managerIdentity() auth.Identity {
	return auth.Identity{
		UserID:      "mgr-1",
		WorkspaceID: "w1",
		Role:        rbac.RoleManager,
		Permissions: rbac.PermissionsFor(rbac.RoleManager),
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, out
}

func TestLogin_EnvelopeAndCredentials(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.handlers.Users.Create(context.Background(), users.CreateParams{
		WorkspaceID: "w1", Email: "alice@example.com", Name: "Alice", Role: rbac.RoleStaff, Password: "correct-horse",
	}, "admin-1"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	r := gin.New()
	r.POST("/v1/auth/login", env.handlers.Login)

	w, body := doJSON(t, r, http.MethodPost, "/v1/auth/login", gin.H{
		"workspace_id": "w1", "email": "alice@example.com", "password": "correct-horse",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body["success"] != true {
		t.Fatalf("expected success envelope, got %v", body)
	}
	data := body["data"].(map[string]any)
	if data["access_token"] == "" || data["refresh_token"] == "" {
		t.Fatalf("expected token pair, got %v", data)
	}

	w, body = doJSON(t, r, http.MethodPost, "/v1/auth/login", gin.H{
		"workspace_id": "w1", "email": "alice@example.com", "password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if body["success"] != false {
		t.Fatalf("expected failure envelope, got %v", body)
	}
}

func TestAuditRecent_RejectsUnknownOperation(t *testing.T) {
	env := newTestEnv(t)
	r := gin.New()
	r.GET("/v1/audit/recent", injectIdentity(managerIdentity()), env.handlers.AuditRecent)

	w, body := doJSON(t, r, http.MethodGet, "/v1/audit/recent?operation=TRUNCATE", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown operation, got %d", w.Code)
	}
	if body["success"] != false {
		t.Fatalf("expected failure envelope, got %v", body)
	}

	w, _ = doJSON(t, r, http.MethodGet, "/v1/audit/recent?operation=DELETE", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid operation, got %d: %s", w.Code, w.Body.String())
	}

	w, _ = doJSON(t, r, http.MethodGet, "/v1/audit/recent?from=not-a-time", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed from, got %d", w.Code)
	}
}

func TestAuditStats_EmptyWindowIsZeros(t *testing.T) {
	env := newTestEnv(t)
	r := gin.New()
	r.GET("/v1/audit/stats", injectIdentity(managerIdentity()), env.handlers.AuditStats)

	w, body := doJSON(t, r, http.MethodGet, "/v1/audit/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := body["data"].(map[string]any)
	for _, field := range []string{"totalOperations", "operationsToday", "activeUsers", "deletions"} {
		if data[field] != float64(0) {
			t.Fatalf("expected zero %s on empty workspace, got %v", field, data[field])
		}
	}
}

func TestTrashRecover_UnknownIDIs404(t *testing.T) {
	env := newTestEnv(t)
	r := gin.New()
	r.POST("/v1/deleted-items/:id/recover", injectIdentity(managerIdentity()), env.handlers.TrashRecover)

	w, body := doJSON(t, r, http.MethodPost, "/v1/deleted-items/nope/recover", gin.H{"reason": "oops"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if body["success"] != false {
		t.Fatalf("expected failure envelope, got %v", body)
	}
}

func TestTrashRecover_SecondCallRejected(t *testing.T) {
	env := newTestEnv(t)
	env.trashRepo.AddActive(trash.DeletedItem{
		ID: "d1", WorkspaceID: "w1", TableName: "inventory_items", RecordID: "r1",
		ItemName: "Bolt", DeletedBy: "u1", DeletedAt: time.Now().UTC(),
	})
	r := gin.New()
	r.POST("/v1/deleted-items/:id/recover", injectIdentity(managerIdentity()), env.handlers.TrashRecover)

	w, _ := doJSON(t, r, http.MethodPost, "/v1/deleted-items/d1/recover", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w, body := doJSON(t, r, http.MethodPost, "/v1/deleted-items/d1/recover", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for already-recovered, got %d", w.Code)
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "recovered") {
		t.Fatalf("expected already-recovered message, got %v", body)
	}
}

func TestTrashCleanup_NonAdminForbiddenNoSideEffect(t *testing.T) {
	env := newTestEnv(t)
	old := time.Now().UTC().Add(-365 * 24 * time.Hour)
	env.trashRepo.AddActive(trash.DeletedItem{
		ID: "stale", WorkspaceID: "w1", TableName: "inventory_items", RecordID: "r1",
		ItemName: "Old", DeletedBy: "u1", DeletedAt: old,
	})

	r := gin.New()
	// Manager holds trash:read but not trash:cleanup; the route permission
	// gate fires before the handler.
	r.POST("/v1/deleted-items/cleanup",
		injectIdentity(managerIdentity()),
		rbac.RequirePermission(rbac.PermTrashCleanup),
		env.handlers.TrashCleanup)

	w, _ := doJSON(t, r, http.MethodPost, "/v1/deleted-items/cleanup", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
	if env.trashRepo.Len() != 1 {
		t.Fatalf("forbidden cleanup must not purge anything")
	}
}

func TestTrashCleanup_AdminPurges(t *testing.T) {
	env := newTestEnv(t)
	old := time.Now().UTC().Add(-365 * 24 * time.Hour)
	env.trashRepo.AddActive(trash.DeletedItem{
		ID: "stale", WorkspaceID: "w1", TableName: "inventory_items", RecordID: "r1",
		ItemName: "Old", DeletedBy: "u1", DeletedAt: old,
	})

	r := gin.New()
	r.POST("/v1/deleted-items/cleanup",
		injectIdentity(adminIdentity()),
		rbac.RequirePermission(rbac.PermTrashCleanup),
		env.handlers.TrashCleanup)

	w, body := doJSON(t, r, http.MethodPost, "/v1/deleted-items/cleanup", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := body["data"].(map[string]any)
	if data["purged"] != float64(1) {
		t.Fatalf("expected 1 purged, got %v", data)
	}
}

func TestTrashList_SearchSwitchesPath(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()
	env.trashRepo.AddActive(trash.DeletedItem{ID: "d1", WorkspaceID: "w1", TableName: "inventory_items", RecordID: "r1", ItemName: "Steel Bracket", DeletedBy: "u1", DeletedAt: now})
	env.trashRepo.AddActive(trash.DeletedItem{ID: "d2", WorkspaceID: "w1", TableName: "inventory_items", RecordID: "r2", ItemName: "Hinge", DeletedBy: "u1", DeletedAt: now})

	r := gin.New()
	r.GET("/v1/deleted-items", injectIdentity(managerIdentity()), env.handlers.TrashList)

	w, body := doJSON(t, r, http.MethodGet, "/v1/deleted-items?search=steel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := body["data"].(map[string]any)
	if data["total"] != float64(1) {
		t.Fatalf("expected search to match one item, got %v", data)
	}

	// Out-of-range pagination is rejected, not clamped.
	w, _ = doJSON(t, r, http.MethodGet, "/v1/deleted-items?limit=500", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized limit, got %d", w.Code)
	}
}

func TestItemCRUDOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	r := gin.New()
	id := injectIdentity(adminIdentity())
	r.POST("/v1/items", id, env.handlers.ItemCreate)
	r.GET("/v1/items/:id", id, env.handlers.ItemGet)
	r.DELETE("/v1/items/:id", id, env.handlers.ItemDelete)

	w, body := doJSON(t, r, http.MethodPost, "/v1/items", gin.H{"sku": "SKU-1", "name": "Bolt", "quantity": 3})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	itemID := body["data"].(map[string]any)["id"].(string)

	// Duplicate SKU maps to 409.
	w, _ = doJSON(t, r, http.MethodPost, "/v1/items", gin.H{"sku": "SKU-1", "name": "Other"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodGet, "/v1/items/"+itemID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodDelete, "/v1/items/"+itemID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w, _ = doJSON(t, r, http.MethodGet, "/v1/items/"+itemID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestTaskCreate_RejectsUnknownKind(t *testing.T) {
	env := newTestEnv(t)
	r := gin.New()
	id := injectIdentity(adminIdentity())
	r.POST("/v1/projects", id, env.handlers.ProjectCreate)
	r.POST("/v1/projects/:id/tasks", id, env.handlers.TaskCreate)

	w, body := doJSON(t, r, http.MethodPost, "/v1/projects", gin.H{"name": "Rollout"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	projectID := body["data"].(map[string]any)["id"].(string)

	w, _ = doJSON(t, r, http.MethodPost, "/v1/projects/"+projectID+"/tasks", gin.H{"kind": "bug", "title": "x"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPost, "/v1/projects/"+projectID+"/tasks", gin.H{"kind": "CL", "title": "Count stock"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMissingIdentityIs401(t *testing.T) {
	env := newTestEnv(t)
	r := gin.New()
	r.GET("/v1/items", env.handlers.ItemList)

	w, body := doJSON(t, r, http.MethodGet, "/v1/items", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if body["success"] != false {
		t.Fatalf("expected failure envelope, got %v", body)
	}
}

func TestAuditStats_DateWindowHonored(t *testing.T) {
	env := newTestEnv(t)
	auditRepo := audit.NewMemoryRepo()
	auditRepo.Append(audit.Record{
		ID: "rec-1", WorkspaceID: "w1", TableName: "inventory_items", RecordID: "i1",
		Operation: audit.OpInsert, UserID: "u1", CreatedAt: time.Now().UTC(),
	})
	env.handlers.Audit = audit.NewService(auditRepo)

	r := gin.New()
	r.GET("/v1/audit/stats", injectIdentity(managerIdentity()), env.handlers.AuditStats)

	// A window far in the past must exclude today's record; the bare-date
	// form is accepted.
	w, body := doJSON(t, r, http.MethodGet, "/v1/audit/stats?date_from=2001-01-01&date_to=2001-01-31", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", w.Code, body)
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %v", body)
	}
	if data["totalOperations"] != float64(0) {
		t.Fatalf("window should exclude today's record: %v", data)
	}
	if data["operationsToday"] != float64(1) {
		t.Fatalf("today's count is window-independent: %v", data)
	}

	w, _ = doJSON(t, r, http.MethodGet, "/v1/audit/stats?date_from=not-a-date", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date_from, got %d", w.Code)
	}
}

func TestAuditUserActivity_MalformedLimitIs400(t *testing.T) {
	env := newTestEnv(t)
	r := gin.New()
	r.GET("/v1/audit/user/:user_id", injectIdentity(managerIdentity()), env.handlers.AuditUserActivity)

	w, body := doJSON(t, r, http.MethodGet, "/v1/audit/user/u1?limit=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %v", w.Code, body)
	}
	if body["success"] != false {
		t.Fatalf("expected failure envelope, got %v", body)
	}
}

func TestTrashList_FiltersByUserIDParam(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()
	env.trashRepo.AddActive(trash.DeletedItem{ID: "d1", WorkspaceID: "w1", TableName: "inventory_items", RecordID: "r1", ItemName: "Bracket", DeletedBy: "u1", DeletedAt: now})
	env.trashRepo.AddActive(trash.DeletedItem{ID: "d2", WorkspaceID: "w1", TableName: "inventory_items", RecordID: "r2", ItemName: "Hinge", DeletedBy: "u2", DeletedAt: now})

	r := gin.New()
	r.GET("/v1/deleted-items", injectIdentity(managerIdentity()), env.handlers.TrashList)

	w, body := doJSON(t, r, http.MethodGet, "/v1/deleted-items?user_id=u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", w.Code, body)
	}
	data := body["data"].(map[string]any)
	if data["total"] != float64(1) {
		t.Fatalf("expected one entry for u1, got %v", data)
	}
}

func TestLogout_EvictsCachedIdentity(t *testing.T) {
	env := newTestEnv(t)
	cache := auth.NewIdentityCache(auth.CacheOptions{
		TTL:         time.Minute,
		MaxEntries:  100,
		Permissions: rbac.PermissionsFor,
		AdminRole:   rbac.RoleAdmin,
	}, nil)
	defer cache.Shutdown()
	env.handlers.Cache = cache

	const tok = "raw-bearer-credential"
	cache.Store(tok, auth.Identity{UserID: "u1", WorkspaceID: "w1", Role: rbac.RoleStaff})
	if _, ok := cache.Resolve(tok); !ok {
		t.Fatalf("expected cached identity before logout")
	}

	r := gin.New()
	r.POST("/v1/auth/logout", injectIdentity(managerIdentity()), env.handlers.Logout)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if _, ok := cache.Resolve(tok); ok {
		t.Fatalf("expected the cached identity to be evicted")
	}
}
