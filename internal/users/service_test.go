package users

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"inventory-platform/internal/audit"
	"inventory-platform/internal/rbac"
)

func createUser(t *testing.T, svc *Service, workspace, email, role string) User {
	t.Helper()
	u, err := svc.Create(context.Background(), CreateParams{
		WorkspaceID: workspace,
		Email:       email,
		Name:        "Test User",
		Role:        role,
		Password:    "correct-horse",
	}, "admin-1")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestCreate_NormalizesEmailAndHashes(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)

	u, err := svc.Create(context.Background(), CreateParams{
		WorkspaceID: "w1",
		Email:       "  Alice@Example.COM ",
		Name:        "Alice",
		Role:        rbac.RoleStaff,
		Password:    "correct-horse",
	}, "admin-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("email must be lowercased and trimmed, got %q", u.Email)
	}
	if u.PasswordHash == "" || strings.Contains(u.PasswordHash, "correct-horse") {
		t.Fatalf("password must be stored hashed")
	}
	if u.Status != StatusActive {
		t.Fatalf("new users default to active, got %q", u.Status)
	}

	log := repo.AuditLog()
	if len(log) != 1 || log[0].Op != audit.OpInsert {
		t.Fatalf("expected one insert audit entry, got %+v", log)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	ctx := context.Background()

	cases := []CreateParams{
		{WorkspaceID: "", Email: "a@b.c", Name: "A", Role: rbac.RoleStaff, Password: "longenough"},
		{WorkspaceID: "w1", Email: "not-an-email", Name: "A", Role: rbac.RoleStaff, Password: "longenough"},
		{WorkspaceID: "w1", Email: "a@b.c", Name: "", Role: rbac.RoleStaff, Password: "longenough"},
		{WorkspaceID: "w1", Email: "a@b.c", Name: "A", Role: "superuser", Password: "longenough"},
		{WorkspaceID: "w1", Email: "a@b.c", Name: "A", Role: rbac.RoleStaff, Password: "short"},
	}
	for _, p := range cases {
		if _, err := svc.Create(ctx, p, "admin-1"); err != ErrInvalidArgument {
			t.Fatalf("expected ErrInvalidArgument for %+v, got %v", p, err)
		}
	}
}

func TestCreate_DuplicateEmailPerWorkspace(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	createUser(t, svc, "w1", "a@b.c", rbac.RoleStaff)

	if _, err := svc.Create(context.Background(), CreateParams{
		WorkspaceID: "w1", Email: "A@B.C", Name: "Dup", Role: rbac.RoleViewer, Password: "longenough",
	}, "admin-1"); err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Same email in another workspace is allowed.
	createUser(t, svc, "w2", "a@b.c", rbac.RoleStaff)
}

func TestUpdate_RoleChangeValidated(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)
	u := createUser(t, svc, "w1", "a@b.c", rbac.RoleStaff)

	role := rbac.RoleManager
	updated, err := svc.Update(context.Background(), "w1", u.ID, UpdateParams{Role: &role}, "admin-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if updated.Role != rbac.RoleManager {
		t.Fatalf("role not applied: %+v", updated)
	}

	bad := "root"
	if _, err := svc.Update(context.Background(), "w1", u.ID, UpdateParams{Role: &bad}, "admin-1"); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for unknown role, got %v", err)
	}

	log := repo.AuditLog()
	if len(log) != 2 || log[1].Op != audit.OpUpdate {
		t.Fatalf("expected update audit entry, got %+v", log)
	}
}

func TestDelete_RefusesSelf(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	u := createUser(t, svc, "w1", "a@b.c", rbac.RoleStaff)

	if err := svc.Delete(context.Background(), "w1", u.ID, u.ID); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for self-deletion, got %v", err)
	}
	if err := svc.Delete(context.Background(), "w1", u.ID, "admin-1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	u := createUser(t, svc, "w1", "a@b.c", rbac.RoleStaff)

	got, err := svc.Authenticate(context.Background(), "w1", " A@B.C ", "correct-horse")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("wrong user: %+v", got)
	}

	if _, err := svc.Authenticate(context.Background(), "w1", "a@b.c", "wrong"); err != ErrBadCredentials {
		t.Fatalf("expected ErrBadCredentials for wrong password, got %v", err)
	}
	// Unknown email is indistinguishable from a wrong password.
	if _, err := svc.Authenticate(context.Background(), "w1", "nobody@b.c", "correct-horse"); err != ErrBadCredentials {
		t.Fatalf("expected ErrBadCredentials for unknown email, got %v", err)
	}

	suspended := StatusSuspended
	if _, err := svc.Update(context.Background(), "w1", u.ID, UpdateParams{Status: &suspended}, "admin-1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "w1", "a@b.c", "correct-horse"); err != ErrBadCredentials {
		t.Fatalf("expected ErrBadCredentials for suspended user, got %v", err)
	}
}

func TestRowImage_CarriesPasswordHash(t *testing.T) {
	u := User{
		ID:           "u1",
		WorkspaceID:  "w1",
		Email:        "alice@example.com",
		Name:         "Alice",
		Role:         rbac.RoleStaff,
		Status:       StatusActive,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
	}

	api, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal user: %v", err)
	}
	if strings.Contains(string(api), "password_hash") {
		t.Fatalf("API serialization must redact the hash: %s", api)
	}

	img, err := json.Marshal(u.rowImage())
	if err != nil {
		t.Fatalf("marshal row image: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(img, &got); err != nil {
		t.Fatalf("unmarshal row image: %v", err)
	}
	if got["password_hash"] != u.PasswordHash {
		t.Fatalf("row image must keep password_hash for recovery, got %v", got["password_hash"])
	}
	// Recovery re-populates the users row from these keys.
	for _, col := range []string{"id", "workspace_id", "email", "name", "role", "status", "created_at", "updated_at"} {
		if _, ok := got[col]; !ok {
			t.Fatalf("row image missing column %q", col)
		}
	}
}
