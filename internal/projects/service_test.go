package projects

import (
	"context"
	"testing"

	"inventory-platform/internal/audit"
)

func TestCreateProject_DefaultsToPlanning(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)

	p, err := svc.CreateProject(context.Background(), "w1", "  Warehouse move ", "", "u1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.Status != ProjectStatusPlanning {
		t.Fatalf("expected planning status, got %q", p.Status)
	}
	if p.Name != "Warehouse move" {
		t.Fatalf("expected trimmed name, got %q", p.Name)
	}

	log := repo.AuditLog()
	if len(log) != 1 || log[0].Op != audit.OpInsert || log[0].Table != "projects" {
		t.Fatalf("expected project insert audit, got %+v", log)
	}
}

func TestUpdateProject_StatusValidated(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)

	p, err := svc.CreateProject(context.Background(), "w1", "Rollout", "", "u1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	active := ProjectStatusActive
	updated, err := svc.UpdateProject(context.Background(), "w1", p.ID, UpdateProjectParams{Status: &active}, "u1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if updated.Status != ProjectStatusActive {
		t.Fatalf("status not applied: %+v", updated)
	}

	bad := ProjectStatus("paused")
	if _, err := svc.UpdateProject(context.Background(), "w1", p.ID, UpdateProjectParams{Status: &bad}, "u1"); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for unknown status, got %v", err)
	}
}

func TestCreateTask_PositionsAppendPerKind(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, "w1", "Rollout", "", "u1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	t1, err := svc.CreateTask(ctx, CreateTaskParams{WorkspaceID: "w1", ProjectID: p.ID, Kind: TaskKindChecklist, Title: "Inventory count"}, "u1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	t2, err := svc.CreateTask(ctx, CreateTaskParams{WorkspaceID: "w1", ProjectID: p.ID, Kind: TaskKindChecklist, Title: "Label shelves"}, "u1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	// Positions are per kind: the first IMP task starts at 0 again.
	t3, err := svc.CreateTask(ctx, CreateTaskParams{WorkspaceID: "w1", ProjectID: p.ID, Kind: TaskKindImplementation, Title: "Write migration"}, "u1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if t1.Position != 0 || t2.Position != 1 || t3.Position != 0 {
		t.Fatalf("unexpected positions: %d %d %d", t1.Position, t2.Position, t3.Position)
	}
	if t1.Status != TaskStatusOpen {
		t.Fatalf("new tasks default to open, got %q", t1.Status)
	}

	if _, err := svc.CreateTask(ctx, CreateTaskParams{WorkspaceID: "w1", ProjectID: p.ID, Kind: "bug", Title: "x"}, "u1"); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for unknown kind, got %v", err)
	}
	if _, err := svc.CreateTask(ctx, CreateTaskParams{WorkspaceID: "w1", ProjectID: "missing", Kind: TaskKindChecklist, Title: "x"}, "u1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for missing project, got %v", err)
	}
}

func TestListTasks_KindFilterAndOrder(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	p, _ := svc.CreateProject(ctx, "w1", "Rollout", "", "u1")
	svc.CreateTask(ctx, CreateTaskParams{WorkspaceID: "w1", ProjectID: p.ID, Kind: TaskKindChecklist, Title: "First"}, "u1")
	svc.CreateTask(ctx, CreateTaskParams{WorkspaceID: "w1", ProjectID: p.ID, Kind: TaskKindChecklist, Title: "Second"}, "u1")
	svc.CreateTask(ctx, CreateTaskParams{WorkspaceID: "w1", ProjectID: p.ID, Kind: TaskKindImplementation, Title: "Impl"}, "u1")

	tasks, err := svc.ListTasks(ctx, "w1", p.ID, TaskKindChecklist)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Title != "First" || tasks[1].Title != "Second" {
		t.Fatalf("unexpected checklist order: %+v", tasks)
	}

	all, err := svc.ListTasks(ctx, "w1", p.ID, "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected all kinds, got %d", len(all))
	}

	if _, err := svc.ListTasks(ctx, "w1", p.ID, "bug"); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for unknown kind, got %v", err)
	}
}

func TestUpdateTask_PatchAndValidation(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	p, _ := svc.CreateProject(ctx, "w1", "Rollout", "", "u1")
	task, _ := svc.CreateTask(ctx, CreateTaskParams{WorkspaceID: "w1", ProjectID: p.ID, Kind: TaskKindChecklist, Title: "Count stock"}, "u1")

	done := TaskStatusDone
	assignee := "u2"
	updated, err := svc.UpdateTask(ctx, "w1", task.ID, UpdateTaskParams{Status: &done, AssigneeID: &assignee}, "u1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if updated.Status != TaskStatusDone || updated.AssigneeID != "u2" {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.Title != "Count stock" {
		t.Fatalf("untouched title must survive, got %q", updated.Title)
	}

	bad := TaskStatus("blocked")
	if _, err := svc.UpdateTask(ctx, "w1", task.ID, UpdateTaskParams{Status: &bad}, "u1"); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for unknown status, got %v", err)
	}
	neg := -1
	if _, err := svc.UpdateTask(ctx, "w1", task.ID, UpdateTaskParams{Position: &neg}, "u1"); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument for negative position, got %v", err)
	}
}

func TestDeleteProject_CascadesWithPerRowAudit(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	p, _ := svc.CreateProject(ctx, "w1", "Rollout", "", "u1")
	svc.CreateTask(ctx, CreateTaskParams{WorkspaceID: "w1", ProjectID: p.ID, Kind: TaskKindChecklist, Title: "A"}, "u1")
	svc.CreateTask(ctx, CreateTaskParams{WorkspaceID: "w1", ProjectID: p.ID, Kind: TaskKindChecklist, Title: "B"}, "u1")

	if err := svc.DeleteProject(ctx, "w1", p.ID, "u1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.GetProject(ctx, "w1", p.ID); err != ErrNotFound {
		t.Fatalf("expected project gone, got %v", err)
	}

	deletes := 0
	for _, e := range repo.AuditLog() {
		if e.Op == audit.OpDelete {
			deletes++
		}
	}
	// Two tasks plus the project itself.
	if deletes != 3 {
		t.Fatalf("expected 3 delete audit entries, got %d", deletes)
	}
}
