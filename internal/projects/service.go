package projects

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("project record not found")
	ErrInvalidArgument = errors.New("invalid project argument")
)

// Repository mutations carry their audit record in the same transaction.
type Repository interface {
	CreateProject(ctx context.Context, p Project, actorID string) (Project, error)
	GetProject(ctx context.Context, workspaceID, id string) (Project, error)
	ListProjects(ctx context.Context, workspaceID string, status ProjectStatus) ([]Project, error)
	UpdateProject(ctx context.Context, p Project, actorID string) (Project, error)
	DeleteProject(ctx context.Context, workspaceID, id, actorID string) error

	CreateTask(ctx context.Context, t Task, actorID string) (Task, error)
	ListTasks(ctx context.Context, workspaceID, projectID string, kind TaskKind) ([]Task, error)
	UpdateTask(ctx context.Context, t Task, actorID string) (Task, error)
	DeleteTask(ctx context.Context, workspaceID, id, actorID string) error
	GetTask(ctx context.Context, workspaceID, id string) (Task, error)
	NextTaskPosition(ctx context.Context, workspaceID, projectID string, kind TaskKind) (int, error)
}

type Service struct {
	repo  Repository
	clock func() time.Time
	log   *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, clock: time.Now, log: log}
}

func (s *Service) CreateProject(ctx context.Context, workspaceID, name, description, actorID string) (Project, error) {
	if workspaceID == "" || strings.TrimSpace(name) == "" || actorID == "" {
		return Project{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	return s.repo.CreateProject(ctx, Project{
		WorkspaceID: workspaceID,
		Name:        strings.TrimSpace(name),
		Description: description,
		Status:      ProjectStatusPlanning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, actorID)
}

func (s *Service) GetProject(ctx context.Context, workspaceID, id string) (Project, error) {
	if workspaceID == "" || id == "" {
		return Project{}, ErrInvalidArgument
	}
	return s.repo.GetProject(ctx, workspaceID, id)
}

func (s *Service) ListProjects(ctx context.Context, workspaceID string, status ProjectStatus) ([]Project, error) {
	if workspaceID == "" {
		return nil, ErrInvalidArgument
	}
	if status != "" && !ValidProjectStatus(status) {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListProjects(ctx, workspaceID, status)
}

type UpdateProjectParams struct {
	Name        *string
	Description *string
	Status      *ProjectStatus
}

func (s *Service) UpdateProject(ctx context.Context, workspaceID, id string, p UpdateProjectParams, actorID string) (Project, error) {
	if workspaceID == "" || id == "" || actorID == "" {
		return Project{}, ErrInvalidArgument
	}
	cur, err := s.repo.GetProject(ctx, workspaceID, id)
	if err != nil {
		return Project{}, err
	}
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return Project{}, ErrInvalidArgument
		}
		cur.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		cur.Description = *p.Description
	}
	if p.Status != nil {
		if !ValidProjectStatus(*p.Status) {
			return Project{}, ErrInvalidArgument
		}
		cur.Status = *p.Status
	}
	cur.UpdatedAt = s.clock().UTC()
	return s.repo.UpdateProject(ctx, cur, actorID)
}

func (s *Service) DeleteProject(ctx context.Context, workspaceID, id, actorID string) error {
	if workspaceID == "" || id == "" || actorID == "" {
		return ErrInvalidArgument
	}
	return s.repo.DeleteProject(ctx, workspaceID, id, actorID)
}

type CreateTaskParams struct {
	WorkspaceID string
	ProjectID   string
	Kind        TaskKind
	Title       string
	AssigneeID  string
}

// CreateTask appends a task at the end of its kind's ordering within the
// project.
func (s *Service) CreateTask(ctx context.Context, p CreateTaskParams, actorID string) (Task, error) {
	if p.WorkspaceID == "" || p.ProjectID == "" || strings.TrimSpace(p.Title) == "" || actorID == "" {
		return Task{}, ErrInvalidArgument
	}
	if !ValidTaskKind(p.Kind) {
		return Task{}, ErrInvalidArgument
	}
	// Project must exist in this workspace.
	if _, err := s.repo.GetProject(ctx, p.WorkspaceID, p.ProjectID); err != nil {
		return Task{}, err
	}
	pos, err := s.repo.NextTaskPosition(ctx, p.WorkspaceID, p.ProjectID, p.Kind)
	if err != nil {
		return Task{}, err
	}
	now := s.clock().UTC()
	return s.repo.CreateTask(ctx, Task{
		WorkspaceID: p.WorkspaceID,
		ProjectID:   p.ProjectID,
		Kind:        p.Kind,
		Title:       strings.TrimSpace(p.Title),
		Status:      TaskStatusOpen,
		Position:    pos,
		AssigneeID:  p.AssigneeID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, actorID)
}

func (s *Service) ListTasks(ctx context.Context, workspaceID, projectID string, kind TaskKind) ([]Task, error) {
	if workspaceID == "" || projectID == "" {
		return nil, ErrInvalidArgument
	}
	if kind != "" && !ValidTaskKind(kind) {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListTasks(ctx, workspaceID, projectID, kind)
}

type UpdateTaskParams struct {
	Title      *string
	Status     *TaskStatus
	Position   *int
	AssigneeID *string
}

func (s *Service) UpdateTask(ctx context.Context, workspaceID, id string, p UpdateTaskParams, actorID string) (Task, error) {
	if workspaceID == "" || id == "" || actorID == "" {
		return Task{}, ErrInvalidArgument
	}
	cur, err := s.repo.GetTask(ctx, workspaceID, id)
	if err != nil {
		return Task{}, err
	}
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return Task{}, ErrInvalidArgument
		}
		cur.Title = strings.TrimSpace(*p.Title)
	}
	if p.Status != nil {
		if !ValidTaskStatus(*p.Status) {
			return Task{}, ErrInvalidArgument
		}
		cur.Status = *p.Status
	}
	if p.Position != nil {
		if *p.Position < 0 {
			return Task{}, ErrInvalidArgument
		}
		cur.Position = *p.Position
	}
	if p.AssigneeID != nil {
		cur.AssigneeID = *p.AssigneeID
	}
	cur.UpdatedAt = s.clock().UTC()
	return s.repo.UpdateTask(ctx, cur, actorID)
}

func (s *Service) DeleteTask(ctx context.Context, workspaceID, id, actorID string) error {
	if workspaceID == "" || id == "" || actorID == "" {
		return ErrInvalidArgument
	}
	return s.repo.DeleteTask(ctx, workspaceID, id, actorID)
}
