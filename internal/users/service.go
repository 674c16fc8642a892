package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"inventory-platform/internal/rbac"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound        = errors.New("user not found")
	ErrInvalidArgument = errors.New("invalid user argument")
	ErrConflict        = errors.New("email already registered in workspace")
	ErrBadCredentials  = errors.New("invalid email or password")
)

const minPasswordLength = 8

type Repository interface {
	Create(ctx context.Context, u User, actorID string) (User, error)
	Get(ctx context.Context, workspaceID, id string) (User, error)
	GetByEmail(ctx context.Context, workspaceID, email string) (User, error)
	List(ctx context.Context, workspaceID string) ([]User, error)
	Update(ctx context.Context, u User, actorID string) (User, error)
	Delete(ctx context.Context, workspaceID, id, actorID string) error
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

type CreateParams struct {
	WorkspaceID string
	Email       string
	Name        string
	Role        string
	Password    string
}

func (s *Service) Create(ctx context.Context, p CreateParams, actorID string) (User, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if p.WorkspaceID == "" || actorID == "" || strings.TrimSpace(p.Name) == "" {
		return User{}, ErrInvalidArgument
	}
	if !strings.Contains(email, "@") {
		return User{}, ErrInvalidArgument
	}
	if !rbac.ValidRole(p.Role) {
		return User{}, ErrInvalidArgument
	}
	if len(p.Password) < minPasswordLength {
		return User{}, ErrInvalidArgument
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	now := s.clock().UTC()
	return s.repo.Create(ctx, User{
		WorkspaceID:  p.WorkspaceID,
		Email:        email,
		Name:         strings.TrimSpace(p.Name),
		Role:         p.Role,
		Status:       StatusActive,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, actorID)
}

func (s *Service) Get(ctx context.Context, workspaceID, id string) (User, error) {
	if workspaceID == "" || id == "" {
		return User{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, workspaceID, id)
}

func (s *Service) List(ctx context.Context, workspaceID string) ([]User, error) {
	if workspaceID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.List(ctx, workspaceID)
}

type UpdateParams struct {
	Name   *string
	Role   *string
	Status *Status
}

// Update patches the non-nil fields. A role change takes effect on new
// sessions; tokens cached before the change keep the old role until their
// cache entry expires.
func (s *Service) Update(ctx context.Context, workspaceID, id string, p UpdateParams, actorID string) (User, error) {
	if workspaceID == "" || id == "" || actorID == "" {
		return User{}, ErrInvalidArgument
	}
	cur, err := s.repo.Get(ctx, workspaceID, id)
	if err != nil {
		return User{}, err
	}
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return User{}, ErrInvalidArgument
		}
		cur.Name = strings.TrimSpace(*p.Name)
	}
	if p.Role != nil {
		if !rbac.ValidRole(*p.Role) {
			return User{}, ErrInvalidArgument
		}
		if cur.Role != *p.Role {
			s.log.Info("user role changed",
				"workspace_id", workspaceID,
				"user_id", id,
				"old_role", cur.Role,
				"new_role", *p.Role,
			)
		}
		cur.Role = *p.Role
	}
	if p.Status != nil {
		if !ValidStatus(*p.Status) {
			return User{}, ErrInvalidArgument
		}
		cur.Status = *p.Status
	}
	cur.UpdatedAt = s.clock().UTC()
	return s.repo.Update(ctx, cur, actorID)
}

func (s *Service) Delete(ctx context.Context, workspaceID, id, actorID string) error {
	if workspaceID == "" || id == "" || actorID == "" {
		return ErrInvalidArgument
	}
	// Self-deletion would orphan the session mid-request.
	if id == actorID {
		return ErrInvalidArgument
	}
	return s.repo.Delete(ctx, workspaceID, id, actorID)
}

// Authenticate checks the credential pair and returns the user for token
// issuance. Unknown email and wrong password are indistinguishable to the
// caller.
func (s *Service) Authenticate(ctx context.Context, workspaceID, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if workspaceID == "" || email == "" || password == "" {
		return User{}, ErrBadCredentials
	}
	u, err := s.repo.GetByEmail(ctx, workspaceID, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrBadCredentials
		}
		return User{}, err
	}
	if u.Status != StatusActive {
		return User{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrBadCredentials
	}
	return u, nil
}
