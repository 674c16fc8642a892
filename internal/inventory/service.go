package inventory

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("inventory record not found")
	ErrInvalidArgument = errors.New("invalid inventory argument")
	ErrConflict        = errors.New("inventory uniqueness conflict")
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Repository persists items, categories and locations. Every mutation is
// atomic with its audit record: either both land or neither does.
type Repository interface {
	CreateItem(ctx context.Context, item Item, actorID string) (Item, error)
	GetItem(ctx context.Context, workspaceID, id string) (Item, error)
	ListItems(ctx context.Context, q ItemQuery) ([]Item, int64, error)
	UpdateItem(ctx context.Context, item Item, actorID string) (Item, error)
	DeleteItem(ctx context.Context, workspaceID, id, actorID string) error

	CreateCategory(ctx context.Context, c Category, actorID string) (Category, error)
	ListCategories(ctx context.Context, workspaceID string) ([]Category, error)
	DeleteCategory(ctx context.Context, workspaceID, id, actorID string) error

	CreateLocation(ctx context.Context, l Location, actorID string) (Location, error)
	ListLocations(ctx context.Context, workspaceID string) ([]Location, error)
	DeleteLocation(ctx context.Context, workspaceID, id, actorID string) error
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

type CreateItemParams struct {
	WorkspaceID    string
	SKU            string
	Name           string
	Description    string
	CategoryID     string
	LocationID     string
	Quantity       int
	UnitPriceMinor int64
}

func (p CreateItemParams) validate() error {
	if p.WorkspaceID == "" || strings.TrimSpace(p.SKU) == "" || strings.TrimSpace(p.Name) == "" {
		return ErrInvalidArgument
	}
	if p.Quantity < 0 || p.UnitPriceMinor < 0 {
		return ErrInvalidArgument
	}
	return nil
}

func (s *Service) CreateItem(ctx context.Context, p CreateItemParams, actorID string) (Item, error) {
	if err := p.validate(); err != nil {
		return Item{}, err
	}
	if actorID == "" {
		return Item{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	item := Item{
		WorkspaceID:    p.WorkspaceID,
		SKU:            strings.TrimSpace(p.SKU),
		Name:           strings.TrimSpace(p.Name),
		Description:    p.Description,
		CategoryID:     p.CategoryID,
		LocationID:     p.LocationID,
		Quantity:       p.Quantity,
		UnitPriceMinor: p.UnitPriceMinor,
		Status:         ItemStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return s.repo.CreateItem(ctx, item, actorID)
}

func (s *Service) GetItem(ctx context.Context, workspaceID, id string) (Item, error) {
	if workspaceID == "" || id == "" {
		return Item{}, ErrInvalidArgument
	}
	return s.repo.GetItem(ctx, workspaceID, id)
}

func (s *Service) ListItems(ctx context.Context, q ItemQuery) ([]Item, int64, error) {
	if q.WorkspaceID == "" {
		return nil, 0, ErrInvalidArgument
	}
	if q.Limit == 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit < 1 || q.Limit > MaxListLimit || q.Offset < 0 {
		return nil, 0, ErrInvalidArgument
	}
	if q.Status != "" && !ValidItemStatus(q.Status) {
		return nil, 0, ErrInvalidArgument
	}
	return s.repo.ListItems(ctx, q)
}

type UpdateItemParams struct {
	Name           *string
	Description    *string
	CategoryID     *string
	LocationID     *string
	Quantity       *int
	UnitPriceMinor *int64
	Status         *ItemStatus
}

// UpdateItem applies the non-nil fields of p on top of the current row and
// records the before/after pair in the same transaction.
func (s *Service) UpdateItem(ctx context.Context, workspaceID, id string, p UpdateItemParams, actorID string) (Item, error) {
	if workspaceID == "" || id == "" || actorID == "" {
		return Item{}, ErrInvalidArgument
	}
	cur, err := s.repo.GetItem(ctx, workspaceID, id)
	if err != nil {
		return Item{}, err
	}
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return Item{}, ErrInvalidArgument
		}
		cur.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		cur.Description = *p.Description
	}
	if p.CategoryID != nil {
		cur.CategoryID = *p.CategoryID
	}
	if p.LocationID != nil {
		cur.LocationID = *p.LocationID
	}
	if p.Quantity != nil {
		if *p.Quantity < 0 {
			return Item{}, ErrInvalidArgument
		}
		cur.Quantity = *p.Quantity
	}
	if p.UnitPriceMinor != nil {
		if *p.UnitPriceMinor < 0 {
			return Item{}, ErrInvalidArgument
		}
		cur.UnitPriceMinor = *p.UnitPriceMinor
	}
	if p.Status != nil {
		if !ValidItemStatus(*p.Status) {
			return Item{}, ErrInvalidArgument
		}
		cur.Status = *p.Status
	}
	cur.UpdatedAt = s.clock().UTC()
	return s.repo.UpdateItem(ctx, cur, actorID)
}

func (s *Service) DeleteItem(ctx context.Context, workspaceID, id, actorID string) error {
	if workspaceID == "" || id == "" || actorID == "" {
		return ErrInvalidArgument
	}
	return s.repo.DeleteItem(ctx, workspaceID, id, actorID)
}

func (s *Service) CreateCategory(ctx context.Context, workspaceID, name, description, actorID string) (Category, error) {
	if workspaceID == "" || strings.TrimSpace(name) == "" || actorID == "" {
		return Category{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	return s.repo.CreateCategory(ctx, Category{
		WorkspaceID: workspaceID,
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, actorID)
}

func (s *Service) ListCategories(ctx context.Context, workspaceID string) ([]Category, error) {
	if workspaceID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListCategories(ctx, workspaceID)
}

func (s *Service) DeleteCategory(ctx context.Context, workspaceID, id, actorID string) error {
	if workspaceID == "" || id == "" || actorID == "" {
		return ErrInvalidArgument
	}
	return s.repo.DeleteCategory(ctx, workspaceID, id, actorID)
}

func (s *Service) CreateLocation(ctx context.Context, workspaceID, name, description, actorID string) (Location, error) {
	if workspaceID == "" || strings.TrimSpace(name) == "" || actorID == "" {
		return Location{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	return s.repo.CreateLocation(ctx, Location{
		WorkspaceID: workspaceID,
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, actorID)
}

func (s *Service) ListLocations(ctx context.Context, workspaceID string) ([]Location, error) {
	if workspaceID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListLocations(ctx, workspaceID)
}

func (s *Service) DeleteLocation(ctx context.Context, workspaceID, id, actorID string) error {
	if workspaceID == "" || id == "" || actorID == "" {
		return ErrInvalidArgument
	}
	return s.repo.DeleteLocation(ctx, workspaceID, id, actorID)
}
