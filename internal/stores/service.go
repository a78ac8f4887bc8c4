package stores

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bugabuga/commerce-backend/internal/users"
	"github.com/bugabuga/commerce-backend/pkg/db/models"
	pkgerrors "github.com/bugabuga/commerce-backend/pkg/errors"
	"github.com/bugabuga/commerce-backend/pkg/pagination"
)

// Service defines storefront management operations.
type Service interface {
	List(ctx context.Context, params pagination.Params) (*List, error)
	Get(ctx context.Context, storeID uuid.UUID) (*Summary, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Summary, error)
	Create(ctx context.Context, input CreateInput) (*Summary, error)
	Update(ctx context.Context, input UpdateInput) (*Summary, error)
	Deactivate(ctx context.Context, actorID uuid.UUID, storeID uuid.UUID) error
}

// CreateInput carries the fields accepted when opening a store.
type CreateInput struct {
	OwnerID     uuid.UUID
	Name        string
	Description *string
	LogoURL     *string
}

// UpdateInput carries the mutable store fields. Nil pointers leave the
// current value untouched.
type UpdateInput struct {
	ActorID     uuid.UUID
	StoreID     uuid.UUID
	Name        *string
	Description *string
	LogoURL     *string
}

type service struct {
	repo  Repository
	users users.Repository
}

// NewService builds the stores service with the required dependencies.
func NewService(repo Repository, usersRepo users.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stores repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, users: usersRepo}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*List, error) {
	params = pagination.Normalize(params)
	stores, total, err := s.repo.ListActive(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	return &List{
		Stores: newSummaries(stores),
		Page:   pagination.NewPage(params, total),
	}, nil
}

func (s *service) Get(ctx context.Context, storeID uuid.UUID) (*Summary, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	store, err := s.findStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	summary := NewSummary(store)
	return &summary, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Summary, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if _, err := s.users.FindByID(ctx, ownerID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "owner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load owner")
	}
	stores, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores by owner")
	}
	return newSummaries(stores), nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Summary, error) {
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name required")
	}

	if _, err := s.users.FindByID(ctx, input.OwnerID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "owner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load owner")
	}

	// Pre-check keeps the common case friendly; the unique constraint
	// catches the race.
	taken, err := s.repo.ExistsByName(ctx, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check store name")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "store name already in use")
	}

	store := &models.Store{
		Name:        name,
		Description: input.Description,
		LogoURL:     input.LogoURL,
		OwnerID:     input.OwnerID,
		IsActive:    true,
	}
	created, err := s.repo.Create(ctx, store)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
	}
	summary := NewSummary(created)
	return &summary, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*Summary, error) {
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	store, err := s.findStore(ctx, input.StoreID)
	if err != nil {
		return nil, err
	}
	if store.OwnerID != input.ActorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store does not belong to user")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name cannot be empty")
		}
		if name != store.Name {
			taken, err := s.repo.ExistsByName(ctx, name)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check store name")
			}
			if taken {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "store name already in use")
			}
			updates["name"] = name
			store.Name = name
		}
	}
	if input.Description != nil {
		updates["description"] = *input.Description
		store.Description = input.Description
	}
	if input.LogoURL != nil {
		updates["logo_url"] = *input.LogoURL
		store.LogoURL = input.LogoURL
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, store.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
		}
	}

	summary := NewSummary(store)
	return &summary, nil
}

func (s *service) Deactivate(ctx context.Context, actorID uuid.UUID, storeID uuid.UUID) error {
	if storeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	store, err := s.findStore(ctx, storeID)
	if err != nil {
		return err
	}
	if store.OwnerID != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "store does not belong to user")
	}
	if !store.IsActive {
		return nil
	}
	if err := s.repo.Update(ctx, store.ID, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate store")
	}
	return nil
}

func (s *service) findStore(ctx context.Context, storeID uuid.UUID) (*models.Store, error) {
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}
