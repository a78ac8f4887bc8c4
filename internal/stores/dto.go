package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/bugabuga/commerce-backend/pkg/db/models"
	"github.com/bugabuga/commerce-backend/pkg/pagination"
)

// Summary is the public projection of a store.
type Summary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	LogoURL     *string   `json:"logo_url,omitempty"`
	OwnerID     uuid.UUID `json:"owner_id"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// List wraps one page of stores plus the page metadata.
type List struct {
	Stores []Summary       `json:"stores"`
	Page   pagination.Page `json:"page"`
}

// NewSummary projects a store model into its public shape.
func NewSummary(store *models.Store) Summary {
	return Summary{
		ID:          store.ID,
		Name:        store.Name,
		Description: store.Description,
		LogoURL:     store.LogoURL,
		OwnerID:     store.OwnerID,
		IsActive:    store.IsActive,
		CreatedAt:   store.CreatedAt,
	}
}

func newSummaries(stores []models.Store) []Summary {
	out := make([]Summary, 0, len(stores))
	for i := range stores {
		out = append(out, NewSummary(&stores[i]))
	}
	return out
}
