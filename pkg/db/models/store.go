package models

import (
	"time"

	"github.com/google/uuid"
)

// Store represents a seller storefront owning a set of products.
type Store struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	Description *string   `gorm:"column:description"`
	LogoURL     *string   `gorm:"column:logo_url"`
	OwnerID     uuid.UUID `gorm:"column:owner_id;type:uuid;not null"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	Products    []Product `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
