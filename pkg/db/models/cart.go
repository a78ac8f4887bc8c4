package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the per-user mutable staging area prior to checkout. Total is a
// derived column: it is recomputed from live product prices after every
// mutation, never trusted incrementally.
type Cart struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Total     decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null;default:0"`
	Items     []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
