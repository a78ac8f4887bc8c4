package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/bugabuga/commerce-backend/pkg/db/models"
	"github.com/bugabuga/commerce-backend/pkg/enums"
)

// Profile is the public projection of a user account.
type Profile struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Phone     *string    `json:"phone,omitempty"`
	Role      enums.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewProfile projects a user model into its public shape.
func NewProfile(user *models.User) Profile {
	return Profile{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
