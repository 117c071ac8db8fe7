// AngelaMos | 2026
// dto.go

package customer

import (
	"time"

	"github.com/omarkt13/seafable/internal/profile"
)

type UpdateCustomerRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name,omitempty"  validate:"omitempty,min=1,max=100"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url,max=2048"`
}

// Profile is what login and /me report about a customer. Fields only a
// stored row can supply are omitted when the profile was built from the
// session alone.
type Profile struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Role      string     `json:"role"`
	AvatarURL *string    `json:"avatar_url,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func ToProfile(c Customer) Profile {
	createdAt, updatedAt := c.CreatedAt, c.UpdatedAt
	return Profile{
		ID:        c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Role:      c.RoleOrDefault(),
		AvatarURL: c.AvatarURL,
		CreatedAt: &createdAt,
		UpdatedAt: &updatedAt,
	}
}

// FallbackProfile is built only from what the session carries.
func FallbackProfile(id profile.Identity) Profile {
	return Profile{
		ID:        id.UserID,
		Email:     id.Email,
		FirstName: id.String("first_name"),
		LastName:  id.String("last_name"),
		Role:      DefaultRole,
	}
}
