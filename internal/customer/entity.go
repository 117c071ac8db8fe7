// AngelaMos | 2026
// entity.go

package customer

import (
	"time"

	"github.com/omarkt13/seafable/internal/profile"
)

// DefaultRole is reported for customers whose stored role is NULL.
const DefaultRole = "user"

// Customer is a row of the users table. ID is the identity account id.
type Customer struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Role      *string   `db:"role"`
	AvatarURL *string   `db:"avatar_url"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (c Customer) RoleOrDefault() string {
	if c.Role == nil || *c.Role == "" {
		return DefaultRole
	}
	return *c.Role
}

func fromIdentity(id profile.Identity) Customer {
	role := DefaultRole
	return Customer{
		ID:        id.UserID,
		Email:     id.Email,
		FirstName: id.String("first_name"),
		LastName:  id.String("last_name"),
		Role:      &role,
	}
}
