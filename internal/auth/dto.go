// AngelaMos | 2026
// dto.go

package auth

import (
	"github.com/omarkt13/seafable/internal/customer"
	"github.com/omarkt13/seafable/internal/identity"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email     string `json:"email"      validate:"required,email,max=255"`
	Password  string `json:"password"   validate:"required,min=8,max=128"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name"  validate:"required,min=1,max=100"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LoginResponse carries the resolved profile as "user". ProfileStatus is
// "resolved", "repaired" or "fallback".
type LoginResponse struct {
	User          customer.Profile  `json:"user"`
	Session       *identity.Session `json:"session"`
	ProfileStatus string            `json:"profile_status"`
}

type RegisterResponse struct {
	User                 *identity.User   `json:"user"`
	Profile              customer.Profile `json:"profile"`
	ProfileStatus        string           `json:"profile_status"`
	ConfirmationRequired bool             `json:"confirmation_required"`
}

type MeResponse struct {
	Account       *identity.User   `json:"account"`
	Profile       customer.Profile `json:"profile"`
	ProfileStatus string           `json:"profile_status"`
}
