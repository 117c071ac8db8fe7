// AngelaMos | 2026
// dto.go

package business

import (
	"time"

	"github.com/omarkt13/seafable/internal/identity"
	"github.com/omarkt13/seafable/internal/profile"
)

type RegisterRequest struct {
	BusinessName    string `json:"business_name"    validate:"required,min=1,max=120"`
	ContactName     string `json:"contact_name"     validate:"required,min=1,max=100"`
	Email           string `json:"email"            validate:"required,email,max=255"`
	Password        string `json:"password"         validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	HostType        string `json:"host_type"        validate:"omitempty,oneof=individual company charter"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateHostRequest struct {
	Name         *string `json:"name,omitempty"          validate:"omitempty,min=1,max=100"`
	BusinessName *string `json:"business_name,omitempty" validate:"omitempty,min=1,max=120"`
	HostType     *string `json:"host_type,omitempty"     validate:"omitempty,oneof=individual company charter"`
}

// Profile is the host view returned by login and /me. Rating, review count
// and timestamps are absent when the profile was built from the session.
type Profile struct {
	ID           string     `json:"id,omitempty"`
	UserID       string     `json:"user_id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	BusinessName string     `json:"business_name"`
	HostType     string     `json:"host_type"`
	Rating       *float64   `json:"rating,omitempty"`
	TotalReviews *int       `json:"total_reviews,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func ToProfile(h Host) Profile {
	rating, reviews := h.Rating, h.TotalReviews
	createdAt, updatedAt := h.CreatedAt, h.UpdatedAt
	return Profile{
		ID:           h.ID,
		UserID:       h.UserID,
		Email:        h.Email,
		Name:         h.Name,
		BusinessName: h.BusinessName,
		HostType:     hostTypeOrDefault(h.HostType),
		Rating:       &rating,
		TotalReviews: &reviews,
		CreatedAt:    &createdAt,
		UpdatedAt:    &updatedAt,
	}
}

func FallbackProfile(id profile.Identity) Profile {
	return Profile{
		UserID:       id.UserID,
		Email:        id.Email,
		Name:         contactName(id),
		BusinessName: id.String("business_name"),
		HostType:     hostTypeOrDefault(id.String("host_type")),
	}
}

type RegisterResponse struct {
	User                 *identity.User `json:"user"`
	Profile              Profile        `json:"profile"`
	ConfirmationRequired bool           `json:"confirmation_required"`
}

type LoginResponse struct {
	User          Profile           `json:"user"`
	Session       *identity.Session `json:"session"`
	ProfileStatus string            `json:"profile_status"`
}
