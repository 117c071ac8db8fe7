// AngelaMos | 2026
// entity.go

package business

import (
	"time"

	"github.com/google/uuid"

	"github.com/omarkt13/seafable/internal/profile"
)

const (
	HostTypeIndividual = "individual"
	HostTypeCompany    = "company"
	HostTypeCharter    = "charter"
)

// Host is a row of host_profiles. UserID is the identity account id.
type Host struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	BusinessName string    `db:"business_name"`
	HostType     string    `db:"host_type"`
	Rating       float64   `db:"rating"`
	TotalReviews int       `db:"total_reviews"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func hostTypeOrDefault(t string) string {
	switch t {
	case HostTypeIndividual, HostTypeCompany, HostTypeCharter:
		return t
	default:
		return HostTypeIndividual
	}
}

func fromIdentity(id profile.Identity) Host {
	return Host{
		ID:           uuid.New().String(),
		UserID:       id.UserID,
		Email:        id.Email,
		Name:         contactName(id),
		BusinessName: id.String("business_name"),
		HostType:     hostTypeOrDefault(id.String("host_type")),
	}
}

func contactName(id profile.Identity) string {
	if name := id.String("contact_name"); name != "" {
		return name
	}
	return id.String("name")
}
