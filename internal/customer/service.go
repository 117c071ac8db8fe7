// AngelaMos | 2026
// service.go

package customer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/omarkt13/seafable/internal/core"
	"github.com/omarkt13/seafable/internal/profile"
)

type Service struct {
	repo     Repository
	resolver *profile.Resolver[Customer, Profile]
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo: repo,
		resolver: profile.NewResolver(profile.Config[Customer, Profile]{
			Name:         "customer",
			Store:        repo,
			AuthID:       func(c Customer) string { return c.ID },
			ToProfile:    ToProfile,
			FromIdentity: fromIdentity,
			Fallback:     FallbackProfile,
			Logger:       logger,
		}),
	}
}

// Create stores the profile for a freshly registered account.
func (s *Service) Create(
	ctx context.Context,
	userID, email, firstName, lastName string,
) (Profile, error) {
	role := DefaultRole
	c := Customer{
		ID:        userID,
		Email:     strings.ToLower(email),
		FirstName: firstName,
		LastName:  lastName,
		Role:      &role,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return Profile{}, err
	}

	return Profile{
		ID:        c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Role:      role,
	}, nil
}

// Resolve finds the customer row behind an authenticated identity.
func (s *Service) Resolve(ctx context.Context, id profile.Identity) profile.Result[Profile] {
	return s.resolver.Resolve(ctx, id)
}

func (s *Service) GetMe(ctx context.Context, userID string) (*Customer, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateCustomerRequest,
) (*Customer, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	c, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		c.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		c.LastName = *req.LastName
	}
	if req.AvatarURL != nil {
		c.AvatarURL = req.AvatarURL
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
