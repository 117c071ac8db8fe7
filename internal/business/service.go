// AngelaMos | 2026
// service.go

package business

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/omarkt13/seafable/internal/core"
	"github.com/omarkt13/seafable/internal/identity"
	"github.com/omarkt13/seafable/internal/profile"
)

// IdentityProvider is the part of the account provider hosts need.
type IdentityProvider interface {
	SignUp(ctx context.Context, params identity.SignUpParams) (*identity.User, error)
	SignInWithPassword(
		ctx context.Context,
		email, password string,
		client identity.ClientInfo,
	) (*identity.Session, error)
	SignOut(ctx context.Context, refreshToken, accountID string) error
}

type Service struct {
	repo     Repository
	identity IdentityProvider
	resolver *profile.Resolver[Host, Profile]
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	provider IdentityProvider,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:     repo,
		identity: provider,
		logger:   logger,
		resolver: profile.NewResolver(profile.Config[Host, Profile]{
			Name:         "business",
			Store:        repo,
			AuthID:       func(h Host) string { return h.UserID },
			ToProfile:    ToProfile,
			FromIdentity: fromIdentity,
			Fallback:     FallbackProfile,
			Logger:       logger,
		}),
	}
}

// Register creates the host account and its profile row. req must already
// be validated.
func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*RegisterResponse, error) {
	hostType := hostTypeOrDefault(req.HostType)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.identity.SignUp(ctx, identity.SignUpParams{
		Email:    email,
		Password: req.Password,
		Role:     identity.RoleBusiness,
		Metadata: identity.Metadata{
			"contact_name":  req.ContactName,
			"business_name": req.BusinessName,
			"host_type":     hostType,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sign up host: %w", err)
	}

	host := Host{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		Email:        user.Email,
		Name:         req.ContactName,
		BusinessName: req.BusinessName,
		HostType:     hostType,
	}
	if err := s.repo.Create(ctx, host); err != nil {
		s.logger.Error("host profile insert failed after sign-up",
			"user_id", user.ID,
			"error", err,
		)
		return nil, fmt.Errorf("create host profile: %w", err)
	}

	return &RegisterResponse{
		User: user,
		Profile: Profile{
			ID:           host.ID,
			UserID:       host.UserID,
			Email:        host.Email,
			Name:         host.Name,
			BusinessName: host.BusinessName,
			HostType:     host.HostType,
		},
		ConfirmationRequired: user.EmailConfirmedAt == nil,
	}, nil
}

// Login signs a host in and resolves its profile. Only a rejected sign-in
// fails; profile problems degrade to a fallback profile.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	client identity.ClientInfo,
) (*LoginResponse, error) {
	session, err := s.identity.SignInWithPassword(ctx, req.Email, req.Password, client)
	if err != nil {
		return nil, err
	}

	if session.User.Role != identity.RoleBusiness {
		if signOutErr := s.identity.SignOut(ctx, session.RefreshToken, session.User.ID); signOutErr != nil {
			s.logger.Warn("revoke non-business session failed", "error", signOutErr)
		}
		return nil, core.ForbiddenError("this account is not registered as a business")
	}

	res := s.resolver.Resolve(ctx, profile.Identity{
		UserID:   session.User.ID,
		Email:    session.User.Email,
		Metadata: session.User.Metadata,
	})

	return &LoginResponse{
		User:          res.Profile,
		Session:       session,
		ProfileStatus: res.Kind.String(),
	}, nil
}

func (s *Service) GetMe(ctx context.Context, userID string) (*Host, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByUserID(ctx, userID)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateHostRequest,
) (*Host, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	h, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		h.Name = *req.Name
	}
	if req.BusinessName != nil {
		h.BusinessName = *req.BusinessName
	}
	if req.HostType != nil {
		h.HostType = *req.HostType
	}

	if err := s.repo.Update(ctx, h); err != nil {
		return nil, err
	}

	return h, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
