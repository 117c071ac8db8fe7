// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/omarkt13/seafable/internal/customer"
	"github.com/omarkt13/seafable/internal/identity"
	"github.com/omarkt13/seafable/internal/profile"
)

type IdentityProvider interface {
	SignUp(ctx context.Context, params identity.SignUpParams) (*identity.User, error)
	SignInWithPassword(
		ctx context.Context,
		email, password string,
		client identity.ClientInfo,
	) (*identity.Session, error)
	Refresh(
		ctx context.Context,
		refreshToken string,
		client identity.ClientInfo,
	) (*identity.Session, error)
	SignOut(ctx context.Context, refreshToken, accountID string) error
	SignOutEverywhere(ctx context.Context, accountID string) error
	GetUser(ctx context.Context, accountID string) (*identity.User, error)
}

type ProfileService interface {
	Create(
		ctx context.Context,
		userID, email, firstName, lastName string,
	) (customer.Profile, error)
	Resolve(ctx context.Context, id profile.Identity) profile.Result[customer.Profile]
}

// Service runs the customer sign-in flows: the account provider decides who
// the caller is and the customer profile is reconciled afterwards.
type Service struct {
	identity IdentityProvider
	profiles ProfileService
	logger   *slog.Logger
}

func NewService(
	provider IdentityProvider,
	profiles ProfileService,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{identity: provider, profiles: profiles, logger: logger}
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	client identity.ClientInfo,
) (*LoginResponse, error) {
	session, err := s.identity.SignInWithPassword(ctx, req.Email, req.Password, client)
	if err != nil {
		return nil, err
	}

	res := s.resolve(ctx, session.User)

	return &LoginResponse{
		User:          res.Profile,
		Session:       session,
		ProfileStatus: res.Kind.String(),
	}, nil
}

// Register creates the account and then its profile. A failed profile
// insert does not undo the account; the next login repairs it.
func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*RegisterResponse, error) {
	user, err := s.identity.SignUp(ctx, identity.SignUpParams{
		Email:    req.Email,
		Password: req.Password,
		Role:     identity.RoleCustomer,
		Metadata: identity.Metadata{
			"first_name": req.FirstName,
			"last_name":  req.LastName,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	resp := &RegisterResponse{
		User:                 user,
		ConfirmationRequired: user.EmailConfirmedAt == nil,
	}

	p, err := s.profiles.Create(ctx, user.ID, user.Email, req.FirstName, req.LastName)
	if err != nil {
		s.logger.Error("customer profile insert failed after sign-up",
			"user_id", user.ID,
			"error", err,
		)
		resp.Profile = customer.FallbackProfile(identityOf(user))
		resp.ProfileStatus = profile.Fallback.String()
		return resp, nil
	}

	resp.Profile = p
	resp.ProfileStatus = profile.Resolved.String()
	return resp, nil
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
	client identity.ClientInfo,
) (*identity.Session, error) {
	return s.identity.Refresh(ctx, refreshToken, client)
}

func (s *Service) Logout(ctx context.Context, refreshToken, userID string) error {
	return s.identity.SignOut(ctx, refreshToken, userID)
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	return s.identity.SignOutEverywhere(ctx, userID)
}

func (s *Service) Me(ctx context.Context, userID string) (*MeResponse, error) {
	user, err := s.identity.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := s.resolve(ctx, user)

	return &MeResponse{
		Account:       user,
		Profile:       res.Profile,
		ProfileStatus: res.Kind.String(),
	}, nil
}

// resolve reconciles the customer profile. Other roles have no customer row
// and get the session-only profile without any repair.
func (s *Service) resolve(
	ctx context.Context,
	user *identity.User,
) profile.Result[customer.Profile] {
	if user.Role != identity.RoleCustomer {
		p := customer.FallbackProfile(identityOf(user))
		p.Role = user.Role
		return profile.Result[customer.Profile]{Kind: profile.Fallback, Profile: p}
	}

	res := s.profiles.Resolve(ctx, identityOf(user))
	if res.Degraded() {
		s.logger.Warn("serving fallback customer profile",
			"user_id", user.ID,
			"error", res.Err,
		)
	}
	return res
}

func identityOf(user *identity.User) profile.Identity {
	return profile.Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Metadata: user.Metadata,
	}
}
