// AngelaMos | 2026
// errors.go

package identity

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/omarkt13/seafable/internal/core"
)

// SignInError turns a sign-in failure into the error shown to the client.
// Unclassified failures are returned unchanged.
func SignInError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return core.NewAppError(
			err,
			"Invalid email or password",
			http.StatusUnauthorized,
			"INVALID_CREDENTIALS",
		)
	case errors.Is(err, ErrEmailNotConfirmed):
		return core.NewAppError(
			err,
			"Please confirm your email address before signing in",
			http.StatusUnauthorized,
			"EMAIL_NOT_CONFIRMED",
		)
	case errors.Is(err, core.ErrRateLimited):
		return core.RateLimitedError("Too many login attempts. Please try again later.")
	case errors.Is(err, core.ErrInvalidInput):
		return core.NewAppError(err, providerMessage(err), http.StatusBadRequest, "AUTH_ERROR")
	default:
		return err
	}
}

// SignUpError turns a sign-up failure into the error shown to the client.
func SignUpError(err error) error {
	switch {
	case errors.Is(err, ErrEmailExists):
		return core.NewAppError(
			err,
			"An account with this email already exists",
			http.StatusConflict,
			"EMAIL_EXISTS",
		)
	case errors.Is(err, core.ErrInvalidInput):
		return core.ValidationError(providerMessage(err), nil)
	default:
		return err
	}
}

// RefreshError maps refresh-token failures to 401 responses.
func RefreshError(err error) error {
	switch {
	case errors.Is(err, ErrTokenReuse), errors.Is(err, core.ErrTokenRevoked):
		return core.TokenRevokedError()
	case errors.Is(err, core.ErrTokenExpired):
		return core.TokenExpiredError()
	case errors.Is(err, core.ErrTokenInvalid):
		return core.TokenInvalidError()
	default:
		return err
	}
}

func providerMessage(err error) string {
	switch {
	case errors.Is(err, ErrWeakPassword):
		return fmt.Sprintf("Password should be at least %d characters", minPasswordLength)
	case errors.Is(err, ErrInvalidEmail):
		return "Unable to validate email address"
	default:
		return "Invalid request"
	}
}
