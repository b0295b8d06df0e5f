package service

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/identity/internal/repo"
	"github.com/Skotchmaster/identity/internal/tokens"
)

var (
	ErrValidation           = errors.New("invalid input")
	ErrDuplicateIdentity    = errors.New("user with this email or username already exists")
	ErrNotFound             = errors.New("user not found")
	ErrInvalidCredential    = errors.New("invalid credentials")
	ErrInvalidToken         = tokens.ErrInvalidToken
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrUnavailable          = errors.New("service unavailable")
)

func validationErr(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}

// unavailable marks an infrastructure failure while keeping the cause matchable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// storeErr maps a store failure onto the service taxonomy.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrDuplicate):
		return ErrDuplicateIdentity
	}
	return unavailable(op, err)
}

// Kind names the taxonomy entry of err for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDuplicateIdentity):
		return "duplicate"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrInvalidOrExpiredCode):
		return "invalid_code"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	}
	return "internal"
}
