package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/identity/internal/hash"
	"github.com/Skotchmaster/identity/internal/logging"
	"github.com/Skotchmaster/identity/internal/notify"
	"github.com/Skotchmaster/identity/internal/repo"
	"github.com/Skotchmaster/identity/internal/tokens"
	"github.com/Skotchmaster/identity/internal/transport"
)

const (
	resetSentMessage = "Password reset email sent"
	resetDoneMessage = "Password has been reset successfully."
)

func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (res *transport.MessageResult, err error) {
	defer s.observe("request_password_reset", time.Now(), &err)
	l := logging.FromContext(ctx).With("svc", "auth.request_password_reset")

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, validationErr("email is required")
	}

	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) && s.opts.ConcealUnknownAccounts {
			l.Info("password_reset_skipped", "reason", "unknown email")
			return &transport.MessageResult{Message: resetSentMessage}, nil
		}
		err = storeErr("request password reset: lookup", err)
		l.Warn("password_reset_failed", "status", statusHint(err), "reason", Kind(err))
		return nil, err
	}

	tok, err := s.tokens.IssueTemporary(payloadOf(account), tokens.Fingerprint(account.PasswordHash))
	if err != nil {
		l.Error("password_reset_failed", "status", 500, "error", err)
		return nil, unavailable("request password reset: sign", err)
	}

	link := s.ResetLink(tok.Value)
	s.send(ctx, l, notify.PasswordResetMessage(account.Email, account.Username, link, s.tokens.TTL(tokens.Temporary)))
	l.Info("password_reset_issued", "user_id", account.ID.String())

	return &transport.MessageResult{Message: resetSentMessage}, nil
}

// ResetLink is the frontend page a reset token is delivered to.
func (s *AuthService) ResetLink(token string) string {
	return s.opts.FrontendURL + "/reset-password?token=" + url.QueryEscape(token)
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (res *transport.MessageResult, err error) {
	defer s.observe("reset_password", time.Now(), &err)
	l := logging.FromContext(ctx).With("svc", "auth.reset_password")

	if newPassword == "" {
		return nil, validationErr("new password is required")
	}

	claims, err := s.tokens.Validate(tokens.Temporary, token)
	if err != nil {
		l.Warn("password_reset_failed", "status", 401, "reason", "invalid temporary token")
		return nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		l.Warn("password_reset_failed", "status", 401, "reason", "malformed subject")
		return nil, ErrInvalidToken
	}

	account, err := s.store.FindByID(ctx, id)
	if err != nil {
		err = storeErr("reset password: lookup", err)
		l.Warn("password_reset_failed", "status", statusHint(err), "reason", Kind(err))
		return nil, err
	}
	if claims.Fingerprint != tokens.Fingerprint(account.PasswordHash) {
		l.Warn("password_reset_failed", "status", 401, "reason", "credential changed since issue", "user_id", id.String())
		return nil, ErrInvalidToken
	}

	credential, err := s.hasher.Hash(newPassword)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) || errors.Is(err, hash.ErrEmptyPassword) {
			return nil, validationErr(err.Error())
		}
		l.Error("password_reset_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, unavailable("reset password: hash", err)
	}

	replaced, err := s.store.ReplaceCredential(ctx, id, account.PasswordHash, credential)
	if err != nil {
		err = storeErr("reset password: save", err)
		l.Error("password_reset_failed", "status", statusHint(err), "error", err)
		return nil, err
	}
	if !replaced {
		l.Warn("password_reset_failed", "status", 401, "reason", "credential changed concurrently", "user_id", id.String())
		return nil, ErrInvalidToken
	}

	l.Info("password_reset_successful", "user_id", id.String())
	return &transport.MessageResult{Message: resetDoneMessage}, nil
}
