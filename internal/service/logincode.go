package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/Skotchmaster/identity/internal/logging"
	"github.com/Skotchmaster/identity/internal/notify"
	"github.com/Skotchmaster/identity/internal/repo"
	"github.com/Skotchmaster/identity/internal/transport"
)

const loginCodeSentMessage = "Verification code sent to your email."

func (s *AuthService) RequestLoginCode(ctx context.Context, email string) (res *transport.MessageResult, err error) {
	defer s.observe("request_login_code", time.Now(), &err)
	l := logging.FromContext(ctx).With("svc", "auth.request_login_code")

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, validationErr("email is required")
	}

	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) && s.opts.ConcealUnknownAccounts {
			l.Info("login_code_skipped", "reason", "unknown email")
			return &transport.MessageResult{Message: loginCodeSentMessage}, nil
		}
		err = storeErr("request login code: lookup", err)
		l.Warn("login_code_failed", "status", statusHint(err), "reason", Kind(err))
		return nil, err
	}

	code, err := s.opts.GenerateCode()
	if err != nil {
		l.Error("login_code_failed", "status", 500, "error", err)
		return nil, unavailable("request login code: generate", err)
	}
	expiresAt := s.opts.Now().Add(s.opts.LoginCodeTTL).UTC()
	account.LoginCode = &code
	account.LoginCodeExpiresAt = &expiresAt

	if err := s.store.Save(ctx, account, "login_code", "login_code_expires_at"); err != nil {
		err = storeErr("request login code: save", err)
		l.Error("login_code_failed", "status", statusHint(err), "error", err)
		return nil, err
	}

	s.send(ctx, l, notify.LoginCodeMessage(account.Email, account.Username, code, s.opts.LoginCodeTTL))
	l.Info("login_code_issued", "user_id", account.ID.String(), "expires_at", expiresAt)

	return &transport.MessageResult{Message: loginCodeSentMessage}, nil
}

func (s *AuthService) VerifyLoginCode(ctx context.Context, email, code string) (res *transport.LoginResult, err error) {
	defer s.observe("verify_login_code", time.Now(), &err)
	l := logging.FromContext(ctx).With("svc", "auth.verify_login_code")

	email, code = strings.TrimSpace(email), strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, validationErr("email and code are required")
	}

	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		err = storeErr("verify login code: lookup", err)
		l.Warn("verify_code_failed", "status", statusHint(err), "reason", Kind(err))
		return nil, err
	}

	if !account.HasLoginCode() {
		l.Warn("verify_code_failed", "status", 401, "reason", "no code outstanding", "user_id", account.ID.String())
		return nil, ErrInvalidOrExpiredCode
	}
	if subtle.ConstantTimeCompare([]byte(*account.LoginCode), []byte(code)) != 1 {
		l.Warn("verify_code_failed", "status", 401, "reason", "code mismatch", "user_id", account.ID.String())
		return nil, ErrInvalidOrExpiredCode
	}
	if s.opts.Now().After(*account.LoginCodeExpiresAt) {
		l.Warn("verify_code_failed", "status", 401, "reason", "code expired", "user_id", account.ID.String())
		return nil, ErrInvalidOrExpiredCode
	}

	consumed, err := s.store.ConsumeLoginCode(ctx, account.ID, code)
	if err != nil {
		err = storeErr("verify login code: consume", err)
		l.Error("verify_code_failed", "status", statusHint(err), "error", err)
		return nil, err
	}
	if !consumed {
		l.Warn("verify_code_failed", "status", 401, "reason", "code already used", "user_id", account.ID.String())
		return nil, ErrInvalidOrExpiredCode
	}
	account.LoginCode, account.LoginCodeExpiresAt = nil, nil

	res, err = s.issuePair(account, true)
	if err != nil {
		l.Error("verify_code_failed", "status", 500, "error", err)
		return nil, err
	}
	l.Info("login_successful", "user_id", account.ID.String(), "method", "login_code")
	return res, nil
}
