package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/identity/internal/hash"
	"github.com/Skotchmaster/identity/internal/logging"
	"github.com/Skotchmaster/identity/internal/logincode"
	"github.com/Skotchmaster/identity/internal/metrics"
	"github.com/Skotchmaster/identity/internal/models"
	"github.com/Skotchmaster/identity/internal/notify"
	"github.com/Skotchmaster/identity/internal/repo"
	"github.com/Skotchmaster/identity/internal/tokens"
	"github.com/Skotchmaster/identity/internal/transport"
)

const (
	DefaultLoginCodeTTL  = 5 * time.Minute
	DefaultNotifyTimeout = 5 * time.Second
)

// Store is the persistence port. Implementations report repo.ErrNotFound and
// repo.ErrDuplicate; any other error is treated as an infrastructure failure.
type Store interface {
	FindByEmailOrUsername(ctx context.Context, email, username string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	Create(ctx context.Context, a *models.Account) error
	Save(ctx context.Context, a *models.Account, fields ...string) error
	ConsumeLoginCode(ctx context.Context, id uuid.UUID, code string) (bool, error)
	ReplaceCredential(ctx context.Context, id uuid.UUID, oldHash, newHash string) (bool, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, credential string) bool
}

type Options struct {
	FrontendURL            string
	LoginCodeTTL           time.Duration
	ConcealUnknownAccounts bool
	NotifyTimeout          time.Duration

	Now          func() time.Time
	GenerateCode func() (string, error)
}

type AuthService struct {
	store    Store
	hasher   PasswordHasher
	tokens   *tokens.Issuer
	notifier notify.Notifier
	opts     Options
}

func New(store Store, hasher PasswordHasher, issuer *tokens.Issuer, notifier notify.Notifier, opts Options) *AuthService {
	if opts.LoginCodeTTL <= 0 {
		opts.LoginCodeTTL = DefaultLoginCodeTTL
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = DefaultNotifyTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.GenerateCode == nil {
		opts.GenerateCode = logincode.Generate
	}
	opts.FrontendURL = strings.TrimRight(opts.FrontendURL, "/")
	if hasher == nil {
		hasher = hash.NewHasher()
	}
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &AuthService{
		store:    store,
		hasher:   hasher,
		tokens:   issuer,
		notifier: notifier,
		opts:     opts,
	}
}

func (s *AuthService) Register(ctx context.Context, username, email, password, role string) (res *transport.RegisterResult, err error) {
	defer s.observe("register", time.Now(), &err)
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		l.Warn("register_failed", "status", 400, "reason", "missing fields")
		return nil, validationErr("username, email and password are required")
	}
	r, ok := models.ParseRole(role)
	if !ok {
		l.Warn("register_failed", "status", 400, "reason", "unknown role", "role", role)
		return nil, validationErr("unknown role")
	}

	_, err = s.store.FindByEmailOrUsername(ctx, email, username)
	switch {
	case err == nil:
		l.Warn("register_failed", "status", 409, "reason", "user already exist")
		return nil, ErrDuplicateIdentity
	case !errors.Is(err, repo.ErrNotFound):
		l.Error("register_failed", "status", 503, "error", err)
		return nil, unavailable("register: lookup", err)
	}

	credential, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) || errors.Is(err, hash.ErrEmptyPassword) {
			l.Warn("register_failed", "status", 400, "reason", err.Error())
			return nil, validationErr(err.Error())
		}
		l.Error("register_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, unavailable("register: hash", err)
	}

	account := &models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: credential,
		Role:         r,
		IsActive:     true,
	}
	if err := s.store.Create(ctx, account); err != nil {
		err = storeErr("register: create", err)
		if errors.Is(err, ErrDuplicateIdentity) {
			l.Warn("register_failed", "status", 409, "reason", "concurrent insert")
		} else {
			l.Error("register_failed", "status", 503, "error", err)
		}
		return nil, err
	}

	s.send(ctx, l, notify.RegistrationMessage(account.Email, account.Username))
	l.Info("register_successful", "user_id", account.ID.String())

	return &transport.RegisterResult{
		Message: "User registered successfully",
		User:    publicView(account, false),
	}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (res *transport.LoginResult, err error) {
	defer s.observe("login", time.Now(), &err)
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		l.Warn("login_failed", "status", 400, "reason", "missing fields")
		return nil, validationErr("email and password are required")
	}

	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		err = storeErr("login: lookup", err)
		l.Warn("login_failed", "status", statusHint(err), "reason", Kind(err))
		return nil, err
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		l.Warn("login_failed", "status", 401, "reason", "invalid password", "user_id", account.ID.String())
		return nil, ErrInvalidCredential
	}

	res, err = s.issuePair(account, false)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	l.Info("login_successful", "user_id", account.ID.String())
	return res, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (res *transport.RefreshResult, err error) {
	defer s.observe("refresh", time.Now(), &err)
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	tok, err := s.tokens.RefreshAccessToken(refreshToken)
	if err != nil {
		if errors.Is(err, tokens.ErrInvalidToken) {
			l.Warn("refresh_failed", "status", 401, "reason", "invalid refresh token")
			return nil, ErrInvalidToken
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, unavailable("refresh: sign", err)
	}
	return &transport.RefreshResult{AccessToken: tok.Value}, nil
}

// Authenticate resolves an access token to the identity it was issued for.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*tokens.Payload, error) {
	claims, err := s.tokens.Validate(tokens.Access, accessToken)
	if err != nil {
		logging.FromContext(ctx).Debug("authenticate_failed", "reason", "invalid access token")
		return nil, ErrInvalidToken
	}
	p := claims.Payload
	return &p, nil
}

func (s *AuthService) issuePair(a *models.Account, withRole bool) (*transport.LoginResult, error) {
	payload := payloadOf(a)
	access, err := s.tokens.Issue(tokens.Access, payload)
	if err != nil {
		return nil, unavailable("issue access token", err)
	}
	refresh, err := s.tokens.Issue(tokens.Refresh, payload)
	if err != nil {
		return nil, unavailable("issue refresh token", err)
	}
	return &transport.LoginResult{
		AccessToken:  access.Value,
		RefreshToken: refresh.Value,
		User:         publicView(a, withRole),
	}, nil
}

// send delivers a notification without letting its failure reach the caller.
func (s *AuthService) send(ctx context.Context, l *slog.Logger, msg notify.Message) {
	sendCtx, cancel := context.WithTimeout(ctx, s.opts.NotifyTimeout)
	defer cancel()

	err := s.notifier.Send(sendCtx, msg)
	metrics.ObserveNotification(string(msg.Kind), err)
	if err != nil {
		l.Error("notification_failed", "kind", string(msg.Kind), "error", err)
	}
}

func (s *AuthService) observe(op string, start time.Time, err *error) {
	metrics.ObserveOperation(op, Kind(*err), time.Since(start))
}

func payloadOf(a *models.Account) tokens.Payload {
	return tokens.Payload{
		UserID:   a.ID.String(),
		Username: a.Username,
		Email:    a.Email,
		Role:     string(a.Role),
	}
}

func publicView(a *models.Account, withRole bool) transport.UserView {
	v := transport.UserView{
		ID:       a.ID.String(),
		Username: a.Username,
		Email:    a.Email,
	}
	if withRole {
		v.Role = string(a.Role)
	}
	return v
}

func statusHint(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrUnavailable):
		return 503
	}
	return 500
}
