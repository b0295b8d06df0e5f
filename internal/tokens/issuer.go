package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL    = 20 * time.Minute
	DefaultRefreshTTL   = 48 * time.Hour
	DefaultTemporaryTTL = 10 * time.Minute
)

// ErrInvalidToken covers malformed, tampered, expired and wrong-class tokens alike.
var ErrInvalidToken = errors.New("invalid or expired token")

var (
	ErrSecretRequired = errors.New("token secret is required")
	ErrSecretReused   = errors.New("token secrets must differ between classes")
)

type Config struct {
	AccessSecret    []byte
	RefreshSecret   []byte
	TemporarySecret []byte

	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	TemporaryTTL time.Duration

	// Issuer is written to the "iss" claim when set.
	Issuer string
}

type signingKey struct {
	secret []byte
	ttl    time.Duration
}

type Issuer struct {
	keys   map[Class]signingKey
	issuer string
	now    func() time.Time
}

type Token struct {
	Value     string
	ExpiresAt time.Time
}

func NewIssuer(cfg Config) (*Issuer, error) {
	secrets := map[Class][]byte{
		Access:    cfg.AccessSecret,
		Refresh:   cfg.RefreshSecret,
		Temporary: cfg.TemporarySecret,
	}
	for class, secret := range secrets {
		if len(secret) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrSecretRequired, class)
		}
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) ||
		string(cfg.AccessSecret) == string(cfg.TemporarySecret) ||
		string(cfg.RefreshSecret) == string(cfg.TemporarySecret) {
		return nil, ErrSecretReused
	}

	return &Issuer{
		keys: map[Class]signingKey{
			Access:    {secret: cfg.AccessSecret, ttl: orDefault(cfg.AccessTTL, DefaultAccessTTL)},
			Refresh:   {secret: cfg.RefreshSecret, ttl: orDefault(cfg.RefreshTTL, DefaultRefreshTTL)},
			Temporary: {secret: cfg.TemporarySecret, ttl: orDefault(cfg.TemporaryTTL, DefaultTemporaryTTL)},
		},
		issuer: cfg.Issuer,
		now:    time.Now,
	}, nil
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

func (i *Issuer) TTL(class Class) time.Duration {
	return i.keys[class].ttl
}

func (i *Issuer) Issue(class Class, payload Payload) (Token, error) {
	return i.issue(class, payload, "")
}

// IssueTemporary binds a temporary token to the fingerprint of the credential
// it was issued against.
func (i *Issuer) IssueTemporary(payload Payload, fingerprint string) (Token, error) {
	return i.issue(Temporary, payload, fingerprint)
}

func (i *Issuer) issue(class Class, payload Payload, fingerprint string) (Token, error) {
	key, ok := i.keys[class]
	if !ok {
		return Token{}, fmt.Errorf("unknown token class %q", class)
	}

	now := i.now()
	exp := now.Add(key.ttl)
	claims := Claims{
		Payload:     payload,
		Version:     PayloadVersion,
		Type:        class,
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   payload.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign %s token: %w", class, err)
	}

	return Token{Value: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (i *Issuer) Validate(class Class, tokenStr string) (*Claims, error) {
	if !class.valid() || tokenStr == "" {
		return nil, ErrInvalidToken
	}
	key := i.keys[class]

	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return key.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != class || claims.Version != PayloadVersion || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

func (i *Issuer) RefreshAccessToken(refreshToken string) (Token, error) {
	claims, err := i.Validate(Refresh, refreshToken)
	if err != nil {
		return Token{}, err
	}
	return i.Issue(Access, claims.Payload)
}

func orDefault(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
