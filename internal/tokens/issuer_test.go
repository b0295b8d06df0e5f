package tokens

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		AccessSecret:    []byte("access-secret"),
		RefreshSecret:   []byte("refresh-secret"),
		TemporarySecret: []byte("temporary-secret"),
	}
}

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	iss, err := NewIssuer(testConfig())
	require.NoError(t, err)
	return iss
}

var alice = Payload{UserID: "u-1", Username: "alice", Email: "a@x.io", Role: "patient"}

func TestIssuer_RoundTrip(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer(t)
	for _, class := range []Class{Access, Refresh, Temporary} {
		class := class
		t.Run(string(class), func(t *testing.T) {
			t.Parallel()

			tok, err := iss.Issue(class, alice)
			require.NoError(t, err)
			require.NotEmpty(t, tok.Value)

			claims, err := iss.Validate(class, tok.Value)
			require.NoError(t, err)
			assert.Equal(t, alice, claims.Payload)
			assert.Equal(t, class, claims.Type)
			assert.Equal(t, PayloadVersion, claims.Version)
			assert.NotEmpty(t, claims.ID)
			assert.WithinDuration(t, tok.ExpiresAt, claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestIssuer_DefaultTTLs(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer(t)
	assert.Equal(t, 20*time.Minute, iss.TTL(Access))
	assert.Equal(t, 48*time.Hour, iss.TTL(Refresh))
	assert.Equal(t, 10*time.Minute, iss.TTL(Temporary))
}

func TestIssuer_CrossClassRejected(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer(t)
	classes := []Class{Access, Refresh, Temporary}
	for _, issued := range classes {
		tok, err := iss.Issue(issued, alice)
		require.NoError(t, err)
		for _, checked := range classes {
			if checked == issued {
				continue
			}
			_, err := iss.Validate(checked, tok.Value)
			assert.ErrorIs(t, err, ErrInvalidToken, "%s token accepted as %s", issued, checked)
		}
	}
}

func TestIssuer_Expiry(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	iss := newTestIssuer(t).WithClock(func() time.Time { return now })

	tok, err := iss.Issue(Access, alice)
	require.NoError(t, err)

	now = base.Add(20*time.Minute - time.Second)
	_, err = iss.Validate(Access, tok.Value)
	require.NoError(t, err)

	now = base.Add(20 * time.Minute)
	_, err = iss.Validate(Access, tok.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsForeignAndMalformedTokens(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer(t)
	tok, err := iss.Issue(Access, alice)
	require.NoError(t, err)

	parts := strings.Split(tok.Value, ".")
	require.Len(t, parts, 3)

	otherCfg := testConfig()
	otherCfg.AccessSecret = []byte("someone-else")
	other, err := NewIssuer(otherCfg)
	require.NoError(t, err)
	foreign, err := other.Issue(Access, alice)
	require.NoError(t, err)

	noneTok, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Payload: alice, Version: PayloadVersion, Type: Access,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Payload: alice, Version: PayloadVersion, Type: Access,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Payload: alice, Version: PayloadVersion, Type: Access,
	}).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "tampered signature", token: parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))},
		{name: "other secret", token: foreign.Value},
		{name: "alg none", token: noneTok},
		{name: "alg HS512", token: hs512},
		{name: "missing exp", token: noExp},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := iss.Validate(Access, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestIssuer_TemporaryFingerprint(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer(t)
	fp := Fingerprint("$2a$10$credential")

	tok, err := iss.IssueTemporary(alice, fp)
	require.NoError(t, err)

	claims, err := iss.Validate(Temporary, tok.Value)
	require.NoError(t, err)
	assert.Equal(t, fp, claims.Fingerprint)
	assert.NotEqual(t, fp, Fingerprint("$2a$10$other"))
}

func TestIssuer_RefreshAccessToken(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer(t)
	refresh, err := iss.Issue(Refresh, alice)
	require.NoError(t, err)

	access, err := iss.RefreshAccessToken(refresh.Value)
	require.NoError(t, err)
	claims, err := iss.Validate(Access, access.Value)
	require.NoError(t, err)
	assert.Equal(t, alice, claims.Payload)

	accessTok, err := iss.Issue(Access, alice)
	require.NoError(t, err)
	_, err = iss.RefreshAccessToken(accessTok.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewIssuer_SecretValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "missing access", mutate: func(c *Config) { c.AccessSecret = nil }, wantErr: ErrSecretRequired},
		{name: "missing refresh", mutate: func(c *Config) { c.RefreshSecret = nil }, wantErr: ErrSecretRequired},
		{name: "missing temporary", mutate: func(c *Config) { c.TemporarySecret = []byte{} }, wantErr: ErrSecretRequired},
		{name: "access equals refresh", mutate: func(c *Config) { c.RefreshSecret = c.AccessSecret }, wantErr: ErrSecretReused},
		{name: "refresh equals temporary", mutate: func(c *Config) { c.TemporarySecret = []byte("refresh-secret") }, wantErr: ErrSecretReused},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			tt.mutate(&cfg)
			iss, err := NewIssuer(cfg)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, iss)
		})
	}
}
