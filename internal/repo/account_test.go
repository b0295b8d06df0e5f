package repo

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/identity/internal/db/dbtest"
	"github.com/Skotchmaster/identity/internal/models"
)

func newAccount(username, email string) *models.Account {
	return &models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$04$placeholder",
		IsActive:     true,
	}
}

func TestGormRepo_CreateAndFind(t *testing.T) {
	t.Parallel()

	r := New(dbtest.Open(t))
	ctx := context.Background()

	a := newAccount("alice", "a@x.io")
	require.NoError(t, r.Create(ctx, a))
	require.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, models.RolePatient, a.Role)

	byEmail, err := r.FindByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byEmail.ID)
	assert.True(t, byEmail.IsActive)
	assert.False(t, byEmail.HasLoginCode())

	byID, err := r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	for _, q := range []struct{ email, username string }{
		{"a@x.io", "nobody"},
		{"nobody@x.io", "alice"},
	} {
		found, err := r.FindByEmailOrUsername(ctx, q.email, q.username)
		require.NoError(t, err)
		assert.Equal(t, a.ID, found.ID)
	}
}

func TestGormRepo_NotFound(t *testing.T) {
	t.Parallel()

	r := New(dbtest.Open(t))
	ctx := context.Background()

	_, err := r.FindByEmail(ctx, "missing@x.io")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.FindByEmailOrUsername(ctx, "missing@x.io", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormRepo_Create_Duplicate(t *testing.T) {
	t.Parallel()

	r := New(dbtest.Open(t))
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, newAccount("alice", "a@x.io")))

	tests := []struct {
		name     string
		username string
		email    string
	}{
		{name: "same email", username: "alice2", email: "a@x.io"},
		{name: "same username", username: "alice", email: "other@x.io"},
	}
	for _, tt := range tests {
		err := r.Create(ctx, newAccount(tt.username, tt.email))
		assert.ErrorIs(t, err, ErrDuplicate, tt.name)
	}
}

func TestGormRepo_Save_Partial(t *testing.T) {
	t.Parallel()

	r := New(dbtest.Open(t))
	ctx := context.Background()
	a := newAccount("alice", "a@x.io")
	require.NoError(t, r.Create(ctx, a))

	a.PasswordHash = "$2a$04$updated"
	a.Username = "not-persisted"
	require.NoError(t, r.Save(ctx, a, "password_hash"))

	got, err := r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$04$updated", got.PasswordHash)
	assert.Equal(t, "alice", got.Username)
}

func TestGormRepo_Save_Full(t *testing.T) {
	t.Parallel()

	r := New(dbtest.Open(t))
	ctx := context.Background()
	a := newAccount("alice", "a@x.io")
	require.NoError(t, r.Create(ctx, a))

	code := "123456"
	exp := time.Now().Add(5 * time.Minute).UTC()
	a.LoginCode = &code
	a.LoginCodeExpiresAt = &exp
	require.NoError(t, r.Save(ctx, a))

	got, err := r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.HasLoginCode())
	assert.Equal(t, code, *got.LoginCode)
	assert.WithinDuration(t, exp, *got.LoginCodeExpiresAt, time.Second)
}

func TestGormRepo_Save_UnknownAccount(t *testing.T) {
	t.Parallel()

	r := New(dbtest.Open(t))
	ghost := newAccount("ghost", "g@x.io")
	ghost.ID = uuid.New()

	err := r.Save(context.Background(), ghost, "password_hash")
	assert.ErrorIs(t, err, ErrNotFound)
}

func withCode(t *testing.T, r *GormRepo, code string) *models.Account {
	t.Helper()
	ctx := context.Background()
	a := newAccount("alice", "a@x.io")
	require.NoError(t, r.Create(ctx, a))
	exp := time.Now().Add(5 * time.Minute).UTC()
	a.LoginCode = &code
	a.LoginCodeExpiresAt = &exp
	require.NoError(t, r.Save(ctx, a, "login_code", "login_code_expires_at"))
	return a
}

func TestGormRepo_ConsumeLoginCode(t *testing.T) {
	t.Parallel()

	r := New(dbtest.Open(t))
	ctx := context.Background()
	a := withCode(t, r, "042042")

	ok, err := r.ConsumeLoginCode(ctx, a.ID, "999999")
	require.NoError(t, err)
	assert.False(t, ok, "mismatched code must not clear state")

	got, err := r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.HasLoginCode())

	ok, err = r.ConsumeLoginCode(ctx, a.ID, "042042")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LoginCode)
	assert.Nil(t, got.LoginCodeExpiresAt)

	ok, err = r.ConsumeLoginCode(ctx, a.ID, "042042")
	require.NoError(t, err)
	assert.False(t, ok, "a code is single-use")
}

func TestGormRepo_ConsumeLoginCode_Concurrent(t *testing.T) {
	t.Parallel()

	r := New(dbtest.Open(t))
	a := withCode(t, r, "314159")

	const workers = 8
	var (
		wg      sync.WaitGroup
		winners atomic.Int32
		start   = make(chan struct{})
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := r.ConsumeLoginCode(context.Background(), a.ID, "314159")
			if err == nil && ok {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestGormRepo_ReplaceCredential(t *testing.T) {
	t.Parallel()

	r := New(dbtest.Open(t))
	ctx := context.Background()
	a := newAccount("alice", "a@x.io")
	require.NoError(t, r.Create(ctx, a))

	ok, err := r.ReplaceCredential(ctx, a.ID, "$2a$04$stale", "$2a$04$next")
	require.NoError(t, err)
	assert.False(t, ok, "a stale hash must not overwrite")

	ok, err = r.ReplaceCredential(ctx, a.ID, a.PasswordHash, "$2a$04$next")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$04$next", got.PasswordHash)

	ok, err = r.ReplaceCredential(ctx, uuid.New(), "$2a$04$next", "$2a$04$other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGormRepo_ReplaceCredential_Concurrent(t *testing.T) {
	t.Parallel()

	r := New(dbtest.Open(t))
	a := newAccount("alice", "a@x.io")
	require.NoError(t, r.Create(context.Background(), a))

	const workers = 8
	var (
		wg      sync.WaitGroup
		winners atomic.Int32
		start   = make(chan struct{})
	)
	for i := 0; i < workers; i++ {
		next := "$2a$04$next-" + string(rune('a'+i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := r.ReplaceCredential(context.Background(), a.ID, a.PasswordHash, next)
			if err == nil && ok {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestGormRepo_CanceledContext(t *testing.T) {
	t.Parallel()

	r := New(dbtest.Open(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.FindByEmail(ctx, "a@x.io")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
