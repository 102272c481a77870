package auth

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/domain"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/repository"
	"github.com/smallbiznis/invoicedesk/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	assert.True(t, VerifyPassword("s3cret", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("s3cret", "$argon2id$v=19$bogus$x$y"))
	assert.False(t, VerifyPassword("s3cret", ""))
}

func newTestService(t *testing.T) (*Service, *Issuer) {
	t.Helper()
	db := dbtest.New(t, domain.Models()...)
	repo := repository.Provide()
	ctx := context.Background()

	for _, u := range []struct {
		id    int64
		name  string
		super bool
	}{{1, "admin", true}, {2, "clerk", false}} {
		hash, err := HashPassword("pw")
		require.NoError(t, err)
		now := time.Now().UTC()
		require.NoError(t, repo.InsertUser(ctx, db, &domain.User{
			ID: snowflake.ID(u.id), Username: u.name, PasswordHash: hash, IsSuperuser: u.super,
			CreatedAt: now, UpdatedAt: now,
		}))
	}

	issuer, err := NewIssuer("test-secret", time.Minute, time.Hour)
	require.NoError(t, err)
	svc := NewService(Params{DB: db, Log: zap.NewNop(), Repo: repo, Issuer: issuer}).(*Service)
	return svc, issuer
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "admin", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)

	principal, err := svc.Authenticate(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "admin", principal.Username)
	assert.Equal(t, "1", principal.UserID)

	_, err = svc.Authenticate(ctx, pair.Refresh)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = svc.Login(ctx, "admin", "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "ghost", "pw")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "clerk", "pw")
	assert.ErrorIs(t, err, domain.ErrNotSuperuser)
}

func TestRefresh(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "admin", "pw")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Access)

	_, err = svc.Refresh(ctx, pair.Access)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	svc, issuer := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "admin", "pw")
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.Authenticate(ctx, pair.Access)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer("", time.Minute, time.Hour)
	assert.Error(t, err)
}
