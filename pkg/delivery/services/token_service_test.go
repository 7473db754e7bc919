package services_test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asset := f.upload(t, "secret", false)

	token, err := f.tokens.IssueToken(ctx, asset.ID, 3600)
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(time.Hour), token.ExpiresAt)

	raw, err := base64.RawURLEncoding.DecodeString(token.Token)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	got, err := f.tokens.ValidateToken(ctx, token.Token)
	require.NoError(t, err)
	assert.Equal(t, asset.ID, got.ID)

	f.now = f.now.Add(time.Hour)
	_, err = f.tokens.ValidateToken(ctx, token.Token)
	assert.ErrorIs(t, err, services.ErrInvalidToken, "expiry is exclusive")
}

func TestToken_NegativeTTLIsExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asset := f.upload(t, "secret", false)

	token, err := f.tokens.IssueToken(ctx, asset.ID, -100)
	require.NoError(t, err)
	_, err = f.tokens.ValidateToken(ctx, token.Token)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestToken_TTLBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asset := f.upload(t, "secret", false)

	for _, ttl := range []int{10_000_000_000, -10_000_000_000, services.MaxTokenTTLSeconds + 1, -services.MaxTokenTTLSeconds - 1} {
		token, err := f.tokens.IssueToken(ctx, asset.ID, ttl)
		assert.ErrorIs(t, err, services.ErrInvalidTTL, "ttl %d", ttl)
		assert.Nil(t, token)
	}

	token, err := f.tokens.IssueToken(ctx, asset.ID, services.MaxTokenTTLSeconds)
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(time.Duration(services.MaxTokenTTLSeconds)*time.Second), token.ExpiresAt)
	assert.True(t, token.ExpiresAt.After(f.now))

	got, err := f.tokens.ValidateToken(ctx, token.Token)
	require.NoError(t, err)
	assert.Equal(t, asset.ID, got.ID)
}

func TestToken_Revoked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asset := f.upload(t, "secret", false)

	token, err := f.tokens.IssueToken(ctx, asset.ID, 3600)
	require.NoError(t, err)
	require.NoError(t, f.tokens.RevokeToken(ctx, token.Token))

	_, err = f.tokens.ValidateToken(ctx, token.Token)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	assert.ErrorIs(t, f.tokens.RevokeToken(ctx, "unknown"), services.ErrTokenNotFound)
}

func TestToken_Undifferentiated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asset := f.upload(t, "secret", false)

	expired, err := f.tokens.IssueToken(ctx, asset.ID, -1)
	require.NoError(t, err)

	_, errUnknown := f.tokens.ValidateToken(ctx, "unknown")
	_, errEmpty := f.tokens.ValidateToken(ctx, "")
	_, errExpired := f.tokens.ValidateToken(ctx, expired.Token)
	assert.Equal(t, errUnknown, errEmpty)
	assert.Equal(t, errUnknown, errExpired)
	assert.ErrorIs(t, errUnknown, services.ErrInvalidToken)
}

func TestToken_IssueForUnknownAsset(t *testing.T) {
	f := newFixture(t)
	_, err := f.tokens.IssueToken(context.Background(), "missing", 60)
	assert.ErrorIs(t, err, services.ErrAssetNotFound)
}

func TestToken_UniqueValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asset := f.upload(t, "secret", false)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		token, err := f.tokens.IssueToken(ctx, asset.ID, 60)
		require.NoError(t, err)
		assert.False(t, seen[token.Token])
		seen[token.Token] = true
	}
}

func TestSweepTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asset := f.upload(t, "secret", false)

	live, err := f.tokens.IssueToken(ctx, asset.ID, 3600)
	require.NoError(t, err)
	_, err = f.tokens.IssueToken(ctx, asset.ID, -10)
	require.NoError(t, err)
	revoked, err := f.tokens.IssueToken(ctx, asset.ID, 3600)
	require.NoError(t, err)
	require.NoError(t, f.tokens.RevokeToken(ctx, revoked.Token))

	n, err := f.tokens.SweepTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = f.tokens.ValidateToken(ctx, live.Token)
	assert.NoError(t, err)
	assert.Equal(t, 3600, f.tokens.DefaultTTLSeconds())
}
