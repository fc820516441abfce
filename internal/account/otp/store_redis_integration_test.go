//go:build integration

package otp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"residora/internal/account/otp"
	id "residora/pkg/domain"
	"residora/pkg/platform/sentinel"
	"residora/pkg/testutil/containers"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := otp.NewRedisStore(rc.Client)
	ctx := context.Background()
	accountID := id.NewAccountID()

	require.NoError(t, store.Save(ctx, accountID, "hash-1", time.Minute))
	hash, err := store.Get(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "hash-1", hash)

	// Save replaces any pending hash.
	require.NoError(t, store.Save(ctx, accountID, "hash-2", time.Minute))
	hash, err = store.Get(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "hash-2", hash)

	require.NoError(t, store.Delete(ctx, accountID))
	_, err = store.Get(ctx, accountID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, accountID), sentinel.ErrNotFound)
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := otp.NewRedisStore(rc.Client)
	ctx := context.Background()
	accountID := id.NewAccountID()

	require.NoError(t, store.Save(ctx, accountID, "hash", 500*time.Millisecond))
	_, err := store.Get(ctx, accountID)
	require.NoError(t, err)

	time.Sleep(time.Second)
	_, err = store.Get(ctx, accountID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestIssuerRedeemThroughRedis(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	issuer := otp.NewIssuer(otp.NewRedisStore(rc.Client), 15*time.Minute)
	ctx := context.Background()
	accountID := id.NewAccountID()

	code, err := issuer.Issue(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}
	assert.ErrorIs(t, issuer.Redeem(ctx, accountID, wrong), sentinel.ErrInvalidState)
	require.NoError(t, issuer.Redeem(ctx, accountID, code))
	// Single use.
	assert.ErrorIs(t, issuer.Redeem(ctx, accountID, code), sentinel.ErrExpired)
}
