package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"residora/internal/residence/models"
	id "residora/pkg/domain"
	"residora/pkg/platform/sentinel"
)

func newMembership(t *testing.T, residenceID id.ResidenceID, apartment string, verified bool) *models.Membership {
	t.Helper()
	m, err := models.NewMembership(id.NewMembershipID(), id.NewAccountID(), residenceID, apartment, verified, time.Now())
	require.NoError(t, err)
	return m
}

func TestMembershipCreateConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryMembershipStore()
	residenceID := id.NewResidenceID()

	require.NoError(t, store.Create(ctx, newMembership(t, residenceID, "5", false)))

	t.Run("apartment reserved by pending membership", func(t *testing.T) {
		err := store.Create(ctx, newMembership(t, residenceID, "5", true))
		assert.True(t, errors.Is(err, sentinel.ErrConflict))
	})

	t.Run("same apartment in another residence is fine", func(t *testing.T) {
		assert.NoError(t, store.Create(ctx, newMembership(t, id.NewResidenceID(), "5", true)))
	})

	t.Run("account may hold a second apartment", func(t *testing.T) {
		first := newMembership(t, residenceID, "7", true)
		require.NoError(t, store.Create(ctx, first))
		second, err := models.NewMembership(id.NewMembershipID(), first.AccountID, residenceID, "8", true, time.Now())
		require.NoError(t, err)
		assert.NoError(t, store.Create(ctx, second))
	})

	t.Run("account cannot hold the same apartment twice", func(t *testing.T) {
		first := newMembership(t, residenceID, "9", true)
		require.NoError(t, store.Create(ctx, first))
		dup, err := models.NewMembership(id.NewMembershipID(), first.AccountID, residenceID, "9", true, time.Now())
		require.NoError(t, err)
		assert.True(t, errors.Is(store.Create(ctx, dup), sentinel.ErrConflict))
	})

	t.Run("guard apartment allows multiple occupants", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, newMembership(t, residenceID, models.GuardApartment, true)))
		assert.NoError(t, store.Create(ctx, newMembership(t, residenceID, models.GuardApartment, true)))
	})
}

func TestApartmentOccupiedScopes(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryMembershipStore()
	residenceID := id.NewResidenceID()

	require.NoError(t, store.Create(ctx, newMembership(t, residenceID, "12", false)))

	verifiedOnly, err := store.ApartmentOccupied(ctx, residenceID, "12", false)
	require.NoError(t, err)
	assert.False(t, verifiedOnly, "pending occupant is invisible to the verified-only scope")

	withPending, err := store.ApartmentOccupied(ctx, residenceID, "12", true)
	require.NoError(t, err)
	assert.True(t, withPending)

	caseInsensitive, err := store.ApartmentOccupied(ctx, residenceID, "12 ", true)
	require.NoError(t, err)
	assert.False(t, caseInsensitive, "labels match exactly apart from letter case")
}
