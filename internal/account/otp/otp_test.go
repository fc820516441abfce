package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "residora/pkg/domain"
	"residora/pkg/platform/sentinel"
	"residora/pkg/requestcontext"
)

func TestIssueAndRedeem(t *testing.T) {
	issuer := NewIssuer(NewInMemoryStore(), 15*time.Minute)
	accountID := id.NewAccountID()
	ctx := context.Background()

	code, err := issuer.Issue(ctx, accountID)
	require.NoError(t, err)
	assert.Len(t, code, 6)

	require.NoError(t, issuer.Redeem(ctx, accountID, code))

	// A code is single use.
	err = issuer.Redeem(ctx, accountID, code)
	assert.True(t, errors.Is(err, sentinel.ErrExpired))
}

func TestRedeemWrongCode(t *testing.T) {
	issuer := NewIssuer(NewInMemoryStore(), 15*time.Minute)
	accountID := id.NewAccountID()
	ctx := context.Background()

	code, err := issuer.Issue(ctx, accountID)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	err = issuer.Redeem(ctx, accountID, wrong)
	assert.True(t, errors.Is(err, sentinel.ErrInvalidState))

	// The pending code survives a failed attempt.
	require.NoError(t, issuer.Redeem(ctx, accountID, code))
}

func TestRedeemExpiredCode(t *testing.T) {
	issuer := NewIssuer(NewInMemoryStore(), 15*time.Minute)
	accountID := id.NewAccountID()

	issued := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), issued)
	code, err := issuer.Issue(ctx, accountID)
	require.NoError(t, err)

	later := requestcontext.WithTime(context.Background(), issued.Add(16*time.Minute))
	err = issuer.Redeem(later, accountID, code)
	assert.True(t, errors.Is(err, sentinel.ErrExpired))
}

func TestReissueReplacesPendingCode(t *testing.T) {
	issuer := NewIssuer(NewInMemoryStore(), 15*time.Minute)
	accountID := id.NewAccountID()
	ctx := context.Background()

	first, err := issuer.Issue(ctx, accountID)
	require.NoError(t, err)
	second, err := issuer.Issue(ctx, accountID)
	require.NoError(t, err)

	if first != second {
		err = issuer.Redeem(ctx, accountID, first)
		assert.True(t, errors.Is(err, sentinel.ErrInvalidState))
	}
	require.NoError(t, issuer.Redeem(ctx, accountID, second))
}
