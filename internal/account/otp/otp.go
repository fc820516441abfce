// Package otp issues and redeems the one-time sign-in codes sent to newly
// onboarded residents. Codes are stored bcrypt-hashed with a TTL; plaintext
// only ever travels in the notification email.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	id "residora/pkg/domain"
	"residora/pkg/platform/sentinel"
)

const codeDigits = 6

// Store persists hashed codes keyed by account id. Save overwrites any code
// already pending for the account.
type Store interface {
	Save(ctx context.Context, accountID id.AccountID, hash string, ttl time.Duration) error
	Get(ctx context.Context, accountID id.AccountID) (hash string, err error)
	Delete(ctx context.Context, accountID id.AccountID) error
}

// Issuer generates, stores and redeems codes.
type Issuer struct {
	store Store
	ttl   time.Duration
}

func NewIssuer(store Store, ttl time.Duration) *Issuer {
	return &Issuer{store: store, ttl: ttl}
}

// Issue generates a fresh 6-digit code for the account and returns the
// plaintext for delivery. Any previous pending code is replaced.
func (i *Issuer) Issue(ctx context.Context, accountID id.AccountID) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing code: %w", err)
	}
	if err := i.store.Save(ctx, accountID, string(hash), i.ttl); err != nil {
		return "", fmt.Errorf("storing code: %w", err)
	}
	return code, nil
}

// Redeem checks a submitted code against the pending hash and consumes it on
// success. A missing or expired code yields sentinel.ErrExpired; a wrong code
// yields sentinel.ErrInvalidState and leaves the pending code intact.
func (i *Issuer) Redeem(ctx context.Context, accountID id.AccountID, code string) error {
	hash, err := i.store.Get(ctx, accountID)
	if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
		return sentinel.ErrExpired
	}
	if err != nil {
		return fmt.Errorf("loading code: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		return sentinel.ErrInvalidState
	}
	if err := i.store.Delete(ctx, accountID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("consuming code: %w", err)
	}
	return nil
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for range codeDigits {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
