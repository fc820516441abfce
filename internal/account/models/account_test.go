package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "residora/pkg/domain"
	dErrors "residora/pkg/domain-errors"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{input: "", want: RoleResident},
		{input: "resident", want: RoleResident},
		{input: " Syndic ", want: RoleSyndic},
		{input: "GUARD", want: RoleGuard},
		{input: "admin", wantErr: true},
	}
	for _, tt := range tests {
		t.Run("input_"+tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRole(t *testing.T) {
	tests := []struct {
		name      string
		current   Role
		requested Role
		want      Role
	}{
		{name: "syndic stays syndic when added as resident", current: RoleSyndic, requested: RoleResident, want: RoleSyndic},
		{name: "syndic stays syndic when added as guard", current: RoleSyndic, requested: RoleGuard, want: RoleSyndic},
		{name: "resident promoted to syndic", current: RoleResident, requested: RoleSyndic, want: RoleSyndic},
		{name: "resident not demoted to guard", current: RoleResident, requested: RoleGuard, want: RoleResident},
		{name: "guard promoted to syndic", current: RoleGuard, requested: RoleSyndic, want: RoleSyndic},
		{name: "guard added as resident stays guard", current: RoleGuard, requested: RoleResident, want: RoleGuard},
		{name: "same role is a no-op", current: RoleResident, requested: RoleResident, want: RoleResident},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRole(tt.current, tt.requested))
		})
	}
}

func TestNewAccount(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	t.Run("normalizes email and trims name", func(t *testing.T) {
		account, err := NewAccount(id.NewAccountID(), "  Amina Berrada  ", "Amina@Example.com", "+212600000001", RoleResident, now)
		require.NoError(t, err)
		assert.Equal(t, "Amina Berrada", account.FullName)
		assert.Equal(t, "amina@example.com", account.Email)
		assert.Equal(t, now, account.CreatedAt)
		assert.False(t, account.EmailVerified)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewAccount(id.NewAccountID(), "  ", "a@example.com", "", RoleResident, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		for _, email := range []string{"", "no-at-sign", "@example.com", "a@", "a@nodot", "a b@example.com"} {
			_, err := NewAccount(id.NewAccountID(), "Someone", email, "", RoleResident, now)
			require.Error(t, err, "email %q", email)
		}
	})
}
