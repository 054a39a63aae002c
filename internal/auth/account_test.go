// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embergate/embergate/internal/auth"
)

func TestValidateUsername(t *testing.T) {
	valid := []string{"abc", "alice", "Alice_99", "a_b_c", "12345678901234567890"}
	for _, u := range valid {
		assert.NoError(t, auth.ValidateUsername(u), u)
	}

	invalid := []string{"", "ab", "123456789012345678901", "bad name", "bad-name", "bäd", "a!b"}
	for _, u := range invalid {
		assert.Error(t, auth.ValidateUsername(u), u)
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Run("lowercases and trims", func(t *testing.T) {
		got, err := auth.NormalizeEmail("  Alice@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", got)
	})

	t.Run("rejects malformed addresses", func(t *testing.T) {
		for _, e := range []string{"", "notanemail", "a@", "@x.com", "a b@x.com", "Alice <a@x.com>"} {
			_, err := auth.NormalizeEmail(e)
			assert.Error(t, err, e)
		}
	})
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, auth.ValidatePassword("Passw0rd"))

	cases := map[string]string{
		"empty":        "",
		"too short":    "Pa5swrd",
		"no uppercase": "passw0rd",
		"no lowercase": "PASSW0RD",
		"no digit":     "Password",
	}
	for name, pw := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, auth.ValidatePassword(pw))
		})
	}
}

func TestGenerateVerificationCode(t *testing.T) {
	for range 20 {
		code, err := auth.GenerateVerificationCode()
		require.NoError(t, err)
		require.Len(t, code, auth.VerificationCodeLength)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "code must be numeric: %q", code)
		}
	}
}

func TestAccountVerificationLifecycle(t *testing.T) {
	account, err := auth.NewAccount("alice", "a@x.com", "digest")
	require.NoError(t, err)
	assert.False(t, account.Verified)

	account.SetVerificationCode("codedigest", time.Now().Add(time.Hour))
	require.NotNil(t, account.VerificationCode)
	require.NotNil(t, account.VerificationExpires)

	account.MarkVerified()
	assert.True(t, account.Verified)
	assert.Nil(t, account.VerificationCode, "verified accounts carry no code")
	assert.Nil(t, account.VerificationExpires)
}

func TestAccountLockout(t *testing.T) {
	t.Run("locks at threshold", func(t *testing.T) {
		account, err := auth.NewAccount("bob", "b@x.com", "digest")
		require.NoError(t, err)

		for i := 1; i < auth.LockoutThreshold; i++ {
			account.RecordFailure()
			assert.False(t, account.IsLocked(), "attempt %d should not lock", i)
		}
		account.RecordFailure()
		assert.True(t, account.IsLocked())
		require.NotNil(t, account.LockedUntil)
	})

	t.Run("success resets state", func(t *testing.T) {
		account, err := auth.NewAccount("carol", "c@x.com", "digest")
		require.NoError(t, err)
		for range auth.LockoutThreshold {
			account.RecordFailure()
		}
		account.RecordSuccess()
		assert.Equal(t, 0, account.FailedAttempts)
		assert.Nil(t, account.LockedUntil)
		assert.False(t, account.IsLocked())
	})

	t.Run("expired lockout is not locked", func(t *testing.T) {
		past := time.Now().Add(-time.Minute)
		assert.False(t, auth.IsLockedOut(&past))
		future := time.Now().Add(time.Minute)
		assert.True(t, auth.IsLockedOut(&future))
		assert.False(t, auth.IsLockedOut(nil))
	})
}
