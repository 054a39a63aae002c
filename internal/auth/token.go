// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package auth

import (
	"crypto/rand"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// Token configuration.
const (
	TokenExpiry    = 24 * time.Hour
	SigningKeyLen  = 32
	tokenIssuer    = "embergate"
	claimAccountID = "account_id"
)

// Claims are the identity assertions embedded in a session token.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
}

// TokenIssuer creates signed session tokens. The signing key is process-wide,
// immutable after construction, and never persisted.
type TokenIssuer struct {
	key []byte
}

// NewTokenIssuer creates a TokenIssuer with the given signing key.
func NewTokenIssuer(key []byte) (*TokenIssuer, error) {
	if len(key) == 0 {
		return nil, oops.Code("TOKEN_KEY_EMPTY").Errorf("signing key cannot be empty")
	}
	return &TokenIssuer{key: key}, nil
}

// GenerateSigningKey produces a random signing key for processes that are not
// supplied one externally.
func GenerateSigningKey() ([]byte, error) {
	key := make([]byte, SigningKeyLen)
	if _, err := rand.Read(key); err != nil {
		return nil, oops.Code("TOKEN_KEY_GENERATE_FAILED").Wrap(err)
	}
	return key, nil
}

// Issue creates an HS256-signed token asserting the account identity, with
// expiry fixed at issuance time.
func (t *TokenIssuer) Issue(accountID, username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
		},
		AccountID: accountID,
		Username:  username,
	})

	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Parse validates a token's signature and expiry and returns its claims.
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return t.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, oops.Code("TOKEN_INVALID").Wrap(err)
	}
	if !token.Valid {
		return nil, oops.Code("TOKEN_INVALID").Errorf("invalid token")
	}
	return claims, nil
}
