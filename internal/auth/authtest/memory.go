// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

// Package authtest provides in-memory fakes for auth dependencies.
package authtest

import (
	"context"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/embergate/embergate/internal/auth"
)

// MemoryRepository is an in-memory auth.LockedAccountRepository for tests.
// It hands out copies, so mutations are visible only after Update.
type MemoryRepository struct {
	mu       sync.Mutex
	accounts map[ulid.ULID]*auth.Account
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[ulid.ULID]*auth.Account)}
}

func copyAccount(a *auth.Account) *auth.Account {
	dup := *a
	if a.VerificationCode != nil {
		v := *a.VerificationCode
		dup.VerificationCode = &v
	}
	if a.VerificationExpires != nil {
		v := *a.VerificationExpires
		dup.VerificationExpires = &v
	}
	if a.LockedUntil != nil {
		v := *a.LockedUntil
		dup.LockedUntil = &v
	}
	return &dup
}

// Create stores a new account.
func (r *MemoryRepository) Create(_ context.Context, account *auth.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if strings.EqualFold(existing.Username, account.Username) ||
			strings.EqualFold(existing.Email, account.Email) {
			return auth.ErrConflict
		}
	}
	r.accounts[account.ID] = copyAccount(account)
	return nil
}

// GetByID retrieves an account by ID.
func (r *MemoryRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		return copyAccount(a), nil
	}
	return nil, auth.ErrNotFound
}

// GetByUsername retrieves an account by username (case-insensitive).
func (r *MemoryRepository) GetByUsername(_ context.Context, username string) (*auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if strings.EqualFold(a.Username, username) {
			return copyAccount(a), nil
		}
	}
	return nil, auth.ErrNotFound
}

// GetByUsernameLocked is GetByUsername; the in-memory repo serializes on its
// own mutex.
func (r *MemoryRepository) GetByUsernameLocked(ctx context.Context, username string) (*auth.Account, error) {
	return r.GetByUsername(ctx, username)
}

// GetByEmail retrieves an account by email (case-insensitive).
func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, email) {
			return copyAccount(a), nil
		}
	}
	return nil, auth.ErrNotFound
}

// Update replaces an existing account.
func (r *MemoryRepository) Update(_ context.Context, account *auth.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; !ok {
		return auth.ErrNotFound
	}
	r.accounts[account.ID] = copyAccount(account)
	return nil
}

// Count returns the number of stored accounts.
func (r *MemoryRepository) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.accounts)), nil
}

// RecordingMailer captures dispatched verification codes.
type RecordingMailer struct {
	mu    sync.Mutex
	Sent  []SentMail
	Fail  bool
	Calls int
}

// SentMail is one captured dispatch.
type SentMail struct {
	Recipient string
	Code      string
}

// SendVerificationCode records the dispatch, failing when Fail is set.
func (m *RecordingMailer) SendVerificationCode(_ context.Context, recipient, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Fail {
		return context.DeadlineExceeded
	}
	m.Sent = append(m.Sent, SentMail{Recipient: recipient, Code: code})
	return nil
}

// LastCode returns the most recently dispatched code, or "".
func (m *RecordingMailer) LastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return ""
	}
	return m.Sent[len(m.Sent)-1].Code
}
