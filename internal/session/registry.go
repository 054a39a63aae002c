// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

// Package session tracks live gateway connections and their identities.
package session

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// GuestUsername labels sessions that have not authenticated yet.
const GuestUsername = "guest"

// Session represents one live connection to the gateway.
type Session struct {
	ConnID      ulid.ULID
	AccountID   *ulid.ULID // nil until authenticated
	Username    string     // GuestUsername until authenticated
	ConnectedAt time.Time
	seq         uint64 // registration order, monotonic per registry
}

// Authenticated reports whether the session has a verified identity.
func (s *Session) Authenticated() bool {
	return s.AccountID != nil
}

// copySession returns a defensive copy to prevent external modification.
func copySession(s *Session) *Session {
	cp := *s
	if s.AccountID != nil {
		id := *s.AccountID
		cp.AccountID = &id
	}
	return &cp
}

// Registry tracks live sessions keyed by connection ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[ulid.ULID]*Session
	nextSeq  uint64
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[ulid.ULID]*Session),
	}
}

// Connect registers a new connection as a guest session.
// Returns an error if the connection ID is already registered.
func (r *Registry) Connect(connID ulid.ULID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[connID]; exists {
		return nil, oops.Code("SESSION_DUPLICATE_CONN").
			With("conn_id", connID.String()).
			Errorf("connection %s already registered", connID.String())
	}

	session := &Session{
		ConnID:      connID,
		Username:    GuestUsername,
		ConnectedAt: time.Now(),
		seq:         r.nextSeq,
	}
	r.nextSeq++
	r.sessions[connID] = session

	return copySession(session), nil
}

// Authenticate attaches the account identity to an existing session.
// The connection time is preserved; re-authentication replaces the identity.
func (r *Registry) Authenticate(connID, accountID ulid.ULID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[connID]
	if !exists {
		return oops.Code("SESSION_NOT_FOUND").
			With("conn_id", connID.String()).
			Errorf("no session for connection %s", connID.String())
	}

	id := accountID
	session.AccountID = &id
	session.Username = username
	return nil
}

// Disconnect removes a session. Removing an unknown connection is a no-op.
func (r *Registry) Disconnect(connID ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[connID]; !exists {
		slog.Debug("disconnect called for unknown connection",
			"conn_id", connID.String(),
		)
		return
	}
	delete(r.sessions, connID)
}

// Lookup returns a copy of the session for a connection, or nil if none.
func (r *Registry) Lookup(connID ulid.ULID) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.sessions[connID]
	if !exists {
		return nil
	}
	return copySession(session)
}

// List returns copies of all sessions in registration order.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		result = append(result, copySession(session))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].seq < result[j].seq
	})
	return result
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
