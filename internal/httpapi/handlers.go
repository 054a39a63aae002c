// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/embergate/embergate/internal/auth"
	"github.com/embergate/embergate/internal/character"
	"github.com/embergate/embergate/internal/observability"
	"github.com/embergate/embergate/internal/status"
)

// loginOutcome labels a login failure for metrics.
func loginOutcome(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "error"
	}
	switch oopsErr.Code() {
	case auth.CodeInvalidCredentials:
		return "invalid_credentials"
	case auth.CodeAccountLocked:
		return "locked"
	case auth.CodeNotVerified:
		return "not_verified"
	default:
		return "error"
	}
}

// Pinger checks database connectivity. Satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the request/response API.
type Handler struct {
	accounts   *auth.AccountService
	login      *auth.LoginService
	tokens     *auth.TokenIssuer
	lookup     auth.AccountRepository
	characters *character.Service
	reporter   *status.Reporter
	db         Pinger
}

// NewHandler creates a Handler.
func NewHandler(accounts *auth.AccountService, login *auth.LoginService, tokens *auth.TokenIssuer, lookup auth.AccountRepository, characters *character.Service, reporter *status.Reporter, db Pinger) *Handler {
	return &Handler{
		accounts:   accounts,
		login:      login,
		tokens:     tokens,
		lookup:     lookup,
		characters: characters,
		reporter:   reporter,
		db:         db,
	}
}

// Signup handles POST /signup.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	account, err := h.accounts.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	observability.RecordSignup()

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created. Check your email for a verification code.",
		"user_id": account.ID.String(),
	})
}

// VerifyEmail handles POST /verify-email.
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	if err := h.accounts.VerifyEmail(c.Request.Context(), req.Email, req.Code); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified. You can now log in."})
}

// Login handles POST /login. The response carries a signed session token
// plus the account's characters.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	account, err := h.login.Attempt(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		observability.RecordAuthAttempt(loginOutcome(err))
		writeError(c, err)
		return
	}
	observability.RecordAuthAttempt("success")

	token, err := h.tokens.Issue(account.ID.String(), account.Username)
	if err != nil {
		writeError(c, err)
		return
	}

	chars, err := h.characters.ListByAccount(c.Request.Context(), account.ID)
	if err != nil {
		// The login itself succeeded; degrade to an empty list.
		slog.WarnContext(c.Request.Context(), "failed to list characters after login",
			"account_id", account.ID.String(),
			"error", err,
		)
		chars = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful.",
		"token":      token,
		"user":       newUserResponse(account),
		"characters": newCharacterResponses(chars),
	})
}

// ResendVerification handles POST /resend-verification.
func (h *Handler) ResendVerification(c *gin.Context) {
	var req ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	if err := h.accounts.ResendVerification(c.Request.Context(), req.Email); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the account is unverified, a new code has been sent."})
}

// Health handles GET /health with a database connectivity probe. The
// endpoint always answers 200; a broken database degrades the status
// fields instead of the response.
func (h *Handler) Health(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		slog.WarnContext(c.Request.Context(), "health probe failed", "error", err)
		c.JSON(http.StatusOK, gin.H{
			"status":   "degraded",
			"database": "unhealthy",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "healthy",
	})
}

// ServerStatus handles GET /server-status.
func (h *Handler) ServerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.reporter.Snapshot(c.Request.Context()))
}

// ListCharacters handles GET /characters?user_id=<id>.
func (h *Handler) ListCharacters(c *gin.Context) {
	accountID, ok := h.resolveAccountID(c, c.Query("user_id"))
	if !ok {
		return
	}

	chars, err := h.characters.ListByAccount(c.Request.Context(), accountID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"characters": newCharacterResponses(chars)})
}

// CreateCharacter handles POST /characters.
func (h *Handler) CreateCharacter(c *gin.Context) {
	var req CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	accountID, ok := h.resolveAccountID(c, req.UserID)
	if !ok {
		return
	}

	char, err := h.characters.Create(c.Request.Context(), accountID, req.Name, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}

	responses := newCharacterResponses([]*character.Character{char})
	c.JSON(http.StatusCreated, gin.H{
		"message":   "Character created.",
		"character": responses[0],
	})
}

// resolveAccountID parses a user id and confirms the account exists.
// On failure it writes the error response and returns false.
func (h *Handler) resolveAccountID(c *gin.Context, raw string) (ulid.ULID, bool) {
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return ulid.ULID{}, false
	}

	accountID, err := ulid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return ulid.ULID{}, false
	}

	if _, err := h.lookup.GetByID(c.Request.Context(), accountID); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			err = oops.Code(auth.CodeAccountNotFound).Wrap(err)
		}
		writeError(c, err)
		return ulid.ULID{}, false
	}
	return accountID, true
}
