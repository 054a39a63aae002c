// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

// Package httpapi provides the request/response HTTP surface.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/embergate/embergate/internal/auth"
	"github.com/embergate/embergate/internal/character"
)

// clientError is the safe message and status for a known error code.
type clientError struct {
	status  int
	message string
}

// clientErrors maps service error codes onto HTTP responses. Unlisted codes
// are internal failures and stay generic.
var clientErrors = map[string]clientError{
	auth.CodeInvalidUsername:    {http.StatusBadRequest, "username must be 3-20 characters of letters, digits, or underscore"},
	auth.CodeInvalidEmail:       {http.StatusBadRequest, "invalid email address"},
	auth.CodeInvalidPassword:    {http.StatusBadRequest, "password must be at least 8 characters with an uppercase letter, a lowercase letter, and a digit"},
	auth.CodeUsernameTaken:      {http.StatusBadRequest, "username already taken"},
	auth.CodeEmailTaken:         {http.StatusBadRequest, "email already registered"},
	auth.CodeAccountNotFound:    {http.StatusNotFound, "account not found"},
	auth.CodeInvalidCredentials: {http.StatusUnauthorized, "invalid username or password"},
	auth.CodeAccountLocked:      {http.StatusForbidden, "account temporarily locked due to failed login attempts"},
	auth.CodeNotVerified:        {http.StatusForbidden, "email not verified"},
	auth.CodeNoCode:             {http.StatusBadRequest, "no verification code pending"},
	auth.CodeCodeExpired:        {http.StatusBadRequest, "verification code expired"},
	auth.CodeCodeMismatch:       {http.StatusBadRequest, "invalid verification code"},
	character.CodeInvalidName:   {http.StatusBadRequest, "character name must be 2-32 letters with single spaces"},
	character.CodeNameTaken:     {http.StatusBadRequest, "character name already taken"},
	"CHARACTER_NOT_FOUND":       {http.StatusNotFound, "character not found"},
}

// writeError renders an error as a JSON response. Unknown errors are logged
// with detail and reported as a generic 500.
func writeError(c *gin.Context, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok {
			if ce, known := clientErrors[code]; known {
				c.JSON(ce.status, gin.H{"error": ce.message})
				return
			}
		}
	}

	slog.ErrorContext(c.Request.Context(), "request failed",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"error", err,
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
