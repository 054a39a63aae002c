// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package httpapi

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/embergate/embergate/internal/ratelimit"
)

//go:embed static
var staticFS embed.FS

// Limiters holds the per-route rate limiters. Each route keeps its own
// budget keyed by client address.
type Limiters struct {
	Signup *ratelimit.Limiter
	Verify *ratelimit.Limiter
	Login  *ratelimit.Limiter
	Resend *ratelimit.Limiter
}

// NewLimiters builds limiters with the default per-route policies:
// 3 signups per hour, 10 verification attempts per hour, 5 login
// attempts per minute, 3 resends per hour.
func NewLimiters() *Limiters {
	return &Limiters{
		Signup: ratelimit.New(ratelimit.Config{BurstCapacity: 3, SustainedRate: 3.0 / 3600}),
		Verify: ratelimit.New(ratelimit.Config{BurstCapacity: 10, SustainedRate: 10.0 / 3600}),
		Login:  ratelimit.New(ratelimit.Config{BurstCapacity: 5, SustainedRate: 5.0 / 60}),
		Resend: ratelimit.New(ratelimit.Config{BurstCapacity: 3, SustainedRate: 3.0 / 3600}),
	}
}

// Close stops the limiters' background cleanup goroutines.
func (l *Limiters) Close() {
	l.Signup.Close()
	l.Verify.Close()
	l.Login.Close()
	l.Resend.Close()
}

// NewRouter wires the full route table. Pass nil limiters to disable
// rate limiting (used by tests that exercise handler logic).
func NewRouter(h *Handler, limiters *Limiters) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), SecurityHeaders(), RequireJSON())

	limited := func(l *ratelimit.Limiter, handler gin.HandlerFunc) []gin.HandlerFunc {
		if limiters == nil {
			return []gin.HandlerFunc{handler}
		}
		return []gin.HandlerFunc{RateLimit(l), handler}
	}

	var sl, vl, ll, rl *ratelimit.Limiter
	if limiters != nil {
		sl, vl, ll, rl = limiters.Signup, limiters.Verify, limiters.Login, limiters.Resend
	}

	r.POST("/signup", limited(sl, h.Signup)...)
	r.POST("/verify-email", limited(vl, h.VerifyEmail)...)
	r.POST("/login", limited(ll, h.Login)...)
	r.POST("/resend-verification", limited(rl, h.ResendVerification)...)

	r.GET("/health", h.Health)
	r.GET("/server-status", h.ServerStatus)

	r.GET("/characters", h.ListCharacters)
	r.POST("/characters", h.CreateCharacter)

	static, err := fs.Sub(staticFS, "static")
	if err == nil {
		r.GET("/", func(c *gin.Context) {
			c.FileFromFS("index.html", http.FS(static))
		})
	}

	return r
}
