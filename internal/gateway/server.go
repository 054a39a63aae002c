// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package gateway

import (
	"context"
	"log/slog"
	"net"
	"sync"

	"github.com/samber/oops"

	"github.com/embergate/embergate/internal/session"
	"github.com/embergate/embergate/internal/status"
)

// Server accepts persistent gateway connections.
type Server struct {
	addr       string
	listener   net.Listener
	registry   *session.Registry
	login      Authenticator
	characters CharacterLister
	dispatcher Dispatcher
	reporter   *status.Reporter
	opts       []HandlerOption
	mu         sync.RWMutex
}

// NewServer creates a new gateway server. Handler options are applied to
// every accepted connection.
func NewServer(addr string, registry *session.Registry, login Authenticator, characters CharacterLister, dispatcher Dispatcher, reporter *status.Reporter, opts ...HandlerOption) *Server {
	return &Server{
		addr:       addr,
		registry:   registry,
		login:      login,
		characters: characters,
		dispatcher: dispatcher,
		reporter:   reporter,
		opts:       opts,
	}
}

// Addr returns the server's listen address once running.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run starts the server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return oops.Code("GATEWAY_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	slog.Info("gateway server started", "addr", listener.Addr())

	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			slog.Debug("error closing listener", "error", err)
		}
	}()

	var wg sync.WaitGroup
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				wg.Wait()
				return nil
			default:
				slog.Error("accept failed", "error", err)
				continue
			}
		}

		handler := NewConnectionHandler(conn, s.registry, s.login, s.characters, s.dispatcher, s.reporter, s.opts...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler.Handle(ctx)
		}()
	}
}
