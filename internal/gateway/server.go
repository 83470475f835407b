// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"
)

const maxInteractionBody = 64 << 10 // 64 KiB

// Server exposes the interaction endpoint the platform bridge posts
// to. One JSON Interaction in, one JSON Message out.
type Server struct {
	addr       string
	handler    *Handler
	logger     *slog.Logger
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates a gateway server.
func NewServer(addr string, handler *Handler, logger *slog.Logger) (*Server, error) {
	if handler == nil {
		return nil, oops.Code("GATEWAY_INVALID").Errorf("handler is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:    addr,
		handler: handler,
		logger:  logger,
	}, nil
}

// Start begins serving interactions. It returns an error channel that
// receives any serve error; the channel is closed on graceful stop.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("gateway server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("POST /interactions", s.handleInteraction)

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("gateway server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("gateway server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the gateway server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_gateway_server").Wrap(err)
		}
	}

	s.logger.Info("gateway server stopped")
	return nil
}

// Addr returns the address the server is listening on, or "" if not
// running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	var in Interaction

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInteractionBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		http.Error(w, "invalid interaction payload", http.StatusBadRequest)
		return
	}
	if in.Kind == "" || in.Caller.ExternalID == 0 {
		http.Error(w, "kind and caller are required", http.StatusBadRequest)
		return
	}

	msg := s.handler.Handle(r.Context(), in)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		s.logger.Error("failed to write interaction response", "error", err)
	}
}
