// Package server implements the reference message store: the remote,
// authoritative side of the fetch / mark-read / send contracts, used for
// local development and integration testing.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/retrend/chat/internal/config"
	"github.com/retrend/chat/internal/db"
	"github.com/retrend/chat/internal/logging"
)

// Server holds shared application dependencies.
type Server struct {
	cfg      config.ServerConfig
	users    *db.UserRepository
	sessions *db.SessionRepository
	messages *db.MessageRepository
	logger   zerolog.Logger

	httpServer *http.Server
}

// New creates a Server on top of an opened database.
func New(cfg config.ServerConfig, database *db.DB) *Server {
	return &Server{
		cfg:      cfg,
		users:    db.NewUserRepository(database),
		sessions: db.NewSessionRepository(database),
		messages: db.NewMessageRepository(database),
		logger:   logging.Component("chatd"),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/register", s.handleRegister)
	mux.HandleFunc("/api/login", s.handleLogin)
	mux.Handle("/api/new-messages", s.requireAuth(s.handleNewMessages))
	mux.Handle("/mark-messages-read", s.requireAuth(s.handleMarkRead))
	mux.Handle("/sendMessage", s.requireAuth(s.handleSend))
	mux.Handle("/api/block", s.requireAuth(s.handleBlock))
	return s.logRequests(mux)
}

// ListenAndServe runs the HTTP server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("reference store listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// writeJSON sends a JSON-encoded response with a given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
