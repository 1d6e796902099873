package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/retrend/chat/internal/db"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := s.users.Create(r.Context(), req.Email, req.Name, req.Password); err != nil {
		if errors.Is(err, db.ErrUserExists) {
			http.Error(w, "account already exists", http.StatusConflict)
			return
		}
		s.logger.Error().Err(err).Msg("register failed")
		http.Error(w, "cannot register", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := s.users.Authenticate(r.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, db.ErrUserNotFound) || errors.Is(err, db.ErrInvalidPassword) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		s.logger.Error().Err(err).Msg("login failed")
		http.Error(w, "cannot login", http.StatusInternalServerError)
		return
	}

	token, err := s.sessions.Create(r.Context(), req.Email, s.cfg.SessionTTL)
	if err != nil {
		s.logger.Error().Err(err).Msg("session create failed")
		http.Error(w, "cannot login", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}
