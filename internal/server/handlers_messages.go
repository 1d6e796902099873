package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/retrend/chat/internal/chat"
)

type sendMessageRequest struct {
	Body           string `json:"message"`
	ConversationID string `json:"id"`
	To             string `json:"to"`
}

type markReadRequest struct {
	MessageIDs []string `json:"messageIds"`
}

// handleNewMessages serves GET /api/new-messages?id=<conversation>&to=<counterpart>.
// The response is the full ordered message set of the conversation; the
// client's reconciliation is length-based, so the window is never truncated.
func (s *Server) handleNewMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	email, _ := userFromContext(r)

	conversationID := strings.TrimSpace(r.URL.Query().Get("id"))
	counterpart := strings.TrimSpace(r.URL.Query().Get("to"))
	if conversationID == "" || counterpart == "" {
		http.Error(w, "missing id or to", http.StatusBadRequest)
		return
	}

	messages, err := s.messages.ListConversation(r.Context(), conversationID, email, counterpart)
	if err != nil {
		s.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("list messages failed")
		http.Error(w, "cannot load messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []chat.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// handleMarkRead serves POST /mark-messages-read. Idempotent: already-read
// and foreign ids are ignored.
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	email, _ := userFromContext(r)

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := s.messages.MarkRead(r.Context(), email, req.MessageIDs); err != nil {
		s.logger.Error().Err(err).Msg("mark read failed")
		http.Error(w, "cannot mark messages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleSend serves POST /sendMessage. A sender the recipient has blocked
// gets HTTP 201 (the production rejection convention); 200 means accepted.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	email, _ := userFromContext(r)

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Body) == "" || req.ConversationID == "" || req.To == "" {
		http.Error(w, "missing message, id, or to", http.StatusBadRequest)
		return
	}
	if strings.EqualFold(req.To, email) {
		http.Error(w, "cannot message yourself", http.StatusBadRequest)
		return
	}

	blocked, err := s.users.IsBlocked(r.Context(), req.To, email)
	if err != nil {
		s.logger.Error().Err(err).Msg("block lookup failed")
		http.Error(w, "cannot send message", http.StatusInternalServerError)
		return
	}
	if blocked {
		writeJSON(w, http.StatusCreated, map[string]any{"error": "you cannot message this user"})
		return
	}

	msg, err := s.messages.Create(r.Context(), req.ConversationID, email, req.To, req.Body)
	if err != nil {
		s.logger.Error().Err(err).Msg("store message failed")
		http.Error(w, "cannot send message", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

type blockRequest struct {
	Email string `json:"email"`
}

// handleBlock serves POST /api/block: the caller blocks the given sender.
func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	email, _ := userFromContext(r)

	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := s.users.Block(r.Context(), email, req.Email); err != nil {
		s.logger.Error().Err(err).Msg("block failed")
		http.Error(w, "cannot block", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
