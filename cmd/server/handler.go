package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/m2tx/kimap_agent/assets"
	"github.com/m2tx/kimap_agent/internal/agent"
	"github.com/m2tx/kimap_agent/internal/model"
)

// chatService is the part of agent.Agent the handlers use.
type chatService interface {
	Send(ctx context.Context, sessionID string, question string) (agent.Reply, error)
	GetSession(ctx context.Context, sessionID string) ([]model.Content, error)
	ClearSession(ctx context.Context, sessionID string) error
	Conversations(ctx context.Context) ([]model.Conversation, error)
}

type handler struct {
	chat   chatService
	logger *slog.Logger
}

func newHandler(chat chatService, limiter *clientLimiter, logger *slog.Logger) http.Handler {
	h := &handler{chat: chat, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, assets.Dir, "chat.html")
	})
	mux.HandleFunc("POST /chat", h.handleChat)
	mux.HandleFunc("GET /conversations", h.handleConversations)
	mux.HandleFunc("GET /history", h.handleGetHistory)
	mux.HandleFunc("DELETE /history", h.handleDeleteHistory)

	return withCORS(limiter.middleware(mux))
}

// maxChatBody bounds a chat request; a question is at most
// agent.MaxQuestionLength characters.
const maxChatBody = 16 << 10

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId"`
}

func (h *handler) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reply, err := h.chat.Send(r.Context(), req.SessionID, req.Question)
	if err != nil {
		h.writeChatError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func (h *handler) writeChatError(w http.ResponseWriter, err error) {
	var vErr *agent.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, agent.ErrTimeout):
		h.logger.Warn("chat timed out", "error", err)
		writeError(w, http.StatusServiceUnavailable, "the assistant is busy, please retry")
	default:
		h.logger.Error("chat failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *handler) handleConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.chat.Conversations(r.Context())
	if err != nil {
		h.logger.Error("list conversations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, conversations)
}

func (h *handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	contents, err := h.chat.GetSession(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("get session", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, contents)
}

func (h *handler) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	if err := h.chat.ClearSession(r.Context(), sessionID); err != nil {
		h.logger.Error("clear session", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", "status", status, "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
