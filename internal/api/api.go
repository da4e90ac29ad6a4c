// Package api exposes the task, auth and chat services as HTTP JSON endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mmynk/taskboard/internal/chat"
	"github.com/mmynk/taskboard/internal/service"
	"github.com/mmynk/taskboard/internal/storage"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

const (
	msgInternal       = "Internal server error"
	msgChatUnexpected = "Unexpected server error while generating AI response."
	msgChatUpstream   = "Failed to get a response from AI service."
	msgPersist        = "Failed to save changes"
)

// Handler serves the JSON API.
type Handler struct {
	auth  *service.AuthService
	tasks *service.TaskService
	chat  *service.ChatService
}

// NewHandler creates a Handler over the given services.
func NewHandler(auth *service.AuthService, tasks *service.TaskService, chat *service.ChatService) *Handler {
	return &Handler{auth: auth, tasks: tasks, chat: chat}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/signup", h.signup)
	mux.HandleFunc("POST /api/login", h.login)

	mux.HandleFunc("GET /api/tasks", h.listTasks)
	mux.HandleFunc("POST /api/tasks", h.createTask)
	mux.HandleFunc("PUT /api/tasks/{id}", h.setCompleted)
	mux.HandleFunc("PATCH /api/tasks/{id}", h.renameTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.deleteTask)

	mux.HandleFunc("POST /api/chat", h.chatReply)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

// decode reads a JSON body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &service.Error{Kind: service.ErrValidation, Message: "Invalid request body"}
	}
	return nil
}

// writeError maps err to a status code and writes {message}. fallback is
// the message used for unexpected errors.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, msg := classify(err, fallback)

	if status >= http.StatusInternalServerError {
		slog.Error("Request error", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		slog.Warn("Request error", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	writeJSON(w, status, messageResponse{Message: msg})
}

func classify(err error, fallback string) (int, string) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		switch {
		case errors.Is(svcErr.Kind, service.ErrValidation), errors.Is(svcErr.Kind, service.ErrConflict):
			return http.StatusBadRequest, svcErr.Message
		case errors.Is(svcErr.Kind, service.ErrUnauthorized):
			return http.StatusUnauthorized, svcErr.Message
		case errors.Is(svcErr.Kind, service.ErrNotFound):
			return http.StatusNotFound, svcErr.Message
		}
	}

	var upstream *chat.UpstreamError
	if errors.As(err, &upstream) {
		msg := upstream.Message
		if msg == "" {
			msg = msgChatUpstream
		}
		return upstream.StatusCode, msg
	}

	switch {
	case errors.Is(err, chat.ErrNotConfigured):
		return http.StatusInternalServerError, "Missing GEMINI_API_KEY in environment variables."
	case errors.Is(err, chat.ErrEmptyReply):
		return http.StatusBadGateway, "AI response was empty."
	case errors.Is(err, storage.ErrPersist):
		return http.StatusInternalServerError, msgPersist
	}

	return http.StatusInternalServerError, fallback
}
