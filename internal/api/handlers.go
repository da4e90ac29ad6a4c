package api

import (
	"net/http"

	"github.com/mmynk/taskboard/internal/chat"
	"github.com/mmynk/taskboard/internal/middleware"
	"github.com/mmynk/taskboard/internal/models"
	"github.com/mmynk/taskboard/internal/service"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type createTaskRequest struct {
	UserEmail string `json:"userEmail"`
	Title     string `json:"title"`
}

type setCompletedRequest struct {
	Completed *bool `json:"completed"`
}

type renameRequest struct {
	Title string `json:"title"`
}

type taskResponse struct {
	Task *models.Task `json:"task"`
}

type tasksResponse struct {
	Tasks []*models.Task `json:"tasks"`
}

type deleteResponse struct {
	Message string       `json:"message"`
	Task    *models.Task `json:"task"`
}

type chatRequest struct {
	Messages []chat.Message `json:"messages"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// actor returns the caller's email: the token claim if present, otherwise
// the email query parameter. Empty means unknown.
func actor(r *http.Request) string {
	if email := middleware.GetEmail(r.Context()); email != "" {
		return email
	}
	return r.URL.Query().Get("email")
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, msgInternal)
		return
	}

	res, err := h.auth.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Message: "User registered successfully", Token: res.Token})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, msgInternal)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Message: "Login successful", Token: res.Token})
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, tasksResponse{Tasks: tasks})
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, msgInternal)
		return
	}

	task, err := h.tasks.Create(r.Context(), req.UserEmail, req.Title)
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, taskResponse{Task: task})
}

func (h *Handler) setCompleted(w http.ResponseWriter, r *http.Request) {
	var req setCompletedRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	if req.Completed == nil {
		writeError(w, r, &service.Error{Kind: service.ErrValidation, Message: "Completed flag required"}, msgInternal)
		return
	}

	task, err := h.tasks.SetCompleted(r.Context(), actor(r), r.PathValue("id"), *req.Completed)
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, taskResponse{Task: task})
}

func (h *Handler) renameTask(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, msgInternal)
		return
	}

	task, err := h.tasks.Rename(r.Context(), actor(r), r.PathValue("id"), req.Title)
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, taskResponse{Task: task})
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.Delete(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Message: "Task deleted", Task: task})
}

func (h *Handler) chatReply(w http.ResponseWriter, r *http.Request) {
	// Credential problems are reported before body problems.
	if !h.chat.Configured() {
		writeError(w, r, chat.ErrNotConfigured, msgChatUnexpected)
		return
	}

	var req chatRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err, msgChatUnexpected)
		return
	}

	reply, err := h.chat.Reply(r.Context(), req.Messages)
	if err != nil {
		writeError(w, r, err, msgChatUnexpected)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}
