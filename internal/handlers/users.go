package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/messagely/apiserver/internal/apperr"
	"github.com/messagely/apiserver/internal/logger"
	"github.com/messagely/apiserver/types"
)

// Directory reads users and their mailboxes.
type Directory interface {
	All(ctx context.Context) ([]types.UserProfile, error)
	Get(ctx context.Context, username string) (types.User, error)
	MessagesFrom(ctx context.Context, username string) ([]types.SentMessage, error)
	MessagesTo(ctx context.Context, username string) ([]types.ReceivedMessage, error)
}

// Exporter archives a user's mailbox and manages the stored archives.
type Exporter interface {
	Export(ctx context.Context, username string) (types.MailboxExport, error)
	Fetch(ctx context.Context, username, key string) ([]byte, error)
	Remove(ctx context.Context, username, key string) error
}

// UserHandler provides HTTP handlers for the user directory.
type UserHandler struct {
	directory Directory
	exporter  Exporter
	logger    *logger.Logger
}

func NewUserHandler(directory Directory, exporter Exporter, log *logger.Logger) *UserHandler {
	if log == nil {
		log = logger.Noop()
	}
	return &UserHandler{
		directory: directory,
		exporter:  exporter,
		logger:    log,
	}
}

// UserRouter registers user routes. Every route requires authentication and
// the per-user routes are limited to the caller's own account.
func UserRouter(r chi.Router, handler *UserHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)
	r.Get("/", handler.ListUsers)
	r.Route("/{username}", func(r chi.Router) {
		r.Use(handler.requireSelf)
		r.Get("/", handler.GetUser)
		r.Get("/from", handler.MessagesFrom)
		r.Get("/to", handler.MessagesTo)
		r.Post("/export", handler.Export)
		r.Get("/export", handler.DownloadExport)
		r.Delete("/export", handler.DeleteExport)
	})
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.All(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, UserListResponse{Users: users})
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.directory.Get(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

func (h *UserHandler) MessagesFrom(w http.ResponseWriter, r *http.Request) {
	messages, err := h.directory.MessagesFrom(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, SentMessagesResponse{Messages: messages})
}

func (h *UserHandler) MessagesTo(w http.ResponseWriter, r *http.Request) {
	messages, err := h.directory.MessagesTo(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ReceivedMessagesResponse{Messages: messages})
}

func (h *UserHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeAppError(w, r, h.logger, apperr.Unavailable("mailbox export is not configured"))
		return
	}
	export, err := h.exporter.Export(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ExportResponse{Export: export})
}

// DownloadExport streams back a stored export named by the key query parameter.
func (h *UserHandler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	key, ok := h.exportKey(w, r)
	if !ok {
		return
	}
	data, err := h.exporter.Fetch(r.Context(), chi.URLParam(r, "username"), key)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeleteExport removes a stored export named by the key query parameter.
func (h *UserHandler) DeleteExport(w http.ResponseWriter, r *http.Request) {
	key, ok := h.exportKey(w, r)
	if !ok {
		return
	}
	if err := h.exporter.Remove(r.Context(), chi.URLParam(r, "username"), key); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) exportKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.exporter == nil {
		writeAppError(w, r, h.logger, apperr.Unavailable("mailbox export is not configured"))
		return "", false
	}
	key := strings.TrimSpace(r.URL.Query().Get("key"))
	if key == "" {
		writeAppError(w, r, h.logger, apperr.Validation("key is required"))
		return "", false
	}
	return key, true
}

func (h *UserHandler) requireSelf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, err := usernameFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, apperr.CodeUnauthorized, "unauthorized")
			return
		}
		if username != chi.URLParam(r, "username") {
			writeAppError(w, r, h.logger, apperr.Forbidden("cannot access another user's account"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type UserListResponse struct {
	Users []types.UserProfile `json:"users"`
}

type UserResponse struct {
	User types.User `json:"user"`
}

type SentMessagesResponse struct {
	Messages []types.SentMessage `json:"messages"`
}

type ReceivedMessagesResponse struct {
	Messages []types.ReceivedMessage `json:"messages"`
}

type ExportResponse struct {
	Export types.MailboxExport `json:"export"`
}
