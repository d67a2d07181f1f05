package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/messagely/apiserver/internal/apperr"
	"github.com/messagely/apiserver/internal/logger"
	"github.com/messagely/apiserver/internal/services"
	"github.com/messagely/apiserver/types"
)

// Exchange sends and reads messages on behalf of an authenticated user.
type Exchange interface {
	Create(ctx context.Context, in services.NewMessage) (types.Message, error)
	GetFor(ctx context.Context, id int64, requester string) (types.MessageDetail, error)
	MarkReadFor(ctx context.Context, id int64, requester string) (types.ReadReceipt, error)
}

// MessageHandler provides HTTP handlers for messages.
type MessageHandler struct {
	exchange Exchange
	logger   *logger.Logger
}

func NewMessageHandler(exchange Exchange, log *logger.Logger) *MessageHandler {
	if log == nil {
		log = logger.Noop()
	}
	return &MessageHandler{exchange: exchange, logger: log}
}

// MessageRouter registers message routes behind authMiddleware.
func MessageRouter(r chi.Router, handler *MessageHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)
	r.Post("/", handler.CreateMessage)
	r.Route("/{messageID}", func(r chi.Router) {
		r.Get("/", handler.GetMessage)
		r.Post("/read", handler.MarkRead)
	})
}

// CreateMessage sends a message from the caller.
func (h *MessageHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	username, ok := h.requester(w, r)
	if !ok {
		return
	}

	var req CreateMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	msg, err := h.exchange.Create(r.Context(), services.NewMessage{
		FromUsername: username,
		ToUsername:   req.ToUsername,
		Body:         req.Body,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{Message: msg})
}

// GetMessage returns a message to its sender or recipient.
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	username, ok := h.requester(w, r)
	if !ok {
		return
	}
	id, err := parseMessageID(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	detail, err := h.exchange.GetFor(r.Context(), id, username)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageDetailResponse{Message: detail})
}

// MarkRead marks a message read by its recipient.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	username, ok := h.requester(w, r)
	if !ok {
		return
	}
	id, err := parseMessageID(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	receipt, err := h.exchange.MarkReadFor(r.Context(), id, username)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ReadReceiptResponse{Message: receipt})
}

func (h *MessageHandler) requester(w http.ResponseWriter, r *http.Request) (string, bool) {
	username, err := usernameFromContext(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, apperr.Unauthorized("unauthorized"))
		return "", false
	}
	return username, true
}

type CreateMessageRequest struct {
	ToUsername string `json:"to_username"`
	Body       string `json:"body"`
}

type MessageResponse struct {
	Message types.Message `json:"message"`
}

type MessageDetailResponse struct {
	Message types.MessageDetail `json:"message"`
}

type ReadReceiptResponse struct {
	Message types.ReadReceipt `json:"message"`
}
