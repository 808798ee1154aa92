package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cabin-booking/internal/model"
)

// MessageStore persists reservation messages.
type MessageStore interface {
	Create(ctx context.Context, m *model.Message) error
	ListByReservation(ctx context.Context, reservationID uint64) ([]model.Message, error)
	MarkRead(ctx context.Context, id uint64) error
}

// MessageHandler serves the guest conversation attached to a reservation.
type MessageHandler struct {
	messages MessageStore
	log      *slog.Logger
}

// NewMessageHandler wires a MessageHandler.
func NewMessageHandler(messages MessageStore, log *slog.Logger) *MessageHandler {
	if messages == nil {
		panic("nil repository passed to NewMessageHandler")
	}
	return &MessageHandler{messages: messages, log: log}
}

type messageRequest struct {
	Sender string `json:"sender" validate:"required,oneof=guest staff"`
	Body   string `json:"body" validate:"required,max=4000"`
}

// Create handles POST /v1/reservations/:id/messages.
func (h *MessageHandler) Create(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	var req messageRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	m := &model.Message{ReservationID: id, Sender: req.Sender, Body: req.Body}
	if err := h.messages.Create(c.Request().Context(), m); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, toMessage(*m))
}

// List handles GET /v1/reservations/:id/messages, oldest first.
func (h *MessageHandler) List(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	msgs, err := h.messages.ListByReservation(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessage(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

// MarkRead handles POST /v1/messages/:id/read.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid message id")
	}
	if err := h.messages.MarkRead(c.Request().Context(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
