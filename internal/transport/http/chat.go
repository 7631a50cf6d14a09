package http

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/panatch1992-cell/mindfitness-chat/internal/domain"
	"github.com/panatch1992-cell/mindfitness-chat/internal/logger"
	"github.com/panatch1992-cell/mindfitness-chat/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	svc      *service.Service
	validate *validator.Validate
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/private-chat", h.PrivateChat)
	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// PrivateChat dispatches a private-chat action.
func (h *Handler) PrivateChat(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid action")
	}

	ctx := c.Request().Context()

	switch req.Action {
	case domain.ActionJoinQueue:
		res, err := h.svc.JoinQueue(ctx, req.UserID)
		if err != nil {
			return h.serverError(c, err, "Failed to create chat room")
		}
		return c.JSON(http.StatusOK, res)

	case domain.ActionLeaveQueue:
		if req.UserID == "" {
			return fail(c, http.StatusBadRequest, "Missing userId")
		}
		if err := h.svc.LeaveQueue(ctx, req.UserID); err != nil {
			return h.serverError(c, err, "Internal server error")
		}
		return c.JSON(http.StatusOK, domain.SimpleResult{Success: true, Message: "Left queue"})

	case domain.ActionCheckMatch:
		if req.UserID == "" {
			return fail(c, http.StatusBadRequest, "Missing userId")
		}
		res, err := h.svc.CheckMatch(ctx, req.UserID)
		if err != nil {
			return h.serverError(c, err, "Internal server error")
		}
		return c.JSON(http.StatusOK, res)

	case domain.ActionRequestAI:
		if req.UserID == "" {
			return fail(c, http.StatusBadRequest, "Missing userId")
		}
		res, err := h.svc.RequestAI(ctx, req.UserID)
		if err != nil {
			return h.serverError(c, err, "Failed to create AI chat room")
		}
		return c.JSON(http.StatusOK, res)

	case domain.ActionSendMessage:
		if req.ChatID == "" || req.Message == "" {
			return fail(c, http.StatusBadRequest, "Missing chatId or message")
		}
		msg, err := h.svc.SendMessage(ctx, req.UserID, req.ChatID, req.Message)
		if err != nil {
			return h.chatError(c, err, "Failed to send message")
		}
		view := domain.ViewOf(*msg)
		view.ID = "" // the message id only surfaces through get_messages
		return c.JSON(http.StatusOK, domain.SendMessageResult{Success: true, Message: view})

	case domain.ActionGetMessages:
		if req.ChatID == "" {
			return fail(c, http.StatusBadRequest, "Missing chatId")
		}
		messages, session, err := h.svc.GetMessages(ctx, req.UserID, req.ChatID)
		if err != nil {
			return h.chatError(c, err, "Failed to load messages")
		}
		views := make([]domain.MessageView, 0, len(messages))
		for _, m := range messages {
			views = append(views, domain.ViewOf(m))
		}
		partner := session.PartnerOf(req.UserID)
		return c.JSON(http.StatusOK, domain.GetMessagesResult{
			Success:       true,
			Messages:      views,
			SessionStatus: session.Status,
			IsAIPartner:   session.IsAISession,
			Partner:       &partner,
		})

	case domain.ActionEndChat:
		if req.ChatID == "" {
			return fail(c, http.StatusBadRequest, "Missing chatId")
		}
		alreadyEnded, err := h.svc.EndSession(ctx, req.UserID, req.ChatID)
		if err != nil {
			return h.serverError(c, err, "Failed to end chat")
		}
		message := "Chat ended"
		if alreadyEnded {
			message = "Session already ended"
		}
		return c.JSON(http.StatusOK, domain.SimpleResult{Success: true, Message: message})

	case domain.ActionReport:
		ack := h.svc.Report(ctx, req.UserID, req.ChatID, req.Reason)
		return c.JSON(http.StatusOK, domain.SimpleResult{Success: true, Message: ack})

	case domain.ActionHeartbeat:
		status := h.svc.Heartbeat(ctx, req.UserID, req.ChatID)
		return c.JSON(http.StatusOK, domain.HeartbeatResult{Success: true, SessionStatus: status})

	default:
		return fail(c, http.StatusBadRequest, "Invalid action")
	}
}

// chatError maps session gateway errors to their status codes.
func (h *Handler) chatError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return fail(c, http.StatusNotFound, "Chat session not found")
	case errors.Is(err, service.ErrSessionEnded):
		return fail(c, http.StatusBadRequest, "Chat session ended")
	case errors.Is(err, service.ErrNotParticipant):
		return fail(c, http.StatusForbidden, "Not a participant")
	case errors.Is(err, service.ErrEmptyMessage):
		return fail(c, http.StatusBadRequest, "Empty message")
	default:
		return h.serverError(c, err, fallback)
	}
}

func (h *Handler) serverError(c echo.Context, err error, msg string) error {
	logger.L.Error("private chat request failed", "err", err)
	return fail(c, http.StatusInternalServerError, msg)
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}
