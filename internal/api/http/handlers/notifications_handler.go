package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/portyard/port-ticket-service/internal/api/dto"
	"github.com/portyard/port-ticket-service/internal/service"
)

// NotificationsHandler serves the caller's notifications.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notificationService}
}

// List handles GET /notifications?limit=.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	items, err := h.notifications.List(c.UserContext(), sess, parseInt(c.Query("limit"), service.DefaultNotificationLimit))
	if err != nil {
		return err
	}
	out := make([]dto.NotificationResponse, 0, len(items))
	unread := 0
	for _, n := range items {
		if !n.Read {
			unread++
		}
		out = append(out, dto.NotificationResponse{
			ID:        n.ID,
			TicketID:  n.TicketID,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": out, "meta": fiber.Map{"unread": unread}})
}

// MarkRead handles POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	sess, err := session(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.UserContext(), sess, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
