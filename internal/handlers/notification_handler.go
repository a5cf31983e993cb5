package handlers

import (
	"net/http"
	"strconv"

	"github.com/ahshakib/Collaborative-Storytelling-App/internal/repositories"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles HTTP requests related to notifications
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationRepo repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notificationRepository: notificationRepo}
}

// RegisterNotificationRoutes registers notification-related routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
}

// GetNotifications lists the caller's latest notifications with the unread
// count
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	claims := principal(c)

	notifications, err := h.notificationRepository.GetByRecipientID(claims.UserID, 20)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch notifications")
	}

	unread, err := h.notificationRepository.GetUnreadCount(claims.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count unread notifications")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"results":       len(notifications),
		"unread_count":  unread,
		"notifications": notifications,
	})
}

// MarkAsRead marks one notification as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	notificationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	if err := h.notificationRepository.MarkAsRead(uint(notificationID)); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Notification marked as read"})
}

// MarkAllAsRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	claims := principal(c)

	if err := h.notificationRepository.MarkAllAsRead(claims.UserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to mark notifications as read")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "All notifications marked as read"})
}
