package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/greenbasket/greenbasket/app/repository"
	"github.com/greenbasket/greenbasket/internal/pkg/usercontext"
)

// HandleListNotifications returns the authenticated user's notifications.
func HandleListNotifications(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	offset, limit := parsePagination(c)
	repos := repository.GetGlobalFactory().GetRepositories()

	notifications, err := repos.Notification.ListByUser(userCtx.UserID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load notifications"})
	}
	unread, err := repos.Notification.CountUnreadByUser(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load notifications"})
	}

	items := make([]fiber.Map, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, fiber.Map{
			"id":           n.ID,
			"type":         n.Type,
			"title":        n.Title,
			"content":      n.Content,
			"reference_id": n.ReferenceID,
			"is_read":      n.IsRead,
			"created_at":   n.CreatedAt.UTC(),
		})
	}
	return c.JSON(fiber.Map{"unread_count": unread, "notifications": items})
}
