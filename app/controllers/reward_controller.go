package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/greenbasket/greenbasket/app/repository"
	"github.com/greenbasket/greenbasket/internal/pkg/usercontext"
)

// HandleListRewards returns the authenticated user's reward history and
// current points balance.
func HandleListRewards(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	offset, limit := parsePagination(c)
	repos := repository.GetGlobalFactory().GetRepositories()

	rewards, err := repos.Reward.ListByUser(userCtx.UserID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load rewards"})
	}
	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load points balance"})
	}

	items := make([]fiber.Map, 0, len(rewards))
	for _, r := range rewards {
		items = append(items, fiber.Map{
			"order_id":   r.OrderID,
			"type":       r.Type,
			"points":     r.Points,
			"created_at": r.CreatedAt.UTC(),
		})
	}
	return c.JSON(fiber.Map{"points": user.Points, "rewards": items})
}
