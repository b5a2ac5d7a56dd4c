package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket/app/repository"
	"github.com/greenbasket/greenbasket/internal/pkg/usercontext"
)

// HandleListOrders returns the authenticated user's orders, newest first.
func HandleListOrders(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	offset, limit := parsePagination(c)
	repos := repository.GetGlobalFactory().GetRepositories()

	orders, err := repos.Order.ListByUser(userCtx.UserID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load orders"})
	}
	total, err := repos.Order.CountByUser(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load orders"})
	}

	items := make([]fiber.Map, 0, len(orders))
	for _, o := range orders {
		items = append(items, fiber.Map{
			"id":             o.ID,
			"order_number":   o.OrderNumber,
			"total_amount":   o.TotalAmount,
			"payment_status": o.PaymentStatus,
			"order_status":   o.Status,
			"payment_method": o.PaymentMethod,
			"created_at":     o.CreatedAt.UTC(),
		})
	}
	return c.JSON(fiber.Map{"orders": items, "total": total})
}

// HandleGetOrder returns one of the authenticated user's orders with items.
func HandleGetOrder(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	orderID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || orderID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid order id"})
	}

	order, err := repository.GetGlobalFactory().GetRepositories().Order.GetByIDForUser(uint(orderID), userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Order not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load order"})
	}

	items := make([]fiber.Map, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, fiber.Map{
			"product_id": it.ProductID,
			"quantity":   it.Quantity,
			"unit_price": it.UnitPrice,
		})
	}
	return c.JSON(fiber.Map{
		"id":             order.ID,
		"order_number":   order.OrderNumber,
		"total_amount":   order.TotalAmount,
		"payment_status": order.PaymentStatus,
		"order_status":   order.Status,
		"payment_method": order.PaymentMethod,
		"transaction_id": order.TransactionID,
		"created_at":     order.CreatedAt.UTC(),
		"items":          items,
	})
}
