package controllers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenbasket/greenbasket/app/models"
	"github.com/greenbasket/greenbasket/app/repository"
	"github.com/greenbasket/greenbasket/internal/pkg/paystack"
	"github.com/greenbasket/greenbasket/internal/pkg/usercontext"
)

var validate = validator.New()

// HandleGetWallet returns the authenticated user's wallet balance and points.
func HandleGetWallet(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	user, err := repository.GetGlobalFactory().GetRepositories().User.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load wallet"})
	}

	return c.JSON(fiber.Map{
		"balance":  user.WalletBalance,
		"currency": "NGN",
		"points":   user.Points,
	})
}

// HandleListWalletTransactions returns the user's wallet funding history.
func HandleListWalletTransactions(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	offset, limit := parsePagination(c)
	txs, err := repository.GetGlobalFactory().GetRepositories().WalletTransaction.ListByUser(userCtx.UserID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load wallet transactions"})
	}

	items := make([]fiber.Map, 0, len(txs))
	for _, tx := range txs {
		items = append(items, fiber.Map{
			"reference":   tx.Reference,
			"amount":      tx.Amount,
			"type":        tx.Type,
			"status":      tx.Status,
			"description": tx.Description,
			"created_at":  tx.CreatedAt.UTC(),
		})
	}
	return c.JSON(fiber.Map{"transactions": items})
}

// HandleGetWalletTransaction returns one funding attempt by reference, so a
// client holding a top-up reference can poll its settlement status.
func HandleGetWalletTransaction(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	reference := strings.TrimSpace(c.Params("reference"))
	if reference == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Transaction reference is required"})
	}

	tx, err := repository.GetGlobalFactory().GetRepositories().WalletTransaction.GetByReference(reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Wallet transaction not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load wallet transaction"})
	}
	if tx.UserID != userCtx.UserID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Wallet transaction not found"})
	}

	return c.JSON(fiber.Map{
		"reference":   tx.Reference,
		"amount":      tx.Amount,
		"type":        tx.Type,
		"status":      tx.Status,
		"description": tx.Description,
		"created_at":  tx.CreatedAt.UTC(),
	})
}

// WalletTopupRequest is the payload for starting a wallet funding charge.
type WalletTopupRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// HandleWalletTopup records a pending funding attempt and starts a hosted
// checkout for it. The credit itself lands later through the webhook or
// verify path once the gateway confirms the charge.
func HandleWalletTopup(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req WalletTopupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Amount must be greater than zero"})
	}

	repos := repository.GetGlobalFactory().GetRepositories()
	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}

	reference := "GB-WLT-" + uuid.NewString()
	wtx := &models.WalletTransaction{
		UserID:      user.ID,
		Reference:   reference,
		Amount:      req.Amount,
		Type:        models.WalletTxTypeCredit,
		Status:      models.PaymentStatusPending,
		Description: fmt.Sprintf("Wallet top-up of %.2f NGN", req.Amount),
	}
	if err := repos.WalletTransaction.Create(wtx); err != nil {
		log.Errorf("wallet topup: creating transaction %s failed: %v", reference, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to record funding attempt"})
	}

	client := paystack.NewClientFromEnv()
	init, err := client.InitializeTransaction(c.UserContext(), paystack.InitializeRequest{
		Email:     user.Email,
		Amount:    wtx.AmountKobo(),
		Reference: reference,
	})
	if err != nil {
		if errors.Is(err, paystack.ErrGatewayUnavailable) {
			log.Warnf("wallet topup: gateway unavailable for %s: %v", reference, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "gateway_unavailable", "message": "Payment gateway could not be reached"})
		}
		log.Errorf("wallet topup: initializing %s failed: %v", reference, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to start checkout"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"reference":         reference,
		"amount":            req.Amount,
		"authorization_url": init.AuthorizationURL,
		"access_code":       init.AccessCode,
	})
}
