package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/greenbasket/greenbasket/app/controllers"
	"github.com/greenbasket/greenbasket/internal/pkg/cache"
	"github.com/greenbasket/greenbasket/internal/pkg/env"
	"github.com/greenbasket/greenbasket/internal/pkg/middleware"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Webhook deliveries are authenticated by signature, not by API key, and
	// must not share the client rate limit: the gateway retries on failure.
	app.Post("/api/v1/payments/webhook/paystack", controllers.HandlePaystackWebhook)

	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Storage:    newLimiterStorage(),
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "GreenBasket API",
		})
	})

	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware())

	v1.Get("/payments/verify/:reference", controllers.HandlePaymentVerify)
	v1.Post("/payments/verify", controllers.HandlePaymentVerify)

	v1.Get("/wallet", controllers.HandleGetWallet)
	v1.Get("/wallet/transactions", controllers.HandleListWalletTransactions)
	v1.Get("/wallet/transactions/:reference", controllers.HandleGetWalletTransaction)
	v1.Post("/wallet/topup", controllers.HandleWalletTopup)

	v1.Get("/orders", controllers.HandleListOrders)
	v1.Get("/orders/:id", controllers.HandleGetOrder)

	v1.Get("/rewards", controllers.HandleListRewards)
	v1.Get("/notifications", controllers.HandleListNotifications)
}

// newLimiterStorage backs the rate limiter with Redis so limits hold across
// instances. Falls back to the limiter's in-memory default when no cache
// client is configured.
func newLimiterStorage() fiber.Storage {
	cacheClient := cache.GetClient()
	if cacheClient == nil {
		return nil
	}

	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	addr := cacheClient.Options().Addr
	if h, p, err := net.SplitHostPort(addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}
	if p := cacheClient.Options().Password; p != "" {
		password = p
	}

	// Database 1 keeps limiter keys out of the cache keyspace (DB 0).
	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}
