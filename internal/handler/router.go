package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sefazor/storefront/internal/backend"
	"github.com/sefazor/storefront/internal/middleware"
	"github.com/sefazor/storefront/pkg/utils"
	"go.uber.org/zap"
)

type Services struct {
	Auth      *backend.AuthService
	Packages  *backend.PackageService
	Purchases *backend.PurchaseService
	Payments  *backend.PaymentService
	Pos       *backend.PosService
	Bank      *backend.BankService
}

type Options struct {
	AllowOrigins  string
	RateLimit     int // requests per minute per IP, 0 disables
	AccessLog     bool
	BankAPIKey    string
	WebhookSecret string
	Validator     StructValidator
	Logger        *zap.Logger
}

// NewApp wires the sandbox routes.
func NewApp(svc Services, opts Options) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Validator == nil {
		opts.Validator = utils.NewValidator()
	}
	if opts.AllowOrigins == "" {
		opts.AllowOrigins = "*"
	}
	b := base{validate: opts.Validator, logger: opts.Logger}

	app := fiber.New(fiber.Config{
		AppName:               "storefront-sandbox",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE",
	}))
	if opts.AccessLog {
		app.Use(fiberlogger.New())
	}
	if opts.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimit,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
		}))
	}

	users := NewUserHandler(svc.Auth, b)
	packages := NewPackageHandler(svc.Packages, b)
	purchases := NewPurchaseHandler(svc.Purchases, b)
	payments := NewPaymentHandler(svc.Payments, opts.WebhookSecret, b)
	pos := NewPosHandler(svc.Pos, b)
	bank := NewBankHandler(svc.Bank, opts.Logger)

	// Bank feed
	feed := app.Group("/v2/transactions", middleware.APIKeyMiddleware(opts.BankAPIKey))
	feed.Get("/", bank.Transactions)
	feed.Post("/", bank.Record)

	api := app.Group("/v1/api")

	// Public routes
	api.Post("/users", users.Register)
	api.Post("/users/login", users.Login)
	api.Post("/packages/search", packages.Search)
	api.Get("/packages/:id", packages.Get)
	api.Post("/payments/webhook", payments.StripeWebhook)
	// Image links are opened outside the client, without a token.
	api.Get("/payments/:id/qr.png", payments.QRCode)

	// Protected routes
	api.Use(middleware.AuthMiddleware(svc.Auth))
	{
		api.Get("/users/current", users.Current)
		api.Post("/packages/:id/access", packages.Access)

		purchase := api.Group("/purchases")
		purchase.Post("/check", purchases.Check)
		purchase.Post("/upgrade-premium", purchases.UpgradePremium)
		purchase.Post("/complete", purchases.Complete)
		purchase.Post("/search", purchases.Search)
		purchase.Post("/", purchases.Create)

		payment := api.Group("/payments")
		payment.Post("/check", payments.Check)
		payment.Post("/:id/settle", payments.Settle)
		payment.Post("/", payments.Create)

		api.Post("/foods/search", pos.SearchFoods)

		cart := api.Group("/cart")
		cart.Delete("/clear", pos.ClearCart)
		cart.Get("/:id", pos.GetCartByID)
		cart.Get("/", pos.GetCart)
		cart.Post("/", pos.AddToCart)
		cart.Put("/", pos.UpdateCart)
		cart.Delete("/", pos.RemoveFromCart)

		orders := api.Group("/orders")
		orders.Get("/:id", pos.GetOrder)
		orders.Get("/", pos.ListOrders)
		orders.Post("/", pos.CreateOrder)

		posPayments := api.Group("/pos/payments")
		posPayments.Get("/", pos.ListPayments)
		posPayments.Post("/", pos.ProcessPayment)
		posPayments.Put("/:id", pos.UpdatePayment)
	}

	return app
}
