package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sefazor/storefront/internal/backend"
	"github.com/sefazor/storefront/internal/config"
	"github.com/sefazor/storefront/internal/handler"
	"github.com/sefazor/storefront/internal/repository"
	"github.com/sefazor/storefront/pkg/database"
	"github.com/sefazor/storefront/pkg/email"
	"github.com/sefazor/storefront/pkg/logger"
	"github.com/sefazor/storefront/pkg/payment"
	"github.com/sefazor/storefront/pkg/qrcode"
	"github.com/sefazor/storefront/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer func() { _ = zl.Sync() }()

	// Initialize database
	db, err := database.Open(database.Options{
		DatabaseURL: cfg.Sandbox.DatabaseURL,
		SQLitePath:  cfg.Sandbox.SQLitePath,
	}, zl)
	if err != nil {
		zl.Fatal("database", zap.Error(err))
	}
	if err := database.RunMigrations(db); err != nil {
		zl.Fatal("migrations", zap.Error(err))
	}
	if err := database.Seed(db); err != nil {
		zl.Fatal("seed", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	posRepo := repository.NewPosRepository(db)
	bankRepo := repository.NewBankRepository(db)

	var mailer backend.WelcomeMailer
	if cfg.EmailEnabled() {
		emailService, err := email.NewEmailService(cfg.Email.APIKey, cfg.Email.From, cfg.Email.FromName, zl)
		if err != nil {
			zl.Fatal("email", zap.Error(err))
		}
		mailer = emailService
	}

	var cards backend.CardCheckout
	if cfg.Sandbox.StripeSecretKey != "" {
		cards = payment.NewStripeService(cfg.Sandbox.StripeSecretKey, cfg.Sandbox.StripeSuccessURL, cfg.Sandbox.StripeCancelURL)
	}

	// Services
	services := handler.Services{
		Auth:      backend.NewAuthService(userRepo, cfg.Sandbox.JWTSecret, mailer, zl),
		Packages:  backend.NewPackageService(packageRepo, purchaseRepo, userRepo),
		Purchases: backend.NewPurchaseService(packageRepo, purchaseRepo, paymentRepo, userRepo, zl),
		Payments: backend.NewPaymentService(paymentRepo, purchaseRepo, userRepo,
			qrcode.NewQRService(cfg.Sandbox.PublicURL+"/pay/"),
			cards,
			backend.PaymentOptions{PublicURL: cfg.Sandbox.PublicURL, Expiry: cfg.Sandbox.PaymentExpiry},
			zl,
		),
		Pos:  backend.NewPosService(posRepo, zl),
		Bank: backend.NewBankService(bankRepo),
	}

	app := handler.NewApp(services, handler.Options{
		AllowOrigins:  cfg.Sandbox.AllowOrigins,
		RateLimit:     cfg.Sandbox.RateLimit,
		AccessLog:     cfg.Sandbox.AccessLog,
		BankAPIKey:    cfg.Bank.APIKey,
		WebhookSecret: cfg.Sandbox.StripeWebhookSecret,
		Validator:     utils.NewValidator(),
		Logger:        zl,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		zl.Info("shutting down")
		_ = app.Shutdown()
	}()

	zl.Info("sandbox listening", zap.String("port", cfg.Sandbox.Port))
	if err := app.Listen(":" + cfg.Sandbox.Port); err != nil {
		zl.Fatal("listen", zap.Error(err))
	}
}
