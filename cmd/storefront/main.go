package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sefazor/storefront/internal/config"
	"github.com/sefazor/storefront/internal/service"
	"github.com/sefazor/storefront/internal/session"
	"github.com/sefazor/storefront/pkg/apiclient"
	"github.com/sefazor/storefront/pkg/bank"
	"github.com/sefazor/storefront/pkg/email"
	"github.com/sefazor/storefront/pkg/logger"
	"github.com/sefazor/storefront/pkg/qrcode"
	"github.com/sefazor/storefront/pkg/receipt"
	"github.com/sefazor/storefront/pkg/storage"
	"github.com/sefazor/storefront/pkg/utils"
	"go.uber.org/zap"
)

const usage = `usage: storefront <command> [flags]

account:   register, login, logout, whoami, theme
catalog:   packages, access, buy, history
pos:       pos foods|cart|add|update|remove|clear|order|orders|pay|dashboard
receipts:  receipt
`

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer

	store    session.Store
	sessions *session.Manager
	api      *apiclient.Client

	auth      *service.AuthService
	packages  *service.PackageService
	purchases *service.PurchaseService
	checkout  *service.CheckoutService
	pos       *service.PosService
	receipts  *service.ReceiptService
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	zl, err := logger.NewConsole(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, zl, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer a.close()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", apiclient.Message(err))
		os.Exit(1)
	}
}

func newApp(ctx context.Context, cfg *config.Config, zl *zap.Logger, out io.Writer) (*app, error) {
	store, err := openStore(ctx, cfg.Session)
	if err != nil {
		return nil, err
	}
	sessions := session.NewManager(store, zl)

	api, err := apiclient.New(apiclient.Options{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.API.Timeout,
		Tokens:   sessions,
		Notifier: apiclient.NotifierFunc(func(m string) { zl.Debug("api error", zap.String("message", m)) }),
		Logger:   zl,
	})
	if err != nil {
		return nil, err
	}

	validate := utils.NewValidator()
	poller := service.NewPoller(service.PollConfig{
		Interval:    cfg.Poll.Interval,
		MaxAttempts: cfg.Poll.MaxAttempts,
		Timeout:     cfg.Poll.Timeout,
	}, zl)
	packages := service.NewPackageService(api, sessions, cfg.Locale, zl)
	purchases := service.NewPurchaseService(api, packages, sessions, validate, zl)
	payments := service.NewPaymentService(api, validate, zl)

	var feed service.BankFeed
	if bc, err := bank.NewClient(bank.Options{BaseURL: cfg.Bank.BaseURL, APIKey: cfg.Bank.APIKey}); err == nil {
		feed = bc
	} else if !errors.Is(err, bank.ErrNoAPIKey) {
		return nil, err
	}
	receiver := qrcode.VietQR{
		BankID:      cfg.Bank.BankID,
		AccountNo:   cfg.Bank.AccountNo,
		Template:    cfg.Bank.Template,
		AccountName: cfg.Bank.AccountName,
	}
	posPoller := service.NewPoller(service.PollConfig{
		Interval:    cfg.Poll.PosInterval,
		MaxAttempts: cfg.Poll.MaxAttempts,
		Timeout:     cfg.Poll.Timeout,
	}, zl)

	var receiptStore storage.StorageService
	if cfg.R2Enabled() {
		r2, err := storage.NewCloudflareStorage(ctx, storage.R2Options{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			Bucket:          cfg.R2.Bucket,
			PublicURL:       cfg.R2.PublicURL,
		}, zl)
		if err != nil {
			return nil, err
		}
		receiptStore = r2
	}
	var mailer service.ReceiptMailer
	if cfg.EmailEnabled() {
		es, err := email.NewEmailService(cfg.Email.APIKey, cfg.Email.From, cfg.Email.FromName, zl)
		if err != nil {
			return nil, err
		}
		mailer = es
	}

	return &app{
		cfg:       cfg,
		logger:    zl,
		out:       out,
		store:     store,
		sessions:  sessions,
		api:       api,
		auth:      service.NewAuthService(api, sessions, validate, zl),
		packages:  packages,
		purchases: purchases,
		checkout:  service.NewCheckoutService(packages, purchases, payments, sessions, poller, zl),
		pos:       service.NewPosService(api, feed, receiver, posPoller, validate, zl),
		receipts: service.NewReceiptService(cfg.ReceiptsDir, receiptStore, mailer,
			receipt.Options{FontPath: cfg.ReceiptFont, Locale: cfg.Locale}, zl),
	}, nil
}

func openStore(ctx context.Context, cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Backend {
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		store, err := session.OpenRedisStore(ctx, cfg.RedisURL, cfg.KeyPrefix, cfg.DeviceID)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite", "":
		store, err := session.OpenSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

func (a *app) close() {
	if c, ok := a.store.(io.Closer); ok {
		_ = c.Close()
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "theme":
		return a.theme(ctx, args)
	case "packages":
		return a.listPackages(ctx, args)
	case "access":
		return a.access(ctx, args)
	case "buy":
		return a.buy(ctx, args)
	case "history":
		return a.history(ctx, args)
	case "pos":
		return a.runPos(ctx, args)
	case "receipt":
		return a.receipt(ctx, args)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}
