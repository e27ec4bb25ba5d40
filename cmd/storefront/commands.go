package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/internal/service"
	"github.com/sefazor/storefront/internal/session"
	"github.com/sefazor/storefront/pkg/qrcode"
)

func newFlags(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlags("register", a.out)
	var req models.RegisterRequest
	fs.StringVar(&req.Username, "username", "", "username")
	fs.StringVar(&req.Password, "password", "", "password")
	fs.StringVar(&req.Email, "email", "", "email address")
	fs.StringVar(&req.FullName, "name", "", "full name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.auth.Register(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s (%s). Log in with: storefront login -username %s\n", user.Username, user.ID, user.Username)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlags("login", a.out)
	var req models.LoginRequest
	fs.StringVar(&req.Username, "username", "", "username")
	fs.StringVar(&req.Password, "password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	route, err := a.auth.Login(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s, opening %s\n", req.Username, route)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	user, err := a.auth.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s) role=%s route=%s theme=%s\n",
		user.Username, user.ID, user.Role, a.sessions.StartRoute(ctx), a.sessions.Theme(ctx))
	return nil
}

func (a *app) theme(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, a.sessions.Theme(ctx))
		return nil
	}
	theme := args[0]
	if theme != session.ThemeLight && theme != session.ThemeDark {
		return fmt.Errorf("theme must be %s or %s", session.ThemeLight, session.ThemeDark)
	}
	return a.sessions.SetTheme(ctx, theme)
}

func (a *app) listPackages(ctx context.Context, args []string) error {
	fs := newFlags("packages", a.out)
	keyword := fs.String("keyword", "", "filter by name")
	premium := fs.Bool("premium", false, "only premium packages")
	pageNum := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	page := models.PageRequest{PageNum: *pageNum, PageSize: 10}
	var (
		result *models.Page[models.Package]
		err    error
	)
	if *premium {
		result, err = a.packages.Premium(ctx, page)
	} else {
		result, err = a.packages.Search(ctx, models.PackageSearchCondition{Keyword: *keyword}, page)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tPREMIUM\tMODEL")
	for _, p := range result.PageData {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", p.ID, p.Name, a.packages.PriceLabel(p.Price), p.IsPremium, p.AIModel)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "page %d/%d, %d packages\n", result.PageInfo.PageNum, result.PageInfo.TotalPages, result.PageInfo.TotalItems)
	return nil
}

func (a *app) access(ctx context.Context, args []string) error {
	fs := newFlags("access", a.out)
	id := fs.String("id", "", "package id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}

	decision := a.packages.CheckAccess(ctx, *id)
	if decision.Route == service.AccessRouteFeature {
		fmt.Fprintf(a.out, "Access granted: %s (model %s)\n", decision.Feature, decision.AIModel)
		return nil
	}
	fmt.Fprintf(a.out, "%s\nBuy it with: storefront buy -id %s\n", decision.Message, *id)
	return nil
}

func (a *app) buy(ctx context.Context, args []string) error {
	fs := newFlags("buy", a.out)
	id := fs.String("id", "", "package id")
	method := fs.String("method", string(models.PaymentMethodQRCode), "qr_code or card")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}

	ps, err := a.checkout.BuyPackage(ctx, *id, models.PaymentMethod(*method))
	if errors.Is(err, service.ErrAlreadyOwned) {
		fmt.Fprintln(a.out, "You already own this package.")
		return nil
	}
	if err != nil {
		return err
	}

	p := ps.Payment()
	fmt.Fprintf(a.out, "Payment %s for %s, reference %s\n", p.ID, a.vnd(p.Amount), p.ReferenceCode)
	switch {
	case ps.ShowQR():
		if art, err := qrcode.Terminal(p.QRCodeURL); err == nil {
			fmt.Fprint(a.out, art)
		}
		fmt.Fprintf(a.out, "Scan to pay, or open %s\n", p.QRCodeURL)
	case p.CheckoutURL != "":
		fmt.Fprintf(a.out, "Complete the card payment at %s\n", p.CheckoutURL)
	}
	fmt.Fprintf(a.out, "Waiting for payment, checking every %s. Ctrl-C to stop.\n", a.cfg.Poll.Interval)

	result, err := ps.Wait(ctx)
	if err != nil {
		// Interrupted: stop polling, the payment stays open on the backend.
		ps.Cancel()
		fmt.Fprintln(a.out, "Stopped waiting. The payment can still be completed later.")
		return nil
	}
	return a.printCheckout(result)
}

func (a *app) printCheckout(result service.CheckoutResult) error {
	switch result.Outcome {
	case service.OutcomePaid:
		fmt.Fprintln(a.out, result.Message)
		return nil
	case service.OutcomePaidNotFinalized:
		return errors.New(service.NotFinalizedMessage)
	case service.OutcomeFailed:
		return errors.New("Payment failed.")
	case service.OutcomeExpired:
		return errors.New("Payment expired. Please try again.")
	case service.OutcomeTimedOut:
		return fmt.Errorf("No payment confirmation after %d checks.", result.Attempts)
	default:
		fmt.Fprintln(a.out, "Payment canceled.")
		return nil
	}
}

func (a *app) history(ctx context.Context, args []string) error {
	fs := newFlags("history", a.out)
	status := fs.String("status", "", "pending, completed or failed")
	keyword := fs.String("keyword", "", "filter by package name")
	pageNum := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := a.purchases.History(ctx,
		models.PurchaseSearchCondition{Keyword: *keyword, Status: strings.ToLower(*status)},
		models.PageRequest{PageNum: *pageNum, PageSize: 10})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PURCHASE\tPACKAGE\tPRICE\tSTATUS\tDATE")
	for _, p := range result.PageData {
		date := "-"
		if p.PurchaseDate != nil {
			date = p.PurchaseDate.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.PackageName, a.vnd(p.Price), p.Status, date)
	}
	return tw.Flush()
}
