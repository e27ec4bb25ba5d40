package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/internal/service"
	"github.com/sefazor/storefront/pkg/qrcode"
	"github.com/sefazor/storefront/pkg/utils"
)

func (a *app) runPos(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: storefront pos foods|cart|add|update|remove|clear|order|orders|pay|dashboard")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "foods":
		return a.foods(ctx, rest)
	case "cart":
		return a.showCart(ctx)
	case "add", "update":
		fs := newFlags(sub, a.out)
		food := fs.String("food", "", "food id")
		qty := fs.Int("qty", 1, "quantity")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		var (
			cart *models.Cart
			err  error
		)
		if sub == "add" {
			cart, err = a.pos.AddToCart(ctx, *food, *qty)
		} else {
			cart, err = a.pos.UpdateCart(ctx, *food, *qty)
		}
		if err != nil {
			return err
		}
		return a.printCart(cart)
	case "remove":
		fs := newFlags(sub, a.out)
		food := fs.String("food", "", "food id")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		cart, err := a.pos.RemoveFromCart(ctx, *food)
		if err != nil {
			return err
		}
		return a.printCart(cart)
	case "clear":
		if err := a.pos.ClearCart(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Cart cleared")
		return nil
	case "order":
		return a.placeOrder(ctx)
	case "orders":
		return a.listOrders(ctx)
	case "pay":
		return a.pay(ctx, rest)
	case "dashboard":
		return a.dashboard(ctx)
	default:
		return fmt.Errorf("unknown pos command %q", sub)
	}
}

func (a *app) foods(ctx context.Context, args []string) error {
	fs := newFlags("foods", a.out)
	keyword := fs.String("keyword", "", "filter by name")
	pageNum := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	page, err := a.pos.SearchFoods(ctx, *keyword, models.PageRequest{PageNum: *pageNum, PageSize: 20})
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE")
	for _, f := range page.PageData {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.ID, f.Name, a.vnd(f.Price))
	}
	return tw.Flush()
}

func (a *app) showCart(ctx context.Context) error {
	cart, err := a.pos.GetCart(ctx)
	if err != nil {
		return err
	}
	return a.printCart(cart)
}

func (a *app) printCart(cart *models.Cart) error {
	if cart == nil || len(cart.Items) == 0 {
		fmt.Fprintln(a.out, "Cart is empty")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "CART %s\t\t\n", cart.ID)
	for _, item := range cart.Items {
		fmt.Fprintf(tw, "%s\tx%d\t%s\n", item.Name, item.Quantity, a.vnd(item.LineTotal()))
	}
	fmt.Fprintf(tw, "TOTAL\t\t%s\n", a.vnd(cart.TotalPrice))
	return tw.Flush()
}

func (a *app) placeOrder(ctx context.Context) error {
	cart, err := a.pos.GetCart(ctx)
	if err != nil {
		return err
	}
	if cart == nil {
		return errors.New("Cart is empty")
	}
	order, err := a.pos.CreateOrder(ctx, cart.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order %s created, total %s\nPay with: storefront pos pay -order %s\n", order.ID, a.vnd(order.TotalPrice), order.ID)
	return nil
}

func (a *app) listOrders(ctx context.Context) error {
	orders, err := a.pos.ListOrders(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tITEMS\tTOTAL\tSTATUS\tCREATED")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", o.ID, len(o.Items), a.vnd(o.TotalPrice), o.Status, o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func (a *app) pay(ctx context.Context, args []string) error {
	fs := newFlags("pay", a.out)
	orderID := fs.String("order", "", "order id")
	method := fs.String("method", string(models.PosMethodCash), "cash or qr_code")
	tendered := fs.Float64("tendered", 0, "cash handed over by the customer")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *orderID == "" {
		return errors.New("-order is required")
	}

	order, err := a.pos.GetOrder(ctx, *orderID)
	if err != nil {
		return err
	}
	if order.Status == models.OrderStatusPaid {
		fmt.Fprintf(a.out, "Order %s is already paid\n", order.ID)
		return nil
	}

	switch models.PosPaymentMethod(*method) {
	case models.PosMethodCash:
		// Check the cash before anything is created on the backend.
		if _, err := service.ComputeChange(order.TotalPrice, *tendered); err != nil {
			return errors.New(service.InsufficientAmountMessage)
		}
		payment, err := a.pos.ProcessPayment(ctx, *order, models.PosMethodCash)
		if err != nil {
			return err
		}
		res, err := a.pos.PayCash(ctx, *order, *payment, *tendered)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Paid %s in cash, change %s\n", a.vnd(res.Tendered), a.vnd(res.Change))
		fmt.Fprintf(a.out, "Receipt: storefront receipt -order %s -tendered %.0f\n", order.ID, res.Tendered)
		return nil

	case models.PosMethodQRCode:
		payment, err := a.pos.ProcessPayment(ctx, *order, models.PosMethodQRCode)
		if err != nil {
			return err
		}
		url := a.pos.QRPaymentURL(*order)
		if art, err := qrcode.Terminal(url); err == nil {
			fmt.Fprint(a.out, art)
		}
		fmt.Fprintf(a.out, "Transfer %s, QR image: %s\n", a.vnd(order.TotalPrice), url)

		watch, err := a.pos.WatchQR(ctx, *order, *payment)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Watching the bank feed every %s. Ctrl-C to stop.\n", a.cfg.Poll.PosInterval)
		res, err := watch.Wait(ctx)
		if err != nil {
			watch.Cancel()
			fmt.Fprintln(a.out, "Stopped watching. The order stays open.")
			return nil
		}
		if !res.Paid {
			if res.Err != nil {
				return res.Err
			}
			return fmt.Errorf("No transfer found after %d checks.", res.Attempts)
		}
		fmt.Fprintf(a.out, "Transfer received, order %s paid\n", order.ID)
		return nil

	default:
		return fmt.Errorf("unknown payment method %q", *method)
	}
}

func (a *app) dashboard(ctx context.Context) error {
	summary, err := a.pos.Dashboard(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Paid orders: %d\nRevenue: %s\n", summary.TotalPaidOrders, a.vnd(summary.TotalRevenue))
	for _, m := range []models.PosPaymentMethod{models.PosMethodCash, models.PosMethodQRCode} {
		fmt.Fprintf(a.out, "%s: %d\n", service.MethodLabel(m), summary.MethodCounts[m])
	}
	if len(summary.RecentPaidOrders) == 0 {
		return nil
	}
	fmt.Fprintln(a.out, "Recent:")
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, o := range summary.RecentPaidOrders {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", o.ID, a.vnd(o.TotalPrice), o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func (a *app) receipt(ctx context.Context, args []string) error {
	fs := newFlags("receipt", a.out)
	orderID := fs.String("order", "", "order id")
	tendered := fs.Float64("tendered", 0, "cash handed over, 0 for exact payment")
	upload := fs.Bool("upload", false, "upload the PDF to object storage")
	emailTo := fs.String("email", "", "email the receipt to this address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *orderID == "" {
		return errors.New("-order is required")
	}

	order, err := a.pos.GetOrder(ctx, *orderID)
	if err != nil {
		return err
	}
	payment, err := a.paidPayment(ctx, order.ID)
	if err != nil {
		return err
	}

	var change float64
	if *tendered > 0 {
		if change, err = service.ComputeChange(order.TotalPrice, *tendered); err != nil {
			return errors.New(service.InsufficientAmountMessage)
		}
	}

	shared, err := a.receipts.Share(ctx, service.BuildReceipt(*order, *payment, *tendered, change),
		service.ShareOptions{Upload: *upload, EmailTo: *emailTo})
	if shared != nil {
		fmt.Fprintf(a.out, "Receipt saved to %s\n", shared.Path)
		if shared.URL != "" {
			fmt.Fprintf(a.out, "Uploaded: %s\n", shared.URL)
		}
		if shared.Emailed {
			fmt.Fprintf(a.out, "Emailed to %s\n", *emailTo)
		}
	}
	return err
}

func (a *app) paidPayment(ctx context.Context, orderID string) (*models.PosPayment, error) {
	payments, err := a.pos.ListPayments(ctx)
	if err != nil {
		return nil, err
	}
	for i := range payments {
		if payments[i].OrderID == orderID && payments[i].Status == models.PosPaymentPaid {
			return &payments[i], nil
		}
	}
	return nil, fmt.Errorf("order %s has no paid payment", orderID)
}

func (a *app) vnd(amount float64) string {
	return utils.FormatVND(amount, a.cfg.Locale)
}
