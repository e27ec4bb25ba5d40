package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/pkg/email"
	"github.com/sefazor/storefront/pkg/receipt"
	"github.com/sefazor/storefront/pkg/storage"
	"github.com/sefazor/storefront/pkg/utils"
	"go.uber.org/zap"
)

type ReceiptMailer interface {
	SendReceiptEmail(to string, data email.ReceiptEmail) error
}

type ReceiptService struct {
	dir     string
	storage storage.StorageService
	mailer  ReceiptMailer
	render  receipt.Options
	logger  *zap.Logger
}

// NewReceiptService writes receipts under dir. store and mailer are optional.
func NewReceiptService(dir string, store storage.StorageService, mailer ReceiptMailer, render receipt.Options, logger *zap.Logger) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptService{
		dir:     dir,
		storage: store,
		mailer:  mailer,
		render:  render,
		logger:  logger,
	}
}

// BuildReceipt assembles the receipt of a paid order. A zero tendered amount
// means the exact total was paid, as with a bank transfer.
func BuildReceipt(order models.Order, payment models.PosPayment, tendered, change float64) receipt.Receipt {
	if tendered == 0 {
		tendered = order.TotalPrice
	}
	lines := make([]receipt.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, receipt.Line{Name: item.Name, Quantity: item.Quantity, Price: item.Price})
	}
	return receipt.Receipt{
		OrderID:      order.ID,
		PaymentID:    payment.ID,
		Method:       MethodLabel(payment.Method),
		Amount:       order.TotalPrice,
		CustomerPaid: tendered,
		Change:       change,
		Items:        lines,
		IssuedAt:     time.Now(),
	}
}

type ShareOptions struct {
	Upload  bool
	EmailTo string
}

type SharedReceipt struct {
	Path    string
	URL     string
	Emailed bool
}

// Share renders rc to a local PDF and hands it out the requested ways. The
// local file is always written first; a later failure still returns it.
func (s *ReceiptService) Share(ctx context.Context, rc receipt.Receipt, opts ShareOptions) (*SharedReceipt, error) {
	var buf bytes.Buffer
	if err := receipt.Render(&buf, rc, s.render); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create receipts dir: %w", err)
	}
	path := filepath.Join(s.dir, rc.Filename())
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write receipt: %w", err)
	}
	shared := &SharedReceipt{Path: path}
	s.logger.Info("receipt written", zap.String("order_id", rc.OrderID), zap.String("path", path))

	if opts.Upload {
		if s.storage == nil {
			return shared, errors.New("receipt upload is not configured")
		}
		url, err := s.storage.Upload(ctx, "receipts/"+rc.Filename(), bytes.NewReader(buf.Bytes()), "application/pdf")
		if err != nil {
			return shared, err
		}
		shared.URL = url
	}

	if opts.EmailTo != "" {
		if s.mailer == nil {
			return shared, errors.New("receipt email is not configured")
		}
		if err := s.mailer.SendReceiptEmail(opts.EmailTo, s.emailData(rc, shared.URL)); err != nil {
			return shared, err
		}
		shared.Emailed = true
	}
	return shared, nil
}

func (s *ReceiptService) emailData(rc receipt.Receipt, url string) email.ReceiptEmail {
	locale := s.render.Locale
	data := email.ReceiptEmail{
		OrderID:    rc.OrderID,
		PaymentID:  rc.PaymentID,
		Method:     rc.Method,
		Amount:     utils.FormatVND(rc.Amount, locale),
		Paid:       utils.FormatVND(rc.CustomerPaid, locale),
		Change:     utils.FormatVND(rc.Change, locale),
		ReceiptURL: url,
	}
	for _, item := range rc.Items {
		data.Items = append(data.Items, email.ReceiptLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Total:    utils.FormatVND(item.Total(), locale),
		})
	}
	return data
}
