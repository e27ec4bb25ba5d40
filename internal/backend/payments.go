package backend

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/internal/repository"
	"github.com/sefazor/storefront/pkg/payment"
	"github.com/sefazor/storefront/pkg/qrcode"
	"github.com/sefazor/storefront/pkg/utils"
	"go.uber.org/zap"
)

const (
	referencePrefix = "SF"
	referenceLength = 8
	qrImageSize     = 320
)

// CardCheckout opens a hosted card checkout.
type CardCheckout interface {
	CreateCheckoutSession(req payment.CheckoutRequest) (*payment.CheckoutSession, error)
}

type PaymentOptions struct {
	// PublicURL is the externally reachable base of the sandbox, used for QR image links.
	PublicURL string
	Expiry    time.Duration
}

type PaymentService struct {
	payments  *repository.PaymentRepository
	purchases *repository.PurchaseRepository
	users     *repository.UserRepository
	qr        *qrcode.QRService
	cards     CardCheckout
	opts      PaymentOptions
	logger    *zap.Logger
	now       func() time.Time
}

// NewPaymentService builds the payment service. cards may be nil, card payments are refused then.
func NewPaymentService(
	payments *repository.PaymentRepository,
	purchases *repository.PurchaseRepository,
	users *repository.UserRepository,
	qr *qrcode.QRService,
	cards CardCheckout,
	opts PaymentOptions,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Expiry <= 0 {
		opts.Expiry = 15 * time.Minute
	}
	opts.PublicURL = strings.TrimRight(opts.PublicURL, "/")
	return &PaymentService{
		payments:  payments,
		purchases: purchases,
		users:     users,
		qr:        qr,
		cards:     cards,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *PaymentService) Create(userID string, req models.CreatePaymentRequest) (*models.Payment, error) {
	purchase, err := s.purchases.GetByID(req.PurchaseID)
	if err != nil {
		return nil, lookup(err, "Purchase not found")
	}
	if purchase.UserID != userID {
		return nil, forbidden("Purchase belongs to another user")
	}
	if purchase.Status != models.PurchaseStatusPending {
		return nil, conflict("Purchase is not awaiting payment")
	}
	if math.Abs(purchase.Price-req.Amount) > 0.5 {
		return nil, badRequest("Amount does not match the purchase price")
	}

	p := &models.Payment{
		ID:            uuid.NewString(),
		PurchaseID:    purchase.ID,
		UserID:        userID,
		Amount:        purchase.Price,
		Method:        req.Method,
		Status:        models.PaymentStatusPending,
		ReferenceCode: utils.GenerateReferenceCode(referencePrefix, referenceLength),
	}

	switch req.Method {
	case models.PaymentMethodQRCode:
		p.QRCodeURL = s.opts.PublicURL + "/v1/api/payments/" + p.ID + "/qr.png"
	case models.PaymentMethodCard:
		if s.cards == nil {
			return nil, badRequest("Card payments are not available")
		}
		user, err := s.users.GetByID(userID)
		if err != nil {
			return nil, lookup(err, "User not found")
		}
		sess, err := s.cards.CreateCheckoutSession(payment.CheckoutRequest{
			CustomerEmail: user.Email,
			ProductName:   purchase.PackageName,
			Amount:        purchase.Price,
			Metadata: map[string]string{
				"payment_id":  p.ID,
				"purchase_id": purchase.ID,
				"user_id":     userID,
			},
		})
		if err != nil {
			s.logger.Error("checkout session failed", zap.String("purchase_id", purchase.ID), zap.Error(err))
			return nil, newError(http.StatusBadGateway, "Card checkout is unavailable")
		}
		p.StripeSessionID = sess.ID
		p.CheckoutURL = sess.URL
	default:
		return nil, badRequest("Unsupported payment method")
	}

	if err := s.payments.Create(p); err != nil {
		return nil, err
	}
	s.logger.Info("payment created",
		zap.String("payment_id", p.ID),
		zap.String("purchase_id", purchase.ID),
		zap.String("method", string(p.Method)),
	)
	return p, nil
}

// Check returns the payment's current state. Pending payments past the expiry window turn expired.
func (s *PaymentService) Check(userID string, req models.CheckPaymentRequest) (*models.Payment, error) {
	var (
		p   *models.Payment
		err error
	)
	if req.PaymentID != "" {
		p, err = s.payments.GetByID(req.PaymentID)
	} else {
		p, err = s.payments.GetByReference(req.ReferenceCode)
	}
	if err != nil {
		return nil, lookup(err, "Payment not found")
	}
	if p.UserID != userID {
		return nil, forbidden("Payment belongs to another user")
	}

	if p.Status == models.PaymentStatusPending && s.now().Sub(p.CreatedAt) > s.opts.Expiry {
		p.Status = models.PaymentStatusExpired
		if err := s.payments.Update(p); err != nil {
			return nil, err
		}
		s.logger.Info("payment expired", zap.String("payment_id", p.ID))
	}
	return p, nil
}

// Settle moves a pending payment to status. It stands in for the bank or card processor.
func (s *PaymentService) Settle(userID, paymentID string, status models.PaymentStatus) (*models.Payment, error) {
	p, err := s.payments.GetByID(paymentID)
	if err != nil {
		return nil, lookup(err, "Payment not found")
	}
	if p.UserID != userID {
		return nil, forbidden("Payment belongs to another user")
	}
	return s.transition(p, status)
}

func (s *PaymentService) transition(p *models.Payment, status models.PaymentStatus) (*models.Payment, error) {
	if !status.IsTerminal() {
		return nil, badRequest("Payments can only settle to success, failed or expired")
	}
	if p.Status == status {
		return p, nil
	}
	if p.Status != models.PaymentStatusPending {
		return nil, conflict("Payment is already settled")
	}
	p.Status = status
	if err := s.payments.Update(p); err != nil {
		return nil, err
	}
	s.logger.Info("payment settled", zap.String("payment_id", p.ID), zap.String("status", string(status)))
	return p, nil
}

// HandleCheckoutEvent applies a verified card checkout webhook.
func (s *PaymentService) HandleCheckoutEvent(event *payment.WebhookEvent) error {
	var status models.PaymentStatus
	switch event.Type {
	case payment.EventCheckoutCompleted:
		status = models.PaymentStatusSuccess
	case payment.EventCheckoutExpired:
		status = models.PaymentStatusExpired
	default:
		return nil
	}

	var (
		p   *models.Payment
		err = repository.ErrNotFound
	)
	if event.SessionID != "" {
		p, err = s.payments.GetByStripeSession(event.SessionID)
	}
	if errors.Is(err, repository.ErrNotFound) && event.Metadata["payment_id"] != "" {
		p, err = s.payments.GetByID(event.Metadata["payment_id"])
	}
	if err != nil {
		return lookup(err, "Payment not found")
	}
	_, err = s.transition(p, status)
	return err
}

// QRImage renders the transfer QR of a pending payment. The payload is the reference code.
func (s *PaymentService) QRImage(paymentID string) ([]byte, error) {
	p, err := s.payments.GetByID(paymentID)
	if err != nil {
		return nil, lookup(err, "Payment not found")
	}
	if p.Method != models.PaymentMethodQRCode {
		return nil, badRequest("Payment has no QR code")
	}
	return s.qr.GenerateQRCode(p.ReferenceCode, qrImageSize)
}
