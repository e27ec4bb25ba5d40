package service

import (
	"context"
	"net/http"

	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/pkg/utils"
	"go.uber.org/zap"
)

type PaymentService struct {
	api       API
	validator StructValidator
	logger    *zap.Logger
}

func NewPaymentService(api API, validate StructValidator, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = utils.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		api:       api,
		validator: validate,
		logger:    logger,
	}
}

// Create opens a payment for a purchase. The backend answers with the
// reference code and, for qr_code payments, the image to scan.
func (s *PaymentService) Create(ctx context.Context, req models.CreatePaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var payment models.Payment
	if _, err := s.api.Do(ctx, http.MethodPost, endpoint("payments"), req, &payment); err != nil {
		return nil, err
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	if payment.PurchaseID == "" {
		payment.PurchaseID = req.PurchaseID
	}

	s.logger.Info("payment created",
		zap.String("payment_id", payment.ID),
		zap.String("purchase_id", payment.PurchaseID),
		zap.String("reference_code", payment.ReferenceCode),
		zap.String("method", string(payment.Method)),
	)
	return &payment, nil
}

// Check reads the current state of a payment.
func (s *PaymentService) Check(ctx context.Context, req models.CheckPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var payment models.Payment
	if _, err := s.api.Do(ctx, http.MethodPost, endpoint("payments", "check"), req, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// ShowQR reports whether the QR image should be displayed for p. A qr_code
// payment without an image is not an error, there is just nothing to show.
func ShowQR(p *models.Payment) bool {
	if p == nil || p.Method != models.PaymentMethodQRCode || p.QRCodeURL == "" {
		return false
	}
	return p.Status == "" || p.Status == models.PaymentStatusPending
}
