package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sefazor/storefront/internal/models"
	"go.uber.org/zap"
)

const (
	NotFinalizedMessage = "Payment received but not finalized. Please contact support."

	defaultCompletionTimeout = 30 * time.Second
)

var ErrAlreadyOwned = errors.New("package already purchased")

// Outcome is how a checkout ended, as far as the user is concerned.
type Outcome string

const (
	OutcomePaid             Outcome = "paid"
	OutcomePaidNotFinalized Outcome = "paid_not_finalized"
	OutcomeFailed           Outcome = "failed"
	OutcomeExpired          Outcome = "expired"
	OutcomeTimedOut         Outcome = "timed_out"
	OutcomeCanceled         Outcome = "canceled"
)

type CheckoutResult struct {
	Outcome     Outcome
	Payment     models.Payment
	PurchaseID  string
	UpdatedRole models.Role
	Attempts    int
	Message     string
	Err         error
}

type CheckoutService struct {
	packages  *PackageService
	purchases *PurchaseService
	payments  *PaymentService
	users     UserSource
	poller    *Poller
	logger    *zap.Logger

	completionTimeout time.Duration
}

func NewCheckoutService(packages *PackageService, purchases *PurchaseService, payments *PaymentService, users UserSource, poller *Poller, logger *zap.Logger) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{
		packages:          packages,
		purchases:         purchases,
		payments:          payments,
		users:             users,
		poller:            poller,
		logger:            logger,
		completionTimeout: defaultCompletionTimeout,
	}
}

type BeginRequest struct {
	PurchaseID string
	Amount     float64
	Method     models.PaymentMethod
}

// Begin opens a payment for an existing purchase and starts watching it.
func (s *CheckoutService) Begin(ctx context.Context, req BeginRequest) (*PaymentSession, error) {
	userID, err := s.users.UserID(ctx)
	if err != nil {
		return nil, err
	}

	payment, err := s.payments.Create(ctx, models.CreatePaymentRequest{
		UserID:     userID,
		PurchaseID: req.PurchaseID,
		Amount:     req.Amount,
		Method:     req.Method,
	})
	if err != nil {
		return nil, err
	}

	ps := &PaymentSession{
		service:    s,
		userID:     userID,
		purchaseID: req.PurchaseID,
		payment:    *payment,
		done:       make(chan struct{}),
	}
	if !payment.IsTerminal() {
		ps.handle = s.poller.Start(ctx, ps.check)
	}
	go ps.settle(ctx)
	return ps, nil
}

// BuyPackage runs the whole purchase path for a catalog entry: access check,
// purchase resolution, then payment.
func (s *CheckoutService) BuyPackage(ctx context.Context, packageID string, method models.PaymentMethod) (*PaymentSession, error) {
	if decision := s.packages.CheckAccess(ctx, packageID); decision.Route == AccessRouteFeature {
		return nil, ErrAlreadyOwned
	}

	userID, err := s.users.UserID(ctx)
	if err != nil {
		return nil, err
	}

	resolved := s.purchases.ResolveByID(ctx, userID, packageID)
	if !resolved.OK {
		return nil, errors.New(resolved.Message)
	}
	if resolved.Data.Status == models.PurchaseStatusCompleted {
		return nil, ErrAlreadyOwned
	}

	return s.Begin(ctx, BeginRequest{
		PurchaseID: resolved.Data.ID,
		Amount:     resolved.Data.Price,
		Method:     method,
	})
}

// PaymentSession is one payment being watched until it settles.
type PaymentSession struct {
	service    *CheckoutService
	userID     string
	purchaseID string
	handle     *PollHandle

	settleOnce sync.Once
	done       chan struct{}

	mu      sync.Mutex
	payment models.Payment
	result  CheckoutResult
}

func (ps *PaymentSession) check(ctx context.Context) (models.PaymentStatus, error) {
	ps.mu.Lock()
	req := models.CheckPaymentRequest{
		UserID:        ps.userID,
		PaymentID:     ps.payment.ID,
		ReferenceCode: ps.payment.ReferenceCode,
	}
	ps.mu.Unlock()

	latest, err := ps.service.payments.Check(ctx, req)
	if err != nil {
		return "", err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	if latest.Status != "" {
		ps.payment.Status = latest.Status
	}
	if latest.QRCodeURL != "" {
		ps.payment.QRCodeURL = latest.QRCodeURL
	}
	if latest.CheckoutURL != "" {
		ps.payment.CheckoutURL = latest.CheckoutURL
	}
	return ps.payment.Status, nil
}

func (ps *PaymentSession) settle(ctx context.Context) {
	ps.settleOnce.Do(func() {
		defer close(ps.done)

		res := PollResult{Status: ps.Payment().Status}
		var err error
		if ps.handle != nil {
			res, err = ps.handle.Wait(context.Background())
		}

		result := CheckoutResult{
			Payment:    ps.Payment(),
			PurchaseID: ps.purchaseID,
			Attempts:   res.Attempts,
			Err:        err,
		}
		switch {
		case err == nil && res.Status == models.PaymentStatusSuccess:
			ps.complete(ctx, &result)
		case res.Status == models.PaymentStatusFailed:
			result.Outcome = OutcomeFailed
			result.Message = "Payment failed."
		case res.Status == models.PaymentStatusExpired:
			result.Outcome = OutcomeExpired
			result.Message = "Payment expired."
		case errors.Is(err, ErrPollExhausted):
			result.Outcome = OutcomeTimedOut
			result.Message = "Payment is still pending. Check again later."
		default:
			result.Outcome = OutcomeCanceled
			result.Message = "Payment canceled."
		}

		ps.mu.Lock()
		ps.result = result
		ps.mu.Unlock()
	})
}

func (ps *PaymentSession) complete(ctx context.Context, result *CheckoutResult) {
	s := ps.service
	// The user may have left the screen; the purchase still has to be finalized.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.completionTimeout)
	defer cancel()

	completion, err := s.purchases.Complete(cctx, ps.purchaseID)
	if err != nil && !(errors.Is(err, ErrRoleNotPersisted) && completion != nil) {
		s.logger.Error("payment succeeded but purchase completion failed",
			zap.String("purchase_id", ps.purchaseID),
			zap.String("payment_id", result.Payment.ID),
			zap.Error(err),
		)
		result.Outcome = OutcomePaidNotFinalized
		result.Message = NotFinalizedMessage
		result.Err = err
		return
	}

	result.Outcome = OutcomePaid
	result.UpdatedRole = completion.UpdatedRole
	result.Err = err
	result.Message = "Payment successful!"
	if completion.UpdatedRole == models.RolePremium {
		result.Message = "Payment successful! Your account is now premium."
	}
}

func (ps *PaymentSession) Payment() models.Payment {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.payment
}

func (ps *PaymentSession) ShowQR() bool {
	p := ps.Payment()
	return ShowQR(&p)
}

// Refresh checks the payment right away, sharing any check already in flight.
func (ps *PaymentSession) Refresh(ctx context.Context) (models.PaymentStatus, error) {
	if ps.handle == nil {
		return ps.Payment().Status, nil
	}
	return ps.handle.CheckNow(ctx)
}

// Cancel stops watching the payment. A purchase already paid still completes.
func (ps *PaymentSession) Cancel() {
	if ps.handle != nil {
		ps.handle.Cancel()
	}
}

func (ps *PaymentSession) Done() <-chan struct{} {
	return ps.done
}

// Wait blocks until the session settled and returns how it ended.
func (ps *PaymentSession) Wait(ctx context.Context) (CheckoutResult, error) {
	select {
	case <-ps.done:
	case <-ctx.Done():
		return CheckoutResult{}, ctx.Err()
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.result, nil
}
