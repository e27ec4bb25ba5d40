package service

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/pkg/bank"
	"github.com/sefazor/storefront/pkg/qrcode"
	"github.com/sefazor/storefront/pkg/utils"
	"go.uber.org/zap"
)

const (
	InsufficientAmountMessage = "The amount provided is insufficient."

	recentOrdersLimit = 5
)

var (
	ErrInsufficientAmount = errors.New("the amount provided is insufficient")
	ErrNoBankFeed         = errors.New("bank feed is not configured")
)

// BankFeed finds the transfer paying an order.
type BankFeed interface {
	FindPayment(ctx context.Context, m bank.Match) (*models.BankTransaction, error)
}

type PosService struct {
	api       API
	bank      BankFeed
	receiver  qrcode.VietQR
	poller    *Poller
	validator StructValidator
	logger    *zap.Logger
}

func NewPosService(api API, feed BankFeed, receiver qrcode.VietQR, poller *Poller, validate StructValidator, logger *zap.Logger) *PosService {
	if validate == nil {
		validate = utils.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PosService{
		api:       api,
		bank:      feed,
		receiver:  receiver,
		poller:    poller,
		validator: validate,
		logger:    logger,
	}
}

func (s *PosService) SearchFoods(ctx context.Context, keyword string, page models.PageRequest) (*models.Page[models.Food], error) {
	req := models.SearchRequest[models.FoodSearchCondition]{
		SearchCondition: models.FoodSearchCondition{Keyword: keyword},
		PageInfo:        page.Normalize(),
	}
	var out models.Page[models.Food]
	if _, err := s.api.Do(ctx, http.MethodPost, endpoint("foods", "search"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PosService) AddToCart(ctx context.Context, foodID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, errors.New("quantity must be at least 1")
	}
	return s.cartRequest(ctx, http.MethodPost, endpoint("cart"), models.CartItemRequest{FoodID: foodID, Quantity: quantity})
}

// UpdateCart sets the quantity of a cart line; zero removes it.
func (s *PosService) UpdateCart(ctx context.Context, foodID string, quantity int) (*models.Cart, error) {
	return s.cartRequest(ctx, http.MethodPut, endpoint("cart"), models.CartItemRequest{FoodID: foodID, Quantity: quantity})
}

func (s *PosService) RemoveFromCart(ctx context.Context, foodID string) (*models.Cart, error) {
	return s.cartRequest(ctx, http.MethodDelete, endpoint("cart"), models.CartItemRequest{FoodID: foodID})
}

func (s *PosService) cartRequest(ctx context.Context, method, path string, req models.CartItemRequest) (*models.Cart, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	var cart models.Cart
	if _, err := s.api.Do(ctx, method, path, req, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetCart returns the open cart, empty when the user has none yet.
func (s *PosService) GetCart(ctx context.Context) (*models.Cart, error) {
	var cart models.Cart
	if _, err := s.api.DoNullable(ctx, http.MethodGet, endpoint("cart"), nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *PosService) GetCartByID(ctx context.Context, cartID string) (*models.Cart, error) {
	var cart models.Cart
	if _, err := s.api.Do(ctx, http.MethodGet, endpoint("cart", cartID), nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *PosService) ClearCart(ctx context.Context) error {
	_, err := s.api.Do(ctx, http.MethodDelete, endpoint("cart", "clear"), nil, nil)
	return err
}

func (s *PosService) CreateOrder(ctx context.Context, cartID string) (*models.Order, error) {
	req := models.CreateOrderRequest{CartID: cartID}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	var order models.Order
	if _, err := s.api.Do(ctx, http.MethodPost, endpoint("orders"), req, &order); err != nil {
		return nil, err
	}
	s.logger.Info("order created", zap.String("order_id", order.ID), zap.Float64("total", order.TotalPrice))
	return &order, nil
}

func (s *PosService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	if _, err := s.api.Do(ctx, http.MethodGet, endpoint("orders", orderID), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *PosService) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if _, err := s.api.DoNullable(ctx, http.MethodGet, endpoint("orders"), nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ProcessPayment opens a pending payment for the order total.
func (s *PosService) ProcessPayment(ctx context.Context, order models.Order, method models.PosPaymentMethod) (*models.PosPayment, error) {
	req := models.ProcessPaymentRequest{OrderID: order.ID, Amount: order.TotalPrice, Method: method}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	var payment models.PosPayment
	if _, err := s.api.Do(ctx, http.MethodPost, endpoint("pos", "payments"), req, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *PosService) MarkPaid(ctx context.Context, paymentID string, method models.PosPaymentMethod) (*models.PosPayment, error) {
	req := models.UpdatePosPaymentRequest{Status: models.PosPaymentPaid, Method: method}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	var payment models.PosPayment
	if _, err := s.api.Do(ctx, http.MethodPut, endpoint("pos", "payments", paymentID), req, &payment); err != nil {
		return nil, err
	}
	s.logger.Info("pos payment marked paid",
		zap.String("payment_id", paymentID),
		zap.String("order_id", payment.OrderID),
		zap.String("method", string(method)),
	)
	return &payment, nil
}

func (s *PosService) ListPayments(ctx context.Context) ([]models.PosPayment, error) {
	var payments []models.PosPayment
	if _, err := s.api.DoNullable(ctx, http.MethodGet, endpoint("pos", "payments"), nil, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// ComputeChange returns what to hand back for a cash payment of amount.
func ComputeChange(amount, tendered float64) (float64, error) {
	if tendered < amount {
		return 0, ErrInsufficientAmount
	}
	return tendered - amount, nil
}

type CashResult struct {
	Payment  models.PosPayment
	Tendered float64
	Change   float64
}

// PayCash settles payment with the cash the customer handed over. Nothing is
// sent when the cash does not cover the order.
func (s *PosService) PayCash(ctx context.Context, order models.Order, payment models.PosPayment, tendered float64) (*CashResult, error) {
	change, err := ComputeChange(order.TotalPrice, tendered)
	if err != nil {
		return nil, err
	}
	paid, err := s.MarkPaid(ctx, payment.ID, models.PosMethodCash)
	if err != nil {
		return nil, err
	}
	return &CashResult{Payment: *paid, Tendered: tendered, Change: change}, nil
}

// QRPaymentURL is the transfer QR image for the order total.
func (s *PosService) QRPaymentURL(order models.Order) string {
	return s.receiver.URL(order.TotalPrice, qrcode.OrderReference(order.ID))
}

type QRResult struct {
	Paid        bool
	Payment     *models.PosPayment
	Transaction *models.BankTransaction
	Attempts    int
	Err         error
}

// QRWatch waits for the bank transfer of one order.
type QRWatch struct {
	handle *PollHandle
	done   chan struct{}
	once   sync.Once

	mu     sync.Mutex
	tx     *models.BankTransaction
	result QRResult
}

// WatchQR polls the bank feed until a transfer for the order shows up, then
// marks the payment paid once.
func (s *PosService) WatchQR(ctx context.Context, order models.Order, payment models.PosPayment) (*QRWatch, error) {
	if s.bank == nil {
		return nil, ErrNoBankFeed
	}

	match := bank.Match{
		AccountNo: s.receiver.AccountNo,
		Amount:    order.TotalPrice,
		Reference: qrcode.OrderReference(order.ID),
	}
	w := &QRWatch{done: make(chan struct{})}

	w.handle = s.poller.Start(ctx, func(ctx context.Context) (models.PaymentStatus, error) {
		tx, err := s.bank.FindPayment(ctx, match)
		if err != nil {
			return "", err
		}
		if tx == nil {
			return models.PaymentStatusPending, nil
		}
		w.mu.Lock()
		w.tx = tx
		w.mu.Unlock()
		return models.PaymentStatusSuccess, nil
	})

	go w.settle(ctx, s, payment)
	return w, nil
}

func (w *QRWatch) settle(ctx context.Context, s *PosService, payment models.PosPayment) {
	w.once.Do(func() {
		defer close(w.done)

		res, err := w.handle.Wait(context.Background())
		result := QRResult{Attempts: res.Attempts, Err: err}
		if err == nil && res.Status == models.PaymentStatusSuccess {
			w.mu.Lock()
			result.Transaction = w.tx
			w.mu.Unlock()

			paid, markErr := s.MarkPaid(context.WithoutCancel(ctx), payment.ID, models.PosMethodQRCode)
			if markErr != nil {
				s.logger.Error("transfer received but payment not marked paid",
					zap.String("payment_id", payment.ID),
					zap.Error(markErr),
				)
				result.Err = markErr
			} else {
				result.Paid = true
				result.Payment = paid
			}
		}

		w.mu.Lock()
		w.result = result
		w.mu.Unlock()
	})
}

func (w *QRWatch) Refresh(ctx context.Context) (models.PaymentStatus, error) {
	return w.handle.CheckNow(ctx)
}

func (w *QRWatch) Cancel() {
	w.handle.Cancel()
}

func (w *QRWatch) Done() <-chan struct{} {
	return w.done
}

func (w *QRWatch) Wait(ctx context.Context) (QRResult, error) {
	select {
	case <-w.done:
	case <-ctx.Done():
		return QRResult{}, ctx.Err()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result, nil
}

type DashboardSummary struct {
	TotalPaidOrders  int
	TotalRevenue     float64
	MethodCounts     map[models.PosPaymentMethod]int
	RecentPaidOrders []models.Order
}

// Summary totals paid orders and counts paid payments per method.
func Summary(orders []models.Order, payments []models.PosPayment) DashboardSummary {
	summary := DashboardSummary{MethodCounts: map[models.PosPaymentMethod]int{}}

	var paid []models.Order
	for _, order := range orders {
		if order.Status != models.OrderStatusPaid {
			continue
		}
		summary.TotalPaidOrders++
		summary.TotalRevenue += order.TotalPrice
		paid = append(paid, order)
	}
	for _, payment := range payments {
		if payment.Status == models.PosPaymentPaid {
			summary.MethodCounts[payment.Method]++
		}
	}

	sort.SliceStable(paid, func(i, j int) bool {
		return paid[i].CreatedAt.After(paid[j].CreatedAt)
	})
	if len(paid) > recentOrdersLimit {
		paid = paid[:recentOrdersLimit]
	}
	summary.RecentPaidOrders = paid
	return summary
}

// Dashboard fetches orders and payments and summarizes them.
func (s *PosService) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	orders, err := s.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := s.ListPayments(ctx)
	if err != nil {
		return nil, err
	}
	summary := Summary(orders, payments)
	return &summary, nil
}

// MethodLabel is the cashier facing name of a payment method.
func MethodLabel(method models.PosPaymentMethod) string {
	switch method {
	case models.PosMethodQRCode:
		return "QR Code"
	case models.PosMethodCash:
		return "Cash"
	}
	return strings.ReplaceAll(string(method), "_", " ")
}
