package backend

import (
	"errors"
	"math"
	"net/http"

	"github.com/google/uuid"
	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/internal/repository"
	"go.uber.org/zap"
)

// PosService runs the point-of-sale cart, order and payment rules.
type PosService struct {
	repo   *repository.PosRepository
	logger *zap.Logger
}

func NewPosService(repo *repository.PosRepository, logger *zap.Logger) *PosService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PosService{repo: repo, logger: logger}
}

func (s *PosService) SearchFoods(req models.SearchRequest[models.FoodSearchCondition]) (*models.Page[models.Food], error) {
	items, total, err := s.repo.SearchFoods(req.SearchCondition, req.PageInfo)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Food{}
	}
	return &models.Page[models.Food]{
		PageData: items,
		PageInfo: models.NewPageInfo(req.PageInfo, total),
	}, nil
}

// GetCart returns the user's cart, nil when none was started.
func (s *PosService) GetCart(userID string) (*models.Cart, error) {
	cart, err := s.repo.CartByUser(userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return cart, err
}

func (s *PosService) GetCartByID(userID, cartID string) (*models.Cart, error) {
	cart, err := s.repo.CartByID(cartID)
	if err != nil {
		return nil, lookup(err, "Cart not found")
	}
	if cart.UserID != userID {
		return nil, forbidden("Cart belongs to another user")
	}
	return cart, nil
}

func (s *PosService) cartFor(userID string) (*models.Cart, error) {
	cart, err := s.GetCart(userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = &models.Cart{ID: uuid.NewString(), UserID: userID}
	}
	return cart, nil
}

// AddToCart adds quantity of a food, merging with an existing line.
func (s *PosService) AddToCart(userID string, req models.CartItemRequest) (*models.Cart, error) {
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	food, err := s.repo.GetFood(req.FoodID)
	if err != nil {
		return nil, lookup(err, "Food not found")
	}
	cart, err := s.cartFor(userID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].FoodID == food.ID {
			cart.Items[i].Quantity += req.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, models.CartItem{
			FoodID:   food.ID,
			Name:     food.Name,
			Quantity: req.Quantity,
			Price:    food.Price,
		})
	}
	return s.saveCart(cart)
}

// UpdateCart sets the quantity of a line; zero drops it.
func (s *PosService) UpdateCart(userID string, req models.CartItemRequest) (*models.Cart, error) {
	cart, err := s.cartFor(userID)
	if err != nil {
		return nil, err
	}
	items := cart.Items[:0]
	found := false
	for _, item := range cart.Items {
		if item.FoodID == req.FoodID {
			found = true
			if req.Quantity <= 0 {
				continue
			}
			item.Quantity = req.Quantity
		}
		items = append(items, item)
	}
	if !found {
		return nil, newError(http.StatusNotFound, "Item is not in the cart")
	}
	cart.Items = items
	return s.saveCart(cart)
}

func (s *PosService) RemoveFromCart(userID, foodID string) (*models.Cart, error) {
	return s.UpdateCart(userID, models.CartItemRequest{FoodID: foodID, Quantity: 0})
}

func (s *PosService) ClearCart(userID string) error {
	cart, err := s.GetCart(userID)
	if err != nil || cart == nil {
		return err
	}
	cart.Items = nil
	_, err = s.saveCart(cart)
	return err
}

func (s *PosService) saveCart(cart *models.Cart) (*models.Cart, error) {
	cart.Recalculate()
	if err := s.repo.SaveCart(cart); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return cart, nil
}

// CreateOrder copies the cart into an open order and empties the cart.
func (s *PosService) CreateOrder(userID, cartID string) (*models.Order, error) {
	cart, err := s.GetCartByID(userID, cartID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, badRequest("Cart is empty")
	}

	order := &models.Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		CartID:     cart.ID,
		TotalPrice: cart.TotalPrice,
		Status:     models.OrderStatusOpen,
	}
	for _, item := range cart.Items {
		order.Items = append(order.Items, models.OrderItem{
			FoodID:   item.FoodID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	if err := s.repo.CreateOrder(order); err != nil {
		return nil, err
	}

	cart.Items = nil
	if _, err := s.saveCart(cart); err != nil {
		s.logger.Warn("cart not cleared after order", zap.String("cart_id", cart.ID), zap.Error(err))
	}
	s.logger.Info("order created", zap.String("order_id", order.ID), zap.Float64("total", order.TotalPrice))
	return order, nil
}

func (s *PosService) GetOrder(userID, orderID string) (*models.Order, error) {
	order, err := s.repo.GetOrder(orderID)
	if err != nil {
		return nil, lookup(err, "Order not found")
	}
	if order.UserID != userID {
		return nil, forbidden("Order belongs to another user")
	}
	return order, nil
}

func (s *PosService) ListOrders(userID string) ([]models.Order, error) {
	return s.repo.ListOrders(userID)
}

func (s *PosService) ProcessPayment(userID string, req models.ProcessPaymentRequest) (*models.PosPayment, error) {
	order, err := s.GetOrder(userID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderStatusPaid {
		return nil, conflict("Order is already paid")
	}
	if math.Abs(order.TotalPrice-req.Amount) > 0.5 {
		return nil, badRequest("Amount does not match the order total")
	}

	p := &models.PosPayment{
		ID:      uuid.NewString(),
		OrderID: order.ID,
		Amount:  order.TotalPrice,
		Method:  req.Method,
		Status:  models.PosPaymentPending,
	}
	if err := s.repo.CreatePayment(p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePayment records the tender method and status. Paying marks the order paid.
func (s *PosService) UpdatePayment(userID, paymentID string, req models.UpdatePosPaymentRequest) (*models.PosPayment, error) {
	p, err := s.repo.GetPayment(paymentID)
	if err != nil {
		return nil, lookup(err, "Payment not found")
	}
	if _, err := s.GetOrder(userID, p.OrderID); err != nil {
		return nil, err
	}
	if p.Status == models.PosPaymentPaid && req.Status != models.PosPaymentPaid {
		return nil, conflict("Payment is already paid")
	}

	p.Status = req.Status
	p.Method = req.Method
	if err := s.repo.UpdatePayment(p); err != nil {
		return nil, err
	}
	if p.Status == models.PosPaymentPaid {
		if err := s.repo.UpdateOrderStatus(p.OrderID, models.OrderStatusPaid); err != nil {
			return nil, err
		}
		s.logger.Info("pos payment paid", zap.String("payment_id", p.ID), zap.String("order_id", p.OrderID))
	}
	return p, nil
}

func (s *PosService) ListPayments(userID string) ([]models.PosPayment, error) {
	return s.repo.ListPayments(userID)
}
