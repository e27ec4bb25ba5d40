package models

import "time"

type Food struct {
	ID         string    `json:"food_id" gorm:"primaryKey;type:varchar(36)"`
	Name       string    `json:"name" gorm:"not null"`
	Price      float64   `json:"price" gorm:"not null"`
	ImageURL   string    `json:"image_url"`
	CategoryID string    `json:"category_id"`
	IsDelete   bool      `json:"is_delete" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type FoodSearchCondition struct {
	Keyword  string `json:"keyword"`
	IsDelete bool   `json:"is_delete"`
}

type CartItem struct {
	ID       uint    `json:"-" gorm:"primaryKey"`
	CartID   string  `json:"-" gorm:"index;not null"`
	FoodID   string  `json:"food_id" gorm:"not null"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

func (i CartItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

type Cart struct {
	ID         string     `json:"cart_id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string     `json:"user_id" gorm:"index;not null"`
	Items      []CartItem `json:"items" gorm:"foreignKey:CartID"`
	TotalPrice float64    `json:"total_price"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Recalculate refreshes TotalPrice from the items.
func (c *Cart) Recalculate() {
	var total float64
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	c.TotalPrice = total
}

type CartItemRequest struct {
	FoodID   string `json:"foodId" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

type OrderStatus string

const (
	OrderStatusOpen OrderStatus = "open"
	OrderStatusPaid OrderStatus = "paid"
)

type OrderItem struct {
	ID       uint    `json:"-" gorm:"primaryKey"`
	OrderID  string  `json:"-" gorm:"index;not null"`
	FoodID   string  `json:"food_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

func (i OrderItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

type Order struct {
	ID         string      `json:"order_id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string      `json:"user_id" gorm:"index;not null"`
	CartID     string      `json:"cart_id"`
	Items      []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	TotalPrice float64     `json:"total_price"`
	Status     OrderStatus `json:"status" gorm:"not null;default:'open'"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type CreateOrderRequest struct {
	CartID string `json:"cart_id" validate:"required"`
}

type PosPaymentMethod string

const (
	PosMethodCash   PosPaymentMethod = "cash"
	PosMethodQRCode PosPaymentMethod = "qr_code"
)

type PosPaymentStatus string

const (
	PosPaymentPending PosPaymentStatus = "pending"
	PosPaymentPaid    PosPaymentStatus = "paid"
)

type PosPayment struct {
	ID        string           `json:"payment_id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string           `json:"order_id" gorm:"index;not null"`
	Amount    float64          `json:"amount"`
	Method    PosPaymentMethod `json:"method"`
	Status    PosPaymentStatus `json:"status" gorm:"not null;default:'pending'"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type ProcessPaymentRequest struct {
	OrderID string           `json:"order_id" validate:"required"`
	Amount  float64          `json:"amount" validate:"gte=0"`
	Method  PosPaymentMethod `json:"method" validate:"required,oneof=cash qr_code"`
}

type UpdatePosPaymentRequest struct {
	Status PosPaymentStatus `json:"status" validate:"required,oneof=pending paid"`
	Method PosPaymentMethod `json:"method" validate:"required,oneof=cash qr_code"`
}

// BankTransaction is a settled transfer as reported by the bank feed.
type BankTransaction struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	BankSubAccID string  `json:"bankSubAccId" gorm:"index"`
	Amount       float64 `json:"amount"`
	Description  string  `json:"description"`

	// When is kept as the feed sends it, "2006-01-02 15:04:05" local bank time.
	When string `json:"when"`
}
