package models

import "time"

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusExpired PaymentStatus = "expired"
)

// IsTerminal reports whether no further transition is expected.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusExpired:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodQRCode PaymentMethod = "qr_code"
	PaymentMethodCard   PaymentMethod = "card"
)

type Payment struct {
	ID              string        `json:"payment_id" gorm:"primaryKey;type:varchar(36)"`
	PurchaseID      string        `json:"purchase_id" gorm:"index;not null"`
	UserID          string        `json:"user_id" gorm:"index;not null"`
	Amount          float64       `json:"amount"`
	Method          PaymentMethod `json:"payment_method" gorm:"not null"`
	Status          PaymentStatus `json:"payment_status" gorm:"not null;default:'pending'"`
	ReferenceCode   string        `json:"reference_code" gorm:"uniqueIndex;not null"`
	QRCodeURL       string        `json:"qr_code_url,omitempty"`
	CheckoutURL     string        `json:"checkout_url,omitempty"`
	StripeSessionID string        `json:"-" gorm:"index"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (p Payment) IsTerminal() bool {
	return p.Status.IsTerminal()
}

type CreatePaymentRequest struct {
	UserID     string        `json:"user_id" validate:"required"`
	PurchaseID string        `json:"purchase_id" validate:"required"`
	Amount     float64       `json:"amount" validate:"gte=0"`
	Method     PaymentMethod `json:"payment_method" validate:"required,oneof=qr_code card"`
}

type CheckPaymentRequest struct {
	UserID        string `json:"user_id" validate:"required"`
	PaymentID     string `json:"payment_id,omitempty" validate:"required_without=ReferenceCode"`
	ReferenceCode string `json:"reference_code,omitempty"`
}

type SettlePaymentRequest struct {
	Status PaymentStatus `json:"status" validate:"required,oneof=success failed expired"`
}
