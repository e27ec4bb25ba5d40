package models

import "time"

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusFailed    PurchaseStatus = "failed"
)

type Purchase struct {
	ID           string         `json:"purchase_id" gorm:"primaryKey;type:varchar(36)"`
	UserID       string         `json:"user_id" gorm:"index;not null"`
	Username     string         `json:"username"`
	PackageID    string         `json:"package_id" gorm:"index;not null"`
	PackageName  string         `json:"package_name"`
	Status       PurchaseStatus `json:"status" gorm:"not null;default:'pending'"`
	Price        float64        `json:"price"`
	IsPremium    bool           `json:"is_premium"`
	PurchaseDate *time.Time     `json:"purchase_date,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type PurchaseRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	PackageID string `json:"package_id" validate:"required"`
}

type UpgradePremiumRequest struct {
	PackageID string `json:"package_id" validate:"required"`
}

type CompletePurchaseRequest struct {
	PurchaseID string `json:"purchase_id" validate:"required"`
}

type CompletePurchaseResult struct {
	PurchaseID  string         `json:"purchase_id"`
	Status      PurchaseStatus `json:"status"`
	UpdatedRole Role           `json:"updated_role,omitempty"`
}

type PurchaseSearchCondition struct {
	Keyword   string `json:"keyword"`
	Status    string `json:"status"`
	IsPremium *bool  `json:"is_premium,omitempty"`
}
