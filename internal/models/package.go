package models

import "time"

type Package struct {
	ID                string    `json:"package_id" gorm:"primaryKey;type:varchar(36)"`
	Name              string    `json:"package_name" gorm:"not null"`
	Description       string    `json:"description"`
	ImgURL            string    `json:"img_url"`
	Price             float64   `json:"price" gorm:"not null"`
	IsPremium         bool      `json:"is_premium" gorm:"default:false"`
	IsDelete          bool      `json:"is_delete" gorm:"default:false"`
	AIModel           string    `json:"ai_model"`
	SupportedFeatures []string  `json:"supported_features" gorm:"type:json;serializer:json"`
	UserID            string    `json:"user_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsFree reports whether the package is given away.
func (p Package) IsFree() bool {
	return p.Price == 0
}

type PackageSearchCondition struct {
	Keyword   string `json:"keyword"`
	IsDelete  bool   `json:"is_delete"`
	IsPremium *bool  `json:"is_premium,omitempty"`
}

type AccessRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	PackageID string `json:"package_id" validate:"required"`
}

type AccessResult struct {
	HasAccess bool     `json:"has_access"`
	Package   *Package `json:"package,omitempty"`
}
