package repository

import (
	"github.com/sefazor/storefront/internal/models"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{
		db: db,
	}
}

func (r *PaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

func (r *PaymentRepository) GetByID(id string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

func (r *PaymentRepository) GetByReference(code string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Where("reference_code = ?", code).First(&payment).Error; err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

func (r *PaymentRepository) GetByStripeSession(sessionID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Where("stripe_session_id = ?", sessionID).First(&payment).Error; err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

func (r *PaymentRepository) HasSuccess(purchaseID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).
		Where("purchase_id = ? AND status = ?", purchaseID, models.PaymentStatusSuccess).
		Count(&count).Error
	return count > 0, err
}

func (r *PaymentRepository) Update(payment *models.Payment) error {
	return r.db.Save(payment).Error
}
