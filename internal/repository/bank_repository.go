package repository

import (
	"github.com/sefazor/storefront/internal/models"
	"gorm.io/gorm"
)

// BankRepository stores the transfers served by the sandbox bank feed.
type BankRepository struct {
	db *gorm.DB
}

func NewBankRepository(db *gorm.DB) *BankRepository {
	return &BankRepository{
		db: db,
	}
}

func (r *BankRepository) Create(tx *models.BankTransaction) error {
	return r.db.Create(tx).Error
}

// Latest returns up to limit transactions, newest first.
func (r *BankRepository) Latest(limit int) ([]models.BankTransaction, int64, error) {
	var total int64
	if err := r.db.Model(&models.BankTransaction{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var txs []models.BankTransaction
	err := r.db.Order("id DESC").Limit(limit).Find(&txs).Error
	return txs, total, err
}
