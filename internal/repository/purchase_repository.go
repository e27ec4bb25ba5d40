package repository

import (
	"github.com/sefazor/storefront/internal/models"
	"gorm.io/gorm"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{
		db: db,
	}
}

func (r *PurchaseRepository) Create(purchase *models.Purchase) error {
	return r.db.Create(purchase).Error
}

func (r *PurchaseRepository) GetByID(id string) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.First(&purchase, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &purchase, nil
}

// FindOpen returns the pending or completed purchase of a package by a user,
// the newest one when several exist.
func (r *PurchaseRepository) FindOpen(userID, packageID string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.Where("user_id = ? AND package_id = ? AND status IN ?", userID, packageID,
		[]models.PurchaseStatus{models.PurchaseStatusPending, models.PurchaseStatusCompleted}).
		Order("created_at DESC").
		First(&purchase).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &purchase, nil
}

func (r *PurchaseRepository) HasCompleted(userID, packageID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Purchase{}).
		Where("user_id = ? AND package_id = ? AND status = ?", userID, packageID, models.PurchaseStatusCompleted).
		Count(&count).Error
	return count > 0, err
}

func (r *PurchaseRepository) Update(purchase *models.Purchase) error {
	return r.db.Save(purchase).Error
}

// Search pages through purchases. An empty userID searches every user.
func (r *PurchaseRepository) Search(userID string, cond models.PurchaseSearchCondition, page models.PageRequest) ([]models.Purchase, int64, error) {
	query := r.db.Model(&models.Purchase{})
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if cond.Keyword != "" {
		query = query.Where("LOWER(package_name) LIKE ?", likePattern(cond.Keyword))
	}
	if cond.Status != "" {
		query = query.Where("status = ?", cond.Status)
	}
	if cond.IsPremium != nil {
		query = query.Where("is_premium = ?", *cond.IsPremium)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var purchases []models.Purchase
	err := query.Scopes(paginate(page)).Order("created_at DESC").Find(&purchases).Error
	return purchases, total, err
}
