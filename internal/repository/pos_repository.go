package repository

import (
	"github.com/sefazor/storefront/internal/models"
	"gorm.io/gorm"
)

type PosRepository struct {
	db *gorm.DB
}

func NewPosRepository(db *gorm.DB) *PosRepository {
	return &PosRepository{
		db: db,
	}
}

func (r *PosRepository) GetFood(id string) (*models.Food, error) {
	var food models.Food
	if err := r.db.First(&food, "id = ? AND is_delete = ?", id, false).Error; err != nil {
		return nil, notFound(err)
	}
	return &food, nil
}

func (r *PosRepository) SearchFoods(cond models.FoodSearchCondition, page models.PageRequest) ([]models.Food, int64, error) {
	query := r.db.Model(&models.Food{}).Where("is_delete = ?", cond.IsDelete)
	if cond.Keyword != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(cond.Keyword))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var foods []models.Food
	err := query.Scopes(paginate(page)).Order("name ASC").Find(&foods).Error
	return foods, total, err
}

// CartByUser returns the user's cart with its items.
func (r *PosRepository) CartByUser(userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, notFound(err)
	}
	return &cart, nil
}

func (r *PosRepository) CartByID(id string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.Preload("Items").First(&cart, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &cart, nil
}

// SaveCart replaces the stored items of cart with cart.Items.
func (r *PosRepository) SaveCart(cart *models.Cart) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(cart).Error; err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		for i := range cart.Items {
			cart.Items[i].ID = 0
			cart.Items[i].CartID = cart.ID
		}
		if len(cart.Items) == 0 {
			return nil
		}
		return tx.Create(&cart.Items).Error
	})
}

func (r *PosRepository) CreateOrder(order *models.Order) error {
	return r.db.Create(order).Error
}

func (r *PosRepository) GetOrder(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *PosRepository) ListOrders(userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *PosRepository) UpdateOrderStatus(id string, status models.OrderStatus) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *PosRepository) CreatePayment(payment *models.PosPayment) error {
	return r.db.Create(payment).Error
}

func (r *PosRepository) GetPayment(id string) (*models.PosPayment, error) {
	var payment models.PosPayment
	if err := r.db.First(&payment, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

func (r *PosRepository) UpdatePayment(payment *models.PosPayment) error {
	return r.db.Save(payment).Error
}

// ListPayments returns the payments of orders owned by userID.
func (r *PosRepository) ListPayments(userID string) ([]models.PosPayment, error) {
	var payments []models.PosPayment
	err := r.db.
		Where("order_id IN (?)", r.db.Model(&models.Order{}).Select("id").Where("user_id = ?", userID)).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}
