package backend

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/internal/repository"
	"go.uber.org/zap"
)

type PurchaseService struct {
	packages  *repository.PackageRepository
	purchases *repository.PurchaseRepository
	payments  *repository.PaymentRepository
	users     *repository.UserRepository
	logger    *zap.Logger
	now       func() time.Time
}

func NewPurchaseService(
	packages *repository.PackageRepository,
	purchases *repository.PurchaseRepository,
	payments *repository.PaymentRepository,
	users *repository.UserRepository,
	logger *zap.Logger,
) *PurchaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseService{
		packages:  packages,
		purchases: purchases,
		payments:  payments,
		users:     users,
		logger:    logger,
		now:       time.Now,
	}
}

// Check returns the user's pending or completed purchase of the package, nil when there is none.
func (s *PurchaseService) Check(userID, packageID string) (*models.Purchase, error) {
	purchase, err := s.purchases.FindOpen(userID, packageID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return purchase, err
}

func (s *PurchaseService) Create(userID, packageID string) (*models.Purchase, error) {
	return s.create(userID, packageID, false)
}

// UpgradePremium opens a purchase of a premium package.
func (s *PurchaseService) UpgradePremium(userID, packageID string) (*models.Purchase, error) {
	return s.create(userID, packageID, true)
}

func (s *PurchaseService) create(userID, packageID string, premium bool) (*models.Purchase, error) {
	pkg, err := s.packages.GetByID(packageID)
	if err != nil {
		return nil, lookup(err, "Package not found")
	}
	if premium && !pkg.IsPremium {
		return nil, badRequest("Package is not a premium package")
	}
	if !premium && pkg.IsPremium {
		return nil, badRequest("Premium packages must be bought through the premium upgrade")
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, lookup(err, "User not found")
	}

	existing, err := s.Check(userID, packageID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, conflict("Purchase already exists")
	}

	purchase := &models.Purchase{
		ID:          uuid.NewString(),
		UserID:      userID,
		Username:    user.Username,
		PackageID:   pkg.ID,
		PackageName: pkg.Name,
		Status:      models.PurchaseStatusPending,
		Price:       pkg.Price,
		IsPremium:   pkg.IsPremium,
	}
	if err := s.purchases.Create(purchase); err != nil {
		return nil, err
	}

	s.logger.Info("purchase opened",
		zap.String("purchase_id", purchase.ID),
		zap.String("user_id", userID),
		zap.String("package_id", pkg.ID),
	)
	return purchase, nil
}

// Complete marks a paid purchase completed. Completing a premium purchase
// promotes a plain user and reports the new role.
func (s *PurchaseService) Complete(userID, purchaseID string) (*models.CompletePurchaseResult, error) {
	purchase, err := s.purchases.GetByID(purchaseID)
	if err != nil {
		return nil, lookup(err, "Purchase not found")
	}
	if purchase.UserID != userID {
		return nil, forbidden("Purchase belongs to another user")
	}

	result := &models.CompletePurchaseResult{PurchaseID: purchase.ID, Status: purchase.Status}
	if purchase.Status == models.PurchaseStatusCompleted {
		return result, nil
	}
	if purchase.Status != models.PurchaseStatusPending {
		return nil, conflict("Purchase can no longer be completed")
	}

	paid, err := s.payments.HasSuccess(purchase.ID)
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, badRequest("Purchase has no successful payment")
	}

	now := s.now()
	purchase.Status = models.PurchaseStatusCompleted
	purchase.PurchaseDate = &now
	if err := s.purchases.Update(purchase); err != nil {
		return nil, err
	}
	result.Status = purchase.Status

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, lookup(err, "User not found")
	}
	// Only plain users move up; admins keep their role.
	if purchase.IsPremium && user.Role == models.RoleUser {
		if err := s.users.UpdateRole(userID, models.RolePremium); err != nil {
			return nil, err
		}
		result.UpdatedRole = models.RolePremium
	}

	s.logger.Info("purchase completed",
		zap.String("purchase_id", purchase.ID),
		zap.String("user_id", userID),
		zap.String("updated_role", string(result.UpdatedRole)),
	)
	return result, nil
}

func (s *PurchaseService) Search(userID string, req models.SearchRequest[models.PurchaseSearchCondition]) (*models.Page[models.Purchase], error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, lookup(err, "User not found")
	}
	// Admins see every purchase.
	scope := userID
	if user.Role == models.RoleAdmin {
		scope = ""
	}

	items, total, err := s.purchases.Search(scope, req.SearchCondition, req.PageInfo)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Purchase{}
	}
	return &models.Page[models.Purchase]{
		PageData: items,
		PageInfo: models.NewPageInfo(req.PageInfo, total),
	}, nil
}
