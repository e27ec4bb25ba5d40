package backend

import (
	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/internal/repository"
)

type PackageService struct {
	packages  *repository.PackageRepository
	purchases *repository.PurchaseRepository
	users     *repository.UserRepository
}

func NewPackageService(packages *repository.PackageRepository, purchases *repository.PurchaseRepository, users *repository.UserRepository) *PackageService {
	return &PackageService{
		packages:  packages,
		purchases: purchases,
		users:     users,
	}
}

func (s *PackageService) Search(req models.SearchRequest[models.PackageSearchCondition]) (*models.Page[models.Package], error) {
	items, total, err := s.packages.Search(req.SearchCondition, req.PageInfo)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Package{}
	}
	return &models.Page[models.Package]{
		PageData: items,
		PageInfo: models.NewPageInfo(req.PageInfo, total),
	}, nil
}

func (s *PackageService) Get(id string) (*models.Package, error) {
	pkg, err := s.packages.GetByID(id)
	if err != nil {
		return nil, lookup(err, "Package not found")
	}
	return pkg, nil
}

// Access grants free packages to everyone, premium packages to premium and
// admin users, and any package the user completed a purchase for.
func (s *PackageService) Access(userID, packageID string) (*models.AccessResult, error) {
	pkg, err := s.Get(packageID)
	if err != nil {
		return nil, err
	}
	result := &models.AccessResult{Package: pkg}

	if pkg.IsFree() {
		result.HasAccess = true
		return result, nil
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, lookup(err, "User not found")
	}
	if pkg.IsPremium && (user.Role == models.RolePremium || user.Role == models.RoleAdmin) {
		result.HasAccess = true
		return result, nil
	}

	owned, err := s.purchases.HasCompleted(userID, packageID)
	if err != nil {
		return nil, err
	}
	result.HasAccess = owned
	return result, nil
}
