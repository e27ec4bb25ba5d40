package repository

import (
	"github.com/sefazor/storefront/internal/models"
	"gorm.io/gorm"
)

type PackageRepository struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{
		db: db,
	}
}

func (r *PackageRepository) Create(pkg *models.Package) error {
	return r.db.Create(pkg).Error
}

func (r *PackageRepository) GetByID(id string) (*models.Package, error) {
	var pkg models.Package
	if err := r.db.First(&pkg, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &pkg, nil
}

func (r *PackageRepository) CountByName(name string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Package{}).Where("name = ?", name).Count(&count).Error
	return count, err
}

func (r *PackageRepository) Search(cond models.PackageSearchCondition, page models.PageRequest) ([]models.Package, int64, error) {
	query := r.db.Model(&models.Package{}).Where("is_delete = ?", cond.IsDelete)
	if cond.Keyword != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(cond.Keyword))
	}
	if cond.IsPremium != nil {
		query = query.Where("is_premium = ?", *cond.IsPremium)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var packages []models.Package
	err := query.Scopes(paginate(page)).Order("price ASC, name ASC").Find(&packages).Error
	return packages, total, err
}
