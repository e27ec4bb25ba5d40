package repository

import (
	"errors"
	"strings"

	"github.com/sefazor/storefront/internal/models"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// likePattern builds a case-insensitive LIKE pattern that works in both sqlite and postgres.
func likePattern(keyword string) string {
	return "%" + strings.ToLower(strings.TrimSpace(keyword)) + "%"
}

func paginate(page models.PageRequest) func(db *gorm.DB) *gorm.DB {
	page = page.Normalize()
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(page.Offset()).Limit(page.PageSize)
	}
}
