package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sefazor/storefront/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Options struct {
	// DatabaseURL selects postgres. When empty SQLitePath is used instead.
	DatabaseURL string
	SQLitePath  string
	Verbose     bool
}

func Open(opts Options, logger *zap.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if opts.Verbose {
		cfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	var dialector gorm.Dialector
	if opts.DatabaseURL != "" {
		dialector = postgres.Open(opts.DatabaseURL)
		logger.Info("using postgres database")
	} else {
		path := opts.SQLitePath
		if path == "" {
			path = "file::memory:?cache=shared"
		}
		dialector = sqlite.Open(path)
		logger.Info("using sqlite database", zap.String("path", path))
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if opts.DatabaseURL == "" {
		// sqlite allows a single writer.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Package{},
		&models.Purchase{},
		&models.Payment{},
		&models.Food{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.PosPayment{},
		&models.BankTransaction{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

var seedPackages = []models.Package{
	{
		Name:              "Starter",
		Description:       "Basic image generation, 20 requests per day",
		Price:             0,
		AIModel:           "sd-1.5",
		SupportedFeatures: []string{"text-to-image"},
	},
	{
		Name:              "Creator",
		Description:       "Image and video generation, 200 requests per day",
		Price:             99000,
		AIModel:           "sdxl",
		SupportedFeatures: []string{"text-to-image", "image-to-image"},
	},
	{
		Name:              "Premium Studio",
		Description:       "Every model, unlimited requests, priority queue",
		Price:             299000,
		IsPremium:         true,
		AIModel:           "sdxl-turbo",
		SupportedFeatures: []string{"text-to-image", "image-to-image", "text-to-video"},
	},
}

var seedFoods = []models.Food{
	{Name: "Phở bò", Price: 55000},
	{Name: "Bánh mì thịt", Price: 25000},
	{Name: "Cơm tấm", Price: 45000},
	{Name: "Cà phê sữa đá", Price: 20000},
}

// Seed inserts the sample packages and foods that are missing by name.
func Seed(db *gorm.DB) error {
	for _, pkg := range seedPackages {
		var count int64
		if err := db.Model(&models.Package{}).Where("name = ?", pkg.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		pkg.ID = uuid.NewString()
		if err := db.Create(&pkg).Error; err != nil {
			return fmt.Errorf("failed to add package %s: %w", pkg.Name, err)
		}
	}

	for _, food := range seedFoods {
		var count int64
		if err := db.Model(&models.Food{}).Where("name = ?", food.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		food.ID = uuid.NewString()
		if err := db.Create(&food).Error; err != nil {
			return fmt.Errorf("failed to add food %s: %w", food.Name, err)
		}
	}
	return nil
}
