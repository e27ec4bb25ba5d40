package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/pkg/apiclient"
	"github.com/sefazor/storefront/pkg/utils"
	"go.uber.org/zap"
)

const accessDeniedMessage = "Access denied. Please purchase to continue."

// AccessRoute is where the catalog sends the user after an access check.
type AccessRoute string

const (
	AccessRouteFeature AccessRoute = "feature"
	AccessRouteUpgrade AccessRoute = "upgrade"
)

type AccessDecision struct {
	Route     AccessRoute
	PackageID string
	Package   *models.Package
	// Feature is the first supported feature of the package, the screen to open.
	Feature string
	AIModel string
	Message string
}

type PackageService struct {
	api    API
	users  UserSource
	locale string
	logger *zap.Logger
}

func NewPackageService(api API, users UserSource, locale string, logger *zap.Logger) *PackageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PackageService{
		api:    api,
		users:  users,
		locale: locale,
		logger: logger,
	}
}

func (s *PackageService) Search(ctx context.Context, cond models.PackageSearchCondition, page models.PageRequest) (*models.Page[models.Package], error) {
	req := models.SearchRequest[models.PackageSearchCondition]{
		SearchCondition: cond,
		PageInfo:        page.Normalize(),
	}
	var out models.Page[models.Package]
	if _, err := s.api.Do(ctx, http.MethodPost, endpoint("packages", "search"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Premium lists the premium catalog, the list shown on the upgrade screen.
func (s *PackageService) Premium(ctx context.Context, page models.PageRequest) (*models.Page[models.Package], error) {
	premium := true
	return s.Search(ctx, models.PackageSearchCondition{IsPremium: &premium}, page)
}

func (s *PackageService) Get(ctx context.Context, packageID string) (*models.Package, error) {
	if strings.TrimSpace(packageID) == "" {
		return nil, errors.New("package id is required")
	}
	var pkg models.Package
	if _, err := s.api.Do(ctx, http.MethodGet, endpoint("packages", packageID), nil, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// CheckAccess never fails: any error routes the user to the upgrade prompt
// with the error's message.
func (s *PackageService) CheckAccess(ctx context.Context, packageID string) AccessDecision {
	decision := AccessDecision{Route: AccessRouteUpgrade, PackageID: packageID}

	userID, err := s.users.UserID(ctx)
	if err != nil {
		decision.Message = "User not logged in"
		return decision
	}

	req := models.AccessRequest{UserID: userID, PackageID: packageID}
	var result models.AccessResult
	if _, err := s.api.Do(ctx, http.MethodPost, endpoint("packages", packageID, "access"), req, &result); err != nil {
		s.logger.Warn("package access check failed",
			zap.String("package_id", packageID),
			zap.Error(err),
		)
		decision.Message = apiclient.Message(err)
		return decision
	}

	if !result.HasAccess {
		decision.Message = accessDeniedMessage
		return decision
	}

	decision.Route = AccessRouteFeature
	decision.Package = result.Package
	if result.Package != nil {
		decision.AIModel = result.Package.AIModel
		if len(result.Package.SupportedFeatures) > 0 {
			decision.Feature = result.Package.SupportedFeatures[0]
		}
	}
	return decision
}

func (s *PackageService) PriceLabel(price float64) string {
	return PriceLabel(price, s.locale)
}

// PriceLabel renders a catalog price. Zero-priced packages are free.
func PriceLabel(price float64, locale string) string {
	if price == 0 {
		if strings.HasPrefix(strings.ToLower(locale), "vi") {
			return "Miễn phí"
		}
		return "Free"
	}
	return utils.FormatVND(price, locale)
}
