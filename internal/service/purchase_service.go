package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/pkg/apiclient"
	"github.com/sefazor/storefront/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrRoleNotPersisted means the backend finalized the purchase but the new
// role could not be written to the session store.
var ErrRoleNotPersisted = errors.New("purchase completed but updated role was not saved")

// ResolveResult mirrors what the purchase screen needs: a flag, a message for
// the alert and the purchase to pay for.
type ResolveResult struct {
	OK       bool
	Message  string
	Data     *models.Purchase
	Existing bool
}

// PackageLookup resolves a package by id.
type PackageLookup interface {
	Get(ctx context.Context, packageID string) (*models.Package, error)
}

type PurchaseService struct {
	api       API
	packages  PackageLookup
	roles     RoleWriter
	validator StructValidator
	logger    *zap.Logger

	// resolves share one flight per (user, package) so a double tap never
	// creates two purchases.
	inflight singleflight.Group
}

func NewPurchaseService(api API, packages PackageLookup, roles RoleWriter, validate StructValidator, logger *zap.Logger) *PurchaseService {
	if validate == nil {
		validate = utils.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseService{
		api:       api,
		packages:  packages,
		roles:     roles,
		validator: validate,
		logger:    logger,
	}
}

// ResolveByID looks the package up first. When the lookup fails the package
// is treated as a regular one, which is the path every package supports.
func (s *PurchaseService) ResolveByID(ctx context.Context, userID, packageID string) ResolveResult {
	pkg := models.Package{ID: packageID}
	if s.packages != nil {
		found, err := s.packages.Get(ctx, packageID)
		if err != nil {
			s.logger.Warn("package lookup failed, resolving as regular purchase",
				zap.String("package_id", packageID),
				zap.Error(err),
			)
		} else {
			pkg = *found
		}
	}
	return s.Resolve(ctx, userID, pkg)
}

// Resolve returns the purchase of pkg by userID, creating it when none exists.
func (s *PurchaseService) Resolve(ctx context.Context, userID string, pkg models.Package) ResolveResult {
	if strings.TrimSpace(userID) == "" {
		return ResolveResult{Message: "User id not found. Please log in again."}
	}
	if strings.TrimSpace(pkg.ID) == "" {
		return ResolveResult{Message: "Package id is required."}
	}

	// The flight outlives a caller that gives up; every joiner gets its own copy.
	key := userID + "|" + pkg.ID
	v, _, _ := s.inflight.Do(key, func() (interface{}, error) {
		return s.resolve(context.WithoutCancel(ctx), userID, pkg), nil
	})
	result := v.(ResolveResult)
	if result.Data != nil {
		data := *result.Data
		result.Data = &data
	}
	return result
}

func (s *PurchaseService) resolve(ctx context.Context, userID string, pkg models.Package) ResolveResult {
	req := models.PurchaseRequest{UserID: userID, PackageID: pkg.ID}

	var existing models.Purchase
	found, err := s.api.DoNullable(ctx, http.MethodPost, endpoint("purchases", "check"), req, &existing)
	if err != nil {
		return s.failure("check purchase", pkg.ID, err)
	}
	if found && existing.ID != "" {
		return ResolveResult{OK: true, Message: "Purchase already exists.", Data: &existing, Existing: true}
	}

	var created models.Purchase
	if pkg.IsPremium {
		_, err = s.api.Do(ctx, http.MethodPost, endpoint("purchases", "upgrade-premium"), models.UpgradePremiumRequest{PackageID: pkg.ID}, &created)
	} else {
		_, err = s.api.Do(ctx, http.MethodPost, endpoint("purchases"), req, &created)
	}
	if err != nil {
		return s.failure("create purchase", pkg.ID, err)
	}

	s.logger.Info("purchase created",
		zap.String("purchase_id", created.ID),
		zap.String("package_id", pkg.ID),
		zap.Bool("premium", pkg.IsPremium),
	)
	return ResolveResult{OK: true, Message: "Purchase created.", Data: &created}
}

func (s *PurchaseService) failure(op, packageID string, err error) ResolveResult {
	s.logger.Error(op+" failed", zap.String("package_id", packageID), zap.Error(err))
	message := apiclient.Message(err)
	if message == "" {
		message = "Failed to process purchase."
	}
	return ResolveResult{Message: message}
}

// Complete finalizes a paid purchase and stores the role the backend reports.
// On ErrRoleNotPersisted the returned result is still valid.
func (s *PurchaseService) Complete(ctx context.Context, purchaseID string) (*models.CompletePurchaseResult, error) {
	req := models.CompletePurchaseRequest{PurchaseID: purchaseID}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var result models.CompletePurchaseResult
	if _, err := s.api.Do(ctx, http.MethodPost, endpoint("purchases", "complete"), req, &result); err != nil {
		return nil, err
	}
	if result.PurchaseID == "" {
		result.PurchaseID = purchaseID
	}

	if result.UpdatedRole != "" && s.roles != nil {
		prev, err := s.roles.UpdateRole(ctx, result.UpdatedRole)
		if err != nil {
			s.logger.Error("failed to persist updated role",
				zap.String("purchase_id", purchaseID),
				zap.String("role", string(result.UpdatedRole)),
				zap.Error(err),
			)
			return &result, fmt.Errorf("%w: %v", ErrRoleNotPersisted, err)
		}
		s.logger.Info("role updated after purchase",
			zap.String("purchase_id", purchaseID),
			zap.String("from", string(prev)),
			zap.String("to", string(result.UpdatedRole)),
		)
	}
	return &result, nil
}

// History pages through the user's purchases.
func (s *PurchaseService) History(ctx context.Context, cond models.PurchaseSearchCondition, page models.PageRequest) (*models.Page[models.Purchase], error) {
	req := models.SearchRequest[models.PurchaseSearchCondition]{
		SearchCondition: cond,
		PageInfo:        page.Normalize(),
	}
	var out models.Page[models.Purchase]
	if _, err := s.api.Do(ctx, http.MethodPost, endpoint("purchases", "search"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
