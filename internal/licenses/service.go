package licenses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"github.com/angelmondragon/stockroom-backend/pkg/outbox"
	"github.com/angelmondragon/stockroom-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/stockroom-backend/pkg/security"
)

const (
	msgKeyRequired     = "Key is required."
	msgInvalidKey      = "Invalid key provided."
	msgKeyTaken        = "This key is already used by another account."
	msgAlreadyActive   = "You already have this key active."
	msgKeyExpired      = "This key has expired."
	msgActivated       = "License activated successfully!"
	msgNoLicense       = "No license key found associated with this account."
	msgNoInventoryPlan = "Your current plan does not support Inventory features."
	msgLicenseExpired  = "Your license key has expired."
)

// Activation outcomes, also used as the metrics result label.
const (
	ResultActivated     = "activated"
	ResultAlreadyActive = "already_active"
	ResultInvalid       = "invalid"
	ResultNotFound      = "not_found"
	ResultConflict      = "conflict"
	ResultExpired       = "expired"
	ResultError         = "error"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type licensesRepository interface {
	Create(ctx context.Context, tx *gorm.DB, license *models.License) error
	FindByKeyForUpdate(ctx context.Context, tx *gorm.DB, key string) (*models.License, error)
	FindByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) (*models.License, error)
	SetOwner(ctx context.Context, tx *gorm.DB, licenseID uuid.UUID, ownerID *uuid.UUID) error
}

// Service exposes license activation, lookup, issuance and the inventory gate check.
type Service interface {
	Activate(ctx context.Context, userID uuid.UUID, key string) (*ActivationResult, error)
	CheckInventoryAccess(ctx context.Context, userID uuid.UUID) error
	ForOwner(ctx context.Context, userID uuid.UUID) (*models.License, error)
	Issue(ctx context.Context, input IssueInput) (*models.License, error)
}

// ActivationResult reports what activation did.
type ActivationResult struct {
	Message       string          `json:"message"`
	AlreadyActive bool            `json:"already_active"`
	License       *LicenseSummary `json:"license"`
}

// IssueInput describes a new unassigned license. A blank key is generated.
type IssueInput struct {
	Key            string
	StartDate      time.Time
	EndDate        time.Time
	AllowInventory bool
}

// ServiceParams bundles the dependencies required to build a license service.
type ServiceParams struct {
	DB      txRunner
	Repo    licensesRepository
	Outbox  outbox.Emitter
	Metrics *metrics.InventoryMetrics
	Now     func() time.Time
}

type service struct {
	db      txRunner
	repo    licensesRepository
	outbox  outbox.Emitter
	metrics *metrics.InventoryMetrics
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("license repository is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		db:      params.DB,
		repo:    params.Repo,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

// NormalizeKey trims and upper-cases user-supplied keys.
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

func (s *service) Activate(ctx context.Context, userID uuid.UUID, rawKey string) (*ActivationResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	key := NormalizeKey(rawKey)
	if key == "" {
		s.metrics.IncActivation(ResultInvalid)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgKeyRequired)
	}

	now := s.now()
	var result *ActivationResult
	outcome := ResultError
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		license, err := s.repo.FindByKeyForUpdate(ctx, tx, key)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				outcome = ResultNotFound
				return pkgerrors.New(pkgerrors.CodeNotFound, msgInvalidKey)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license")
		}

		if license.OwnerID != nil && *license.OwnerID != userID {
			outcome = ResultConflict
			return pkgerrors.New(pkgerrors.CodeConflict, msgKeyTaken)
		}
		if license.IsOwnedBy(userID) {
			outcome = ResultAlreadyActive
			result = &ActivationResult{
				Message:       msgAlreadyActive,
				AlreadyActive: true,
				License:       Summarize(license, now),
			}
			return nil
		}
		if license.IsExpiredAt(now) {
			outcome = ResultExpired
			return pkgerrors.New(pkgerrors.CodeValidation, msgKeyExpired)
		}

		current, err := s.repo.FindByOwner(ctx, tx, userID)
		switch {
		case err == nil && current.ID != license.ID:
			if err := s.repo.SetOwner(ctx, tx, current.ID, nil); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release previous license")
			}
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup current license")
		}

		owner := userID
		if err := s.repo.SetOwner(ctx, tx, license.ID, &owner); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bind license")
		}
		license.OwnerID = &owner

		event := outbox.DomainEvent{
			EventType:     enums.EventLicenseActivated,
			AggregateType: enums.AggregateLicense,
			AggregateID:   license.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			OccurredAt:    now,
			Data: payloads.LicenseActivatedEvent{
				LicenseID: license.ID,
				OwnerID:   userID,
				EndDate:   license.EndDate,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit license activated")
		}

		outcome = ResultActivated
		result = &ActivationResult{
			Message: msgActivated,
			License: Summarize(license, now),
		}
		return nil
	})
	s.metrics.IncActivation(outcome)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) CheckInventoryAccess(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication credentials were not provided.")
	}
	license, err := s.repo.FindByOwner(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeForbidden, msgNoLicense)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license")
	}
	if !license.AllowInventory {
		return pkgerrors.New(pkgerrors.CodeForbidden, msgNoInventoryPlan)
	}
	if !license.IsValidAt(s.now()) {
		return pkgerrors.New(pkgerrors.CodeForbidden, msgLicenseExpired)
	}
	return nil
}

// ForOwner returns nil without error when the account holds no license.
func (s *service) ForOwner(ctx context.Context, userID uuid.UUID) (*models.License, error) {
	license, err := s.repo.FindByOwner(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup license")
	}
	return license, nil
}

func (s *service) Issue(ctx context.Context, input IssueInput) (*models.License, error) {
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start and end dates are required")
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must not precede start date")
	}
	key := NormalizeKey(input.Key)
	if key == "" {
		key = security.GenerateLicenseKey()
	}
	license := &models.License{
		Key:            key,
		StartDate:      input.StartDate.UTC(),
		EndDate:        input.EndDate.UTC(),
		AllowInventory: input.AllowInventory,
	}
	if err := s.repo.Create(ctx, nil, license); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "license key already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create license")
	}
	return license, nil
}
