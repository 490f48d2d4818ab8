package cron

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/outbox"
	"github.com/angelmondragon/stockroom-backend/pkg/outbox/payloads"
)

const defaultWarningDays = 14

// LicenseExpiryJobParams configures the expiry warning job.
type LicenseExpiryJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	LicenseRepo licensesRepository
	Outbox      outboxEmitter
	WarningDays int
}

type licensesRepository interface {
	ListOwnedEndingBetween(ctx context.Context, from, to time.Time) ([]models.License, error)
}

type outboxEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// NewLicenseExpiryJob queues one license.expiring_soon event per bound
// license whose end date falls inside the warning window.
func NewLicenseExpiryJob(params LicenseExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.LicenseRepo == nil {
		return nil, fmt.Errorf("license repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	days := params.WarningDays
	if days <= 0 {
		days = defaultWarningDays
	}
	return &licenseExpiryJob{
		logg:        params.Logger,
		db:          params.DB,
		licenseRepo: params.LicenseRepo,
		outbox:      params.Outbox,
		warningDays: days,
		now:         time.Now,
	}, nil
}

type licenseExpiryJob struct {
	logg        *logger.Logger
	db          txRunner
	licenseRepo licensesRepository
	outbox      outboxEmitter
	warningDays int
	now         func() time.Time
}

func (j *licenseExpiryJob) Name() string { return "license-expiry-warning" }

// Run keeps going past individual failures and reports them together.
func (j *licenseExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	until := now.Add(time.Duration(j.warningDays) * 24 * time.Hour)
	licenses, err := j.licenseRepo.ListOwnedEndingBetween(ctx, now, until)
	if err != nil {
		return fmt.Errorf("query expiring licenses: %w", err)
	}

	var errs error
	queued := 0
	for _, lic := range licenses {
		if lic.OwnerID == nil {
			continue
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventLicenseExpiringSoon,
			AggregateType: enums.AggregateLicense,
			AggregateID:   lic.ID,
			Data: payloads.LicenseExpiringSoonEvent{
				LicenseID:     lic.ID,
				OwnerID:       *lic.OwnerID,
				EndDate:       lic.EndDate,
				DaysRemaining: daysUntil(now, lic.EndDate),
			},
			OccurredAt: now,
		}
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			return j.outbox.EmitIfNotExists(ctx, tx, event)
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("license %s: %w", lic.ID, err))
			continue
		}
		queued++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(licenses),
		"processed":  queued,
		"window":     j.warningDays,
	})
	j.logg.Info(logCtx, "license expiry warnings complete")
	return errs
}

func daysUntil(now, end time.Time) int {
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}
