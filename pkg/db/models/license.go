package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// License is a serial key granting time-boxed access, held by at most one account.
type License struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID        *uuid.UUID `gorm:"column:owner_id;type:uuid;uniqueIndex"`
	Key            string     `gorm:"column:key;type:varchar(100);not null;uniqueIndex"`
	StartDate      time.Time  `gorm:"column:start_date;not null"`
	EndDate        time.Time  `gorm:"column:end_date;not null"`
	AllowInventory bool       `gorm:"column:allow_inventory;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *License) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}

// IsValidAt reports whether now falls inside [StartDate, EndDate].
func (l License) IsValidAt(now time.Time) bool {
	return !now.Before(l.StartDate) && !now.After(l.EndDate)
}

// IsExpiredAt reports whether the validity window closed before now.
func (l License) IsExpiredAt(now time.Time) bool {
	return now.After(l.EndDate)
}

// IsOwnedBy reports whether the license is bound to the given account.
func (l License) IsOwnedBy(userID uuid.UUID) bool {
	return l.OwnerID != nil && *l.OwnerID == userID
}
