package licenses

import (
	"time"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
)

// LicenseSummary is the license shape embedded in account responses.
type LicenseSummary struct {
	Key            string    `json:"key"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	IsValid        bool      `json:"is_valid"`
	AllowInventory bool      `json:"allow_inventory"`
}

// Summarize evaluates validity at now.
func Summarize(l *models.License, now time.Time) *LicenseSummary {
	if l == nil {
		return nil
	}
	return &LicenseSummary{
		Key:            l.Key,
		StartDate:      l.StartDate,
		EndDate:        l.EndDate,
		IsValid:        l.IsValidAt(now),
		AllowInventory: l.AllowInventory,
	}
}
