package models

import (
	"time"

	"gorm.io/gorm"
)

const DateLayout = "2006-01-02"

// BlockedDate closes a whole calendar day for booking (holidays, vacations).
type BlockedDate struct {
	gorm.Model
	Date   time.Time `json:"date" gorm:"index;not null"` // midnight in the business location, stored as UTC
	Reason string    `json:"reason"`
}

func (b *BlockedDate) BeforeSave(tx *gorm.DB) error {
	b.Date = b.Date.UTC()
	return nil
}

// Key returns the calendar date as seen from loc.
func (b *BlockedDate) Key(loc *time.Location) string {
	return b.Date.In(loc).Format(DateLayout)
}
