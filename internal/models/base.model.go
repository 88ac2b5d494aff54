package models

import (
	"time"

	"github.com/google/uuid"
)

type BaseUUIDModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime"                                 json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"                                 json:"updatedAt"`
}

// ISODate formats t as a UTC calendar date (YYYY-MM-DD)
func ISODate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// StartOfMonthUTC returns the first instant of t's calendar month in UTC
func StartOfMonthUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}
