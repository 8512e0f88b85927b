package models

import (
	"fmt"
	"time"
)

// Session identifies the half-day within a block's date.
type Session string

const (
	SessionAM Session = "AM"
	SessionPM Session = "PM"
)

// Block is an immutable half-day scheduling unit. Exactly one block exists
// per (date, session) pair; a full academic year holds 730 of them.
type Block struct {
	ID                  string    `db:"id" json:"id"`
	Date                time.Time `db:"date" json:"date"`
	Session             Session   `db:"session" json:"session"`
	AcademicBlockNumber int       `db:"academic_block_number" json:"academic_block_number"`
	IsWeekend           bool      `db:"is_weekend" json:"is_weekend"`
	IsHoliday           bool      `db:"is_holiday" json:"is_holiday"`
	HolidayName         *string   `db:"holiday_name" json:"holiday_name,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

// Key returns the unique (date, session) identity of the block.
func (b Block) Key() string {
	return fmt.Sprintf("%s|%s", b.Date.Format("2006-01-02"), b.Session)
}

// BlockFilter describes query params for listing blocks.
type BlockFilter struct {
	RangeStart          *time.Time
	RangeEnd            *time.Time
	AcademicBlockNumber *int
	Session             *Session
}
