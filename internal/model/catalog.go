package model

import (
	"database/sql"
	"time"
)

// Course is an item of the learning catalog with dual-currency pricing.
type Course struct {
	ID            uint64
	Title         string
	Description   string
	Category      string // writing|graphics|video|speaking|leadership|storytelling
	PriceNGN      int64
	PriceUSD      int64
	DurationWeeks int
	ClassroomLink sql.NullString
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Tour is a scheduled on-site program with limited participation.
type Tour struct {
	ID                  uint64
	Title               string
	Description         sql.NullString
	Location            sql.NullString
	State               sql.NullString
	Date                sql.NullTime
	PriceNGN            int64
	PriceUSD            int64
	MaxParticipants     int
	CurrentParticipants int
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
