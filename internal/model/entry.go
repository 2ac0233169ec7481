package model

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	// MinRating and MaxRating bound both Mood and Urgency.
	MinRating = 1
	MaxRating = 10
	// MaxNotesLength is the maximum number of characters allowed in Notes.
	MaxNotesLength = 500
)

// ErrInvalidEntry is returned by Validate when an entry breaks a field constraint.
var ErrInvalidEntry = errors.New("invalid entry")

// Entry represents a single logged urge: smoked or resisted.
type Entry struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	Mood             int       `json:"mood"`
	Urgency          int       `json:"urgency"`
	WaitedTenMinutes bool      `json:"waited_ten_minutes"`
	Smoked           bool      `json:"smoked"`
	IsSpecial        bool      `json:"is_special"`
	Notes            string    `json:"notes,omitempty"`
}

// DayFile is the top-level structure stored in each daily JSON file.
type DayFile struct {
	Date    string  `json:"date"`
	Entries []Entry `json:"entries"`
}

// Validate checks the constraints the entry form enforces.
func (e Entry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidEntry)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidEntry)
	}
	if e.Mood < MinRating || e.Mood > MaxRating {
		return fmt.Errorf("%w: mood must be between %d and %d, got %d", ErrInvalidEntry, MinRating, MaxRating, e.Mood)
	}
	if e.Urgency < MinRating || e.Urgency > MaxRating {
		return fmt.Errorf("%w: urgency must be between %d and %d, got %d", ErrInvalidEntry, MinRating, MaxRating, e.Urgency)
	}
	if n := utf8.RuneCountInString(e.Notes); n > MaxNotesLength {
		return fmt.Errorf("%w: notes must be at most %d characters, got %d", ErrInvalidEntry, MaxNotesLength, n)
	}
	return nil
}
