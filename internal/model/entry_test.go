package model_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Tiliavir/nicolog/internal/model"
)

func validEntry() model.Entry {
	return model.Entry{
		ID:        "20240305-081500-abcde",
		Timestamp: time.Date(2024, 3, 5, 8, 15, 0, 0, time.UTC),
		Mood:      5,
		Urgency:   5,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *model.Entry)
		wantErr bool
	}{
		{"valid", func(e *model.Entry) {}, false},
		{"bounds inclusive", func(e *model.Entry) { e.Mood = 1; e.Urgency = 10 }, false},
		{"missing id", func(e *model.Entry) { e.ID = "" }, true},
		{"zero timestamp", func(e *model.Entry) { e.Timestamp = time.Time{} }, true},
		{"mood too low", func(e *model.Entry) { e.Mood = 0 }, true},
		{"mood too high", func(e *model.Entry) { e.Mood = 11 }, true},
		{"urgency too low", func(e *model.Entry) { e.Urgency = 0 }, true},
		{"urgency too high", func(e *model.Entry) { e.Urgency = 11 }, true},
		{"notes at limit", func(e *model.Entry) { e.Notes = strings.Repeat("è", 500) }, false},
		{"notes over limit", func(e *model.Entry) { e.Notes = strings.Repeat("a", 501) }, true},
	}
	for _, tt := range tests {
		e := validEntry()
		tt.mutate(&e)
		err := e.Validate()
		if tt.wantErr {
			if !errors.Is(err, model.ErrInvalidEntry) {
				t.Errorf("%s: Validate() = %v, want ErrInvalidEntry", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: Validate() = %v, want nil", tt.name, err)
		}
	}
}
