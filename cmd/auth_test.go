package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Tiliavir/nicolog/internal/auth"
	"github.com/Tiliavir/nicolog/internal/model"
	"github.com/Tiliavir/nicolog/internal/report"
)

func TestPrintWhoami(t *testing.T) {
	var buf bytes.Buffer
	printWhoami(&buf, nil)
	assert.Equal(t, "Not signed in.\n", buf.String())

	buf.Reset()
	printWhoami(&buf, &auth.User{
		ID:     "abc",
		Email:  "nico@example.com",
		Name:   "Nico",
		Origin: auth.SocialOrigin{Provider: auth.LinkedIn, AvatarURL: "https://example.com/a.png"},
	})
	assert.Equal(t, "Nico <nico@example.com>\n"+
		"  ID:       abc\n"+
		"  Provider: linkedin\n"+
		"  Avatar:   https://example.com/a.png\n", buf.String())

	buf.Reset()
	printWhoami(&buf, &auth.User{ID: "def", Email: "e@example.com", Name: "E", Origin: auth.EmailOrigin{}})
	assert.NotContains(t, buf.String(), "Avatar")
	assert.Contains(t, buf.String(), "Provider: email")
}

func TestPrintLogged(t *testing.T) {
	var buf bytes.Buffer
	e := model.Entry{Timestamp: time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC), Mood: 4, Urgency: 8}
	printLogged(&buf, e, report.TodaySummary{Total: 3, Smoked: 1, Resisted: 2})
	assert.Equal(t, "Logged urge at 09:30 (mood 4, urgency 8) – resisted.\n"+
		"Today: 3 urges, 1 smoked, 2 resisted.\n", buf.String())
}
