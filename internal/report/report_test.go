package report_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/nicolog/internal/model"
	"github.com/Tiliavir/nicolog/internal/report"
	"github.com/Tiliavir/nicolog/internal/timecalc"
)

func entryAt(ts time.Time, smoked bool, mood, urgency int) model.Entry {
	return model.Entry{
		ID:        timecalc.GenerateID(ts),
		Timestamp: ts,
		Mood:      mood,
		Urgency:   urgency,
		Smoked:    smoked,
	}
}

func TestBuildExampleScenario(t *testing.T) {
	entries := []model.Entry{
		entryAt(time.Date(2024, 3, 5, 8, 15, 0, 0, time.Local), true, 6, 8),
		entryAt(time.Date(2024, 3, 5, 8, 45, 0, 0, time.Local), false, 7, 3),
	}

	r := report.Build(entries, time.Date(2024, 3, 5, 12, 0, 0, 0, time.Local), timecalc.Day)

	assert.Equal(t, 1, r.SmokedCount)
	assert.Equal(t, 1, r.ResistedCount)
	assert.Equal(t, report.HourBucket{
		Hour:           8,
		SmokedCount:    1,
		ResistedCount:  1,
		Total:          2,
		AverageMood:    6.5,
		AverageUrgency: 5.5,
	}, r.Hours[8])
	for h, b := range r.Hours {
		if h == 8 {
			continue
		}
		assert.Equal(t, report.HourBucket{Hour: h}, b, "hour %d", h)
	}
	require.Len(t, r.RecentSmoked, 1)
	assert.Equal(t, entries[0].ID, r.RecentSmoked[0].ID)
}

func TestBucketByHourEmpty(t *testing.T) {
	buckets := report.BucketByHour(nil)
	require.Len(t, buckets, 24)
	for h, b := range buckets {
		assert.Equal(t, h, b.Hour)
		assert.Zero(t, b.SmokedCount)
		assert.Zero(t, b.ResistedCount)
		assert.Zero(t, b.AverageMood)
		assert.Zero(t, b.AverageUrgency)
	}
}

func TestBucketByHourSingleEntry(t *testing.T) {
	for _, smoked := range []bool{true, false} {
		for hour := 0; hour < 24; hour++ {
			e := entryAt(time.Date(2024, 6, 1, hour, 30, 0, 0, time.UTC), smoked, 3, 9)
			buckets := report.BucketByHour([]model.Entry{e})

			var smokedSum, resistedSum int
			for _, b := range buckets {
				smokedSum += b.SmokedCount
				resistedSum += b.ResistedCount
			}
			if smoked {
				assert.Equal(t, 1, smokedSum)
				assert.Equal(t, 0, resistedSum)
			} else {
				assert.Equal(t, 0, smokedSum)
				assert.Equal(t, 1, resistedSum)
			}
			assert.Equal(t, 3.0, buckets[hour].AverageMood)
			assert.Equal(t, 9.0, buckets[hour].AverageUrgency)
		}
	}
}

func TestBucketSumsMatchCounts(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var entries []model.Entry
	for i := 0; i < 200; i++ {
		ts := base.Add(time.Duration(i*37) * time.Minute)
		entries = append(entries, entryAt(ts, i%3 != 0, i%10+1, (i*7)%10+1))
	}

	filtered := report.Filter(entries, timecalc.ComputeWindow(base, timecalc.Week))
	require.NotEmpty(t, filtered)
	buckets := report.BucketByHour(filtered)
	smoked, resisted := report.Counts(filtered)

	var smokedSum, resistedSum int
	for _, b := range buckets {
		smokedSum += b.SmokedCount
		resistedSum += b.ResistedCount
	}
	assert.Equal(t, smoked, smokedSum)
	assert.Equal(t, resisted, resistedSum)
	assert.Equal(t, len(filtered), smoked+resisted)
}

func TestFilter(t *testing.T) {
	w := timecalc.ComputeWindow(time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC), timecalc.Day)
	entries := []model.Entry{
		entryAt(time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC), true, 5, 5),
		entryAt(time.Date(2024, 3, 4, 23, 59, 59, 0, time.UTC), true, 5, 5),
		entryAt(w.Start, false, 5, 5),
		entryAt(w.End, true, 5, 5),
		entryAt(w.End.Add(time.Millisecond), true, 5, 5),
		entryAt(time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC), false, 5, 5),
	}

	got := report.Filter(entries, w)
	require.Len(t, got, 4)
	// Source order is preserved even though the input is unsorted.
	assert.Equal(t, entries[0].ID, got[0].ID)
	assert.Equal(t, entries[2].ID, got[1].ID)
	assert.Equal(t, entries[3].ID, got[2].ID)
	assert.Equal(t, entries[5].ID, got[3].ID)

	again := report.Filter(got, w)
	assert.Equal(t, got, again, "filter must be idempotent")
}

func TestRecentSmoked(t *testing.T) {
	base := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	var entries []model.Entry
	// Oldest first, to make sure ordering is re-derived.
	for i := 0; i < 15; i++ {
		entries = append(entries, entryAt(base.Add(time.Duration(i)*time.Hour), true, 5, 5))
	}
	entries = append(entries, entryAt(base.Add(20*time.Hour), false, 5, 5))

	recent := report.RecentSmoked(entries, report.RecentLimit)
	require.Len(t, recent, 10)
	assert.Equal(t, 14, recent[0].Timestamp.Hour())
	assert.Equal(t, 5, recent[9].Timestamp.Hour())
	for i := 1; i < len(recent); i++ {
		assert.True(t, recent[i-1].Timestamp.After(recent[i].Timestamp), "not newest-first at %d", i)
		assert.True(t, recent[i].Smoked)
	}

	assert.Empty(t, report.RecentSmoked(nil, report.RecentLimit))
	assert.NotNil(t, report.RecentSmoked(nil, report.RecentLimit))
}

func TestBuildMonthWindow(t *testing.T) {
	var entries []model.Entry
	for day := 1; day <= 31; day++ {
		entries = append(entries, entryAt(time.Date(2024, 1, day, 10, 0, 0, 0, time.UTC), day%2 == 0, 5, 5))
	}
	entries = append(entries, entryAt(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), true, 5, 5))

	r := report.Build(entries, time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), timecalc.Month)
	assert.Equal(t, 15, r.SmokedCount)
	assert.Equal(t, 16, r.ResistedCount)
	assert.Equal(t, 31, r.Hours[10].Total)
	assert.Equal(t, "January 2024", r.Label)
}

func TestToday(t *testing.T) {
	now := time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC)
	entries := []model.Entry{
		entryAt(now.Add(-time.Hour), true, 5, 5),
		entryAt(now.Add(-2*time.Hour), false, 5, 5),
		entryAt(now.Add(-3*time.Hour), false, 5, 5),
		entryAt(now.Add(-24*time.Hour), true, 5, 5),
	}
	s := report.Today(entries, now)
	assert.Equal(t, report.TodaySummary{Date: "2024-03-05", Total: 3, Smoked: 1, Resisted: 2}, s)
}

func ExampleBucketByHour() {
	entries := []model.Entry{
		{ID: "a", Timestamp: time.Date(2024, 3, 5, 8, 15, 0, 0, time.UTC), Mood: 6, Urgency: 8, Smoked: true},
		{ID: "b", Timestamp: time.Date(2024, 3, 5, 8, 45, 0, 0, time.UTC), Mood: 7, Urgency: 3},
	}
	b := report.BucketByHour(entries)[8]
	fmt.Println(b.SmokedCount, b.ResistedCount, b.AverageMood, b.AverageUrgency)
	// Output: 1 1 6.5 5.5
}
