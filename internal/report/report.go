// Package report aggregates logged entries into windowed, hour-bucketed summaries.
package report

import (
	"sort"
	"time"

	"github.com/Tiliavir/nicolog/internal/model"
	"github.com/Tiliavir/nicolog/internal/timecalc"
)

// HoursPerDay is the number of buckets in every report.
const HoursPerDay = 24

// RecentLimit caps the recent smoked entries table.
const RecentLimit = 10

// HourBucket aggregates the entries logged during one hour of the day.
type HourBucket struct {
	Hour           int     `json:"hour"`
	SmokedCount    int     `json:"smoked_count"`
	ResistedCount  int     `json:"resisted_count"`
	Total          int     `json:"total"`
	AverageMood    float64 `json:"average_mood"`
	AverageUrgency float64 `json:"average_urgency"`
}

// Report is everything the report view renders for one window.
type Report struct {
	Granularity   timecalc.Granularity    `json:"granularity"`
	Label         string                  `json:"label"`
	Window        timecalc.Window         `json:"window"`
	SmokedCount   int                     `json:"smoked_count"`
	ResistedCount int                     `json:"resisted_count"`
	Hours         [HoursPerDay]HourBucket `json:"hours"`
	RecentSmoked  []model.Entry           `json:"recent_smoked"`
}

// TodaySummary holds the counters shown on the logging screen.
type TodaySummary struct {
	Date     string `json:"date"`
	Total    int    `json:"total"`
	Smoked   int    `json:"smoked"`
	Resisted int    `json:"resisted"`
}

// Filter returns the entries whose timestamp lies within w, in source order.
func Filter(entries []model.Entry, w timecalc.Window) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if w.Contains(e.Timestamp) {
			out = append(out, e)
		}
	}
	return out
}

// BucketByHour spreads entries over 24 hour-of-day buckets. Every bucket is
// present; averages are zero for hours without entries.
func BucketByHour(entries []model.Entry) [HoursPerDay]HourBucket {
	var buckets [HoursPerDay]HourBucket
	var moodSum, urgencySum [HoursPerDay]int

	for i := range buckets {
		buckets[i].Hour = i
	}
	for _, e := range entries {
		h := e.Timestamp.Hour()
		if e.Smoked {
			buckets[h].SmokedCount++
		} else {
			buckets[h].ResistedCount++
		}
		buckets[h].Total++
		moodSum[h] += e.Mood
		urgencySum[h] += e.Urgency
	}
	for i := range buckets {
		if n := buckets[i].Total; n > 0 {
			buckets[i].AverageMood = float64(moodSum[i]) / float64(n)
			buckets[i].AverageUrgency = float64(urgencySum[i]) / float64(n)
		}
	}
	return buckets
}

// Counts returns how many entries were smoked and how many were resisted.
func Counts(entries []model.Entry) (smoked, resisted int) {
	for _, e := range entries {
		if e.Smoked {
			smoked++
		} else {
			resisted++
		}
	}
	return smoked, resisted
}

// RecentSmoked returns up to limit smoked entries, newest first.
func RecentSmoked(entries []model.Entry, limit int) []model.Entry {
	var smoked []model.Entry
	for _, e := range entries {
		if e.Smoked {
			smoked = append(smoked, e)
		}
	}
	sort.SliceStable(smoked, func(i, j int) bool {
		return smoked[i].Timestamp.After(smoked[j].Timestamp)
	})
	if len(smoked) > limit {
		smoked = smoked[:limit]
	}
	if smoked == nil {
		smoked = []model.Entry{}
	}
	return smoked
}

// Build computes the report of granularity g around ref.
func Build(entries []model.Entry, ref time.Time, g timecalc.Granularity) Report {
	w := timecalc.ComputeWindow(ref, g)
	filtered := Filter(entries, w)
	smoked, resisted := Counts(filtered)
	return Report{
		Granularity:   g,
		Label:         timecalc.Label(ref, g),
		Window:        w,
		SmokedCount:   smoked,
		ResistedCount: resisted,
		Hours:         BucketByHour(filtered),
		RecentSmoked:  RecentSmoked(filtered, RecentLimit),
	}
}

// Today summarises the entries logged on now's calendar day.
func Today(entries []model.Entry, now time.Time) TodaySummary {
	today := Filter(entries, timecalc.ComputeWindow(now, timecalc.Day))
	smoked, resisted := Counts(today)
	return TodaySummary{
		Date:     now.Format("2006-01-02"),
		Total:    len(today),
		Smoked:   smoked,
		Resisted: resisted,
	}
}
