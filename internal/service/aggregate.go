package service

import (
	"time"

	"health_dashboard/internal/models"
)

// heartRateWindow is how far back LatestHeartRate looks.
const heartRateWindow = 60 * time.Minute

// SumSteps totals the counts of all buckets. Overlapping buckets are summed
// as reported. No samples yields 0.
func SumSteps(samples []models.StepSample) int64 {
	var total int64
	for _, s := range samples {
		total += s.Count
	}
	return total
}

// LatestHeartRate picks the reading with the strictly greatest timestamp.
// On equal timestamps the first one in provider order wins. It reports false
// when there are no samples.
func LatestHeartRate(samples []models.HeartRateSample) (float64, bool) {
	if len(samples) == 0 {
		return 0, false
	}
	latest := samples[0]
	for _, s := range samples[1:] {
		if s.Timestamp > latest.Timestamp {
			latest = s
		}
	}
	return latest.HeartRate, true
}

// DayRange returns [local midnight, next midnight) of the day containing now.
func DayRange(now time.Time, loc *time.Location) models.TimeRange {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return models.NewTimeRange(start, start.AddDate(0, 0, 1))
}

// TrailingWindow returns [now-d, now].
func TrailingWindow(now time.Time, d time.Duration) models.TimeRange {
	return models.NewTimeRange(now.Add(-d), now)
}
