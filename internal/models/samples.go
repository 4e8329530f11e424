package models

import (
	"errors"
	"time"
)

var errInvalidTimeRange = errors.New("invalid time range: start must be non-negative and <= end")

// TimeRange is a [start, end] window in Unix milliseconds.
type TimeRange struct {
	StartMillis int64 `json:"start_millis"`
	EndMillis   int64 `json:"end_millis"`
}

// NewTimeRange converts wall-clock bounds into a millisecond range.
func NewTimeRange(start, end time.Time) TimeRange {
	return TimeRange{StartMillis: start.UnixMilli(), EndMillis: end.UnixMilli()}
}

// Validate checks the preconditions every range query relies on.
func (r TimeRange) Validate() error {
	if r.StartMillis < 0 || r.EndMillis < 0 || r.StartMillis > r.EndMillis {
		return errInvalidTimeRange
	}
	return nil
}

// Start returns the lower bound as a time.Time.
func (r TimeRange) Start() time.Time { return time.UnixMilli(r.StartMillis) }

// End returns the upper bound as a time.Time.
func (r TimeRange) End() time.Time { return time.UnixMilli(r.EndMillis) }

// Contains reports whether ms falls inside the range, bounds included.
func (r TimeRange) Contains(ms int64) bool {
	return ms >= r.StartMillis && ms <= r.EndMillis
}

// StepSample is one aggregation bucket reported by a provider.
// Buckets of one request may overlap.
type StepSample struct {
	Count     int64 `json:"count"`
	StartTime int64 `json:"startTime"`
	EndTime   int64 `json:"endTime"`
}

// Range returns the bucket's covered window.
func (s StepSample) Range() TimeRange {
	return TimeRange{StartMillis: s.StartTime, EndMillis: s.EndTime}
}

// HeartRateSample is one discrete reading in beats per minute.
type HeartRateSample struct {
	HeartRate float64 `json:"heartRate"`
	Timestamp int64   `json:"timestamp"`
}

// Time returns the reading instant.
func (s HeartRateSample) Time() time.Time { return time.UnixMilli(s.Timestamp) }
