package services

import (
	"time"

	"traffic-insight/internal/models"
)

// Peak windows in minutes from midnight: 08:00-10:30 and 17:00-20:30.
const (
	morningPeakStart = 8 * 60
	morningPeakEnd   = 10*60 + 30
	eveningPeakStart = 17 * 60
	eveningPeakEnd   = 20*60 + 30
)

// NewTimeContext classifies a wall-clock instant into the pattern context
// used by both the synthetic fallback and the attribution engine.
func NewTimeContext(now time.Time) models.TimeContext {
	minutes := now.Hour()*60 + now.Minute()
	weekday := now.Weekday()
	isWeekend := weekday == time.Saturday || weekday == time.Sunday

	var period string
	var peak bool
	switch {
	case minutes >= morningPeakStart && minutes < morningPeakEnd:
		period = "Morning Peak"
		peak = true
	case minutes >= eveningPeakStart && minutes < eveningPeakEnd:
		period = "Evening Peak"
		peak = true
	case minutes >= morningPeakEnd && minutes < eveningPeakStart:
		period = "Midday"
	default:
		period = "Off-Peak"
	}

	return models.TimeContext{
		Now:        now,
		Period:     period,
		PeakWindow: peak,
		IsWeekend:  isWeekend,
	}
}
