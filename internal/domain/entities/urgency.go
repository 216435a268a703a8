package entities

import "time"

// UrgencyLevel is derived from a reminder and the current time. It is never persisted.
type UrgencyLevel string

const (
	UrgencyNone   UrgencyLevel = ""
	UrgencyGreen  UrgencyLevel = "urgent-green"
	UrgencyOrange UrgencyLevel = "urgent-orange"
	UrgencyRed    UrgencyLevel = "urgent-red"
)

const (
	redThreshold    = 6 * time.Hour
	orangeThreshold = 36 * time.Hour
	greenThreshold  = 5 * 24 * time.Hour
)

// ClassifyUrgency buckets the time left until the reminder deadline.
// Deadlines already in the past count as red.
func ClassifyUrgency(r *Reminder, now time.Time, loc *time.Location) UrgencyLevel {
	if r == nil || r.IsZero() {
		return UrgencyNone
	}

	deadline, err := r.Deadline(loc)
	if err != nil {
		return UrgencyNone
	}

	left := deadline.Sub(now)
	switch {
	case left <= redThreshold:
		return UrgencyRed
	case left <= orangeThreshold:
		return UrgencyOrange
	case left <= greenThreshold:
		return UrgencyGreen
	default:
		return UrgencyNone
	}
}

// Rank orders levels for sorting, most urgent first
func (u UrgencyLevel) Rank() int {
	switch u {
	case UrgencyRed:
		return 0
	case UrgencyOrange:
		return 1
	case UrgencyGreen:
		return 2
	default:
		return 3
	}
}
