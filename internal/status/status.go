// Package status infers a device's operating state from its most recent
// reading. Nothing is persisted; the state is re-derived on every query.
package status

import (
	"time"

	"plugmon/internal/domain"
)

type State string

const (
	StateOn      State = "on"
	StateIdle    State = "idle"
	StateOff     State = "off"
	StateOffline State = "offline"
)

// Thresholds tune the classifier. Stale is checked before any voltage or
// current logic: a stale reading is offline no matter what it contains.
type Thresholds struct {
	Voltage float64
	Current float64
	Stale   time.Duration
}

var DefaultThresholds = Thresholds{
	Voltage: 30.0,
	Current: 0.01,
	Stale:   120 * time.Second,
}

// Classify maps the most recent reading to a state:
//
//	offline: no reading, or the reading is older than the staleness window
//	on:      fresh, voltage above threshold and drawing current
//	idle:    fresh, voltage above threshold but negligible current
//	off:     fresh, voltage at or below threshold (unpowered)
func Classify(latest *domain.Reading, now time.Time, th Thresholds) State {
	if latest == nil {
		return StateOffline
	}
	if now.Sub(latest.Timestamp) > th.Stale {
		return StateOffline
	}
	if latest.Voltage > th.Voltage {
		if latest.Current > th.Current {
			return StateOn
		}
		return StateIdle
	}
	return StateOff
}
