// Package normalize converts raw vendor telemetry codes into physical units.
package normalize

import (
	"encoding/json"
	"time"

	"plugmon/internal/tuya"
)

// Metrics holds one sample's worth of normalized telemetry. Switch is nil
// when the device did not report a relay state. Unknown collects data points
// the decoder has no rule for, so callers can still inspect them.
type Metrics struct {
	Voltage float64
	Current float64
	Power   float64
	Switch  *bool
	Unknown map[string]json.RawMessage
}

// decoders maps each known vendor code to its unit conversion. A missing or
// undecodable value leaves the field at zero: partial telemetry must never
// abort a write.
var decoders = map[string]func(*Metrics, json.RawMessage){
	// reported in deci-volts
	"cur_voltage": func(m *Metrics, raw json.RawMessage) {
		if v, ok := number(raw); ok {
			m.Voltage = v / 10.0
		}
	},
	// reported in milliamps
	"cur_current": func(m *Metrics, raw json.RawMessage) {
		if v, ok := number(raw); ok {
			m.Current = v / 1000.0
		}
	},
	// reported in watts
	"cur_power": func(m *Metrics, raw json.RawMessage) {
		if v, ok := number(raw); ok {
			m.Power = v
		}
	},
	"switch_1": func(m *Metrics, raw json.RawMessage) {
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			m.Switch = &b
		}
	},
}

// Decode normalizes a vendor status payload. Unrecognized codes land in
// Unknown rather than failing the sample.
func Decode(points []tuya.DataPoint) Metrics {
	var m Metrics
	for _, p := range points {
		dec, ok := decoders[p.Code]
		if !ok {
			if m.Unknown == nil {
				m.Unknown = make(map[string]json.RawMessage)
			}
			m.Unknown[p.Code] = p.Value
			continue
		}
		dec(&m, p.Value)
	}
	return m
}

// EnergyKWh derives the approximate energy consumed over one sampling
// interval from the instantaneous power. This is an approximation, not a
// metered value: it assumes the sample is representative of the whole
// interval, so callers polling at a different cadence must pass their own
// interval or the accumulated total drifts.
func (m Metrics) EnergyKWh(interval time.Duration) float64 {
	return m.Power / 1000.0 * interval.Hours()
}

func number(raw json.RawMessage) (float64, bool) {
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}
