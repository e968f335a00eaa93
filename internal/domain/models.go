package domain

import "time"

// Device is one registered smart plug. The registry (devices.json) owns the
// lifecycle; the core only keys storage by ID and carries Name for display.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Reading is a single normalized telemetry sample. Readings are immutable
// once written; there is no update or delete path anywhere in the core.
type Reading struct {
	DeviceID   string    `json:"device_id" bson:"device_id"`
	DeviceName string    `json:"device_name" bson:"device_name"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
	Voltage    float64   `json:"voltage" bson:"voltage"`
	Current    float64   `json:"current" bson:"current"`
	Power      float64   `json:"power" bson:"power"`
	EnergyKWh  float64   `json:"energy_kWh" bson:"energy_kWh"`
}
