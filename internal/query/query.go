// Package query retrieves and reshapes stored readings for charting and
// aggregation. It reads independently of the write path.
package query

import (
	"context"
	"sort"
	"time"

	"plugmon/internal/domain"
	"plugmon/internal/storage"
)

// Store is the read side of a sink. Empty results are empty slices, never
// errors: a data gap renders differently from a failure.
type Store interface {
	// Range returns readings with start <= timestamp <= end, ascending.
	Range(ctx context.Context, deviceID string, start, end time.Time) ([]domain.Reading, error)
	// Latest returns the n most recent readings, newest first.
	Latest(ctx context.Context, deviceID string, n int) ([]domain.Reading, error)
}

// Pick prefers the document store and falls back to the CSV store when the
// former is not configured.
func Pick(docs *storage.MongoStore, csv *storage.CSVStore) Store {
	if docs != nil {
		return docs
	}
	return csv
}

// Resample buckets readings by truncating timestamps to the bucket width and
// averaging every numeric field within each bucket. A bucket with no
// underlying readings produces no row: gaps mean "no data", not zero. A
// non-positive bucket returns the input sorted ascending (raw).
func Resample(readings []domain.Reading, bucket time.Duration) []domain.Reading {
	out := make([]domain.Reading, len(readings))
	copy(out, readings)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if bucket <= 0 {
		return out
	}

	type accum struct {
		reading domain.Reading
		n       int
	}
	buckets := make(map[time.Time]*accum)
	var order []time.Time
	for _, r := range out {
		key := r.Timestamp.Truncate(bucket)
		a, ok := buckets[key]
		if !ok {
			a = &accum{reading: domain.Reading{
				DeviceID:   r.DeviceID,
				DeviceName: r.DeviceName,
				Timestamp:  key,
			}}
			buckets[key] = a
			order = append(order, key)
		}
		a.reading.Voltage += r.Voltage
		a.reading.Current += r.Current
		a.reading.Power += r.Power
		a.reading.EnergyKWh += r.EnergyKWh
		a.n++
	}

	resampled := make([]domain.Reading, 0, len(order))
	for _, key := range order {
		a := buckets[key]
		n := float64(a.n)
		a.reading.Voltage /= n
		a.reading.Current /= n
		a.reading.Power /= n
		a.reading.EnergyKWh /= n
		resampled = append(resampled, a.reading)
	}
	sort.Slice(resampled, func(i, j int) bool { return resampled[i].Timestamp.Before(resampled[j].Timestamp) })
	return resampled
}

// AlignedPoint is one instant on the shared time axis of an all-devices view.
type AlignedPoint struct {
	Timestamp  time.Time `json:"timestamp"`
	PowerSum   float64   `json:"power_sum_w"`
	VoltageAvg float64   `json:"voltage_avg_v"`
	Devices    int       `json:"devices"`
}

// AlignSum outer-joins per-device series on timestamp, summing power and
// averaging voltage over the devices that have data at each point. A device
// with no sample at a point is absent from that point's sum, not zero, so
// devices on different cadences can under-report the true instantaneous
// total. Accepted approximation.
func AlignSum(series map[string][]domain.Reading) []AlignedPoint {
	type accum struct {
		power   float64
		voltage float64
		n       int
	}
	points := make(map[time.Time]*accum)
	for _, readings := range series {
		for _, r := range readings {
			a, ok := points[r.Timestamp]
			if !ok {
				a = &accum{}
				points[r.Timestamp] = a
			}
			a.power += r.Power
			a.voltage += r.Voltage
			a.n++
		}
	}

	out := make([]AlignedPoint, 0, len(points))
	for ts, a := range points {
		out = append(out, AlignedPoint{
			Timestamp:  ts,
			PowerSum:   a.power,
			VoltageAvg: a.voltage / float64(a.n),
			Devices:    a.n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}
