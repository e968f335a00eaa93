// Package billing converts summed energy into money using a progressive
// slab-rate table.
package billing

import (
	"context"
	"math"
	"time"

	"plugmon/internal/domain"
	"plugmon/internal/query"
)

// Slab charges its marginal Rate for consumption falling between the
// previous slab's upper bound and UpperKWh. Bounds are cumulative.
type Slab struct {
	UpperKWh float64
	Rate     float64
}

// RateTable is an ascending sequence of slabs partitioning [0, inf). The
// last slab's bound must be +Inf.
type RateTable []Slab

// DefaultRates is the residential tier table the system bills against.
var DefaultRates = RateTable{
	{50, 4.63},
	{75, 5.26},
	{200, 7.20},
	{300, 7.59},
	{400, 8.02},
	{600, 12.67},
	{math.Inf(1), 14.61},
}

// TierCost returns the cost of units kWh. Each slab's rate applies only to
// the portion of consumption inside that slab, so e.g. the third slab spans
// 76-200 kWh, not 0-200. Rounded to 2 decimal places.
func (t RateTable) TierCost(units float64) float64 {
	remaining := units
	lastUpper := 0.0
	cost := 0.0
	for _, slab := range t {
		if remaining <= 0 {
			break
		}
		width := math.Min(remaining, slab.UpperKWh-lastUpper)
		cost += width * slab.Rate
		remaining -= width
		lastUpper = slab.UpperKWh
	}
	return round(cost, 2)
}

// Summary holds today's and this calendar month's consumption and cost.
type Summary struct {
	DayKWh    float64 `json:"day_kwh"`
	DayCost   float64 `json:"day_cost"`
	MonthKWh  float64 `json:"month_kwh"`
	MonthCost float64 `json:"month_cost"`
}

// DailyMonthly computes the billing rollup for one device. The day window is
// [local midnight, end of day] and the month window is [first of month,
// first of next month) in now's location. An empty window yields zeros.
func DailyMonthly(ctx context.Context, store query.Store, rates RateTable, deviceID string, now time.Time) (Summary, error) {
	dayKWh, monthKWh, err := windowedEnergy(ctx, store, deviceID, now)
	if err != nil {
		return Summary{}, err
	}
	dayKWh = round(dayKWh, 3)
	monthKWh = round(monthKWh, 3)
	return Summary{
		DayKWh:    dayKWh,
		DayCost:   rates.TierCost(dayKWh),
		MonthKWh:  monthKWh,
		MonthCost: rates.TierCost(monthKWh),
	}, nil
}

// Household computes the rollup across all devices. Each device's windowed
// energy is summed first and the tier table applied once to the grand total:
// tiers bill aggregate household consumption, never per-device consumption.
func Household(ctx context.Context, store query.Store, rates RateTable, deviceIDs []string, now time.Time) (Summary, error) {
	var dayTotal, monthTotal float64
	for _, id := range deviceIDs {
		day, month, err := windowedEnergy(ctx, store, id, now)
		if err != nil {
			return Summary{}, err
		}
		dayTotal += day
		monthTotal += month
	}
	dayTotal = round(dayTotal, 3)
	monthTotal = round(monthTotal, 3)
	return Summary{
		DayKWh:    dayTotal,
		DayCost:   rates.TierCost(dayTotal),
		MonthKWh:  monthTotal,
		MonthCost: rates.TierCost(monthTotal),
	}, nil
}

func windowedEnergy(ctx context.Context, store query.Store, deviceID string, now time.Time) (day, month float64, err error) {
	dayStart, dayEnd := dayWindow(now)
	monthStart, monthEnd := monthWindow(now)

	dayReadings, err := store.Range(ctx, deviceID, dayStart, dayEnd)
	if err != nil {
		return 0, 0, err
	}
	monthReadings, err := store.Range(ctx, deviceID, monthStart, monthEnd)
	if err != nil {
		return 0, 0, err
	}
	return sumEnergy(dayReadings), sumEnergy(monthReadings), nil
}

func dayWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func monthWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

func sumEnergy(readings []domain.Reading) float64 {
	total := 0.0
	for _, r := range readings {
		total += r.EnergyKWh
	}
	return total
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
