package billing

import (
	"context"
	"testing"
	"time"

	"plugmon/internal/domain"
)

func TestTierCostKnownValues(t *testing.T) {
	cases := []struct {
		units float64
		want  float64
	}{
		{0, 0},
		{50, 231.50},       // entirely in the first slab
		{60, 284.10},       // 50*4.63 + 10*5.26
		{140, 831.00},      // straddles three slabs
		{1000, 11202.00},   // reaches the unbounded top slab
	}
	for _, c := range cases {
		if got := DefaultRates.TierCost(c.units); got != c.want {
			t.Errorf("TierCost(%v) = %v, want %v", c.units, got, c.want)
		}
	}
}

func TestTierCostMonotonic(t *testing.T) {
	prev := -1.0
	for u := 0.0; u <= 1200; u += 7.3 {
		got := DefaultRates.TierCost(u)
		if got < 0 {
			t.Fatalf("TierCost(%v) = %v, negative", u, got)
		}
		if got < prev {
			t.Fatalf("TierCost(%v) = %v < previous %v", u, got, prev)
		}
		prev = got
	}
}

// fakeStore serves a fixed slice, filtering inclusively like a real sink.
type fakeStore struct {
	readings []domain.Reading
}

func (f *fakeStore) Range(_ context.Context, deviceID string, start, end time.Time) ([]domain.Reading, error) {
	var out []domain.Reading
	for _, r := range f.readings {
		if r.DeviceID != deviceID || r.Timestamp.Before(start) || r.Timestamp.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) Latest(_ context.Context, deviceID string, n int) ([]domain.Reading, error) {
	return nil, nil
}

func reading(device string, ts time.Time, kwh float64) domain.Reading {
	return domain.Reading{DeviceID: device, Timestamp: ts, EnergyKWh: kwh}
}

func TestDailyMonthlyWindows(t *testing.T) {
	now := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{readings: []domain.Reading{
		reading("d1", time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC), 1.0),  // today
		reading("d1", time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), 2.0),    // this month
		reading("d1", time.Date(2026, time.July, 31, 23, 59, 0, 0, time.UTC), 5.0),   // last month
	}}

	sum, err := DailyMonthly(context.Background(), store, DefaultRates, "d1", now)
	if err != nil {
		t.Fatal(err)
	}
	if sum.DayKWh != 1.0 {
		t.Errorf("day kWh = %v, want 1.0", sum.DayKWh)
	}
	if sum.DayCost != 4.63 {
		t.Errorf("day cost = %v, want 4.63", sum.DayCost)
	}
	if sum.MonthKWh != 3.0 {
		t.Errorf("month kWh = %v, want 3.0 (July reading must be excluded)", sum.MonthKWh)
	}
	if sum.MonthCost != 13.89 {
		t.Errorf("month cost = %v, want 13.89", sum.MonthCost)
	}
}

func TestDailyMonthlyEmptyWindow(t *testing.T) {
	sum, err := DailyMonthly(context.Background(), &fakeStore{}, DefaultRates, "ghost", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if sum.DayKWh != 0 || sum.DayCost != 0 || sum.MonthKWh != 0 || sum.MonthCost != 0 {
		t.Errorf("empty window should be all zeros, got %+v", sum)
	}
}

// Tiers apply to aggregate household consumption. Two devices at 70 kWh each
// straddle the first slab boundary individually, so the per-device costs sum
// to a different number than the tiered cost of the total.
func TestHouseholdTiersAggregateNotPerDevice(t *testing.T) {
	now := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)
	ts := time.Date(2026, time.August, 10, 8, 0, 0, 0, time.UTC)
	store := &fakeStore{readings: []domain.Reading{
		reading("d1", ts, 70.0),
		reading("d2", ts, 70.0),
	}}

	sum, err := Household(context.Background(), store, DefaultRates, []string{"d1", "d2"}, now)
	if err != nil {
		t.Fatal(err)
	}
	if sum.MonthKWh != 140.0 {
		t.Fatalf("month kWh = %v, want 140.0", sum.MonthKWh)
	}
	want := DefaultRates.TierCost(140.0)
	if sum.MonthCost != want {
		t.Errorf("household cost = %v, want TierCost(140) = %v", sum.MonthCost, want)
	}
	perDevice := 2 * DefaultRates.TierCost(70.0)
	if sum.MonthCost == perDevice {
		t.Errorf("household cost must not equal summed per-device costs (%v)", perDevice)
	}
}
