package storage

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"plugmon/internal/domain"
)

func sample(device string, ts time.Time) domain.Reading {
	return domain.Reading{
		DeviceID:   device,
		DeviceName: "Desk Plug",
		Timestamp:  ts,
		Voltage:    220.5,
		Current:    0.15,
		Power:      33,
		EnergyKWh:  0.00055,
	}
}

func TestAppendWritesHeaderExactlyOnce(t *testing.T) {
	dir := t.TempDir()
	store := NewCSVStore(dir)
	base := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)

	const n = 5
	for i := 0; i < n; i++ {
		if err := store.Append(sample("dev1", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	f, err := os.Open(filepath.Join(dir, "dev1.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != n+1 {
		t.Fatalf("file has %d rows, want %d data rows plus one header", len(rows), n+1)
	}
	if rows[0][0] != "timestamp" {
		t.Errorf("first row should be the header, got %v", rows[0])
	}
	for i, row := range rows[1:] {
		if row[0] == "timestamp" {
			t.Errorf("row %d is a duplicate header", i+1)
		}
	}
}

func TestReadAllRoundTrip(t *testing.T) {
	store := NewCSVStore(t.TempDir())
	ts := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)
	in := sample("dev1", ts)
	if err := store.Append(in); err != nil {
		t.Fatal(err)
	}

	out, err := store.ReadAll("dev1")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d readings, want 1", len(out))
	}
	if out[0] != in {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", out[0], in)
	}
}

func TestReadAllMissingFile(t *testing.T) {
	store := NewCSVStore(t.TempDir())
	out, err := store.ReadAll("never-polled")
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if len(out) != 0 {
		t.Errorf("missing file should yield no readings, got %d", len(out))
	}
}

func TestRangeInclusiveBounds(t *testing.T) {
	store := NewCSVStore(t.TempDir())
	start := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Minute)

	for _, ts := range []time.Time{
		start.Add(-time.Minute), // before
		start,                   // exactly at start
		start.Add(5 * time.Minute),
		end,                   // exactly at end
		end.Add(time.Minute),  // after
	} {
		if err := store.Append(sample("dev1", ts)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.Range(context.Background(), "dev1", start, end)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d readings, want 3 (bounds are inclusive)", len(got))
	}
	if !got[0].Timestamp.Equal(start) || !got[len(got)-1].Timestamp.Equal(end) {
		t.Errorf("boundary readings missing: first %v last %v", got[0].Timestamp, got[len(got)-1].Timestamp)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Errorf("range result not ascending at %d", i)
		}
	}
}

func TestLatestNewestFirst(t *testing.T) {
	store := NewCSVStore(t.TempDir())
	base := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		if err := store.Append(sample("dev1", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.Latest(context.Background(), "dev1", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d readings, want 3", len(got))
	}
	if !got[0].Timestamp.Equal(base.Add(9 * time.Minute)) {
		t.Errorf("first reading should be the newest, got %v", got[0].Timestamp)
	}
	if got[0].Timestamp.Before(got[1].Timestamp) || got[1].Timestamp.Before(got[2].Timestamp) {
		t.Errorf("latest result not descending")
	}
}
