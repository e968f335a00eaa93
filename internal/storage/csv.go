package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"plugmon/internal/domain"
)

// TimestampLayout is the CSV row timestamp format, always UTC.
const TimestampLayout = "2006-01-02 15:04:05"

var csvHeader = []string{"timestamp", "device_id", "device_name", "voltage", "current", "power", "energy_kWh"}

// CSVStore is the primary sink: one append-only file per device under dir.
// It is the durability guarantee of record, so its failures are never
// swallowed. Callers must serialize writes per device; the file is opened in
// append mode but there is no cross-process lock.
type CSVStore struct {
	dir string
}

func NewCSVStore(dir string) *CSVStore { return &CSVStore{dir: dir} }

func (s *CSVStore) path(deviceID string) string {
	return filepath.Join(s.dir, deviceID+".csv")
}

// Append writes one reading, creating the file with a header row first if it
// does not exist yet.
func (s *CSVStore) Append(r domain.Reading) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(s.path(r.DeviceID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat csv: %w", err)
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	if err := w.Write([]string{
		r.Timestamp.UTC().Format(TimestampLayout),
		r.DeviceID,
		r.DeviceName,
		formatFloat(r.Voltage),
		formatFloat(r.Current),
		formatFloat(r.Power),
		formatFloat(r.EnergyKWh),
	}); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// ReadAll returns every reading logged for the device, in file order. A
// device with no file yet has no readings.
func (s *CSVStore) ReadAll(deviceID string) ([]domain.Reading, error) {
	f, err := os.Open(s.path(deviceID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	var out []domain.Reading
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == csvHeader[0] {
			continue
		}
		if len(row) < 7 {
			continue
		}
		ts, err := time.ParseInLocation(TimestampLayout, row[0], time.UTC)
		if err != nil {
			continue
		}
		out = append(out, domain.Reading{
			Timestamp:  ts,
			DeviceID:   row[1],
			DeviceName: row[2],
			Voltage:    parseFloat(row[3]),
			Current:    parseFloat(row[4]),
			Power:      parseFloat(row[5]),
			EnergyKWh:  parseFloat(row[6]),
		})
	}
	return out, nil
}

// Range returns readings with start <= timestamp <= end, ascending.
func (s *CSVStore) Range(ctx context.Context, deviceID string, start, end time.Time) ([]domain.Reading, error) {
	all, err := s.ReadAll(deviceID)
	if err != nil {
		return nil, err
	}
	var out []domain.Reading
	for _, r := range all {
		if r.Timestamp.Before(start) || r.Timestamp.After(end) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Latest returns the n most recent readings, newest first.
func (s *CSVStore) Latest(ctx context.Context, deviceID string, n int) ([]domain.Reading, error) {
	all, err := s.ReadAll(deviceID)
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Timestamp.After(all[j].Timestamp) })
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
