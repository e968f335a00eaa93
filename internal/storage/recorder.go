package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"plugmon/internal/domain"
	"plugmon/internal/normalize"
)

// StorageError reports a primary-sink write failure. Secondary-sink failures
// never surface as errors; they are logged inside the recorder.
type StorageError struct {
	Sink string
	Err  error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s sink: %v", e.Sink, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// ErrDocStoreNotConfigured is returned by Backfill when there is no document
// store to backfill into.
var ErrDocStoreNotConfigured = errors.New("document store not configured")

// LivePublisher receives each successfully recorded reading. Implementations
// must not block the recording path.
type LivePublisher interface {
	Publish(r domain.Reading)
}

// DocSink is the secondary sink's write surface. *MongoStore satisfies it.
// A nil DocSink means the secondary sink is not configured.
type DocSink interface {
	Insert(ctx context.Context, r domain.Reading) error
	Upsert(ctx context.Context, r domain.Reading) error
}

// Recorder appends each normalized sample to the CSV sink and, when
// configured, the document sink. CSV success alone satisfies the contract:
// telemetry logging must never block device monitoring on a secondary
// store's outage, so document-sink errors are logged and swallowed.
type Recorder struct {
	csv      *CSVStore
	docs     DocSink
	live     LivePublisher
	interval time.Duration
}

// NewRecorder wires the sinks. sampleInterval is the nominal polling cadence
// used to derive per-sample energy; it defaults to one minute.
func NewRecorder(csv *CSVStore, docs DocSink, live LivePublisher, sampleInterval time.Duration) *Recorder {
	if sampleInterval <= 0 {
		sampleInterval = time.Minute
	}
	return &Recorder{csv: csv, docs: docs, live: live, interval: sampleInterval}
}

// Record stamps the sample with the current UTC time and writes it to both
// sinks. The returned reading is valid whenever the CSV write succeeded, so
// callers can render it without waiting on the document store.
func (rec *Recorder) Record(ctx context.Context, device domain.Device, m normalize.Metrics) (domain.Reading, error) {
	r := domain.Reading{
		DeviceID:   device.ID,
		DeviceName: device.Name,
		Timestamp:  time.Now().UTC().Truncate(time.Second),
		Voltage:    m.Voltage,
		Current:    m.Current,
		Power:      m.Power,
		EnergyKWh:  m.EnergyKWh(rec.interval),
	}

	if err := rec.csv.Append(r); err != nil {
		return domain.Reading{}, &StorageError{Sink: "csv", Err: err}
	}

	if rec.docs != nil {
		if err := rec.docs.Insert(ctx, r); err != nil {
			log.Error().Err(err).Str("device_id", device.ID).Msg("document sink insert failed")
		}
	}

	if rec.live != nil {
		rec.live.Publish(r)
	}
	return r, nil
}

// Backfill imports every CSV row for the device into the document store.
// Rows are upserted on (device_id, timestamp), so the operation is
// idempotent. Returns the number of rows written.
func (rec *Recorder) Backfill(ctx context.Context, deviceID string) (int, error) {
	if rec.docs == nil {
		return 0, ErrDocStoreNotConfigured
	}
	rows, err := rec.csv.ReadAll(deviceID)
	if err != nil {
		return 0, &StorageError{Sink: "csv", Err: err}
	}
	n := 0
	for _, r := range rows {
		if err := rec.docs.Upsert(ctx, r); err != nil {
			return n, &StorageError{Sink: "documents", Err: err}
		}
		n++
	}
	return n, nil
}
