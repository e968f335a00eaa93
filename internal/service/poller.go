// Package service drives the poll cycle: authenticate, fetch, normalize,
// record. Each cycle is a complete, independent unit of work with no retries;
// retry policy belongs to whatever schedules the cycles.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"plugmon/internal/domain"
	"plugmon/internal/normalize"
	"plugmon/internal/storage"
	"plugmon/internal/tuya"
)

// DeviceLister supplies the devices to poll. Re-read every cycle so registry
// edits take effect without a restart.
type DeviceLister func() ([]domain.Device, error)

type Poller struct {
	api     *tuya.Client
	rec     *storage.Recorder
	devices DeviceLister
}

func NewPoller(client *tuya.Client, rec *storage.Recorder, devices DeviceLister) *Poller {
	return &Poller{api: client, rec: rec, devices: devices}
}

// CycleResult is the outcome of one device within a cycle.
type CycleResult struct {
	Device  domain.Device
	Reading domain.Reading
	Err     error
}

// RunOnce polls every registered device sequentially under a single fresh
// token. A token failure aborts the cycle before any write. A per-device
// status or storage failure is reported in its result and the cycle moves on
// to the next device.
func (p *Poller) RunOnce(ctx context.Context) ([]CycleResult, error) {
	cycle := uuid.NewString()

	token, err := p.api.GetToken(ctx)
	if err != nil {
		log.Error().Err(err).Str("cycle", cycle).Msg("token fetch failed, cycle aborted")
		return nil, err
	}

	devices, err := p.devices()
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		log.Warn().Str("cycle", cycle).Msg("no devices registered, nothing to poll")
		return nil, nil
	}

	results := make([]CycleResult, 0, len(devices))
	for _, d := range devices {
		res := CycleResult{Device: d}
		points, err := p.api.GetStatus(ctx, d.ID, token)
		if err != nil {
			log.Error().Err(err).Str("cycle", cycle).Str("device_id", d.ID).Msg("status fetch failed")
			res.Err = err
			results = append(results, res)
			continue
		}
		reading, err := p.rec.Record(ctx, d, normalize.Decode(points))
		if err != nil {
			log.Error().Err(err).Str("cycle", cycle).Str("device_id", d.ID).Msg("record failed")
			res.Err = err
			results = append(results, res)
			continue
		}
		log.Info().
			Str("cycle", cycle).
			Str("device_id", d.ID).
			Float64("power_w", reading.Power).
			Float64("voltage_v", reading.Voltage).
			Msg("reading recorded")
		res.Reading = reading
		results = append(results, res)
	}
	return results, nil
}

// Control sends a switch command to one device under a fresh token. The
// command is fire-and-forget: no confirmation poll and never a retry, since
// a blind retry could double-toggle physical hardware.
func (p *Poller) Control(ctx context.Context, deviceID, code string, value any) ([]byte, error) {
	token, err := p.api.GetToken(ctx)
	if err != nil {
		return nil, err
	}
	return p.api.SendCommand(ctx, deviceID, token, code, value)
}
