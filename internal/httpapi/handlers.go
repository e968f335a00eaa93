// Package httpapi exposes the core to the dashboard over JSON. Page
// rendering and navigation live entirely in the dashboard; this is its
// data surface.
package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"plugmon/internal/billing"
	"plugmon/internal/domain"
	"plugmon/internal/query"
	"plugmon/internal/service"
	"plugmon/internal/status"
	"plugmon/internal/storage"
	"plugmon/internal/tuya"
)

type Deps struct {
	Poller     *service.Poller
	Recorder   *storage.Recorder
	Store      query.Store
	Devices    service.DeviceLister
	Rates      billing.RateTable
	Thresholds status.Thresholds
}

func Register(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	app.Get("/devices", d.listDevices)
	app.Get("/devices/:id/status", d.deviceStatus)
	app.Get("/devices/:id/latest", d.deviceLatest)
	app.Get("/devices/:id/readings", d.deviceReadings)
	app.Get("/devices/:id/bill", d.deviceBill)
	app.Post("/devices/:id/command", d.deviceCommand)
	app.Post("/devices/:id/backfill", d.deviceBackfill)

	app.Get("/readings", d.allReadings)
	app.Get("/bill", d.householdBill)
}

type deviceView struct {
	domain.Device
	Status status.State `json:"status"`
}

func (d Deps) listDevices(c *fiber.Ctx) error {
	devices, err := d.Devices()
	if err != nil {
		return fail(c, err)
	}
	now := time.Now().UTC()
	out := make([]deviceView, 0, len(devices))
	for _, dev := range devices {
		latest, err := d.Store.Latest(c.Context(), dev.ID, 1)
		if err != nil {
			return fail(c, err)
		}
		var last *domain.Reading
		if len(latest) > 0 {
			last = &latest[0]
		}
		out = append(out, deviceView{Device: dev, Status: status.Classify(last, now, d.Thresholds)})
	}
	return c.JSON(out)
}

func (d Deps) deviceStatus(c *fiber.Ctx) error {
	latest, err := d.Store.Latest(c.Context(), c.Params("id"), 1)
	if err != nil {
		return fail(c, err)
	}
	var last *domain.Reading
	if len(latest) > 0 {
		last = &latest[0]
	}
	return c.JSON(fiber.Map{
		"status": status.Classify(last, time.Now().UTC(), d.Thresholds),
		"latest": last,
	})
}

func (d Deps) deviceLatest(c *fiber.Ctx) error {
	n := c.QueryInt("n", 30)
	readings, err := d.Store.Latest(c.Context(), c.Params("id"), n)
	if err != nil {
		return fail(c, err)
	}
	// stored newest-first; charts want chronological order
	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}
	return c.JSON(readings)
}

func (d Deps) deviceReadings(c *fiber.Ctx) error {
	start, end, bucket, err := rangeParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	readings, err := d.Store.Range(c.Context(), c.Params("id"), start, end)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(query.Resample(readings, bucket))
}

func (d Deps) allReadings(c *fiber.Ctx) error {
	start, end, bucket, err := rangeParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	devices, err := d.Devices()
	if err != nil {
		return fail(c, err)
	}
	series := make(map[string][]domain.Reading, len(devices))
	for _, dev := range devices {
		readings, err := d.Store.Range(c.Context(), dev.ID, start, end)
		if err != nil {
			return fail(c, err)
		}
		if len(readings) == 0 {
			continue
		}
		series[dev.ID] = query.Resample(readings, bucket)
	}
	return c.JSON(query.AlignSum(series))
}

func (d Deps) deviceBill(c *fiber.Ctx) error {
	summary, err := billing.DailyMonthly(c.Context(), d.Store, d.Rates, c.Params("id"), time.Now())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(summary)
}

func (d Deps) householdBill(c *fiber.Ctx) error {
	devices, err := d.Devices()
	if err != nil {
		return fail(c, err)
	}
	ids := make([]string, 0, len(devices))
	for _, dev := range devices {
		ids = append(ids, dev.ID)
	}
	summary, err := billing.Household(c.Context(), d.Store, d.Rates, ids, time.Now())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(summary)
}

func (d Deps) deviceCommand(c *fiber.Ctx) error {
	var body struct {
		Code  string `json:"code"`
		Value any    `json:"value"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if body.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "code is required"})
	}
	ack, err := d.Poller.Control(c.Context(), c.Params("id"), body.Code, body.Value)
	if err != nil {
		return fail(c, err)
	}
	return c.Type("json").Send(ack)
}

func (d Deps) deviceBackfill(c *fiber.Ctx) error {
	n, err := d.Recorder.Backfill(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrDocStoreNotConfigured) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"inserted": n})
}

func rangeParams(c *fiber.Ctx) (start, end time.Time, bucket time.Duration, err error) {
	start, err = time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		return start, end, 0, errors.New("start must be RFC3339")
	}
	end, err = time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		return start, end, 0, errors.New("end must be RFC3339")
	}
	if b := c.Query("bucket"); b != "" && b != "raw" {
		bucket, err = time.ParseDuration(b)
		if err != nil {
			return start, end, 0, errors.New("bucket must be a duration or 'raw'")
		}
	}
	return start, end, bucket, nil
}

// fail maps the error taxonomy onto status codes: vendor failures are a bad
// gateway, everything else is internal.
func fail(c *fiber.Ctx, err error) error {
	var authErr *tuya.AuthError
	var apiErr *tuya.APIError
	if errors.As(err, &authErr) || errors.As(err, &apiErr) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
