package httpapi

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"plugmon/internal/billing"
	"plugmon/internal/domain"
	"plugmon/internal/query"
	"plugmon/internal/status"
	"plugmon/internal/storage"
)

func testApp(t *testing.T, readings []domain.Reading) *fiber.App {
	t.Helper()
	csv := storage.NewCSVStore(t.TempDir())
	for _, r := range readings {
		if err := csv.Append(r); err != nil {
			t.Fatal(err)
		}
	}
	app := fiber.New()
	Register(app, Deps{
		Store:      query.Pick(nil, csv),
		Devices:    func() ([]domain.Device, error) { return []domain.Device{{ID: "dev1", Name: "Desk Plug"}}, nil },
		Rates:      billing.DefaultRates,
		Thresholds: status.DefaultThresholds,
	})
	return app
}

func TestDeviceReadingsRange(t *testing.T) {
	base := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)
	var readings []domain.Reading
	for i := 0; i < 10; i++ {
		readings = append(readings, domain.Reading{
			DeviceID:  "dev1",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Voltage:   220,
			Power:     float64(10 * i),
		})
	}
	app := testApp(t, readings)

	req := httptest.NewRequest("GET",
		"/devices/dev1/readings?start=2026-08-15T10:00:00Z&end=2026-08-15T10:04:00Z", nil)
	res, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	var got []domain.Reading
	body, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Errorf("got %d readings, want 5 (inclusive bounds)", len(got))
	}
}

func TestDeviceReadingsBadParams(t *testing.T) {
	app := testApp(t, nil)
	req := httptest.NewRequest("GET", "/devices/dev1/readings?start=yesterday&end=now", nil)
	res, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", res.StatusCode)
	}
}

func TestListDevicesReportsStatus(t *testing.T) {
	app := testApp(t, []domain.Reading{{
		DeviceID:  "dev1",
		Timestamp: time.Now().UTC().Add(-10 * time.Second),
		Voltage:   220,
		Current:   0.5,
		Power:     110,
	}})

	res, err := app.Test(httptest.NewRequest("GET", "/devices", nil))
	if err != nil {
		t.Fatal(err)
	}
	var got []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	body, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Status != "on" {
		t.Errorf("device list = %+v, want dev1 on", got)
	}
}

func TestHouseholdBillEmpty(t *testing.T) {
	app := testApp(t, nil)
	res, err := app.Test(httptest.NewRequest("GET", "/bill", nil))
	if err != nil {
		t.Fatal(err)
	}
	var sum billing.Summary
	body, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(body, &sum); err != nil {
		t.Fatal(err)
	}
	if sum.DayKWh != 0 || sum.MonthCost != 0 {
		t.Errorf("empty household bill should be zeros, got %+v", sum)
	}
}
