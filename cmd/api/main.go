package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"plugmon/internal/billing"
	"plugmon/internal/config"
	"plugmon/internal/domain"
	"plugmon/internal/httpapi"
	"plugmon/internal/query"
	"plugmon/internal/registry"
	"plugmon/internal/service"
	"plugmon/internal/status"
	"plugmon/internal/storage"
	"plugmon/internal/tuya"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx := context.Background()
	docs, err := storage.ConnectMongo(ctx, config.MongoURI(), config.MongoDatabase())
	if err != nil {
		log.Fatal().Err(err).Msg("document store connect failed")
	}
	defer docs.Close(ctx)

	csv := storage.NewCSVStore(config.DataDir())
	var docSink storage.DocSink
	if docs != nil {
		docSink = docs
	}
	rec := storage.NewRecorder(csv, docSink, nil, config.PollInterval())
	client := tuya.New(config.APIEndpoint(), config.AccessID(), config.AccessSecret(), config.HTTPTimeout())
	devices := func() ([]domain.Device, error) { return registry.Load(config.DevicesFile()) }

	app := fiber.New()
	httpapi.Register(app, httpapi.Deps{
		Poller:     service.NewPoller(client, rec, devices),
		Recorder:   rec,
		Store:      query.Pick(docs, csv),
		Devices:    devices,
		Rates:      billing.DefaultRates,
		Thresholds: status.DefaultThresholds,
	})

	addr := config.APIAddr()
	log.Info().Str("addr", addr).Msg("api listening")
	log.Fatal().Err(app.Listen(addr)).Msg("server exit")
}
