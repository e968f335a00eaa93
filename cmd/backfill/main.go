package main

import (
	"context"
	"flag"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"plugmon/internal/config"
	"plugmon/internal/registry"
	"plugmon/internal/storage"
)

// Imports each device's CSV history into the document store. Safe to re-run:
// rows are upserted on (device_id, timestamp).
func main() {
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx := context.Background()
	docs, err := storage.ConnectMongo(ctx, config.MongoURI(), config.MongoDatabase())
	if err != nil {
		log.Fatal().Err(err).Msg("document store connect failed")
	}
	if docs == nil {
		log.Fatal().Msg("MONGODB_URI not set, nothing to backfill into")
	}
	defer docs.Close(ctx)

	rec := storage.NewRecorder(storage.NewCSVStore(config.DataDir()), docs, nil, config.PollInterval())

	ids := flag.Args()
	if len(ids) == 0 {
		devices, err := registry.Load(config.DevicesFile())
		if err != nil {
			log.Fatal().Err(err).Msg("registry load failed")
		}
		for _, d := range devices {
			ids = append(ids, d.ID)
		}
	}
	if len(ids) == 0 {
		log.Warn().Msg("no devices to backfill")
		return
	}

	for _, id := range ids {
		n, err := rec.Backfill(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("device_id", id).Int("inserted", n).Msg("backfill failed")
			continue
		}
		log.Info().Str("device_id", id).Int("inserted", n).Msg("backfill done")
	}
}
