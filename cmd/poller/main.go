package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"plugmon/internal/config"
	"plugmon/internal/domain"
	"plugmon/internal/live"
	"plugmon/internal/registry"
	"plugmon/internal/service"
	"plugmon/internal/storage"
	"plugmon/internal/tuya"
)

func main() {
	once := flag.Bool("once", false, "run a single poll cycle and exit")
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
	defer docs.Close(ctx)
	if docs == nil {
		log.Warn().Msg("document store not configured, csv sink only")
	}

	var publisher *live.Publisher
	if broker := config.MQTTBroker(); broker != "" {
		publisher, err = live.Connect(broker)
		if err != nil {
			log.Fatal().Err(err).Str("broker", broker).Msg("mqtt connect failed")
		}
		defer publisher.Close()
	}

	csv := storage.NewCSVStore(config.DataDir())
	interval := config.PollInterval()
	var liveHook storage.LivePublisher
	if publisher != nil {
		liveHook = publisher
	}
	var docSink storage.DocSink
	if docs != nil {
		docSink = docs
	}
	rec := storage.NewRecorder(csv, docSink, liveHook, interval)
	client := tuya.New(config.APIEndpoint(), config.AccessID(), config.AccessSecret(), config.HTTPTimeout())
	poller := service.NewPoller(client, rec, func() ([]domain.Device, error) {
		return registry.Load(config.DevicesFile())
	})

	if *once {
		if _, err := poller.RunOnce(ctx); err != nil {
			log.Fatal().Err(err).Msg("poll cycle failed")
		}
		return
	}

	log.Info().Dur("interval", interval).Msg("poller running; Ctrl+C to stop")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		if _, err := poller.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("poll cycle failed")
		}
		select {
		case <-ticker.C:
		case <-stop:
			log.Info().Msg("shutting down")
			return
		}
	}
}
