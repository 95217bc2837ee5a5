package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kamaugm/chamabot/internal/api"
	"github.com/kamaugm/chamabot/internal/bot"
	"github.com/kamaugm/chamabot/internal/config"
	"github.com/kamaugm/chamabot/internal/dispatch"
	"github.com/kamaugm/chamabot/internal/export"
	"github.com/kamaugm/chamabot/internal/scheduler"
	"github.com/kamaugm/chamabot/internal/store"
	"github.com/kamaugm/chamabot/internal/whatsapp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		Level(level).
		With().Timestamp().Str("service", "chamabot").Logger()

	st, err := store.Open()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	if cfg.SeedDemoData {
		if err := st.SeedDemo(); err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo data")
		}
		log.Info().Msg("demo data seeded")
	}

	wa := whatsapp.New(cfg.GraphAPIBaseURL, cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID)

	outbox := dispatch.NewOutbox(wa, 256)
	outbox.Start()
	defer outbox.Stop()

	exporter := export.New(st, cfg.ExportDir)
	engine := bot.New(st, outbox, exporter)

	sched, err := scheduler.Start(st, wa)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Shutdown()

	apiServer := api.New(cfg, st, engine, wa, exporter)
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Fatal().Err(err).Msg("API server error")
		}
	}()
	log.Info().Msg("chama bot is running")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
}
