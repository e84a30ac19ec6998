package main

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/AlanPillo/Backend-App/internal/config"
	"github.com/AlanPillo/Backend-App/internal/email"
	"github.com/AlanPillo/Backend-App/internal/logger"
	"github.com/AlanPillo/Backend-App/internal/migrate"
	"github.com/AlanPillo/Backend-App/internal/reminder"
)

// One-shot reminder sweep, for running under an external cron instead of the
// in-process daily job.
func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping")
	}
	if err := migrate.Run(ctx, pool, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("migrations")
	}
	loc, err := time.LoadLocation(cfg.ReminderTZ)
	if err != nil {
		log.Warn().Str("tz", cfg.ReminderTZ).Msg("zona horaria desconocida, usando UTC")
		loc = time.UTC
	}
	date := reminder.TargetDate(time.Now(), cfg.ReminderDaysAhead, loc)
	mailCfg := &email.Config{
		Host:     cfg.SMTPHost,
		Port:     email.PortFromString(cfg.SMTPPort),
		User:     cfg.SMTPUser,
		Pass:     cfg.SMTPPass,
		FromName: cfg.SMTPFromName,
		FromAddr: cfg.SMTPFromEmail,
	}
	links := reminder.LinkConfig{ServicePhone: cfg.WAServicePhone, CountryCode: cfg.WACountryCode}
	sent, skipped := reminder.SendCitaReminders(ctx, pool, date, mailCfg, links)
	log.Info().Str("fecha", date.Format("2006-01-02")).Int("enviados", sent).Int("omitidos", skipped).Msg("[reminder] done")
	os.Exit(0)
}
