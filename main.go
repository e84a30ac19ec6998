package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/AlanPillo/Backend-App/internal/api"
	"github.com/AlanPillo/Backend-App/internal/auth"
	"github.com/AlanPillo/Backend-App/internal/cache"
	"github.com/AlanPillo/Backend-App/internal/config"
	"github.com/AlanPillo/Backend-App/internal/email"
	"github.com/AlanPillo/Backend-App/internal/logger"
	"github.com/AlanPillo/Backend-App/internal/middleware"
	"github.com/AlanPillo/Backend-App/internal/migrate"
	"github.com/AlanPillo/Backend-App/internal/reminder"
	"github.com/AlanPillo/Backend-App/internal/seed"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		dbURL := cfg.DatabaseURL
		if cfg.DatabaseSSL && !strings.Contains(dbURL, "sslmode=") {
			sep := "?"
			if strings.Contains(dbURL, "?") {
				sep = "&"
			}
			dbURL += sep + "sslmode=require"
		}
		poolConfig, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			log.Fatal().Err(err).Msg("config postgres")
		}
		if cfg.DBMaxConns > 0 {
			poolConfig.MaxConns = int32(cfg.DBMaxConns)
		}
		if cfg.DBMinConns > 0 {
			poolConfig.MinConns = int32(cfg.DBMinConns)
		}
		if cfg.DBMaxConnLifetime > 0 {
			poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
		}
		pool, err = pgxpool.NewWithConfig(context.Background(), poolConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión postgres")
		}
		defer pool.Close()
		if err := pool.Ping(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("ping postgres")
		}
		if err := migrate.Run(context.Background(), pool, "migrations"); err != nil {
			log.Fatal().Err(err).Msg("migrations")
		}
		if err := seed.Run(context.Background(), pool); err != nil {
			log.Warn().Err(err).Msg("seed (ignorado si ya aplicado)")
		}
	} else {
		log.Warn().Msg("DATABASE_URL vacío: arrancando sin base de datos")
	}

	var c cache.Cache
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		c = rc
		log.Info().Msg("cache: redis")
	} else {
		c = cache.NewMemoryCache()
		log.Info().Msg("cache: memoria")
	}
	defer c.Close()

	mailCfg := &email.Config{
		Host:     cfg.SMTPHost,
		Port:     email.PortFromString(cfg.SMTPPort),
		User:     cfg.SMTPUser,
		Pass:     cfg.SMTPPass,
		FromName: cfg.SMTPFromName,
		FromAddr: cfg.SMTPFromEmail,
	}
	mailCfg.LogConfigSummary()

	sched := reminder.NewScheduler()
	defer sched.Close()

	h := &api.Handler{Pool: pool, Cfg: cfg, Cache: c, Sched: sched}
	h.SetHashPassword(auth.HashPassword)
	h.SetSendCitaAgendada(mailCfg.SendCitaAgendada)
	h.SetSendCitaCancelada(mailCfg.SendCitaCancelada)
	h.SetSendRecordatorioPrueba(mailCfg.SendRecordatorioPrueba)

	loc, err := time.LoadLocation(cfg.ReminderTZ)
	if err != nil {
		log.Warn().Str("tz", cfg.ReminderTZ).Msg("zona horaria desconocida, usando local")
		loc = time.Local
	}
	links := reminder.LinkConfig{ServicePhone: cfg.WAServicePhone, CountryCode: cfg.WACountryCode}
	if pool != nil {
		sched.RunDaily(cfg.ReminderHour, loc, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			date := reminder.TargetDate(time.Now(), cfg.ReminderDaysAhead, loc)
			sent, skipped := reminder.SendCitaReminders(ctx, pool, date, mailCfg, links)
			log.Info().Str("fecha", date.Format("2006-01-02")).Int("enviados", sent).Int("omitidos", skipped).Msg("barrido de recordatorios")
		})
	}
	if cfg.TestMode {
		log.Warn().Dur("delay", cfg.TestModeDelay).Msg("TEST_MODE activo: recordatorio de prueba tras agendar")
	}

	r := mux.NewRouter()

	r.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("API de citas funcionando"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	r.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if pool == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"no database"}`))
			return
		}
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"db unhealthy"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	loginRL := middleware.NewRateLimiter(cfg.LoginRateRPS, cfg.LoginRateBurst)
	public := r.PathPrefix("/api").Subrouter()
	public.Handle("/login", middleware.RateLimit(loginRL)(http.HandlerFunc(h.Login))).Methods(http.MethodPost)
	public.Handle("/owner/login", middleware.RateLimit(loginRL)(http.HandlerFunc(h.LoginOwner))).Methods(http.MethodPost)

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuthMiddleware(cfg.JWTSecret))
	protected.HandleFunc("/pacientes", h.CreatePaciente).Methods(http.MethodPost)
	protected.HandleFunc("/pacientes", h.ListPacientes).Methods(http.MethodGet)
	protected.HandleFunc("/pacientes/{id}", h.GetPaciente).Methods(http.MethodGet)
	protected.HandleFunc("/pacientes/{id}", h.UpdatePaciente).Methods(http.MethodPut)
	protected.HandleFunc("/pacientes/{id}", h.DeletePaciente).Methods(http.MethodDelete)
	protected.HandleFunc("/citas", h.CreateCita).Methods(http.MethodPost)
	protected.HandleFunc("/citas", h.ListCitas).Methods(http.MethodGet)
	protected.HandleFunc("/citas/{id}/confirmar", h.ConfirmarCita).Methods(http.MethodPost)
	protected.HandleFunc("/citas/{id}/asistencia", h.MarcarAsistencia).Methods(http.MethodPut)
	protected.HandleFunc("/citas/{id}", h.DeleteCita).Methods(http.MethodDelete)
	protected.HandleFunc("/citas/historial/{paciente_id}", h.Historial).Methods(http.MethodGet)
	protected.Handle("/clientes", middleware.RequireOwner(http.HandlerFunc(h.ListClientes))).Methods(http.MethodGet)
	protected.Handle("/clientes", middleware.RequireOwner(http.HandlerFunc(h.CreateCliente))).Methods(http.MethodPost)
	protected.Handle("/clientes/{id}", middleware.RequireOwner(http.HandlerFunc(h.GetCliente))).Methods(http.MethodGet)
	protected.Handle("/clientes/{id}", middleware.RequireOwner(http.HandlerFunc(h.UpdateCliente))).Methods(http.MethodPut)
	protected.Handle("/clientes/{id}", middleware.RequireOwner(http.HandlerFunc(h.DeleteCliente))).Methods(http.MethodDelete)
	protected.Handle("/owner/pacientes", middleware.RequireOwner(http.HandlerFunc(h.OwnerPacientes))).Methods(http.MethodGet)
	protected.Handle("/owner/citas", middleware.RequireOwner(http.HandlerFunc(h.OwnerCitas))).Methods(http.MethodGet)
	protected.Handle("/owner/recordatorios/trigger", middleware.RequireOwner(h.TriggerRecordatorios(mailCfg))).Methods(http.MethodPost)

	corsMW := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	chain := middleware.RequestID(middleware.Recover(middleware.Timeout(cfg.RequestTimeoutSec)(corsMW(middleware.Metrics(middleware.Gzip(r))))))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      chain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("backend escuchando")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("backend detenido")
}
