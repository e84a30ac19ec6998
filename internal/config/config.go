package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	DatabaseSSL bool
	JWTSecret   []byte
	CORSOrigins []string
	// SMTP para los correos de citas
	SMTPHost      string
	SMTPPort      string
	SMTPUser      string
	SMTPPass      string
	SMTPFromName  string
	SMTPFromEmail string
	// WhatsApp: número fijo del consultorio (fallback cuando el cliente no
	// tiene teléfono propio) y prefijo de país para normalizar teléfonos.
	WAServicePhone string
	WACountryCode  string
	// Recordatorios
	ReminderHour      int
	ReminderDaysAhead int
	ReminderTZ        string
	// TEST_MODE: recordatorio 5 minutos después de agendar, para verificación manual.
	TestMode      bool
	TestModeDelay time.Duration
	// Cache (memory por defecto; redis si REDIS_URL está definido)
	RedisURL string
	CacheTTL time.Duration
	// Rate limit del login (por IP)
	LoginRateRPS   float64
	LoginRateBurst int

	LogLevel  string
	LogFormat string

	RequestTimeoutSec int
	DBMaxConns        int
	DBMinConns        int
	DBMaxConnLifetime time.Duration
}

func Load() *Config {
	_ = godotenv.Load()
	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if len(jwtSecret) < 32 {
		jwtSecret = "default-secret-min-32-chars-required!!"
	}
	cors := getEnv("CORS_ORIGINS", "*")
	var origins []string
	for _, o := range strings.Split(cors, ",") {
		if t := strings.TrimSpace(o); t != "" {
			origins = append(origins, t)
		}
	}
	return &Config{
		Port:        port,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DatabaseSSL: getBool("DATABASE_SSL"),
		JWTSecret:   []byte(jwtSecret),
		CORSOrigins: origins,

		SMTPHost:      getEnv("SMTP_HOST", "localhost"),
		SMTPPort:      getEnv("SMTP_PORT", "1025"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),
		SMTPFromName:  getEnv("SMTP_FROM_NAME", "Consultorio Dental"),
		SMTPFromEmail: getEnv("SMTP_FROM_EMAIL", "noreply@localhost"),

		WAServicePhone: getEnv("WA_SERVICE_PHONE", "59891014583"),
		WACountryCode:  getEnv("WA_COUNTRY_CODE", "598"),

		ReminderHour:      getInt("REMINDER_HOUR", 9),
		ReminderDaysAhead: getInt("REMINDER_DAYS_AHEAD", 2),
		ReminderTZ:        getEnv("REMINDER_TZ", "America/Montevideo"),

		TestMode:      getBool("TEST_MODE"),
		TestModeDelay: getDuration("TEST_MODE_DELAY", 5*time.Minute),

		RedisURL: os.Getenv("REDIS_URL"),
		CacheTTL: getDuration("CACHE_TTL", 30*time.Second),

		LoginRateRPS:   getFloat("LOGIN_RATE_RPS", 5),
		LoginRateBurst: getInt("LOGIN_RATE_BURST", 10),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		RequestTimeoutSec: getInt("REQUEST_TIMEOUT_SEC", 30),
		DBMaxConns:        getInt("DB_MAX_CONNS", 0),
		DBMinConns:        getInt("DB_MIN_CONNS", 0),
		DBMaxConnLifetime: getDuration("DB_MAX_CONN_LIFETIME", 0),
	}
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getBool(k string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(k)))
	return v == "true" || v == "1" || v == "yes"
}

func getInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getFloat(k string, d float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return d
}

func getDuration(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			return dur
		}
	}
	return d
}
