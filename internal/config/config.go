package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries everything the server wires at startup. Values come from the
// environment, with a .env file honoured for local development.
type Config struct {
	Port           string
	DatabaseURL    string
	UseMemoryStore bool
	SkipAuth       bool
	GeminiAPIKey   string
	GeminiModel    string

	// Recurring-expense detector thresholds. Tunable rather than baked-in
	// literals; the defaults match the behaviour users already rely on.
	RecurringMinMonthsBack     int
	RecurringMaxMonthsBack     int
	RecurringAmountTolerance   float64
	RecurringForwardWindowDays int

	// Merchant text prefix marking a not-yet-booked transaction in the
	// bank's export. Preliminary rows are re-sent once confirmed.
	PreliminaryMarker string
}

// Load reads configuration from the environment. A missing .env file is not
// an error; system env vars win either way.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:                       envOr("PORT", "8111"),
		DatabaseURL:                os.Getenv("DATABASE_URL"),
		UseMemoryStore:             os.Getenv("USE_MEMORY_STORE") == "true" || os.Getenv("ENV") == "local",
		SkipAuth:                   os.Getenv("SKIP_AUTH") == "true",
		GeminiAPIKey:               os.Getenv("GEMINI_API_KEY"),
		GeminiModel:                envOr("GEMINI_MODEL", "gemini-2.0-flash"),
		RecurringMinMonthsBack:     envIntOr("RECURRING_MIN_MONTHS_BACK", 10),
		RecurringMaxMonthsBack:     envIntOr("RECURRING_MAX_MONTHS_BACK", 14),
		RecurringAmountTolerance:   envFloatOr("RECURRING_AMOUNT_TOLERANCE", 0.20),
		RecurringForwardWindowDays: envIntOr("RECURRING_FORWARD_WINDOW_DAYS", 60),
		PreliminaryMarker:          envOr("PRELIMINARY_MARKER", "Varaus"),
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
