// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - Bool: Boolean-Getter
// - Uint: Integer-Getter mit Default-Wert
// - Float64: Float-Getter mit Default-Wert
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
package envconfig

import (
	"fmt"
	"log/slog"
	"strconv"
)

// Bool gibt eine Funktion zurueck, die einen Bool liest (Default: false)
func Bool(k string) func() bool {
	return func() bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return false
	}
}

// Uint gibt eine Funktion zurueck, die einen uint mit Default-Wert liest
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// Float64 gibt eine Funktion zurueck, die einen float64 mit Default-Wert liest
func Float64(key string, defaultValue float64) func() float64 {
	return func() float64 {
		if s := Var(key); s != "" {
			if f, err := strconv.ParseFloat(s, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return f
			}
		}
		return defaultValue
	}
}

// EnvVar repraesentiert eine Environment-Variable mit Metadaten
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
// Enthaelt Namen, aktuelle Werte und Beschreibungen
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"DLMO_DEBUG":              {"DLMO_DEBUG", LogLevel(), "Show additional debug information (e.g. DLMO_DEBUG=1)"},
		"DLMO_SEARCH_LIMIT":       {"DLMO_SEARCH_LIMIT", SearchLimit(), "Maximum number of schedules examined per case (default 1500)"},
		"DLMO_PROGRESS_EVERY":     {"DLMO_PROGRESS_EVERY", ProgressEvery(), "Print search progress every N iterations (default 300)"},
		"DLMO_REGEN_DEPTH":        {"DLMO_REGEN_DEPTH", RegenDepth(), "Maximum length of a regeneration chain (default 3)"},
		"DLMO_OCCUPIES_PER_SCORE": {"DLMO_OCCUPIES_PER_SCORE", OccupiesPerScore(), "Candidates kept per scoring weight (default 2)"},
		"DLMO_QUEUE_LIMIT":        {"DLMO_QUEUE_LIMIT", QueueLimit(), "Maximum size of the search queue (default 100000)"},
		"DLMO_PARALLEL":           {"DLMO_PARALLEL", Parallel(), "Number of cases optimized concurrently (default 1)"},
		"DLMO_RECONSIDER_RATIO":   {"DLMO_RECONSIDER_RATIO", ReconsiderRatio(), "Score ratio up to which worse schedules stay considerable (default 1.2)"},
		"DLMO_TIME_TOLERANCE":     {"DLMO_TIME_TOLERANCE", TimeTolerance(), "Allowed runtime inflation of the result (default 1.01)"},
	}
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
