// config.go - Haupt-Konfigurationsfunktionen fuer DLMO
//
// Dieses Modul enthaelt:
// - LogLevel: Gibt Log-Level zurueck (DLMO_DEBUG)
// - Var: Liest eine Environment-Variable
// - Such-Parameter (SearchLimit, ProgressEvery, RegenDepth, ...)
//
// Utility-Getter und AsMap sind ausgelagert:
// - config_utils.go: Bool/Uint/Float64-Getter, EnvVar, AsMap
package envconfig

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// =============================================================================
// Such-Parameter
// =============================================================================

var (
	// SearchLimit ist die maximale Anzahl untersuchter Schedules pro Fall
	SearchLimit = Uint("DLMO_SEARCH_LIMIT", 1500)

	// ProgressEvery steuert wie oft der Suchfortschritt ausgegeben wird
	ProgressEvery = Uint("DLMO_PROGRESS_EVERY", 300)

	// RegenDepth begrenzt die Laenge einer Regenerierungs-Kette
	RegenDepth = Uint("DLMO_REGEN_DEPTH", 3)

	// OccupiesPerScore ist die Anzahl behaltener Kandidaten je Gewichtung
	OccupiesPerScore = Uint("DLMO_OCCUPIES_PER_SCORE", 2)

	// QueueLimit begrenzt die Groesse der Such-Warteschlange
	QueueLimit = Uint("DLMO_QUEUE_LIMIT", 100000)

	// Parallel ist die Anzahl gleichzeitig bearbeiteter Faelle
	Parallel = Uint("DLMO_PARALLEL", 1)

	// ReconsiderRatio steuert wie stark schlechtere Schedules noch
	// betrachtet werden
	ReconsiderRatio = Float64("DLMO_RECONSIDER_RATIO", 1.2)

	// TimeTolerance ist die erlaubte Laufzeit-Inflation des Ergebnisses
	TimeTolerance = Float64("DLMO_TIME_TOLERANCE", 1.01)
)

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via DLMO_DEBUG
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("DLMO_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
