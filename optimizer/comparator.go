// Package optimizer - Schedule-Vergleich
//
// Diese Datei enthaelt:
// - Comparator: Lexikografische Ordnung ueber Budget/Zeit/Score
// - Satisfy: Abbruchkriterium der Suche
// - Considerable: Zulassungs-Schranke fuer die Warteschlange
package optimizer

import (
	"time"

	"github.com/LyricZhao/DLMO/schedule"
)

// Gewichtung des kombinierten Scores, niedriger ist besser
const (
	memoryFactor = 0.6
	timeFactor   = 1 - memoryFactor
)

// Comparator vergleicht Schedules gegen ein Speicher-Budget und die
// Laufzeit des Ausgangs-Schedules. Alle Prädikate sind reine Funktionen
// der memoisierten Statistiken.
type Comparator struct {
	OriginTime      time.Duration
	Limit           uint64
	ReconsiderRatio float64
	TimeTolerance   float64
}

// Score kombiniert Budget-Ueberschreitung und Zeit-Inflation
func (c Comparator) Score(s *schedule.Schedule) float64 {
	var exceededMemory float64
	if s.PeakMemory() > c.Limit {
		exceededMemory = float64(s.PeakMemory()-c.Limit) / max(float64(c.Limit), 1)
	}
	exceededTime := float64(s.TotalTime()-c.OriginTime) / max(float64(c.OriginTime), 1)
	return memoryFactor*exceededMemory + timeFactor*exceededTime
}

// Less meldet ob s1 strikt besser als s2 ist. Erst entscheidet das
// Budget, innerhalb des Budgets die Gesamtzeit, sonst der Score.
func (c Comparator) Less(s1, s2 *schedule.Schedule) bool {
	within1 := s1.PeakMemory() <= c.Limit
	within2 := s2.PeakMemory() <= c.Limit
	if within1 != within2 {
		return within1
	}
	if within1 && within2 {
		return s1.TotalTime() < s2.TotalTime()
	}
	return c.Score(s1) < c.Score(s2)
}

// Compare ordnet fuer die Warteschlange, bester Schedule zuerst
func (c Comparator) Compare(s1, s2 *schedule.Schedule) int {
	switch {
	case c.Less(s1, s2):
		return -1
	case c.Less(s2, s1):
		return 1
	default:
		return 0
	}
}

// Satisfy meldet ob s das Budget haelt und die Zeit-Toleranz einhaelt
func (c Comparator) Satisfy(s *schedule.Schedule) bool {
	return s.PeakMemory() <= c.Limit &&
		float64(s.TotalTime()) <= c.TimeTolerance*float64(c.OriginTime)
}

// Considerable meldet ob s gegenueber best noch betrachtet wird;
// nicht-considerable Schedules werden weder eingereiht noch expandiert
func (c Comparator) Considerable(s, best *schedule.Schedule) bool {
	return c.Score(s) < c.ReconsiderRatio*c.Score(best)
}
