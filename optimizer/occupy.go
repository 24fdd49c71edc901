// Package optimizer - Kandidaten-Erzeugung
//
// Diese Datei enthaelt:
// - Occupy: Ein Rematerialisierungs-Kandidat (gen, use, re_gen)
// - generateOccupies: Enumeration aller Paare ueber den Peak hinweg
// - expand: Versions-geprueftes Auffuellen der Regenerierungs-Kette
// - Scoring unter zwei Gewichtungen und Pruning der Kandidaten
package optimizer

import (
	"math/rand"
	"slices"
	"time"

	"github.com/LyricZhao/DLMO/schedule"
)

// Gewichtungs-Paare (memory_factor, time_factor) fuer die zwei Scores
const (
	scoreAMemory = 0.2
	scoreATime   = 0.8
	scoreBMemory = 0.8
	scoreBTime   = 0.2
)

// timesPerRandom steuert wie oft ein Zufalls-Kandidat dazukommt
const timesPerRandom = 1

// Occupy ist ein Rematerialisierungs-Kandidat: der Erzeuger Gen, sein
// erster Verbraucher Use nach dem Peak, und die Kette ReGen weiterer
// Vorfahren, die fuer die Datenabhaengigkeiten mitlaufen muessen.
// ReGen ist tiefste-zuerst sortiert; das Einfuegen iteriert rueckwaerts
// und stellt so die topologische Reihenfolge wieder her.
type Occupy struct {
	Gen *schedule.Task
	Use *schedule.Task

	ReGen    []*schedule.Task
	ReGenIns []*schedule.Usage

	// Move zeigt an, dass der originale Gen entfernt statt dupliziert
	// werden kann: kein Leser haengt zwischen Gen und Use an ihm
	Move bool

	ScoreA float64
	ScoreB float64
}

// generateOccupies enumeriert Occupy-Paare: fuer jeden Task strikt nach
// dem Peak jede Input-Usage, deren Erzeuger strikt vor dem Peak liegt.
// Pro Erzeuger zaehlt nur der erste Verbraucher nach dem Peak.
func (o *Optimizer) generateOccupies(s *schedule.Schedule, originTime time.Duration) []*Occupy {
	peak := s.PeakTask()
	if peak == nil {
		return nil
	}
	peakTS := peak.TimeStamp

	var candidates []*Occupy
	seen := make(map[*schedule.Task]struct{})
	for t := peak.Next; t != nil; t = t.Next {
		for _, u := range t.Ins {
			gen := u.Gen
			if gen == nil || gen.TimeStamp >= peakTS {
				continue
			}
			if _, dup := seen[gen]; dup {
				continue
			}
			seen[gen] = struct{}{}
			if occ := o.expand(gen, t); occ != nil {
				occ.computeScores(peakTS, s.PeakMemory(), originTime)
				candidates = append(candidates, occ)
			}
		}
	}
	return candidates
}

// expand baut die Regenerierungs-Kette fuer (gen, use). Fuer jeden
// benoetigten Operanden muss die letzte Regenerierung strikt vor use
// die erwartete Version liefern; sonst laeuft der Vorfahr mit. Die
// Kette ist durch RegenDepth begrenzt, darueber wird der Kandidat
// verworfen.
func (o *Optimizer) expand(gen, use *schedule.Task) *Occupy {
	occ := &Occupy{Gen: gen, Use: use}

	type versionKey struct {
		op      *schedule.Operand
		version uint64
	}
	seenIns := make(map[versionKey]struct{})
	included := make(map[*schedule.Task]struct{})

	var include func(t *schedule.Task) bool
	include = func(t *schedule.Task) bool {
		for _, gi := range t.Ins {
			if version := latestVersionBefore(gi, use); version == gi.Version {
				key := versionKey{gi.Operand, gi.Version}
				if _, dup := seenIns[key]; !dup {
					seenIns[key] = struct{}{}
					occ.ReGenIns = append(occ.ReGenIns, gi)
				}
				continue
			}

			ancestor := gi.Gen
			if ancestor == nil {
				// Ursprungswert ist ueberschrieben und nicht
				// rekonstruierbar
				return false
			}
			if _, dup := included[ancestor]; dup {
				continue
			}
			if len(occ.ReGen) >= o.RegenDepth {
				return false
			}
			included[ancestor] = struct{}{}
			occ.ReGen = append(occ.ReGen, ancestor)
			if !include(ancestor) {
				return false
			}
		}
		return true
	}
	if !include(gen) {
		return nil
	}

	// Tiefste-zuerst: absteigende Zeitstempel; rueckwaerts eingefuegt
	// ergibt das wieder die originale topologische Reihenfolge
	slices.SortFunc(occ.ReGen, func(a, b *schedule.Task) int {
		return b.TimeStamp - a.TimeStamp
	})

	occ.Move = true
	for t := gen.Next; t != nil && t != use; t = t.Next {
		for _, u := range t.Ins {
			if u.Gen == gen {
				occ.Move = false
				break
			}
		}
		if !occ.Move {
			break
		}
	}

	return occ
}

// latestVersionBefore bestimmt die Version, die der Operand von gi
// unmittelbar vor use traegt: die letzte Regenerierung strikt vor use
// gewinnt, ohne jeden Erzeuger gilt die Basis-Version.
func latestVersionBefore(gi *schedule.Usage, use *schedule.Task) uint64 {
	producer := gi.Gen
	next := gi.NextGen
	for next != nil && next.TimeStamp < use.TimeStamp {
		producer = next
		next = nextGenOf(producer, gi.Operand)
	}
	if producer == nil {
		return schedule.BaseVersion(gi.Operand)
	}
	if out := outUsageOf(producer, gi.Operand); out != nil {
		return out.Version
	}
	return schedule.BaseVersion(gi.Operand)
}

// nextGenOf gibt den naechsten Neu-Erzeuger von op nach t zurueck
func nextGenOf(t *schedule.Task, op *schedule.Operand) *schedule.Task {
	if out := outUsageOf(t, op); out != nil {
		return out.NextGen
	}
	return nil
}

// outUsageOf sucht die Output-Usage von op an t
func outUsageOf(t *schedule.Task, op *schedule.Operand) *schedule.Usage {
	for _, u := range t.Outs {
		if u.Operand == op {
			return u
		}
	}
	return nil
}

// computeScores bewertet den Kandidaten unter beiden Gewichtungen.
// Speicher-Delta: verlaengerte Lebenszeiten der Rewrite-Inputs kosten,
// die am Peak freiwerdenden Outputs von Gen sparen. Zeit-Delta: Dauer
// aller Wiederausfuehrungen.
func (occ *Occupy) computeScores(peakTS int, peakMemory uint64, originTime time.Duration) {
	var memDelta float64
	for _, gi := range occ.ReGenIns {
		if outUsageOf(occ.Gen, gi.Operand) != nil {
			continue
		}
		if gi.LastUse != nil && gi.LastUse.TimeStamp < peakTS {
			memDelta += float64(gi.Operand.Size)
		}
	}
	for _, u := range occ.Use.Ins {
		if u.Gen != occ.Gen {
			continue
		}
		if u.PrevUse == nil || u.PrevUse.TimeStamp < peakTS {
			memDelta -= float64(u.Operand.Size)
		}
	}

	var timeDelta time.Duration
	for _, t := range occ.ReGen {
		timeDelta += t.Duration
	}
	if !occ.Move {
		timeDelta += occ.Gen.Duration
	}

	memRatio := memDelta / max(float64(peakMemory), 1)
	timeRatio := float64(timeDelta) / max(float64(originTime), 1)
	occ.ScoreA = scoreAMemory*memRatio + scoreATime*timeRatio
	occ.ScoreB = scoreBMemory*memRatio + scoreBTime*timeRatio
}

// prune behaelt die besten Kandidaten je Gewichtung plus einen
// deterministischen Zufalls-Kandidaten
func (o *Optimizer) prune(candidates []*Occupy, rng *rand.Rand) []*Occupy {
	if len(candidates) == 0 {
		return nil
	}

	byScore := func(score func(*Occupy) float64) []*Occupy {
		sorted := slices.Clone(candidates)
		slices.SortStableFunc(sorted, func(a, b *Occupy) int {
			switch {
			case score(a) < score(b):
				return -1
			case score(a) > score(b):
				return 1
			default:
				return a.Gen.TimeStamp - b.Gen.TimeStamp
			}
		})
		return sorted[:min(o.OccupiesPerScore, len(sorted))]
	}

	var picked []*Occupy
	taken := make(map[*Occupy]struct{})
	take := func(occ *Occupy) {
		if _, dup := taken[occ]; !dup {
			taken[occ] = struct{}{}
			picked = append(picked, occ)
		}
	}
	for _, occ := range byScore(func(o *Occupy) float64 { return o.ScoreA }) {
		take(occ)
	}
	for _, occ := range byScore(func(o *Occupy) float64 { return o.ScoreB }) {
		take(occ)
	}
	for range timesPerRandom {
		take(candidates[rng.Intn(len(candidates))])
	}

	return picked
}
