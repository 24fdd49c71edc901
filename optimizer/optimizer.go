// Package optimizer - Best-First-Suche
//
// Diese Datei enthaelt:
// - Optimizer: Parameter und Konstruktor (aus envconfig)
// - Optimize: Die Suchschleife mit Warteschlange und Hash-Dedup
// - Result: Ergebnis eines Suchlaufs
package optimizer

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/emirpasic/gods/v2/queues/priorityqueue"

	"github.com/LyricZhao/DLMO/envconfig"
	"github.com/LyricZhao/DLMO/format"
	"github.com/LyricZhao/DLMO/logutil"
	"github.com/LyricZhao/DLMO/schedule"
)

// Optimizer sucht einen Schedule unter dem Speicher-Budget mit
// minimaler Zeit-Inflation. Ein Optimizer bearbeitet genau einen Fall
// und laeuft strikt sequenziell.
type Optimizer struct {
	Limit uint64

	SearchLimit      int
	ProgressEvery    int
	QueueLimit       int
	RegenDepth       int
	OccupiesPerScore int
	ReconsiderRatio  float64
	TimeTolerance    float64
}

// Result beschreibt den Ausgang eines Suchlaufs. Ein nicht erreichtes
// Budget ist kein Fehler; Satisfied haelt den Status fest.
type Result struct {
	Best      *schedule.Schedule
	Searched  int
	Satisfied bool
	Elapsed   time.Duration
}

// New erstellt einen Optimizer mit den konfigurierten Parametern
func New(limit uint64) *Optimizer {
	return &Optimizer{
		Limit:            limit,
		SearchLimit:      int(envconfig.SearchLimit()),
		ProgressEvery:    int(envconfig.ProgressEvery()),
		QueueLimit:       int(envconfig.QueueLimit()),
		RegenDepth:       int(envconfig.RegenDepth()),
		OccupiesPerScore: int(envconfig.OccupiesPerScore()),
		ReconsiderRatio:  envconfig.ReconsiderRatio(),
		TimeTolerance:    envconfig.TimeTolerance(),
	}
}

// Name beschreibt den Optimizer samt Budget
func (o *Optimizer) Name() string {
	return "optimizer (limit " + format.HumanBytes2(o.Limit) + ")"
}

// Optimize laeuft die Best-First-Suche vom Ausgangs-Schedule. Kinder
// entstehen durch Anwendung der Occupy-Kandidaten, Duplikate werden
// ueber den strukturellen Hash verworfen.
func (o *Optimizer) Optimize(origin *schedule.Schedule) (*Result, error) {
	if err := origin.Analyze(); err != nil {
		return nil, err
	}

	comparator := Comparator{
		OriginTime:      origin.TotalTime(),
		Limit:           o.Limit,
		ReconsiderRatio: o.ReconsiderRatio,
		TimeTolerance:   o.TimeTolerance,
	}

	best := origin
	seen := map[uint64]struct{}{origin.Hash(): {}}
	queue := priorityqueue.NewWith[*schedule.Schedule](comparator.Compare)
	queue.Enqueue(origin)

	fmt.Printf(" > Start best-first search from source (%s)\n", origin.Info())
	start := time.Now()
	count := 0

	for !queue.Empty() {
		top, _ := queue.Dequeue()
		count++

		if comparator.Considerable(top, best) {
			for _, substitution := range o.substitutions(top, count, comparator.OriginTime) {
				if queue.Size() >= o.QueueLimit {
					slog.Warn("reaching search queue size limit", "limit", o.QueueLimit)
					break
				}
				hash := substitution.Hash()
				if _, dup := seen[hash]; dup {
					continue
				}
				if err := substitution.Analyze(); err != nil {
					return nil, err
				}
				logutil.Trace("substitution", "hash", hash, "peak", format.HumanBytes2(substitution.PeakMemory()))
				if comparator.Considerable(substitution, best) {
					queue.Enqueue(substitution)
					seen[hash] = struct{}{}
				}
				if comparator.Less(substitution, best) {
					best = substitution
				}
			}
		}

		if o.ProgressEvery > 0 && count%o.ProgressEvery == 0 {
			fmt.Printf(" > Searched %d schedules (%d queued), best {%s}\n", count, queue.Size(), best.Info())
		}
		if comparator.Satisfy(best) {
			fmt.Println(" > Already satisfy requirement, stop searching")
			break
		}
		if count >= o.SearchLimit {
			fmt.Println(" > Reach search limit, stop searching")
			break
		}
	}

	return &Result{
		Best:      best,
		Searched:  count,
		Satisfied: comparator.Satisfy(best),
		Elapsed:   time.Since(start),
	}, nil
}

// substitutions erzeugt die Kinder eines Schedules: Kandidaten
// enumerieren, pruned-Auswahl anwenden. Der Zufalls-Kandidat haengt
// deterministisch an Iterationszaehler und Schedule-Hash.
func (o *Optimizer) substitutions(s *schedule.Schedule, iteration int, originTime time.Duration) []*schedule.Schedule {
	candidates := o.generateOccupies(s, originTime)
	if len(candidates) == 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(int64(iteration)<<32 ^ int64(s.Hash())))
	picked := o.prune(candidates, rng)

	substitutions := make([]*schedule.Schedule, 0, len(picked))
	for _, occ := range picked {
		substitutions = append(substitutions, Apply(s, occ))
	}
	return substitutions
}
