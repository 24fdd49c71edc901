// MODUL: optimizer_test
// ZWECK: Tests fuer die Best-First-Suche und ihre Randfaelle
// INPUT: Synthetische Faelle im Wire-Format
// OUTPUT: Testresultate
// NEBENEFFEKTE: Fortschritts-Ausgaben auf stdout
// ABHAENGIGKEITEN: testing, schedule
// HINWEISE: Groessen in GiB, Zeiten in Mikrosekunden

package optimizer

import (
	"strings"
	"testing"

	"github.com/LyricZhao/DLMO/schedule"
)

const gib = uint64(1) << 30

func mustCanonical(t *testing.T, doc string) *schedule.Schedule {
	t.Helper()
	s, err := schedule.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := s.Canonicalize(); err != nil {
		t.Fatalf("Canonicalize() error = %v", err)
	}
	if err := s.Analyze(); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return s
}

func testOptimizer(limit uint64) *Optimizer {
	return &Optimizer{
		Limit:            limit,
		SearchLimit:      1500,
		ProgressEvery:    300,
		QueueLimit:       100000,
		RegenDepth:       3,
		OccupiesPerScore: 2,
		ReconsiderRatio:  1.2,
		TimeTolerance:    1.01,
	}
}

// chainCase: g erzeugt X, h/k bilden den Peak, u liest X danach
const chainCase = `{
	"data": [
		{"id": 0, "size": 3221225472},
		{"id": 1, "size": 3221225472},
		{"id": 2, "size": 1073741824}
	],
	"code": [
		{"name": "g", "ins": [], "outs": [0], "workspace": 0, "time": 1000},
		{"name": "h", "ins": [0], "outs": [1], "workspace": 0, "time": 100000},
		{"name": "k", "ins": [1], "outs": [2], "workspace": 0, "time": 100000},
		{"name": "u", "ins": [0], "outs": [], "workspace": 0, "time": 100000},
		{"name": ".dealloc", "ins": [], "outs": [0, 1], "workspace": 0, "time": 0}
	]
}`

// moveCase: X hat keinen Leser zwischen g und u, der Erzeuger kann
// hinter den Peak verschoben werden
const moveCase = `{
	"data": [
		{"id": 0, "size": 3221225472},
		{"id": 1, "size": 4294967296},
		{"id": 2, "size": 1073741824}
	],
	"code": [
		{"name": "g", "ins": [], "outs": [0], "workspace": 0, "time": 1000},
		{"name": "m", "ins": [], "outs": [1], "workspace": 0, "time": 100000},
		{"name": "p", "ins": [1], "outs": [2], "workspace": 0, "time": 100000},
		{"name": "u", "ins": [0], "outs": [], "workspace": 0, "time": 100000},
		{"name": ".dealloc", "ins": [], "outs": [1], "workspace": 0, "time": 0}
	]
}`

func TestOptimizeTrivialPassthrough(t *testing.T) {
	doc := `{
		"data": [{"id": 0, "size": 1073741824}, {"id": 1, "size": 1073741824}],
		"code": [
			{"name": "t1", "ins": [], "outs": [0], "workspace": 0, "time": 1000},
			{"name": "t2", "ins": [0], "outs": [1], "workspace": 0, "time": 1000}
		]
	}`
	origin := mustCanonical(t, doc)

	result, err := testOptimizer(4 * gib).Optimize(origin)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if result.Best != origin {
		t.Errorf("Best != origin bei ausreichendem Budget")
	}
	if !result.Satisfied {
		t.Errorf("Satisfied = false, erwartet true")
	}
	if result.Searched != 1 {
		t.Errorf("Searched = %d, erwartet 1", result.Searched)
	}
}

func TestOptimizeChain(t *testing.T) {
	origin := mustCanonical(t, chainCase)
	if got, want := origin.PeakMemory(), 7*gib; got != want {
		t.Fatalf("origin PeakMemory() = %d, erwartet %d", got, want)
	}

	result, err := testOptimizer(6 * gib).Optimize(origin)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if !result.Satisfied {
		t.Fatalf("Satisfied = false, erwartet true")
	}
	best := result.Best
	if got, want := best.PeakMemory(), 6*gib; got != want {
		t.Errorf("best PeakMemory() = %d, erwartet %d", got, want)
	}
	if got, want := best.Len(), origin.Len()+1; got != want {
		t.Errorf("best Len() = %d, erwartet %d (Duplikat von g)", got, want)
	}
	if best.TotalTime() <= origin.TotalTime() {
		t.Errorf("Duplizieren muss Zeit kosten: %v <= %v", best.TotalTime(), origin.TotalTime())
	}
}

func TestOptimizeMove(t *testing.T) {
	origin := mustCanonical(t, moveCase)
	if got, want := origin.PeakMemory(), 8*gib; got != want {
		t.Fatalf("origin PeakMemory() = %d, erwartet %d", got, want)
	}

	result, err := testOptimizer(5 * gib).Optimize(origin)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if !result.Satisfied {
		t.Fatalf("Satisfied = false, erwartet true")
	}
	best := result.Best
	if got, want := best.Len(), origin.Len(); got != want {
		t.Errorf("best Len() = %d, erwartet %d (Move statt Duplikat)", got, want)
	}
	if best.TotalTime() != origin.TotalTime() {
		t.Errorf("Move darf keine Zeit kosten: %v != %v", best.TotalTime(), origin.TotalTime())
	}
	if got, want := best.PeakMemory(), 5*gib; got != want {
		t.Errorf("best PeakMemory() = %d, erwartet %d", got, want)
	}
}

func TestOptimizeNoCandidates(t *testing.T) {
	// Der letzte Task ist selbst der Peak: nichts liegt dahinter
	doc := `{
		"data": [{"id": 0, "size": 1073741824}, {"id": 1, "size": 1073741824}],
		"code": [
			{"name": "t1", "ins": [], "outs": [0], "workspace": 0, "time": 1000},
			{"name": "t2", "ins": [0], "outs": [1], "workspace": 0, "time": 1000}
		]
	}`
	origin := mustCanonical(t, doc)

	result, err := testOptimizer(1).Optimize(origin)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if result.Best != origin {
		t.Errorf("Best != origin ohne Kandidaten")
	}
	if result.Satisfied {
		t.Errorf("Satisfied = true, erwartet false")
	}
}

func TestOptimizeLimitZero(t *testing.T) {
	origin := mustCanonical(t, chainCase)

	result, err := testOptimizer(0).Optimize(origin)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if result.Satisfied {
		t.Errorf("Satisfied = true bei Limit 0")
	}
	if result.Best == nil {
		t.Errorf("Best = nil, erwartet Best-Effort-Schedule")
	}
	if result.Searched > 1500 {
		t.Errorf("Searched = %d ueberschreitet das Suchlimit", result.Searched)
	}
}

func TestOptimizeDeterministic(t *testing.T) {
	run := func() (uint64, int) {
		origin := mustCanonical(t, chainCase)
		result, err := testOptimizer(5 * gib).Optimize(origin)
		if err != nil {
			t.Fatalf("Optimize() error = %v", err)
		}
		return result.Best.Hash(), result.Searched
	}

	hash1, searched1 := run()
	hash2, searched2 := run()
	if hash1 != hash2 || searched1 != searched2 {
		t.Errorf("Suche nicht deterministisch: (%d, %d) vs (%d, %d)", hash1, searched1, hash2, searched2)
	}
}
