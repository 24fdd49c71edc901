// MODUL: occupy_test
// ZWECK: Tests fuer Kandidaten-Enumeration, Expansion und Rewrite
// INPUT: Synthetische Faelle im Wire-Format
// OUTPUT: Testresultate
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: testing, schedule
// HINWEISE: Expansion wird ueber Versions-Konflikte getrieben

package optimizer

import (
	"math/rand"
	"testing"

	"github.com/LyricZhao/DLMO/schedule"
)

func findTask(t *testing.T, s *schedule.Schedule, name string) *schedule.Task {
	t.Helper()
	for task := s.Front(); task != nil; task = task.Next {
		if task.Name == name {
			return task
		}
	}
	t.Fatalf("Task %q nicht gefunden", name)
	return nil
}

func TestGenerateOccupiesChain(t *testing.T) {
	s := mustCanonical(t, chainCase)
	o := testOptimizer(6 * gib)

	candidates := o.generateOccupies(s, s.TotalTime())
	if len(candidates) != 1 {
		t.Fatalf("generateOccupies() = %d Kandidaten, erwartet 1", len(candidates))
	}

	occ := candidates[0]
	if occ.Gen != findTask(t, s, "g") {
		t.Errorf("Gen = %q, erwartet g", occ.Gen.Name)
	}
	if occ.Use != findTask(t, s, "u") {
		t.Errorf("Use = %q, erwartet u", occ.Use.Name)
	}
	if occ.Move {
		t.Errorf("Move = true, aber h liest X zwischen g und u")
	}
	if len(occ.ReGen) != 0 {
		t.Errorf("ReGen = %d Tasks, erwartet 0", len(occ.ReGen))
	}
	if occ.ScoreB >= occ.ScoreA {
		// Das Speicher-Delta ist negativ (X wird am Peak frei), die
		// speicherlastige Gewichtung muss besser abschneiden als die
		// zeitlastige
		t.Errorf("ScoreB = %f >= ScoreA = %f, erwartet speicherlastig besser", occ.ScoreB, occ.ScoreA)
	}
}

func TestGenerateOccupiesMove(t *testing.T) {
	s := mustCanonical(t, moveCase)
	o := testOptimizer(5 * gib)

	candidates := o.generateOccupies(s, s.TotalTime())
	if len(candidates) != 1 {
		t.Fatalf("generateOccupies() = %d Kandidaten, erwartet 1", len(candidates))
	}
	if !candidates[0].Move {
		t.Errorf("Move = false, aber X hat keinen Leser zwischen g und u")
	}
}

// regenCase: b braucht W in der Version von a, aber c ueberschreibt W
// vor dem spaeten Verbraucher. a muss mitlaufen.
const regenCase = `{
	"data": [
		{"id": 0, "size": 64},
		{"id": 1, "size": 64},
		{"id": 2, "size": 64},
		{"id": 3, "size": 4294967296},
		{"id": 4, "size": 4294967296}
	],
	"code": [
		{"name": "src", "ins": [], "outs": [0], "workspace": 0, "time": 10},
		{"name": "alt", "ins": [], "outs": [1], "workspace": 0, "time": 10},
		{"name": "a", "ins": [0], "outs": [2], "workspace": 0, "time": 10},
		{"name": "b", "ins": [2], "outs": [3], "workspace": 0, "time": 10},
		{"name": "c", "ins": [1], "outs": [2], "workspace": 0, "time": 10},
		{"name": "big", "ins": [3], "outs": [4], "workspace": 0, "time": 10},
		{"name": "u", "ins": [3], "outs": [], "workspace": 0, "time": 10}
	]
}`

func TestExpandRegenChain(t *testing.T) {
	s := mustCanonical(t, regenCase)
	o := testOptimizer(4 * gib)

	b := findTask(t, s, "b")
	u := findTask(t, s, "u")
	occ := o.expand(b, u)
	if occ == nil {
		t.Fatalf("expand(b, u) = nil, erwartet Kandidat mit Regenerierung")
	}
	if len(occ.ReGen) != 1 || occ.ReGen[0] != findTask(t, s, "a") {
		t.Fatalf("ReGen = %v, erwartet [a]", occ.ReGen)
	}

	// a braucht src, das niemand ueberschreibt: es landet in ReGenIns
	found := false
	for _, gi := range occ.ReGenIns {
		if gi.Operand == s.Common.Operands[0] {
			found = true
		}
	}
	if !found {
		t.Errorf("ReGenIns ohne src, erwartet gefaltete Inputs der Kette")
	}
}

// deepCase: vier Vorfahren muessten mitlaufen, das Tiefen-Limit (3)
// verwirft den Kandidaten. z schreibt Operand 7 statt 0: Operand 0 traegt
// Version 0 und faellt aus dem rollenden Hash heraus, q1 erhielte dann
// dieselbe Version wie p1.
const deepCase = `{
	"data": [
		{"id": 7, "size": 64},
		{"id": 1, "size": 64},
		{"id": 2, "size": 64},
		{"id": 3, "size": 64},
		{"id": 4, "size": 64},
		{"id": 5, "size": 4294967296},
		{"id": 6, "size": 4294967296}
	],
	"code": [
		{"name": "z", "ins": [], "outs": [7], "workspace": 0, "time": 10},
		{"name": "p1", "ins": [], "outs": [1], "workspace": 0, "time": 10},
		{"name": "p2", "ins": [1], "outs": [2], "workspace": 0, "time": 10},
		{"name": "p3", "ins": [2], "outs": [3], "workspace": 0, "time": 10},
		{"name": "p4", "ins": [3], "outs": [4], "workspace": 0, "time": 10},
		{"name": "gen", "ins": [4], "outs": [5], "workspace": 0, "time": 10},
		{"name": "q1", "ins": [7], "outs": [1], "workspace": 0, "time": 10},
		{"name": "q2", "ins": [7], "outs": [2], "workspace": 0, "time": 10},
		{"name": "q3", "ins": [7], "outs": [3], "workspace": 0, "time": 10},
		{"name": "q4", "ins": [7], "outs": [4], "workspace": 0, "time": 10},
		{"name": "big", "ins": [5], "outs": [6], "workspace": 0, "time": 10},
		{"name": "u", "ins": [5], "outs": [], "workspace": 0, "time": 10}
	]
}`

func TestExpandDepthCap(t *testing.T) {
	s := mustCanonical(t, deepCase)
	o := testOptimizer(4 * gib)

	gen := findTask(t, s, "gen")
	u := findTask(t, s, "u")
	if occ := o.expand(gen, u); occ != nil {
		t.Errorf("expand() = %+v, erwartet Verwurf am Tiefen-Limit", occ)
	}

	// Mit hoeherem Limit laeuft die volle Kette mit
	o.RegenDepth = 4
	occ := o.expand(gen, u)
	if occ == nil {
		t.Fatalf("expand() = nil bei RegenDepth=4")
	}
	if len(occ.ReGen) != 4 {
		t.Errorf("ReGen = %d Tasks, erwartet 4", len(occ.ReGen))
	}
	// Tiefste zuerst: p1 liegt am Ende der umgekehrt eingefuegten Kette
	if occ.ReGen[0] != findTask(t, s, "p4") || occ.ReGen[3] != findTask(t, s, "p1") {
		t.Errorf("ReGen-Reihenfolge %v, erwartet [p4 p3 p2 p1]", occ.ReGen)
	}
}

func TestApplyDuplicate(t *testing.T) {
	s := mustCanonical(t, chainCase)
	o := testOptimizer(6 * gib)
	occ := o.generateOccupies(s, s.TotalTime())[0]

	child := Apply(s, occ)
	if got, want := child.Len(), s.Len()+1+len(occ.ReGen); got != want {
		t.Errorf("child Len() = %d, erwartet %d", got, want)
	}
	if err := child.Analyze(); err != nil {
		t.Fatalf("child Analyze() error = %v", err)
	}

	// Das Duplikat von g steht direkt vor u
	u := findTask(t, child, "u")
	if u.Prev == nil || u.Prev.Name != "g" {
		t.Errorf("Task vor u = %v, erwartet Duplikat von g", u.Prev)
	}
}

func TestApplyMove(t *testing.T) {
	s := mustCanonical(t, moveCase)
	o := testOptimizer(5 * gib)
	occ := o.generateOccupies(s, s.TotalTime())[0]

	child := Apply(s, occ)
	if got, want := child.Len(), s.Len(); got != want {
		t.Errorf("child Len() = %d, erwartet %d (Move)", got, want)
	}
	if child.Front().Name == "g" {
		t.Errorf("Original-g nicht entfernt")
	}
}

func TestApplyHashDedup(t *testing.T) {
	s := mustCanonical(t, chainCase)
	o := testOptimizer(6 * gib)
	occ := o.generateOccupies(s, s.TotalTime())[0]

	child1 := Apply(s, occ)
	child2 := Apply(s, occ)
	if child1.Hash() != child2.Hash() {
		t.Errorf("Hash() = %d vs %d fuer identische Rewrites", child1.Hash(), child2.Hash())
	}
	if child1.Hash() == s.Hash() {
		t.Errorf("Hash() des Kindes gleich dem Eltern-Hash")
	}
}

func TestPruneKeepsTopCandidates(t *testing.T) {
	o := testOptimizer(gib)
	rng := rand.New(rand.NewSource(1))

	mk := func(a, b float64) *Occupy {
		return &Occupy{ScoreA: a, ScoreB: b}
	}
	best := mk(0.1, 0.9)
	candidates := []*Occupy{
		mk(0.5, 0.5), best, mk(0.9, 0.1), mk(0.7, 0.7), mk(0.3, 0.3), mk(0.8, 0.2),
	}

	picked := o.prune(candidates, rng)
	if len(picked) < 2 || len(picked) > 2*o.OccupiesPerScore+1 {
		t.Fatalf("prune() = %d Kandidaten, erwartet 2..%d", len(picked), 2*o.OccupiesPerScore+1)
	}
	foundBest := false
	for _, occ := range picked {
		if occ == best {
			foundBest = true
		}
	}
	if !foundBest {
		t.Errorf("prune() verwirft den besten Kandidaten nach ScoreA")
	}
}
