// Package schedule - Tasks und Marker
//
// Diese Datei enthaelt:
// - Task: Ein Operator-Vorkommen als Knoten der verketteten Liste
// - Marker-Erkennung (.dealloc, .share, verbotene Namen)
// - Copy: Tiefe Kopie ohne Analyse-Zustand
package schedule

import (
	"encoding/json"
	"time"
)

// Namen mit fuehrendem Punkt sind strukturelle Marker
const (
	nameDealloc = ".dealloc"
	nameShare   = ".share"
)

// forbiddenNames duerfen im Input nicht vorkommen
var forbiddenNames = map[string]struct{}{
	".host2device": {},
	".device2host": {},
	".sync":        {},
	".alloc":       {},
}

// Task ist ein Operator-Vorkommen. Prev/Next bilden die verkettete
// Liste eines Schedules; TimeStamp, ExecutionMemory und DeallocAfter
// sind Analyse-Zustand und gelten nur bis zur naechsten Mutation.
type Task struct {
	ID        int
	Name      string
	Workspace uint64
	Ins       []*Usage
	Outs      []*Usage
	Duration  time.Duration

	// Inplace ist gesetzt wenn Inputs und Outputs einen Operanden teilen
	Inplace bool

	// Attr ist das unveraenderte Upstream-Payload des Task-Records
	Attr json.RawMessage

	Prev *Task
	Next *Task

	// Analyse-Zustand
	TimeStamp       int
	ExecutionMemory uint64
	DeallocAfter    []*Operand
}

func (t *Task) IsDealloc() bool {
	return t.Name == nameDealloc
}

func (t *Task) IsShare() bool {
	return t.Name == nameShare
}

func (t *Task) IsMarker() bool {
	return t.IsDealloc() || t.IsShare()
}

func (t *Task) IsForbidden() bool {
	_, ok := forbiddenNames[t.Name]
	return ok
}

// Copy erzeugt eine tiefe Kopie ohne Analyse-Zustand und ohne
// Listen-Nachbarn. Die ID bleibt erhalten, sie identifiziert das
// Operator-Vorkommen ueber Schedule-Grenzen hinweg.
func (t *Task) Copy() *Task {
	c := &Task{
		ID:        t.ID,
		Name:      t.Name,
		Workspace: t.Workspace,
		Duration:  t.Duration,
		Inplace:   t.Inplace,
		Attr:      t.Attr,
		Ins:       make([]*Usage, len(t.Ins)),
		Outs:      make([]*Usage, len(t.Outs)),
	}
	for i, u := range t.Ins {
		c.Ins[i] = u.clone()
	}
	for i, u := range t.Outs {
		c.Outs[i] = u.clone()
	}
	return c
}

// newDealloc baut einen .dealloc-Marker fuer die gegebenen Operanden
func newDealloc(operands []*Operand) *Task {
	t := &Task{ID: -1, Name: nameDealloc, Outs: make([]*Usage, len(operands))}
	for i, op := range operands {
		t.Outs[i] = &Usage{Operand: op}
	}
	return t
}

// computeInplace setzt das Inplace-Flag anhand der aktuellen Operanden
func (t *Task) computeInplace() {
	t.Inplace = false
	for _, in := range t.Ins {
		for _, out := range t.Outs {
			if in.Operand == out.Operand {
				t.Inplace = true
				return
			}
		}
	}
}
