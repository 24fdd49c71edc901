// Package optimizer - Rewrite-Engine
//
// Diese Datei enthaelt:
// - Apply: Wendet einen Occupy-Kandidaten an und forkt den Schedule
package optimizer

import "github.com/LyricZhao/DLMO/schedule"

// Apply erzeugt aus parent einen neuen Schedule: direkt vor Use werden
// tiefe Kopien der Regenerierungs-Kette (in originaler topologischer
// Reihenfolge) und des Erzeugers eingefuegt; bei Move faellt der
// originale Erzeuger weg. Der Common-Kontext wird geteilt, alle Tasks
// werden kopiert, der neue Schedule ist unanalysiert.
func Apply(parent *schedule.Schedule, occ *Occupy) *schedule.Schedule {
	child := schedule.New(parent.Common)
	for t := parent.Front(); t != nil; t = t.Next {
		if t == occ.Use {
			for i := len(occ.ReGen) - 1; i >= 0; i-- {
				child.PushBack(occ.ReGen[i].Copy())
			}
			child.PushBack(occ.Gen.Copy())
		}
		if t == occ.Gen && occ.Move {
			continue
		}
		child.PushBack(t.Copy())
	}
	return child
}
