// Package schedule - Ausgabe-Rekonstruktion
//
// Diese Datei enthaelt:
// - RestoreDealloc: Fuegt .dealloc-Marker wieder in den Strom ein
// - Check: Selbsttest des vollstaendig rekonstruierten Stroms
package schedule

import "fmt"

// RestoreDealloc fuegt hinter jedem Task mit nicht-leerer
// DeallocAfter-Menge einen .dealloc-Marker mit genau dieser
// Operanden-Liste ein. Der Strom ist danach wieder im Wire-Format.
func (s *Schedule) RestoreDealloc() error {
	if err := s.Analyze(); err != nil {
		return err
	}

	type splice struct {
		after    *Task
		operands []*Operand
	}
	var splices []splice
	for t := s.head; t != nil; t = t.Next {
		if len(t.DeallocAfter) > 0 {
			splices = append(splices, splice{t, t.DeallocAfter})
		}
	}
	for _, sp := range splices {
		s.InsertAfter(sp.after, newDealloc(sp.operands))
	}
	return nil
}

// Check spielt den rekonstruierten Strom ab: jeder gelesene Operand
// muss leben, Deallokationen treffen lebende Operanden, und am Ende
// lebt genau NotDealloc. Ein Fehlschlag ist ein Bug im Rewriter.
func (s *Schedule) Check() error {
	live := make(map[*Operand]struct{}, len(s.Common.AlreadyOn))
	for op := range s.Common.AlreadyOn {
		live[op] = struct{}{}
	}

	for t := s.head; t != nil; t = t.Next {
		if t.IsDealloc() {
			for _, u := range t.Outs {
				if _, ok := live[u.Operand]; !ok {
					return fmt.Errorf("%w: check: .dealloc of dead operand %d", ErrInconsistent, u.Operand.ID)
				}
				delete(live, u.Operand)
			}
			continue
		}
		for _, u := range t.Ins {
			if _, ok := live[u.Operand]; !ok {
				return fmt.Errorf("%w: check: task %d (%s) reads dead operand %d", ErrInconsistent, t.ID, t.Name, u.Operand.ID)
			}
		}
		for _, u := range t.Outs {
			live[u.Operand] = struct{}{}
		}
	}

	if len(live) != len(s.Common.NotDealloc) {
		return fmt.Errorf("%w: check: %d operands live at exit, want %d", ErrInconsistent, len(live), len(s.Common.NotDealloc))
	}
	for op := range live {
		if _, ok := s.Common.NotDealloc[op]; !ok {
			return fmt.Errorf("%w: check: operand %d unexpectedly live at exit", ErrInconsistent, op.ID)
		}
	}
	return nil
}
