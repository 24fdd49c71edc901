// Package schedule - Datenfluss-Analyse
//
// Diese Datei enthaelt:
// - AnalyzePlacement: Bestimmt AlreadyOn/NotDealloc aus dem rohen Strom
// - AnalyzeShare: Loest .share-Aliasing auf (invertierbar)
// - Refactor: Entfernt Marker-Tasks aus dem Strom
// - Canonicalize: Placement -> Share -> Refactor
// - Analyze: Topologie- und Speicher-Simulation (memoisiert)
package schedule

import (
	"fmt"
	"slices"
)

// AnalyzePlacement laeuft ueber den frisch geladenen Strom (noch mit
// .dealloc-Markern). Erste ungeschriebene Input-Operanden muessen beim
// Eintritt leben (AlreadyOn); am Ende lebende Operanden muessen beim
// Austritt leben (NotDealloc). Beide Mengen sind danach unveraenderlich.
func (s *Schedule) AnalyzePlacement() error {
	live := make(map[*Operand]struct{})
	written := make(map[*Operand]struct{})

	for t := s.head; t != nil; t = t.Next {
		if t.IsDealloc() {
			for _, u := range t.Outs {
				if _, ok := live[u.Operand]; !ok {
					return fmt.Errorf("%w: .dealloc of dead operand %d", ErrInvalidInput, u.Operand.ID)
				}
				delete(live, u.Operand)
			}
			continue
		}
		for _, u := range t.Ins {
			if _, ok := written[u.Operand]; !ok {
				if _, on := live[u.Operand]; !on {
					live[u.Operand] = struct{}{}
					written[u.Operand] = struct{}{}
					s.Common.AlreadyOn[u.Operand] = struct{}{}
				}
			}
		}
		for _, u := range t.Outs {
			written[u.Operand] = struct{}{}
			live[u.Operand] = struct{}{}
		}
	}

	for op := range live {
		s.Common.NotDealloc[op] = struct{}{}
	}
	return nil
}

// AnalyzeShare loest .share-Aliasing auf. Jeder .share-Task erklaert
// einen Quell-Operanden und einen oder mehrere Ausgabe-Operanden als
// denselben Speicher; alle Verbraucher werden auf den Quell-Operanden
// umgeschrieben. Die Original-Identitaet bleibt pro Usage erhalten,
// damit die Ausgabe invertierbar ist.
func (s *Schedule) AnalyzeShare() error {
	alias := make(map[*Operand]*Operand)

	rewrite := func(usages []*Usage) {
		for _, u := range usages {
			if canon, ok := alias[u.Operand]; ok {
				if u.Orig == nil {
					u.Orig = u.Operand
				}
				u.Operand = canon
			}
		}
	}

	for t := s.head; t != nil; t = t.Next {
		if !t.IsShare() {
			rewrite(t.Ins)
			rewrite(t.Outs)
			continue
		}

		source := t.Ins[0].Operand
		if _, ok := alias[source]; ok {
			return fmt.Errorf("%w: .share source %d was already aliased", ErrInvalidInput, source.ID)
		}
		for _, u := range t.Outs {
			if _, ok := alias[u.Operand]; ok {
				return fmt.Errorf("%w: operand %d aliased twice", ErrInvalidInput, u.Operand.ID)
			}
			if u.Operand == source {
				return fmt.Errorf("%w: .share maps operand %d onto itself", ErrInvalidInput, source.ID)
			}
			alias[u.Operand] = source
		}
	}

	// AlreadyOn/NotDealloc wurden vor der Aufloesung bestimmt und
	// koennen Alias-Identitaeten enthalten
	remap := func(set map[*Operand]struct{}) {
		for op := range set {
			if canon, ok := alias[op]; ok {
				delete(set, op)
				set[canon] = struct{}{}
			}
		}
	}
	remap(s.Common.AlreadyOn)
	remap(s.Common.NotDealloc)

	return nil
}

// Refactor entfernt alle Marker-Tasks. Die Suche arbeitet auf dem
// reinen Rechen-Strom; Deallokationen werden bei der Ausgabe
// rekonstruiert.
func (s *Schedule) Refactor() {
	var next *Task
	for t := s.head; t != nil; t = next {
		next = t.Next
		if t.IsMarker() {
			s.Remove(t)
		}
	}
	for t := s.head; t != nil; t = t.Next {
		t.computeInplace()
	}
}

// Canonicalize bereitet einen frisch geladenen Strom fuer die Suche vor
func (s *Schedule) Canonicalize() error {
	if err := s.AnalyzePlacement(); err != nil {
		return err
	}
	if err := s.AnalyzeShare(); err != nil {
		return err
	}
	s.Refactor()
	return nil
}

// Analyze berechnet Topologie und Speicher-Simulation. Idempotent und
// memoisiert bis zur naechsten strukturellen Mutation.
func (s *Schedule) Analyze() error {
	if s.analyzed {
		return nil
	}
	s.analyzeTopology()
	if err := s.analyzeMemory(); err != nil {
		return err
	}
	s.analyzed = true
	return nil
}

// analyzeTopology baut die Verwendungsketten in zwei Laeufen auf.
// Vorwaerts: Gen/PrevUse/NextUse, Versionen, DeallocAfter.
// Rueckwaerts: NextGen und LastUse je Version.
func (s *Schedule) analyzeTopology() {
	type slot struct {
		task  *Task
		usage *Usage
	}
	gen := make(map[*Operand]slot)
	reader := make(map[*Operand]slot)

	ts := 0
	for t := s.head; t != nil; t = t.Next {
		ts++
		t.TimeStamp = ts
		t.DeallocAfter = nil
	}

	for t := s.head; t != nil; t = t.Next {
		for _, u := range t.Ins {
			if w, ok := gen[u.Operand]; ok {
				u.Gen = w.task
				u.Version = w.usage.Version
			} else {
				u.Gen = nil
				u.Version = BaseVersion(u.Operand)
			}
			if r, ok := reader[u.Operand]; ok {
				u.PrevUse = r.task
				r.usage.NextUse = t
			} else {
				u.PrevUse = nil
			}
			u.NextUse = nil
			reader[u.Operand] = slot{t, u}
		}

		var rolling uint64
		for _, u := range t.Ins {
			rolling = rolling*hashBase + u.Version
		}
		for _, u := range t.Outs {
			// Ein Ueberschreiben beendet die alte Version: ihr letzter
			// Leser bekommt die Deallokation zugeordnet, ungelesene
			// Versionen werden nach ihrem Erzeuger freigegeben
			if r, ok := reader[u.Operand]; ok {
				s.markDeallocAfterUse(r.task, u.Operand, false)
			} else if w, ok := gen[u.Operand]; ok {
				s.markDeallocUnread(w.task, u.Operand, false)
			}
			delete(reader, u.Operand)

			u.Version = rolling*hashBase + uint64(u.Operand.ID)
			u.Gen = t
			u.PrevUse, u.NextUse = nil, nil
			gen[u.Operand] = slot{t, u}
		}
	}

	// Strom-Ende: finale Versionen freigeben, sofern sie nicht beim
	// Austritt leben muessen. Nach Operanden-ID sortiert, damit die
	// rekonstruierten Marker deterministisch sind.
	var finals []*Operand
	for op := range reader {
		finals = append(finals, op)
	}
	for op := range gen {
		if _, ok := reader[op]; !ok {
			finals = append(finals, op)
		}
	}
	slices.SortFunc(finals, func(a, b *Operand) int { return a.ID - b.ID })
	for _, op := range finals {
		if r, ok := reader[op]; ok {
			s.markDeallocAfterUse(r.task, op, true)
		} else {
			s.markDeallocUnread(gen[op].task, op, true)
		}
	}

	// Rueckwaertslauf
	nextGen := make(map[*Operand]*Task)
	tailReader := make(map[*Operand]*Task)
	for t := s.tail; t != nil; t = t.Prev {
		for _, u := range t.Outs {
			u.NextGen = nextGen[u.Operand]
			u.LastUse = tailReader[u.Operand]
			nextGen[u.Operand] = t
			delete(tailReader, u.Operand)
		}
		for _, u := range t.Ins {
			u.NextGen = nextGen[u.Operand]
			if _, ok := tailReader[u.Operand]; !ok {
				tailReader[u.Operand] = t
			}
			u.LastUse = tailReader[u.Operand]
		}
	}
}

// markDeallocAfterUse ordnet die Freigabe von op dem letzten Leser t
// zu. Schreibt t den Operanden selbst, lebt dort bereits die naechste
// Version. NotDealloc schuetzt nur die finale Version am Strom-Ende.
func (s *Schedule) markDeallocAfterUse(t *Task, op *Operand, atEnd bool) {
	if atEnd {
		if _, keep := s.Common.NotDealloc[op]; keep {
			return
		}
	}
	for _, u := range t.Outs {
		if u.Operand == op {
			return
		}
	}
	t.DeallocAfter = append(t.DeallocAfter, op)
}

// markDeallocUnread gibt eine Version ohne Leser direkt nach ihrem
// Erzeuger frei
func (s *Schedule) markDeallocUnread(producer *Task, op *Operand, atEnd bool) {
	if atEnd {
		if _, keep := s.Common.NotDealloc[op]; keep {
			return
		}
	}
	producer.DeallocAfter = append(producer.DeallocAfter, op)
}

// analyzeMemory spielt den Strom ab: Outputs werden lebendig, das
// Ausfuehrungs-Maximum enthaelt den Workspace, danach greifen die in
// der Topologie bestimmten Freigaben. Peak ist der erste Task mit
// maximalem ExecutionMemory.
func (s *Schedule) analyzeMemory() error {
	live := make(map[*Operand]struct{}, len(s.Common.AlreadyOn))
	var current uint64
	for op := range s.Common.AlreadyOn {
		live[op] = struct{}{}
		current += op.Size
	}

	s.peakMemory = current
	s.peakTask = nil
	s.totalTime = 0

	for t := s.head; t != nil; t = t.Next {
		for _, u := range t.Ins {
			if _, ok := live[u.Operand]; !ok {
				return fmt.Errorf("%w: task %d (%s) reads dead operand %d", ErrInconsistent, t.ID, t.Name, u.Operand.ID)
			}
		}
		for _, u := range t.Outs {
			if _, ok := live[u.Operand]; !ok {
				live[u.Operand] = struct{}{}
				current += u.Operand.Size
			}
		}

		t.ExecutionMemory = current + t.Workspace
		if s.peakTask == nil || t.ExecutionMemory > s.peakMemory {
			s.peakMemory = t.ExecutionMemory
			s.peakTask = t
		}

		for _, op := range t.DeallocAfter {
			if _, ok := live[op]; !ok {
				return fmt.Errorf("%w: dealloc of dead operand %d after task %d", ErrInconsistent, op.ID, t.ID)
			}
			delete(live, op)
			current -= op.Size
		}

		s.totalTime += t.Duration
	}

	return nil
}
