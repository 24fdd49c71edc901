// Package schedule - Schedule-Struktur und Statistiken
//
// Diese Datei enthaelt:
// - Schedule: Doppelt verkettete Task-Liste plus geteilter Common-Kontext
// - Listen-Operationen (PushBack, InsertBefore, Remove)
// - Memoisierte Statistiken (Peak-Speicher, Gesamtzeit)
// - Hash: Struktureller Fingerabdruck der Task-ID-Folge
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/LyricZhao/DLMO/format"
)

// hashBase ist die Basis des rollenden Hashes (Task-IDs und Versionen)
const hashBase = 131

var (
	// ErrInvalidInput meldet unzulaessige Eingaben (verbotene Task-Namen,
	// unaufgeloeste Operanden-IDs, unausgeglichene Marker)
	ErrInvalidInput = errors.New("invalid input")

	// ErrInconsistent meldet eine Invarianten-Verletzung waehrend der
	// Analyse; der Schedule ist in sich widerspruechlich
	ErrInconsistent = errors.New("inconsistent schedule")
)

// Schedule ist eine geordnete, doppelt verkettete Task-Liste. Der
// Common-Kontext wird von allen aus demselben Fall abgeleiteten
// Schedules geteilt; Tasks gehoeren genau einem Schedule.
type Schedule struct {
	Common *Common

	head   *Task
	tail   *Task
	length int

	// Memoisierte Statistiken, gueltig bis zur naechsten Mutation
	analyzed   bool
	peakMemory uint64
	peakTask   *Task
	totalTime  time.Duration

	hashed    bool
	hashValue uint64
}

// New erstellt einen leeren Schedule ueber dem gegebenen Kontext
func New(common *Common) *Schedule {
	return &Schedule{Common: common}
}

// Front gibt den ersten Task zurueck
func (s *Schedule) Front() *Task {
	return s.head
}

// Back gibt den letzten Task zurueck
func (s *Schedule) Back() *Task {
	return s.tail
}

// Len gibt die Anzahl der Tasks zurueck
func (s *Schedule) Len() int {
	return s.length
}

// PushBack haengt einen Task ans Ende
func (s *Schedule) PushBack(t *Task) {
	t.Prev = s.tail
	t.Next = nil
	if s.tail != nil {
		s.tail.Next = t
	} else {
		s.head = t
	}
	s.tail = t
	s.length++
	s.invalidate()
}

// InsertBefore fuegt t vor pos ein; pos muss Element der Liste sein
func (s *Schedule) InsertBefore(pos, t *Task) {
	t.Prev = pos.Prev
	t.Next = pos
	if pos.Prev != nil {
		pos.Prev.Next = t
	} else {
		s.head = t
	}
	pos.Prev = t
	s.length++
	s.invalidate()
}

// InsertAfter fuegt t hinter pos ein; pos muss Element der Liste sein
func (s *Schedule) InsertAfter(pos, t *Task) {
	t.Prev = pos
	t.Next = pos.Next
	if pos.Next != nil {
		pos.Next.Prev = t
	} else {
		s.tail = t
	}
	pos.Next = t
	s.length++
	s.invalidate()
}

// Remove entfernt t aus der Liste
func (s *Schedule) Remove(t *Task) {
	if t.Prev != nil {
		t.Prev.Next = t.Next
	} else {
		s.head = t.Next
	}
	if t.Next != nil {
		t.Next.Prev = t.Prev
	} else {
		s.tail = t.Prev
	}
	t.Prev, t.Next = nil, nil
	s.length--
	s.invalidate()
}

// invalidate verwirft memoisierte Statistiken und den Hash
func (s *Schedule) invalidate() {
	s.analyzed = false
	s.hashed = false
}

// PeakMemory gibt den Peak-Speicher zurueck; Analyze muss gelaufen sein
func (s *Schedule) PeakMemory() uint64 {
	return s.peakMemory
}

// PeakTask gibt den ersten Task zurueck, der den Peak erreicht
func (s *Schedule) PeakTask() *Task {
	return s.peakTask
}

// TotalTime gibt die Gesamtlaufzeit zurueck; Analyze muss gelaufen sein
func (s *Schedule) TotalTime() time.Duration {
	return s.totalTime
}

// Hash ist ein rollender Hash der Task-ID-Folge: ein rein struktureller
// Fingerabdruck der Rewrite-Historie, stabil ueber Analysen hinweg
func (s *Schedule) Hash() uint64 {
	if s.hashed {
		return s.hashValue
	}
	var h uint64
	for t := s.head; t != nil; t = t.Next {
		h = h*hashBase + uint64(t.ID)
	}
	s.hashed = true
	s.hashValue = h
	return h
}

// Info beschreibt Peak-Speicher und Gesamtzeit; Analyze muss gelaufen sein
func (s *Schedule) Info() string {
	return fmt.Sprintf("peak memory: %s, total time: %s",
		format.HumanBytes2(s.peakMemory), format.HumanNanoseconds(s.totalTime))
}
