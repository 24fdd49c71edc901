// Package schedule - JSON-Codec
//
// Diese Datei enthaelt:
// - Load: Liest einen Fall (data/code) und baut den Task-Strom
// - Save: Serialisiert den Strom mit Original-Identitaeten und -Payloads
// - Eingabe-Validierung (verbotene Namen, unaufgeloeste Operanden-IDs)
package schedule

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"time"
)

// taskRecord ist das Wire-Format eines Task-Records
type taskRecord struct {
	Name      string          `json:"name"`
	Ins       []int           `json:"ins"`
	Outs      []int           `json:"outs"`
	Workspace uint64          `json:"workspace"`
	Time      float64         `json:"time"` // Mikrosekunden
	Attr      json.RawMessage `json:"attr,omitempty"`
}

// caseRecord ist das Wire-Format eines Falls
type caseRecord struct {
	Data []json.RawMessage `json:"data"`
	Code []taskRecord      `json:"code"`
}

// Load liest einen Fall und baut den rohen Task-Strom. Der Strom
// enthaelt noch alle Marker; Canonicalize bereitet ihn fuer die Suche vor.
func Load(r io.Reader) (*Schedule, error) {
	var record caseRecord
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	common := &Common{
		Operands:   make(map[int]*Operand, len(record.Data)),
		AlreadyOn:  make(map[*Operand]struct{}),
		NotDealloc: make(map[*Operand]struct{}),
	}

	for i, raw := range record.Data {
		op, err := decodeOperand(raw)
		if err != nil {
			return nil, fmt.Errorf("operand %d: %w", i, err)
		}
		if _, ok := common.Operands[op.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate operand id %d", ErrInvalidInput, op.ID)
		}
		common.Operands[op.ID] = op
	}

	s := New(common)
	for i, rec := range record.Code {
		task, err := decodeTask(common, i, rec)
		if err != nil {
			return nil, fmt.Errorf("task %d (%s): %w", i, rec.Name, err)
		}
		s.PushBack(task)
	}

	return s, nil
}

// decodeOperand liest einen Operanden-Record; unbekannte Felder bleiben
// als Attrs erhalten
func decodeOperand(raw json.RawMessage) (*Operand, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	op := &Operand{}
	idRaw, ok := fields["id"]
	if !ok {
		return nil, fmt.Errorf("%w: operand without id", ErrInvalidInput)
	}
	if err := json.Unmarshal(idRaw, &op.ID); err != nil {
		return nil, fmt.Errorf("%w: operand id: %v", ErrInvalidInput, err)
	}
	sizeRaw, ok := fields["size"]
	if !ok {
		return nil, fmt.Errorf("%w: operand %d without size", ErrInvalidInput, op.ID)
	}
	if err := json.Unmarshal(sizeRaw, &op.Size); err != nil {
		return nil, fmt.Errorf("%w: operand %d size: %v", ErrInvalidInput, op.ID, err)
	}

	delete(fields, "id")
	delete(fields, "size")
	if len(fields) > 0 {
		op.Attrs = fields
	}
	return op, nil
}

// decodeTask liest einen Task-Record und validiert Marker-Formen
func decodeTask(common *Common, id int, rec taskRecord) (*Task, error) {
	task := &Task{
		ID:        id,
		Name:      rec.Name,
		Workspace: rec.Workspace,
		Duration:  time.Duration(math.Round(rec.Time * 1e3)),
		Attr:      rec.Attr,
	}

	if task.IsForbidden() {
		return nil, fmt.Errorf("%w: forbidden task name %q", ErrInvalidInput, rec.Name)
	}

	resolve := func(ids []int) ([]*Usage, error) {
		usages := make([]*Usage, len(ids))
		for i, opID := range ids {
			op, ok := common.Operands[opID]
			if !ok {
				return nil, fmt.Errorf("%w: unresolved operand id %d", ErrInvalidInput, opID)
			}
			usages[i] = &Usage{Operand: op}
		}
		return usages, nil
	}

	var err error
	if task.Ins, err = resolve(rec.Ins); err != nil {
		return nil, err
	}
	if task.Outs, err = resolve(rec.Outs); err != nil {
		return nil, err
	}

	switch {
	case task.IsDealloc():
		if len(task.Ins) != 0 {
			return nil, fmt.Errorf("%w: .dealloc with inputs", ErrInvalidInput)
		}
	case task.IsShare():
		if len(task.Ins) != 1 || len(task.Outs) == 0 {
			return nil, fmt.Errorf("%w: .share needs one input and at least one output", ErrInvalidInput)
		}
	}

	task.computeInplace()
	return task, nil
}

// Save serialisiert den Strom. Usages mit Share-Historie werden auf
// ihre Original-Identitaet zurueckgeschrieben, Attr-Payloads sind noch
// unveraendert an den Tasks.
func (s *Schedule) Save(w io.Writer) error {
	record := caseRecord{
		Data: make([]json.RawMessage, 0, len(s.Common.Operands)),
		Code: make([]taskRecord, 0, s.length),
	}

	ids := make([]int, 0, len(s.Common.Operands))
	for id := range s.Common.Operands {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		raw, err := encodeOperand(s.Common.Operands[id])
		if err != nil {
			return err
		}
		record.Data = append(record.Data, raw)
	}

	for t := s.head; t != nil; t = t.Next {
		record.Code = append(record.Code, taskRecord{
			Name:      t.Name,
			Ins:       usageIDs(t.Ins),
			Outs:      usageIDs(t.Outs),
			Workspace: t.Workspace,
			Time:      float64(t.Duration.Nanoseconds()) / 1e3,
			Attr:      t.Attr,
		})
	}

	encoder := json.NewEncoder(w)
	return encoder.Encode(record)
}

// encodeOperand schreibt id/size plus die erhaltenen Attrs
func encodeOperand(op *Operand) (json.RawMessage, error) {
	fields := make(map[string]any, len(op.Attrs)+2)
	for k, v := range op.Attrs {
		fields[k] = v
	}
	fields["id"] = op.ID
	fields["size"] = op.Size
	return json.Marshal(fields)
}

// usageIDs gibt die Wire-IDs der Usages zurueck, Original-Identitaet
// gewinnt gegen die kanonisierte
func usageIDs(usages []*Usage) []int {
	ids := make([]int, len(usages))
	for i, u := range usages {
		if u.Orig != nil {
			ids[i] = u.Orig.ID
		} else {
			ids[i] = u.Operand.ID
		}
	}
	return ids
}
