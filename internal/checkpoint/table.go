// Package checkpoint runs one enrichment stage over a keyed table and
// persists partial progress so an interrupted stage resumes where its last
// flush left off.
package checkpoint

import (
	"fmt"
	"sort"
)

// State of one row in a stage table.
type State uint8

const (
	// Pending rows have not been looked up yet and are the only rows a run
	// processes.
	Pending State = iota
	// Missing rows were looked up and the API had nothing for them.
	Missing
	// Filled rows carry a value. A filled zero is a real zero.
	Filled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Missing:
		return "missing"
	case Filled:
		return "filled"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Cell is one row of a stage table, addressed by the source row key.
type Cell[V any] struct {
	Key   int
	State State
	Value V
}

// Table is an index-addressed store holding the target column of a single
// stage. Keys never change once inserted; only the driver writes to it.
type Table[V any] struct {
	Stage string
	Cells []Cell[V]

	pos map[int]int
}

// NewTable returns a table with every key pending. Duplicate keys are kept
// once.
func NewTable[V any](stage string, keys []int) *Table[V] {
	t := &Table[V]{Stage: stage, Cells: make([]Cell[V], 0, len(keys))}
	t.reindex()
	for _, k := range keys {
		t.Add(k)
	}
	return t
}

func (t *Table[V]) reindex() {
	t.pos = make(map[int]int, len(t.Cells))
	for i, c := range t.Cells {
		t.pos[c.Key] = i
	}
}

// Add appends key as pending. It reports false when the key already exists.
func (t *Table[V]) Add(key int) bool {
	if _, ok := t.pos[key]; ok {
		return false
	}
	t.pos[key] = len(t.Cells)
	t.Cells = append(t.Cells, Cell[V]{Key: key})
	return true
}

// Has reports whether key is part of the table.
func (t *Table[V]) Has(key int) bool {
	_, ok := t.pos[key]
	return ok
}

// Get returns the value and state stored for key.
func (t *Table[V]) Get(key int) (V, State, bool) {
	i, ok := t.pos[key]
	if !ok {
		var zero V
		return zero, Pending, false
	}
	c := t.Cells[i]
	return c.Value, c.State, true
}

// Fill stores v for key.
func (t *Table[V]) Fill(key int, v V) error {
	i, ok := t.pos[key]
	if !ok {
		return fmt.Errorf("table %s: unknown key %d", t.Stage, key)
	}
	t.Cells[i].Value = v
	t.Cells[i].State = Filled
	return nil
}

// Miss records that the lookup for key found nothing.
func (t *Table[V]) Miss(key int) error {
	i, ok := t.pos[key]
	if !ok {
		return fmt.Errorf("table %s: unknown key %d", t.Stage, key)
	}
	var zero V
	t.Cells[i].Value = zero
	t.Cells[i].State = Missing
	return nil
}

// Pending returns the keys still to be processed in table order.
func (t *Table[V]) Pending() []int {
	var keys []int
	for _, c := range t.Cells {
		if c.State == Pending {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// Counts tallies rows per state.
func (t *Table[V]) Counts() (filled, missing, pending int) {
	for _, c := range t.Cells {
		switch c.State {
		case Filled:
			filled++
		case Missing:
			missing++
		default:
			pending++
		}
	}
	return filled, missing, pending
}

// Filled returns the filled values keyed by row, sorted by key.
func (t *Table[V]) Filled() []Cell[V] {
	var out []Cell[V]
	for _, c := range t.Cells {
		if c.State == Filled {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len is the number of rows.
func (t *Table[V]) Len() int { return len(t.Cells) }
