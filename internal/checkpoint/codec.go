package checkpoint

import (
	"bytes"
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"strconv"

	"github.com/klauspost/compress/zstd"
)

// snapshot is the persisted shape of a Table. Cells are stored in table
// order so a reload reproduces the same pending order.
type snapshot[V any] struct {
	Stage string
	Cells []Cell[V]
}

// EncodeBinary writes the table as zstd-compressed gob.
func EncodeBinary[V any](t *Table[V]) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	if err := gob.NewEncoder(zw).Encode(snapshot[V]{Stage: t.Stage, Cells: t.Cells}); err != nil {
		_ = zw.Close()
		return nil, fmt.Errorf("gob encode %s: %w", t.Stage, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zstd close: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeBinary is the inverse of EncodeBinary.
func DecodeBinary[V any](data []byte) (*Table[V], error) {
	zr, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer zr.Close()

	var s snapshot[V]
	if err := gob.NewDecoder(zr).Decode(&s); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	t := &Table[V]{Stage: s.Stage, Cells: s.Cells}
	t.reindex()
	return t, nil
}

// EncodeText renders the table as tab-separated values for humans: key,
// state and the columns produced by render for filled rows.
func EncodeText[V any](t *Table[V], columns []string, render func(V) []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = '\t'

	header := append([]string{"key", "state"}, columns...)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, c := range t.Cells {
		rec := []string{strconv.Itoa(c.Key), c.State.String()}
		if render != nil {
			cols := make([]string, len(columns))
			if c.State == Filled {
				copy(cols, render(c.Value))
			}
			rec = append(rec, cols...)
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
