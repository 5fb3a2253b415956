package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/google/uuid"

	"soundtrack/internal/keys"
	"soundtrack/pkg/fetch"
)

const (
	DefaultBatchSize    = 100
	DefaultFlushEvery   = 1
	DefaultRefreshAfter = 3000 * time.Second
)

// Phase is the lifecycle position of a stage run.
type Phase string

const (
	NotStarted       Phase = "not_started"
	LoadedCheckpoint Phase = "loaded_checkpoint"
	ProcessingBatch  Phase = "processing_batch"
	Flushing         Phase = "flushing"
	Done             Phase = "done"
	Failed           Phase = "failed"
)

// Store persists checkpoint blobs. Read must return an error wrapping
// fs.ErrNotExist when key has never been written.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}

// Input is one enrichment request: the source row key and what the stage
// needs to look it up.
type Input[In any] struct {
	Key   int
	Value In
}

// Event reports stage progress to observers.
type Event struct {
	RunID   string    `json:"run_id"`
	Stage   string    `json:"stage"`
	Phase   Phase     `json:"phase"`
	Batch   int       `json:"batch"`
	Filled  int       `json:"filled"`
	Missing int       `json:"missing"`
	Pending int       `json:"pending"`
	Error   string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

// Stage describes how to fill one column of a table.
type Stage[In, V any] struct {
	Name       string
	BatchSize  int
	FlushEvery int

	// Process resolves one batch. It must return exactly one result per
	// input, in input order.
	Process func(ctx context.Context, batch []Input[In]) ([]fetch.Result[V], error)

	// Refresh is called between batches once RefreshAfter has elapsed since
	// the run started or the previous refresh. When Stale is set it decides
	// instead, and is also consulted before the first batch.
	Refresh      func(ctx context.Context) error
	RefreshAfter time.Duration
	Stale        func() bool

	// Columns and Render describe the text form of filled rows.
	Columns []string
	Render  func(V) []string

	OnEvent func(Event)
}

// Driver runs a Stage against a Store.
type Driver[In, V any] struct {
	stage Stage[In, V]
	store Store
	runID string
	phase Phase
	now   func() time.Time
}

func NewDriver[In, V any](store Store, stage Stage[In, V]) *Driver[In, V] {
	if stage.BatchSize <= 0 {
		stage.BatchSize = DefaultBatchSize
	}
	if stage.FlushEvery <= 0 {
		stage.FlushEvery = DefaultFlushEvery
	}
	if stage.RefreshAfter <= 0 {
		stage.RefreshAfter = DefaultRefreshAfter
	}
	return &Driver[In, V]{
		stage: stage,
		store: store,
		runID: uuid.NewString(),
		phase: NotStarted,
		now:   time.Now,
	}
}

// Phase returns the current lifecycle position.
func (d *Driver[In, V]) Phase() Phase { return d.phase }

// RunID identifies this driver's events.
func (d *Driver[In, V]) RunID() string { return d.runID }

// Load returns the persisted table for the stage, or a fresh one over keys.
// Keys missing from a persisted table are appended as pending.
func (d *Driver[In, V]) Load(ctx context.Context, keyList []int) (*Table[V], error) {
	data, err := d.store.Read(ctx, keys.Checkpoint(d.stage.Name))
	if errors.Is(err, fs.ErrNotExist) {
		return NewTable[V](d.stage.Name, keyList), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %s: %w", d.stage.Name, err)
	}
	t, err := DecodeBinary[V](data)
	if err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", d.stage.Name, err)
	}
	if t.Stage == "" {
		t.Stage = d.stage.Name
	}
	added := 0
	for _, k := range keyList {
		if t.Add(k) {
			added++
		}
	}
	if added > 0 {
		log.Printf("📌 %s: %d new keys appended to checkpoint", d.stage.Name, added)
	}
	return t, nil
}

// Run loads the checkpoint, processes every pending row it has an input
// for and flushes progress. The returned table is valid even on error and
// reflects what was processed in memory.
func (d *Driver[In, V]) Run(ctx context.Context, inputs []Input[In]) (*Table[V], error) {
	byKey := make(map[int]Input[In], len(inputs))
	keyList := make([]int, 0, len(inputs))
	for _, in := range inputs {
		if _, dup := byKey[in.Key]; dup {
			continue
		}
		byKey[in.Key] = in
		keyList = append(keyList, in.Key)
	}

	t, err := d.Load(ctx, keyList)
	if err != nil {
		d.phase = Failed
		d.emit(Event{Error: err.Error()}, nil)
		return nil, fmt.Errorf("stage %s: %w", d.stage.Name, err)
	}
	d.phase = LoadedCheckpoint
	d.emit(Event{}, t)

	var todo []Input[In]
	for _, k := range t.Pending() {
		if in, ok := byKey[k]; ok {
			todo = append(todo, in)
		}
	}
	if len(todo) == 0 {
		d.phase = Done
		d.emit(Event{}, t)
		log.Printf("✅ %s: nothing pending (%d rows)", d.stage.Name, t.Len())
		return t, nil
	}

	size := d.stage.BatchSize
	total := (len(todo) + size - 1) / size
	lastRefresh := d.now()
	log.Printf("▶️  %s: %d pending rows in %d batches", d.stage.Name, len(todo), total)

	for b := 0; b < total; b++ {
		if err := ctx.Err(); err != nil {
			if ferr := d.flush(ctx, t, b); ferr != nil {
				log.Printf("⚠️ %s: flush on shutdown: %v", d.stage.Name, ferr)
			}
			return t, d.fail(t, b, err)
		}

		if d.needsRefresh(b, lastRefresh) {
			log.Printf("🔑 %s: refreshing credentials", d.stage.Name)
			if err := d.stage.Refresh(ctx); err != nil {
				return t, d.fail(t, b, fmt.Errorf("refresh: %w", err))
			}
			lastRefresh = d.now()
		}

		start := b * size
		end := min(start+size, len(todo))
		batch := todo[start:end]

		d.phase = ProcessingBatch
		results, err := d.stage.Process(ctx, batch)
		if err == nil && len(results) != len(batch) {
			err = fmt.Errorf("process returned %d results for %d inputs", len(results), len(batch))
		}
		if err != nil {
			return t, d.fail(t, b, err)
		}
		if err := record(t, batch, results); err != nil {
			return t, d.fail(t, b, err)
		}
		log.Printf("   %s: batch %d/%d done", d.stage.Name, b+1, total)

		if (b+1)%d.stage.FlushEvery == 0 || b == total-1 {
			if err := d.flush(ctx, t, b); err != nil {
				return t, d.fail(t, b, err)
			}
		}
	}

	d.phase = Done
	d.emit(Event{Batch: total}, t)
	filled, missing, _ := t.Counts()
	log.Printf("✅ %s: %d filled, %d missing", d.stage.Name, filled, missing)
	return t, nil
}

func (d *Driver[In, V]) flush(ctx context.Context, t *Table[V], batch int) error {
	d.phase = Flushing
	bin, err := EncodeBinary(t)
	if err != nil {
		return err
	}
	text, err := EncodeText(t, d.stage.Columns, d.stage.Render)
	if err != nil {
		return fmt.Errorf("encode text: %w", err)
	}
	// The flush must land even when ctx was cancelled between batches.
	wctx := context.WithoutCancel(ctx)
	if err := d.store.Write(wctx, keys.Checkpoint(d.stage.Name), bin); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := d.store.Write(wctx, keys.CheckpointText(d.stage.Name), text); err != nil {
		return fmt.Errorf("write checkpoint text: %w", err)
	}
	d.emit(Event{Batch: batch + 1}, t)
	return nil
}

func (d *Driver[In, V]) needsRefresh(batch int, last time.Time) bool {
	switch {
	case d.stage.Refresh == nil:
		return false
	case d.stage.Stale != nil:
		return d.stage.Stale()
	default:
		return batch > 0 && d.now().Sub(last) >= d.stage.RefreshAfter
	}
}

// record stores one batch of results against the keys of its inputs.
func record[In, V any](t *Table[V], batch []Input[In], results []fetch.Result[V]) error {
	for i, r := range results {
		var err error
		if r.Found {
			err = t.Fill(batch[i].Key, r.Value)
		} else {
			err = t.Miss(batch[i].Key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver[In, V]) fail(t *Table[V], batch int, err error) error {
	d.phase = Failed
	d.emit(Event{Batch: batch + 1, Error: err.Error()}, t)
	return fmt.Errorf("stage %s: batch %d: %w", d.stage.Name, batch+1, err)
}

func (d *Driver[In, V]) emit(e Event, t *Table[V]) {
	if d.stage.OnEvent == nil {
		return
	}
	e.RunID = d.runID
	e.Stage = d.stage.Name
	e.Phase = d.phase
	e.Time = d.now()
	if t != nil {
		e.Filled, e.Missing, e.Pending = t.Counts()
	}
	d.stage.OnEvent(e)
}
