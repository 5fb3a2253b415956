// Package enrich chains the checkpointed enrichment stages into the three
// runnable pipelines: movies, composers and soundtracks.
package enrich

import (
	"context"
)

// Step mutates the run state of a pipeline. Steps in the same Stage run
// concurrently on the same item, so they must write disjoint fields.
//
// Example:
//
//	func readMovies(ctx context.Context, r *SoundtrackRun) error { ...; r.Movies = movies; return nil }
type Step[T any] func(ctx context.Context, item *T) error

// Stage groups steps that may run in parallel. The pipeline waits for all of
// them before moving on.
type Stage[T any] struct {
	name  string
	steps []Step[T]
}

// NewStage constructs a Stage from the provided steps.
func NewStage[T any](name string, steps ...Step[T]) Stage[T] {
	return Stage[T]{name: name, steps: steps}
}
