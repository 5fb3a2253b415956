package enrich

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"
)

// Pipeline runs stages in order over one run state. Steps within a stage run
// concurrently; the first failing step cancels its siblings and stops the
// pipeline, since every later stage reads what the earlier ones produced.
type Pipeline[T any] struct {
	name   string
	stages []Stage[T]
}

func NewPipeline[T any](name string, stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{name: name, stages: stages}
}

// Run applies every stage to item.
func (p *Pipeline[T]) Run(ctx context.Context, item *T) error {
	for _, stage := range p.stages {
		log.Printf("🔧 %s: %s", p.name, stage.name)
		g, gctx := errgroup.WithContext(ctx)
		for _, step := range stage.steps {
			g.Go(func() error { return step(gctx, item) })
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("%s pipeline: %s: %w", p.name, stage.name, err)
		}
	}
	return nil
}
