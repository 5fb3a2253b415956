// Package service connects stage progress events to their consumers: it
// publishes checkpoint events to a message bus and iterates them back on the
// other side, loading the checkpoint a flush refers to.
package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"

	"soundtrack/internal/checkpoint"
)

// Iterator decodes stage events from a MessageIterator. After a flush or a
// completed run it loads the stage state through LoaderFunc.
type Iterator[T any] struct {
	msgIterator MessageIterator
	loader      LoaderFunc[T]
}

// NewIterator constructs an Iterator. A nil loader yields events only.
func NewIterator[T any](iterator MessageIterator, loader LoaderFunc[T]) *Iterator[T] {
	return &Iterator[T]{
		msgIterator: iterator,
		loader:      loader,
	}
}

// Updates streams decoded events until the message channel closes or ctx is
// done. Malformed messages are logged, committed and skipped so they are not
// redelivered. A failed load still yields the event, without data.
func (it *Iterator[T]) Updates(ctx context.Context) <-chan StageUpdate[T] {
	out := make(chan StageUpdate[T])
	go func() {
		defer close(out)

		for msg := range it.msgIterator.Messages() {
			var event checkpoint.Event
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("Error unmarshalling stage event: %v", err)
				it.commit(ctx, msg)
				continue
			}

			update := StageUpdate[T]{Event: event}
			if it.loader != nil && persisted(event.Phase) {
				data, err := it.loader(ctx, event.Stage)
				if err != nil {
					log.Printf("Error loading %s checkpoint: %v", event.Stage, err)
				} else {
					update.Data, update.Loaded = data, true
				}
			}

			select {
			case out <- update:
			case <-ctx.Done():
				return
			}
			it.commit(ctx, msg)
		}
	}()
	return out
}

func (it *Iterator[T]) commit(ctx context.Context, msg kafka.Message) {
	if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
		log.Printf("Failed to commit offset: %v", err)
	}
}

func persisted(p checkpoint.Phase) bool {
	return p == checkpoint.Flushing || p == checkpoint.Done
}
