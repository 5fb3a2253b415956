package service

import (
	"context"

	"github.com/segmentio/kafka-go"

	"soundtrack/internal/checkpoint"
)

// MessageIterator defines the contract for consuming messages from a Kafka
// topic. Implementations own the lifecycle of the consumer connection.
type MessageIterator interface {
	// Messages returns a channel that is closed when the consumer stops.
	Messages() <-chan kafka.Message
	// CommitOffset acknowledges that a message has been handled.
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// LoaderFunc loads the persisted state of a stage, typically its text
// checkpoint from the object store.
type LoaderFunc[T any] func(ctx context.Context, stage string) (T, error)

// StageUpdate pairs a stage event with the stage state loaded after it.
// Data is only set when Loaded is true.
type StageUpdate[T any] struct {
	Event  checkpoint.Event
	Data   T
	Loaded bool
}
