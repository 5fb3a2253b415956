package service

import (
	"context"
	"log"
	"time"

	"soundtrack/internal/checkpoint"
)

// Publisher writes a keyed message. kafkaclient.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// PublishTimeout bounds a single event publish.
const PublishTimeout = 5 * time.Second

// EventPublisher returns an event hook that publishes every stage event
// keyed by stage name. Publish failures are logged and never stop a stage.
func EventPublisher(p Publisher) func(checkpoint.Event) {
	return func(e checkpoint.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()
		if err := p.Publish(ctx, e.Stage, e); err != nil {
			log.Printf("⚠️ publish %s event: %v", e.Stage, err)
		}
	}
}

// Fanout combines event hooks. Nil hooks are skipped.
func Fanout(hooks ...func(checkpoint.Event)) func(checkpoint.Event) {
	var active []func(checkpoint.Event)
	for _, h := range hooks {
		if h != nil {
			active = append(active, h)
		}
	}
	return func(e checkpoint.Event) {
		for _, h := range active {
			h(e)
		}
	}
}
