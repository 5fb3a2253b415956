package graceful

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// Context creates a context that is canceled when an OS interrupt signal is
// received. Stages stop between batches and flush their checkpoint; a second
// signal exits immediately, without waiting for a rate-limit backoff.
func Context(ctx context.Context) (context.Context, context.CancelFunc) {
	return withExit(ctx, os.Exit)
}

func withExit(ctx context.Context, exit func(int)) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			log.Println("Received termination signal, finishing current batch and flushing checkpoint...")
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
			return
		}
		<-sigChan
		log.Println("Received second termination signal, exiting now.")
		signal.Stop(sigChan)
		exit(130)
	}()

	return ctx, cancel
}
