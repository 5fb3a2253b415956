package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"soundtrack/internal/checkpoint"
	"soundtrack/internal/env"
	"soundtrack/internal/keys"
	"soundtrack/internal/service"
	"soundtrack/internal/storage"
	"soundtrack/pkg/graceful"
	"soundtrack/pkg/kafkaclient"
)

func main() {
	showRows := flag.Int("rows", 0, "print the first n checkpoint rows after each flush")
	checkpointDir := flag.String("dir", "dataset", "local checkpoint directory when MinIO is not configured")
	flag.Parse()

	env.LoadEnv()
	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	kafkaBroker := env.MustGetEnv("KAFKA_BROKER")
	kafkaTopic := env.MustGetEnv("KAFKA_TOPIC")
	kafkaGroupID := os.Getenv("KAFKA_GROUP_ID")
	log.Printf("Connecting to Kafka broker: %s on topic: %s with group ID: %q", kafkaBroker, kafkaTopic, kafkaGroupID)

	consumer := kafkaclient.NewKafkaConsumer(kafkaTopic, kafkaGroupID, kafkaBroker)

	var loader service.LoaderFunc[[]byte]
	if *showRows > 0 {
		store, err := storage.Open(ctx, *checkpointDir)
		if err != nil {
			log.Fatal(err)
		}
		loader = func(ctx context.Context, stage string) ([]byte, error) {
			return store.Read(ctx, keys.CheckpointText(stage))
		}
	}

	consumer.StartConsuming(ctx)
	iterator := service.NewIterator(consumer.NewIterator(), loader)
	for update := range iterator.Updates(ctx) {
		printEvent(update.Event)
		if update.Loaded {
			printRows(update.Data, *showRows)
		}
	}

	consumer.Stop()
	log.Println("Watcher finished, application exiting.")
}

func printEvent(e checkpoint.Event) {
	line := fmt.Sprintf("%s  %-18s %-17s batch=%-4d filled=%-6d missing=%-6d pending=%-6d run=%s",
		e.Time.Format("15:04:05"), e.Stage, e.Phase, e.Batch, e.Filled, e.Missing, e.Pending, e.RunID[:min(8, len(e.RunID))])
	if e.Error != "" {
		line += "  error=" + e.Error
	}
	fmt.Println(line)
}

func printRows(tsv []byte, n int) {
	lines := bytes.SplitN(tsv, []byte("\n"), n+2)
	for _, l := range lines[:min(len(lines), n+1)] {
		if len(l) > 0 {
			fmt.Printf("    %s\n", l)
		}
	}
}
