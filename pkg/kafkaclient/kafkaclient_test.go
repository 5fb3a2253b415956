package kafkaclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

// mockReader simulates the kafka-go Reader for unit testing.
type mockReader struct {
	messages   chan kafka.Message
	commitChan chan kafka.Message
	mu         sync.Mutex
	isClosed   bool
	failFirst  bool
}

func newMockReader() *mockReader {
	return &mockReader{
		messages:   make(chan kafka.Message, 10),
		commitChan: make(chan kafka.Message, 10),
	}
}

func (mr *mockReader) produce(count int) {
	go func() {
		defer close(mr.messages)
		for i := range count {
			mr.messages <- kafka.Message{
				Topic:  "stage-events",
				Offset: int64(i),
				Key:    []byte("tmdb-ids"),
				Value:  []byte(fmt.Sprintf(`{"batch":%d}`, i)),
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()
}

func (mr *mockReader) closed() bool {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return mr.isClosed
}

func (mr *mockReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	mr.mu.Lock()
	if mr.failFirst {
		mr.failFirst = false
		mr.mu.Unlock()
		return kafka.Message{}, errors.New("broker unavailable")
	}
	mr.mu.Unlock()
	if mr.closed() {
		return kafka.Message{}, io.EOF
	}
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case msg, ok := <-mr.messages:
		if !ok {
			return kafka.Message{}, io.EOF
		}
		return msg, nil
	}
}

func (mr *mockReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	if mr.closed() {
		return errors.New("reader closed")
	}
	for _, msg := range msgs {
		mr.commitChan <- msg
	}
	return nil
}

func (mr *mockReader) Close() error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.isClosed = true
	close(mr.commitChan)
	return nil
}

func TestConsumerDeliversAndCommits(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reader := newMockReader()
	reader.failFirst = true
	consumer := newConsumer(reader)
	consumer.backoff = time.Millisecond

	const want = 3
	reader.produce(want)
	consumer.StartConsuming(ctx)
	it := consumer.NewIterator()

	received := 0
	for msg := range it.Messages() {
		require.Equal(t, fmt.Sprintf(`{"batch":%d}`, received), string(msg.Value))
		require.NoError(t, it.CommitOffset(ctx, msg))
		received++
	}
	require.Equal(t, want, received)

	consumer.Stop()
	consumer.Stop()

	committed := 0
	for range reader.commitChan {
		committed++
	}
	require.Equal(t, want, committed)
}

func TestConsumerStopsWhileStreamIsActive(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reader := newMockReader()
	consumer := newConsumer(reader)
	reader.produce(100)
	consumer.StartConsuming(ctx)
	it := consumer.NewIterator()

	for range 3 {
		select {
		case <-it.Messages():
		case <-time.After(500 * time.Millisecond):
			t.Fatal("timed out waiting for a message")
		}
	}

	consumer.Stop()
	for range it.Messages() {
		t.Fatal("no messages expected after Stop")
	}
	require.True(t, reader.closed())
}

type mockWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducerPublish(t *testing.T) {
	w := &mockWriter{}
	p := &Producer{writer: w}

	require.NoError(t, p.Publish(context.Background(), "tmdb-ids", map[string]int{"batch": 2}))
	require.Len(t, w.messages, 1)
	require.Equal(t, "tmdb-ids", string(w.messages[0].Key))
	require.JSONEq(t, `{"batch":2}`, string(w.messages[0].Value))

	w.err = errors.New("leader not available")
	err := p.Publish(context.Background(), "tmdb-ids", 1)
	require.ErrorContains(t, err, "publish tmdb-ids message")

	err = p.Publish(context.Background(), "bad", func() {})
	require.ErrorContains(t, err, "marshal bad message")

	require.NoError(t, p.Close())
	require.True(t, w.closed)
}
