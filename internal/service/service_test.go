package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"soundtrack/internal/checkpoint"
)

type fakeMessages struct {
	ch        chan kafka.Message
	committed []int64
}

func newFakeMessages(values ...[]byte) *fakeMessages {
	f := &fakeMessages{ch: make(chan kafka.Message, len(values))}
	for i, v := range values {
		f.ch <- kafka.Message{Offset: int64(i), Value: v}
	}
	close(f.ch)
	return f
}

func (f *fakeMessages) Messages() <-chan kafka.Message { return f.ch }

func (f *fakeMessages) CommitOffset(_ context.Context, msg kafka.Message) error {
	f.committed = append(f.committed, msg.Offset)
	return nil
}

func eventJSON(t *testing.T, e checkpoint.Event) []byte {
	t.Helper()
	b, err := json.Marshal(e)
	require.NoError(t, err)
	return b
}

func TestIteratorLoadsPersistedPhases(t *testing.T) {
	msgs := newFakeMessages(
		eventJSON(t, checkpoint.Event{Stage: "tmdb-ids", Phase: checkpoint.LoadedCheckpoint}),
		[]byte("not json"),
		eventJSON(t, checkpoint.Event{Stage: "tmdb-ids", Phase: checkpoint.Flushing, Batch: 1, Filled: 3}),
		eventJSON(t, checkpoint.Event{Stage: "tmdb-revenue", Phase: checkpoint.Done}),
	)
	var loaded []string
	loader := func(_ context.Context, stage string) (string, error) {
		loaded = append(loaded, stage)
		if stage == "tmdb-revenue" {
			return "", errors.New("no such key")
		}
		return "table of " + stage, nil
	}

	var got []StageUpdate[string]
	for u := range NewIterator(msgs, loader).Updates(context.Background()) {
		got = append(got, u)
	}

	require.Len(t, got, 3)
	require.False(t, got[0].Loaded)
	require.True(t, got[1].Loaded)
	require.Equal(t, "table of tmdb-ids", got[1].Data)
	require.Equal(t, 3, got[1].Event.Filled)
	require.False(t, got[2].Loaded)
	require.Equal(t, []string{"tmdb-ids", "tmdb-revenue"}, loaded)
	require.Equal(t, []int64{0, 1, 2, 3}, msgs.committed)
}

func TestIteratorWithoutLoader(t *testing.T) {
	msgs := newFakeMessages(eventJSON(t, checkpoint.Event{Stage: "spotify-tracks", Phase: checkpoint.Done}))
	var n int
	for u := range NewIterator[[]byte](msgs, nil).Updates(context.Background()) {
		require.Equal(t, "spotify-tracks", u.Event.Stage)
		require.False(t, u.Loaded)
		n++
	}
	require.Equal(t, 1, n)
}

type recordingPublisher struct {
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, v any) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	if _, ok := v.(checkpoint.Event); !ok {
		return errors.New("unexpected payload")
	}
	p.keys = append(p.keys, key)
	return p.err
}

func TestEventPublisherAndFanout(t *testing.T) {
	pub := &recordingPublisher{}
	var seen []checkpoint.Phase
	hook := Fanout(nil, EventPublisher(pub), func(e checkpoint.Event) { seen = append(seen, e.Phase) })

	hook(checkpoint.Event{Stage: "tmdb-ids", Phase: checkpoint.Flushing, Time: time.Now()})
	pub.err = errors.New("broker down")
	hook(checkpoint.Event{Stage: "tmdb-ids", Phase: checkpoint.Done})

	require.Equal(t, []string{"tmdb-ids", "tmdb-ids"}, pub.keys)
	require.Equal(t, []checkpoint.Phase{checkpoint.Flushing, checkpoint.Done}, seen)
}
