package events

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil)
	a := bus.Subscribe("job:1")
	b := bus.Subscribe("job:1")
	other := bus.Subscribe("job:2")

	bus.Publish("job:1", Event{Type: TypeStarted})

	require.Equal(t, TypeStarted, (<-a).Type)
	require.Equal(t, TypeStarted, (<-b).Type)
	require.Empty(t, other)
}

func TestPublishStampsTimestamp(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil)
	ch := bus.Subscribe("job:1")
	bus.Publish("job:1", Event{Type: TypeSearching})
	require.False(t, (<-ch).Timestamp.IsZero())
}

func TestPublishDropsOnFullQueue(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil)
	ch := bus.Subscribe("job:1")

	// Fill the queue and one more; the overflow event must be dropped
	// without blocking.
	for i := 0; i < 101; i++ {
		bus.Publish("job:1", Event{Type: TypeLeadProcessed, Data: map[string]any{"index": i}})
	}

	require.Len(t, ch, 100)
	for i := 0; i < 100; i++ {
		evt := <-ch
		require.Equal(t, i, evt.Data["index"])
	}
	require.Empty(t, ch)
}

func TestPublishToUnknownChannelIsNoop(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil)
	require.NotPanics(t, func() {
		bus.Publish("job:none", Event{Type: TypeCompleted})
	})
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil)
	ch := bus.Subscribe("job:1")
	bus.Unsubscribe("job:1", ch)

	_, open := <-ch
	require.False(t, open)

	// Publishing after the last unsubscribe must not panic.
	require.NotPanics(t, func() {
		bus.Publish("job:1", Event{Type: TypeCompleted})
	})
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	for _, typ := range []string{TypeCompleted, TypeFailed, TypeCancelled} {
		require.True(t, Event{Type: typ}.IsTerminal(), fmt.Sprintf("type %s", typ))
	}
	for _, typ := range []string{TypeStarted, TypeSearching, TypeSearchComplete, TypeLeadProcessed} {
		require.False(t, Event{Type: typ}.IsTerminal(), fmt.Sprintf("type %s", typ))
	}
}
