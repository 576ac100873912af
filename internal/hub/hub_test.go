package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, s *Subscriber) ([]byte, bool) {
	t.Helper()
	select {
	case msg, ok := <-s.Send:
		return msg, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for hub")
		return nil, false
	}
}

func TestHub_BroadcastAndUnregister(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(nil)
	go h.Run(ctx)

	a, b := NewSubscriber(4), NewSubscriber(4)
	h.Register <- a
	h.Register <- b

	h.Broadcast <- []byte("hello")
	msg, ok := receive(t, a)
	require.True(t, ok)
	assert.Equal(t, "hello", string(msg))
	msg, ok = receive(t, b)
	require.True(t, ok)
	assert.Equal(t, "hello", string(msg))

	h.Unregister <- a
	_, ok = receive(t, a)
	assert.False(t, ok, "send channel is closed on unregister")
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(nil)
	go h.Run(ctx)

	slow := NewSubscriber(1)
	h.Register <- slow
	h.Broadcast <- []byte("one")
	h.Broadcast <- []byte("two")

	msg, ok := receive(t, slow)
	require.True(t, ok)
	assert.Equal(t, "one", string(msg))
	_, ok = receive(t, slow)
	assert.False(t, ok)
}

func TestHub_StopClosesSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(nil)
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	s := NewSubscriber(1)
	h.Register <- s
	cancel()
	<-done

	_, ok := receive(t, s)
	assert.False(t, ok)
}
