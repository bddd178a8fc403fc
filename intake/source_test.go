package intake

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherFansOut(t *testing.T) {
	d := NewDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := d.Subscribe(ctx)
	second := d.Subscribe(ctx)

	n := d.Publish(context.Background(), []string{"/a.txt"})
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"/a.txt"}, <-first)
	assert.Equal(t, []string{"/a.txt"}, <-second)
}

func TestDispatcherClosesOnCancel(t *testing.T) {
	d := NewDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	ch := d.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription channel not closed")
	}
	require.Eventually(t, func() bool { return d.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, d.Publish(context.Background(), []string{"/a.txt"}))
}

func TestDispatcherPublishEmptyBatch(t *testing.T) {
	d := NewDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := d.Subscribe(ctx)

	assert.Zero(t, d.Publish(context.Background(), nil))
	select {
	case batch := <-ch:
		t.Fatalf("unexpected batch %v", batch)
	default:
	}
}

func TestDispatcherPublishCopiesBatch(t *testing.T) {
	d := NewDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := d.Subscribe(ctx)

	batch := []string{"/a.txt"}
	d.Publish(context.Background(), batch)
	batch[0] = "/changed"

	assert.Equal(t, []string{"/a.txt"}, <-ch)
}
