package intake

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/qrsend/types"
)

// fakeResolver describes every path from its name and records the batches it was asked for.
type fakeResolver struct {
	mu      sync.Mutex
	calls   [][]string
	err     error
	release chan struct{} // when set, ResolveMetadata waits on it
}

func (r *fakeResolver) ResolveMetadata(ctx context.Context, paths []string) ([]types.RegisteredFile, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string(nil), paths...))
	release := r.release
	err := r.err
	r.mu.Unlock()

	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	files := make([]types.RegisteredFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, types.RegisteredFile{
			Path:      p,
			Name:      filepath.Base(p),
			Size:      int64(len(p)),
			Extension: strings.TrimPrefix(filepath.Ext(p), "."),
		})
	}
	return files, nil
}

func (r *fakeResolver) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func paths(files []types.RegisteredFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestRegisterDeduplicatesWithinBatch(t *testing.T) {
	resolver := &fakeResolver{}
	q := NewQueue(resolver)

	added, err := q.Register(context.Background(), []string{"/a.txt", "/a.txt", "/b.jpg"})
	require.NoError(t, err)

	assert.Equal(t, []string{"/a.txt", "/b.jpg"}, paths(added))
	assert.Equal(t, []string{"/a.txt", "/b.jpg"}, paths(q.Files()))
	require.Len(t, resolver.Calls(), 1)
	assert.Equal(t, []string{"/a.txt", "/b.jpg"}, resolver.Calls()[0])
}

func TestRegisterDeduplicatesAcrossCalls(t *testing.T) {
	resolver := &fakeResolver{}
	q := NewQueue(resolver)
	ctx := context.Background()

	_, err := q.Register(ctx, []string{"/a.txt"})
	require.NoError(t, err)
	added, err := q.Register(ctx, []string{"/c.png", "/a.txt", "/d.md"})
	require.NoError(t, err)

	assert.Equal(t, []string{"/c.png", "/d.md"}, paths(added))
	assert.Equal(t, []string{"/a.txt", "/c.png", "/d.md"}, paths(q.Files()))
	assert.Equal(t, []string{"/c.png", "/d.md"}, resolver.Calls()[1], "only novel paths reach the resolver")
}

func TestRegisterSkipsResolverWhenNothingIsNew(t *testing.T) {
	resolver := &fakeResolver{}
	q := NewQueue(resolver)
	ctx := context.Background()

	_, err := q.Register(ctx, []string{"/a.txt"})
	require.NoError(t, err)
	added, err := q.Register(ctx, []string{"/a.txt", "/a.txt"})
	require.NoError(t, err)

	assert.Empty(t, added)
	assert.Len(t, resolver.Calls(), 1)
	assert.Equal(t, 1, q.Len())
}

func TestRegisterFailureAddsNothing(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("stat /b.jpg: no such file")}
	q := NewQueue(resolver)

	added, err := q.Register(context.Background(), []string{"/a.txt", "/b.jpg"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMetadataResolutionFailed)
	assert.Nil(t, added)
	assert.Zero(t, q.Len())

	// retrying with the same paths works once the resolver recovers
	resolver.mu.Lock()
	resolver.err = nil
	resolver.mu.Unlock()
	added, err = q.Register(context.Background(), []string{"/a.txt", "/b.jpg"})
	require.NoError(t, err)
	assert.Len(t, added, 2)
}

func TestRegisterConcurrentCallsKeepOneEntryPerPath(t *testing.T) {
	resolver := &fakeResolver{release: make(chan struct{})}
	q := NewQueue(resolver)

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Register(context.Background(), []string{"/a.txt", "/b.jpg"})
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return len(resolver.Calls()) == 2 }, time.Second, 5*time.Millisecond)
	close(resolver.release)
	wg.Wait()

	assert.Equal(t, []string{"/a.txt", "/b.jpg"}, paths(q.Files()))
}

func TestClearDuringResolutionDropsResult(t *testing.T) {
	resolver := &fakeResolver{release: make(chan struct{})}
	q := NewQueue(resolver)

	done := make(chan struct{})
	go func() {
		defer close(done)
		added, err := q.Register(context.Background(), []string{"/a.txt"})
		assert.NoError(t, err)
		assert.Empty(t, added)
	}()
	require.Eventually(t, func() bool { return len(resolver.Calls()) == 1 }, time.Second, 5*time.Millisecond)
	q.Clear()
	close(resolver.release)
	<-done

	assert.Zero(t, q.Len())
}

func TestRemove(t *testing.T) {
	q := NewQueue(&fakeResolver{})
	_, err := q.Register(context.Background(), []string{"/a.txt", "/b.jpg", "/c.png"})
	require.NoError(t, err)

	q.Remove("/b.jpg")
	q.Remove("/missing") // no-op

	assert.Equal(t, []string{"/a.txt", "/c.png"}, paths(q.Files()))

	// a removed path can be registered again
	added, err := q.Register(context.Background(), []string{"/b.jpg"})
	require.NoError(t, err)
	assert.Len(t, added, 1)
}

func TestFilesReturnsCopy(t *testing.T) {
	q := NewQueue(&fakeResolver{})
	_, err := q.Register(context.Background(), []string{"/a.txt"})
	require.NoError(t, err)

	snapshot := q.Files()
	snapshot[0].Name = "changed"

	assert.Equal(t, "a.txt", q.Files()[0].Name)
}

func TestConsumeRegistersBatchesUntilCancelled(t *testing.T) {
	q := NewQueue(&fakeResolver{})
	d := NewDispatcher()
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var batches [][]string
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Consume(ctx, d, func(added []types.RegisteredFile) {
			mu.Lock()
			defer mu.Unlock()
			batches = append(batches, paths(added))
		})
	}()
	require.Eventually(t, func() bool { return d.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	d.Publish(context.Background(), []string{"/a.txt", "/b.jpg"})
	d.Publish(context.Background(), []string{"/b.jpg"})
	d.Publish(context.Background(), []string{"/c.png"})

	require.Eventually(t, func() bool { return q.Len() == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][]string{{"/a.txt", "/b.jpg"}, {"/c.png"}}, batches)
	assert.Eventually(t, func() bool { return d.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
}

// bufferedSource hands out batches that were queued before Subscribe.
type bufferedSource struct {
	batches [][]string
}

func (s bufferedSource) Subscribe(ctx context.Context) <-chan []string {
	ch := make(chan []string, len(s.batches))
	for _, b := range s.batches {
		ch <- b
	}
	close(ch)
	return ch
}

func TestConsumeDiscardsBatchesAfterCancel(t *testing.T) {
	resolver := &fakeResolver{}
	q := NewQueue(resolver)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	src := bufferedSource{batches: [][]string{{"/a.txt", "/b.jpg"}, {"/c.png"}}}
	discarded := q.Consume(ctx, src, func([]types.RegisteredFile) { called = true })

	assert.Equal(t, 3, discarded)
	assert.Zero(t, q.Len())
	assert.Empty(t, resolver.Calls())
	assert.False(t, called)
}

func TestConsumeReportsNothingDiscardedOnCleanRun(t *testing.T) {
	q := NewQueue(&fakeResolver{})
	src := bufferedSource{batches: [][]string{{"/a.txt"}, {"/a.txt", "/b.jpg"}}}

	discarded := q.Consume(context.Background(), src, nil)
	assert.Zero(t, discarded)
	assert.Equal(t, []string{"/a.txt", "/b.jpg"}, paths(q.Files()))
}
