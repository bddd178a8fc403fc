// Package intake turns dropped paths into deduplicated file records.
package intake

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/moyoez/qrsend/tool"
	"github.com/moyoez/qrsend/types"
)

// ErrMetadataResolutionFailed is returned when the resolver rejects a batch. Nothing was registered.
var ErrMetadataResolutionFailed = errors.New("metadata resolution failed")

// MetadataResolver describes a batch of paths. It fails the whole batch or none of it.
type MetadataResolver interface {
	ResolveMetadata(ctx context.Context, paths []string) ([]types.RegisteredFile, error)
}

// Queue owns the registered file set.
type Queue struct {
	resolver MetadataResolver

	mu    sync.RWMutex
	files []types.RegisteredFile
	index map[string]struct{}
	epoch uint64 // bumped by Clear, results resolved before a clear are dropped
}

func NewQueue(resolver MetadataResolver) *Queue {
	return &Queue{
		resolver: resolver,
		index:    make(map[string]struct{}),
	}
}

// Register resolves the paths that are not registered yet and appends them.
// It returns the records that were added.
func (q *Queue) Register(ctx context.Context, paths []string) ([]types.RegisteredFile, error) {
	q.mu.RLock()
	epoch := q.epoch
	novel := q.novelLocked(paths)
	q.mu.RUnlock()

	if len(novel) == 0 {
		return nil, nil
	}

	resolved, err := q.resolver.ResolveMetadata(ctx, novel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataResolutionFailed, err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.epoch != epoch {
		tool.DefaultLogger.Debugf("[Intake] Queue was cleared during resolution, dropping %d records", len(resolved))
		return nil, nil
	}
	added := make([]types.RegisteredFile, 0, len(resolved))
	for _, f := range resolved {
		if _, ok := q.index[f.Path]; ok {
			continue
		}
		q.index[f.Path] = struct{}{}
		q.files = append(q.files, f)
		added = append(added, f)
	}
	tool.DefaultLogger.Debugf("[Intake] Registered %d of %d dropped paths", len(added), len(paths))
	return added, nil
}

// novelLocked returns paths not yet registered, first occurrence order, duplicates collapsed.
func (q *Queue) novelLocked(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	novel := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := q.index[p]; ok {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		novel = append(novel, p)
	}
	return novel
}

// Remove drops one entry by path. Unknown paths are ignored.
func (q *Queue) Remove(path string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.index[path]; !ok {
		return
	}
	delete(q.index, path)
	q.files = slices.DeleteFunc(q.files, func(f types.RegisteredFile) bool {
		return f.Path == path
	})
}

// Clear empties the set.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.files = nil
	q.index = make(map[string]struct{})
	q.epoch++
}

// Files returns a copy of the registered set in registration order.
func (q *Queue) Files() []types.RegisteredFile {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return slices.Clone(q.files)
}

func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.files)
}

// Consume registers every batch from src until ctx is cancelled.
// onBatch, if set, is called with the records each batch added. Batches still buffered
// when ctx ends are logged and discarded; Consume returns the number of paths dropped.
func (q *Queue) Consume(ctx context.Context, src DropSource, onBatch func([]types.RegisteredFile)) int {
	discarded := 0
	for batch := range src.Subscribe(ctx) {
		if ctx.Err() != nil {
			discarded += q.discard(batch)
			continue
		}
		added, err := q.Register(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				discarded += q.discard(batch)
				continue
			}
			tool.DefaultLogger.Warnf("[Intake] Failed to register dropped files: %v", err)
			continue
		}
		if len(added) > 0 && onBatch != nil {
			onBatch(added)
		}
	}
	return discarded
}

func (q *Queue) discard(batch []string) int {
	tool.DefaultLogger.Warnf("[Intake] Subscription closed, discarding %d dropped paths: %v", len(batch), batch)
	return len(batch)
}
