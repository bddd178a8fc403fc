package intake

import (
	"context"
	"slices"
	"sync"
)

// DropSource produces batches of dropped paths. The returned channel is closed once ctx is done;
// subscribing again is the only way to restart.
type DropSource interface {
	Subscribe(ctx context.Context) <-chan []string
}

const subscriberBuffer = 16

// Dispatcher is an in-process DropSource. Publish fans a batch out to every live subscriber.
type Dispatcher struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	ch   chan []string
	done <-chan struct{}
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{subs: make(map[*subscriber]struct{})}
}

func (d *Dispatcher) Subscribe(ctx context.Context) <-chan []string {
	sub := &subscriber{ch: make(chan []string, subscriberBuffer), done: ctx.Done()}
	d.mu.Lock()
	d.subs[sub] = struct{}{}
	d.mu.Unlock()

	go func() {
		<-ctx.Done()
		d.mu.Lock()
		delete(d.subs, sub)
		close(sub.ch)
		d.mu.Unlock()
	}()
	return sub.ch
}

// Publish delivers paths to every subscriber. It blocks while a subscriber's buffer is full,
// until ctx is done or that subscriber goes away. It returns the number of deliveries.
func (d *Dispatcher) Publish(ctx context.Context, paths []string) int {
	if len(paths) == 0 {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delivered := 0
	for sub := range d.subs {
		select {
		case sub.ch <- slices.Clone(paths):
			delivered++
		case <-sub.done:
		case <-ctx.Done():
			return delivered
		}
	}
	return delivered
}

// Subscribers reports the number of live subscriptions.
func (d *Dispatcher) Subscribers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}
