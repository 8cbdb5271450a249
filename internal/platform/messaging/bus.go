package messaging

import (
	"context"
	"log/slog"
	"sync"

	"votegate/contexts/voter-experience/voting-orchestrator/domain/entities"
)

// Bus is the in-process results fan-out. The poller publishes every applied
// snapshot; stream subscribers (SSE connections) each get their own buffered
// channel. A subscriber that cannot keep up loses updates rather than
// stalling the poller.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan entities.ResultsUpdate
	logger      *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[string][]chan entities.ResultsUpdate),
		logger:      logger,
	}
}

func (b *Bus) Publish(ctx context.Context, topic string, update entities.ResultsUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Sends happen under the read lock so they are mutually exclusive with
	// removeSubscriber closing a channel under the write lock. They are
	// non-blocking, so the critical section stays short.
	b.mu.RLock()
	dropped := 0
	for _, sub := range b.subscribers[topic] {
		select {
		case sub <- update:
		default:
			dropped++
		}
	}
	b.mu.RUnlock()

	if dropped > 0 && b.logger != nil {
		b.logger.Warn("dropping update for slow subscribers",
			"event", "results_bus_publish_drop",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"election_id", update.Snapshot.ElectionID,
			"sequence", update.Sequence,
			"dropped", dropped,
		)
	}

	if b.logger != nil {
		b.logger.Info("results update published",
			"event", "results_bus_publish",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"election_id", update.Snapshot.ElectionID,
			"sequence", update.Sequence,
		)
	}
	return nil
}

// Subscribe registers a channel for a topic. The channel is removed and
// closed when ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context, topic string) <-chan entities.ResultsUpdate {
	ch := make(chan entities.ResultsUpdate, 16)

	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.removeSubscriber(topic, ch)
	}()
	return ch
}

// removeSubscriber unregisters and closes the channel. The close happens
// under the write lock, which Publish's read-locked sends cannot overlap,
// so a send on a closed channel is impossible.
func (b *Bus) removeSubscriber(topic string, target chan entities.ResultsUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.subscribers[topic]
	found := false
	filtered := make([]chan entities.ResultsUpdate, 0, len(items))
	for _, item := range items {
		if item == target {
			found = true
			continue
		}
		filtered = append(filtered, item)
	}
	if !found {
		return
	}
	b.subscribers[topic] = filtered
	close(target)
}
