package workers_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"votegate/contexts/voter-experience/voting-orchestrator/adapters/memory"
	"votegate/contexts/voter-experience/voting-orchestrator/application/queries"
	"votegate/contexts/voter-experience/voting-orchestrator/application/workers"
	"votegate/contexts/voter-experience/voting-orchestrator/domain/entities"
	domainerrors "votegate/contexts/voter-experience/voting-orchestrator/domain/errors"
)

func resultsSnapshot(total int) entities.LiveResultsSnapshot {
	return entities.LiveResultsSnapshot{
		TotalVotesCast: total,
		LastUpdated:    time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Positions: []entities.PositionTally{
			{
				PositionID: "president",
				TotalVotes: total,
				Candidates: []entities.CandidateTally{
					{CandidateID: "cand-a", VoteCount: total, VotePercentage: 100},
				},
			},
		},
	}
}

// capturingBus records published updates for assertions.
type capturingBus struct {
	mu      sync.Mutex
	updates []entities.ResultsUpdate
}

func (b *capturingBus) Publish(_ context.Context, _ string, update entities.ResultsUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, update)
	return nil
}

func (b *capturingBus) published() []entities.ResultsUpdate {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.ResultsUpdate, len(b.updates))
	copy(out, b.updates)
	return out
}

func TestRefreshAppliesAndPublishesSnapshot(t *testing.T) {
	store := memory.NewStore()
	store.SetResults("election-1", resultsSnapshot(10))
	bus := &capturingBus{}
	poller := workers.NewResultsPoller(store, queries.ResultsUseCase{}, bus, store, time.Hour, nil)

	update, err := poller.Refresh(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if update.Snapshot.TotalVotesCast != 10 {
		t.Fatalf("expected total 10, got %d", update.Snapshot.TotalVotesCast)
	}
	if update.Sequence != 1 {
		t.Fatalf("expected sequence 1, got %d", update.Sequence)
	}
	if len(update.Leaders) != 1 || update.Leaders[0].Leaders[0] != "cand-a" {
		t.Fatalf("expected leaders computed, got %+v", update.Leaders)
	}

	latest, ok := poller.Latest()
	if !ok || latest.Sequence != 1 {
		t.Fatalf("expected latest sequence 1, got %+v", latest)
	}
	if published := bus.published(); len(published) != 1 {
		t.Fatalf("expected 1 published update, got %d", len(published))
	}
}

func TestConcurrentManualRefreshSuppressed(t *testing.T) {
	store := memory.NewStore()
	store.SetResults("election-1", resultsSnapshot(10))
	poller := workers.NewResultsPoller(store, queries.ResultsUseCase{}, nil, store, time.Hour, nil)

	var nested error
	var once sync.Once
	store.LiveResultsHook = func(string) {
		once.Do(func() {
			_, nested = poller.Refresh(context.Background(), "election-1")
		})
	}

	if _, err := poller.Refresh(context.Background(), "election-1"); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if !errors.Is(nested, domainerrors.ErrRefreshInFlight) {
		t.Fatalf("expected ErrRefreshInFlight for overlapping manual refresh, got %v", nested)
	}
}

func TestStaleTickResponseDoesNotClobberNewerRefresh(t *testing.T) {
	store := memory.NewStore()
	store.SetResults("election-1", resultsSnapshot(10))
	poller := workers.NewResultsPoller(store, queries.ResultsUseCase{}, nil, store, time.Hour, nil)

	// The first fetch (the tick issued on Start) is outrun by a manual
	// refresh that both carries a newer issue number and observes newer
	// server state. The guard must not block on reentry: the nested
	// refresh re-enters the hook through LiveResults.
	refreshed := make(chan struct{})
	var hookFired atomic.Bool
	store.LiveResultsHook = func(string) {
		if !hookFired.CompareAndSwap(false, true) {
			return
		}
		store.SetResults("election-1", resultsSnapshot(25))
		if _, err := poller.Refresh(context.Background(), "election-1"); err != nil {
			t.Errorf("nested refresh failed: %v", err)
		}
		close(refreshed)
	}

	if err := poller.Start(context.Background(), "election-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer poller.Stop()

	select {
	case <-refreshed:
	case <-time.After(2 * time.Second):
		t.Fatalf("manual refresh never ran")
	}

	// Wait for the outrun tick to resolve and be discarded.
	deadline := time.Now().Add(2 * time.Second)
	for store.ResultsCalls() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)

	latest, ok := poller.Latest()
	if !ok {
		t.Fatalf("expected applied update")
	}
	if latest.Snapshot.TotalVotesCast != 25 {
		t.Fatalf("stale tick overwrote newer refresh: total %d", latest.Snapshot.TotalVotesCast)
	}
	if latest.Sequence != 2 {
		t.Fatalf("expected applied sequence 2, got %d", latest.Sequence)
	}
}

func TestStartWhileRunningRejected(t *testing.T) {
	store := memory.NewStore()
	store.SetResults("election-1", resultsSnapshot(10))
	poller := workers.NewResultsPoller(store, queries.ResultsUseCase{}, nil, store, time.Hour, nil)

	if err := poller.Start(context.Background(), "election-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer poller.Stop()
	if err := poller.Start(context.Background(), "election-1"); !errors.Is(err, domainerrors.ErrPollerRunning) {
		t.Fatalf("expected ErrPollerRunning, got %v", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	store.SetResults("election-1", resultsSnapshot(10))
	poller := workers.NewResultsPoller(store, queries.ResultsUseCase{}, nil, store, time.Hour, nil)

	if err := poller.Start(context.Background(), "election-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	poller.Stop()
	poller.Stop()
	if poller.Running() {
		t.Fatalf("expected stopped poller")
	}

	// Restart after stop is allowed.
	if err := poller.Start(context.Background(), "election-1"); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	poller.Stop()
}

func TestSwitchingElectionResetsState(t *testing.T) {
	store := memory.NewStore()
	store.SetResults("election-1", resultsSnapshot(10))
	store.SetResults("election-2", resultsSnapshot(3))
	poller := workers.NewResultsPoller(store, queries.ResultsUseCase{}, nil, store, time.Hour, nil)

	if _, err := poller.Refresh(context.Background(), "election-1"); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	update, err := poller.Refresh(context.Background(), "election-2")
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if update.Snapshot.ElectionID != "election-2" {
		t.Fatalf("expected election-2 snapshot, got %s", update.Snapshot.ElectionID)
	}
	if update.Sequence != 1 {
		t.Fatalf("expected sequence reset on election switch, got %d", update.Sequence)
	}
}
