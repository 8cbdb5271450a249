package workers

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	application "votegate/contexts/voter-experience/voting-orchestrator/application"
	"votegate/contexts/voter-experience/voting-orchestrator/application/queries"
	"votegate/contexts/voter-experience/voting-orchestrator/domain/entities"
	domainerrors "votegate/contexts/voter-experience/voting-orchestrator/domain/errors"
	"votegate/contexts/voter-experience/voting-orchestrator/ports"
)

// ResultsTopic is the bus topic applied snapshots are published on.
const ResultsTopic = "voting.live-results"

const defaultPollInterval = 10 * time.Second

// ResultsPoller periodically fetches live-results snapshots, computes
// leaders, and publishes each applied snapshot. Every fetch carries a
// monotonic issue number; a response for an older issue never overwrites a
// newer one, so a slow tick cannot clobber a manual refresh.
type ResultsPoller struct {
	api      ports.VotingAPI
	results  queries.ResultsUseCase
	bus      ports.ResultsPublisher
	clock    ports.Clock
	interval time.Duration
	logger   *slog.Logger

	mu             sync.Mutex
	cancel         context.CancelFunc
	running        bool
	electionID     string
	issueSeq       uint64
	appliedSeq     uint64
	tickInFlight   bool
	manualInFlight bool
	latest         *entities.ResultsUpdate
	previous       *entities.LiveResultsSnapshot
}

func NewResultsPoller(
	api ports.VotingAPI,
	results queries.ResultsUseCase,
	bus ports.ResultsPublisher,
	clock ports.Clock,
	interval time.Duration,
	logger *slog.Logger,
) *ResultsPoller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &ResultsPoller{
		api:      api,
		results:  results,
		bus:      bus,
		clock:    clock,
		interval: interval,
		logger:   application.ResolveLogger(logger),
	}
}

// Start begins the recurring fetch for one election. The timer is owned by
// the returned lifecycle: Stop cancels it, and switching elections requires
// an explicit Stop first.
func (p *ResultsPoller) Start(ctx context.Context, electionID string) error {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return domainerrors.ErrInvalidInput
	}

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return domainerrors.ErrPollerRunning
	}
	if p.electionID != electionID {
		p.resetLocked(electionID)
	}
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.mu.Unlock()

	p.logger.Info("results poller started",
		"event", "results_poller_started",
		"module", "voter-experience/voting-orchestrator",
		"layer", "worker",
		"election_id", electionID,
		"interval", p.interval.String(),
	)

	go p.loop(loopCtx, electionID)
	return nil
}

// Stop cancels the recurring fetch. Responses still in flight are discarded
// once they resolve. Safe to call repeatedly.
func (p *ResultsPoller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	wasRunning := p.running
	p.cancel = nil
	p.running = false
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if wasRunning {
		p.logger.Info("results poller stopped",
			"event", "results_poller_stopped",
			"module", "voter-experience/voting-orchestrator",
			"layer", "worker",
		)
	}
}

func (p *ResultsPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Refresh performs a manual fetch. It proceeds even when a timer tick is in
// flight (the sequence discipline keeps the later-issued request the
// winner), but a second manual refresh is suppressed until the first
// resolves.
func (p *ResultsPoller) Refresh(ctx context.Context, electionID string) (entities.ResultsUpdate, error) {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return entities.ResultsUpdate{}, domainerrors.ErrInvalidInput
	}

	p.mu.Lock()
	if p.electionID != electionID {
		p.resetLocked(electionID)
	}
	if p.manualInFlight {
		p.mu.Unlock()
		return entities.ResultsUpdate{}, domainerrors.ErrRefreshInFlight
	}
	p.manualInFlight = true
	p.issueSeq++
	seq := p.issueSeq
	p.mu.Unlock()

	update, applied, err := p.fetch(ctx, electionID, seq)

	p.mu.Lock()
	p.manualInFlight = false
	if !applied && err == nil && p.latest != nil {
		update = *p.latest
	}
	p.mu.Unlock()

	return update, err
}

// Latest returns the most recently applied update, if any.
func (p *ResultsPoller) Latest() (entities.ResultsUpdate, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest == nil {
		return entities.ResultsUpdate{}, false
	}
	return *p.latest, true
}

func (p *ResultsPoller) loop(ctx context.Context, electionID string) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx, electionID)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, electionID)
		}
	}
}

// tick is one timer-driven fetch. Ticks are skipped while any fetch is in
// flight so slow responses do not pile up behind each other.
func (p *ResultsPoller) tick(ctx context.Context, electionID string) {
	p.mu.Lock()
	if p.tickInFlight || p.manualInFlight {
		p.mu.Unlock()
		return
	}
	p.tickInFlight = true
	p.issueSeq++
	seq := p.issueSeq
	p.mu.Unlock()

	_, _, err := p.fetch(ctx, electionID, seq)

	p.mu.Lock()
	p.tickInFlight = false
	p.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		p.logger.Warn("results poll tick failed",
			"event", "results_poll_failed",
			"module", "voter-experience/voting-orchestrator",
			"layer", "worker",
			"election_id", electionID,
			"error", err.Error(),
		)
	}
}

// fetch retrieves one snapshot and applies it under the latest-request-wins
// rule. The returned bool reports whether the response was applied.
func (p *ResultsPoller) fetch(ctx context.Context, electionID string, seq uint64) (entities.ResultsUpdate, bool, error) {
	snapshot, err := p.api.LiveResults(ctx, electionID)
	if err != nil {
		return entities.ResultsUpdate{}, false, err
	}

	leaders := p.results.Leaders(snapshot)
	for _, violation := range p.results.CheckSnapshot(snapshot) {
		p.logger.Warn("live-results snapshot violates tally invariant",
			"event", "results_snapshot_invariant_violation",
			"module", "voter-experience/voting-orchestrator",
			"layer", "worker",
			"election_id", electionID,
			"violation", violation,
		)
	}

	p.mu.Lock()
	if p.electionID != electionID || seq <= p.appliedSeq {
		p.mu.Unlock()
		p.logger.Debug("discarding stale results response",
			"event", "results_stale_response_discarded",
			"module", "voter-experience/voting-orchestrator",
			"layer", "worker",
			"election_id", electionID,
			"sequence", seq,
		)
		return entities.ResultsUpdate{}, false, nil
	}
	if p.previous != nil {
		for _, regression := range p.results.CheckMonotonic(*p.previous, snapshot) {
			p.logger.Warn("live-results count regressed between snapshots",
				"event", "results_monotonicity_violation",
				"module", "voter-experience/voting-orchestrator",
				"layer", "worker",
				"election_id", electionID,
				"violation", regression,
			)
		}
	}
	update := entities.ResultsUpdate{
		Snapshot:  snapshot,
		Leaders:   leaders,
		Sequence:  seq,
		FetchedAt: p.now(),
	}
	p.appliedSeq = seq
	p.latest = &update
	prev := snapshot
	p.previous = &prev
	p.mu.Unlock()

	if p.bus != nil {
		if err := p.bus.Publish(ctx, ResultsTopic, update); err != nil {
			p.logger.Warn("results publish failed",
				"event", "results_publish_failed",
				"module", "voter-experience/voting-orchestrator",
				"layer", "worker",
				"election_id", electionID,
				"error", err.Error(),
			)
		}
	}
	return update, true, nil
}

func (p *ResultsPoller) resetLocked(electionID string) {
	p.electionID = electionID
	p.issueSeq = 0
	p.appliedSeq = 0
	p.latest = nil
	p.previous = nil
}

func (p *ResultsPoller) now() time.Time {
	if p.clock != nil {
		return p.clock.Now().UTC()
	}
	return time.Now().UTC()
}
