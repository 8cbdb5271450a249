package commands_test

import (
	"context"
	"errors"
	"testing"

	"votegate/contexts/voter-experience/voting-orchestrator/adapters/memory"
	"votegate/contexts/voter-experience/voting-orchestrator/application/commands"
	"votegate/contexts/voter-experience/voting-orchestrator/domain/entities"
	domainerrors "votegate/contexts/voter-experience/voting-orchestrator/domain/errors"
)

func TestStartKeepsStartedUntilVerificationBegins(t *testing.T) {
	store := memory.NewStore()
	store.SetElection("election-1", true, "president")
	controller := commands.NewSessionController(store, store, nil)

	outcome, err := controller.Start(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !outcome.RequiresFacialVerification {
		t.Fatalf("expected verification requirement")
	}
	// The verification gate does not advance the session by itself; the
	// status stays observable as started until the flow begins.
	if outcome.Session.Status != entities.SessionStatusStarted {
		t.Fatalf("expected started, got %s", outcome.Session.Status)
	}

	if err := controller.BeginVerification(); err != nil {
		t.Fatalf("begin verification failed: %v", err)
	}
	session, _ := controller.Snapshot()
	if session.Status != entities.SessionStatusVerifying {
		t.Fatalf("expected verifying after flow begins, got %s", session.Status)
	}
}

func TestBeginVerificationRejectedWhenNotRequired(t *testing.T) {
	store := memory.NewStore()
	store.SetElection("election-1", false, "president")
	controller := commands.NewSessionController(store, store, nil)

	if _, err := controller.Start(context.Background(), "election-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := controller.BeginVerification(); !errors.Is(err, domainerrors.ErrVerificationNotOpen) {
		t.Fatalf("expected ErrVerificationNotOpen, got %v", err)
	}
}

func TestStartAdvancesToVotingWhenVerificationNotRequired(t *testing.T) {
	store := memory.NewStore()
	store.SetElection("election-1", false, "president", "secretary")
	controller := commands.NewSessionController(store, store, nil)

	outcome, err := controller.Start(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if outcome.Session.Status != entities.SessionStatusVoting {
		t.Fatalf("expected voting, got %s", outcome.Session.Status)
	}
	if outcome.Session.TotalPositions != 2 {
		t.Fatalf("expected 2 positions, got %d", outcome.Session.TotalPositions)
	}
}

func TestStartRejectsSecondActiveSession(t *testing.T) {
	store := memory.NewStore()
	store.SetElection("election-1", false, "president")
	controller := commands.NewSessionController(store, store, nil)

	if _, err := controller.Start(context.Background(), "election-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := controller.Start(context.Background(), "election-1"); !errors.Is(err, domainerrors.ErrSessionInProgress) {
		t.Fatalf("expected ErrSessionInProgress, got %v", err)
	}
}

func TestStartSurfacesAlreadyVotedAsTerminalOutcome(t *testing.T) {
	store := memory.NewStore()
	store.SetElection("election-1", false, "president")
	controller := commands.NewSessionController(store, store, nil)

	if _, err := controller.Start(context.Background(), "election-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	castAllAndComplete(t, store, controller, "president")

	fresh := commands.NewSessionController(store, store, nil)
	if _, err := fresh.Start(context.Background(), "election-1"); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}
	if _, ok := fresh.Snapshot(); ok {
		t.Fatalf("no session should be retained after already-voted rejection")
	}
}

func TestResumeReadoptsActiveSession(t *testing.T) {
	store := memory.NewStore()
	store.SetElection("election-1", false, "president", "secretary")
	first := commands.NewSessionController(store, store, nil)

	started, err := first.Start(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	caster := commands.NewVoteCaster(first, store, store, store, nil)
	if _, err := caster.CastVote(context.Background(), "president", "cand-a"); err != nil {
		t.Fatalf("cast failed: %v", err)
	}

	// A reload builds a fresh controller with no local state.
	second := commands.NewSessionController(store, store, nil)
	resumed, err := second.Resume(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if !resumed.Resumed {
		t.Fatalf("expected resumed outcome")
	}
	if resumed.Session.SessionID != started.Session.SessionID {
		t.Fatalf("expected session %s, got %s", started.Session.SessionID, resumed.Session.SessionID)
	}
	if resumed.Session.VotesCast != 1 {
		t.Fatalf("expected server count 1, got %d", resumed.Session.VotesCast)
	}
	if !second.HasVoted("president") {
		t.Fatalf("expected voted flag for president after resume")
	}
}

func TestResumeWithoutActiveSession(t *testing.T) {
	store := memory.NewStore()
	store.SetElection("election-1", false, "president")
	controller := commands.NewSessionController(store, store, nil)

	if _, err := controller.Resume(context.Background(), "election-1"); !errors.Is(err, domainerrors.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestCompleteRequiresAllPositionsVoted(t *testing.T) {
	store := memory.NewStore()
	store.SetElection("election-1", false, "president", "secretary")
	controller := commands.NewSessionController(store, store, nil)

	if _, err := controller.Start(context.Background(), "election-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := controller.Complete(context.Background()); !errors.Is(err, domainerrors.ErrPositionsRemaining) {
		t.Fatalf("expected ErrPositionsRemaining, got %v", err)
	}

	caster := commands.NewVoteCaster(controller, store, store, store, nil)
	if _, err := caster.CastVote(context.Background(), "president", "cand-a"); err != nil {
		t.Fatalf("cast failed: %v", err)
	}
	if _, err := caster.CastVote(context.Background(), "secretary", "cand-b"); err != nil {
		t.Fatalf("cast failed: %v", err)
	}

	completed, err := controller.Complete(context.Background())
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != entities.SessionStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
	if completed.CompletedAt == nil {
		t.Fatalf("expected completion timestamp")
	}

	// Completion is irreversible.
	if _, err := controller.Complete(context.Background()); !errors.Is(err, domainerrors.ErrSessionCompleted) {
		t.Fatalf("expected ErrSessionCompleted, got %v", err)
	}
	if err := controller.Abandon(); !errors.Is(err, domainerrors.ErrSessionCompleted) {
		t.Fatalf("expected ErrSessionCompleted on abandon after completion, got %v", err)
	}
}

func TestAbandonTerminatesActiveSession(t *testing.T) {
	store := memory.NewStore()
	store.SetElection("election-1", false, "president")
	controller := commands.NewSessionController(store, store, nil)

	if _, err := controller.Start(context.Background(), "election-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := controller.Abandon(); err != nil {
		t.Fatalf("abandon failed: %v", err)
	}
	session, ok := controller.Snapshot()
	if !ok || session.Status != entities.SessionStatusAbandoned {
		t.Fatalf("expected abandoned session, got %+v", session)
	}
}

func castAllAndComplete(t *testing.T, store *memory.Store, controller *commands.SessionController, positions ...string) {
	t.Helper()
	caster := commands.NewVoteCaster(controller, store, store, store, nil)
	for _, position := range positions {
		if _, err := caster.CastVote(context.Background(), position, "cand-a"); err != nil {
			t.Fatalf("cast %s failed: %v", position, err)
		}
	}
	if _, err := controller.Complete(context.Background()); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
}
