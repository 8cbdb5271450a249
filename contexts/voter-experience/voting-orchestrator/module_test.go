package votingorchestrator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	votingorchestrator "votegate/contexts/voter-experience/voting-orchestrator"
	"votegate/contexts/voter-experience/voting-orchestrator/domain/entities"
	domainerrors "votegate/contexts/voter-experience/voting-orchestrator/domain/errors"
	"votegate/contexts/voter-experience/voting-orchestrator/ports"
	httptransport "votegate/contexts/voter-experience/voting-orchestrator/transport/http"
)

func TestVoterJourneyEndToEnd(t *testing.T) {
	module := votingorchestrator.NewInMemoryModule(nil, nil)
	module.Store.SetElection("election-1", true, "president", "secretary")
	module.Store.QueueVerification(ports.VerifyFaceResult{
		Verification:      entities.Verification{IsVerified: true, MatchScore: 0.95},
		AttemptsRemaining: 2,
	})

	started, err := module.Handler.StartSessionHandler(context.Background(), httptransport.StartSessionRequest{
		ElectionID: "election-1",
	})
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}
	if started.Status != string(entities.SessionStatusStarted) {
		t.Fatalf("expected started, got %s", started.Status)
	}
	if !started.RequiresFacialVerification {
		t.Fatalf("expected verification requirement")
	}

	attempt, err := module.Handler.VerificationAttemptHandler(context.Background(), httptransport.VerificationAttemptRequest{
		ElectionID: "election-1",
		SessionID:  started.SessionID,
	})
	if err != nil {
		t.Fatalf("verification attempt failed: %v", err)
	}
	if !attempt.Verified {
		t.Fatalf("expected verified attempt")
	}
	if module.Cameras.Held() {
		t.Fatalf("camera must be released after verification")
	}

	if err := module.Handler.SelectionHandler(context.Background(), httptransport.SelectionRequest{
		SessionID:   started.SessionID,
		PositionID:  "president",
		CandidateID: "cand-a",
	}); err != nil {
		t.Fatalf("selection failed: %v", err)
	}

	first, err := module.Handler.CastVoteHandler(context.Background(), httptransport.CastVoteRequest{
		ElectionID: "election-1",
		PositionID: "president",
		SessionID:  started.SessionID,
	})
	if err != nil {
		t.Fatalf("first cast failed: %v", err)
	}
	if first.Session.VotesCast != 1 || first.AllPositionsVoted {
		t.Fatalf("unexpected state after first cast: %+v", first)
	}

	second, err := module.Handler.CastVoteHandler(context.Background(), httptransport.CastVoteRequest{
		ElectionID:  "election-1",
		PositionID:  "secretary",
		CandidateID: "cand-b",
		SessionID:   started.SessionID,
	})
	if err != nil {
		t.Fatalf("second cast failed: %v", err)
	}
	if !second.AllPositionsVoted {
		t.Fatalf("expected all positions voted")
	}

	completed, err := module.Handler.CompleteSessionHandler(context.Background(), httptransport.CompleteSessionRequest{
		SessionID: started.SessionID,
	})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != string(entities.SessionStatusCompleted) {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
	if module.Cameras.Opens() != module.Cameras.Closes() {
		t.Fatalf("unbalanced camera lifecycle: %d opens, %d closes", module.Cameras.Opens(), module.Cameras.Closes())
	}
}

func TestHandlerRejectsMismatchedSession(t *testing.T) {
	module := votingorchestrator.NewInMemoryModule(nil, nil)
	module.Store.SetElection("election-1", false, "president")

	started, err := module.Handler.StartSessionHandler(context.Background(), httptransport.StartSessionRequest{
		ElectionID: "election-1",
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if started.Status != string(entities.SessionStatusVoting) {
		t.Fatalf("expected voting, got %s", started.Status)
	}

	if _, err := module.Handler.CastVoteHandler(context.Background(), httptransport.CastVoteRequest{
		ElectionID:  "election-1",
		PositionID:  "president",
		CandidateID: "cand-a",
		SessionID:   "someone-elses-session",
	}); !errors.Is(err, domainerrors.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAbandonViaHandlerTearsDownVerification(t *testing.T) {
	module := votingorchestrator.NewInMemoryModule(nil, nil)
	module.Store.SetElection("election-1", true, "president")

	started, err := module.Handler.StartSessionHandler(context.Background(), httptransport.StartSessionRequest{
		ElectionID: "election-1",
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := module.Verification.AcquireCamera(context.Background()); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	if err := module.Handler.AbandonSessionHandler(context.Background(), httptransport.AbandonSessionRequest{
		SessionID: started.SessionID,
	}); err != nil {
		t.Fatalf("abandon failed: %v", err)
	}
	if module.Cameras.Held() {
		t.Fatalf("expected camera released on abandon")
	}
	session, _ := module.Sessions.Snapshot()
	if session.Status != entities.SessionStatusAbandoned {
		t.Fatalf("expected abandoned, got %s", session.Status)
	}
}

func TestRefreshResultsHandlerRendersDisplayFields(t *testing.T) {
	module := votingorchestrator.NewInMemoryModule(nil, nil)
	module.Store.SetResults("election-1", entities.LiveResultsSnapshot{
		TotalVotesCast: 24,
		LastUpdated:    time.Now().UTC().Add(-2 * time.Minute),
		Positions: []entities.PositionTally{
			{
				PositionID: "president",
				TotalVotes: 24,
				Candidates: []entities.CandidateTally{
					{CandidateID: "cand-a", VoteCount: 10, VotePercentage: 41.67},
					{CandidateID: "cand-b", VoteCount: 10, VotePercentage: 41.67},
					{CandidateID: "cand-c", VoteCount: 4, VotePercentage: 16.67},
				},
			},
		},
	})

	resp, err := module.Handler.RefreshResultsHandler(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if resp.TotalVotesCast != 24 || resp.Sequence != 1 {
		t.Fatalf("unexpected response header: %+v", resp)
	}
	position := resp.Positions[0]
	if !position.Draw || len(position.Leaders) != 2 {
		t.Fatalf("expected two-way draw, got %+v", position)
	}
	if resp.LastUpdatedDisplay == "" {
		t.Fatalf("expected humanized last-updated display")
	}

	// The applied snapshot is now served without another upstream call.
	calls := module.Store.ResultsCalls()
	latest, err := module.Handler.LiveResultsHandler(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("live results failed: %v", err)
	}
	if latest.Sequence != 1 || module.Store.ResultsCalls() != calls {
		t.Fatalf("latest must be served from the applied update")
	}
}
