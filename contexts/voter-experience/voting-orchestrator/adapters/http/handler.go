package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"

	"votegate/contexts/voter-experience/voting-orchestrator/application/commands"
	"votegate/contexts/voter-experience/voting-orchestrator/application/workers"
	"votegate/contexts/voter-experience/voting-orchestrator/domain/entities"
	domainerrors "votegate/contexts/voter-experience/voting-orchestrator/domain/errors"
	httptransport "votegate/contexts/voter-experience/voting-orchestrator/transport/http"
)

// Handler maps transport DTOs onto the orchestration use cases. The
// platform HTTP server owns routing and error-to-status mapping.
type Handler struct {
	Sessions     *commands.SessionController
	Verification *commands.VerificationCoordinator
	Votes        *commands.VoteCaster
	Poller       *workers.ResultsPoller
	Logger       *slog.Logger
}

func (h Handler) StartSessionHandler(ctx context.Context, req httptransport.StartSessionRequest) (httptransport.SessionResponse, error) {
	var (
		outcome commands.StartOutcome
		err     error
	)
	if req.Resume {
		outcome, err = h.Sessions.Resume(ctx, req.ElectionID)
	} else {
		outcome, err = h.Sessions.Start(ctx, req.ElectionID)
	}
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	resp := sessionToDTO(outcome.Session)
	resp.RequiresFacialVerification = outcome.RequiresFacialVerification
	resp.Resumed = outcome.Resumed
	return resp, nil
}

func (h Handler) SessionStatusHandler(ctx context.Context, sessionID string) (httptransport.SessionStatusResponse, error) {
	session, ok := h.Sessions.Snapshot()
	if !ok || session.SessionID != strings.TrimSpace(sessionID) {
		return httptransport.SessionStatusResponse{}, domainerrors.ErrSessionNotFound
	}
	status, err := h.Sessions.RefreshStatus(ctx)
	if err != nil {
		return httptransport.SessionStatusResponse{}, err
	}
	resp := httptransport.SessionStatusResponse{
		Session:   sessionToDTO(status.Session),
		Positions: make([]httptransport.PositionStatusItem, 0, len(status.Positions)),
	}
	resp.Session.RequiresFacialVerification = h.Sessions.RequiresVerification()
	for _, position := range status.Positions {
		resp.Positions = append(resp.Positions, httptransport.PositionStatusItem{
			PositionID: position.PositionID,
			Name:       position.Name,
			HasVoted:   position.HasVoted,
			VotedAt:    position.VotedAt,
		})
	}
	return resp, nil
}

func (h Handler) CompleteSessionHandler(ctx context.Context, req httptransport.CompleteSessionRequest) (httptransport.SessionResponse, error) {
	session, ok := h.Sessions.Snapshot()
	if !ok || session.SessionID != strings.TrimSpace(req.SessionID) {
		return httptransport.SessionResponse{}, domainerrors.ErrSessionNotFound
	}
	completed, err := h.Sessions.Complete(ctx)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return sessionToDTO(completed), nil
}

func (h Handler) AbandonSessionHandler(_ context.Context, req httptransport.AbandonSessionRequest) error {
	session, ok := h.Sessions.Snapshot()
	if !ok || session.SessionID != strings.TrimSpace(req.SessionID) {
		return domainerrors.ErrSessionNotFound
	}
	h.Verification.Teardown()
	return h.Sessions.Abandon()
}

// VerificationAttemptHandler runs one full attempt: acquire the camera if
// it is not already held for preview, capture, submit, and report the
// server-side budget.
func (h Handler) VerificationAttemptHandler(ctx context.Context, req httptransport.VerificationAttemptRequest) (httptransport.VerificationAttemptResponse, error) {
	session, ok := h.Sessions.Snapshot()
	if !ok || session.SessionID != strings.TrimSpace(req.SessionID) {
		return httptransport.VerificationAttemptResponse{}, domainerrors.ErrSessionNotFound
	}
	if !h.Verification.CameraHeld() {
		if err := h.Verification.AcquireCamera(ctx); err != nil {
			return httptransport.VerificationAttemptResponse{}, err
		}
	}
	outcome, err := h.Verification.Attempt(ctx)
	if err != nil {
		return httptransport.VerificationAttemptResponse{}, err
	}
	return httptransport.VerificationAttemptResponse{
		Verified:          outcome.Verified,
		MatchScore:        outcome.MatchScore,
		AttemptsRemaining: outcome.AttemptsRemaining,
		Blocked:           outcome.Blocked,
	}, nil
}

func (h Handler) SelectionHandler(_ context.Context, req httptransport.SelectionRequest) error {
	session, ok := h.Sessions.Snapshot()
	if !ok || session.SessionID != strings.TrimSpace(req.SessionID) {
		return domainerrors.ErrSessionNotFound
	}
	return h.Votes.Select(req.PositionID, req.CandidateID)
}

func (h Handler) CastVoteHandler(ctx context.Context, req httptransport.CastVoteRequest) (httptransport.CastVoteResponse, error) {
	session, ok := h.Sessions.Snapshot()
	if !ok || session.SessionID != strings.TrimSpace(req.SessionID) {
		return httptransport.CastVoteResponse{}, domainerrors.ErrSessionNotFound
	}
	outcome, err := h.Votes.CastVote(ctx, req.PositionID, req.CandidateID)
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		VoteID:            outcome.VoteID,
		AlreadyRecorded:   outcome.AlreadyRecorded,
		AllPositionsVoted: outcome.AllPositionsVoted,
		Session:           sessionToDTO(outcome.Session),
	}, nil
}

func (h Handler) ElectionStatusHandler(ctx context.Context, electionID string) (httptransport.ElectionStatusResponse, error) {
	// Resume folds the server view into local state; "nothing to resume"
	// and "already voted" are valid answers here, not failures.
	_, err := h.Sessions.Resume(ctx, electionID)
	if err != nil && !errors.Is(err, domainerrors.ErrNoActiveSession) && !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		return httptransport.ElectionStatusResponse{}, err
	}

	session, hasSession := h.Sessions.Snapshot()
	resp := httptransport.ElectionStatusResponse{
		HasVoted:                   errors.Is(err, domainerrors.ErrAlreadyVoted),
		RequiresFacialVerification: h.Sessions.RequiresVerification(),
		Positions:                  make([]httptransport.PositionStatusItem, 0),
	}
	if hasSession {
		resp.VotesCast = session.VotesCast
		resp.TotalPositions = session.TotalPositions
		if !session.Status.Terminal() {
			resp.ActiveSession = session.SessionID
		}
		for _, position := range h.Sessions.Positions() {
			resp.Positions = append(resp.Positions, httptransport.PositionStatusItem{
				PositionID: position.PositionID,
				Name:       position.Name,
				HasVoted:   position.HasVoted,
				VotedAt:    position.VotedAt,
			})
		}
	}
	return resp, nil
}

func (h Handler) LiveResultsHandler(_ context.Context, electionID string) (httptransport.LiveResultsResponse, error) {
	update, ok := h.Poller.Latest()
	if !ok || update.Snapshot.ElectionID != strings.TrimSpace(electionID) {
		return httptransport.LiveResultsResponse{}, domainerrors.ErrElectionNotFound
	}
	return resultsToDTO(update), nil
}

func (h Handler) RefreshResultsHandler(ctx context.Context, electionID string) (httptransport.LiveResultsResponse, error) {
	update, err := h.Poller.Refresh(ctx, electionID)
	if err != nil {
		return httptransport.LiveResultsResponse{}, err
	}
	return resultsToDTO(update), nil
}

func sessionToDTO(session entities.VotingSession) httptransport.SessionResponse {
	return httptransport.SessionResponse{
		SessionID:      session.SessionID,
		ElectionID:     session.ElectionID,
		Status:         string(session.Status),
		VotesCast:      session.VotesCast,
		TotalPositions: session.TotalPositions,
		Verified:       session.Verification != nil && session.Verification.IsVerified,
		StartedAt:      session.StartedAt,
		CompletedAt:    session.CompletedAt,
	}
}

func resultsToDTO(update entities.ResultsUpdate) httptransport.LiveResultsResponse {
	leadersByPosition := make(map[string]entities.PositionLeaders, len(update.Leaders))
	for _, leaders := range update.Leaders {
		leadersByPosition[leaders.PositionID] = leaders
	}

	resp := httptransport.LiveResultsResponse{
		ElectionID:         update.Snapshot.ElectionID,
		TotalVotesCast:     update.Snapshot.TotalVotesCast,
		LastUpdated:        update.Snapshot.LastUpdated,
		LastUpdatedDisplay: humanize.Time(update.Snapshot.LastUpdated),
		Sequence:           update.Sequence,
		Positions:          make([]httptransport.PositionResultsItem, 0, len(update.Snapshot.Positions)),
	}
	for _, position := range update.Snapshot.Positions {
		item := httptransport.PositionResultsItem{
			PositionID: position.PositionID,
			TotalVotes: position.TotalVotes,
			Candidates: make([]httptransport.CandidateTallyItem, 0, len(position.Candidates)),
		}
		if leaders, ok := leadersByPosition[position.PositionID]; ok {
			item.Leaders = leaders.Leaders
			item.Draw = leaders.Draw
		}
		for _, candidate := range position.Candidates {
			item.Candidates = append(item.Candidates, httptransport.CandidateTallyItem{
				ID:             candidate.CandidateID,
				VoteCount:      candidate.VoteCount,
				VotePercentage: candidate.VotePercentage,
			})
		}
		resp.Positions = append(resp.Positions, item)
	}
	return resp
}
