package commands

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	application "votegate/contexts/voter-experience/voting-orchestrator/application"
	"votegate/contexts/voter-experience/voting-orchestrator/domain/entities"
	domainerrors "votegate/contexts/voter-experience/voting-orchestrator/domain/errors"
	"votegate/contexts/voter-experience/voting-orchestrator/ports"
)

// VoteCaster submits at most one vote per position against the active
// session. Casts are serialized, and the post-cast status re-fetch is
// awaited before another cast is permitted, so the local voted guard never
// runs on stale state.
type VoteCaster struct {
	sessions *SessionController
	api      ports.VotingAPI
	idgen    ports.IDGenerator
	clock    ports.Clock
	logger   *slog.Logger

	mu         sync.Mutex
	selections map[string]entities.CandidateSelection
	idemKeys   map[string]string
}

// CastOutcome reports one cast. AlreadyRecorded marks the server-side
// duplicate rejection treated as success-equivalent.
type CastOutcome struct {
	VoteID            string
	AlreadyRecorded   bool
	Session           entities.VotingSession
	AllPositionsVoted bool
}

func NewVoteCaster(
	sessions *SessionController,
	api ports.VotingAPI,
	idgen ports.IDGenerator,
	clock ports.Clock,
	logger *slog.Logger,
) *VoteCaster {
	return &VoteCaster{
		sessions:   sessions,
		api:        api,
		idgen:      idgen,
		clock:      clock,
		logger:     application.ResolveLogger(logger),
		selections: make(map[string]entities.CandidateSelection),
		idemKeys:   make(map[string]string),
	}
}

// Select records the ephemeral candidate choice for a position. Positions
// the server already marks voted are not offered again.
func (vc *VoteCaster) Select(positionID, candidateID string) error {
	positionID = strings.TrimSpace(positionID)
	candidateID = strings.TrimSpace(candidateID)
	if positionID == "" || candidateID == "" {
		return domainerrors.ErrInvalidInput
	}
	session, ok := vc.sessions.Snapshot()
	if !ok {
		return domainerrors.ErrNoActiveSession
	}
	if session.Status == entities.SessionStatusCompleted {
		return domainerrors.ErrSessionCompleted
	}
	if vc.sessions.HasVoted(positionID) {
		return domainerrors.ErrPositionAlreadyVoted
	}

	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.selections[positionID] = entities.CandidateSelection{
		PositionID:  positionID,
		CandidateID: candidateID,
		SelectedAt:  vc.now(),
	}
	return nil
}

// Selection returns the pending choice for a position, if any.
func (vc *VoteCaster) Selection(positionID string) (entities.CandidateSelection, bool) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	selection, ok := vc.selections[strings.TrimSpace(positionID)]
	return selection, ok
}

// ClearSelection drops the pending choice for a position.
func (vc *VoteCaster) ClearSelection(positionID string) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	delete(vc.selections, strings.TrimSpace(positionID))
}

// CastVote submits one vote. A position the latest status snapshot marks
// voted is rejected locally without a network call; the server's duplicate
// rejection for a raced retry maps to AlreadyRecorded, not an error. The
// session status is re-fetched before the method returns.
func (vc *VoteCaster) CastVote(ctx context.Context, positionID, candidateID string) (CastOutcome, error) {
	positionID = strings.TrimSpace(positionID)
	candidateID = strings.TrimSpace(candidateID)
	if positionID == "" {
		return CastOutcome{}, domainerrors.ErrInvalidInput
	}

	vc.mu.Lock()
	defer vc.mu.Unlock()

	session, ok := vc.sessions.Snapshot()
	if !ok {
		return CastOutcome{}, domainerrors.ErrNoActiveSession
	}
	switch session.Status {
	case entities.SessionStatusVoting:
	case entities.SessionStatusCompleted:
		return CastOutcome{}, domainerrors.ErrSessionCompleted
	case entities.SessionStatusBlocked:
		return CastOutcome{}, domainerrors.ErrSessionBlocked
	default:
		return CastOutcome{}, domainerrors.ErrVotingNotOpen
	}
	if vc.sessions.HasVoted(positionID) {
		return CastOutcome{}, domainerrors.ErrPositionAlreadyVoted
	}

	if candidateID == "" {
		selection, found := vc.selections[positionID]
		if !found {
			return CastOutcome{}, domainerrors.ErrSelectionNotFound
		}
		candidateID = selection.CandidateID
	}

	key, err := vc.idempotencyKeyLocked(ctx, session.SessionID, positionID)
	if err != nil {
		return CastOutcome{}, err
	}

	result, err := vc.api.CastVote(ctx, ports.CastVoteInput{
		ElectionID:     session.ElectionID,
		PositionID:     positionID,
		CandidateID:    candidateID,
		SessionID:      session.SessionID,
		IdempotencyKey: key,
	})
	if err != nil {
		vc.logger.Warn("vote cast failed",
			"event", "vote_cast_failed",
			"module", "voter-experience/voting-orchestrator",
			"layer", "application",
			"session_id", session.SessionID,
			"position_id", positionID,
			"error", err.Error(),
		)
		return CastOutcome{}, err
	}

	delete(vc.selections, positionID)

	// The refresh is awaited here so callers cannot issue another cast on
	// stale "not yet voted" state. The server count also gates completion.
	status, err := vc.sessions.RefreshStatus(ctx)
	if err != nil {
		vc.logger.Warn("post-cast status refresh failed",
			"event", "vote_cast_refresh_failed",
			"module", "voter-experience/voting-orchestrator",
			"layer", "application",
			"session_id", session.SessionID,
			"position_id", positionID,
			"error", err.Error(),
		)
		return CastOutcome{}, err
	}

	vc.logger.Info("vote cast",
		"event", "vote_cast",
		"module", "voter-experience/voting-orchestrator",
		"layer", "application",
		"session_id", session.SessionID,
		"position_id", positionID,
		"vote_id", result.VoteID,
		"already_recorded", result.DuplicatePosition,
		"votes_cast", status.Session.VotesCast,
		"total_positions", status.Session.TotalPositions,
	)
	return CastOutcome{
		VoteID:            result.VoteID,
		AlreadyRecorded:   result.DuplicatePosition,
		Session:           status.Session,
		AllPositionsVoted: status.Session.AllPositionsVoted(),
	}, nil
}

// idempotencyKeyLocked returns a stable key per (session, position) pair so
// a client retry replays the original request upstream.
func (vc *VoteCaster) idempotencyKeyLocked(ctx context.Context, sessionID, positionID string) (string, error) {
	lookup := sessionID + "/" + positionID
	if key, ok := vc.idemKeys[lookup]; ok {
		return key, nil
	}
	key, err := vc.idgen.NewID(ctx)
	if err != nil {
		return "", err
	}
	vc.idemKeys[lookup] = key
	return key, nil
}

func (vc *VoteCaster) now() time.Time {
	if vc.clock != nil {
		return vc.clock.Now().UTC()
	}
	return time.Now().UTC()
}
