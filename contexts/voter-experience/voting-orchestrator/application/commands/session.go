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

// SessionController owns the VotingSession lifecycle. It is the only
// component allowed to move Status along the transition graph; the
// verification coordinator and vote caster request transitions through its
// methods and read immutable snapshots.
type SessionController struct {
	api    ports.VotingAPI
	clock  ports.Clock
	logger *slog.Logger

	mu                   sync.Mutex
	session              *entities.VotingSession
	requiresVerification bool
	positions            []entities.PositionStatus
	voted                map[string]bool
}

func NewSessionController(api ports.VotingAPI, clock ports.Clock, logger *slog.Logger) *SessionController {
	return &SessionController{
		api:    api,
		clock:  clock,
		logger: application.ResolveLogger(logger),
		voted:  make(map[string]bool),
	}
}

// StartOutcome is the result of Start or Resume.
type StartOutcome struct {
	Session                    entities.VotingSession
	RequiresFacialVerification bool
	Resumed                    bool
}

// Start requests a new session for the election. An "already voted"
// rejection is a terminal outcome, not an error banner: it propagates as
// ErrAlreadyVoted and no session is retained.
func (c *SessionController) Start(ctx context.Context, electionID string) (StartOutcome, error) {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return StartOutcome{}, domainerrors.ErrInvalidInput
	}

	c.mu.Lock()
	if c.session != nil && !c.session.Status.Terminal() {
		c.mu.Unlock()
		return StartOutcome{}, domainerrors.ErrSessionInProgress
	}
	c.mu.Unlock()

	result, err := c.api.StartSession(ctx, electionID)
	if err != nil {
		c.logger.Warn("session start rejected",
			"event", "voting_session_start_rejected",
			"module", "voter-experience/voting-orchestrator",
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
		return StartOutcome{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	session := result.Session
	session.Status = entities.SessionStatusStarted
	c.session = &session
	c.requiresVerification = result.RequiresFacialVerification
	c.positions = nil
	c.voted = make(map[string]bool)

	// With verification required the session stays "started" until the
	// verification flow engages the camera; otherwise there is no gate and
	// it advances straight to voting.
	if !result.RequiresFacialVerification {
		if err := c.transitionLocked(entities.SessionStatusVoting); err != nil {
			return StartOutcome{}, err
		}
	}

	c.logger.Info("voting session started",
		"event", "voting_session_started",
		"module", "voter-experience/voting-orchestrator",
		"layer", "application",
		"session_id", session.SessionID,
		"election_id", electionID,
		"requires_verification", result.RequiresFacialVerification,
		"total_positions", session.TotalPositions,
	)
	return StartOutcome{
		Session:                    *c.session,
		RequiresFacialVerification: result.RequiresFacialVerification,
	}, nil
}

// Resume re-adopts an interrupted session after a reload. The orchestrator
// keeps no durable state; the election status endpoint is the source of
// truth for whether a session is still active.
func (c *SessionController) Resume(ctx context.Context, electionID string) (StartOutcome, error) {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return StartOutcome{}, domainerrors.ErrInvalidInput
	}

	status, err := c.api.ElectionStatus(ctx, electionID)
	if err != nil {
		return StartOutcome{}, err
	}
	if status.HasVoted {
		return StartOutcome{}, domainerrors.ErrAlreadyVoted
	}
	if strings.TrimSpace(status.ActiveSessionID) == "" {
		return StartOutcome{}, domainerrors.ErrNoActiveSession
	}

	current, err := c.api.SessionStatus(ctx, status.ActiveSessionID)
	if err != nil {
		return StartOutcome{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	session := current.Session
	c.session = &session
	c.requiresVerification = status.RequiresFacialVerification
	c.applyStatusLocked(current)

	c.logger.Info("voting session resumed",
		"event", "voting_session_resumed",
		"module", "voter-experience/voting-orchestrator",
		"layer", "application",
		"session_id", session.SessionID,
		"election_id", electionID,
		"status", string(session.Status),
		"votes_cast", session.VotesCast,
	)
	return StartOutcome{
		Session:                    session,
		RequiresFacialVerification: status.RequiresFacialVerification,
		Resumed:                    true,
	}, nil
}

// RefreshStatus re-fetches the session from the server and folds the result
// into local state. Server counters win over any local guess; the local
// status only moves forward.
func (c *SessionController) RefreshStatus(ctx context.Context) (ports.SessionStatusResult, error) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return ports.SessionStatusResult{}, domainerrors.ErrNoActiveSession
	}
	sessionID := c.session.SessionID
	c.mu.Unlock()

	result, err := c.api.SessionStatus(ctx, sessionID)
	if err != nil {
		return ports.SessionStatusResult{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.SessionID != result.Session.SessionID {
		return ports.SessionStatusResult{}, domainerrors.ErrSessionNotFound
	}
	c.applyStatusLocked(result)
	result.Session = *c.session
	return result, nil
}

// BeginVerification moves a freshly started session into the verification
// phase. Called when the verification flow first engages the camera; a
// session already verifying is left alone.
func (c *SessionController) BeginVerification() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domainerrors.ErrNoActiveSession
	}
	if !c.requiresVerification {
		return domainerrors.ErrVerificationNotOpen
	}
	if c.session.Status == entities.SessionStatusVerifying {
		return nil
	}
	if c.session.Status != entities.SessionStatusStarted {
		return domainerrors.ErrVerificationNotOpen
	}
	if err := c.transitionLocked(entities.SessionStatusVerifying); err != nil {
		return err
	}
	c.logger.Info("verification phase entered",
		"event", "voting_session_verification_started",
		"module", "voter-experience/voting-orchestrator",
		"layer", "application",
		"session_id", c.session.SessionID,
	)
	return nil
}

// MarkVerified records a successful biometric match and advances the
// session to voting. Valid only while verifying.
func (c *SessionController) MarkVerified(verification entities.Verification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domainerrors.ErrNoActiveSession
	}
	if c.session.Status != entities.SessionStatusVerifying {
		return domainerrors.ErrVerificationNotOpen
	}
	if !verification.IsVerified {
		return domainerrors.ErrInvalidInput
	}
	if err := c.transitionLocked(entities.SessionStatusVoting); err != nil {
		return err
	}
	v := verification
	c.session.Verification = &v
	c.logger.Info("session verified",
		"event", "voting_session_verified",
		"module", "voter-experience/voting-orchestrator",
		"layer", "application",
		"session_id", c.session.SessionID,
		"match_score", verification.MatchScore,
	)
	return nil
}

// MarkBlocked terminates the session after verification attempts are
// exhausted.
func (c *SessionController) MarkBlocked() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domainerrors.ErrNoActiveSession
	}
	if err := c.transitionLocked(entities.SessionStatusBlocked); err != nil {
		return err
	}
	c.logger.Warn("session blocked",
		"event", "voting_session_blocked",
		"module", "voter-experience/voting-orchestrator",
		"layer", "application",
		"session_id", c.session.SessionID,
	)
	return nil
}

// Abandon moves a non-terminal session to abandoned. This is a local,
// client-side decision; the server times the session out on its own.
func (c *SessionController) Abandon() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domainerrors.ErrNoActiveSession
	}
	if err := c.transitionLocked(entities.SessionStatusAbandoned); err != nil {
		return err
	}
	c.logger.Info("session abandoned",
		"event", "voting_session_abandoned",
		"module", "voter-experience/voting-orchestrator",
		"layer", "application",
		"session_id", c.session.SessionID,
	)
	return nil
}

// Complete finalizes the session. Valid only when every position has been
// voted according to the server's counters; the transition is irreversible.
func (c *SessionController) Complete(ctx context.Context) (entities.VotingSession, error) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return entities.VotingSession{}, domainerrors.ErrNoActiveSession
	}
	if c.session.Status == entities.SessionStatusCompleted {
		c.mu.Unlock()
		return entities.VotingSession{}, domainerrors.ErrSessionCompleted
	}
	if c.session.Status != entities.SessionStatusVoting {
		c.mu.Unlock()
		return entities.VotingSession{}, domainerrors.ErrVotingNotOpen
	}
	if !c.session.AllPositionsVoted() {
		c.mu.Unlock()
		return entities.VotingSession{}, domainerrors.ErrPositionsRemaining
	}
	sessionID := c.session.SessionID
	c.mu.Unlock()

	confirmed, err := c.api.CompleteSession(ctx, sessionID)
	if err != nil {
		return entities.VotingSession{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.transitionLocked(entities.SessionStatusCompleted); err != nil {
		return entities.VotingSession{}, err
	}
	completedAt := confirmed.CompletedAt
	if completedAt == nil {
		now := c.now()
		completedAt = &now
	}
	c.session.CompletedAt = completedAt
	c.logger.Info("voting session completed",
		"event", "voting_session_completed",
		"module", "voter-experience/voting-orchestrator",
		"layer", "application",
		"session_id", sessionID,
		"votes_cast", c.session.VotesCast,
	)
	return *c.session, nil
}

// Snapshot returns a copy of the current session, if any.
func (c *SessionController) Snapshot() (entities.VotingSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return entities.VotingSession{}, false
	}
	return *c.session, true
}

func (c *SessionController) RequiresVerification() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requiresVerification
}

// HasVoted reports the server-side voted flag from the latest status fetch.
func (c *SessionController) HasVoted(positionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voted[strings.TrimSpace(positionID)]
}

func (c *SessionController) Positions() []entities.PositionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]entities.PositionStatus, len(c.positions))
	copy(out, c.positions)
	return out
}

// applyStatusLocked folds a server status result into local state. Counters
// are clamped to the invariant bounds; a clamp means the upstream broke its
// own contract and is worth a warning.
func (c *SessionController) applyStatusLocked(result ports.SessionStatusResult) {
	server := result.Session
	if server.VotesCast > server.TotalPositions {
		c.logger.Warn("server reported votes_cast above total_positions",
			"event", "voting_session_counter_clamped",
			"module", "voter-experience/voting-orchestrator",
			"layer", "application",
			"session_id", server.SessionID,
			"votes_cast", server.VotesCast,
			"total_positions", server.TotalPositions,
		)
		server.VotesCast = server.TotalPositions
	}
	if server.VotesCast < 0 {
		server.VotesCast = 0
	}
	c.session.VotesCast = server.VotesCast
	if server.TotalPositions > 0 {
		c.session.TotalPositions = server.TotalPositions
	}
	if server.Verification != nil {
		v := *server.Verification
		c.session.Verification = &v
	}

	// The server status may advance the session but never drags it back.
	if server.Status != "" && server.Status != c.session.Status {
		if c.session.Status.CanTransition(server.Status) {
			c.session.Status = server.Status
		} else {
			c.logger.Warn("ignoring regressive server status",
				"event", "voting_session_status_regression_ignored",
				"module", "voter-experience/voting-orchestrator",
				"layer", "application",
				"session_id", server.SessionID,
				"local_status", string(c.session.Status),
				"server_status", string(server.Status),
			)
		}
	}

	c.positions = make([]entities.PositionStatus, len(result.Positions))
	copy(c.positions, result.Positions)
	c.voted = make(map[string]bool, len(result.Positions))
	for _, position := range result.Positions {
		c.voted[position.PositionID] = position.HasVoted
	}
}

func (c *SessionController) transitionLocked(to entities.SessionStatus) error {
	if c.session.Status == entities.SessionStatusCompleted {
		return domainerrors.ErrSessionCompleted
	}
	if c.session.Status == to {
		return nil
	}
	if !c.session.Status.CanTransition(to) {
		return domainerrors.ErrInvalidTransition
	}
	c.session.Status = to
	return nil
}

func (c *SessionController) now() time.Time {
	if c.clock != nil {
		return c.clock.Now().UTC()
	}
	return time.Now().UTC()
}
