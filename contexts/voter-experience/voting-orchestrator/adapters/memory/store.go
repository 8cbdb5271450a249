package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"votegate/contexts/voter-experience/voting-orchestrator/domain/entities"
	domainerrors "votegate/contexts/voter-experience/voting-orchestrator/domain/errors"
	"votegate/contexts/voter-experience/voting-orchestrator/ports"

	"github.com/google/uuid"
)

// electionState is the fake server's view of one election.
type electionState struct {
	requiresVerification bool
	active               bool
	positions            []string
	hasVoted             bool
}

type sessionState struct {
	session entities.VotingSession
	votes   map[string]string
}

// Store is an in-memory stand-in for the remote voting service. It backs
// the in-memory module and the package tests; setters seed server-side
// state the way the production backend would own it.
type Store struct {
	mu sync.RWMutex

	elections map[string]*electionState
	sessions  map[string]*sessionState
	results   map[string]entities.LiveResultsSnapshot

	verifyQueue  []ports.VerifyFaceResult
	verifyCalls  int
	castCalls    int
	statusCalls  int
	resultsCalls int

	// Hooks let tests interleave concurrent calls deterministically.
	LiveResultsHook func(electionID string)
	VerifyHook      func()

	now time.Time
}

func NewStore() *Store {
	return &Store{
		elections: make(map[string]*electionState),
		sessions:  make(map[string]*sessionState),
		results:   make(map[string]entities.LiveResultsSnapshot),
		now:       time.Now().UTC(),
	}
}

// SetElection seeds an election with its position list.
func (s *Store) SetElection(electionID string, requiresVerification bool, positions ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[strings.TrimSpace(electionID)] = &electionState{
		requiresVerification: requiresVerification,
		active:               true,
		positions:            positions,
	}
}

// SetResults seeds the live-results snapshot served for an election.
func (s *Store) SetResults(electionID string, snapshot entities.LiveResultsSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot.ElectionID = electionID
	s.results[electionID] = snapshot
}

// QueueVerification scripts the outcome of the next VerifyFace call.
func (s *Store) QueueVerification(result ports.VerifyFaceResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifyQueue = append(s.verifyQueue, result)
}

func (s *Store) VerifyCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verifyCalls
}

func (s *Store) CastCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.castCalls
}

func (s *Store) ResultsCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resultsCalls
}

func (s *Store) StartSession(_ context.Context, electionID string) (ports.StartSessionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	election, ok := s.elections[electionID]
	if !ok {
		return ports.StartSessionResult{}, domainerrors.ErrElectionNotFound
	}
	if !election.active {
		return ports.StartSessionResult{}, domainerrors.ErrElectionNotActive
	}
	if election.hasVoted {
		return ports.StartSessionResult{}, domainerrors.ErrAlreadyVoted
	}

	sessionID := uuid.NewString()
	session := entities.VotingSession{
		SessionID:      sessionID,
		ElectionID:     electionID,
		VoterID:        "voter-1",
		Status:         entities.SessionStatusStarted,
		TotalPositions: len(election.positions),
		StartedAt:      s.now,
	}
	s.sessions[sessionID] = &sessionState{
		session: session,
		votes:   make(map[string]string),
	}
	return ports.StartSessionResult{
		Session:                    session,
		RequiresFacialVerification: election.requiresVerification,
	}, nil
}

func (s *Store) SessionStatus(_ context.Context, sessionID string) (ports.SessionStatusResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusCalls++

	state, ok := s.sessions[sessionID]
	if !ok {
		return ports.SessionStatusResult{}, domainerrors.ErrSessionNotFound
	}
	election := s.elections[state.session.ElectionID]
	if election == nil {
		return ports.SessionStatusResult{}, domainerrors.ErrElectionNotFound
	}
	return ports.SessionStatusResult{
		Session:   state.session,
		Positions: s.positionStatusesLocked(election, state),
	}, nil
}

func (s *Store) CompleteSession(_ context.Context, sessionID string) (entities.VotingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return entities.VotingSession{}, domainerrors.ErrSessionNotFound
	}
	if state.session.VotesCast < state.session.TotalPositions {
		return entities.VotingSession{}, domainerrors.ErrPositionsRemaining
	}
	completedAt := s.now
	state.session.Status = entities.SessionStatusCompleted
	state.session.CompletedAt = &completedAt
	if election := s.elections[state.session.ElectionID]; election != nil {
		election.hasVoted = true
	}
	return state.session, nil
}

func (s *Store) VerifyFace(_ context.Context, _, sessionID string, frame []byte) (ports.VerifyFaceResult, error) {
	s.mu.Lock()
	if hook := s.VerifyHook; hook != nil {
		s.mu.Unlock()
		hook()
		s.mu.Lock()
	}
	defer s.mu.Unlock()
	s.verifyCalls++

	if len(frame) == 0 {
		return ports.VerifyFaceResult{}, domainerrors.ErrInvalidInput
	}
	state, ok := s.sessions[sessionID]
	if !ok {
		return ports.VerifyFaceResult{}, domainerrors.ErrSessionNotFound
	}
	if len(s.verifyQueue) == 0 {
		return ports.VerifyFaceResult{}, domainerrors.ErrInvalidInput
	}
	result := s.verifyQueue[0]
	s.verifyQueue = s.verifyQueue[1:]
	if result.Verification.IsVerified {
		v := result.Verification
		state.session.Verification = &v
		state.session.Status = entities.SessionStatusVoting
	}
	return result, nil
}

func (s *Store) CastVote(_ context.Context, input ports.CastVoteInput) (ports.CastVoteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.castCalls++

	state, ok := s.sessions[input.SessionID]
	if !ok {
		return ports.CastVoteResult{}, domainerrors.ErrSessionNotFound
	}
	if state.session.Status == entities.SessionStatusCompleted {
		return ports.CastVoteResult{}, domainerrors.ErrSessionCompleted
	}
	if _, voted := state.votes[input.PositionID]; voted {
		return ports.CastVoteResult{DuplicatePosition: true, Session: state.session}, nil
	}

	voteID := uuid.NewString()
	state.votes[input.PositionID] = voteID
	state.session.VotesCast = len(state.votes)
	if state.session.Status == entities.SessionStatusStarted {
		state.session.Status = entities.SessionStatusVoting
	}
	return ports.CastVoteResult{
		VoteID:  voteID,
		Session: state.session,
	}, nil
}

func (s *Store) ElectionStatus(_ context.Context, electionID string) (ports.ElectionStatusResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	election, ok := s.elections[electionID]
	if !ok {
		return ports.ElectionStatusResult{}, domainerrors.ErrElectionNotFound
	}

	result := ports.ElectionStatusResult{
		HasVoted:                   election.hasVoted,
		TotalPositions:             len(election.positions),
		RequiresFacialVerification: election.requiresVerification,
	}
	for _, state := range s.sessions {
		if state.session.ElectionID != electionID {
			continue
		}
		if !state.session.Status.Terminal() {
			result.ActiveSessionID = state.session.SessionID
		}
		result.VotesCast = state.session.VotesCast
		result.Positions = s.positionStatusesLocked(election, state)
	}
	return result, nil
}

func (s *Store) LiveResults(_ context.Context, electionID string) (entities.LiveResultsSnapshot, error) {
	s.mu.RLock()
	hook := s.LiveResultsHook
	s.mu.RUnlock()
	if hook != nil {
		hook(electionID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resultsCalls++

	snapshot, ok := s.results[electionID]
	if !ok {
		return entities.LiveResultsSnapshot{}, domainerrors.ErrElectionNotFound
	}
	return snapshot, nil
}

func (s *Store) positionStatusesLocked(election *electionState, state *sessionState) []entities.PositionStatus {
	positions := make([]entities.PositionStatus, 0, len(election.positions))
	for _, positionID := range election.positions {
		_, voted := state.votes[positionID]
		positions = append(positions, entities.PositionStatus{
			PositionID: positionID,
			HasVoted:   voted,
		})
	}
	return positions
}

// Now implements ports.Clock with a fixed test time.
func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now
}

// NewID implements ports.IDGenerator.
func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
