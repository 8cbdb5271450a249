package entities

import "time"

type SessionStatus string

const (
	SessionStatusStarted   SessionStatus = "started"
	SessionStatusVerifying SessionStatus = "verifying"
	SessionStatusVoting    SessionStatus = "voting"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusAbandoned SessionStatus = "abandoned"
	SessionStatusBlocked   SessionStatus = "blocked"
)

// Terminal reports whether a session in this status accepts no further
// transitions.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusAbandoned, SessionStatusBlocked:
		return true
	default:
		return false
	}
}

// CanTransition encodes the forward-only transition graph. Statuses never
// regress; terminal statuses accept nothing.
func (s SessionStatus) CanTransition(to SessionStatus) bool {
	if s.Terminal() {
		return false
	}
	switch s {
	case SessionStatusStarted:
		return to == SessionStatusVerifying ||
			to == SessionStatusVoting ||
			to == SessionStatusAbandoned
	case SessionStatusVerifying:
		return to == SessionStatusVoting ||
			to == SessionStatusBlocked ||
			to == SessionStatusAbandoned
	case SessionStatusVoting:
		return to == SessionStatusCompleted ||
			to == SessionStatusAbandoned
	default:
		return false
	}
}

// Verification is the biometric outcome attached to a session once the
// voter has been matched.
type Verification struct {
	IsVerified bool
	MatchScore float64
	Status     string
}

// VotingSession tracks one voter's progress through one election. The
// remote voting service issues the identifiers; the orchestrator only
// advances Status along the transition graph.
type VotingSession struct {
	SessionID      string
	ElectionID     string
	VoterID        string
	Status         SessionStatus
	VotesCast      int
	TotalPositions int
	Verification   *Verification
	StartedAt      time.Time
	CompletedAt    *time.Time
}

func (s VotingSession) AllPositionsVoted() bool {
	return s.TotalPositions > 0 && s.VotesCast >= s.TotalPositions
}

// PositionStatus is the per-position voted flag reported by the session
// status endpoint. The server value is the only gate for further casts.
type PositionStatus struct {
	PositionID string
	Name       string
	HasVoted   bool
	VotedAt    *time.Time
}

// CandidateSelection is the ephemeral, pre-cast choice for one position.
// It lives in orchestrator memory only and is cleared once the vote for
// the position is cast or the choice is superseded.
type CandidateSelection struct {
	PositionID  string
	CandidateID string
	SelectedAt  time.Time
}
