package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type StartSessionRequest struct {
	ElectionID string `json:"election_id"`
	Resume     bool   `json:"resume,omitempty"`
}

type SessionResponse struct {
	SessionID                  string     `json:"session_id"`
	ElectionID                 string     `json:"election_id"`
	Status                     string     `json:"status"`
	VotesCast                  int        `json:"votes_cast"`
	TotalPositions             int        `json:"total_positions"`
	RequiresFacialVerification bool       `json:"requires_facial_verification"`
	Resumed                    bool       `json:"resumed,omitempty"`
	Verified                   bool       `json:"verified"`
	StartedAt                  time.Time  `json:"started_at"`
	CompletedAt                *time.Time `json:"completed_at,omitempty"`
}

type PositionStatusItem struct {
	PositionID string     `json:"position_id"`
	Name       string     `json:"name,omitempty"`
	HasVoted   bool       `json:"has_voted"`
	VotedAt    *time.Time `json:"voted_at,omitempty"`
}

type SessionStatusResponse struct {
	Session   SessionResponse      `json:"session"`
	Positions []PositionStatusItem `json:"positions"`
}

type CompleteSessionRequest struct {
	SessionID string `json:"session_id"`
}

type AbandonSessionRequest struct {
	SessionID string `json:"session_id"`
}

type VerificationAttemptRequest struct {
	ElectionID string `json:"election_id"`
	SessionID  string `json:"session_id"`
}

type VerificationAttemptResponse struct {
	Verified          bool    `json:"verified"`
	MatchScore        float64 `json:"match_score"`
	AttemptsRemaining int     `json:"attempts_remaining"`
	Blocked           bool    `json:"blocked"`
}

type SelectionRequest struct {
	SessionID   string `json:"session_id"`
	PositionID  string `json:"position_id"`
	CandidateID string `json:"candidate_id"`
}

type CastVoteRequest struct {
	ElectionID  string `json:"election_id"`
	PositionID  string `json:"position_id"`
	CandidateID string `json:"candidate_id"`
	SessionID   string `json:"session_id"`
}

type CastVoteResponse struct {
	VoteID            string          `json:"vote_id,omitempty"`
	AlreadyRecorded   bool            `json:"already_recorded"`
	AllPositionsVoted bool            `json:"all_positions_voted"`
	Session           SessionResponse `json:"session"`
}

type ElectionStatusResponse struct {
	HasVoted                   bool                 `json:"has_voted"`
	VotesCast                  int                  `json:"votes_cast"`
	TotalPositions             int                  `json:"total_positions"`
	ActiveSession              string               `json:"active_session,omitempty"`
	Positions                  []PositionStatusItem `json:"positions"`
	RequiresFacialVerification bool                 `json:"requires_facial_verification"`
}

type CandidateTallyItem struct {
	ID             string  `json:"id"`
	VoteCount      int     `json:"vote_count"`
	VotePercentage float64 `json:"vote_percentage"`
}

type PositionResultsItem struct {
	PositionID string               `json:"position_id"`
	Candidates []CandidateTallyItem `json:"candidates"`
	TotalVotes int                  `json:"total_votes"`
	Leaders    []string             `json:"leaders"`
	Draw       bool                 `json:"draw"`
}

// ResultsUpdateEvent is the server-sent event body pushed on the results
// stream. Clients fetch the full snapshot via the live-results endpoint.
type ResultsUpdateEvent struct {
	ElectionID     string    `json:"election_id"`
	TotalVotesCast int       `json:"total_votes_cast"`
	Sequence       uint64    `json:"sequence"`
	LastUpdated    time.Time `json:"last_updated"`
}

type LiveResultsResponse struct {
	ElectionID         string                `json:"election_id"`
	TotalVotesCast     int                   `json:"total_votes_cast"`
	Positions          []PositionResultsItem `json:"positions"`
	LastUpdated        time.Time             `json:"last_updated"`
	LastUpdatedDisplay string                `json:"last_updated_display"`
	Sequence           uint64                `json:"sequence"`
}
