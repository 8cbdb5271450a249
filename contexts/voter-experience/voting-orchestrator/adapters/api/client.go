package apiadapter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"votegate/contexts/voter-experience/voting-orchestrator/domain/entities"
	domainerrors "votegate/contexts/voter-experience/voting-orchestrator/domain/errors"
	"votegate/contexts/voter-experience/voting-orchestrator/ports"
	"votegate/internal/platform/apiclient"
)

// Upstream error codes the adapter maps to domain semantics.
const (
	codeAlreadyVoted         = "already_voted"
	codeElectionNotActive    = "election_not_active"
	codePositionAlreadyVoted = "position_already_voted"
	codeSessionNotFound      = "session_not_found"
)

// VotingClient adapts the remote voting REST API to the orchestrator's
// VotingAPI port. Transport and auth concerns live in apiclient; this layer
// translates payloads and maps business rejections to sentinel errors.
type VotingClient struct {
	client *apiclient.Client
	logger *slog.Logger
}

func NewVotingClient(client *apiclient.Client, logger *slog.Logger) *VotingClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &VotingClient{client: client, logger: logger}
}

type sessionDTO struct {
	SessionID      string           `json:"session_id"`
	ElectionID     string           `json:"election_id"`
	VoterID        string           `json:"voter_id"`
	Status         string           `json:"status"`
	VotesCast      int              `json:"votes_cast"`
	TotalPositions int              `json:"total_positions"`
	Verification   *verificationDTO `json:"verification,omitempty"`
	StartedAt      time.Time        `json:"started_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}

type verificationDTO struct {
	IsVerified bool    `json:"is_verified"`
	MatchScore float64 `json:"match_score"`
	Status     string  `json:"status"`
}

type positionStatusDTO struct {
	PositionID string     `json:"position_id"`
	Name       string     `json:"name"`
	HasVoted   bool       `json:"has_voted"`
	VotedAt    *time.Time `json:"voted_at,omitempty"`
}

type startSessionRequest struct {
	ElectionID string `json:"election_id"`
}

type startSessionResponse struct {
	Success                    bool       `json:"success"`
	Session                    sessionDTO `json:"session"`
	RequiresFacialVerification bool       `json:"requires_facial_verification"`
}

type sessionStatusResponse struct {
	Success   bool                `json:"success"`
	Session   sessionDTO          `json:"session"`
	Positions []positionStatusDTO `json:"positions"`
}

type completeSessionRequest struct {
	SessionID string `json:"session_id"`
}

type completeSessionResponse struct {
	Success bool       `json:"success"`
	Session sessionDTO `json:"session"`
}

type verifyFaceResponse struct {
	Success           bool            `json:"success"`
	Verification      verificationDTO `json:"verification"`
	Confidence        float64         `json:"confidence"`
	AttemptsRemaining int             `json:"attempts_remaining"`
}

type castVoteRequest struct {
	ElectionID  string `json:"election_id"`
	PositionID  string `json:"position_id"`
	CandidateID string `json:"candidate_id"`
	SessionID   string `json:"session_id"`
}

type castVoteResponse struct {
	Success bool       `json:"success"`
	VoteID  string     `json:"vote_id"`
	Session sessionDTO `json:"session"`
}

type electionStatusResponse struct {
	Success                    bool                `json:"success"`
	HasVoted                   bool                `json:"has_voted"`
	VotesCast                  int                 `json:"votes_cast"`
	TotalPositions             int                 `json:"total_positions"`
	ActiveSession              string              `json:"active_session"`
	Positions                  []positionStatusDTO `json:"positions"`
	RequiresFacialVerification bool                `json:"requires_facial_verification"`
}

type candidateTallyDTO struct {
	ID             string  `json:"id"`
	VoteCount      int     `json:"vote_count"`
	VotePercentage float64 `json:"vote_percentage"`
}

type positionTallyDTO struct {
	PositionID string              `json:"position_id"`
	Candidates []candidateTallyDTO `json:"candidates"`
	TotalVotes int                 `json:"total_votes"`
}

type liveResultsResponse struct {
	Success        bool               `json:"success"`
	TotalVotesCast int                `json:"total_votes_cast"`
	Positions      []positionTallyDTO `json:"positions"`
	LastUpdated    time.Time          `json:"last_updated"`
}

func (c *VotingClient) StartSession(ctx context.Context, electionID string) (ports.StartSessionResult, error) {
	var resp startSessionResponse
	err := c.client.PostJSON(ctx, "/voting/session/start", startSessionRequest{ElectionID: electionID}, &resp)
	if err != nil {
		return ports.StartSessionResult{}, mapUpstreamError(err)
	}
	return ports.StartSessionResult{
		Session:                    sessionFromDTO(resp.Session),
		RequiresFacialVerification: resp.RequiresFacialVerification,
	}, nil
}

func (c *VotingClient) SessionStatus(ctx context.Context, sessionID string) (ports.SessionStatusResult, error) {
	var resp sessionStatusResponse
	err := c.client.GetJSON(ctx, "/voting/session/"+sessionID+"/status", &resp)
	if err != nil {
		return ports.SessionStatusResult{}, mapUpstreamError(err)
	}
	return ports.SessionStatusResult{
		Session:   sessionFromDTO(resp.Session),
		Positions: positionsFromDTO(resp.Positions),
	}, nil
}

func (c *VotingClient) CompleteSession(ctx context.Context, sessionID string) (entities.VotingSession, error) {
	var resp completeSessionResponse
	err := c.client.PostJSON(ctx, "/voting/session/complete", completeSessionRequest{SessionID: sessionID}, &resp)
	if err != nil {
		return entities.VotingSession{}, mapUpstreamError(err)
	}
	return sessionFromDTO(resp.Session), nil
}

func (c *VotingClient) VerifyFace(ctx context.Context, electionID, sessionID string, frame []byte) (ports.VerifyFaceResult, error) {
	var resp verifyFaceResponse
	err := c.client.PostMultipart(ctx, "/voting/verify-face",
		map[string]string{
			"election_id": electionID,
			"session_id":  sessionID,
		},
		"face_image", "frame.jpg", frame, &resp)
	if err != nil {
		return ports.VerifyFaceResult{}, mapUpstreamError(err)
	}
	return ports.VerifyFaceResult{
		Verification: entities.Verification{
			IsVerified: resp.Verification.IsVerified,
			MatchScore: resp.Verification.MatchScore,
			Status:     resp.Verification.Status,
		},
		Confidence:        resp.Confidence,
		AttemptsRemaining: resp.AttemptsRemaining,
	}, nil
}

func (c *VotingClient) CastVote(ctx context.Context, input ports.CastVoteInput) (ports.CastVoteResult, error) {
	headers := http.Header{}
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		// The caller mints one stable key per (session, position) pair so
		// the server can collapse retries of the same logical cast.
		headers.Set("Idempotency-Key", key)
	}

	var resp castVoteResponse
	err := c.client.PostJSONWithHeaders(ctx, "/voting/cast-vote", headers, castVoteRequest{
		ElectionID:  input.ElectionID,
		PositionID:  input.PositionID,
		CandidateID: input.CandidateID,
		SessionID:   input.SessionID,
	}, &resp)
	if err != nil {
		// The server dedupes by (session_id, position_id); its duplicate
		// rejection is success-equivalent for the caller.
		var statusErr *apiclient.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == codePositionAlreadyVoted {
			return ports.CastVoteResult{DuplicatePosition: true}, nil
		}
		return ports.CastVoteResult{}, mapUpstreamError(err)
	}
	return ports.CastVoteResult{
		VoteID:  resp.VoteID,
		Session: sessionFromDTO(resp.Session),
	}, nil
}

func (c *VotingClient) ElectionStatus(ctx context.Context, electionID string) (ports.ElectionStatusResult, error) {
	var resp electionStatusResponse
	err := c.client.GetJSON(ctx, "/voting/election/"+electionID+"/status", &resp)
	if err != nil {
		return ports.ElectionStatusResult{}, mapUpstreamError(err)
	}
	return ports.ElectionStatusResult{
		HasVoted:                   resp.HasVoted,
		VotesCast:                  resp.VotesCast,
		TotalPositions:             resp.TotalPositions,
		ActiveSessionID:            resp.ActiveSession,
		Positions:                  positionsFromDTO(resp.Positions),
		RequiresFacialVerification: resp.RequiresFacialVerification,
	}, nil
}

func (c *VotingClient) LiveResults(ctx context.Context, electionID string) (entities.LiveResultsSnapshot, error) {
	var resp liveResultsResponse
	err := c.client.GetJSON(ctx, "/voting/election/"+electionID+"/live-results", &resp)
	if err != nil {
		return entities.LiveResultsSnapshot{}, mapUpstreamError(err)
	}
	snapshot := entities.LiveResultsSnapshot{
		ElectionID:     electionID,
		TotalVotesCast: resp.TotalVotesCast,
		LastUpdated:    resp.LastUpdated,
		Positions:      make([]entities.PositionTally, 0, len(resp.Positions)),
	}
	for _, position := range resp.Positions {
		tally := entities.PositionTally{
			PositionID: position.PositionID,
			TotalVotes: position.TotalVotes,
			Candidates: make([]entities.CandidateTally, 0, len(position.Candidates)),
		}
		for _, candidate := range position.Candidates {
			tally.Candidates = append(tally.Candidates, entities.CandidateTally{
				CandidateID:    candidate.ID,
				VoteCount:      candidate.VoteCount,
				VotePercentage: candidate.VotePercentage,
			})
		}
		snapshot.Positions = append(snapshot.Positions, tally)
	}
	return snapshot, nil
}

// mapUpstreamError translates transport-level failures into domain
// semantics: 404 means the election is gone (fatal for the view), the
// already-voted 403 is a business rejection, and auth exhaustion passes
// through for the facade's login redirect.
func mapUpstreamError(err error) error {
	if errors.Is(err, apiclient.ErrAuthenticationRequired) {
		return err
	}
	var statusErr *apiclient.StatusError
	if !errors.As(err, &statusErr) {
		return err
	}
	switch {
	case statusErr.StatusCode == http.StatusNotFound && statusErr.Code == codeSessionNotFound:
		return domainerrors.ErrSessionNotFound
	case statusErr.StatusCode == http.StatusNotFound:
		return domainerrors.ErrElectionNotFound
	case statusErr.Code == codeAlreadyVoted:
		return domainerrors.ErrAlreadyVoted
	case statusErr.Code == codeElectionNotActive:
		return domainerrors.ErrElectionNotActive
	default:
		return err
	}
}

func sessionFromDTO(dto sessionDTO) entities.VotingSession {
	session := entities.VotingSession{
		SessionID:      dto.SessionID,
		ElectionID:     dto.ElectionID,
		VoterID:        dto.VoterID,
		Status:         entities.SessionStatus(dto.Status),
		VotesCast:      dto.VotesCast,
		TotalPositions: dto.TotalPositions,
		StartedAt:      dto.StartedAt,
		CompletedAt:    dto.CompletedAt,
	}
	if dto.Verification != nil {
		session.Verification = &entities.Verification{
			IsVerified: dto.Verification.IsVerified,
			MatchScore: dto.Verification.MatchScore,
			Status:     dto.Verification.Status,
		}
	}
	return session
}

func positionsFromDTO(dtos []positionStatusDTO) []entities.PositionStatus {
	positions := make([]entities.PositionStatus, 0, len(dtos))
	for _, dto := range dtos {
		positions = append(positions, entities.PositionStatus{
			PositionID: dto.PositionID,
			Name:       dto.Name,
			HasVoted:   dto.HasVoted,
			VotedAt:    dto.VotedAt,
		})
	}
	return positions
}
