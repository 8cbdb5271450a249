package ports

import (
	"context"
	"time"

	"votegate/contexts/voter-experience/voting-orchestrator/domain/entities"
)

// StartSessionResult is the upstream response to a session start.
type StartSessionResult struct {
	Session                    entities.VotingSession
	RequiresFacialVerification bool
}

// SessionStatusResult is the resumable view of a session: the session record
// plus the per-position voted flags the server tracks.
type SessionStatusResult struct {
	Session   entities.VotingSession
	Positions []entities.PositionStatus
}

// VerifyFaceResult carries the biometric outcome. AttemptsRemaining is the
// server-authoritative budget; the orchestrator never decrements locally.
type VerifyFaceResult struct {
	Verification      entities.Verification
	Confidence        float64
	AttemptsRemaining int
}

type CastVoteInput struct {
	ElectionID     string
	PositionID     string
	CandidateID    string
	SessionID      string
	IdempotencyKey string
}

// CastVoteResult reports a cast. DuplicatePosition marks the server-side
// "already voted for this position" rejection, which callers treat as
// success-equivalent.
type CastVoteResult struct {
	VoteID            string
	Session           entities.VotingSession
	DuplicatePosition bool
}

type ElectionStatusResult struct {
	HasVoted                   bool
	VotesCast                  int
	TotalPositions             int
	ActiveSessionID            string
	Positions                  []entities.PositionStatus
	RequiresFacialVerification bool
}

// VotingAPI is the remote election/voting collaborator. Implementations map
// transport failures to domain sentinel errors; business rejections that are
// success-equivalent surface in the result structs instead.
type VotingAPI interface {
	StartSession(ctx context.Context, electionID string) (StartSessionResult, error)
	SessionStatus(ctx context.Context, sessionID string) (SessionStatusResult, error)
	CompleteSession(ctx context.Context, sessionID string) (entities.VotingSession, error)
	VerifyFace(ctx context.Context, electionID, sessionID string, frame []byte) (VerifyFaceResult, error)
	CastVote(ctx context.Context, input CastVoteInput) (CastVoteResult, error)
	ElectionStatus(ctx context.Context, electionID string) (ElectionStatusResult, error)
	LiveResults(ctx context.Context, electionID string) (entities.LiveResultsSnapshot, error)
}

// Camera is an open, exclusive device handle. Capture returns one still
// frame mirrored to match the live preview. Close releases the device and
// is safe to call more than once.
type Camera interface {
	Capture(ctx context.Context) ([]byte, error)
	Close() error
}

// CameraProvider hands out the single camera handle. Open fails with
// ErrCameraBusy while a previous handle is unreleased.
type CameraProvider interface {
	Open(ctx context.Context) (Camera, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// ResultsPublisher fans applied snapshots out to display subscribers.
type ResultsPublisher interface {
	Publish(ctx context.Context, topic string, update entities.ResultsUpdate) error
}
