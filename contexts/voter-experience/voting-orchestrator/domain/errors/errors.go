package errors

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid voting input")
	ErrElectionNotFound     = errors.New("election not found")
	ErrElectionNotActive    = errors.New("election is not active")
	ErrSessionNotFound      = errors.New("voting session not found")
	ErrNoActiveSession      = errors.New("no active voting session")
	ErrSessionInProgress    = errors.New("a voting session is already in progress")
	ErrSessionCompleted     = errors.New("voting session is already completed")
	ErrSessionBlocked       = errors.New("voting session is blocked")
	ErrInvalidTransition    = errors.New("invalid session status transition")
	ErrAlreadyVoted         = errors.New("voter has already voted in this election")
	ErrVotingNotOpen        = errors.New("session is not in the voting phase")
	ErrPositionAlreadyVoted = errors.New("position has already been voted")
	ErrPositionsRemaining   = errors.New("not all positions have been voted")
	ErrSelectionNotFound    = errors.New("no candidate selected for position")
	ErrVerificationNotOpen  = errors.New("session is not in the verification phase")
	ErrVerificationClosed   = errors.New("verification coordinator is closed")
	ErrAttemptsExhausted    = errors.New("verification attempts exhausted")
	ErrCameraBusy           = errors.New("camera is already acquired")
	ErrCameraNotHeld        = errors.New("camera is not acquired")
	ErrPollerRunning        = errors.New("results poller is already running")
	ErrRefreshInFlight      = errors.New("a results refresh is already in flight")
)
