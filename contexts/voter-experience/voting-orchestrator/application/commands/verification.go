package commands

import (
	"context"
	"log/slog"
	"sync"

	application "votegate/contexts/voter-experience/voting-orchestrator/application"
	"votegate/contexts/voter-experience/voting-orchestrator/domain/entities"
	domainerrors "votegate/contexts/voter-experience/voting-orchestrator/domain/errors"
	"votegate/contexts/voter-experience/voting-orchestrator/ports"
)

// VerificationCoordinator drives biometric verification: it holds the
// exclusive camera handle, captures one still frame per attempt, submits it,
// and tracks the server-reported attempt budget. The camera is released on
// every exit path, including teardown while a submit is still in flight.
type VerificationCoordinator struct {
	sessions *SessionController
	api      ports.VotingAPI
	cameras  ports.CameraProvider
	logger   *slog.Logger

	mu                sync.Mutex
	camera            ports.Camera
	attemptsRemaining int
	closed            bool
}

// AttemptOutcome reports one verification attempt. Blocked marks attempt
// exhaustion; it is a state, not an error.
type AttemptOutcome struct {
	Verified          bool
	MatchScore        float64
	AttemptsRemaining int
	Blocked           bool
}

func NewVerificationCoordinator(
	sessions *SessionController,
	api ports.VotingAPI,
	cameras ports.CameraProvider,
	maxAttempts int,
	logger *slog.Logger,
) *VerificationCoordinator {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &VerificationCoordinator{
		sessions:          sessions,
		api:               api,
		cameras:           cameras,
		logger:            application.ResolveLogger(logger),
		attemptsRemaining: maxAttempts,
	}
}

// AcquireCamera opens the device for the live preview. Acquiring while the
// handle is already held is a programmer error, and no capture is permitted
// once the attempt budget is gone.
func (v *VerificationCoordinator) AcquireCamera(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return domainerrors.ErrVerificationClosed
	}
	if v.camera != nil {
		return domainerrors.ErrCameraBusy
	}
	if v.attemptsRemaining <= 0 {
		return domainerrors.ErrAttemptsExhausted
	}
	session, ok := v.sessions.Snapshot()
	if !ok {
		return domainerrors.ErrNoActiveSession
	}
	switch session.Status {
	case entities.SessionStatusVerifying:
	case entities.SessionStatusStarted:
		// Engaging the camera is what opens the verification phase.
		if err := v.sessions.BeginVerification(); err != nil {
			return err
		}
	default:
		return domainerrors.ErrVerificationNotOpen
	}

	camera, err := v.cameras.Open(ctx)
	if err != nil {
		return err
	}
	v.camera = camera
	v.logger.Info("camera acquired",
		"event", "verification_camera_acquired",
		"module", "voter-experience/voting-orchestrator",
		"layer", "application",
		"session_id", session.SessionID,
	)
	return nil
}

// ReleaseCamera closes the device handle. Safe to call when not held.
func (v *VerificationCoordinator) ReleaseCamera() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.releaseLocked()
}

// Retake drops the current frame preview and re-opens the device so the
// voter can line up again before the next capture.
func (v *VerificationCoordinator) Retake(ctx context.Context) error {
	v.ReleaseCamera()
	return v.AcquireCamera(ctx)
}

// Attempt captures one frame and submits it for verification. The camera is
// stopped for the duration of the upstream call; on a failed match with
// budget remaining it is re-acquired for the retry, on success or
// exhaustion it stays released.
func (v *VerificationCoordinator) Attempt(ctx context.Context) (AttemptOutcome, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return AttemptOutcome{}, domainerrors.ErrVerificationClosed
	}
	if v.attemptsRemaining <= 0 {
		v.releaseLocked()
		v.mu.Unlock()
		return AttemptOutcome{}, domainerrors.ErrAttemptsExhausted
	}
	if v.camera == nil {
		v.mu.Unlock()
		return AttemptOutcome{}, domainerrors.ErrCameraNotHeld
	}
	camera := v.camera
	v.mu.Unlock()

	session, ok := v.sessions.Snapshot()
	if !ok {
		v.ReleaseCamera()
		return AttemptOutcome{}, domainerrors.ErrNoActiveSession
	}
	if session.Status != entities.SessionStatusVerifying {
		v.ReleaseCamera()
		return AttemptOutcome{}, domainerrors.ErrVerificationNotOpen
	}

	frame, err := camera.Capture(ctx)
	if err != nil {
		v.ReleaseCamera()
		return AttemptOutcome{}, err
	}

	// Device not needed while the frame is in flight.
	v.ReleaseCamera()

	result, err := v.api.VerifyFace(ctx, session.ElectionID, session.SessionID, frame)

	v.mu.Lock()
	if v.closed {
		// View torn down while the call was in flight: the result is
		// discarded and the device has already been released.
		v.mu.Unlock()
		return AttemptOutcome{}, domainerrors.ErrVerificationClosed
	}
	v.mu.Unlock()

	if err != nil {
		v.logger.Warn("verification submit failed",
			"event", "verification_submit_failed",
			"module", "voter-experience/voting-orchestrator",
			"layer", "application",
			"session_id", session.SessionID,
			"error", err.Error(),
		)
		return AttemptOutcome{}, err
	}

	if result.Verification.IsVerified {
		if err := v.sessions.MarkVerified(result.Verification); err != nil {
			return AttemptOutcome{}, err
		}
		v.logger.Info("verification succeeded",
			"event", "verification_succeeded",
			"module", "voter-experience/voting-orchestrator",
			"layer", "application",
			"session_id", session.SessionID,
			"match_score", result.Verification.MatchScore,
		)
		return AttemptOutcome{
			Verified:          true,
			MatchScore:        result.Verification.MatchScore,
			AttemptsRemaining: v.AttemptsRemaining(),
		}, nil
	}

	// The server owns the budget; whatever it reports replaces the local
	// view wholesale.
	v.mu.Lock()
	v.attemptsRemaining = result.AttemptsRemaining
	exhausted := v.attemptsRemaining <= 0
	v.mu.Unlock()

	v.logger.Warn("verification attempt failed",
		"event", "verification_attempt_failed",
		"module", "voter-experience/voting-orchestrator",
		"layer", "application",
		"session_id", session.SessionID,
		"attempts_remaining", result.AttemptsRemaining,
	)

	if exhausted {
		if err := v.sessions.MarkBlocked(); err != nil {
			return AttemptOutcome{}, err
		}
		return AttemptOutcome{
			AttemptsRemaining: 0,
			Blocked:           true,
		}, nil
	}

	if err := v.AcquireCamera(ctx); err != nil {
		return AttemptOutcome{}, err
	}
	return AttemptOutcome{
		AttemptsRemaining: result.AttemptsRemaining,
	}, nil
}

// AttemptsRemaining returns the last server-reported budget.
func (v *VerificationCoordinator) AttemptsRemaining() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.attemptsRemaining
}

// CameraHeld reports whether the device handle is currently open.
func (v *VerificationCoordinator) CameraHeld() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.camera != nil
}

// Teardown releases the device synchronously and discards any in-flight
// verification result. Called on view teardown.
func (v *VerificationCoordinator) Teardown() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.releaseLocked()
}

func (v *VerificationCoordinator) releaseLocked() {
	if v.camera == nil {
		return
	}
	if err := v.camera.Close(); err != nil {
		v.logger.Warn("camera release failed",
			"event", "verification_camera_release_failed",
			"module", "voter-experience/voting-orchestrator",
			"layer", "application",
			"error", err.Error(),
		)
	}
	v.camera = nil
	v.logger.Info("camera released",
		"event", "verification_camera_released",
		"module", "voter-experience/voting-orchestrator",
		"layer", "application",
	)
}
