package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	votingorchestrator "votegate/contexts/voter-experience/voting-orchestrator"
	"votegate/contexts/voter-experience/voting-orchestrator/application/workers"
	orchestratorerrors "votegate/contexts/voter-experience/voting-orchestrator/domain/errors"
	orchestratorhttp "votegate/contexts/voter-experience/voting-orchestrator/transport/http"
	"votegate/internal/platform/apiclient"
	"votegate/internal/platform/messaging"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "votegate/internal/platform/httpserver/docs"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	orchestrator votingorchestrator.Module
	bus          *messaging.Bus
}

func New(
	orchestrator votingorchestrator.Module,
	bus *messaging.Bus,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		orchestrator: orchestrator,
		bus:          bus,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/voting/session/start", s.handleStartSession)
	s.mux.HandleFunc("GET /api/voting/session/{session_id}/status", s.handleSessionStatus)
	s.mux.HandleFunc("POST /api/voting/session/complete", s.handleCompleteSession)
	s.mux.HandleFunc("POST /api/voting/session/abandon", s.handleAbandonSession)
	s.mux.HandleFunc("POST /api/voting/verification/attempt", s.handleVerificationAttempt)
	s.mux.HandleFunc("POST /api/voting/selection", s.handleSelection)
	s.mux.HandleFunc("POST /api/voting/cast-vote", s.handleCastVote)
	s.mux.HandleFunc("GET /api/voting/election/{election_id}/status", s.handleElectionStatus)
	s.mux.HandleFunc("GET /api/voting/election/{election_id}/live-results", s.handleLiveResults)
	s.mux.HandleFunc("POST /api/voting/election/{election_id}/live-results/refresh", s.handleRefreshResults)
	s.mux.HandleFunc("GET /api/voting/election/{election_id}/live-results/stream", s.handleResultsStream)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req orchestratorhttp.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.orchestrator.Handler.StartSessionHandler(r.Context(), req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	resp, err := s.orchestrator.Handler.SessionStatusHandler(r.Context(), sessionID)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	var req orchestratorhttp.CompleteSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.orchestrator.Handler.CompleteSessionHandler(r.Context(), req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAbandonSession(w http.ResponseWriter, r *http.Request) {
	var req orchestratorhttp.AbandonSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.orchestrator.Handler.AbandonSessionHandler(r.Context(), req); err != nil {
		writeVotingDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVerificationAttempt(w http.ResponseWriter, r *http.Request) {
	var req orchestratorhttp.VerificationAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.orchestrator.Handler.VerificationAttemptHandler(r.Context(), req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req orchestratorhttp.SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.orchestrator.Handler.SelectionHandler(r.Context(), req); err != nil {
		writeVotingDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req orchestratorhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.orchestrator.Handler.CastVoteHandler(r.Context(), req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleElectionStatus(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("election_id")
	resp, err := s.orchestrator.Handler.ElectionStatusHandler(r.Context(), electionID)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLiveResults(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("election_id")
	resp, err := s.orchestrator.Handler.LiveResultsHandler(r.Context(), electionID)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefreshResults(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("election_id")
	resp, err := s.orchestrator.Handler.RefreshResultsHandler(r.Context(), electionID)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleResultsStream pushes every applied results update to the client as
// server-sent events. Connecting starts the shared poller if it is idle;
// the poller outlives individual streams.
func (s *Server) handleResultsStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeVotingError(w, http.StatusInternalServerError, "streaming_unsupported", "response writer does not support streaming")
		return
	}
	electionID := r.PathValue("election_id")

	if err := s.orchestrator.Poller.Start(context.Background(), electionID); err != nil &&
		!errors.Is(err, orchestratorerrors.ErrPollerRunning) {
		writeVotingDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	updates := s.bus.Subscribe(r.Context(), workers.ResultsTopic)
	for update := range updates {
		if update.Snapshot.ElectionID != electionID {
			continue
		}
		payload, err := json.Marshal(orchestratorhttp.ResultsUpdateEvent{
			ElectionID:     update.Snapshot.ElectionID,
			TotalVotesCast: update.Snapshot.TotalVotesCast,
			Sequence:       update.Sequence,
			LastUpdated:    update.Snapshot.LastUpdated,
		})
		if err != nil {
			continue
		}
		if _, err := w.Write(append(append([]byte("data: "), payload...), '\n', '\n')); err != nil {
			return
		}
		flusher.Flush()
	}
}

func writeVotingDomainError(w http.ResponseWriter, err error) {
	var upstream *apiclient.StatusError
	switch {
	case errors.Is(err, orchestratorerrors.ErrInvalidInput):
		writeVotingError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, orchestratorerrors.ErrElectionNotFound):
		writeVotingError(w, http.StatusNotFound, "election_not_found", err.Error())
	case errors.Is(err, orchestratorerrors.ErrSessionNotFound),
		errors.Is(err, orchestratorerrors.ErrNoActiveSession),
		errors.Is(err, orchestratorerrors.ErrSelectionNotFound):
		writeVotingError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, orchestratorerrors.ErrAlreadyVoted):
		writeVotingError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, orchestratorerrors.ErrElectionNotActive):
		writeVotingError(w, http.StatusConflict, "election_not_active", err.Error())
	case errors.Is(err, orchestratorerrors.ErrSessionInProgress),
		errors.Is(err, orchestratorerrors.ErrSessionCompleted),
		errors.Is(err, orchestratorerrors.ErrInvalidTransition),
		errors.Is(err, orchestratorerrors.ErrVotingNotOpen),
		errors.Is(err, orchestratorerrors.ErrPositionAlreadyVoted),
		errors.Is(err, orchestratorerrors.ErrPositionsRemaining),
		errors.Is(err, orchestratorerrors.ErrVerificationNotOpen),
		errors.Is(err, orchestratorerrors.ErrVerificationClosed),
		errors.Is(err, orchestratorerrors.ErrCameraBusy),
		errors.Is(err, orchestratorerrors.ErrCameraNotHeld),
		errors.Is(err, orchestratorerrors.ErrPollerRunning):
		writeVotingError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, orchestratorerrors.ErrSessionBlocked),
		errors.Is(err, orchestratorerrors.ErrAttemptsExhausted):
		writeVotingError(w, http.StatusForbidden, "verification_blocked", err.Error())
	case errors.Is(err, orchestratorerrors.ErrRefreshInFlight):
		writeVotingError(w, http.StatusTooManyRequests, "refresh_in_flight", err.Error())
	case errors.Is(err, apiclient.ErrAuthenticationRequired):
		writeVotingError(w, http.StatusUnauthorized, "authentication_required", err.Error())
	case errors.As(err, &upstream):
		writeVotingError(w, http.StatusBadGateway, "upstream_error", upstream.Message)
	default:
		writeVotingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVotingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, orchestratorhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
