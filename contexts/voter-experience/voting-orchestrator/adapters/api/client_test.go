package apiadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainerrors "votegate/contexts/voter-experience/voting-orchestrator/domain/errors"
	"votegate/contexts/voter-experience/voting-orchestrator/ports"
	"votegate/internal/platform/apiclient"
)

func newTestClient(t *testing.T, handler http.Handler) (*VotingClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	tokens := apiclient.NewTokenSource(apiclient.Credentials{AccessToken: "access-1", RefreshToken: "refresh-1"}, 0)
	return NewVotingClient(apiclient.NewClient(server.URL, tokens, time.Second, nil), nil), server
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"code":    code,
		"message": message,
	})
}

func TestStartSessionMapsAlreadyVoted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /voting/session/start", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusForbidden, "already_voted", "voter has already voted")
	})
	client, _ := newTestClient(t, mux)

	if _, err := client.StartSession(context.Background(), "election-1"); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}
}

func TestStartSessionMapsInactiveElection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /voting/session/start", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusConflict, "election_not_active", "election is closed")
	})
	client, _ := newTestClient(t, mux)

	if _, err := client.StartSession(context.Background(), "election-1"); !errors.Is(err, domainerrors.ErrElectionNotActive) {
		t.Fatalf("expected ErrElectionNotActive, got %v", err)
	}
}

func TestNotFoundMapsPerErrorCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /voting/session/session-1/status", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "session_not_found", "session expired")
	})
	mux.HandleFunc("GET /voting/election/election-9/status", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such election")
	})
	client, _ := newTestClient(t, mux)

	if _, err := client.SessionStatus(context.Background(), "session-1"); !errors.Is(err, domainerrors.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := client.ElectionStatus(context.Background(), "election-9"); !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected ErrElectionNotFound, got %v", err)
	}
}

func TestCastVoteDuplicateIsSuccessEquivalent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /voting/cast-vote", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusConflict, "position_already_voted", "vote already recorded for position")
	})
	client, _ := newTestClient(t, mux)

	result, err := client.CastVote(context.Background(), ports.CastVoteInput{
		ElectionID:  "election-1",
		PositionID:  "president",
		CandidateID: "cand-a",
		SessionID:   "session-1",
	})
	if err != nil {
		t.Fatalf("duplicate rejection must not surface as error, got %v", err)
	}
	if !result.DuplicatePosition {
		t.Fatalf("expected DuplicatePosition flag")
	}
}

func TestCastVoteSendsStableIdempotencyKey(t *testing.T) {
	var seenKeys []string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /voting/cast-vote", func(w http.ResponseWriter, r *http.Request) {
		seenKeys = append(seenKeys, r.Header.Get("Idempotency-Key"))
		// First attempt hits an expired token; the retry must carry the
		// same key so the server can collapse the two into one cast.
		if len(seenKeys) == 1 {
			writeError(w, http.StatusUnauthorized, "token_expired", "access token expired")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"vote_id": "vote-1",
			"session": map[string]any{"session_id": "session-1", "votes_cast": 1},
		})
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":       true,
			"access_token":  "access-2",
			"refresh_token": "refresh-2",
		})
	})
	client, _ := newTestClient(t, mux)

	result, err := client.CastVote(context.Background(), ports.CastVoteInput{
		ElectionID:     "election-1",
		PositionID:     "president",
		CandidateID:    "cand-a",
		SessionID:      "session-1",
		IdempotencyKey: "idem-key-1",
	})
	if err != nil {
		t.Fatalf("cast failed: %v", err)
	}
	if result.VoteID != "vote-1" {
		t.Fatalf("unexpected vote id: %q", result.VoteID)
	}
	if len(seenKeys) != 2 {
		t.Fatalf("expected original attempt plus retry, got %d requests", len(seenKeys))
	}
	if seenKeys[0] != "idem-key-1" || seenKeys[1] != "idem-key-1" {
		t.Fatalf("idempotency key must arrive unchanged on both attempts, got %v", seenKeys)
	}
}

func TestVerifyFaceSubmitsMultipartFrame(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /voting/verify-face", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "bad multipart body")
			return
		}
		if r.FormValue("session_id") != "session-1" || r.FormValue("election_id") != "election-1" {
			writeError(w, http.StatusBadRequest, "invalid_request", "missing fields")
			return
		}
		file, header, err := r.FormFile("face_image")
		if err != nil || header.Filename != "frame.jpg" {
			writeError(w, http.StatusBadRequest, "invalid_request", "missing frame")
			return
		}
		defer file.Close()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"verification": map[string]any{
				"is_verified": true,
				"match_score": 0.91,
				"status":      "verified",
			},
			"confidence":         0.91,
			"attempts_remaining": 2,
		})
	})
	client, _ := newTestClient(t, mux)

	result, err := client.VerifyFace(context.Background(), "election-1", "session-1", []byte("frame-bytes"))
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !result.Verification.IsVerified || result.Verification.MatchScore != 0.91 {
		t.Fatalf("unexpected verification: %+v", result.Verification)
	}
	if result.AttemptsRemaining != 2 {
		t.Fatalf("expected budget 2, got %d", result.AttemptsRemaining)
	}
}

func TestLiveResultsDecodesSnapshot(t *testing.T) {
	updated := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /voting/election/election-1/live-results", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":          true,
			"total_votes_cast": 24,
			"last_updated":     updated,
			"positions": []map[string]any{
				{
					"position_id": "president",
					"total_votes": 24,
					"candidates": []map[string]any{
						{"id": "cand-a", "vote_count": 14, "vote_percentage": 58.33},
						{"id": "cand-b", "vote_count": 10, "vote_percentage": 41.67},
					},
				},
			},
		})
	})
	client, _ := newTestClient(t, mux)

	snapshot, err := client.LiveResults(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("live results failed: %v", err)
	}
	if snapshot.ElectionID != "election-1" || snapshot.TotalVotesCast != 24 {
		t.Fatalf("unexpected snapshot header: %+v", snapshot)
	}
	if len(snapshot.Positions) != 1 || len(snapshot.Positions[0].Candidates) != 2 {
		t.Fatalf("unexpected snapshot shape: %+v", snapshot.Positions)
	}
	if snapshot.Positions[0].Candidates[0].CandidateID != "cand-a" {
		t.Fatalf("unexpected candidate mapping: %+v", snapshot.Positions[0].Candidates[0])
	}
	if !snapshot.LastUpdated.Equal(updated) {
		t.Fatalf("expected last_updated %v, got %v", updated, snapshot.LastUpdated)
	}
}
