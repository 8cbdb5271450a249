package entities

import "time"

// CandidateTally is one candidate's aggregated count inside a snapshot.
type CandidateTally struct {
	CandidateID    string
	VoteCount      int
	VotePercentage float64
}

// PositionTally is the per-position slice of a live-results snapshot.
type PositionTally struct {
	PositionID string
	Candidates []CandidateTally
	TotalVotes int
}

// LiveResultsSnapshot is one immutable poll result. Snapshots replace each
// other wholesale; they are never merged incrementally.
type LiveResultsSnapshot struct {
	ElectionID     string
	TotalVotesCast int
	Positions      []PositionTally
	LastUpdated    time.Time
}

// PositionLeaders is the winner set for one position in one snapshot. Draw
// is true when two or more candidates share the maximum vote count.
type PositionLeaders struct {
	PositionID string
	Leaders    []string
	VoteCount  int
	Draw       bool
}

// ResultsUpdate pairs an applied snapshot with its computed leaders and the
// monotonic sequence number used for latest-request-wins ordering.
type ResultsUpdate struct {
	Snapshot  LiveResultsSnapshot
	Leaders   []PositionLeaders
	Sequence  uint64
	FetchedAt time.Time
}
