package queries

import (
	"fmt"
	"math"
	"sort"

	"votegate/contexts/voter-experience/voting-orchestrator/domain/entities"
)

// percentTolerance absorbs rounding in server-computed percentages.
const percentTolerance = 0.5

// ResultsUseCase computes display aggregates from live-results snapshots.
type ResultsUseCase struct{}

// Leaders computes the winner set for every position from the full
// candidate list. A draw is any set of two or more candidates sharing the
// maximum vote count, not merely the top two overall.
func (uc ResultsUseCase) Leaders(snapshot entities.LiveResultsSnapshot) []entities.PositionLeaders {
	leaders := make([]entities.PositionLeaders, 0, len(snapshot.Positions))
	for _, position := range snapshot.Positions {
		entry := entities.PositionLeaders{PositionID: position.PositionID}
		for _, candidate := range position.Candidates {
			switch {
			case len(entry.Leaders) == 0 || candidate.VoteCount > entry.VoteCount:
				entry.VoteCount = candidate.VoteCount
				entry.Leaders = []string{candidate.CandidateID}
			case candidate.VoteCount == entry.VoteCount:
				entry.Leaders = append(entry.Leaders, candidate.CandidateID)
			}
		}
		sort.Strings(entry.Leaders)
		entry.Draw = len(entry.Leaders) > 1
		leaders = append(leaders, entry)
	}
	return leaders
}

// CheckSnapshot validates the per-position tally invariants and returns a
// description of each violation. Violations come from the upstream
// aggregator; the snapshot is still displayed, but they are worth logging.
func (uc ResultsUseCase) CheckSnapshot(snapshot entities.LiveResultsSnapshot) []string {
	var violations []string
	for _, position := range snapshot.Positions {
		sum := 0
		percent := 0.0
		for _, candidate := range position.Candidates {
			sum += candidate.VoteCount
			percent += candidate.VotePercentage
		}
		if sum != position.TotalVotes {
			violations = append(violations, fmt.Sprintf(
				"position %s: candidate counts sum to %d, total_votes is %d",
				position.PositionID, sum, position.TotalVotes,
			))
		}
		if position.TotalVotes > 0 && math.Abs(percent-100) > percentTolerance {
			violations = append(violations, fmt.Sprintf(
				"position %s: percentages sum to %.2f",
				position.PositionID, percent,
			))
		}
	}
	return violations
}

// CheckMonotonic compares consecutive snapshots for the same election.
// Votes are only ever added, so a shrinking count means the upstream served
// results out of order.
func (uc ResultsUseCase) CheckMonotonic(prev, next entities.LiveResultsSnapshot) []string {
	if prev.ElectionID != next.ElectionID {
		return nil
	}
	previous := make(map[string]int)
	for _, position := range prev.Positions {
		for _, candidate := range position.Candidates {
			previous[position.PositionID+"/"+candidate.CandidateID] = candidate.VoteCount
		}
	}

	var regressions []string
	for _, position := range next.Positions {
		for _, candidate := range position.Candidates {
			before, seen := previous[position.PositionID+"/"+candidate.CandidateID]
			if seen && candidate.VoteCount < before {
				regressions = append(regressions, fmt.Sprintf(
					"position %s candidate %s: count fell from %d to %d",
					position.PositionID, candidate.CandidateID, before, candidate.VoteCount,
				))
			}
		}
	}
	return regressions
}
