package rank

import (
	"fmt"

	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/shared"
)

// Match scores one candidate release against a local track set.
//
// An m×n matrix of [TrackCost] values is solved as a minimum-cost bipartite
// assignment; the candidate's score is the assignment total plus
// [ReleaseCost]. When the local set has more tracks than the candidate, the
// matrix is padded with synthetic columns costing one more than the largest
// observed cost, so a padded column is only ever chosen when no real column
// remains. Local tracks landing on a padded column are reported as
// [models.Unmatched].
//
// If either track list is empty there is nothing to compare and the result
// is score 0 with an empty alignment.
func Match(local models.LocalTrackSet, candidate models.CandidateRelease) (models.MatchResult, error) {
	result := models.MatchResult{CandidateID: candidate.ID}

	rows := len(local.Tracks)
	cols := len(candidate.Tracks)
	if rows == 0 || cols == 0 {
		return result, nil
	}

	width := cols
	if rows > cols {
		width = rows
	}
	cost := make([][]int64, rows)
	var max int64
	for i, lt := range local.Tracks {
		cost[i] = make([]int64, cols, width)
		for j, ct := range candidate.Tracks {
			c := TrackCost(lt, ct)
			cost[i][j] = c
			if c > max {
				max = c
			}
		}
	}

	if rows > cols {
		pad := max + 1
		for i := range cost {
			for j := cols; j < rows; j++ {
				cost[i] = append(cost[i], pad)
			}
		}
	}

	total, rowToCol, err := assign(cost)
	if err != nil {
		return result, err
	}

	alignment := make([]int, rows)
	for i, j := range rowToCol {
		if j >= cols {
			alignment[i] = models.Unmatched
		} else {
			alignment[i] = j
		}
	}

	result.Score = total + ReleaseCost(local, candidate)
	result.Alignment = alignment
	return result, nil
}

// Best scores every candidate and returns the one with the lowest score.
// Ties are broken by input order: the first candidate seen wins, so a rerun
// over the same list is reproducible.
func Best(local models.LocalTrackSet, candidates []models.CandidateRelease) (models.MatchResult, error) {
	if len(candidates) == 0 {
		return models.MatchResult{}, fmt.Errorf("%w: nothing to score for %q", shared.ErrNoCandidates, local.Title)
	}

	var best models.MatchResult
	for i, candidate := range candidates {
		result, err := Match(local, candidate)
		if err != nil {
			return models.MatchResult{}, err
		}
		if i == 0 || result.Score < best.Score {
			best = result
		}
	}
	return best, nil
}
