package selection

import (
	"strings"
	"unicode"
)

// Score is the Bayesian weighted rating
// (voteAverage*voteCount + priorMean*k) / (voteCount + k).
func Score(c Candidate, k, priorMean float64) float64 {
	votes := float64(c.VoteCount)
	if votes < 0 {
		votes = 0
	}
	den := votes + k
	if den <= 0 {
		return priorMean
	}
	return (c.VoteAverage*votes + priorMean*k) / den
}

// IsLatinTitle reports whether s has at least one letter below code point 256.
func IsLatinTitle(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	for _, r := range s {
		if r < 256 && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// IsAdmissible applies every predicate of the category to c. cfg must
// already carry defaults.
func IsAdmissible(c Candidate, cfg Config, d *Descriptor) bool {
	_, ok := admissibleScore(c, cfg, d)
	return ok
}

func admissibleScore(c Candidate, cfg Config, d *Descriptor) (float64, bool) {
	score := Score(c, cfg.PriorStrength, cfg.PriorMean)
	if c.ID <= 0 {
		return score, false
	}
	if score < cfg.MinWeightedScore {
		return score, false
	}
	if c.VoteCount < cfg.MinVoteCount {
		return score, false
	}
	// a null genre list cannot prove the exclusions hold
	if len(cfg.ExcludedGenres) > 0 && c.GenreIDs == nil {
		return score, false
	}
	for _, g := range cfg.ExcludedGenres {
		if hasGenre(c.GenreIDs, g) {
			return score, false
		}
	}
	if d != nil {
		if d.RequireLatinTitle && !IsLatinTitle(c.Title) {
			return score, false
		}
		if d.Requires != nil && !d.Requires(c) {
			return score, false
		}
	}
	return score, true
}

// Filter returns the admissible subset of candidates with their scores.
// Duplicate ids keep their first occurrence.
func Filter(candidates []Candidate, cfg Config, d *Descriptor) []ScoredCandidate {
	seen := make(map[int]bool, len(candidates))
	out := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		if score, ok := admissibleScore(c, cfg, d); ok {
			out = append(out, ScoredCandidate{Candidate: c, Score: score})
		}
	}
	return out
}

func hasGenre(ids []int, genre int) bool {
	for _, id := range ids {
		if id == genre {
			return true
		}
	}
	return false
}
