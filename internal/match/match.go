// Package match scores provider search results against the (title, artist)
// pair we are trying to resolve. Scoring is deterministic: candidates are
// evaluated in discovery order and ties keep the first-seen candidate.
package match

import (
	"strings"

	"genre-backfill/internal/normalize"
)

// Candidate is one provider search-result item under evaluation.
type Candidate struct {
	ID         string
	Title      string
	Artist     string
	Popularity int // roughly 0-100 where the provider reports one
}

// Weights holds the scoring constants. The values are empirically tuned,
// not load-bearing invariants; keep them adjustable rather than inline.
type Weights struct {
	TitleExact     float64
	TitlePrefix    float64
	TitleSubstring float64

	ArtistExact     float64
	ArtistPrefix    float64
	ArtistSubstring float64

	// Artist-only searches weight the name term higher since there is no
	// title signal to lean on.
	NameExact     float64
	NamePrefix    float64
	NameSubstring float64

	PopularityFactor float64
}

// DefaultWeights returns the standard scoring constants.
func DefaultWeights() Weights {
	return Weights{
		TitleExact:     8,
		TitlePrefix:    5,
		TitleSubstring: 3,

		ArtistExact:     6,
		ArtistPrefix:    3,
		ArtistSubstring: 2,

		NameExact:     10,
		NamePrefix:    6,
		NameSubstring: 3,

		PopularityFactor: 0.01,
	}
}

// termScore rates how closely two normalized strings agree, given the
// exact/prefix/substring weights for the term.
func termScore(got, wanted string, exact, prefix, substring float64) float64 {
	if got == "" || wanted == "" {
		return 0
	}
	switch {
	case got == wanted:
		return exact
	case strings.HasPrefix(got, wanted) || strings.HasPrefix(wanted, got):
		return prefix
	case strings.Contains(got, wanted) || strings.Contains(wanted, got):
		return substring
	}
	return 0
}

// ScoreAlbum rates a single album candidate against the wanted title and
// artist. Inputs are normalized internally.
func (w Weights) ScoreAlbum(c Candidate, wantedTitle, wantedArtist string) float64 {
	score := termScore(normalize.ForComparison(c.Title), normalize.ForComparison(wantedTitle),
		w.TitleExact, w.TitlePrefix, w.TitleSubstring)
	if wantedArtist != "" {
		score += termScore(normalize.ForComparison(c.Artist), normalize.ForComparison(wantedArtist),
			w.ArtistExact, w.ArtistPrefix, w.ArtistSubstring)
	}
	return score + float64(c.Popularity)*w.PopularityFactor
}

// ScoreArtist rates a single artist candidate against the wanted name.
func (w Weights) ScoreArtist(c Candidate, wantedName string) float64 {
	score := termScore(normalize.ForComparison(c.Artist), normalize.ForComparison(wantedName),
		w.NameExact, w.NamePrefix, w.NameSubstring)
	return score + float64(c.Popularity)*w.PopularityFactor
}

// PickBestAlbum returns the highest-scoring album candidate, or nil when
// the list is empty. A strict greater-than comparison keeps the first-seen
// candidate on ties.
func (w Weights) PickBestAlbum(candidates []Candidate, wantedTitle, wantedArtist string) *Candidate {
	var best *Candidate
	bestScore := 0.0
	for i := range candidates {
		score := w.ScoreAlbum(candidates[i], wantedTitle, wantedArtist)
		if best == nil || score > bestScore {
			best = &candidates[i]
			bestScore = score
		}
	}
	return best
}

// PickBestArtist returns the highest-scoring artist candidate, or nil when
// the list is empty.
func (w Weights) PickBestArtist(candidates []Candidate, wantedName string) *Candidate {
	var best *Candidate
	bestScore := 0.0
	for i := range candidates {
		score := w.ScoreArtist(candidates[i], wantedName)
		if best == nil || score > bestScore {
			best = &candidates[i]
			bestScore = score
		}
	}
	return best
}
