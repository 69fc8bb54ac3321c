package vector

import (
	"fmt"
	"sort"
)

// Candidate is a vector under consideration for ranking, identified by the
// knowledge item it embeds.
type Candidate struct {
	ID        string
	Embedding []float32
}

// Match is a ranked hit. Index is the candidate's position in the input
// slice, so callers can map back to their own record structures.
type Match struct {
	Index      int
	ID         string
	Similarity float64
}

// FindMostSimilar ranks candidates against query by cosine similarity,
// filters out hits below minSimilarity, and returns at most topK matches in
// descending similarity order. Ties keep candidate input order (stable sort),
// so results are deterministic for a fixed candidate slice. Candidates whose
// dimension differs from the query are skipped; they can never be legitimate
// hits. A topK of zero or less returns no matches.
func FindMostSimilar(query []float32, candidates []Candidate, topK int, minSimilarity float64) ([]Match, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", ErrDimensionMismatch)
	}
	if topK <= 0 || len(candidates) == 0 {
		return nil, nil
	}
	matches := make([]Match, 0, len(candidates))
	for i, c := range candidates {
		if len(c.Embedding) != len(query) {
			continue
		}
		sim, err := CosineSimilarity(query, c.Embedding)
		if err != nil {
			return nil, err
		}
		if sim < minSimilarity {
			continue
		}
		matches = append(matches, Match{Index: i, ID: c.ID, Similarity: sim})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}
