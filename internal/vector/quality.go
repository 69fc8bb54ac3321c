package vector

// DuplicatePair identifies two candidates whose similarity meets or exceeds
// the duplicate threshold.
type DuplicatePair struct {
	AID        string
	BID        string
	Similarity float64
}

// Outlier identifies a candidate whose mean similarity to the rest of the
// set falls below the outlier threshold.
type Outlier struct {
	ID             string
	MeanSimilarity float64
}

// FindDuplicates scans all candidate pairs and returns those with similarity
// >= threshold. Pairs with mismatched dimensions are skipped. This is an
// offline quality check, O(n^2 * dim), not for the query hot path.
func FindDuplicates(candidates []Candidate, threshold float64) []DuplicatePair {
	var dups []DuplicatePair
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if len(candidates[i].Embedding) != len(candidates[j].Embedding) {
				continue
			}
			sim, err := CosineSimilarity(candidates[i].Embedding, candidates[j].Embedding)
			if err != nil {
				continue
			}
			if sim >= threshold {
				dups = append(dups, DuplicatePair{
					AID:        candidates[i].ID,
					BID:        candidates[j].ID,
					Similarity: sim,
				})
			}
		}
	}
	return dups
}

// FindOutliers returns candidates whose mean similarity against every other
// candidate is below threshold. Sets of fewer than three candidates have no
// meaningful outliers and return nil.
func FindOutliers(candidates []Candidate, threshold float64) []Outlier {
	if len(candidates) < 3 {
		return nil
	}
	var outliers []Outlier
	for i := range candidates {
		var total float64
		var count int
		for j := range candidates {
			if i == j || len(candidates[i].Embedding) != len(candidates[j].Embedding) {
				continue
			}
			sim, err := CosineSimilarity(candidates[i].Embedding, candidates[j].Embedding)
			if err != nil {
				continue
			}
			total += sim
			count++
		}
		if count == 0 {
			continue
		}
		mean := total / float64(count)
		if mean < threshold {
			outliers = append(outliers, Outlier{ID: candidates[i].ID, MeanSimilarity: mean})
		}
	}
	return outliers
}
