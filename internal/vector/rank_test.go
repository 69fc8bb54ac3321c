package vector

import (
	"errors"
	"math"
	"testing"
)

func TestFindMostSimilar_OrderAndLimit(t *testing.T) {
	query := []float32{1, 0, 0}
	candidates := []Candidate{
		{ID: "far", Embedding: []float32{0, 1, 0}},
		{ID: "close", Embedding: []float32{0.9, 0.1, 0}},
		{ID: "exact", Embedding: []float32{1, 0, 0}},
	}
	matches, err := FindMostSimilar(query, candidates, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != "exact" || matches[1].ID != "close" {
		t.Errorf("order = %s, %s; want exact, close", matches[0].ID, matches[1].ID)
	}
	if math.Abs(matches[0].Similarity-1.0) > 1e-6 {
		t.Errorf("exact match similarity = %v, want 1.0", matches[0].Similarity)
	}
}

func TestFindMostSimilar_MinSimilarity(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{0, 1}},
	}
	matches, err := FindMostSimilar(query, candidates, 10, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].ID != "a" {
		t.Fatalf("expected only a, got %v", matches)
	}
	for _, m := range matches {
		if m.Similarity < 0.5 {
			t.Errorf("match %s below minSimilarity: %v", m.ID, m.Similarity)
		}
	}
}

func TestFindMostSimilar_StableTies(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ID: "first", Embedding: []float32{1, 0}},
		{ID: "second", Embedding: []float32{2, 0}}, // same direction, same similarity
	}
	matches, err := FindMostSimilar(query, candidates, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if matches[0].ID != "first" || matches[1].ID != "second" {
		t.Errorf("tie order not stable: %s, %s", matches[0].ID, matches[1].ID)
	}
}

func TestFindMostSimilar_SkipsMismatchedCandidates(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ID: "bad", Embedding: []float32{1, 0, 0}},
		{ID: "good", Embedding: []float32{1, 0}},
	}
	matches, err := FindMostSimilar(query, candidates, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].ID != "good" {
		t.Fatalf("expected only good, got %v", matches)
	}
	if matches[0].Index != 1 {
		t.Errorf("Index = %d, want 1", matches[0].Index)
	}
}

func TestFindMostSimilar_EmptyQuery(t *testing.T) {
	_, err := FindMostSimilar(nil, []Candidate{{ID: "a", Embedding: []float32{1}}}, 5, 0)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestFindMostSimilar_ZeroTopK(t *testing.T) {
	matches, err := FindMostSimilar([]float32{1}, []Candidate{{ID: "a", Embedding: []float32{1}}}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches for topK=0, got %d", len(matches))
	}
}
