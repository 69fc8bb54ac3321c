package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/caldera-ai/recall/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "knowledge.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := []*models.KnowledgeRecord{
		{
			ID:        "kb-1",
			Embedding: []float32{0.1, -0.2, 0.3},
			Metadata: models.KnowledgeMetadata{
				Title:      "Pricing",
				Content:    "Plans start at $10/month.",
				Category:   "pricing",
				SourceType: "faq",
				SourceURL:  "https://example.com/pricing",
			},
		},
		{
			Embedding: []float32{0.4, 0.5, 0.6},
			Metadata:  models.KnowledgeMetadata{Title: "Hours", Content: "Open 9-5."},
		},
	}
	if err := s.StoreVectors(ctx, "acme", records); err != nil {
		t.Fatal(err)
	}
	if records[1].ID == "" {
		t.Error("store should mint an ID for records without one")
	}

	got, err := s.GetAllVectors(ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	byID := map[string]*models.KnowledgeRecord{}
	for _, r := range got {
		byID[r.ID] = r
	}
	r1 := byID["kb-1"]
	if r1 == nil {
		t.Fatal("kb-1 missing")
	}
	if r1.Metadata.Title != "Pricing" || r1.Metadata.Category != "pricing" {
		t.Errorf("metadata round trip: %+v", r1.Metadata)
	}
	if len(r1.Embedding) != 3 || r1.Embedding[1] != -0.2 {
		t.Errorf("embedding round trip: %v", r1.Embedding)
	}

	count, err := s.CountVectors(ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestSQLiteStore_TenantIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.StoreVectors(ctx, "acme", []*models.KnowledgeRecord{
		{ID: "a", Embedding: []float32{1}, Metadata: models.KnowledgeMetadata{Content: "x"}},
	})
	_ = s.StoreVectors(ctx, "globex", []*models.KnowledgeRecord{
		{ID: "b", Embedding: []float32{1}, Metadata: models.KnowledgeMetadata{Content: "y"}},
	})

	got, err := s.GetAllVectors(ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("tenant isolation broken: %+v", got)
	}
}

func TestSQLiteStore_DeleteBySource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.StoreVectors(ctx, "acme", []*models.KnowledgeRecord{
		{ID: "a", Embedding: []float32{1}, Metadata: models.KnowledgeMetadata{Content: "x", SourceURL: "https://example.com/old"}},
		{ID: "b", Embedding: []float32{1}, Metadata: models.KnowledgeMetadata{Content: "y", SourceURL: "https://example.com/keep"}},
	})

	deleted, err := s.DeleteBySource(ctx, "acme", "https://example.com/old")
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	got, _ := s.GetAllVectors(ctx, "acme")
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("remaining records wrong: %+v", got)
	}
}

func TestSQLiteStore_UpsertById(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.StoreVectors(ctx, "acme", []*models.KnowledgeRecord{
		{ID: "a", Embedding: []float32{1, 2}, Metadata: models.KnowledgeMetadata{Content: "v1"}},
	})
	_ = s.StoreVectors(ctx, "acme", []*models.KnowledgeRecord{
		{ID: "a", Embedding: []float32{3, 4}, Metadata: models.KnowledgeMetadata{Content: "v2"}},
	})

	got, _ := s.GetAllVectors(ctx, "acme")
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Metadata.Content != "v2" || got[0].Embedding[0] != 3 {
		t.Errorf("upsert did not replace: %+v", got[0])
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.75}
	out := DecodeVector(EncodeVector(in))
	if len(out) != len(in) {
		t.Fatalf("length = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("index %d: %v != %v", i, in[i], out[i])
		}
	}
}
