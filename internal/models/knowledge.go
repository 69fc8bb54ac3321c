// Package models defines core data structures for knowledge records, queries, and search results.
package models

import "time"

// KnowledgeMetadata describes a knowledge item. It is opaque to the cache
// and returned verbatim on search hits.
type KnowledgeMetadata struct {
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Category   string    `json:"category,omitempty"`
	SourceType string    `json:"source_type,omitempty"`
	SourceURL  string    `json:"source_url,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// KnowledgeRecord pairs a knowledge item with its embedding vector as read
// from or written to the backing store.
type KnowledgeRecord struct {
	ID        string            `json:"id"`
	Embedding []float32         `json:"-"`
	Metadata  KnowledgeMetadata `json:"metadata"`
}

// KnowledgeInput is the write-path input for creating or updating a knowledge item.
// Category and SourceType are supplied by the caller; content provenance is never
// inferred from the text itself.
type KnowledgeInput struct {
	ID         string `json:"id,omitempty"`
	Title      string `json:"title,omitempty"`
	Content    string `json:"content"`
	Category   string `json:"category,omitempty"`
	SourceType string `json:"source_type,omitempty"`
	SourceURL  string `json:"source_url,omitempty"`
}
