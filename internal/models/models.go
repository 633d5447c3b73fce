// Package models defines the catalog entities exchanged with the collection service.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ID identifies a prompt, category or tag. The service issues integer keys.
type ID int64

// Prompt is a stored reusable text snippet.
type Prompt struct {
	ID         ID        `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	Content    string    `json:"content" yaml:"content"`
	CategoryID ID        `json:"category_id" yaml:"category_id"`
	Tags       []Tag     `json:"tags" yaml:"tags"`
	CreatedAt  Timestamp `json:"created_at" yaml:"created_at"`
	UpdatedAt  Timestamp `json:"updated_at" yaml:"updated_at"`
}

// Category is the single-membership grouping for prompts.
type Category struct {
	ID   ID     `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Tag is a multi-membership label for prompts.
type Tag struct {
	ID   ID     `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Draft is the full-replace body used to create or update a prompt.
type Draft struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	CategoryID ID     `json:"category_id"`
	TagIDs     []ID   `json:"tag_ids"`
}

// SearchQuery drives server-side prompt filtering. It is never persisted.
type SearchQuery struct {
	Text string
}

// Blank reports whether the query filters nothing.
func (q SearchQuery) Blank() bool {
	return strings.TrimSpace(q.Text) == ""
}

// HasTag reports whether the prompt carries the tag.
func (p Prompt) HasTag(id ID) bool {
	for _, t := range p.Tags {
		if t.ID == id {
			return true
		}
	}
	return false
}

// TagIDs returns the ids of the prompt's tags in order.
func (p Prompt) TagIDs() []ID {
	ids := make([]ID, 0, len(p.Tags))
	for _, t := range p.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// TagNames returns the names of the prompt's tags in order.
func (p Prompt) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}

// DraftOf builds a draft that reproduces the prompt as it is.
func DraftOf(p Prompt) Draft {
	return Draft{
		Title:      p.Title,
		Content:    p.Content,
		CategoryID: p.CategoryID,
		TagIDs:     p.TagIDs(),
	}
}

// Normalized returns a copy of the draft with duplicate tag ids removed,
// keeping the first occurrence of each. A nil tag list becomes empty so the
// request body always carries "tag_ids": [].
func (d Draft) Normalized() Draft {
	out := d
	out.TagIDs = UniqueIDs(d.TagIDs)
	return out
}

// UniqueIDs drops repeated ids, preserving first-occurrence order.
func UniqueIDs(ids []ID) []ID {
	seen := make(map[ID]bool, len(ids))
	out := make([]ID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// UniqueTags drops tags whose id already appeared.
func UniqueTags(tags []Tag) []Tag {
	seen := make(map[ID]bool, len(tags))
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}

// Timestamp accepts both RFC 3339 and the zone-less ISO form the service emits
// ("2024-05-01T09:30:00.123456").
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// MarshalYAML renders the timestamp as RFC 3339 text.
func (t Timestamp) MarshalYAML() (interface{}, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.Format(time.RFC3339), nil
}
