// Package catalog owns the in-memory snapshots of prompts, categories and
// tags, and keeps them consistent with the collection service.
//
// Every mutation goes to the service first. Creates, edits, duplicates and
// curation changes then re-fetch the affected snapshots; prompt deletion is
// the one optimistic operation and removes the entry locally as soon as the
// service accepts it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	pdeckerrors "github.com/chazuruo/pdeck/internal/errors"
	"github.com/chazuruo/pdeck/internal/models"
	"github.com/chazuruo/pdeck/internal/remote"
)

// Slice names one of the store's snapshots.
type Slice int

const (
	SlicePrompts Slice = iota + 1
	SliceCategories
	SliceTags
)

func (s Slice) String() string {
	switch s {
	case SlicePrompts:
		return "prompts"
	case SliceCategories:
		return "categories"
	case SliceTags:
		return "tags"
	}
	return fmt.Sprintf("slice(%d)", int(s))
}

// Change is delivered to OnChange listeners after a snapshot is replaced.
type Change struct {
	Slice Slice
	// Deleted is the id of a prompt removed by DeletePrompt, or zero.
	Deleted models.ID
}

// Confirmation is the caller's proof that the user agreed to a deletion.
type Confirmation bool

const (
	Unconfirmed Confirmation = false
	Confirmed   Confirmation = true
)

// Store is the single owner of the catalog snapshots. Accessors return copies.
// The mutex only protects memory; concurrent refreshes are last-response-wins.
type Store struct {
	col    remote.Collection
	logger *slog.Logger

	mu         sync.RWMutex
	prompts    []models.Prompt
	categories []models.Category
	tags       []models.Tag
	query      models.SearchQuery

	lmu       sync.Mutex
	listeners []func(Change)
}

// New creates a store backed by col.
func New(col remote.Collection, logger *slog.Logger) (*Store, error) {
	if col == nil {
		return nil, fmt.Errorf("catalog: collection is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		col:        col,
		logger:     logger,
		prompts:    []models.Prompt{},
		categories: []models.Category{},
		tags:       []models.Tag{},
	}, nil
}

// OnChange registers fn to run after every snapshot change. Listeners run
// on the goroutine that performed the change, outside the store lock.
func (s *Store) OnChange(fn func(Change)) {
	if fn == nil {
		return
	}
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) emit(c Change) {
	s.lmu.Lock()
	listeners := slices.Clone(s.listeners)
	s.lmu.Unlock()
	for _, fn := range listeners {
		fn(c)
	}
}

// Prompts returns a copy of the prompt snapshot.
func (s *Store) Prompts() []models.Prompt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePrompts(s.prompts)
}

// Categories returns a copy of the category snapshot.
func (s *Store) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories)
}

// Tags returns a copy of the tag snapshot.
func (s *Store) Tags() []models.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tags)
}

// Query returns the search query of the last successful prompt refresh.
func (s *Store) Query() models.SearchQuery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// Prompt looks up a prompt in the snapshot.
func (s *Store) Prompt(id models.ID) (models.Prompt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.prompts {
		if p.ID == id {
			return clonePrompt(p), true
		}
	}
	return models.Prompt{}, false
}

// Category looks up a category in the snapshot.
func (s *Store) Category(id models.ID) (models.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.categories, func(c models.Category) bool { return c.ID == id })
	if i < 0 {
		return models.Category{}, false
	}
	return s.categories[i], true
}

// Tag looks up a tag in the snapshot.
func (s *Store) Tag(id models.ID) (models.Tag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.tags, func(t models.Tag) bool { return t.ID == id })
	if i < 0 {
		return models.Tag{}, false
	}
	return s.tags[i], true
}

// Load populates every snapshot: categories, then tags, then prompts with
// an empty query. All three are attempted; failures are joined.
func (s *Store) Load(ctx context.Context) error {
	_, cErr := s.RefreshCategories(ctx)
	_, tErr := s.RefreshTags(ctx)
	_, pErr := s.RefreshPrompts(ctx, models.SearchQuery{})
	return errors.Join(cErr, tErr, pErr)
}

// RefreshPrompts replaces the prompt snapshot with the service's answer for q.
// On failure the previous snapshot and query are kept.
func (s *Store) RefreshPrompts(ctx context.Context, q models.SearchQuery) ([]models.Prompt, error) {
	prompts, err := s.col.ListPrompts(ctx, q.Text)
	if err != nil {
		s.logger.Warn("refresh failed", "slice", SlicePrompts, "query", q.Text, "error", err)
		return nil, pdeckerrors.Remote("list prompts", err)
	}
	prompts = clonePrompts(prompts)

	s.mu.Lock()
	s.prompts = prompts
	s.query = q
	s.mu.Unlock()

	s.logger.Debug("snapshot replaced", "slice", SlicePrompts, "count", len(prompts), "query", q.Text)
	s.emit(Change{Slice: SlicePrompts})
	return clonePrompts(prompts), nil
}

// RefreshCategories replaces the category snapshot.
func (s *Store) RefreshCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.col.ListCategories(ctx)
	if err != nil {
		s.logger.Warn("refresh failed", "slice", SliceCategories, "error", err)
		return nil, pdeckerrors.Remote("list categories", err)
	}
	categories = slices.Clone(categories)
	if categories == nil {
		categories = []models.Category{}
	}

	s.mu.Lock()
	s.categories = categories
	s.mu.Unlock()

	s.logger.Debug("snapshot replaced", "slice", SliceCategories, "count", len(categories))
	s.emit(Change{Slice: SliceCategories})
	return slices.Clone(categories), nil
}

// RefreshTags replaces the tag snapshot.
func (s *Store) RefreshTags(ctx context.Context) ([]models.Tag, error) {
	tags, err := s.col.ListTags(ctx)
	if err != nil {
		s.logger.Warn("refresh failed", "slice", SliceTags, "error", err)
		return nil, pdeckerrors.Remote("list tags", err)
	}
	tags = slices.Clone(tags)
	if tags == nil {
		tags = []models.Tag{}
	}

	s.mu.Lock()
	s.tags = tags
	s.mu.Unlock()

	s.logger.Debug("snapshot replaced", "slice", SliceTags, "count", len(tags))
	s.emit(Change{Slice: SliceTags})
	return slices.Clone(tags), nil
}

// CreatePrompt validates d locally, submits it and re-fetches prompts with
// the active query. If only the re-fetch fails, the created prompt is
// returned together with the refresh error.
func (s *Store) CreatePrompt(ctx context.Context, d models.Draft) (models.Prompt, error) {
	d = d.Normalized()
	if err := s.validateDraft(d); err != nil {
		return models.Prompt{}, err
	}

	p, err := s.col.CreatePrompt(ctx, d)
	if err != nil {
		return models.Prompt{}, pdeckerrors.Remote("create prompt", err)
	}
	s.logger.Info("prompt created", "id", p.ID, "category_id", p.CategoryID)

	_, rErr := s.RefreshPrompts(ctx, s.Query())
	return p, cascadeError(rErr)
}

// UpdatePrompt fully replaces prompt id with d, then re-fetches prompts.
func (s *Store) UpdatePrompt(ctx context.Context, id models.ID, d models.Draft) (models.Prompt, error) {
	if _, ok := s.Prompt(id); !ok {
		return models.Prompt{}, &pdeckerrors.NotFoundError{Kind: "prompt", ID: int64(id)}
	}
	d = d.Normalized()
	if err := s.validateDraft(d); err != nil {
		return models.Prompt{}, err
	}

	p, err := s.col.UpdatePrompt(ctx, id, d)
	if err != nil {
		return models.Prompt{}, pdeckerrors.Remote("update prompt", err)
	}
	s.logger.Info("prompt updated", "id", id)

	_, rErr := s.RefreshPrompts(ctx, s.Query())
	return p, cascadeError(rErr)
}

// DeletePrompt removes prompt id. The caller must pass Confirmed. On success
// the prompt leaves the snapshot at once, without a re-fetch.
func (s *Store) DeletePrompt(ctx context.Context, id models.ID, confirm Confirmation) error {
	if confirm != Confirmed {
		return &pdeckerrors.ValidationError{Field: "confirmation", Reason: "deletion must be confirmed"}
	}
	if _, ok := s.Prompt(id); !ok {
		return &pdeckerrors.NotFoundError{Kind: "prompt", ID: int64(id)}
	}

	if err := s.col.DeletePrompt(ctx, id); err != nil {
		return pdeckerrors.Remote("delete prompt", err)
	}

	s.mu.Lock()
	s.prompts = slices.DeleteFunc(s.prompts, func(p models.Prompt) bool { return p.ID == id })
	s.mu.Unlock()

	s.logger.Info("prompt deleted", "id", id)
	s.emit(Change{Slice: SlicePrompts, Deleted: id})
	return nil
}

// DuplicatePrompt asks the service to copy prompt id, then re-fetches prompts.
// Repeated calls create repeated copies.
func (s *Store) DuplicatePrompt(ctx context.Context, id models.ID) error {
	if _, ok := s.Prompt(id); !ok {
		return &pdeckerrors.NotFoundError{Kind: "prompt", ID: int64(id)}
	}
	if err := s.col.DuplicatePrompt(ctx, id); err != nil {
		return pdeckerrors.Remote("duplicate prompt", err)
	}
	s.logger.Info("prompt duplicated", "id", id)

	_, rErr := s.RefreshPrompts(ctx, s.Query())
	return cascadeError(rErr)
}

func (s *Store) validateDraft(d models.Draft) error {
	if strings.TrimSpace(d.Title) == "" {
		return &pdeckerrors.ValidationError{Field: "title", Reason: "must not be blank"}
	}
	if strings.TrimSpace(d.Content) == "" {
		return &pdeckerrors.ValidationError{Field: "content", Reason: "must not be blank"}
	}
	if _, ok := s.Category(d.CategoryID); !ok {
		return &pdeckerrors.ValidationError{Field: "category_id", Reason: fmt.Sprintf("unknown category %d", d.CategoryID)}
	}
	return nil
}

// OpRefresh is the RemoteError op of a failed re-fetch after a mutation.
const OpRefresh = "refresh"

// cascadeError reports refresh failures that follow a successful mutation.
func cascadeError(errs ...error) error {
	joined := errors.Join(errs...)
	if joined == nil {
		return nil
	}
	return &pdeckerrors.RemoteError{Op: OpRefresh, Err: joined}
}

// IsRefreshError reports whether err only means the mutation went through
// but the snapshots could not be re-fetched.
func IsRefreshError(err error) bool {
	re, ok := pdeckerrors.AsRemoteError(err)
	return ok && re.Op == OpRefresh
}

func clonePrompt(p models.Prompt) models.Prompt {
	p.Tags = slices.Clone(p.Tags)
	if p.Tags == nil {
		p.Tags = []models.Tag{}
	}
	return p
}

func clonePrompts(ps []models.Prompt) []models.Prompt {
	out := make([]models.Prompt, len(ps))
	for i, p := range ps {
		out[i] = clonePrompt(p)
	}
	return out
}
