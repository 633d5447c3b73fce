package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/chazuruo/pdeck/internal/models"
)

// Operation names accepted by FailNext, FailAlways and Count.
const (
	OpListPrompts     = "ListPrompts"
	OpListCategories  = "ListCategories"
	OpListTags        = "ListTags"
	OpCreatePrompt    = "CreatePrompt"
	OpUpdatePrompt    = "UpdatePrompt"
	OpDeletePrompt    = "DeletePrompt"
	OpDuplicatePrompt = "DuplicatePrompt"
	OpCreateCategory  = "CreateCategory"
	OpDeleteCategory  = "DeleteCategory"
	OpCreateTag       = "CreateTag"
	OpDeleteTag       = "DeleteTag"
)

// missingError is the soft failure the service reports for unknown ids.
type missingError string

func (e missingError) Error() string { return string(e) }

// DuplicateSuffix is appended to the title of a duplicated prompt.
const DuplicateSuffix = " (副本)"

// FakeCollection is an in-memory prompt collection service. It mirrors the
// real service: integer ids, substring search over title and content, tag
// deletion strips the tag from prompts, and category deletion leaves prompt
// references dangling.
type FakeCollection struct {
	mu         sync.Mutex
	nextID     models.ID
	prompts    []models.Prompt
	categories []models.Category
	tags       []models.Tag

	calls    map[string]int
	failNext map[string]error
	failAll  map[string]error

	// BeforeCall runs at the start of every operation, outside the lock.
	// Tests use it to interleave actions with an in-flight request.
	BeforeCall func(op string)

	// Now supplies timestamps for created and updated prompts.
	Now func() time.Time
}

// NewFakeCollection returns an empty fake.
func NewFakeCollection() *FakeCollection {
	return &FakeCollection{
		calls:    make(map[string]int),
		failNext: make(map[string]error),
		failAll:  make(map[string]error),
		Now:      func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) },
	}
}

// SeedCategory inserts a category directly.
func (f *FakeCollection) SeedCategory(name string) models.Category {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := models.Category{ID: f.id(), Name: name}
	f.categories = append(f.categories, c)
	return c
}

// SeedTag inserts a tag directly.
func (f *FakeCollection) SeedTag(name string) models.Tag {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := models.Tag{ID: f.id(), Name: name}
	f.tags = append(f.tags, t)
	return t
}

// SeedPrompt inserts a prompt directly.
func (f *FakeCollection) SeedPrompt(title, content string, category models.ID, tags ...models.ID) models.Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.build(0, models.Draft{Title: title, Content: content, CategoryID: category, TagIDs: tags})
	f.prompts = append(f.prompts, p)
	return p
}

// FailNext makes the next call to op return err.
func (f *FakeCollection) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext[op] = err
}

// FailAlways makes every call to op return err until cleared with a nil err.
func (f *FakeCollection) FailAlways(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failAll, op)
		return
	}
	f.failAll[op] = err
}

// Count returns how many times op was invoked.
func (f *FakeCollection) Count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// ResetCounts zeroes every call counter.
func (f *FakeCollection) ResetCounts() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = make(map[string]int)
}

// Prompts returns a copy of the stored prompts.
func (f *FakeCollection) Prompts() []models.Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return clonePrompts(f.prompts)
}

// Categories returns a copy of the stored categories.
func (f *FakeCollection) Categories() []models.Category {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.categories)
}

// Tags returns a copy of the stored tags.
func (f *FakeCollection) Tags() []models.Tag {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.tags)
}

// ListPrompts returns prompts whose title or content contains search,
// ignoring case. A blank search returns everything.
func (f *FakeCollection) ListPrompts(ctx context.Context, search string) ([]models.Prompt, error) {
	if err := f.enter(ctx, OpListPrompts); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	needle := strings.ToLower(search)
	out := make([]models.Prompt, 0, len(f.prompts))
	for _, p := range f.prompts {
		if strings.TrimSpace(search) != "" &&
			!strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Content), needle) {
			continue
		}
		out = append(out, clonePrompt(p))
	}
	return out, nil
}

// ListCategories returns every category.
func (f *FakeCollection) ListCategories(ctx context.Context) ([]models.Category, error) {
	if err := f.enter(ctx, OpListCategories); err != nil {
		return nil, err
	}
	return f.Categories(), nil
}

// ListTags returns every tag.
func (f *FakeCollection) ListTags(ctx context.Context) ([]models.Tag, error) {
	if err := f.enter(ctx, OpListTags); err != nil {
		return nil, err
	}
	return f.Tags(), nil
}

// CreatePrompt stores a new prompt. Unknown tag ids are dropped.
func (f *FakeCollection) CreatePrompt(ctx context.Context, d models.Draft) (models.Prompt, error) {
	if err := f.enter(ctx, OpCreatePrompt); err != nil {
		return models.Prompt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.build(0, d)
	f.prompts = append(f.prompts, p)
	return clonePrompt(p), nil
}

// UpdatePrompt replaces prompt id with the draft.
func (f *FakeCollection) UpdatePrompt(ctx context.Context, id models.ID, d models.Draft) (models.Prompt, error) {
	if err := f.enter(ctx, OpUpdatePrompt); err != nil {
		return models.Prompt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.promptIndex(id)
	if i < 0 {
		return models.Prompt{}, missingError("Prompt not found")
	}
	p := f.build(id, d)
	p.CreatedAt = f.prompts[i].CreatedAt
	f.prompts[i] = p
	return clonePrompt(p), nil
}

// DeletePrompt removes prompt id.
func (f *FakeCollection) DeletePrompt(ctx context.Context, id models.ID) error {
	if err := f.enter(ctx, OpDeletePrompt); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.promptIndex(id)
	if i < 0 {
		return missingError("Prompt not found")
	}
	f.prompts = slices.Delete(f.prompts, i, i+1)
	return nil
}

// DuplicatePrompt copies prompt id with DuplicateSuffix on the title.
func (f *FakeCollection) DuplicatePrompt(ctx context.Context, id models.ID) error {
	if err := f.enter(ctx, OpDuplicatePrompt); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.promptIndex(id)
	if i < 0 {
		return missingError("Prompt not found")
	}
	src := f.prompts[i]
	d := models.DraftOf(src)
	d.Title = src.Title + DuplicateSuffix
	f.prompts = append(f.prompts, f.build(0, d))
	return nil
}

// CreateCategory stores a new category.
func (f *FakeCollection) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	if err := f.enter(ctx, OpCreateCategory); err != nil {
		return models.Category{}, err
	}
	return f.SeedCategory(name), nil
}

// DeleteCategory removes category id. Prompts keep their category_id.
func (f *FakeCollection) DeleteCategory(ctx context.Context, id models.ID) error {
	if err := f.enter(ctx, OpDeleteCategory); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.categories, func(c models.Category) bool { return c.ID == id })
	if i < 0 {
		return missingError("Category not found")
	}
	f.categories = slices.Delete(f.categories, i, i+1)
	return nil
}

// CreateTag stores a new tag.
func (f *FakeCollection) CreateTag(ctx context.Context, name string) (models.Tag, error) {
	if err := f.enter(ctx, OpCreateTag); err != nil {
		return models.Tag{}, err
	}
	return f.SeedTag(name), nil
}

// DeleteTag removes tag id and detaches it from every prompt.
func (f *FakeCollection) DeleteTag(ctx context.Context, id models.ID) error {
	if err := f.enter(ctx, OpDeleteTag); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.tags, func(t models.Tag) bool { return t.ID == id })
	if i < 0 {
		return missingError("Tag not found")
	}
	f.tags = slices.Delete(f.tags, i, i+1)
	for j := range f.prompts {
		f.prompts[j].Tags = slices.DeleteFunc(f.prompts[j].Tags, func(t models.Tag) bool { return t.ID == id })
	}
	return nil
}

// enter records the call, runs BeforeCall and returns any injected failure.
func (f *FakeCollection) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	hook := f.BeforeCall
	f.mu.Unlock()

	if hook != nil {
		hook(op)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failNext[op]; ok {
		delete(f.failNext, op)
		return err
	}
	if err, ok := f.failAll[op]; ok {
		return err
	}
	return nil
}

func (f *FakeCollection) id() models.ID {
	f.nextID++
	return f.nextID
}

func (f *FakeCollection) promptIndex(id models.ID) int {
	return slices.IndexFunc(f.prompts, func(p models.Prompt) bool { return p.ID == id })
}

// build resolves a draft into a prompt. Callers hold f.mu.
func (f *FakeCollection) build(id models.ID, d models.Draft) models.Prompt {
	if id == 0 {
		id = f.id()
	}
	var tags []models.Tag
	for _, tid := range models.UniqueIDs(d.TagIDs) {
		if i := slices.IndexFunc(f.tags, func(t models.Tag) bool { return t.ID == tid }); i >= 0 {
			tags = append(tags, f.tags[i])
		}
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	now := models.Timestamp{Time: f.Now()}
	return models.Prompt{
		ID:         id,
		Title:      d.Title,
		Content:    d.Content,
		CategoryID: d.CategoryID,
		Tags:       tags,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
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
