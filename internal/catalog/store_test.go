package catalog_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazuruo/pdeck/internal/catalog"
	pdeckerrors "github.com/chazuruo/pdeck/internal/errors"
	"github.com/chazuruo/pdeck/internal/models"
	"github.com/chazuruo/pdeck/internal/testutil"
	"github.com/chazuruo/pdeck/internal/view"
)

func newStore(t *testing.T, fake *testutil.FakeCollection) *catalog.Store {
	t.Helper()
	s, err := catalog.New(fake, nil)
	require.NoError(t, err)
	require.NoError(t, s.Load(context.Background()))
	fake.ResetCounts()
	return s
}

type recorder struct {
	mu      sync.Mutex
	changes []catalog.Change
}

func (r *recorder) record(c catalog.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) slices() []catalog.Slice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.Slice, 0, len(r.changes))
	for _, c := range r.changes {
		out = append(out, c.Slice)
	}
	return out
}

func TestNewRequiresCollection(t *testing.T) {
	_, err := catalog.New(nil, nil)
	assert.Error(t, err)
}

func TestLoadOrderAndSnapshots(t *testing.T) {
	fake := testutil.NewFakeCollection()
	a := fake.SeedCategory("A")
	tag := fake.SeedTag("T")
	fake.SeedPrompt("x", "y", a.ID, tag.ID)

	var order []string
	fake.BeforeCall = func(op string) { order = append(order, op) }

	s, err := catalog.New(fake, nil)
	require.NoError(t, err)
	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, []string{testutil.OpListCategories, testutil.OpListTags, testutil.OpListPrompts}, order)
	assert.Len(t, s.Prompts(), 1)
	assert.Equal(t, []models.Category{a}, s.Categories())
	assert.Equal(t, []models.Tag{tag}, s.Tags())
}

func TestLoadJoinsFailures(t *testing.T) {
	fake := testutil.NewFakeCollection()
	fake.FailNext(testutil.OpListTags, errors.New("tags down"))
	s, err := catalog.New(fake, nil)
	require.NoError(t, err)

	err = s.Load(context.Background())
	require.Error(t, err)
	assert.True(t, pdeckerrors.IsRemote(err))
	assert.Equal(t, 1, fake.Count(testutil.OpListPrompts), "prompts still load after a tag failure")
}

func TestAccessorsReturnCopies(t *testing.T) {
	fake := testutil.NewFakeCollection()
	a := fake.SeedCategory("A")
	tag := fake.SeedTag("T")
	fake.SeedPrompt("x", "y", a.ID, tag.ID)
	s := newStore(t, fake)

	ps := s.Prompts()
	ps[0].Title = "mutated"
	ps[0].Tags[0].Name = "mutated"
	cs := s.Categories()
	cs[0].Name = "mutated"

	assert.Equal(t, "x", s.Prompts()[0].Title)
	assert.Equal(t, "T", s.Prompts()[0].Tags[0].Name)
	assert.Equal(t, "A", s.Categories()[0].Name)
}

func TestRefreshPromptsKeepsSnapshotOnFailure(t *testing.T) {
	fake := testutil.NewFakeCollection()
	a := fake.SeedCategory("A")
	fake.SeedPrompt("Write SQL", "select", a.ID)
	fake.SeedPrompt("Poem", "roses", a.ID)
	s := newStore(t, fake)
	ctx := context.Background()

	got, err := s.RefreshPrompts(ctx, models.SearchQuery{Text: "sql"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "sql", s.Query().Text)

	fake.FailNext(testutil.OpListPrompts, errors.New("boom"))
	_, err = s.RefreshPrompts(ctx, models.SearchQuery{Text: "poem"})
	require.Error(t, err)
	assert.True(t, pdeckerrors.IsRemote(err))

	assert.Len(t, s.Prompts(), 1, "previous snapshot retained")
	assert.Equal(t, "sql", s.Query().Text, "query only changes on success")
}

func TestCreatePromptValidationSkipsNetwork(t *testing.T) {
	fake := testutil.NewFakeCollection()
	a := fake.SeedCategory("A")
	s := newStore(t, fake)

	tests := []struct {
		name  string
		draft models.Draft
		field string
	}{
		{"empty title", models.Draft{Title: "", Content: "y", CategoryID: a.ID}, "title"},
		{"blank title", models.Draft{Title: "  ", Content: "y", CategoryID: a.ID}, "title"},
		{"empty content", models.Draft{Title: "x", Content: "", CategoryID: a.ID}, "content"},
		{"unknown category", models.Draft{Title: "x", Content: "y", CategoryID: 999}, "category_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreatePrompt(context.Background(), tt.draft)
			ve, ok := pdeckerrors.AsValidationError(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	assert.Zero(t, fake.Count(testutil.OpCreatePrompt))
	assert.Zero(t, fake.Count(testutil.OpListPrompts))
}

func TestCreatePromptScenario(t *testing.T) {
	fake := testutil.NewFakeCollection()
	a := fake.SeedCategory("A")
	b := fake.SeedCategory("B")
	s := newStore(t, fake)

	rec := &recorder{}
	s.OnChange(rec.record)

	p, err := s.CreatePrompt(context.Background(), models.Draft{Title: "x", Content: "y", CategoryID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, "x", p.Title)
	assert.Equal(t, 1, fake.Count(testutil.OpListPrompts))
	assert.Equal(t, []catalog.Slice{catalog.SlicePrompts}, rec.slices())

	prompts := s.Prompts()
	assert.Len(t, catalog.PromptsInCategory(prompts, a.ID), 1)
	assert.Empty(t, catalog.PromptsInCategory(prompts, b.ID))

	groups := view.Derive(prompts, s.Categories(), s.Query())
	require.Len(t, groups, 2)
	assert.Equal(t, a, groups[0].Category)
	require.Len(t, groups[0].Prompts, 1)
	assert.Equal(t, "x", groups[0].Prompts[0].Title)
	assert.Equal(t, b, groups[1].Category)
	assert.Empty(t, groups[1].Prompts)
}

func TestCreatePromptReusesActiveQuery(t *testing.T) {
	fake := testutil.NewFakeCollection()
	a := fake.SeedCategory("A")
	fake.SeedPrompt("poem", "roses", a.ID)
	s := newStore(t, fake)
	ctx := context.Background()

	_, err := s.RefreshPrompts(ctx, models.SearchQuery{Text: "sql"})
	require.NoError(t, err)
	require.Empty(t, s.Prompts())

	_, err = s.CreatePrompt(ctx, models.Draft{Title: "sql helper", Content: "select", CategoryID: a.ID})
	require.NoError(t, err)

	prompts := s.Prompts()
	require.Len(t, prompts, 1)
	assert.Equal(t, "sql helper", prompts[0].Title)
}

func TestCreatePromptRefreshFailureStillReturnsPrompt(t *testing.T) {
	fake := testutil.NewFakeCollection()
	a := fake.SeedCategory("A")
	s := newStore(t, fake)
	fake.FailNext(testutil.OpListPrompts, errors.New("flaky"))

	p, err := s.CreatePrompt(context.Background(), models.Draft{Title: "x", Content: "y", CategoryID: a.ID})
	assert.NotZero(t, p.ID)
	re, ok := pdeckerrors.AsRemoteError(err)
	require.True(t, ok)
	assert.Equal(t, "refresh", re.Op)
	assert.Empty(t, s.Prompts(), "snapshot keeps prior content")
}

func TestCreatePromptRemoteFailure(t *testing.T) {
	fake := testutil.NewFakeCollection()
	a := fake.SeedCategory("A")
	s := newStore(t, fake)
	fake.FailNext(testutil.OpCreatePrompt, errors.New("down"))

	_, err := s.CreatePrompt(context.Background(), models.Draft{Title: "x", Content: "y", CategoryID: a.ID})
	assert.True(t, pdeckerrors.IsRemote(err))
	assert.Zero(t, fake.Count(testutil.OpListPrompts), "no refresh after a failed mutation")
}

func TestUpdatePrompt(t *testing.T) {
	fake := testutil.NewFakeCollection()
	a := fake.SeedCategory("A")
	tag := fake.SeedTag("T")
	p := fake.SeedPrompt("x", "y", a.ID)
	s := newStore(t, fake)
	ctx := context.Background()

	_, err := s.UpdatePrompt(ctx, 404, models.Draft{Title: "x", Content: "y", CategoryID: a.ID})
	assert.True(t, pdeckerrors.IsNotFound(err))
	assert.Zero(t, fake.Count(testutil.OpUpdatePrompt))

	_, err = s.UpdatePrompt(ctx, p.ID, models.Draft{Title: "x", Content: " ", CategoryID: a.ID})
	assert.True(t, pdeckerrors.IsInvalid(err))
	assert.Zero(t, fake.Count(testutil.OpUpdatePrompt))

	updated, err := s.UpdatePrompt(ctx, p.ID, models.Draft{
		Title: "x2", Content: "y", CategoryID: a.ID, TagIDs: []models.ID{tag.ID, tag.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "x2", updated.Title)

	got, ok := s.Prompt(p.ID)
	require.True(t, ok)
	assert.Equal(t, "x2", got.Title)
	assert.Equal(t, []models.Tag{tag}, got.Tags)
}

func TestDeletePrompt(t *testing.T) {
	fake := testutil.NewFakeCollection()
	a := fake.SeedCategory("A")
	p := fake.SeedPrompt("x", "y", a.ID)
	q := fake.SeedPrompt("z", "w", a.ID)
	s := newStore(t, fake)
	ctx := context.Background()

	rec := &recorder{}
	s.OnChange(rec.record)

	err := s.DeletePrompt(ctx, p.ID, catalog.Unconfirmed)
	assert.True(t, pdeckerrors.IsInvalid(err))
	assert.Zero(t, fake.Count(testutil.OpDeletePrompt))

	err = s.DeletePrompt(ctx, 404, catalog.Confirmed)
	assert.True(t, pdeckerrors.IsNotFound(err))
	assert.Zero(t, fake.Count(testutil.OpDeletePrompt))

	require.NoError(t, s.DeletePrompt(ctx, p.ID, catalog.Confirmed))
	_, ok := s.Prompt(p.ID)
	assert.False(t, ok)
	_, ok = s.Prompt(q.ID)
	assert.True(t, ok)
	assert.Zero(t, fake.Count(testutil.OpListPrompts), "delete is optimistic, no re-fetch")

	require.Len(t, rec.changes, 1)
	assert.Equal(t, catalog.Change{Slice: catalog.SlicePrompts, Deleted: p.ID}, rec.changes[0])
}

func TestDeletePromptRemoteFailureKeepsSnapshot(t *testing.T) {
	fake := testutil.NewFakeCollection()
	a := fake.SeedCategory("A")
	p := fake.SeedPrompt("x", "y", a.ID)
	s := newStore(t, fake)
	fake.FailNext(testutil.OpDeletePrompt, errors.New("down"))

	err := s.DeletePrompt(context.Background(), p.ID, catalog.Confirmed)
	assert.True(t, pdeckerrors.IsRemote(err))
	_, ok := s.Prompt(p.ID)
	assert.True(t, ok)
}

func TestDuplicatePrompt(t *testing.T) {
	fake := testutil.NewFakeCollection()
	a := fake.SeedCategory("A")
	tag := fake.SeedTag("T")
	p := fake.SeedPrompt("x", "y", a.ID, tag.ID)
	s := newStore(t, fake)
	ctx := context.Background()

	require.NoError(t, s.DuplicatePrompt(ctx, p.ID))
	require.NoError(t, s.DuplicatePrompt(ctx, p.ID))

	prompts := s.Prompts()
	require.Len(t, prompts, 3, "repeated duplicates are not coalesced")
	assert.Equal(t, "x"+testutil.DuplicateSuffix, prompts[1].Title)
	assert.Equal(t, []models.Tag{tag}, prompts[1].Tags)

	err := s.DuplicatePrompt(ctx, 404)
	assert.True(t, pdeckerrors.IsNotFound(err))
}

func TestConcurrentReadsDuringRefresh(t *testing.T) {
	fake := testutil.NewFakeCollection()
	a := fake.SeedCategory("A")
	for i := 0; i < 20; i++ {
		fake.SeedPrompt("x", "y", a.ID)
	}
	s := newStore(t, fake)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.RefreshPrompts(ctx, models.SearchQuery{})
		}()
		go func() {
			defer wg.Done()
			_ = view.Derive(s.Prompts(), s.Categories(), s.Query())
		}()
	}
	wg.Wait()
	assert.Len(t, s.Prompts(), 20)
}

func TestSliceString(t *testing.T) {
	assert.Equal(t, "prompts", catalog.SlicePrompts.String())
	assert.Equal(t, "categories", catalog.SliceCategories.String())
	assert.Equal(t, "tags", catalog.SliceTags.String())
	assert.Equal(t, "slice(9)", catalog.Slice(9).String())
}
