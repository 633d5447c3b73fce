package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazuruo/pdeck/internal/catalog"
	"github.com/chazuruo/pdeck/internal/config"
	"github.com/chazuruo/pdeck/internal/models"
	"github.com/chazuruo/pdeck/internal/testutil"
	"github.com/chazuruo/pdeck/internal/workflow"
)

type fixture struct {
	fake   *testutil.FakeCollection
	store  *catalog.Store
	ctrl   *workflow.Controller
	work   models.Category
	home   models.Category
	urgent models.Tag
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := testutil.NewFakeCollection()
	work := fake.SeedCategory("Work")
	home := fake.SeedCategory("Home")
	urgent := fake.SeedTag("urgent")
	fake.SeedPrompt("Alpha", "Summarize {{text}}", work.ID, urgent.ID)
	fake.SeedPrompt("Beta", "Plan my week", home.ID)

	store, err := catalog.New(fake, nil)
	require.NoError(t, err)
	return &fixture{
		fake:   fake,
		store:  store,
		ctrl:   workflow.New(store, nil),
		work:   work,
		home:   home,
		urgent: urgent,
	}
}

// loaded returns a model after its initial load finished.
func (fx *fixture) loaded(t *testing.T, opts Options) Model {
	t.Helper()
	m := NewModel(context.Background(), fx.ctrl, fx.store, opts)
	m = run(t, m, m.Init())
	require.NoError(t, m.err)
	return m
}

// run executes cmd synchronously and feeds an opDoneMsg result back.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	done, ok := msg.(opDoneMsg)
	require.True(t, ok, "expected opDoneMsg, got %T", msg)
	next, _ := m.Update(done)
	return next.(Model)
}

func press(m Model, keys ...tea.KeyMsg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(Model)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keySave  = tea.KeyMsg{Type: tea.KeyCtrlS}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
)

func TestInitialLoadGroupsByCategory(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})

	require.Len(t, m.groups, 2)
	assert.Equal(t, "Work", m.groups[0].Category.Name)
	assert.Equal(t, "Home", m.groups[1].Category.Name)
	require.Len(t, m.rows, 2)
	assert.Equal(t, "Alpha", m.rows[0].Title)
	assert.Zero(t, m.busy)
	assert.Contains(t, m.View(), "Alpha")
}

func TestInitialLoadErrorIsShown(t *testing.T) {
	fx := newFixture(t)
	fx.fake.FailNext(testutil.OpListTags, errors.New("boom"))

	m := NewModel(context.Background(), fx.ctrl, fx.store, Options{})
	m = run(t, m, m.Init())

	require.Error(t, m.err)
	assert.Contains(t, m.View(), "boom")
}

func TestNavigationFocusesPrompt(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})

	m, _ = press(m, keyDown)

	id, ok := fx.ctrl.State().FocusedID()
	require.True(t, ok)
	assert.Equal(t, m.rows[1].ID, id)
	assert.Contains(t, m.detail.View(), "Plan my week")
}

func TestCreatePromptFromForm(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})

	m, _ = press(m, runes("n"))
	require.NotNil(t, m.form)
	assert.IsType(t, workflow.Create{}, fx.ctrl.State().Workflow)

	m, _ = press(m, runes("Gamma"), keyTab, runes("Write a poem"))
	m, cmd := press(m, keySave)
	m = run(t, m, cmd)

	require.NoError(t, m.err)
	assert.Nil(t, m.form)
	assert.True(t, fx.ctrl.State().IsIdle())
	assert.Equal(t, "Created prompt", m.status)

	var titles []string
	for _, p := range m.rows {
		titles = append(titles, p.Title)
	}
	assert.Contains(t, titles, "Gamma")
}

func TestCreateValidationKeepsFormOpen(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})

	m, _ = press(m, runes("n"))
	m, cmd := press(m, keySave)
	m = run(t, m, cmd)

	require.Error(t, m.err)
	assert.NotNil(t, m.form)
	assert.IsType(t, workflow.Create{}, fx.ctrl.State().Workflow)
	assert.Zero(t, fx.fake.Count(testutil.OpCreatePrompt))
}

func TestClosingFormDropsLateResult(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})

	m, _ = press(m, runes("n"), runes("Late"), keyTab, runes("body"))
	m, cmd := press(m, keySave)
	m, _ = press(m, keyEsc)
	require.Nil(t, m.form)

	m = run(t, m, cmd)

	assert.NoError(t, m.err)
	assert.Empty(t, m.status)
	assert.True(t, fx.ctrl.State().IsIdle())
}

func TestEditPromptRefocuses(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})
	target := m.rows[1]

	m, _ = press(m, keyDown, runes("e"))
	require.NotNil(t, m.form)
	assert.Equal(t, workflow.Edit{Target: target.ID}, fx.ctrl.State().Workflow)

	m, _ = press(m, runes(" v2"))
	m, cmd := press(m, keySave)
	m = run(t, m, cmd)

	require.NoError(t, m.err)
	p, ok := fx.store.Prompt(target.ID)
	require.True(t, ok)
	assert.Equal(t, "Beta v2", p.Title)
	id, _ := fx.ctrl.State().FocusedID()
	assert.Equal(t, target.ID, id)
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})

	m, cmd := press(m, runes("d"))
	assert.Nil(t, cmd)
	require.NotNil(t, m.confirm)
	assert.Contains(t, m.View(), `Delete "Alpha"?`)

	m, cmd = press(m, runes("y"))
	m = run(t, m, cmd)

	require.NoError(t, m.err)
	require.Len(t, m.rows, 1)
	assert.Equal(t, "Beta", m.rows[0].Title)
	assert.Equal(t, 1, fx.fake.Count(testutil.OpDeletePrompt))
}

func TestDeclinedDeleteKeepsPrompt(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})

	m, _ = press(m, runes("d"))
	m, cmd := press(m, runes("n"))

	assert.Nil(t, cmd)
	assert.Nil(t, m.confirm)
	assert.Len(t, m.rows, 2)
	assert.Zero(t, fx.fake.Count(testutil.OpDeletePrompt))
}

func TestDuplicate(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})

	m, cmd := press(m, runes("D"))
	m = run(t, m, cmd)

	require.NoError(t, m.err)
	assert.Len(t, m.rows, 3)
	assert.Equal(t, `Duplicated "Alpha"`, m.status)
}

func TestCopyContent(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})
	var copied string
	m.copyText = func(s string) error {
		copied = s
		return nil
	}

	m, _ = press(m, runes("c"))

	assert.Equal(t, "Summarize {{text}}", copied)
	assert.Equal(t, "Copied to clipboard", m.status)
}

func TestSearchAndEmptyHint(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})

	m, _ = press(m, runes("/"), runes("week"))
	require.True(t, m.searching)
	m, cmd := press(m, keyEnter)
	m = run(t, m, cmd)

	require.Len(t, m.rows, 1)
	assert.Equal(t, "Beta", m.rows[0].Title)
	assert.Len(t, m.groups, 1)

	m, _ = press(m, runes("/"))
	m.search.SetValue("nothing-here")
	m, cmd = press(m, keyEnter)
	m = run(t, m, cmd)

	assert.Empty(t, m.rows)
	assert.Contains(t, m.View(), `No prompts match "nothing-here".`)
}

func TestSettingsAddCategoryStaysOpen(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})

	m, _ = press(m, runes("s"))
	require.True(t, m.settingsOpen())

	m, _ = press(m, runes("a"), runes("Travel"))
	m, cmd := press(m, keyEnter)
	m = run(t, m, cmd)

	require.NoError(t, m.err)
	assert.True(t, m.settingsOpen())
	assert.Len(t, fx.store.Categories(), 3)
	assert.Contains(t, m.View(), "Travel")

	m, _ = press(m, keyEsc)
	assert.True(t, fx.ctrl.State().IsIdle())
}

func TestSettingsRemoveTagStripsPrompts(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})

	m, _ = press(m, runes("s"), keyTab)
	m, cmd := press(m, runes("d"))
	m = run(t, m, cmd)

	require.NoError(t, m.err)
	assert.Empty(t, fx.store.Tags())
	p, _ := fx.store.Prompt(m.rows[0].ID)
	assert.Empty(t, p.Tags)
}

func TestChangedMsgResyncs(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})

	fx.fake.SeedPrompt("Zeta", "z", fx.work.ID)
	_, err := fx.store.RefreshPrompts(context.Background(), models.SearchQuery{})
	require.NoError(t, err)

	next, _ := m.Update(changedMsg{change: catalog.Change{Slice: catalog.SlicePrompts}})
	m = next.(Model)
	assert.Len(t, m.rows, 3)
}

func TestActionsIgnoredWhileBusy(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})

	m, first := press(m, runes("D"))
	require.NotNil(t, first)
	m, second := press(m, runes("D"))
	assert.Nil(t, second)
	assert.Equal(t, "Still working…", m.status)

	m = run(t, m, first)
	assert.Zero(t, m.busy)
	assert.Len(t, fx.fake.Prompts(), 3)
	assert.Equal(t, 1, fx.fake.Count(testutil.OpDuplicatePrompt))
}

func TestDeleteAlwaysConfirms(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, OptionsFrom(config.DefaultConfig()))

	m, cmd := press(m, runes("d"))

	assert.Nil(t, cmd)
	require.NotNil(t, m.confirm)
	assert.Equal(t, "Alpha", m.confirm.Title)
	assert.Zero(t, fx.fake.Count(testutil.OpDeletePrompt))
	assert.Len(t, fx.fake.Prompts(), 2)
}

func TestConfirmWaitsWhileBusy(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})

	m, first := press(m, runes("D"))
	require.NotNil(t, first)
	m, _ = press(m, runes("d"))
	require.NotNil(t, m.confirm)

	m, cmd := press(m, runes("y"))
	assert.Nil(t, cmd)
	require.NotNil(t, m.confirm, "modal stays open while a request is in flight")
	assert.Equal(t, "Still working…", m.status)
	assert.Zero(t, fx.fake.Count(testutil.OpDeletePrompt))

	m = run(t, m, first)
	m, cmd = press(m, runes("y"))
	m = run(t, m, cmd)

	require.NoError(t, m.err)
	assert.Nil(t, m.confirm)
	assert.Equal(t, 1, fx.fake.Count(testutil.OpDeletePrompt))
}

func TestSearchIgnoredWhileBusy(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})

	m, first := press(m, runes("D"))
	require.NotNil(t, first)
	m, _ = press(m, runes("/"), runes("week"))
	m, cmd := press(m, keyEnter)

	assert.Nil(t, cmd)
	assert.True(t, m.searching, "search box stays open")
	assert.Equal(t, "Still working…", m.status)

	m = run(t, m, first)
	m, cmd = press(m, keyEnter)
	m = run(t, m, cmd)

	assert.False(t, m.searching)
	require.Len(t, m.rows, 1)
	assert.Equal(t, "Beta", m.rows[0].Title)
}

func TestDetailShowsPlacement(t *testing.T) {
	fx := newFixture(t)
	m := fx.loaded(t, Options{})

	m, _ = press(m, keyDown)
	p, ok := fx.ctrl.Focused()
	require.True(t, ok)
	assert.Equal(t, "Beta", p.Title)
	assert.Equal(t, "Home (1 of 1)", m.placement(p))

	fx.fake.SeedPrompt("Gamma", "g", fx.work.ID)
	_, err := fx.store.RefreshPrompts(context.Background(), models.SearchQuery{})
	require.NoError(t, err)
	m.sync()
	alpha := m.rows[0]
	assert.Equal(t, "Work (1 of 2)", m.placement(alpha))

	assert.Equal(t, "", m.placement(models.Prompt{ID: 404, CategoryID: 77}))
}
