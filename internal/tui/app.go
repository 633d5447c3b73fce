package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/chazuruo/pdeck/internal/catalog"
	"github.com/chazuruo/pdeck/internal/config"
	pdeckerrors "github.com/chazuruo/pdeck/internal/errors"
	"github.com/chazuruo/pdeck/internal/models"
	"github.com/chazuruo/pdeck/internal/view"
	"github.com/chazuruo/pdeck/internal/workflow"
)

// Options controls presentation.
type Options struct {
	Theme          string
	ShowHelp       bool
	RenderMarkdown bool
}

// OptionsFrom reads Options from cfg.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		Theme:          cfg.TUI.Theme,
		ShowHelp:       cfg.TUI.ShowHelp,
		RenderMarkdown: cfg.TUI.RenderMarkdown,
	}
}

// changedMsg is sent by the store listener after any snapshot change.
type changedMsg struct {
	change catalog.Change
}

// opDoneMsg reports the end of an asynchronous catalog operation.
type opDoneMsg struct {
	action string
	status string
	err    error
	// scope is the modal the operation belongs to, or zero.
	scope int
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx    context.Context
	ctrl   *workflow.Controller
	store  workflow.Catalog
	opts   Options
	keys   KeyMap
	help   help.Model
	styles Styles

	search    textinput.Model
	searching bool
	// confirm is the prompt awaiting delete confirmation.
	confirm *models.Prompt

	groups []view.Group
	rows   []models.Prompt
	cursor int

	detail   viewport.Model
	renderer *glamour.TermRenderer

	form     *FormModel
	settings SettingsModel

	// scope identifies the open modal; it changes on every open and close.
	scope  int
	busy   int
	status string
	err    error

	width  int
	height int

	copyText func(string) error
}

// NewModel creates the root model. The initial load starts from Init.
func NewModel(ctx context.Context, ctrl *workflow.Controller, store workflow.Catalog, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Search title or content..."
	ti.Prompt = "/ "

	m := Model{
		ctx:      ctx,
		ctrl:     ctrl,
		store:    store,
		opts:     opts,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		styles:   NewStyles(opts.Theme),
		search:   ti,
		detail:   viewport.New(60, 20),
		settings: NewSettings(),
		busy:     1,
		copyText: clipboard.WriteAll,
	}
	if opts.RenderMarkdown {
		if r, err := newRenderer(opts.Theme, 60); err == nil {
			m.renderer = r
		}
	}
	m.sync()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return opDoneMsg{action: "load", err: ctrl.Refresh(ctx)}
	}
}

// start runs fn off the UI goroutine and reports through opDoneMsg.
func (m *Model) start(action, status string, fn func(context.Context) error) tea.Cmd {
	m.busy++
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{action: action, status: status, err: fn(ctx)}
	}
}

// scoped is start for operations that belong to the open modal. Their
// results are dropped once that modal closes.
func (m *Model) scoped(action, status string, fn func(context.Context) error) tea.Cmd {
	m.busy++
	ctx, scope := m.ctx, m.scope
	return func() tea.Msg {
		return opDoneMsg{action: action, status: status, err: fn(ctx), scope: scope}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case changedMsg:
		m.sync()
		return m, nil

	case opDoneMsg:
		m.done(msg)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	switch {
	case m.form != nil:
		f, c := m.form.Update(msg)
		m.form, cmd = &f, c
	case m.settingsOpen():
		m.settings, _, cmd = m.settings.Update(msg, m.store.Categories(), m.store.Tags())
	case m.searching:
		m.search, cmd = m.search.Update(msg)
	default:
		m.detail, cmd = m.detail.Update(msg)
	}
	return m, cmd
}

func (m *Model) done(msg opDoneMsg) {
	m.busy = max(0, m.busy-1)
	m.sync()
	if msg.scope != 0 && msg.scope != m.scope {
		return
	}
	if errors.Is(msg.err, pdeckerrors.ErrStale) {
		return
	}
	if m.form != nil && m.ctrl.State().IsIdle() {
		m.form = nil
	}
	if msg.err != nil {
		m.err = msg.err
		m.status = ""
		return
	}
	m.err = nil
	m.status = msg.status
}

func (m Model) settingsOpen() bool {
	_, ok := m.ctrl.State().Workflow.(workflow.Settings)
	return ok
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.confirm != nil:
		return m.handleConfirm(msg)
	case m.form != nil:
		return m.handleForm(msg)
	case m.settingsOpen():
		return m.handleSettings(msg)
	case m.searching:
		return m.handleSearch(msg)
	}
	return m.handleBrowse(msg)
}

func (m Model) handleBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.selectCursor()

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		m.selectCursor()

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		if m.blocked() {
			return m, nil
		}
		cmd := m.start("refresh", "Refreshed", m.ctrl.Refresh)
		return m, cmd

	case key.Matches(msg, m.keys.New):
		if err := m.ctrl.OpenCreate(); err != nil {
			m.err = err
			return m, nil
		}
		f := NewForm(m.store.Categories(), m.store.Tags())
		f.SetWidth(m.width)
		m.form, m.err, m.status = &f, nil, ""
		m.scope++
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Edit):
		p, ok := m.current()
		if !ok {
			return m, nil
		}
		if err := m.ctrl.OpenEdit(p.ID); err != nil {
			m.err = err
			return m, nil
		}
		f := NewEditForm(p, m.store.Categories(), m.store.Tags())
		f.SetWidth(m.width)
		m.form, m.err, m.status = &f, nil, ""
		m.scope++
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Delete):
		p, ok := m.current()
		if !ok {
			return m, nil
		}
		m.confirm = &p
		m.err, m.status = nil, ""
		return m, nil

	case key.Matches(msg, m.keys.Duplicate):
		p, ok := m.current()
		if !ok {
			return m, nil
		}
		if m.blocked() {
			return m, nil
		}
		id := p.ID
		cmd := m.start("duplicate", fmt.Sprintf("Duplicated %q", p.Title), func(ctx context.Context) error {
			return m.ctrl.Duplicate(ctx, id)
		})
		return m, cmd

	case key.Matches(msg, m.keys.Copy):
		p, ok := m.current()
		if !ok {
			return m, nil
		}
		if err := m.copyText(p.Content); err != nil {
			m.err = fmt.Errorf("copy to clipboard: %w", err)
			return m, nil
		}
		m.err, m.status = nil, "Copied to clipboard"

	case key.Matches(msg, m.keys.Settings):
		if err := m.ctrl.OpenSettings(); err != nil {
			m.err = err
			return m, nil
		}
		m.settings = NewSettings()
		m.err, m.status = nil, ""
		m.scope++

	default:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEnter:
		if m.blocked() {
			return m, nil
		}
		m.searching = false
		m.search.Blur()
		text := m.search.Value()
		cmd := m.start("search", "", func(ctx context.Context) error {
			return m.ctrl.Search(ctx, text)
		})
		return m, cmd
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) handleForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.ctrl.Close()
		m.form, m.err = nil, nil
		m.scope++
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.blocked() {
			return m, nil
		}
		d := m.form.Draft()
		switch m.ctrl.State().Workflow.(type) {
		case workflow.Create:
			cmd := m.scoped("create", "Created prompt", func(ctx context.Context) error {
				_, err := m.ctrl.SubmitCreate(ctx, d)
				return err
			})
			return m, cmd
		case workflow.Edit:
			cmd := m.scoped("edit", "Saved prompt", func(ctx context.Context) error {
				_, err := m.ctrl.SubmitEdit(ctx, d)
				return err
			})
			return m, cmd
		}
		return m, nil
	}

	f, cmd := m.form.Update(msg)
	m.form = &f
	return m, cmd
}

func (m Model) handleSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.settings.Adding() && key.Matches(msg, m.keys.Back) {
		m.ctrl.Close()
		m.err = nil
		m.scope++
		return m, nil
	}

	if m.startsRequest(msg) && m.blocked() {
		return m, nil
	}

	s, intent, inputCmd := m.settings.Update(msg, m.store.Categories(), m.store.Tags())
	m.settings = s
	if intent == nil {
		return m, inputCmd
	}

	in := *intent
	switch {
	case in.add && in.section == sectionCategories:
		cmd := m.scoped("add category", fmt.Sprintf("Added category %q", in.name), func(ctx context.Context) error {
			_, err := m.ctrl.AddCategory(ctx, in.name)
			return err
		})
		return m, cmd
	case in.add:
		cmd := m.scoped("add tag", fmt.Sprintf("Added tag %q", in.name), func(ctx context.Context) error {
			_, err := m.ctrl.AddTag(ctx, in.name)
			return err
		})
		return m, cmd
	case in.section == sectionCategories:
		cmd := m.scoped("remove category", "Removed category", func(ctx context.Context) error {
			return m.ctrl.RemoveCategory(ctx, in.id)
		})
		return m, cmd
	default:
		cmd := m.scoped("remove tag", "Removed tag", func(ctx context.Context) error {
			return m.ctrl.RemoveTag(ctx, in.id)
		})
		return m, cmd
	}
}

func (m Model) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		// The modal stays up until the pending request lands.
		if m.blocked() {
			return m, nil
		}
		p := *m.confirm
		m.confirm = nil
		cmd := m.deleteCmd(p)
		return m, cmd
	}
	m.confirm = nil
	m.status = "Delete canceled"
	return m, nil
}

// blocked reports whether a request is still in flight. Keys that would
// start another one are ignored until it lands.
func (m *Model) blocked() bool {
	if m.busy == 0 {
		return false
	}
	m.err, m.status = nil, "Still working…"
	return true
}

// startsRequest reports whether msg would make the settings modal submit.
func (m Model) startsRequest(msg tea.KeyMsg) bool {
	if m.settings.Adding() {
		return msg.Type == tea.KeyEnter
	}
	switch msg.String() {
	case "d", "x":
		return true
	}
	return false
}

func (m *Model) deleteCmd(p models.Prompt) tea.Cmd {
	id := p.ID
	return m.start("delete", fmt.Sprintf("Deleted %q", p.Title), func(ctx context.Context) error {
		return m.ctrl.Delete(ctx, id, catalog.Confirmed)
	})
}

// current returns the prompt under the cursor.
func (m Model) current() (models.Prompt, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return models.Prompt{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) selectCursor() {
	p, ok := m.current()
	if !ok {
		return
	}
	if err := m.ctrl.Select(p.ID); err != nil {
		m.err = err
	}
	m.refreshDetail()
}

// sync re-derives the listing after the snapshots changed.
func (m *Model) sync() {
	m.groups = m.ctrl.View()
	m.rows = view.Flatten(m.groups)
	if id, ok := m.ctrl.State().FocusedID(); ok {
		if i := view.IndexOf(m.groups, id); i >= 0 {
			m.cursor = i
		}
	}
	m.cursor = clamp(m.cursor, len(m.rows))
	m.settings.Clamp(m.store.Categories(), m.store.Tags())
	m.refreshDetail()
}

func (m *Model) refreshDetail() {
	p, ok := m.ctrl.Focused()
	if !ok {
		m.detail.SetContent(m.styles.Muted.Render("Select a prompt to see its content."))
		return
	}
	m.detail.SetContent(renderDetail(m.styles, p, m.placement(p), m.renderer))
	m.detail.GotoTop()
}

// placement describes where p sits in the listing, e.g. "Work (2 of 3)".
// Prompts outside the visible groups fall back to the bare category name.
func (m Model) placement(p models.Prompt) string {
	if g, i, ok := view.Find(m.groups, p.ID); ok {
		grp := m.groups[g]
		return fmt.Sprintf("%s (%d of %d)", grp.Category.Name, i+1, len(grp.Prompts))
	}
	for _, c := range m.store.Categories() {
		if c.ID == p.CategoryID {
			return c.Name
		}
	}
	return ""
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width

	detailWidth := width - m.listWidth() - 6
	m.detail.Width = max(20, detailWidth)
	m.detail.Height = max(5, height-m.chromeHeight())

	if m.opts.RenderMarkdown {
		if r, err := newRenderer(m.opts.Theme, m.detail.Width-2); err == nil {
			m.renderer = r
		}
	}
	if m.form != nil {
		m.form.SetWidth(width)
	}
	m.refreshDetail()
}

func (m Model) listWidth() int {
	if m.width == 0 {
		return 40
	}
	return max(24, m.width*2/5)
}

// chromeHeight is the number of lines taken by header, search, status and help.
func (m Model) chromeHeight() int {
	h := 7
	if m.opts.ShowHelp {
		h += 2
	}
	return h
}

// View implements tea.Model.
func (m Model) View() string {
	st := m.styles
	var b strings.Builder

	header := st.Header.Render("pdeck")
	if m.busy > 0 {
		header += st.Muted.Render("  working…")
	}
	b.WriteString(header)
	b.WriteString("\n")

	switch {
	case m.confirm != nil:
		b.WriteString(st.Modal.Render(fmt.Sprintf("Delete %q?\n\n[y] delete  [any other key] keep", m.confirm.Title)))
	case m.form != nil:
		heading := "New prompt"
		if _, ok := m.ctrl.State().Workflow.(workflow.Edit); ok {
			heading = "Edit prompt"
		}
		b.WriteString(st.Modal.Render(m.form.View(st, heading)))
		b.WriteString("\n")
		b.WriteString(st.Muted.Render("tab next field • ←/→ category • space toggle tag • ctrl+s save • esc cancel"))
	case m.settingsOpen():
		prompts := m.store.Prompts()
		b.WriteString(st.Modal.Render(m.settings.View(st, m.store.Categories(), m.store.Tags(),
			catalog.CategoryUsage(prompts), catalog.TagUsage(prompts))))
	default:
		b.WriteString(m.search.View())
		b.WriteString("\n")
		list := st.Pane.Width(m.listWidth()).Render(m.renderList())
		detail := st.Pane.Render(m.detail.View())
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, detail))
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(st.Error.Render("Error: " + m.err.Error()))
	case m.status != "":
		b.WriteString(st.Status.Render(m.status))
	}

	if m.opts.ShowHelp && m.form == nil && !m.settingsOpen() {
		b.WriteString("\n")
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

// renderList renders the grouped prompt list, windowed around the cursor.
func (m Model) renderList() string {
	st := m.styles
	if view.Empty(m.groups) {
		lines := m.groupHeaders()
		if q := m.store.Query(); !q.Blank() {
			lines = append(lines, st.Muted.Render(fmt.Sprintf("No prompts match %q.", strings.TrimSpace(q.Text))))
		} else {
			lines = append(lines, st.Muted.Render("No prompts yet. Press n to create one."))
		}
		return strings.Join(lines, "\n")
	}

	width := m.listWidth() - 6
	var lines []string
	cursorLine, row := 0, 0
	for _, g := range m.groups {
		lines = append(lines, st.Group.Render(fmt.Sprintf("%s (%d)", g.Category.Name, len(g.Prompts))))
		for _, p := range g.Prompts {
			title := truncate(p.Title, width)
			if row == m.cursor {
				cursorLine = len(lines)
				lines = append(lines, st.Selected.Render("› "+title))
			} else {
				lines = append(lines, st.Normal.Render("  "+title))
			}
			row++
		}
	}

	height := max(5, m.height-m.chromeHeight())
	if m.height == 0 || len(lines) <= height {
		return strings.Join(lines, "\n")
	}
	start := min(max(0, cursorLine-height/2), len(lines)-height)
	return strings.Join(lines[start:start+height], "\n")
}

func (m Model) groupHeaders() []string {
	var lines []string
	for _, g := range m.groups {
		lines = append(lines, m.styles.Group.Render(fmt.Sprintf("%s (0)", g.Category.Name)))
	}
	return lines
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
