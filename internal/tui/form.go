package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/chazuruo/pdeck/internal/models"
)

// formField identifies the focused form control.
type formField int

const (
	fieldTitle formField = iota
	fieldContent
	fieldCategory
	fieldTags
	fieldCount
)

// FormModel edits a prompt draft: title, content, one category and any tags.
type FormModel struct {
	title     textinput.Model
	content   textarea.Model
	tagFilter textinput.Model

	categories []models.Category
	tags       []models.Tag

	// category indexes categories, or -1 when none is chosen.
	category int
	selected map[models.ID]bool

	// matches indexes tags, in fuzzy score order.
	matches   []int
	tagCursor int

	focus formField
}

// NewForm returns an empty create form. The category defaults to the first one.
func NewForm(categories []models.Category, tags []models.Tag) FormModel {
	f := newForm(categories, tags)
	if len(categories) > 0 {
		f.category = 0
	}
	return f
}

// NewEditForm returns a form prefilled from p.
func NewEditForm(p models.Prompt, categories []models.Category, tags []models.Tag) FormModel {
	f := newForm(categories, tags)
	f.title.SetValue(p.Title)
	f.content.SetValue(p.Content)
	for i, c := range categories {
		if c.ID == p.CategoryID {
			f.category = i
		}
	}
	for _, t := range p.Tags {
		f.selected[t.ID] = true
	}
	return f
}

func newForm(categories []models.Category, tags []models.Tag) FormModel {
	ti := textinput.New()
	ti.Placeholder = "Title"
	ti.CharLimit = 200
	ti.Focus()

	ta := textarea.New()
	ta.Placeholder = "Prompt content. Use {{name}} for variables."
	ta.ShowLineNumbers = false
	ta.SetHeight(8)

	tf := textinput.New()
	tf.Placeholder = "Filter tags"

	f := FormModel{
		title:      ti,
		content:    ta,
		tagFilter:  tf,
		categories: categories,
		tags:       tags,
		category:   -1,
		selected:   make(map[models.ID]bool),
	}
	f.filterTags()
	return f
}

// Draft returns the form contents as a draft.
func (f FormModel) Draft() models.Draft {
	d := models.Draft{
		Title:   f.title.Value(),
		Content: f.content.Value(),
		TagIDs:  []models.ID{},
	}
	if f.category >= 0 && f.category < len(f.categories) {
		d.CategoryID = f.categories[f.category].ID
	}
	// Keep tag order stable.
	for _, t := range f.tags {
		if f.selected[t.ID] {
			d.TagIDs = append(d.TagIDs, t.ID)
		}
	}
	return d
}

// SetWidth resizes the text controls.
func (f *FormModel) SetWidth(width int) {
	w := max(20, width-6)
	f.title.Width = w
	f.tagFilter.Width = w
	f.content.SetWidth(w)
}

// Update handles input for the focused control.
func (f FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab":
			f.setFocus((f.focus + 1) % fieldCount)
			return f, nil
		case "shift+tab":
			f.setFocus((f.focus + fieldCount - 1) % fieldCount)
			return f, nil
		}

		switch f.focus {
		case fieldCategory:
			f.cycleCategory(msg.String())
			return f, nil
		case fieldTags:
			switch msg.String() {
			case "up":
				if f.tagCursor > 0 {
					f.tagCursor--
				}
				return f, nil
			case "down":
				if f.tagCursor < len(f.matches)-1 {
					f.tagCursor++
				}
				return f, nil
			case " ":
				f.toggleTag()
				return f, nil
			}
			before := f.tagFilter.Value()
			f.tagFilter, cmd = f.tagFilter.Update(msg)
			if f.tagFilter.Value() != before {
				f.filterTags()
			}
			return f, cmd
		}
	}

	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case fieldContent:
		f.content, cmd = f.content.Update(msg)
	case fieldTags:
		f.tagFilter, cmd = f.tagFilter.Update(msg)
	}
	return f, cmd
}

func (f *FormModel) setFocus(field formField) {
	f.focus = field
	f.title.Blur()
	f.content.Blur()
	f.tagFilter.Blur()
	switch field {
	case fieldTitle:
		f.title.Focus()
	case fieldContent:
		f.content.Focus()
	case fieldTags:
		f.tagFilter.Focus()
	}
}

func (f *FormModel) cycleCategory(k string) {
	n := len(f.categories)
	if n == 0 {
		return
	}
	switch k {
	case "left", "h":
		if f.category <= 0 {
			f.category = n - 1
		} else {
			f.category--
		}
	case "right", "l", " ":
		f.category = (f.category + 1) % n
	}
}

func (f *FormModel) toggleTag() {
	if f.tagCursor < 0 || f.tagCursor >= len(f.matches) {
		return
	}
	id := f.tags[f.matches[f.tagCursor]].ID
	if f.selected[id] {
		delete(f.selected, id)
	} else {
		f.selected[id] = true
	}
}

// filterTags narrows the tag list to fuzzy matches of the filter text.
func (f *FormModel) filterTags() {
	pattern := strings.TrimSpace(f.tagFilter.Value())
	f.matches = make([]int, 0, len(f.tags))
	if pattern == "" {
		for i := range f.tags {
			f.matches = append(f.matches, i)
		}
	} else {
		names := make([]string, len(f.tags))
		for i, t := range f.tags {
			names[i] = t.Name
		}
		for _, m := range fuzzy.Find(pattern, names) {
			f.matches = append(f.matches, m.Index)
		}
	}
	if f.tagCursor >= len(f.matches) {
		f.tagCursor = max(0, len(f.matches)-1)
	}
}

// View renders the form.
func (f FormModel) View(st Styles, heading string) string {
	var b strings.Builder

	b.WriteString(st.Header.Render(heading))
	b.WriteString("\n\n")

	b.WriteString(f.label(st, fieldTitle, "Title"))
	b.WriteString(f.title.View())
	b.WriteString("\n\n")

	b.WriteString(f.label(st, fieldContent, "Content"))
	b.WriteString(f.content.View())
	b.WriteString("\n\n")

	b.WriteString(f.label(st, fieldCategory, "Category"))
	switch {
	case len(f.categories) == 0:
		b.WriteString(st.Muted.Render("(no categories, add one in settings)"))
	case f.category < 0:
		b.WriteString(st.Muted.Render("← (none) →"))
	default:
		b.WriteString("← " + st.Selected.Render(f.categories[f.category].Name) + " →")
	}
	b.WriteString("\n\n")

	b.WriteString(f.label(st, fieldTags, "Tags"))
	b.WriteString(f.tagFilter.View())
	b.WriteString("\n")
	if len(f.matches) == 0 {
		b.WriteString(st.Muted.Render("  (no tags)"))
		b.WriteString("\n")
	}
	for i, ti := range f.matches {
		t := f.tags[ti]
		mark := "[ ]"
		if f.selected[t.ID] {
			mark = "[x]"
		}
		line := fmt.Sprintf("  %s %s", mark, t.Name)
		if f.focus == fieldTags && i == f.tagCursor {
			b.WriteString(st.Selected.Render(line))
		} else {
			b.WriteString(st.Normal.Render(line))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (f FormModel) label(st Styles, field formField, name string) string {
	if f.focus == field {
		return st.Selected.Render("▸ "+name) + "\n"
	}
	return st.Label.Render("  "+name) + "\n"
}
