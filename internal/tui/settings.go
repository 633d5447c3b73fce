package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chazuruo/pdeck/internal/models"
)

type section int

const (
	sectionCategories section = iota
	sectionTags
)

func (s section) String() string {
	if s == sectionTags {
		return "tag"
	}
	return "category"
}

// settingsIntent is a curation request produced by the settings pane.
type settingsIntent struct {
	section section
	// add is true for a create with name; false for a delete of id.
	add  bool
	name string
	id   models.ID
}

// SettingsModel lists categories and tags with their usage and lets the
// user add or remove them.
type SettingsModel struct {
	section section
	cursor  [2]int
	input   textinput.Model
	adding  bool
}

// NewSettings returns a settings pane focused on categories.
func NewSettings() SettingsModel {
	ti := textinput.New()
	ti.CharLimit = 80
	return SettingsModel{input: ti}
}

// Adding reports whether the name input is open.
func (s SettingsModel) Adding() bool {
	return s.adding
}

// Update handles a key. It returns an intent when the user asked for a
// curation action.
func (s SettingsModel) Update(msg tea.Msg, categories []models.Category, tags []models.Tag) (SettingsModel, *settingsIntent, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		if s.adding {
			var cmd tea.Cmd
			s.input, cmd = s.input.Update(msg)
			return s, nil, cmd
		}
		return s, nil, nil
	}

	if s.adding {
		switch km.String() {
		case "esc":
			s.adding = false
			s.input.Blur()
			return s, nil, nil
		case "enter":
			name := strings.TrimSpace(s.input.Value())
			s.adding = false
			s.input.Blur()
			if name == "" {
				return s, nil, nil
			}
			return s, &settingsIntent{section: s.section, add: true, name: name}, nil
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, nil, cmd
	}

	n := len(categories)
	if s.section == sectionTags {
		n = len(tags)
	}
	cur := &s.cursor[s.section]

	switch km.String() {
	case "tab", "left", "right", "h", "l":
		s.section = 1 - s.section
	case "up", "k":
		if *cur > 0 {
			*cur--
		}
	case "down", "j":
		if *cur < n-1 {
			*cur++
		}
	case "a":
		s.adding = true
		s.input.SetValue("")
		s.input.Placeholder = fmt.Sprintf("New %s name", s.section)
		cmd := s.input.Focus()
		return s, nil, cmd
	case "d", "x":
		if *cur >= n {
			return s, nil, nil
		}
		var id models.ID
		if s.section == sectionTags {
			id = tags[*cur].ID
		} else {
			id = categories[*cur].ID
		}
		return s, &settingsIntent{section: s.section, id: id}, nil
	}
	return s, nil, nil
}

// Clamp keeps the cursors inside lists that shrank.
func (s *SettingsModel) Clamp(categories []models.Category, tags []models.Tag) {
	s.cursor[sectionCategories] = clamp(s.cursor[sectionCategories], len(categories))
	s.cursor[sectionTags] = clamp(s.cursor[sectionTags], len(tags))
}

func clamp(i, n int) int {
	if i >= n {
		return max(0, n-1)
	}
	return i
}

// View renders the category list above the tag list.
func (s SettingsModel) View(st Styles, categories []models.Category, tags []models.Tag, catUsage, tagUsage map[models.ID]int) string {
	var b strings.Builder
	b.WriteString(st.Header.Render("Categories & Tags"))
	b.WriteString("\n\n")

	b.WriteString(s.column(st, sectionCategories, "Categories", len(categories), func(i int) (string, int) {
		return categories[i].Name, catUsage[categories[i].ID]
	}))
	b.WriteString("\n")
	b.WriteString(s.column(st, sectionTags, "Tags", len(tags), func(i int) (string, int) {
		return tags[i].Name, tagUsage[tags[i].ID]
	}))

	if s.adding {
		b.WriteString("\n")
		b.WriteString(s.input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(st.Muted.Render("tab switch • a add • d delete • esc close"))
	return b.String()
}

func (s SettingsModel) column(st Styles, sec section, title string, n int, at func(int) (string, int)) string {
	var b strings.Builder
	heading := st.Label.Render(title)
	if s.section == sec {
		heading = st.Selected.Render("▸ " + title)
	}
	b.WriteString(heading)
	b.WriteString("\n")
	if n == 0 {
		b.WriteString(st.Muted.Render("  (none)"))
		b.WriteString("\n")
	}
	for i := 0; i < n; i++ {
		name, used := at(i)
		line := fmt.Sprintf("  %s %s", name, st.Muted.Render(fmt.Sprintf("(%d)", used)))
		if s.section == sec && i == s.cursor[sec] {
			line = st.Selected.Render(fmt.Sprintf("› %s", name)) + " " + st.Muted.Render(fmt.Sprintf("(%d)", used))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
