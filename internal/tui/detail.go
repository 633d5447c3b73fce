package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/chazuruo/pdeck/internal/models"
	"github.com/chazuruo/pdeck/internal/placeholders"
)

const timeLayout = "2006-01-02 15:04"

// newRenderer returns a markdown renderer for theme wrapped at width.
func newRenderer(theme string, width int) (*glamour.TermRenderer, error) {
	style := glamour.WithStandardStyle("dark")
	switch theme {
	case "light":
		style = glamour.WithStandardStyle("light")
	case "auto":
		style = glamour.WithAutoStyle()
	}
	return glamour.NewTermRenderer(style, glamour.WithWordWrap(max(20, width)))
}

// renderDetail renders the detail pane for p. A nil renderer shows the
// content as plain text.
func renderDetail(st Styles, p models.Prompt, category string, r *glamour.TermRenderer) string {
	var b strings.Builder

	b.WriteString(st.Header.Render(p.Title))
	b.WriteString("\n\n")

	if category == "" {
		category = "(uncategorized)"
	}
	b.WriteString(st.Label.Render("Category: "))
	b.WriteString(category)
	b.WriteString("\n")

	if names := p.TagNames(); len(names) > 0 {
		b.WriteString(st.Label.Render("Tags: "))
		b.WriteString(st.Tag.Render(strings.Join(names, ", ")))
		b.WriteString("\n")
	}

	if vars := placeholders.Extract(p.Content); len(vars) > 0 {
		b.WriteString(st.Label.Render("Variables: "))
		b.WriteString(strings.Join(vars, ", "))
		b.WriteString("\n")
	}

	if !p.UpdatedAt.IsZero() {
		b.WriteString(st.Muted.Render("Updated " + p.UpdatedAt.Format(timeLayout)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	content := p.Content
	if r != nil {
		if out, err := r.Render(content); err == nil {
			content = out
		}
	}
	b.WriteString(content)
	return b.String()
}
