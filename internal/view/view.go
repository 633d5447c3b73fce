// Package view derives the grouped prompt listing shown to the user.
package view

import (
	"github.com/chazuruo/pdeck/internal/models"
)

// Group is one category with the prompts filed under it.
type Group struct {
	Category models.Category
	Prompts  []models.Prompt
}

// Derive groups prompts by category, in category order. Prompt order is the
// snapshot order. With a blank query every category is listed, empty or
// not; with an active query only categories holding at least one prompt are.
// Filtering itself happens on the server. Prompts whose category is unknown
// are left out.
func Derive(prompts []models.Prompt, categories []models.Category, q models.SearchQuery) []Group {
	byCategory := make(map[models.ID][]models.Prompt, len(categories))
	for _, p := range prompts {
		byCategory[p.CategoryID] = append(byCategory[p.CategoryID], p)
	}

	blank := q.Blank()
	groups := make([]Group, 0, len(categories))
	for _, c := range categories {
		ps := byCategory[c.ID]
		if len(ps) == 0 && !blank {
			continue
		}
		if ps == nil {
			ps = []models.Prompt{}
		}
		groups = append(groups, Group{Category: c, Prompts: ps})
	}
	return groups
}

// Orphans returns prompts whose category is not in categories.
func Orphans(prompts []models.Prompt, categories []models.Category) []models.Prompt {
	known := make(map[models.ID]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}
	out := []models.Prompt{}
	for _, p := range prompts {
		if !known[p.CategoryID] {
			out = append(out, p)
		}
	}
	return out
}

// Flatten returns prompts in display order.
func Flatten(groups []Group) []models.Prompt {
	var n int
	for _, g := range groups {
		n += len(g.Prompts)
	}
	out := make([]models.Prompt, 0, n)
	for _, g := range groups {
		out = append(out, g.Prompts...)
	}
	return out
}

// Find locates prompt id, returning its group and position within the group.
func Find(groups []Group, id models.ID) (group, index int, ok bool) {
	for gi, g := range groups {
		for pi, p := range g.Prompts {
			if p.ID == id {
				return gi, pi, true
			}
		}
	}
	return -1, -1, false
}

// IndexOf returns the position of prompt id in Flatten(groups), or -1.
func IndexOf(groups []Group, id models.ID) int {
	i := 0
	for _, g := range groups {
		for _, p := range g.Prompts {
			if p.ID == id {
				return i
			}
			i++
		}
	}
	return -1
}

// Empty reports whether no prompt is visible.
func Empty(groups []Group) bool {
	for _, g := range groups {
		if len(g.Prompts) > 0 {
			return false
		}
	}
	return true
}
