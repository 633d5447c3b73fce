package view

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazuruo/pdeck/internal/models"
)

func prompt(id, cat models.ID) models.Prompt {
	return models.Prompt{ID: id, Title: "p", Content: "c", CategoryID: cat}
}

func TestDeriveBlankQueryListsEveryCategory(t *testing.T) {
	cats := []models.Category{{ID: 2, Name: "B"}, {ID: 1, Name: "A"}, {ID: 3, Name: "C"}}
	prompts := []models.Prompt{prompt(10, 1), prompt(11, 2), prompt(12, 1)}

	for _, q := range []models.SearchQuery{{}, {Text: "   "}} {
		groups := Derive(prompts, cats, q)
		require.Len(t, groups, 3)

		assert.Equal(t, cats[0], groups[0].Category)
		assert.Equal(t, []models.Prompt{prompt(11, 2)}, groups[0].Prompts)
		assert.Equal(t, cats[1], groups[1].Category)
		assert.Equal(t, []models.Prompt{prompt(10, 1), prompt(12, 1)}, groups[1].Prompts)
		assert.Equal(t, cats[2], groups[2].Category)
		assert.NotNil(t, groups[2].Prompts)
		assert.Empty(t, groups[2].Prompts)
	}
}

func TestDeriveActiveQueryDropsEmptyCategories(t *testing.T) {
	cats := []models.Category{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
	prompts := []models.Prompt{prompt(10, 2)}

	groups := Derive(prompts, cats, models.SearchQuery{Text: "sql"})
	require.Len(t, groups, 1)
	assert.Equal(t, "B", groups[0].Category.Name)

	assert.Empty(t, Derive(nil, cats, models.SearchQuery{Text: "sql"}))
}

func TestDeriveExcludesOrphans(t *testing.T) {
	cats := []models.Category{{ID: 1, Name: "A"}}
	prompts := []models.Prompt{prompt(10, 1), prompt(11, 99)}

	groups := Derive(prompts, cats, models.SearchQuery{})
	assert.Equal(t, []models.Prompt{prompt(10, 1)}, Flatten(groups))
	assert.Equal(t, []models.Prompt{prompt(11, 99)}, Orphans(prompts, cats))
}

// Properties over random inputs: with a blank query each category appears
// exactly once in order; with a non-blank query no group is empty.
func TestDeriveProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 200; iter++ {
		nc := rng.Intn(6)
		cats := make([]models.Category, nc)
		for i := range cats {
			cats[i] = models.Category{ID: models.ID(i + 1), Name: "c"}
		}
		rng.Shuffle(len(cats), func(i, j int) { cats[i], cats[j] = cats[j], cats[i] })

		np := rng.Intn(12)
		prompts := make([]models.Prompt, np)
		for i := range prompts {
			prompts[i] = prompt(models.ID(100+i), models.ID(rng.Intn(nc+2)))
		}

		blank := Derive(prompts, cats, models.SearchQuery{})
		require.Len(t, blank, len(cats))
		for i, g := range blank {
			assert.Equal(t, cats[i], g.Category)
			var want []models.Prompt
			for _, p := range prompts {
				if p.CategoryID == g.Category.ID {
					want = append(want, p)
				}
			}
			if want == nil {
				want = []models.Prompt{}
			}
			assert.Equal(t, want, g.Prompts, "snapshot order within a group")
		}

		for _, g := range Derive(prompts, cats, models.SearchQuery{Text: "q"}) {
			assert.NotEmpty(t, g.Prompts)
		}

		assert.Equal(t, Derive(prompts, cats, models.SearchQuery{}), blank, "deterministic")
	}
}

func TestFindAndIndexOf(t *testing.T) {
	cats := []models.Category{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
	groups := Derive([]models.Prompt{prompt(10, 2), prompt(11, 1), prompt(12, 2)}, cats, models.SearchQuery{})

	g, i, ok := Find(groups, 12)
	require.True(t, ok)
	assert.Equal(t, 1, g)
	assert.Equal(t, 1, i)

	_, _, ok = Find(groups, 404)
	assert.False(t, ok)

	assert.Equal(t, 0, IndexOf(groups, 11))
	assert.Equal(t, 2, IndexOf(groups, 12))
	assert.Equal(t, -1, IndexOf(groups, 404))

	ids := []models.ID{}
	for _, p := range Flatten(groups) {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []models.ID{11, 10, 12}, ids)
}

func TestEmpty(t *testing.T) {
	cats := []models.Category{{ID: 1, Name: "A"}}
	assert.True(t, Empty(Derive(nil, cats, models.SearchQuery{})))
	assert.False(t, Empty(Derive([]models.Prompt{prompt(1, 1)}, cats, models.SearchQuery{})))
	assert.True(t, Empty(nil))
}
