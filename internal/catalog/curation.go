package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	pdeckerrors "github.com/chazuruo/pdeck/internal/errors"
	"github.com/chazuruo/pdeck/internal/models"
)

// NormalizeName trims a category or tag name. A blank name is rejected.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &pdeckerrors.ValidationError{Field: "name", Reason: "must not be blank"}
	}
	return name, nil
}

// CreateCategory adds a category and re-fetches the category list. The new
// category appears wherever the service places it.
func (s *Store) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return models.Category{}, err
	}
	c, err := s.col.CreateCategory(ctx, name)
	if err != nil {
		return models.Category{}, pdeckerrors.Remote("create category", err)
	}
	s.logger.Info("category created", "id", c.ID, "name", c.Name)

	_, rErr := s.RefreshCategories(ctx)
	return c, cascadeError(rErr)
}

// DeleteCategory removes a category, then re-fetches both categories and
// prompts so no prompt is shown under a category that no longer exists.
// Prompts themselves are never deleted.
func (s *Store) DeleteCategory(ctx context.Context, id models.ID) error {
	if _, ok := s.Category(id); !ok {
		return &pdeckerrors.NotFoundError{Kind: "category", ID: int64(id)}
	}
	if err := s.col.DeleteCategory(ctx, id); err != nil {
		return pdeckerrors.Remote("delete category", err)
	}
	s.logger.Info("category deleted", "id", id)

	_, cErr := s.RefreshCategories(ctx)
	_, pErr := s.RefreshPrompts(ctx, s.Query())
	return cascadeError(cErr, pErr)
}

// CreateTag adds a tag and re-fetches the tag list.
func (s *Store) CreateTag(ctx context.Context, name string) (models.Tag, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return models.Tag{}, err
	}
	t, err := s.col.CreateTag(ctx, name)
	if err != nil {
		return models.Tag{}, pdeckerrors.Remote("create tag", err)
	}
	s.logger.Info("tag created", "id", t.ID, "name", t.Name)

	_, rErr := s.RefreshTags(ctx)
	return t, cascadeError(rErr)
}

// DeleteTag removes a tag, then re-fetches tags and prompts so prompts stop
// carrying it.
func (s *Store) DeleteTag(ctx context.Context, id models.ID) error {
	if _, ok := s.Tag(id); !ok {
		return &pdeckerrors.NotFoundError{Kind: "tag", ID: int64(id)}
	}
	if err := s.col.DeleteTag(ctx, id); err != nil {
		return pdeckerrors.Remote("delete tag", err)
	}
	s.logger.Info("tag deleted", "id", id)

	_, tErr := s.RefreshTags(ctx)
	_, pErr := s.RefreshPrompts(ctx, s.Query())
	return cascadeError(tErr, pErr)
}

// PromptsInCategory returns the prompts filed under category id.
func PromptsInCategory(prompts []models.Prompt, id models.ID) []models.Prompt {
	out := []models.Prompt{}
	for _, p := range prompts {
		if p.CategoryID == id {
			out = append(out, p)
		}
	}
	return out
}

// PromptsWithTag returns the prompts carrying tag id.
func PromptsWithTag(prompts []models.Prompt, id models.ID) []models.Prompt {
	out := []models.Prompt{}
	for _, p := range prompts {
		if p.HasTag(id) {
			out = append(out, p)
		}
	}
	return out
}

// CategoryUsage counts prompts per category id.
func CategoryUsage(prompts []models.Prompt) map[models.ID]int {
	usage := make(map[models.ID]int)
	for _, p := range prompts {
		usage[p.CategoryID]++
	}
	return usage
}

// TagUsage counts prompts per tag id.
func TagUsage(prompts []models.Prompt) map[models.ID]int {
	usage := make(map[models.ID]int)
	for _, p := range prompts {
		for _, t := range p.Tags {
			usage[t.ID]++
		}
	}
	return usage
}

// MatchCategory resolves ref as a numeric id or a case-folded name. Names
// need not be unique; more than one match is an error.
func MatchCategory(categories []models.Category, ref string) (models.Category, error) {
	i, err := match(len(categories), ref, func(i int) (models.ID, string) {
		return categories[i].ID, categories[i].Name
	})
	if err != nil {
		return models.Category{}, wrapMatch("category", ref, err)
	}
	return categories[i], nil
}

// MatchTag resolves ref as a numeric id or a case-folded name.
func MatchTag(tags []models.Tag, ref string) (models.Tag, error) {
	i, err := match(len(tags), ref, func(i int) (models.ID, string) {
		return tags[i].ID, tags[i].Name
	})
	if err != nil {
		return models.Tag{}, wrapMatch("tag", ref, err)
	}
	return tags[i], nil
}

// MatchTags resolves every ref with MatchTag and returns the unique ids.
func MatchTags(tags []models.Tag, refs []string) ([]models.ID, error) {
	ids := make([]models.ID, 0, len(refs))
	for _, ref := range refs {
		t, err := MatchTag(tags, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, t.ID)
	}
	return models.UniqueIDs(ids), nil
}

var (
	errNoMatch   = errors.New("no match")
	errAmbiguous = errors.New("ambiguous")
)

func match(n int, ref string, at func(int) (models.ID, string)) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return -1, errNoMatch
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		for i := 0; i < n; i++ {
			if got, _ := at(i); got == models.ID(id) {
				return i, nil
			}
		}
	}

	fold := cases.Fold()
	want := fold.String(ref)
	var hits []int
	for i := 0; i < n; i++ {
		if _, name := at(i); fold.String(strings.TrimSpace(name)) == want {
			hits = append(hits, i)
		}
	}
	switch len(hits) {
	case 0:
		return -1, errNoMatch
	case 1:
		return hits[0], nil
	}
	return -1, errAmbiguous
}

func wrapMatch(kind, ref string, err error) error {
	if err == errAmbiguous {
		return &pdeckerrors.ValidationError{Field: kind, Reason: fmt.Sprintf("%q matches more than one %s; use its id", ref, kind)}
	}
	return &pdeckerrors.ValidationError{Field: kind, Reason: fmt.Sprintf("no %s matches %q", kind, ref)}
}
