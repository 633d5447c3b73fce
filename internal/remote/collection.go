package remote

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	pdeckerrors "github.com/chazuruo/pdeck/internal/errors"
	"github.com/chazuruo/pdeck/internal/models"
)

// Collection is the set of remote operations the catalog store depends on.
// Each call is independent and carries no client-side state.
type Collection interface {
	ListPrompts(ctx context.Context, search string) ([]models.Prompt, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListTags(ctx context.Context) ([]models.Tag, error)

	CreatePrompt(ctx context.Context, d models.Draft) (models.Prompt, error)
	UpdatePrompt(ctx context.Context, id models.ID, d models.Draft) (models.Prompt, error)
	DeletePrompt(ctx context.Context, id models.ID) error
	DuplicatePrompt(ctx context.Context, id models.ID) error

	CreateCategory(ctx context.Context, name string) (models.Category, error)
	DeleteCategory(ctx context.Context, id models.ID) error
	CreateTag(ctx context.Context, name string) (models.Tag, error)
	DeleteTag(ctx context.Context, id models.ID) error
}

var _ Collection = (*Client)(nil)

type nameBody struct {
	Name string `json:"name"`
}

// ListPrompts fetches prompts, filtered server-side when search is not blank.
func (c *Client) ListPrompts(ctx context.Context, search string) ([]models.Prompt, error) {
	const op = "list prompts"
	var query url.Values
	if strings.TrimSpace(search) != "" {
		query = url.Values{"search": []string{search}}
	}

	var prompts []models.Prompt
	if err := c.get(ctx, op, "/prompts", query, &prompts); err != nil {
		return nil, err
	}
	for i := range prompts {
		if err := checkPrompt(prompts[i]); err != nil {
			return nil, &pdeckerrors.RemoteError{Op: op, Err: err}
		}
		prompts[i].Tags = models.UniqueTags(prompts[i].Tags)
	}
	if prompts == nil {
		prompts = []models.Prompt{}
	}
	return prompts, nil
}

// ListCategories fetches every category.
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	const op = "list categories"
	var categories []models.Category
	if err := c.get(ctx, op, "/categories", nil, &categories); err != nil {
		return nil, err
	}
	for _, cat := range categories {
		if err := checkNamed("category", cat.ID, cat.Name); err != nil {
			return nil, &pdeckerrors.RemoteError{Op: op, Err: err}
		}
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

// ListTags fetches every tag.
func (c *Client) ListTags(ctx context.Context) ([]models.Tag, error) {
	const op = "list tags"
	var tags []models.Tag
	if err := c.get(ctx, op, "/tags", nil, &tags); err != nil {
		return nil, err
	}
	for _, tag := range tags {
		if err := checkNamed("tag", tag.ID, tag.Name); err != nil {
			return nil, &pdeckerrors.RemoteError{Op: op, Err: err}
		}
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return tags, nil
}

// CreatePrompt submits a new prompt.
func (c *Client) CreatePrompt(ctx context.Context, d models.Draft) (models.Prompt, error) {
	const op = "create prompt"
	var p models.Prompt
	if err := c.post(ctx, op, "/prompts", d.Normalized(), &p); err != nil {
		return models.Prompt{}, err
	}
	if err := checkPrompt(p); err != nil {
		return models.Prompt{}, &pdeckerrors.RemoteError{Op: op, Err: err}
	}
	return p, nil
}

// UpdatePrompt replaces every field of prompt id with the draft.
func (c *Client) UpdatePrompt(ctx context.Context, id models.ID, d models.Draft) (models.Prompt, error) {
	const op = "update prompt"
	var p models.Prompt
	if err := c.put(ctx, op, fmt.Sprintf("/prompts/%d", id), d.Normalized(), &p); err != nil {
		return models.Prompt{}, err
	}
	if err := checkPrompt(p); err != nil {
		return models.Prompt{}, &pdeckerrors.RemoteError{Op: op, Err: err}
	}
	return p, nil
}

// DeletePrompt removes prompt id.
func (c *Client) DeletePrompt(ctx context.Context, id models.ID) error {
	return c.delete(ctx, "delete prompt", fmt.Sprintf("/prompts/%d", id))
}

// DuplicatePrompt asks the service to copy prompt id. The copy is picked
// up by the next prompt refresh.
func (c *Client) DuplicatePrompt(ctx context.Context, id models.ID) error {
	return c.post(ctx, "duplicate prompt", fmt.Sprintf("/prompts/%d/copy", id), nil, nil)
}

// CreateCategory adds a category.
func (c *Client) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	const op = "create category"
	var cat models.Category
	if err := c.post(ctx, op, "/categories", nameBody{Name: name}, &cat); err != nil {
		return models.Category{}, err
	}
	if err := checkNamed("category", cat.ID, cat.Name); err != nil {
		return models.Category{}, &pdeckerrors.RemoteError{Op: op, Err: err}
	}
	return cat, nil
}

// DeleteCategory removes category id.
func (c *Client) DeleteCategory(ctx context.Context, id models.ID) error {
	return c.delete(ctx, "delete category", fmt.Sprintf("/categories/%d", id))
}

// CreateTag adds a tag.
func (c *Client) CreateTag(ctx context.Context, name string) (models.Tag, error) {
	const op = "create tag"
	var tag models.Tag
	if err := c.post(ctx, op, "/tags", nameBody{Name: name}, &tag); err != nil {
		return models.Tag{}, err
	}
	if err := checkNamed("tag", tag.ID, tag.Name); err != nil {
		return models.Tag{}, &pdeckerrors.RemoteError{Op: op, Err: err}
	}
	return tag, nil
}

// DeleteTag removes tag id.
func (c *Client) DeleteTag(ctx context.Context, id models.ID) error {
	return c.delete(ctx, "delete tag", fmt.Sprintf("/tags/%d", id))
}

func checkPrompt(p models.Prompt) error {
	if p.ID <= 0 {
		return fmt.Errorf("prompt without a valid id (%d)", p.ID)
	}
	for _, t := range p.Tags {
		if t.ID <= 0 {
			return fmt.Errorf("prompt %d carries a tag without a valid id", p.ID)
		}
	}
	return nil
}

func checkNamed(kind string, id models.ID, name string) error {
	if id <= 0 {
		return fmt.Errorf("%s without a valid id (%d)", kind, id)
	}
	if name == "" {
		return fmt.Errorf("%s %d has no name", kind, id)
	}
	return nil
}
