package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chazuruo/pdeck/internal/catalog"
	pdeckerrors "github.com/chazuruo/pdeck/internal/errors"
	"github.com/chazuruo/pdeck/internal/models"
	"github.com/chazuruo/pdeck/internal/view"
)

// Catalog is the subset of catalog.Store the controller drives.
type Catalog interface {
	Prompt(id models.ID) (models.Prompt, bool)
	Prompts() []models.Prompt
	Categories() []models.Category
	Tags() []models.Tag
	Query() models.SearchQuery

	RefreshPrompts(ctx context.Context, q models.SearchQuery) ([]models.Prompt, error)
	RefreshCategories(ctx context.Context) ([]models.Category, error)
	RefreshTags(ctx context.Context) ([]models.Tag, error)

	CreatePrompt(ctx context.Context, d models.Draft) (models.Prompt, error)
	UpdatePrompt(ctx context.Context, id models.ID, d models.Draft) (models.Prompt, error)
	DeletePrompt(ctx context.Context, id models.ID, confirm catalog.Confirmation) error
	DuplicatePrompt(ctx context.Context, id models.ID) error

	CreateCategory(ctx context.Context, name string) (models.Category, error)
	DeleteCategory(ctx context.Context, id models.ID) error
	CreateTag(ctx context.Context, name string) (models.Tag, error)
	DeleteTag(ctx context.Context, id models.ID) error
}

var _ Catalog = (*catalog.Store)(nil)

// Controller enforces that at most one workflow is open and routes user
// intents to the catalog.
//
// Every Open* starts a new session. Submissions remember the session they
// started in; a result arriving after that session ended is dropped and
// reported as ErrStale. The lock is never held across a catalog call.
type Controller struct {
	store  Catalog
	logger *slog.Logger

	mu       sync.Mutex
	wf       Workflow
	focused  models.ID
	hasFocus bool
	session  uint64
	err      error
}

// New creates a controller in the Idle state with no focus.
func New(store Catalog, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{store: store, logger: logger, wf: Idle{}}
}

// State returns a copy of the current selection state. A focused prompt
// that has left the snapshot is unfocused first.
func (c *Controller) State() SelectionState {
	id, ok := c.focus()
	c.mu.Lock()
	defer c.mu.Unlock()
	st := SelectionState{Workflow: c.wf}
	if ok {
		st.Focused = &id
	}
	return st
}

// focus returns the focused id, clearing it when the store no longer has
// that prompt.
func (c *Controller) focus() (models.ID, bool) {
	c.mu.Lock()
	id, ok := c.focused, c.hasFocus
	c.mu.Unlock()
	if !ok {
		return 0, false
	}
	if _, present := c.store.Prompt(id); present {
		return id, true
	}
	c.mu.Lock()
	if c.hasFocus && c.focused == id {
		c.focused, c.hasFocus = 0, false
		c.logger.Debug("focused prompt left the snapshot", "id", id)
	}
	c.mu.Unlock()
	return 0, false
}

// Err returns the error recorded by the last failed action of the open workflow.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// View derives the grouped listing from the current snapshots.
func (c *Controller) View() []view.Group {
	return view.Derive(c.store.Prompts(), c.store.Categories(), c.store.Query())
}

// Focused returns the focused prompt while it is still in the snapshot.
func (c *Controller) Focused() (models.Prompt, bool) {
	id, ok := c.focus()
	if !ok {
		return models.Prompt{}, false
	}
	return c.store.Prompt(id)
}

// OpenSettings opens category and tag curation.
func (c *Controller) OpenSettings() error {
	return c.open(Settings{})
}

// OpenCreate opens the new-prompt form.
func (c *Controller) OpenCreate() error {
	return c.open(Create{})
}

// OpenEdit opens the edit form for prompt id.
func (c *Controller) OpenEdit(id models.ID) error {
	if _, ok := c.store.Prompt(id); !ok {
		return &pdeckerrors.NotFoundError{Kind: "prompt", ID: int64(id)}
	}
	return c.open(Edit{Target: id})
}

func (c *Controller) open(wf Workflow) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, idle := c.wf.(Idle); !idle {
		return fmt.Errorf("open %s while %s is open: %w", wf, c.wf, pdeckerrors.ErrBusy)
	}
	c.wf = wf
	c.session++
	c.err = nil
	c.logger.Debug("workflow opened", "workflow", wf.String(), "session", c.session)
	return nil
}

// Close returns to Idle from any state and clears the recorded error.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Controller) closeLocked() {
	if _, idle := c.wf.(Idle); !idle {
		c.logger.Debug("workflow closed", "workflow", c.wf.String(), "session", c.session)
		c.session++
	}
	c.wf = Idle{}
	c.err = nil
}

// Select focuses prompt id without touching the workflow.
func (c *Controller) Select(id models.ID) error {
	if _, ok := c.store.Prompt(id); !ok {
		return &pdeckerrors.NotFoundError{Kind: "prompt", ID: int64(id)}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focused, c.hasFocus = id, true
	return nil
}

// ClearFocus drops the focus.
func (c *Controller) ClearFocus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focused, c.hasFocus = 0, false
}

// begin checks that the open workflow satisfies want and returns its session.
func (c *Controller) begin(want func(Workflow) bool, action string) (Workflow, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !want(c.wf) {
		return nil, 0, &pdeckerrors.ValidationError{Field: "workflow", Reason: fmt.Sprintf("%s is not allowed while %s", action, c.wf)}
	}
	return c.wf, c.session, nil
}

// finish re-acquires the lock after a catalog call. It returns false, with
// the lock released, when the session the call started in has ended.
// Otherwise the caller must unlock.
func (c *Controller) finish(token uint64, action string) bool {
	c.mu.Lock()
	if c.session != token {
		c.mu.Unlock()
		c.logger.Debug("dropping late result", "action", action, "session", token)
		return false
	}
	return true
}

func isCreate(wf Workflow) bool {
	_, ok := wf.(Create)
	return ok
}

func isEdit(wf Workflow) bool {
	_, ok := wf.(Edit)
	return ok
}

func isSettings(wf Workflow) bool {
	_, ok := wf.(Settings)
	return ok
}

// SubmitCreate sends the create form. On success the workflow closes; on
// failure it stays open and the error is recorded.
func (c *Controller) SubmitCreate(ctx context.Context, d models.Draft) (models.Prompt, error) {
	_, token, err := c.begin(isCreate, "submit create")
	if err != nil {
		return models.Prompt{}, err
	}

	p, err := c.store.CreatePrompt(ctx, d)

	if !c.finish(token, "submit create") {
		return p, pdeckerrors.ErrStale
	}
	defer c.mu.Unlock()
	if p.ID == 0 {
		c.err = err
		return p, err
	}
	c.closeLocked()
	return p, err
}

// SubmitEdit sends the edit form. On success the workflow closes and the
// edited prompt gains focus.
func (c *Controller) SubmitEdit(ctx context.Context, d models.Draft) (models.Prompt, error) {
	wf, token, err := c.begin(isEdit, "submit edit")
	if err != nil {
		return models.Prompt{}, err
	}
	target := wf.(Edit).Target

	p, err := c.store.UpdatePrompt(ctx, target, d)

	if !c.finish(token, "submit edit") {
		return p, pdeckerrors.ErrStale
	}
	defer c.mu.Unlock()
	if p.ID == 0 {
		c.err = err
		return p, err
	}
	c.closeLocked()
	c.focused, c.hasFocus = target, true
	return p, err
}

// AddCategory creates a category. Settings stays open.
func (c *Controller) AddCategory(ctx context.Context, name string) (models.Category, error) {
	_, token, err := c.begin(isSettings, "add category")
	if err != nil {
		return models.Category{}, err
	}
	cat, err := c.store.CreateCategory(ctx, name)
	return cat, c.settle(token, "add category", err)
}

// RemoveCategory deletes a category. Settings stays open.
func (c *Controller) RemoveCategory(ctx context.Context, id models.ID) error {
	_, token, err := c.begin(isSettings, "remove category")
	if err != nil {
		return err
	}
	return c.settle(token, "remove category", c.store.DeleteCategory(ctx, id))
}

// AddTag creates a tag. Settings stays open.
func (c *Controller) AddTag(ctx context.Context, name string) (models.Tag, error) {
	_, token, err := c.begin(isSettings, "add tag")
	if err != nil {
		return models.Tag{}, err
	}
	tag, err := c.store.CreateTag(ctx, name)
	return tag, c.settle(token, "add tag", err)
}

// RemoveTag deletes a tag. Settings stays open.
func (c *Controller) RemoveTag(ctx context.Context, id models.ID) error {
	_, token, err := c.begin(isSettings, "remove tag")
	if err != nil {
		return err
	}
	return c.settle(token, "remove tag", c.store.DeleteTag(ctx, id))
}

// settle records the outcome of a Settings action unless the session ended.
func (c *Controller) settle(token uint64, action string, err error) error {
	if !c.finish(token, action) {
		return pdeckerrors.ErrStale
	}
	defer c.mu.Unlock()
	c.err = err
	return err
}

// Delete removes prompt id from any state. A focused id loses focus and an
// edit of id closes.
func (c *Controller) Delete(ctx context.Context, id models.ID, confirm catalog.Confirmation) error {
	if err := c.store.DeletePrompt(ctx, id, confirm); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasFocus && c.focused == id {
		c.focused, c.hasFocus = 0, false
	}
	if e, ok := c.wf.(Edit); ok && e.Target == id {
		c.closeLocked()
	}
	return nil
}

// Duplicate copies prompt id.
func (c *Controller) Duplicate(ctx context.Context, id models.ID) error {
	return c.store.DuplicatePrompt(ctx, id)
}

// Search re-fetches prompts filtered by text.
func (c *Controller) Search(ctx context.Context, text string) error {
	_, err := c.store.RefreshPrompts(ctx, models.SearchQuery{Text: text})
	return err
}

// Refresh reloads every snapshot, keeping the active search.
func (c *Controller) Refresh(ctx context.Context) error {
	q := c.store.Query()
	_, cErr := c.store.RefreshCategories(ctx)
	_, tErr := c.store.RefreshTags(ctx)
	_, pErr := c.store.RefreshPrompts(ctx, q)
	return errors.Join(cErr, tErr, pErr)
}
