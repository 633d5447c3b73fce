// Package workflow tracks which modal task is open and which prompt has focus.
package workflow

import (
	"fmt"

	"github.com/chazuruo/pdeck/internal/models"
)

// Workflow is the active modal task. Exactly one variant is active at a time:
// Idle, Settings, Create or Edit.
type Workflow interface {
	fmt.Stringer
	workflow()
}

// Idle means no modal task is open.
type Idle struct{}

// Settings is the category and tag curation task.
type Settings struct{}

// Create is the new-prompt form.
type Create struct{}

// Edit is the edit form for Target.
type Edit struct {
	Target models.ID
}

func (Idle) workflow()     {}
func (Settings) workflow() {}
func (Create) workflow()   {}
func (Edit) workflow()     {}

func (Idle) String() string     { return "idle" }
func (Settings) String() string { return "settings" }
func (Create) String() string   { return "create" }
func (e Edit) String() string   { return fmt.Sprintf("edit(%d)", e.Target) }

// SelectionState is a snapshot of focus and workflow.
type SelectionState struct {
	// Focused is the prompt shown in detail, or nil.
	Focused  *models.ID
	Workflow Workflow
}

// IsIdle reports whether no workflow is open.
func (s SelectionState) IsIdle() bool {
	_, ok := s.Workflow.(Idle)
	return ok
}

// FocusedID returns the focused id and whether there is one.
func (s SelectionState) FocusedID() (models.ID, bool) {
	if s.Focused == nil {
		return 0, false
	}
	return *s.Focused, true
}
