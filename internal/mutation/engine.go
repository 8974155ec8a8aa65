// Package mutation applies ordered create/edit/delete/replace actions to a
// working table list.
package mutation

import (
	"errors"
	"fmt"

	"github.com/tordrt/schemagraph/internal/schema"
)

// MaxTables is the largest table list the engine keeps. The working list is
// truncated to this size after every action.
const MaxTables = 50

// ErrUnnamedTable is returned when a create or edit payload holds a table without a name
var ErrUnnamedTable = errors.New("table has no name")

// Result is the outcome of applying an action batch
type Result struct {
	Tables      []schema.Table
	Diagnostics []schema.Diagnostic
}

// Engine applies action batches. The zero value is not usable; call New.
type Engine struct {
	maxTables int
}

// New creates an engine with the MaxTables cap
func New() *Engine {
	return &Engine{maxTables: MaxTables}
}

// Apply runs actions in order against a copy of baseline and returns the new
// table list. The baseline slice is never modified.
//
// Nil entries, unknown action types and actions without a payload are skipped
// and reported as diagnostics. An unnamed table aborts the batch with an error
// and no result.
func (e *Engine) Apply(baseline []schema.Table, actions []schema.TableAction) (*Result, error) {
	working := schema.CloneTables(baseline)
	if working == nil {
		working = []schema.Table{}
	}

	var diags []schema.Diagnostic
	for n, action := range actions {
		if action == nil {
			diags = append(diags, schema.Diagnostic{
				Kind:   schema.IgnoredAction,
				Detail: fmt.Sprintf("action %d: missing action", n),
			})
			continue
		}

		var (
			skipped *schema.Diagnostic
			err     error
		)
		working, skipped, err = e.applyOne(working, action)
		if err != nil {
			return nil, fmt.Errorf("action %d (%s): %w", n, action.Kind(), err)
		}
		if skipped != nil {
			skipped.Detail = fmt.Sprintf("action %d: %s", n, skipped.Detail)
			diags = append(diags, *skipped)
		}

		if len(working) > e.maxTables {
			working = working[:e.maxTables:e.maxTables]
		}
	}

	return &Result{Tables: working, Diagnostics: diags}, nil
}

func (e *Engine) applyOne(working []schema.Table, action schema.TableAction) ([]schema.Table, *schema.Diagnostic, error) {
	switch a := action.(type) {
	case schema.CreateAction:
		if len(a.Tables) == 0 {
			return working, emptyPayload(a.Kind()), nil
		}
		if err := checkNames(a.Tables); err != nil {
			return nil, nil, err
		}
		return create(working, a.Tables), nil, nil
	case schema.EditAction:
		if len(a.Tables) == 0 {
			return working, emptyPayload(a.Kind()), nil
		}
		if err := checkNames(a.Tables); err != nil {
			return nil, nil, err
		}
		return edit(working, a.Tables), nil, nil
	case schema.DeleteAction:
		if len(a.TableNames) == 0 {
			return working, emptyPayload(a.Kind()), nil
		}
		return remove(working, a.TableNames), nil, nil
	case schema.ReplaceAction:
		if a.NewSchema == nil {
			return working, emptyPayload(a.Kind()), nil
		}
		return schema.CloneTables(a.NewSchema), nil, nil
	case schema.UnknownAction:
		return working, &schema.Diagnostic{
			Kind:   schema.IgnoredAction,
			Detail: fmt.Sprintf("unknown action type %q", a.Type),
		}, nil
	default:
		return working, &schema.Diagnostic{
			Kind:   schema.IgnoredAction,
			Detail: fmt.Sprintf("unsupported action %T", action),
		}, nil
	}
}

func checkNames(tables []schema.Table) error {
	for i := range tables {
		if tables[i].Name == "" {
			return fmt.Errorf("table %d: %w", i, ErrUnnamedTable)
		}
	}
	return nil
}

func emptyPayload(kind schema.ActionKind) *schema.Diagnostic {
	return &schema.Diagnostic{
		Kind:   schema.IgnoredAction,
		Detail: fmt.Sprintf("%s action has no payload", kind),
	}
}

// indexOf returns the position of the first table named name, ignoring case
func indexOf(tables []schema.Table, name string) int {
	for i := range tables {
		if tables[i].NameEquals(name) {
			return i
		}
	}
	return -1
}

// create appends tables whose names are not present yet. Duplicates are
// dropped, including duplicates within the payload itself.
func create(working, tables []schema.Table) []schema.Table {
	for _, t := range tables {
		if indexOf(working, t.Name) == -1 {
			working = append(working, t.Clone())
		}
	}
	return working
}

// edit replaces tables by name or appends them. An update without
// relationships keeps the relationships of the table it replaces.
func edit(working, tables []schema.Table) []schema.Table {
	for _, t := range tables {
		updated := t.Clone()
		idx := indexOf(working, updated.Name)
		if idx == -1 {
			working = append(working, updated)
			continue
		}
		if len(updated.Relationships) == 0 {
			updated.Relationships = working[idx].Relationships
		}
		working[idx] = updated
	}
	return working
}

// remove drops every table matching one of names, ignoring case
func remove(working []schema.Table, names []string) []schema.Table {
	for _, name := range names {
		kept := working[:0]
		for _, t := range working {
			if !t.NameEquals(name) {
				kept = append(kept, t)
			}
		}
		working = kept
	}
	return working
}
