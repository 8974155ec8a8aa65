package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ActionKind identifies the variant of a TableAction
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionCreate
	ActionEdit
	ActionDelete
	ActionReplace
)

func (k ActionKind) String() string {
	switch k {
	case ActionCreate:
		return "create"
	case ActionEdit:
		return "edit"
	case ActionDelete:
		return "delete"
	case ActionReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// ParseActionKind maps an action type string to its kind, ignoring case and
// surrounding whitespace. Unrecognized strings map to ActionUnknown.
func ParseActionKind(s string) ActionKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "create":
		return ActionCreate
	case "edit":
		return ActionEdit
	case "delete":
		return ActionDelete
	case "replace":
		return ActionReplace
	default:
		return ActionUnknown
	}
}

// TableAction is one step of a schema mutation batch. The set of
// implementations is closed: CreateAction, EditAction, DeleteAction,
// ReplaceAction and UnknownAction.
type TableAction interface {
	Kind() ActionKind
	tableAction()
}

// CreateAction adds tables that do not exist yet
type CreateAction struct {
	Tables []Table
}

// EditAction replaces existing tables by name, or adds them when missing
type EditAction struct {
	Tables []Table
}

// DeleteAction removes tables by name
type DeleteAction struct {
	TableNames []string
}

// ReplaceAction discards the working schema in favor of NewSchema.
// A nil NewSchema means the payload was absent.
type ReplaceAction struct {
	NewSchema []Table
}

// UnknownAction carries an action type that could not be recognized
type UnknownAction struct {
	Type string
}

func (CreateAction) Kind() ActionKind  { return ActionCreate }
func (EditAction) Kind() ActionKind    { return ActionEdit }
func (DeleteAction) Kind() ActionKind  { return ActionDelete }
func (ReplaceAction) Kind() ActionKind { return ActionReplace }
func (UnknownAction) Kind() ActionKind { return ActionUnknown }

func (CreateAction) tableAction()  {}
func (EditAction) tableAction()    {}
func (DeleteAction) tableAction()  {}
func (ReplaceAction) tableAction() {}
func (UnknownAction) tableAction() {}

// actionJSON is the wire shape produced by the assistant
type actionJSON struct {
	Type       string   `json:"type"`
	Tables     []Table  `json:"tables,omitempty"`
	TableNames []string `json:"tableNames,omitempty"`
	NewSchema  *[]Table `json:"newSchema,omitempty"`
}

// ParseAction decodes a single action from its JSON form
func ParseAction(data []byte) (TableAction, error) {
	var raw actionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode action: %w", err)
	}
	return raw.toAction(), nil
}

func (a actionJSON) toAction() TableAction {
	switch ParseActionKind(a.Type) {
	case ActionCreate:
		return CreateAction{Tables: a.Tables}
	case ActionEdit:
		return EditAction{Tables: a.Tables}
	case ActionDelete:
		return DeleteAction{TableNames: a.TableNames}
	case ActionReplace:
		if a.NewSchema == nil {
			return ReplaceAction{}
		}
		return ReplaceAction{NewSchema: *a.NewSchema}
	default:
		return UnknownAction{Type: a.Type}
	}
}

func fromAction(action TableAction) actionJSON {
	switch a := action.(type) {
	case CreateAction:
		return actionJSON{Type: "create", Tables: a.Tables}
	case EditAction:
		return actionJSON{Type: "edit", Tables: a.Tables}
	case DeleteAction:
		return actionJSON{Type: "delete", TableNames: a.TableNames}
	case ReplaceAction:
		out := actionJSON{Type: "replace"}
		if a.NewSchema != nil {
			out.NewSchema = &a.NewSchema
		}
		return out
	case UnknownAction:
		return actionJSON{Type: a.Type}
	default:
		return actionJSON{}
	}
}

// Actions is an ordered action list with a JSON codec
type Actions []TableAction

// UnmarshalJSON decodes an array of actions, dispatching on each element's type
func (as *Actions) UnmarshalJSON(data []byte) error {
	var raws []actionJSON
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("failed to decode actions: %w", err)
	}
	out := make(Actions, 0, len(raws))
	for _, raw := range raws {
		out = append(out, raw.toAction())
	}
	*as = out
	return nil
}

// MarshalJSON encodes the actions back into their wire shape
func (as Actions) MarshalJSON() ([]byte, error) {
	raws := make([]actionJSON, 0, len(as))
	for _, a := range as {
		if a == nil {
			continue
		}
		raws = append(raws, fromAction(a))
	}
	return json.Marshal(raws)
}
