package schema

import "fmt"

// DiagnosticKind classifies input that was skipped in lenient mode
type DiagnosticKind string

const (
	UnresolvedReference DiagnosticKind = "unresolved_reference"
	ExtraJoinForeignKey DiagnosticKind = "extra_join_foreign_key"
	IgnoredAction       DiagnosticKind = "ignored_action"
	FailedStatement     DiagnosticKind = "failed_statement"
)

// Diagnostic records an item that was dropped instead of failing the operation
type Diagnostic struct {
	Kind   DiagnosticKind `json:"kind"`
	Table  string         `json:"table,omitempty"`
	Column string         `json:"column,omitempty"`
	Detail string         `json:"detail"`
}

func (d Diagnostic) String() string {
	switch {
	case d.Table != "" && d.Column != "":
		return fmt.Sprintf("%s: %s.%s: %s", d.Kind, d.Table, d.Column, d.Detail)
	case d.Table != "":
		return fmt.Sprintf("%s: %s: %s", d.Kind, d.Table, d.Detail)
	default:
		return fmt.Sprintf("%s: %s", d.Kind, d.Detail)
	}
}
