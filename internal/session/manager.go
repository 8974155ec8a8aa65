package session

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tordrt/schemagraph/internal/mutation"
	"github.com/tordrt/schemagraph/internal/schema"
)

// AssistantResponse is the output of the external action generator
type AssistantResponse struct {
	SessionID   string         `json:"sessionId,omitempty"`
	Actions     schema.Actions `json:"actions"`
	Explanation string         `json:"explanation,omitempty"`
}

// Request is one mutation round trip. CurrentTables is only used when the
// session id is empty or not known to the store.
type Request struct {
	SessionID     string            `json:"sessionId,omitempty"`
	CurrentTables []schema.Table    `json:"currentTables,omitempty"`
	Response      AssistantResponse `json:"response"`
}

// Result is returned for every request. Err is set when the batch could not
// be applied; in that case Tables holds the unchanged baseline and nothing
// was committed.
type Result struct {
	SessionID   string              `json:"sessionId"`
	Actions     schema.Actions      `json:"actions"`
	Explanation string              `json:"explanation,omitempty"`
	Tables      []schema.Table      `json:"tables"`
	Diagnostics []schema.Diagnostic `json:"diagnostics,omitempty"`
	Err         error               `json:"-"`
}

// Failed reports whether the batch was rejected
func (r *Result) Failed() bool {
	return r.Err != nil
}

// Manager applies action batches within sessions
type Manager struct {
	store  *Store
	engine *mutation.Engine
	newID  func() string
	logger *zap.Logger
}

// Option configures a Manager
type Option func(*Manager)

// WithIDGenerator replaces the session id generator
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// WithLogger sets the manager logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager backed by store
func NewManager(store *Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		engine: mutation.New(),
		newID:  NewID,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewID returns a fresh session id of the form "session-1a2b3c4d"
func NewID() string {
	return "session-" + uuid.NewString()[:8]
}

// Resolve returns the session id and baseline tables for a request.
//
// A known id yields its stored tables and current is ignored. An unknown id
// is kept and current becomes the baseline. An empty id is replaced with a
// freshly generated one.
func (m *Manager) Resolve(sessionID string, current []schema.Table) (string, []schema.Table) {
	if sessionID != "" {
		if stored, ok := m.store.Get(sessionID); ok {
			return sessionID, stored
		}
		return sessionID, schema.CloneTables(current)
	}
	return m.newID(), schema.CloneTables(current)
}

// Apply resolves the baseline for req, applies the assistant's actions and
// commits the result under the session id. A session id returned by the
// assistant takes precedence over the resolved one.
//
// On failure the store is left untouched and the result carries the error,
// the original actions and an explanation annotated with the error.
func (m *Manager) Apply(req Request) *Result {
	id, baseline := m.Resolve(req.SessionID, req.CurrentTables)
	if sid := strings.TrimSpace(req.Response.SessionID); sid != "" {
		id = sid
	}

	res, err := m.applyBatch(baseline, req.Response.Actions)
	if err != nil {
		m.logger.Warn("failed to apply actions",
			zap.String("session", id),
			zap.Int("actions", len(req.Response.Actions)),
			zap.Error(err))

		return &Result{
			SessionID:   id,
			Actions:     req.Response.Actions,
			Explanation: req.Response.Explanation + "\n\nError applying actions: " + err.Error(),
			Tables:      baseline,
			Err:         err,
		}
	}

	m.store.Put(id, res.Tables)
	m.logger.Debug("session committed",
		zap.String("session", id),
		zap.Int("tables", len(res.Tables)),
		zap.Int("skipped", len(res.Diagnostics)))

	return &Result{
		SessionID:   id,
		Actions:     req.Response.Actions,
		Explanation: req.Response.Explanation,
		Tables:      res.Tables,
		Diagnostics: res.Diagnostics,
	}
}

// applyBatch converts a panic inside the engine into an error so a bad batch
// never takes the process down
func (m *Manager) applyBatch(baseline []schema.Table, actions []schema.TableAction) (res *mutation.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("panic while applying actions: %v", r)
		}
	}()
	return m.engine.Apply(baseline, actions)
}
