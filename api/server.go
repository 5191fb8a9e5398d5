// Package api exposes the admin console's REST surface: schema inspection,
// the DELETE statement builder session, guarded statement execution, and
// managed account operations.
package api

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"

	"github.com/hiteshgeek/query-builder-sub002/accounts"
	"github.com/hiteshgeek/query-builder-sub002/builder"
	"github.com/hiteshgeek/query-builder-sub002/config"
	"github.com/hiteshgeek/query-builder-sub002/confirm"
	"github.com/hiteshgeek/query-builder-sub002/schema"
	"github.com/hiteshgeek/query-builder-sub002/tools"
)

// Server bundles the long-lived resources behind the HTTP handlers: the
// managed database, the current schema snapshot, one process-wide builder,
// one process-wide confirmation gate, and the account store.
type Server struct {
	db       *sql.DB
	schema   *schema.Holder
	builder  *builder.Builder
	gate     *confirm.Gate
	accounts *accounts.Store
}

// NewServer wires a Server from its collaborators.
func NewServer(db *sql.DB, holder *schema.Holder, b *builder.Builder, gate *confirm.Gate, store *accounts.Store) *Server {
	return &Server{
		db:       db,
		schema:   holder,
		builder:  b,
		gate:     gate,
		accounts: store,
	}
}

// RegisterRoutes registers all API routes on the provided ServeMux.
//
// Routes:
//   - GET /health - Health check endpoint
//   - GET /schema - Current schema snapshot
//   - POST /schema/invalidate - Reload the snapshot from the database
//   - POST/DELETE /builder/table - Select or clear the target table
//   - GET /builder - Current builder state and statement preview
//   - POST /builder/conditions - Append a condition
//   - PATCH/DELETE /builder/conditions/{index} - Edit or remove a condition
//   - POST /builder/execute - Execute the built DELETE (typed confirmation)
//   - GET/POST /accounts - List or create managed accounts
//   - POST /accounts/{username}/lock, /unlock - Toggle the account lock
//   - POST /accounts/{username}/verify - Check credentials
//   - PATCH /accounts/{username}/password - Change the password
//   - DELETE /accounts/{username} - Delete the account (typed confirmation)
func (s *Server) RegisterRoutes(app *http.ServeMux) {
	app.HandleFunc("GET /health", s.handleHealth())

	app.HandleFunc("GET /schema", s.handleGetSchema())
	app.HandleFunc("POST /schema/invalidate", s.handleInvalidateSchema())

	app.HandleFunc("POST /builder/table", s.handleSelectTable())
	app.HandleFunc("DELETE /builder/table", s.handleResetBuilder())
	app.HandleFunc("GET /builder", s.handleBuilderState())
	app.HandleFunc("POST /builder/conditions", s.handleAddCondition())
	app.HandleFunc("PATCH /builder/conditions/{index}", s.handleUpdateCondition())
	app.HandleFunc("DELETE /builder/conditions/{index}", s.handleRemoveCondition())
	app.HandleFunc("POST /builder/execute", s.handleExecute())

	app.HandleFunc("GET /accounts", s.handleListAccounts())
	app.HandleFunc("POST /accounts", s.handleCreateAccount())
	app.HandleFunc("POST /accounts/{username}/lock", s.handleSetLocked(true))
	app.HandleFunc("POST /accounts/{username}/unlock", s.handleSetLocked(false))
	app.HandleFunc("POST /accounts/{username}/verify", s.handleVerifyAccount())
	app.HandleFunc("PATCH /accounts/{username}/password", s.handleChangePassword())
	app.HandleFunc("DELETE /accounts/{username}", s.handleDeleteAccount())
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, config.Cfg.MaxRequestBody)).Decode(v)
}

// confirmDestructive runs one full gate cycle for a destructive action,
// treating the API client as the human behind the prompt: install the
// request, feed the typed word, confirm when it matches, cancel otherwise.
// Returns the gate's outcome.
func (s *Server) confirmDestructive(req confirm.Request, typed string) (bool, error) {
	pending, err := s.gate.Begin(req)
	if err != nil {
		return false, err
	}

	s.gate.Type(typed)
	if !s.gate.Confirm() {
		s.gate.Cancel()
	}

	return pending.Wait(), nil
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tools.RespJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
