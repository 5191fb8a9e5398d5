package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/hiteshgeek/query-builder-sub002/builder"
	"github.com/hiteshgeek/query-builder-sub002/confirm"
	"github.com/hiteshgeek/query-builder-sub002/schema"
	"github.com/hiteshgeek/query-builder-sub002/tools"
)

// builderState is the console's rendering model: a read-only projection of
// the builder plus the statement preview.
type builderState struct {
	Table       string              `json:"table"`
	Columns     []schema.Column     `json:"columns"`
	Conditions  []builder.Condition `json:"conditions"`
	Statement   string              `json:"statement"`
	NoPredicate bool                `json:"noPredicate"`
}

func (s *Server) state() builderState {
	return builderState{
		Table:       s.builder.Table(),
		Columns:     s.builder.Columns(),
		Conditions:  s.builder.Conditions(),
		Statement:   s.builder.Statement(),
		NoPredicate: s.builder.HasNoPredicate(),
	}
}

func (s *Server) handleGetSchema() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.schema.Get()
		if snap == nil {
			snap = &schema.Snapshot{}
		}
		tools.RespJSON(w, http.StatusOK, snap)
	}
}

func (s *Server) handleInvalidateSchema() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := schema.Load(r.Context(), s.db)
		if err != nil {
			tools.RespErr(w, err)
			return
		}

		s.schema.Set(snap)
		s.builder.SetSnapshot(snap)
		tools.RespJSON(w, http.StatusOK, snap)
	}
}

func (s *Server) handleSelectTable() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Table string `json:"table"`
		}
		if err := decodeJSON(r, &body); err != nil || body.Table == "" {
			tools.RespJSON(w, http.StatusBadRequest, tools.BadRequestErr(`body must be {"table": "<name>"}`))
			return
		}

		s.builder.SelectTable(body.Table)
		tools.RespJSON(w, http.StatusOK, s.state())
	}
}

func (s *Server) handleResetBuilder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.builder.Reset()
		tools.RespJSON(w, http.StatusOK, s.state())
	}
}

func (s *Server) handleBuilderState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tools.RespJSON(w, http.StatusOK, s.state())
	}
}

func (s *Server) handleAddCondition() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.builder.AddCondition(); err != nil {
			tools.RespErr(w, err)
			return
		}
		tools.RespJSON(w, http.StatusOK, s.state())
	}
}

func (s *Server) handleUpdateCondition() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, ok := conditionIndex(w, r)
		if !ok {
			return
		}

		var body struct {
			Field string `json:"field"`
			Value string `json:"value"`
		}
		if err := decodeJSON(r, &body); err != nil || body.Field == "" {
			tools.RespJSON(w, http.StatusBadRequest, tools.BadRequestErr(`body must be {"field": "...", "value": "..."}`))
			return
		}

		// A stale index is ignored by the builder, not treated as an error.
		s.builder.UpdateCondition(index, body.Field, body.Value)
		tools.RespJSON(w, http.StatusOK, s.state())
	}
}

func (s *Server) handleRemoveCondition() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, ok := conditionIndex(w, r)
		if !ok {
			return
		}

		s.builder.RemoveCondition(index)
		tools.RespJSON(w, http.StatusOK, s.state())
	}
}

// conditionIndex parses the {index} path value. A non-numeric index is a
// malformed request, unlike an out-of-range one.
func conditionIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		tools.RespJSON(w, http.StatusBadRequest, tools.BadRequestErr("condition index must be an integer"))
		return 0, false
	}
	return index, true
}

func (s *Server) handleExecute() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Confirm string `json:"confirm"`
		}
		// An absent body is treated as an empty confirmation.
		decodeJSON(r, &body)

		table := s.builder.Table()
		if table == "" {
			tools.RespErr(w, builder.ErrNoTableSelected)
			return
		}

		stmt := s.builder.Statement()
		req := confirm.Request{
			Title:             "Delete rows",
			Message:           fmt.Sprintf("You are about to run a DELETE against %q.", table),
			Details:           stmt,
			ConfirmWord:       table,
			ConfirmButtonText: "Delete rows",
		}
		if s.builder.HasNoPredicate() {
			req.Message = fmt.Sprintf("No conditions are set. This will delete ALL rows in %q.", table)
		}

		ok, err := s.confirmDestructive(req, body.Confirm)
		if err != nil {
			tools.RespErr(w, err)
			return
		}
		if !ok {
			tools.Audit(tools.AuditEntry{
				Action:    tools.AuditExecuteDelete,
				Target:    table,
				Statement: stmt,
				Outcome:   tools.OutcomeCancelled,
				RequestID: w.Header().Get("X-Request-ID"),
			})
			tools.RespErr(w, confirm.ErrConfirmationRejected)
			return
		}

		res, err := s.db.ExecContext(r.Context(), stmt)
		if err != nil {
			tools.Audit(tools.AuditEntry{
				Action:    tools.AuditExecuteDelete,
				Target:    table,
				Statement: stmt,
				Outcome:   tools.OutcomeFailed,
				RequestID: w.Header().Get("X-Request-ID"),
				Detail:    err.Error(),
			})
			tools.RespErr(w, err)
			return
		}

		affected, _ := res.RowsAffected()
		tools.Audit(tools.AuditEntry{
			Action:       tools.AuditExecuteDelete,
			Target:       table,
			Statement:    stmt,
			Outcome:      tools.OutcomeExecuted,
			RowsAffected: affected,
			RequestID:    w.Header().Get("X-Request-ID"),
		})

		tools.RespJSON(w, http.StatusOK, map[string]any{
			"statement":    stmt,
			"rowsAffected": affected,
		})
	}
}
