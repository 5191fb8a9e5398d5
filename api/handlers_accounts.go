package api

import (
	"fmt"
	"net/http"

	"github.com/hiteshgeek/query-builder-sub002/confirm"
	"github.com/hiteshgeek/query-builder-sub002/tools"
)

func (s *Server) handleListAccounts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accts, err := s.accounts.List(r.Context())
		if err != nil {
			tools.RespErr(w, err)
			return
		}
		tools.RespJSON(w, http.StatusOK, map[string]any{"accounts": accts})
	}
}

func (s *Server) handleCreateAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &body); err != nil {
			tools.RespJSON(w, http.StatusBadRequest, tools.BadRequestErr(`body must be {"username": "...", "password": "..."}`))
			return
		}

		acct, err := s.accounts.Create(r.Context(), body.Username, body.Password)
		if err != nil {
			tools.RespErr(w, err)
			return
		}

		tools.Audit(tools.AuditEntry{
			Action:    tools.AuditAccountCreate,
			Target:    acct.Username,
			Outcome:   tools.OutcomeExecuted,
			RequestID: w.Header().Get("X-Request-ID"),
		})
		tools.RespJSON(w, http.StatusCreated, acct)
	}
}

func (s *Server) handleSetLocked(locked bool) http.HandlerFunc {
	action := tools.AuditAccountUnlock
	if locked {
		action = tools.AuditAccountLock
	}

	return func(w http.ResponseWriter, r *http.Request) {
		username := r.PathValue("username")
		if err := s.accounts.SetLocked(r.Context(), username, locked); err != nil {
			tools.RespErr(w, err)
			return
		}

		acct, err := s.accounts.Get(r.Context(), username)
		if err != nil {
			tools.RespErr(w, err)
			return
		}

		tools.Audit(tools.AuditEntry{
			Action:    action,
			Target:    username,
			Outcome:   tools.OutcomeExecuted,
			RequestID: w.Header().Get("X-Request-ID"),
		})
		tools.RespJSON(w, http.StatusOK, acct)
	}
}

func (s *Server) handleVerifyAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &body); err != nil {
			tools.RespJSON(w, http.StatusBadRequest, tools.BadRequestErr(`body must be {"password": "..."}`))
			return
		}

		username := r.PathValue("username")
		if err := s.accounts.VerifyPassword(r.Context(), username, body.Password); err != nil {
			tools.RespErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleChangePassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &body); err != nil {
			tools.RespJSON(w, http.StatusBadRequest, tools.BadRequestErr(`body must be {"password": "..."}`))
			return
		}

		username := r.PathValue("username")
		if err := s.accounts.ChangePassword(r.Context(), username, body.Password); err != nil {
			tools.RespErr(w, err)
			return
		}

		tools.Audit(tools.AuditEntry{
			Action:    tools.AuditAccountPassword,
			Target:    username,
			Outcome:   tools.OutcomeExecuted,
			RequestID: w.Header().Get("X-Request-ID"),
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDeleteAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Confirm string `json:"confirm"`
		}
		decodeJSON(r, &body)

		username := r.PathValue("username")

		// Look the account up first so a bad username 404s before the gate.
		if _, err := s.accounts.Get(r.Context(), username); err != nil {
			tools.RespErr(w, err)
			return
		}

		req := confirm.Request{
			Title:             "Delete account",
			Message:           fmt.Sprintf("You are about to permanently delete the account %q.", username),
			Details:           "This cannot be undone.",
			ConfirmWord:       username,
			ConfirmButtonText: "Delete account",
		}

		ok, err := s.confirmDestructive(req, body.Confirm)
		if err != nil {
			tools.RespErr(w, err)
			return
		}
		if !ok {
			tools.Audit(tools.AuditEntry{
				Action:    tools.AuditAccountDelete,
				Target:    username,
				Outcome:   tools.OutcomeCancelled,
				RequestID: w.Header().Get("X-Request-ID"),
			})
			tools.RespErr(w, confirm.ErrConfirmationRejected)
			return
		}

		if err := s.accounts.Delete(r.Context(), username); err != nil {
			tools.RespErr(w, err)
			return
		}

		tools.Audit(tools.AuditEntry{
			Action:    tools.AuditAccountDelete,
			Target:    username,
			Outcome:   tools.OutcomeExecuted,
			RequestID: w.Header().Get("X-Request-ID"),
		})
		tools.RespJSON(w, http.StatusOK, map[string]string{"deleted": username})
	}
}
