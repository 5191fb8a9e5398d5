package tools

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hiteshgeek/query-builder-sub002/accounts"
	"github.com/hiteshgeek/query-builder-sub002/builder"
	"github.com/hiteshgeek/query-builder-sub002/confirm"
)

// Error codes for SDK consumption.
// These codes are stable and can be used for programmatic error handling.
const (
	CodeNoTableSelected      = "NO_TABLE_SELECTED"
	CodeTooManyConditions    = "TOO_MANY_CONDITIONS"
	CodeConfirmationPending  = "CONFIRMATION_PENDING"
	CodeConfirmationRejected = "CONFIRMATION_REJECTED"
	CodeAccountNotFound      = "ACCOUNT_NOT_FOUND"
	CodeAccountExists        = "ACCOUNT_EXISTS"
	CodeAccountLocked        = "ACCOUNT_LOCKED"
	CodeInvalidUsername      = "INVALID_USERNAME"
	CodePasswordTooShort     = "PASSWORD_TOO_SHORT"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeInternalError        = "INTERNAL_ERROR"
)

// APIError represents a structured error response for the API.
// Code is a stable identifier for client error handling, Message describes
// what went wrong, and Hint provides actionable guidance.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// RespJSON writes v as a JSON response with the given status code.
func RespJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// RespErr writes a structured error response to the ResponseWriter.
func RespErr(w http.ResponseWriter, err error) {
	status, apiErr := BuildAPIError(err)
	RespJSON(w, status, apiErr)
}

// BadRequestErr builds an INVALID_REQUEST error response body.
func BadRequestErr(msg string) APIError {
	return APIError{Code: CodeInvalidRequest, Message: msg}
}

// BuildAPIError maps an error to an HTTP status code and structured APIError.
func BuildAPIError(err error) (int, APIError) {
	switch {
	case errors.Is(err, builder.ErrNoTableSelected):
		return http.StatusBadRequest, APIError{
			Code:    CodeNoTableSelected,
			Message: err.Error(),
			Hint:    "Select a table with POST /builder/table before adding conditions or executing.",
		}
	case errors.Is(err, builder.ErrTooManyConditions):
		return http.StatusBadRequest, APIError{
			Code:    CodeTooManyConditions,
			Message: err.Error(),
			Hint:    "Remove unused conditions, or raise QB_MAX_CONDITIONS.",
		}
	case errors.Is(err, confirm.ErrConfirmationPending):
		return http.StatusConflict, APIError{
			Code:    CodeConfirmationPending,
			Message: err.Error(),
			Hint:    "Another destructive action is awaiting confirmation. Resolve it first.",
		}
	case errors.Is(err, confirm.ErrConfirmationRejected):
		return http.StatusPreconditionFailed, APIError{
			Code:    CodeConfirmationRejected,
			Message: err.Error(),
			Hint:    "Type the exact confirmation word to proceed with a destructive action.",
		}
	case errors.Is(err, accounts.ErrAccountNotFound):
		return http.StatusNotFound, APIError{
			Code:    CodeAccountNotFound,
			Message: err.Error(),
			Hint:    "Use GET /accounts to list managed accounts.",
		}
	case errors.Is(err, accounts.ErrAccountExists):
		return http.StatusConflict, APIError{
			Code:    CodeAccountExists,
			Message: err.Error(),
			Hint:    "Choose a different username or delete the existing account first.",
		}
	case errors.Is(err, accounts.ErrAccountLocked):
		return http.StatusForbidden, APIError{
			Code:    CodeAccountLocked,
			Message: err.Error(),
			Hint:    "Unlock the account with POST /accounts/{username}/unlock.",
		}
	case errors.Is(err, accounts.ErrInvalidUsername):
		return http.StatusBadRequest, APIError{
			Code:    CodeInvalidUsername,
			Message: err.Error(),
			Hint:    "Usernames start with a letter or underscore and contain only letters, digits, and underscores.",
		}
	case errors.Is(err, accounts.ErrPasswordTooShort):
		return http.StatusBadRequest, APIError{
			Code:    CodePasswordTooShort,
			Message: err.Error(),
		}
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return http.StatusUnauthorized, APIError{
			Code:    CodeInvalidCredentials,
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, APIError{
			Code:    CodeInternalError,
			Message: err.Error(),
		}
	}
}
