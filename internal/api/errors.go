// Package api provides the JSON HTTP handlers and shared response
// utilities for the OpenLeague API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openleague/openleague-go/internal/identity"
	"github.com/openleague/openleague-go/internal/league"
	"github.com/openleague/openleague-go/internal/org"
	"github.com/openleague/openleague-go/internal/store"
)

// Deterministic reason codes for stable error classification.
// These should remain stable across versions for client compatibility.
const (
	ReasonUnauthenticated    = "unauthenticated"
	ReasonSessionExpired     = "session_expired"
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonEmailNotVerified   = "email_not_verified"

	ReasonRateLimited = "rate_limited"

	ReasonBadRequest   = "bad_request"
	ReasonMissingField = "missing_field"
	ReasonInvalidField = "invalid_field"
	ReasonNotFound     = "not_found"
	ReasonConflict     = "conflict"

	ReasonInternalError = "internal_error"
)

// ErrorEnvelope is the standard error response format.
type ErrorEnvelope struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code       string `json:"code"`
	ReasonCode string `json:"reason_code"`
	Message    string `json:"message"`
}

// WriteError writes a standardized JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, reasonCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	envelope := ErrorEnvelope{
		Error: ErrorDetail{
			Code:       http.StatusText(statusCode),
			ReasonCode: reasonCode,
			Message:    message,
		},
	}

	json.NewEncoder(w).Encode(envelope)
}

// WriteUnauthorized writes a 401 Unauthorized error.
func WriteUnauthorized(w http.ResponseWriter, reasonCode, message string) {
	WriteError(w, http.StatusUnauthorized, reasonCode, message)
}

// WriteForbidden writes a 403 Forbidden error.
func WriteForbidden(w http.ResponseWriter, reasonCode, message string) {
	WriteError(w, http.StatusForbidden, reasonCode, message)
}

// WriteNotFound writes a 404 Not Found error.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ReasonNotFound, message)
}

// WriteBadRequest writes a 400 Bad Request error.
func WriteBadRequest(w http.ResponseWriter, reasonCode, message string) {
	WriteError(w, http.StatusBadRequest, reasonCode, message)
}

// WriteConflict writes a 409 Conflict error.
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, ReasonConflict, message)
}

// WriteTooManyRequests writes a 429 Too Many Requests error.
func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, ReasonRateLimited, message)
}

// WriteInternalError writes a 500 Internal Server Error.
// Be careful not to leak sensitive information in the message.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ReasonInternalError, message)
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// WriteDomainError maps a service-layer error onto the envelope.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredential):
		WriteUnauthorized(w, ReasonInvalidCredentials, "invalid email or password")
	case errors.Is(err, identity.ErrEmailNotVerified):
		WriteForbidden(w, ReasonEmailNotVerified, "email address is not verified")
	case errors.Is(err, identity.ErrEmailTaken):
		WriteConflict(w, "an account with this email already exists")
	case errors.Is(err, identity.ErrTokenInvalid):
		WriteBadRequest(w, ReasonInvalidField, "token is invalid or expired")
	case errors.Is(err, identity.ErrInvalidPassword):
		WriteBadRequest(w, ReasonInvalidField, err.Error())
	case errors.Is(err, org.ErrSlugTaken):
		WriteConflict(w, "an organization with this slug already exists")
	case errors.Is(err, org.ErrOrganizationNotFound):
		WriteNotFound(w, "organization not found")
	case errors.Is(err, org.ErrNotMember):
		WriteForbidden(w, ReasonUnauthenticated, "not a member of this organization")
	case errors.Is(err, org.ErrInvitationInvalid):
		WriteBadRequest(w, ReasonInvalidField, "invitation is not valid")
	case errors.Is(err, league.ErrNotFound):
		WriteNotFound(w, "resource not found")
	case errors.Is(err, store.ErrNotFound):
		WriteNotFound(w, "resource not found")
	case errors.Is(err, store.ErrAlreadyExists):
		WriteConflict(w, "resource already exists")
	default:
		WriteInternalError(w, "internal error")
	}
}
