// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRunInProgress      = errors.New("autopilot run already in progress")
	ErrEmailTaken         = errors.New("このメールアドレスは既に登録されています")
	ErrInvalidCredentials = errors.New("メールアドレスまたはパスワードが正しくありません")
)

// NotFoundError is returned when a resource does not exist for the owner.
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %v not found", e.Resource, e.ID)
}

func NewNotFound(resource string, id any) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError describes malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AuthError covers missing, expired and malformed tokens.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "認証が必要です"
	}
	return e.Reason
}

func NewAuth(reason string) error {
	return &AuthError{Reason: reason}
}

// CollaboratorFailure wraps an error from a trend source, generator or publisher.
type CollaboratorFailure struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorFailure) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorFailure) Unwrap() error { return e.Err }

func NewCollaboratorFailure(collaborator string, err error) error {
	return &CollaboratorFailure{Collaborator: collaborator, Err: err}
}

// PersistenceError wraps a store failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func NewPersistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// Permanent marks an error that retrying cannot fix.
type Permanent struct {
	Err error
}

func (e *Permanent) Error() string { return e.Err.Error() }

func (e *Permanent) Unwrap() error { return e.Err }

func NewPermanent(err error) error {
	if err == nil {
		return nil
	}
	return &Permanent{Err: err}
}

func IsPermanent(err error) bool {
	var p *Permanent
	return errors.As(err, &p)
}

// HTTPStatus maps an error kind to the response code.
func HTTPStatus(err error) int {
	var (
		notFound   *NotFoundError
		validation *ValidationError
		auth       *AuthError
		collab     *CollaboratorFailure
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.Is(err, ErrEmailTaken):
		return http.StatusBadRequest
	case errors.As(err, &auth), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrRunInProgress):
		return http.StatusConflict
	case errors.As(err, &collab):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
