// internal/core/domain/errors.go
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorKind is the single discriminated error taxonomy surfaced to the UI.
type ErrorKind string

// Error kind constants
const (
	ErrPermissionDenied ErrorKind = "permission_denied"
	ErrNotFound         ErrorKind = "not_found"
	ErrUnavailable      ErrorKind = "service_unavailable"
	ErrCancelled        ErrorKind = "cancelled"
	ErrEmailInUse       ErrorKind = "email_already_in_use"
	ErrUserNotFound     ErrorKind = "user_not_found"
	ErrWrongPassword    ErrorKind = "wrong_password"
	ErrUnknown          ErrorKind = "unknown"
)

// Sentinel errors raised by the auth adapter, classified by ClassifyAuthError.
var (
	ErrAuthEmailInUse    = errors.New("email already in use")
	ErrAuthUserNotFound  = errors.New("user not found")
	ErrAuthWrongPassword = errors.New("wrong password")
)

// AppError pairs a taxonomy kind with the underlying cause.
type AppError struct {
	Kind ErrorKind
	Err  error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Message returns the static human-readable message for the error kind.
func (e *AppError) Message() string {
	switch e.Kind {
	case ErrPermissionDenied:
		return "You do not have permission to perform this action."
	case ErrNotFound:
		return "The requested data could not be found."
	case ErrUnavailable:
		return "The service is currently unavailable. Please try again."
	case ErrCancelled:
		return "The operation was cancelled."
	case ErrEmailInUse:
		return "This email address is already in use."
	case ErrUserNotFound:
		return "No account exists for this email address."
	case ErrWrongPassword:
		return "The password is incorrect."
	default:
		return "Something went wrong. Please try again."
	}
}

// ClassifyStoreError maps a remote store failure onto the taxonomy.
// Unrecognized causes map to ErrUnknown.
func ClassifyStoreError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, context.Canceled) {
		return &AppError{Kind: ErrCancelled, Err: err}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &AppError{Kind: ErrNotFound, Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42501": // insufficient_privilege
			return &AppError{Kind: ErrPermissionDenied, Err: err}
		case strings.HasPrefix(pgErr.Code, "08"): // connection exceptions
			return &AppError{Kind: ErrUnavailable, Err: err}
		case pgErr.Code == "57P01", pgErr.Code == "57014":
			return &AppError{Kind: ErrUnavailable, Err: err}
		}
		return &AppError{Kind: ErrUnknown, Err: err}
	}

	if pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Kind: ErrUnavailable, Err: err}
	}

	return &AppError{Kind: ErrUnknown, Err: err}
}

// ClassifyAuthError maps an auth gateway failure onto the taxonomy.
func ClassifyAuthError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrAuthEmailInUse):
		return &AppError{Kind: ErrEmailInUse, Err: err}
	case errors.Is(err, ErrAuthUserNotFound):
		return &AppError{Kind: ErrUserNotFound, Err: err}
	case errors.Is(err, ErrAuthWrongPassword):
		return &AppError{Kind: ErrWrongPassword, Err: err}
	case errors.Is(err, context.Canceled):
		return &AppError{Kind: ErrCancelled, Err: err}
	}

	return &AppError{Kind: ErrUnknown, Err: err}
}
