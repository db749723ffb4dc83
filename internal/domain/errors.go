package domain

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindDuplicateEmail
	KindDuplicateUsername
	KindValidation
	KindUpdateFailed
	KindDeleteFailed
	KindInconsistent
	KindConstraint
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindDuplicateEmail:
		return "DuplicateEmail"
	case KindDuplicateUsername:
		return "DuplicateUsername"
	case KindValidation:
		return "ValidationFailed"
	case KindUpdateFailed:
		return "UpdateFailed"
	case KindDeleteFailed:
		return "DeleteFailed"
	case KindInconsistent:
		return "InternalInconsistency"
	case KindConstraint:
		return "ConstraintViolation"
	default:
		return "Internal"
	}
}

// Error 业务错误：Msg 面向调用方，Err 仅用于日志
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicateEmail, KindDuplicateUsername, KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(msg string) error   { return &Error{Kind: KindNotFound, Msg: msg} }
func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

func UserNotFound(id int64) error {
	return NotFound(fmt.Sprintf("User with ID %d not found", id))
}

var (
	ErrDuplicateEmail    = &Error{Kind: KindDuplicateEmail, Msg: "User with this email already exists"}
	ErrDuplicateUsername = &Error{Kind: KindDuplicateUsername, Msg: "User with this username already exists"}
	ErrMissingFields     = &Error{Kind: KindValidation, Msg: "Username, email, and password are required"}
	ErrUpdateFailed      = &Error{Kind: KindUpdateFailed, Msg: "Failed to update user"}
	ErrDeleteFailed      = &Error{Kind: KindDeleteFailed, Msg: "Failed to delete user"}
)

func Inconsistent(msg string) error { return &Error{Kind: KindInconsistent, Msg: msg} }

func Constraint(err error) error {
	return &Error{Kind: KindConstraint, Msg: "Constraint violation", Err: err}
}

// As 取出链上的业务错误
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func IsKind(err error, k Kind) bool {
	de, ok := As(err)
	return ok && de.Kind == k
}
