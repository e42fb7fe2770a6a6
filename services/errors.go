package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain failures so the HTTP layer can map them onto
// status codes without inspecting messages.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1 // caller-correctable input
	KindConflict                        // room unavailable, duplicate bill
	KindNotFound
	KindForbidden
	KindInvariant // internal financial inconsistency, never exposed verbatim
)

type Error struct {
	Kind  ErrorKind
	Field string // offending field, when known
	Msg   string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	return e.Msg
}

func ValidationError(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Msg: msg}
}

func ConflictError(msg string) *Error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func NotFoundError(entity string) *Error {
	return &Error{Kind: KindNotFound, Msg: entity + " not found"}
}

func ForbiddenError(msg string) *Error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

func InvariantError(msg string) *Error {
	return &Error{Kind: KindInvariant, Msg: msg}
}

func kindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

func IsValidation(err error) bool { return kindOf(err) == KindValidation }
func IsConflict(err error) bool   { return kindOf(err) == KindConflict }
func IsNotFound(err error) bool   { return kindOf(err) == KindNotFound }
func IsForbidden(err error) bool  { return kindOf(err) == KindForbidden }
func IsInvariant(err error) bool  { return kindOf(err) == KindInvariant }
