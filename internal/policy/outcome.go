package policy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error for the caller's transport mapping.
type Kind int

const (
	KindInternal Kind = iota // infrastructure failure or contract violation
	KindDenied               // policy said no
	KindConflict             // resource state precludes the transition
	KindNotFound             // nothing for this actor to act on
	KindInvalid              // malformed input
)

func (k Kind) String() string {
	switch k {
	case KindDenied:
		return "denied"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid"
	default:
		return "internal"
	}
}

// Error is a business outcome. It is returned, never panicked.
type Error struct {
	kind   Kind
	reason string
	fields map[string]string
}

func (e *Error) Error() string {
	if len(e.fields) == 0 {
		return e.reason
	}
	names := make([]string, 0, len(e.fields))
	for name := range e.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.fields[name])
	}
	return e.reason + " (" + strings.Join(parts, "; ") + ")"
}

func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Reason() string { return e.reason }

// Fields returns per-field messages for Invalid outcomes.
func (e *Error) Fields() map[string]string { return e.fields }

func newError(kind Kind, format string, a ...any) *Error {
	return &Error{kind: kind, reason: fmt.Sprintf(format, a...)}
}

func Denied(format string, a ...any) *Error   { return newError(KindDenied, format, a...) }
func Conflict(format string, a ...any) *Error { return newError(KindConflict, format, a...) }
func NotFound(format string, a ...any) *Error { return newError(KindNotFound, format, a...) }
func Invalid(format string, a ...any) *Error  { return newError(KindInvalid, format, a...) }

// InvalidFields builds an Invalid outcome with per-field messages.
func InvalidFields(reason string, fields map[string]string) *Error {
	return &Error{kind: KindInvalid, reason: reason, fields: fields}
}

// VersionConflict reports a stale optimistic-concurrency token.
type VersionConflict struct {
	ServerVersion int
	ClientVersion int
}

func (e *VersionConflict) Error() string {
	return fmt.Sprintf("slideshow was modified since you loaded it (server version %d, client version %d)",
		e.ServerVersion, e.ClientVersion)
}

func (e *VersionConflict) Kind() Kind { return KindConflict }

// KindOf classifies err. Unclassified errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var kinded interface{ Kind() Kind }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	return KindInternal
}

func IsDenied(err error) bool   { return err != nil && KindOf(err) == KindDenied }
func IsConflict(err error) bool { return err != nil && KindOf(err) == KindConflict }
func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }
func IsInvalid(err error) bool  { return err != nil && KindOf(err) == KindInvalid }
