package types

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable discriminator every engine error carries across the
// adapter boundary (§7). Callers should use errors.As to recover *Error and
// switch on Kind rather than matching on message text.
type ErrorKind string

const (
	KindNotFound             ErrorKind = "not_found"
	KindInvalidID            ErrorKind = "invalid_id"
	KindInvalidPrefix        ErrorKind = "invalid_prefix"
	KindContentEmpty         ErrorKind = "content_empty"
	KindMissingCorrectionRef ErrorKind = "missing_correction_ref"
	KindRoleDenied           ErrorKind = "role_denied"
	KindCorrupted            ErrorKind = "corrupted"
	KindObsoleteCycle        ErrorKind = "obsolete_cycle"
	KindImportRemapped       ErrorKind = "import_remapped"
)

// Error is the tagged value every public engine call returns in place of a
// result on failure. The engine never panics or returns an untagged error
// across the package boundary that an adapter is expected to render.
type Error struct {
	Kind ErrorKind
	ID   string // the entry/node ID involved, when applicable
	Msg  string
	Err  error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s (id=%s)", e.Kind, e.Msg, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is(err, &Error{Kind: KindNotFound}) style matching on
// kind alone.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

func NewError(kind ErrorKind, id, msg string, cause error) *Error {
	return &Error{Kind: kind, ID: id, Msg: msg, Err: cause}
}

func NotFound(id string) *Error {
	return NewError(KindNotFound, id, "no such entry", nil)
}

func InvalidID(id, reason string) *Error {
	return NewError(KindInvalidID, id, reason, nil)
}

func InvalidPrefix(prefix string) *Error {
	return NewError(KindInvalidPrefix, "", fmt.Sprintf("prefix %q is not configured", prefix), nil)
}

func RoleDenied(id string, have, need Role) *Error {
	return NewError(KindRoleDenied, id, fmt.Sprintf("role %q does not meet %q", have, need), nil)
}

func MissingCorrectionRef(id string) *Error {
	return NewError(KindMissingCorrectionRef, id, "obsolete root has no [✓ID] correction marker", nil)
}

func Corrupted(cause error) *Error {
	return NewError(KindCorrupted, "", "integrity check failed; store was not opened", cause)
}

func ObsoleteCycle(id string) *Error {
	return NewError(KindObsoleteCycle, id, "obsolete chain loops back on itself", nil)
}
