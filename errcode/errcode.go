// Package errcode defines the error taxonomy shared by every layer of the
// module.
//
// Errors carry a Kind from a fixed, closed hierarchy. Handlers can match a
// concrete kind (KindKey) or any ancestor (KindLookup, or the root via
// KindNone) without enumerating the leaves. A caught error can be held
// through a plain error reference, cloned, and later rethrown with its
// concrete kind intact, which is what makes deferred and aggregated handling
// work across goroutine or service boundaries.
package errcode

import (
	"runtime"
	"strconv"
)

// Kind identifies one node of the taxonomy. Kind implements error so it can
// be used directly as an errors.Is target: errors.Is(err, KindLookup) holds
// for any error whose kind is KindLookup or a descendant of it.
type Kind uint8

const (
	// KindNone is the abstract root. It is never constructible as an error
	// value; every kind is a descendant, so errors.Is(err, KindNone) matches
	// any taxonomy error.
	KindNone Kind = iota

	KindAssertion
	KindLookup
	KindIndex
	KindKey
	KindType
	KindValue
	KindNarrowing
	KindRuntime
	KindUSB
	KindNotImplemented
	KindEnvironment
	KindIO
	KindOS

	// KindSystem is deprecated; new code should pick a specific kind.
	// It is kept because existing collaborators still raise it.
	KindSystem

	KindSyntax
)

// parent returns the immediate ancestor of k, or KindNone at the root.
func (k Kind) parent() Kind {
	switch k {
	case KindIndex, KindKey:
		return KindLookup
	case KindNarrowing:
		return KindValue
	case KindUSB, KindNotImplemented:
		return KindRuntime
	case KindIO, KindOS:
		return KindEnvironment
	default:
		return KindNone
	}
}

// Is reports whether k is other or a descendant of other.
func (k Kind) Is(other Kind) bool {
	if other == KindNone {
		return true
	}
	for c := k; c != KindNone; c = c.parent() {
		if c == other {
			return true
		}
	}
	return false
}

func (k Kind) String() string {
	switch k {
	case KindAssertion:
		return "AssertionError"
	case KindLookup:
		return "LookupError"
	case KindIndex:
		return "IndexError"
	case KindKey:
		return "KeyError"
	case KindType:
		return "TypeError"
	case KindValue:
		return "ValueError"
	case KindNarrowing:
		return "NarrowingError"
	case KindRuntime:
		return "RuntimeError"
	case KindUSB:
		return "USBError"
	case KindNotImplemented:
		return "NotImplementedError"
	case KindEnvironment:
		return "EnvironmentError"
	case KindIO:
		return "IOError"
	case KindOS:
		return "OSError"
	case KindSystem:
		return "SystemError"
	case KindSyntax:
		return "SyntaxError"
	default:
		return "Error"
	}
}

// Error lets a Kind act as an errors.Is target.
func (k Kind) Error() string { return k.String() }

// Code returns the fixed numeric classification of k. KindUSB has no fixed
// code; its instances carry the OS status supplied at construction, and this
// method returns 0 for it.
func (k Kind) Code() uint32 {
	switch k {
	case KindAssertion:
		return 10
	case KindLookup:
		return 20
	case KindIndex:
		return 21
	case KindKey:
		return 22
	case KindType:
		return 30
	case KindValue:
		return 40
	case KindNarrowing:
		return 41
	case KindRuntime:
		return 50
	case KindNotImplemented:
		return 51
	case KindEnvironment:
		return 60
	case KindIO:
		return 61
	case KindOS:
		return 62
	case KindSystem:
		return 70
	case KindSyntax:
		return 80
	default:
		return 0
	}
}

// Error is one immutable taxonomy error value: a kind, a message, and a
// numeric code. The code is a pure function of the kind except for KindUSB,
// where it is the OS-level status supplied at construction.
type Error struct {
	kind Kind
	msg  string
	code uint32
}

// Error implements error with the conventional kind-prefixed form.
func (e *Error) Error() string { return e.kind.String() + ": " + e.msg }

// Message returns exactly the message supplied at construction.
func (e *Error) Message() string { return e.msg }

// Kind returns the concrete kind of e.
func (e *Error) Kind() Kind { return e.kind }

// Code returns the numeric classification of e.
func (e *Error) Code() uint32 {
	if e.kind == KindUSB {
		return e.code
	}
	return e.kind.Code()
}

// Is supports errors.Is with hierarchy semantics. A Kind target matches if
// e's kind is that kind or a descendant; an *Error target matches on equal
// kind and message.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.kind.Is(t)
	case *Error:
		return e.kind == t.kind && e.msg == t.msg
	default:
		return false
	}
}

// Clone returns a new, independently owned error value with the identical
// kind, message, and code. Clones share no state with the original, so they
// are safe to hand to another goroutine.
func (e *Error) Clone() *Error {
	c := *e
	return &c
}

// Rethrow reconstructs e as its original concrete kind. It exists for the
// deferred-handling pattern: an error caught and stored through a plain
// error reference can later be returned via Rethrow, and a handler matching
// the concrete kind (errors.Is against KindKey, say) will still catch it.
// The switch is exhaustive over the closed kind set.
func (e *Error) Rethrow() error {
	switch e.kind {
	case KindAssertion:
		return Assertion(e.msg)
	case KindLookup:
		return Lookup(e.msg)
	case KindIndex:
		return Index(e.msg)
	case KindKey:
		return Key(e.msg)
	case KindType:
		return Type(e.msg)
	case KindValue:
		return Value(e.msg)
	case KindNarrowing:
		return Narrowing(e.msg)
	case KindRuntime:
		return Runtime(e.msg)
	case KindUSB:
		return USB(int(e.code), e.msg)
	case KindNotImplemented:
		return NotImplemented(e.msg)
	case KindEnvironment:
		return Environment(e.msg)
	case KindIO:
		return IO(e.msg)
	case KindOS:
		return OS(e.msg)
	case KindSystem:
		return System(e.msg)
	case KindSyntax:
		return Syntax(e.msg)
	default:
		return e.Clone()
	}
}

// -----------------------------------------------------------------------------
// Constructors (one per concrete kind)
// -----------------------------------------------------------------------------

func Assertion(msg string) *Error { return &Error{kind: KindAssertion, msg: msg} }
func Lookup(msg string) *Error    { return &Error{kind: KindLookup, msg: msg} }
func Index(msg string) *Error     { return &Error{kind: KindIndex, msg: msg} }
func Key(msg string) *Error       { return &Error{kind: KindKey, msg: msg} }
func Type(msg string) *Error      { return &Error{kind: KindType, msg: msg} }
func Value(msg string) *Error     { return &Error{kind: KindValue, msg: msg} }
func Narrowing(msg string) *Error { return &Error{kind: KindNarrowing, msg: msg} }
func Runtime(msg string) *Error   { return &Error{kind: KindRuntime, msg: msg} }

// USB reports a failed hardware transaction. status is the OS-level status
// of the underlying exchange and becomes the instance's Code().
func USB(status int, msg string) *Error {
	return &Error{kind: KindUSB, msg: msg, code: uint32(status)}
}

func NotImplemented(msg string) *Error { return &Error{kind: KindNotImplemented, msg: msg} }
func Environment(msg string) *Error    { return &Error{kind: KindEnvironment, msg: msg} }
func IO(msg string) *Error             { return &Error{kind: KindIO, msg: msg} }
func OS(msg string) *Error             { return &Error{kind: KindOS, msg: msg} }

// System is deprecated; prefer a specific kind. Kept for collaborators that
// still raise it.
func System(msg string) *Error { return &Error{kind: KindSystem, msg: msg} }

func Syntax(msg string) *Error { return &Error{kind: KindSyntax, msg: msg} }

// KindOf extracts the Kind from an error, defaulting to KindNone.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.kind
	}
	return KindNone
}

// -----------------------------------------------------------------------------
// Throw-site annotation
// -----------------------------------------------------------------------------

// Site annotates msg with the calling function and source location.
func Site(msg string) string { return site(msg, 2) }

func site(msg string, skip int) string {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return msg
	}
	fn := "?"
	if f := runtime.FuncForPC(pc); f != nil {
		fn = f.Name()
	}
	return msg + "\n  in " + fn + "\n  at " + file + ":" + strconv.Itoa(line) + "\n"
}

// Check returns nil when cond holds and a site-annotated Assertion error
// otherwise. expr should name the condition that failed.
func Check(cond bool, expr string) error {
	if cond {
		return nil
	}
	return Assertion(site(expr, 2))
}

// InvalidCodePath marks a branch execution is not supposed to reach.
func InvalidCodePath() error {
	return System(site("invalid code path", 2))
}
