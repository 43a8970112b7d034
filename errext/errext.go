// Package errext carries the harness's error taxonomy (§7): ScriptParse,
// ScriptRuntime, and ScriptThrown. It follows the teacher's hint/typed-error
// wrapping pattern (errors.As-compatible, stackable hints) rather than
// plain sentinel errors, so a parse failure deep in a nested arrow function
// can still surface a single readable message at the driver boundary.
package errext

import "fmt"

// Kind distinguishes the three ways script execution can fail, per spec §7.
type Kind int

const (
	// KindParse means the source did not tokenize/parse.
	KindParse Kind = iota
	// KindRuntime means a language-level runtime error occurred (type
	// error, unknown variable, invalid argument).
	KindRuntime
	// KindThrown means user code executed a `throw` that nothing caught.
	KindThrown
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "ScriptParse"
	case KindRuntime:
		return "ScriptRuntime"
	case KindThrown:
		return "ScriptThrown"
	default:
		return "Unknown"
	}
}

// HasKind is implemented by errors that carry a Kind; analogous to the
// teacher's HasExitCode/HasHint pattern.
type HasKind interface {
	error
	Kind() Kind
}

// HasHint is implemented by errors carrying a human-readable hint appended
// to diagnostics. Mirrors the teacher's errext.HasHint.
type HasHint interface {
	error
	Hint() string
}

type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }
func (e *kindError) Kind() Kind    { return e.kind }

// WithKind tags err with k. Returns nil if err is nil.
func WithKind(err error, k Kind) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: k, err: err}
}

type hintError struct {
	hint string
	err  error
}

func (e *hintError) Error() string { return e.err.Error() }
func (e *hintError) Unwrap() error { return e.err }

func (e *hintError) Hint() string {
	if prev, ok := e.err.(HasHint); ok { //nolint:errorlint // intentional one-level unwrap, mirrors teacher chaining
		return fmt.Sprintf("%s (%s)", e.hint, prev.Hint())
	}
	return e.hint
}

// WithHint attaches hint to err, chaining with any hint err already carries.
// Returns nil if err is nil.
func WithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return &hintError{hint: hint, err: err}
}

// ParseError builds a KindParse error with the canonical "<name> requires…"
// message conventions from spec §7.
func ParseError(format string, args ...interface{}) error {
	return WithKind(fmt.Errorf(format, args...), KindParse)
}

// RuntimeError builds a KindRuntime error.
func RuntimeError(format string, args ...interface{}) error {
	return WithKind(fmt.Errorf(format, args...), KindRuntime)
}

// ThrownError wraps an arbitrary thrown script value. Value is stashed on
// the error so driver code can recover the original Value without a type
// switch on error text; internal/value.Value is passed as interface{} here
// so that errext stays free of any dependency on internal/value.
type ThrownError struct {
	Value interface{}
	text  string
}

func (e *ThrownError) Error() string { return e.text }
func (e *ThrownError) Kind() Kind    { return KindThrown }

// Thrown builds a ScriptThrown error carrying value, described by text for
// Error()/logging purposes.
func Thrown(value interface{}, text string) error {
	return &ThrownError{Value: value, text: text}
}

// KindOf is a tiny convenience wrapper around errors.As for the common case of
// asking "what Kind is this", defaulting to KindRuntime when err carries no
// Kind at all (e.g. a bare Go error bubbling out of a driver call).
func KindOf(err error) Kind {
	if err == nil {
		return KindRuntime
	}
	var ke HasKind
	if ok := asHasKind(err, &ke); ok {
		return ke.Kind()
	}
	return KindRuntime
}

func asHasKind(err error, target *HasKind) bool {
	for err != nil {
		if hk, ok := err.(HasKind); ok { //nolint:errorlint
			*target = hk
			return true
		}
		u, ok := err.(interface{ Unwrap() error }) //nolint:errorlint
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
