// Package errctx implements the per-conversion error-path context
// described in spec §4.9 and §9 "Global error context": an explicit
// value carrying a JSON-Pointer path stack, an invalid-property
// accumulator, and a single fatal-error slot. It is passed by pointer
// through every aspect translator rather than kept as a package-level
// or goroutine-local variable.
package errctx

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorCode identifies one of the error kinds transported across the
// translator's external boundary (spec §6).
type ErrorCode int

const (
	CodeCallback ErrorCode = iota
	CodeMemory
	CodeICal
	CodeProps
	CodeUID
	CodeUnknown
)

// String returns the diagnostic string for a code (backs convert/ical's
// StrError, spec §6).
func (c ErrorCode) String() string {
	switch c {
	case CodeCallback:
		return "callback error"
	case CodeMemory:
		return "out of memory"
	case CodeICal:
		return "iCalendar library error"
	case CodeProps:
		return "one or more properties are invalid"
	case CodeUID:
		return "event has no uid"
	default:
		return "unknown error"
	}
}

// TranslateError is the fatal error type returned by ToJS/ToJSAll/ToICal.
type TranslateError struct {
	Code  ErrorCode
	Paths []string // populated only for CodeProps
	Err   error    // wrapped underlying cause, if any
}

func (e *TranslateError) Error() string {
	if e.Code == CodeProps {
		return fmt.Sprintf("%s: %s", e.Code, strings.Join(e.Paths, ", "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code.String()
}

func (e *TranslateError) Unwrap() error { return e.Err }

// Context is the per-conversion error-tracking value (spec §4.9).
type Context struct {
	path    []string
	invalid map[string]struct{}
	fatal   *TranslateError
}

// New returns a fresh, empty Context.
func New() *Context {
	return &Context{invalid: make(map[string]struct{})}
}

// escapeSegment applies RFC 6901 JSON-Pointer escaping to one path
// segment.
func escapeSegment(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	s = strings.ReplaceAll(s, "/", "~1")
	return s
}

// BeginProp pushes name onto the path stack.
func (c *Context) BeginProp(name string) {
	c.path = append(c.path, escapeSegment(name))
}

// EndProp pops the most recently pushed segment.
func (c *Context) EndProp() {
	if len(c.path) > 0 {
		c.path = c.path[:len(c.path)-1]
	}
}

// Path returns the current JSON-Pointer path.
func (c *Context) Path() string {
	if len(c.path) == 0 {
		return ""
	}
	return "/" + strings.Join(c.path, "/")
}

// InvalidProp records the current path (optionally joined with a
// sub-name) as invalid.
func (c *Context) InvalidProp(subName ...string) {
	p := c.Path()
	if len(subName) > 0 && subName[0] != "" {
		p = p + "/" + escapeSegment(subName[0])
	}
	c.invalid[p] = struct{}{}
}

// HasInvalid reports whether any property error was recorded.
func (c *Context) HasInvalid() bool { return len(c.invalid) > 0 }

// InvalidPaths returns the accumulated invalid-property paths, sorted
// for deterministic output.
func (c *Context) InvalidPaths() []string {
	paths := make([]string, 0, len(c.invalid))
	for p := range c.invalid {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Fatal records the first fatal error seen during this conversion;
// subsequent calls are no-ops (only one fatal error can be reported).
func (c *Context) Fatal(code ErrorCode, err error) {
	if c.fatal == nil {
		c.fatal = &TranslateError{Code: code, Err: err}
	}
}

// FatalError returns the recorded fatal error, or nil.
func (c *Context) FatalError() *TranslateError { return c.fatal }

// PropsError returns a CodeProps TranslateError summarizing every
// invalid property path recorded so far, or nil if none were recorded.
func (c *Context) PropsError() *TranslateError {
	if !c.HasInvalid() {
		return nil
	}
	return &TranslateError{Code: CodeProps, Paths: c.InvalidPaths()}
}

// Err returns the fatal error if one was recorded, else the props
// error if any property errors were recorded, else nil. This is the
// single check an entry point needs after a conversion completes.
func (c *Context) Err() error {
	if c.fatal != nil {
		return c.fatal
	}
	if pe := c.PropsError(); pe != nil {
		return pe
	}
	return nil
}
