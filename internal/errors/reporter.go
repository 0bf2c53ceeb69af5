package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	pkgerrors "github.com/pkg/errors"
)

// Level is the severity of a CompilerError.
type Level string

const (
	Error   Level = "error"
	Warning Level = "warning"
	Note    Level = "note"
)

// Location pins a CompilerError to a spot in the IR: a function, and
// optionally the block and instruction index within it. There is no
// source text to show a caret against (the IL has no surface syntax), so
// the reporter prints a "function:block#index"-style location instead of
// a line/column caret.
type Location struct {
	Function string
	Block    string // empty if not block-scoped
	Index    int    // -1 if not instruction-scoped
}

func (l Location) String() string {
	if l.Function == "" {
		return "<program>"
	}
	if l.Block == "" {
		return l.Function
	}
	if l.Index < 0 {
		return fmt.Sprintf("%s:%s", l.Function, l.Block)
	}
	return fmt.Sprintf("%s:%s#%d", l.Function, l.Block, l.Index)
}

// CompilerError is a structured diagnostic: a code, a level, a message,
// and the IR location it concerns.
type CompilerError struct {
	Level    Level
	Code     string
	Message  string
	Location Location
	cause    error
}

func (e *CompilerError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Location, e.Message)
}

func (e *CompilerError) Unwrap() error { return e.cause }

// New builds a CompilerError, optionally wrapping a lower-level cause via
// github.com/pkg/errors so a verbose dump can show the originating stack
// frame.
func New(level Level, code, message string, loc Location, cause error) *CompilerError {
	var wrapped error
	if cause != nil {
		wrapped = pkgerrors.WithMessage(cause, message)
	}
	return &CompilerError{Level: level, Code: code, Message: message, Location: loc, cause: wrapped}
}

// Fatal is a convenience constructor for the overwhelmingly common case:
// an Error-level diagnostic with no wrapped cause.
func Fatal(code, message string, loc Location) *CompilerError {
	return New(Error, code, message, loc, nil)
}

// Reporter formats CompilerErrors for a terminal.
type Reporter struct{}

func NewReporter() *Reporter { return &Reporter{} }

// Format renders err as a colored "level[code]: message" header followed
// by a location line, with no source snippet (none exists for this IR).
func (r *Reporter) Format(err *CompilerError) string {
	var b strings.Builder
	levelColor := r.levelColor(err.Level)
	dim := color.New(color.Faint).SprintFunc()

	b.WriteString(fmt.Sprintf("%s[%s]: %s\n", levelColor(string(err.Level)), err.Code, err.Message))
	b.WriteString(fmt.Sprintf("  %s %s\n", dim("-->"), err.Location))
	return b.String()
}

func (r *Reporter) levelColor(level Level) func(a ...interface{}) string {
	switch level {
	case Error:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

// ReportAll formats and concatenates a batch of errors, one pass worth
// of diagnostics at a time.
func (r *Reporter) ReportAll(errs []*CompilerError) string {
	var b strings.Builder
	for _, e := range errs {
		b.WriteString(r.Format(e))
	}
	return b.String()
}
