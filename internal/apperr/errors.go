// Package apperr holds the error types surfaced by the preprocessor. Every
// failure seen by a caller is one of these, wrapped with fmt.Errorf at most.
package apperr

import (
	"fmt"
	"sort"
	"strings"
)

// ConfigurationError reports malformed caller input, such as a sanitizer rule
// without a step name. It is never retried.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Msg, e.Err)
	}
	return "configuration error: " + e.Msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Configf builds a ConfigurationError.
func Configf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// UndefinedParameterError is returned when a template evaluates a name that
// is neither a render parameter nor a built-in.
type UndefinedParameterError struct {
	Template string
	Line     int
	Name     string
}

func (e *UndefinedParameterError) Error() string {
	return fmt.Sprintf("%s:%d: undefined parameter %q", e.Template, e.Line, e.Name)
}

// SyntaxError reports a malformed template directive. It is a kind of
// configuration error.
type SyntaxError struct {
	Template string
	Line     int
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: template syntax error: %s", e.Template, e.Line, e.Msg)
}

// As lets errors.As treat a SyntaxError as a ConfigurationError.
func (e *SyntaxError) As(target any) bool {
	if t, ok := target.(**ConfigurationError); ok {
		*t = &ConfigurationError{Msg: "invalid template", Err: e}
		return true
	}
	return false
}

// ConnectionError wraps failures to open a connection or to run the
// introspection queries.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// SingleBatch is the group index used for Run, which executes one batch.
const SingleBatch = -1

// ExecutionError reports a statement batch rejected by the database.
type ExecutionError struct {
	Group int
	Err   error
}

func (e *ExecutionError) Error() string {
	detail := Describe(e.Err)
	if e.Group == SingleBatch {
		return "execution failed: " + detail
	}
	return fmt.Sprintf("execution of group %d failed: %s", e.Group, detail)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// GroupFailure is one entry of an AggregateExecutionError.
type GroupFailure struct {
	Group int
	Err   error
}

// AggregateExecutionError collects the failed groups of a parallel run.
// Groups not listed either succeeded or were never part of the run.
type AggregateExecutionError struct {
	Total    int
	Failures []GroupFailure
}

// NewAggregate sorts failures by group index.
func NewAggregate(total int, failures []GroupFailure) *AggregateExecutionError {
	sorted := append([]GroupFailure(nil), failures...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Group < sorted[j].Group })
	return &AggregateExecutionError{Total: total, Failures: sorted}
}

func (e *AggregateExecutionError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("group %d: %v", f.Group, f.Err))
	}
	return fmt.Sprintf("%d of %d statement groups failed: %s", len(e.Failures), e.Total, strings.Join(parts, "; "))
}

// Groups returns the indices of the failed groups in ascending order.
func (e *AggregateExecutionError) Groups() []int {
	out := make([]int, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Group
	}
	return out
}

func (e *AggregateExecutionError) Unwrap() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Err
	}
	return out
}
