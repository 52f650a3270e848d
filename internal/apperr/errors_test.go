package apperr_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"sqlprep/internal/apperr"

	"github.com/lib/pq"
)

func TestAggregateSortsAndUnwraps(t *testing.T) {
	boom := errors.New("boom")
	agg := apperr.NewAggregate(5, []apperr.GroupFailure{
		{Group: 3, Err: &apperr.ExecutionError{Group: 3, Err: boom}},
		{Group: 1, Err: &apperr.ExecutionError{Group: 1, Err: errors.New("other")}},
	})

	got := agg.Groups()
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("Groups() = %v, want [1 3]", got)
	}

	var execErr *apperr.ExecutionError
	if !errors.As(agg, &execErr) {
		t.Fatal("errors.As did not find an ExecutionError")
	}
	if !errors.Is(agg, boom) {
		t.Error("errors.Is did not reach the wrapped driver error")
	}
	if !strings.HasPrefix(agg.Error(), "2 of 5 statement groups failed") {
		t.Errorf("unexpected message: %s", agg.Error())
	}
}

func TestDescribePostgresError(t *testing.T) {
	err := fmt.Errorf("exec: %w", &pq.Error{Code: "42P07", Message: `relation "foo" already exists`})
	got := apperr.Describe(err)
	want := `relation "foo" already exists (SQLSTATE 42P07)`
	if got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}

func TestExecutionErrorMessage(t *testing.T) {
	single := &apperr.ExecutionError{Group: apperr.SingleBatch, Err: errors.New("syntax")}
	if single.Error() != "execution failed: syntax" {
		t.Errorf("single batch message = %q", single.Error())
	}
	grouped := &apperr.ExecutionError{Group: 2, Err: errors.New("syntax")}
	if grouped.Error() != "execution of group 2 failed: syntax" {
		t.Errorf("group message = %q", grouped.Error())
	}
}

func TestSyntaxErrorIsConfigurationError(t *testing.T) {
	err := fmt.Errorf("render: %w", &apperr.SyntaxError{Template: "tables.sql", Line: 3, Msg: "unknown tag \"fi\""})

	var cfgErr *apperr.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("errors.As did not match ConfigurationError for %v", err)
	}
	var synErr *apperr.SyntaxError
	if !errors.As(cfgErr, &synErr) || synErr.Line != 3 {
		t.Errorf("the SyntaxError should stay reachable, got %v", cfgErr.Err)
	}

	var undef *apperr.UndefinedParameterError
	if errors.As(err, &undef) {
		t.Error("a SyntaxError is not an UndefinedParameterError")
	}
}
