package render

import (
	"fmt"
	"strings"

	"sqlprep/internal/schema"
)

// Values produced while evaluating expressions: string, bool, []string or
// tableSet.
type value any

// tableSet is the db.tables projection. It only supports membership tests,
// truthiness and join.
type tableSet struct {
	snap *schema.Snapshot
}

// scope is one level of loop variables.
type scope map[string]value

// evalError is raised for a well-formed expression that cannot be evaluated
// against the given environment. undefined carries the missing name.
type evalError struct {
	undefined string
	msg       string
}

func (e *evalError) Error() string { return e.msg }

func undefined(name string) *evalError {
	return &evalError{undefined: name, msg: fmt.Sprintf("undefined parameter %q", name)}
}

func typeErrorf(format string, args ...any) *evalError {
	return &evalError{msg: fmt.Sprintf(format, args...)}
}

type evaluator struct {
	env    Env
	scopes []scope
}

func (ev *evaluator) push(s scope) { ev.scopes = append(ev.scopes, s) }
func (ev *evaluator) pop()         { ev.scopes = ev.scopes[:len(ev.scopes)-1] }

func (ev *evaluator) evalOr(e *orExpr) (value, error) {
	v, err := ev.evalAnd(e.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range e.Right {
		if truthy(v) {
			return v, nil
		}
		if v, err = ev.evalAnd(r); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (ev *evaluator) evalAnd(e *andExpr) (value, error) {
	v, err := ev.evalNot(e.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range e.Right {
		if !truthy(v) {
			return v, nil
		}
		if v, err = ev.evalNot(r); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (ev *evaluator) evalNot(e *notExpr) (value, error) {
	if e.Negated != nil {
		v, err := ev.evalNot(e.Negated)
		if err != nil {
			return nil, err
		}
		return !truthy(v), nil
	}
	return ev.evalCmp(e.Cmp)
}

func (ev *evaluator) evalCmp(e *cmpExpr) (value, error) {
	left, err := ev.evalOperand(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Tail == nil {
		return left, nil
	}
	right, err := ev.evalOperand(e.Tail.Right)
	if err != nil {
		return nil, err
	}

	op := e.Tail.Op
	switch {
	case op.Eq, op.Ne:
		l, err := scalar(left)
		if err != nil {
			return nil, err
		}
		r, err := scalar(right)
		if err != nil {
			return nil, err
		}
		return (l == r) == op.Eq, nil
	default:
		needle, err := scalar(left)
		if err != nil {
			return nil, err
		}
		found, err := contains(right, needle)
		if err != nil {
			return nil, err
		}
		return found == op.In, nil
	}
}

func (ev *evaluator) evalOperand(o *operand) (value, error) {
	v, err := ev.evalPrimary(o.Primary)
	if err != nil {
		return nil, err
	}
	for _, f := range o.Filters {
		if v, err = ev.applyFilter(f, v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (ev *evaluator) evalPrimary(p *primary) (value, error) {
	switch {
	case p.String != nil:
		return unquote(*p.String), nil
	case p.Number != nil:
		return *p.Number, nil
	case p.TrueLit:
		return true, nil
	case p.FalseLit:
		return false, nil
	case p.Sub != nil:
		return ev.evalOr(p.Sub)
	default:
		return ev.resolve(p.Path)
	}
}

// resolve looks a dotted path up in loop scopes, the db and config
// namespaces and finally the render parameters.
func (ev *evaluator) resolve(path []string) (value, error) {
	name := strings.Join(path, ".")

	for i := len(ev.scopes) - 1; i >= 0; i-- {
		if v, ok := ev.scopes[i][name]; ok {
			return v, nil
		}
	}

	switch path[0] {
	case "db":
		return ev.resolveDB(path[1:], name)
	case "config":
		if len(path) != 2 || ev.env.Config == nil {
			return nil, undefined(name)
		}
		if v, ok := ev.env.Config(path[1]); ok {
			return v, nil
		}
		return nil, undefined(name)
	}

	if len(path) == 1 {
		if v, ok := ev.env.Params[name]; ok {
			return v, nil
		}
	}
	return nil, undefined(name)
}

func (ev *evaluator) resolveDB(rest []string, name string) (value, error) {
	snap := ev.env.DB
	if snap == nil || len(rest) == 0 {
		return nil, undefined(name)
	}
	switch {
	case len(rest) == 1 && rest[0] == "tables":
		return tableSet{snap: snap}, nil
	case len(rest) == 1 && rest[0] == "partitions":
		return snap.Partitions(), nil
	case len(rest) == 1 && rest[0] == "reverse_only":
		return snap.ReverseOnly(), nil
	case len(rest) == 2 && rest[0] == "tablespace":
		if clause, ok := snap.Tablespace(rest[1]); ok {
			return clause, nil
		}
	}
	return nil, undefined(name)
}

// filters is the closed set of supported filters.
var filters = map[string]func(v value, args []value) (value, error){
	"join": filterJoin,
}

func (ev *evaluator) applyFilter(f *filter, v value) (value, error) {
	fn := filters[f.Name]
	args := make([]value, 0, len(f.Args))
	for _, a := range f.Args {
		av, err := ev.evalOperand(a)
		if err != nil {
			return nil, err
		}
		args = append(args, av)
	}
	return fn(v, args)
}

func filterJoin(v value, args []value) (value, error) {
	sep := ""
	switch len(args) {
	case 0:
	case 1:
		s, err := scalar(args[0])
		if err != nil {
			return nil, err
		}
		sep = s
	default:
		return nil, typeErrorf("join takes at most one argument, got %d", len(args))
	}

	switch t := v.(type) {
	case []string:
		return strings.Join(t, sep), nil
	case tableSet:
		return strings.Join(t.snap.Tables(), sep), nil
	case string:
		return t, nil
	default:
		return nil, typeErrorf("cannot join a %s", typeName(v))
	}
}

func truthy(v value) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case []string:
		return len(t) > 0
	case tableSet:
		return len(t.snap.Tables()) > 0
	default:
		return false
	}
}

// scalar converts a value to the string used for output and comparisons.
func scalar(v value) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	default:
		return "", typeErrorf("%s cannot be used as a scalar; use |join", typeName(v))
	}
}

func contains(haystack value, needle string) (bool, error) {
	switch t := haystack.(type) {
	case tableSet:
		return t.snap.HasTable(needle), nil
	case []string:
		for _, s := range t {
			if s == needle {
				return true, nil
			}
		}
		return false, nil
	case string:
		return strings.Contains(t, needle), nil
	default:
		return false, typeErrorf("cannot test membership in a %s", typeName(haystack))
	}
}

func typeName(v value) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case []string:
		return "list"
	case tableSet:
		return "table set"
	default:
		return fmt.Sprintf("%T", v)
	}
}
