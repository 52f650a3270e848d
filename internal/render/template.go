// Package render expands the directive language of schema-build SQL files.
//
// Supported directives:
//
//	{{ expr }}                      substitution, e.g. {{ db.partitions|join(',') }}
//	{% if expr %} {% elif expr %} {% else %} {% endif %}
//	{% for p in db.partitions %} ... {% endfor %}
//	{# comment #}
//
// Names resolve to render parameters, loop variables, config.<KEY> and the
// db.tables, db.partitions, db.tablespace.<area> and db.reverse_only
// projections of a schema.Snapshot. Rendering is a pure function of the
// template text and the Env.
package render

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"sqlprep/internal/apperr"
	"sqlprep/internal/schema"
)

// Params are the caller supplied values of a single render call.
type Params map[string]string

// Env is everything a template may refer to.
type Env struct {
	DB     *schema.Snapshot
	Params Params
	Config schema.Lookup
}

type node interface{}

type textNode struct {
	text string
}

type outputNode struct {
	line int
	expr *orExpr
}

type branch struct {
	line int
	cond *orExpr
	body []node
}

type ifNode struct {
	branches []branch
	orElse   []node
}

type forNode struct {
	line    int
	varName string
	iter    *orExpr
	body    []node
}

// Template is a parsed template, safe for concurrent Execute calls.
type Template struct {
	name  string
	nodes []node
}

// Name is the template name used in error messages.
func (t *Template) Name() string { return t.name }

var forHeader = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s+in\s+(.+)$`)

// Parse checks the directive structure of src. It returns an
// *apperr.SyntaxError for malformed directives.
func Parse(name, src string) (*Template, error) {
	toks, err := scan(name, src)
	if err != nil {
		return nil, err
	}
	p := &parser{name: name, toks: toks}
	nodes, end, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	if end != nil {
		return nil, p.errorf(end.line, "unexpected {%% %s %%}", end.body)
	}
	return &Template{name: name, nodes: nodes}, nil
}

// Render parses and executes src in one step.
func Render(name, src string, env Env) (string, error) {
	t, err := Parse(name, src)
	if err != nil {
		return "", err
	}
	return t.Execute(env)
}

type parser struct {
	name string
	toks []token
	pos  int
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return &apperr.SyntaxError{Template: p.name, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func tagKeyword(body string) (string, string) {
	kw, rest, _ := strings.Cut(body, " ")
	return kw, strings.TrimSpace(rest)
}

// parseBody reads nodes until EOF or a closing/intermediate block tag, which
// is returned unconsumed-by-the-body so the caller can decide on it.
func (p *parser) parseBody() ([]node, *token, error) {
	var nodes []node
	for p.pos < len(p.toks) {
		tok := p.toks[p.pos]
		p.pos++

		switch tok.kind {
		case tokText:
			nodes = append(nodes, textNode{text: tok.body})
		case tokOutput:
			expr, err := p.expr(tok.line, tok.body)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, outputNode{line: tok.line, expr: expr})
		case tokTag:
			kw, rest := tagKeyword(tok.body)
			switch kw {
			case "if":
				n, err := p.parseIf(tok, rest)
				if err != nil {
					return nil, nil, err
				}
				nodes = append(nodes, n)
			case "for":
				n, err := p.parseFor(tok, rest)
				if err != nil {
					return nil, nil, err
				}
				nodes = append(nodes, n)
			case "elif", "else", "endif", "endfor":
				t := tok
				return nodes, &t, nil
			default:
				return nil, nil, p.errorf(tok.line, "unknown tag %q", kw)
			}
		}
	}
	return nodes, nil, nil
}

func (p *parser) parseIf(open token, cond string) (node, error) {
	expr, err := p.expr(open.line, cond)
	if err != nil {
		return nil, err
	}
	n := ifNode{}
	cur := branch{line: open.line, cond: expr}
	elseSeen := false
	for {
		body, end, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		if end == nil {
			return nil, p.errorf(open.line, "missing {%% endif %%}")
		}
		if elseSeen {
			n.orElse = body
		} else {
			cur.body = body
			n.branches = append(n.branches, cur)
		}

		kw, rest := tagKeyword(end.body)
		switch {
		case kw == "endif":
			return n, nil
		case kw == "elif" && !elseSeen:
			expr, err := p.expr(end.line, rest)
			if err != nil {
				return nil, err
			}
			cur = branch{line: end.line, cond: expr}
		case kw == "else" && !elseSeen && rest == "":
			elseSeen = true
		default:
			return nil, p.errorf(end.line, "unexpected {%% %s %%}", end.body)
		}
	}
}

func (p *parser) parseFor(open token, header string) (node, error) {
	m := forHeader.FindStringSubmatch(header)
	if m == nil {
		return nil, p.errorf(open.line, "malformed for loop %q", header)
	}
	iter, err := p.expr(open.line, m[2])
	if err != nil {
		return nil, err
	}
	body, end, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	if end == nil {
		return nil, p.errorf(open.line, "missing {%% endfor %%}")
	}
	if end.body != "endfor" {
		return nil, p.errorf(end.line, "unexpected {%% %s %%}", end.body)
	}
	return forNode{line: open.line, varName: m[1], iter: iter, body: body}, nil
}

func (p *parser) expr(line int, src string) (*orExpr, error) {
	if src == "" {
		return nil, p.errorf(line, "empty expression")
	}
	e, err := parseExpr(src)
	if err != nil {
		return nil, p.errorf(line, "%q: %v", src, err)
	}
	if name := unknownFilter(e); name != "" {
		return nil, p.errorf(line, "unknown filter %q", name)
	}
	return e, nil
}

// Execute renders the template against env.
func (t *Template) Execute(env Env) (string, error) {
	ev := &evaluator{env: env}
	var b strings.Builder
	if err := t.exec(ev, &b, t.nodes); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (t *Template) exec(ev *evaluator, b *strings.Builder, nodes []node) error {
	for _, n := range nodes {
		switch n := n.(type) {
		case textNode:
			b.WriteString(n.text)
		case outputNode:
			v, err := ev.evalOr(n.expr)
			if err != nil {
				return t.wrap(n.line, err)
			}
			s, err := scalar(v)
			if err != nil {
				return t.wrap(n.line, err)
			}
			b.WriteString(s)
		case ifNode:
			body := n.orElse
			for _, br := range n.branches {
				v, err := ev.evalOr(br.cond)
				if err != nil {
					return t.wrap(br.line, err)
				}
				if truthy(v) {
					body = br.body
					break
				}
			}
			if err := t.exec(ev, b, body); err != nil {
				return err
			}
		case forNode:
			if err := t.execFor(ev, b, n); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Template) execFor(ev *evaluator, b *strings.Builder, n forNode) error {
	v, err := ev.evalOr(n.iter)
	if err != nil {
		return t.wrap(n.line, err)
	}
	var items []string
	switch it := v.(type) {
	case []string:
		items = it
	case tableSet:
		items = it.snap.Tables()
	default:
		return t.wrap(n.line, typeErrorf("cannot iterate over a %s", typeName(v)))
	}

	for i, item := range items {
		ev.push(scope{
			n.varName:    item,
			"loop.index": strconv.Itoa(i + 1),
			"loop.first": i == 0,
			"loop.last":  i == len(items)-1,
		})
		err := t.exec(ev, b, n.body)
		ev.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *Template) wrap(line int, err error) error {
	var ee *evalError
	if errors.As(err, &ee) {
		if ee.undefined != "" {
			return &apperr.UndefinedParameterError{Template: t.name, Line: line, Name: ee.undefined}
		}
		return &apperr.SyntaxError{Template: t.name, Line: line, Msg: ee.msg}
	}
	return err
}

func unknownFilter(e *orExpr) string {
	var walkOr func(*orExpr) string
	var walkOperand func(*operand) string

	walkOperand = func(o *operand) string {
		if o == nil {
			return ""
		}
		if o.Primary.Sub != nil {
			if name := walkOr(o.Primary.Sub); name != "" {
				return name
			}
		}
		for _, f := range o.Filters {
			if _, ok := filters[f.Name]; !ok {
				return f.Name
			}
			for _, a := range f.Args {
				if name := walkOperand(a); name != "" {
					return name
				}
			}
		}
		return ""
	}

	walkNot := func(n *notExpr) string {
		for n.Negated != nil {
			n = n.Negated
		}
		if name := walkOperand(n.Cmp.Left); name != "" {
			return name
		}
		if n.Cmp.Tail != nil {
			return walkOperand(n.Cmp.Tail.Right)
		}
		return ""
	}

	walkAnd := func(a *andExpr) string {
		for _, n := range append([]*notExpr{a.Left}, a.Right...) {
			if name := walkNot(n); name != "" {
				return name
			}
		}
		return ""
	}

	walkOr = func(o *orExpr) string {
		for _, a := range append([]*andExpr{o.Left}, o.Right...) {
			if name := walkAnd(a); name != "" {
				return name
			}
		}
		return ""
	}

	return walkOr(e)
}
