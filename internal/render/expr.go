package render

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// orExpr is the root of the directive expression grammar:
//
//	or      = and ( "or" and )*
//	and     = not ( "and" not )*
//	not     = "not" not | cmp
//	cmp     = operand ( ( "==" | "!=" | "in" | "not" "in" ) operand )?
//	operand = primary ( "|" filter )*
//	primary = String | Number | "true" | "false" | Ident ( "." Ident )* | "(" or ")"
//
//nolint:govet // participle grammar tags are not standard struct tags
type orExpr struct {
	Left  *andExpr   `@@`
	Right []*andExpr `( "or" @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type andExpr struct {
	Left  *notExpr   `@@`
	Right []*notExpr `( "and" @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type notExpr struct {
	Negated *notExpr `  "not" @@`
	Cmp     *cmpExpr `| @@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type cmpExpr struct {
	Left *operand `@@`
	Tail *cmpTail `@@?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type cmpTail struct {
	Op    *cmpOp   `@@`
	Right *operand `@@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type cmpOp struct {
	Eq    bool `  @"=="`
	Ne    bool `| @"!="`
	In    bool `| @"in"`
	NotIn bool `| "not" @"in"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type operand struct {
	Primary *primary  `@@`
	Filters []*filter `( "|" @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type primary struct {
	String   *string  `  @String`
	Number   *string  `| @Number`
	TrueLit  bool     `| @"true"`
	FalseLit bool     `| @"false"`
	Path     []string `| @Ident ( "." @Ident )*`
	Sub      *orExpr  `| "(" @@ ")"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type filter struct {
	Name string     `@Ident`
	Args []*operand `( "(" ( @@ ( "," @@ )* )? ")" )?`
}

var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `'(?:\\.|[^'\\])*'|"(?:\\.|[^"\\])*"`},
	{Name: "Op", Pattern: `==|!=`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[.|(),]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var exprParser = participle.MustBuild[orExpr](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
)

func parseExpr(src string) (*orExpr, error) {
	return exprParser.ParseString("", src)
}

// unquote strips the surrounding quotes of a String token and resolves
// backslash escapes.
func unquote(tok string) string {
	inner := tok[1 : len(tok)-1]
	if !strings.Contains(inner, `\`) {
		return inner
	}
	var b strings.Builder
	escaped := false
	for _, r := range inner {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}
