package valueexpr

import (
	"fmt"
	"strings"
)

// ParseError is a value expression syntax or reference error.
type ParseError struct {
	// Byte offset in the expression where the error occurred.
	Position int
	Message  string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("parse error at %d: %s", e.Position, e.Message)
}

type function struct {
	name    string
	minArgs int
	maxArgs int // -1 for no limit
}

var functions = map[string]function{
	"lower":    {name: "LOWER", minArgs: 1, maxArgs: 1},
	"upper":    {name: "UPPER", minArgs: 1, maxArgs: 1},
	"length":   {name: "LENGTH", minArgs: 1, maxArgs: 1},
	"abs":      {name: "ABS", minArgs: 1, maxArgs: 1},
	"coalesce": {name: "COALESCE", minArgs: 2, maxArgs: -1},
	"concat":   {name: "", minArgs: 2, maxArgs: -1},
}

type parser struct {
	ctx   *Context
	lexer *lexer
	pos   int
	tok   token
	val   string
	paths map[string]struct{}
}

// Parse parses a value expression in ctx:
//
//	expr := NUMBER | 'STRING' | PATH | FUNC "(" expr { "," expr } ")"
//
// Property paths are normalized and must exist in the record type. Paths
// used as function arguments must be scalar.
//
// Recursive-descent methods panic with a ParseError that is recovered
// here; any other panic is re-raised.
func Parse(ctx *Context, src string) (expr *Expression, err error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(ParseError); ok {
				expr = nil
				err = pe
			} else {
				panic(r)
			}
		}
	}()

	p := &parser{ctx: ctx, lexer: &lexer{src: src}, paths: map[string]struct{}{}}
	p.next()

	root := p.expression(false)
	p.expect(tokEOF)

	return newExpression(src, root, p.paths), nil
}

func (p *parser) next() {
	p.pos, p.tok, p.val = p.lexer.scan()
	if p.tok == tokIllegal {
		panic(ParseError{Position: p.pos, Message: p.val})
	}
}

func (p *parser) expect(tok token) {
	if p.tok != tok {
		panic(p.errorf("expected %s instead of %s", tok, p.tok))
	}
}

func (p *parser) errorf(format string, args ...any) ParseError {
	return ParseError{Position: p.pos, Message: fmt.Sprintf(format, args...)}
}

// expression parses one operand. nested is true inside function calls.
func (p *parser) expression(nested bool) node {
	switch p.tok {
	case tokNumber:
		n := numberLit{text: p.val}
		p.next()
		return n
	case tokString:
		s := stringLit{value: p.val}
		p.next()
		return s
	case tokPath:
		pos, name := p.pos, p.val
		p.next()
		if p.tok == tokLParen {
			return p.call(pos, name)
		}
		return p.propRef(pos, name, nested)
	}
	panic(p.errorf("expected value instead of %s", p.tok))
}

func (p *parser) call(pos int, name string) node {
	fn, ok := functions[strings.ToLower(name)]
	if !ok {
		panic(ParseError{Position: pos, Message: fmt.Sprintf("unknown function %q", name)})
	}
	p.next()

	var args []node
	if p.tok != tokRParen {
		for {
			args = append(args, p.expression(true))
			if p.tok != tokComma {
				break
			}
			p.next()
		}
	}
	p.expect(tokRParen)
	p.next()

	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		panic(ParseError{Position: pos, Message: fmt.Sprintf("wrong number of arguments for %s: %d", name, len(args))})
	}
	return call{fn: fn.name, args: args}
}

func (p *parser) propRef(pos int, ref string, nested bool) node {
	norm, err := p.ctx.normalize(ref)
	if err != nil {
		panic(ParseError{Position: pos, Message: err.Error()})
	}
	prop, err := p.ctx.rt.Resolve(norm)
	if err != nil {
		panic(ParseError{Position: pos, Message: err.Error()})
	}
	if nested && !prop.IsScalar() {
		panic(ParseError{Position: pos, Message: fmt.Sprintf("collection property %q cannot be a function argument", norm)})
	}
	p.paths[norm] = struct{}{}
	return propRef{path: norm}
}
