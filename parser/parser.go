// Package parser implements the recursive-descent parser of spec §4.2:
// a token vector in, a vector of top-level tree nodes out, built from
// explicit peek/next/advance/consume/match primitives in the style the
// teacher's own compiler package uses to walk its token slice.
package parser

import (
	"fmt"

	"github.com/Indseta/los/ast"
	"github.com/Indseta/los/token"
)

// Parser holds our object-state: the full token vector and a cursor.
type Parser struct {
	tokens []token.Token
	pos    int

	// modPrefix is concatenated onto function identifiers declared
	// directly within a module (spec §4.2). It is reset to empty after
	// *every* top-level module — including when modules are siblings —
	// which spec §9 Open Question (1) calls out as possibly a bug in
	// the reference. We reproduce it faithfully; see DESIGN.md.
	modPrefix string
}

// New builds a Parser over an already-lexed token vector.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse consumes the leading run of `use` directives, then parses global
// statements until end of stream.
func (p *Parser) Parse() ([]ast.Node, error) {
	var nodes []ast.Node

	for p.checkValue("use") {
		ext, err := p.parseExtern()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, ext)
	}

	for !p.atEnd() {
		node, err := p.parseGlobal()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	return nodes, nil
}

// --- token-stream primitives ---

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

// peek returns the current token, or a zero-value token past the end.
func (p *Parser) peek() token.Token {
	if p.atEnd() {
		return token.Token{}
	}
	return p.tokens[p.pos]
}

// peekAt looks ahead offset tokens from the cursor.
func (p *Parser) peekAt(offset int) token.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return token.Token{}
	}
	return p.tokens[idx]
}

// advance returns the current token and moves the cursor forward.
func (p *Parser) advance() token.Token {
	tok := p.peek()
	if !p.atEnd() {
		p.pos++
	}
	return tok
}

// checkValue reports whether the current token's value equals v, without
// consuming it.
func (p *Parser) checkValue(v string) bool {
	return p.peek().Value == v
}

// match advances and returns true if the current token's value is a
// member of the given set.
func (p *Parser) match(values ...string) bool {
	cur := p.peek().Value
	for _, v := range values {
		if cur == v {
			p.advance()
			return true
		}
	}
	return false
}

// consume requires the current token to have value v, advancing past it;
// otherwise it raises a line-qualified parse error.
func (p *Parser) consume(v, context string) (token.Token, error) {
	if p.checkValue(v) {
		return p.advance(), nil
	}
	return token.Token{}, p.errorf("expected %q %s, found %q", v, context, p.peek().Value)
}

// consumeIdentifier requires the current token to be an IDENTIFIER.
func (p *Parser) consumeIdentifier(context string) (token.Token, error) {
	if p.peek().Category == token.IDENTIFIER {
		return p.advance(), nil
	}
	return token.Token{}, p.errorf("expected identifier %s, found %q", context, p.peek().Value)
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	line := p.peek().Line
	return fmt.Errorf("line %d: %s", line, fmt.Sprintf(format, args...))
}

// isTypeToken reports whether tok can start a type name: one of the
// fixed keyword type names, or a class identifier.
func isTypeToken(tok token.Token) bool {
	if tok.Category == token.IDENTIFIER {
		return true
	}
	if tok.Category != token.KEYWORD {
		return false
	}
	switch tok.Value {
	case "uint8", "uint16", "uint32", "uint64",
		"int8", "int16", "int32", "int64",
		"float8", "float16", "float32", "float64",
		"bool", "string", "void", "ptr", "ref":
		return true
	}
	return false
}
