package parser

import (
	"github.com/Indseta/los/ast"
	"github.com/Indseta/los/token"
)

// parseExpression enters the precedence chain at its loosest level.
func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parseEquality()
}

// parseEquality: comparison (==, !=) comparison)*, left-associative.
func (p *Parser) parseEquality() (ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.checkValue("==") || p.checkValue("!=") {
		op := p.advance().Value
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOperation{Left: left, Op: op, Right: right}
	}
	return left, nil
}

// parseComparison: cast (<, <=, >, >= cast)*, left-associative.
func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseCast()
	if err != nil {
		return nil, err
	}
	for p.checkValue("<") || p.checkValue("<=") || p.checkValue(">") || p.checkValue(">=") {
		op := p.advance().Value
		right, err := p.parseCast()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOperation{Left: left, Op: op, Right: right}
	}
	return left, nil
}

// parseCast: term (as type)*.
func (p *Parser) parseCast() (ast.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.checkValue("as") {
		p.advance()
		if !isTypeToken(p.peek()) {
			return nil, p.errorf("expected a type name after 'as', found %q", p.peek().Value)
		}
		target := p.advance().Value
		left = &ast.CastOperation{Child: left, TargetType: target}
	}
	return left, nil
}

// parseTerm: factor ((+|-) factor)*, left-associative.
func (p *Parser) parseTerm() (ast.Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.checkValue("+") || p.checkValue("-") {
		op := p.advance().Value
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOperation{Left: left, Op: op, Right: right}
	}
	return left, nil
}

// parseFactor: remainder ((*|/) remainder)*, left-associative.
func (p *Parser) parseFactor() (ast.Expr, error) {
	left, err := p.parseRemainder()
	if err != nil {
		return nil, err
	}
	for p.checkValue("*") || p.checkValue("/") {
		op := p.advance().Value
		right, err := p.parseRemainder()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOperation{Left: left, Op: op, Right: right}
	}
	return left, nil
}

// parseRemainder: unary (% unary)*, left-associative.
func (p *Parser) parseRemainder() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.checkValue("%") {
		op := p.advance().Value
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOperation{Left: left, Op: op, Right: right}
	}
	return left, nil
}

// parseUnary: (-|!) unary | primary.
func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.checkValue("-") || p.checkValue("!") {
		op := p.advance().Value
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOperation{Op: op, Child: child}, nil
	}
	return p.parsePrimary()
}

// parsePrimary covers literals, identifiers (optionally a call), and
// parenthesized sub-expressions.
func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()

	switch tok.Category {
	case token.INTEGER_LITERAL:
		p.advance()
		return &ast.IntegerLiteral{Text: tok.Value}, nil
	case token.FLOAT_LITERAL:
		p.advance()
		return &ast.FloatLiteral{Text: tok.Value}, nil
	case token.BOOLEAN_LITERAL:
		p.advance()
		return &ast.BooleanLiteral{Value: tok.Value == "true"}, nil
	case token.STRING_LITERAL:
		p.advance()
		return &ast.StringLiteral{Text: tok.Value}, nil
	case token.IDENTIFIER:
		id := p.parseDottedIdentifier()
		if p.checkValue("(") {
			return p.finishCall(id)
		}
		return &ast.VariableCall{ID: id}, nil
	}

	if tok.Value == "(" {
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(")", "to close a parenthesized expression"); err != nil {
			return nil, err
		}
		return expr, nil
	}

	return nil, p.errorf("unexpected token %q in expression", tok.Value)
}
