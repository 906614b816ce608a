package parser

import (
	"github.com/Indseta/los/ast"
	"github.com/Indseta/los/token"
)

// parseStatement dispatches on the current token per spec §4.2's
// statement grammar.
func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch {
	case p.checkValue("{"):
		return p.parseScope()
	case p.checkValue("if"):
		return p.parseIf()
	case p.checkValue("while"):
		return p.parseWhile()
	case p.checkValue("return"):
		return p.parseReturn()
	case p.checkValue(";"):
		p.advance()
		return &ast.EmptyStatement{}, nil
	case p.peek().Category == token.IDENTIFIER:
		return p.parseModularStatement()
	case isTypeToken(p.peek()) && p.peekAt(1).Category == token.IDENTIFIER:
		return p.parseVariableDeclaration()
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(";", "to terminate an expression statement"); err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Expr: expr}, nil
}

// parseScope parses "{ stmt* }".
func (p *Parser) parseScope() (*ast.ScopeDeclaration, error) {
	if _, err := p.consume("{", "to open a scope"); err != nil {
		return nil, err
	}
	var children []ast.Stmt
	for !p.checkValue("}") && !p.atEnd() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		children = append(children, stmt)
	}
	if _, err := p.consume("}", "to close a scope"); err != nil {
		return nil, err
	}
	return &ast.ScopeDeclaration{Children: children}, nil
}

// parseIf parses "if ( expr ) stmt (else stmt)?".
func (p *Parser) parseIf() (*ast.ConditionalStatement, error) {
	p.advance() // "if"
	if _, err := p.consume("(", "after if"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(")", "to close an if-condition"); err != nil {
		return nil, err
	}
	pass, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	var fail ast.Stmt
	if p.checkValue("else") {
		p.advance()
		fail, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}

	return &ast.ConditionalStatement{Cond: cond, Pass: pass, Fail: fail}, nil
}

// parseWhile parses "while ( expr ) stmt".
func (p *Parser) parseWhile() (*ast.WhileLoopStatement, error) {
	p.advance() // "while"
	if _, err := p.consume("(", "after while"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(")", "to close a while-condition"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.WhileLoopStatement{Cond: cond, Body: body}, nil
}

// parseReturn parses "return expr? ;".
func (p *Parser) parseReturn() (*ast.ReturnStatement, error) {
	p.advance() // "return"
	if p.checkValue(";") {
		p.advance()
		return &ast.ReturnStatement{}, nil
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(";", "to terminate a return statement"); err != nil {
		return nil, err
	}
	return &ast.ReturnStatement{Expr: expr}, nil
}

// parseVariableDeclaration parses "type id ;" or "type id = expr ;",
// reached when the statement dispatch sees a type token directly.
func (p *Parser) parseVariableDeclaration() (*ast.VariableDeclaration, error) {
	typ := p.advance().Value
	id, err := p.consumeIdentifier("in a variable declaration")
	if err != nil {
		return nil, err
	}

	var expr ast.Expr
	if p.match("=") {
		expr, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(";", "to terminate a variable declaration"); err != nil {
		return nil, err
	}
	return &ast.VariableDeclaration{Type: typ, ID: id.Value, Expr: expr}, nil
}

var compoundAssignOps = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%",
}

// parseModularStatement implements the "modular statement" rule: an
// identifier (optionally dotted) followed by an assignment operator, a
// "(" call, another identifier (a declaration), or nothing useful (an
// expression statement).
func (p *Parser) parseModularStatement() (ast.Stmt, error) {
	id := p.parseDottedIdentifier()

	switch {
	case p.checkValue("=") || compoundAssignOps[p.peek().Value] != "":
		return p.finishAssignment(id)
	case p.checkValue("("):
		call, err := p.finishCall(id)
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(";", "to terminate a call statement"); err != nil {
			return nil, err
		}
		return call, nil
	case p.peek().Category == token.IDENTIFIER:
		return p.finishDeclarationWithType(id)
	}

	if _, err := p.consume(";", "to terminate an expression statement"); err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Expr: &ast.VariableCall{ID: id}}, nil
}

// parseDottedIdentifier accumulates "id (. id)*" starting at the current
// identifier token.
func (p *Parser) parseDottedIdentifier() string {
	id := p.advance().Value
	for p.checkValue(".") && p.peekAt(1).Category == token.IDENTIFIER {
		p.advance() // "."
		id += "." + p.advance().Value
	}
	return id
}

// finishAssignment desugars "x op= e" into
// VariableAssignment(x, BinaryOperation(VariableCall(x), op, e)); a bare
// "x = e" lowers to VariableAssignment(x, e) directly.
func (p *Parser) finishAssignment(id string) (*ast.VariableAssignment, error) {
	opTok := p.advance().Value

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(";", "to terminate an assignment"); err != nil {
		return nil, err
	}

	if opTok == "=" {
		return &ast.VariableAssignment{ID: id, Expr: expr}, nil
	}

	op := compoundAssignOps[opTok]
	return &ast.VariableAssignment{
		ID: id,
		Expr: &ast.BinaryOperation{
			Left:  &ast.VariableCall{ID: id},
			Op:    op,
			Right: expr,
		},
	}, nil
}

// finishDeclarationWithType handles the case where the modular-statement
// rule discovered "IDENT IDENT" — the first identifier was in fact a
// (class) type name, and this is a variable declaration.
func (p *Parser) finishDeclarationWithType(typeName string) (*ast.VariableDeclaration, error) {
	id, err := p.consumeIdentifier("in a variable declaration")
	if err != nil {
		return nil, err
	}
	var expr ast.Expr
	if p.match("=") {
		expr, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(";", "to terminate a variable declaration"); err != nil {
		return nil, err
	}
	return &ast.VariableDeclaration{Type: typeName, ID: id.Value, Expr: expr}, nil
}

// finishCall parses "( (expr (, expr)*)? )" into a FunctionCall, given an
// already-consumed callee identifier.
func (p *Parser) finishCall(id string) (*ast.FunctionCall, error) {
	if _, err := p.consume("(", "to open a call argument list"); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for !p.checkValue(")") {
		if len(args) > 0 {
			if _, err := p.consume(",", "between call arguments"); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if _, err := p.consume(")", "to close a call argument list"); err != nil {
		return nil, err
	}
	return &ast.FunctionCall{ID: id, Args: args}, nil
}
