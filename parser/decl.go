package parser

import (
	"github.com/Indseta/los/ast"
	"github.com/Indseta/los/token"
)

// parseExtern consumes a single "use <path>;" directive.
func (p *Parser) parseExtern() (*ast.Extern, error) {
	if _, err := p.consume("use", "to start an extern directive"); err != nil {
		return nil, err
	}
	path, err := p.consumeIdentifier("as the extern path")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(";", "to terminate a use-directive"); err != nil {
		return nil, err
	}
	return &ast.Extern{Path: path.Value}, nil
}

// parseGlobal dispatches a top-level declaration: module, class, or a
// function declaration identified by the 3-token lookahead "IDENT IDENT (".
func (p *Parser) parseGlobal() (ast.Node, error) {
	switch {
	case p.checkValue("module"):
		return p.parseModule()
	case p.checkValue("class"):
		return p.parseClassDeclaration()
	case p.looksLikeFunctionDeclaration():
		return p.parseFunctionDeclaration()
	}
	return nil, p.errorf("expected module, class, or function declaration, found %q", p.peek().Value)
}

// looksLikeFunctionDeclaration implements the 3-token lookahead of
// "retType id (" from spec §4.2.
func (p *Parser) looksLikeFunctionDeclaration() bool {
	return isTypeToken(p.peek()) &&
		p.peekAt(1).Category == token.IDENTIFIER &&
		p.peekAt(2).Value == "("
}

// parseModule parses "module <id> { decl* }" or "module <id> stmt".
// Function identifiers declared directly within get mod_prefix-concatenated.
func (p *Parser) parseModule() (*ast.Module, error) {
	if _, err := p.consume("module", "to start a module"); err != nil {
		return nil, err
	}
	id, err := p.consumeIdentifier("as the module name")
	if err != nil {
		return nil, err
	}

	p.modPrefix = id.Value

	var body []ast.Decl
	if p.checkValue("{") {
		p.advance()
		for !p.checkValue("}") && !p.atEnd() {
			decl, err := p.parseModuleMember()
			if err != nil {
				return nil, err
			}
			body = append(body, decl)
		}
		if _, err := p.consume("}", "to close a module body"); err != nil {
			return nil, err
		}
	} else {
		decl, err := p.parseModuleMember()
		if err != nil {
			return nil, err
		}
		body = append(body, decl)
	}

	// Reset unconditionally: see modPrefix's doc comment and
	// DESIGN.md for why this is intentional, not an oversight.
	p.modPrefix = ""

	return &ast.Module{ID: id.Value, Body: body}, nil
}

// parseModuleMember parses one declaration inside a module body: a
// nested module, a class, or a function declaration. A nested module
// replaces the prefix with its own name and clears it when it closes.
func (p *Parser) parseModuleMember() (ast.Decl, error) {
	switch {
	case p.checkValue("module"):
		return p.parseModule()
	case p.checkValue("class"):
		return p.parseClassDeclaration()
	case p.looksLikeFunctionDeclaration():
		return p.parseFunctionDeclaration()
	}
	return nil, p.errorf("expected a declaration inside module, found %q", p.peek().Value)
}

// parseClassDeclaration parses "class <id> { classMember* }".
func (p *Parser) parseClassDeclaration() (*ast.ClassDeclaration, error) {
	if _, err := p.consume("class", "to start a class"); err != nil {
		return nil, err
	}
	id, err := p.consumeIdentifier("as the class name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume("{", "to open a class body"); err != nil {
		return nil, err
	}

	var members []ast.ClassMember
	for !p.checkValue("}") && !p.atEnd() {
		member, err := p.parseClassMember()
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if _, err := p.consume("}", "to close a class body"); err != nil {
		return nil, err
	}

	return &ast.ClassDeclaration{ID: id.Value, Body: members}, nil
}

// parseClassMember parses an optional access qualifier (default private)
// followed by a nested function, variable, constructor, or destructor.
func (p *Parser) parseClassMember() (ast.ClassMember, error) {
	access := ast.Private
	switch p.peek().Value {
	case "public":
		access = ast.Public
		p.advance()
	case "protected":
		access = ast.Protected
		p.advance()
	case "private":
		access = ast.Private
		p.advance()
	}

	switch {
	case p.checkValue("constructor"):
		inner, err := p.parseConstructor()
		return ast.ClassMember{Access: access, Inner: inner}, err
	case p.checkValue("destructor"):
		inner, err := p.parseDestructor()
		return ast.ClassMember{Access: access, Inner: inner}, err
	case p.looksLikeFunctionDeclaration():
		inner, err := p.parseFunctionDeclaration()
		return ast.ClassMember{Access: access, Inner: inner}, err
	case isTypeToken(p.peek()):
		inner, err := p.parseVariableDeclarationBody()
		return ast.ClassMember{Access: access, Inner: inner}, err
	}
	return ast.ClassMember{}, p.errorf("expected class member, found %q", p.peek().Value)
}

func (p *Parser) parseConstructor() (*ast.Constructor, error) {
	p.advance() // "constructor"
	argTypes, argIDs, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.Constructor{ArgTypes: argTypes, ArgIDs: argIDs, Body: body}, nil
}

func (p *Parser) parseDestructor() (*ast.Destructor, error) {
	p.advance() // "destructor"
	if _, err := p.consume("(", "to open a destructor parameter list"); err != nil {
		return nil, err
	}
	if _, err := p.consume(")", "to close a destructor parameter list"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.Destructor{Body: body}, nil
}

// parseFunctionDeclaration parses "retType id ( (type id (, type id)*)? ) stmt".
func (p *Parser) parseFunctionDeclaration() (*ast.FunctionDeclaration, error) {
	retType := p.advance().Value
	idTok, err := p.consumeIdentifier("as the function name")
	if err != nil {
		return nil, err
	}

	id := idTok.Value
	if p.modPrefix != "" {
		id = p.modPrefix + "." + id
	}

	argTypes, argIDs, err := p.parseParamList()
	if err != nil {
		return nil, err
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	return &ast.FunctionDeclaration{
		ReturnType: retType,
		ID:         id,
		ArgTypes:   argTypes,
		ArgIDs:     argIDs,
		Body:       body,
	}, nil
}

// parseParamList parses "( (type id (, type id)*)? )".
func (p *Parser) parseParamList() ([]string, []string, error) {
	if _, err := p.consume("(", "to open a parameter list"); err != nil {
		return nil, nil, err
	}

	var argTypes, argIDs []string
	for !p.checkValue(")") {
		if len(argTypes) > 0 {
			if _, err := p.consume(",", "between parameters"); err != nil {
				return nil, nil, err
			}
		}
		if !isTypeToken(p.peek()) {
			return nil, nil, p.errorf("expected a parameter type, found %q", p.peek().Value)
		}
		pType := p.advance().Value
		pID, err := p.consumeIdentifier("as a parameter name")
		if err != nil {
			return nil, nil, err
		}
		argTypes = append(argTypes, pType)
		argIDs = append(argIDs, pID.Value)
	}

	if _, err := p.consume(")", "to close a parameter list"); err != nil {
		return nil, nil, err
	}
	return argTypes, argIDs, nil
}

// parseVariableDeclarationBody parses "type id ;" or "type id = expr ;"
// for use as a class member (no leading statement dispatch needed, since
// the caller already confirmed a type token is next).
func (p *Parser) parseVariableDeclarationBody() (*ast.VariableDeclaration, error) {
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
