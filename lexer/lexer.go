// Package lexer turns source text into a vector of tokens.
//
// It keeps the shape of the teacher's rune-by-rune scanner (position,
// readPosition, a readChar/peekChar pair) but the grammar it recognizes is
// much larger: keywords, multi-character operators, punctuators, line and
// block comments, string literals, and a line counter for diagnostics.
package lexer

import (
	"fmt"

	"github.com/Indseta/los/token"
)

// Lexer holds our object-state.
type Lexer struct {
	position     int    // current character position
	readPosition int    // next character position
	ch           rune   // current character
	line         int    // current source line, 1-based
	characters   []rune // rune slice of input string
}

// New builds a Lexer over the given source text.
func New(input string) *Lexer {
	l := &Lexer{characters: []rune(input), line: 1}
	l.readChar()
	return l
}

// Lex scans the whole input and returns the token vector, dropping
// comments. The first unknown character aborts scanning and returns an
// error; the tokenizer never emits an UNKNOWN token to its caller.
func Lex(input string) ([]token.Token, error) {
	l := New(input)

	var tokens []token.Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		if tok.Category == token.LINE_COMMENT || tok.Category == token.BLOCK_COMMENT {
			continue
		}
		if tok.Value == "" && tok.Category == "" {
			break // EOF sentinel
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// readChar advances one rune forward.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
	}
	if l.readPosition >= len(l.characters) {
		l.ch = rune(0)
	} else {
		l.ch = l.characters[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

// peekChar looks one rune ahead without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.characters) {
		return rune(0)
	}
	return l.characters[l.readPosition]
}

// next scans and returns the next token, or a zero-value token (category
// and value both empty) at end of input.
func (l *Lexer) next() (token.Token, error) {
	l.skipWhitespace()

	line := l.line

	if l.ch == rune(0) {
		return token.Token{}, nil
	}

	// Comments.
	if l.ch == '/' && l.peekChar() == '/' {
		return l.readLineComment(line), nil
	}
	if l.ch == '/' && l.peekChar() == '*' {
		return l.readBlockComment(line), nil
	}

	// String literals: no escape handling, both quotes consumed.
	if l.ch == '"' {
		return l.readString(line), nil
	}

	// Identifiers, keywords, booleans.
	if isAlpha(l.ch) {
		lit := l.readWhile(isAlphaNumeric)
		switch lit {
		case "true", "false":
			return token.Token{Category: token.BOOLEAN_LITERAL, Value: lit, Line: line}, nil
		}
		if token.IsKeyword(lit) {
			return token.Token{Category: token.KEYWORD, Value: lit, Line: line}, nil
		}
		return token.Token{Category: token.IDENTIFIER, Value: lit, Line: line}, nil
	}

	// Numbers: an integer run, optionally followed by ".digits" to form a float.
	if isDigit(l.ch) {
		return l.readNumber(line), nil
	}

	// Operators: grow the lexeme greedily while it's still a known operator.
	if tok, ok := l.readGreedy(token.IsOperator, token.OPERATOR, line); ok {
		return tok, nil
	}

	// Punctuators: same greedy rule.
	if tok, ok := l.readGreedy(token.IsPunctuator, token.PUNCTUATOR, line); ok {
		return tok, nil
	}

	return token.Token{}, fmt.Errorf("line %d: unknown character %q", line, l.ch)
}

// readGreedy grows a candidate lexeme one rune at a time while member
// still reports true for it, backed by the operator/punctuator sets.
func (l *Lexer) readGreedy(member func(string) bool, category token.Category, line int) (token.Token, bool) {
	lit := string(l.ch)
	if !member(lit) {
		return token.Token{}, false
	}
	for {
		grown := lit + string(l.peekChar())
		if !member(grown) {
			break
		}
		lit = grown
		l.readChar()
	}
	l.readChar()
	return token.Token{Category: category, Value: lit, Line: line}, true
}

// readLineComment consumes up to (excluding) the terminating newline.
func (l *Lexer) readLineComment(line int) token.Token {
	lit := ""
	for l.ch != rune(0) && l.ch != '\n' {
		lit += string(l.ch)
		l.readChar()
	}
	return token.Token{Category: token.LINE_COMMENT, Value: lit, Line: line}
}

// readBlockComment consumes up to and including the closing "*/".
func (l *Lexer) readBlockComment(line int) token.Token {
	lit := string(l.ch) + string(l.peekChar())
	l.readChar() // swallow '/'
	l.readChar() // swallow '*'
	for l.ch != rune(0) {
		if l.ch == '*' && l.peekChar() == '/' {
			lit += "*/"
			l.readChar()
			l.readChar()
			break
		}
		lit += string(l.ch)
		l.readChar()
	}
	return token.Token{Category: token.BLOCK_COMMENT, Value: lit, Line: line}
}

// readString consumes a double-quoted literal; there is no escape handling.
func (l *Lexer) readString(line int) token.Token {
	l.readChar() // swallow opening quote
	lit := ""
	for l.ch != rune(0) && l.ch != '"' {
		lit += string(l.ch)
		l.readChar()
	}
	l.readChar() // swallow closing quote
	return token.Token{Category: token.STRING_LITERAL, Value: lit, Line: line}
}

// readNumber reads a digit run, and if followed by '.' and another digit
// run, concatenates it into a float literal.
func (l *Lexer) readNumber(line int) token.Token {
	lit := l.readWhile(isDigit)
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // swallow '.'
		lit += "." + l.readWhile(isDigit)
		return token.Token{Category: token.FLOAT_LITERAL, Value: lit, Line: line}
	}
	return token.Token{Category: token.INTEGER_LITERAL, Value: lit, Line: line}
}

// readWhile accumulates runes while accept holds, consuming as it goes.
func (l *Lexer) readWhile(accept func(rune) bool) string {
	lit := ""
	for accept(l.ch) {
		lit += string(l.ch)
		l.readChar()
	}
	return lit
}

func (l *Lexer) skipWhitespace() {
	for isWhitespace(l.ch) {
		l.readChar()
	}
}

func isWhitespace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isAlphaNumeric(ch rune) bool {
	return isAlpha(ch) || isDigit(ch)
}
