package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Indseta/los/token"
)

func TestLexNumbersAndIdentifiers(t *testing.T) {
	toks, err := Lex(`int32 x = 10.5;`)
	require.NoError(t, err)

	want := []token.Token{
		{Category: token.KEYWORD, Value: "int32", Line: 1},
		{Category: token.IDENTIFIER, Value: "x", Line: 1},
		{Category: token.OPERATOR, Value: "=", Line: 1},
		{Category: token.FLOAT_LITERAL, Value: "10.5", Line: 1},
		{Category: token.PUNCTUATOR, Value: ";", Line: 1},
	}
	assert.Equal(t, want, toks)
}

func TestLexGreedyOperators(t *testing.T) {
	toks, err := Lex("a <=b")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, "a", toks[0].Value)
	assert.Equal(t, token.OPERATOR, toks[1].Category)
	assert.Equal(t, "<=", toks[1].Value)
	assert.Equal(t, "b", toks[2].Value)
}

func TestLexCompoundAssignmentOperators(t *testing.T) {
	for _, op := range []string{"+=", "-=", "*=", "/=", "%=", "==", "!="} {
		toks, err := Lex("x " + op + " y")
		require.NoError(t, err)
		require.Len(t, toks, 3)
		assert.Equal(t, op, toks[1].Value)
	}
}

func TestLexCommentsAreDropped(t *testing.T) {
	toks, err := Lex("int32 x = 1; // trailing note\n/* block\nspanning */ int32 y = 2;")
	require.NoError(t, err)
	for _, tok := range toks {
		assert.NotEqual(t, token.LINE_COMMENT, tok.Category)
		assert.NotEqual(t, token.BLOCK_COMMENT, tok.Category)
	}
	assert.Equal(t, "y", toks[len(toks)-4].Value)
}

func TestLexStringLiteralNoEscapes(t *testing.T) {
	toks, err := Lex(`"hello world"`)
	require.NoError(t, err)
	require.Len(t, toks, 1)
	assert.Equal(t, token.STRING_LITERAL, toks[0].Category)
	assert.Equal(t, "hello world", toks[0].Value)
}

func TestLexBooleanLiterals(t *testing.T) {
	toks, err := Lex("true false")
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, token.BOOLEAN_LITERAL, toks[0].Category)
	assert.Equal(t, token.BOOLEAN_LITERAL, toks[1].Category)
}

func TestLexUnknownCharacterFails(t *testing.T) {
	_, err := Lex("int32 x = @;")
	require.Error(t, err)
}

func TestLexLineNumbers(t *testing.T) {
	toks, err := Lex("int32 x = 1;\nint32 y = 2;")
	require.NoError(t, err)
	require.True(t, len(toks) >= 8)
	assert.Equal(t, 1, toks[0].Line)

	var secondLine int
	for _, tok := range toks {
		if tok.Value == "y" {
			secondLine = tok.Line
		}
	}
	assert.Equal(t, 2, secondLine)
}
