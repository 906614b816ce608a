package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Indseta/los/ast"
	"github.com/Indseta/los/lexer"
)

func parse(t *testing.T, src string) []ast.Node {
	t.Helper()
	toks, err := lexer.Lex(src)
	require.NoError(t, err)
	nodes, err := New(toks).Parse()
	require.NoError(t, err)
	return nodes
}

func TestPrecedenceAddBeforeMultiply(t *testing.T) {
	nodes := parse(t, "void main() { return a + b * c; }")
	fn := nodes[0].(*ast.FunctionDeclaration)
	ret := fn.Body.(*ast.ScopeDeclaration).Children[0].(*ast.ReturnStatement)

	bin, ok := ret.Expr.(*ast.BinaryOperation)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
	assert.IsType(t, &ast.VariableCall{}, bin.Left)

	right, ok := bin.Right.(*ast.BinaryOperation)
	require.True(t, ok)
	assert.Equal(t, "*", right.Op)
}

func TestPrecedenceParensOverridesMultiply(t *testing.T) {
	nodes := parse(t, "void main() { return (a + b) * c; }")
	fn := nodes[0].(*ast.FunctionDeclaration)
	ret := fn.Body.(*ast.ScopeDeclaration).Children[0].(*ast.ReturnStatement)

	bin, ok := ret.Expr.(*ast.BinaryOperation)
	require.True(t, ok)
	assert.Equal(t, "*", bin.Op)

	left, ok := bin.Left.(*ast.BinaryOperation)
	require.True(t, ok)
	assert.Equal(t, "+", left.Op)
}

func TestFunctionDeclarationArgListsMatch(t *testing.T) {
	nodes := parse(t, "int32 add(int32 a, int32 b) { return a + b; }")
	fn := nodes[0].(*ast.FunctionDeclaration)
	assert.Equal(t, fn.ArgTypes, []string{"int32", "int32"})
	assert.Equal(t, fn.ArgIDs, []string{"a", "b"})
	assert.Len(t, fn.ArgIDs, len(fn.ArgTypes))
}

func TestCompoundAssignmentDesugars(t *testing.T) {
	nodes := parse(t, "void main() { int32 i = 0; i += 1; }")
	fn := nodes[0].(*ast.FunctionDeclaration)
	scope := fn.Body.(*ast.ScopeDeclaration)

	assign := scope.Children[1].(*ast.VariableAssignment)
	assert.Equal(t, "i", assign.ID)

	bin := assign.Expr.(*ast.BinaryOperation)
	assert.Equal(t, "+", bin.Op)
	assert.Equal(t, "i", bin.Left.(*ast.VariableCall).ID)
}

func TestUseDirectivesPrecedeGlobals(t *testing.T) {
	nodes := parse(t, "use stdio; void main() { return; }")
	require.Len(t, nodes, 2)
	ext, ok := nodes[0].(*ast.Extern)
	require.True(t, ok)
	assert.Equal(t, "stdio", ext.Path)
}

func TestModulePrefixesFunctionNames(t *testing.T) {
	nodes := parse(t, "module math { int32 sq(int32 n) { return n * n; } }")
	mod := nodes[0].(*ast.Module)
	fn := mod.Body[0].(*ast.FunctionDeclaration)
	assert.Equal(t, "math.sq", fn.ID)
}

func TestModulePrefixResetsAfterModule(t *testing.T) {
	nodes := parse(t, `
		module math { int32 sq(int32 n) { return n * n; } }
		int32 cube(int32 n) { return n * n * n; }
	`)
	mod := nodes[0].(*ast.Module)
	fn1 := mod.Body[0].(*ast.FunctionDeclaration)
	assert.Equal(t, "math.sq", fn1.ID)

	fn2 := nodes[1].(*ast.FunctionDeclaration)
	assert.Equal(t, "cube", fn2.ID)
}

func TestIfElseParsesBothBranches(t *testing.T) {
	nodes := parse(t, `void main() { if (1 == 1) printf("yes"); else printf("no"); }`)
	fn := nodes[0].(*ast.FunctionDeclaration)
	cond := fn.Body.(*ast.ScopeDeclaration).Children[0].(*ast.ConditionalStatement)
	assert.NotNil(t, cond.Pass)
	assert.NotNil(t, cond.Fail)
}

func TestWhileLoopParses(t *testing.T) {
	nodes := parse(t, `void main() { while (i < 5) { i += 1; } }`)
	fn := nodes[0].(*ast.FunctionDeclaration)
	loop := fn.Body.(*ast.ScopeDeclaration).Children[0].(*ast.WhileLoopStatement)
	assert.IsType(t, &ast.BinaryOperation{}, loop.Cond)
	assert.IsType(t, &ast.ScopeDeclaration{}, loop.Body)
}

func TestClassMemberDefaultsToPrivate(t *testing.T) {
	nodes := parse(t, `
		class Widget {
			int32 width;
			public int32 area() { return width; }
		}
	`)
	class := nodes[0].(*ast.ClassDeclaration)
	require.Len(t, class.Body, 2)
	assert.Equal(t, ast.Private, class.Body[0].Access)
	assert.Equal(t, ast.Public, class.Body[1].Access)
}
