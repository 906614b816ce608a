package irgen

import (
	"fmt"

	"github.com/Indseta/los/ast"
	"github.com/Indseta/los/ir"
	"github.com/Indseta/los/types"
)

// evalType resolves the static type of an expression without emitting any
// instructions, mirroring the rules lowerExprInto applies at codegen
// time. It exists separately because call-site mangling and binary-op
// promotion both need an operand's type before any code for it is safe
// to emit (spec §4.3's get_type_info).
func (g *Generator) evalType(expr ast.Expr, frame *ir.StackInfo, fnCtx *funcCtx) (types.Info, error) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return types.Info{Name: "int32", Category: types.INT, Size: 4}, nil
	case *ast.FloatLiteral:
		return types.Info{Name: "float32", Category: types.FLOAT, Size: 4}, nil
	case *ast.BooleanLiteral:
		return types.Info{Name: "bool", Category: types.BOOL, Size: 1}, nil
	case *ast.StringLiteral:
		return types.Info{Name: "string", Category: types.STRING, Size: 8}, nil

	case *ast.VariableCall:
		if entry, ok := frame.Lookup(e.ID); ok {
			return types.Lookup(entry.Type)
		}
		if entry, ok := fnCtx.args.Lookup(e.ID); ok {
			return types.Lookup(entry.Type)
		}
		return types.Info{}, fmt.Errorf("variable not declared or inaccessible: '%s'", e.ID)

	case *ast.UnaryOperation:
		return g.evalType(e.Child, frame, fnCtx)

	case *ast.CastOperation:
		return types.Lookup(e.TargetType)

	case *ast.BinaryOperation:
		left, err := g.evalType(e.Left, frame, fnCtx)
		if err != nil {
			return types.Info{}, err
		}
		right, err := g.evalType(e.Right, frame, fnCtx)
		if err != nil {
			return types.Info{}, err
		}
		return types.PromoteBinary(e.Op, left, right)

	case *ast.FunctionCall:
		if e.ID == "printf" {
			return types.Info{Name: "void"}, nil
		}
		argTypes, err := g.argTypeNames(e, frame, fnCtx)
		if err != nil {
			return types.Info{}, err
		}
		decl, ok := g.declared[mangleKey(e.ID, argTypes)]
		if !ok {
			return types.Info{}, fmt.Errorf("call to %q with %d argument(s) does not resolve to a declared function", e.ID, len(e.Args))
		}
		if decl.ReturnType == "void" {
			return types.Info{Name: "void"}, nil
		}
		return types.Lookup(decl.ReturnType)
	}
	return types.Info{}, fmt.Errorf("unsupported expression encountered")
}

// argTypeNames resolves the static type name of each call argument, used
// both for mangling a call site and for validating printf arguments.
func (g *Generator) argTypeNames(fc *ast.FunctionCall, frame *ir.StackInfo, fnCtx *funcCtx) ([]string, error) {
	names := make([]string, len(fc.Args))
	for i, a := range fc.Args {
		t, err := g.evalType(a, frame, fnCtx)
		if err != nil {
			return nil, err
		}
		names[i] = t.Name
	}
	return names, nil
}
