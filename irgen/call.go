package irgen

import (
	"fmt"
	"strconv"

	"github.com/Indseta/los/ast"
	"github.com/Indseta/los/ir"
	"github.com/Indseta/los/types"
)

// lowerCast handles both numeric-to-numeric casts (the value is simply
// re-evaluated at the target width) and casts to string, which must
// materialize a printf-style format literal or a "true"/"false" pair.
func (g *Generator) lowerCast(c *ast.CastOperation, top string, frame *ir.StackInfo, fnCtx *funcCtx) ([]ir.Instruction, types.Info, error) {
	childType, err := g.evalType(c.Child, frame, fnCtx)
	if err != nil {
		return nil, types.Info{}, err
	}
	targetInfo, err := types.Lookup(c.TargetType)
	if err != nil {
		return nil, types.Info{}, err
	}

	if targetInfo.Category == types.STRING {
		return g.lowerCastToString(c.Child, childType, top, frame, fnCtx)
	}

	instrs, _, err := g.lowerExprInto(c.Child, top, targetInfo.Size, frame, fnCtx)
	return instrs, targetInfo, err
}

// lowerCastToString materializes the string representation of a numeric
// or boolean value: a %d/%u/%lld/%llu format literal paired with the
// value in rdx for numerics, or a cmov between interned "true"/"false"
// labels for bool.
func (g *Generator) lowerCastToString(child ast.Expr, childType types.Info, top string, frame *ir.StackInfo, fnCtx *funcCtx) ([]ir.Instruction, types.Info, error) {
	resultInfo := types.Info{Name: "string", Category: types.STRING, Size: 8}

	if childType.Category == types.BOOL {
		valInstrs, _, err := g.lowerExprInto(child, "d", 1, frame, fnCtx)
		if err != nil {
			return nil, resultInfo, err
		}
		falseLabel := g.internData(quote("false"), "0")
		trueLabel := g.internData(quote("true"), "0")

		tgt, err := types.Register(top, 8)
		if err != nil {
			return nil, resultInfo, err
		}
		dQword, err := types.Register("d", 8)
		if err != nil {
			return nil, resultInfo, err
		}
		dByte, err := types.Register("d", 1)
		if err != nil {
			return nil, resultInfo, err
		}

		instrs := append([]ir.Instruction{}, valInstrs...)
		instrs = append(instrs,
			ir.Lea{Dst: tgt, Src: fmt.Sprintf("[%s]", falseLabel)},
			ir.Lea{Dst: dQword, Src: fmt.Sprintf("[%s]", trueLabel)},
			ir.Cmp{A: dByte, B: "1"},
			ir.Cmove{Dst: tgt, Src: dQword},
		)
		return instrs, resultInfo, nil
	}

	var format string
	switch childType.Category {
	case types.INT:
		if childType.Size == 8 {
			format = "%lld"
		} else {
			format = "%d"
		}
	case types.UINT:
		if childType.Size == 8 {
			format = "%llu"
		} else {
			format = "%u"
		}
	default:
		return nil, resultInfo, fmt.Errorf("cannot cast %s to string", childType.Name)
	}

	label := g.internData(quote(format), "0")
	tgt, err := types.Register(top, 8)
	if err != nil {
		return nil, resultInfo, err
	}

	valInstrs, _, err := g.lowerExprInto(child, "d", childType.Size, frame, fnCtx)
	if err != nil {
		return nil, resultInfo, err
	}

	instrs := append([]ir.Instruction{}, valInstrs...)
	instrs = append(instrs, ir.Lea{Dst: tgt, Src: fmt.Sprintf("[%s]", label)})
	return instrs, resultInfo, nil
}

// lowerCall dispatches to the printf built-in or a general user call.
func (g *Generator) lowerCall(fc *ast.FunctionCall, top string, size int, frame *ir.StackInfo, fnCtx *funcCtx) ([]ir.Instruction, types.Info, error) {
	if fc.ID == "printf" {
		return g.lowerPrintf(fc, frame, fnCtx)
	}
	return g.lowerGeneralCall(fc, top, size, frame, fnCtx)
}

// lowerPrintf lowers the variadic println built-in: each already-string
// argument is loaded into rcx and passed to the C runtime's printf, and
// a final call prints an interned CRLF literal loaded into rcx.
func (g *Generator) lowerPrintf(fc *ast.FunctionCall, frame *ir.StackInfo, fnCtx *funcCtx) ([]ir.Instruction, types.Info, error) {
	g.seg.PushExtern("printf")
	var instrs []ir.Instruction
	for _, arg := range fc.Args {
		argType, err := g.evalType(arg, frame, fnCtx)
		if err != nil {
			return nil, types.Info{}, err
		}
		if argType.Category != types.STRING {
			return nil, types.Info{}, fmt.Errorf("printf arguments must be strings; cast numerics explicitly with 'as string'")
		}
		argInstrs, _, err := g.lowerExprInto(arg, "c", 8, frame, fnCtx)
		if err != nil {
			return nil, types.Info{}, err
		}
		instrs = append(instrs, argInstrs...)
		instrs = append(instrs, ir.Call{ID: "printf"})
	}
	crlf := g.internData(quote("\r\n"), "0")
	instrs = append(instrs, ir.Lea{Dst: "rcx", Src: fmt.Sprintf("[%s]", crlf)}, ir.Call{ID: "printf"})
	return instrs, types.Info{Name: "void"}, nil
}

// lowerGeneralCall resolves the mangled callee, stores each argument
// into [rsp + running_offset] via rsi, reserves the aligned call-site
// space, and moves a non-void return value out of rax.
func (g *Generator) lowerGeneralCall(fc *ast.FunctionCall, top string, size int, frame *ir.StackInfo, fnCtx *funcCtx) ([]ir.Instruction, types.Info, error) {
	argTypes, err := g.argTypeNames(fc, frame, fnCtx)
	if err != nil {
		return nil, types.Info{}, err
	}
	decl, ok := g.declared[mangleKey(fc.ID, argTypes)]
	if !ok {
		return nil, types.Info{}, fmt.Errorf("call to %q with %d argument(s) does not resolve to a declared function", fc.ID, len(fc.Args))
	}

	var stores []ir.Instruction
	offset := 0
	for i, arg := range fc.Args {
		info, err := types.Lookup(argTypes[i])
		if err != nil {
			return nil, types.Info{}, err
		}
		instrs, _, err := g.lowerExprInto(arg, "si", info.Size, frame, fnCtx)
		if err != nil {
			return nil, types.Info{}, err
		}
		stores = append(stores, instrs...)

		reg, err := types.Register("si", info.Size)
		if err != nil {
			return nil, types.Info{}, err
		}
		word, err := types.Word(info.Size)
		if err != nil {
			return nil, types.Info{}, err
		}
		stores = append(stores, ir.Mov{Dst: fmt.Sprintf("%s [rsp+%d]", word, offset), Src: reg})
		offset += info.Size
	}

	aligned := align16(offset)
	instrs := append([]ir.Instruction{}, stores...)
	if aligned > 0 {
		instrs = append(instrs, ir.Sub{Dst: "rsp", Src: strconv.Itoa(aligned)})
	}
	instrs = append(instrs, ir.Call{ID: decl.Mangled})
	if aligned > 0 {
		instrs = append(instrs, ir.Add{Dst: "rsp", Src: strconv.Itoa(aligned)})
	}

	if decl.ReturnType == "void" || decl.ReturnType == "" {
		return instrs, types.Info{Name: "void"}, nil
	}
	retInfo, err := types.Lookup(decl.ReturnType)
	if err != nil {
		return nil, types.Info{}, err
	}
	tgtSize := pick(size, retInfo.Size)
	tgtReg, err := types.Register(top, tgtSize)
	if err != nil {
		return nil, retInfo, err
	}
	aReg, err := types.Register("a", retInfo.Size)
	if err != nil {
		return nil, retInfo, err
	}
	if tgtReg != aReg {
		instrs = append(instrs, ir.Mov{Dst: tgtReg, Src: aReg})
	}
	return instrs, retInfo, nil
}
