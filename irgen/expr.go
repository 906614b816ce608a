package irgen

import (
	"fmt"
	"strconv"

	"github.com/Indseta/los/ast"
	"github.com/Indseta/los/ir"
	"github.com/Indseta/los/types"
)

// quote renders a source string literal's text as a NASM-syntax quoted
// string for a db directive.
func quote(s string) string {
	return strconv.Quote(s)
}

// lowerExprInto lowers expr, leaving its value in the register family
// named by targetTop sized to targetSize (or the expression's own
// natural size, if targetSize is 0). An empty targetTop means the
// result is discarded (an expression-statement context): side effects
// still run, into a scratch "a"-family register.
func (g *Generator) lowerExprInto(expr ast.Expr, targetTop string, targetSize int, frame *ir.StackInfo, fnCtx *funcCtx) ([]ir.Instruction, types.Info, error) {
	top := targetTop
	if top == "" {
		top = "a"
	}

	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		info := types.Info{Name: "int32", Category: types.INT, Size: 4}
		size := pick(targetSize, info.Size)
		reg, err := types.Register(top, size)
		if err != nil {
			return nil, info, err
		}
		return []ir.Instruction{ir.Mov{Dst: reg, Src: e.Text}}, info, nil

	case *ast.FloatLiteral:
		return nil, types.Info{}, fmt.Errorf("floating-point literals are not implemented by the emitter")

	case *ast.BooleanLiteral:
		info := types.Info{Name: "bool", Category: types.BOOL, Size: 1}
		size := pick(targetSize, info.Size)
		reg, err := types.Register(top, size)
		if err != nil {
			return nil, info, err
		}
		val := "0"
		if e.Value {
			val = "1"
		}
		return []ir.Instruction{ir.Mov{Dst: reg, Src: val}}, info, nil

	case *ast.StringLiteral:
		info := types.Info{Name: "string", Category: types.STRING, Size: 8}
		label := g.internData(quote(e.Text), "0")
		reg, err := types.Register(top, 8)
		if err != nil {
			return nil, info, err
		}
		return []ir.Instruction{ir.Lea{Dst: reg, Src: fmt.Sprintf("[%s]", label)}}, info, nil

	case *ast.VariableCall:
		return g.lowerVariableRead(e, top, targetSize, frame, fnCtx)

	case *ast.UnaryOperation:
		return g.lowerUnary(e, top, targetSize, frame, fnCtx)

	case *ast.BinaryOperation:
		return g.lowerBinary(e, top, targetSize, frame, fnCtx)

	case *ast.CastOperation:
		return g.lowerCast(e, top, frame, fnCtx)

	case *ast.FunctionCall:
		return g.lowerCall(e, top, targetSize, frame, fnCtx)
	}
	return nil, types.Info{}, fmt.Errorf("unsupported expression encountered")
}

func pick(requested, natural int) int {
	if requested != 0 {
		return requested
	}
	return natural
}

// lowerVariableRead loads a local or argument into the target register,
// checking the local frame first (locals can shadow arguments).
func (g *Generator) lowerVariableRead(vc *ast.VariableCall, top string, size int, frame *ir.StackInfo, fnCtx *funcCtx) ([]ir.Instruction, types.Info, error) {
	if entry, ok := frame.Lookup(vc.ID); ok {
		info, err := types.Lookup(entry.Type)
		if err != nil {
			return nil, info, err
		}
		reg, err := types.Register(top, pick(size, entry.Size))
		if err != nil {
			return nil, info, err
		}
		word, err := types.Word(entry.Size)
		if err != nil {
			return nil, info, err
		}
		return []ir.Instruction{ir.Mov{Dst: reg, Src: fmt.Sprintf("%s [rbp-%d]", word, entry.Offset)}}, info, nil
	}
	if entry, ok := fnCtx.args.Lookup(vc.ID); ok {
		info, err := types.Lookup(entry.Type)
		if err != nil {
			return nil, info, err
		}
		reg, err := types.Register(top, pick(size, entry.Size))
		if err != nil {
			return nil, info, err
		}
		word, err := types.Word(entry.Size)
		if err != nil {
			return nil, info, err
		}
		return []ir.Instruction{ir.Mov{Dst: reg, Src: fmt.Sprintf("%s [rbp+%d]", word, entry.Offset)}}, info, nil
	}
	return nil, types.Info{}, fmt.Errorf("variable not declared or inaccessible: '%s'", vc.ID)
}

// lowerUnary supports negation only; any other unary operator, including
// "!", is rejected with an error.
func (g *Generator) lowerUnary(u *ast.UnaryOperation, top string, size int, frame *ir.StackInfo, fnCtx *funcCtx) ([]ir.Instruction, types.Info, error) {
	if u.Op != "-" {
		return nil, types.Info{}, fmt.Errorf("unsupported unary operator: %q", u.Op)
	}
	instrs, info, err := g.lowerExprInto(u.Child, top, size, frame, fnCtx)
	if err != nil {
		return nil, info, err
	}
	reg, err := types.Register(top, pick(size, info.Size))
	if err != nil {
		return nil, info, err
	}
	return append(instrs, ir.Neg{Dst: reg}), info, nil
}

// lowerBinary evaluates the left operand into the "a" family and the
// right into "b", inserting a preserving move through "c" when the
// right subtree is itself a binary operation (so recursing into it
// doesn't clobber rax), then emits the operator and, if the caller's
// target differs from where the result landed, a final move into it.
func (g *Generator) lowerBinary(b *ast.BinaryOperation, top string, size int, frame *ir.StackInfo, fnCtx *funcCtx) ([]ir.Instruction, types.Info, error) {
	leftType, err := g.evalType(b.Left, frame, fnCtx)
	if err != nil {
		return nil, types.Info{}, err
	}
	rightType, err := g.evalType(b.Right, frame, fnCtx)
	if err != nil {
		return nil, types.Info{}, err
	}
	resultType, err := types.PromoteBinary(b.Op, leftType, rightType)
	if err != nil {
		return nil, types.Info{}, err
	}

	leftInstrs, _, err := g.lowerExprInto(b.Left, "a", leftType.Size, frame, fnCtx)
	if err != nil {
		return nil, resultType, err
	}
	instrs := append([]ir.Instruction{}, leftInstrs...)

	if _, isBin := b.Right.(*ast.BinaryOperation); isBin {
		aReg, err := types.Register("a", leftType.Size)
		if err != nil {
			return nil, resultType, err
		}
		cReg, err := types.Register("c", leftType.Size)
		if err != nil {
			return nil, resultType, err
		}
		instrs = append(instrs, ir.Mov{Dst: cReg, Src: aReg})
	}
	_, movedLeft := b.Right.(*ast.BinaryOperation)

	rightInstrs, _, err := g.lowerExprInto(b.Right, "b", rightType.Size, frame, fnCtx)
	if err != nil {
		return nil, resultType, err
	}
	instrs = append(instrs, rightInstrs...)

	leftReg := "a"
	if movedLeft {
		leftReg = "c"
	}
	aReg, err := types.Register(leftReg, leftType.Size)
	if err != nil {
		return nil, resultType, err
	}
	bReg, err := types.Register("b", rightType.Size)
	if err != nil {
		return nil, resultType, err
	}

	resultReg := aReg
	switch b.Op {
	case "+":
		instrs = append(instrs, ir.Add{Dst: aReg, Src: bReg})
	case "-":
		instrs = append(instrs, ir.Sub{Dst: aReg, Src: bReg})
	case "*":
		instrs = append(instrs, ir.Imul{Dst: aReg, Src: bReg})
	case "/":
		dReg, err := types.Register("d", leftType.Size)
		if err != nil {
			return nil, resultType, err
		}
		instrs = append(instrs, ir.Xor{Dst: dReg, Src: dReg}, ir.Idiv{Src: bReg})
		resultReg = aReg
	case "%":
		dReg, err := types.Register("d", leftType.Size)
		if err != nil {
			return nil, resultType, err
		}
		instrs = append(instrs, ir.Xor{Dst: dReg, Src: dReg}, ir.Idiv{Src: bReg})
		resultReg = dReg
	case "==":
		byteReg, _ := types.Register(leftReg, 1)
		instrs = append(instrs, ir.Cmp{A: aReg, B: bReg}, ir.Sete{Dst: byteReg})
		resultReg, _ = types.Register(leftReg, 1)
	case "!=":
		byteReg, _ := types.Register(leftReg, 1)
		instrs = append(instrs, ir.Cmp{A: aReg, B: bReg}, ir.Setne{Dst: byteReg})
		resultReg, _ = types.Register(leftReg, 1)
	case ">":
		byteReg, _ := types.Register(leftReg, 1)
		instrs = append(instrs, ir.Cmp{A: aReg, B: bReg}, ir.Setg{Dst: byteReg})
		resultReg, _ = types.Register(leftReg, 1)
	case ">=":
		byteReg, _ := types.Register(leftReg, 1)
		instrs = append(instrs, ir.Cmp{A: aReg, B: bReg}, ir.Setge{Dst: byteReg})
		resultReg, _ = types.Register(leftReg, 1)
	case "<":
		byteReg, _ := types.Register(leftReg, 1)
		instrs = append(instrs, ir.Cmp{A: aReg, B: bReg}, ir.Setl{Dst: byteReg})
		resultReg, _ = types.Register(leftReg, 1)
	case "<=":
		byteReg, _ := types.Register(leftReg, 1)
		instrs = append(instrs, ir.Cmp{A: aReg, B: bReg}, ir.Setle{Dst: byteReg})
		resultReg, _ = types.Register(leftReg, 1)
	default:
		return nil, resultType, fmt.Errorf("unsupported operator: %q", b.Op)
	}

	tgtSize := pick(size, resultType.Size)
	tgtReg, err := types.Register(top, tgtSize)
	if err != nil {
		return nil, resultType, err
	}
	if tgtReg != resultReg {
		instrs = append(instrs, ir.Mov{Dst: tgtReg, Src: resultReg})
	}
	return instrs, resultType, nil
}
