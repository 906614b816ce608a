package irgen

import (
	"fmt"
	"strconv"

	"github.com/Indseta/los/ast"
	"github.com/Indseta/los/ir"
	"github.com/Indseta/los/types"
)

// lowerBlock lowers a statement (usually a *ast.ScopeDeclaration) as the
// direct body of a frame — the function's own top-level body, or an
// if/while branch's isolated block — without wrapping it in its own
// sub/add rsp pair. It tracks the largest frame size reached by frame or
// any of its descendants into fnCtx.maxBottom, since that is what sizes
// the enclosing function's single stack reservation.
func (g *Generator) lowerBlock(stmt ast.Stmt, frame *ir.StackInfo, fnCtx *funcCtx) ([]ir.Instruction, error) {
	var instrs []ir.Instruction
	if scope, ok := stmt.(*ast.ScopeDeclaration); ok {
		for _, child := range scope.Children {
			childInstrs, err := g.lowerStatement(child, frame, fnCtx)
			if err != nil {
				return nil, err
			}
			instrs = append(instrs, childInstrs...)
		}
	} else {
		childInstrs, err := g.lowerStatement(stmt, frame, fnCtx)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, childInstrs...)
	}
	if frame.Size > fnCtx.maxBottom {
		fnCtx.maxBottom = frame.Size
	}
	return instrs, nil
}

// lowerStatement lowers one statement in place.
func (g *Generator) lowerStatement(stmt ast.Stmt, frame *ir.StackInfo, fnCtx *funcCtx) ([]ir.Instruction, error) {
	switch s := stmt.(type) {
	case *ast.EmptyStatement:
		return nil, nil
	case *ast.VariableDeclaration:
		return g.lowerVarDecl(s, frame, fnCtx)
	case *ast.VariableAssignment:
		return g.lowerAssignment(s, frame, fnCtx)
	case *ast.ReturnStatement:
		return g.lowerReturn(s, frame, fnCtx)
	case *ast.ConditionalStatement:
		return g.lowerConditional(s, frame, fnCtx)
	case *ast.WhileLoopStatement:
		return g.lowerWhile(s, frame, fnCtx)
	case *ast.ScopeDeclaration:
		return g.lowerNestedScope(s, frame, fnCtx)
	case *ast.FunctionCall:
		instrs, _, err := g.lowerCall(s, "", 0, frame, fnCtx)
		return instrs, err
	case *ast.ExpressionStatement:
		instrs, _, err := g.lowerExprInto(s.Expr, "", 0, frame, fnCtx)
		return instrs, err
	}
	return nil, fmt.Errorf("unsupported statement encountered")
}

// lowerNestedScope lowers a bare "{ ... }" block that isn't attached to an
// if/while: its locals live in a cloned frame and never leak to the
// enclosing one, and the extra space it needs is carved out and given
// back inline with its own sub/add rsp pair (spec §4.4 "Scope lowering"),
// independent of the function's own single reservation.
func (g *Generator) lowerNestedScope(s *ast.ScopeDeclaration, frame *ir.StackInfo, fnCtx *funcCtx) ([]ir.Instruction, error) {
	child := frame.Clone()
	var body []ir.Instruction
	for _, stmt := range s.Children {
		instrs, err := g.lowerStatement(stmt, child, fnCtx)
		if err != nil {
			return nil, err
		}
		body = append(body, instrs...)
	}

	grown := align16(child.Size - frame.Size)
	if grown == 0 {
		return body, nil
	}
	instrs := []ir.Instruction{ir.Sub{Dst: "rsp", Src: strconv.Itoa(grown)}}
	instrs = append(instrs, body...)
	instrs = append(instrs, ir.Add{Dst: "rsp", Src: strconv.Itoa(grown)})
	return instrs, nil
}

// lowerVarDecl allocates the declared identifier's slot in frame before
// lowering its initializer, so the declaration's own offset never
// includes its own size (spec's "bottom before the declaration" rule).
func (g *Generator) lowerVarDecl(vd *ast.VariableDeclaration, frame *ir.StackInfo, fnCtx *funcCtx) ([]ir.Instruction, error) {
	if frame.Has(vd.ID) {
		return nil, fmt.Errorf("variable already declared: '%s'", vd.ID)
	}
	info, err := types.Lookup(vd.Type)
	if err != nil {
		return nil, err
	}

	entry := frame.Push(vd.ID, vd.Type, info.Size)

	var valueInstrs []ir.Instruction
	if vd.Expr != nil {
		instrs, _, err := g.lowerExprInto(vd.Expr, "d", info.Size, frame, fnCtx)
		if err != nil {
			return nil, err
		}
		valueInstrs = instrs
	} else {
		instrs, err := g.lowerZeroValue(info)
		if err != nil {
			return nil, err
		}
		valueInstrs = instrs
	}

	reg, err := types.Register("d", info.Size)
	if err != nil {
		return nil, err
	}
	word, err := types.Word(info.Size)
	if err != nil {
		return nil, err
	}
	store := ir.Mov{Dst: fmt.Sprintf("%s [rbp-%d]", word, entry.Offset), Src: reg}
	return append(valueInstrs, store), nil
}

// lowerZeroValue materializes the default value for an uninitialized
// declaration: 0 for every numeric/bool category, an interned empty
// string for string.
func (g *Generator) lowerZeroValue(info types.Info) ([]ir.Instruction, error) {
	if info.Category == types.STRING {
		label := g.internData(quote(""), "0")
		return []ir.Instruction{ir.Lea{Dst: "rdx", Src: fmt.Sprintf("[%s]", label)}}, nil
	}
	reg, err := types.Register("d", info.Size)
	if err != nil {
		return nil, err
	}
	return []ir.Instruction{ir.Mov{Dst: reg, Src: "0"}}, nil
}

// lowerAssignment looks the identifier up strictly in the local frame
// (not the argument frame): spec restricts plain assignment to locals.
func (g *Generator) lowerAssignment(va *ast.VariableAssignment, frame *ir.StackInfo, fnCtx *funcCtx) ([]ir.Instruction, error) {
	entry, ok := frame.Lookup(va.ID)
	if !ok {
		return nil, fmt.Errorf("variable not declared or inaccessible: '%s'", va.ID)
	}

	instrs, _, err := g.lowerExprInto(va.Expr, "d", entry.Size, frame, fnCtx)
	if err != nil {
		return nil, err
	}
	reg, err := types.Register("d", entry.Size)
	if err != nil {
		return nil, err
	}
	word, err := types.Word(entry.Size)
	if err != nil {
		return nil, err
	}
	return append(instrs, ir.Mov{Dst: fmt.Sprintf("%s [rbp-%d]", word, entry.Offset), Src: reg}), nil
}

// lowerReturn lowers the return value into rax sized to the function's
// declared return type, then jumps to the shared exit label; every
// function return converges on the same epilogue.
func (g *Generator) lowerReturn(rs *ast.ReturnStatement, frame *ir.StackInfo, fnCtx *funcCtx) ([]ir.Instruction, error) {
	if rs.Expr == nil {
		return []ir.Instruction{ir.Jmp{Dst: "exit"}}, nil
	}
	retInfo, err := types.Lookup(fnCtx.returnType)
	if err != nil {
		return nil, err
	}
	instrs, _, err := g.lowerExprInto(rs.Expr, "a", retInfo.Size, frame, fnCtx)
	if err != nil {
		return nil, err
	}
	return append(instrs, ir.Jmp{Dst: "exit"}), nil
}

// lowerConditional implements spec's if/else lowering: the condition is
// evaluated into cx regardless of its declared size, and each branch
// becomes its own labeled Entry in the labels segment rather than being
// inlined, so .text stays to straight-line function bodies.
func (g *Generator) lowerConditional(cs *ast.ConditionalStatement, frame *ir.StackInfo, fnCtx *funcCtx) ([]ir.Instruction, error) {
	group := g.nextCndGroup()
	cndeLabel := fmt.Sprintf(".cnde%d", group)

	condInstrs, _, err := g.lowerExprInto(cs.Cond, "c", 2, frame, fnCtx)
	if err != nil {
		return nil, err
	}

	passNum := g.nextCndBlock()
	passLabel := fmt.Sprintf(".cndm%d", passNum)

	main := append(condInstrs, ir.Cmp{A: "cx", B: "1"}, ir.Je{Dst: passLabel})

	passInstrs, err := g.lowerBlock(cs.Pass, frame.Clone(), fnCtx)
	if err != nil {
		return nil, err
	}
	passInstrs = append(passInstrs, ir.Jmp{Dst: cndeLabel})
	g.seg.Labels = append(g.seg.Labels, ir.Entry{ID: passLabel, Instrs: passInstrs})

	if cs.Fail != nil {
		failNum := g.nextCndBlock()
		failLabel := fmt.Sprintf(".cndm%d", failNum)
		main = append(main, ir.Jne{Dst: failLabel})

		failInstrs, err := g.lowerBlock(cs.Fail, frame.Clone(), fnCtx)
		if err != nil {
			return nil, err
		}
		failInstrs = append(failInstrs, ir.Jmp{Dst: cndeLabel})
		g.seg.Labels = append(g.seg.Labels, ir.Entry{ID: failLabel, Instrs: failInstrs})
	}

	main = append(main, ir.Label{ID: cndeLabel})
	return main, nil
}

// lowerWhile implements spec's while lowering: three labels share one
// group number. The condition block re-evaluates against the live frame
// (so mutations from the body are visible); only the body gets an
// isolated child frame, since declarations inside it must not leak back
// to the loop's enclosing scope.
func (g *Generator) lowerWhile(ws *ast.WhileLoopStatement, frame *ir.StackInfo, fnCtx *funcCtx) ([]ir.Instruction, error) {
	n := g.nextWhile()
	condLabel := fmt.Sprintf(".wlc%d", n)
	bodyLabel := fmt.Sprintf(".wlm%d", n)
	exitLabel := fmt.Sprintf(".wle%d", n)

	main := []ir.Instruction{ir.Jmp{Dst: condLabel}, ir.Label{ID: exitLabel}}

	condInstrs, _, err := g.lowerExprInto(ws.Cond, "c", 2, frame, fnCtx)
	if err != nil {
		return nil, err
	}
	condBlock := append(condInstrs, ir.Cmp{A: "cx", B: "1"}, ir.Je{Dst: bodyLabel}, ir.Jne{Dst: exitLabel})
	g.seg.Labels = append(g.seg.Labels, ir.Entry{ID: condLabel, Instrs: condBlock})

	bodyInstrs, err := g.lowerBlock(ws.Body, frame.Clone(), fnCtx)
	if err != nil {
		return nil, err
	}
	bodyInstrs = append(bodyInstrs, ir.Jmp{Dst: condLabel})
	g.seg.Labels = append(g.seg.Labels, ir.Entry{ID: bodyLabel, Instrs: bodyInstrs})

	return main, nil
}
