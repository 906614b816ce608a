// Package irgen lowers a parsed tree into the segmented IR of package ir:
// name mangling for overload resolution, per-function stack frames with
// nested-scope contribution, and synthesized control-flow labels for
// if/else/while (spec §4.4). This is the component the teacher spends
// most of its weight on (its compiler.makeinternalform + generator.go),
// generalized from a flat RPN instruction walk to a typed tree walk with
// real stack frames, because this source language has variables,
// functions, and control flow where the teacher's only had an operator
// stack.
package irgen

import (
	"fmt"
	"strconv"

	"github.com/Indseta/los/ast"
	"github.com/Indseta/los/ir"
	"github.com/Indseta/los/types"
)

// declaredFunc is what a mangled call site resolves against.
type declaredFunc struct {
	Mangled    string
	ReturnType string
	ArgTypes   []string
}

// funcCtx is the per-function lowering context: its mangled identity,
// its argument frame, and the running maximum local-frame size reached
// by any control-flow branch (see lowerBlock).
type funcCtx struct {
	mangled    string
	returnType string
	args       *ir.StackInfo
	isMain     bool
	maxBottom  int
}

// Generator holds the per-compilation state: the segments being built,
// the declared-function table used to resolve call sites, and the
// label-numbering counters from spec §5 ("reset per compilation").
type Generator struct {
	seg      *ir.Segments
	declared map[string]declaredFunc

	cndGroupCounter int
	cndBlockCounter int
	whileCounter    int
}

// New returns a Generator ready to lower one compilation's tree.
func New() *Generator {
	return &Generator{
		seg:      ir.NewSegments(),
		declared: make(map[string]declaredFunc),
	}
}

// Generate lowers the whole tree, returning the completed segments.
func (g *Generator) Generate(nodes []ast.Node) (*ir.Segments, error) {
	g.collectSignatures(nodes)

	for _, n := range nodes {
		if err := g.lowerTop(n); err != nil {
			return nil, err
		}
	}
	return g.seg, nil
}

// collectSignatures pre-scans every function declaration (including
// those nested in modules) so that forward calls resolve regardless of
// declaration order.
func (g *Generator) collectSignatures(nodes []ast.Node) {
	for _, n := range nodes {
		switch node := n.(type) {
		case *ast.FunctionDeclaration:
			g.registerSignature(node)
		case *ast.Module:
			for _, decl := range node.Body {
				g.collectSignatures([]ast.Node{decl})
			}
		}
		// ast.ClassDeclaration and ast.Extern contribute no callable
		// signatures: classes can't be instantiated (spec §9 Open
		// Question 4) and externs are a textual-only concern here.
	}
}

func (g *Generator) registerSignature(fn *ast.FunctionDeclaration) {
	key := mangleKey(fn.ID, fn.ArgTypes)
	g.declared[key] = declaredFunc{
		Mangled:    mangleFunc(fn.ID, fn.ArgTypes),
		ReturnType: fn.ReturnType,
		ArgTypes:   fn.ArgTypes,
	}
}

// lowerTop dispatches one top-level node.
func (g *Generator) lowerTop(n ast.Node) error {
	switch node := n.(type) {
	case *ast.FunctionDeclaration:
		return g.lowerFunction(node)
	case *ast.Module:
		for _, decl := range node.Body {
			if err := g.lowerTop(decl); err != nil {
				return err
			}
		}
		return nil
	case *ast.ClassDeclaration, *ast.Extern:
		// No codegen: see Open Question (4) in DESIGN.md.
		return nil
	}
	return fmt.Errorf("unsupported top-level declaration encountered")
}

// lowerFunction lowers one function to a text-segment Entry (spec
// "Function lowering" steps 1-6).
func (g *Generator) lowerFunction(fn *ast.FunctionDeclaration) error {
	args := ir.NewStackInfoAt(16)
	for i, t := range fn.ArgTypes {
		info, err := types.Lookup(t)
		if err != nil {
			return err
		}
		args.Push(fn.ArgIDs[i], t, info.Size)
	}

	mangled := fn.ID
	if fn.ID != "main" {
		mangled = mangleFunc(fn.ID, fn.ArgTypes)
	}

	fnCtx := &funcCtx{
		mangled:    mangled,
		returnType: fn.ReturnType,
		args:       args,
		isMain:     fn.ID == "main",
	}

	locals := ir.NewStackInfo()
	body, err := g.lowerBlock(fn.Body, locals, fnCtx)
	if err != nil {
		return err
	}
	if locals.Size > fnCtx.maxBottom {
		fnCtx.maxBottom = locals.Size
	}

	aligned := align16(fnCtx.maxBottom) + 32

	instrs := []ir.Instruction{
		ir.Push{Src: "rbp"},
		ir.Mov{Dst: "rbp", Src: "rsp"},
		ir.Sub{Dst: "rsp", Src: strconv.Itoa(aligned)},
	}
	instrs = append(instrs, body...)
	if fnCtx.isMain {
		instrs = append(instrs, ir.Xor{Dst: "rax", Src: "rax"})
	}
	instrs = append(instrs, ir.Jmp{Dst: "exit"})

	g.seg.Text = append(g.seg.Text, ir.Entry{
		ID:         mangled,
		ReturnType: fn.ReturnType,
		ArgsStack:  args,
		Instrs:     instrs,
	})
	return nil
}

// align16 rounds n up to the next multiple of 16, or 0 if n <= 0.
func align16(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + 15) / 16 * 16
}

// djb2 is the name-mangling hash from spec §9: h=5381, h=h*33+c.
func djb2(s string) uint64 {
	h := uint64(5381)
	for i := 0; i < len(s); i++ {
		h = h*33 + uint64(s[i])
	}
	return h
}

// mangleKey is the lookup key shared by declaration and call resolution:
// the identifier followed by its argument type names, concatenated.
func mangleKey(id string, argTypes []string) string {
	key := id
	for _, t := range argTypes {
		key += t
	}
	return key
}

// mangleFunc renders the final symbol name. main keeps its name; every
// other function becomes "f" + lowercase-hex(djb2(id+argTypes...)).
func mangleFunc(id string, argTypes []string) string {
	if id == "main" {
		return "main"
	}
	return "f" + strconv.FormatUint(djb2(mangleKey(id, argTypes)), 16)
}

// internData interns a data-segment constant, content-addressed by
// djb2(value+terminator) with the "c" prefix (spec §4.4), and returns
// its label.
func (g *Generator) internData(value, terminator string) string {
	label := "c" + strconv.FormatUint(djb2(value+terminator), 16)
	g.seg.PushData(ir.Db{ID: label, Value: value, Terminator: terminator})
	return label
}

func (g *Generator) nextCndGroup() int {
	n := g.cndGroupCounter
	g.cndGroupCounter++
	return n
}

func (g *Generator) nextCndBlock() int {
	n := g.cndBlockCounter
	g.cndBlockCounter++
	return n
}

func (g *Generator) nextWhile() int {
	n := g.whileCounter
	g.whileCounter++
	return n
}
