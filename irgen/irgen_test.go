package irgen

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Indseta/los/ir"
	"github.com/Indseta/los/lexer"
	"github.com/Indseta/los/parser"
)

func generate(t *testing.T, src string) *ir.Segments {
	t.Helper()
	toks, err := lexer.Lex(src)
	require.NoError(t, err)
	nodes, err := parser.New(toks).Parse()
	require.NoError(t, err)
	seg, err := New().Generate(nodes)
	require.NoError(t, err)
	return seg
}

func entryByID(t *testing.T, entries []ir.Entry, id string) ir.Entry {
	t.Helper()
	for _, e := range entries {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("no entry named %q among %d entries", id, len(entries))
	return ir.Entry{}
}

func countByType(instrs []ir.Instruction) map[string]int {
	counts := make(map[string]int)
	for _, instr := range instrs {
		switch instr.(type) {
		case ir.Push:
			counts["push"]++
		case ir.Mov:
			counts["mov"]++
		case ir.Sub:
			counts["sub"]++
		case ir.Add:
			counts["add"]++
		case ir.Call:
			counts["call"]++
		case ir.Lea:
			counts["lea"]++
		case ir.Jmp:
			counts["jmp"]++
		case ir.Je:
			counts["je"]++
		case ir.Jne:
			counts["jne"]++
		case ir.Label:
			counts["label"]++
		}
	}
	return counts
}

func TestMainFunctionFrameIsAlignedAndAtLeastShadowSpace(t *testing.T) {
	seg := generate(t, "void main() { int32 x = 1; }")
	entry := entryByID(t, seg.Text, "main")

	sub, ok := entry.Instrs[2].(ir.Sub)
	require.True(t, ok, "third instruction should be the frame's sub rsp")
	assert.Equal(t, "rsp", sub.Dst)

	n := mustAtoi(t, sub.Src)
	assert.GreaterOrEqual(t, n, 32)
	assert.Equal(t, 0, n%16)
}

func TestMainEpilogueZeroesRaxAndJumpsToExit(t *testing.T) {
	seg := generate(t, "void main() { }")
	entry := entryByID(t, seg.Text, "main")

	last := entry.Instrs[len(entry.Instrs)-1]
	jmp, ok := last.(ir.Jmp)
	require.True(t, ok)
	assert.Equal(t, "exit", jmp.Dst)

	xor, ok := entry.Instrs[len(entry.Instrs)-2].(ir.Xor)
	require.True(t, ok)
	assert.Equal(t, "rax", xor.Dst)
}

func TestPrintfCastedArithmeticMaterializesFormatAndCallsTwice(t *testing.T) {
	seg := generate(t, `void main() { printf(3 + 4 as string); }`)
	entry := entryByID(t, seg.Text, "main")

	counts := countByType(entry.Instrs)
	assert.Equal(t, 2, counts["call"], "one call for the argument, one for the trailing CRLF")
	assert.Contains(t, seg.ExtLibs, "printf")

	found := false
	for _, d := range seg.Data {
		db := d.(ir.Db)
		if db.Value == `"%d"` {
			found = true
		}
	}
	assert.True(t, found, "expected an interned %%d format literal")
}

func TestConditionalEmitsTwoLabeledBlocksAndAJoinLabel(t *testing.T) {
	seg := generate(t, `void main() { if (1 == 1) { int32 a = 1; } else { int32 b = 2; } }`)
	require.Len(t, seg.Labels, 2)
	assert.Equal(t, ".cndm0", seg.Labels[0].ID)
	assert.Equal(t, ".cndm1", seg.Labels[1].ID)

	entry := entryByID(t, seg.Text, "main")
	foundJoin := false
	for _, instr := range entry.Instrs {
		if lbl, ok := instr.(ir.Label); ok && lbl.ID == ".cnde0" {
			foundJoin = true
		}
	}
	assert.True(t, foundJoin)
}

func TestWhileLoopEmitsThreeLabelsSharingOneNumber(t *testing.T) {
	seg := generate(t, `void main() { int32 i = 0; while (i < 5) { i += 1; } }`)
	require.Len(t, seg.Labels, 2)
	assert.Equal(t, ".wlc0", seg.Labels[0].ID)
	assert.Equal(t, ".wlm0", seg.Labels[1].ID)

	entry := entryByID(t, seg.Text, "main")
	foundExit := false
	for _, instr := range entry.Instrs {
		if lbl, ok := instr.(ir.Label); ok && lbl.ID == ".wle0" {
			foundExit = true
		}
	}
	assert.True(t, foundExit)
}

func TestGeneralCallStoresArgumentThenAlignsThenCalls(t *testing.T) {
	seg := generate(t, `
		int32 addOne(int32 n) { return n + 1; }
		void main() { int32 r = addOne(7); }
	`)
	entry := entryByID(t, seg.Text, "main")

	var callIdx, subIdx int = -1, -1
	for i, instr := range entry.Instrs {
		if _, ok := instr.(ir.Sub); ok && subIdx == -1 && i > 2 {
			subIdx = i
		}
		if c, ok := instr.(ir.Call); ok && c.ID != "exit" {
			callIdx = i
		}
	}
	require.NotEqual(t, -1, subIdx)
	require.NotEqual(t, -1, callIdx)
	assert.Less(t, subIdx, callIdx, "sub rsp for the call site must precede the call")
}

func TestDuplicateDeclarationFails(t *testing.T) {
	toks, err := lexer.Lex("void main() { int32 a = 1; int32 a = 2; }")
	require.NoError(t, err)
	nodes, err := parser.New(toks).Parse()
	require.NoError(t, err)

	_, err = New().Generate(nodes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already declared")
}

func TestUnresolvedCallFails(t *testing.T) {
	toks, err := lexer.Lex("void main() { missing(1); }")
	require.NoError(t, err)
	nodes, err := parser.New(toks).Parse()
	require.NoError(t, err)

	_, err = New().Generate(nodes)
	require.Error(t, err)
}

func TestMangleFuncIsStableAndOmitsMainSpecialCase(t *testing.T) {
	assert.Equal(t, "main", mangleFunc("main", nil))
	a := mangleFunc("add", []string{"int32", "int32"})
	b := mangleFunc("add", []string{"int32", "int32"})
	c := mangleFunc("add", []string{"int32", "int64"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, "^f[0-9a-f]+$", a)
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}
