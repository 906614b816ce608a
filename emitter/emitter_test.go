package emitter

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Indseta/los/ir"
)

func TestRenderOrderMatchesDirectiveSequence(t *testing.T) {
	seg := ir.NewSegments()
	seg.PushExtern("printf")
	seg.PushData(ir.Db{ID: "c1", Value: `"%d"`, Terminator: "0"})
	seg.PushBss(ir.Res{ID: "tmp", Count: 1, Kind: ir.Resq})
	seg.Text = append(seg.Text, ir.Entry{
		ID: "main",
		Instrs: []ir.Instruction{
			ir.Push{Src: "rbp"},
			ir.Mov{Dst: "rbp", Src: "rsp"},
			ir.Jmp{Dst: "exit"},
		},
	})

	out := Render(seg)

	bitsIdx := mustIndex(t, out, "bits 64")
	externIdx := mustIndex(t, out, "extern printf")
	dataIdx := mustIndex(t, out, "segment .data")
	c1Idx := mustIndex(t, out, "c1 db")
	bssIdx := mustIndex(t, out, "segment .bss")
	tmpIdx := mustIndex(t, out, "tmp resq 1")
	textIdx := mustIndex(t, out, "segment .text")
	exitIdx := mustIndex(t, out, "exit:")
	mainIdx := mustIndex(t, out, "main:")

	assert.Less(t, bitsIdx, externIdx)
	assert.Less(t, externIdx, dataIdx)
	assert.Less(t, dataIdx, c1Idx)
	assert.Less(t, c1Idx, bssIdx)
	assert.Less(t, bssIdx, tmpIdx)
	assert.Less(t, tmpIdx, textIdx)
	assert.Less(t, textIdx, exitIdx)
	assert.Less(t, exitIdx, mainIdx)
}

func TestRenderLabelsFollowTextEntries(t *testing.T) {
	seg := ir.NewSegments()
	seg.Text = append(seg.Text, ir.Entry{ID: "main", Instrs: []ir.Instruction{ir.Jmp{Dst: "exit"}}})
	seg.Labels = append(seg.Labels, ir.Entry{ID: ".cndm0", Instrs: []ir.Instruction{ir.Jmp{Dst: ".cnde0"}}})

	out := Render(seg)
	mainIdx := mustIndex(t, out, "main:")
	labelIdx := mustIndex(t, out, ".cndm0:")
	assert.Less(t, mainIdx, labelIdx)
}

func TestRenderInstructionMnemonicsAndIndentation(t *testing.T) {
	seg := ir.NewSegments()
	seg.Text = append(seg.Text, ir.Entry{
		ID: "main",
		Instrs: []ir.Instruction{
			ir.Mov{Dst: "eax", Src: "3"},
			ir.Add{Dst: "eax", Src: "ebx"},
			ir.Label{ID: ".cnde0"},
		},
	})
	out := Render(seg)
	assert.Contains(t, out, "\tmov eax, 3\n")
	assert.Contains(t, out, "\tadd eax, ebx\n")
	assert.Contains(t, out, ".cnde0:\n")
	assert.NotContains(t, out, "\t.cnde0:")
}

func TestAssembleWritesAndCleansUpAsmFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	e := New(fs)
	seg := ir.NewSegments()
	seg.Text = append(seg.Text, ir.Entry{ID: "main", Instrs: []ir.Instruction{ir.Jmp{Dst: "exit"}}})

	_, err := e.Assemble("/tmp/build/out", seg)
	// nasm is not expected to be on PATH in this environment; Assemble
	// should still have written the .asm file before invoking it.
	exists, statErr := afero.Exists(fs, "/tmp/build/out.asm")
	require.NoError(t, statErr)
	if err == nil {
		assert.False(t, exists, "asm should be removed after a successful assemble")
	} else {
		assert.True(t, exists, "asm should remain on disk when nasm fails to run")
	}
}

func mustIndex(t *testing.T, haystack, needle string) int {
	t.Helper()
	idx := strings.Index(haystack, needle)
	require.GreaterOrEqual(t, idx, 0, "expected %q to contain %q", haystack, needle)
	return idx
}
