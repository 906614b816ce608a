// Package emitter renders the segmented IR to NASM-syntax assembly text
// and runs the external nasm assembler on it (spec §4.5); linking with
// gcc is done by the driver package. Rendering
// itself is a pure string-builder, generalizing the teacher's
// Compiler.Compile "walk the internal form, write the mnemonic" loop;
// the afero.Fs indirection and os/exec invocation follow the teacher's
// own main.go, which already shells out to gcc to turn assembly into a
// binary.
package emitter

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/Indseta/los/ir"
)

// Emitter renders one compilation's segments to disk and assembles them.
type Emitter struct {
	fs afero.Fs
}

// New returns an Emitter backed by fs. Pass afero.NewOsFs() in production
// and an afero.NewMemMapFs() in tests.
func New(fs afero.Fs) *Emitter {
	return &Emitter{fs: fs}
}

// Render serializes seg to NASM-syntax text, per the fixed §4.5 order:
// directives, externs, .data, .bss, .text (with the shared exit label
// and every function entry), then every control-flow block.
func Render(seg *ir.Segments) string {
	var b strings.Builder

	b.WriteString("bits 64\n")
	b.WriteString("default rel\n\n")

	for _, lib := range seg.ExtLibs {
		fmt.Fprintf(&b, "extern %s\n", lib)
	}
	if len(seg.ExtLibs) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("segment .data\n")
	for _, d := range seg.Data {
		db := d.(ir.Db)
		fmt.Fprintf(&b, "\t%s db %s, %s\n", db.ID, db.Value, db.Terminator)
	}
	b.WriteString("\n")

	b.WriteString("segment .bss\n")
	for _, d := range seg.Bss {
		res := d.(ir.Res)
		fmt.Fprintf(&b, "\t%s %s %d\n", res.ID, resDirective(res.Kind), res.Count)
	}
	b.WriteString("\n")

	b.WriteString("segment .text\n")
	for _, e := range seg.Text {
		fmt.Fprintf(&b, "global %s\n", e.ID)
	}
	b.WriteString("\n")

	b.WriteString("exit:\n")
	b.WriteString("\tleave\n")
	b.WriteString("\tret\n\n")

	for _, e := range seg.Text {
		renderEntry(&b, e)
	}
	for _, e := range seg.Labels {
		renderEntry(&b, e)
	}

	return b.String()
}

func renderEntry(b *strings.Builder, e ir.Entry) {
	fmt.Fprintf(b, "%s:\n", e.ID)
	for _, instr := range e.Instrs {
		renderInstruction(b, instr)
	}
	b.WriteString("\n")
}

func resDirective(k ir.ResKind) string {
	switch k {
	case ir.Resb:
		return "resb"
	case ir.Resw:
		return "resw"
	case ir.Resd:
		return "resd"
	case ir.Resq:
		return "resq"
	}
	return "resb"
}

// renderInstruction is the literal variant-to-mnemonic mapping called for
// by §4.5. Label is un-indented; every other instruction is tab-indented.
func renderInstruction(b *strings.Builder, instr ir.Instruction) {
	switch i := instr.(type) {
	case ir.Label:
		fmt.Fprintf(b, "%s:\n", i.ID)
	case ir.Push:
		fmt.Fprintf(b, "\tpush %s\n", i.Src)
	case ir.Mov:
		fmt.Fprintf(b, "\tmov %s, %s\n", i.Dst, i.Src)
	case ir.Movsx:
		fmt.Fprintf(b, "\tmovsx %s, %s\n", i.Dst, i.Src)
	case ir.Lea:
		fmt.Fprintf(b, "\tlea %s, %s\n", i.Dst, i.Src)
	case ir.Neg:
		fmt.Fprintf(b, "\tneg %s\n", i.Dst)
	case ir.Imul:
		fmt.Fprintf(b, "\timul %s, %s\n", i.Dst, i.Src)
	case ir.Idiv:
		fmt.Fprintf(b, "\tidiv %s\n", i.Src)
	case ir.Add:
		fmt.Fprintf(b, "\tadd %s, %s\n", i.Dst, i.Src)
	case ir.Sub:
		fmt.Fprintf(b, "\tsub %s, %s\n", i.Dst, i.Src)
	case ir.Cmp:
		fmt.Fprintf(b, "\tcmp %s, %s\n", i.A, i.B)
	case ir.Sete:
		fmt.Fprintf(b, "\tsete %s\n", i.Dst)
	case ir.Setne:
		fmt.Fprintf(b, "\tsetne %s\n", i.Dst)
	case ir.Setg:
		fmt.Fprintf(b, "\tsetg %s\n", i.Dst)
	case ir.Setge:
		fmt.Fprintf(b, "\tsetge %s\n", i.Dst)
	case ir.Setl:
		fmt.Fprintf(b, "\tsetl %s\n", i.Dst)
	case ir.Setle:
		fmt.Fprintf(b, "\tsetle %s\n", i.Dst)
	case ir.Cmove:
		fmt.Fprintf(b, "\tcmove %s, %s\n", i.Dst, i.Src)
	case ir.Xor:
		fmt.Fprintf(b, "\txor %s, %s\n", i.Dst, i.Src)
	case ir.Jmp:
		fmt.Fprintf(b, "\tjmp %s\n", i.Dst)
	case ir.Je:
		fmt.Fprintf(b, "\tje %s\n", i.Dst)
	case ir.Jne:
		fmt.Fprintf(b, "\tjne %s\n", i.Dst)
	case ir.Leave:
		b.WriteString("\tleave\n")
	case ir.Ret:
		b.WriteString("\tret\n")
	case ir.Call:
		fmt.Fprintf(b, "\tcall %s\n", i.ID)
	}
}

// Assemble writes seg's rendering to "<base>.asm" and invokes
// "nasm -f win64 -g -o <base>.o <base>.asm". On success the .asm is
// deleted and the object path is returned; the .o is left on disk for
// the driver to link.
func (e *Emitter) Assemble(base string, seg *ir.Segments) (string, error) {
	asmPath := base + ".asm"
	objPath := base + ".o"

	if err := afero.WriteFile(e.fs, asmPath, []byte(Render(seg)), 0o644); err != nil {
		return "", errors.Wrapf(err, "writing %s", asmPath)
	}

	cmd := exec.Command("nasm", "-f", "win64", "-g", "-o", objPath, asmPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", errors.Wrapf(err, "nasm failed: %s", strings.TrimSpace(string(out)))
	}

	if err := e.fs.Remove(asmPath); err != nil {
		return "", errors.Wrapf(err, "removing %s", asmPath)
	}
	return objPath, nil
}
