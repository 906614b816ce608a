// Package types implements the fixed integral-classification table and
// binary-op promotion rules of the source language (spec §4.3). The
// table is data-driven rather than a cascade of conditionals, following
// the register/size tables used in the rest of the retrieval pack
// (smasonuk-sicpu's calcSize/getType, tinyrange-rtg's backend_x64
// register selector).
package types

import (
	"fmt"
	"strings"
)

// Category is the integral classification of a type.
type Category int

const (
	UNKNOWN Category = iota
	STRING
	BOOL
	INT
	UINT
	FLOAT
)

// Info describes one named type: its classification and width in bytes.
type Info struct {
	Name     string
	Category Category
	Size     int
}

var table = map[string]Info{
	"int8":  {"int8", INT, 1},
	"int16": {"int16", INT, 2},
	"int32": {"int32", INT, 4},
	"int64": {"int64", INT, 8},

	"uint8":  {"uint8", UINT, 1},
	"uint16": {"uint16", UINT, 2},
	"uint32": {"uint32", UINT, 4},
	"uint64": {"uint64", UINT, 8},

	"float8":  {"float8", FLOAT, 1},
	"float16": {"float16", FLOAT, 2},
	"float32": {"float32", FLOAT, 4},
	"float64": {"float64", FLOAT, 8},

	"bool":   {"bool", BOOL, 1},
	"string": {"string", STRING, 8}, // pointer width
}

// Lookup returns the fixed (category, size) pair for a known type name.
func Lookup(name string) (Info, error) {
	info, ok := table[name]
	if !ok {
		return Info{}, fmt.Errorf("unknown type name: %q", name)
	}
	return info, nil
}

// IsComparison reports whether op belongs to the comparison/equality tier.
func IsComparison(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

// PromoteBinary implements the §4.3 promotion table for a binary
// operator applied to left and right operand types. Comparison and
// equality operators always promote to bool; string+string and any
// combination outside the table fail.
func PromoteBinary(op string, left, right Info) (Info, error) {
	if IsComparison(op) {
		return Info{Name: "bool", Category: BOOL, Size: 1}, nil
	}

	if left.Category == STRING && right.Category == STRING {
		return Info{}, fmt.Errorf("string + string is not implemented by the emitter")
	}

	if left.Category == FLOAT || right.Category == FLOAT {
		// float ± any -> float named by the left operand.
		if left.Category == FLOAT {
			return left, nil
		}
		return Info{}, fmt.Errorf("cannot combine %s with %s", left.Name, right.Name)
	}

	if isIntegral(left.Category) && isIntegral(right.Category) {
		width := maxInt(left.Size, right.Size)
		switch {
		case left.Category == INT && right.Category == INT:
			return intInfo(width), nil
		case left.Category == UINT && right.Category == UINT:
			return uintInfo(width), nil
		case left.Category == INT && right.Category == UINT:
			return intInfo(width), nil
		case left.Category == UINT && right.Category == INT:
			return intInfo(width), nil
		}
	}

	return Info{}, fmt.Errorf("unsupported operand combination: %s %s %s", left.Name, op, right.Name)
}

func isIntegral(c Category) bool {
	return c == INT || c == UINT
}

func intInfo(width int) Info {
	name := fmt.Sprintf("i%d", width*8)
	return Info{Name: name, Category: INT, Size: width}
}

func uintInfo(width int) Info {
	name := fmt.Sprintf("u%d", width*8)
	return Info{Name: name, Category: UINT, Size: width}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// registerFamily maps a canonical register "top name" to its byte-width
// variants, following the total-function-over-a-table design called out
// in spec §9 ("Register size-family selector").
var registerFamily = map[string][4]string{
	"a": {"al", "ax", "eax", "rax"},
	"b": {"bl", "bx", "ebx", "rbx"},
	"c": {"cl", "cx", "ecx", "rcx"},
	"d": {"dl", "dx", "edx", "rdx"},
	"si": {"sil", "si", "esi", "rsi"},
	"di": {"dil", "di", "edi", "rdi"},
}

// Register returns the NASM register name for the given top name
// ("a", "b", "c", "d", "si", "di") sized to width bytes (1, 2, 4, or 8).
func Register(top string, width int) (string, error) {
	family, ok := registerFamily[strings.ToLower(top)]
	if !ok {
		return "", fmt.Errorf("no register family named %q", top)
	}
	switch width {
	case 1:
		return family[0], nil
	case 2:
		return family[1], nil
	case 4:
		return family[2], nil
	case 8:
		return family[3], nil
	}
	return "", fmt.Errorf("no %d-byte member of register family %q", width, top)
}

// Word returns the NASM operand-size keyword for a given byte width, used
// to qualify memory operands (e.g. "mov dword [rbp-4], eax").
func Word(width int) (string, error) {
	switch width {
	case 1:
		return "byte", nil
	case 2:
		return "word", nil
	case 4:
		return "dword", nil
	case 8:
		return "qword", nil
	}
	return "", fmt.Errorf("no NASM word-size keyword for width %d", width)
}
