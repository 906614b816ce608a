package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKnownTypes(t *testing.T) {
	info, err := Lookup("int32")
	require.NoError(t, err)
	assert.Equal(t, Info{"int32", INT, 4}, info)

	info, err = Lookup("string")
	require.NoError(t, err)
	assert.Equal(t, 8, info.Size)
	assert.Equal(t, STRING, info.Category)
}

func TestLookupUnknownType(t *testing.T) {
	_, err := Lookup("decimal128")
	assert.Error(t, err)
}

func TestPromoteBinaryComparisonAlwaysBool(t *testing.T) {
	i32, _ := Lookup("int32")
	u8, _ := Lookup("uint8")
	result, err := PromoteBinary("==", i32, u8)
	require.NoError(t, err)
	assert.Equal(t, BOOL, result.Category)
	assert.Equal(t, "bool", result.Name)
}

func TestPromoteBinaryStringPlusStringFails(t *testing.T) {
	s, _ := Lookup("string")
	_, err := PromoteBinary("+", s, s)
	assert.Error(t, err)
}

func TestPromoteBinaryIntAndIntWidensToMax(t *testing.T) {
	i8, _ := Lookup("int8")
	i32, _ := Lookup("int32")
	result, err := PromoteBinary("+", i8, i32)
	require.NoError(t, err)
	assert.Equal(t, "i32", result.Name)
	assert.Equal(t, INT, result.Category)
	assert.Equal(t, 4, result.Size)
}

func TestPromoteBinaryUintAndUintWidensToMax(t *testing.T) {
	u8, _ := Lookup("uint8")
	u64, _ := Lookup("uint64")
	result, err := PromoteBinary("*", u8, u64)
	require.NoError(t, err)
	assert.Equal(t, "u64", result.Name)
	assert.Equal(t, UINT, result.Category)
}

func TestPromoteBinaryUintAndIntPromotesToInt(t *testing.T) {
	u32, _ := Lookup("uint32")
	i8, _ := Lookup("int8")
	result, err := PromoteBinary("-", u32, i8)
	require.NoError(t, err)
	assert.Equal(t, "i32", result.Name)
	assert.Equal(t, INT, result.Category)
}

func TestPromoteBinaryFloatNamedByLeftOperand(t *testing.T) {
	f32, _ := Lookup("float32")
	i32, _ := Lookup("int32")
	result, err := PromoteBinary("+", f32, i32)
	require.NoError(t, err)
	assert.Equal(t, "float32", result.Name)
}

func TestPromoteBinaryIntPlusFloatFails(t *testing.T) {
	i32, _ := Lookup("int32")
	f32, _ := Lookup("float32")
	_, err := PromoteBinary("+", i32, f32)
	assert.Error(t, err)
}

func TestPromoteBinaryBoolCombinationFails(t *testing.T) {
	b, _ := Lookup("bool")
	i32, _ := Lookup("int32")
	_, err := PromoteBinary("+", b, i32)
	assert.Error(t, err)
}

func TestRegisterFamilyByWidth(t *testing.T) {
	cases := []struct {
		top   string
		width int
		want  string
	}{
		{"a", 1, "al"}, {"a", 2, "ax"}, {"a", 4, "eax"}, {"a", 8, "rax"},
		{"b", 4, "ebx"}, {"c", 1, "cl"}, {"d", 8, "rdx"},
		{"si", 4, "esi"}, {"di", 1, "dil"},
	}
	for _, c := range cases {
		got, err := Register(c.top, c.width)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestRegisterUnknownFamilyOrWidth(t *testing.T) {
	_, err := Register("zz", 4)
	assert.Error(t, err)

	_, err = Register("a", 3)
	assert.Error(t, err)
}

func TestWordSizeKeywords(t *testing.T) {
	cases := map[int]string{1: "byte", 2: "word", 4: "dword", 8: "qword"}
	for width, want := range cases {
		got, err := Word(width)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := Word(3)
	assert.Error(t, err)
}
