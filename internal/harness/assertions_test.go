package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckRows(t *testing.T) {
	a := Row{"p": "<a>", "n": `"A"`}
	b := Row{"p": "<b>"}

	tests := []struct {
		name     string
		expected []Row
		actual   []Row
		ordered  bool
		pass     bool
	}{
		{"same order", []Row{a, b}, []Row{a, b}, false, true},
		{"any order", []Row{a, b}, []Row{b, a}, false, true},
		{"ordered mismatch", []Row{a, b}, []Row{b, a}, true, false},
		{"ordered match", []Row{a, b}, []Row{a, b}, true, true},
		{"count differs", []Row{a}, []Row{a, a}, false, false},
		{"multiset", []Row{a, a, b}, []Row{a, b, b}, false, false},
		{"empty", []Row{}, []Row{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResult()
			checkRows(r, tt.expected, tt.actual, tt.ordered)
			assert.Equal(t, tt.pass, r.Pass, r.Errors)
		})
	}
}

func TestRowKey_SortsVariables(t *testing.T) {
	assert.Equal(t, `{a=<x>, b="y"}`, rowKey(Row{"b": `"y"`, "a": "<x>"}))
	assert.Equal(t, "{}", rowKey(Row{}))
}

func TestCheckError(t *testing.T) {
	r := NewResult()
	checkError(r, Expect{Error: "COERCION"}, errors.New("COERCION: bad operand"))
	assert.True(t, r.Pass)

	r = NewResult()
	checkError(r, Expect{Error: "MISSING_FUNCTION"}, errors.New("COERCION: bad operand"))
	assert.False(t, r.Pass)

	r = NewResult()
	checkError(r, Expect{}, errors.New("boom"))
	assert.False(t, r.Pass)
	assert.Contains(t, r.Errors[0], "unexpected compile error")
}

func TestCheckNative(t *testing.T) {
	yes, no := true, false

	r := NewResult()
	checkNative(r, Expect{Native: &yes}, true)
	assert.True(t, r.Pass)

	r = NewResult()
	checkNative(r, Expect{Native: &no}, true)
	assert.False(t, r.Pass)

	r = NewResult()
	checkNative(r, Expect{SQLContains: []string{"x"}}, false)
	assert.False(t, r.Pass)
}
