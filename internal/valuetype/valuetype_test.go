package valuetype

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var all = []ValueType{Double, Decimal, Int, Date, Bool, String, Node}

func TestCoerce(t *testing.T) {
	tests := []struct {
		a, b ValueType
		want ValueType
	}{
		{Node, Int, Int},
		{String, Node, String},
		{Node, Node, Node},
		{Int, Int, Int},
		{Int, Double, Double},
		{Int, Decimal, Decimal},
		{Decimal, Double, Double},
		{Date, String, String},
		{Bool, String, String},
		{Int, String, String},
		{Date, Date, Date},
	}

	for _, tt := range tests {
		t.Run(tt.a.String()+"_"+tt.b.String(), func(t *testing.T) {
			got, err := Coerce(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerce_Incompatible(t *testing.T) {
	pairs := [][2]ValueType{{Date, Int}, {Bool, Date}, {Double, Bool}}
	for _, p := range pairs {
		_, err := Coerce(p[0], p[1])
		var coerceErr *CoercionError
		require.True(t, errors.As(err, &coerceErr), "%s/%s", p[0], p[1])
		assert.Equal(t, p[0], coerceErr.Left)
		assert.Equal(t, p[1], coerceErr.Right)
	}
}

func TestCoerce_Commutative(t *testing.T) {
	for _, a := range all {
		for _, b := range all {
			ab, errAB := Coerce(a, b)
			ba, errBA := Coerce(b, a)
			assert.Equal(t, errAB == nil, errBA == nil, "%s/%s", a, b)
			if errAB == nil {
				assert.Equal(t, ab, ba, "%s/%s", a, b)
			}
		}
	}
}

func TestCoerceAll(t *testing.T) {
	got, err := CoerceAll([]ValueType{Decimal, Decimal, Decimal})
	require.NoError(t, err)
	assert.Equal(t, Decimal, got)

	got, err = CoerceAll([]ValueType{Node, Int, Double})
	require.NoError(t, err)
	assert.Equal(t, Double, got)

	got, err = CoerceAll(nil)
	require.NoError(t, err)
	assert.Equal(t, Node, got)

	_, err = CoerceAll([]ValueType{Date, Bool})
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	for _, vt := range all {
		got, err := Parse(vt.String())
		require.NoError(t, err)
		assert.Equal(t, vt, got)
	}
	_, err := Parse("float")
	assert.Error(t, err)
}

func TestColumn(t *testing.T) {
	assert.Equal(t, "svalue", String.Column())
	assert.Equal(t, "ivalue", Int.Column())
	assert.Equal(t, "dvalue", Decimal.Column())
	assert.Equal(t, "dvalue", Double.Column())
	assert.Equal(t, "tvalue", Date.Column())
	assert.Equal(t, "bvalue", Bool.Column())
	assert.Equal(t, "id", Node.Column())
}
