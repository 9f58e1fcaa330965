package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBooleanDecisionSchema(t *testing.T) {
	schema := NewBooleanDecisionSchema("", "")
	assert.Equal(t, "positive", schema.PositiveLabel)
	assert.Equal(t, "negative", schema.NegativeLabel)
	assert.Equal(t, "boolean", schema.SchemaType())

	assert.True(t, schema.Validate(true))
	assert.True(t, schema.Validate(false))
	assert.False(t, schema.Validate("true"))
	assert.False(t, schema.Validate(1))

	assert.Equal(t, 0.0, schema.NormalizeConfidence(-0.5))
	assert.Equal(t, 1.0, schema.NormalizeConfidence(1.5))
	assert.Equal(t, 0.5, schema.NormalizeConfidence(0.5))
}

func TestNewCategoricalDecisionSchema(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		schema, err := NewCategoricalDecisionSchema([]string{"low", "medium", "high"}, false)
		require.NoError(t, err)
		assert.True(t, schema.Validate("medium"))
		assert.False(t, schema.Validate("extreme"))
		assert.False(t, schema.Validate(3))
	})

	t.Run("allows multiple", func(t *testing.T) {
		schema, err := NewCategoricalDecisionSchema([]string{"a", "b", "c"}, true)
		require.NoError(t, err)
		assert.True(t, schema.Validate([]string{"a", "c"}))
		assert.False(t, schema.Validate([]string{"a", "z"}))
		assert.False(t, schema.Validate("a"))
	})

	t.Run("rejects too few categories", func(t *testing.T) {
		_, err := NewCategoricalDecisionSchema([]string{"only"}, false)
		assert.ErrorIs(t, err, ErrInvalidSchema)
	})

	t.Run("rejects blank categories", func(t *testing.T) {
		_, err := NewCategoricalDecisionSchema([]string{"a", "  "}, false)
		assert.ErrorIs(t, err, ErrInvalidSchema)
	})

	t.Run("rejects duplicate categories", func(t *testing.T) {
		_, err := NewCategoricalDecisionSchema([]string{"a", "a"}, false)
		assert.ErrorIs(t, err, ErrInvalidSchema)
	})
}

func TestNewScalarDecisionSchema(t *testing.T) {
	schema, err := NewScalarDecisionSchema(0, 100)
	require.NoError(t, err)

	assert.True(t, schema.Validate(50))
	assert.True(t, schema.Validate(0.0))
	assert.True(t, schema.Validate(100))
	assert.False(t, schema.Validate(101))
	assert.False(t, schema.Validate(-1))
	assert.False(t, schema.Validate("50"))

	_, err = NewScalarDecisionSchema(10, 10)
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestNewFreeFormDecisionSchema(t *testing.T) {
	min, max := 5, 20
	schema, err := NewFreeFormDecisionSchema(&min, &max)
	require.NoError(t, err)

	assert.True(t, schema.Validate("a reasonable summary"))
	assert.False(t, schema.Validate("hi"))
	assert.False(t, schema.Validate("this summary is much too long for the bound"))
	assert.False(t, schema.Validate(42))

	_, err = NewFreeFormDecisionSchema(&max, &min)
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestToFloat64(t *testing.T) {
	cases := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{42.5, 42.5, true},
		{float32(1.5), 1.5, true},
		{7, 7.0, true},
		{int64(9), 9.0, true},
		{"nope", 0, false},
	}
	for _, tc := range cases {
		got, ok := toFloat64(tc.in)
		assert.Equal(t, tc.ok, ok)
		if ok {
			assert.Equal(t, tc.want, got)
		}
	}
}
