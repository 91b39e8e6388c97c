package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstitute(t *testing.T) {
	t.Parallel()

	out, err := Substitute("$msg done", map[string]string{"msg": "X"})
	require.NoError(t, err)
	assert.Equal(t, "X done", out)
}

func TestSubstituteBraced(t *testing.T) {
	t.Parallel()

	out, err := Substitute("a ${msg}b", map[string]string{"msg": "X"})
	require.NoError(t, err)
	assert.Equal(t, "a Xb", out)
}

func TestSubstituteEscapedDollar(t *testing.T) {
	t.Parallel()

	out, err := Substitute("cost: $$5", nil)
	require.NoError(t, err)
	assert.Equal(t, "cost: $5", out)
}

func TestSubstituteUnboundPlaceholder(t *testing.T) {
	t.Parallel()

	out, err := Substitute("$msg done", map[string]string{"other": "X"})
	require.Error(t, err)
	assert.Empty(t, out)

	var subErr *SubstitutionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, "msg", subErr.Placeholder)
}

func TestSubstituteMultiplePlaceholders(t *testing.T) {
	t.Parallel()

	out, err := Substitute("[$a]($b)", map[string]string{"a": "text", "b": "https://example.org"})
	require.NoError(t, err)
	assert.Equal(t, "[text](https://example.org)", out)
}
