package errext_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/module/scripthost/errext"
)

func assertHasKind(t *testing.T, err error, kind errext.Kind) {
	t.Helper()
	var typederr errext.HasKind
	require.ErrorAs(t, err, &typederr)
	assert.Equal(t, kind, typederr.Kind())
}

func assertHasHint(t *testing.T, err error, hint string) {
	t.Helper()
	var typederr errext.HasHint
	require.ErrorAs(t, err, &typederr)
	assert.Equal(t, hint, typederr.Hint())
}

func TestErrextHelpers(t *testing.T) {
	t.Parallel()

	t.Run("WithKind", func(t *testing.T) {
		t.Parallel()
		err := errext.WithKind(errors.New("boom"), errext.KindRuntime)
		assertHasKind(t, err, errext.KindRuntime)
		assert.Equal(t, "boom", err.Error())
	})

	t.Run("WithKindNil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, errext.WithKind(nil, errext.KindRuntime))
	})

	t.Run("WithHint", func(t *testing.T) {
		t.Parallel()
		err := errext.WithHint(errors.New("boom"), "check your selector")
		assertHasHint(t, err, "check your selector")
	})

	t.Run("WithHintChains", func(t *testing.T) {
		t.Parallel()
		err := errext.WithHint(errors.New("boom"), "inner")
		err = errext.WithHint(err, "outer")
		assertHasHint(t, err, "outer (inner)")
	})

	t.Run("ParseError", func(t *testing.T) {
		t.Parallel()
		err := errext.ParseError("unexpected token %q", "}")
		assertHasKind(t, err, errext.KindParse)
		assert.Contains(t, err.Error(), `unexpected token "}"`)
	})

	t.Run("RuntimeError", func(t *testing.T) {
		t.Parallel()
		err := errext.RuntimeError("%s is not defined", "x")
		assertHasKind(t, err, errext.KindRuntime)
	})

	t.Run("Thrown", func(t *testing.T) {
		t.Parallel()
		err := errext.Thrown(42, "42")
		assertHasKind(t, err, errext.KindThrown)
		var thrown *errext.ThrownError
		require.ErrorAs(t, err, &thrown)
		assert.Equal(t, 42, thrown.Value)
	})

	t.Run("KindOfUnwrapsWrappedErrors", func(t *testing.T) {
		t.Parallel()
		base := errext.ParseError("bad syntax")
		wrapped := fmt.Errorf("loading script: %w", base)
		assert.Equal(t, errext.KindParse, errext.KindOf(wrapped))
	})

	t.Run("KindOfDefaultsToRuntime", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, errext.KindRuntime, errext.KindOf(errors.New("plain")))
		assert.Equal(t, errext.KindRuntime, errext.KindOf(nil))
	})

	t.Run("KindString", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "ScriptParse", errext.KindParse.String())
		assert.Equal(t, "ScriptRuntime", errext.KindRuntime.String())
		assert.Equal(t, "ScriptThrown", errext.KindThrown.String())
	})
}
