package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = errors.New("errs test: sentinel")

func TestWrap(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Wrap(nil, "ignored"))

	base := errors.New("boom")
	wrapped := Wrap(base, "context")
	require.Error(t, wrapped)
	assert.Equal(t, "context: boom", wrapped.Error())
	assert.True(t, Is(wrapped, base))
}

func TestMark(t *testing.T) {
	t.Parallel()

	t.Run("marked error matches the mark and keeps its message", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("disk full")
		marked := Mark(cause, errSentinel)

		assert.True(t, Is(marked, errSentinel))
		assert.True(t, Is(marked, cause))
		assert.Equal(t, "disk full", marked.Error())
	})

	t.Run("nil error becomes the mark", func(t *testing.T) {
		t.Parallel()
		assert.Same(t, errSentinel, Mark(nil, errSentinel))
	})
}

func TestStackLines(t *testing.T) {
	t.Parallel()

	assert.Nil(t, StackLines(nil, 5))

	lines := StackLines(New("with stack"), 3)
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "with stack")
}
