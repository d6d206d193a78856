package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodedErrors(t *testing.T) {
	t.Run("wrap keeps cause reachable", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(cause, CodeUnavailable, "remote sheet unreachable")

		assert.True(t, HasCode(err, CodeUnavailable))
		assert.True(t, Is(err, cause))
		assert.Equal(t, "remote sheet unreachable", MessageOf(err))
	})

	t.Run("uncoded errors have no code", func(t *testing.T) {
		_, ok := CodeOf(errors.New("plain"))
		assert.False(t, ok)
		assert.False(t, HasCode(nil, CodeInternal))
	})

	t.Run("outer code wins", func(t *testing.T) {
		inner := New(CodeNotFound, "missing")
		outer := Wrap(inner, CodeInternal, "lookup failed")
		code, ok := CodeOf(outer)
		assert.True(t, ok)
		assert.Equal(t, CodeInternal, code)
	})
}
