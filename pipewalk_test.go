package pipewalk

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/go-logr/logr"
)

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		a := New()
		assert.Equal(t, ":8080", a.addr)
		assert.False(t, a.strict)
		assert.NotZero(t, a.Sessions())
	})

	t.Run("options are applied", func(t *testing.T) {
		a := New(
			WithAddr(":9999"),
			WithLogr(logr.Discard()),
			WithStrict(true),
		)
		assert.Equal(t, ":9999", a.addr)
		assert.True(t, a.strict)
	})

	t.Run("sessions are usable without running the server", func(t *testing.T) {
		a := New()
		s, usedDefault, err := a.Sessions().Create(nil, nil)
		assert.NoError(t, err)
		assert.True(t, usedDefault)

		for i := 0; i < 3; i++ {
			_, advanced := s.Advance()
			assert.True(t, advanced)
		}
		_, advanced := s.Advance()
		assert.False(t, advanced)
	})
}
