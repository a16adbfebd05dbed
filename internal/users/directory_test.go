package users

import (
	"testing"

	"cybermeme-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestStaticDirectory_Lookup(t *testing.T) {
	dir := NewStaticDirectory(DefaultUsers())

	t.Run("Should resolve every seeded handle", func(t *testing.T) {
		for _, seeded := range DefaultUsers() {
			u, ok := dir.Lookup(seeded.Handle)
			assert.True(t, ok, seeded.Handle)
			assert.Equal(t, seeded, u)
		}
	})

	t.Run("Should map neonhacker to id 1", func(t *testing.T) {
		u, ok := dir.Lookup("neonhacker")
		assert.True(t, ok)
		assert.Equal(t, int64(1), u.ID)
		assert.Equal(t, int64(1000), u.Credits)
	})

	t.Run("Should reject unknown and empty handles", func(t *testing.T) {
		for _, handle := range []string{"", "ghost", "NEONHACKER", " neonhacker"} {
			_, ok := dir.Lookup(handle)
			assert.False(t, ok, handle)
		}
	})

	t.Run("Should not be affected by later changes to the seed slice", func(t *testing.T) {
		seed := []domain.User{{Handle: "a", ID: 7}}
		d := NewStaticDirectory(seed)
		seed[0].ID = 99

		u, _ := d.Lookup("a")
		assert.Equal(t, int64(7), u.ID)
	})
}
