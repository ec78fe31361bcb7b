package auth

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestRegistry() *Registry {
	return NewRegistryWithCost(bcrypt.MinCost)
}

func TestRegistry_Register(t *testing.T) {
	t.Run("Register and verify round trip", func(t *testing.T) {
		reg := newTestRegistry()

		acc, err := reg.Register("ranger", "swordfish")
		require.NoError(t, err)
		require.Equal(t, uint64(1), acc.ID)
		require.Equal(t, "ranger", acc.Username)

		got, err := reg.Verify("ranger", "swordfish")
		require.NoError(t, err)
		require.Equal(t, acc, got)
	})

	t.Run("Account ids are sequential", func(t *testing.T) {
		reg := newTestRegistry()

		first, err := reg.Register("first", "pw")
		require.NoError(t, err)
		second, err := reg.Register("second", "pw")
		require.NoError(t, err)

		require.Equal(t, uint64(1), first.ID)
		require.Equal(t, uint64(2), second.ID)
	})

	t.Run("Duplicate username rejected", func(t *testing.T) {
		reg := newTestRegistry()

		_, err := reg.Register("ranger", "one")
		require.NoError(t, err)
		_, err = reg.Register("ranger", "two")
		require.ErrorIs(t, err, ErrUsernameTaken)

		// Original credentials still work after the failed attempt.
		_, err = reg.Verify("ranger", "one")
		require.NoError(t, err)
	})

	t.Run("Username length bounds enforced", func(t *testing.T) {
		reg := newTestRegistry()

		_, err := reg.Register("ab", "pw")
		require.ErrorIs(t, err, ErrInvalidUsername)
		_, err = reg.Register(strings.Repeat("x", 21), "pw")
		require.ErrorIs(t, err, ErrInvalidUsername)
		_, err = reg.Register("", "pw")
		require.ErrorIs(t, err, ErrInvalidUsername)

		_, err = reg.Register("abc", "pw")
		require.NoError(t, err)
		_, err = reg.Register(strings.Repeat("x", 20), "pw")
		require.NoError(t, err)
	})

	t.Run("Length counts runes not bytes", func(t *testing.T) {
		reg := newTestRegistry()

		// Two runes, six bytes.
		_, err := reg.Register("日本", "pw")
		require.ErrorIs(t, err, ErrInvalidUsername)

		_, err = reg.Register("日本語", "pw")
		require.NoError(t, err)
	})
}

func TestRegistry_Verify(t *testing.T) {
	t.Run("Wrong password rejected", func(t *testing.T) {
		reg := newTestRegistry()
		_, err := reg.Register("ranger", "correct")
		require.NoError(t, err)

		_, err = reg.Verify("ranger", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Unknown account rejected with same error", func(t *testing.T) {
		reg := newTestRegistry()

		_, err := reg.Verify("nobody", "pw")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Empty password never matches", func(t *testing.T) {
		reg := newTestRegistry()
		_, err := reg.Register("ranger", "secret")
		require.NoError(t, err)

		_, err = reg.Verify("ranger", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestRegistry_Accounts(t *testing.T) {
	t.Run("Exists and Count track registrations", func(t *testing.T) {
		reg := newTestRegistry()
		require.False(t, reg.Exists("ranger"))
		require.Equal(t, 0, reg.Count())

		_, err := reg.Register("ranger", "pw")
		require.NoError(t, err)
		_, err = reg.Register("cleric", "pw")
		require.NoError(t, err)

		require.True(t, reg.Exists("ranger"))
		require.True(t, reg.Exists("cleric"))
		require.False(t, reg.Exists("rogue"))
		require.Equal(t, 2, reg.Count())
	})

	t.Run("Concurrent registration admits one winner per name", func(t *testing.T) {
		reg := newTestRegistry()

		const attempts = 8
		errs := make([]error, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = reg.Register("ranger", "pw")
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
			} else {
				require.ErrorIs(t, err, ErrUsernameTaken)
			}
		}
		require.Equal(t, 1, wins)
		require.Equal(t, 1, reg.Count())
	})
}

func TestValidUsername(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"", false},
		{"ab", false},
		{"abc", true},
		{"a_perfectly_fine_20", true},
		{strings.Repeat("x", 20), true},
		{strings.Repeat("x", 21), false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.valid, ValidUsername(tc.name), "username %q", tc.name)
	}
}
