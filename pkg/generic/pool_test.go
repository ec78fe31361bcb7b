package generic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool(t *testing.T) {
	t.Run("Constructs When Empty", func(t *testing.T) {
		built := 0
		p := NewPool(func() *int {
			built++
			v := 7
			return &v
		})

		got := p.Get()
		require.Equal(t, 1, built)
		require.Equal(t, 7, *got)
	})

	t.Run("Put Then Get Reuses The Value", func(t *testing.T) {
		p := NewPool(func() []byte { return make([]byte, 0, 64) })

		buf := p.Get()
		buf = append(buf, "marker"...)
		p.Put(buf[:0])

		again := p.Get()
		require.Equal(t, 64, cap(again))
	})
}

func TestNewHotPool(t *testing.T) {
	t.Run("Warms The Pool Up Front", func(t *testing.T) {
		built := 0
		NewHotPool(func() struct{} {
			built++
			return struct{}{}
		}, 8)

		require.Equal(t, 8, built)
	})

	t.Run("Zero Warm Count Builds Nothing", func(t *testing.T) {
		built := 0
		NewHotPool(func() struct{} {
			built++
			return struct{}{}
		}, 0)

		require.Zero(t, built)
	})
}
