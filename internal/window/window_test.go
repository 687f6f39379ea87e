package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow_Visible(t *testing.T) {
	t.Run("window larger than sequence", func(t *testing.T) {
		w := New(100)
		lo, hi := w.Visible(30)
		assert.Equal(t, 0, lo)
		assert.Equal(t, 30, hi)
	})

	t.Run("window inside sequence", func(t *testing.T) {
		w := Window{Start: 50, Size: 100}
		lo, hi := w.Visible(500)
		assert.Equal(t, 50, lo)
		assert.Equal(t, 150, hi)
	})

	t.Run("window at the tail", func(t *testing.T) {
		w := Window{Start: 450, Size: 100}
		lo, hi := w.Visible(500)
		assert.Equal(t, 450, lo)
		assert.Equal(t, 500, hi)
	})

	t.Run("empty sequence", func(t *testing.T) {
		w := New(100)
		lo, hi := w.Visible(0)
		assert.Equal(t, 0, lo)
		assert.Equal(t, 0, hi)
	})

	t.Run("size below one falls back to default", func(t *testing.T) {
		w := New(0)
		assert.Equal(t, DefaultSize, w.Size)
	})
}

func TestWindow_Clamp(t *testing.T) {
	t.Run("start past the end pulls back", func(t *testing.T) {
		w := Window{Start: 480, Size: 100}.Clamp(500)
		assert.Equal(t, 400, w.Start)
	})

	t.Run("sequence shrank below window", func(t *testing.T) {
		w := Window{Start: 200, Size: 100}.Clamp(50)
		assert.Equal(t, 0, w.Start)
	})

	t.Run("valid start untouched", func(t *testing.T) {
		w := Window{Start: 100, Size: 100}.Clamp(500)
		assert.Equal(t, 100, w.Start)
	})
}

func TestWindow_Slide(t *testing.T) {
	const total = 1000

	t.Run("down past grow threshold advances a quarter window", func(t *testing.T) {
		w := Window{Start: 0, Size: 100}.Slide(0.8, DirectionDown, total)
		assert.Equal(t, 25, w.Start)
	})

	t.Run("down below grow threshold stays put", func(t *testing.T) {
		w := Window{Start: 0, Size: 100}.Slide(0.5, DirectionDown, total)
		assert.Equal(t, 0, w.Start)
	})

	t.Run("down at the end clamps", func(t *testing.T) {
		w := Window{Start: 890, Size: 100}.Slide(0.9, DirectionDown, total)
		assert.Equal(t, 900, w.Start)
	})

	t.Run("down with nothing below is a no-op", func(t *testing.T) {
		w := Window{Start: 900, Size: 100}.Slide(0.9, DirectionDown, total)
		assert.Equal(t, 900, w.Start)
	})

	t.Run("up below shrink threshold retreats", func(t *testing.T) {
		w := Window{Start: 200, Size: 100}.Slide(0.1, DirectionUp, total)
		assert.Equal(t, 175, w.Start)
	})

	t.Run("up above shrink threshold stays put", func(t *testing.T) {
		w := Window{Start: 200, Size: 100}.Slide(0.5, DirectionUp, total)
		assert.Equal(t, 200, w.Start)
	})

	t.Run("up at the top clamps to zero", func(t *testing.T) {
		w := Window{Start: 10, Size: 100}.Slide(0.0, DirectionUp, total)
		assert.Equal(t, 0, w.Start)
	})

	t.Run("invariant holds under a long scroll", func(t *testing.T) {
		w := New(100)
		for i := 0; i < 200; i++ {
			w = w.Slide(0.9, DirectionDown, total)
			lo, hi := w.Visible(total)
			assert.GreaterOrEqual(t, lo, 0)
			assert.LessOrEqual(t, hi, total)
			assert.LessOrEqual(t, hi-lo, w.Size)
		}
		assert.Equal(t, total-100, w.Start)
	})
}

func TestWindow_Reset(t *testing.T) {
	w := Window{Start: 300, Size: 100}.Reset()
	assert.Equal(t, 0, w.Start)
	assert.Equal(t, 100, w.Size)
}
