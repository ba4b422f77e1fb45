package imageproc

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	ctx := context.Background()

	t.Run("paletted source becomes NRGBA", func(t *testing.T) {
		src := image.NewPaletted(image.Rect(0, 0, 10, 10), color.Palette{color.White, color.Black})
		out := Normalize(ctx, src)
		require.IsType(t, &image.NRGBA{}, out)
		require.Equal(t, src.Bounds(), out.Bounds())
	})

	t.Run("NRGBA source passes through", func(t *testing.T) {
		src := image.NewNRGBA(image.Rect(0, 0, 5, 5))
		out := Normalize(ctx, src)
		require.Same(t, src, out)
	})
}
