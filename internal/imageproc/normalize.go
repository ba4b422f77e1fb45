package imageproc

import (
	"context"
	"fmt"
	"image"

	"github.com/UnendingLoop/pixelpushup/internal/mwlogger"
	"github.com/disintegration/imaging"
)

// Normalize converts a decoded image to the canonical sRGB-assumed NRGBA
// representation, collapsing paletted/YCbCr/CMYK sources. Best-effort: on any
// failure the input is returned unmodified - color-accuracy loss is an
// acceptable degradation, total pipeline failure is not.
func Normalize(ctx context.Context, src image.Image) (out image.Image) {
	logger := mwlogger.LoggerFromContext(ctx)

	out = src
	defer func() {
		if r := recover(); r != nil {
			logger.Warn().Str("reason", fmt.Sprint(r)).Msg("Color normalization failed, keeping image as-is")
			out = src
		}
	}()

	if nrgba, ok := src.(*image.NRGBA); ok {
		return nrgba
	}

	return imaging.Clone(src)
}
