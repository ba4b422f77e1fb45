package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/UnendingLoop/pixelpushup/internal/model"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func testImageBytes(t *testing.T, w, h int, format imaging.Format) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 100, G: 100, B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	err := imaging.Encode(&buf, img, format)
	require.NoError(t, err)

	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		filename string
		wantErr  error
	}{
		{
			name:     "OK png",
			raw:      testImageBytes(t, 200, 100, imaging.PNG),
			filename: "hero-banner.png",
		},
		{
			name:     "OK jpeg with spaces in stem",
			raw:      testImageBytes(t, 60, 60, imaging.JPEG),
			filename: "my summer photo.jpg",
		},
		{
			name:     "empty payload",
			raw:      nil,
			filename: "empty.png",
			wantErr:  model.ErrUndecodableImage,
		},
		{
			name:     "broken payload",
			raw:      []byte("not-an-image"),
			filename: "broken.png",
			wantErr:  model.ErrUndecodableImage,
		},
		{
			name:     "path separator in stem",
			raw:      testImageBytes(t, 10, 10, imaging.PNG),
			filename: "../evil.png",
			wantErr:  model.ErrInvalidName,
		},
		{
			name:     "traversal inside stem",
			raw:      testImageBytes(t, 10, 10, imaging.PNG),
			filename: "a/b.png",
			wantErr:  model.ErrInvalidName,
		},
		{
			name:     "gif decodes but is outside the passthrough set",
			raw:      testImageBytes(t, 10, 10, imaging.GIF),
			filename: "anim.gif",
			wantErr:  model.ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Validate(tt.raw, tt.filename)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Equal(t, model.CategoryValidation, model.CategoryOf(err))
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.filename, src.Filename)
			require.NotEmpty(t, src.Stem)
			require.NotContains(t, src.Stem, "/")
			require.Positive(t, src.Width)
			require.Positive(t, src.Height)
			require.Equal(t, tt.raw, src.Raw)
		})
	}
}

func TestValidate_StemAndExt(t *testing.T) {
	src, err := Validate(testImageBytes(t, 20, 20, imaging.PNG), "logo_v2-final.png")
	require.NoError(t, err)
	require.Equal(t, "logo_v2-final", src.Stem)
	require.Equal(t, "png", src.Ext)
	require.Equal(t, "png", src.Format)
}
