package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/UnendingLoop/pixelpushup/internal/model"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// EncodingConfig - static per-format encoding parameters plus the input guard.
// Shared read-only across all jobs.
type EncodingConfig struct {
	JPEGQuality        int
	PNGCompression     png.CompressionLevel
	WebPQuality        float32
	WebPLossless       bool
	MaxSourceDimension int
}

func DefaultEncoding() EncodingConfig {
	return EncodingConfig{
		JPEGQuality:        95,
		PNGCompression:     png.DefaultCompression, // zlib level 6
		WebPQuality:        90,
		WebPLossless:       true,
		MaxSourceDimension: 10000,
	}
}

// Generator produces encoded derivatives. Pure with respect to its inputs
// aside from the config table and the injected dimension cache.
type Generator struct {
	cfg   EncodingConfig
	cache *DimensionCache
}

func NewGenerator(cfg EncodingConfig, cache *DimensionCache) *Generator {
	return &Generator{cfg: cfg, cache: cache}
}

// Generate resizes src into the spec's bounding box and encodes it in the
// export format.
func (g *Generator) Generate(src *model.SourceImage, spec model.DerivativeSpec, format model.ExportFormat) (*model.DerivativeResult, error) {
	if src.Width > g.cfg.MaxSourceDimension || src.Height > g.cfg.MaxSourceDimension {
		return nil, model.NewError(model.CategoryProcessing,
			fmt.Errorf("%w: %dx%d, max %d", model.ErrOversizedInput, src.Width, src.Height, g.cfg.MaxSourceDimension))
	}

	nw, nh := g.fit(src.Width, src.Height, spec.BoxW, spec.BoxH)

	var resized image.Image
	if nw == src.Width && nh == src.Height {
		resized = src.Decoded
	} else {
		resized = imaging.Resize(src.Decoded, nw, nh, imaging.Lanczos)
	}

	data, err := g.Encode(resized, format)
	if err != nil {
		return nil, model.NewError(model.CategoryProcessing,
			fmt.Errorf("%w: tier %q as %s: %v", model.ErrEncodingFailed, spec.Tier, format, err))
	}

	return &model.DerivativeResult{
		Tier:   spec.Tier,
		Width:  nw,
		Height: nh,
		Data:   data,
		Size:   int64(len(data)),
	}, nil
}

// Reencode re-saves the source image in its own format - used for the
// original passthrough when ORIGINAL_MODE=reencode.
func (g *Generator) Reencode(src *model.SourceImage) ([]byte, error) {
	var format model.ExportFormat
	switch src.Ext {
	case "jpg", "jpeg":
		format = model.ExportJPEG
	case "png":
		format = model.ExportPNG
	case "webp":
		format = model.ExportWEBP
	default:
		return nil, model.NewError(model.CategoryProcessing,
			fmt.Errorf("%w: .%s", model.ErrUnsupportedFormat, src.Ext))
	}

	data, err := g.Encode(src.Decoded, format)
	if err != nil {
		return nil, model.NewError(model.CategoryProcessing,
			fmt.Errorf("%w: original as %s: %v", model.ErrEncodingFailed, format, err))
	}
	return data, nil
}

// Encode - format-specific encoding per the config table
func (g *Generator) Encode(img image.Image, format model.ExportFormat) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case model.ExportJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(g.cfg.JPEGQuality))
	case model.ExportPNG:
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(g.cfg.PNGCompression))
	case model.ExportWEBP:
		err = webp.Encode(&buf, img, &webp.Options{Lossless: g.cfg.WebPLossless, Quality: g.cfg.WebPQuality})
	default:
		err = fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g *Generator) fit(w, h, boxW, boxH int) (int, int) {
	if g.cache != nil {
		return g.cache.Fit(w, h, boxW, boxH)
	}
	return fitBox(w, h, boxW, boxH)
}
