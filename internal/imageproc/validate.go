// Package imageproc provides the image-side of the pipeline: input validation,
// color normalization and derivative generation.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"path"
	"regexp"
	"strings"

	"github.com/UnendingLoop/pixelpushup/internal/model"

	// decoders for every accepted input format
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// conservative charset: letters, digits, underscore, hyphen, whitespace -
// no path separators, no traversal sequences
var stemRe = regexp.MustCompile(`^[\w\-\s]+$`)

// Validate confirms the payload is a fully decodable image and that the name
// derived from declaredFilename is safe to use as a path segment. Header
// sniffing is not enough - the whole image must decode.
func Validate(raw []byte, declaredFilename string) (*model.SourceImage, error) {
	if len(raw) == 0 {
		return nil, model.NewError(model.CategoryValidation,
			fmt.Errorf("%w: empty file %q", model.ErrUndecodableImage, declaredFilename))
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, model.NewError(model.CategoryValidation,
			fmt.Errorf("%w: %q: %v", model.ErrUndecodableImage, declaredFilename, err))
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(declaredFilename), "."))
	stem := strings.TrimSuffix(declaredFilename, path.Ext(declaredFilename))
	if !stemRe.MatchString(stem) {
		return nil, model.NewError(model.CategoryValidation,
			fmt.Errorf("%w: %q", model.ErrInvalidName, declaredFilename))
	}

	// the original is persisted alongside derivatives, so its own format must
	// be in the passthrough set
	if !model.PassthroughExtMap[ext] {
		return nil, model.NewError(model.CategoryValidation,
			fmt.Errorf("%w: .%s", model.ErrUnsupportedFormat, ext))
	}

	bounds := img.Bounds()
	return &model.SourceImage{
		Filename: declaredFilename,
		Stem:     stem,
		Ext:      ext,
		Raw:      raw,
		Decoded:  img,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Format:   format,
	}, nil
}
