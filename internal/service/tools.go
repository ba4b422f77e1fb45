package service

import (
	"path"
	"strings"

	"github.com/UnendingLoop/pixelpushup/internal/model"
)

// validateNormalizeParams turns raw caller parameters into a normalized
// BatchRequest: defaults applied, jpg folded into jpeg, legacy "aws" mode
// accepted as remote. Key-prefix syntax itself is the sink's precheck.
func validateNormalizeParams(raw *model.ProcessRequest, defaultBucket string) (*model.BatchRequest, error) {
	if len(raw.Files) == 0 {
		return nil, model.NewError(model.CategoryValidation, model.ErrNoImages)
	}

	var mode model.DeliveryMode
	switch strings.ToLower(strings.TrimSpace(raw.Mode)) {
	case "", "local":
		mode = model.DeliveryLocal
	case "remote", "aws":
		mode = model.DeliveryRemote
	default:
		return nil, model.NewError(model.CategoryValidation, model.ErrIncorrectMode)
	}

	var format model.ExportFormat
	switch strings.ToLower(strings.TrimSpace(raw.ExportType)) {
	case "", "webp":
		format = model.ExportWEBP
	case "png":
		format = model.ExportPNG
	case "jpg", "jpeg":
		format = model.ExportJPEG
	default:
		return nil, model.NewError(model.CategoryValidation, model.ErrIncorrectExport)
	}

	target := model.SinkTarget{Mode: mode}
	if mode == model.DeliveryRemote {
		target.Bucket = defaultBucket
		target.KeyPrefix = strings.TrimSpace(raw.KeyPrefix)
		if target.KeyPrefix == "" {
			return nil, model.NewError(model.CategoryValidation, model.ErrMissingPrefix)
		}
	}

	return &model.BatchRequest{
		Files:        raw.Files,
		ExportFormat: format,
		Target:       target,
	}, nil
}

func splitStemExt(filename string) (string, string) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	stem := strings.TrimSuffix(filename, path.Ext(filename))
	return stem, ext
}
