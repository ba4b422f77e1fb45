package transport

import (
	"errors"
	"io"
	"log"

	"github.com/UnendingLoop/pixelpushup/internal/model"
)

func errorCodeDefiner(err error) int {
	switch model.CategoryOf(err) {
	case model.CategoryValidation:
		return 400
	case model.CategoryPrecheck:
		// caller-supplied naming problems are the caller's fault; a missing
		// bucket or store trouble is ours
		switch {
		case errors.Is(err, model.ErrMissingPrefix),
			errors.Is(err, model.ErrBadKeyPrefix):
			return 400
		default:
			return 500
		}
	default:
		return 500
	}
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		log.Println("Handler failed to close fileflow:", err)
	}
}
