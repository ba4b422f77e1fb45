package sink

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"

	"github.com/UnendingLoop/pixelpushup/internal/model"
)

// ArchiveSink packs every write into one in-memory zip. Not safe for
// concurrent use - the pipeline issues writes sequentially. No partial
// archive is ever exposed: the buffer is only handed out by Finalize.
type ArchiveSink struct {
	buf       bytes.Buffer
	zw        *zip.Writer
	entries   int
	finalized bool
}

func NewArchiveSink() *ArchiveSink {
	s := &ArchiveSink{}
	s.zw = zip.NewWriter(&s.buf)
	return s
}

func (s *ArchiveSink) Prepare(ctx context.Context, target model.SinkTarget) error {
	if target.Mode != model.DeliveryLocal {
		return model.Errorf(model.CategoryPrecheck, "archive sink got target mode %q", target.Mode)
	}
	return nil
}

// Write appends one deflate-compressed entry under key.
func (s *ArchiveSink) Write(ctx context.Context, key string, data []byte, contentType string) error {
	w, err := s.zw.Create(key)
	if err != nil {
		return model.NewError(model.CategoryWrite, fmt.Errorf("failed to create archive entry %q: %w", key, err))
	}
	if _, err := w.Write(data); err != nil {
		return model.NewError(model.CategoryWrite, fmt.Errorf("failed to write archive entry %q: %w", key, err))
	}

	s.entries++
	return nil
}

func (s *ArchiveSink) Finalize() (*Deliverable, error) {
	if !s.finalized {
		if err := s.zw.Close(); err != nil {
			return nil, model.NewError(model.CategoryWrite, fmt.Errorf("failed to finalize archive: %w", err))
		}
		s.finalized = true
	}

	return &Deliverable{Archive: s.buf.Bytes()}, nil
}

// Entries - number of entries written so far
func (s *ArchiveSink) Entries() int {
	return s.entries
}
