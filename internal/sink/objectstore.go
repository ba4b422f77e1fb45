package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"regexp"

	"github.com/UnendingLoop/pixelpushup/internal/model"
)

// ObjectStore - contract for the low-level remote-store collaborator.
// Auth, retries and connection pooling are its problem, not ours.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, size int64, contentType string, r io.Reader) error
	ObjectExists(ctx context.Context, bucket, key string) (bool, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
}

var (
	prefixRe = regexp.MustCompile(`^[\w\-/]+$`)
	bucketRe = regexp.MustCompile(`^[a-z0-9.-]{3,63}$`)
)

// ObjectStoreSink writes each output as one remote object under
// <prefix>/<key> and records the resulting location. Writes are independent
// of each other: there is no rollback of already-written objects when a
// later write fails.
type ObjectStoreSink struct {
	store     ObjectStore
	overwrite bool
	target    model.SinkTarget
	locations []model.ObjectLocation
}

func NewObjectStoreSink(store ObjectStore, overwrite bool) *ObjectStoreSink {
	return &ObjectStoreSink{store: store, overwrite: overwrite}
}

// Prepare validates naming parameters and checks the destination bucket
// before any byte is sent.
func (s *ObjectStoreSink) Prepare(ctx context.Context, target model.SinkTarget) error {
	if target.Mode != model.DeliveryRemote {
		return model.Errorf(model.CategoryPrecheck, "object-store sink got target mode %q", target.Mode)
	}
	if target.KeyPrefix == "" {
		return model.NewError(model.CategoryPrecheck, model.ErrMissingPrefix)
	}
	if !prefixRe.MatchString(target.KeyPrefix) {
		return model.NewError(model.CategoryPrecheck,
			fmt.Errorf("%w: %q", model.ErrBadKeyPrefix, target.KeyPrefix))
	}
	if !bucketRe.MatchString(target.Bucket) {
		return model.NewError(model.CategoryPrecheck,
			fmt.Errorf("%w: %q", model.ErrBadBucketName, target.Bucket))
	}

	exists, err := s.store.BucketExists(ctx, target.Bucket)
	if err != nil {
		return model.NewError(model.CategoryPrecheck,
			fmt.Errorf("failed to check bucket %q: %w", target.Bucket, err))
	}
	if !exists {
		return model.NewError(model.CategoryPrecheck,
			fmt.Errorf("%w: %q", model.ErrBucketMissing, target.Bucket))
	}

	s.target = target
	return nil
}

func (s *ObjectStoreSink) Write(ctx context.Context, key string, data []byte, contentType string) error {
	fullKey := path.Join(s.target.KeyPrefix, key)

	if !s.overwrite {
		exists, err := s.store.ObjectExists(ctx, s.target.Bucket, fullKey)
		if err != nil {
			return model.NewError(model.CategoryWrite,
				fmt.Errorf("failed to check object %q: %w", fullKey, err))
		}
		if exists {
			return model.NewError(model.CategoryWrite,
				fmt.Errorf("%w: %q", model.ErrKeyExists, fullKey))
		}
	}

	if err := s.store.Put(ctx, s.target.Bucket, fullKey, int64(len(data)), contentType, bytes.NewReader(data)); err != nil {
		return model.NewError(model.CategoryWrite,
			fmt.Errorf("failed to put object %q: %w", fullKey, err))
	}

	s.locations = append(s.locations, model.ObjectLocation{Key: fullKey, Bucket: s.target.Bucket})
	return nil
}

func (s *ObjectStoreSink) Finalize() (*Deliverable, error) {
	return &Deliverable{Locations: s.locations}, nil
}
