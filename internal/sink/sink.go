// Package sink provides the delivery-destination abstraction: one packed
// archive (local mode) or per-object remote writes (remote mode) behind a
// shared capability contract.
package sink

import (
	"context"

	"github.com/UnendingLoop/pixelpushup/internal/model"
)

// Writer - capability contract shared by both sink variants. Prepare must run
// and succeed for the entire job before any Write is issued. Writes are not
// transactional with respect to each other: remote objects already written
// when a later write fails are NOT rolled back.
type Writer interface {
	Prepare(ctx context.Context, target model.SinkTarget) error
	Write(ctx context.Context, key string, data []byte, contentType string) error
	Finalize() (*Deliverable, error)
}

// Deliverable - the finalized output: exactly one field is populated
// according to the sink variant.
type Deliverable struct {
	Archive   []byte
	Locations []model.ObjectLocation
}
