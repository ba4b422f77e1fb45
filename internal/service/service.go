// Package service provides business-logic for the app
package service

import (
	"context"
	"encoding/json"
	"path"
	"time"

	"github.com/UnendingLoop/pixelpushup/internal/model"
	"github.com/UnendingLoop/pixelpushup/internal/mwlogger"
	"github.com/UnendingLoop/pixelpushup/internal/pipeline"
	"github.com/UnendingLoop/pixelpushup/internal/sink"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
)

type PushupService struct {
	pipeline  *pipeline.Pipeline
	storage   sink.ObjectStore
	publisher TaskPublisher
	bucket    string
	overwrite bool
}

func NewPushupService(pl *pipeline.Pipeline, strg sink.ObjectStore, pub TaskPublisher, bucket string, overwrite bool) *PushupService {
	return &PushupService{
		pipeline:  pl,
		storage:   strg,
		publisher: pub,
		bucket:    bucket,
		overwrite: overwrite,
	}
}

// TaskPublisher - contract for the completion-event queue
type TaskPublisher interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error
}

// Retry strategy for event publishing only - sink writes are never retried
var retryStrategy = retry.Strategy{
	Attempts: 5,
	Delay:    3 * time.Second,
	Backoff:  1.5,
}

// Process runs one batch end to end: normalize parameters, pick the sink
// variant once, run the pipeline, finalize the deliverable and assemble the
// response payload.
func (s PushupService) Process(ctx context.Context, raw *model.ProcessRequest) (*model.BatchResult, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	req, err := validateNormalizeParams(raw, s.bucket)
	if err != nil {
		return nil, err
	}

	var out sink.Writer
	switch req.Target.Mode {
	case model.DeliveryLocal:
		out = sink.NewArchiveSink()
	case model.DeliveryRemote:
		out = sink.NewObjectStoreSink(s.storage, s.overwrite)
	}

	reports, err := s.pipeline.ProcessBatch(ctx, req, out)
	if err != nil {
		logger.Error().Err(err).Msg("Batch processing failed")
		return nil, err
	}

	deliverable, err := out.Finalize()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to finalize sink output")
		return nil, err
	}

	if req.Target.Mode == model.DeliveryLocal {
		return &model.BatchResult{Archive: deliverable.Archive}, nil
	}

	report := s.assembleRemoteReport(req, reports, deliverable.Locations)
	s.publishCompletion(ctx, report)

	return &model.BatchResult{Report: report}, nil
}

// assembleRemoteReport merges the sink's recorded locations back into the
// per-image reports, preserving input and tier order.
func (s PushupService) assembleRemoteReport(req *model.BatchRequest, reports []model.ImageReport, locations []model.ObjectLocation) *model.BatchReport {
	byKey := make(map[string]model.ObjectLocation, len(locations))
	for _, loc := range locations {
		byKey[loc.Key] = loc
	}
	locationOf := func(relKey string) string {
		loc, ok := byKey[path.Join(req.Target.KeyPrefix, relKey)]
		if !ok {
			return ""
		}
		return "s3://" + loc.Bucket + "/" + loc.Key
	}

	for i := range reports {
		rep := &reports[i]
		stem, ext := splitStemExt(rep.SourceFilename)
		rep.OriginalLocation = locationOf(stem + "/original." + ext)
		for d := range rep.Derivatives {
			rep.Derivatives[d].Location = locationOf(rep.Derivatives[d].Filename)
		}
	}

	return &model.BatchReport{
		BatchID: uuid.New(),
		Message: "Images processed and uploaded to object storage.",
		Files:   reports,
	}
}

// publishCompletion emits the batch report to the task queue. Failures are
// logged and never fail the request - the writes already happened.
func (s PushupService) publishCompletion(ctx context.Context, report *model.BatchReport) {
	logger := mwlogger.LoggerFromContext(ctx)

	payload, err := json.Marshal(report)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal batch report for the queue")
		return
	}

	if err := s.publisher.SendWithRetry(ctx, retryStrategy, []byte(report.BatchID.String()), payload); err != nil {
		logger.Error().Err(err).Msg("Failed to publish batch-completion event")
	}
}
