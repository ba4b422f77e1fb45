package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/UnendingLoop/pixelpushup/internal/imageproc"
	"github.com/UnendingLoop/pixelpushup/internal/model"
	"github.com/UnendingLoop/pixelpushup/internal/mwlogger"
	"github.com/UnendingLoop/pixelpushup/internal/sink"
	"github.com/wb-go/wbf/zlog"
)

type Pipeline struct {
	gen          *imageproc.Generator
	pool         *Pool
	originalMode model.OriginalMode
}

func New(gen *imageproc.Generator, pool *Pool, originalMode model.OriginalMode) *Pipeline {
	return &Pipeline{gen: gen, pool: pool, originalMode: originalMode}
}

// ProcessBatch validates every image and prechecks the sink before any write
// happens, then runs each job in input order. Derivative entries of each
// report follow declared tier order regardless of completion order. Any
// returned error means the batch produced no usable deliverable.
func (p *Pipeline) ProcessBatch(ctx context.Context, req *model.BatchRequest, out sink.Writer) ([]model.ImageReport, error) {
	if len(req.Files) == 0 {
		return nil, model.NewError(model.CategoryValidation, model.ErrNoImages)
	}

	// whole batch validated up front: one bad image means zero writes
	sources := make([]*model.SourceImage, 0, len(req.Files))
	for _, f := range req.Files {
		src, err := imageproc.Validate(f.Data, f.Filename)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	if err := out.Prepare(ctx, req.Target); err != nil {
		return nil, err
	}

	reports := make([]model.ImageReport, 0, len(sources))
	for _, src := range sources {
		report, err := p.processImage(ctx, src, req.ExportFormat, out)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}

	return reports, nil
}

// job - one source image moving through the per-image state machine
type job struct {
	src    *model.SourceImage
	status model.Status
}

func (j *job) advance(logger zlog.Zerolog, s model.Status) {
	j.status = s
	logger.Debug().Str("file", j.src.Filename).Str("status", string(s)).Msg("Job state changed")
}

func (p *Pipeline) processImage(ctx context.Context, src *model.SourceImage, format model.ExportFormat, out sink.Writer) (*model.ImageReport, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	j := &job{src: src, status: model.StatusValidated}

	src.Decoded = imageproc.Normalize(ctx, src.Decoded)
	j.advance(logger, model.StatusNormalized)

	// original passthrough goes out first; derivatives follow
	origData := src.Raw
	if p.originalMode == model.OriginalReencode {
		data, err := p.gen.Reencode(src)
		if err != nil {
			j.advance(logger, model.StatusFailed)
			return nil, err
		}
		origData = data
	}
	origKey := fmt.Sprintf("%s/original.%s", src.Stem, src.Ext)
	if err := out.Write(ctx, origKey, origData, model.ExtContentType[src.Ext]); err != nil {
		j.advance(logger, model.StatusFailed)
		return nil, err
	}

	j.advance(logger, model.StatusDerivativesPending)
	results, err := p.generateAll(ctx, src, format)
	if err != nil {
		j.advance(logger, model.StatusFailed)
		return nil, err
	}
	j.advance(logger, model.StatusDerivativesComplete)

	cType := model.GetContentType[format]
	infos := make([]model.DerivativeInfo, 0, len(results))
	for _, res := range results {
		key := fmt.Sprintf("%s/%s.%s", src.Stem, res.Tier, format)
		if err := out.Write(ctx, key, res.Data, cType); err != nil {
			j.advance(logger, model.StatusFailed)
			return nil, err
		}
		infos = append(infos, model.DerivativeInfo{
			Filename: key,
			Tier:     res.Tier,
			Width:    res.Width,
			Height:   res.Height,
			Size:     res.Size,
		})
	}
	j.advance(logger, model.StatusDelivered)

	report := &model.ImageReport{
		SourceFilename: src.Filename,
		OriginalWidth:  src.Width,
		OriginalHeight: src.Height,
		Derivatives:    infos,
	}
	j.advance(logger, model.StatusReported)

	return report, nil
}

// generateAll fans one task per tier out to the shared pool and joins on all
// of them. This is a join, not a race: the first error cancels the remaining
// work for this image, but every in-flight task is drained before returning.
// Results come back in declared tier order, not completion order.
func (p *Pipeline) generateAll(ctx context.Context, src *model.SourceImage, format model.ExportFormat) ([]*model.DerivativeResult, error) {
	specs := model.Tiers
	results := make([]*model.DerivativeResult, len(specs))
	errs := make([]error, len(specs))

	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := range specs {
		i := i
		spec := specs[i]

		wg.Add(1)
		err := p.pool.Submit(genCtx, func() {
			defer wg.Done()

			if genCtx.Err() != nil {
				errs[i] = genCtx.Err()
				return
			}

			res, genErr := p.gen.Generate(src, spec, format)
			if genErr != nil {
				errs[i] = genErr
				cancel()
				return
			}
			results[i] = res
		})
		if err != nil {
			wg.Done()
			errs[i] = err
			break
		}
	}
	wg.Wait()

	if err := firstError(errs); err != nil {
		return nil, err
	}
	return results, nil
}

// firstError prefers a real failure over the context errors of tasks that
// were skipped after cancellation.
func firstError(errs []error) error {
	var fallback error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, context.Canceled) {
			return err
		}
		if fallback == nil {
			fallback = model.NewError(model.CategoryProcessing, err)
		}
	}
	return fallback
}
