package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dhcgn/eml-extract/extract"
	"github.com/dhcgn/eml-extract/model"
	"github.com/dhcgn/eml-extract/stats"
)

// Runner drives the extractor over a batch of requests, strictly in input
// order on a single worker. Extraction itself never runs concurrently; the
// only goroutines are the stats subscribers consuming the event stream.
type Runner struct {
	extractor *extract.Extractor
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// Every subscriber gets its own channel so each one sees the full
	// event stream; a shared channel would split events between them.
	subMu sync.Mutex
	subs  []chan stats.Event

	statsWG sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeEventsOnce sync.Once
}

func New(extractor *extract.Extractor, logger *slog.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		extractor: extractor,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (r *Runner) Logger() *slog.Logger {
	return r.logger
}

func (r *Runner) EmitEvent(evt stats.Event) {
	r.subMu.Lock()
	subs := r.subs
	r.subMu.Unlock()

	for _, sub := range subs {
		select {
		case <-r.ctx.Done():
			return
		case sub <- evt:
		}
	}
}

func (r *Runner) SubscribeStats(name string, fn func(context.Context, <-chan stats.Event) error) {
	events := make(chan stats.Event, 128)

	r.subMu.Lock()
	r.subs = append(r.subs, events)
	r.subMu.Unlock()

	r.statsWG.Add(1)
	go func() {
		defer r.statsWG.Done()
		if err := fn(r.ctx, events); err != nil && !errors.Is(err, context.Canceled) {
			r.fail(fmt.Errorf("%s stats: %w", name, err))
		}
	}()
}

// Run processes the requests one after another and returns a result per
// request, in the same order. ctx is only checked between requests: a
// request already writing attachments completes before cancellation takes
// effect. One request failing never stops the rest of the batch.
func (r *Runner) Run(ctx context.Context, requests []model.ExtractionRequest) ([]model.ExtractionResult, error) {
	started := time.Now()

	results := make([]model.ExtractionResult, 0, len(requests))
	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("batch cancelled", "remaining", len(requests)-len(results))
			break
		}

		result := r.extractor.ExtractOne(req)
		results = append(results, result)
		r.report(req, result)
	}

	r.closeEvents()
	r.statsWG.Wait()
	r.cancel()

	duration := time.Since(started)
	if r.err != nil {
		r.logger.Error("batch failed", "duration", duration, "err", r.err)
		return results, r.err
	}

	r.logger.Info("batch completed", "duration", duration, "files", len(results))
	return results, nil
}

func (r *Runner) report(req model.ExtractionRequest, result model.ExtractionResult) {
	if result.Err != nil {
		r.logger.Error("extraction failed", "source", req.SourcePath, "err", result.Err)
		r.EmitEvent(stats.Event{Type: stats.EventTypeFailed, Source: req.SourcePath, Err: result.Err})
		return
	}

	for _, path := range result.WrittenPaths {
		r.EmitEvent(stats.Event{Type: stats.EventTypeExtracted, Source: req.SourcePath, Path: path})
	}
	for i := 0; i < result.Skipped; i++ {
		r.EmitEvent(stats.Event{Type: stats.EventTypeSkipped, Source: req.SourcePath})
	}

	if len(result.WrittenPaths) == 0 {
		if result.Skipped > 0 {
			r.logger.Info("all attachments filtered out", "source", req.SourcePath, "skipped", result.Skipped)
		} else {
			r.logger.Info("message has no attachments", "source", req.SourcePath)
		}
		r.EmitEvent(stats.Event{Type: stats.EventTypeNoAttach, Source: req.SourcePath})
		return
	}

	r.logger.Info("attachments extracted", "source", req.SourcePath, "count", len(result.WrittenPaths))
	r.EmitEvent(stats.Event{Type: stats.EventTypeProcessed, Source: req.SourcePath})
}

func (r *Runner) closeEvents() {
	r.closeEventsOnce.Do(func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		for _, sub := range r.subs {
			close(sub)
		}
	})
}

func (r *Runner) fail(err error) {
	if err == nil {
		return
	}
	r.errMu.Lock()
	if r.err == nil {
		r.err = err
		r.cancel()
	}
	r.errMu.Unlock()
}
