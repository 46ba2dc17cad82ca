package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

type EventType string

const (
	EventTypeProcessed EventType = "processed"
	EventTypeExtracted EventType = "extracted"
	EventTypeNoAttach  EventType = "no_attachments"
	EventTypeSkipped   EventType = "skipped"
	EventTypeFailed    EventType = "failed"
)

type Event struct {
	Type   EventType
	Source string
	Path   string
	Err    error
}

type Summary struct {
	Processed   int
	Succeeded   int
	Failed      int
	Attachments int
	Skipped     int
	LastError   error
}

func (s Summary) LogAttrs() []any {
	attrs := []any{
		"processed", s.Processed,
		"succeeded", s.Succeeded,
		"failed", s.Failed,
		"attachments", s.Attachments,
		"skipped", s.Skipped,
	}
	if s.LastError != nil {
		attrs = append(attrs, "lastError", s.LastError.Error())
	}
	return attrs
}

type Collector struct {
	mu      sync.Mutex
	summary Summary
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			c.apply(evt)
		}
	}
}

func (c *Collector) Snapshot() Summary {
	c.mu.Lock()
	summary := c.summary
	c.mu.Unlock()
	return summary
}

func (c *Collector) apply(evt Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch evt.Type {
	case EventTypeProcessed:
		c.summary.Processed++
		c.summary.Succeeded++
	case EventTypeNoAttach:
		c.summary.Processed++
		c.summary.Succeeded++
	case EventTypeFailed:
		c.summary.Processed++
		c.summary.Failed++
		if evt.Err != nil {
			c.summary.LastError = evt.Err
		}
	case EventTypeExtracted:
		c.summary.Attachments++
	case EventTypeSkipped:
		c.summary.Skipped++
	}
}

type EventStream interface {
	SubscribeStats(name string, fn func(context.Context, <-chan Event) error)
}

type Reporter struct {
	collector *Collector
	logger    *slog.Logger
	started   time.Time
}

func NewReporter(stream EventStream, logger *slog.Logger) *Reporter {
	reporter := &Reporter{
		collector: NewCollector(),
		logger:    logger,
		started:   time.Now(),
	}
	stream.SubscribeStats("stats-reporter", reporter.consume)
	return reporter
}

func (r *Reporter) consume(ctx context.Context, events <-chan Event) error {
	r.collector.Run(ctx, events)
	summary := r.collector.Snapshot()
	attrs := append(summary.LogAttrs(), "duration", time.Since(r.started))
	if ctx.Err() != nil {
		if r.logger != nil {
			r.logger.Debug("stats collection stopped", append(attrs, "err", ctx.Err())...)
		}
		return ctx.Err()
	}
	if r.logger != nil {
		r.logger.Info("stats summary", attrs...)
	}
	return nil
}

func (r *Reporter) Summary() Summary {
	return r.collector.Snapshot()
}

// PrettyPrintTop prints the top N most frequent items in a map.
func PrettyPrintTop(m map[string]int, limit int) {
	type pair struct {
		Key   string
		Value int
	}

	var pairs []pair
	for k, v := range m {
		pairs = append(pairs, pair{k, v})
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Value > pairs[j].Value
	})

	for i := 0; i < limit && i < len(pairs); i++ {
		fmt.Printf("%d. %s (%d)\n", i+1, pairs[i].Key, pairs[i].Value)
	}
}
