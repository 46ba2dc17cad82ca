package progress

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"github.com/dhcgn/eml-extract/stats"
)

// Bar manages a progress bar tracking processed EML files.
type Bar struct {
	pb      *pterm.ProgressbarPrinter
	total   int
	mu      sync.Mutex
	enabled bool
}

// New creates a new progress bar if logLevel is "info".
func New(total int, logLevel string) *Bar {
	enabled := logLevel == "info"

	bar := &Bar{
		total:   total,
		enabled: enabled,
	}

	if enabled {
		pb, _ := pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle("Extracting attachments").
			Start()

		bar.pb = pb

		pterm.Info.Printf("EML files to process: %d\n", total)
		pterm.Println()
	}

	return bar
}

// Update advances the progress bar based on the event type.
func (b *Bar) Update(evt stats.Event) {
	if !b.enabled || b.pb == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch evt.Type {
	case stats.EventTypeProcessed, stats.EventTypeNoAttach:
		b.pb.Increment()
		if evt.Source != "" {
			b.pb.UpdateTitle("Processing: " + truncate(filepath.Base(evt.Source), 40))
		}
	case stats.EventTypeFailed:
		// Show the error above the progress bar, the bar still advances so
		// failed files are not missing from the count.
		if evt.Err != nil {
			pterm.Error.Printf("Error: %v\n", evt.Err)
		}
		b.pb.Increment()
	case stats.EventTypeExtracted, stats.EventTypeSkipped:
		// Counted in the final summary, keep the bar output clean.
	}
}

// Stop finalizes the progress bar.
func (b *Bar) Stop() {
	if !b.enabled || b.pb == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pb.Current < b.total {
		b.pb.Current = b.total
	}

	b.pb.Stop()
	pterm.Success.Println("Extraction complete!")
}

// Subscriber creates a stats subscriber function that updates the bar.
func (b *Bar) Subscriber(ctx context.Context, events <-chan stats.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			b.Update(evt)
		}
	}
}

// truncate shortens s to at most max runes. Byte slicing would cut
// multi-byte filenames mid-rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// Reporter combines the progress bar with a final pterm summary section.
type Reporter struct {
	bar       *Bar
	collector *stats.Collector
	outputDir string
	started   time.Time
}

// NewReporter subscribes the bar and a summary collector to the stream.
func NewReporter(stream stats.EventStream, bar *Bar, outputDir string) *Reporter {
	reporter := &Reporter{
		bar:       bar,
		collector: stats.NewCollector(),
		outputDir: outputDir,
		started:   time.Now(),
	}

	if bar != nil && bar.enabled {
		stream.SubscribeStats("progress-bar", bar.Subscriber)
		stream.SubscribeStats("progress-stats", reporter.collectStats)
	}

	return reporter
}

func (pr *Reporter) collectStats(ctx context.Context, events <-chan stats.Event) error {
	pr.collector.Run(ctx, events)

	summary := pr.collector.Snapshot()

	pterm.Println()
	pterm.DefaultSection.Println("Extraction Summary")
	pterm.Info.Printf("Duration: %v\n", time.Since(pr.started))
	pterm.Info.Printf("Files processed: %d\n", summary.Processed)
	pterm.Info.Printf("Succeeded: %d\n", summary.Succeeded)
	pterm.Info.Printf("Failed: %d\n", summary.Failed)
	pterm.Info.Printf("Attachments extracted: %d\n", summary.Attachments)
	if summary.Skipped > 0 {
		pterm.Info.Printf("Attachments skipped by filters: %d\n", summary.Skipped)
	}
	pterm.Info.Printf("Output directory: %s\n", pr.outputDir)
	if summary.LastError != nil {
		pterm.Error.Printf("Last error: %v\n", summary.LastError)
	}

	return nil
}
