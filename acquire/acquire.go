// Package acquire feeds force samples into the analyzer, either live from a
// plate's websocket feed or replayed from a stored capture. Every source
// drives the same Runner, so live and replay sessions produce identical
// results.
package acquire

import (
	"context"

	grfnotes "grf-analyzer"
)

// Collector produces one session's worth of samples. Collect sends samples
// on out until the capture ends, the source closes, or ctx is cancelled,
// then returns. The caller owns out and closes nothing here.
type Collector interface {
	Collect(ctx context.Context, out chan<- grfnotes.ForceSample) error
}

// SliceCollector replays an in-memory capture. Replays run unpaced: phase
// detection keys off sample indices, not wall time.
type SliceCollector struct {
	Samples []grfnotes.ForceSample
}

func (c SliceCollector) Collect(ctx context.Context, out chan<- grfnotes.ForceSample) error {
	for _, s := range c.Samples {
		select {
		case out <- s:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
