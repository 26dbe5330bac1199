package acquire

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	grfnotes "grf-analyzer"
	"grf-analyzer/obs"
	"grf-analyzer/storage"
)

// SessionConfig describes one capture session before any samples arrive.
type SessionConfig struct {
	TestType    grfnotes.TestType
	Parameters  *grfnotes.TestParameters
	BodyweightN float64
}

// SessionResult is what a finished session hands back to the caller.
type SessionResult struct {
	SessionID string
	Analysis  *grfnotes.Analysis
	Samples   []grfnotes.ForceSample
}

// Runner accumulates a collector's samples, analyzes the finished capture,
// and persists it. Store and Metrics are optional; a nil Store skips
// persistence and a nil Metrics skips instrumentation.
type Runner struct {
	Store   *storage.Store
	Metrics *obs.Metrics
}

// Run drives one session end to end. The collector decides when the capture
// ends; cancellation of ctx abandons the session without analyzing it.
func (r *Runner) Run(ctx context.Context, collector Collector, cfg SessionConfig) (*SessionResult, error) {
	if r.Metrics != nil {
		r.Metrics.ActiveSessions.Inc()
		defer r.Metrics.ActiveSessions.Dec()
	}

	out := make(chan grfnotes.ForceSample, 256)
	errc := make(chan error, 1)
	go func() {
		errc <- collector.Collect(ctx, out)
		close(out)
	}()

	var samples []grfnotes.ForceSample
	for s := range out {
		samples = append(samples, s)
		if r.Metrics != nil {
			r.Metrics.SamplesIngested.Inc()
		}
	}
	if err := <-errc; err != nil {
		r.countFailure()
		return nil, fmt.Errorf("collect session: %w", err)
	}

	log.Info("capture complete", "test_type", cfg.TestType, "samples", len(samples))

	start := time.Now()
	analysis, err := grfnotes.Analyze(samples, grfnotes.Config{
		TestType:    cfg.TestType,
		Parameters:  cfg.Parameters,
		BodyweightN: cfg.BodyweightN,
	})
	if err != nil {
		r.countFailure()
		return nil, fmt.Errorf("analyze session: %w", err)
	}
	if r.Metrics != nil {
		r.Metrics.AnalyzeDuration.Observe(time.Since(start).Seconds())
	}
	for _, w := range analysis.Warnings {
		log.Warn("session warning", "test_type", cfg.TestType, "warning", w)
	}

	res := &SessionResult{Analysis: analysis, Samples: samples}
	if r.Store != nil {
		id, err := r.Store.SaveSession(samples, analysis)
		if err != nil {
			r.countFailure()
			return nil, fmt.Errorf("persist session: %w", err)
		}
		res.SessionID = id
		log.Info("session stored", "id", id, "metrics", len(analysis.Metrics))
	}

	if r.Metrics != nil {
		r.Metrics.SessionsCompleted.WithLabelValues(cfg.TestType.String()).Inc()
	}
	return res, nil
}

func (r *Runner) countFailure() {
	if r.Metrics != nil {
		r.Metrics.SessionsFailed.Inc()
	}
}
