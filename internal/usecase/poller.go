package usecase

import (
	"context"
	"log/slog"
	"time"

	"LinkSynth/internal/ports"
)

// Poller wires the interval driver with the pipeline use case. Each tick
// drains the queue until no work remains, so correctness does not depend on
// the invocation cadence.
type Poller struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewPoller returns a helper to start/stop recurring queue draining.
func NewPoller(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Poller {
	return &Poller{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the drain job with the provided scheduler.
func (p *Poller) Start(ctx context.Context) error {
	if p.driver == nil || p.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		for {
			result, err := p.pipeline.ProcessNext(ctx)
			if err != nil {
				// The item already carries its failure state; keep draining on
				// the next tick.
				if p.logger != nil {
					p.logger.Warn("queue drain", "error", err)
				}
				return
			}
			if result.NoWork {
				return
			}
		}
	}

	return p.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (p *Poller) Stop(ctx context.Context) error {
	if p.driver == nil {
		return nil
	}
	return p.driver.Stop(ctx)
}
