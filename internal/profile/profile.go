// Package profile samples the deployment evaluator over an evenly spaced
// progress grid and writes the result to a profile store.
package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tinytelemetry/unfold/internal/deploy"
	"github.com/tinytelemetry/unfold/internal/model"
)

// Sample evaluates engine at n evenly spaced progress values from 0 to 1
// inclusive. n below 2 is raised to 2.
func Sample(ctx context.Context, engine *deploy.Engine, n int) ([]model.ProfileSample, error) {
	if n < 2 {
		n = 2
	}
	out := make([]model.ProfileSample, 0, n)
	last := float64(n - 1)
	for i := 0; i < n; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		p := float64(i) / last
		out = append(out, model.ProfileSample{
			Progress:   p,
			EventIndex: engine.EventIndex(p),
			State:      engine.Evaluate(p),
		})
	}
	return out, nil
}

// Export samples engine and replaces the profile held by w.
func Export(ctx context.Context, w model.ProfileWriter, engine *deploy.Engine, n int, log zerolog.Logger) error {
	start := time.Now()
	samples, err := Sample(ctx, engine, n)
	if err != nil {
		return fmt.Errorf("sample profile: %w", err)
	}
	if err := w.ReplaceProfile(samples, engine.Timeline()); err != nil {
		return fmt.Errorf("store profile: %w", err)
	}
	log.Info().
		Int("samples", len(samples)).
		Int("events", engine.EventCount()).
		Dur("took", time.Since(start)).
		Msg("motion profile exported")
	return nil
}
