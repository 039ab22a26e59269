package safety

import (
	"context"

	"github.com/claude/paceguard/internal/models"
	"golang.org/x/sync/errgroup"
)

// BatchItem is one athlete's proposal in a batch validation.
type BatchItem struct {
	ID       string                      `json:"id"`
	Proposal models.WeeklyVolumeProposal `json:"proposal"`
	Profile  models.FitnessProfile       `json:"profile"`
}

// BatchResult carries either a verdict or the item's input error.
type BatchResult struct {
	ID      string                     `json:"id"`
	Verdict *models.ProgressionVerdict `json:"verdict,omitempty"`
	Error   string                     `json:"error,omitempty"`
}

// ValidateBatch validates items concurrently with at most workers goroutines.
// Results keep input order. Only context cancellation fails the whole batch.
func ValidateBatch(ctx context.Context, items []BatchItem, workers int) ([]BatchResult, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]BatchResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := BatchResult{ID: item.ID}
			v, err := Validate(item.Proposal, item.Profile)
			if err != nil {
				res.Error = err.Error()
			} else {
				res.Verdict = &v
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
