package pricing

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// SweepError records one website's failure during a bulk recompute.
type SweepError struct {
	WebsiteID int64  `json:"websiteId"`
	Reason    string `json:"reason"`
}

// SweepResult collects the outcome of a best-effort recompute sweep.
type SweepResult struct {
	Updated int          `json:"updated"`
	Errors  []SweepError `json:"errors"`
}

// RecomputeAll refreshes the derived price for every given website, or
// for all known websites when ids is empty. Websites are processed
// independently under a bounded concurrency limit; one website's
// failure is collected, not propagated, and never aborts the batch.
func (c *Calculator) RecomputeAll(ctx context.Context, ids []int64, concurrency int) (*SweepResult, error) {
	startTime := time.Now()

	if len(ids) == 0 {
		var err error
		ids, err = c.websites.ListWebsiteIDs(ctx)
		if err != nil {
			return nil, err
		}
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	c.logger.Info().
		Int("websites", len(ids)).
		Int("concurrency", concurrency).
		Msg("Starting recompute sweep")

	var (
		sem    = semaphore.NewWeighted(int64(concurrency))
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = &SweepResult{Errors: []SweepError{}}
	)

	for _, websiteID := range ids {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled; report the remaining websites as skipped.
			mu.Lock()
			result.Errors = append(result.Errors, SweepError{WebsiteID: websiteID, Reason: err.Error()})
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(websiteID int64) {
			defer wg.Done()
			defer sem.Release(1)

			_, err := c.Quote(ctx, &QuoteRequest{WebsiteID: websiteID})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.Warn().Err(err).Int64("website_id", websiteID).Msg("Recompute failed for website")
				result.Errors = append(result.Errors, SweepError{WebsiteID: websiteID, Reason: err.Error()})
				return
			}
			result.Updated++
		}(websiteID)
	}

	wg.Wait()

	c.metrics.RecordSweep(result.Updated, len(result.Errors), time.Since(startTime))
	c.logger.Info().
		Int("updated", result.Updated).
		Int("errors", len(result.Errors)).
		Dur("duration", time.Since(startTime)).
		Msg("Recompute sweep finished")

	return result, nil
}
