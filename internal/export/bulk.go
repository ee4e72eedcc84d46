package export

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"mixport/internal/models"
)

// BulkExportOpts contains configuration for multi-platform exports.
type BulkExportOpts struct {
	NumWorkers int     // Concurrent platform exports (default: 2)
	RateLimit  float64 // Export starts per second (default: 1)
}

// PlatformExportResult is the outcome of one platform's export within a bulk run.
type PlatformExportResult struct {
	Platform models.Platform      `json:"platform"`
	Result   *models.ExportResult `json:"result,omitempty"`
	Success  bool                 `json:"success"`
	Error    error                `json:"-"`
	ErrorMsg string               `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export across platforms.
type BulkExportResult struct {
	TotalPlatforms    int                    `json:"total_platforms"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	Results           []PlatformExportResult `json:"results"`
}

type bulkJob struct {
	step     int
	platform models.Platform
	account  *models.Account
}

// BulkExport reproduces one playlist on several platforms concurrently with
// rate limiting and progress tracking.
//
// Each platform export is independent, so partial failure is expected: a
// platform that fails is reported in its slot of the result and the rest
// carry on. Results are ordered by the stable platform order, not by
// completion.
func (s *Service) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	playlist *models.Playlist,
	accounts map[models.Platform]*models.Account,
	opts BulkExportOpts,
) *BulkExportResult {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 2
	}
	if opts.NumWorkers > len(accounts) && len(accounts) > 0 {
		opts.NumWorkers = len(accounts)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1.0
	}

	// Stable platform order for jobs and results.
	platforms := make([]models.Platform, 0, len(accounts))
	for _, platform := range models.Platforms() {
		if _, ok := accounts[platform]; ok {
			platforms = append(platforms, platform)
		}
	}

	result := &BulkExportResult{
		TotalPlatforms: len(platforms),
		Results:        make([]PlatformExportResult, len(platforms)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan bulkJob, len(platforms))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				s.sendProgress(prog, exportingUpdate(job.step+1, len(platforms), job.platform))

				res, err := s.Export(ctx, playlist, job.account, string(job.platform))
				entry := PlatformExportResult{Platform: job.platform, Result: res}
				if err != nil {
					entry.Error = err
					entry.ErrorMsg = err.Error()
					s.sendProgress(prog, exportFailedUpdate(job.step+1, len(platforms), job.platform, err))
				} else {
					entry.Success = true
					s.sendProgress(prog, exportCompletedUpdate(job.step+1, len(platforms), res))
				}

				mu.Lock()
				result.Results[job.step] = entry
				if entry.Success {
					result.SuccessfulExports++
				} else {
					result.FailedExports++
				}
				mu.Unlock()
			}
		}()
	}

	for i, platform := range platforms {
		// Wait returns immediately with ctx.Err() once cancelled.
		if err := limiter.Wait(ctx); err != nil {
			mu.Lock()
			result.Results[i] = PlatformExportResult{
				Platform: platform,
				Error:    err,
				ErrorMsg: err.Error(),
			}
			result.FailedExports++
			mu.Unlock()
			continue
		}
		jobs <- bulkJob{step: i, platform: platform, account: accounts[platform]}
	}
	close(jobs)

	wg.Wait()
	return result
}
