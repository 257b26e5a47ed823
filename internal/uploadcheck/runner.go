package uploadcheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/resumescore/pkg/logger"
)

// ErrCheckFailed is returned when any upload did not behave as expected.
var ErrCheckFailed = errors.New("upload check failed")

const percentageMultiplier = 100

// Run generates uploads, submits them concurrently, follows every accepted
// job to its report and verifies each outcome.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting upload check",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("uploads", cfg.NumUploads),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Bool("verbose", cfg.Verbose))

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	uploads := generateUploads(ctx, cfg, stats)

	if err := submitUploads(ctx, cfg, uploads, stats); err != nil {
		return stats, fmt.Errorf("upload submission failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.Unexpected > 0 || stats.Failed > 0 {
		return stats, fmt.Errorf("%d unexpected responses, %d failed jobs: %w", stats.Unexpected, stats.Failed, ErrCheckFailed)
	}

	logger.Get().Info(ctx, "upload check completed successfully")
	return stats, nil
}

// submitUploads runs every upload on its own session, at most cfg.Workers
// at a time.
func submitUploads(ctx context.Context, cfg *Config, uploads []Upload, stats *Stats) error {
	var mu sync.Mutex
	record := func(fn func(*Stats)) {
		mu.Lock()
		fn(stats)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))

	for _, u := range uploads {
		g.Go(func() error {
			return checkUpload(gctx, cfg, u, record)
		})
	}
	return g.Wait()
}

// checkUpload returns an error only for transport failures; behavioural
// mismatches are counted in stats.
func checkUpload(ctx context.Context, cfg *Config, u Upload, record func(func(*Stats))) error {
	log := logger.Get()

	c, err := newClient(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return err
	}

	status, job, apiErr, err := c.upload(ctx, u)
	if err != nil {
		return fmt.Errorf("%s: %w", u.Name, err)
	}

	if u.Expect != http.StatusAccepted {
		if verr := verifyRejection(u, status, apiErr); verr != nil {
			log.Warn(ctx, "unexpected rejection", logger.Error(verr))
			record(func(s *Stats) { s.Unexpected++ })
			return nil
		}
		record(func(s *Stats) { s.Rejected++ })
		if cfg.Verbose {
			log.Info(ctx, "upload rejected as expected", logger.String("file", u.Name), logger.String("code", apiErr.Code))
		}
		return nil
	}

	if status != http.StatusAccepted {
		log.Warn(ctx, "upload not accepted",
			logger.String("file", u.Name),
			logger.Int("status", status),
			logger.String("code", apiErr.Code))
		record(func(s *Stats) { s.Unexpected++ })
		return nil
	}
	record(func(s *Stats) { s.Accepted++ })

	done, err := c.waitForJob(ctx, job.ID, cfg.PollInterval, cfg.WaitTimeout)
	if err != nil {
		log.Warn(ctx, "job did not finish", logger.String("job_id", job.ID), logger.Error(err))
		record(func(s *Stats) { s.Failed++ })
		return nil
	}
	if done.State != "complete" || done.Progress != percentageMultiplier {
		log.Warn(ctx, "job failed",
			logger.String("job_id", job.ID),
			logger.String("state", done.State),
			logger.Int("progress", done.Progress),
			logger.String("error", done.Error))
		record(func(s *Stats) { s.Failed++ })
		return nil
	}
	record(func(s *Stats) { s.Completed++ })

	rep, err := c.report(ctx, job.ID)
	if err == nil {
		err = verifyReport(rep)
	}
	if err != nil {
		log.Warn(ctx, "bad report", logger.String("job_id", job.ID), logger.Error(err))
		record(func(s *Stats) { s.Unexpected++ })
		return nil
	}
	record(func(s *Stats) { s.Reports++ })
	if cfg.Verbose {
		log.Info(ctx, "report verified",
			logger.String("job_id", job.ID),
			logger.Int("overall", rep.Overall),
			logger.String("label", rep.Label))
	}
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	logger.Get().Info(ctx, "checking service health")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := (&http.Client{Timeout: cfg.Timeout}).Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats logs the final check statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var completionRate, uploadsPerSecond float64

	if stats.Accepted > 0 {
		completionRate = float64(stats.Completed) / float64(stats.Accepted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		uploadsPerSecond = float64(stats.Generated) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("accepted", stats.Accepted),
		logger.Int("rejected", stats.Rejected),
		logger.Int("unexpected", stats.Unexpected),
		logger.Int("completed", stats.Completed),
		logger.Int("failed", stats.Failed),
		logger.Int("reports", stats.Reports),
		logger.Duration("duration", stats.Duration),
		logger.Float64("completionRate", completionRate),
		logger.Float64("uploadsPerSecond", uploadsPerSecond))
}
