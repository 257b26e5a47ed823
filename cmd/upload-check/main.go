package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/resumescore/internal/uploadcheck"
	"github.com/okian/resumescore/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumUploads   = 100
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 200 * time.Millisecond
	defaultWaitTimeout  = time.Minute
	defaultRunTimeout   = 10 * time.Minute
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		baseURL      = flag.String("url", "http://localhost:8080", "Base URL of the service")
		numUploads   = flag.Int("uploads", defaultNumUploads, "Number of uploads to generate")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent sessions")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		pollInterval = flag.Duration("poll", defaultPollInterval, "Delay between job status polls")
		waitTimeout  = flag.Duration("wait", defaultWaitTimeout, "Upper bound for a single job to finish")
		logFile      = flag.String("log", "", "Log file (default: upload_check_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Log every verified upload")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		uploadcheck.ShowHelp()
		return 0
	}

	closeLog, err := uploadcheck.SetupLogging(*logFile)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &uploadcheck.Config{
		BaseURL:      *baseURL,
		NumUploads:   *numUploads,
		Workers:      *workers,
		Timeout:      *timeout,
		PollInterval: *pollInterval,
		WaitTimeout:  *waitTimeout,
		Verbose:      *verbose,
	}

	if _, err := uploadcheck.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "upload check failed", logger.Error(err))
		return 1
	}
	return 0
}
