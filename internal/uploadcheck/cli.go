package uploadcheck

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/resumescore/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging sends log records to stdout and to logFile. If logFile is
// empty, a timestamped filename is generated. The returned function closes
// the file.
func SetupLogging(logFile string) (func() error, error) {
	if logFile == "" {
		logFile = "upload_check_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.InitWithWriter(io.MultiWriter(os.Stdout, file)); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file.Close, nil
}

// ShowHelp prints usage information for the upload check tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Resume Score Upload Check
=========================

Drives a running service through the upload flow: concurrent sessions submit
a mix of valid resumes, oversized files and unsupported types, follow each
accepted job to completion and verify the resulting report.

Usage:
  go run ./cmd/upload-check [options]

Options:
  -url string
        Base URL of the service (default http://localhost:8080)
  -uploads int
        Number of uploads to generate (default 100)
  -workers int
        Number of concurrent sessions (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -poll duration
        Delay between job status polls (default 200ms)
  -wait duration
        Upper bound for a single job to finish (default 1m)
  -log string
        Log file (default: upload_check_TIMESTAMP.log)
  -verbose
        Log every verified upload
  -help
        Show this help message

Examples:
  # Check a local service
  go run ./cmd/upload-check

  # Heavier run against another host
  go run ./cmd/upload-check -uploads 2000 -workers 64 -url http://scorer:8080
`)
}
