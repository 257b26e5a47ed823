package uploadcheck

import "time"

// Config holds configuration for an upload check run.
type Config struct {
	BaseURL      string        // Base URL of the service
	NumUploads   int           // Number of uploads to generate
	Workers      int           // Number of concurrent clients
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Delay between job status polls
	WaitTimeout  time.Duration // Upper bound for one job to finish
	Verbose      bool          // Enable verbose logging
}

// Upload is one synthetic candidate file and the status the service should
// answer it with.
type Upload struct {
	Name     string
	MIMEType string
	Size     int64
	Expect   int
	Code     string // expected error code for rejections
}

// jobStatus mirrors the job body returned by the API.
type jobStatus struct {
	ID                string `json:"id"`
	State             string `json:"state"`
	Progress          int    `json:"progress"`
	Error             string `json:"error"`
	CompletionDelayMs int64  `json:"completion_delay_ms"`
	ReportURL         string `json:"report_url"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Title   string `json:"title"`
}

type scoreReport struct {
	Overall    int    `json:"overall"`
	Label      string `json:"label"`
	Categories []struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
	} `json:"categories"`
}

// Stats holds check statistics.
type Stats struct {
	Generated  int
	Accepted   int
	Rejected   int
	Unexpected int
	Completed  int
	Failed     int
	Reports    int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
