package api

// defaultRequestOverhead is the multipart framing allowed on top of the
// largest accepted file.
const defaultRequestOverhead int64 = 64 * 1024

type options struct {
	maxRequestOverhead int64
}

func defaultOptions() options {
	return options{maxRequestOverhead: defaultRequestOverhead}
}

// Option configures the API server.
type Option func(*options)

// WithMaxRequestOverhead sets how many bytes beyond the file size limit an
// upload request may carry.
func WithMaxRequestOverhead(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRequestOverhead = n
		}
	}
}
