// internal/pipeline/dispatch/config.go
package dispatch

import "time"

type Config struct {
	StreamURL string
	BulkURL   string
	// Timeout bounds each wave's transport call.
	Timeout time.Duration
	// HighConfidence shrinks the probe wave, trusting the primary plan.
	HighConfidence          float64
	ProbeSizeHighConfidence int
	ProbeSizeLowConfidence  int
	// CacheTTL is the default options.cache_ttl passed to the scrape
	// engine, seconds.
	CacheTTL int64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:                 90 * time.Second,
		HighConfidence:          0.75,
		ProbeSizeHighConfidence: 4,
		ProbeSizeLowConfidence:  6,
		CacheTTL:                900,
	}
}
