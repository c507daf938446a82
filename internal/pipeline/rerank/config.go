// internal/pipeline/rerank/config.go
package rerank

import "time"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Cap bounds how many top-ranked sites are offered for reordering.
	// The tail beyond the cap is never touched.
	Cap int
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 6 * time.Second,
		Cap:     12,
	}
}
