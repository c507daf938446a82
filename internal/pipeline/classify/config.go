// internal/pipeline/classify/config.go
package classify

import "time"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// FallbackConfidence is reported by the keyword path to signal lower
	// trust to the staged dispatch decision.
	FallbackConfidence float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:            6 * time.Second,
		FallbackConfidence: 0.38,
	}
}
