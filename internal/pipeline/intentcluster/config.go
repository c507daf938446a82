// internal/pipeline/intentcluster/config.go
package intentcluster

import "time"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// FallbackConfidence is reported by the token-hash path.
	FallbackConfidence float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:            6 * time.Second,
		FallbackConfidence: 0.38,
	}
}
