// internal/pipeline/candidates/config.go
package candidates

type Config struct {
	// MaxAlternates caps how many alternate category plans join the union.
	MaxAlternates int
	// HighConfidence skips alternate plans entirely, since alternates add
	// noise once the primary category is trusted.
	HighConfidence float64
}

func LoadConfig() *Config {
	return &Config{
		MaxAlternates:  3,
		HighConfidence: 0.75,
	}
}
