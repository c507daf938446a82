// internal/pipeline/ranking/config.go
package ranking

type Config struct {
	// ExploreRate is the fraction of runs that force cold-site exploration.
	ExploreRate float64
	// ColdRunThreshold marks a site as cold within a cluster when its
	// observed runs fall below it.
	ColdRunThreshold int64
}

func LoadConfig() *Config {
	return &Config{
		ExploreRate:      0.16,
		ColdRunThreshold: 3,
	}
}
