// internal/pipeline/dispatch/models.go
package dispatch

import "quote-orchestrator/internal/models"

// State is the per-run dispatch lifecycle. ERROR is terminal and reachable
// from either wave; DONE only after every triggered wave fully drains.
type State string

const (
	StateStarted   State = "STARTED"
	StateProbing   State = "PROBING"
	StateExpanding State = "EXPANDING"
	StateDone      State = "DONE"
	StateError     State = "ERROR"
)

// Consumer receives every framed event in arrival order. HandleEvent must
// complete before the next event is read from the transport.
type Consumer interface {
	HandleEvent(ev models.StreamEvent) error
}

// Request is one run's dispatch input.
type Request struct {
	RunID         string
	Items         []models.LineItem
	Category      models.Category
	Confidence    float64
	SiteOverrides map[string]string
	CacheTTL      int64
}

// Result reports what the controller did with the ranked list.
type Result struct {
	Plan     models.RankedSitePlan
	Expanded bool
	State    State
}

type scrapeOptions struct {
	CacheTTL int64 `json:"cache_ttl"`
}

// scrapeRequest is the wire shape shared by both transports.
type scrapeRequest struct {
	RunID         string            `json:"run_id"`
	Items         []models.LineItem `json:"items"`
	Category      models.Category   `json:"category"`
	SitePlan      []string          `json:"site_plan"`
	SiteOverrides map[string]string `json:"site_overrides,omitempty"`
	Options       scrapeOptions     `json:"options"`
}

type bulkItem struct {
	Query   string             `json:"query"`
	Matches []models.SiteMatch `json:"matches"`
	Best    *models.BestMatch  `json:"best,omitempty"`
}

type bulkResponse struct {
	Items      []bulkItem `json:"items"`
	DurationMS int64      `json:"duration_ms"`
}
