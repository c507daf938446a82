// internal/models/quote.go
package models

// LineItem is a single normalized procurement line. Immutable once it has
// passed intake normalization.
type LineItem struct {
	Query string `json:"query"`
	Qty   int    `json:"qty"`
}

// InputType identifies how the caller entered the line items.
type InputType string

const (
	InputTypeText InputType = "text"
	InputTypeSKU  InputType = "sku"
	InputTypeCSV  InputType = "csv"
)

// QuoteRunRequest is the caller-facing request starting a quote run.
type QuoteRunRequest struct {
	Items     []LineItem `json:"items"`
	InputType InputType  `json:"input_type"`
	// RunID is optional; a UUID is generated when absent.
	RunID         string            `json:"run_id,omitempty"`
	SiteOverrides map[string]string `json:"site_overrides,omitempty"`
	CacheTTL      int64             `json:"cache_ttl,omitempty"`
}

// MatchStatus enumerates the outcome of a single site lookup.
type MatchStatus string

const (
	MatchStatusOK            MatchStatus = "ok"
	MatchStatusBlocked       MatchStatus = "blocked"
	MatchStatusNotFound      MatchStatus = "not_found"
	MatchStatusError         MatchStatus = "error"
	MatchStatusUnsupportedJS MatchStatus = "unsupported_js"
	MatchStatusCached        MatchStatus = "cached"
)

// SiteMatch is one vendor result for one line item.
type SiteMatch struct {
	SiteID    string      `json:"site"`
	Title     string      `json:"title,omitempty"`
	Price     *float64    `json:"price,omitempty"`
	Currency  string      `json:"currency,omitempty"`
	URL       string      `json:"url,omitempty"`
	Status    MatchStatus `json:"status"`
	Message   string      `json:"message,omitempty"`
	LatencyMS *int64      `json:"latency_ms,omitempty"`
}

// BestMatch is the lowest-priced successful, URL-bearing result for an item.
type BestMatch struct {
	SiteID string  `json:"site"`
	Price  float64 `json:"price"`
	URL    string  `json:"url"`
}

// QuoteItemResult accumulates matches and the current best offer for one
// line item. Best is recomputed after every new match.
type QuoteItemResult struct {
	Query   string      `json:"query"`
	Matches []SiteMatch `json:"matches"`
	Best    *BestMatch  `json:"best,omitempty"`
}

// RunStatus tracks the lifecycle of a quote run record.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusDone    RunStatus = "done"
	RunStatusError   RunStatus = "error"
)

// RunRecord is the persisted trace of a quote run.
type RunRecord struct {
	RunID      string    `json:"run_id"`
	Status     RunStatus `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	SitePlan   []string  `json:"site_plan"`
}
