// internal/pipeline/aggregate/aggregator.go
package aggregate

import (
	"context"
	"math"

	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/models"
)

const (
	StageName = "stream-aggregate"
)

// MatchRecorder appends per-match rows. Writes are best effort: a failure
// is logged and swallowed, never surfaced to the caller stream.
type MatchRecorder interface {
	InsertMatch(ctx context.Context, runID string, itemIndex int, match models.SiteMatch) error
}

// Aggregator consumes the dispatch event feed incrementally, maintaining
// per-item match lists, the current best offer, and per-site outcome
// counters for the learning fold. Every event is forwarded onward before
// the next one is handled.
type Aggregator struct {
	ctx      context.Context
	runID    string
	results  []models.QuoteItemResult
	outcomes map[string]*models.SiteOutcome
	forward  func(models.StreamEvent) error
	recorder MatchRecorder
	logger   logger.Logger
}

func NewAggregator(ctx context.Context, runID string, items []models.LineItem, forward func(models.StreamEvent) error, recorder MatchRecorder, log logger.Logger) *Aggregator {
	results := make([]models.QuoteItemResult, len(items))
	for i, item := range items {
		results[i] = models.QuoteItemResult{Query: item.Query, Matches: []models.SiteMatch{}}
	}
	return &Aggregator{
		ctx:      ctx,
		runID:    runID,
		results:  results,
		outcomes: map[string]*models.SiteOutcome{},
		forward:  forward,
		recorder: recorder,
		logger:   log.WithFields(map[string]interface{}{"stage": StageName, "runId": runID}),
	}
}

// HandleEvent implements the dispatch consumer contract.
func (a *Aggregator) HandleEvent(ev models.StreamEvent) error {
	switch ev.Type {
	case models.EventMatch:
		return a.handleMatch(ev)
	case models.EventItemDone:
		return a.handleItemDone(ev)
	default:
		return a.forward(ev)
	}
}

func (a *Aggregator) handleMatch(ev models.StreamEvent) error {
	idx, ok := a.itemIndex(ev)
	if !ok || ev.Match == nil {
		a.logger.Warn("dropping malformed match event", map[string]interface{}{
			"hasIndex": ev.ItemIndex != nil,
		})
		return nil
	}

	a.results[idx].Matches = append(a.results[idx].Matches, *ev.Match)
	a.results[idx].Best = bestOf(a.results[idx].Matches)
	a.foldOutcome(*ev.Match)

	out := ev
	out.Query = a.results[idx].Query
	if err := a.forward(out); err != nil {
		return err
	}

	if a.recorder != nil {
		if err := a.recorder.InsertMatch(a.ctx, a.runID, idx, *ev.Match); err != nil {
			a.logger.Warn("match insert failed", map[string]interface{}{
				"site":  ev.Match.SiteID,
				"error": err.Error(),
			})
		}
	}
	return nil
}

func (a *Aggregator) handleItemDone(ev models.StreamEvent) error {
	idx, ok := a.itemIndex(ev)
	if !ok {
		return nil
	}

	// a bulk-wave best hint only fills the gap when our own recompute
	// found nothing; our own result always wins when both exist
	if a.results[idx].Best == nil && ev.Best != nil {
		a.results[idx].Best = ev.Best
	}

	out := ev
	out.Query = a.results[idx].Query
	out.Best = a.results[idx].Best
	return a.forward(out)
}

// Results returns the per-item accumulation.
func (a *Aggregator) Results() []models.QuoteItemResult {
	return a.results
}

// Outcomes returns this run's per-site counters for the learning fold.
func (a *Aggregator) Outcomes() []models.SiteOutcome {
	out := make([]models.SiteOutcome, 0, len(a.outcomes))
	for _, o := range a.outcomes {
		out = append(out, *o)
	}
	return out
}

func (a *Aggregator) itemIndex(ev models.StreamEvent) (int, bool) {
	if ev.ItemIndex == nil {
		return 0, false
	}
	idx := *ev.ItemIndex
	if idx < 0 || idx >= len(a.results) {
		return 0, false
	}
	return idx, true
}

// foldOutcome accumulates learning counters. Cache hits reflect no fresh
// observation of the site and fold nothing.
func (a *Aggregator) foldOutcome(match models.SiteMatch) {
	if match.Status == models.MatchStatusCached {
		return
	}

	o := a.outcomes[match.SiteID]
	if o == nil {
		o = &models.SiteOutcome{SiteID: match.SiteID}
		a.outcomes[match.SiteID] = o
	}

	o.Counters.Runs++
	switch match.Status {
	case models.MatchStatusOK:
		o.Counters.Success++
	case models.MatchStatusBlocked:
		o.Counters.Blocked++
	case models.MatchStatusUnsupportedJS:
		o.Counters.Unsupported++
	case models.MatchStatusNotFound:
		o.Counters.NotFound++
	default:
		o.Counters.Errors++
	}

	if match.LatencyMS != nil {
		o.LatencySumMS += *match.LatencyMS
		o.LatencySamples++
	}
}

// bestOf recomputes the best offer: lowest price among successful,
// URL-bearing matches with a finite price, first seen winning ties.
func bestOf(matches []models.SiteMatch) *models.BestMatch {
	var best *models.BestMatch
	for _, m := range matches {
		if m.Status != models.MatchStatusOK || m.Price == nil || m.URL == "" {
			continue
		}
		price := *m.Price
		if math.IsNaN(price) || math.IsInf(price, 0) {
			continue
		}
		if best == nil || price < best.Price {
			best = &models.BestMatch{SiteID: m.SiteID, Price: price, URL: m.URL}
		}
	}
	return best
}
