// internal/pipeline/dispatch/controller.go
package dispatch

import (
	"context"
	"errors"
	"time"

	stderrors "quote-orchestrator/internal/common/errors"
	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/common/metrics"
	"quote-orchestrator/internal/models"
)

const (
	StageName = "staged-dispatch"
)

// WaveRecorder observes per-wave dispatch timing on an external meter.
type WaveRecorder interface {
	RecordWaveDuration(ctx context.Context, duration time.Duration, wave string)
}

// Controller owns the two-wave dispatch policy: the probe wave always
// runs; the expansion wave runs only when probe coverage is weak.
type Controller struct {
	config   *Config
	stream   *StreamTransport
	bulk     *BulkTransport
	recorder WaveRecorder
	logger   logger.Logger
}

func NewController(config *Config, log logger.Logger) *Controller {
	log = log.WithFields(map[string]interface{}{"stage": StageName})
	return &Controller{
		config: config,
		stream: NewStreamTransport(config.StreamURL, log),
		bulk:   NewBulkTransport(config.BulkURL, log),
		logger: log,
	}
}

// SetWaveRecorder attaches an optional meter for wave timing.
func (c *Controller) SetWaveRecorder(r WaveRecorder) {
	c.recorder = r
}

func (c *Controller) recordWave(ctx context.Context, started time.Time, wave string) {
	if c.recorder != nil {
		c.recorder.RecordWaveDuration(ctx, time.Since(started), wave)
	}
}

// ProbeSize picks the probe wave size from classification confidence.
func (c *Controller) ProbeSize(confidence float64) int {
	if confidence >= c.config.HighConfidence {
		return c.config.ProbeSizeHighConfidence
	}
	return c.config.ProbeSizeLowConfidence
}

// SplitPlan cuts the ranked list into the probe prefix and expansion
// remainder.
func (c *Controller) SplitPlan(ranked []string, confidence float64) models.RankedSitePlan {
	size := c.ProbeSize(confidence)
	if size > len(ranked) {
		size = len(ranked)
	}
	return models.RankedSitePlan{
		Probe:     ranked[:size],
		Expansion: ranked[size:],
	}
}

// shouldExpand is the coverage policy: cheap wins stop early, sparse or
// empty probe results trigger the second wave.
func shouldExpand(totalOK int, itemsWithOK int, itemCount int, expansionSize int) bool {
	if expansionSize == 0 {
		return false
	}
	threshold := itemCount * 2
	if threshold > 4 {
		threshold = 4
	}
	return totalOK == 0 || itemsWithOK < itemCount || totalOK < threshold
}

// Execute runs the staged dispatch for one run. Events are forwarded to
// the consumer in arrival order. The returned Result carries the final
// state even when an error is returned.
func (c *Controller) Execute(ctx context.Context, req *Request, ranked []string, consumer Consumer) (*Result, error) {
	plan := c.SplitPlan(ranked, req.Confidence)
	result := &Result{Plan: plan}

	cacheTTL := req.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = c.config.CacheTTL
	}

	counter := &waveCounter{consumer: consumer, itemsOK: map[int]bool{}}

	state := StateStarted
	transition := func(next State) {
		c.logger.Debug("state transition", map[string]interface{}{
			"runId": req.RunID,
			"from":  string(state),
			"to":    string(next),
		})
		state = next
	}

	transition(StateProbing)
	metrics.SitesDispatchedTotal.WithLabelValues("probe").Add(float64(len(plan.Probe)))

	probeStart := time.Now()
	probeCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	err := c.stream.Run(probeCtx, c.scrapeRequest(req, plan.Probe, cacheTTL), counter.HandleEvent)
	cancel()
	c.recordWave(ctx, probeStart, "probe")
	if err != nil {
		transition(StateError)
		result.State = state
		return result, c.wrapProbeErr(err)
	}

	if shouldExpand(counter.totalOK, len(counter.itemsOK), len(req.Items), len(plan.Expansion)) {
		result.Expanded = true
		metrics.ExpansionWavesTotal.Inc()
		metrics.SitesDispatchedTotal.WithLabelValues("expansion").Add(float64(len(plan.Expansion)))
		transition(StateExpanding)

		expansionStart := time.Now()
		err := c.runExpansion(ctx, req, plan.Expansion, cacheTTL, counter)
		c.recordWave(ctx, expansionStart, "expansion")
		if err != nil {
			transition(StateError)
			result.State = state
			return result, stderrors.NewExpansionTransportError(err)
		}
	}

	transition(StateDone)
	result.State = state
	return result, nil
}

// runExpansion tries the bulk transport first and reroutes to streaming
// when the endpoint only speaks the chunked protocol.
func (c *Controller) runExpansion(ctx context.Context, req *Request, sitePlan []string, cacheTTL int64, counter *waveCounter) error {
	expCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	scrapeReq := c.scrapeRequest(req, sitePlan, cacheTTL)

	bulk, err := c.bulk.Run(expCtx, scrapeReq)
	if errors.Is(err, ErrStreamingOnly) {
		c.logger.Info("bulk endpoint is streaming only, rerouting expansion", map[string]interface{}{
			"runId": req.RunID,
		})
		return c.stream.Run(expCtx, scrapeReq, counter.HandleEvent)
	}
	if err != nil {
		return err
	}

	return c.replayBulk(req, bulk, counter)
}

// replayBulk converts a resolved bulk response into the same event shapes
// the streaming transport produces, in item order.
func (c *Controller) replayBulk(req *Request, bulk *bulkResponse, counter *waveCounter) error {
	index := make(map[string]int, len(req.Items))
	for i, item := range req.Items {
		index[item.Query] = i
	}

	for i, item := range bulk.Items {
		itemIndex := i
		if at, ok := index[item.Query]; ok {
			itemIndex = at
		}
		idx := itemIndex

		for _, match := range item.Matches {
			m := match
			ev := models.StreamEvent{
				Type:      models.EventMatch,
				ItemIndex: &idx,
				Query:     item.Query,
				Match:     &m,
			}
			if err := counter.HandleEvent(ev); err != nil {
				return err
			}
		}

		done := models.StreamEvent{
			Type:      models.EventItemDone,
			ItemIndex: &idx,
			Query:     item.Query,
			Best:      item.Best,
		}
		if err := counter.HandleEvent(done); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) scrapeRequest(req *Request, sitePlan []string, cacheTTL int64) *scrapeRequest {
	return &scrapeRequest{
		RunID:         req.RunID,
		Items:         req.Items,
		Category:      req.Category,
		SitePlan:      sitePlan,
		SiteOverrides: req.SiteOverrides,
		Options:       scrapeOptions{CacheTTL: cacheTTL},
	}
}

func (c *Controller) wrapProbeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return stderrors.NewTransportTimeoutError("probe")
	}
	return stderrors.NewProbeTransportError(err)
}

// waveCounter forwards every event and tracks probe coverage for the
// expansion decision.
type waveCounter struct {
	consumer Consumer
	totalOK  int
	itemsOK  map[int]bool
}

func (w *waveCounter) HandleEvent(ev models.StreamEvent) error {
	if ev.Type == models.EventMatch && ev.Match != nil && ev.Match.Status == models.MatchStatusOK {
		w.totalOK++
		if ev.ItemIndex != nil {
			w.itemsOK[*ev.ItemIndex] = true
		}
	}
	return w.consumer.HandleEvent(ev)
}
