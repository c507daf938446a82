// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/models"
	"quote-orchestrator/internal/sites"

	"github.com/lib/pq"
)

// CatalogStore reads and folds the global per-site catalog rows.
type CatalogStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewCatalogStore(db *sql.DB, log logger.Logger) *CatalogStore {
	return &CatalogStore{db: db, logger: log}
}

const catalogSelectQuery = `
	SELECT site_id, category, domain, search_url_template, enabled, priority,
	       reliability_score, block_rate, avg_latency_ms,
	       runs_count, success_count, blocked_count, unsupported_count,
	       error_count, not_found_count, last_seen_at
	FROM site_catalog
	WHERE site_id = ANY($1)`

// GetEntries fetches catalog rows for exactly the given candidate set.
// Sites without a row are simply absent from the map.
func (s *CatalogStore) GetEntries(ctx context.Context, siteIDs []string) (map[string]models.SiteCatalogEntry, error) {
	if len(siteIDs) == 0 {
		return map[string]models.SiteCatalogEntry{}, nil
	}

	rows, err := s.db.QueryContext(ctx, catalogSelectQuery, pq.Array(siteIDs))
	if err != nil {
		return nil, fmt.Errorf("query site catalog: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.SiteCatalogEntry, len(siteIDs))
	for rows.Next() {
		var e models.SiteCatalogEntry
		var category string
		if err := rows.Scan(
			&e.SiteID, &category, &e.Domain, &e.SearchURLTemplate, &e.Enabled, &e.Priority,
			&e.ReliabilityScore, &e.BlockRate, &e.AvgLatencyMS,
			&e.Counters.Runs, &e.Counters.Success, &e.Counters.Blocked, &e.Counters.Unsupported,
			&e.Counters.Errors, &e.Counters.NotFound, &e.LastSeenAt,
		); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		e.Category = models.Category(category)
		e.ReliabilityScore = models.ClampReliability(e.ReliabilityScore)
		e.BlockRate = models.Clamp01(e.BlockRate)
		out[e.SiteID] = e
	}
	return out, rows.Err()
}

// catalogFoldQuery folds one run's counters in a single statement. Every
// column reference on the right-hand side sees the pre-update value, so
// the arithmetic is atomic per row and concurrent folds cannot lose
// increments.
const catalogFoldQuery = `
	UPDATE site_catalog SET
	    runs_count        = runs_count + $2,
	    success_count     = success_count + $3,
	    blocked_count     = blocked_count + $4,
	    unsupported_count = unsupported_count + $5,
	    error_count       = error_count + $6,
	    not_found_count   = not_found_count + $7,
	    avg_latency_ms    = CASE WHEN $9 > 0
	        THEN ROUND((avg_latency_ms * GREATEST(runs_count, 1) + $8) / (GREATEST(runs_count, 1) + $9))
	        ELSE avg_latency_ms END,
	    block_rate        = LEAST(GREATEST((blocked_count + $4 + unsupported_count + $5)::numeric / GREATEST(runs_count + $2, 1), 0), 1),
	    reliability_score = LEAST(GREATEST((success_count + $3)::numeric / GREATEST(runs_count + $2, 1), 0.02), 0.99),
	    last_seen_at      = NOW()
	WHERE site_id = $1`

const catalogInsertQuery = `
	INSERT INTO site_catalog (
	    site_id, category, domain, search_url_template, enabled, priority,
	    reliability_score, block_rate, avg_latency_ms,
	    runs_count, success_count, blocked_count, unsupported_count,
	    error_count, not_found_count, last_seen_at
	) VALUES ($1, $2, $3, $4, TRUE, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())`

// FoldOutcome additively merges one run's observations into a site's row,
// creating the row on first sight of the site.
func (s *CatalogStore) FoldOutcome(ctx context.Context, o models.SiteOutcome) error {
	c := o.Counters
	res, err := s.db.ExecContext(ctx, catalogFoldQuery,
		o.SiteID, c.Runs, c.Success, c.Blocked, c.Unsupported, c.Errors, c.NotFound,
		o.LatencySumMS, o.LatencySamples,
	)
	if err != nil {
		return fmt.Errorf("fold catalog row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	return s.insertFresh(ctx, o)
}

func (s *CatalogStore) insertFresh(ctx context.Context, o models.SiteOutcome) error {
	c := o.Counters

	domain, template := "", ""
	if site, ok := sites.Lookup(o.SiteID); ok {
		domain = site.Domain
		template = site.SearchURLTemplate
	}

	avgLatency := int64(2200)
	if o.LatencySamples > 0 {
		avgLatency = o.LatencySumMS / o.LatencySamples
	}
	runs := c.Runs
	if runs < 1 {
		runs = 1
	}
	reliability := models.ClampReliability(float64(c.Success) / float64(runs))
	blockRate := models.Clamp01(float64(c.Blocked+c.Unsupported) / float64(runs))

	_, err := s.db.ExecContext(ctx, catalogInsertQuery,
		o.SiteID, string(models.CategoryUnknown), domain, template, 100,
		reliability, blockRate, avgLatency,
		c.Runs, c.Success, c.Blocked, c.Unsupported, c.Errors, c.NotFound,
	)
	if err != nil {
		return fmt.Errorf("insert catalog row: %w", err)
	}
	return nil
}

// PlanStore reads the persisted category to site-list mapping.
type PlanStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPlanStore(db *sql.DB, log logger.Logger) *PlanStore {
	return &PlanStore{db: db, logger: log}
}

func (s *PlanStore) GetCategorySites(ctx context.Context, category models.Category) ([]string, error) {
	var ids []string
	err := s.db.QueryRowContext(ctx,
		`SELECT site_ids FROM category_site_plans WHERE category = $1`,
		string(category),
	).Scan(pq.Array(&ids))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query category plan: %w", err)
	}
	return ids, nil
}

// RunStore appends run and match records. Match rows are append-only.
type RunStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRunStore(db *sql.DB, log logger.Logger) *RunStore {
	return &RunStore{db: db, logger: log}
}

func (s *RunStore) InsertRun(ctx context.Context, runID string, sitePlan []string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quote_runs (run_id, status, site_plan, created_at) VALUES ($1, $2, $3, NOW())`,
		runID, string(models.RunStatusRunning), pq.Array(sitePlan),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *RunStore) UpdateRunStatus(ctx context.Context, runID string, status models.RunStatus, durationMS int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE quote_runs SET status = $2, duration_ms = $3, finished_at = NOW() WHERE run_id = $1`,
		runID, string(status), durationMS,
	)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	return nil
}

func (s *RunStore) InsertMatch(ctx context.Context, runID string, itemIndex int, match models.SiteMatch) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quote_matches (run_id, item_index, site_id, status, price, currency, url, latency_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		runID, itemIndex, match.SiteID, string(match.Status),
		match.Price, match.Currency, match.URL, match.LatencyMS,
	)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}
