// internal/pipeline/intake/handler.go
package intake

import (
	"context"
	"errors"
	"strings"

	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/models"
)

const (
	StageName = "intake-normalize"

	// MaxItems bounds a single run; oversized requests are rejected
	// rather than truncated.
	MaxItems = 50
)

var (
	ErrNoUsableItems  = errors.New("NO_USABLE_ITEMS")
	ErrTooManyItems   = errors.New("TOO_MANY_ITEMS")
	ErrBadInputType   = errors.New("BAD_INPUT_TYPE")
)

type Handler struct {
	logger logger.Logger
}

func NewHandler(log logger.Logger) *Handler {
	return &Handler{
		logger: log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Execute trims and dedupes the raw line items. Queries are whitespace
// folded, empties dropped, duplicates removed case-insensitively keeping
// the first occurrence, and quantities floored at 1.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch input.InputType {
	case models.InputTypeText, models.InputTypeSKU, models.InputTypeCSV, "":
	default:
		return nil, ErrBadInputType
	}

	if len(input.Items) > MaxItems {
		return nil, ErrTooManyItems
	}

	seen := make(map[string]bool, len(input.Items))
	out := make([]models.LineItem, 0, len(input.Items))
	dropped := 0

	for _, item := range input.Items {
		query := foldWhitespace(item.Query)
		if query == "" {
			dropped++
			continue
		}

		key := strings.ToLower(query)
		if seen[key] {
			dropped++
			continue
		}
		seen[key] = true

		qty := item.Qty
		if qty < 1 {
			qty = 1
		}
		out = append(out, models.LineItem{Query: query, Qty: qty})
	}

	if len(out) == 0 {
		return nil, ErrNoUsableItems
	}

	if dropped > 0 {
		h.logger.Debug("dropped unusable items", map[string]interface{}{
			"dropped": dropped,
			"kept":    len(out),
		})
	}

	return &Output{Items: out}, nil
}

// foldWhitespace trims the query and collapses internal whitespace runs to
// a single space.
func foldWhitespace(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
