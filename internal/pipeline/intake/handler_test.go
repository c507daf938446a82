// internal/pipeline/intake/handler_test.go
package intake

import (
	"context"
	"testing"

	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestExecute_NormalizesAndDedupes(t *testing.T) {
	h := NewHandler(newTestLogger(t))

	input := &Input{
		InputType: models.InputTypeText,
		Items: []models.LineItem{
			{Query: "  paper   towels ", Qty: 2},
			{Query: "Paper Towels", Qty: 1},
			{Query: "", Qty: 3},
			{Query: "   ", Qty: 3},
			{Query: "usb-c cable", Qty: 0},
		},
	}

	output, err := h.Execute(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, []models.LineItem{
		{Query: "paper towels", Qty: 2},
		{Query: "usb-c cable", Qty: 1},
	}, output.Items)
}

func TestExecute_AllItemsBlank(t *testing.T) {
	h := NewHandler(newTestLogger(t))

	input := &Input{
		InputType: models.InputTypeText,
		Items: []models.LineItem{
			{Query: "", Qty: 1},
			{Query: " \t ", Qty: 1},
		},
	}

	_, err := h.Execute(context.Background(), input)
	assert.ErrorIs(t, err, ErrNoUsableItems)
}

func TestExecute_RejectsBadInputType(t *testing.T) {
	h := NewHandler(newTestLogger(t))

	input := &Input{
		InputType: models.InputType("xml"),
		Items:     []models.LineItem{{Query: "drill", Qty: 1}},
	}

	_, err := h.Execute(context.Background(), input)
	assert.ErrorIs(t, err, ErrBadInputType)
}

func TestExecute_RejectsOversizedRequest(t *testing.T) {
	h := NewHandler(newTestLogger(t))

	items := make([]models.LineItem, MaxItems+1)
	for i := range items {
		items[i] = models.LineItem{Query: "bolt", Qty: 1}
	}

	_, err := h.Execute(context.Background(), &Input{InputType: models.InputTypeText, Items: items})
	assert.ErrorIs(t, err, ErrTooManyItems)
}

func TestExecute_QtyFlooredAtOne(t *testing.T) {
	h := NewHandler(newTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{
		InputType: models.InputTypeSKU,
		Items:     []models.LineItem{{Query: "SKU-9981", Qty: -4}},
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, output.Items[0].Qty)
}
