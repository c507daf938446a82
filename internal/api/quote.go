// internal/api/quote.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/models"
	"quote-orchestrator/internal/orchestrator"
)

// Runner executes one quote run, streaming events into the sink.
type Runner interface {
	Run(ctx context.Context, req *models.QuoteRunRequest, sink orchestrator.EventSink) error
}

type QuoteHandler struct {
	runner Runner
	logger logger.Logger
}

func NewQuoteHandler(runner Runner, log logger.Logger) *QuoteHandler {
	return &QuoteHandler{
		runner: runner,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// Stream starts a quote run and relays its framed events as SSE. Each
// event is flushed before the next one is processed; a client disconnect
// cancels the run through the request context.
func (h *QuoteHandler) Stream(c *gin.Context) {
	var req models.QuoteRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items must not be empty"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	streamed := false
	sink := func(ev models.StreamEvent) error {
		payload, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
			return err
		}
		c.Writer.Flush()
		streamed = true
		return nil
	}

	if err := h.runner.Run(c.Request.Context(), &req, sink); err != nil {
		if !streamed {
			// nothing was written yet, a plain status is still possible
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// the terminal error event is already on the stream
		h.logger.Warn("run ended with error", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
