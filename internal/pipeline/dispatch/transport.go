// internal/pipeline/dispatch/transport.go
package dispatch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/models"
)

// ErrStreamingOnly is the bulk endpoint's "unsupported method" signal. It
// is a routing hint, not a failure: the caller reroutes the wave to the
// streaming transport.
var ErrStreamingOnly = errors.New("STREAMING_ONLY")

const maxFrameBytes = 1 << 20

// StreamTransport drives the scrape engine's chunked event feed. Each
// framed event is parsed and handed to the callback as it arrives; the
// next frame is not read until the callback returns.
type StreamTransport struct {
	url    string
	client *http.Client
	logger logger.Logger
}

func NewStreamTransport(url string, log logger.Logger) *StreamTransport {
	return &StreamTransport{
		url: url,
		// no client timeout: the wave deadline comes from the context,
		// and a fixed timeout would kill long streams mid-read
		client: &http.Client{},
		logger: log,
	}
}

func (t *StreamTransport) Run(ctx context.Context, req *scrapeRequest, handle func(models.StreamEvent) error) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("stream transport returned %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameBytes)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}

		var ev models.StreamEvent
		if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &ev); err != nil {
			t.logger.Warn("skipping unparsable frame", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}

		if err := handle(ev); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// BulkTransport drives the scrape engine's buffered endpoint. The whole
// response is resolved before any result is processed.
type BulkTransport struct {
	url    string
	client *http.Client
	logger logger.Logger
}

func NewBulkTransport(url string, log logger.Logger) *BulkTransport {
	return &BulkTransport{
		url:    url,
		client: &http.Client{},
		logger: log,
	}
}

func (t *BulkTransport) Run(ctx context.Context, req *scrapeRequest) (*bulkResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusMethodNotAllowed {
		return nil, ErrStreamingOnly
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bulk transport returned %d", resp.StatusCode)
	}

	var out bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode bulk response: %w", err)
	}
	return &out, nil
}
