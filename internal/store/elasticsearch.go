// internal/store/elasticsearch.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// InteractionStore appends interaction-log documents to Elasticsearch.
// Strictly best effort: the learning persister swallows its failures.
type InteractionStore struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewInteractionStore(client *elasticsearch.Client, index string, log logger.Logger) *InteractionStore {
	return &InteractionStore{client: client, index: index, logger: log}
}

func (s *InteractionStore) IndexInteraction(ctx context.Context, record models.InteractionRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index: s.index,
		Body:  bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("index interaction: %w", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("index interaction: %s", resp.Status())
	}
	return nil
}
