// Package search is the gateway to the Elasticsearch backend. It issues
// by-id gets and structured queries, and maps transport and backend faults
// onto the service error taxonomy: a 404 on a get is a normal not-found
// outcome, everything else is a backend failure that propagates.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cinemahub/catalog-service/pkg/config"
	pkgerrors "github.com/cinemahub/catalog-service/pkg/errors"
	"github.com/cinemahub/catalog-service/pkg/logger"
	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Document is a raw hit: the backend id plus the unparsed source fields.
type Document struct {
	ID     string
	Source json.RawMessage
}

// Gateway wraps the Elasticsearch client. The client is safe for concurrent
// use; the gateway adds per-call timeouts and error mapping only.
type Gateway struct {
	es      *elasticsearch.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Gateway from configuration.
func New(cfg config.ElasticConfig) (*Gateway, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  cfg.Addresses,
		Username:   cfg.Username,
		Password:   cfg.Password,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}
	return &Gateway{
		es:      es,
		timeout: cfg.RequestTimeout,
		logger:  logger.WithComponent("search-gateway"),
	}, nil
}

// GetByID fetches a single document. A missing document yields ErrNotFound;
// any other fault yields ErrBackendUnavailable.
func (g *Gateway) GetByID(ctx context.Context, index, id string) (Document, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.es.Get(index, id, g.es.Get.WithContext(ctx))
	if err != nil {
		return Document{}, g.backendError(ctx, "get", index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return Document{}, pkgerrors.ErrNotFound
	}
	if res.IsError() {
		return Document{}, g.responseError("get", index, res)
	}

	var envelope struct {
		ID     string          `json:"_id"`
		Source json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return Document{}, pkgerrors.Newf(pkgerrors.ErrBackendUnavailable,
			http.StatusServiceUnavailable, "decoding get response from %s: %v", index, err)
	}
	return Document{ID: envelope.ID, Source: envelope.Source}, nil
}

// Search executes a structured query body against an index and returns the
// hits in backend ranking order. An empty hit list is a normal result.
func (g *Gateway) Search(ctx context.Context, index string, body []byte) ([]Document, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.es.Search(
		g.es.Search.WithContext(ctx),
		g.es.Search.WithIndex(index),
		g.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, g.backendError(ctx, "search", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		// A malformed query is a backend fault too; it must not be
		// silently reported as zero results.
		return nil, g.responseError("search", index, res)
	}

	var envelope struct {
		Hits struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, pkgerrors.Newf(pkgerrors.ErrBackendUnavailable,
			http.StatusServiceUnavailable, "decoding search response from %s: %v", index, err)
	}

	docs := make([]Document, 0, len(envelope.Hits.Hits))
	for _, hit := range envelope.Hits.Hits {
		docs = append(docs, Document{ID: hit.ID, Source: hit.Source})
	}
	return docs, nil
}

// Ping verifies backend connectivity, for health checks.
func (g *Gateway) Ping(ctx context.Context) error {
	res, err := g.es.Ping(g.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping returned %s", res.Status())
	}
	return nil
}

func (g *Gateway) backendError(ctx context.Context, op, index string, err error) error {
	if ctxErr := ctx.Err(); ctxErr == context.Canceled {
		return ctxErr
	}
	g.logger.Error("backend call failed", "op", op, "index", index, "error", err)
	return pkgerrors.Newf(pkgerrors.ErrBackendUnavailable,
		http.StatusServiceUnavailable, "%s against %s: %v", op, index, err)
}

func (g *Gateway) responseError(op, index string, res *esapi.Response) error {
	g.logger.Error("backend returned error response", "op", op, "index", index, "status", res.Status())
	return pkgerrors.Newf(pkgerrors.ErrBackendUnavailable,
		http.StatusServiceUnavailable, "%s against %s returned %s", op, index, res.Status())
}
