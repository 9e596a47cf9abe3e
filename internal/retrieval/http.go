// Package retrieval provides clients for the wiki retrieval service. The
// service owns chunking, embeddings, and similarity search; this package
// only speaks its HTTP search API and maps results into domain chunks.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/verigraph/verigraph/internal/domain"
)

const defaultTimeout = 10 * time.Second

// HTTPRetriever talks to the retrieval service's search endpoint.
type HTTPRetriever struct {
	url        string
	httpClient *http.Client
}

func NewHTTPRetriever(url string) *HTTPRetriever {
	return &HTTPRetriever{
		url:        url,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchResponse struct {
	Results []struct {
		Text     string  `json:"text"`
		Score    float64 `json:"score"`
		Metadata struct {
			SourcePage string `json:"source_page"`
			Title      string `json:"title"`
		} `json:"metadata"`
	} `json:"results"`
}

func (r *HTTPRetriever) Retrieve(ctx context.Context, query string, topK int) ([]domain.ContextChunk, error) {
	body, err := json.Marshal(searchRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieval request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read retrieval response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("retrieval service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result searchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal retrieval response: %w", err)
	}

	chunks := make([]domain.ContextChunk, 0, len(result.Results))
	for _, res := range result.Results {
		chunks = append(chunks, domain.ContextChunk{
			Text:     res.Text,
			SourceID: res.Metadata.SourcePage,
			Title:    res.Metadata.Title,
			Score:    res.Score,
		})
	}
	return chunks, nil
}
