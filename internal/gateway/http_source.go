package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aurora-assets/internal/domain"
)

// Default HTTPSource settings.
const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultMaxRetries   = 2
	DefaultRetryDelay   = 200 * time.Millisecond
	DefaultMaxDelay     = 2 * time.Second
)

// HTTPSource fetches collections from a remote gateway's /api/{kind} endpoints.
type HTTPSource struct {
	baseURL    string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration
}

// HTTPSourceOption configures HTTPSource.
type HTTPSourceOption func(*HTTPSource)

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) HTTPSourceOption {
	return func(s *HTTPSource) {
		s.client = client
	}
}

// WithMaxRetries sets maximum retry attempts per fetch.
func WithMaxRetries(n int) HTTPSourceOption {
	return func(s *HTTPSource) {
		s.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) HTTPSourceOption {
	return func(s *HTTPSource) {
		s.retryDelay = d
	}
}

// NewHTTPSource creates an HTTPSource for the gateway at baseURL.
func NewHTTPSource(baseURL string, opts ...HTTPSourceOption) *HTTPSource {
	s := &HTTPSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     &http.Client{Timeout: DefaultFetchTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		maxDelay:   DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compile-time interface check.
var _ Source = (*HTTPSource)(nil)

// Fetch GETs /api/{kind}. Server errors and 429 are retried with backoff.
func (s *HTTPSource) Fetch(ctx context.Context, kind domain.CollectionKind) ([]domain.Record, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	body, err := s.get(ctx, "/api/"+kind.String())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", kind, err)
	}

	records, err := decodeRecords(kind, body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return records, nil
}

func (s *HTTPSource) get(ctx context.Context, path string) ([]byte, error) {
	delay := s.retryDelay
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > s.maxDelay {
				delay = s.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return respBody, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
			continue
		default:
			// client errors are not retried
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func decodeRecords(kind domain.CollectionKind, body []byte) ([]domain.Record, error) {
	switch kind {
	case domain.CollectionTokens:
		var recs []*domain.TokenRecord
		if err := json.Unmarshal(body, &recs); err != nil {
			return nil, err
		}
		return toRecords(recs), nil
	case domain.CollectionNFTs:
		var recs []*domain.NFTRecord
		if err := json.Unmarshal(body, &recs); err != nil {
			return nil, err
		}
		return toRecords(recs), nil
	case domain.CollectionChains:
		var recs []*domain.ChainRecord
		if err := json.Unmarshal(body, &recs); err != nil {
			return nil, err
		}
		for _, r := range recs {
			if r != nil && !r.Status.IsValid() {
				return nil, fmt.Errorf("chain %s: invalid status %q", r.ID, r.Status)
			}
		}
		return toRecords(recs), nil
	case domain.CollectionModules:
		var recs []*domain.ModuleRecord
		if err := json.Unmarshal(body, &recs); err != nil {
			return nil, err
		}
		return toRecords(recs), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}

func toRecords[T domain.Record](recs []T) []domain.Record {
	out := make([]domain.Record, len(recs))
	for i, r := range recs {
		out[i] = r
	}
	return out
}
