package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"aurora-assets/internal/observability"
)

// Default configuration values.
const (
	// DefaultTimeout bounds one attempt of a read-only call.
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// JSON-RPC error code a wallet returns when the user declines a request.
const codeUserRejected = 4001

// HTTPClient is a wallet JSON-RPC 2.0 client over HTTP.
//
// Read-only calls (getSignatureStatuses) are retried with backoff and each
// attempt is bounded by the client timeout. Wallet calls that prompt the user
// or broadcast a transaction are sent exactly once and are bounded only by
// the caller's context, since the user may take any time to answer.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout bounds each attempt of a read-only call. Zero disables it.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new wallet RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{},
		timeout:     DefaultTimeout,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Is maps wallet error codes onto package sentinels.
func (e *rpcError) Is(target error) bool {
	return target == ErrUserRejected && e.Code == codeUserRejected
}

// call performs a read-only JSON-RPC call. Transport failures, 429 and 5xx
// responses are retried with exponential backoff; JSON-RPC errors and other
// 4xx responses are returned at once.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	return c.invoke(ctx, method, params, result, c.maxRetries, c.timeout)
}

// callOnce performs a JSON-RPC call that must not be repeated: any failure,
// including one after the wallet may already have acted, is returned.
func (c *HTTPClient) callOnce(ctx context.Context, method string, params []interface{}, result interface{}) error {
	return c.invoke(ctx, method, params, result, 0, 0)
}

// invoke sends method up to retries+1 times. A positive timeout bounds each attempt.
func (c *HTTPClient) invoke(ctx context.Context, method string, params []interface{}, result interface{}, retries int, timeout time.Duration) error {
	start := time.Now()
	defer func() {
		observability.RecordRPCLatency(method, time.Since(start).Seconds())
	}()

	reqID := c.requestID.Add(1)
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			wait := delay
			var ra retryAfterError
			if errors.As(lastErr, &ra) && ra.after > 0 {
				wait = min(ra.after, c.maxDelay)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			delay = min(time.Duration(float64(delay)*c.backoffMult), c.maxDelay)
		}

		raw, err := c.attempt(ctx, body, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !isRetryable(err) {
				return err
			}
			lastErr = err
			continue
		}

		var resp rpcResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}
		if resp.ID != reqID {
			return fmt.Errorf("%s: response id %d does not match request %d", method, resp.ID, reqID)
		}
		if resp.Error != nil {
			return resp.Error
		}
		if result != nil && resp.Result != nil {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("unmarshal %s result: %w", method, err)
			}
		}
		return nil
	}

	if retries == 0 {
		return fmt.Errorf("%s: %w", method, lastErr)
	}
	return fmt.Errorf("%s: max retries exceeded: %w", method, lastErr)
}

func (c *HTTPClient) attempt(ctx context.Context, body []byte, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return c.post(ctx, body)
}

// post sends one request and returns the body of a 200 response.
func (c *HTTPClient) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, permanentError{fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return raw, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, retryAfterError{after: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw)
	default:
		return nil, permanentError{fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw)}
	}
}

// permanentError marks a failure that another attempt cannot fix.
type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// retryAfterError is a 429 with the server's requested pause, if any.
type retryAfterError struct{ after time.Duration }

func (e retryAfterError) Error() string { return "rate limited (429)" }

func isRetryable(err error) bool {
	var p permanentError
	return !errors.As(err, &p)
}

// parseRetryAfter reads a delay-seconds Retry-After value. HTTP dates and
// garbage yield zero.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// RequestAccounts asks the wallet to authorize and returns the exposed accounts.
// Every account must be a valid signer key.
func (c *HTTPClient) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := c.callOnce(ctx, "wallet_requestAccounts", nil, &accounts); err != nil {
		return nil, err
	}

	for _, acct := range accounts {
		if err := ValidateAccount(acct); err != nil {
			return nil, err
		}
	}
	return accounts, nil
}

// SendTransaction asks the wallet to sign and submit tx. It is never
// retried: a lost response may hide a broadcast transaction.
func (c *HTTPClient) SendTransaction(ctx context.Context, tx Transaction) (string, error) {
	var signature string
	if err := c.callOnce(ctx, "wallet_sendTransaction", []interface{}{tx}, &signature); err != nil {
		return "", err
	}
	if signature == "" {
		return "", fmt.Errorf("wallet returned empty signature")
	}
	return signature, nil
}

// GetSignatureStatuses returns statuses for signatures. Unknown signatures yield nil entries.
func (c *HTTPClient) GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error) {
	params := []interface{}{
		signatures,
		map[string]interface{}{"searchTransactionHistory": true},
	}

	var result getSignatureStatusesResult
	if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return nil, err
	}

	statuses := make([]*SignatureStatus, len(result.Value))
	for i, v := range result.Value {
		if v == nil {
			continue
		}
		statuses[i] = &SignatureStatus{
			Slot:               v.Slot,
			Confirmations:      v.Confirmations,
			ConfirmationStatus: v.ConfirmationStatus,
			Err:                v.Err,
		}
	}
	return statuses, nil
}

// getSignatureStatusesResult is the raw RPC response for getSignatureStatuses.
type getSignatureStatusesResult struct {
	Value []*getSignatureStatusValue `json:"value"`
}

type getSignatureStatusValue struct {
	Slot               int64       `json:"slot"`
	Confirmations      *int64      `json:"confirmations"`
	ConfirmationStatus string      `json:"confirmationStatus"`
	Err                interface{} `json:"err"`
}
