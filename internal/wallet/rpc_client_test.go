package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const (
	testSigner    = "DMV6HZyDvduqHLDGPAfEj6X7Qfm1RTJn4LG6udKM9Lad" // on-curve
	testOffCurve  = "EU1aRZYwnSp23maxnjv5jVej71P1nFFb6we1x3Zy89RB"
	testSignature = "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"
)

type rpcHandler func(method string, params []interface{}) (interface{}, *rpcError)

// newRPCServer serves JSON-RPC requests through handle.
func newRPCServer(t *testing.T, handle rpcHandler) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}

		result, rpcErr := handle(req.Method, req.Params)
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
		}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHTTPClient_RequestAccounts(t *testing.T) {
	server := newRPCServer(t, func(method string, _ []interface{}) (interface{}, *rpcError) {
		if method != "wallet_requestAccounts" {
			t.Errorf("expected method wallet_requestAccounts, got %s", method)
		}
		return []string{testSigner}, nil
	})

	client := NewHTTPClient(server.URL)
	accounts, err := client.RequestAccounts(context.Background())
	if err != nil {
		t.Fatalf("RequestAccounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0] != testSigner {
		t.Errorf("expected [%s], got %v", testSigner, accounts)
	}
}

func TestHTTPClient_RequestAccounts_InvalidKey(t *testing.T) {
	for _, account := range []string{testOffCurve, "not-base58!", ""} {
		server := newRPCServer(t, func(string, []interface{}) (interface{}, *rpcError) {
			return []string{account}, nil
		})

		client := NewHTTPClient(server.URL)
		_, err := client.RequestAccounts(context.Background())
		if !errors.Is(err, ErrInvalidAccount) {
			t.Errorf("account %q: expected ErrInvalidAccount, got %v", account, err)
		}
	}
}

func TestHTTPClient_UserRejected_NotRetried(t *testing.T) {
	var calls atomic.Int32
	server := newRPCServer(t, func(string, []interface{}) (interface{}, *rpcError) {
		calls.Add(1)
		return nil, &rpcError{Code: 4001, Message: "User rejected the request."}
	})

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))
	_, err := client.RequestAccounts(context.Background())
	if !errors.Is(err, ErrUserRejected) {
		t.Fatalf("expected ErrUserRejected, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestHTTPClient_OtherRPCError_NotUserRejected(t *testing.T) {
	server := newRPCServer(t, func(string, []interface{}) (interface{}, *rpcError) {
		return nil, &rpcError{Code: -32603, Message: "internal"}
	})

	client := NewHTTPClient(server.URL)
	_, err := client.SendTransaction(context.Background(), MintTransaction(testSigner, "ipfs://x"))
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrUserRejected) {
		t.Error("internal error must not map to ErrUserRejected")
	}
}

func TestHTTPClient_SendTransaction(t *testing.T) {
	server := newRPCServer(t, func(method string, params []interface{}) (interface{}, *rpcError) {
		if method != "wallet_sendTransaction" {
			t.Errorf("expected method wallet_sendTransaction, got %s", method)
		}
		if len(params) != 1 {
			t.Errorf("expected 1 param, got %d", len(params))
			return testSignature, nil
		}
		tx, ok := params[0].(map[string]interface{})
		if !ok {
			t.Errorf("expected object param, got %T", params[0])
			return testSignature, nil
		}
		if tx["instruction"] != InstructionMint {
			t.Errorf("expected instruction mint, got %v", tx["instruction"])
		}
		if tx["signer"] != testSigner {
			t.Errorf("expected signer %s, got %v", testSigner, tx["signer"])
		}
		if tx["metadataUri"] != "ipfs://dream" {
			t.Errorf("expected metadataUri ipfs://dream, got %v", tx["metadataUri"])
		}
		return testSignature, nil
	})

	client := NewHTTPClient(server.URL)
	sig, err := client.SendTransaction(context.Background(), MintTransaction(testSigner, "ipfs://dream"))
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	if sig != testSignature {
		t.Errorf("expected signature %s, got %s", testSignature, sig)
	}
}

func TestHTTPClient_SendTransaction_EmptySignature(t *testing.T) {
	server := newRPCServer(t, func(string, []interface{}) (interface{}, *rpcError) {
		return "", nil
	})

	client := NewHTTPClient(server.URL)
	if _, err := client.SendTransaction(context.Background(), MintTransaction(testSigner, "ipfs://x")); err == nil {
		t.Error("expected error for empty signature")
	}
}

func TestHTTPClient_GetSignatureStatuses(t *testing.T) {
	server := newRPCServer(t, func(method string, params []interface{}) (interface{}, *rpcError) {
		if method != "getSignatureStatuses" {
			t.Errorf("expected method getSignatureStatuses, got %s", method)
		}
		if len(params) != 2 {
			t.Errorf("expected 2 params, got %d", len(params))
		}
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 200},
			"value": []interface{}{
				nil,
				map[string]interface{}{
					"slot":               150,
					"confirmations":      nil,
					"confirmationStatus": "finalized",
					"err":                nil,
				},
			},
		}, nil
	})

	client := NewHTTPClient(server.URL)
	statuses, err := client.GetSignatureStatuses(context.Background(), []string{"unknown", testSignature})
	if err != nil {
		t.Fatalf("GetSignatureStatuses: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0] != nil {
		t.Errorf("expected nil status for unknown signature, got %+v", statuses[0])
	}
	if statuses[1] == nil || statuses[1].Slot != 150 || !statuses[1].IsConfirmed() {
		t.Errorf("unexpected status: %+v", statuses[1])
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value":   []interface{}{nil},
			},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithRetryDelay(time.Millisecond),
		WithMaxDelay(5*time.Millisecond),
	)
	statuses, err := client.GetSignatureStatuses(context.Background(), []string{testSignature})
	if err != nil {
		t.Fatalf("GetSignatureStatuses: %v", err)
	}
	if len(statuses) != 1 {
		t.Errorf("expected 1 status, got %d", len(statuses))
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_MaxRetriesExceeded(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(2),
		WithRetryDelay(time.Millisecond),
	)
	if _, err := client.GetSignatureStatuses(context.Background(), []string{testSignature}); err == nil {
		t.Fatal("expected error after retries")
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_SendTransaction_NotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))
	if _, err := client.SendTransaction(context.Background(), MintTransaction(testSigner, "ipfs://x")); err == nil {
		t.Fatal("expected error for 502")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected exactly 1 POST, got %d", attempts.Load())
	}
}

func TestHTTPClient_RequestAccounts_NotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))
	if _, err := client.RequestAccounts(context.Background()); err == nil {
		t.Fatal("expected error for 503")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected exactly 1 POST, got %d", attempts.Load())
	}
}

func TestHTTPClient_InteractiveCallOutlivesTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		// The user takes longer to approve than one query attempt may last.
		time.Sleep(100 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  []string{testSigner},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithTimeout(20*time.Millisecond))
	accounts, err := client.RequestAccounts(context.Background())
	if err != nil {
		t.Fatalf("RequestAccounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0] != testSigner {
		t.Errorf("unexpected accounts: %v", accounts)
	}
}

func TestHTTPClient_InteractiveCallBoundedByContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	client := NewHTTPClient(server.URL)
	_, err := client.SendTransaction(ctx, MintTransaction(testSigner, "ipfs://x"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestHTTPClient_QueryAttemptTimeout(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if attempts.Add(1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value":   []interface{}{nil},
			},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithTimeout(20*time.Millisecond),
		WithRetryDelay(time.Millisecond),
	)
	if _, err := client.GetSignatureStatuses(context.Background(), []string{testSignature}); err != nil {
		t.Fatalf("GetSignatureStatuses: %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestValidateAccount(t *testing.T) {
	if err := ValidateAccount(testSigner); err != nil {
		t.Errorf("on-curve key rejected: %v", err)
	}
	if err := ValidateAccount(testOffCurve); !errors.Is(err, ErrInvalidAccount) {
		t.Errorf("off-curve key: expected ErrInvalidAccount, got %v", err)
	}
	if err := ValidateAccount("abc"); !errors.Is(err, ErrInvalidAccount) {
		t.Errorf("short key: expected ErrInvalidAccount, got %v", err)
	}
}

func TestHTTPClient_ClientErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "bad method", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))
	if _, err := client.GetSignatureStatuses(context.Background(), []string{testSignature}); err == nil {
		t.Fatal("expected error for 400")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts.Load())
	}
}

func TestHTTPClient_RetryAfterCappedByMaxDelay(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "120")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value":   []interface{}{nil},
			},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithRetryDelay(time.Millisecond),
		WithMaxDelay(20*time.Millisecond),
	)
	start := time.Now()
	statuses, err := client.GetSignatureStatuses(context.Background(), []string{testSignature})
	if err != nil {
		t.Fatalf("GetSignatureStatuses: %v", err)
	}
	if len(statuses) != 1 {
		t.Errorf("expected 1 status, got %d", len(statuses))
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Retry-After not capped: waited %v", elapsed)
	}
}

func TestHTTPClient_ResponseIDMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      9999,
			"result":  []string{testSigner},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	if _, err := client.RequestAccounts(context.Background()); err == nil {
		t.Fatal("expected id mismatch error")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("3"); got != 3*time.Second {
		t.Errorf("parseRetryAfter(3) = %v", got)
	}
	if got := parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"); got != 0 {
		t.Errorf("date form should yield 0, got %v", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("empty should yield 0, got %v", got)
	}
}
