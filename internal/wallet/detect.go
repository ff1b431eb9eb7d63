package wallet

import (
	"context"
	"log"
	"time"
)

// DetectOptions describes where a wallet provider may be reached.
type DetectOptions struct {
	// Endpoint is the wallet JSON-RPC HTTP URL. Empty means no wallet.
	Endpoint string

	// WSEndpoint enables subscription-based confirmation when set.
	WSEndpoint string

	// Timeout bounds one attempt of a status query. Wallet prompts and
	// transaction submission are bounded only by the caller's context.
	Timeout      time.Duration
	MaxRetries   int
	PollInterval time.Duration
	Logger       *log.Logger
}

// Detect returns a wallet-capable provider, or (nil, false) when none is
// configured. A WebSocket that cannot be dialed degrades to polling.
// The returned provider should be closed by the caller.
func Detect(ctx context.Context, opts DetectOptions) (*RemoteProvider, bool) {
	if opts.Endpoint == "" {
		return nil, false
	}

	var clientOpts []ClientOption
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, WithTimeout(opts.Timeout))
	}
	if opts.MaxRetries > 0 {
		clientOpts = append(clientOpts, WithMaxRetries(opts.MaxRetries))
	}

	var ws *WSClient
	if opts.WSEndpoint != "" {
		cfg := DefaultWSConfig()
		cfg.Logger = opts.Logger
		client, err := NewWSClient(ctx, opts.WSEndpoint, &cfg)
		if err != nil {
			if opts.Logger != nil {
				opts.Logger.Printf("wallet websocket unavailable, polling for confirmations: %v", err)
			}
		} else {
			ws = client
		}
	}

	return NewRemoteProvider(RemoteProviderOptions{
		RPC:          NewHTTPClient(opts.Endpoint, clientOpts...),
		WS:           ws,
		PollInterval: opts.PollInterval,
		Logger:       opts.Logger,
	}), true
}
