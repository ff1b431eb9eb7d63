package wallet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"
)

// DefaultPollInterval is the getSignatureStatuses polling period without a WebSocket.
const DefaultPollInterval = 500 * time.Millisecond

// RemoteProviderOptions configures a RemoteProvider.
type RemoteProviderOptions struct {
	// RPC handles authorization, submission and status polling. Required.
	RPC *HTTPClient

	// WS delivers confirmations by subscription. Nil falls back to polling.
	WS *WSClient

	// PollInterval overrides DefaultPollInterval.
	PollInterval time.Duration

	Logger *log.Logger
}

// RemoteProvider implements Provider against a wallet JSON-RPC endpoint.
type RemoteProvider struct {
	rpc          *HTTPClient
	ws           *WSClient
	pollInterval time.Duration
	logger       *log.Logger
}

// NewRemoteProvider creates a RemoteProvider.
func NewRemoteProvider(opts RemoteProviderOptions) *RemoteProvider {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &RemoteProvider{
		rpc:          opts.RPC,
		ws:           opts.WS,
		pollInterval: interval,
		logger:       opts.Logger,
	}
}

// Compile-time interface check.
var _ Provider = (*RemoteProvider)(nil)

// RequestAccounts asks the user to authorize and returns the exposed accounts.
func (p *RemoteProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	return p.rpc.RequestAccounts(ctx)
}

// SendTransaction signs and submits tx, returning its signature.
func (p *RemoteProvider) SendTransaction(ctx context.Context, tx Transaction) (string, error) {
	return p.rpc.SendTransaction(ctx, tx)
}

// WaitForConfirmation blocks until signature reaches confirmed commitment.
// A landed transaction carrying an error yields ErrTransactionFailed.
func (p *RemoteProvider) WaitForConfirmation(ctx context.Context, signature string) (*Confirmation, error) {
	if p.ws != nil {
		conf, err := p.waitSubscribed(ctx, signature)
		if err == nil || ctx.Err() != nil {
			return conf, err
		}
		if !errors.Is(err, ErrClosed) {
			return nil, err
		}
		p.logf("websocket closed while waiting for %s, polling instead", signature)
	}
	return p.waitPolling(ctx, signature)
}

func (p *RemoteProvider) waitSubscribed(ctx context.Context, signature string) (*Confirmation, error) {
	ch, err := p.ws.SubscribeSignature(ctx, signature)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logf("subscribe %s failed, polling instead: %v", signature, err)
		return nil, ErrClosed
	}

	defer p.ws.Unsubscribe(signature)

	// The transaction may have landed before the subscription existed.
	if conf, done, err := p.checkStatus(ctx, signature); done || err != nil {
		return conf, err
	}

	select {
	case notif, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		if notif.Err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, notif.Err)
		}
		return newConfirmation(signature, notif.Slot, "confirmed"), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *RemoteProvider) waitPolling(ctx context.Context, signature string) (*Confirmation, error) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		conf, done, err := p.checkStatus(ctx, signature)
		if done || err != nil {
			return conf, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// checkStatus polls once. done reports a terminal answer in conf or err.
func (p *RemoteProvider) checkStatus(ctx context.Context, signature string) (*Confirmation, bool, error) {
	statuses, err := p.rpc.GetSignatureStatuses(ctx, []string{signature})
	if err != nil {
		if ctx.Err() != nil {
			return nil, true, ctx.Err()
		}
		// transient; keep waiting
		p.logf("getSignatureStatuses %s: %v", signature, err)
		return nil, false, nil
	}
	if len(statuses) == 0 || statuses[0] == nil {
		return nil, false, nil
	}

	st := statuses[0]
	if st.Err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrTransactionFailed, st.Err)
	}
	if !st.IsConfirmed() {
		return nil, false, nil
	}
	return newConfirmation(signature, st.Slot, st.ConfirmationStatus), true, nil
}

// Close releases the WebSocket client, if any.
func (p *RemoteProvider) Close() error {
	if p.ws != nil {
		return p.ws.Close()
	}
	return nil
}

func (p *RemoteProvider) logf(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}

// newConfirmation uses the slot as block identifier; slot 0 means unknown.
func newConfirmation(signature string, slot int64, status string) *Confirmation {
	c := &Confirmation{
		Signature:          signature,
		Slot:               slot,
		ConfirmationStatus: status,
	}
	if slot > 0 {
		c.BlockID = strconv.FormatInt(slot, 10)
	}
	return c
}
