// Package stub provides a scripted wallet.Provider for tests.
package stub

import (
	"context"
	"sync"

	"aurora-assets/internal/wallet"
)

// Provider implements wallet.Provider with canned answers.
// A non-nil *Err field makes the matching call fail.
type Provider struct {
	Accounts     []string
	Signature    string
	Confirmation *wallet.Confirmation

	AccountsErr error
	SendErr     error
	ConfirmErr  error

	// Block makes WaitForConfirmation wait for ctx to be done.
	Block bool

	mu    sync.Mutex
	sent  []wallet.Transaction
	calls []string
}

// Compile-time interface check.
var _ wallet.Provider = (*Provider)(nil)

// NewProvider returns a provider that authorizes account and confirms in blockID.
func NewProvider(account, signature, blockID string) *Provider {
	return &Provider{
		Accounts:  []string{account},
		Signature: signature,
		Confirmation: &wallet.Confirmation{
			Signature:          signature,
			BlockID:            blockID,
			ConfirmationStatus: "confirmed",
		},
	}
}

// RequestAccounts returns Accounts or AccountsErr.
func (p *Provider) RequestAccounts(_ context.Context) ([]string, error) {
	p.record("RequestAccounts")
	if p.AccountsErr != nil {
		return nil, p.AccountsErr
	}
	return append([]string(nil), p.Accounts...), nil
}

// SendTransaction records tx and returns Signature or SendErr.
func (p *Provider) SendTransaction(_ context.Context, tx wallet.Transaction) (string, error) {
	p.record("SendTransaction")
	if p.SendErr != nil {
		return "", p.SendErr
	}
	p.mu.Lock()
	p.sent = append(p.sent, tx)
	p.mu.Unlock()
	return p.Signature, nil
}

// WaitForConfirmation returns Confirmation or ConfirmErr.
func (p *Provider) WaitForConfirmation(ctx context.Context, _ string) (*wallet.Confirmation, error) {
	p.record("WaitForConfirmation")
	if p.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.ConfirmErr != nil {
		return nil, p.ConfirmErr
	}
	c := *p.Confirmation
	return &c, nil
}

// Sent returns the submitted transactions.
func (p *Provider) Sent() []wallet.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]wallet.Transaction(nil), p.sent...)
}

// Calls returns the provider methods invoked, in order.
func (p *Provider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *Provider) record(call string) {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()
}
