// Package mint drives one NFT mint request through its wallet state machine:
// Idle -> ProviderCheck -> Authorizing -> Submitted -> Confirmed | Failed.
//
// The orchestrator only reports outcomes. Propagating a confirmed mint into the
// read model is the caller's job.
package mint

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"aurora-assets/internal/idhash"
	"aurora-assets/internal/observability"
	"aurora-assets/internal/wallet"
)

// Observer is notified of every state transition of every request.
type Observer func(requestID string, from, to State)

// Orchestrator runs mint requests against a wallet provider.
// Requests share only the provider handle and may run concurrently.
type Orchestrator struct {
	provider  wallet.Provider
	observers []Observer
	logger    *log.Logger
	now       func() time.Time
	nonce     atomic.Uint64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver registers a transition observer.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		o.observers = append(o.observers, obs)
	}
}

// WithLogger sets the logger. Nil disables logging.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an Orchestrator. A nil provider means no wallet is available:
// every request then fails with KindNoProvider. Pass an untyped nil, not a
// nil pointer wrapped in the interface.
func New(provider wallet.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider: provider,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Result is the terminal outcome of one mint request.
type Result struct {
	RequestID   string
	MetadataURI string
	Account     string // authorized signer; empty if authorization never succeeded
	TxSignature string
	BlockID     string // non-empty iff State is Confirmed
	State       State  // Confirmed or Failed
	Kind        Kind   // set iff State is Failed
	Err         *Error // set iff State is Failed
	Visited     []State
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Confirmed reports whether the mint was confirmed.
func (r *Result) Confirmed() bool {
	return r.State == StateConfirmed
}

// Duration returns how long the request took.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Mint runs a request for metadataURI to a terminal state.
// The returned Result is never nil; err is Result.Err when the request failed.
// No internal timeout applies: a stalled provider call is bounded only by ctx.
func (o *Orchestrator) Mint(ctx context.Context, metadataURI string) (*Result, error) {
	started := o.now()
	res := &Result{
		RequestID:   idhash.ComputeMintRequestID(metadataURI, o.nonce.Add(1), started.UnixMilli()),
		MetadataURI: metadataURI,
		State:       StateIdle,
		Visited:     []State{StateIdle},
		StartedAt:   started,
	}

	o.run(ctx, res)

	res.FinishedAt = o.now()
	observability.RecordMintOutcome(res.State.String(), res.Kind.String(), res.Duration().Seconds())
	if res.Confirmed() {
		observability.RecordMintConfirmed(res.FinishedAt.Unix())
		o.logf("mint %s confirmed in block %s (signature %s)", short(res.RequestID), res.BlockID, res.TxSignature)
		return res, nil
	}
	o.logf("mint %s failed: %v", short(res.RequestID), res.Err)
	return res, res.Err
}

func (o *Orchestrator) run(ctx context.Context, res *Result) {
	o.transition(res, StateProviderCheck)
	if o.provider == nil {
		o.fail(res, KindNoProvider, nil)
		return
	}
	// Rejected before the wallet is asked for anything.
	if strings.TrimSpace(res.MetadataURI) == "" {
		o.fail(res, KindSubmissionError, ErrInvalidMetadataURI)
		return
	}

	o.transition(res, StateAuthorizing)
	accounts, err := o.provider.RequestAccounts(ctx)
	if err != nil {
		o.fail(res, KindAuthorizationDenied, err)
		return
	}
	if len(accounts) == 0 || accounts[0] == "" {
		o.fail(res, KindAuthorizationDenied, errNoAccounts)
		return
	}
	res.Account = accounts[0]

	signature, err := o.provider.SendTransaction(ctx, wallet.MintTransaction(res.Account, res.MetadataURI))
	if err != nil {
		o.fail(res, KindSubmissionError, err)
		return
	}
	if signature == "" {
		o.fail(res, KindSubmissionError, errEmptySignature)
		return
	}
	res.TxSignature = signature

	o.transition(res, StateSubmitted)
	conf, err := o.provider.WaitForConfirmation(ctx, signature)
	if err != nil {
		o.fail(res, KindConfirmationError, err)
		return
	}
	if conf == nil || conf.BlockID == "" {
		o.fail(res, KindConfirmationError, errEmptyBlockID)
		return
	}
	res.BlockID = conf.BlockID

	o.transition(res, StateConfirmed)
}

func (o *Orchestrator) fail(res *Result, kind Kind, cause error) {
	res.Kind = kind
	res.Err = &Error{Kind: kind, Cause: cause}
	o.transition(res, StateFailed)
}

// transition moves res to the next state. Transitions are strictly sequential;
// an illegal one is a programming error.
func (o *Orchestrator) transition(res *Result, to State) {
	from := res.State
	if !from.CanTransitionTo(to) {
		panic(fmt.Sprintf("mint: illegal transition %s -> %s", from, to))
	}
	res.State = to
	res.Visited = append(res.Visited, to)

	observability.RecordMintTransition(to.String())
	for _, obs := range o.observers {
		obs(res.RequestID, from, to)
	}
}

func (o *Orchestrator) logf(format string, args ...interface{}) {
	if o.logger != nil {
		o.logger.Printf(format, args...)
	}
}

func short(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
