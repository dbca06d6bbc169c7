package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/denizyalin/museguide/internal/errlog"
	"github.com/denizyalin/museguide/internal/observability"
	"github.com/denizyalin/museguide/internal/reliability"
)

// ErrNoCredentials means the gateway was asked to call with an empty
// credential list.
var ErrNoCredentials = errors.New("no credentials configured")

// errAttemptTimeout marks an attempt that exceeded the per-call bound.
// The message categorizes as timeout like any other failure.
var errAttemptTimeout = errors.New("attempt timeout: call exceeded the configured bound")

// ExhaustedError is the terminal failure after every credential was
// tried once. It carries the last observed failure for diagnosis.
type ExhaustedError struct {
	Attempts     int
	LastCategory reliability.Category
	LastMessage  string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d credentials failed, last error (%s): %s", e.Attempts, e.LastCategory, e.LastMessage)
}

// UsageRecorder receives approximate token counts after successful
// calls. A side effect, not part of the call contract.
type UsageRecorder interface {
	RecordCall(inputTokens, outputTokens int)
}

// Info describes the gateway's rotation state, secrets excluded.
type Info struct {
	CurrentIndex int    `json:"current_index"`
	TotalKeys    int    `json:"total_keys"`
	Model        string `json:"model"`
}

// defaultMaxInFlight bounds concurrently outstanding provider calls,
// including abandoned ones still draining after a timeout. Under a
// sustained timeout storm new attempts fail fast instead of piling up
// goroutines.
const defaultMaxInFlight = 32

// Gateway executes LLM calls against an ordered credential list. On a
// recoverable failure it rotates to the next credential and retries,
// once per credential; exhausting the list is terminal. The rotation
// index is shared by all concurrent callers so a rate-limited
// credential is avoided process-wide.
type Gateway struct {
	provider Provider
	sink     *errlog.Sink
	usage    UsageRecorder
	metrics  *observability.Metrics

	mu      sync.Mutex
	keys    []string
	current int

	model    string
	timeout  time.Duration
	inflight chan struct{}
}

type Config struct {
	Keys        []string
	Model       string
	Timeout     time.Duration
	MaxInFlight int
}

func New(cfg Config, provider Provider, sink *errlog.Sink, usage UsageRecorder, metrics *observability.Metrics) (*Gateway, error) {
	keys := dedupeKeys(cfg.Keys)
	if len(keys) == 0 {
		return nil, ErrNoCredentials
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxInFlight := cfg.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = defaultMaxInFlight
	}
	return &Gateway{
		provider: provider,
		sink:     sink,
		usage:    usage,
		metrics:  metrics,
		keys:     keys,
		model:    cfg.Model,
		timeout:  timeout,
		inflight: make(chan struct{}, maxInFlight),
	}, nil
}

// Call runs the request, rotating credentials on recoverable failures
// until one succeeds or all are exhausted.
func (g *Gateway) Call(ctx context.Context, req Request) (string, error) {
	g.mu.Lock()
	budget := len(g.keys)
	model := g.model
	timeout := g.timeout
	g.mu.Unlock()

	if budget == 0 {
		return "", ErrNoCredentials
	}

	var lastCategory reliability.Category
	var lastMessage string

	for attempt := 0; attempt < budget; attempt++ {
		credential, idx, ok := g.currentCredential()
		if !ok {
			return "", ErrNoCredentials
		}

		text, err := g.attempt(ctx, credential, model, timeout, req)
		if err == nil {
			if g.usage != nil {
				g.usage.RecordCall(ApproxTokens(req.System+req.User), ApproxTokens(text))
			}
			if g.metrics != nil {
				g.metrics.GatewayAttempts.WithLabelValues("success").Inc()
			}
			return text, nil
		}

		// A canceled caller says nothing about the credential. Abort
		// without logging or rotating so a client disconnect cannot
		// advance the shared index.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		category := reliability.Classify(err.Error())
		recoverable := reliability.Recoverable(category)
		action := "rotated"
		if !recoverable {
			action = "aborted"
		}

		// Log before deciding the next action so diagnosis never
		// depends on the retry's outcome.
		g.sink.Log(category, idx, err.Error(), action)
		if g.metrics != nil {
			g.metrics.GatewayAttempts.WithLabelValues("failure").Inc()
			g.metrics.GatewayErrors.WithLabelValues(string(category)).Inc()
		}

		lastCategory = category
		lastMessage = err.Error()

		if !recoverable {
			return "", &ExhaustedError{Attempts: attempt + 1, LastCategory: category, LastMessage: lastMessage}
		}
		g.rotate()
	}

	return "", &ExhaustedError{Attempts: budget, LastCategory: lastCategory, LastMessage: lastMessage}
}

type attemptResult struct {
	text string
	err  error
}

// attempt races one provider call against the configured deadline.
// A timed-out call is abandoned, not awaited: its goroutine drains in
// the background and frees its in-flight slot when the provider
// returns.
func (g *Gateway) attempt(ctx context.Context, credential, model string, timeout time.Duration, req Request) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case g.inflight <- struct{}{}:
	case <-timer.C:
		return "", errAttemptTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	done := make(chan attemptResult, 1)
	go func() {
		defer func() { <-g.inflight }()
		text, err := g.provider.Complete(attemptCtx, credential, model, req)
		done <- attemptResult{text: text, err: err}
	}()

	select {
	case r := <-done:
		cancel()
		return r.text, r.err
	case <-timer.C:
		cancel()
		return "", errAttemptTimeout
	case <-ctx.Done():
		cancel()
		return "", ctx.Err()
	}
}

func (g *Gateway) currentCredential() (string, int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.keys) == 0 {
		return "", 0, false
	}
	return g.keys[g.current], g.current, true
}

func (g *Gateway) rotate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.keys) == 0 {
		return
	}
	g.current = (g.current + 1) % len(g.keys)
	if g.metrics != nil {
		g.metrics.GatewayRotations.Inc()
	}
}

// Reload swaps in a fresh credential list without restart. In-flight
// attempts keep the credential they already hold; new calls see the
// new list and its attempt budget.
func (g *Gateway) Reload(keys []string) error {
	keys = dedupeKeys(keys)
	if len(keys) == 0 {
		return ErrNoCredentials
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keys = keys
	g.current = g.current % len(keys)
	return nil
}

// Info reports rotation state for the admin endpoint.
func (g *Gateway) Info() Info {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Info{CurrentIndex: g.current, TotalKeys: len(g.keys), Model: g.model}
}

func dedupeKeys(keys []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
