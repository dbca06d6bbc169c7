// Package gateway executes LLM calls with credential rotation,
// per-attempt timeouts and failure categorization. It is the only
// layer that talks to the provider; provider-specific errors never
// cross its boundary.
package gateway

import "context"

// Request is one normalized LLM call.
type Request struct {
	System string
	User   string
}

// Provider executes a single call against the upstream model using
// the given credential. Implementations return plain errors whose
// text the reliability classifier can categorize.
type Provider interface {
	Complete(ctx context.Context, credential, model string, req Request) (string, error)
}

// ApproxTokens estimates a token count from text length. The provider
// does not report exact usage on every path, and a chars/4 heuristic
// is close enough for the usage dashboard.
func ApproxTokens(text string) int {
	return len(text) / 4
}
