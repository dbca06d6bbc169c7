package reliability

import (
	"strings"
	"time"
)

// Category identifies why a provider call failed.
type Category string

const (
	CategoryLeaked     Category = "leaked"
	CategoryRateLimit  Category = "rate_limit"
	CategoryQuota      Category = "quota"
	CategoryInvalid    Category = "invalid_key"
	CategoryPermission Category = "permission"
	CategoryTimeout    Category = "timeout"
	CategoryUnknown    Category = "unknown"
)

// rule matches a failure description to a category. Rules are evaluated
// in order and the first match wins, so more specific provider messages
// (a leaked-key report also mentions "permission") must come first.
type rule struct {
	needles     []string
	category    Category
	recoverable bool
}

var rules = []rule{
	{[]string{"leaked", "exposed", "publicly accessible"}, CategoryLeaked, true},
	{[]string{"rate limit", "rate_limit", "resource exhausted", "resource_exhausted", "429", "too many requests"}, CategoryRateLimit, true},
	{[]string{"quota", "billing"}, CategoryQuota, true},
	{[]string{"api key not valid", "invalid api key", "api_key_invalid", "malformed", "unregistered"}, CategoryInvalid, true},
	{[]string{"permission", "forbidden", "access denied", "403"}, CategoryPermission, true},
	{[]string{"timeout", "deadline exceeded", "context deadline"}, CategoryTimeout, true},
}

// Classify maps a failure description to its category via
// case-insensitive substring matching against the rule table.
// It never fails; unmatched descriptions are CategoryUnknown.
func Classify(message string) Category {
	m := strings.ToLower(message)
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(m, n) {
				return r.category
			}
		}
	}
	return CategoryUnknown
}

// Recoverable reports whether rotating to another credential is
// expected to help for the given category. Every defined category
// currently rotates; the table keeps the flag so a non-rotating
// category stays a data change.
func Recoverable(c Category) bool {
	for _, r := range rules {
		if r.category == c {
			return r.recoverable
		}
	}
	return true
}

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// ExponentialBackoff computes a deterministic capped backoff duration.
func ExponentialBackoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	return d
}
