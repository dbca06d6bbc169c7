package reliability

import (
	"testing"
	"time"
)

func TestClassifyFirstMatchWins(t *testing.T) {
	cases := []struct {
		message string
		want    Category
	}{
		{"API key was found in a public repository (leaked)", CategoryLeaked},
		{"429 Too Many Requests: rate limit exceeded", CategoryRateLimit},
		{"Quota exceeded for quota metric 'GenerateContent'", CategoryQuota},
		{"API key not valid. Please pass a valid API key.", CategoryInvalid},
		{"PERMISSION_DENIED: access denied for consumer", CategoryPermission},
		{"context deadline exceeded", CategoryTimeout},
		{"connection reset by peer", CategoryUnknown},
		{"", CategoryUnknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.message); got != tc.want {
			t.Fatalf("Classify(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestClassifyLeakedBeatsPermission(t *testing.T) {
	// A leaked-key report from the provider also mentions access being
	// blocked; the leaked rule must win.
	msg := "access denied: this API key was reported as leaked"
	if got := Classify(msg); got != CategoryLeaked {
		t.Fatalf("Classify = %q, want %q", got, CategoryLeaked)
	}
}

func TestRecoverableAllCategories(t *testing.T) {
	for _, c := range []Category{
		CategoryLeaked, CategoryRateLimit, CategoryQuota,
		CategoryInvalid, CategoryPermission, CategoryTimeout, CategoryUnknown,
	} {
		if !Recoverable(c) {
			t.Fatalf("Recoverable(%q) = false, want true", c)
		}
	}
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tc := range cases {
		if got := IsRetryableHTTPStatus(tc.code); got != tc.want {
			t.Fatalf("IsRetryableHTTPStatus(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestExponentialBackoffCap(t *testing.T) {
	base := 100 * time.Millisecond
	capDur := 700 * time.Millisecond
	if got := ExponentialBackoff(0, base, capDur); got != base {
		t.Fatalf("attempt 0 = %v, want %v", got, base)
	}
	if got := ExponentialBackoff(10, base, capDur); got != capDur {
		t.Fatalf("attempt 10 = %v, want %v", got, capDur)
	}
}
