package httpx

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type statusErr int

func (s statusErr) Error() string       { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatusCode() int { return int(s) }

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{context.DeadlineExceeded, true},
		{statusErr(429), true},
		{statusErr(503), true},
		{statusErr(400), false},
		{fmt.Errorf("wrapped: %w", statusErr(502)), true},
	}
	for _, tc := range cases {
		if got := IsRetryableError(tc.err); got != tc.want {
			t.Fatalf("IsRetryableError(%v): want=%v got=%v", tc.err, tc.want, got)
		}
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "30")
	if got := RetryAfterDuration(resp, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("RetryAfterDuration capped: want=%v got=%v", 10*time.Second, got)
	}
	if got := RetryAfterDuration(nil, 2*time.Second, 0); got != 2*time.Second {
		t.Fatalf("RetryAfterDuration fallback: want=%v got=%v", 2*time.Second, got)
	}
}

func TestBackoff(t *testing.T) {
	if got := Backoff(1, 500*time.Millisecond, 4*time.Second); got != 500*time.Millisecond {
		t.Fatalf("Backoff(1): got=%v", got)
	}
	if got := Backoff(3, 500*time.Millisecond, 4*time.Second); got != 2*time.Second {
		t.Fatalf("Backoff(3): got=%v", got)
	}
	if got := Backoff(10, 500*time.Millisecond, 4*time.Second); got != 4*time.Second {
		t.Fatalf("Backoff(10): got=%v", got)
	}
}
