package github

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	gogithub "github.com/google/go-github/v60/github"
)

func TestParseRateLimit(t *testing.T) {
	t.Run("parses valid headers", func(t *testing.T) {
		resetTime := time.Now().Add(10 * time.Minute).Unix()
		resp := &http.Response{
			Header: http.Header{
				"X-Ratelimit-Remaining": []string{"42"},
				"X-Ratelimit-Reset":     []string{fmt.Sprintf("%d", resetTime)},
			},
		}

		info := ParseRateLimit(resp)
		if info == nil {
			t.Fatal("expected non-nil RateLimitInfo")
		}
		if info.Remaining != 42 {
			t.Errorf("expected Remaining=42, got %d", info.Remaining)
		}
		if info.Reset.Unix() != resetTime {
			t.Errorf("expected Reset=%d, got %d", resetTime, info.Reset.Unix())
		}
	})

	t.Run("returns nil for nil response", func(t *testing.T) {
		info := ParseRateLimit(nil)
		if info != nil {
			t.Error("expected nil for nil response")
		}
	})

	t.Run("returns nil for missing headers", func(t *testing.T) {
		resp := &http.Response{
			Header: http.Header{},
		}
		info := ParseRateLimit(resp)
		if info != nil {
			t.Error("expected nil for missing headers")
		}
	})

	t.Run("handles partial headers", func(t *testing.T) {
		resp := &http.Response{
			Header: http.Header{
				"X-Ratelimit-Remaining": []string{"50"},
			},
		}
		info := ParseRateLimit(resp)
		if info == nil {
			t.Fatal("expected non-nil RateLimitInfo")
		}
		if info.Remaining != 50 {
			t.Errorf("expected Remaining=50, got %d", info.Remaining)
		}
	})
}

func TestShouldThrottle(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		want      bool
	}{
		{"below threshold", 50, true},
		{"at threshold", 100, false},
		{"above threshold", 500, false},
		{"zero remaining", 0, true},
		{"just below threshold", 99, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := &RateLimitInfo{Remaining: tt.remaining}
			got := info.ShouldThrottle()
			if got != tt.want {
				t.Errorf("ShouldThrottle() with remaining=%d: got %v, want %v",
					tt.remaining, got, tt.want)
			}
		})
	}

	t.Run("nil info returns false", func(t *testing.T) {
		var info *RateLimitInfo
		if info.ShouldThrottle() {
			t.Error("nil RateLimitInfo should not throttle")
		}
	})
}

func TestHandleRateLimitError(t *testing.T) {
	t.Run("403 with reset header", func(t *testing.T) {
		resetTime := time.Now().Add(30 * time.Second).Unix()
		resp := &http.Response{
			StatusCode: http.StatusForbidden,
			Header: http.Header{
				"X-Ratelimit-Remaining": []string{"0"},
				"X-Ratelimit-Reset":     []string{fmt.Sprintf("%d", resetTime)},
			},
		}

		wait, err := HandleRateLimitError(resp)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Should be roughly 30 seconds (allow some variance for test execution time).
		if wait < 25*time.Second || wait > 35*time.Second {
			t.Errorf("expected ~30s wait, got %s", wait)
		}
	})

	t.Run("429 with Retry-After header", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: http.StatusTooManyRequests,
			Header: http.Header{
				"Retry-After": []string{"45"},
			},
		}

		wait, err := HandleRateLimitError(resp)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if wait != 45*time.Second {
			t.Errorf("expected 45s wait, got %s", wait)
		}
	})

	t.Run("non-rate-limit status", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
		}

		_, err := HandleRateLimitError(resp)
		if err == nil {
			t.Error("expected error for non-rate-limit response")
		}
	})

	t.Run("nil response", func(t *testing.T) {
		_, err := HandleRateLimitError(nil)
		if err == nil {
			t.Error("expected error for nil response")
		}
	})

	t.Run("403 without headers defaults to 60s", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: http.StatusForbidden,
			Header:     http.Header{},
		}

		wait, err := HandleRateLimitError(resp)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if wait != 60*time.Second {
			t.Errorf("expected 60s fallback, got %s", wait)
		}
	})
}

func TestIsServerError(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{500, true},
		{502, true},
		{503, true},
		{599, true},
		{200, false},
		{404, false},
		{429, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.code}
			if got := IsServerError(resp); got != tt.want {
				t.Errorf("IsServerError(%d) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		header http.Header
		want   bool
	}{
		{"429", 429, http.Header{}, true},
		{"403 exhausted quota", 403, http.Header{"X-Ratelimit-Remaining": []string{"0"}}, true},
		{"403 with retry-after", 403, http.Header{"Retry-After": []string{"30"}}, true},
		{"403 permission denied", 403, http.Header{}, false},
		{"200", 200, http.Header{}, false},
		{"500", 500, http.Header{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.code, Header: tt.header}
			if got := IsRateLimitError(resp); got != tt.want {
				t.Errorf("IsRateLimitError(%d) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}

	if IsRateLimitError(nil) {
		t.Error("expected false for nil response")
	}
}

func TestRateLimitWait(t *testing.T) {
	t.Run("primary limit error waits until reset", func(t *testing.T) {
		reset := time.Now().Add(20 * time.Second)
		err := &gogithub.RateLimitError{Rate: gogithub.Rate{Reset: gogithub.Timestamp{Time: reset}}}
		wait, ok := rateLimitWait(fmt.Errorf("listing: %w", err), nil)
		if !ok {
			t.Fatal("expected rate limit to be detected")
		}
		if wait < 15*time.Second || wait > 20*time.Second {
			t.Errorf("expected ~20s wait, got %s", wait)
		}
	})

	t.Run("secondary limit uses retry-after", func(t *testing.T) {
		d := 7 * time.Second
		wait, ok := rateLimitWait(&gogithub.AbuseRateLimitError{RetryAfter: &d}, nil)
		if !ok || wait != d {
			t.Errorf("expected 7s, got %s (ok=%v)", wait, ok)
		}
	})

	t.Run("plain 429 response", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{"Retry-After": []string{"3"}}}
		wait, ok := rateLimitWait(fmt.Errorf("boom"), resp)
		if !ok || wait != 3*time.Second {
			t.Errorf("expected 3s, got %s (ok=%v)", wait, ok)
		}
	})

	t.Run("not found is not a rate limit", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusNotFound, Header: http.Header{}}
		if _, ok := rateLimitWait(fmt.Errorf("404"), resp); ok {
			t.Error("expected 404 not to be treated as a rate limit")
		}
	})
}

func TestWaitDuration(t *testing.T) {
	t.Run("future reset time", func(t *testing.T) {
		info := &RateLimitInfo{
			Reset: time.Now().Add(30 * time.Second),
		}
		d := info.WaitDuration()
		if d < 25*time.Second || d > 35*time.Second {
			t.Errorf("expected ~30s, got %s", d)
		}
	})

	t.Run("past reset time returns zero", func(t *testing.T) {
		info := &RateLimitInfo{
			Reset: time.Now().Add(-10 * time.Second),
		}
		d := info.WaitDuration()
		if d != 0 {
			t.Errorf("expected 0, got %s", d)
		}
	})

	t.Run("nil info returns zero", func(t *testing.T) {
		var info *RateLimitInfo
		d := info.WaitDuration()
		if d != 0 {
			t.Errorf("expected 0, got %s", d)
		}
	})
}
