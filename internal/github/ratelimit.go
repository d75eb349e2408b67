package github

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	gogithub "github.com/google/go-github/v60/github"
)

const (
	// throttleThreshold is the remaining request count below which we throttle.
	throttleThreshold = 100

	// maxRetries is the maximum number of retries for server errors.
	maxRetries = 3

	// defaultRateLimitWait applies when a rate limited response carries no
	// timing headers.
	defaultRateLimitWait = 60 * time.Second
)

// RateLimitInfo holds parsed rate limit information from GitHub API response headers.
type RateLimitInfo struct {
	Remaining int
	Reset     time.Time
	Observed  time.Time
}

// ParseRateLimit extracts rate limit information from a GitHub API HTTP response.
// Returns nil if the relevant headers are not present.
func ParseRateLimit(resp *http.Response) *RateLimitInfo {
	if resp == nil {
		return nil
	}

	remainingStr := resp.Header.Get("X-RateLimit-Remaining")
	resetStr := resp.Header.Get("X-RateLimit-Reset")

	if remainingStr == "" && resetStr == "" {
		return nil
	}

	info := &RateLimitInfo{
		Observed: time.Now(),
	}

	if remainingStr != "" {
		remaining, err := strconv.Atoi(remainingStr)
		if err == nil {
			info.Remaining = remaining
		}
	}

	if resetStr != "" {
		resetUnix, err := strconv.ParseInt(resetStr, 10, 64)
		if err == nil {
			info.Reset = time.Unix(resetUnix, 0)
		}
	}

	return info
}

// ShouldThrottle returns true when the remaining rate limit is below the
// safety threshold, indicating we should slow down requests.
func (r *RateLimitInfo) ShouldThrottle() bool {
	if r == nil {
		return false
	}
	return r.Remaining < throttleThreshold
}

// WaitDuration returns how long to wait before the rate limit resets.
// Returns zero if the reset time is in the past.
func (r *RateLimitInfo) WaitDuration() time.Duration {
	if r == nil {
		return 0
	}
	d := time.Until(r.Reset)
	if d < 0 {
		return 0
	}
	return d
}

// HandleRateLimitError parses a 403 or 429 response to determine how long
// to wait before retrying. It extracts timing from rate limit headers.
func HandleRateLimitError(resp *http.Response) (time.Duration, error) {
	if resp == nil {
		return 0, fmt.Errorf("nil response")
	}

	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return 0, fmt.Errorf("not a rate limit error: status %d", resp.StatusCode)
	}

	info := ParseRateLimit(resp)
	if info != nil && !info.Reset.IsZero() {
		wait := info.WaitDuration()
		if wait > 0 {
			return wait, nil
		}
	}

	// If we can't determine from headers, check Retry-After header
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter != "" {
		seconds, err := strconv.Atoi(retryAfter)
		if err == nil {
			return time.Duration(seconds) * time.Second, nil
		}
	}

	return defaultRateLimitWait, nil
}

// IsServerError returns true if the response has a 5xx status code.
func IsServerError(resp *http.Response) bool {
	return resp != nil && resp.StatusCode >= 500 && resp.StatusCode < 600
}

// IsRateLimitError returns true if the response indicates a rate limit error:
// a 429, or a 403 that carries an exhausted quota or a Retry-After header.
// Other 403s are permission errors.
func IsRateLimitError(resp *http.Response) bool {
	if resp == nil {
		return false
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		return resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.Header.Get("Retry-After") != ""
	}
	return false
}

// rateLimitWait reports how long to wait before retrying a rate limited call.
// go-github short-circuits requests while a known limit is exhausted, so its
// typed errors are checked before the raw response.
func rateLimitWait(err error, resp *http.Response) (time.Duration, bool) {
	var rle *gogithub.RateLimitError
	if errors.As(err, &rle) {
		d := time.Until(rle.Rate.Reset.Time)
		if d <= 0 {
			d = time.Second
		}
		return d, true
	}
	var abuse *gogithub.AbuseRateLimitError
	if errors.As(err, &abuse) {
		if abuse.RetryAfter != nil {
			return *abuse.RetryAfter, true
		}
		return defaultRateLimitWait, true
	}
	if IsRateLimitError(resp) {
		d, _ := HandleRateLimitError(resp)
		return d, true
	}
	return 0, false
}
