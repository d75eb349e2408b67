package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gogithub "github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"

	"github.com/jacklau/ghstats/internal/retry"
)

// NewTokenClient creates a GitHub API client authenticated with a personal
// access token. apiURL selects a GitHub Enterprise server when non-empty.
func NewTokenClient(ctx context.Context, token, apiURL string) (*gogithub.Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := gogithub.NewClient(oauth2.NewClient(ctx, ts))
	return withEnterprise(client, apiURL)
}

// NewAppClient creates a GitHub API client authenticated as a GitHub App
// installation. It uses ghinstallation for automatic JWT and installation
// token management.
//
// privateKey can be either:
//   - Raw PEM bytes (begins with "-----BEGIN")
//   - Base64-encoded PEM bytes
//
// If privateKey is nil or empty and privateKeyPath is provided, the key is
// read from that file path.
func NewAppClient(appID, installationID int64, privateKey []byte, privateKeyPath, apiURL string) (*gogithub.Client, error) {
	key, err := resolvePrivateKey(privateKey, privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("resolving private key: %w", err)
	}

	transport, err := ghinstallation.New(http.DefaultTransport, appID, installationID, key)
	if err != nil {
		return nil, fmt.Errorf("creating installation transport: %w", err)
	}
	if apiURL != "" {
		transport.BaseURL = strings.TrimSuffix(apiURL, "/")
	}

	return withEnterprise(gogithub.NewClient(&http.Client{Transport: transport}), apiURL)
}

func withEnterprise(client *gogithub.Client, apiURL string) (*gogithub.Client, error) {
	if apiURL == "" {
		return client, nil
	}
	client, err := client.WithEnterpriseURLs(apiURL, apiURL)
	if err != nil {
		return nil, fmt.Errorf("setting enterprise URL: %w", err)
	}
	return client, nil
}

// resolvePrivateKey returns PEM-encoded private key bytes from either the
// provided raw/base64-encoded key or by reading from a file path.
func resolvePrivateKey(key []byte, keyPath string) ([]byte, error) {
	if len(key) > 0 {
		s := strings.TrimSpace(string(key))
		if strings.HasPrefix(s, "-----BEGIN") {
			return []byte(s), nil
		}
		// Try base64 decode
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			// Try URL-safe base64
			decoded, err = base64.URLEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("private key is neither PEM nor valid base64: %w", err)
			}
		}
		return decoded, nil
	}

	if keyPath != "" {
		data, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("reading private key file %s: %w", keyPath, err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("no private key provided: set private_key or private_key_path")
}

// Client reads one organization's repositories through the GitHub REST API.
// Every call pages through the full result set, waits out rate limits and
// retries server and network failures.
type Client struct {
	gh     *gogithub.Client
	org    string
	logger *slog.Logger
	retry  retry.Policy
	sleep  func(ctx context.Context, d time.Duration) error
}

// New wraps gh for the given organization.
func New(gh *gogithub.Client, org string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		gh:     gh,
		org:    org,
		logger: logger.With("org", org),
		retry:  retry.Policy{Attempts: maxRetries + 1},
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// call runs one API request under the retry policy. Rate limited requests
// wait for the limit to reset, 5xx and transport failures back off, and
// anything else is returned at once.
func (c *Client) call(ctx context.Context, what string, fn func() (*gogithub.Response, error)) error {
	return c.retry.Do(ctx, func() error {
		resp, err := fn()
		var httpResp *http.Response
		if resp != nil {
			httpResp = resp.Response
		}

		if err == nil {
			if rl := ParseRateLimit(httpResp); rl.ShouldThrottle() {
				if wait := rl.WaitDuration(); wait > 0 {
					c.logger.Info("rate limit low, waiting", "call", what, "remaining", rl.Remaining, "wait", wait)
					if err := c.sleep(ctx, wait); err != nil {
						return retry.Stop(err)
					}
				}
			}
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return retry.Stop(ctxErr)
		}
		if wait, ok := rateLimitWait(err, httpResp); ok {
			c.logger.Warn("rate limited, waiting", "call", what, "wait", wait)
			if err := c.sleep(ctx, wait); err != nil {
				return retry.Stop(err)
			}
			return err
		}
		if httpResp == nil || IsServerError(httpResp) {
			c.logger.Warn("GitHub request failed, retrying", "call", what, "error", err)
			return err
		}
		return retry.Stop(err)
	})
}

// paginate collects every page of a list endpoint.
func paginate[T any](ctx context.Context, c *Client, what string, fetch func(opts gogithub.ListOptions) ([]T, *gogithub.Response, error)) ([]T, error) {
	opts := gogithub.ListOptions{PerPage: 100}
	var all []T
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var (
			page []T
			resp *gogithub.Response
		)
		err := c.call(ctx, what, func() (*gogithub.Response, error) {
			var err error
			page, resp, err = fetch(opts)
			return resp, err
		})
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", what, err)
		}
		all = append(all, page...)

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	c.logger.Debug("listed", "what", what, "count", len(all))
	return all, nil
}
