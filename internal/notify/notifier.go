package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jacklau/ghstats/internal/retry"
	"github.com/jacklau/ghstats/internal/syncer"
)

// Notifier announces the outcome of a sync run.
type Notifier interface {
	Notify(ctx context.Context, report Report) error
}

// Report is a finished sync run. Err is the error that aborted it, if any.
type Report struct {
	Summary syncer.Summary
	Err     error
}

// Failed reports whether the run was aborted.
func (r Report) Failed() bool {
	return r.Err != nil
}

// MultiNotifier sends notifications to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a MultiNotifier from the given notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Notify sends the report to all configured notifiers. A failing notifier
// does not stop the others; all failures are returned joined.
func (m *MultiNotifier) Notify(ctx context.Context, report Report) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, report); err != nil {
			slog.Warn("notifier failed", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RetryingNotifier retries one notifier under a retry policy.
type RetryingNotifier struct {
	next   Notifier
	policy retry.Policy
}

// NewRetryingNotifier wraps n so failed deliveries are retried under p.
func NewRetryingNotifier(n Notifier, p retry.Policy) *RetryingNotifier {
	return &RetryingNotifier{next: n, policy: p}
}

// Notify delivers the report, retrying on failure.
func (r *RetryingNotifier) Notify(ctx context.Context, report Report) error {
	return r.policy.Do(ctx, func() error {
		return r.next.Notify(ctx, report)
	})
}

// NewNotifier builds a notifier for the configured webhooks. Each webhook
// is retried on its own, so one failing endpoint never resends to the
// other. It returns nil when neither webhook is set.
func NewNotifier(slackURL, discordURL string) Notifier {
	var notifiers []Notifier
	if slackURL != "" {
		notifiers = append(notifiers, NewRetryingNotifier(NewSlackNotifier(slackURL), deliveryPolicy))
	}
	if discordURL != "" {
		notifiers = append(notifiers, NewRetryingNotifier(NewDiscordNotifier(discordURL), deliveryPolicy))
	}
	switch len(notifiers) {
	case 0:
		return nil
	case 1:
		return notifiers[0]
	default:
		return NewMultiNotifier(notifiers...)
	}
}

const webhookTimeout = 30 * time.Second

var deliveryPolicy = retry.Policy{Attempts: 2}
