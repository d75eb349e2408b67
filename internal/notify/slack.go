package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// SlackNotifier sends run reports to a Slack webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a SlackNotifier with the given webhook URL.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: webhookTimeout,
		},
	}
}

// slackBlock represents a Slack Block Kit block.
type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

// slackText represents a text object in Slack Block Kit.
type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// slackPayload is the top-level Slack message payload.
type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

func mrkdwn(format string, args ...any) slackBlock {
	return slackBlock{
		Type: "section",
		Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf(format, args...)},
	}
}

// BuildSlackPayload creates the Slack Block Kit message payload for a report.
func BuildSlackPayload(r Report) slackPayload {
	s := r.Summary
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: Title(r)},
		},
		mrkdwn("*Mode:* %s  *Repositories:* %d  *Duration:* %s",
			s.Mode, len(s.Repos), FormatDuration(s.Duration())),
		mrkdwn("*Changes:* %s", FormatCounts(s.Counts)),
	}

	if len(s.Skipped) > 0 {
		blocks = append(blocks, mrkdwn("*Skipped:* %s", FormatSkipped(s.Skipped, 10)))
	}
	if r.Err != nil {
		blocks = append(blocks, mrkdwn("*Error:*\n```%s```", r.Err))
	}

	return slackPayload{Blocks: blocks}
}

// Notify posts the report. Callers are expected to retry if needed.
func (s *SlackNotifier) Notify(ctx context.Context, r Report) error {
	body, err := json.Marshal(BuildSlackPayload(r))
	if err != nil {
		return fmt.Errorf("marshaling slack payload: %w", err)
	}
	if err := s.post(ctx, body); err != nil {
		return fmt.Errorf("slack notify: %w", err)
	}
	return nil
}

func (s *SlackNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
