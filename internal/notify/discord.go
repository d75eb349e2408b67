package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

const (
	colorSuccess = 3066993  // green
	colorFailure = 15158332 // red
)

// DiscordNotifier sends run reports to a Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a DiscordNotifier with the given webhook URL.
func NewDiscordNotifier(webhookURL string) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: webhookTimeout,
		},
	}
}

// discordEmbed represents a Discord embed object.
type discordEmbed struct {
	Title  string         `json:"title"`
	Color  int            `json:"color"`
	Fields []discordField `json:"fields"`
	Footer *discordFooter `json:"footer,omitempty"`
}

// discordField represents a field in a Discord embed.
type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// discordFooter represents the footer of a Discord embed.
type discordFooter struct {
	Text string `json:"text"`
}

// discordPayload is the top-level Discord webhook payload.
type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// BuildDiscordPayload creates the Discord embed message payload for a report.
func BuildDiscordPayload(r Report) discordPayload {
	s := r.Summary
	fields := []discordField{
		{Name: "Mode", Value: s.Mode.String(), Inline: true},
		{Name: "Repositories", Value: strconv.Itoa(len(s.Repos)), Inline: true},
		{Name: "Duration", Value: FormatDuration(s.Duration()), Inline: true},
		{Name: "Changes", Value: FormatCounts(s.Counts)},
	}
	if len(s.Skipped) > 0 {
		fields = append(fields, discordField{Name: "Skipped", Value: FormatSkipped(s.Skipped, 10)})
	}

	color := colorSuccess
	if r.Err != nil {
		color = colorFailure
		fields = append(fields, discordField{Name: "Error", Value: r.Err.Error()})
	}

	embed := discordEmbed{
		Title:  Title(r),
		Color:  color,
		Fields: fields,
		Footer: &discordFooter{
			Text: fmt.Sprintf("ghstats - %s", s.Org),
		},
	}

	return discordPayload{
		Embeds: []discordEmbed{embed},
	}
}

// Notify posts the report. Callers are expected to retry if needed.
func (d *DiscordNotifier) Notify(ctx context.Context, r Report) error {
	body, err := json.Marshal(BuildDiscordPayload(r))
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}
	if err := d.post(ctx, body); err != nil {
		return fmt.Errorf("discord notify: %w", err)
	}
	return nil
}

func (d *DiscordNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discord webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
