package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

const slackPostMessageURL = "https://slack.com/api/chat.postMessage"

// SlackNotifier posts resolution verdicts to a Slack channel via the
// chat.postMessage API.
type SlackNotifier struct {
	botToken   string
	channelID  string
	apiURL     string
	httpClient *http.Client
}

// NewSlackNotifier creates a SlackNotifier for the given bot token and
// channel.
func NewSlackNotifier(botToken, channelID string) *SlackNotifier {
	return &SlackNotifier{
		botToken:  botToken,
		channelID: channelID,
		apiURL:    slackPostMessageURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// IsConfigured reports whether both the bot token and channel ID are set.
func (n *SlackNotifier) IsConfigured() bool {
	return n.botToken != "" && n.channelID != ""
}

type slackMessage struct {
	Channel     string            `json:"channel"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
	Fields []slackField `json:"fields,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NotifyResolution posts a summary of the pipeline run: verdict, remediation
// counts, and the incident it belongs to.
func (n *SlackNotifier) NotifyResolution(ctx context.Context, report *types.PipelineReport) error {
	if !n.IsConfigured() {
		return fmt.Errorf("slack bot token or channel ID not configured")
	}

	color := "#dc3545" // red: unresolved
	title := fmt.Sprintf("Incident NOT auto-resolved (%s)", report.AlertType)
	if report.Resolved {
		color = "#36a64f" // green: resolved
		title = fmt.Sprintf("Incident auto-resolved (%s)", report.AlertType)
	}

	msg := slackMessage{
		Channel: n.channelID,
		Attachments: []slackAttachment{{
			Color: color,
			Title: title,
			Text:  fmt.Sprintf("run %s finished in %s", report.RunID, report.CompletedAt.Sub(report.StartedAt).Round(time.Second)),
			Fields: []slackField{
				{Title: "Namespace", Value: report.Context.Namespace, Short: true},
				{Title: "Incident", Value: report.Context.IncidentID, Short: true},
				{Title: "Remediations", Value: fmt.Sprintf("%d attempted, %d succeeded", len(report.Remediations), report.SuccessfulRemediations()), Short: true},
				{Title: "Verified", Value: fmt.Sprintf("checked=%t fixed=%t", report.Verification.Checked, report.Verification.Fixed), Short: true},
			},
		}},
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.botToken)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var slackResp slackResponse
	if err := json.Unmarshal(body, &slackResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !slackResp.OK {
		return fmt.Errorf("slack API error: %s", slackResp.Error)
	}
	return nil
}
