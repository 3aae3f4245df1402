// Package notify posts audit run summaries to chat.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
	slacklib "github.com/slack-go/slack"
)

// Policy controls when a run is announced.
type Policy string

const (
	PolicyFail   Policy = "fail"
	PolicyAlways Policy = "always"
	PolicyNever  Policy = "never"
)

func ParsePolicy(raw string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PolicyFail, nil
	case PolicyFail, PolicyAlways, PolicyNever:
		return p, nil
	default:
		return "", fmt.Errorf("notify policy must be one of: fail, always, never (got %q)", raw)
	}
}

// ShouldNotify reports whether policy calls for a message about report. A
// run with a check that could not execute counts as failing.
func ShouldNotify(policy Policy, report *engine.Report) bool {
	switch policy {
	case PolicyAlways:
		return true
	case PolicyNever:
		return false
	default:
		s := report.Summary()
		return s.Status == engine.StatusFail || s.ChecksFailed > 0
	}
}

type webhookPoster func(ctx context.Context, url string, msg *slacklib.WebhookMessage) error

// SlackNotifier sends the run summary to an incoming webhook.
type SlackNotifier struct {
	WebhookURL string
	Policy     Policy

	post webhookPoster
}

func NewSlackNotifier(webhookURL string, policy Policy) *SlackNotifier {
	if strings.TrimSpace(webhookURL) == "" {
		return nil
	}
	return &SlackNotifier{WebhookURL: strings.TrimSpace(webhookURL), Policy: policy, post: slacklib.PostWebhookContext}
}

// Notify posts the summary when the policy allows. artifacts are the
// report locations to link.
func (n *SlackNotifier) Notify(ctx context.Context, report *engine.Report, artifacts []string) error {
	if n == nil || n.WebhookURL == "" || report == nil {
		return nil
	}
	if !ShouldNotify(n.Policy, report) {
		return nil
	}
	post := n.post
	if post == nil {
		post = slacklib.PostWebhookContext
	}
	if err := post(ctx, n.WebhookURL, BuildMessage(report, artifacts)); err != nil {
		return fmt.Errorf("notify.SlackNotifier.Notify: %w", err)
	}
	return nil
}

// BuildMessage renders the report summary as a webhook message with one
// attachment per check.
func BuildMessage(report *engine.Report, artifacts []string) *slacklib.WebhookMessage {
	s := report.Summary()
	text := fmt.Sprintf("Healthcare data quality audit %s: %d issues across %d checks (run %s)",
		s.Status, s.TotalIssuesFound, s.ChecksPerformed, report.RunID)

	var attachments []slacklib.Attachment
	for _, res := range report.Results() {
		att := slacklib.Attachment{
			Title: res.CheckName,
			Color: "good",
			Fields: []slacklib.AttachmentField{
				{Title: "Issues", Value: fmt.Sprintf("%d", res.IssuesFound()), Short: true},
			},
		}
		switch {
		case res.Failed():
			att.Color = "danger"
			att.Text = "Check failed: " + res.Err.Error()
		case res.IssuesFound() > 0:
			att.Color = "warning"
		}
		if res.Aggregate != nil {
			att.Fields = append(att.Fields, slacklib.AttachmentField{
				Title: res.Aggregate.Name,
				Value: res.Aggregate.Value.String(),
				Short: true,
			})
		}
		attachments = append(attachments, att)
	}
	if len(artifacts) > 0 {
		attachments = append(attachments, slacklib.Attachment{
			Title: "Reports",
			Text:  strings.Join(artifacts, "\n"),
		})
	}
	return &slacklib.WebhookMessage{Text: text, Attachments: attachments}
}
