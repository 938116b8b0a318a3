// Package notifier consumes portal invite events and delivers the invite
// email to the client. It runs as its own binary so email provider outages
// never slow the API down.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/acecpas/workbench/internal/config"
)

// EmailSender delivers invite emails
type EmailSender interface {
	SendInvite(ctx context.Context, to, portalURL string, expiresAt time.Time, itemCount int) error
}

// HTTPEmailSender sends email through an HTTP email API (Resend-compatible)
type HTTPEmailSender struct {
	apiURL      string
	apiKey      string
	fromAddress string
	client      *http.Client
}

// NewHTTPEmailSender creates a sender from notifier configuration
func NewHTTPEmailSender(cfg *config.NotifierConfig) (*HTTPEmailSender, error) {
	if cfg.EmailAPIKey == "" {
		return nil, fmt.Errorf("notifier email API key is not configured")
	}

	return &HTTPEmailSender{
		apiURL:      cfg.EmailAPIURL,
		apiKey:      cfg.EmailAPIKey,
		fromAddress: cfg.FromAddress,
		client:      &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// SendInvite sends the portal invitation email
func (s *HTTPEmailSender) SendInvite(ctx context.Context, to, portalURL string, expiresAt time.Time, itemCount int) error {
	noun := "items"
	if itemCount == 1 {
		noun = "item"
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: sans-serif; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #1f3a5f; color: white; padding: 30px; border-radius: 10px 10px 0 0; }
        .content { background: #f8f9fa; padding: 30px; }
        .button { display: inline-block; background: #1f3a5f; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px; margin: 20px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Your accounting team has questions for you</h1>
        </div>
        <div class="content">
            <p>Hello,</p>
            <p>Your accounting team needs your input on <strong>%d open %s</strong>. No account or password is required; the link below is your access.</p>
            <a href="%s" class="button">Open the secure portal</a>
            <p style="color: #777; margin-top: 30px;">This link expires on %s.</p>
        </div>
    </div>
</body>
</html>
	`, itemCount, noun, portalURL, expiresAt.Format("January 2, 2006"))

	payload := map[string]interface{}{
		"from":    fmt.Sprintf("Ace CPAs <%s>", s.fromAddress),
		"to":      []string{to},
		"subject": fmt.Sprintf("Action needed: %d open %s from your accounting team", itemCount, noun),
		"html":    htmlBody,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send email: status %d", resp.StatusCode)
	}

	return nil
}
