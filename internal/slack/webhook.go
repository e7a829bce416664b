// Package slack posts messages to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/obentoo/versioneye-slack/internal/common/httpclient"
)

const (
	// DefaultChannel is used when no channel is configured
	DefaultChannel = "#general"
	// DefaultUsername is the bot name shown in the channel
	DefaultUsername = "VersionEye"
	// DefaultIconURL is the avatar shown next to each message
	DefaultIconURL = "https://raw.githubusercontent.com/Sharpek/versioneye-slack/master/data/verisoneye-logo-small.png"
)

var (
	// ErrMissingWebhookURL is returned when no webhook URL is configured
	ErrMissingWebhookURL = errors.New("slack webhook URL is required")
	// ErrSendFailed is returned when the webhook does not answer 200 OK
	ErrSendFailed = errors.New("slack webhook rejected message")
)

// Field is a short key/value pair rendered inside an attachment.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Attachment is a single formatted block of a message.
type Attachment struct {
	Fallback   string   `json:"fallback,omitempty"`
	Title      string   `json:"title,omitempty"`
	TitleLink  string   `json:"title_link,omitempty"`
	Text       string   `json:"text,omitempty"`
	Color      string   `json:"color,omitempty"`
	Fields     []Field  `json:"fields,omitempty"`
	MarkdownIn []string `json:"mrkdwn_in,omitempty"`
}

// Message is the webhook payload.
type Message struct {
	Channel     string       `json:"channel"`
	Username    string       `json:"username"`
	Attachments []Attachment `json:"attachments"`
	IconURL     string       `json:"icon_url"`
}

// Webhook sends messages to one incoming webhook URL.
type Webhook struct {
	url        string
	httpClient *httpclient.RetryableHTTPClient
}

// WebhookOption configures a Webhook.
type WebhookOption func(*Webhook)

// WithHTTPClient sets the HTTP client used to post messages.
func WithHTTPClient(client *httpclient.RetryableHTTPClient) WebhookOption {
	return func(w *Webhook) {
		if client != nil {
			w.httpClient = client
		}
	}
}

// NewWebhook creates a Webhook. Delivery is attempted once: a rejected
// message is reported to the caller rather than retried.
func NewWebhook(url string, opts ...WebhookOption) (*Webhook, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrMissingWebhookURL
	}

	w := &Webhook{url: url}
	for _, opt := range opts {
		opt(w)
	}
	if w.httpClient == nil {
		w.httpClient = httpclient.NewWithConfig(httpclient.NoRetryConfig())
	}
	return w, nil
}

// Send posts msg and succeeds only on HTTP 200.
func (w *Webhook) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	resp, err := w.httpClient.Post(ctx, w.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrSendFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	io.Copy(io.Discard, resp.Body)
	return nil
}
