// Package mailer sends transactional email through an HTTP email API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/logging"
)

// Message is one outbound email.
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Sender delivers messages. Implemented by *Client.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var _ Sender = (*Client)(nil)

// Client posts messages as JSON with a bearer API key.
type Client struct {
	endpoint string
	apiKey   string
	from     string
	http     *http.Client
	logger   *zap.Logger
}

const defaultTimeout = 10 * time.Second

func New(endpoint, apiKey, from string, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("email api url is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("email api key is required")
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		from:     from,
		http:     &http.Client{Timeout: defaultTimeout},
		logger:   logging.OrNop(logger).Named("mailer"),
	}, nil
}

func (c *Client) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("message has no recipients")
	}
	if msg.From == "" {
		msg.From = c.from
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	c.logger.Info("email sent", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
