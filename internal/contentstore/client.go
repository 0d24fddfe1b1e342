// Package contentstore uploads binary objects to the backend's storage API.
package contentstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/logging"
)

// Uploader stores an object and returns its public URL. Implemented by *Client.
type Uploader interface {
	Upload(ctx context.Context, bucket, object, contentType string, body io.Reader) (string, error)
}

var _ Uploader = (*Client)(nil)

// Client talks to a storage API that authenticates with an anonymous key.
type Client struct {
	baseURL *url.URL
	anonKey string
	http    *http.Client
	logger  *zap.Logger
}

const requestTimeout = 30 * time.Second

func New(baseURL, anonKey string, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("backend url is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", baseURL)
	}
	return &Client{
		baseURL: u,
		anonKey: anonKey,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logging.OrNop(logger).Named("contentstore"),
	}, nil
}

// Upload posts body to {base}/storage/v1/object/{bucket}/{object}.
func (c *Client) Upload(ctx context.Context, bucket, object, contentType string, body io.Reader) (string, error) {
	if bucket == "" || object == "" {
		return "", errors.New("bucket and object are required")
	}
	endpoint := c.baseURL.JoinPath("storage", "v1", "object", bucket, object)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
	req.Header.Set("x-upsert", "false")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, object, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload %s/%s: status %d: %s", bucket, object, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	public := c.PublicURL(bucket, object)
	c.logger.Info("object uploaded", zap.String("bucket", bucket), zap.String("object", object))
	return public, nil
}

// PublicURL is the read URL of an object in a public bucket.
func (c *Client) PublicURL(bucket, object string) string {
	return c.baseURL.JoinPath("storage", "v1", "object", "public", bucket, object).String()
}
