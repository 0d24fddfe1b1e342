// Package shopify talks to the storefront commerce graph API. Every operation
// is a single POST with no retry; failures surface as domain.ErrRemoteUnavailable.
package shopify

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

	"storefront/internal/domain"
	"storefront/internal/logging"
)

const (
	defaultAPIVersion = "2024-07"
	defaultTimeout    = 10 * time.Second
	tokenHeader       = "X-Shopify-Storefront-Access-Token"
	maxResponseBytes  = 4 << 20
)

// Options configures a Client.
type Options struct {
	ShopDomain string
	Token      string
	APIVersion string
	Timeout    time.Duration
	// Endpoint overrides the URL derived from ShopDomain.
	Endpoint   string
	HTTPClient *http.Client
}

// Client issues queries and mutations against the storefront graph endpoint.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	logger   *zap.Logger
}

// New builds a Client.
func New(opts Options, logger *zap.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		domainName := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(opts.ShopDomain), "https://"), "/")
		if domainName == "" {
			return nil, errors.New("shop domain required")
		}
		version := strings.TrimSpace(opts.APIVersion)
		if version == "" {
			version = defaultAPIVersion
		}
		endpoint = fmt.Sprintf("https://%s/api/%s/graphql.json", domainName, version)
	}
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("storefront token required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		endpoint: endpoint,
		token:    opts.Token,
		http:     httpClient,
		logger:   logging.OrNop(logger).Named("shopify"),
	}, nil
}

// do sends one document and decodes its data into dest. Transport, status,
// GraphQL and decode failures are all reported as ErrRemoteUnavailable.
func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, dest any) (err error) {
	start := time.Now()
	defer func() {
		observe(op, err, time.Since(start))
		if err != nil {
			c.logger.Warn("remote call failed", zap.String("op", op), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
			return
		}
		c.logger.Debug("remote call", zap.String("op", op), zap.Duration("elapsed", time.Since(start)))
	}()

	body, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(tokenHeader, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrRemoteUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s: %w: status %d", op, domain.ErrRemoteUnavailable, resp.StatusCode)
	}

	var envelope gqlResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&envelope); err != nil {
		return fmt.Errorf("%s: %w: decode response: %v", op, domain.ErrRemoteUnavailable, err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("%s: %w: %s", op, domain.ErrRemoteUnavailable, envelope.Errors[0].Message)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return fmt.Errorf("%s: %w: empty data", op, domain.ErrRemoteUnavailable)
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		return fmt.Errorf("%s: %w: decode data: %v", op, domain.ErrRemoteUnavailable, err)
	}
	return nil
}

func userErrorsErr(op string, errs []userError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return fmt.Errorf("%s: %w: %s", op, domain.ErrRemoteUnavailable, strings.Join(msgs, "; "))
}
