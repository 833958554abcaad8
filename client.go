package epsonconnect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultBaseURL = "https://api.epsonconnect.com"
	defaultTimeout = 30 * time.Second
)

// Client represents an Epson Connect API client bound to a single device.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	now        func() time.Time

	dispatcher *Dispatcher
	credential *Credential
}

// Option is a function that configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger used for authentication and request events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClock sets the time source used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a new Epson Connect client. No request is sent until the first
// operation needs a token.
func New(printerEmail, clientID, clientSecret string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(printerEmail) == "" {
		return nil, fmt.Errorf("%w: printer email cannot be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(clientID) == "" {
		return nil, fmt.Errorf("%w: client ID cannot be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(clientSecret) == "" {
		return nil, fmt.Errorf("%w: client secret cannot be empty", ErrInvalidConfig)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}

	c.dispatcher = NewDispatcher(c.httpClient, c.logger)
	c.credential = NewCredential(c.baseURL, printerEmail, clientID, clientSecret, c.dispatcher,
		WithCredentialLogger(c.logger),
		WithCredentialClock(c.now),
	)

	return c, nil
}

// Credential returns the authentication context shared by all operations.
func (c *Client) Credential() *Credential {
	return c.credential
}

// Dispatcher returns the transport used for every request.
func (c *Client) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// Deauthenticate removes the device registration on the remote side.
func (c *Client) Deauthenticate(ctx context.Context) error {
	return c.credential.Revoke(ctx)
}

// Printer returns the printing operations for the authenticated device.
func (c *Client) Printer() *Printer {
	return &Printer{client: c}
}

// Scanner returns the scan destination operations for the authenticated device.
func (c *Client) Scanner() *Scanner {
	return &Scanner{client: c}
}

// HTTPClient returns an *http.Client that attaches the credential's bearer
// token to every request, renewing it when needed.
func (c *Client) HTTPClient(ctx context.Context) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: c.credential.TokenSource(ctx),
			Base:   c.httpClient.Transport,
		},
		Timeout: c.httpClient.Timeout,
	}
}

// subjectSegment authenticates if needed and returns the device identifier
// escaped for use as a path segment.
func (c *Client) subjectSegment(ctx context.Context) (string, error) {
	if err := c.credential.EnsureValid(ctx); err != nil {
		return "", fmt.Errorf("authentication failed: %w", err)
	}
	return url.PathEscape(c.credential.SubjectID()), nil
}

// doRequest performs an authenticated request.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any) (*Response, error) {
	// For absolute URLs (like upload URIs), use them directly
	fullURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		fullURL = c.baseURL + endpoint
	}

	if err := c.credential.EnsureValid(ctx); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.credential.AccessToken())

	var reqBody []byte
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = jsonBody
		header.Set("Content-Type", "application/json")
	}

	return c.dispatcher.Send(ctx, &Request{
		Method: method,
		URL:    fullURL,
		Header: header,
		Body:   reqBody,
	})
}
