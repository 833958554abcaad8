package epsonconnect

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	tokenEndpoint   = "/api/1/printing/oauth2/auth/token?subject=printer"
	printerEndpoint = "/api/1/printing/printers/%s"

	grantPassword = "password"
	grantRefresh  = "refresh_token"

	renewalKey = "token"

	// maxTokenLifetime bounds expires_in; larger values are treated as malformed.
	maxTokenLifetime = 365 * 24 * time.Hour
)

// tokenResponse is the success payload of the token endpoint.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	SubjectID    string `json:"subject_id"`
	TokenType    string `json:"token_type,omitempty"`
}

// Credential holds the access token for a single device and renews it on
// demand. It is safe for concurrent use.
type Credential struct {
	baseURL      string
	principal    string
	clientID     string
	clientSecret string

	dispatcher *Dispatcher
	logger     *slog.Logger
	now        func() time.Time

	renewals singleflight.Group

	// mu guards the fields below, which always change together.
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	subjectID    string
	expiresAt    time.Time
}

// CredentialOption configures a Credential.
type CredentialOption func(*Credential)

// WithCredentialClock sets the time source used for expiry checks.
func WithCredentialClock(now func() time.Time) CredentialOption {
	return func(c *Credential) {
		if now != nil {
			c.now = now
		}
	}
}

// WithCredentialLogger sets the logger used for renewal events.
func WithCredentialLogger(logger *slog.Logger) CredentialOption {
	return func(c *Credential) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCredential creates an unauthenticated Credential. The first call to
// EnsureValid performs a password grant.
func NewCredential(baseURL, principal, clientID, clientSecret string, dispatcher *Dispatcher, opts ...CredentialOption) *Credential {
	c := &Credential{
		baseURL:      baseURL,
		principal:    principal,
		clientID:     clientID,
		clientSecret: clientSecret,
		dispatcher:   dispatcher,
		logger:       slog.New(slog.DiscardHandler),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.dispatcher == nil {
		c.dispatcher = NewDispatcher(nil, c.logger)
	}
	c.expiresAt = c.now()

	return c
}

// EnsureValid makes sure the credential holds an unexpired access token,
// exchanging a grant with the token endpoint if necessary.
//
// Concurrent callers that find the token expired share a single in-flight
// exchange and all receive its result. The exchange is not cancelled when a
// caller's context is; the caller simply stops waiting.
func (c *Credential) EnsureValid(ctx context.Context) error {
	if c.valid() {
		return nil
	}

	ch := c.renewals.DoChan(renewalKey, func() (any, error) {
		return nil, c.renew(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Credential) valid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now().Before(c.expiresAt)
}

// renew runs at most once at a time per Credential.
func (c *Credential) renew(ctx context.Context) error {
	c.mu.RLock()
	if c.now().Before(c.expiresAt) {
		// A flight that completed just before this one already renewed.
		c.mu.RUnlock()
		return nil
	}
	grant := grantRefresh
	form := url.Values{}
	if c.accessToken == "" {
		grant = grantPassword
		form.Set("grant_type", grantPassword)
		form.Set("username", c.principal)
		form.Set("password", "")
	} else {
		form.Set("grant_type", grantRefresh)
		form.Set("refresh_token", c.refreshToken)
	}
	currentSubject := c.subjectID
	c.mu.RUnlock()

	tok, err := c.exchange(ctx, form)
	if err != nil {
		c.logger.WarnContext(ctx, "token exchange failed", "grant", grant, "error", err)
		return err
	}

	if err := checkTokenResponse(grant, currentSubject, tok); err != nil {
		c.logger.WarnContext(ctx, "token response rejected", "grant", grant, "error", err)
		return err
	}

	c.mu.Lock()
	if grant == grantPassword {
		c.refreshToken = tok.RefreshToken
	}
	if tok.SubjectID != "" {
		c.subjectID = tok.SubjectID
	}
	c.accessToken = tok.AccessToken
	c.expiresAt = c.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	expiresAt := c.expiresAt
	subject := c.subjectID
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "access token renewed",
		"grant", grant,
		"subject_id", subject,
		"expires_at", expiresAt.Format(time.RFC3339),
	)

	return nil
}

func (c *Credential) exchange(ctx context.Context, form url.Values) (*tokenResponse, error) {
	basic := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))

	resp, err := c.dispatcher.Send(ctx, &Request{
		Method: http.MethodPost,
		URL:    c.baseURL + tokenEndpoint,
		Header: http.Header{
			"Authorization": {"Basic " + basic},
			"Content-Type":  {"application/x-www-form-urlencoded"},
		},
		Body: []byte(form.Encode()),
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, &AuthenticationError{Code: apiErr.Code, Description: apiErr.Description}
		}
		return nil, fmt.Errorf("executing token request: %w", err)
	}

	var tok tokenResponse
	if err := resp.Decode(&tok); err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: "unreadable token response", Err: err}
	}

	return &tok, nil
}

func checkTokenResponse(grant, currentSubject string, tok *tokenResponse) error {
	switch {
	case tok.AccessToken == "":
		return &AuthenticationError{Code: "invalid_token_response", Description: "missing access_token"}
	case tok.ExpiresIn <= 0 || tok.ExpiresIn > int64(maxTokenLifetime/time.Second):
		return &AuthenticationError{Code: "invalid_token_response", Description: fmt.Sprintf("invalid expires_in %d", tok.ExpiresIn)}
	case grant == grantPassword && tok.RefreshToken == "":
		return &AuthenticationError{Code: "invalid_token_response", Description: "missing refresh_token"}
	case grant == grantPassword && tok.SubjectID == "" && currentSubject == "":
		return &AuthenticationError{Code: "invalid_token_response", Description: "missing subject_id"}
	case currentSubject != "" && tok.SubjectID != "" && tok.SubjectID != currentSubject:
		return &AuthenticationError{
			Code:        "subject_mismatch",
			Description: fmt.Sprintf("token issued for %s, credential is bound to %s", tok.SubjectID, currentSubject),
		}
	}
	return nil
}

// Revoke removes the device registration on the remote side. Local state is
// left untouched; the server will reject the current tokens afterwards.
func (c *Credential) Revoke(ctx context.Context) error {
	subject := c.SubjectID()
	if subject == "" {
		return &PreconditionError{Op: "revoke", Reason: "credential has never been authenticated"}
	}

	if err := c.EnsureValid(ctx); err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}

	_, err := c.dispatcher.Send(ctx, &Request{
		Method: http.MethodDelete,
		URL:    c.baseURL + fmt.Sprintf(printerEndpoint, url.PathEscape(subject)),
		Header: http.Header{"Authorization": {"Bearer " + c.AccessToken()}},
	})
	if err != nil {
		return fmt.Errorf("revoking device %s: %w", subject, err)
	}

	c.logger.InfoContext(ctx, "device registration revoked", "subject_id", subject)

	return nil
}

// SubjectID returns the remote device identifier, or "" before the first
// successful authentication.
func (c *Credential) SubjectID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subjectID
}

// AccessToken returns the current access token without checking expiry.
func (c *Credential) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// ExpiresAt returns the instant the current access token expires.
func (c *Credential) ExpiresAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiresAt
}

// Authenticated reports whether at least one token exchange has succeeded.
func (c *Credential) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken != ""
}

// snapshot returns the mutable state as one consistent unit.
func (c *Credential) snapshot() credentialState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return credentialState{
		accessToken:  c.accessToken,
		refreshToken: c.refreshToken,
		subjectID:    c.subjectID,
		expiresAt:    c.expiresAt,
	}
}

type credentialState struct {
	accessToken  string
	refreshToken string
	subjectID    string
	expiresAt    time.Time
}
