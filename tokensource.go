package epsonconnect

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// credentialTokenSource adapts a Credential to oauth2.TokenSource.
type credentialTokenSource struct {
	ctx        context.Context
	credential *Credential
}

// TokenSource returns an oauth2.TokenSource backed by the credential. Every
// Token call goes through EnsureValid, so renewal stays single-flight no
// matter how many transports share the source.
func (c *Credential) TokenSource(ctx context.Context) oauth2.TokenSource {
	if ctx == nil {
		ctx = context.Background()
	}
	return &credentialTokenSource{ctx: ctx, credential: c}
}

// Token implements oauth2.TokenSource.
func (s *credentialTokenSource) Token() (*oauth2.Token, error) {
	if err := s.credential.EnsureValid(s.ctx); err != nil {
		return nil, fmt.Errorf("epsonconnect: obtaining token: %w", err)
	}

	state := s.credential.snapshot()
	return &oauth2.Token{
		AccessToken:  state.accessToken,
		TokenType:    "Bearer",
		RefreshToken: state.refreshToken,
		Expiry:       state.expiresAt,
	}, nil
}
