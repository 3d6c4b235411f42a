package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier validates ID tokens against an OpenID Connect provider using
// discovery and the provider's JWKS.
type OIDCVerifier struct {
	verifier   *oidc.IDTokenVerifier
	httpClient *http.Client
}

// NewOIDCVerifier performs provider discovery against issuerURL. httpClient is
// used for discovery and key fetches; pass a caching client to honour the
// provider's Cache-Control headers.
func NewOIDCVerifier(ctx context.Context, issuerURL, audience string, httpClient *http.Client) (*OIDCVerifier, error) {
	if httpClient != nil {
		ctx = oidc.ClientContext(ctx, httpClient)
	}

	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider discovery: %w", err)
	}

	return &OIDCVerifier{
		verifier:   provider.Verifier(&oidc.Config{ClientID: audience, SkipClientIDCheck: audience == ""}),
		httpClient: httpClient,
	}, nil
}

// Verify checks the token and returns its subject. Email is only set when the
// provider asserts email_verified, since it is what members are added by.
func (v *OIDCVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	if v.httpClient != nil {
		ctx = oidc.ClientContext(ctx, v.httpClient)
	}

	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var claims struct {
		Email         string       `json:"email"`
		EmailVerified stringAsBool `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %w", ErrInvalidToken, err)
	}

	if idToken.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	principal := &Principal{UserID: idToken.Subject}
	if claims.EmailVerified {
		principal.Email = claims.Email
	}

	return principal, nil
}

// stringAsBool accepts email_verified as a JSON boolean or as the string
// "true", which some providers (Cognito among them) emit.
type stringAsBool bool

func (sb *stringAsBool) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch t := v.(type) {
	case bool:
		*sb = stringAsBool(t)
	case string:
		*sb = t == "true"
	case nil:
		*sb = false
	default:
		return fmt.Errorf("invalid email_verified value: %s", b)
	}
	return nil
}
