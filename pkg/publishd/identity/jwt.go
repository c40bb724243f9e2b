package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	ClaimEmail = "email"
	ClaimName  = "name"

	acceptableSkew = 5 * time.Second
)

type JWTAuthenticator struct {
	keyOption func(ctx context.Context) (jwt.ParseOption, error)
	issuer    string
	audience  string
}

var _ Authenticator = &JWTAuthenticator{}

// NewHMACAuthenticator validates tokens signed with a shared HS256 secret.
func NewHMACAuthenticator(secret []byte, issuer, audience string) *JWTAuthenticator {
	return &JWTAuthenticator{
		keyOption: func(context.Context) (jwt.ParseOption, error) {
			return jwt.WithKey(jwa.HS256, secret), nil
		},
		issuer:   issuer,
		audience: audience,
	}
}

// NewJWKSAuthenticator validates tokens against the key set published at jwksURL.
// The key set is refreshed in the background for as long as ctx is alive.
func NewJWKSAuthenticator(ctx context.Context, jwksURL, issuer, audience string) (*JWTAuthenticator, error) {
	cache := jwk.NewCache(ctx)

	err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(15*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("register jwks url: %w", err)
	}

	_, err = cache.Refresh(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}

	return &JWTAuthenticator{
		keyOption: func(ctx context.Context) (jwt.ParseOption, error) {
			keys, err := cache.Get(ctx, jwksURL)
			if err != nil {
				return nil, fmt.Errorf("get jwks from cache: %w", err)
			}
			return jwt.WithKeySet(keys, jws.WithInferAlgorithmFromKey(true)), nil
		},
		issuer:   issuer,
		audience: audience,
	}, nil
}

func (a *JWTAuthenticator) parseOptions(ctx context.Context) ([]jwt.ParseOption, error) {
	keyOption, err := a.keyOption(ctx)
	if err != nil {
		return nil, err
	}

	opts := []jwt.ParseOption{
		keyOption,
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(acceptableSkew),
	}
	if len(a.issuer) > 0 {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if len(a.audience) > 0 {
		opts = append(opts, jwt.WithAudience(a.audience))
	}
	return opts, nil
}

func (a *JWTAuthenticator) Authenticate(ctx context.Context, token string) (*User, error) {
	opts, err := a.parseOptions(ctx)
	if err != nil {
		return nil, err
	}

	t, err := jwt.Parse([]byte(token), opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT token: %w", err)
	}

	if len(t.Subject()) == 0 {
		return nil, fmt.Errorf("invalid JWT token: missing subject")
	}

	return &User{
		ID:    t.Subject(),
		Email: stringClaim(t, ClaimEmail),
		Name:  stringClaim(t, ClaimName),
	}, nil
}

func stringClaim(t jwt.Token, name string) string {
	v, ok := t.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
