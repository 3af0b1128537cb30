package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrProviderDisabled is returned by the Disabled identity provider.
var ErrProviderDisabled = errors.New("external identity provider is not configured")

// ExternalIdentity is the subset of a verified ID token the clinic cares
// about when provisioning or linking a user.
type ExternalIdentity struct {
	Subject  string
	Email    string
	FullName string
}

// IdentityProvider verifies externally-issued identity tokens. The concrete
// provider is chosen once at startup from configuration; handlers never probe
// the environment themselves.
type IdentityProvider interface {
	Name() string
	Verify(ctx context.Context, rawIDToken string) (*ExternalIdentity, error)
}

// Disabled is the default IdentityProvider when no OIDC issuer is configured.
type Disabled struct{}

func (Disabled) Name() string { return "disabled" }

func (Disabled) Verify(context.Context, string) (*ExternalIdentity, error) {
	return nil, ErrProviderDisabled
}

// OIDCConfig configures token verification against an OIDC issuer.
type OIDCConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
	// SigningKey enables HMAC verification in tests.
	SigningKey []byte
}

type oidcClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// OIDCProvider verifies RS256 ID tokens against the issuer's JWKS endpoint.
type OIDCProvider struct {
	cfg  OIDCConfig
	jwks *jwksCache
}

func NewOIDCProvider(cfg OIDCConfig) (*OIDCProvider, error) {
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("oidc: issuer is required")
	}

	jwksURL := cfg.JWKSURL
	if jwksURL == "" && len(cfg.SigningKey) == 0 {
		// OIDC discovery convention.
		jwksURL = cfg.Issuer + "/.well-known/jwks.json"
	}

	p := &OIDCProvider{cfg: cfg}
	if jwksURL != "" {
		p.jwks = newJWKSCache(jwksURL, defaultJWKSCacheTTL)
	}
	return p, nil
}

func (p *OIDCProvider) Name() string { return "oidc" }

// Verify parses and validates an ID token and extracts the external identity.
// The accepted signing method follows the configured mode: HS256 only with a
// shared SigningKey, RS256 only against a JWKS.
func (p *OIDCProvider) Verify(_ context.Context, rawIDToken string) (*ExternalIdentity, error) {
	claims := &oidcClaims{}

	methods := []string{"RS256"}
	if len(p.cfg.SigningKey) > 0 {
		methods = []string{"HS256"}
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithIssuer(p.cfg.Issuer),
	}
	if p.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(p.cfg.Audience))
	}

	var token *jwt.Token
	var err error
	if len(p.cfg.SigningKey) > 0 {
		token, err = jwt.ParseWithClaims(rawIDToken, claims, func(t *jwt.Token) (interface{}, error) {
			return p.cfg.SigningKey, nil
		}, opts...)
	} else {
		token, err = jwt.ParseWithClaims(rawIDToken, claims, p.keyFunc, opts...)
	}
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("oidc: invalid id token: %w", err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("oidc: id token has no subject")
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("oidc: id token has no email claim")
	}

	return &ExternalIdentity{
		Subject:  claims.Subject,
		Email:    claims.Email,
		FullName: claims.Name,
	}, nil
}

func (p *OIDCProvider) keyFunc(token *jwt.Token) (interface{}, error) {
	kid, ok := token.Header["kid"].(string)
	if !ok || kid == "" {
		return nil, fmt.Errorf("token has no kid header")
	}
	return p.jwks.getKey(kid)
}

// defaultJWKSCacheTTL is the default time-to-live for cached JWKS keys.
const defaultJWKSCacheTTL = 5 * time.Minute

type jwksKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksResponse struct {
	Keys []jwksKey `json:"keys"`
}

// jwksCache caches JWKS keys fetched from a remote endpoint with a TTL.
type jwksCache struct {
	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	jwksURL   string
	ttl       time.Duration
	fetchedAt time.Time
	client    *http.Client
}

func newJWKSCache(jwksURL string, ttl time.Duration) *jwksCache {
	return &jwksCache{
		keys:    make(map[string]*rsa.PublicKey),
		jwksURL: jwksURL,
		ttl:     ttl,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// getKey returns the RSA public key for the given kid, refetching the JWKS
// on cache miss or TTL expiry.
func (c *jwksCache) getKey(kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	expired := time.Since(c.fetchedAt) > c.ttl
	c.mu.RUnlock()

	if ok && !expired {
		return key, nil
	}

	if err := c.fetch(); err != nil {
		return nil, fmt.Errorf("fetching JWKS: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok = c.keys[kid]
	if !ok {
		return nil, fmt.Errorf("key with kid %q not found in JWKS", kid)
	}
	return key, nil
}

func (c *jwksCache) fetch() error {
	resp, err := c.client.Get(c.jwksURL)
	if err != nil {
		return fmt.Errorf("GET %s: %w", c.jwksURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var jwks jwksResponse
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("decoding JWKS response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, k := range jwks.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pubKey, err := parseRSAPublicKey(k)
		if err != nil {
			continue // skip malformed keys
		}
		keys[k.Kid] = pubKey
	}

	c.mu.Lock()
	c.keys = keys
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return nil
}

func parseRSAPublicKey(k jwksKey) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)

	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}
