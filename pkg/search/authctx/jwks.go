package authctx

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"golang.org/x/sync/singleflight"
)

// jwksEntry is one cached key set, timestamped when it was fetched.
type jwksEntry struct {
	set       jwk.Set
	fetchedAt time.Time
}

// JWKSVerifier verifies RS256 bearer tokens against a JWKS document cached
// per issuer URL. Cache entries are refreshed under a per-URL singleflight
// so concurrent verifications of the same issuer collapse into one fetch,
// and a stale entry is served rather than failing the request when a
// refresh fails (spec.md §4.7.1).
type JWKSVerifier struct {
	httpClient  *http.Client
	localURL    string
	azureTenant string
	ttl         time.Duration

	mu      sync.Mutex
	entries map[string]*jwksEntry
	group   singleflight.Group
}

// NewJWKSVerifier builds a JWKSVerifier. localURL is the service's own JWKS
// endpoint; azureTenant (if set) selects Azure AD's discovery endpoint for
// tokens whose issuer names that tenant.
func NewJWKSVerifier(httpClient *http.Client, localURL, azureTenant string, ttl time.Duration) *JWKSVerifier {
	return &JWKSVerifier{
		httpClient:  httpClient,
		localURL:    localURL,
		azureTenant: azureTenant,
		ttl:         ttl,
		entries:     make(map[string]*jwksEntry),
	}
}

// Verify parses rawToken without validation to find its issuer, selects and
// fetches (or reuses) that issuer's JWKS, verifies the signature, and
// returns its claims as a generic map.
func (v *JWKSVerifier) Verify(ctx context.Context, rawToken string) (map[string]interface{}, error) {
	unverified, err := jwt.ParseInsecure([]byte(rawToken))
	if err != nil {
		return nil, fmt.Errorf("authctx: parsing token: %w", err)
	}
	iss, _ := unverified.Issuer()

	keySet, err := v.keySetFor(ctx, v.urlFor(iss))
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse([]byte(rawToken), jwt.WithKeySet(keySet), jwt.WithValidate(true))
	if err != nil {
		return nil, fmt.Errorf("authctx: verifying token: %w", err)
	}

	claims := make(map[string]interface{})
	for _, key := range token.Keys() {
		var val interface{}
		if err := token.Get(key, &val); err == nil {
			claims[key] = val
		}
	}
	return claims, nil
}

// urlFor selects the Azure AD discovery endpoint when iss names the
// configured tenant, otherwise the service's own local JWKS URL.
func (v *JWKSVerifier) urlFor(iss string) string {
	if v.azureTenant != "" && strings.Contains(iss, v.azureTenant) {
		return fmt.Sprintf("https://login.microsoftonline.com/%s/discovery/v2.0/keys", v.azureTenant)
	}
	return v.localURL
}

func (v *JWKSVerifier) keySetFor(ctx context.Context, url string) (jwk.Set, error) {
	v.mu.Lock()
	entry, cached := v.entries[url]
	v.mu.Unlock()

	if cached && time.Since(entry.fetchedAt) < v.ttl {
		return entry.set, nil
	}

	result, err, _ := v.group.Do(url, func() (interface{}, error) {
		return v.fetch(ctx, url)
	})
	if err != nil {
		if cached {
			return entry.set, nil
		}
		return nil, fmt.Errorf("authctx: fetching JWKS %s: %w", url, err)
	}
	return result.(jwk.Set), nil
}

func (v *JWKSVerifier) fetch(ctx context.Context, url string) (jwk.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jwks endpoint %s returned status %d", url, resp.StatusCode)
	}

	set, err := jwk.ParseReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing JWKS document: %w", err)
	}

	v.mu.Lock()
	v.entries[url] = &jwksEntry{set: set, fetchedAt: time.Now()}
	v.mu.Unlock()
	return set, nil
}
