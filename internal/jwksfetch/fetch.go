// Package jwksfetch resolves an OAuth2 issuer to its published JWKS entries
// via OIDC discovery, caching the result so the ZK input builder (pkg/zkinput)
// never has to block on a network round trip for a JWT it has already seen.
package jwksfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kzero-xyz/proofbridge/pkg/zkinput"
)

const refreshInterval = 5 * time.Minute

type cacheEntry struct {
	entries []zkinput.JWKSEntry
	fetched time.Time
}

// Fetcher discovers and caches JWKS documents by issuer. One Fetcher is
// shared across all producer submit requests handled by a server process.
type Fetcher struct {
	client *http.Client

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		cache:  make(map[string]cacheEntry),
	}
}

// Entries returns the JWKS entries published by issuer, refreshing the cache
// if it is missing or older than refreshInterval.
func (f *Fetcher) Entries(ctx context.Context, issuer string) ([]zkinput.JWKSEntry, error) {
	issuer = strings.TrimRight(strings.TrimSpace(issuer), "/")
	if issuer == "" {
		return nil, fmt.Errorf("jwksfetch: empty issuer")
	}

	f.mu.RLock()
	entry, ok := f.cache[issuer]
	f.mu.RUnlock()
	if ok && time.Since(entry.fetched) < refreshInterval {
		return entry.entries, nil
	}

	entries, err := f.discoverAndFetch(ctx, issuer)
	if err != nil {
		if ok {
			// Fail open to a stale cache on transient discovery/fetch errors.
			return entry.entries, nil
		}
		return nil, err
	}

	f.mu.Lock()
	f.cache[issuer] = cacheEntry{entries: entries, fetched: time.Now()}
	f.mu.Unlock()
	return entries, nil
}

func (f *Fetcher) discoverAndFetch(ctx context.Context, issuer string) ([]zkinput.JWKSEntry, error) {
	jwksURI, err := f.discoverJWKSURI(ctx, issuer)
	if err != nil {
		return nil, err
	}
	return f.fetchJWKS(ctx, jwksURI)
}

func (f *Fetcher) discoverJWKSURI(ctx context.Context, issuer string) (string, error) {
	url := issuer + "/.well-known/openid-configuration"
	var doc struct {
		JWKSURI string `json:"jwks_uri"`
	}
	if err := f.getJSON(ctx, url, &doc); err != nil {
		return "", fmt.Errorf("oidc discovery for %s: %w", issuer, err)
	}
	if doc.JWKSURI == "" {
		return "", fmt.Errorf("oidc discovery for %s: missing jwks_uri", issuer)
	}
	return doc.JWKSURI, nil
}

// wireJWK is the RFC 7517 wire shape; zkinput.JWKSEntry renames N to
// n_b64url to make the field's encoding explicit at the call site, so the
// two cannot be unmarshalled with the same struct tags.
type wireJWK struct {
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
}

func (f *Fetcher) fetchJWKS(ctx context.Context, jwksURI string) ([]zkinput.JWKSEntry, error) {
	var doc struct {
		Keys []wireJWK `json:"keys"`
	}
	if err := f.getJSON(ctx, jwksURI, &doc); err != nil {
		return nil, fmt.Errorf("fetch jwks %s: %w", jwksURI, err)
	}
	entries := make([]zkinput.JWKSEntry, 0, len(doc.Keys))
	for _, k := range doc.Keys {
		entries = append(entries, zkinput.JWKSEntry{
			Kid: k.Kid,
			N:   k.N,
			E:   k.E,
			Kty: k.Kty,
			Alg: k.Alg,
			Use: k.Use,
		})
	}
	return entries, nil
}

func (f *Fetcher) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
