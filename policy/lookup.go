package policy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jrsteele09/go-edge-auth/idp"
	apperrors "github.com/jrsteele09/go-edge-auth/internal/errors"
	"github.com/jrsteele09/go-edge-auth/internal/metrics"
)

// maxLookupBytes caps how much of an allow-list response is read.
const maxLookupBytes = 64 * 1024

// JSONLookup authorizes viewers listed in a JSON array of email addresses
// fetched from a configured endpoint. Matching is case-insensitive. Fetches
// are cached for a short TTL and collapsed so concurrent requests trigger at
// most one outbound call.
type JSONLookup struct {
	endpoint string
	client   *http.Client
	cacheTTL time.Duration
	metrics  *metrics.Metrics

	group     singleflight.Group
	mu        sync.RWMutex
	cached    map[string]struct{}
	fetchedAt time.Time
}

// LookupOption configures a JSONLookup policy.
type LookupOption func(*JSONLookup)

// WithTimeout bounds each allow-list fetch.
func WithTimeout(timeout time.Duration) LookupOption {
	return func(j *JSONLookup) {
		if timeout > 0 {
			j.client.Timeout = timeout
		}
	}
}

// WithCacheTTL sets how long a fetched allow-list is reused. Zero disables
// caching; the TTL is also the staleness bound on revocation.
func WithCacheTTL(ttl time.Duration) LookupOption {
	return func(j *JSONLookup) {
		if ttl > 0 {
			j.cacheTTL = ttl
		}
	}
}

// WithHTTPClient replaces the HTTP client used for fetches.
func WithHTTPClient(client *http.Client) LookupOption {
	return func(j *JSONLookup) {
		j.client = client
	}
}

// WithMetrics records fetch latencies on the given metrics.
func WithMetrics(m *metrics.Metrics) LookupOption {
	return func(j *JSONLookup) {
		j.metrics = m
	}
}

// NewJSONLookup creates a lookup policy against the given endpoint.
func NewJSONLookup(endpoint string, opts ...LookupOption) *JSONLookup {
	lookup := &JSONLookup{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 3 * time.Second},
	}
	for _, opt := range opts {
		opt(lookup)
	}
	return lookup
}

func (j *JSONLookup) Name() string {
	return "json-lookup"
}

// Authorize reports whether the assertion's email is on the allow-list.
// Any fetch or decode failure is returned as an error so the caller denies.
func (j *JSONLookup) Authorize(ctx context.Context, assertion *idp.Assertion) (bool, error) {
	if assertion == nil || !assertion.EmailVerified {
		return false, nil
	}

	allowed, err := j.allowedSet(ctx)
	if err != nil {
		return false, err
	}

	_, ok := allowed[strings.ToLower(assertion.Email)]
	return ok, nil
}

// allowedSet returns the cached allow-list, refreshing it when the TTL has
// lapsed. Concurrent refreshes collapse into a single fetch.
func (j *JSONLookup) allowedSet(ctx context.Context) (map[string]struct{}, error) {
	if cached := j.freshCache(); cached != nil {
		return cached, nil
	}

	result, err, _ := j.group.Do("allow-list", func() (any, error) {
		// Another request may have refreshed while this one queued.
		if cached := j.freshCache(); cached != nil {
			return cached, nil
		}

		started := time.Now()
		fetched, err := j.fetch(ctx)
		j.metrics.ObserveLookupLatency(time.Since(started))
		if err != nil {
			return nil, err
		}

		j.mu.Lock()
		j.cached = fetched
		j.fetchedAt = time.Now()
		j.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]struct{}), nil
}

func (j *JSONLookup) freshCache() map[string]struct{} {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.cached == nil || time.Since(j.fetchedAt) >= j.cacheTTL {
		return nil
	}
	return j.cached
}

func (j *JSONLookup) fetch(ctx context.Context) (map[string]struct{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.endpoint, nil)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to build allow-list request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrNetworkFailure, "allow-list fetch failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Wrapf(apperrors.ErrLookupInvalidResponse, "allow-list endpoint returned %d", resp.StatusCode)
	}

	var emails []string
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxLookupBytes)).Decode(&emails); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrLookupInvalidResponse, "allow-list is not a JSON array of strings: %v", err)
	}

	allowed := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			allowed[email] = struct{}{}
		}
	}
	return allowed, nil
}
