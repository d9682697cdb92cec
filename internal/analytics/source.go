// Package analytics aggregates the dashboard's six remote metric resources
// into a single render-ready snapshot.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Resource names one of the six analytics endpoints.
type Resource string

const (
	ResourceOverview    Resource = "overview"
	ResourceSalesTrend  Resource = "sales-trend"
	ResourceOrderStatus Resource = "order-status"
	ResourceTopProducts Resource = "top-products"
	ResourceCategories  Resource = "categories"
	ResourceInventory   Resource = "inventory"
)

// Resources lists every resource fetched by a refresh, in display order.
var Resources = []Resource{
	ResourceOverview,
	ResourceSalesTrend,
	ResourceOrderStatus,
	ResourceTopProducts,
	ResourceCategories,
	ResourceInventory,
}

// maxBodyBytes caps how much of a resource body is read.
const maxBodyBytes = 4 << 20

// Envelope is the common wrapper every analytics endpoint answers with.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Source fetches one analytics resource. An error means the transport
// failed and no payload was produced; payload-level failure is reported
// through Envelope.Success instead.
type Source interface {
	Fetch(ctx context.Context, r Resource) (Envelope, error)
}

// HTTPSource fetches resources from {baseURL}/{resource}.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates an HTTPSource. A nil client uses http.DefaultClient.
func NewHTTPSource(baseURL string, client *http.Client) (*HTTPSource, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("analytics: base url is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{baseURL: strings.TrimRight(baseURL, "/"), client: client}, nil
}

// URL returns the address of resource r.
func (s *HTTPSource) URL(r Resource) string {
	return s.baseURL + "/" + string(r)
}

// Fetch GETs resource r and decodes its envelope. A body that is not an
// envelope is a transport failure. A non-2xx status with a valid envelope
// is reported as an unsuccessful envelope.
func (s *HTTPSource) Fetch(ctx context.Context, r Resource) (Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(r), nil)
	if err != nil {
		return Envelope{}, fmt.Errorf("analytics: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Envelope{}, fmt.Errorf("analytics: get %s: %w", r, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Envelope{}, fmt.Errorf("analytics: read %s: %w", r, err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("analytics: decode %s (status %d): %w", r, resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		env.Success = false
		if env.Error == "" {
			env.Error = fmt.Sprintf("status %d", resp.StatusCode)
		}
	}
	return env, nil
}

// StaticSource implements Source from in-memory envelopes for testing.
type StaticSource struct {
	mu        sync.Mutex
	envelopes map[Resource]Envelope
	errs      map[Resource]error
	calls     map[Resource]int
	gate      chan struct{}
}

// NewStaticSource creates an empty StaticSource. Resources without an
// envelope answer {success:false}.
func NewStaticSource() *StaticSource {
	return &StaticSource{
		envelopes: make(map[Resource]Envelope),
		errs:      make(map[Resource]error),
		calls:     make(map[Resource]int),
	}
}

// Set makes r answer successfully with data marshalled to JSON.
func (s *StaticSource) Set(r Resource, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("analytics: static source: marshal %s: %w", r, err)
	}
	s.SetEnvelope(r, Envelope{Success: true, Data: raw})
	return nil
}

// SetEnvelope makes r answer with env.
func (s *StaticSource) SetEnvelope(r Resource, env Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envelopes[r] = env
	delete(s.errs, r)
}

// SetError makes r fail at the transport level.
func (s *StaticSource) SetError(r Resource, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[r] = err
}

// Hold blocks subsequent fetches until Release or context end.
func (s *StaticSource) Hold() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
}

// Release unblocks fetches waiting because of Hold.
func (s *StaticSource) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate != nil {
		close(s.gate)
		s.gate = nil
	}
}

// Calls returns how many times r has been fetched.
func (s *StaticSource) Calls(r Resource) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[r]
}

// Fetch implements Source.
func (s *StaticSource) Fetch(ctx context.Context, r Resource) (Envelope, error) {
	s.mu.Lock()
	s.calls[r]++
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Envelope{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errs[r]; ok {
		return Envelope{}, err
	}
	if env, ok := s.envelopes[r]; ok {
		return env, nil
	}
	return Envelope{Success: false, Error: "not configured"}, nil
}
