// Package client is the Go SDK for the Arena competitions API.
//
// Requests and responses cross the pkg/codec type registry rather than
// struct tags: the descriptor table in types.go maps every payload type to
// its wire shape, and the endpoint methods convert through ToWire/FromWire.
// The HTTP layer retries transient failures and trips a circuit breaker
// when the API is persistently unhealthy.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ArenaX-Network/arena_layer/pkg/codec"
)

const defaultUserAgent = "arena-client/1.0"

// Config holds client configuration. BaseURL and APIKey are required;
// everything else has a default.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string
	Retry      *RetryConfig
	Breaker    *CircuitBreakerConfig
}

// Client is an Arena API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	transport  *resilientTransport
	registry   *codec.Registry

	mu    sync.RWMutex
	token string
}

// New creates an Arena API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("APIKey is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse BaseURL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	retry := DefaultRetryConfig()
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}
	breaker := DefaultCircuitBreakerConfig()
	if cfg.Breaker != nil {
		breaker = *cfg.Breaker
	}
	transport := newResilientTransport(cfg.HTTPClient, retry, breaker)

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		userAgent:  userAgent,
		httpClient: &http.Client{Transport: transport, Timeout: timeout},
		transport:  transport,
		registry:   newRegistry(),
	}, nil
}

// SetToken installs the bearer token used for user-scoped endpoints.
// Auth().Login stores its token here automatically.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token, if any.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// CircuitState returns the state of the transport's circuit breaker.
func (c *Client) CircuitState() CircuitState {
	return c.transport.breaker.State()
}

// Auth returns the authentication endpoint group.
func (c *Client) Auth() *AuthService { return &AuthService{c: c} }

// Agents returns the agent endpoint group.
func (c *Client) Agents() *AgentsService { return &AgentsService{c: c} }

// Competitions returns the competition endpoint group.
func (c *Client) Competitions() *CompetitionsService { return &CompetitionsService{c: c} }

// Trading returns the trading endpoint group.
func (c *Client) Trading() *TradingService { return &TradingService{c: c} }

// Perps returns the perpetuals monitoring endpoint group.
func (c *Client) Perps() *PerpsService { return &PerpsService{c: c} }

func (c *Client) get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, "")
}

func (c *Client) post(ctx context.Context, path string, body any, typeExpr string) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, nil, body, typeExpr)
}

func (c *Client) put(ctx context.Context, path string, body any, typeExpr string) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, nil, body, typeExpr)
}

// do executes one request. A non-nil body is converted through the registry
// under typeExpr and serialized with the negotiated media type. A failure
// envelope is returned as both the raw Response and an *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, typeExpr string) (*Response, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	media, err := codec.GetPreferredMediaType(nil)
	if err != nil {
		return nil, err
	}
	var reader io.Reader
	if body != nil {
		wire := c.registry.ToWire(body, typeExpr, "")
		raw, err := codec.Stringify(wire, media)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = strings.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", media)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", media)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	resp := &Response{StatusCode: httpResp.StatusCode, Body: data, Headers: httpResp.Header}
	if err := resp.Error(); err != nil {
		return resp, err
	}
	return resp, nil
}

// payload extracts one envelope key and converts it under typeExpr.
func (c *Client) payload(resp *Response, key, typeExpr string) (any, error) {
	env, err := resp.envelope()
	if err != nil {
		return nil, err
	}
	raw, ok := env[key]
	if !ok {
		return nil, fmt.Errorf("response missing %q", key)
	}
	return c.registry.FromWire(raw, typeExpr, ""), nil
}

// decodeOne extracts a single typed payload from the envelope.
func decodeOne[T any](c *Client, resp *Response, key, typeExpr string) (*T, error) {
	raw, err := c.payload(resp, key, typeExpr)
	if err != nil {
		return nil, err
	}
	v, ok := raw.(*T)
	if !ok {
		return nil, fmt.Errorf("unexpected %q payload shape", key)
	}
	return v, nil
}

// decodeList extracts a typed list payload from the envelope. A null list
// decodes as empty.
func decodeList[T any](c *Client, resp *Response, key, elemType string) ([]T, error) {
	raw, err := c.payload(resp, key, "Array<"+elemType+"> | null")
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected %q payload shape", key)
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		v, ok := item.(*T)
		if !ok {
			return nil, fmt.Errorf("unexpected %q element shape", key)
		}
		out = append(out, *v)
	}
	return out, nil
}

// decodeInline converts the whole envelope under typeExpr, for endpoints
// that merge their payload into the envelope rather than nesting it.
func decodeInline[T any](c *Client, resp *Response, typeExpr string) (*T, error) {
	env, err := resp.envelope()
	if err != nil {
		return nil, err
	}
	raw := c.registry.FromWire(env, typeExpr, "")
	v, ok := raw.(*T)
	if !ok {
		return nil, fmt.Errorf("unexpected payload shape")
	}
	return v, nil
}
