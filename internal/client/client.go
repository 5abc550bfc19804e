package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"peacock/internal/logging"
)

const (
	defaultBaseURL = "http://localhost:4000"
	// AI enrichment calls can run for a long time; the gateway prefers
	// finishing late over cancelling early.
	DefaultTimeout = 90 * time.Minute
)

// CredentialSource supplies the bearer credential attached to protected calls.
type CredentialSource interface {
	Current() (string, bool)
}

// AuthFailureHandler is notified before an auth failure is returned to the
// caller. credential is the value the rejected request carried.
type AuthFailureHandler interface {
	HandleAuthFailure(ctx context.Context, credential string, err *Error)
}

type Request struct {
	Method       string
	Path         string
	Body         any
	RequiresAuth bool
}

type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) Decode(out any) error {
	if r == nil || out == nil {
		return nil
	}
	return json.Unmarshal(r.Body, out)
}

type Client struct {
	baseURL     string
	http        *http.Client
	credentials CredentialSource
	logger      logging.Logger

	mu           sync.RWMutex
	authHandlers []AuthFailureHandler
}

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithCredentials(source CredentialSource) Option {
	return func(c *Client) {
		c.credentials = source
	}
}

func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) SetCredentialSource(source CredentialSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credentials = source
}

// OnAuthFailure registers a subscriber for the auth error class.
func (c *Client) OnAuthFailure(handler AuthFailureHandler) {
	if handler == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authHandlers = append(c.authHandlers, handler)
}

// Send performs one round trip. Every non-nil error is an *Error.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	requestID := logging.NewRequestID()
	log := c.logger.With(
		logging.F("request_id", requestID),
		logging.F("method", req.Method),
		logging.F("path", req.Path),
	)

	credential := ""
	if req.RequiresAuth {
		var ok bool
		credential, ok = c.currentCredential()
		if !ok {
			apiErr := &Error{Category: CategoryAuth, Message: "not logged in"}
			log.Debug("gateway_rejected_without_credential")
			c.notifyAuthFailure(ctx, "", apiErr)
			return nil, apiErr
		}
	}

	var reader io.Reader
	if req.Body != nil {
		buf, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &Error{Category: CategoryClient, Message: "encode request", Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, reader)
	if err != nil {
		return nil, &Error{Category: CategoryClient, Message: "build request", Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.RequiresAuth {
		httpReq.Header.Set("Authorization", "Bearer "+credential)
	}

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.Warn("gateway_network_error", logging.F("duration", time.Since(started)), logging.Err(err))
		return nil, &Error{Category: CategoryNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("gateway_read_error", logging.F("status", resp.StatusCode), logging.Err(err))
		return nil, &Error{Category: CategoryNetwork, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeAPIError(resp.StatusCode, body, req.RequiresAuth)
		log.Info("gateway_failure",
			logging.F("status", resp.StatusCode),
			logging.F("category", string(apiErr.Category)),
			logging.F("duration", time.Since(started)),
		)
		if apiErr.Category == CategoryAuth {
			c.notifyAuthFailure(ctx, credential, apiErr)
		}
		return nil, apiErr
	}
	log.Debug("gateway_success", logging.F("status", resp.StatusCode), logging.F("duration", time.Since(started)))
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, requireAuth bool, out any) error {
	resp, err := c.Send(ctx, Request{Method: method, Path: path, Body: body, RequiresAuth: requireAuth})
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := resp.Decode(out); err != nil {
		return &Error{Category: CategoryServer, StatusCode: resp.StatusCode, Message: "unexpected response", Err: err}
	}
	return nil
}

func (c *Client) currentCredential() (string, bool) {
	c.mu.RLock()
	source := c.credentials
	c.mu.RUnlock()
	if source == nil {
		return "", false
	}
	credential, ok := source.Current()
	if !ok || strings.TrimSpace(credential) == "" {
		return "", false
	}
	return credential, true
}

func (c *Client) notifyAuthFailure(ctx context.Context, credential string, apiErr *Error) {
	c.mu.RLock()
	handlers := append([]AuthFailureHandler(nil), c.authHandlers...)
	c.mu.RUnlock()
	for _, handler := range handlers {
		handler.HandleAuthFailure(ctx, credential, apiErr)
	}
}
