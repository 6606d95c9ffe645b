// Package gql is the client's single remote collaborator: one POST of
// {query, variables} as JSON to a fixed endpoint.
//
// A response carrying a "data" object resolves to the first member of that
// object, in document order. Anything else is an *Error holding the
// serialized "errors" member.
package gql

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// TokenSource returns the bearer token for a request. An empty token means
// the request goes out unauthenticated.
type TokenSource func(ctx context.Context) (string, error)

// Getter reads a value by key. store.Store and store.Memory implement it.
type Getter interface {
	Get(ctx context.Context, key string) (string, error)
}

// FromStorage reads the token from kv under key on every request. Lookup
// errors, including a missing key, mean no token.
func FromStorage(kv Getter, key string) TokenSource {
	return func(ctx context.Context) (string, error) {
		token, err := kv.Get(ctx, key)
		if err != nil {
			return "", nil
		}
		return token, nil
	}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTokenSource attaches a bearer token to every request that has one.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) {
		c.token = src
	}
}

// WithHeaders assigns default headers added to every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, values := range h {
			for _, v := range values {
				c.headers.Add(k, v)
			}
		}
	}
}

// Client posts GraphQL documents to one endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	headers    http.Header
	token      TokenSource
}

// NewClient creates a Client for endpoint.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("gql: endpoint is required")
	}

	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type request struct {
	Query     string `json:"query"`
	Variables any    `json:"variables"`
}

// Call posts query with variables and decodes the first member of the
// response's data object into out. out may be nil to discard the value.
func (c *Client) Call(ctx context.Context, query string, variables any, out any) error {
	if variables == nil {
		variables = map[string]any{}
	}
	body, err := codec.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("gql: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gql: build request: %w", err)
	}
	for k, values := range c.headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return fmt.Errorf("gql: token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gql: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gql: read response: %w", err)
	}

	first, errs, ok := splitResponse(payload)
	if !ok && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return &HTTPError{StatusCode: resp.StatusCode, Body: payload}
	}

	if first == nil {
		return &Error{Errors: errs}
	}
	if out == nil {
		return nil
	}
	if err := codec.Unmarshal(first, out); err != nil {
		return fmt.Errorf("gql: decode result: %w", err)
	}
	return nil
}

// splitResponse walks a response document once. first is the raw first
// member of a non-null data object ("null" when the object is empty), errs
// is the raw errors member. ok reports whether payload is a JSON object
// with a data or errors member.
func splitResponse(payload []byte) (first, errs []byte, ok bool) {
	iter := jsoniter.ConfigFastest.BorrowIterator(payload)
	defer jsoniter.ConfigFastest.ReturnIterator(iter)

	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, nil, false
	}

	for field := iter.ReadObject(); field != ""; field = iter.ReadObject() {
		switch field {
		case "data":
			ok = true
			if iter.WhatIsNext() != jsoniter.ObjectValue {
				iter.Skip()
				continue
			}
			first = []byte("null")
			if key := iter.ReadObject(); key != "" {
				first = append([]byte(nil), iter.SkipAndReturnBytes()...)
				for iter.ReadObject() != "" {
					iter.Skip()
				}
			}
		case "errors":
			ok = true
			errs = append([]byte(nil), iter.SkipAndReturnBytes()...)
		default:
			iter.Skip()
		}
	}

	if iter.Error != nil && iter.Error != io.EOF {
		return nil, nil, false
	}
	return first, errs, ok
}
