// qbclient/client.go
package qbclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// maxQueryResults caps how many records a query returns to the caller.
const maxQueryResults = 10

// Instrumenter records the outcome of outbound provider calls.
type Instrumenter interface {
	ObserveProviderCall(endpoint, outcome string)
}

// Client is the QuickBooks API client. It speaks to the REST company
// endpoints and the appFoundations GraphQL endpoint with a caller-supplied
// access token; it holds no credentials of its own.
type Client struct {
	baseURL      string
	graphqlURL   string
	minorVersion string
	httpClient   *http.Client
	logger       *zap.Logger
	instrument   Instrumenter
}

// NewClient creates a new QuickBooks API client.
func NewClient(baseURL, graphqlURL, minorVersion string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:      baseURL,
		graphqlURL:   graphqlURL,
		minorVersion: minorVersion,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}
}

// WithInstrumenter attaches provider-call metrics to the client.
func (c *Client) WithInstrumenter(in Instrumenter) *Client {
	c.instrument = in
	return c
}

func (c *Client) observe(endpoint, outcome string) {
	if c.instrument != nil {
		c.instrument.ObserveProviderCall(endpoint, outcome)
	}
}

func setAuthHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
}

// Query runs a SOQL-like query against {base}/{realm}/query and returns the
// named entity records from QueryResponse, truncated to 10. Any non-200 or
// malformed response comes back as an *APIError; callers are expected to
// degrade to an empty list rather than abort.
func (c *Client) Query(ctx context.Context, accessToken, realmID, query, entity string) ([]json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/%s/query?%s", c.baseURL, realmID, url.Values{"query": {query}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create query request: %w", err)
	}
	setAuthHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe("query", "network_error")
		return nil, fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.observe("query", "api_error")
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed struct {
		QueryResponse map[string]json.RawMessage `json:"QueryResponse"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.observe("query", "malformed")
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body), Err: err}
	}

	var records []json.RawMessage
	if raw, ok := parsed.QueryResponse[entity]; ok {
		if err := json.Unmarshal(raw, &records); err != nil {
			c.observe("query", "malformed")
			return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body), Err: err}
		}
	}
	if len(records) > maxQueryResults {
		records = records[:maxQueryResults]
	}

	c.observe("query", "ok")
	c.logger.Debug("query completed", zap.String("entity", entity), zap.Int("records", len(records)))
	return records, nil
}

// GraphQL posts a {query, variables} payload to the GraphQL endpoint. A 200
// response with a populated errors array is not a transport failure: the
// response is returned and the caller branches on the structured error codes.
func (c *Client) GraphQL(ctx context.Context, accessToken, query string, variables map[string]interface{}) (*GraphQLResponse, error) {
	payload := map[string]interface{}{"query": query}
	if variables != nil {
		payload["variables"] = variables
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graphql payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create graphql request: %w", err)
	}
	setAuthHeaders(req, accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe("graphql", "network_error")
		return nil, fmt.Errorf("graphql request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.observe("graphql", "api_error")
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed GraphQLResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		c.observe("graphql", "malformed")
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody), Err: err}
	}

	if len(parsed.Errors) > 0 {
		c.observe("graphql", "graphql_error")
		c.logger.Warn("graphql response contained errors",
			zap.Int("count", len(parsed.Errors)),
			zap.String("first_code", parsed.Errors[0].Code()))
	} else {
		c.observe("graphql", "ok")
	}
	return &parsed, nil
}

// CreateInvoice posts an invoice body to {base}/{realm}/invoice with the
// configured minor version, asking for expanded custom fields back.
func (c *Client) CreateInvoice(ctx context.Context, accessToken, realmID string, invoice interface{}) (*InvoiceResult, error) {
	endpoint := fmt.Sprintf("%s/%s/invoice?minorversion=%s&include=enhancedAllCustomFields", c.baseURL, realmID, c.minorVersion)

	body, err := json.Marshal(invoice)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invoice: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice request: %w", err)
	}
	setAuthHeaders(req, accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe("invoice", "network_error")
		return nil, fmt.Errorf("invoice request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.observe("invoice", "api_error")
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed struct {
		Invoice struct {
			ID string `json:"Id"`
		} `json:"Invoice"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		c.observe("invoice", "malformed")
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody), Err: err}
	}

	c.observe("invoice", "ok")
	return &InvoiceResult{ID: parsed.Invoice.ID, Raw: respBody}, nil
}

// InvoiceResult is the parsed outcome of an invoice creation call. An empty
// ID on a 200 response means the provider probably created the invoice but
// the response shape was unexpected.
type InvoiceResult struct {
	ID  string
	Raw []byte
}
