// ABOUTME: Authenticated HTTP client for the HubSpot CRM v3/v4 REST API.
// ABOUTME: Opaque remote call: JSON in, decoded JSON out, verbatim error text on non-2xx.

package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultBaseURL is the HubSpot API origin.
const DefaultBaseURL = "https://api.hubapi.com"

// maxErrorBodySize caps how much of an upstream error body is carried into
// the error string (64KB).
const maxErrorBodySize = 64 << 10

// Client talks to the HubSpot CRM REST API. It holds no per-request state;
// one client is shared by all tool invocations.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	logger  *slog.Logger
}

// Config holds configuration for the HubSpot client.
type Config struct {
	// AccessToken is the private-app token sent as a bearer credential.
	AccessToken string
	// BaseURL overrides the API origin; empty means DefaultBaseURL.
	BaseURL string
	// HTTPClient lets callers inject timeouts or transports. Nil means
	// http.DefaultClient; this layer imposes no timeout of its own.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient creates a HubSpot API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   cfg.AccessToken,
		httpc:   httpc,
		logger:  logger,
	}, nil
}

// Filter is one condition inside a search filter group.
type Filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        any    `json:"value,omitempty"`
	HighValue    any    `json:"highValue,omitempty"`
	Values       []any  `json:"values,omitempty"`
}

// FilterGroup is a set of filters combined with AND; groups combine with OR.
type FilterGroup struct {
	Filters []Filter `json:"filters"`
}

// Sort orders search results on one property.
type Sort struct {
	PropertyName string `json:"propertyName"`
	Direction    string `json:"direction"`
}

// SearchRequest is the body of a CRM search call.
type SearchRequest struct {
	Query        string        `json:"query,omitempty"`
	FilterGroups []FilterGroup `json:"filterGroups,omitempty"`
	Sorts        []Sort        `json:"sorts,omitempty"`
	Properties   []string      `json:"properties,omitempty"`
	Limit        int           `json:"limit,omitempty"`
	After        string        `json:"after,omitempty"`
}

// BatchInput identifies one object in a batch read.
type BatchInput struct {
	ID string `json:"id"`
}

// BatchReadRequest is the body of a CRM batch read call.
type BatchReadRequest struct {
	Inputs     []BatchInput `json:"inputs"`
	Properties []string     `json:"properties,omitempty"`
}

// SearchObjects runs a filtered search over one CRM object type.
func (c *Client) SearchObjects(ctx context.Context, objectType string, req SearchRequest) (map[string]any, error) {
	return c.post(ctx, "/crm/v3/objects/"+url.PathEscape(objectType)+"/search", req)
}

// ListObjects pages through one CRM object type.
func (c *Client) ListObjects(ctx context.Context, objectType string, limit int, after string, properties []string) (map[string]any, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if after != "" {
		q.Set("after", after)
	}
	if len(properties) > 0 {
		q.Set("properties", strings.Join(properties, ","))
	}
	return c.get(ctx, "/crm/v3/objects/"+url.PathEscape(objectType), q)
}

// BatchRead fetches a group of objects by ID in one call. Callers are
// responsible for keeping the group under the API's payload ceiling.
func (c *Client) BatchRead(ctx context.Context, objectType string, req BatchReadRequest) (map[string]any, error) {
	return c.post(ctx, "/crm/v3/objects/"+url.PathEscape(objectType)+"/batch/read", req)
}

// BatchReadAssociations fetches associations from one object type to another
// for a group of object IDs (v4 associations API).
func (c *Client) BatchReadAssociations(ctx context.Context, fromType, toType string, inputs []BatchInput) (map[string]any, error) {
	path := "/crm/v4/associations/" + url.PathEscape(fromType) + "/" + url.PathEscape(toType) + "/batch/read"
	return c.post(ctx, path, map[string]any{"inputs": inputs})
}

// ListOwners lists CRM owners (users that records can be assigned to).
func (c *Client) ListOwners(ctx context.Context, limit int, after string) (map[string]any, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if after != "" {
		q.Set("after", after)
	}
	return c.get(ctx, "/crm/v3/owners", q)
}

// GetProperties lists the property definitions for one object type.
func (c *Client) GetProperties(ctx context.Context, objectType string, archived bool) (map[string]any, error) {
	q := url.Values{}
	if archived {
		q.Set("archived", "true")
	}
	return c.get(ctx, "/crm/v3/properties/"+url.PathEscape(objectType), q)
}

// GetPipelines lists the pipelines (and their stages) for one object type.
func (c *Client) GetPipelines(ctx context.Context, objectType string) (map[string]any, error) {
	return c.get(ctx, "/crm/v3/pipelines/"+url.PathEscape(objectType), nil)
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) post(ctx context.Context, path string, body any) (map[string]any, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// do performs one API call. Any non-2xx status, transport failure, or
// non-JSON body becomes an error carrying the upstream status and body text
// verbatim; the caller converts it to a failure envelope.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (map[string]any, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("hubspot request", "method", method, "path", path)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hubspot request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading hubspot response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("hubspot API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var decoded map[string]any
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("hubspot returned non-JSON body (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return decoded, nil
}
