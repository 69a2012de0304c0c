package portainer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// API defines the remote operations the data layer needs. It is implemented
// by *Client and can be faked in tests.
type API interface {
	Endpoints(ctx context.Context) ([]Endpoint, error)
	Containers(ctx context.Context, endpointID string) ([]Container, error)
	Stacks(ctx context.Context) ([]Stack, error)
	ContainerDetails(ctx context.Context, endpointID, containerID string) (ContainerDetails, error)
	RemoveContainer(ctx context.Context, endpointID, containerID string) error
	StartStack(ctx context.Context, stackID string) error
	StopStack(ctx context.Context, stackID string) error
	RemoveStack(ctx context.Context, stackID string) error
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to a Portainer-compatible HTTP API on behalf of one
// server identity. The token is sent as an X-API-Key header.
type Client struct {
	baseURL   *url.URL
	token     string
	http      *http.Client
	userAgent string
}

const (
	defaultUserAgent = "berth/0.1"
	requestTimeout   = 10 * time.Second
)

// NewClient builds a Client for the given server URL and auth token.
func NewClient(server, token string) (*Client, error) {
	base, err := parseBaseURL(server)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		token:   token,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// Endpoints retrieves all endpoints visible to the token.
func (c *Client) Endpoints(ctx context.Context) ([]Endpoint, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []endpointPayload
	if err := c.do(ctx, http.MethodGet, "/api/endpoints", &payload); err != nil {
		return nil, err
	}
	endpoints := make([]Endpoint, 0, len(payload))
	for _, p := range payload {
		endpoints = append(endpoints, p.toDomain())
	}
	return endpoints, nil
}

// Containers retrieves the container listing for one endpoint, including
// stopped containers.
func (c *Client) Containers(ctx context.Context, endpointID string) ([]Container, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(endpointID) == "" {
		return nil, fmt.Errorf("endpoint id required")
	}
	rel := &url.URL{
		Path:     fmt.Sprintf("/api/endpoints/%s/docker/containers/json", endpointID),
		RawQuery: url.Values{"all": {"1"}}.Encode(),
	}
	var payload []containerPayload
	if err := c.doURL(ctx, http.MethodGet, rel, &payload); err != nil {
		return nil, err
	}
	containers := make([]Container, 0, len(payload))
	for _, p := range payload {
		containers = append(containers, p.toDomain())
	}
	return containers, nil
}

// Stacks retrieves all stacks visible to the token.
func (c *Client) Stacks(ctx context.Context) ([]Stack, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []stackPayload
	if err := c.do(ctx, http.MethodGet, "/api/stacks", &payload); err != nil {
		return nil, err
	}
	stacks := make([]Stack, 0, len(payload))
	for _, p := range payload {
		stacks = append(stacks, p.toDomain())
	}
	return stacks, nil
}

// ContainerDetails retrieves the inspect payload for one container.
func (c *Client) ContainerDetails(ctx context.Context, endpointID, containerID string) (ContainerDetails, error) {
	if c == nil {
		return ContainerDetails{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(endpointID) == "" || strings.TrimSpace(containerID) == "" {
		return ContainerDetails{}, fmt.Errorf("endpoint and container ids required")
	}
	path := fmt.Sprintf("/api/endpoints/%s/docker/containers/%s/json", endpointID, containerID)
	var payload detailsPayload
	if err := c.do(ctx, http.MethodGet, path, &payload); err != nil {
		return ContainerDetails{}, err
	}
	return payload.toDomain(), nil
}

// RemoveContainer force-removes one container on the given endpoint.
func (c *Client) RemoveContainer(ctx context.Context, endpointID, containerID string) error {
	if strings.TrimSpace(endpointID) == "" || strings.TrimSpace(containerID) == "" {
		return fmt.Errorf("endpoint and container ids required")
	}
	rel := &url.URL{
		Path:     fmt.Sprintf("/api/endpoints/%s/docker/containers/%s", endpointID, containerID),
		RawQuery: url.Values{"force": {"1"}}.Encode(),
	}
	return c.doURL(ctx, http.MethodDelete, rel, nil)
}

// StartStack starts a stopped stack.
func (c *Client) StartStack(ctx context.Context, stackID string) error {
	if strings.TrimSpace(stackID) == "" {
		return fmt.Errorf("stack id required")
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/stacks/%s/start", stackID), nil)
}

// StopStack stops a running stack.
func (c *Client) StopStack(ctx context.Context, stackID string) error {
	if strings.TrimSpace(stackID) == "" {
		return fmt.Errorf("stack id required")
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/stacks/%s/stop", stackID), nil)
}

// RemoveStack deletes a stack.
func (c *Client) RemoveStack(ctx context.Context, stackID string) error {
	if strings.TrimSpace(stackID) == "" {
		return fmt.Errorf("stack id required")
	}
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/stacks/%s", stackID), nil)
}

func (c *Client) do(ctx context.Context, method, path string, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("X-API-Key", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(server string) (*url.URL, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		return nil, fmt.Errorf("server url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", server, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
