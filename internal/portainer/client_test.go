package portainer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_NormalizesAndRejectsEmpty(t *testing.T) {
	u, err := parseBaseURL("portainer.example.com:9443")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" {
		t.Fatalf("scheme = %q, want https", u.Scheme)
	}
	if u.Host != "portainer.example.com:9443" {
		t.Fatalf("host = %q, want portainer.example.com:9443", u.Host)
	}

	u, err = parseBaseURL("http://example.com:9000/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("   "); err == nil {
		t.Fatalf("parseBaseURL accepted empty input, want error")
	}
}

func TestClient_FetchesResourcesAndSendsAuth(t *testing.T) {
	t.Parallel()

	var gotToken string
	var gotUserAgent string
	var gotContainersQuery string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-API-Key")
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/endpoints":
			_ = json.NewEncoder(w).Encode([]endpointPayload{
				{ID: 2, Name: "staging", Status: 2},
				{ID: 1, Name: "production", Status: 1},
			})
		case "/api/endpoints/1/docker/containers/json":
			gotContainersQuery = r.URL.RawQuery
			_ = json.NewEncoder(w).Encode([]containerPayload{
				{ID: "abc123", Names: []string{"/web"}, State: "running"},
			})
		case "/api/stacks":
			_ = json.NewEncoder(w).Encode([]stackPayload{
				{ID: 7, Name: "monitoring", Status: 1},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "secret-token")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	endpoints, err := c.Endpoints(ctx)
	if err != nil {
		t.Fatalf("Endpoints returned error: %v", err)
	}
	if len(endpoints) != 2 || endpoints[0].ID != "2" || endpoints[0].Status != EndpointDown {
		t.Fatalf("Endpoints = %#v, want 2 entries with string ids", endpoints)
	}
	if endpoints[1].Status != EndpointUp {
		t.Fatalf("endpoint status = %q, want %q", endpoints[1].Status, EndpointUp)
	}

	containers, err := c.Containers(ctx, "1")
	if err != nil {
		t.Fatalf("Containers returned error: %v", err)
	}
	if len(containers) != 1 || containers[0].DisplayName != "web" {
		t.Fatalf("Containers = %#v, want 1 item named web", containers)
	}
	if gotContainersQuery != "all=1" {
		t.Fatalf("containers query = %q, want all=1", gotContainersQuery)
	}

	stacks, err := c.Stacks(ctx)
	if err != nil {
		t.Fatalf("Stacks returned error: %v", err)
	}
	if len(stacks) != 1 || stacks[0].ID != "7" || stacks[0].Status != StackActive {
		t.Fatalf("Stacks = %#v, want 1 active stack id=7", stacks)
	}

	if gotToken != "secret-token" {
		t.Fatalf("X-API-Key = %q, want secret-token", gotToken)
	}
	if !strings.HasPrefix(gotUserAgent, "berth/") {
		t.Fatalf("User-Agent = %q, want berth/*", gotUserAgent)
	}
}

func TestClient_ActionsHitExpectedRoutes(t *testing.T) {
	t.Parallel()

	type call struct {
		method string
		path   string
		query  string
	}
	var calls []call

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery})
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "t")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	if err := c.RemoveContainer(ctx, "1", "abc"); err != nil {
		t.Fatalf("RemoveContainer returned error: %v", err)
	}
	if err := c.StartStack(ctx, "7"); err != nil {
		t.Fatalf("StartStack returned error: %v", err)
	}
	if err := c.StopStack(ctx, "7"); err != nil {
		t.Fatalf("StopStack returned error: %v", err)
	}
	if err := c.RemoveStack(ctx, "7"); err != nil {
		t.Fatalf("RemoveStack returned error: %v", err)
	}

	want := []call{
		{method: http.MethodDelete, path: "/api/endpoints/1/docker/containers/abc", query: "force=1"},
		{method: http.MethodPost, path: "/api/stacks/7/start"},
		{method: http.MethodPost, path: "/api/stacks/7/stop"},
		{method: http.MethodDelete, path: "/api/stacks/7"},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %#v, want %d requests", calls, len(want))
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call[%d] = %#v, want %#v", i, calls[i], want[i])
		}
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/endpoints":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/api/stacks":
			http.Error(w, "nope", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.Endpoints(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("Endpoints error = %v, want decode response error", err)
	}

	_, err = c.Stacks(context.Background())
	if err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("Stacks error = %v, want status 500 error", err)
	}
}

func TestClient_ContainersRequiresEndpointID(t *testing.T) {
	c, err := NewClient("127.0.0.1:1", "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.Containers(context.Background(), ""); err == nil {
		t.Fatalf("Containers returned nil error, want error")
	}
	if _, err := c.ContainerDetails(context.Background(), "1", ""); err == nil {
		t.Fatalf("ContainerDetails returned nil error, want error")
	}
}
