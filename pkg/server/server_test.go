package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SkySingh04/DreamOps-sub000/pkg/executor"
	"github.com/SkySingh04/DreamOps-sub000/pkg/tools"
	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

type stubTool struct {
	name string
	run  func(ctx context.Context, args map[string]interface{}) (*types.StandardResponse, error)
}

func (t *stubTool) Name() string        { return t.name }
func (t *stubTool) Description() string { return "stub" }
func (t *stubTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}
func (t *stubTool) Run(ctx context.Context, args map[string]interface{}) (*types.StandardResponse, error) {
	return t.run(ctx, args)
}

func newTestServer(t *testing.T, stubs ...tools.Tool) *httptest.Server {
	t.Helper()
	registry := tools.NewRegistry()
	for _, s := range stubs {
		registry.Register(s)
	}
	srv := NewServer(registry, func() bool { return true }, 8080)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func callTool(t *testing.T, ts *httptest.Server, name string, args map[string]interface{}) (*http.Response, mcpResponse) {
	t.Helper()
	body := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":%q,"arguments":%s}}`,
		name, mustJSON(t, args))
	resp, err := http.Post(ts.URL+"/mcp", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /mcp: %v", err)
	}
	defer resp.Body.Close()

	var decoded mcpResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp, decoded
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshaling: %v", err)
	}
	return string(b)
}

func TestToolListIncludesRegisteredTools(t *testing.T) {
	ts := newTestServer(t, &stubTool{name: "remediate_incident"})

	resp, err := http.Get(ts.URL + "/mcp")
	if err != nil {
		t.Fatalf("GET /mcp: %v", err)
	}
	defer resp.Body.Close()

	var listing struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatalf("decoding listing: %v", err)
	}
	if len(listing.Tools) != 1 || listing.Tools[0].Name != "remediate_incident" {
		t.Errorf("unexpected listing: %+v", listing)
	}
}

func TestToolCallSuccess(t *testing.T) {
	stub := &stubTool{
		name: "remediate_incident",
		run: func(_ context.Context, args map[string]interface{}) (*types.StandardResponse, error) {
			report := &types.PipelineReport{RunID: "run-1", Resolved: true}
			return types.NewStandardResponse(types.ClusterMetadata{Cluster: "test"}, "remediate_incident", report), nil
		},
	}
	ts := newTestServer(t, stub)

	resp, decoded := callTool(t, ts, "remediate_incident", map[string]interface{}{
		"alert_type": "oom_kill", "namespace": "production",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if decoded.IsError {
		t.Fatalf("unexpected error response: %+v", decoded)
	}
	if len(decoded.Content) != 1 || !strings.Contains(decoded.Content[0].Text, "run-1") {
		t.Errorf("response does not carry the report: %+v", decoded)
	}
}

func TestToolCallUnknownTool(t *testing.T) {
	ts := newTestServer(t)

	resp, decoded := callTool(t, ts, "no_such_tool", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if !decoded.IsError {
		t.Error("expected isError response")
	}
}

func TestToolCallExecutorUnavailableMapsToErrorCode(t *testing.T) {
	stub := &stubTool{
		name: "remediate_incident",
		run: func(context.Context, map[string]interface{}) (*types.StandardResponse, error) {
			return nil, fmt.Errorf("diagnostics aborted: %w", executor.ErrUnavailable)
		},
	}
	ts := newTestServer(t, stub)

	resp, decoded := callTool(t, ts, "remediate_incident", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !decoded.IsError {
		t.Fatal("expected isError response")
	}
	if !strings.Contains(decoded.Content[0].Text, types.ErrCodeExecutorUnavailable) {
		t.Errorf("expected %s in error text, got %q", types.ErrCodeExecutorUnavailable, decoded.Content[0].Text)
	}
}
