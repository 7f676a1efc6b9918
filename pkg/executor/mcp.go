package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// mcpToolName is the remote tool that executes kubectl commands on our
// behalf.
const mcpToolName = "execute_kubectl"

// MCPExecutor sends commands to a remote MCP kubectl server over HTTP
// JSON-RPC (tools/call).
type MCPExecutor struct {
	baseURL    string
	httpClient *http.Client
}

// NewMCPExecutor creates an executor backed by the MCP server at baseURL.
func NewMCPExecutor(baseURL string, timeout time.Duration) *MCPExecutor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MCPExecutor{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type mcpCallRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  mcpCallParams `json:"params"`
}

type mcpCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type mcpCallResponse struct {
	Content []mcpContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

type mcpContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Execute forwards the command to the MCP server. Transport-level failures
// (connection refused, non-2xx, malformed body) are ErrUnavailable; a tool
// response with isError set is an ordinary failed Result.
func (e *MCPExecutor) Execute(ctx context.Context, command []string, autoApprove bool) (*Result, error) {
	payload, err := json.Marshal(mcpCallRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params: mcpCallParams{
			Name: mcpToolName,
			Arguments: map[string]interface{}{
				"command":      strings.Join(command, " "),
				"auto_approve": autoApprove,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal MCP request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/mcp", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: MCP server returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var call mcpCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&call); err != nil {
		return nil, fmt.Errorf("%w: failed to decode MCP response: %v", ErrUnavailable, err)
	}

	var text strings.Builder
	for _, c := range call.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}

	if call.IsError {
		return &Result{Success: false, Error: text.String()}, nil
	}
	return &Result{Success: true, Output: text.String()}, nil
}
