package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/letter"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/logging"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/protocol"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/rag"
)

// mockDispatcher returns a canned result or error and records the call.
type mockDispatcher struct {
	method string
	params map[string]any
	result any
	err    error
}

func (m *mockDispatcher) Dispatch(_ context.Context, method string, params map[string]any) (any, error) {
	m.method, m.params = method, params
	return m.result, m.err
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func TestToolDefinitions(t *testing.T) {
	tools := legalTools()
	if len(tools) != len(protocol.Methods()) {
		t.Fatalf("got %d tools, want %d", len(tools), len(protocol.Methods()))
	}
	byName := map[string]mcp.Tool{}
	for _, tool := range tools {
		if tool.Description == "" {
			t.Errorf("%s: description should not be empty", tool.Name)
		}
		byName[tool.Name] = tool
	}

	tests := []struct {
		tool     string
		required []string
	}{
		{protocol.MethodQuery, []string{"query"}},
		{protocol.MethodAnalyzeDocument, []string{"file_path", "case_id"}},
		{protocol.MethodGenerateDemandLetter, []string{"case_id"}},
		{protocol.MethodGetCaseContext, []string{"case_id"}},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			tool, ok := byName[tt.tool]
			if !ok {
				t.Fatalf("tool %s not registered", tt.tool)
			}
			if strings.Join(tool.InputSchema.Required, ",") != strings.Join(tt.required, ",") {
				t.Errorf("required = %v, want %v", tool.InputSchema.Required, tt.required)
			}
			for _, p := range []string{"provider", "model", "temperature"} {
				if _, ok := tool.InputSchema.Properties[p]; !ok {
					t.Errorf("missing override property %q", p)
				}
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	d := &mockDispatcher{}
	srv := NewServer(d, logging.Discard())
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.dispatcher != d {
		t.Error("dispatcher not set correctly")
	}
}

func TestHandlerQuery(t *testing.T) {
	d := &mockDispatcher{result: &rag.Response{
		Answer: "Liability rests with the defendant.",
		Sources: []rag.Source{
			{SourceName: "complaint.txt", ChunkIndex: 2, Score: 0.91, Excerpt: "ran the\nred light"},
		},
	}}
	srv := NewServer(d, logging.Discard())

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"query": "Who is liable?", "case_id": "2024-PI-001"}

	res, err := srv.handlerFor(protocol.MethodQuery)(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %v", res.Content)
	}
	if d.method != protocol.MethodQuery || d.params["case_id"] != "2024-PI-001" {
		t.Errorf("dispatched %s %v", d.method, d.params)
	}
	text := resultText(t, res)
	for _, want := range []string{"Liability rests", "Sources (1)", "complaint.txt (chunk 2, score 0.91)", "ran the red light"} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}
}

func TestHandlerLetterNotesFallbacks(t *testing.T) {
	d := &mockDispatcher{result: &letter.Letter{
		Content: "Dear Claims Adjuster,",
		Sections: []domain.LetterSection{
			{Title: "Medical Expenses"},
			{Title: "Liability", Fallback: true, Error: "provider unavailable"},
		},
	}}
	srv := NewServer(d, logging.Discard())

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"case_id": "2024-PI-003"}
	res, err := srv.handlerFor(protocol.MethodGenerateDemandLetter)(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, res)
	if !strings.HasPrefix(text, "Dear Claims Adjuster,") {
		t.Errorf("letter text = %q", text)
	}
	if !strings.Contains(text, "- Liability: provider unavailable") || strings.Contains(text, "- Medical Expenses") {
		t.Errorf("fallback list wrong:\n%s", text)
	}
}

func TestHandlerJSONResult(t *testing.T) {
	d := &mockDispatcher{result: &protocol.CaseContext{CaseID: "2024-PI-002", RAGError: "model offline"}}
	srv := NewServer(d, logging.Discard())

	res, err := srv.handlerFor(protocol.MethodGetCaseContext)(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, `"case_id": "2024-PI-002"`) || !strings.Contains(text, `"rag_error": "model offline"`) {
		t.Errorf("unexpected JSON:\n%s", text)
	}
}

func TestHandlerErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "missing parameter",
			err:  &domain.ParamError{Method: protocol.MethodQuery, Param: "query"},
			want: []string{"error -32602", `missing required parameter "query"`},
		},
		{
			name: "generation failed",
			err: &domain.GenerationError{
				Context: domain.QueryContext{Retrieved: []domain.ScoredChunk{
					{Chunk: domain.Chunk{SourceName: "report.html", Index: 0, Text: "Officer noted skid marks."}, Score: 0.8},
				}},
				Err: errors.New("connection refused"),
			},
			want: []string{"error -32011", "Retrieved before the failure", "report.html"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(&mockDispatcher{err: tt.err}, logging.Discard())
			res, err := srv.handlerFor(protocol.MethodQuery)(context.Background(), mcp.CallToolRequest{})
			if err != nil {
				t.Fatalf("handler returned protocol error: %v", err)
			}
			if !res.IsError {
				t.Fatal("expected tool error")
			}
			text := resultText(t, res)
			for _, w := range tt.want {
				if !strings.Contains(text, w) {
					t.Errorf("error text missing %q:\n%s", w, text)
				}
			}
		})
	}
}

func TestHandlerThroughDispatcher(t *testing.T) {
	d := protocol.NewDispatcher(nil, logging.Discard(), nil)
	srv := NewServer(d, logging.Discard())

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{}
	res, err := srv.handlerFor(protocol.MethodAnalyzeDocument)(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "file_path") {
		t.Errorf("expected missing file_path error, got %+v", res)
	}
}
