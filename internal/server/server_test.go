package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/ingest"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/llm"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/logging"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/metrics"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/protocol"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/rag"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/service"
)

// fakeDispatcher answers legal.query and fails everything else with err.
type fakeDispatcher struct {
	method string
	params map[string]any
	err    error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, method string, params map[string]any) (any, error) {
	f.method, f.params = method, params
	if f.err != nil {
		return nil, f.err
	}
	return &rag.Response{Answer: fmt.Sprintf("%s ok", method), Sources: []rag.Source{}}, nil
}

// slowDispatcher holds each call for hold, or until its context ends, and
// tracks how many calls overlap.
type slowDispatcher struct {
	hold    time.Duration
	mu      sync.Mutex
	running int
	peak    int
}

func (d *slowDispatcher) Dispatch(ctx context.Context, method string, _ map[string]any) (any, error) {
	d.mu.Lock()
	d.running++
	d.peak = max(d.peak, d.running)
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.running--
		d.mu.Unlock()
	}()

	select {
	case <-time.After(d.hold):
		return map[string]string{"method": method}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type fakeService struct {
	uploadName  string
	uploadData  []byte
	uploadCase  string
	uploadModel string
	folderDir   string
	folderOpts  ingest.FolderOptions
	folderErr   error
}

func (f *fakeService) IngestUpload(_ context.Context, name string, data []byte, caseID string, o llm.Overrides) (*ingest.Result, error) {
	f.uploadName, f.uploadData, f.uploadCase, f.uploadModel = name, data, caseID, o.Model
	return &ingest.Result{SourceName: name, CaseID: caseID, ChunkCount: 2}, nil
}

func (f *fakeService) IngestFolder(_ context.Context, dir, caseID string, opts ingest.FolderOptions, _ llm.Overrides, _ ingest.ProgressFunc) (*ingest.FolderResult, error) {
	f.folderDir, f.folderOpts = dir, opts
	if f.folderErr != nil {
		return nil, f.folderErr
	}
	return &ingest.FolderResult{Folder: dir, CaseID: caseID, Total: 3, Succeeded: 2, Failed: 1, TotalChunks: 9}, nil
}

func (f *fakeService) Overview(context.Context) (*service.Overview, error) {
	return &service.Overview{Aggregate: domain.Aggregate{CaseCount: 3, TotalAmount: 166000}}, nil
}

func (f *fakeService) ListCases(context.Context) ([]domain.CaseSummary, error) {
	return []domain.CaseSummary{
		{CaseID: "2024-PI-001", CaseType: "personal_injury", Status: "open", TotalAmount: 53000},
		{CaseID: "2024-PI-002", CaseType: "medical_malpractice", Status: "open", TotalAmount: 60000},
	}, nil
}

func (f *fakeService) Timeline(context.Context) ([]service.TimelineEntry, error) {
	d := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	return []service.TimelineEntry{
		{CaseID: "2024-PI-001", EventDate: &d, Description: "Motor vehicle accident occurred"},
		{CaseID: "2024-PI-002", Description: "Undated note"},
	}, nil
}

func (f *fakeService) Providers() []service.ProviderInfo {
	return []service.ProviderInfo{{ProviderSpec: llm.ProviderSpec{Name: llm.ProviderOllama}, Default: true, Configured: true}}
}

func newTestServer(cfg Config, d Dispatcher, svc Service) *Server {
	return New(cfg, svc, d, metrics.New(), logging.Discard())
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(Config{}, &fakeDispatcher{}, &fakeService{})

	w := do(t, srv, "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(Config{AllowAll: true}, &fakeDispatcher{}, &fakeService{})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.ObserveDispatch(protocol.MethodQuery, nil)
	srv := New(Config{}, &fakeService{}, &fakeDispatcher{}, m, logging.Discard())

	w := do(t, srv, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `legalmcp_dispatch_total{method="legal.query",outcome="ok"} 1`) {
		t.Errorf("dispatch counter missing from:\n%s", w.Body.String())
	}
}

func TestToolsEndpoint(t *testing.T) {
	srv := newTestServer(Config{}, &fakeDispatcher{}, &fakeService{})
	w := do(t, srv, "GET", "/mcp/tools", "")

	var body struct {
		Tools []protocol.MethodInfo `json:"tools"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Tools) != 4 {
		t.Errorf("got %d tools, want 4", len(body.Tools))
	}
}

func TestEnvelopeEndpoint(t *testing.T) {
	d := &fakeDispatcher{}
	srv := newTestServer(Config{}, d, &fakeService{})

	w := do(t, srv, "POST", "/mcp/query", `{"method":"legal.query","params":{"query":"hi","case_id":"2024-PI-001"},"id":"abc"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp struct {
		ID     string          `json:"id"`
		Result rag.Response    `json:"result"`
		Error  *protocol.Error `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != "abc" || resp.Error != nil || resp.Result.Answer != "legal.query ok" {
		t.Errorf("resp = %+v", resp)
	}
	if d.params["case_id"] != "2024-PI-001" {
		t.Errorf("params = %v", d.params)
	}

	w = do(t, srv, "POST", "/mcp/query", `{"params":{}}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing method: status = %d", w.Code)
	}
	w = do(t, srv, "POST", "/mcp/query", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad JSON: status = %d", w.Code)
	}
}

func TestEnvelopeErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"unknown method", fmt.Errorf("%w: legal.x", domain.ErrUnknownMethod), http.StatusBadRequest, protocol.CodeMethodNotFound},
		{"missing param", &domain.ParamError{Method: "legal.query", Param: "query"}, http.StatusBadRequest, protocol.CodeInvalidParams},
		{"not found", fmt.Errorf("case: %w", domain.ErrNotFound), http.StatusNotFound, protocol.CodeNotFound},
		{"provider down", fmt.Errorf("ollama/mistral: %w: refused", domain.ErrProviderUnavailable), http.StatusServiceUnavailable, protocol.CodeProviderUnavailable},
		{"generation failed", &domain.GenerationError{Err: fmt.Errorf("x: %w", domain.ErrProviderUnavailable)}, http.StatusBadGateway, protocol.CodeGenerationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(Config{}, &fakeDispatcher{err: tt.err}, &fakeService{})
			w := do(t, srv, "POST", "/mcp/query", `{"method":"legal.query","params":{"query":"q"},"id":1}`)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var resp protocol.Response
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Error == nil || resp.Error.Code != tt.code {
				t.Errorf("error = %+v, want code %d", resp.Error, tt.code)
			}
		})
	}
}

func TestMethodEndpoints(t *testing.T) {
	tests := []struct {
		path   string
		method string
	}{
		{"/rag/query", protocol.MethodQuery},
		{"/rag/process_document", protocol.MethodAnalyzeDocument},
		{"/mcp/generate_demand_letter", protocol.MethodGenerateDemandLetter},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d := &fakeDispatcher{}
			srv := newTestServer(Config{}, d, &fakeService{})
			w := do(t, srv, "POST", tt.path, `{"case_id":"2024-PI-002","query":"q","file_path":"a.pdf"}`)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", w.Code, w.Body)
			}
			if d.method != tt.method {
				t.Errorf("dispatched %q, want %q", d.method, tt.method)
			}
		})
	}
}

func TestGenerationFailureBodyCarriesContext(t *testing.T) {
	gerr := &domain.GenerationError{
		Context: domain.QueryContext{Kind: domain.ScopeCase, CaseID: "2024-PI-001"},
		Err:     fmt.Errorf("x: %w", domain.ErrProviderUnavailable),
	}
	srv := newTestServer(Config{}, &fakeDispatcher{err: gerr}, &fakeService{})
	w := do(t, srv, "POST", "/rag/query", `{"query":"q","case_id":"2024-PI-001"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Context == nil || body.Context.CaseID != "2024-PI-001" {
		t.Errorf("context = %+v", body.Context)
	}
}

func TestCaseContextEndpoint(t *testing.T) {
	d := &fakeDispatcher{}
	srv := newTestServer(Config{}, d, &fakeService{})
	w := do(t, srv, "GET", "/cases/2024-PI-003/context?model=llama3.1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if d.method != protocol.MethodGetCaseContext || d.params["case_id"] != "2024-PI-003" || d.params["model"] != "llama3.1" {
		t.Errorf("dispatched %s %v", d.method, d.params)
	}
}

func TestUpload(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(Config{}, &fakeDispatcher{}, svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("case_id", "2024-PI-001")
	mw.WriteField("model", "llama3.1")
	fw, err := mw.CreateFormFile("file", "police_report.txt")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("Officer report text."))
	mw.Close()

	req := httptest.NewRequest("POST", "/rag/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	if svc.uploadName != "police_report.txt" || string(svc.uploadData) != "Officer report text." {
		t.Errorf("upload = %q %q", svc.uploadName, svc.uploadData)
	}
	if svc.uploadCase != "2024-PI-001" || svc.uploadModel != "llama3.1" {
		t.Errorf("case %q model %q", svc.uploadCase, svc.uploadModel)
	}
}

func TestUploadRequiresCaseID(t *testing.T) {
	srv := newTestServer(Config{}, &fakeDispatcher{}, &fakeService{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "a.txt")
	fw.Write([]byte("x"))
	mw.Close()

	req := httptest.NewRequest("POST", "/rag/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestProcessFolder(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(Config{}, &fakeDispatcher{}, svc)

	w := do(t, srv, "POST", "/rag/process_folder", `{"folder_path":"/cases/pi-001","case_id":"2024-PI-001","exclude":["drafts/**"],"recursive":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var res ingest.FolderResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.TotalChunks != 9 || res.Succeeded+res.Failed != res.Total {
		t.Errorf("result = %+v", res)
	}
	if svc.folderOpts.Recursive || len(svc.folderOpts.Exclude) != 1 {
		t.Errorf("opts = %+v", svc.folderOpts)
	}

	w = do(t, srv, "POST", "/rag/process_folder", `{"case_id":"2024-PI-001"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing folder: status = %d", w.Code)
	}

	svc.folderErr = fmt.Errorf("%w: folder /nope", domain.ErrNotFound)
	w = do(t, srv, "POST", "/rag/process_folder", `{"folder_path":"/nope","case_id":"2024-PI-001"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing dir: status = %d", w.Code)
	}
}

func TestOverviewAndProviders(t *testing.T) {
	srv := newTestServer(Config{}, &fakeDispatcher{}, &fakeService{})

	w := do(t, srv, "GET", "/system/overview", "")
	var ov service.Overview
	if err := json.Unmarshal(w.Body.Bytes(), &ov); err != nil {
		t.Fatal(err)
	}
	if ov.Aggregate.CaseCount != 3 || ov.Aggregate.TotalAmount != 166000 {
		t.Errorf("overview = %+v", ov.Aggregate)
	}

	w = do(t, srv, "GET", "/llm/providers", "")
	if !strings.Contains(w.Body.String(), `"name":"ollama"`) {
		t.Errorf("providers = %s", w.Body)
	}
}

func TestCaseListAndTimeline(t *testing.T) {
	srv := newTestServer(Config{}, &fakeDispatcher{}, &fakeService{})

	w := do(t, srv, "GET", "/cases", "")
	if w.Code != http.StatusOK {
		t.Fatalf("cases: status = %d", w.Code)
	}
	var cases struct {
		Cases []domain.CaseSummary `json:"cases"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &cases); err != nil {
		t.Fatal(err)
	}
	if len(cases.Cases) != 2 || cases.Cases[1].CaseID != "2024-PI-002" {
		t.Errorf("cases = %+v", cases.Cases)
	}

	w = do(t, srv, "GET", "/system/timeline", "")
	if w.Code != http.StatusOK {
		t.Fatalf("timeline: status = %d", w.Code)
	}
	var tl struct {
		Timeline []service.TimelineEntry `json:"timeline"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &tl); err != nil {
		t.Fatal(err)
	}
	if len(tl.Timeline) != 2 {
		t.Fatalf("timeline = %+v", tl.Timeline)
	}
	if tl.Timeline[0].EventDate == nil || tl.Timeline[0].EventDate.Format("2006-01-02") != "2024-01-10" {
		t.Errorf("first event date = %v", tl.Timeline[0].EventDate)
	}
	if !strings.Contains(w.Body.String(), `"description":"Undated note"`) {
		t.Errorf("timeline body = %s", w.Body)
	}
}

func TestWebSocketDispatch(t *testing.T) {
	d := &fakeDispatcher{}
	srv := newTestServer(Config{}, d, &fakeService{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(protocol.Request{Method: protocol.MethodQuery, Params: map[string]any{"query": "q"}, ID: "1"}); err != nil {
		t.Fatal(err)
	}
	var resp protocol.Response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != "1" || resp.Error != nil {
		t.Errorf("resp = %+v", resp)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	resp = protocol.Response{}
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == nil || resp.Error.Code != protocol.CodeInvalidRequest {
		t.Errorf("resp = %+v", resp)
	}
}

func dialWS(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestWebSocketCallTimesOut(t *testing.T) {
	d := &slowDispatcher{hold: time.Minute}
	srv := newTestServer(Config{RequestTimeout: 50 * time.Millisecond}, d, &fakeService{})
	conn := dialWS(t, srv)

	if err := conn.WriteJSON(protocol.Request{Method: protocol.MethodQuery, ID: "slow"}); err != nil {
		t.Fatal(err)
	}
	var resp protocol.Response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != "slow" || resp.Error == nil {
		t.Fatalf("resp = %+v", resp)
	}
	if !strings.Contains(resp.Error.Message, "deadline exceeded") {
		t.Errorf("error = %q", resp.Error.Message)
	}
}

func TestWebSocketLimitsConcurrentCalls(t *testing.T) {
	d := &slowDispatcher{hold: 30 * time.Millisecond}
	srv := newTestServer(Config{WebSocketMaxInFlight: 2}, d, &fakeService{})
	conn := dialWS(t, srv)

	const calls = 6
	for i := 0; i < calls; i++ {
		if err := conn.WriteJSON(protocol.Request{Method: protocol.MethodQuery, ID: fmt.Sprint(i)}); err != nil {
			t.Fatal(err)
		}
	}
	seen := map[any]bool{}
	for i := 0; i < calls; i++ {
		var resp protocol.Response
		if err := conn.ReadJSON(&resp); err != nil {
			t.Fatal(err)
		}
		if resp.Error != nil {
			t.Errorf("resp = %+v", resp)
		}
		seen[resp.ID] = true
	}
	if len(seen) != calls {
		t.Errorf("got %d distinct responses, want %d", len(seen), calls)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.peak > 2 {
		t.Errorf("peak concurrent calls = %d, want <= 2", d.peak)
	}
}
