package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KaramelBytes/chartloom/internal/chart"
	"github.com/gin-gonic/gin"
)

const salesRows = `[
{"date":"2025-01-01","product":"A","region":"North","sales":"120"},
{"date":"2025-01-02","product":"A","region":"South","sales":"90"},
{"date":"2025-01-03","product":"B","region":"North","sales":"150"},
{"date":"2025-01-04","product":"B","region":"South","sales":"80"},
{"date":"2025-01-05","product":"A","region":"West","sales":"130"},
{"date":"2025-01-06","product":"C","region":"North","sales":"60"},
{"date":"2025-01-07","product":"C","region":"West","sales":"95"},
{"date":"2025-01-08","product":"B","region":"South","sales":110}
]`

func newTestServer(opts Options) *Server {
	gin.SetMode(gin.TestMode)
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(opts)
}

func do(t *testing.T, s *Server, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestAnalyzeAutoPicksFirstSuggestion(t *testing.T) {
	s := newTestServer(Options{ShareBaseURL: "https://charts.example.com/"})
	w := do(t, s, http.MethodPost, "/v1/analyze", `{"rows":`+salesRows+`}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp StateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID == "" || resp.Token == "" {
		t.Fatalf("missing session id or token: %+v", resp)
	}
	if resp.ShareURL != "https://charts.example.com/#"+resp.Token {
		t.Fatalf("share url = %q", resp.ShareURL)
	}
	if len(resp.Columns) != 4 || resp.Columns[0].Name != "date" || resp.Columns[3].Kind != "number" {
		t.Fatalf("unexpected columns %+v", resp.Columns)
	}
	if len(resp.Suggestions) != 3 || resp.Config.Kind != chart.KindLine {
		t.Fatalf("first suggestion should be applied: %+v", resp.Config)
	}
	if resp.Plan.Kind != chart.KindLine || len(resp.Plan.Labels) != 8 {
		t.Fatalf("unexpected plan %+v", resp.Plan)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a request id header")
	}
}

func TestAnalyzeWithConfigThenRestore(t *testing.T) {
	s := newTestServer(Options{})
	body := `{"rows":` + salesRows + `,"config":{"chartKind":"bar","x":"region","y":["sales"],"aggregation":"avg"}}`
	w := do(t, s, http.MethodPost, "/v1/analyze", body, http.Header{"X-Request-Id": []string{"req-1"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Request-ID"); got != "req-1" {
		t.Fatalf("request id = %q, want req-1", got)
	}
	var first StateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if want := []string{"North", "South", "West"}; strings.Join(first.Plan.Labels, ",") != strings.Join(want, ",") {
		t.Fatalf("labels = %v", first.Plan.Labels)
	}

	payload, _ := json.Marshal(RestoreRequest{Token: "https://charts.example.com/#" + first.Token})
	w = do(t, s, http.MethodPost, "/v1/restore", string(payload), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("restore status = %d, body = %s", w.Code, w.Body.String())
	}
	var restored StateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &restored); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if restored.Config.Kind != chart.KindBar || restored.Config.X != "region" || restored.Config.Aggregation != "avg" {
		t.Fatalf("unexpected restored config %+v", restored.Config)
	}
	if restored.Token != first.Token {
		t.Fatalf("restored state should encode to the same token")
	}
}

func TestRestoreGarbage(t *testing.T) {
	s := newTestServer(Options{})
	w := do(t, s, http.MethodPost, "/v1/restore", `{"token":"!!not-a-token!!"}`, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "RESTORE_FAILED" {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestAnalyzeBadRequests(t *testing.T) {
	s := newTestServer(Options{})
	cases := []struct {
		body string
		code string
	}{
		{`{}`, "INVALID_REQUEST"},
		{`{"rows":{"a":1}}`, "INVALID_REQUEST"},
		{`not json`, "INVALID_REQUEST"},
		{`{"rows":` + salesRows + `,"config":{"chartKind":"donut","aggregation":"none"}}`, "INVALID_CONFIG"},
		{`{"rows":` + salesRows + `,"config":{"chartKind":"bar","x":"nope","aggregation":"none"}}`, "INVALID_CONFIG"},
	}
	for _, c := range cases {
		w := do(t, s, http.MethodPost, "/v1/analyze", c.body, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", c.body, w.Code)
			continue
		}
		var resp ErrorResponse
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Code != c.code {
			t.Errorf("%s: code = %q, want %q", c.body, resp.Code, c.code)
		}
	}
}

func TestAnalyzeOversizedWarns(t *testing.T) {
	s := newTestServer(Options{MaxTokenChars: 50})
	w := do(t, s, http.MethodPost, "/v1/analyze", `{"rows":`+salesRows+`}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp StateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token != "" || resp.Warning == "" {
		t.Fatalf("expected warning and no token: %+v", resp)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(Options{})
	if w := do(t, s, http.MethodGet, "/healthz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", w.Code)
	}
	do(t, s, http.MethodPost, "/v1/analyze", `{"rows":`+salesRows+`}`, nil)
	w := do(t, s, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	body := w.Body.String()
	for _, name := range []string{"chartloom_share_tokens_total", "chartloom_plan_build_seconds"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics missing %s", name)
		}
	}
}
