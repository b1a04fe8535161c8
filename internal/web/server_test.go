package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/memberdesk/internal/config"
	"github.com/JonMunkholm/memberdesk/internal/core"
	"github.com/JonMunkholm/memberdesk/internal/metrics"
	"github.com/JonMunkholm/memberdesk/internal/spreadsheet"
	"github.com/JonMunkholm/memberdesk/internal/store/memory"
	"github.com/JonMunkholm/memberdesk/internal/uploads"
)

type testEnv struct {
	srv   *Server
	store *memory.Store
	cfg   *config.Config
}

func newTestEnv(t *testing.T, tweak func(*config.Config)) *testEnv {
	t.Helper()
	cfg, err := config.LoadFrom(func(k string) (string, bool) {
		if k == "MONGODB_URI" {
			return "mongodb://localhost", true
		}
		return "", false
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Rate.Enabled = false
	if tweak != nil {
		tweak(cfg)
	}

	photos, err := uploads.New(t.TempDir(), cfg.Uploads.MaxFileSize)
	if err != nil {
		t.Fatalf("uploads: %v", err)
	}
	store := memory.New()
	svc := core.NewService(core.Options{
		Store:   store,
		Photos:  photos,
		Decoder: spreadsheet.Decoder{},
	})
	srv := NewServer(cfg, svc, photos, metrics.New())
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, store: store, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, field, filename string, data []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range extra {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = fw.Write(data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestMembersImport(t *testing.T) {
	env := newTestEnv(t, nil)
	csv := "الاسم,الهاتف,رقم العضوية,status\n" +
		"محمد,06-12 34 56 78,100,نشط\n" +
		"محمد ب,0611,100,\n" +
		",0699,,\n"
	body, ct := multipartBody(t, "file", "members.csv", []byte(csv), map[string]string{"mode": "upsert"})

	req := httptest.NewRequest(http.MethodPost, "/api/uploads/members-import", body)
	req.Header.Set("Content-Type", ct)
	rec := env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	sum := decode[core.ImportSummary](t, rec)
	if sum.Message != "Import completed" || sum.Rows != 3 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.Results.Created != 1 || sum.Results.Updated != 1 || sum.Results.Failed != 1 {
		t.Errorf("results = %+v", sum.Results)
	}
	if len(sum.Results.Errors) != 1 || sum.Results.Errors[0].Row != 3 {
		t.Errorf("errors = %+v", sum.Results.Errors)
	}
}

func TestMembersImportPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		body func() (*bytes.Buffer, string)
		want string
	}{
		{"no file", func() (*bytes.Buffer, string) {
			return multipartBody(t, "", "", nil, map[string]string{"mode": "append"})
		}, "no file provided"},
		{"no rows", func() (*bytes.Buffer, string) {
			return multipartBody(t, "file", "x.csv", []byte("fullName\n"), nil)
		}, "empty file"},
		{"legacy xls", func() (*bytes.Buffer, string) {
			return multipartBody(t, "file", "old.xls", []byte("\xd0\xcf\x11\xe0\xa1\xb1\x1a\xe1junk"), nil)
		}, "unreadable spreadsheet"},
		{"not multipart", func() (*bytes.Buffer, string) {
			return bytes.NewBufferString("{}"), "application/json"
		}, "no file provided"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := tt.body()
			req := httptest.NewRequest(http.MethodPost, "/api/uploads/members-import", body)
			req.Header.Set("Content-Type", ct)
			rec := env.do(t, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", rec.Code, rec.Body.String())
			}
			if resp := decode[ErrorResponse](t, rec); !strings.Contains(resp.Error, tt.want) {
				t.Errorf("error = %q, want %q", resp.Error, tt.want)
			}
		})
	}
}

func TestMembersImportTooManyRows(t *testing.T) {
	env := newTestEnv(t, nil)
	var b strings.Builder
	b.WriteString("fullName\n")
	for i := 0; i <= core.MaxImportRows; i++ {
		b.WriteString("m\n")
	}
	body, ct := multipartBody(t, "file", "big.csv", []byte(b.String()), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/uploads/members-import?mode=append", body)
	req.Header.Set("Content-Type", ct)

	rec := env.do(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if resp := decode[ErrorResponse](t, rec); resp.Code != "IMP001" {
		t.Errorf("code = %q, want IMP001", resp.Code)
	}
}

func TestMemberCRUD(t *testing.T) {
	env := newTestEnv(t, nil)

	create := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/members", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(ActorHeader, "clerk")
		return env.do(t, req)
	}

	if rec := create(`{"fullName":"A"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("create without date = %d", rec.Code)
	}
	if rec := create(`not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("create with bad body = %d", rec.Code)
	}

	rec := create(`{"fullName":"Amina","membershipDate":"2024-01-05","gender":"أنثى","membershipId":7}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body.String())
	}
	m := decode[core.Member](t, rec)
	if m.Gender != core.GenderFemale || m.MembershipID == nil || *m.MembershipID != 7 {
		t.Errorf("created = %+v", m)
	}

	if rec := create(`{"fullName":"B","membershipDate":"2024-01-05","membershipId":7}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate membershipId = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/members/"+m.ID, strings.NewReader(`{"address":"Rabat","gender":""}`))
	rec = env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[core.Member](t, rec); got.Address != "Rabat" || got.Gender != "" {
		t.Errorf("updated = %+v", got)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/members/"+m.ID, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("get = %d", rec.Code)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/members/"+m.ID, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("delete = %d", rec.Code)
	}
	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/members/"+m.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d", rec.Code)
	}
	if resp := decode[ErrorResponse](t, rec); resp.Code != "MEM001" {
		t.Errorf("not found code = %q", resp.Code)
	}
}

func TestListAndBulkDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, m := range []*core.Member{
		{FullName: "Amina", Status: core.StatusInactive},
		{FullName: "Karim"},
		{FullName: "Salma"},
	} {
		m.ApplyDefaults()
		if err := env.store.Create(t.Context(), m); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/members?pageSize=2&sort=fullName&dir=desc", nil))
	page := decode[core.MemberPage](t, rec)
	if page.TotalCount != 3 || page.TotalPages != 2 || len(page.Members) != 2 || page.Members[0].FullName != "Salma" {
		t.Errorf("page = %+v", page)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/members/count?status=active", nil))
	if got := decode[map[string]int64](t, rec); got["count"] != 2 {
		t.Errorf("count = %v", got)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/members", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unscoped bulk delete = %d", rec.Code)
	}
	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/members?beforeJoined=garbage", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date bulk delete = %d", rec.Code)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/members?status=inactive", nil))
	if res := decode[core.BulkDeleteResult](t, rec); rec.Code != http.StatusOK || res.DeletedCount != 1 {
		t.Errorf("scoped bulk delete = %d %+v", rec.Code, res)
	}
	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/members?confirm=true", nil))
	if res := decode[core.BulkDeleteResult](t, rec); res.DeletedCount != 2 {
		t.Errorf("confirmed bulk delete = %+v", res)
	}
}

func TestPhotoUploadAndServe(t *testing.T) {
	env := newTestEnv(t, nil)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	body, ct := multipartBody(t, PhotoField, "me.png", png, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/uploads/photo", body)
	req.Header.Set("Content-Type", ct)
	rec := env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload = %d %s", rec.Code, rec.Body.String())
	}
	resp := decode[struct {
		OK  bool   `json:"ok"`
		URL string `json:"url"`
	}](t, rec)
	if !resp.OK || !strings.HasPrefix(resp.URL, uploads.PublicPrefix) {
		t.Fatalf("response = %+v", resp)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, resp.URL, nil))
	if rec.Code != http.StatusOK || !bytes.Equal(rec.Body.Bytes(), png) {
		t.Errorf("serve = %d, %d bytes", rec.Code, rec.Body.Len())
	}
	if rec := env.do(t, httptest.NewRequest(http.MethodGet, uploads.PublicPrefix, nil)); rec.Code != http.StatusNotFound {
		t.Errorf("directory listing = %d, want 404", rec.Code)
	}

	body, ct = multipartBody(t, PhotoField, "notes.txt", []byte("hello"), nil)
	req = httptest.NewRequest(http.MethodPost, "/api/uploads/photo", body)
	req.Header.Set("Content-Type", ct)
	if rec := env.do(t, req); rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("text upload = %d", rec.Code)
	}
}

func TestTemplateDownload(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/uploads/template", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), spreadsheet.TemplateFileName) {
		t.Errorf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("template is not an xlsx archive")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	health := decode[struct {
		Status  string                   `json:"status"`
		Imports core.ImportLimiterStatus `json:"imports"`
	}](t, rec)
	if health.Status != "ok" || health.Imports.MaxConcurrent != 1 || health.Imports.Available != 1 {
		t.Errorf("health = %+v", health)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "memberdesk_http_requests_total") {
		t.Errorf("metrics = %d", rec.Code)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"secret"}
	})

	if rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/members", nil)); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key = %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	req.Header.Set("X-API-Key", "secret")
	if rec := env.do(t, req); rec.Code != http.StatusOK {
		t.Errorf("with key = %d", rec.Code)
	}
	if rec := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Errorf("health should not need a key, got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.Rate.Enabled = true
		c.Rate.RequestsPerMinute = 2
	})

	var last int
	for i := 0; i < 3; i++ {
		last = env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil)).Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", last)
	}
}
