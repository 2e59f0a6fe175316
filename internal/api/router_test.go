package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fntelecomllc/domainfinder/backend/internal/config"
	"github.com/fntelecomllc/domainfinder/backend/internal/finder"
)

type fakeGenerator struct {
	out   string
	calls int
}

func (g *fakeGenerator) Generate(context.Context, string, string) (string, error) {
	g.calls++
	return g.out, nil
}

type fakeChecker struct {
	taken map[string]bool
	err   error
	calls int
}

func (c *fakeChecker) CheckDomains(_ context.Context, domains []string) ([]finder.AvailabilityResult, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	out := make([]finder.AvailabilityResult, len(domains))
	for i, d := range domains {
		out[i] = finder.AvailabilityResult{Domain: d, Available: !c.taken[d]}
	}
	return out, nil
}

func credentialedConfig() *config.AppConfig {
	cfg := config.DefaultConfig()
	cfg.Generator.APIKey = "sk-test"
	cfg.Registrar.APIUser = "apiuser"
	cfg.Registrar.APIKey = "apikey"
	cfg.Registrar.Username = "user"
	cfg.Registrar.ClientIP = "203.0.113.7"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.AppConfig, gen *fakeGenerator, checker *fakeChecker) *httptest.Server {
	t.Helper()
	svc := finder.NewService(cfg, gen, finder.NewBatcher(checker, 50, 0))
	srv := httptest.NewServer(NewRouter(cfg, svc))
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestSearchDomainsSuccess(t *testing.T) {
	gen := &fakeGenerator{out: "HomeShieldPro.com, WarrantyNest.com, bad!!domain, ab"}
	checker := &fakeChecker{taken: map[string]bool{"warrantynest.com": true}}
	srv := newTestServer(t, credentialedConfig(), gen, checker)

	resp, err := http.Get(srv.URL + "/api/domains?keyword=home+warranty&tld=com&count=10")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
	var body finder.SearchResponse
	decodeBody(t, resp, &body)
	if body.Keyword != "home warranty" || body.TotalGenerated != 2 || body.Available != 1 || len(body.Domains) != 2 {
		t.Fatalf("body = %+v", body)
	}
	if body.Domains[0].Domain != "homeshieldpro.com" || !body.Domains[0].Available {
		t.Fatalf("first domain = %+v", body.Domains[0])
	}
}

func TestSearchDomainsBadRequest(t *testing.T) {
	for _, query := range []string{
		"?tld=com",
		"?keyword=home",
		"?keyword=home&tld=com&count=abc",
		"?keyword=home&tld=com&count=0",
		"?keyword=home&tld=co.uk",
	} {
		gen := &fakeGenerator{out: "NestPro"}
		srv := newTestServer(t, credentialedConfig(), gen, &fakeChecker{})
		resp, err := http.Get(srv.URL + "/api/domains" + query)
		if err != nil {
			t.Fatal(err)
		}
		var body map[string]string
		decodeBody(t, resp, &body)
		if resp.StatusCode != http.StatusBadRequest || body["error"] == "" {
			t.Errorf("%s: status = %d, body = %v", query, resp.StatusCode, body)
		}
		if gen.calls != 0 {
			t.Errorf("%s: generator called", query)
		}
	}
}

func TestSearchDomainsMissingCredentials(t *testing.T) {
	cfg := credentialedConfig()
	cfg.Registrar.APIUser = ""
	gen := &fakeGenerator{out: "NestPro"}
	checker := &fakeChecker{}
	srv := newTestServer(t, cfg, gen, checker)

	resp, err := http.Get(srv.URL + "/api/domains?keyword=home&tld=com")
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusInternalServerError || body["error"] != titleCheck {
		t.Fatalf("status = %d, error = %q", resp.StatusCode, body["error"])
	}
	if !strings.Contains(body["message"], "Namecheap API credentials") || !strings.Contains(body["message"], config.EnvRegistrarAPIUser) {
		t.Fatalf("message = %q", body["message"])
	}
	if gen.calls != 0 || checker.calls != 0 {
		t.Fatalf("calls: generator %d, checker %d", gen.calls, checker.calls)
	}
}

func TestSearchDomainsEmptyGeneration(t *testing.T) {
	checker := &fakeChecker{}
	srv := newTestServer(t, credentialedConfig(), &fakeGenerator{out: ""}, checker)

	resp, err := http.Get(srv.URL + "/api/domains?keyword=home&tld=com")
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusInternalServerError || body["error"] != titleGenerate {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if checker.calls != 0 {
		t.Fatal("registrar should not be called")
	}
}

func TestSearchDomainsRegistrarTimeout(t *testing.T) {
	checker := &fakeChecker{err: finder.UpstreamError(finder.ReasonTimeout, "request timed out", context.DeadlineExceeded)}
	srv := newTestServer(t, credentialedConfig(), &fakeGenerator{out: "NestPro"}, checker)

	resp, err := http.Get(srv.URL + "/api/domains?keyword=home&tld=com")
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["error"] != titleCheck || body["message"] != "Request timed out. Please try again." {
		t.Fatalf("body = %v", body)
	}
}

func TestHealthAndPing(t *testing.T) {
	cfg := credentialedConfig()
	cfg.Server.APIKey = "secret"
	srv := newTestServer(t, cfg, &fakeGenerator{}, &fakeChecker{})

	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	var health healthResponse
	decodeBody(t, resp, &health)
	if resp.StatusCode != http.StatusOK || health.Status != "ok" || !health.HasCredentials || health.Port != config.DefaultPort {
		t.Fatalf("status = %d, health = %+v", resp.StatusCode, health)
	}

	resp, err = http.Get(srv.URL + "/ping")
	if err != nil {
		t.Fatal(err)
	}
	var ping map[string]string
	decodeBody(t, resp, &ping)
	if ping["message"] != "pong" {
		t.Fatalf("ping = %v", ping)
	}
}

func TestAPIKeyRequiredWhenConfigured(t *testing.T) {
	cfg := credentialedConfig()
	cfg.Server.APIKey = "secret"
	srv := newTestServer(t, cfg, &fakeGenerator{out: "NestPro"}, &fakeChecker{})

	resp, err := http.Get(srv.URL + "/api/domains?keyword=home&tld=com")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status without key = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/domains?keyword=home&tld=com", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status with key = %d", resp.StatusCode)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t, credentialedConfig(), &fakeGenerator{}, &fakeChecker{})
	const id = "3f1c2a9e-8d4b-4c6a-9e2f-1b7d5a0c3e44"

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/ping", nil)
	req.Header.Set(RequestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Fatalf("request id = %q, want %q", got, id)
	}
}

const exportBody = `{"keyword":"home warranty","tld":"com","domains":[
	{"domain":"homeshieldpro.com","available":true},
	{"domain":"warrantynest.com","available":false},
	{"domain":"safehomeplan.com","available":true}],
	"dismissed":["safehomeplan.com"]}`

func TestExportCSV(t *testing.T) {
	cfg := credentialedConfig()
	svc := finder.NewService(cfg, &fakeGenerator{}, finder.NewBatcher(&fakeChecker{}, 50, 0))
	h := NewAPIHandler(cfg, svc)
	h.now = func() time.Time { return time.UnixMilli(1700000000000) }

	rec := httptest.NewRecorder()
	h.ExportCSVHandler(rec, httptest.NewRequest(http.MethodPost, "/api/export/csv", strings.NewReader(exportBody)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="domains_home-warranty_com_1700000000000.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	want := "Domain,Available\nhomeshieldpro.com,Yes\nwarrantynest.com,No\n"
	if rec.Body.String() != want {
		t.Fatalf("body = %q, want %q", rec.Body.String(), want)
	}
}

func TestExportBulkURL(t *testing.T) {
	srv := newTestServer(t, credentialedConfig(), &fakeGenerator{}, &fakeChecker{})

	resp, err := http.Post(srv.URL+"/api/export/bulk-url", "application/json", strings.NewReader(exportBody))
	if err != nil {
		t.Fatal(err)
	}
	var body bulkURLResponse
	decodeBody(t, resp, &body)
	if body.Count != 1 || !strings.HasSuffix(body.URL, "?domain=homeshieldpro.com&type=beast") {
		t.Fatalf("body = %+v", body)
	}
}

func TestExportRejectsEmptyAndMalformed(t *testing.T) {
	srv := newTestServer(t, credentialedConfig(), &fakeGenerator{}, &fakeChecker{})
	for _, payload := range []string{`{"domains":[]}`, `not json`} {
		resp, err := http.Post(srv.URL+"/api/export/csv", "application/json", strings.NewReader(payload))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d", payload, resp.StatusCode)
		}
	}
}

func TestUserFacingErrorMessages(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		title   string
		message string
	}{
		{finder.UpstreamError(finder.ReasonConnection, "dial", nil), 500, titleCheck, registrarReasonMessages[finder.ReasonConnection]},
		{finder.UpstreamError(finder.ReasonParse, "xml", nil), 500, titleCheck, registrarReasonMessages[finder.ReasonParse]},
		{finder.UpstreamError(finder.ReasonEmptyBody, "", nil), 500, titleCheck, registrarReasonMessages[finder.ReasonEmptyBody]},
		{finder.UpstreamError(finder.ReasonAPIError, "API Key is invalid or API access has not been enabled", nil), 500, titleCheck, "API Key is invalid or API access has not been enabled"},
		{&finder.Error{Kind: finder.KindValidation, Message: "Missing required parameters: keyword and tld"}, 400, "Missing required parameters: keyword and tld", ""},
		{context.Canceled, 500, titleGenerate, "An unexpected error occurred. Please try again."},
		{&finder.Error{Kind: finder.KindConfiguration, Reason: finder.ReasonRegistrarMissing, Message: "configure registrar"}, 500, titleCheck, "configure registrar"},
		{&finder.Error{Kind: finder.KindConfiguration, Reason: finder.ReasonRegistrarPlaceholder, Message: "replace placeholders"}, 500, titleCheck, "replace placeholders"},
		{&finder.Error{Kind: finder.KindConfiguration, Reason: finder.ReasonGeneratorKey, Message: "configure key"}, 500, titleGenerate, "configure key"},
	}
	for _, tt := range tests {
		status, title, message := userFacingError(tt.err)
		if status != tt.status || title != tt.title || message != tt.message {
			t.Errorf("userFacingError(%v) = (%d, %q, %q), want (%d, %q, %q)", tt.err, status, title, message, tt.status, tt.title, tt.message)
		}
	}
}
