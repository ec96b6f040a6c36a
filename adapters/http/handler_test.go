package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/IbnNafis007/tlgen/adapters/clock"
	apihttp "github.com/IbnNafis007/tlgen/adapters/http"
	"github.com/IbnNafis007/tlgen/adapters/idgen"
	"github.com/IbnNafis007/tlgen/app"
)

const testSchema = `user#11223344 id:long name:string = User;
status#55667788 flags:# online:flags.0?true expires:flags.1?int = Status;
---functions---
users.getUser#aabbcc01 id:long = User;
`

var baseTime = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

// compiledTracker returns a tracker holding one successful run.
func compiledTracker(t *testing.T) *app.Tracker {
	t.Helper()

	path := filepath.Join(t.TempDir(), "api.tl")
	if err := os.WriteFile(path, []byte(testSchema), 0644); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	svc := app.NewCompileService(app.CompileDeps{
		Clock:  clock.NewFake(baseTime),
		IDGen:  idgen.NewSequential("run_"),
		Logger: zerolog.Nop(),
	})
	res, err := svc.Compile(context.Background(), app.CompileOptions{Files: []string{path}})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	tracker := app.NewTracker()
	tracker.Record(res)
	return tracker
}

func newTestRouter(tracker *app.Tracker, cfg apihttp.RouterConfig) http.Handler {
	status := apihttp.NewStatusHandler(tracker, zerolog.Nop())
	return apihttp.NewRouter(status, zerolog.Nop(), cfg)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := newTestRouter(app.NewTracker(), apihttp.RouterConfig{})

	rec := get(t, h, "/healthz")
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %s, want ok", body["status"])
	}
}

func TestStatus_Waiting(t *testing.T) {
	h := newTestRouter(app.NewTracker(), apihttp.RouterConfig{})

	rec := get(t, h, "/v1/status")
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body apihttp.StatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "waiting" {
		t.Errorf("Status = %s, want waiting", body.Status)
	}
	if body.Runs != 0 {
		t.Errorf("Runs = %d, want 0", body.Runs)
	}
}

func TestStatus_AfterRun(t *testing.T) {
	h := newTestRouter(compiledTracker(t), apihttp.RouterConfig{})

	rec := get(t, h, "/v1/status")
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body apihttp.StatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "success" {
		t.Errorf("Status = %s, want success", body.Status)
	}
	if body.RunID != "run_1" {
		t.Errorf("RunID = %s, want run_1", body.RunID)
	}
	if body.Runs != 1 {
		t.Errorf("Runs = %d, want 1", body.Runs)
	}
	if body.Types != 2 || body.Functions != 1 {
		t.Errorf("Types/Functions = %d/%d, want 2/1", body.Types, body.Functions)
	}
}

func TestRegistry_BeforeFirstCompile(t *testing.T) {
	h := newTestRouter(app.NewTracker(), apihttp.RouterConfig{})

	rec := get(t, h, "/v1/registry")
	if rec.Code != 503 {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var body map[string]map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"]["code"] != "no_registry" {
		t.Errorf("error code = %s, want no_registry", body["error"]["code"])
	}
}

func TestRegistry_Listing(t *testing.T) {
	h := newTestRouter(compiledTracker(t), apihttp.RouterConfig{})

	rec := get(t, h, "/v1/registry")
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["count"] != float64(3) {
		t.Errorf("count = %v, want 3", body["count"])
	}

	defs, ok := body["definitions"].([]interface{})
	if !ok || len(defs) != 3 {
		t.Fatalf("definitions = %v, want 3 entries", body["definitions"])
	}
	first := defs[0].(map[string]interface{})
	if first["name"] != "user" {
		t.Errorf("definitions[0].name = %v, want user", first["name"])
	}
	if first["id"] != "0x11223344" {
		t.Errorf("definitions[0].id = %v, want 0x11223344", first["id"])
	}
}

func TestRegistry_KindFilter(t *testing.T) {
	h := newTestRouter(compiledTracker(t), apihttp.RouterConfig{})

	rec := get(t, h, "/v1/registry?kind=functions")
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["count"] != float64(1) {
		t.Errorf("count = %v, want 1", body["count"])
	}

	defs := body["definitions"].([]interface{})
	entry := defs[0].(map[string]interface{})
	if entry["kind"] != "function" {
		t.Errorf("kind = %v, want function", entry["kind"])
	}
	if entry["name"] != "users.getUser" {
		t.Errorf("name = %v, want users.getUser", entry["name"])
	}
}

func TestRegistryEntry_PrefixedHex(t *testing.T) {
	h := newTestRouter(compiledTracker(t), apihttp.RouterConfig{})

	rec := get(t, h, "/v1/registry/0x11223344")
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["name"] != "user" {
		t.Errorf("name = %v, want user", body["name"])
	}
}

func TestRegistryEntry_BareHex(t *testing.T) {
	h := newTestRouter(compiledTracker(t), apihttp.RouterConfig{})

	rec := get(t, h, "/v1/registry/aabbcc01")
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["name"] != "users.getUser" {
		t.Errorf("name = %v, want users.getUser", body["name"])
	}
	if body["kind"] != "function" {
		t.Errorf("kind = %v, want function", body["kind"])
	}
}

func TestRegistryEntry_NotFound(t *testing.T) {
	h := newTestRouter(compiledTracker(t), apihttp.RouterConfig{})

	rec := get(t, h, "/v1/registry/0xdeadbeef")
	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRegistryEntry_BadID(t *testing.T) {
	h := newTestRouter(compiledTracker(t), apihttp.RouterConfig{})

	rec := get(t, h, "/v1/registry/zzz")
	if rec.Code != 400 {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestVersion(t *testing.T) {
	h := newTestRouter(app.NewTracker(), apihttp.RouterConfig{})

	rec := get(t, h, "/version")
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body apihttp.VersionResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Version != "dev" {
		t.Errorf("Version = %s, want dev", body.Version)
	}
	if body.Service != "tlgen" {
		t.Errorf("Service = %s, want tlgen", body.Service)
	}
}

func TestVersion_Custom(t *testing.T) {
	h := newTestRouter(app.NewTracker(), apihttp.RouterConfig{Version: "1.2.3"})

	rec := get(t, h, "/version")

	var body apihttp.VersionResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Version != "1.2.3" {
		t.Errorf("Version = %s, want 1.2.3", body.Version)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	stub := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("metrics ok"))
	})

	h := newTestRouter(app.NewTracker(), apihttp.RouterConfig{MetricsHandler: stub})
	rec := get(t, h, "/metrics")
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "metrics ok" {
		t.Errorf("body = %q, want stub output", rec.Body.String())
	}
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	h := newTestRouter(app.NewTracker(), apihttp.RouterConfig{})

	rec := get(t, h, "/metrics")
	if rec.Code != 404 {
		t.Errorf("status = %d, want 404 when no metrics handler", rec.Code)
	}
}
