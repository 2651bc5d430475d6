package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/artpar/construct/adapters/clock"
	"github.com/artpar/construct/adapters/hasher"
	httpadapter "github.com/artpar/construct/adapters/http"
	"github.com/artpar/construct/adapters/idgen"
	"github.com/artpar/construct/adapters/memory"
	"github.com/artpar/construct/adapters/metrics"
	"github.com/artpar/construct/app"
	"github.com/artpar/construct/core/compiler"
	"github.com/artpar/construct/pkg/jsonapi"
)

const header = "pub enum Runtime where Block = Block, NodeBlock = opaque::Block, UncheckedExtrinsic = UncheckedExtrinsic "

const validRuntime = header + `{
	System: system::{Module, Call, Storage, Config, Event},
	Timestamp: timestamp::{Module, Call, Storage, Inherent},
	Balances: balances,
}`

type document struct {
	Data   json.RawMessage `json:"data"`
	Errors []jsonapi.Error `json:"errors"`
	Meta   jsonapi.Meta    `json:"meta"`
}

func setupRouter(t *testing.T, withStore bool) (http.Handler, *prometheus.Registry) {
	t.Helper()

	c := compiler.New(compiler.Options{
		Logger:        zerolog.Nop(),
		Fingerprinter: hasher.NewBlake2b(nil),
	})
	deps := app.BuildDeps{
		Compiler: c,
		Clock:    clock.NewTicking(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), time.Second),
		IDGen:    idgen.NewSequential("bld_"),
		Logger:   zerolog.Nop(),
	}
	if withStore {
		deps.Store = memory.NewBuildStore()
	}

	reg := prometheus.NewRegistry()
	router := httpadapter.NewRouter(app.NewBuildService(deps), zerolog.Nop(), httpadapter.RouterConfig{
		Metrics:        metrics.NewWithRegistry(reg),
		MetricsHandler: http.NotFoundHandler(),
		MaxBodyBytes:   4096,
		Version:        "1.2.3",
	})
	return router, reg
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, document) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var doc document
	if strings.HasPrefix(rec.Header().Get("Content-Type"), jsonapi.ContentType) {
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, doc
}

func decodeResource(t *testing.T, doc document) jsonapi.Resource {
	t.Helper()
	var r jsonapi.Resource
	if err := json.Unmarshal(doc.Data, &r); err != nil {
		t.Fatalf("data is not a resource: %v", err)
	}
	return r
}

// -----------------------------------------------------------------------------
// Compile
// -----------------------------------------------------------------------------

func TestCompile_CreatesBuild(t *testing.T) {
	router, _ := setupRouter(t, true)

	rec, doc := do(t, router, http.MethodPost, "/compile?source=node.runtime", validRuntime)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201\n%s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/builds/bld_0001" {
		t.Errorf("Location = %q, want /builds/bld_0001", loc)
	}

	r := decodeResource(t, doc)
	if r.Type != httpadapter.TypeBuild || r.ID != "bld_0001" {
		t.Errorf("resource = %s/%s", r.Type, r.ID)
	}
	if r.Attributes["runtime"] != "Runtime" || r.Attributes["source"] != "node.runtime" {
		t.Errorf("attributes = %v", r.Attributes)
	}
	if r.Attributes["module_count"] != float64(3) {
		t.Errorf("module_count = %v, want 3", r.Attributes["module_count"])
	}
	if r.Meta["cached"] != false {
		t.Errorf("cached = %v, want false", r.Meta["cached"])
	}

	bundle, ok := r.Attributes["bundle"].(map[string]any)
	if !ok {
		t.Fatalf("bundle = %T, want object", r.Attributes["bundle"])
	}
	for _, name := range []string{"event", "call", "modules", "inherent"} {
		if _, ok := bundle[name]; !ok {
			t.Errorf("bundle missing %q", name)
		}
	}
}

func TestCompile_Cached(t *testing.T) {
	router, _ := setupRouter(t, true)

	if rec, _ := do(t, router, http.MethodPost, "/compile", validRuntime); rec.Code != http.StatusCreated {
		t.Fatalf("first status = %d, want 201", rec.Code)
	}
	rec, doc := do(t, router, http.MethodPost, "/compile", validRuntime)
	if rec.Code != http.StatusOK {
		t.Fatalf("second status = %d, want 200", rec.Code)
	}
	r := decodeResource(t, doc)
	if r.ID != "bld_0001" || r.Meta["cached"] != true {
		t.Errorf("cached resource = %s cached=%v", r.ID, r.Meta["cached"])
	}
}

func TestCompile_WithoutStore(t *testing.T) {
	router, _ := setupRouter(t, false)

	rec, doc := do(t, router, http.MethodPost, "/compile", validRuntime)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	r := decodeResource(t, doc)
	if r.ID == "" || r.ID != r.Attributes["fingerprint"] {
		t.Errorf("ID = %q, want fingerprint %v", r.ID, r.Attributes["fingerprint"])
	}
}

func TestCompile_Only(t *testing.T) {
	router, _ := setupRouter(t, false)

	_, doc := do(t, router, http.MethodPost, "/compile?only=call,%20genesis", validRuntime)
	bundle := decodeResource(t, doc).Attributes["bundle"].(map[string]any)
	if len(bundle) != 2 {
		t.Errorf("bundle keys = %d, want 2", len(bundle))
	}

	rec, doc := do(t, router, http.MethodPost, "/compile?only=weights", validRuntime)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if doc.Errors[0].Code != "unknown_artifact" {
		t.Errorf("code = %q, want unknown_artifact", doc.Errors[0].Code)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"empty body", "   ", http.StatusBadRequest, "bad_request"},
		{"grammar", "pub enum Runtime {", http.StatusUnprocessableEntity, "grammar_error"},
		{"missing system", header + "{ Balances: balances }", http.StatusUnprocessableEntity, "missing_system"},
		{"duplicate system", header + "{ System: system, System: frame_system }", http.StatusUnprocessableEntity, "duplicate_system"},
		{"module conflict", header + "{ System: system, Balances: balances, Other: balances }", http.StatusUnprocessableEntity, "module_conflict"},
		{"too large", header + "{ System: system }" + strings.Repeat(" ", 5000), http.StatusRequestEntityTooLarge, "payload_too_large"},
	}

	router, _ := setupRouter(t, true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, doc := do(t, router, http.MethodPost, "/compile", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d\n%s", rec.Code, tt.status, rec.Body.String())
			}
			if len(doc.Errors) == 0 {
				t.Fatal("expected errors in document")
			}
			if doc.Errors[0].Code != tt.code {
				t.Errorf("code = %q, want %q", doc.Errors[0].Code, tt.code)
			}
		})
	}
}

func TestCompile_GrammarErrorPosition(t *testing.T) {
	router, _ := setupRouter(t, false)

	_, doc := do(t, router, http.MethodPost, "/compile", header+"{\n  System: system::{Module, Bogus},\n}")
	if len(doc.Errors) != 1 {
		t.Fatalf("errors = %+v", doc.Errors)
	}
	if doc.Errors[0].Meta["line"] != float64(2) {
		t.Errorf("line = %v, want 2", doc.Errors[0].Meta["line"])
	}
}

// -----------------------------------------------------------------------------
// Normalize
// -----------------------------------------------------------------------------

func TestNormalize(t *testing.T) {
	router, _ := setupRouter(t, false)

	rec, doc := do(t, router, http.MethodPost, "/normalize", validRuntime)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	r := decodeResource(t, doc)
	if r.Type != httpadapter.TypeTable || r.ID != "Runtime" {
		t.Errorf("resource = %s/%s", r.Type, r.ID)
	}
	modules, ok := r.Attributes["modules"].([]any)
	if !ok || len(modules) != 3 {
		t.Fatalf("modules = %v", r.Attributes["modules"])
	}
	canonical, _ := r.Attributes["canonical"].(string)
	if !strings.Contains(canonical, "Balances: balances::{Module, Call, Storage, Event<T>, Config<T>}") {
		t.Errorf("canonical form missing expanded Balances:\n%s", canonical)
	}
}

// -----------------------------------------------------------------------------
// Builds
// -----------------------------------------------------------------------------

func TestBuilds_ListAndGet(t *testing.T) {
	router, _ := setupRouter(t, true)

	do(t, router, http.MethodPost, "/compile", validRuntime)
	do(t, router, http.MethodPost, "/compile", header+"{ System: system }")

	rec, doc := do(t, router, http.MethodGet, "/builds?page[size]=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var list []jsonapi.Resource
	if err := json.Unmarshal(doc.Data, &list); err != nil {
		t.Fatalf("data is not a collection: %v", err)
	}
	if len(list) != 1 || list[0].ID != "bld_0002" {
		t.Errorf("list = %+v, want newest build only", list)
	}
	if doc.Meta["total"] != float64(2) {
		t.Errorf("total = %v, want 2", doc.Meta["total"])
	}
	if _, ok := list[0].Attributes["bundle"]; ok {
		t.Error("list should not include bundles")
	}

	rec, doc = do(t, router, http.MethodGet, "/builds/bld_0001", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	r := decodeResource(t, doc)
	if _, ok := r.Attributes["bundle"].(map[string]any); !ok {
		t.Errorf("bundle = %T, want object", r.Attributes["bundle"])
	}

	rec, doc = do(t, router, http.MethodGet, "/builds/missing", "")
	if rec.Code != http.StatusNotFound || doc.Errors[0].Code != "not_found" {
		t.Errorf("missing build = %d %+v", rec.Code, doc.Errors)
	}
}

func TestBuilds_StoreDisabled(t *testing.T) {
	router, _ := setupRouter(t, false)

	rec, doc := do(t, router, http.MethodGet, "/builds", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if doc.Errors[0].Code != "store_disabled" {
		t.Errorf("code = %q, want store_disabled", doc.Errors[0].Code)
	}
}

// -----------------------------------------------------------------------------
// Health, version, metrics
// -----------------------------------------------------------------------------

func TestHealthAndVersion(t *testing.T) {
	router, _ := setupRouter(t, false)

	rec, _ := do(t, router, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = do(t, router, http.MethodGet, "/version", "")
	var v httpadapter.VersionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("version is not JSON: %v", err)
	}
	if v.Version != "1.2.3" || v.Service != "construct" {
		t.Errorf("version = %+v", v)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	router, reg := setupRouter(t, false)

	do(t, router, http.MethodPost, "/compile", validRuntime)
	do(t, router, http.MethodGet, "/health", "")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	var routes []string
	for _, f := range families {
		if f.GetName() != "construct_http_requests_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "route" {
					routes = append(routes, l.GetValue())
				}
			}
		}
	}
	if len(routes) != 1 || routes[0] != "/compile" {
		t.Errorf("recorded routes = %v, want [/compile]", routes)
	}
}
