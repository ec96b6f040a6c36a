package bootstrap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IbnNafis007/tlgen/bootstrap"
	"github.com/IbnNafis007/tlgen/config"
	"github.com/IbnNafis007/tlgen/ports"
)

const testSchema = `user#11223344 id:long name:string = User;
status#55667788 flags:# online:flags.0?true expires:flags.1?int = Status;
---functions---
users.getUser#aabbcc01 id:long = User;
`

// writeProject lays out a schema file plus a config pointing at it and
// returns the config path and the output directory.
func writeProject(t *testing.T, extra string) (string, string) {
	t.Helper()
	dir := t.TempDir()

	schemaPath := filepath.Join(dir, "api.tl")
	if err := os.WriteFile(schemaPath, []byte(testSchema), 0644); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	outDir := filepath.Join(dir, "out")
	cfgYAML := `schema:
  files:
    - ` + schemaPath + `
output:
  dir: ` + outDir + `
  package: tlschema
  formats:
    - go
    - descriptor
logging:
  level: error
` + extra

	cfgPath := filepath.Join(dir, "tlgen.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath, outDir
}

func TestBootstrap_RunOnce(t *testing.T) {
	cfgPath, outDir := writeProject(t, "")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	a, err := bootstrap.New(cfg)
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer a.Close()

	res, err := a.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.Outcome != ports.OutcomeSuccess {
		t.Errorf("Outcome = %s, want %s", res.Outcome, ports.OutcomeSuccess)
	}
	if res.Types != 2 || res.Functions != 1 {
		t.Errorf("Types/Functions = %d/%d, want 2/1", res.Types, res.Functions)
	}

	for _, name := range []string{"user_gen.go", "registry_gen.go", "descriptor.json"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	if a.Tracker.Runs() != 1 {
		t.Errorf("Tracker.Runs = %d, want 1", a.Tracker.Runs())
	}
	if a.Tracker.Registry() == nil {
		t.Error("Tracker.Registry should not be nil after a successful run")
	}
}

func TestBootstrap_Check(t *testing.T) {
	cfgPath, outDir := writeProject(t, "")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	a, err := bootstrap.New(cfg)
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer a.Close()

	res, err := a.Check(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Registry == nil || res.Registry.Len() != 3 {
		t.Errorf("check registry size mismatch: %+v", res.Registry)
	}

	// Check must not write anything.
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Errorf("output dir should not exist after check, stat err = %v", err)
	}
}

func TestBootstrap_MetricsOptIn(t *testing.T) {
	cfgPath, _ := writeProject(t, "metrics:\n  enabled: true\n")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	a, err := bootstrap.New(cfg)
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer a.Close()

	if a.Metrics == nil {
		t.Error("Metrics should be initialized when metrics.enabled is true")
	}

	cfg.Metrics.Enabled = false
	b, err := bootstrap.New(cfg)
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer b.Close()

	if b.Metrics != nil {
		t.Error("Metrics should be nil when metrics.enabled is false")
	}
}

func TestBootstrap_WatchRecompiles(t *testing.T) {
	cfgPath, outDir := writeProject(t, "watch:\n  debounce: 20ms\n")

	a, err := bootstrap.NewFromFile(cfgPath)
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx) }()

	waitFor(t, 3*time.Second, func() bool { return a.Tracker.Runs() >= 1 })

	// Grow the schema; the watcher should recompile and pick up the
	// fourth definition (a function, since the file ends in the
	// functions section).
	schemaPath := a.Config.Schema.Files[0]
	grown := testSchema + "ping#aa00bb11 = Status;\n"
	if err := os.WriteFile(schemaPath, []byte(grown), 0644); err != nil {
		t.Fatalf("rewrite schema: %v", err)
	}

	waitFor(t, 3*time.Second, func() bool {
		reg := a.Tracker.Registry()
		return a.Tracker.Runs() >= 2 && reg != nil && reg.Len() == 4
	})

	if _, err := os.Stat(filepath.Join(outDir, "ping_request_gen.go")); err != nil {
		t.Errorf("missing recompiled artifact: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("watch did not stop after cancel")
	}
}

func TestBootstrap_WatchStatusServer(t *testing.T) {
	cfgPath, _ := writeProject(t, "watch:\n  debounce: 20ms\n  listen: \"127.0.0.1:0\"\n")

	a, err := bootstrap.NewFromFile(cfgPath)
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx) }()

	waitFor(t, 3*time.Second, func() bool { return a.StatusAddr() != "" })

	resp, err := http.Get("http://" + a.StatusAddr() + "/v1/status")
	if err != nil {
		t.Fatalf("status request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "success" {
		t.Errorf("status = %v, want success", body["status"])
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("watch did not stop after cancel")
	}
}

func TestBootstrap_WatchRequiresFiles(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "tlgen.yaml")
	if err := os.WriteFile(cfgPath, []byte("output:\n  package: tlschema\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	a, err := bootstrap.NewFromFile(cfgPath)
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer a.Close()

	if err := a.Watch(context.Background()); err == nil {
		t.Error("expected error watching with no schema files")
	}
}

func TestBootstrap_NilConfig(t *testing.T) {
	if _, err := bootstrap.New(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
