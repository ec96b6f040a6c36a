package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IbnNafis007/tlgen/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
schema:
  files:
    - schema/api.tl
    - schema/service.tl

output:
  dir: "gen/tl"
  package: "mtproto"
  formats: [go, descriptor]
  descriptor_file: "schema.json"

generate:
  workers: 2
  strict: true

watch:
  enabled: true
  debounce: 500ms
  listen: "127.0.0.1:9180"

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
`

	cfg := writeAndLoad(t, content)

	if len(cfg.Schema.Files) != 2 {
		t.Fatalf("len(Schema.Files) = %d, want 2", len(cfg.Schema.Files))
	}
	if cfg.Schema.Files[0] != "schema/api.tl" {
		t.Errorf("Schema.Files[0] = %s, want schema/api.tl", cfg.Schema.Files[0])
	}
	if cfg.Output.Dir != "gen/tl" {
		t.Errorf("Output.Dir = %s, want gen/tl", cfg.Output.Dir)
	}
	if cfg.Output.Package != "mtproto" {
		t.Errorf("Output.Package = %s, want mtproto", cfg.Output.Package)
	}
	if cfg.Output.DescriptorFile != "schema.json" {
		t.Errorf("Output.DescriptorFile = %s, want schema.json", cfg.Output.DescriptorFile)
	}
	if cfg.Generate.Workers != 2 {
		t.Errorf("Generate.Workers = %d, want 2", cfg.Generate.Workers)
	}
	if !cfg.Generate.Strict {
		t.Error("Generate.Strict = false, want true")
	}
	if !cfg.Watch.Enabled {
		t.Error("Watch.Enabled = false, want true")
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Watch.Debounce = %v, want 500ms", cfg.Watch.Debounce)
	}
	if cfg.Watch.Listen != "127.0.0.1:9180" {
		t.Errorf("Watch.Listen = %s, want 127.0.0.1:9180", cfg.Watch.Listen)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestLoad_Defaults(t *testing.T) {
	content := `
schema:
  files:
    - api.tl
`

	cfg := writeAndLoad(t, content)

	if cfg.Output.Dir != "tl" {
		t.Errorf("default Output.Dir = %s, want tl", cfg.Output.Dir)
	}
	if cfg.Output.Package != "tl" {
		t.Errorf("default Output.Package = %s, want tl", cfg.Output.Package)
	}
	if cfg.Output.WireImport != "github.com/IbnNafis007/tlgen/pkg/wire" {
		t.Errorf("default Output.WireImport = %s", cfg.Output.WireImport)
	}
	if len(cfg.Output.Formats) != 1 || cfg.Output.Formats[0] != config.FormatGo {
		t.Errorf("default Output.Formats = %v, want [go]", cfg.Output.Formats)
	}
	if cfg.Output.DescriptorFile != "descriptor.json" {
		t.Errorf("default Output.DescriptorFile = %s, want descriptor.json", cfg.Output.DescriptorFile)
	}
	if cfg.Generate.Workers < 1 {
		t.Errorf("default Generate.Workers = %d, want >= 1", cfg.Generate.Workers)
	}
	if cfg.Generate.Strict {
		t.Error("default Generate.Strict = true, want false")
	}
	if cfg.Watch.Debounce != 300*time.Millisecond {
		t.Errorf("default Watch.Debounce = %v, want 300ms", cfg.Watch.Debounce)
	}
	if cfg.Watch.Listen != "" {
		t.Errorf("default Watch.Listen = %s, want empty", cfg.Watch.Listen)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %s, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("default Logging.Format = %s, want console", cfg.Logging.Format)
	}
	if cfg.Metrics.Enabled {
		t.Error("default Metrics.Enabled = true, want false")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	os.Setenv("TEST_SCHEMA_DIR", "/opt/schemas")
	defer os.Unsetenv("TEST_SCHEMA_DIR")

	content := `
schema:
  files:
    - "${TEST_SCHEMA_DIR}/api.tl"
`

	cfg := writeAndLoad(t, content)

	if cfg.Schema.Files[0] != "/opt/schemas/api.tl" {
		t.Errorf("Schema.Files[0] = %s, want /opt/schemas/api.tl", cfg.Schema.Files[0])
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Setenv("TLGEN_OUTPUT_PACKAGE", "envpkg")
	os.Setenv("TLGEN_GENERATE_WORKERS", "7")
	os.Setenv("TLGEN_SCHEMA_FILES", "one.tl, two.tl")
	defer func() {
		os.Unsetenv("TLGEN_OUTPUT_PACKAGE")
		os.Unsetenv("TLGEN_GENERATE_WORKERS")
		os.Unsetenv("TLGEN_SCHEMA_FILES")
	}()

	content := `
schema:
  files:
    - file.tl

output:
  package: "filepkg"
`

	cfg := writeAndLoad(t, content)

	if cfg.Output.Package != "envpkg" {
		t.Errorf("Output.Package = %s, want envpkg (env wins)", cfg.Output.Package)
	}
	if cfg.Generate.Workers != 7 {
		t.Errorf("Generate.Workers = %d, want 7", cfg.Generate.Workers)
	}
	if len(cfg.Schema.Files) != 2 || cfg.Schema.Files[1] != "two.tl" {
		t.Errorf("Schema.Files = %v, want [one.tl two.tl]", cfg.Schema.Files)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := writeAndLoadErr(t, "schema: [unclosed")
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_InvalidPackageName(t *testing.T) {
	content := `
output:
  package: "My-Package"
`

	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for invalid package name")
	}
}

func TestLoad_InvalidFormat(t *testing.T) {
	content := `
output:
  formats: [go, xml]
`

	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for unknown output format")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	content := `
logging:
  level: "verbose"
`

	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for invalid logging.level")
	}
}

func TestLoad_NegativeWorkers(t *testing.T) {
	content := `
generate:
  workers: -3
`

	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for negative generate.workers")
	}
}

func TestLoad_NoSchemaFilesAllowed(t *testing.T) {
	// Schema files may come from CLI arguments, so an empty list loads fine.
	cfg := writeAndLoad(t, "output:\n  dir: out\n")

	if len(cfg.Schema.Files) != 0 {
		t.Errorf("Schema.Files = %v, want empty", cfg.Schema.Files)
	}
}

func TestWantsFormat(t *testing.T) {
	cfg := writeAndLoad(t, `
output:
  formats: [go, descriptor]
`)

	if !cfg.WantsFormat(config.FormatGo) {
		t.Error("WantsFormat(go) = false, want true")
	}
	if !cfg.WantsFormat(config.FormatDescriptor) {
		t.Error("WantsFormat(descriptor) = false, want true")
	}
	if cfg.WantsFormat("openapi") {
		t.Error("WantsFormat(openapi) = true, want false")
	}
}

func TestValidate_AfterFlagMerge(t *testing.T) {
	cfg := writeAndLoad(t, "schema:\n  files: [api.tl]\n")

	cfg.Output.Package = "9bad"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for package name starting with digit")
	}

	cfg.Output.Package = "ok_pkg"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate error: %v", err)
	}
}

func TestLoadWithFallback_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tlgen.yaml")
	if err := os.WriteFile(path, []byte("output:\n  package: frompath\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Output.Package != "frompath" {
		t.Errorf("Output.Package = %s, want frompath", cfg.Output.Package)
	}
}

func TestLoadWithFallback_NoFile(t *testing.T) {
	cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Output.Package != "tl" {
		t.Errorf("Output.Package = %s, want default tl", cfg.Output.Package)
	}
}

// Helpers

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndLoadErr(t, content)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeAndLoadErr(t *testing.T, content string) (*config.Config, error) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return config.Load(path)
}
