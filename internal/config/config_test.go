package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/loykin/welltrack/internal/auth"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "welltrack.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.Tracker.Wells) != 10 {
		t.Fatalf("expected 10 default wells, got %d", len(cfg.Tracker.Wells))
	}
	wfs := cfg.Workflows()
	hbf, ok := wfs[WorkflowHBF]
	if !ok {
		t.Fatalf("missing HBF workflow")
	}
	if hbf.Anchor() != "Rig Release" || hbf.Terminal() != "On stream" || len(hbf.Stages) != 12 {
		t.Fatalf("unexpected HBF workflow: %+v", hbf)
	}
	if _, ok := wfs[WorkflowHAF]; !ok {
		t.Fatalf("missing HAF workflow")
	}
	p := cfg.Policy()
	if p.TargetWindowDays != 120 || p.WarningAfterDays != 60 || p.BreachAfterDays != 120 || !p.FloorDuration {
		t.Fatalf("unexpected policy: %+v", p)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Listen != ":8080" || cfg.Store.DSN != "sqlite://welltrack.db" {
		t.Fatalf("unexpected defaults: %+v %+v", cfg.Server, cfg.Store)
	}
	if cfg.Confirm.TTL != 5*time.Minute {
		t.Fatalf("expected 5m confirm ttl, got %s", cfg.Confirm.TTL)
	}
	if len(cfg.Auth.Users) != 6 {
		t.Fatalf("expected 6 default users, got %d", len(cfg.Auth.Users))
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[server]
listen = "127.0.0.1:9090"

[store]
dsn = "postgres://u:p@localhost/welltrack"

[confirm]
ttl = "30s"

[auth]
token_ttl = "1h"

[[auth.users]]
name = "Ali"
role = "entry"

[tracker]
wells = ["W-1", "W-2"]
target_window_days = 90
warning_after_days = 30
breach_after_days = 90
default_workflow = "Short"

[[tracker.workflows]]
name = "Short"
stages = ["Rig Release", "Frac Execution", "On stream"]

[[tracker.workflows.kpi]]
stage = "Frac Execution"
days = 14
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Listen != "127.0.0.1:9090" {
		t.Errorf("listen = %q", cfg.Server.Listen)
	}
	if cfg.Server.BasePath != "/api" {
		t.Errorf("base path should keep its default, got %q", cfg.Server.BasePath)
	}
	if cfg.Confirm.TTL != 30*time.Second || cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("durations not decoded: %s %s", cfg.Confirm.TTL, cfg.Auth.TokenTTL)
	}
	if len(cfg.Auth.Users) != 1 || cfg.Auth.Users[0].Name != "Ali" || cfg.Auth.Users[0].Role != auth.RoleEntry {
		t.Errorf("users = %+v", cfg.Auth.Users)
	}
	if strings.Join(cfg.Tracker.Wells, ",") != "W-1,W-2" {
		t.Errorf("wells should replace defaults, got %v", cfg.Tracker.Wells)
	}
	wfs := cfg.Workflows()
	if len(wfs) != 1 {
		t.Fatalf("workflows should replace defaults, got %d", len(wfs))
	}
	if days, ok := wfs["Short"].Target("Frac Execution"); !ok || days != 14 {
		t.Errorf("frac KPI = %d %v", days, ok)
	}
	if cfg.Policy().TargetWindowDays != 90 {
		t.Errorf("target window = %d", cfg.Policy().TargetWindowDays)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
[store]
dsn = "sqlite://from-file.db"
`)
	t.Setenv("WELLTRACK_STORE_DSN", "sqlite://from-env.db")
	t.Setenv("WELLTRACK_SERVER_BASE_PATH", "/v1")
	t.Setenv("WELLTRACK_TRACKER_TARGET_WINDOW_DAYS", "150")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.DSN != "sqlite://from-env.db" {
		t.Errorf("env should override file, got %q", cfg.Store.DSN)
	}
	if cfg.Server.BasePath != "/v1" {
		t.Errorf("env should override default, got %q", cfg.Server.BasePath)
	}
	if cfg.Tracker.TargetWindowDays != 150 {
		t.Errorf("target window = %d", cfg.Tracker.TargetWindowDays)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "secrets.env"), []byte(`
# secrets
WELLTRACK_AUTH_JWT_SECRET=s3cret
WELLTRACK_HISTORY_DSN=sqlite://history.db
UNRELATED=1
`), 0o600); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "welltrack.toml")
	if err := os.WriteFile(path, []byte(`env_files = ["secrets.env"]`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WELLTRACK_HISTORY_DSN", "sqlite://env-wins.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.History.DSN != "sqlite://env-wins.db" {
		t.Errorf("process env should win over env file, got %q", cfg.History.DSN)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, `[server`)); err == nil {
		t.Fatal("expected error for malformed TOML")
	}
	if _, err := Load(writeConfig(t, `env_files = ["nope.env"]`)); err == nil {
		t.Fatal("expected error for missing env file")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty dsn", func(c *Config) { c.Store.DSN = " " }, "store.dsn"},
		{"half tls", func(c *Config) { c.Server.TLSCertFile = "cert.pem" }, "tls_key_file"},
		{"no wells", func(c *Config) { c.Tracker.Wells = nil }, "at least one well"},
		{"duplicate well", func(c *Config) { c.Tracker.Wells = []string{"A", "A"} }, "twice"},
		{"bad policy", func(c *Config) { c.Tracker.WarningAfterDays = 200 }, "policy"},
		{"unknown default workflow", func(c *Config) { c.Tracker.DefaultWorkflow = "XYZ" }, "not defined"},
		{"duplicate workflow", func(c *Config) {
			c.Tracker.Workflows = append(c.Tracker.Workflows, c.Tracker.Workflows[0])
		}, "defined twice"},
		{"kpi unknown stage", func(c *Config) {
			c.Tracker.Workflows[0].KPI = []KPITarget{{Stage: "Nope", Days: 3}}
		}, "Nope"},
		{"kpi zero days", func(c *Config) {
			c.Tracker.Workflows[0].KPI = []KPITarget{{Stage: "Frac Execution", Days: 0}}
		}, "positive"},
		{"unknown role", func(c *Config) {
			c.Auth.Users = []auth.User{{Name: "x", Role: "admin"}}
		}, "auth.users"},
		{"bad log level", func(c *Config) { c.Log.Slog.Level = "loud" }, "log"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "welltrack.example.toml"))
	if err != nil {
		t.Fatalf("example config: %v", err)
	}
	if len(cfg.Auth.Users) != 3 || cfg.Auth.TokenTTL != 12*time.Hour {
		t.Fatalf("unexpected auth section: %+v", cfg.Auth)
	}
	if len(cfg.Tracker.Workflows) != 2 || len(cfg.Tracker.Wells) != 10 {
		t.Fatalf("built-in workflows and wells should remain: %d %d", len(cfg.Tracker.Workflows), len(cfg.Tracker.Wells))
	}
	if !cfg.Metrics.Enabled || cfg.Confirm.TTL != 5*time.Minute {
		t.Fatalf("unexpected metrics/confirm: %+v %+v", cfg.Metrics, cfg.Confirm)
	}
}
