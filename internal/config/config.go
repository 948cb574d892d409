package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/welltrack/internal/auth"
	"github.com/loykin/welltrack/internal/confirm"
	"github.com/loykin/welltrack/internal/kpi"
	"github.com/loykin/welltrack/internal/logger"
)

// EnvPrefix prefixes environment overrides, e.g. WELLTRACK_STORE_DSN.
const EnvPrefix = "WELLTRACK"

// Workflow names shipped in the default configuration.
const (
	WorkflowHBF = "HBF"
	WorkflowHAF = "HAF"
)

// Config represents the top-level TOML structure.
type Config struct {
	// EnvFiles lists .env files holding WELLTRACK_* overrides. Real
	// environment variables win over file entries.
	EnvFiles []string        `toml:"env_files" mapstructure:"env_files"`
	Server   ServerConfig    `toml:"server" mapstructure:"server"`
	Store    StoreConfig     `toml:"store" mapstructure:"store"`
	History  HistoryConfig   `toml:"history" mapstructure:"history"`
	Log      logger.Config   `toml:"log" mapstructure:"log"`
	Metrics  MetricsConfig   `toml:"metrics" mapstructure:"metrics"`
	Auth     auth.AuthConfig `toml:"auth" mapstructure:"auth"`
	Confirm  ConfirmConfig   `toml:"confirm" mapstructure:"confirm"`
	Tracker  TrackerConfig   `toml:"tracker" mapstructure:"tracker"`
}

type ServerConfig struct {
	Listen        string `toml:"listen" mapstructure:"listen"`
	BasePath      string `toml:"base_path" mapstructure:"base_path"`
	TLSCertFile   string `toml:"tls_cert_file" mapstructure:"tls_cert_file"`
	TLSKeyFile    string `toml:"tls_key_file" mapstructure:"tls_key_file"`
	TLSMinVersion string `toml:"tls_min_version" mapstructure:"tls_min_version"` // 1.2 (default) or 1.3
}

type StoreConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

// HistoryConfig enables the audit trail when DSN is set. Several sinks may
// be given separated by commas.
type HistoryConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Listen  string `toml:"listen" mapstructure:"listen"` // empty serves on the API listener
	Path    string `toml:"path" mapstructure:"path"`
}

// ConfirmConfig keeps pending deletions in memory unless RedisAddr is set.
type ConfirmConfig struct {
	TTL           time.Duration `toml:"ttl" mapstructure:"ttl"`
	RedisAddr     string        `toml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string        `toml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int           `toml:"redis_db" mapstructure:"redis_db"`
}

type TrackerConfig struct {
	Wells            []string         `toml:"wells" mapstructure:"wells"`
	TargetWindowDays int              `toml:"target_window_days" mapstructure:"target_window_days"`
	WarningAfterDays int              `toml:"warning_after_days" mapstructure:"warning_after_days"`
	BreachAfterDays  int              `toml:"breach_after_days" mapstructure:"breach_after_days"`
	FloorDuration    bool             `toml:"floor_duration" mapstructure:"floor_duration"`
	DefaultWorkflow  string           `toml:"default_workflow" mapstructure:"default_workflow"`
	Workflows        []WorkflowConfig `toml:"workflows" mapstructure:"workflows"`
}

type WorkflowConfig struct {
	Name   string      `toml:"name" mapstructure:"name"`
	Stages []string    `toml:"stages" mapstructure:"stages"`
	KPI    []KPITarget `toml:"kpi" mapstructure:"kpi"`
}

// KPITarget is one per-stage target. Stage names are case sensitive, which
// is why they are values here instead of table keys.
type KPITarget struct {
	Stage string `toml:"stage" mapstructure:"stage"`
	Days  int    `toml:"days" mapstructure:"days"`
}

// HBFStages is the hook-up before frac sequence.
var HBFStages = []string{
	"Rig Release",
	"WLCTF_ UWO ➔ GGO",
	"Standalone Activity",
	"On Plot Hookup",
	"Pre-commissioning",
	"Unhook",
	"WLCTF_GGO ➔ UWIF",
	"Waiting IFS Resources",
	"Frac Execution",
	"Re-Hook & commissioning",
	"Plug Removal",
	"On stream",
}

// HAFStages is the hook-up after frac sequence: hook-up follows plug
// removal, so there is no unhook and re-hook.
var HAFStages = []string{
	"Rig Release",
	"WLCTF_ UWO ➔ GGO",
	"Standalone Activity",
	"WLCTF_GGO ➔ UWIF",
	"Waiting IFS Resources",
	"Frac Execution",
	"Plug Removal",
	"On Plot Hookup",
	"Pre-commissioning",
	"Commissioning",
	"On stream",
}

// DefaultWells is the fleet tracked when no configuration overrides it.
var DefaultWells = []string{
	"SNN-11", "SN-113", "SN-114", "SNN-10", "SR-603",
	"SN-115", "BRNW-106", "SNNORTH11_DEV", "SRM-V36A", "SRM-VE127",
}

// Default returns a complete, valid configuration.
func Default() Config {
	return Config{
		Server:  ServerConfig{Listen: ":8080", BasePath: "/api"},
		Store:   StoreConfig{DSN: "sqlite://welltrack.db"},
		Log:     logger.DefaultConfig(),
		Metrics: MetricsConfig{Path: "/metrics"},
		Auth: auth.AuthConfig{
			TokenTTL: 12 * time.Hour,
			Users: []auth.User{
				{Name: "user1", Role: auth.RoleEntry},
				{Name: "user2", Role: auth.RoleEntry},
				{Name: "user3", Role: auth.RoleEntry},
				{Name: "viewer1", Role: auth.RoleView},
				{Name: "viewer2", Role: auth.RoleView},
				{Name: "viewer3", Role: auth.RoleView},
			},
		},
		Confirm: ConfirmConfig{TTL: confirm.DefaultTTL},
		Tracker: TrackerConfig{
			Wells:            append([]string(nil), DefaultWells...),
			TargetWindowDays: kpi.DefaultTargetWindowDays,
			WarningAfterDays: kpi.DefaultWarningAfterDays,
			BreachAfterDays:  kpi.DefaultBreachAfterDays,
			FloorDuration:    true,
			DefaultWorkflow:  WorkflowHBF,
			Workflows: []WorkflowConfig{
				{Name: WorkflowHBF, Stages: append([]string(nil), HBFStages...)},
				{Name: WorkflowHAF, Stages: append([]string(nil), HAFStages...)},
			},
		},
	}
}

// scalarDefaults registers every scalar key with viper so that environment
// overrides apply even when the file omits the key.
func scalarDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.base_path", d.Server.BasePath)
	v.SetDefault("server.tls_cert_file", d.Server.TLSCertFile)
	v.SetDefault("server.tls_key_file", d.Server.TLSKeyFile)
	v.SetDefault("server.tls_min_version", d.Server.TLSMinVersion)
	v.SetDefault("store.dsn", d.Store.DSN)
	v.SetDefault("history.dsn", d.History.DSN)
	v.SetDefault("log.slog.level", d.Log.Slog.Level)
	v.SetDefault("log.slog.format", d.Log.Slog.Format)
	v.SetDefault("log.slog.color", d.Log.Slog.Color)
	v.SetDefault("log.slog.timestamps", d.Log.Slog.TimeStamps)
	v.SetDefault("log.slog.add_source", d.Log.Slog.AddSource)
	v.SetDefault("log.file.dir", d.Log.File.Dir)
	v.SetDefault("log.file.path", d.Log.File.Path)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.listen", d.Metrics.Listen)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)
	v.SetDefault("confirm.ttl", d.Confirm.TTL)
	v.SetDefault("confirm.redis_addr", d.Confirm.RedisAddr)
	v.SetDefault("confirm.redis_password", d.Confirm.RedisPassword)
	v.SetDefault("confirm.redis_db", d.Confirm.RedisDB)
	v.SetDefault("tracker.target_window_days", d.Tracker.TargetWindowDays)
	v.SetDefault("tracker.warning_after_days", d.Tracker.WarningAfterDays)
	v.SetDefault("tracker.breach_after_days", d.Tracker.BreachAfterDays)
	v.SetDefault("tracker.floor_duration", d.Tracker.FloorDuration)
	v.SetDefault("tracker.default_workflow", d.Tracker.DefaultWorkflow)
}

// Load reads the TOML file at path over Default(), applies environment
// overrides and validates the result. An empty path uses defaults and the
// environment only.
func Load(path string) (*Config, error) {
	def := Default()
	v := viper.New()
	scalarDefaults(v, def)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := applyEnvFiles(v, v.GetStringSlice("env_files"), filepath.Dir(path)); err != nil {
			return nil, err
		}
	}

	// Lists replace the defaults wholesale; decoding into a populated slice
	// would merge element by element.
	cfg := def
	cfg.Tracker.Wells, cfg.Tracker.Workflows, cfg.Auth.Users = nil, nil, nil
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Tracker.Wells) == 0 {
		cfg.Tracker.Wells = def.Tracker.Wells
	}
	if len(cfg.Tracker.Workflows) == 0 {
		cfg.Tracker.Workflows = def.Tracker.Workflows
	}
	if len(cfg.Auth.Users) == 0 {
		cfg.Auth.Users = def.Auth.Users
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvFiles sets WELLTRACK_* entries from .env files for keys that the
// process environment does not already define. Relative paths resolve
// against the config file directory.
func applyEnvFiles(v *viper.Viper, files []string, base string) error {
	if len(files) == 0 {
		return nil
	}
	byEnv := make(map[string]string)
	for _, k := range v.AllKeys() {
		byEnv[EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(k, ".", "_"))] = k
	}
	for _, f := range files {
		if !filepath.IsAbs(f) {
			f = filepath.Join(base, f)
		}
		pairs, err := loadEnvFile(f)
		if err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		for name, val := range pairs {
			key, ok := byEnv[name]
			if !ok {
				continue
			}
			if _, set := os.LookupEnv(name); set {
				continue
			}
			v.Set(key, val)
		}
	}
	return nil
}

// loadEnvFile parses a simple .env file with KEY=VALUE lines (no export, no quotes). Lines starting with # are ignored.
func loadEnvFile(path string) (map[string]string, error) {
	clean := filepath.Clean(path)
	b, err := os.ReadFile(clean)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string)
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '='); i >= 0 {
			k := strings.TrimSpace(line[:i])
			v := strings.TrimSpace(line[i+1:])
			m[k] = v
		}
	}
	return m, nil
}

// Policy returns the metrics engine thresholds.
func (c *Config) Policy() kpi.Policy {
	return kpi.Policy{
		TargetWindowDays: c.Tracker.TargetWindowDays,
		WarningAfterDays: c.Tracker.WarningAfterDays,
		BreachAfterDays:  c.Tracker.BreachAfterDays,
		FloorDuration:    c.Tracker.FloorDuration,
	}
}

// Workflows converts the configured sequences for the metrics engine.
func (c *Config) Workflows() map[string]kpi.Workflow {
	out := make(map[string]kpi.Workflow, len(c.Tracker.Workflows))
	for _, wc := range c.Tracker.Workflows {
		wf := kpi.Workflow{Name: wc.Name, Stages: append([]string(nil), wc.Stages...)}
		if len(wc.KPI) > 0 {
			wf.KPI = make(map[string]int, len(wc.KPI))
			for _, t := range wc.KPI {
				wf.KPI[t.Stage] = t.Days
			}
		}
		out[wc.Name] = wf
	}
	return out
}

// Validate reports every inconsistency that would make the tracker
// misbehave, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Store.DSN) == "" {
		errs = append(errs, errors.New("store.dsn is required"))
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.tls_cert_file and server.tls_key_file must be set together"))
	}

	if len(c.Tracker.Wells) == 0 {
		errs = append(errs, errors.New("tracker.wells must list at least one well"))
	}
	seen := make(map[string]bool, len(c.Tracker.Wells))
	for _, w := range c.Tracker.Wells {
		switch {
		case strings.TrimSpace(w) == "":
			errs = append(errs, errors.New("tracker.wells contains an empty name"))
		case seen[w]:
			errs = append(errs, fmt.Errorf("tracker.wells lists %s twice", w))
		}
		seen[w] = true
	}

	if err := c.Policy().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tracker policy: %w", err))
	}

	names := make(map[string]bool, len(c.Tracker.Workflows))
	for _, wc := range c.Tracker.Workflows {
		if names[wc.Name] {
			errs = append(errs, fmt.Errorf("workflow %s defined twice", wc.Name))
		}
		names[wc.Name] = true
		for _, t := range wc.KPI {
			if t.Days <= 0 {
				errs = append(errs, fmt.Errorf("workflow %s: KPI for %q must be positive", wc.Name, t.Stage))
			}
		}
	}
	for _, wf := range c.Workflows() {
		if err := wf.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if !names[c.Tracker.DefaultWorkflow] {
		errs = append(errs, fmt.Errorf("tracker.default_workflow %q is not defined", c.Tracker.DefaultWorkflow))
	}

	if _, err := auth.NewDirectory(c.Auth.Users); err != nil {
		errs = append(errs, fmt.Errorf("auth.users: %w", err))
	}
	if _, err := logger.ParseLevel(c.Log.Slog.Level); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	return errors.Join(errs...)
}
