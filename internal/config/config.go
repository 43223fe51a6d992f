// Package config provides configuration types, defaults, and persistence for
// the remote engine mock.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"

	"github.com/zjrosen/remote-engine-mock/internal/log"
	"github.com/zjrosen/remote-engine-mock/internal/scheduler"
	"github.com/zjrosen/remote-engine-mock/internal/stats"
	"github.com/zjrosen/remote-engine-mock/internal/tracing"
)

// AppName names config and trace directories.
const AppName = "remote-engine-mock"

// Config holds the user configuration.
type Config struct {
	// Address is the target address handles open by default.
	Address string `mapstructure:"address"`
	// Transport is a transport class override. Logged, never used.
	Transport      string          `mapstructure:"transport"`
	ConnectTimeout time.Duration   `mapstructure:"connect_timeout"`
	Scheduler      SchedulerConfig `mapstructure:"scheduler"`
	Stats          StatsConfig     `mapstructure:"stats"`
	Tracing        tracing.Config  `mapstructure:"tracing"`
}

// SchedulerConfig selects how deferred notifications are drained.
type SchedulerConfig struct {
	// Mode is "auto" or "manual".
	Mode string `mapstructure:"mode"`
}

// StatsConfig configures diagnostics sampling.
type StatsConfig struct {
	// PidHistoryTTL is how long a worker's previous CPU sample is kept.
	PidHistoryTTL time.Duration `mapstructure:"pid_history_ttl"`
	// ProcRoot is the procfs mount point.
	ProcRoot string `mapstructure:"proc_root"`
}

// DefaultTracesFilePath returns ~/.config/remote-engine-mock/traces/traces.jsonl,
// or an empty string when the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", AppName, "traces", "traces.jsonl")
}

// Defaults returns the default configuration.
func Defaults() Config {
	tr := tracing.DefaultConfig()
	tr.FilePath = DefaultTracesFilePath()
	return Config{
		ConnectTimeout: 5 * time.Second,
		Scheduler: SchedulerConfig{
			Mode: string(scheduler.ModeAuto),
		},
		Stats: StatsConfig{
			PidHistoryTTL: stats.DefaultHistoryTTL,
			ProcRoot:      stats.DefaultProcRoot,
		},
		Tracing: tr,
	}
}

// Validate checks cfg for values the commands cannot work with.
func Validate(cfg Config) error {
	if cfg.ConnectTimeout < 0 {
		return errors.Errorf("connect_timeout must not be negative, got %s", cfg.ConnectTimeout)
	}
	if err := ValidateScheduler(cfg.Scheduler); err != nil {
		return err
	}
	if cfg.Stats.PidHistoryTTL < 0 {
		return errors.Errorf("stats.pid_history_ttl must not be negative, got %s", cfg.Stats.PidHistoryTTL)
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateScheduler checks the scheduler mode.
func ValidateScheduler(s SchedulerConfig) error {
	switch scheduler.Mode(s.Mode) {
	case "", scheduler.ModeAuto, scheduler.ModeManual:
		return nil
	default:
		return errors.Errorf("scheduler.mode must be %q or %q, got %q", scheduler.ModeAuto, scheduler.ModeManual, s.Mode)
	}
}

// ValidateTracing checks the tracing section.
func ValidateTracing(tr tracing.Config) error {
	if tr.SampleRate < 0.0 || tr.SampleRate > 1.0 {
		return errors.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tr.SampleRate)
	}

	switch tr.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return errors.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tr.Exporter)
	}

	if tr.Enabled {
		if tr.Exporter == "file" && tr.FilePath == "" {
			return errors.New("tracing.file_path is required when exporter is \"file\"")
		}
		if tr.Exporter == "otlp" && tr.OTLPEndpoint == "" {
			return errors.New("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// DefaultConfigTemplate returns the default config as commented YAML.
func DefaultConfigTemplate() string {
	return `# Remote engine mock configuration

# Address handles open when none is given on the command line.
# address: ws://localhost:8080

# Transport class override. Accepted for compatibility, never used.
# transport: ""

# How long "connect" waits for the connected notification.
connect_timeout: 5s

scheduler:
  mode: auto            # auto: notifications run on a background loop
                        # manual: they run only when drained explicitly

stats:
  pid_history_ttl: 60s  # How long a worker's previous CPU sample is kept
  proc_root: /proc      # procfs mount point

# Tracing of handle operations (OpenTelemetry)
# tracing:
#   enabled: true
#   exporter: file      # none | file | stdout | otlp
#   file_path: ~/.config/remote-engine-mock/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig writes the default template to configPath, creating
// the parent directory if needed.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return errors.Wrap(err, "creating config directory")
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return errors.Wrap(err, "writing config file")
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
