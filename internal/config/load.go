package config

import (
	"github.com/go-faster/errors"
	"github.com/spf13/viper"
)

// SetDefaults registers every default on v so keys missing from the file
// still unmarshal to their default values.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("address", d.Address)
	v.SetDefault("transport", d.Transport)
	v.SetDefault("connect_timeout", d.ConnectTimeout)
	v.SetDefault("scheduler.mode", d.Scheduler.Mode)
	v.SetDefault("stats.pid_history_ttl", d.Stats.PidHistoryTTL)
	v.SetDefault("stats.proc_root", d.Stats.ProcRoot)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

// Decode unmarshals and validates the configuration held by v.
func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding config")
	}
	if err := Validate(cfg); err != nil {
		return Config{}, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// Load reads the YAML file at path on top of the defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrapf(err, "reading %s", path)
	}
	return Decode(v)
}
