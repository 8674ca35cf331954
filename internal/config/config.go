package config

import (
	"fmt"
	"os"

	"github.com/tinywasm/mapper"
	"github.com/tinywasm/mapper/sqladapter"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration of mapperctl.
type Config struct {
	Driver         string                       `yaml:"driver"`
	DSN            string                       `yaml:"dsn"`
	StatementCache int                          `yaml:"statement_cache"`
	Log            Log                          `yaml:"log"`
	Tables         map[string]mapper.Definition `yaml:"tables"`
}

// Log selects the process logger and where statements go.
type Log struct {
	Level string `yaml:"level"`
	// SeqURL enables the Seq sink when set, e.g. http://localhost:5341.
	SeqURL string `yaml:"seq_url"`
	// QuerySink is one of memory, slog, zap or none.
	QuerySink string `yaml:"query_sink"`
}

// Default returns a configuration for an in-memory sqlite database.
func Default() Config {
	return Config{
		Driver:         "sqlite",
		DSN:            ":memory:",
		StatementCache: sqladapter.DefaultStatementCache,
		Log: Log{
			Level:     "info",
			QuerySink: "slog",
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the driver and sink names and registers every table in a
// scratch registry, so definition errors surface at load time.
func (c Config) Validate() error {
	if _, err := sqladapter.DialectFor(c.Driver); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("dsn is required")
	}
	switch c.Log.QuerySink {
	case "", "memory", "slog", "zap", "none":
	default:
		return fmt.Errorf("unknown query_sink %q", c.Log.QuerySink)
	}
	_, err := c.Registry(nil)
	return err
}

// Registry registers every configured table against adapter and checks
// that relation targets exist.
func (c Config) Registry(adapter mapper.Adapter, opts ...mapper.Option) (*mapper.Registry, error) {
	reg := mapper.NewRegistry(adapter, opts...)
	for name, def := range c.Tables {
		if def.Table == "" {
			def.Table = name
		}
		if err := reg.Register(name, def); err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
	}
	if err := reg.Check(); err != nil {
		return nil, err
	}
	return reg, nil
}
