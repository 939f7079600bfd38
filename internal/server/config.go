package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"

	"github.com/lox/blef/internal/store"
)

// Config is the complete server configuration as read from HCL.
type Config struct {
	Server *ServerSettings `hcl:"server,block"`
	Store  *StoreSettings  `hcl:"store,block"`
	Agents []AgentConfig   `hcl:"agent,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address         string `hcl:"address,optional"`
	Port            int    `hcl:"port,optional"`
	LogLevel        string `hcl:"log_level,optional"`
	LogFormat       string `hcl:"log_format,optional"`
	ConflictRetries *int   `hcl:"conflict_retries,optional"`
	Seed            int64  `hcl:"seed,optional"`
	AgentWorkers    int    `hcl:"agent_workers,optional"`
	AgentTimeout    string `hcl:"agent_timeout,optional"`
}

// StoreSettings selects the persistence backend.
type StoreSettings struct {
	Driver      string `hcl:"driver,optional"`
	RedisURL    string `hcl:"redis_url,optional"`
	PostgresDSN string `hcl:"postgres_dsn,optional"`
	ArchiveDir  string `hcl:"archive_dir,optional"`
}

// AgentConfig defines an agent that admins can invite by name. Exactly one
// of Strategy (built in) or URL (external decision service) is set.
type AgentConfig struct {
	Name     string `hcl:"name,label"`
	Strategy string `hcl:"strategy,optional"`
	URL      string `hcl:"url,optional"`
	Timeout  string `hcl:"timeout,optional"`
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	retries := 3
	return &Config{
		Server: &ServerSettings{
			Address:         "localhost",
			Port:            8080,
			LogLevel:        "info",
			LogFormat:       "text",
			ConflictRetries: &retries,
			AgentWorkers:    4,
			AgentTimeout:    "10s",
		},
		Store: &StoreSettings{Driver: store.DriverMemory},
		Agents: []AgentConfig{
			{Name: "random", Strategy: "random"},
			{Name: "cautious", Strategy: "cautious"},
		},
	}
}

// LoadConfig reads filename, falling back to defaults if it does not exist,
// then applies BLEF_* environment overrides. A .env file in the working
// directory is loaded first if present.
func LoadConfig(filename string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()
	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			parsed, err := parseConfigFile(filename)
			if err != nil {
				return nil, err
			}
			cfg = parsed
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseConfigFile(filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Server == nil {
		c.Server = def.Server
	}
	if c.Server.Address == "" {
		c.Server.Address = def.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = def.Server.LogLevel
	}
	if c.Server.LogFormat == "" {
		c.Server.LogFormat = def.Server.LogFormat
	}
	if c.Server.ConflictRetries == nil {
		c.Server.ConflictRetries = def.Server.ConflictRetries
	}
	if c.Server.AgentWorkers == 0 {
		c.Server.AgentWorkers = def.Server.AgentWorkers
	}
	if c.Server.AgentTimeout == "" {
		c.Server.AgentTimeout = def.Server.AgentTimeout
	}
	if c.Store == nil {
		c.Store = def.Store
	}
	if c.Store.Driver == "" {
		c.Store.Driver = store.DriverMemory
	}
	if c.Agents == nil {
		c.Agents = def.Agents
	}
}

// applyEnv overrides settings from the environment.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	c.applyDefaults()
	if v, ok := lookup("BLEF_ADDR"); ok && v != "" {
		if err := c.SetAddr(v); err != nil {
			return fmt.Errorf("BLEF_ADDR: %w", err)
		}
	}
	if v, ok := lookup("BLEF_STORE"); ok && v != "" {
		c.Store.Driver = v
	}
	if v, ok := lookup("BLEF_REDIS_URL"); ok && v != "" {
		c.Store.RedisURL = v
	}
	if v, ok := lookup("BLEF_POSTGRES_DSN"); ok && v != "" {
		c.Store.PostgresDSN = v
	}
	if v, ok := lookup("BLEF_ARCHIVE_DIR"); ok && v != "" {
		c.Store.ArchiveDir = v
	}
	if v, ok := lookup("BLEF_SEED"); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("BLEF_SEED: %w", err)
		}
		c.Server.Seed = seed
	}
	return nil
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	c.applyDefaults()
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if *c.Server.ConflictRetries < 0 {
		return fmt.Errorf("conflict_retries must not be negative: %d", *c.Server.ConflictRetries)
	}
	if c.Server.AgentWorkers < 1 {
		return fmt.Errorf("agent_workers must be positive: %d", c.Server.AgentWorkers)
	}
	if _, err := time.ParseDuration(c.Server.AgentTimeout); err != nil {
		return fmt.Errorf("invalid agent_timeout %q: %w", c.Server.AgentTimeout, err)
	}
	switch c.Server.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q", c.Server.LogFormat)
	}

	switch c.Store.Driver {
	case store.DriverMemory:
	case store.DriverRedis:
		if c.Store.RedisURL == "" {
			return errors.New("redis store requires redis_url")
		}
	case store.DriverPostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("postgres store requires postgres_dsn")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	seen := make(map[string]bool)
	for _, a := range c.Agents {
		if seen[a.Name] {
			return fmt.Errorf("agent %q defined twice", a.Name)
		}
		seen[a.Name] = true
		if (a.Strategy == "") == (a.URL == "") {
			return fmt.Errorf("agent %q must set exactly one of strategy or url", a.Name)
		}
		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				return fmt.Errorf("agent %q: invalid timeout %q", a.Name, a.Timeout)
			}
		}
	}
	return nil
}

// SetAddr sets the listen address from host:port.
func (c *Config) SetAddr(addr string) error {
	c.applyDefaults()
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port %q", port)
	}
	c.Server.Address, c.Server.Port = host, p
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Address, strconv.Itoa(c.Server.Port))
}

// StoreOptions converts the store block for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Driver:      c.Store.Driver,
		RedisURL:    c.Store.RedisURL,
		PostgresDSN: c.Store.PostgresDSN,
		ArchiveDir:  c.Store.ArchiveDir,
	}
}

// ServerOptions converts the server block for NewServer.
func (c *Config) ServerOptions() Options {
	opts := DefaultOptions()
	opts.Addr = c.Addr()
	opts.ConflictRetries = *c.Server.ConflictRetries
	return opts
}
