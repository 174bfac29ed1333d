package platform

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// ConfigFileEnv names the variable holding the optional TOML config path.
const ConfigFileEnv = "CONFIGDESK_CONFIG"

// FlagsConfig holds all boolean flags for the app.
type FlagsConfig struct {
	// Headless disables the HTTP server when true.
	Headless bool `toml:"headless"`
	// Monitor serves the dashboard read API.
	Monitor bool `toml:"monitor"`
}

// StoreConfig selects where the document lives.
type StoreConfig struct {
	// Backend is "kv" (JetStream bucket) or "file".
	Backend string `toml:"backend"`
	File    string `toml:"file"`
	// Seed is imported when the store is empty.
	Seed string `toml:"seed"`
}

// EditorConfig tunes the form editor.
type EditorConfig struct {
	// RemoteURL is the base URL of the document endpoint. Empty means this
	// server.
	RemoteURL      string        `toml:"remote_url"`
	Collection     string        `toml:"collection"`
	TemplatePatch  string        `toml:"template_patch"`
	SensitiveNames []string      `toml:"sensitive_names"`
	Coercion       string        `toml:"coercion"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	SessionIdle    time.Duration `toml:"session_idle"`
}

// LogConfig configures slog.
type LogConfig struct {
	Level     string `toml:"level"`
	AddSource bool   `toml:"add_source"`
}

// AppConfig contains the configuration for the app.
type AppConfig struct {
	Flags      *FlagsConfig          `toml:"flags"`
	NatsCfg    *EmbeddedServerConfig `toml:"nats"`
	HTTPSrvCfg *HTTPServerConfig     `toml:"http"`
	StoreCfg   *StoreConfig          `toml:"store"`
	EditorCfg  *EditorConfig         `toml:"editor"`
	LogCfg     *LogConfig            `toml:"log"`
}

// LoadAppConfig builds the configuration from defaults, the TOML file named
// by CONFIGDESK_CONFIG and environment variables, in that order. A .env file
// in the working directory is loaded first.
func LoadAppConfig() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{
		Flags:      defaultFlagsCfg(),
		NatsCfg:    defaultNatsCfg(),
		HTTPSrvCfg: defaultHTTPServerCfg(),
		StoreCfg:   defaultStoreCfg(),
		EditorCfg:  defaultEditorCfg(),
		LogCfg:     defaultLogCfg(),
	}
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, cfg.validate()
}

func (c *AppConfig) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		slog.Warn("unknown config key", "file", path, "key", key.String())
	}
	return nil
}

// applyEnv overlays CONFIGDESK_* variables.
func (c *AppConfig) applyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	boolean := func(name string, dst *bool) {
		if v := getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				keep(fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = b
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v := getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				keep(fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = d
		}
	}

	boolean("CONFIGDESK_HEADLESS", &c.Flags.Headless)
	boolean("CONFIGDESK_MONITOR", &c.Flags.Monitor)
	if v := getenv("CONFIGDESK_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			keep(fmt.Errorf("CONFIGDESK_PORT: %w", err))
		} else {
			c.HTTPSrvCfg.Port = port
		}
	}
	boolean("CONFIGDESK_TLS", &c.HTTPSrvCfg.EnableTLS)
	str("CONFIGDESK_SESSION_KEY", &c.HTTPSrvCfg.SessionKey)
	str("CONFIGDESK_NATS_STORE_DIR", &c.NatsCfg.StoreDir)
	boolean("CONFIGDESK_NATS_IN_PROCESS", &c.NatsCfg.InProcess)
	str("CONFIGDESK_STORE", &c.StoreCfg.Backend)
	str("CONFIGDESK_STORE_FILE", &c.StoreCfg.File)
	str("CONFIGDESK_SEED", &c.StoreCfg.Seed)
	str("CONFIGDESK_REMOTE_URL", &c.EditorCfg.RemoteURL)
	str("CONFIGDESK_COLLECTION", &c.EditorCfg.Collection)
	str("CONFIGDESK_TEMPLATE_PATCH", &c.EditorCfg.TemplatePatch)
	str("CONFIGDESK_COERCION", &c.EditorCfg.Coercion)
	duration("CONFIGDESK_REQUEST_TIMEOUT", &c.EditorCfg.RequestTimeout)
	if v := getenv("CONFIGDESK_SENSITIVE_NAMES"); v != "" {
		c.EditorCfg.SensitiveNames = strings.Split(v, ",")
	}
	str("CONFIGDESK_LOG_LEVEL", &c.LogCfg.Level)
	return firstErr
}

func (c *AppConfig) validate() error {
	switch c.StoreCfg.Backend {
	case "kv":
		if !c.NatsCfg.JetStream {
			return fmt.Errorf("store backend kv needs JetStream")
		}
	case "file":
		if c.StoreCfg.File == "" {
			return fmt.Errorf("store backend file needs a file path")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreCfg.Backend)
	}
	if c.HTTPSrvCfg.Port <= 0 || c.HTTPSrvCfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.HTTPSrvCfg.Port)
	}
	return nil
}

// RemoteURL is the base URL editor sessions load from and save to.
func (c *AppConfig) RemoteURL() string {
	if c.EditorCfg.RemoteURL != "" {
		return c.EditorCfg.RemoteURL
	}
	scheme := "http"
	if c.HTTPSrvCfg.EnableTLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://127.0.0.1:%d", scheme, c.HTTPSrvCfg.Port)
}

// defaultFlagsCfg returns the default FlagsConfig.
func defaultFlagsCfg() *FlagsConfig {
	return &FlagsConfig{
		Headless: false,
		Monitor:  true,
	}
}

// defaultHTTPServerCfg returns sane defaults for the HTTP server.
func defaultHTTPServerCfg() *HTTPServerConfig {
	return &HTTPServerConfig{
		Port:         8080,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE streams stay open
		IdleTimeout:  60 * time.Second,
		EnableTLS:    false,
		CertFile:     "./local_certs/localhost+2.pem",
		KeyFile:      "./local_certs/localhost+2-key.pem",
		SessionKey:   "",
	}
}

// defaultNatsCfg returns the default EmbeddedServerConfig.
func defaultNatsCfg() *EmbeddedServerConfig {
	return &EmbeddedServerConfig{
		InProcess:       true,
		EnableLogging:   true,
		JetStream:       true,
		JetStreamDomain: "",
		StoreDir:        "./store/js",
	}
}

func defaultStoreCfg() *StoreConfig {
	return &StoreConfig{
		Backend: "kv",
		File:    "./config.json",
	}
}

func defaultEditorCfg() *EditorConfig {
	return &EditorConfig{
		Collection:     "coins",
		Coercion:       "content",
		RequestTimeout: 10 * time.Second,
		SessionIdle:    12 * time.Hour,
	}
}

func defaultLogCfg() *LogConfig {
	return &LogConfig{Level: "info", AddSource: true}
}
