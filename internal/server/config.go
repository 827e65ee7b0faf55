package server

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/pokerdealer/internal/auth"
	"github.com/lox/pokerdealer/internal/store"
)

// Config represents the complete dealer service configuration
type Config struct {
	Server  ServerSettings
	Dealer  DealerSettings
	Storage StorageSettings
	Auth    AuthSettings
	HandLog HandLogSettings
}

// ServerSettings contains listener and logging configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// DealerSettings are written into the store on first start.
type DealerSettings struct {
	Owner           string `hcl:"owner,optional"`
	ContractAddress string `hcl:"contract_address,optional"`
}

// StorageSettings selects the persistence backend
type StorageSettings struct {
	Driver string `hcl:"driver,optional"`
	Path   string `hcl:"path,optional"`
}

// AuthSettings configures how viewer permits and operator calls are checked.
//
// Mode is one of "noop", "static" or "http". Tokens maps permit signatures to
// public keys for the static mode. OperatorSecret must accompany every
// execute call. Insecure allows the noop mode and an empty operator secret,
// for local development only.
type AuthSettings struct {
	Mode           string            `hcl:"mode,optional"`
	URL            string            `hcl:"url,optional"`
	AdminSecret    string            `hcl:"admin_secret,optional"`
	OperatorSecret string            `hcl:"operator_secret,optional"`
	Tokens         map[string]string `hcl:"tokens,optional"`
	Insecure       bool              `hcl:"insecure,optional"`
}

// HandLogSettings configures the on-disk archive of completed hands
type HandLogSettings struct {
	Dir string `hcl:"dir,optional"`
}

// fileConfig mirrors Config with every block optional.
type fileConfig struct {
	Server  *ServerSettings  `hcl:"server,block"`
	Dealer  *DealerSettings  `hcl:"dealer,block"`
	Storage *StorageSettings `hcl:"storage,block"`
	Auth    *AuthSettings    `hcl:"auth,block"`
	HandLog *HandLogSettings `hcl:"hand_log,block"`
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Dealer: DealerSettings{
			Owner:           "operator",
			ContractAddress: "pokerdealer",
		},
		Storage: StorageSettings{
			Driver: "sqlite",
			Path:   "pokerdealer.db",
		},
		Auth: AuthSettings{
			Mode: "noop",
		},
		HandLog: HandLogSettings{
			Dir: "hands",
		},
	}
}

// LoadConfig loads configuration from an HCL file. A missing file yields the
// defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	return decodeConfig(file.Body)
}

// ParseConfig parses HCL source held in memory.
func ParseConfig(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return decodeConfig(file.Body)
}

func decodeConfig(body hcl.Body) (*Config, error) {
	var file fileConfig
	if diags := gohcl.DecodeBody(body, nil, &file); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config := DefaultConfig()
	if file.Server != nil {
		if file.Server.Address != "" {
			config.Server.Address = file.Server.Address
		}
		if file.Server.Port != 0 {
			config.Server.Port = file.Server.Port
		}
		if file.Server.LogLevel != "" {
			config.Server.LogLevel = file.Server.LogLevel
		}
	}
	if file.Dealer != nil {
		if file.Dealer.Owner != "" {
			config.Dealer.Owner = file.Dealer.Owner
		}
		if file.Dealer.ContractAddress != "" {
			config.Dealer.ContractAddress = file.Dealer.ContractAddress
		}
	}
	if file.Storage != nil {
		if file.Storage.Driver != "" {
			config.Storage.Driver = file.Storage.Driver
		}
		// an explicit memory driver needs no path
		config.Storage.Path = file.Storage.Path
		if config.Storage.Path == "" && config.Storage.Driver == "sqlite" {
			config.Storage.Path = "pokerdealer.db"
		}
	}
	if file.Auth != nil {
		config.Auth = *file.Auth
		if config.Auth.Mode == "" {
			config.Auth.Mode = "noop"
		}
	}
	if file.HandLog != nil {
		config.HandLog.Dir = file.HandLog.Dir
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	if strings.TrimSpace(c.Dealer.Owner) == "" {
		return fmt.Errorf("dealer owner must be set")
	}
	if strings.TrimSpace(c.Dealer.ContractAddress) == "" {
		return fmt.Errorf("dealer contract_address must be set")
	}

	switch c.Storage.Driver {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("storage path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s", c.Storage.Driver)
	}

	switch c.Auth.Mode {
	case "noop":
		if !c.Auth.Insecure {
			return fmt.Errorf("auth mode noop trusts any claimed key; set insecure = true to allow it")
		}
	case "static":
		if len(c.Auth.Tokens) == 0 {
			return fmt.Errorf("auth tokens are required for static mode")
		}
	case "http":
		if c.Auth.URL == "" {
			return fmt.Errorf("auth url is required for http mode")
		}
	default:
		return fmt.Errorf("invalid auth mode: %s", c.Auth.Mode)
	}
	if c.Auth.OperatorSecret == "" && !c.Auth.Insecure {
		return fmt.Errorf("auth operator_secret is required unless insecure = true")
	}

	return nil
}

// Insecure reports whether permits or operator calls go unverified.
func (c *Config) Insecure() bool {
	return c.Auth.Mode == "noop" || c.Auth.OperatorSecret == ""
}

// Address returns the full listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// Level returns the configured log level, falling back to info.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.Server.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Validator builds the viewer permit validator for the configured mode
func (c *Config) Validator() auth.Validator {
	switch c.Auth.Mode {
	case "static":
		return auth.NewStaticValidator(c.Auth.Tokens)
	case "http":
		return auth.NewHTTPValidator(c.Auth.URL, c.Auth.AdminSecret)
	default:
		return auth.NewNoopValidator()
	}
}

// OpenStore opens the configured persistence backend
func (c *Config) OpenStore(ctx context.Context) (store.Store, error) {
	switch c.Storage.Driver {
	case "memory":
		return store.NewMemory(), nil
	case "sqlite":
		return store.OpenSQLite(ctx, c.Storage.Path)
	default:
		return nil, fmt.Errorf("invalid storage driver: %s", c.Storage.Driver)
	}
}
