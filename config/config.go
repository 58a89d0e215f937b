// Package config loads runtime configuration for the sqlsnark-verify CLI
// and HTTP service: the BN254 verifier-setup blob, log level, and listen
// address. The pure verify package itself takes no config; everything here
// is wiring around it, loaded via viper/pflag before typed values are
// handed to the core packages.
package config

import (
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultLogLevel  = "info"
	defaultLogOutput = "stdout"
	defaultHost      = "0.0.0.0"
	defaultPort      = 8090

	envPrefix = "SQLSNARK"
)

// Config holds the application configuration for the CLI/service wrapper.
type Config struct {
	Log     LogConfig
	API     APIConfig
	Setup   SetupConfig
	Datadir string `mapstructure:"datadir"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"`
}

// APIConfig holds the optional HTTP verification service configuration.
type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// SetupConfig locates the BN254 verifier-setup blob (tau*H) consumed by
// hyperkzg.ParseSetup.
type SetupConfig struct {
	Path string `mapstructure:"path"`
}

// RegisterFlags declares this package's flags on fs, with their defaults,
// so a CLI entrypoint can add its own flags to the same set before parsing
// once.
func RegisterFlags(fs *flag.FlagSet) {
	fs.StringP("log.level", "l", defaultLogLevel, "log level (debug, info, warn, error)")
	fs.StringP("log.output", "o", defaultLogOutput, "log output (stdout, stderr or filepath)")
	fs.StringP("api.host", "h", defaultHost, "HTTP verification service host")
	fs.IntP("api.port", "p", defaultPort, "HTTP verification service port")
	fs.StringP("setup.path", "s", "", "path to the BN254 verifier-setup blob (tau*H)")
	fs.String("datadir", ".sqlsnark-verify", "data directory for cached verifier setups")
}

// Bind reads this package's flags (already parsed on fs) together with
// environment variables (prefixed SQLSNARK_) and defaults into a Config.
func Bind(fs *flag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.output", defaultLogOutput)
	v.SetDefault("api.host", defaultHost)
	v.SetDefault("api.port", defaultPort)
	v.SetDefault("setup.path", "")
	v.SetDefault("datadir", ".sqlsnark-verify")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("config: bind flags: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// Load is a convenience wrapper for callers (such as tests) that only care
// about this package's own flags: it registers them on a fresh FlagSet,
// parses args, and binds the result.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("sqlsnark-verify", flag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config: parse flags: %w", err)
	}
	return Bind(fs)
}

// ReadSetup reads the verifier-setup blob from disk.
func ReadSetup(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("config: no verifier-setup path configured")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read verifier setup: %w", err)
	}
	return b, nil
}
