// Package config loads emdrive's configuration. Every key is an
// environment variable named EMDRIVE_<UPPER_SNAKE_KEY>; an optional
// TOML file (EMDRIVE_CONFIG_FILE) supplies values the environment
// does not override.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config is the DBMS configuration.
type Config struct {
	// DataDirectory roots the on-disk state. Conventionally
	// `emdrive/data` under /var/lib.
	DataDirectory string `toml:"data_directory"`
	// TCPListenHost is the HTTP interface bind host.
	TCPListenHost string `toml:"tcp_listen_host"`
	// TCPListenPort is the HTTP interface bind port.
	TCPListenPort uint16 `toml:"tcp_listen_port"`
	// GRPCListenPort is the gRPC mirror's bind port. 0 disables it.
	GRPCListenPort uint16 `toml:"grpc_listen_port"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
	// LogFormat is json or text.
	LogFormat string `toml:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDirectory:  "/var/lib/emdrive/data",
		TCPListenHost:  "127.0.0.1",
		TCPListenPort:  8824,
		GRPCListenPort: 0,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// envKey formats an internal config key as its environment variable
// name.
func envKey(key string) string {
	upper := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = append(upper, c)
	}
	return "EMDRIVE_" + string(upper)
}

// FromEnv resolves the configuration: defaults, then the optional
// TOML file, then the environment. Invalid values abort startup with
// an error naming the offending key.
func FromEnv() (Config, error) {
	cfg := Default()

	if path := os.Getenv(envKey("config_file")); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: %w", envKey("config_file"), err)
		}
	}

	cfg.DataDirectory = envOr("data_directory", cfg.DataDirectory)
	cfg.TCPListenHost = envOr("tcp_listen_host", cfg.TCPListenHost)
	cfg.LogLevel = envOr("log_level", cfg.LogLevel)
	cfg.LogFormat = envOr("log_format", cfg.LogFormat)

	var err error
	if cfg.TCPListenPort, err = envPortOr("tcp_listen_port", cfg.TCPListenPort); err != nil {
		return Config{}, err
	}
	if cfg.GRPCListenPort, err = envPortOr("grpc_listen_port", cfg.GRPCListenPort); err != nil {
		return Config{}, err
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf(
			"%s: `%s` is not a valid log level", envKey("log_level"), cfg.LogLevel,
		)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return Config{}, fmt.Errorf(
			"%s: `%s` is not a valid log format", envKey("log_format"), cfg.LogFormat,
		)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(envKey(key)); ok {
		return value
	}
	return fallback
}

func envPortOr(key string, fallback uint16) (uint16, error) {
	raw, ok := os.LookupEnv(envKey(key))
	if !ok {
		return fallback, nil
	}
	value, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%s: `%s` is not a valid port number", envKey(key), raw)
	}
	return uint16(value), nil
}

// String renders the configuration in environment-variable form.
func (c Config) String() string {
	return fmt.Sprintf(
		"%s=%q\n%s=%q\n%s=%d\n%s=%d\n%s=%q\n%s=%q",
		envKey("data_directory"), c.DataDirectory,
		envKey("tcp_listen_host"), c.TCPListenHost,
		envKey("tcp_listen_port"), c.TCPListenPort,
		envKey("grpc_listen_port"), c.GRPCListenPort,
		envKey("log_level"), c.LogLevel,
		envKey("log_format"), c.LogFormat,
	)
}
