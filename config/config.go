// Package config decodes the TOML configuration files for both
// binaries, via the teacher's own config-file dependency
// (github.com/BurntSushi/toml); no call site survived retrieval to
// ground the specific decode shape on, so this follows the library's
// documented toml.DecodeFile usage (DESIGN.md).
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// ServerConfig is cmd/chat-server's configuration file shape.
type ServerConfig struct {
	// Bind is the listen address, e.g. "0.0.0.0:4433".
	Bind string

	// FrameSize is N, the BlockStream frame payload size every
	// accepted connection negotiates. Zero means wire.DefaultFrameSize.
	FrameSize int

	// DBPath is the bbolt database file path.
	DBPath string

	// MetricsBind is the /metrics HTTP listen address. Empty disables
	// the metrics server.
	MetricsBind string

	// LogLevel is a go-logging level name (DEBUG, INFO, NOTICE,
	// WARNING, ERROR, CRITICAL).
	LogLevel string
}

// ClientConfig is cmd/chat-client's configuration file shape.
type ClientConfig struct {
	// Connect is the server address to dial, e.g. "127.0.0.1:4433".
	Connect string

	// FrameSize must match the server's configured FrameSize.
	FrameSize int

	// Username and Password are the login credentials.
	Username string
	Password string

	// NewUser selects create-account mode over existing-user login.
	NewUser bool

	LogLevel string
}

// LoadServerConfig decodes a ServerConfig from path.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := new(ServerConfig)
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// LoadClientConfig decodes a ClientConfig from path.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := new(ClientConfig)
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}
