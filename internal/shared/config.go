package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains per-platform OAuth application credentials.
type CredentialsConfig struct {
	Spotify    OAuthAppConfig `toml:"spotify"`
	Google     OAuthAppConfig `toml:"google"`
	SoundCloud OAuthAppConfig `toml:"soundcloud"`
}

// OAuthAppConfig contains one platform's OAuth application registration.
type OAuthAppConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// Configured reports whether both client id and secret are set.
func (c OAuthAppConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the loopback OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Platform returns the credentials section for the named platform, or an error
// wrapping [ErrMissingCredentials] when the section is absent or incomplete.
func (c *Config) Platform(name string) (OAuthAppConfig, error) {
	var app OAuthAppConfig
	switch name {
	case "spotify":
		app = c.Credentials.Spotify
	case "google":
		app = c.Credentials.Google
	case "soundcloud":
		app = c.Credentials.SoundCloud
	default:
		return OAuthAppConfig{}, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, name)
	}

	if !app.Configured() {
		return OAuthAppConfig{}, fmt.Errorf("%w: %s client_id/client_secret not set", ErrMissingCredentials, name)
	}
	return app, nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
