package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/jsonc"
)

// Config holds the connection defaults stored in ~/.climesync/config.json.
// The file may contain // and /* */ comments.
type Config struct {
	// TimeSyncURL is the base URL of the TimeSync API, e.g. https://timesync.example.org/v0.
	TimeSyncURL string `json:"timesync_url" validate:"omitempty,url"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	// LDAP selects LDAP instead of password authentication. Nil means ask.
	LDAP *bool `json:"ldap"`
}

// Keys lists the settings Get and Set understand.
var Keys = []string{"timesync_url", "username", "password", "ldap"}

var validate = validator.New()

// Get returns the value stored under key and whether it is set.
func (c Config) Get(key string) (any, bool) {
	switch key {
	case "timesync_url":
		return c.TimeSyncURL, c.TimeSyncURL != ""
	case "username":
		return c.Username, c.Username != ""
	case "password":
		return c.Password, c.Password != ""
	case "ldap":
		if c.LDAP == nil {
			return nil, false
		}
		return *c.LDAP, true
	}
	return nil, false
}

// Set stores value under key.
func (c *Config) Set(key string, value any) error {
	switch key {
	case "timesync_url", "username", "password":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("config key %s needs a string, got %T", key, value)
		}
		switch key {
		case "timesync_url":
			c.TimeSyncURL = s
		case "username":
			c.Username = s
		default:
			c.Password = s
		}
	case "ldap":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("config key ldap needs a bool, got %T", value)
		}
		c.LDAP = &b
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// Validate reports malformed settings.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// configTemplate is the annotated file layout. The four verbs take the JSON
// encoded values of timesync_url, username, password and ldap.
const configTemplate = `// climesync configuration – ~/.climesync/config.json
//
// Values here are used by connect and sign-in unless given on the command
// line. Settings left empty are asked for interactively.
{
  // Base URL of the TimeSync API, e.g. "https://timesync.example.org/v0".
  "timesync_url": %s,

  // TimeSync username.
  "username": %s,

  // TimeSync password. Stored in plain text; leave empty to be asked.
  "password": %s,

  // Authenticate with LDAP (true) or a TimeSync password (false).
  // null means ask on every sign-in.
  "ldap": %s
}
`

// DefaultPath returns the path to ~/.climesync/config.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".climesync", "config.json"), nil
}

// Load reads the config at path, creating it with an annotated empty template
// on first run.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := Save(path, Config{}); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save atomically writes cfg to path in the annotated layout.
func Save(path string, cfg Config) error {
	vals := make([]any, 0, len(Keys))
	for _, v := range []any{cfg.TimeSyncURL, cfg.Username, cfg.Password, cfg.LDAP} {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		vals = append(vals, string(b))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(fmt.Sprintf(configTemplate, vals...)), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}

// Update loads the config at path, sets key to value and saves it.
func Update(path, key string, value any) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	return Save(path, cfg)
}
