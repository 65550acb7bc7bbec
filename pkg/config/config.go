// Package config loads driver configuration from a YAML file with an
// environment-variable overlay, producing the dial parameters pkg/cypher
// needs to connect (network address, user agent, and auth credentials).
//
// The YAML file never carries a raw password: it names the environment
// variable holding it via password_env, so a config file is safe to commit.
//
// Precedence, lowest to highest: built-in defaults, YAML file, BOLTLINE_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/orneryd/boltwire/pkg/auth"
)

// EnvPrefix is the common prefix for every environment variable this
// package reads.
const EnvPrefix = "BOLTLINE_"

// Dial is everything needed to open a Cypher session.
type Dial struct {
	Network     string `yaml:"network"`
	Address     string `yaml:"address"`
	UserAgent   string `yaml:"user_agent"`
	User        string `yaml:"user"`
	PasswordEnv string `yaml:"password_env"`
	NoAuth      bool   `yaml:"no_auth"`

	// Password is resolved from PasswordEnv (or BOLTLINE_PASSWORD directly)
	// and is never itself a YAML field.
	Password string `yaml:"-"`
}

// Default returns the built-in defaults: a TCP connection to the standard
// Bolt port on localhost, basic auth as "neo4j" with an empty password.
func Default() Dial {
	return Dial{
		Network:   "tcp",
		Address:   "127.0.0.1:7687",
		UserAgent: "boltwire/1.0",
		User:      "neo4j",
	}
}

// AuthToken renders the configured credentials as an auth.Token.
func (d Dial) AuthToken() auth.Token {
	if d.NoAuth {
		return auth.None()
	}
	return auth.Basic(d.User, d.Password)
}

// Load reads defaults, overlays path (if non-empty and it exists), then
// overlays BOLTLINE_* environment variables.
func Load(path string) (Dial, error) {
	d := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Dial{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &d); err != nil {
			return Dial{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if d.PasswordEnv != "" {
		d.Password = os.Getenv(d.PasswordEnv)
	}

	applyEnv(&d)
	return d, nil
}

func applyEnv(d *Dial) {
	if v, ok := lookupEnv("NETWORK"); ok {
		d.Network = v
	}
	if v, ok := lookupEnv("ADDRESS"); ok {
		d.Address = v
	}
	if v, ok := lookupEnv("USER_AGENT"); ok {
		d.UserAgent = v
	}
	if v, ok := lookupEnv("USER"); ok {
		d.User = v
	}
	if v, ok := lookupEnv("PASSWORD"); ok {
		d.Password = v
	}
	if v, ok := lookupEnv("NO_AUTH"); ok {
		d.NoAuth = strings.EqualFold(v, "true") || v == "1"
	}
}

func lookupEnv(suffix string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + suffix)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
