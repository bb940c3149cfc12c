// Package config loads the network endpoint configuration: which IP each
// remote subsystem lives at, which UDP ports carry each stream, and the
// protocol identifiers the frames are stamped with. Fields omitted from
// the file keep their built-in defaults, so partial configs are safe.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// Provider answers endpoint lookups against a loaded configuration file
// with per-key fallbacks. The zero value serves defaults only.
type Provider struct {
	v *viper.Viper
}

// Load reads a JSON or YAML config file. A missing file is an error; an
// unreadable or malformed one too.
func Load(path string) (*Provider, error) {
	v := viper.New()
	v.SetConfigFile(filepath.Clean(path))
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return &Provider{v: v}, nil
}

// Defaults returns a provider that serves built-in values for every key.
func Defaults() *Provider {
	return &Provider{}
}

// IP returns network.ips.<key>, or def when unset.
func (p *Provider) IP(key, def string) string {
	return p.str("network.ips."+key, def)
}

// Port returns network.ports.<key>, or def when unset.
func (p *Provider) Port(key string, def int) int {
	return p.num("network.ports."+key, def)
}

// ID returns network.ids.<key>, or def when unset. Identifiers are the
// 16-bit source/destination codes stamped into every frame header.
func (p *Provider) ID(key string, def uint16) uint16 {
	return uint16(p.num("network.ids."+key, int(def)))
}

func (p *Provider) str(key, def string) string {
	if p.v == nil || !p.v.IsSet(key) {
		return def
	}
	return p.v.GetString(key)
}

func (p *Provider) num(key string, def int) int {
	if p.v == nil || !p.v.IsSet(key) {
		return def
	}
	return p.v.GetInt(key)
}
