package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const configRelPath = "pywo/config.yaml"

// DefaultPath returns where a new config file would be created.
func DefaultPath() (string, error) {
	return xdg.ConfigFile(configRelPath)
}

// Load reads the configuration from the XDG config directories. A
// missing file is not an error; the built-in defaults apply.
func Load() (*Config, error) {
	path, err := xdg.SearchConfigFile(configRelPath)
	if err != nil {
		cfg := DefaultConfig()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath reads one config file, layered over the defaults.
// Fields absent from the file keep their default values; unknown keys
// fail the load.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := decodeStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}
