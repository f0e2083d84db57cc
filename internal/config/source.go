package config

import (
	"fmt"
	"io/ioutil"
	"os"

	envstruct "code.cloudfoundry.org/go-envstruct"
	"gopkg.in/yaml.v3"
)

// Source provides the current Settings. Implementations must not cache:
// every call reflects the configuration as it is right now.
type Source interface {
	Settings() (Settings, error)
}

// SourceFunc upgrades a regular function into a Source.
type SourceFunc func() (Settings, error)

// Settings implements Source.
func (f SourceFunc) Settings() (Settings, error) {
	return f()
}

// EnvSource reads Settings from the process environment.
type EnvSource struct{}

// Settings implements Source.
func (EnvSource) Settings() (Settings, error) {
	var s Settings
	if err := envstruct.Load(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to load settings from environment: %w", err)
	}

	return s, nil
}

// FileSource reads Settings from a YAML file and then applies any
// environment overrides. A missing file is treated as empty.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{
		path: path,
	}
}

// Settings implements Source.
func (f *FileSource) Settings() (Settings, error) {
	var s Settings

	data, err := ioutil.ReadFile(f.path)
	if err != nil && !os.IsNotExist(err) {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", f.path, err)
	}

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("failed to parse config file %s: %w", f.path, err)
		}
	}

	if err := envstruct.Load(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to load settings from environment: %w", err)
	}

	return s, nil
}
