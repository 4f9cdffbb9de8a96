package provider

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Config is the per-provider config.json shape. Lookup is by the Name field,
// not the directory name.
type Config struct {
	Name            string            `json:"name"`
	RequiresBrowser bool              `json:"requiresBrowser"`
	BaseURL         string            `json:"baseUrl"`
	APIKeyEnvVar    string            `json:"apiKeyEnvVar,omitempty"`
	ActorIDs        map[string]string `json:"actorIds,omitempty"`
}

// Registry lists provider configs from a plugin directory. Each call
// re-reads from disk so configuration changes between job runs are picked up
// without a restart.
type Registry struct {
	dir    string
	logger *zap.Logger
}

// NewRegistry creates a Registry over the given plugin directory.
func NewRegistry(dir string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{dir: dir, logger: logger}
}

// List scans the plugin directory and returns configs keyed by display name.
// Subdirectories without a readable, parseable config.json are skipped
// without surfacing an error. Zero providers found yields an empty map.
func (r *Registry) List() map[string]Config {
	configs := map[string]Config{}
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		r.logger.Warn("provider directory scan failed", zap.String("dir", r.dir), zap.Error(err))
		return configs
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(r.dir, entry.Name(), "config.json")
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg Config
		if err := json.Unmarshal(data, &cfg); err != nil {
			r.logger.Warn("skipping unparseable provider config", zap.String("path", path), zap.Error(err))
			continue
		}
		if cfg.Name == "" {
			continue
		}
		configs[cfg.Name] = cfg
	}
	return configs
}

// Resolve looks up one provider config by display name.
func (r *Registry) Resolve(name string) (Config, error) {
	cfg, ok := r.List()[name]
	if !ok {
		return Config{}, fmt.Errorf("provider not found: %s", name)
	}
	return cfg, nil
}
