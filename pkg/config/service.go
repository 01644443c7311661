package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR} and ${VAR:default} in YAML config files.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)(?::([^}]+))?\}`)

// Service discovers and loads per-bot configuration files from a single
// directory. For each bot name it prefers <name>.yaml over <name>.json.
type Service struct {
	dir string
}

// NewService creates a config service rooted at dir, creating the
// directory if needed. An empty dir defaults to "configs".
func NewService(dir string) (*Service, error) {
	if dir == "" {
		dir = "configs"
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	return &Service{dir: dir}, nil
}

// Dir returns the config directory.
func (s *Service) Dir() string {
	return s.dir
}

// findConfigFile resolves the config file for a bot name, YAML first.
func (s *Service) findConfigFile(botName string) string {
	for _, ext := range []string{".yaml", ".json"} {
		path := filepath.Join(s.dir, botName+ext)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// expandEnv substitutes ${VAR} and ${VAR:default} references. Unknown
// variables without a default are left as-is.
func expandEnv(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if value, ok := os.LookupEnv(groups[1]); ok {
			return value
		}
		if groups[2] != "" {
			return groups[2]
		}
		return match
	})
}

// LoadYAML reads a YAML config file, applying environment interpolation.
func LoadYAML(path string, out interface{}) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(expandEnv(string(content))), out); err != nil {
		return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads a JSON config file.
func LoadJSON(path string, out interface{}) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(content, out); err != nil {
		return fmt.Errorf("failed to parse JSON config %s: %w", path, err)
	}
	return nil
}

// Load loads and resolves the configuration for the named bot.
func (s *Service) Load(botName string) (*BotConfig, error) {
	path := s.findConfigFile(botName)
	if path == "" {
		available, _ := filepath.Glob(filepath.Join(s.dir, "*"))
		for i, p := range available {
			available[i] = filepath.Base(p)
		}
		return nil, fmt.Errorf("config file not found for %q in %s (available: %v)",
			botName, s.dir, available)
	}

	cfg := &BotConfig{}
	var err error
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		err = LoadYAML(path, cfg)
	} else {
		err = LoadJSON(path, cfg)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Name == "" {
		cfg.Name = botName
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ListAll returns the bot names discovered in the config directory mapped
// to their display names. A YAML config shadows a JSON one of the same stem.
func (s *Service) ListAll() map[string]string {
	found := make(map[string]string)

	for _, ext := range []string{".yaml", ".json"} {
		matches, err := filepath.Glob(filepath.Join(s.dir, "*"+ext))
		if err != nil {
			continue
		}
		sort.Strings(matches)
		for _, path := range matches {
			stem := strings.TrimSuffix(filepath.Base(path), ext)
			if _, ok := found[stem]; ok {
				continue
			}
			cfg := &BotConfig{}
			var loadErr error
			if ext == ".yaml" {
				loadErr = LoadYAML(path, cfg)
			} else {
				loadErr = LoadJSON(path, cfg)
			}
			if loadErr != nil || cfg.Name == "" {
				found[stem] = stem
				continue
			}
			found[stem] = cfg.Name
		}
	}

	return found
}

// Save writes a config as YAML or JSON through an atomic temp-file rename.
func (s *Service) Save(botName, format string, cfg *BotConfig) (string, error) {
	var data []byte
	var err error
	var path string

	switch format {
	case "yaml":
		data, err = yaml.Marshal(cfg)
		path = filepath.Join(s.dir, botName+".yaml")
	case "json":
		data, err = json.MarshalIndent(cfg, "", "  ")
		path = filepath.Join(s.dir, botName+".json")
	default:
		return "", fmt.Errorf("unsupported config format: %s", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write temp config file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to move config file into place: %w", err)
	}
	return path, nil
}
