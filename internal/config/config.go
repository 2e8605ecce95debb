// Package config loads the runtime configuration surface of spec §6:
// workspace root, model selection, iteration/history budgets, and
// logging options. Adapted from the teacher's JSONC-merge-with-env-
// override pipeline, narrowed to this option set — no TypeScript
// compatibility layer, no MCP/agent/LSP sub-configs, since none of
// those concepts exist in this runtime.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/relaycode/codeagent/internal/agenterror"
	"github.com/relaycode/codeagent/pkg/types"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

const (
	defaultMaxIterations   = 30
	defaultMaxHistoryTasks = 3
	minMaxIterations       = 1
	maxMaxIterations       = 1000
)

// Load builds a Config by applying, in increasing priority:
//  1. defaults
//  2. the structured file named by `config_file` (if directory holds
//     one, or the CODEAGENT_CONFIG_FILE environment variable names one)
//  3. a workspace-local .env (credentials only, via godotenv)
//  4. environment variable overrides
//
// directory is the workspace root (W); it becomes Config.Workspace
// unless the config file overrides it.
func Load(directory string) (*types.Config, error) {
	cfg := &types.Config{
		Workspace:       directory,
		MaxIterations:   defaultMaxIterations,
		MaxHistoryTasks: defaultMaxHistoryTasks,
		Provider:        make(map[string]types.ProviderConfig),
	}

	if directory != "" {
		_ = godotenv.Load(filepath.Join(directory, ".env"))
	}

	configFile := os.Getenv("CODEAGENT_CONFIG_FILE")
	if configFile == "" && directory != "" {
		for _, name := range []string{"codeagent.json", "codeagent.jsonc", "codeagent.yaml", "codeagent.yml"} {
			candidate := filepath.Join(directory, name)
			if _, err := os.Stat(candidate); err == nil {
				configFile = candidate
				break
			}
		}
	}
	if configFile != "" {
		if err := loadConfigFile(configFile, cfg); err != nil {
			return nil, err
		}
	}

	migrateLegacyFields(cfg)
	applyEnvOverrides(cfg)

	if cfg.Workspace == "" {
		cfg.Workspace = directory
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = defaultMaxIterations
	} else if cfg.MaxIterations < minMaxIterations || cfg.MaxIterations > maxMaxIterations {
		return nil, &agenterror.ConfigError{Detail: fmt.Sprintf(
			"max_iterations must be in [%d,%d], got %d", minMaxIterations, maxMaxIterations, cfg.MaxIterations)}
	}
	if cfg.MaxHistoryTasks <= 0 {
		cfg.MaxHistoryTasks = defaultMaxHistoryTasks
	}

	return cfg, nil
}

// loadConfigFile reads path (JSON, JSONC, or YAML by extension) and
// merges it into cfg.
func loadConfigFile(path string, cfg *types.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fileConfig types.Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return err
		}
	default:
		data = jsonc.ToJSON(data)
		if err := json.Unmarshal(data, &fileConfig); err != nil {
			return err
		}
	}

	mergeConfig(cfg, &fileConfig)
	return nil
}

// migrateLegacyFields honors the standalone simple_model/complex_model
// fields (spec §6 marks them "legacy") by folding them into
// ModelProviderConfig when no structured provider config was supplied,
// matching modern_ai_agent.py's own fallback for callers that never
// migrated to the structured form.
func migrateLegacyFields(cfg *types.Config) {
	if cfg.ModelProviderConfig != nil {
		return
	}
	if cfg.SimpleModel != "" || cfg.ComplexModel != "" {
		cfg.ModelProviderConfig = &types.ModelProviderConfig{
			Simple:  types.Endpoint{ModelName: cfg.SimpleModel},
			Complex: types.Endpoint{ModelName: cfg.ComplexModel},
		}
		return
	}
	if cfg.Model != "" {
		cfg.ModelProviderConfig = &types.ModelProviderConfig{
			Simple:  types.Endpoint{ModelName: cfg.Model},
			Complex: types.Endpoint{ModelName: cfg.Model},
		}
		cfg.UseMultiModel = false
	}
}

// mergeConfig merges source into target; zero-valued fields in source
// never overwrite a value already present in target.
func mergeConfig(target, source *types.Config) {
	if source.Workspace != "" {
		target.Workspace = source.Workspace
	}
	if source.Model != "" {
		target.Model = source.Model
	}
	if source.SimpleModel != "" {
		target.SimpleModel = source.SimpleModel
	}
	if source.ComplexModel != "" {
		target.ComplexModel = source.ComplexModel
	}
	if source.ModelProviderConfig != nil {
		target.ModelProviderConfig = source.ModelProviderConfig
	}
	if source.UseMultiModel {
		target.UseMultiModel = true
	}
	if source.MaxIterations != 0 {
		target.MaxIterations = source.MaxIterations
	}
	if source.Verbose {
		target.Verbose = true
	}
	if source.LogFile != "" {
		target.LogFile = source.LogFile
	}
	if source.MaxHistoryTasks != 0 {
		target.MaxHistoryTasks = source.MaxHistoryTasks
	}
	if source.Provider != nil {
		if target.Provider == nil {
			target.Provider = make(map[string]types.ProviderConfig)
		}
		for k, v := range source.Provider {
			target.Provider[k] = v
		}
	}
}

// applyEnvOverrides applies the highest-priority overrides: process
// environment variables, consulted after .env has already been loaded
// into the process environment.
func applyEnvOverrides(cfg *types.Config) {
	providerEnvMap := map[string]string{
		"openai":    "OPENAI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
		"ark":       "ARK_API_KEY",
	}
	for provider, envVar := range providerEnvMap {
		apiKey := os.Getenv(envVar)
		if apiKey == "" {
			continue
		}
		if cfg.Provider == nil {
			cfg.Provider = make(map[string]types.ProviderConfig)
		}
		p := cfg.Provider[provider]
		if p.APIKey == "" {
			p.APIKey = apiKey
			cfg.Provider[provider] = p
		}
	}

	if v := os.Getenv("CODEAGENT_WORKSPACE"); v != "" {
		cfg.Workspace = v
	}
	if v := os.Getenv("CODEAGENT_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("CODEAGENT_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxIterations = n
		}
	}
	if v := os.Getenv("CODEAGENT_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if envTruthy("CODEAGENT_VERBOSE") {
		cfg.Verbose = true
	}
	if envTruthy("CODEAGENT_USE_MULTI_MODEL") {
		cfg.UseMultiModel = true
	}
}

func envTruthy(name string) bool {
	v := os.Getenv(name)
	return v == "1" || strings.EqualFold(v, "true")
}

// Save writes cfg as indented JSON to path, creating parent
// directories as needed.
func Save(cfg *types.Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
