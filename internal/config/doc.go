// Package config loads and merges the agent's runtime configuration.
//
// # Configuration loading
//
// Load reads, in increasing priority: built-in defaults, a structured
// config file (codeagent.json / codeagent.jsonc / codeagent.yaml,
// discovered in the workspace or named by CODEAGENT_CONFIG_FILE), a
// workspace-local .env (credentials only), then environment variable
// overrides.
//
// # Supported option set (spec §6)
//
//	workspace              root directory for all file tools
//	simple_model            legacy single-model name (folded into
//	complex_model           ModelProviderConfig by migrateLegacyFields)
//	model_provider_config  structured simple/complex endpoint pair
//	use_multi_model         enables planning/validation/routing
//	max_iterations          per-task budget, default 30
//	verbose                 human-readable progress printing
//	log_file                append-only session log path
//	max_history_tasks       full-transcript retention count, default 3
//
// # Formats
//
// JSON and JSONC (via github.com/tidwall/jsonc) are the primary forms;
// YAML is accepted as an alternate structured form for config_file,
// mirroring the original implementation's config.py variants.
package config
