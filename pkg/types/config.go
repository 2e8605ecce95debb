package types

// Config is the agent's configuration surface (spec §6 "Configuration
// surface"). It intentionally does not carry the teacher's full
// TypeScript-compatible option set (MCP, LSP, formatter, watcher,
// sharing, theme, ...) — those belonged to components this runtime
// does not have. See DESIGN.md for what was dropped and why.
type Config struct {
	// Workspace is the root directory for all file tools. Empty means
	// "current working directory", resolved by the caller.
	Workspace string `json:"workspace,omitempty"`

	// Legacy single-model knobs. If Model is set it is used for both
	// simple and complex endpoints and UseMultiModel is forced off,
	// matching modern_ai_agent.py's _validate_models.
	Model        string `json:"model,omitempty"`
	SimpleModel  string `json:"simple_model,omitempty"`
	ComplexModel string `json:"complex_model,omitempty"`

	// ModelProviderConfig is the canonical provider configuration (§3 P).
	// When set it takes precedence over the legacy knobs above; see
	// migrateLegacyFields in internal/config.
	ModelProviderConfig *ModelProviderConfig `json:"model_provider_config,omitempty"`

	UseMultiModel   bool   `json:"use_multi_model,omitempty"`
	MaxIterations   int    `json:"max_iterations,omitempty"` // 1..1000, default 30
	Verbose         bool   `json:"verbose,omitempty"`
	LogFile         string `json:"log_file,omitempty"`
	MaxHistoryTasks int    `json:"max_history_tasks,omitempty"` // default 3

	// Provider holds per-provider credentials/endpoints, keyed by
	// provider id ("openai", "anthropic", "ark", ...). Narrower than
	// the teacher's ProviderConfig: no MCP/whitelist/blacklist fields.
	Provider map[string]ProviderConfig `json:"provider,omitempty"`
}

// ProviderConfig holds configuration for a specific LLM provider.
type ProviderConfig struct {
	APIKey  string `json:"apiKey,omitempty"`
	BaseURL string `json:"baseURL,omitempty"`
	Model   string `json:"model,omitempty"`
	Disable bool   `json:"disable,omitempty"`
}

// Endpoint is the Model endpoint (E) of spec §3: a model name plus
// optional base URL and credential. When BaseURL is empty the default
// public provider endpoint is used; when set, ModelName is transmitted
// unmodified (no alias normalization), per spec §4.4.
type Endpoint struct {
	ModelName  string `json:"model_name"`
	BaseURL    string `json:"base_url,omitempty"`
	Credential string `json:"credential,omitempty"`
}

// ModelProviderConfig is the Model provider configuration (P) of spec §3.
// Constructed once at startup and treated as immutable afterward.
type ModelProviderConfig struct {
	Simple        Endpoint            `json:"simple"`
	Complex       Endpoint            `json:"complex"`
	ToolOverrides map[string]Endpoint `json:"tool_overrides,omitempty"`
}

// Model describes an LLM model available from a provider, used by the
// provider-abstraction branch of the LLM Transport (C4) to report
// capabilities/pricing metadata. Not part of the wire protocol itself.
type Model struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ProviderID      string  `json:"providerID"`
	ContextLength   int     `json:"contextLength"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	SupportsTools   bool    `json:"supportsTools"`
	InputPrice      float64 `json:"inputPrice,omitempty"`
	OutputPrice     float64 `json:"outputPrice,omitempty"`
}
