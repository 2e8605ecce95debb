package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino/components/model"

	"github.com/relaycode/codeagent/pkg/types"
)

// AnthropicProvider implements Provider for Anthropic Claude models,
// one of the three SDKs the Model Router's complex endpoint typically
// resolves to (spec §4.3). It only wraps the direct-API path of the
// Eino claude component: the Bedrock/profile branch the teacher's SDK
// exposes has no types.ProviderConfig field to carry Region/Profile
// through, so it is unreachable from InitializeProviders and is not
// carried here (see DESIGN.md).
type AnthropicProvider struct {
	chatModel model.ToolCallingChatModel
	models    []types.Model
	id        string
}

// NewAnthropicProvider creates a Claude-backed Provider from a
// configured ProviderConfig entry. cfgID is the registry key the
// entry was found under ("anthropic" or an operator-chosen alias),
// and becomes ID()'s return value so ParseModelString's
// provider-prefix lookup resolves back to the same Provider.
func NewAnthropicProvider(ctx context.Context, cfgID string, cfg types.ProviderConfig) (*AnthropicProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic provider %q: no API key configured", cfgID)
	}

	modelID := cfg.Model
	if modelID == "" {
		modelID = "claude-sonnet-4-20250514"
	}

	chatCfg := &claude.Config{
		APIKey:    apiKey,
		Model:     modelID,
		MaxTokens: 4096,
	}
	if cfg.BaseURL != "" {
		chatCfg.BaseURL = &cfg.BaseURL
	}

	chatModel, err := claude.NewChatModel(ctx, chatCfg)
	if err != nil {
		return nil, fmt.Errorf("anthropic provider %q: %w", cfgID, err)
	}

	return &AnthropicProvider{
		chatModel: chatModel,
		models:    anthropicModels(),
		id:        cfgID,
	}, nil
}

// ID returns the registry key this provider was configured under.
func (p *AnthropicProvider) ID() string { return p.id }

// Name returns the human-readable provider name.
func (p *AnthropicProvider) Name() string { return "Anthropic" }

// Models returns the list of available models.
func (p *AnthropicProvider) Models() []types.Model {
	return p.models
}

// ChatModel returns the Eino ChatModel.
func (p *AnthropicProvider) ChatModel() model.ToolCallingChatModel {
	return p.chatModel
}

// CreateCompletion creates a streaming completion.
func (p *AnthropicProvider) CreateCompletion(ctx context.Context, req *CompletionRequest) (*CompletionStream, error) {
	chatModel := p.chatModel
	if len(req.Tools) > 0 {
		var err error
		chatModel, err = chatModel.WithTools(req.Tools)
		if err != nil {
			return nil, fmt.Errorf("failed to bind tools: %w", err)
		}
	}

	stream, err := chatModel.Stream(ctx, req.Messages,
		model.WithMaxTokens(req.MaxTokens),
		model.WithTemperature(float32(req.Temperature)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	return NewCompletionStream(stream), nil
}

// anthropicModels reports the catalog entries spec §4.3's router
// judges select between. Trimmed to types.Model's actual fields —
// this runtime has no vision/reasoning-capability routing, so those
// columns are not carried.
func anthropicModels() []types.Model {
	return []types.Model{
		{
			ID:              "claude-opus-4-20250514",
			Name:            "Claude Opus 4",
			ProviderID:      "anthropic",
			ContextLength:   200000,
			MaxOutputTokens: 32000,
			SupportsTools:   true,
			InputPrice:      15.0,
			OutputPrice:     75.0,
		},
		{
			ID:              "claude-sonnet-4-20250514",
			Name:            "Claude Sonnet 4",
			ProviderID:      "anthropic",
			ContextLength:   200000,
			MaxOutputTokens: 64000,
			SupportsTools:   true,
			InputPrice:      3.0,
			OutputPrice:     15.0,
		},
		{
			ID:              "claude-3-5-haiku-20241022",
			Name:            "Claude 3.5 Haiku",
			ProviderID:      "anthropic",
			ContextLength:   200000,
			MaxOutputTokens: 8192,
			SupportsTools:   true,
			InputPrice:      0.8,
			OutputPrice:     4.0,
		},
	}
}
