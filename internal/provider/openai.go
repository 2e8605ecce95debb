package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/relaycode/codeagent/pkg/types"
)

// OpenAIProvider implements Provider for OpenAI models, and doubles as
// the direct-transport branch's client: any OpenAI-compatible host
// (local inference server, third-party gateway) goes through the same
// struct via NewDirectProvider.
type OpenAIProvider struct {
	chatModel model.ToolCallingChatModel
	models    []types.Model
	id        string
}

// NewOpenAIProvider creates an OpenAI-backed Provider from a
// configured ProviderConfig entry. cfgID is the registry key the
// entry was found under ("openai", or an arbitrary alias for an
// OpenAI-compatible third-party host).
func NewOpenAIProvider(ctx context.Context, cfgID string, cfg types.ProviderConfig) (*OpenAIProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai provider %q: no API key configured", cfgID)
	}

	modelID := cfg.Model
	if modelID == "" {
		modelID = os.Getenv("OPENAI_MODEL_ID")
	}
	if modelID == "" {
		modelID = "gpt-4o"
	}

	maxTokens := 4096
	chatCfg := &openai.ChatModelConfig{
		APIKey:              apiKey,
		Model:               modelID,
		MaxCompletionTokens: &maxTokens, // GPT-5 family rejects max_tokens
	}
	if cfg.BaseURL != "" {
		chatCfg.BaseURL = cfg.BaseURL
	}

	chatModel, err := openai.NewChatModel(ctx, chatCfg)
	if err != nil {
		return nil, fmt.Errorf("openai provider %q: %w", cfgID, err)
	}

	return &OpenAIProvider{
		chatModel: chatModel,
		models:    openAIModels(),
		id:        cfgID,
	}, nil
}

// NewDirectProvider opens a direct OpenAI-compatible client against
// endpoint.BaseURL (spec §4.4 "direct OpenAI-compatible HTTP client"),
// for Model Router endpoints that set BaseURL rather than routing
// through the provider-abstraction registry. An empty credential is
// replaced with the placeholder "local": local inference servers
// commonly accept any bearer value.
func NewDirectProvider(ctx context.Context, endpoint types.Endpoint) (*OpenAIProvider, error) {
	apiKey := endpoint.Credential
	if apiKey == "" {
		apiKey = "local"
	}
	return NewOpenAIProvider(ctx, "openai", types.ProviderConfig{
		APIKey:  apiKey,
		BaseURL: endpoint.BaseURL,
		Model:   endpoint.ModelName,
	})
}

// ID returns the registry key this provider was configured under.
func (p *OpenAIProvider) ID() string { return p.id }

// Name returns the human-readable provider name.
func (p *OpenAIProvider) Name() string { return "OpenAI" }

// Models returns the list of available models.
func (p *OpenAIProvider) Models() []types.Model {
	return p.models
}

// ChatModel returns the Eino ChatModel.
func (p *OpenAIProvider) ChatModel() model.ToolCallingChatModel {
	return p.chatModel
}

// CreateCompletion creates a streaming completion.
func (p *OpenAIProvider) CreateCompletion(ctx context.Context, req *CompletionRequest) (*CompletionStream, error) {
	chatModel := p.chatModel
	if len(req.Tools) > 0 {
		var err error
		chatModel, err = chatModel.WithTools(req.Tools)
		if err != nil {
			return nil, fmt.Errorf("failed to bind tools: %w", err)
		}
	}

	opts := []model.Option{
		openai.WithMaxCompletionTokens(req.MaxTokens),
	}
	if req.Temperature > 0 {
		opts = append(opts, model.WithTemperature(float32(req.Temperature)))
	}

	stream, err := chatModel.Stream(ctx, req.Messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	return NewCompletionStream(stream), nil
}

// openAIModels reports the catalog entries spec §4.3's router judges
// select between. Trimmed to types.Model's actual fields.
func openAIModels() []types.Model {
	return []types.Model{
		{
			ID:              "gpt-5",
			Name:            "GPT-5",
			ProviderID:      "openai",
			ContextLength:   272000,
			MaxOutputTokens: 128000,
			SupportsTools:   true,
			InputPrice:      1.25,
			OutputPrice:     10.0,
		},
		{
			ID:              "gpt-5-mini",
			Name:            "GPT-5 Mini",
			ProviderID:      "openai",
			ContextLength:   272000,
			MaxOutputTokens: 128000,
			SupportsTools:   true,
			InputPrice:      0.25,
			OutputPrice:     2.0,
		},
		{
			ID:              "gpt-4o",
			Name:            "GPT-4o",
			ProviderID:      "openai",
			ContextLength:   128000,
			MaxOutputTokens: 16384,
			SupportsTools:   true,
			InputPrice:      2.5,
			OutputPrice:     10.0,
		},
		{
			ID:              "gpt-4o-mini",
			Name:            "GPT-4o Mini",
			ProviderID:      "openai",
			ContextLength:   128000,
			MaxOutputTokens: 16384,
			SupportsTools:   true,
			InputPrice:      0.15,
			OutputPrice:     0.6,
		},
		{
			ID:              "o1-mini",
			Name:            "O1 Mini",
			ProviderID:      "openai",
			ContextLength:   128000,
			MaxOutputTokens: 65536,
			SupportsTools:   true,
			InputPrice:      1.1,
			OutputPrice:     4.4,
		},
	}
}
