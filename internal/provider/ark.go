package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/relaycode/codeagent/pkg/types"
)

// ArkProvider implements Provider for Volcengine ARK endpoints — the
// third SDK-backed provider the Model Router's provider-abstraction
// branch can resolve to. Model IDs on ARK name a deployed endpoint
// rather than a model family, so arkModels reports a single catalog
// entry built from the configured endpoint ID itself.
type ArkProvider struct {
	chatModel model.ToolCallingChatModel
	models    []types.Model
	id        string
}

// NewArkProvider creates an ARK-backed Provider. cfgID is the registry
// key this entry was configured under (normally "ark").
func NewArkProvider(ctx context.Context, cfgID string, cfg types.ProviderConfig) (*ArkProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ARK_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ark provider %q: no API key configured", cfgID)
	}

	modelID := cfg.Model
	if modelID == "" {
		modelID = os.Getenv("ARK_MODEL_ID")
	}
	if modelID == "" {
		return nil, fmt.Errorf("ark provider %q: no endpoint model configured", cfgID)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("ARK_BASE_URL")
	}

	maxTokens := 4096
	chatCfg := &ark.ChatModelConfig{
		APIKey:    apiKey,
		Model:     modelID,
		MaxTokens: &maxTokens,
	}
	if baseURL != "" {
		chatCfg.BaseURL = baseURL
	}

	chatModel, err := ark.NewChatModel(ctx, chatCfg)
	if err != nil {
		return nil, fmt.Errorf("ark provider %q: %w", cfgID, err)
	}

	return &ArkProvider{
		chatModel: chatModel,
		models:    arkModels(modelID),
		id:        cfgID,
	}, nil
}

// ID returns the registry key this provider was configured under.
func (p *ArkProvider) ID() string { return p.id }

// Name returns the human-readable provider name.
func (p *ArkProvider) Name() string { return "ARK" }

// Models returns the list of available models.
func (p *ArkProvider) Models() []types.Model {
	return p.models
}

// ChatModel returns the Eino ChatModel.
func (p *ArkProvider) ChatModel() model.ToolCallingChatModel {
	return p.chatModel
}

// CreateCompletion creates a streaming completion.
func (p *ArkProvider) CreateCompletion(ctx context.Context, req *CompletionRequest) (*CompletionStream, error) {
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

// arkModels reports the single catalog entry for a deployed ARK
// endpoint; pricing is operator-specific and not published by the
// platform, so both prices are left zero.
func arkModels(endpointID string) []types.Model {
	return []types.Model{
		{
			ID:              endpointID,
			Name:            "ARK Model",
			ProviderID:      "ark",
			ContextLength:   128000,
			MaxOutputTokens: 4096,
			SupportsTools:   true,
		},
	}
}
