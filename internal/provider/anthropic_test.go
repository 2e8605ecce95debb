package provider

import (
	"context"
	"os"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/joho/godotenv"

	"github.com/relaycode/codeagent/pkg/types"
)

func TestNewAnthropicProvider_NoAPIKeyErrors(t *testing.T) {
	ctx := context.Background()

	originalKey := os.Getenv("ANTHROPIC_API_KEY")
	os.Unsetenv("ANTHROPIC_API_KEY")
	defer os.Setenv("ANTHROPIC_API_KEY", originalKey)

	_, err := NewAnthropicProvider(ctx, "anthropic", types.ProviderConfig{})
	if err == nil {
		t.Fatal("expected an error when no API key is configured")
	}
}

func TestNewAnthropicProvider_IDTracksConfiguredRegistryKey(t *testing.T) {
	ctx := context.Background()

	// Construction never dials the Anthropic API (claude.NewChatModel
	// only builds a client); a well-formed key is enough to exercise
	// the registry-key plumbing without live credentials.
	p, err := NewAnthropicProvider(ctx, "claude-eu", types.ProviderConfig{APIKey: "sk-ant-test-key"})
	if err != nil {
		t.Fatalf("NewAnthropicProvider: %v", err)
	}
	if p.ID() != "claude-eu" {
		t.Fatalf("expected ID() to return the configured registry key %q, got %q", "claude-eu", p.ID())
	}
	if len(p.Models()) == 0 {
		t.Fatal("expected a non-empty model catalog")
	}
	for _, m := range p.Models() {
		if m.ProviderID != "anthropic" {
			t.Fatalf("expected every catalog entry tagged ProviderID anthropic, got %q", m.ProviderID)
		}
	}
}

// TestAnthropicProvider_SendContract exercises the C4 Send() contract
// end-to-end against the real Anthropic API when credentials are
// present: verbatim model-name transmission, and normalization of the
// reply into types.AssistantMessage via ConvertFromEinoMessage.
func TestAnthropicProvider_SendContract(t *testing.T) {
	_ = godotenv.Load("../../.env")

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		t.Skip("ANTHROPIC_API_KEY not set, skipping live transport test")
	}
	modelID := os.Getenv("ANTHROPIC_MODEL_ID")
	if modelID == "" {
		modelID = "claude-3-5-haiku-20241022"
	}

	ctx := context.Background()
	registry := NewRegistry(nil)
	p, err := NewAnthropicProvider(ctx, "anthropic", types.ProviderConfig{APIKey: apiKey})
	if err != nil {
		t.Fatalf("NewAnthropicProvider: %v", err)
	}
	if err := registry.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	endpoint := types.Endpoint{ModelName: "anthropic/" + modelID}
	transcript := types.Transcript{
		{Role: types.RoleUser, Content: "Say 'Hello, World!' and nothing else."},
	}

	reply, err := Send(ctx, registry, endpoint, transcript, nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply.Content == "" {
		t.Fatal("expected a non-empty normalized reply content")
	}
	if reply.Role != types.RoleAssistant {
		t.Fatalf("expected Role %q, got %q", types.RoleAssistant, reply.Role)
	}
}

// TestAnthropicProvider_EmptyFirstMessageContentIsRejected reproduces a
// documented Anthropic API constraint: a user turn with empty content
// is rejected rather than silently accepted (spec §4.1's Failure model
// requires this surface as an error, not a panic further up the loop).
func TestAnthropicProvider_EmptyFirstMessageContentIsRejected(t *testing.T) {
	_ = godotenv.Load("../../.env")

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		t.Skip("ANTHROPIC_API_KEY not set, skipping live transport test")
	}
	modelID := os.Getenv("ANTHROPIC_MODEL_ID")
	if modelID == "" {
		modelID = "claude-3-5-haiku-20241022"
	}

	ctx := context.Background()
	p, err := NewAnthropicProvider(ctx, "anthropic", types.ProviderConfig{APIKey: apiKey})
	if err != nil {
		t.Fatalf("NewAnthropicProvider: %v", err)
	}

	req := &CompletionRequest{
		Model: modelID,
		Messages: []*schema.Message{
			{Role: schema.User, Content: ""},
		},
		MaxTokens: 100,
	}

	stream, err := p.CreateCompletion(ctx, req)
	if err == nil {
		defer stream.Close()
		if _, recvErr := stream.Recv(); recvErr == nil {
			t.Fatal("expected an error for an empty first message, got a successful response")
		}
	}
}
