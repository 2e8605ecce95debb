package provider

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudwego/eino/schema"

	"github.com/relaycode/codeagent/pkg/types"
)

// Retry tuning for the provider-abstraction branch, grounded on the
// teacher's internal/session/loop.go newRetryBackoff: exponential
// backoff with jitter, capped elapsed time and attempt count.
const (
	retryInitialInterval = time.Second
	retryMaxInterval     = 30 * time.Second
	retryMaxElapsedTime  = 2 * time.Minute
	retryMaxAttempts     = 3
)

// newRetryBackoff builds the backoff.BackOff used to retry a failed
// provider-abstraction completion call. The direct-transport branch
// does not use this: a misconfigured local endpoint should fail fast
// rather than retry into a closed port.
func newRetryBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = retryMaxElapsedTime
	b.RandomizationFactor = 0.5
	b.Multiplier = 2.0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, retryMaxAttempts), ctx)
}

// Send implements the LLM Transport (C4) contract of spec §4.4: pick
// the direct-base-url branch (endpoint.BaseURL set) or the
// provider-abstraction branch (registry lookup by model-string
// prefix), issue one completion, drain its stream into a single
// reply, and normalize it to the Agent Loop's AssistantMessage shape.
// On the direct branch endpoint.ModelName is passed unmodified; on the
// provider-abstraction branch its "provider/" prefix is stripped and
// the remainder is set as req.Model. No alias table is consulted.
func Send(
	ctx context.Context,
	registry *Registry,
	endpoint types.Endpoint,
	transcript types.Transcript,
	tools []*schema.ToolInfo,
) (types.AssistantMessage, error) {
	req := &CompletionRequest{
		Model:    endpoint.ModelName,
		Messages: ConvertToEinoMessages(transcript),
		Tools:    tools,
	}

	var (
		stream *CompletionStream
		err    error
	)

	if endpoint.BaseURL != "" {
		prov, provErr := NewDirectProvider(ctx, endpoint)
		if provErr != nil {
			return types.AssistantMessage{}, fmt.Errorf("direct transport: %w", provErr)
		}
		stream, err = prov.CreateCompletion(ctx, req)
	} else {
		if registry == nil {
			return types.AssistantMessage{}, fmt.Errorf("provider-abstraction transport: no provider registry configured")
		}
		providerID, modelID := ParseModelString(endpoint.ModelName)
		if providerID == "" {
			providerID = "openai"
			modelID = endpoint.ModelName
		}
		prov, provErr := registry.Get(providerID)
		if provErr != nil {
			return types.AssistantMessage{}, fmt.Errorf("provider-abstraction transport: %w", provErr)
		}
		req.Model = modelID

		retry := newRetryBackoff(ctx)
		err = backoff.Retry(func() error {
			var completionErr error
			stream, completionErr = prov.CreateCompletion(ctx, req)
			return completionErr
		}, retry)
	}
	if err != nil {
		return types.AssistantMessage{}, fmt.Errorf("transport: %w", err)
	}

	msg, err := drainStream(stream)
	if err != nil {
		return types.AssistantMessage{}, fmt.Errorf("transport: %w", err)
	}

	return ConvertFromEinoMessage(msg), nil
}

// drainStream collects every chunk of a streamed completion and
// concatenates them into the single final message the Agent Loop
// appends to its transcript; the transport's internal use of
// streaming is invisible above this package.
func drainStream(stream *CompletionStream) (*schema.Message, error) {
	var chunks []*schema.Message
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			stream.Close()
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	stream.Close()

	if len(chunks) == 0 {
		return &schema.Message{Role: schema.Assistant}, nil
	}
	return schema.ConcatMessages(chunks)
}
