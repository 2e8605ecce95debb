// Package provider is the LLM Transport (C4) of this runtime: spec
// §4.4's single contract, send(endpoint, transcript, tool-schemas) ->
// assistant-message, implemented over the Eino framework.
//
// # Two branches, one contract
//
// Send (transport.go) picks one of two branches per call, decided
// entirely by the Endpoint the Model Router selected — never by global
// configuration:
//
//   - direct: endpoint.BaseURL is set. NewDirectProvider opens a raw
//     OpenAI-compatible client against that URL, defaulting an empty
//     credential to "local" (self-hosted inference servers commonly
//     accept any bearer value). Used for local/offline models.
//   - provider-abstraction: endpoint.BaseURL is empty.
//     ParseModelString splits endpoint.ModelName on the first "/" into
//     a provider id and a model id (defaulting to "openai" when
//     unprefixed) and looks the provider up in the Registry built by
//     InitializeProviders from config.Provider. This branch retries
//     its completion call with cenkalti/backoff/v4 (exponential,
//     jittered, capped) — the direct branch does not, since a
//     misconfigured local endpoint should fail fast rather than retry
//     into a closed port.
//
// Both branches issue one streaming CreateCompletion call and drain it
// into a single schema.Message via schema.ConcatMessages; the Agent
// Loop (C1) never sees the stream. The direct branch passes
// endpoint.ModelName unmodified; the provider-abstraction branch strips
// its "provider/" prefix into req.Model. There is no alias table.
//
// # Providers
//
// Provider wraps one Eino chat model (Anthropic Claude via
// eino-ext/components/model/claude, OpenAI via .../model/openai,
// Volcengine ARK via .../model/ark) behind CreateCompletion/Models/ID.
// Registry (registry.go) holds one Provider per configured entry,
// keyed by its config map key ("anthropic", "openai", "ark", or an
// arbitrary name for an OpenAI-compatible third-party host).
//
//	registry, err := InitializeProviders(ctx, cfg)
//	reply, err := Send(ctx, registry, endpoint, transcript, tools)
//
// # Error handling
//
// CreateCompletion failures are wrapped with %w up through Send; the
// Agent Loop converts the final error into an agenterror.TransportError
// and reports it as the task's failure response rather than retrying —
// retries belong to this package's provider-abstraction branch alone.
package provider
