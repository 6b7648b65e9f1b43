package interfaces

import "context"

// InvokeResult carries the model output plus invocation metadata the
// caller may surface (provider substitution, attempts used).
type InvokeResult struct {
	// Text is the raw model output.
	Text string

	// Provider is the provider that actually served the call.
	Provider string

	// Model is the model that actually served the call.
	Model string

	// Substituted is true when the requested model's provider had no
	// configured credential and the default provider served instead.
	Substituted bool

	// SubstitutionNotice is a human-readable note describing the
	// substitution, empty when Substituted is false.
	SubstitutionNotice string

	// Attempts is the number of attempts the call took, including retries.
	Attempts int
}

// ModelGateway is the uniform interface to pluggable text-completion
// providers. Implementations retry transient failures internally and
// only surface a model error once the retry budget is exhausted.
type ModelGateway interface {
	// Invoke sends a prompt to the provider selected by modelID and
	// returns the completion text. A provider without a configured
	// credential is silently substituted by the default provider; the
	// result records the substitution. Each call carries a hard
	// per-attempt timeout independent of caller cancellation.
	Invoke(ctx context.Context, prompt, modelID string) (*InvokeResult, error)

	// Available reports whether the given provider has a credential
	// in the startup snapshot.
	Available(provider string) bool
}
