package llm

import "context"

// Provider generates a completion for a fully rendered prompt.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
