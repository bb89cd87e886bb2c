package ai

import "context"

// Generator sends a single prompt to a hosted language model and returns the
// text completion. No streaming, tools or structured output are involved.
type Generator interface {
	GenerateContent(ctx context.Context, systemInstruction, message string) (string, error)
	Model() string
}
