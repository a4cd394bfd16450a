package port

import "context"

// Generator represents a language model used for answer generation.
// The model is treated as a black-box completion service; callers bound
// the call with the context deadline.
type Generator interface {
	// Generate generates text based on the prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
