package answer

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// GenkitGenerator produces answer text with a Genkit model.
type GenkitGenerator struct {
	g         *genkit.Genkit
	modelName string
}

// NewGenkitGenerator wraps a Genkit instance. modelName is the fully
// qualified model name, e.g. "googleai/gemini-2.5-flash".
func NewGenkitGenerator(g *genkit.Genkit, modelName string) (*GenkitGenerator, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	return &GenkitGenerator{g: g, modelName: modelName}, nil
}

func (gg *GenkitGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, gg.g,
		ai.WithModelName(gg.modelName),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("generating response: %w", err)
	}
	return resp.Text(), nil
}
