package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_generator.go -package=mocks docchat/internal/llm Generator

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// MaxOutputTokens is the fixed output cap applied to every generation call.
const MaxOutputTokens = 8192

// SupportedModels lists the model identifiers the generator accepts.
// Anything else is rejected at construction time; no silent defaults.
var SupportedModels = []string{
	"gemini-1.5-pro",
	"gemini-2.5-pro",
}

// Generator produces text from a system instruction and user content.
// Sampling is deterministic (temperature 0) and the output size is capped.
type Generator interface {
	// Generate sends one synchronous request and returns the generated text.
	// Returns an empty string when the provider returns no candidates.
	Generate(ctx context.Context, system, user string) (string, error)
}

// GeminiGenerator implements Generator against the Gemini API.
type GeminiGenerator struct {
	apiKey string
	model  string
}

// NewGeminiGenerator validates provider and model and returns a generator.
// provider must be "gemini" and model must be one of SupportedModels.
func NewGeminiGenerator(provider, model, apiKey string) (*GeminiGenerator, error) {
	if strings.ToLower(strings.TrimSpace(provider)) != "gemini" {
		return nil, fmt.Errorf("unsupported LLM provider %q: only gemini is allowed", provider)
	}
	model = strings.TrimSpace(model)
	supported := false
	for _, m := range SupportedModels {
		if model == m {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("unsupported LLM model %q: supported models: %s", model, strings.Join(SupportedModels, ", "))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing Gemini API key")
	}
	return &GeminiGenerator{apiKey: apiKey, model: model}, nil
}

// Generate sends a single-turn request with a system instruction.
func (g *GeminiGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create genai client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0),
		MaxOutputTokens: MaxOutputTokens,
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	resp, err := client.Models.GenerateContent(
		ctx,
		g.model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: user}}}},
		config,
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Text()), nil
}
