package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/osvaldoandrade/imagegenie/internal/backend"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"
)

const (
	enhanceSystemPrompt = "You are a creative assistant that helps enhance text prompts for AI image generation."
	// EnhanceFallback is returned when the text model produces nothing.
	EnhanceFallback = "Could not enhance the prompt. Please try again or use the original prompt."
)

const enhanceUserPrompt = `
Here is a user's prompt for AI image generation:
'%s'

Please enhance this prompt to be more detailed and descriptive. Focus on:
1. Adding visual details that would help create a better image
2. Specifying artistic style, lighting, perspective, and composition
3. Using descriptive adjectives and clear visual language

Keep the essence and main subject of the original prompt intact.
Return ONLY the enhanced prompt text with no explanations, introductions, or other text.
`

type EnhanceService interface {
	Enhance(ctx context.Context, prompt string) (string, error)
}

type enhanceService struct {
	client backend.Client
	model  string
	logger *slog.Logger
}

func NewEnhanceService(client backend.Client, model string, logger *slog.Logger) EnhanceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &enhanceService{client: client, model: model, logger: logger}
}

func (s *enhanceService) Enhance(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", domain.ErrEmptyPrompt
	}
	s.logger.Info(fmt.Sprintf("Starting prompt enhancement with text: '%s'", prompt))

	out, err := s.client.Run(ctx, s.model, map[string]any{
		"system":      enhanceSystemPrompt,
		"prompt":      fmt.Sprintf(enhanceUserPrompt, prompt),
		"temperature": 0.7,
		"max_tokens":  10500,
	})
	if err != nil {
		s.logger.Error("Error enhancing prompt: " + err.Error())
		return "", fmt.Errorf("enhance prompt: %w", err)
	}
	text := out.Text()
	if strings.TrimSpace(text) == "" {
		s.logger.Warn("Warning: Received empty response from API")
		return EnhanceFallback, nil
	}
	return strings.TrimSpace(text), nil
}
