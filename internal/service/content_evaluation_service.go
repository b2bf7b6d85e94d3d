package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/qvhoang/Peregrine/config"
	"github.com/qvhoang/Peregrine/internal/resilience"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ContentEvaluationService scores a transcript against the presentation
// rubric using the LLM. A response the validator cannot parse still yields a
// usable fallback result; only transport-level failures return an error.
type ContentEvaluationService interface {
	Evaluate(ctx context.Context, assignmentTitle, transcript string) (EvaluationResult, error)
}

type contentEvaluationService struct {
	client *genai.GenerativeModel
	cfg    *config.Config
	rubric Rubric
}

func NewContentEvaluationService(cfg *config.Config) (ContentEvaluationService, error) {
	if cfg.Services.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. ContentEvaluationService will be non-functional.")
		return &contentEvaluationService{cfg: cfg, client: nil, rubric: GeneralPresentationRubric}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Services.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	model := client.GenerativeModel("gemini-1.5-flash")
	return &contentEvaluationService{client: model, cfg: cfg, rubric: GeneralPresentationRubric}, nil
}

func (s *contentEvaluationService) Evaluate(ctx context.Context, assignmentTitle, transcript string) (EvaluationResult, error) {
	if s.client == nil {
		return EvaluationResult{}, fmt.Errorf("gemini client not initialized")
	}

	prompt := buildEvaluationPrompt(s.rubric, assignmentTitle, transcript)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Services.CallTimeout)
	defer cancel()

	text, err := resilience.Call(callCtx, func(ctx context.Context) (string, error) {
		resp, err := s.client.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", asStatusError(err)
		}
		if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
			return "", nil
		}
		fullResponseText := ""
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				fullResponseText += string(txt)
			}
		}
		return fullResponseText, nil
	}, resilience.Options{OnRetry: logRetry("content_evaluation")})
	if err != nil {
		return EvaluationResult{}, fmt.Errorf("content evaluation call failed: %w", err)
	}

	result := ParseEvaluation(text)
	if result.Fallback {
		log.Warn().Str("rawResponse", text).Msg("Evaluation response failed validation, using fallback result")
	}
	return result, nil
}

// asStatusError resurfaces the HTTP status carried inside a Gemini API error
// so the retry layer can classify it like any other upstream response.
func asStatusError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &resilience.StatusError{StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	return err
}
