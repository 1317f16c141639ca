package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/applypilot/applypilot-api/internal/automation"
	"github.com/applypilot/applypilot-api/internal/config"
)

// defaultPromptTemplate is the built-in tailoring prompt. The template
// receives the job reference and the posting description.
const defaultPromptTemplate = `You are an expert resume writer. Rewrite the
candidate's resume so it emphasizes the experience and skills this job
posting asks for. Keep every claim truthful to the base resume; reorder,
rephrase, and cut, but never invent.

Job title: {{.Job.Title}}
Company: {{.Job.Company}}

Job description:
{{.Description}}

Respond with the complete tailored resume as plain text, no commentary.`

// promptData is the template input for one tailoring call.
type promptData struct {
	Job         automation.JobRef
	Description string
}

// Tailor implements automation.ResumeTailor using the Gemini API.
type Tailor struct {
	logger *slog.Logger
	config config.LLMConfig

	promptTemplate *template.Template
	client         *genai.Client
	model          string
}

var _ automation.ResumeTailor = (*Tailor)(nil)

// NewTailor creates a Tailor from the LLM configuration.
func NewTailor(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Tailor, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}

	promptTemplate, err := template.New("tailor").Parse(defaultPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	return &Tailor{
		logger:         logger.With("component", "resume_tailor"),
		config:         cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
	}, nil
}

// TailorResume implements automation.ResumeTailor.
func (t *Tailor) TailorResume(
	ctx context.Context,
	job automation.JobRef,
	description string,
) (*automation.ResumeArtifact, error) {
	prompt, err := t.createPrompt(job, description)
	if err != nil {
		return nil, err
	}

	text, err := t.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &automation.ResumeArtifact{
		Job:         job,
		ContentType: "text/plain",
		Content:     []byte(text),
	}, nil
}

// createPrompt renders the tailoring prompt for one job.
func (t *Tailor) createPrompt(job automation.JobRef, description string) (string, error) {
	if description == "" {
		return "", ErrEmptyDescription
	}

	var buf bytes.Buffer
	if err := t.promptTemplate.Execute(&buf, promptData{Job: job, Description: description}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// callWithRetry calls the Gemini API with exponential backoff on transient
// errors. Permanent errors (safety blocks, unusable responses) return
// immediately.
func (t *Tailor) callWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := t.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	baseDelaySeconds := t.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		t.logger.InfoContext(ctx, "calling Gemini API",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1,
			"model", t.model)

		text, err := t.callOnce(ctx, prompt)
		if err == nil {
			return text, nil
		}

		t.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attempt+1,
			"error", err)

		// Permanent errors are not worth another attempt.
		if errors.Is(err, ErrContentBlocked) || errors.Is(err, ErrInvalidResponse) {
			return "", err
		}

		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				ErrTransientFailure, maxRetries, err)
		}

		// delay = baseDelay * 2^attempt * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		delaySeconds := backoffSeconds * (0.5 + rng.Float64()*0.5)
		delay := time.Duration(delaySeconds * float64(time.Second))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrTransientFailure, ctx.Err())
		}
	}
}

// callOnce issues a single GenerateContent call and extracts the text.
func (t *Tailor) callOnce(ctx context.Context, prompt string) (string, error) {
	resp, err := t.client.Models.GenerateContent(ctx, t.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini call failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", ErrContentBlocked
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response text", ErrInvalidResponse)
	}
	return text, nil
}
