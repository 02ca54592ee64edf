package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/careerlab/careerlab-os/pkg/config"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
)

// Generator is the text-completion dependency consumed by services. Every
// response is untrusted input; callers validate before persisting.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client wraps the Gemini SDK behind the Generator interface.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient builds a Gemini-backed generator.
func NewClient(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Client{client: client, model: model}, nil
}

// Generate sends a prompt and returns the plain-text completion. Quota
// exhaustion is mapped to the RATE_LIMITED error so handlers can surface
// the "try again in a minute" copy.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return "", appErrors.Wrap(err, appErrors.ErrRateLimited.Code, appErrors.ErrRateLimited.Status, "model quota exhausted, please wait a minute")
		}
		return "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "text completion failed")
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", appErrors.Clone(appErrors.ErrUpstream, "model returned an empty completion")
	}
	return text, nil
}

// StripFences removes markdown code fences the model sometimes wraps
// around JSON payloads despite instructions.
func StripFences(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}
