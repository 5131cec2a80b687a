package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"dateQuestAPI/internal/challenge"
	"dateQuestAPI/internal/participant"
	"dateQuestAPI/internal/questerr"
)

// ChallengeGenerator produces a quest's challenge catalog from both
// participants' profile summaries. Callers must treat failure as soft:
// quest creation falls back to DefaultCatalog.
type ChallengeGenerator interface {
	GenerateCatalog(ctx context.Context, a, b *participant.ProfileSummary) ([]challenge.Definition, error)
}

// InsightGenerator turns two approved submissions into a compatibility
// insight. Failures are logged by the caller and never surface to users.
type InsightGenerator interface {
	GenerateInsight(ctx context.Context, prompt, submissionA, submissionB string) (*challenge.Insight, error)
}

// DefaultCatalog is the fixed fallback used whenever generation fails, so
// quest creation never hard-fails on the collaborator.
func DefaultCatalog() []challenge.Definition {
	return []challenge.Definition{
		{Type: challenge.TypeText, Prompt: "Describe your perfect lazy Sunday to each other.", TimeLimitSeconds: 86400},
		{Type: challenge.TypeText, Prompt: "Share the story behind something you own and would never give away.", TimeLimitSeconds: 86400},
		{Type: challenge.TypeImage, Prompt: "Photograph the view you see every morning.", TimeLimitSeconds: 172800},
		{Type: challenge.TypeLocation, Prompt: "Visit a place in your city you have never been to and check in.", TimeLimitSeconds: 259200},
		{Type: challenge.TypeText, Prompt: "Write three questions you want to ask on the final date.", TimeLimitSeconds: 86400},
	}
}

// GenerationService calls an OpenAI-compatible chat completions API for
// catalog and insight generation.
type GenerationService struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewGenerationService() *GenerationService {
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &GenerationService{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     os.Getenv("OPENAI_API_KEY"),
		model:      model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (s *GenerationService) complete(ctx context.Context, system, user string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY not set: %w", questerr.ErrExternalService)
	}

	reqBody := chatRequest{Model: s.model, Messages: []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}}
	reqBody.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w: %w", err, questerr.ErrExternalService)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API returned %d: %s: %w", resp.StatusCode, string(body), questerr.ErrExternalService)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion API returned no choices: %w", questerr.ErrExternalService)
	}

	return parsed.Choices[0].Message.Content, nil
}

const catalogSystemPrompt = `You design connection challenges for a dating app quest. ` +
	`Given two profiles, return JSON {"challenges":[{"type":"text|image|location","prompt":"...","timeLimitSeconds":N}]} ` +
	`with exactly 5 challenges ordered from light to deep.`

func (s *GenerationService) GenerateCatalog(ctx context.Context, a, b *participant.ProfileSummary) ([]challenge.Definition, error) {
	user, err := json.Marshal(map[string]any{"profileA": a, "profileB": b})
	if err != nil {
		return nil, fmt.Errorf("failed to encode profiles: %w", err)
	}

	content, err := s.complete(ctx, catalogSystemPrompt, string(user))
	if err != nil {
		return nil, err
	}

	var out struct {
		Challenges []challenge.Definition `json:"challenges"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("failed to decode generated catalog: %w: %w", err, questerr.ErrExternalService)
	}
	if len(out.Challenges) != challenge.CatalogSize {
		return nil, fmt.Errorf("generator returned %d challenges, want %d: %w", len(out.Challenges), challenge.CatalogSize, questerr.ErrExternalService)
	}
	for i := range out.Challenges {
		c := &out.Challenges[i]
		switch c.Type {
		case challenge.TypeText, challenge.TypeImage, challenge.TypeLocation:
		default:
			return nil, fmt.Errorf("generator returned unknown challenge type %q: %w", c.Type, questerr.ErrExternalService)
		}
		if c.Prompt == "" || c.TimeLimitSeconds <= 0 {
			return nil, fmt.Errorf("generator returned malformed challenge %d: %w", i, questerr.ErrExternalService)
		}
	}

	return out.Challenges, nil
}

const insightSystemPrompt = `You write short compatibility insights for a dating app. ` +
	`Given a challenge prompt and both partners' submissions, return JSON {"title":"...","description":"..."} ` +
	`highlighting what their answers reveal about their connection. Two sentences max.`

func (s *GenerationService) GenerateInsight(ctx context.Context, prompt, submissionA, submissionB string) (*challenge.Insight, error) {
	user, err := json.Marshal(map[string]string{
		"challenge":   prompt,
		"submissionA": submissionA,
		"submissionB": submissionB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode submissions: %w", err)
	}

	content, err := s.complete(ctx, insightSystemPrompt, string(user))
	if err != nil {
		return nil, err
	}

	var out challenge.Insight
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("failed to decode generated insight: %w: %w", err, questerr.ErrExternalService)
	}
	if out.Title == "" || out.Description == "" {
		return nil, fmt.Errorf("generator returned empty insight: %w", questerr.ErrExternalService)
	}

	return &out, nil
}
