package translation

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"horse.fit/todos/internal/globaltime"
	"horse.fit/todos/internal/language"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider translates text with the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	trimmedModel := strings.TrimSpace(model)
	if trimmedModel == "" {
		trimmedModel = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: trimmedModel}, nil
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) ModelName() string {
	if p == nil {
		return ""
	}
	return p.model
}

func (p *GeminiProvider) SupportedLanguages() []string {
	return SupportedTranslationLanguageCodes()
}

func (p *GeminiProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("gemini provider is nil")
	}
	req, err := req.trimmed()
	if err != nil {
		return nil, err
	}
	text := req.Text
	targetLang := language.Code(req.TargetLang)
	if targetLang == "" {
		return nil, ErrTargetRequired
	}
	sourceLang := resolveSourceLang(req.SourceLang, text)

	started := globaltime.Now()
	resp, err := p.client.Models.GenerateContent(
		ctx,
		p.model,
		genai.Text(buildHYMTPrompt(text, sourceLang, targetLang)),
		&genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0.2)},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	translated := strings.TrimSpace(resp.Text())
	if translated == "" {
		return nil, fmt.Errorf("gemini response was empty")
	}

	return &TranslateResponse{
		Text:         translated,
		SourceLang:   sourceLang,
		TargetLang:   targetLang,
		ProviderName: p.Name(),
		LatencyMs:    globaltime.Since(started).Milliseconds(),
	}, nil
}
