package translation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"horse.fit/todos/internal/globaltime"
	"horse.fit/todos/internal/language"
)

const (
	// DefaultOpenAIEndpoint points to a local OpenAI-compatible translation endpoint.
	DefaultOpenAIEndpoint = "http://127.0.0.1:8845/v1"
	// DefaultOpenAIModel is the default HY-MT model name.
	DefaultOpenAIModel = "tencent/HY-MT1.5-7B"
)

// OpenAIProvider translates text through an OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider builds a provider for the given endpoint/model. apiKey may be empty
// for local servers that do not check it.
func NewOpenAIProvider(endpoint, model, apiKey string, timeout time.Duration) *OpenAIProvider {
	trimmedModel := strings.TrimSpace(model)
	if trimmedModel == "" {
		trimmedModel = DefaultOpenAIModel
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	cfg.BaseURL = normalizeEndpoint(endpoint)
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  trimmedModel,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

// ModelName returns the configured model identifier.
func (p *OpenAIProvider) ModelName() string {
	if p == nil {
		return ""
	}
	return p.model
}

func (p *OpenAIProvider) SupportedLanguages() []string {
	return SupportedTranslationLanguageCodes()
}

func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("openai provider is nil")
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
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildHYMTPrompt(text, sourceLang, targetLang),
			},
		},
		Temperature: 0.7,
		TopP:        0.6,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			statusErr := fmt.Errorf("translation endpoint status %d: %s", apiErr.HTTPStatusCode, strings.TrimSpace(apiErr.Message))
			if isClientStatus(apiErr.HTTPStatusCode) {
				return nil, &RequestError{Err: statusErr}
			}
			return nil, statusErr
		}
		return nil, fmt.Errorf("send translation request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("translation response missing choices")
	}

	translated := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translated == "" {
		return nil, fmt.Errorf("translation response was empty")
	}

	return &TranslateResponse{
		Text:         translated,
		SourceLang:   sourceLang,
		TargetLang:   targetLang,
		ProviderName: p.Name(),
		LatencyMs:    globaltime.Since(started).Milliseconds(),
	}, nil
}

func buildHYMTPrompt(text, sourceLang, targetLang string) string {
	target := language.Lookup(targetLang)
	if language.IsChinese(sourceLang) || language.IsChinese(targetLang) {
		// HY-MT zh<=>xx template.
		return fmt.Sprintf("将以下文本翻译为%s，注意只需要输出翻译后的结果，不要额外解释：\n\n%s", target.Chinese, text)
	}
	// HY-MT xx<=>xx template.
	return fmt.Sprintf("Translate the following segment into %s, without additional explanation.\n\n%s", target.English, text)
}

// normalizeEndpoint returns an absolute base URL ending in the API version path.
// go-openai appends /chat/completions itself.
func normalizeEndpoint(raw string) string {
	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		return DefaultOpenAIEndpoint
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}

	parsed, err := url.Parse(endpoint)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		return DefaultOpenAIEndpoint
	}
	path := strings.TrimRight(parsed.Path, "/")
	path = strings.TrimSuffix(path, "/chat/completions")
	if path == "" {
		path = "/v1"
	}
	parsed.Path = path
	return parsed.String()
}

// isClientStatus reports a 4xx caused by the request. Rate limiting and rejected
// credentials stay provider failures.
func isClientStatus(code int) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return false
	}
	return code >= http.StatusBadRequest && code < http.StatusInternalServerError
}
