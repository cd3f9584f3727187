package translation

import (
	"context"
	"errors"
	"strings"
)

// AutoDetect asks the provider to detect the source language.
const AutoDetect = "auto"

var (
	ErrTextRequired   = errors.New("text is required")
	ErrTargetRequired = errors.New("target language is required")
)

// Provider turns an item description into another language.
type Provider interface {
	Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error)
	Name() string
	SupportedLanguages() []string
}

type TranslateRequest struct {
	Text string
	// SourceLang is an ISO 639-1 code or AutoDetect. Blank means AutoDetect.
	SourceLang string
	// TargetLang is passed to hosted providers as given and normalized for LLM prompts.
	TargetLang string
}

// trimmed returns req with whitespace removed, or an error when text or target is blank.
func (req TranslateRequest) trimmed() (TranslateRequest, error) {
	out := TranslateRequest{
		Text:       strings.TrimSpace(req.Text),
		SourceLang: strings.TrimSpace(req.SourceLang),
		TargetLang: strings.TrimSpace(req.TargetLang),
	}
	if out.Text == "" {
		return TranslateRequest{}, ErrTextRequired
	}
	if out.TargetLang == "" {
		return TranslateRequest{}, ErrTargetRequired
	}
	if out.SourceLang == "" {
		out.SourceLang = AutoDetect
	}
	return out, nil
}

// RequestError marks a provider rejection caused by the request itself, such as an
// unsupported language pair. It does not count against the provider's health.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsRequestError reports whether err was caused by the request rather than the provider.
func IsRequestError(err error) bool {
	if errors.Is(err, ErrTextRequired) || errors.Is(err, ErrTargetRequired) {
		return true
	}
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

type TranslateResponse struct {
	Text         string
	SourceLang   string
	TargetLang   string
	ProviderName string
	LatencyMs    int64
}
