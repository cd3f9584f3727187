package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/translate"
	"github.com/aws/smithy-go"

	"horse.fit/todos/internal/globaltime"
)

type translateTextAPI interface {
	TranslateText(ctx context.Context, params *translate.TranslateTextInput, optFns ...func(*translate.Options)) (*translate.TranslateTextOutput, error)
}

// AWSProvider translates text with Amazon Translate.
type AWSProvider struct {
	client translateTextAPI
}

// NewAWSProvider builds a provider from a loaded AWS config. A non-empty endpoint
// overrides the service endpoint (for example a local mock).
func NewAWSProvider(cfg aws.Config, endpoint string) *AWSProvider {
	endpoint = strings.TrimSpace(endpoint)
	client := translate.NewFromConfig(cfg, func(o *translate.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return &AWSProvider{client: client}
}

func (p *AWSProvider) Name() string {
	return "aws"
}

func (p *AWSProvider) SupportedLanguages() []string {
	return SupportedTranslationLanguageCodes()
}

func (p *AWSProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("aws provider is nil")
	}
	req, err := req.trimmed()
	if err != nil {
		return nil, err
	}
	text, sourceLang, targetLang := req.Text, req.SourceLang, req.TargetLang

	started := globaltime.Now()
	out, err := p.client.TranslateText(ctx, &translate.TranslateTextInput{
		Text:               aws.String(text),
		SourceLanguageCode: aws.String(sourceLang),
		TargetLanguageCode: aws.String(targetLang),
	})
	if err != nil {
		err = fmt.Errorf("amazon translate: %w", err)
		if isAWSClientFault(err) {
			return nil, &RequestError{Err: err}
		}
		return nil, err
	}

	translated := strings.TrimSpace(aws.ToString(out.TranslatedText))
	if translated == "" {
		return nil, fmt.Errorf("amazon translate returned empty text")
	}

	return &TranslateResponse{
		Text:         translated,
		SourceLang:   aws.ToString(out.SourceLanguageCode),
		TargetLang:   targetLang,
		ProviderName: p.Name(),
		LatencyMs:    globaltime.Since(started).Milliseconds(),
	}, nil
}

// isAWSClientFault reports a 4xx rejection of the request itself. Throttling and
// credential errors stay provider failures.
func isAWSClientFault(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorFault() != smithy.FaultClient {
		return false
	}
	switch apiErr.ErrorCode() {
	case "TooManyRequestsException", "ThrottlingException", "LimitExceededException",
		"ServiceUnavailableException", "AccessDeniedException", "UnrecognizedClientException":
		return false
	}
	return true
}
