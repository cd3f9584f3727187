package translation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSettings configures the circuit breaker placed in front of a provider.
type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
	// CallTimeout bounds each Translate call. Zero leaves the caller's deadline alone.
	CallTimeout   time.Duration
	OnStateChange func(name, from, to string)
}

// BreakerProvider fails fast once the wrapped provider keeps failing.
type BreakerProvider struct {
	next        Provider
	cb          *gobreaker.CircuitBreaker
	callTimeout time.Duration
}

func WithBreaker(next Provider, settings BreakerSettings) *BreakerProvider {
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openTimeout := settings.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "translation-" + next.Name(),
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up or sending a bad request says nothing about the provider's health.
			return err == nil || errors.Is(err, context.Canceled) || IsRequestError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if settings.OnStateChange != nil {
				settings.OnStateChange(name, from.String(), to.String())
			}
		},
	})
	return &BreakerProvider{next: next, cb: cb, callTimeout: settings.CallTimeout}
}

func (b *BreakerProvider) Name() string {
	return b.next.Name()
}

func (b *BreakerProvider) SupportedLanguages() []string {
	return b.next.SupportedLanguages()
}

// ModelName forwards to the wrapped provider when it reports one.
func (b *BreakerProvider) ModelName() string {
	return ModelName(b.next)
}

func (b *BreakerProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if _, err := req.trimmed(); err != nil {
		return nil, err
	}
	out, err := b.cb.Execute(func() (interface{}, error) {
		callCtx := ctx
		if b.callTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, b.callTimeout)
			defer cancel()
		}
		return b.next.Translate(callCtx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("translation provider %s unavailable: %w", b.next.Name(), err)
		}
		return nil, err
	}
	resp, ok := out.(*TranslateResponse)
	if !ok || resp == nil {
		return nil, fmt.Errorf("translation provider %s returned no response", b.next.Name())
	}
	return resp, nil
}

type modelNameProvider interface {
	ModelName() string
}

// ModelName returns the provider's model identifier, or "" when it has none.
func ModelName(provider Provider) string {
	named, ok := provider.(modelNameProvider)
	if !ok {
		return ""
	}
	return named.ModelName()
}
