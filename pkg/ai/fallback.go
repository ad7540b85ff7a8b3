package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
)

// FallbackService tries each provider in order until one answers
type FallbackService struct {
	providers []Provider
}

// NewFallbackService creates a fallback chain, skipping nil providers
func NewFallbackService(providers ...Provider) *FallbackService {
	chain := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			chain = append(chain, p)
		}
	}
	return &FallbackService{providers: chain}
}

func (f *FallbackService) Name() string {
	names := make([]string, 0, len(f.providers))
	for _, p := range f.providers {
		names = append(names, p.Name())
	}
	return "fallback(" + strings.Join(names, ",") + ")"
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return containsAny(err.Error(),
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"EOF",
	)
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(),
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"RESOURCE_EXHAUSTED",
	)
}

func containsAny(s string, indicators ...string) bool {
	s = strings.ToLower(s)
	for _, indicator := range indicators {
		if strings.Contains(s, strings.ToLower(indicator)) {
			return true
		}
	}
	return false
}

// Complete implements Provider
func (f *FallbackService) Complete(ctx context.Context, task Task, prompt string) (string, error) {
	var lastErr error
	for i, p := range f.providers {
		result, err := p.Complete(ctx, task, prompt)
		if err == nil {
			if i > 0 {
				log.Printf("[AI] %s answered %s after fallback", p.Name(), task)
			}
			return result, nil
		}
		lastErr = err

		// the caller's deadline is shared by the whole chain
		if ctx.Err() != nil {
			return "", fmt.Errorf("%s: %w", p.Name(), ctx.Err())
		}

		switch {
		case isQuotaError(err):
			log.Printf("[AI] %s quota exhausted: %v, trying next provider", p.Name(), err)
		case isConnectionError(err):
			log.Printf("[AI] %s connection failed: %v, trying next provider", p.Name(), err)
		default:
			log.Printf("[AI] %s error: %v, trying next provider", p.Name(), err)
		}
	}

	if lastErr == nil {
		return "", fmt.Errorf("no AI provider available for %s", task)
	}
	return "", fmt.Errorf("all AI providers failed for %s: %w", task, lastErr)
}
