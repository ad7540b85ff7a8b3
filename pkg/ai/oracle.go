package ai

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/abbywylie/Ripple/internal/networking/domain"
)

const defaultOracleTimeout = 30 * time.Second

// Oracle classifies, summarizes and reviews email through a completion
// provider. Its methods never return errors: every failure degrades to the
// conservative answer (not networking, empty summary, no meeting).
type Oracle struct {
	provider Provider
	timeout  time.Duration
}

// NewOracle creates an oracle. A nil provider yields an oracle that always
// answers with the safe defaults.
func NewOracle(provider Provider, timeout time.Duration) *Oracle {
	if timeout <= 0 {
		timeout = defaultOracleTimeout
	}
	return &Oracle{
		provider: provider,
		timeout:  timeout,
	}
}

// complete runs one bounded completion. ok is false on any failure.
func (o *Oracle) complete(ctx context.Context, task Task, prompt string) (string, bool) {
	if o == nil || o.provider == nil {
		log.Printf("[Oracle] %s skipped: no AI provider configured", task)
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	raw, err := o.provider.Complete(ctx, task, prompt)
	if err != nil {
		log.Printf("[Oracle] %s via %s failed: %v", task, o.provider.Name(), err)
		return "", false
	}
	return strings.TrimSpace(raw), true
}

// ClassifyAndSummarize decides whether a first-contact email is networking
// and, if so, summarizes it.
func (o *Oracle) ClassifyAndSummarize(ctx context.Context, subject, body string) (bool, string) {
	prompt := buildClassifyPrompt(subject, PrepareBody(body, BodyBudget))
	raw, ok := o.complete(ctx, TaskClassify, prompt)
	if !ok {
		return false, ""
	}

	obj, ok := decodeObject(raw)
	if !ok {
		log.Printf("[Oracle] classify: no JSON object in response: %.200s", raw)
		return false, ""
	}

	networking := truthy(obj["networking"])
	if !networking {
		return false, ""
	}
	summary := truncateRunes(strings.TrimSpace(stringField(obj, "summary")), domain.MaxSummaryLength)
	return true, summary
}

// SummarizeEmail summarizes a follow-up email of a known networking thread.
func (o *Oracle) SummarizeEmail(ctx context.Context, subject, body string) string {
	prompt := buildSummaryPrompt(subject, PrepareBody(body, BodyBudget))
	raw, ok := o.complete(ctx, TaskSummarize, prompt)
	if !ok {
		return ""
	}

	obj, ok := decodeObject(raw)
	if !ok {
		log.Printf("[Oracle] summarize: no JSON object in response: %.200s", raw)
		return ""
	}
	return truncateRunes(strings.TrimSpace(stringField(obj, "summary")), domain.MaxSummaryLength)
}

// DetectMeeting reports whether the thread shows a concrete time that the
// counterparty clearly accepted.
func (o *Oracle) DetectMeeting(ctx context.Context, turns []domain.ThreadTurn) bool {
	if len(turns) == 0 {
		return false
	}
	transcript := PrepareThread(turns)
	if transcript == "" {
		return false
	}

	raw, ok := o.complete(ctx, TaskMeeting, buildMeetingPrompt(transcript))
	if !ok {
		return false
	}

	obj, ok := decodeObject(raw)
	if !ok {
		log.Printf("[Oracle] meeting: no JSON object in response: %.200s", raw)
		return false
	}
	return truthy(obj["meeting_scheduled"])
}
