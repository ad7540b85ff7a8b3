package ai

import (
	"fmt"
	"strings"

	"github.com/abbywylie/Ripple/internal/networking/domain"
)

const (
	// BodyBudget is the character budget of one email body sent to the model
	BodyBudget = 3750

	turnLimit = 2500
	turnHead  = 2000
	turnTail  = 500

	bodyElision = "\n\n[...content truncated...]\n\n"
	turnElision = "\n\n[...truncated...]\n\n"

	// a stripped body shorter than this is considered over-stripped
	minStrippedLength = 40
)

// StripQuotedText drops everything from the first reply header
// ("On ... wrote:") or forwarded-message marker onwards.
func StripQuotedText(body string) string {
	if body == "" {
		return ""
	}
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		low := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(low, "on ") && strings.Contains(low, " wrote:") {
			break
		}
		if strings.Contains(low, "forwarded message") {
			break
		}
		kept = append(kept, line)
	}
	text := strings.TrimSpace(strings.Join(kept, "\n"))
	if len([]rune(text)) < minStrippedLength {
		return strings.TrimSpace(body)
	}
	return text
}

// PrepareBody strips quoted text and truncates to budget characters, keeping
// the first 70% and the last 30% around an elision marker.
func PrepareBody(body string, budget int) string {
	text := StripQuotedText(strings.TrimSpace(body))
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	head := budget * 7 / 10
	tail := budget * 3 / 10
	return string(runes[:head]) + bodyElision + string(runes[len(runes)-tail:])
}

// PrepareThread renders turns as a numbered, speaker-labelled transcript.
// Long bodies keep their first 2000 and last 500 characters.
func PrepareThread(turns []domain.ThreadTurn) string {
	parts := make([]string, 0, len(turns))
	for i, t := range turns {
		who := "Contact"
		if t.Direction == domain.DirectionSent {
			who = "You"
		}
		text := strings.TrimSpace(t.BodyText)
		if runes := []rune(text); len(runes) > turnLimit {
			text = string(runes[:turnHead]) + turnElision + string(runes[len(runes)-turnTail:])
		}
		parts = append(parts, fmt.Sprintf("%d. %s:\n%s\n", i+1, who, text))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// truncateRunes cuts s to at most n characters.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
