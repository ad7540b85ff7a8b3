package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LevenshteinDistance calculates the edit distance between two strings after
// normalization (lowercase, accents removed, whitespace collapsed).
func LevenshteinDistance(s1, s2 string) int {
	return distance([]rune(Normalize(s1)), []rune(Normalize(s2)))
}

func distance(r1, r2 []rune) int {
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

// Threshold returns the typo tolerance for a query of the given length
func Threshold(query string) int {
	n := len([]rune(Normalize(query)))
	switch {
	case n <= 3:
		return 1
	case n >= 8:
		return 3
	default:
		return 2
	}
}

// ContactScore scores how well query matches a contact. Zero means no match.
// The display name weighs more than the email address.
func ContactScore(query, name, email string) float64 {
	q := Normalize(query)
	if q == "" {
		return 0
	}
	qr := []rune(q)
	threshold := Threshold(q)
	score := 0.0

	nameNorm := Normalize(name)
	if strings.Contains(nameNorm, q) {
		score += 100
		if containsWord(nameNorm, q) {
			score += 50
		}
	} else {
		for _, word := range strings.Fields(nameNorm) {
			if strings.HasPrefix(word, q) {
				score += 40
				continue
			}
			if d := distance(qr, []rune(word)); d <= threshold {
				score += 50 - float64(d)*15
			}
		}
	}

	emailNorm := Normalize(email)
	local, domain := emailNorm, ""
	if idx := strings.Index(emailNorm, "@"); idx > 0 {
		local, domain = emailNorm[:idx], emailNorm[idx+1:]
	}
	switch {
	case local == q:
		score += 90
	case strings.HasPrefix(local, q):
		score += 60
	case strings.Contains(emailNorm, q):
		score += 40
	default:
		for _, part := range splitLocal(local) {
			if d := distance(qr, []rune(part)); d <= threshold {
				score += 30 - float64(d)*8
				break
			}
		}
	}
	if domain != "" && strings.HasPrefix(domain, q) {
		score += 10
	}

	return score
}

// MatchContact reports whether query fuzzy-matches the contact's name or email
func MatchContact(query, name, email string) bool {
	return ContactScore(query, name, email) > 0
}

// Normalize lowercases s, strips diacritics and collapses whitespace
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ReplaceAll(folded, "đ", "d")
	folded = strings.ReplaceAll(folded, "Đ", "d")
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// splitLocal breaks an email local part like "jane.doe_92" into words
func splitLocal(local string) []string {
	return strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
}

// containsWord checks if text contains query as a whole word
func containsWord(text, query string) bool {
	for _, word := range strings.Fields(text) {
		if word == query {
			return true
		}
	}
	return false
}
