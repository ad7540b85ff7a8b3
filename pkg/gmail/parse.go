package gmail

import (
	"encoding/base64"
	"regexp"
	"sort"
	"strings"

	"github.com/abbywylie/Ripple/internal/networking/domain"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/net/html"
	"google.golang.org/api/gmail/v1"
)

var (
	emailPattern     = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	replyHeader      = regexp.MustCompile(`(?i)On .*? wrote:`)
	quotedLine       = regexp.MustCompile(`(?m)^>.*$`)
	trailingSig      = regexp.MustCompile(`(?s)\n--\s*\n.*$`)
	repeatedNewlines = regexp.MustCompile(`\n\s*\n+`)
)

// ToMailMessage converts a Gmail API message fetched with format=full.
func ToMailMessage(msg *gmail.Message) domain.MailMessage {
	out := domain.MailMessage{
		ID:           msg.Id,
		ThreadID:     msg.ThreadId,
		LabelIDs:     msg.LabelIds,
		InternalDate: msg.InternalDate,
	}
	if msg.Payload == nil {
		out.BodyText = msg.Snippet
		return out
	}

	headers := msg.Payload.Headers
	out.Subject = decodeHeader("Subject", getHeader(headers, "Subject"))
	out.From = parseAddressList(getHeader(headers, "From"))
	out.To = parseAddressList(getHeader(headers, "To"))
	out.BodyText = extractBodyText(msg)
	return out
}

// ToThreadTurns converts a fetched thread into cleaned turns, oldest first.
// A turn is "sent" when its first From address is the owner.
func ToThreadTurns(thread *gmail.Thread, ownerEmail string) []domain.ThreadTurn {
	owner := strings.ToLower(strings.TrimSpace(ownerEmail))
	turns := make([]domain.ThreadTurn, 0, len(thread.Messages))

	for _, msg := range thread.Messages {
		m := ToMailMessage(msg)

		direction := domain.DirectionReceived
		if owner != "" && len(m.From) > 0 && strings.ToLower(m.From[0].Email) == owner {
			direction = domain.DirectionSent
		}

		turns = append(turns, domain.ThreadTurn{
			Timestamp: m.InternalDate,
			Direction: direction,
			Subject:   m.Subject,
			BodyText:  CleanBodyText(m.BodyText),
		})
	}

	sort.SliceStable(turns, func(i, j int) bool {
		return turns[i].Timestamp < turns[j].Timestamp
	})
	return turns
}

// CleanBodyText drops reply headers, quoted lines, a trailing signature and
// blank lines from a message body.
func CleanBodyText(text string) string {
	if text == "" {
		return ""
	}
	t := replyHeader.ReplaceAllString(text, "")
	t = quotedLine.ReplaceAllString(t, "")
	t = trailingSig.ReplaceAllString(t, "")
	t = repeatedNewlines.ReplaceAllString(t, "\n")
	return strings.TrimSpace(t)
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

// decodeHeader decodes RFC 2047 encoded words, keeping the raw value on error
func decodeHeader(name, value string) string {
	if value == "" {
		return ""
	}
	var h mail.Header
	h.Set(name, value)
	decoded, err := h.Text(name)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(decoded)
}

// parseAddressList parses a From/To header into (name, email) pairs. Headers
// that fail RFC 5322 parsing fall back to scraping bare addresses.
func parseAddressList(value string) []domain.Address {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	var h mail.Header
	h.Set("To", value)
	list, err := h.AddressList("To")
	if err == nil {
		out := make([]domain.Address, 0, len(list))
		for _, a := range list {
			email := strings.TrimSpace(a.Address)
			if email == "" {
				continue
			}
			out = append(out, domain.Address{Name: strings.TrimSpace(a.Name), Email: email})
		}
		return out
	}

	var out []domain.Address
	for _, email := range emailPattern.FindAllString(value, -1) {
		out = append(out, domain.Address{Email: email})
	}
	return out
}

// extractBodyText returns the best plain text for a message: the direct
// payload body, then the first text/plain part, then the first text/html part
// with tags removed, then the snippet.
func extractBodyText(msg *gmail.Message) string {
	payload := msg.Payload

	if payload.Body != nil && payload.Body.Data != "" {
		if data, ok := decodeBase64(payload.Body.Data); ok {
			if payload.MimeType == "text/html" {
				return htmlToText(data)
			}
			return data
		}
	}

	if text := findPart(payload.Parts, "text/plain"); text != "" {
		return text
	}
	if raw := findPart(payload.Parts, "text/html"); raw != "" {
		return htmlToText(raw)
	}
	return msg.Snippet
}

// findPart returns the decoded body of the first part with mimeType,
// searching nested multiparts depth first.
func findPart(parts []*gmail.MessagePart, mimeType string) string {
	for _, part := range parts {
		if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
			if data, ok := decodeBase64(part.Body.Data); ok {
				return data
			}
		}
		if len(part.Parts) > 0 {
			if data := findPart(part.Parts, mimeType); data != "" {
				return data
			}
		}
	}
	return ""
}

func decodeBase64(data string) (string, bool) {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b), true
	}
	if b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "=")); err == nil {
		return string(b), true
	}
	return "", false
}

// htmlToText keeps the text nodes of an HTML document, skipping script and
// style contents.
func htmlToText(doc string) string {
	z := html.NewTokenizer(strings.NewReader(doc))
	var b strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}
