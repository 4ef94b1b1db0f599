package discovery

import (
	"encoding/base64"
	"io"
	"mime/quotedprintable"
	"regexp"
	"strings"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// decodeBody walks the MIME tree and concatenates the readable text of every
// text/plain and text/html part. HTML parts have their tags stripped with a
// best-effort regexp; this is lossy text extraction, not HTML parsing.
func decodeBody(part *MessagePart) string {
	var sb strings.Builder
	walkPart(part, &sb)
	return strings.TrimSpace(sb.String())
}

func walkPart(part *MessagePart, sb *strings.Builder) {
	if part == nil {
		return
	}

	switch {
	case strings.HasPrefix(part.MimeType, "text/plain"):
		if text := decodePartData(part); text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	case strings.HasPrefix(part.MimeType, "text/html"):
		if text := decodePartData(part); text != "" {
			sb.WriteString(htmlTagPattern.ReplaceAllString(text, " "))
			sb.WriteString("\n")
		}
	}

	for _, child := range part.Parts {
		walkPart(child, sb)
	}
}

// decodePartData decodes one part's payload: URL-safe base64 first (the wire
// format of mail APIs), then a quoted-printable pass when the part's transfer
// encoding asks for one.
func decodePartData(part *MessagePart) string {
	if part.Data == "" {
		return ""
	}

	text := decodeBase64URL(part.Data)

	if encodingOf(part) == "quoted-printable" {
		if decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(text))); err == nil {
			text = string(decoded)
		}
	}

	return text
}

// decodeBase64URL decodes URL-safe base64 regardless of padding. Content that
// is not base64 at all is returned verbatim so a permissive provider cannot
// make us drop a message body.
func decodeBase64URL(data string) string {
	trimmed := strings.TrimRight(data, "=")
	if decoded, err := base64.RawURLEncoding.DecodeString(trimmed); err == nil {
		return string(decoded)
	}
	if decoded, err := base64.StdEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	return data
}

func encodingOf(part *MessagePart) string {
	for k, v := range part.Headers {
		if strings.EqualFold(k, "Content-Transfer-Encoding") {
			return strings.ToLower(strings.TrimSpace(v))
		}
	}
	return ""
}
