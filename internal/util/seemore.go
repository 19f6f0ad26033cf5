package util

import "strings"

const (
	SeeMorePadding  = 500
	ZeroWidthSpace  = "\u200b"
	seeMoreMinLines = 6
)

// ApplySeeMore pads after header with zero-width spaces so chat clients fold the body
// behind a "see more" link. Short texts are returned unchanged.
func ApplySeeMore(text, header string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	if strings.Count(text, "\n")+1 < seeMoreMinLines {
		return joinHeader(header, text)
	}

	body := StripLeadingHeader(text, header)
	var b strings.Builder
	b.Grow(len(body) + len(header) + SeeMorePadding*len(ZeroWidthSpace) + 1)
	b.WriteString(strings.TrimSpace(header))
	b.WriteString(strings.Repeat(ZeroWidthSpace, SeeMorePadding))
	if !strings.HasPrefix(body, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(body)
	return b.String()
}

func joinHeader(header, text string) string {
	header = strings.TrimSpace(header)
	if header == "" || strings.HasPrefix(text, header) {
		return text
	}
	return header + "\n" + text
}

// StripLeadingHeader drops header from the first line of text when present.
func StripLeadingHeader(text, header string) string {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(header) == "" {
		return text
	}
	for _, candidate := range []string{header + "\r\n\r\n", header + "\n\n", header + "\r\n", header + "\n", header} {
		if strings.HasPrefix(text, candidate) {
			return strings.TrimPrefix(text, candidate)
		}
	}
	return text
}
