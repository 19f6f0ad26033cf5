package util

import (
	"strings"
	"testing"
)

func TestApplySeeMoreShortText(t *testing.T) {
	got := ApplySeeMore("a\nb", "Header")
	if got != "Header\na\nb" {
		t.Fatalf("got %q", got)
	}
	if ApplySeeMore("", "Header") != "" {
		t.Fatalf("empty text changed")
	}
}

func TestApplySeeMoreLongText(t *testing.T) {
	body := strings.Repeat("line\n", 8)
	got := ApplySeeMore("Header\n"+body, "Header")
	if !strings.HasPrefix(got, "Header"+ZeroWidthSpace) {
		t.Fatalf("missing padding: %q", got[:20])
	}
	if strings.Count(got, ZeroWidthSpace) != SeeMorePadding || strings.Count(got, "Header") != 1 {
		t.Fatalf("unexpected layout")
	}
}

func TestStripLeadingHeader(t *testing.T) {
	if got := StripLeadingHeader("Header\r\n\nbody", "Header"); got != "\nbody" {
		t.Fatalf("got %q", got)
	}
	if got := StripLeadingHeader("Header\n\nbody", "Header"); got != "body" {
		t.Fatalf("got %q", got)
	}
	if got := StripLeadingHeader("body", ""); got != "body" {
		t.Fatalf("got %q", got)
	}
}
