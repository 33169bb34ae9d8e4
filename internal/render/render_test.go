package render

import (
	"strings"
	"testing"
)

func TestHTMLHeading(t *testing.T) {
	got, err := New().HTML("# Title")
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if !strings.Contains(got, "<h1>Title</h1>") {
		t.Fatalf("unexpected html: %q", got)
	}
}

func TestHTMLTaskListRendersPlainItems(t *testing.T) {
	got, err := New().HTML("- [ ] Buy milk\n- [x] Call mom")
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	for _, want := range []string{"<ul>", "<li>Buy milk</li>", "<li>Call mom</li>"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}
}

func TestHTMLDropsScripts(t *testing.T) {
	got, err := New().HTML("Hello\n\n<script>alert(1)</script>\n\n[x](javascript:alert(1))")
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if strings.Contains(got, "<script") || strings.Contains(got, "javascript:") {
		t.Fatalf("unsafe content survived: %q", got)
	}
	if !strings.Contains(got, "Hello") {
		t.Fatalf("expected text to survive: %q", got)
	}
}

func TestHTMLEmptyInput(t *testing.T) {
	got, err := New().HTML("  \n")
	if err != nil || got != "" {
		t.Fatalf("HTML(empty) = %q, %v", got, err)
	}
}

func TestStripTaskMarkers(t *testing.T) {
	in := "## Tasks\n- [ ] one\n  * [X] two\n1. [ ] three\n- plain [ ] stays"
	want := "## Tasks\n- one\n  * two\n1. three\n- plain [ ] stays"
	if got := StripTaskMarkers(in); got != want {
		t.Fatalf("unexpected output:\n got %q\nwant %q", got, want)
	}
}
