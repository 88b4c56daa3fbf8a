package telephony

import (
	"strings"
	"testing"
)

func TestRenderSayTwiML(t *testing.T) {
	out, err := RenderSayTwiML("Hello there")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Fatalf("missing xml declaration: %q", out)
	}
	if !strings.Contains(out, `<Say voice="alice" language="en-US">Hello there</Say>`) {
		t.Fatalf("unexpected say verb: %q", out)
	}
	if !strings.Contains(out, "<Response>") || !strings.Contains(out, "</Response>") {
		t.Fatalf("missing response envelope: %q", out)
	}
}

func TestRenderSayTwiML_EscapesMessage(t *testing.T) {
	out, err := RenderSayTwiML(`press 1 for "yes" & 2 for <no>`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if strings.Contains(out, "<no>") {
		t.Fatalf("message not escaped: %q", out)
	}
	if !strings.Contains(out, "&amp;") || !strings.Contains(out, "&lt;no&gt;") {
		t.Fatalf("expected escaped entities: %q", out)
	}
}

func TestRenderSayTwiML_EmptyMessage(t *testing.T) {
	if _, err := RenderSayTwiML("   "); err == nil {
		t.Fatalf("expected error for blank message")
	}
}
