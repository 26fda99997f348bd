package server

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/torchlight/gserver/builtins"
	"github.com/torchlight/gserver/engine"
)

func newTestLSP(t *testing.T) *LspServer {
	t.Helper()
	e := engine.New(builtins.NopWorld{}, engine.Options{})
	t.Cleanup(e.Close)
	return NewLSP(e)
}

// ---------------------------------------------------------------------------
// Text extraction helpers
// ---------------------------------------------------------------------------

func TestExtractPrefix_SimpleWord(t *testing.T) {
	text := "x = show"
	pos := protocol.Position{Line: 0, Character: 8}
	prefix := extractPrefix(text, pos)
	if prefix != "show" {
		t.Errorf("extractPrefix = %q, want %q", prefix, "show")
	}
}

func TestExtractPrefix_MultiLine(t *testing.T) {
	text := "first line\nsecond line\nsho"
	pos := protocol.Position{Line: 2, Character: 3}
	prefix := extractPrefix(text, pos)
	if prefix != "sho" {
		t.Errorf("extractPrefix = %q, want %q", prefix, "sho")
	}
}

func TestExtractPrefix_CursorAtBeginning(t *testing.T) {
	text := "hello"
	pos := protocol.Position{Line: 0, Character: 0}
	prefix := extractPrefix(text, pos)
	if prefix != "" {
		t.Errorf("extractPrefix at position 0 = %q, want empty string", prefix)
	}
}

func TestExtractPrefix_LineBeyondDocument(t *testing.T) {
	text := "single line"
	pos := protocol.Position{Line: 5, Character: 0}
	prefix := extractPrefix(text, pos)
	if prefix != "" {
		t.Errorf("extractPrefix beyond doc = %q, want empty string", prefix)
	}
}

func TestExtractWord_Middle(t *testing.T) {
	text := "showtext(msg)"
	pos := protocol.Position{Line: 0, Character: 4}
	word := extractWord(text, pos)
	if word != "showtext" {
		t.Errorf("extractWord = %q, want %q", word, "showtext")
	}
}

func TestExtractWord_AtPunctuation(t *testing.T) {
	text := "a(b)"
	pos := protocol.Position{Line: 0, Character: 2}
	word := extractWord(text, pos)
	if word != "b" {
		t.Errorf("extractWord = %q, want %q", word, "b")
	}
}

// ---------------------------------------------------------------------------
// Language selection
// ---------------------------------------------------------------------------

func TestLanguageOf(t *testing.T) {
	if languageOf("file:///npc/greeter.gs1") != engine.LangGS1 {
		t.Error("expected .gs1 to select the GS1 front end")
	}
	if languageOf("file:///npc/door.gs2") != engine.LangGS2 {
		t.Error("expected .gs2 to select the GS2 front end")
	}
	if languageOf("file:///npc/unknown.txt") != engine.LangGS2 {
		t.Error("expected unknown extensions to default to GS2")
	}
}

// ---------------------------------------------------------------------------
// Completion and hover
// ---------------------------------------------------------------------------

func TestComplete_Builtins(t *testing.T) {
	s := newTestLSP(t)

	items := s.complete("file:///a.gs2", "show")
	found := false
	for _, item := range items {
		if item.Label == "showtext" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected showtext in completions, got %d items", len(items))
	}
}

func TestComplete_GS2Keywords(t *testing.T) {
	s := newTestLSP(t)

	items := s.complete("file:///a.gs2", "wh")
	found := false
	for _, item := range items {
		if item.Label == "while" {
			found = true
		}
	}
	if !found {
		t.Error("expected while keyword in GS2 completions")
	}
}

func TestComplete_GS1Events(t *testing.T) {
	s := newTestLSP(t)

	items := s.complete("file:///a.gs1", "player")
	found := false
	for _, item := range items {
		if item.Label == "PLAYERCHATS" {
			found = true
		}
	}
	if !found {
		t.Error("expected PLAYERCHATS event in GS1 completions")
	}

	// GS1 documents should not complete GS2 keywords
	for _, item := range s.complete("file:///a.gs1", "whi") {
		if item.Label == "while" {
			t.Error("GS1 completions should not contain GS2 keywords")
		}
	}
}

func TestComplete_NoMatch(t *testing.T) {
	s := newTestLSP(t)
	if items := s.complete("file:///a.gs2", "zzzzzz"); len(items) != 0 {
		t.Errorf("expected no completions, got %d", len(items))
	}
}

func TestHover_Builtin(t *testing.T) {
	s := newTestLSP(t)

	h := s.hover("showtext")
	if h == nil {
		t.Fatal("expected hover for showtext")
	}
	content := h.Contents.(protocol.MarkupContent)
	if !strings.Contains(content.Value, "showtext(text)") {
		t.Errorf("hover missing signature: %q", content.Value)
	}
}

func TestHover_CaseInsensitive(t *testing.T) {
	s := newTestLSP(t)
	if s.hover("SHOWTEXT") == nil {
		t.Error("expected hover to resolve GS1-style uppercase verbs")
	}
}

func TestHover_Unknown(t *testing.T) {
	s := newTestLSP(t)
	if s.hover("nosuchfn") != nil {
		t.Error("expected no hover for unknown word")
	}
}
