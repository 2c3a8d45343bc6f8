package engine

import "testing"

// applyDelta simulates a host applying one OnKey Delta to its focused text
// field: delete Backspace trailing runes, then insert whatever text Delta
// carries.
func applyDelta(host []rune, d *Delta) []rune {
	if d.Backspace > 0 {
		host = host[:len(host)-d.Backspace]
	}
	if d.Count > 0 {
		host = append(host, d.Chars[:d.Count]...)
	}
	return host
}

// typeString feeds s through OnKey one rune at a time (no caps/shift/ctrl)
// and returns the text a host field would show afterward.
func typeString(e *CompositionEngine, s string) string {
	host := []rune{}
	for _, r := range s {
		host = applyDelta(host, e.OnKey(r, false, false, false))
	}
	return string(host)
}

func newTelexEngine() *CompositionEngine {
	return NewCompositionEngine()
}

func newVNIEngine() *CompositionEngine {
	cfg := DefaultConfig()
	cfg.InputMethodName = "VNI"
	return NewConfiguredEngine(cfg)
}

func TestOnKey_SimpleTone(t *testing.T) {
	e := newTelexEngine()
	if got := typeString(e, "as"); got != "á" {
		t.Errorf("typeString(as) = %q, want %q", got, "á")
	}
}

func TestOnKey_StrokeRendersBeforeVowel(t *testing.T) {
	e := newTelexEngine()
	if got := typeString(e, "dd"); got != "đ" {
		t.Errorf("typeString(dd) = %q, want %q (stroke must show before any vowel is typed)", got, "đ")
	}
}

func TestOnKey_ToneRevertKeepsTriggerLiteralForTelex(t *testing.T) {
	e := newTelexEngine()
	if got := typeString(e, "ass"); got != "as" {
		t.Errorf("typeString(ass) = %q, want %q (retyping sắc's trigger clears the tone and the trigger itself becomes a literal letter)", got, "as")
	}
}

func TestOnKey_ToneRejectedOnStopCodaPassesThroughLiteral(t *testing.T) {
	e := newTelexEngine()
	if got := typeString(e, "lacf"); got != "lacf" {
		t.Errorf("typeString(lacf) = %q, want %q (huyền is rejected on a stop coda; the trigger stays a literal letter rather than being dropped)", got, "lacf")
	}
}

func TestOnKey_Backspace(t *testing.T) {
	e := newTelexEngine()
	host := typeString(e, "as")
	if host != "á" {
		t.Fatalf("setup: typeString(as) = %q, want %q", host, "á")
	}
	host = string(applyDelta([]rune(host), e.OnKey(KeyBackspace, false, false, false)))
	if host != "a" {
		t.Errorf("after backspace = %q, want %q (the tone-setting keystroke was the one removed)", host, "a")
	}
}

func TestOnKey_BackspaceOnEmptyBufferIsNoop(t *testing.T) {
	e := newTelexEngine()
	d := e.OnKey(KeyBackspace, false, false, false)
	if d.Action != ActionNoop || d.Count != 0 || d.Backspace != 0 {
		t.Errorf("backspace on empty buffer = %+v, want a no-op delta", d)
	}
}

func TestOnKey_EscapeRestoresInProgressSyllable(t *testing.T) {
	e := newTelexEngine()
	host := []rune(typeString(e, "as"))
	if string(host) != "á" {
		t.Fatalf("setup: got %q, want %q", string(host), "á")
	}
	host = applyDelta(host, e.OnKey(KeyEscape, false, false, false))
	if string(host) != "as" {
		t.Errorf("after ESC = %q, want %q (in-progress syllable restored to raw keystrokes)", string(host), "as")
	}
}

func TestOnKey_EscapeResetsPrevRendered(t *testing.T) {
	e := newTelexEngine()
	host := []rune{}
	host = applyDelta(host, e.OnKey('a', false, false, false))
	host = applyDelta(host, e.OnKey('s', false, false, false))
	host = applyDelta(host, e.OnKey(KeyEscape, false, false, false))
	if string(host) != "as" {
		t.Fatalf("setup: got %q, want %q", string(host), "as")
	}
	// The next syllable starts from an empty in-progress render; its first
	// keystroke must not try to backspace over the just-restored text.
	d := e.OnKey('b', false, false, false)
	if d.Backspace != 0 {
		t.Errorf("Backspace after ESC-restore = %d, want 0", d.Backspace)
	}
}

func TestOnKey_WordBoundaryResetsPrevRendered(t *testing.T) {
	e := newTelexEngine()
	host := typeString(e, "as ")
	if host != "á " {
		t.Fatalf("setup: got %q, want %q", host, "á ")
	}
	// The next syllable starts fresh; its first keystroke must not
	// backspace over the word just committed to the host.
	d := e.OnKey('b', false, false, false)
	if d.Backspace != 0 {
		t.Errorf("Backspace after word boundary = %d, want 0 (regression: prevRendered must reset at commit)", d.Backspace)
	}
}

func TestOnKey_CtrlClearsBuffer(t *testing.T) {
	e := newTelexEngine()
	typeString(e, "as")
	d := e.OnKey('x', false, false, true)
	if d.Action != ActionNoop {
		t.Errorf("ctrl-combo delta = %+v, want ActionNoop", d)
	}
	if e.GetPreedit() != "" {
		t.Errorf("preedit after ctrl-combo = %q, want empty", e.GetPreedit())
	}
}

func TestOnKey_ShortcutExpansion(t *testing.T) {
	e := newTelexEngine()
	e.AddShortcut("vn", "Việt Nam")
	if got := typeString(e, "vn "); got != "Việt Nam " {
		t.Errorf("typeString(vn ) = %q, want %q", got, "Việt Nam ")
	}
}

func TestOnKey_ReentrancyGuardReturnsNoop(t *testing.T) {
	e := newTelexEngine()
	e.reentrant = true
	d := e.OnKey('a', false, false, false)
	if d.Action != ActionNoop || d.Count != 0 {
		t.Errorf("reentrant OnKey = %+v, want a no-op delta", d)
	}
	e.reentrant = false
}

func TestDelta_Text(t *testing.T) {
	e := newTelexEngine()
	d := e.OnKey('a', false, false, false)
	if d.Text() != "a" {
		t.Errorf("Text() = %q, want %q", d.Text(), "a")
	}
}

// TestOnKey_VNIDigitTriggers exercises the VNI scheme's digit-based triggers
// through reparse's generalized structural scan (tone/vowel marks, stroke,
// and mark removal all reuse the same raw-driven rebuild Telex does).
func TestOnKey_VNIDigitTriggers(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"stroke", "d9", "đ"},
		{"stroke typed twice reverts and is fully consumed", "d99", "d"},
		{"circumflex", "o6", "ô"},
		{"horn", "u7", "ư"},
		{"compound horn", "uo7", "ươ"},
		{"tone then digit-0 removal", "a10", "a"},
		{"breve then digit-0 removal", "a80", "a"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := newVNIEngine()
			if got := typeString(e, c.input); got != c.want {
				t.Errorf("typeString(%q) = %q, want %q", c.input, got, c.want)
			}
		})
	}
}
