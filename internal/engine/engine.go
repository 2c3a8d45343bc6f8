package engine

import (
	"strings"
	"unicode"
)

// CompositionEngine is the main engine that processes keyboard input. It
// satisfies the legacy keysym-based Engine interface (for cmd/daemon) and
// additionally exposes the scheme-neutral OnKey surface that
// internal/cabi wraps for the C ABI.
//
// A single instance is not safe for concurrent use (spec.md §5): callers
// must serialize calls the way cmd/daemon does by handling one D-Bus
// request at a time, and the way internal/cabi does with its own mutex.
type CompositionEngine struct {
	inputMethod  InputMethod
	outputFormat *UnicodeFormat
	config       *EngineConfig

	buffer  *SyllableBuffer
	history *WordHistory
	abbrev  *AbbreviationStore

	enabled bool

	prevRendered   string // the in-progress syllable's currently-visible text
	capitalizeNext bool   // true right after a sentence-ending terminator

	delta     Delta // reused across OnKey calls; see Delta's doc comment
	reentrant bool  // guards against the host re-entering OnKey mid-call

	// forcedLiteral is a trigger key that applyTone decided must render as
	// a plain character instead of being silently consumed: either a
	// Telex tone revert (spec.md §4.2, "the originating trigger key is
	// appended as a literal letter for Telex, consumed for VNI") or a
	// tone rejected by the stop-coda rule (spec.md §4.2/§7, "the trigger
	// is passed through as a literal" — this one applies to both
	// schemes). Consumed by the following reparse call and zeroed
	// immediately after.
	forcedLiteral rune
}

// tone-processing outcomes for applyTone, distinguishing a successful set
// from a revert (may render literally, Telex only) and a rejection (always
// renders literally, spec.md §4.2's stop-coda rule).
const (
	toneApplied = iota
	toneReverted
	toneRejected
)

// NewCompositionEngine creates a new composition engine with default settings.
func NewCompositionEngine() *CompositionEngine {
	return NewConfiguredEngine(DefaultConfig())
}

// NewConfiguredEngine creates an engine from an explicit configuration. A nil
// config falls back to DefaultConfig.
func NewConfiguredEngine(config *EngineConfig) *CompositionEngine {
	if config == nil {
		config = DefaultConfig()
	}

	format := NewUnicodeFormat()
	format.ModernTone = config.UsesModernToneRule()

	e := &CompositionEngine{
		outputFormat: format,
		config:       config,
		buffer:       NewSyllableBuffer(),
		history:      NewWordHistory(),
		abbrev:       NewAbbreviationStore(),
		enabled:      true,
	}
	e.setSchemeByName(config.InputMethodName)
	return e
}

func (e *CompositionEngine) setSchemeByName(name string) {
	if name == "VNI" {
		e.inputMethod = NewVNIMethod()
	} else {
		e.inputMethod = NewTelexMethod()
	}
}

// SetInputMethod sets the typing method (e.g., Telex, VNI).
func (e *CompositionEngine) SetInputMethod(method InputMethod) {
	e.inputMethod = method
	e.ClearBuffer()
}

// SetOutputFormat sets the output encoding format. Only *UnicodeFormat is
// actually supported; other implementations are accepted for interface
// compatibility but composition always goes through the Unicode path.
func (e *CompositionEngine) SetOutputFormat(format OutputFormat) {
	if uf, ok := format.(*UnicodeFormat); ok {
		e.outputFormat = uf
	}
}

// SetScheme switches the active encoding scheme by enum (spec.md §6.1
// set_scheme), clearing any in-progress composition.
func (e *CompositionEngine) SetScheme(s Scheme) {
	if s == SchemeVNI {
		e.inputMethod = NewVNIMethod()
	} else {
		e.inputMethod = NewTelexMethod()
	}
	e.ClearBuffer()
}

// SetEnabled enables or disables the engine (spec.md §6.1 set_enabled).
func (e *CompositionEngine) SetEnabled(enabled bool) {
	e.enabled = enabled
	if !enabled {
		e.ClearAll()
	}
}

// IsEnabled returns whether the engine is enabled.
func (e *CompositionEngine) IsEnabled() bool {
	return e.enabled
}

// ClearBuffer drops the in-progress syllable only, keeping word history and
// the abbreviation store intact (spec.md §6.1 clear_buffer).
func (e *CompositionEngine) ClearBuffer() {
	e.buffer.clear()
	e.prevRendered = ""
}

// ClearAll drops the in-progress syllable, word history, and
// capitalization state (spec.md §6.1 clear_all). Shortcuts survive, since
// they are a host-managed config list rather than transient session state.
func (e *CompositionEngine) ClearAll() {
	e.ClearBuffer()
	e.history.clear()
	e.capitalizeNext = false
}

// Reset is an alias for ClearAll, satisfying the legacy Engine interface.
func (e *CompositionEngine) Reset() {
	e.ClearAll()
}

// AddShortcut registers an abbreviation trigger -> expansion mapping
// (spec.md §6.1 add_shortcut).
func (e *CompositionEngine) AddShortcut(trigger, expansion string) bool {
	return e.abbrev.add(trigger, expansion)
}

// RemoveShortcut deletes a trigger (spec.md §6.1 remove_shortcut).
func (e *CompositionEngine) RemoveShortcut(trigger string) bool {
	return e.abbrev.remove(trigger)
}

// ClearShortcuts empties the abbreviation store (spec.md §6.1 clear_shortcuts).
func (e *CompositionEngine) ClearShortcuts() {
	e.abbrev.clear()
}

// SetOption dispatches one numeric option_id/value pair (spec.md §6.2
// set_option). Reports false for an unrecognized id.
func (e *CompositionEngine) SetOption(id OptionID, value int) bool {
	on := value != 0
	switch id {
	case OptionScheme:
		if value == 1 {
			e.SetScheme(SchemeVNI)
		} else {
			e.SetScheme(SchemeTelex)
		}
	case OptionEnabled:
		e.SetEnabled(on)
	case OptionModernTone:
		if on {
			e.config.ToneRule = ToneRuleNew
		} else {
			e.config.ToneRule = ToneRuleOld
		}
		e.outputFormat.ModernTone = on
	case OptionFreeTone:
		e.config.FreeTone = on
	case OptionWAsVowel:
		e.config.EnableWAsVowel = on
	case OptionBracketShortcut:
		// Reserved: no host currently wires a bracket-triggered shortcut
		// surface distinct from AddShortcut/RemoveShortcut.
	case OptionEscRestore:
		e.config.EscRestore = on
	case OptionEnglishAutoRestore:
		e.config.EnglishAutoRestore = on
	case OptionAutoCapitalize:
		e.config.AutoCapitalize = on
	case OptionValidation:
		e.config.EnableValidation = on
	case OptionDoubleKeyRevert:
		e.config.EnableDoubleKeyRevert = on
	default:
		return false
	}
	return true
}

// GetConfig returns the current configuration.
func (e *CompositionEngine) GetConfig() *EngineConfig {
	return e.config
}

// GetPreedit returns the current preedit string (legacy Engine interface,
// also used internally to compute prevRendered).
func (e *CompositionEngine) GetPreedit() string {
	return e.renderBuffer()
}

// renderBuffer composes the in-progress syllable plus any trailing raw
// characters reparse wasn't able to fold into structure.
func (e *CompositionEngine) renderBuffer() string {
	raw := e.buffer.rawString()
	if raw == "" {
		return ""
	}

	syllable := e.buffer.syllable
	if syllable == nil {
		return raw
	}

	composed := e.outputFormat.Compose(syllable)

	runes := []rune(raw)
	if syllable.Consumed < len(runes) && syllable.Consumed >= 0 {
		for _, r := range runes[syllable.Consumed:] {
			if !isModifierKey(e.inputMethod, r) {
				composed += string(r)
			}
		}
	}

	if composed != "" {
		return composed
	}
	return raw
}

// ProcessKey handles a key event from the legacy keysym-based surface
// (cmd/daemon) and returns a preedit/commit-text result.
func (e *CompositionEngine) ProcessKey(event KeyEvent) ProcessResult {
	result := ProcessResult{}

	if !e.enabled {
		return result
	}

	switch event.KeySym {
	case KeysymBackspace:
		return e.legacyBackspace()
	case KeysymEscape:
		return e.legacyEscape()
	case KeysymReturn:
		if e.buffer.len() == 0 {
			return result
		}
		return e.legacyTerminator("", true)
	case KeysymTab:
		if e.buffer.len() == 0 {
			return result
		}
		return e.legacyTerminator("", true)
	case KeysymDelete:
		if e.buffer.len() == 0 {
			return result
		}
		r := e.legacyTerminator("", true)
		r.Handled = false
		return r
	}

	if event.Modifiers&(ModControl|ModMod1) != 0 {
		if e.buffer.len() > 0 {
			preedit := e.GetPreedit()
			e.ClearBuffer()
			result.CommitText = preedit
		}
		return result
	}

	char := KeysymToRune(event.KeySym)
	if char == 0 {
		return result
	}

	caps := unicode.IsUpper(char) || event.Modifiers&ModLock != 0
	key := unicode.ToLower(char)

	if IsWordTerminator(key) {
		return e.legacyTerminator(string(char), false)
	}

	e.applyChar(key, caps)
	return ProcessResult{Handled: true, Preedit: e.GetPreedit()}
}

func (e *CompositionEngine) legacyBackspace() ProcessResult {
	if e.buffer.len() == 0 {
		return ProcessResult{}
	}
	popped, _ := e.buffer.popRaw()
	if e.inputMethod.IsToneKey(popped.Char) {
		// Same tone carry-over reset as onBackspace (pipeline.go).
		e.buffer.syllable.ToneMark = ToneNone
	}
	e.reparse()
	return ProcessResult{Handled: true, Preedit: e.GetPreedit()}
}

func (e *CompositionEngine) legacyEscape() ProcessResult {
	if !e.config.EscRestore {
		e.ClearBuffer()
		return ProcessResult{Handled: true}
	}
	if e.buffer.len() > 0 {
		raw := e.buffer.rawString()
		e.history.push(HistoryEntry{Rendered: raw, Raw: raw, Transformed: false})
		e.ClearBuffer()
		return ProcessResult{Handled: true, CommitText: raw}
	}
	// A previously committed word has already been flushed to the
	// application; the legacy preedit surface has no backspace concept to
	// pull it back. Restoring a committed word is only meaningful on the
	// OnKey/Delta surface (pipeline.go's onEscape).
	e.history.popMostRecent()
	return ProcessResult{Handled: true}
}

func (e *CompositionEngine) legacyTerminator(literal string, swallowLiteral bool) ProcessResult {
	final := e.commitBuffer()
	if swallowLiteral {
		return ProcessResult{Handled: true, CommitText: final}
	}
	return ProcessResult{Handled: true, CommitText: final + literal}
}

// applyChar runs one printable keystroke through the transform pipeline
// (spec.md §4.2). The scheme adapter's ProcessChar decides what a key
// means; the only piece of that decision reparse can't re-derive from raw
// alone is tone-toggle state (spec.md §4.2's revert semantics), which lives
// in ToneMark and survives reparse explicitly. Everything else — stroke,
// vowel-modifier, mark-removal, w-as-vowel, plain letters — is baked
// directly into onset/nucleus/coda by reparse's structural scan.
func (e *CompositionEngine) applyChar(char rune, caps bool) {
	e.buffer.append(RawKey{Char: char, Caps: caps})

	switch {
	case e.inputMethod.IsToneKey(char):
		if _, tone, _, consumed := e.inputMethod.ProcessChar(char, e.buffer.syllable); consumed {
			switch e.applyTone(tone) {
			case toneReverted:
				if e.inputMethod.Name() == "Telex" {
					e.forcedLiteral = char
				}
			case toneRejected:
				e.forcedLiteral = char
			}
		}
	case e.inputMethod.IsMarkRemovalTrigger(char) && e.buffer.syllable.ToneMark != ToneNone:
		// Mark removal clears the most recent tone first; with no tone
		// left, reparse's nucleus scan reverts the vowel mark instead.
		e.buffer.syllable.ToneMark = ToneNone
	}
	e.reparse()
}

// applyTone sets (or, with EnableDoubleKeyRevert, clears) the in-progress
// syllable's tone, reporting the outcome (toneApplied/toneReverted/
// toneRejected). Mutates ToneMark directly since reparse explicitly
// preserves it across a rebuild (unlike onset/nucleus/coda, tone has no
// literal representation in the raw keystroke log to re-derive from).
func (e *CompositionEngine) applyTone(tone ToneMark) int {
	if e.config.EnableDoubleKeyRevert && e.buffer.syllable.ToneMark == tone && tone != ToneNone {
		e.buffer.syllable.ToneMark = ToneNone
		return toneReverted
	}
	if !e.ValidateForModifier() || !e.validateToneOnCoda(tone) {
		return toneRejected
	}
	e.buffer.syllable.ToneMark = tone
	return toneApplied
}

// validateToneOnCoda applies the tone-on-stop-coda rule (validation.go)
// before accepting a tone, honoring FreeTone. Separate from
// ValidateForModifier's structural gate (onset/coda cluster shape) since
// FreeTone loosens only this rule, not cluster validity (DESIGN.md Open
// Question #2).
func (e *CompositionEngine) validateToneOnCoda(tone ToneMark) bool {
	if !e.config.EnableValidation {
		return true
	}
	return ToneAllowedOnStopCoda(tone, e.buffer.syllable.Coda, e.config.FreeTone)
}

// reparse re-derives onset/nucleus/coda from the raw log, mirroring the
// teacher's "raw is the source of truth" architecture (composition.go in
// the original), generalized so every transformation — Telex's literal
// double-letter patterns and VNI's digit triggers alike — is baked
// in directly from raw rather than relying on a mutation that a full
// rebuild would otherwise discard.
func (e *CompositionEngine) reparse() {
	raw := e.buffer.rawRunes()
	if len(raw) == 0 {
		e.buffer.syllable = &Syllable{}
		e.buffer.setGlyphs(nil)
		return
	}

	tone := e.buffer.syllable.ToneMark
	s := &Syllable{Raw: string(raw), ToneMark: tone}

	i := 0
	onset := ""

	// Telex's w-as-vowel: a bare 'w' with nothing before it starts the
	// nucleus directly as ư, rather than waiting to modify a vowel that
	// doesn't exist yet (composition.go's tryWAsVowel, folded in here so a
	// single structural pass produces the whole syllable).
	nucleus := ""
	if e.config.EnableWAsVowel && e.inputMethod.Name() == "Telex" && len(raw) > 0 && unicode.ToLower(raw[0]) == 'w' {
		letter := 'ư'
		if unicode.IsUpper(raw[0]) {
			letter = 'Ư'
		}
		nucleus = string(letter)
		i = 1
	}

	for i < len(raw) {
		r := raw[i]
		if IsVietnameseVowel(r) {
			break
		}
		if (r == 'd' || r == 'D') && i+1 < len(raw) && (raw[i+1] == 'd' || raw[i+1] == 'D') {
			// A third d reverts the stroke: "ddd" renders as a literal "dd".
			if e.config.EnableDoubleKeyRevert && i+2 < len(raw) && unicode.ToLower(raw[i+2]) == 'd' {
				onset += string(r) + string(raw[i+1])
				i += 3
				continue
			}
			if r == 'd' {
				onset += "đ"
			} else {
				onset += "Đ"
			}
			i += 2
			continue
		}
		// A non-letter stroke trigger (VNI's '9') applies to, or toggles
		// off of, a d/đ the onset loop already collected. Letter-based
		// stroke triggers (Telex's second 'd') are handled by the
		// adjacency check above instead.
		if !unicode.IsLetter(r) && e.inputMethod.IsStrokeTrigger(r) && len(onset) > 0 {
			onsetRunes := []rune(onset)
			last := len(onsetRunes) - 1
			toggled := true
			switch onsetRunes[last] {
			case 'd':
				onsetRunes[last] = 'đ'
			case 'D':
				onsetRunes[last] = 'Đ'
			case 'đ':
				onsetRunes[last] = 'd'
			case 'Đ':
				onsetRunes[last] = 'D'
			default:
				toggled = false
			}
			if toggled {
				onset = string(onsetRunes)
				i++
				continue
			}
		}
		// A w after the onset consonants, with no vowel typed yet, is the
		// same w-as-vowel case as a leading w.
		if e.config.EnableWAsVowel && e.inputMethod.Name() == "Telex" && unicode.ToLower(r) == 'w' && nucleus == "" {
			if unicode.IsUpper(r) {
				nucleus = "Ư"
			} else {
				nucleus = "ư"
			}
			i++
			break
		}
		if isTelexModifierLetter(r) {
			i++
			continue
		}
		if IsVietnameseConsonant(r) {
			onset += string(r)
			i++
		} else {
			break
		}
	}

	for i < len(raw) {
		r := raw[i]
		if IsVietnameseVowel(r) {
			if i+1 < len(raw) && unicode.ToLower(raw[i+1]) == unicode.ToLower(r) {
				var doubled rune
				switch unicode.ToLower(r) {
				case 'a':
					doubled = 'â'
				case 'e':
					doubled = 'ê'
				case 'o':
					doubled = 'ô'
				}
				if doubled != 0 {
					// A third identical vowel reverts the circumflex: "aaa"
					// renders as a literal "aa".
					if e.config.EnableDoubleKeyRevert && i+2 < len(raw) && unicode.ToLower(raw[i+2]) == unicode.ToLower(r) {
						nucleus += string(r) + string(raw[i+1])
						i += 3
						continue
					}
					if unicode.IsUpper(r) {
						nucleus += string(unicode.ToUpper(doubled))
					} else {
						nucleus += string(doubled)
					}
					i += 2
					continue
				}
			}
			nucleus += string(r)
			i++
		} else if unicode.ToLower(r) == 'w' && len(nucleus) > 0 {
			nr := []rune(nucleus)
			last := len(nr) - 1
			var transformed rune
			switch unicode.ToLower(nr[last]) {
			case 'a':
				transformed = 'ă'
			case 'o':
				if len(nr) >= 2 && unicode.ToLower(nr[len(nr)-2]) == 'u' {
					u := 'ư'
					if unicode.IsUpper(nr[len(nr)-2]) {
						u = 'Ư'
					}
					nr[len(nr)-2] = u
				}
				transformed = 'ơ'
			case 'u':
				transformed = 'ư'
			}
			if transformed != 0 {
				if unicode.IsUpper(nr[last]) {
					nr[last] = unicode.ToUpper(transformed)
				} else {
					nr[last] = transformed
				}
				nucleus = string(nr)
			}
			i++
		} else if e.inputMethod.IsVowelModifier(r) && len(nucleus) > 0 {
			// VNI digits 6/7/8 (and Telex's already-handled 'w'/double
			// letters): bake the marked vowel directly into the nucleus.
			nr := []rune(nucleus)
			last := len(nr) - 1
			mark := e.inputMethod.GetVowelMark(r)
			if mark == VowelHorn && last >= 1 && unicode.ToLower(nr[last-1]) == 'u' && unicode.ToLower(nr[last]) == 'o' {
				u, o := 'ư', 'ơ'
				if unicode.IsUpper(nr[last-1]) {
					u = 'Ư'
				}
				if unicode.IsUpper(nr[last]) {
					o = 'Ơ'
				}
				nr[last-1], nr[last] = u, o
				nucleus = string(nr)
				i++
				continue
			}
			if transforms, ok := unicodeVowelMarks[nr[last]]; ok {
				if result, ok := transforms[mark]; ok {
					nr[last] = result
					nucleus = string(nr)
				}
			}
			i++
		} else if e.inputMethod.IsMarkRemovalTrigger(r) && len(nucleus) > 0 {
			// VNI's '0' and Telex's 'z': revert the nucleus's last vowel to
			// its bare base letter (markedVowelBase).
			nr := []rune(nucleus)
			last := len(nr) - 1
			if base, ok := markedVowelBase[nr[last]]; ok {
				nr[last] = base
				nucleus = string(nr)
			}
			i++
		} else if isModifierKey(e.inputMethod, r) {
			i++
		} else {
			break
		}
	}

	// An o typed after ư ("uwo") takes the horn too, the same ươ as "uow".
	if nr := []rune(nucleus); len(nr) >= 2 {
		for k := 0; k+1 < len(nr); k++ {
			if (nr[k] == 'ư' || nr[k] == 'Ư') && unicode.ToLower(nr[k+1]) == 'o' {
				if unicode.IsUpper(nr[k+1]) {
					nr[k+1] = 'Ơ'
				} else {
					nr[k+1] = 'ơ'
				}
				nucleus = string(nr)
			}
		}
	}

	coda := ""
	for i < len(raw) {
		r := raw[i]
		if isModifierKey(e.inputMethod, r) {
			i++
			continue
		}
		if IsVietnameseConsonant(r) {
			if i+1 < len(raw) {
				next := raw[i+1]
				if IsVietnameseConsonant(next) && validFinals[strings.ToLower(string(r)+string(next))] {
					coda += string(r) + string(next)
					i += 2
					continue
				}
			}
			if validFinals[strings.ToLower(string(r))] {
				coda += string(r)
				i++
			} else {
				break
			}
		} else {
			break
		}
	}

	if coda != "" && len([]rune(nucleus)) >= 2 {
		nr := []rune(nucleus)
		first := unicode.ToLower(nr[0])
		second := unicode.ToLower(nr[1])
		if first == 'i' && second == 'e' {
			if unicode.IsUpper(nr[1]) {
				nr[1] = 'Ê'
			} else {
				nr[1] = 'ê'
			}
			nucleus = string(nr)
		}
		if first == 'u' && second == 'o' {
			if unicode.IsUpper(nr[1]) {
				nr[1] = 'Ô'
			} else {
				nr[1] = 'ô'
			}
			nucleus = string(nr)
		}
	}

	for i < len(raw) {
		if isModifierKey(e.inputMethod, raw[i]) {
			i++
		} else {
			break
		}
	}

	if e.forcedLiteral != 0 {
		coda += string(e.forcedLiteral)
		e.forcedLiteral = 0
	}

	s.Onset = onset
	s.Nucleus = nucleus
	s.Coda = coda
	s.Consumed = i

	e.buffer.syllable = s
	e.deriveGlyphs()
}

// deriveGlyphs projects the raw log into the buffer's fixed glyph array.
func (e *CompositionEngine) deriveGlyphs() {
	raw := e.buffer.rawRunes()
	if len(raw) == 0 {
		e.buffer.setGlyphs(nil)
		return
	}
	records := make([]GlyphRecord, len(raw))
	for i, r := range raw {
		records[i] = GlyphRecord{Key: unicode.ToLower(r), Caps: unicode.IsUpper(r)}
	}
	records[len(records)-1].VowelMark = vowelMarkOf(lastNucleusRune(e.buffer.syllable.Nucleus))
	records[len(records)-1].ToneMark = e.buffer.syllable.ToneMark
	e.buffer.setGlyphs(records)
}

// lastNucleusRune returns the final rune of a nucleus string, or 0 if empty.
func lastNucleusRune(nucleus string) rune {
	r := []rune(nucleus)
	if len(r) == 0 {
		return 0
	}
	return r[len(r)-1]
}

// vowelMarkOf reports which non-tone diacritic, if any, a nucleus rune
// carries. Used only to annotate the trailing GlyphRecord for diagnostics;
// the rune itself (already baked in by reparse) is the source of truth for
// rendering.
func vowelMarkOf(r rune) VowelMark {
	switch r {
	case 'ă', 'Ă':
		return VowelBreve
	case 'â', 'Â', 'ê', 'Ê', 'ô', 'Ô':
		return VowelHat
	case 'ơ', 'Ơ', 'ư', 'Ư':
		return VowelHorn
	}
	return VowelNone
}

// isTelexModifierLetter reports whether r is one of the Telex trigger
// letters that can never themselves be a Vietnamese onset consonant
// (f, j, w, z) — used only to resolve onset-parsing ambiguity, since s, r,
// x double as both tone keys and valid onset consonants.
func isTelexModifierLetter(r rune) bool {
	switch unicode.ToLower(r) {
	case 'f', 'j', 'w', 'z':
		return true
	}
	return false
}

// isModifierKey reports whether r is any of method's trigger keys (tone,
// vowel-modifier, stroke, or mark-removal), regardless of scheme. Used to
// skip residual modifier keystrokes that reparse's structural loops didn't
// consume, so they never leak into rendered output as literal characters.
func isModifierKey(method InputMethod, r rune) bool {
	return method.IsToneKey(r) || method.IsVowelModifier(r) ||
		method.IsStrokeTrigger(r) || method.IsMarkRemovalTrigger(r)
}
