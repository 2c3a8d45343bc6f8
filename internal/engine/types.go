// Package engine provides the core input method engine for Vietnamese typing.
//
// It consumes key events (either the host's native keysym, via KeyEvent, or the
// engine's scheme-neutral KeyCode space) and produces edit deltas describing how
// the host's focused text field should change. The engine never touches the
// host's text directly; it only describes the edit.
package engine

// KeyEvent represents a keyboard event from a host frontend that speaks X11
// keysyms (used by cmd/daemon, which fronts Fcitx5).
type KeyEvent struct {
	KeySym    uint32 // X11 keysym value
	Modifiers uint32 // Modifier state (Shift, Ctrl, Alt, etc.)
}

// ProcessResult contains the output from processing a key event through the
// legacy preedit/commit-text surface (kept for cmd/daemon's D-Bus API).
type ProcessResult struct {
	Handled    bool   // Whether the key was consumed by the engine
	CommitText string // Text to commit to the application
	Preedit    string // Current preedit/composition string
}

// Modifier flags for keyboard state.
const (
	ModNone    uint32 = 0
	ModShift   uint32 = 1 << 0
	ModLock    uint32 = 1 << 1 // Caps Lock
	ModControl uint32 = 1 << 2
	ModMod1    uint32 = 1 << 3 // Alt
	ModMod4    uint32 = 1 << 6 // Super/Windows key
)

// Common X11 keysym values for Vietnamese input.
const (
	KeysymBackspace uint32 = 0xff08
	KeysymReturn    uint32 = 0xff0d
	KeysymEscape    uint32 = 0xff1b
	KeysymSpace     uint32 = 0x0020
	KeysymTab       uint32 = 0xff09
	KeysymDelete    uint32 = 0xffff
)

// KeyCode is the engine's scheme-neutral key code space described in
// spec.md §6.1: the ASCII code point a key would produce on a US layout,
// independent of modifier state. Letters are always the lowercase code point
// (caps is carried separately); VNI's digit tones reuse the ASCII digit code
// points directly. Host platforms with their own virtual-key layouts keep
// their own mapping table into this space (see KeysymToKeyCode for X11).
type KeyCode = rune

// Control-key codes in the KeyCode space (spec.md §6.1): the ASCII control
// codes already occupy 0-127 and need no separate allocation, unlike the
// legacy KeyEvent surface's X11 keysym values (Keysym* above), which sit far
// outside that range. KeysymToKeyCode maps between the two.
const (
	KeyBackspace KeyCode = 0x08
	KeyTab       KeyCode = 0x09
	KeyReturn    KeyCode = 0x0d
	KeyEscape    KeyCode = 0x1b
	KeyDelete    KeyCode = 0x7f
)

// wordTerminators is the ASCII punctuation set from spec.md §6.3, plus space,
// tab, and return/newline.
var wordTerminators = map[KeyCode]bool{
	'.': true, ',': true, ';': true, ':': true, '!': true, '?': true,
	'\'': true, '"': true, '(': true, ')': true, '[': true, ']': true,
	'{': true, '}': true, '<': true, '>': true, '/': true, '\\': true,
	'|': true, '-': true, '+': true, '=': true, '*': true, '&': true,
	'^': true, '%': true, '$': true, '#': true, '@': true, '~': true,
	'`': true,
	' ': true, '\t': true, '\r': true, '\n': true,
}

// IsWordTerminator reports whether key commits the current syllable, per
// spec.md §6.3.
func IsWordTerminator(key KeyCode) bool {
	return wordTerminators[key]
}

// ToneMark represents Vietnamese tone marks (thanh điệu).
type ToneMark int

const (
	ToneNone  ToneMark = iota // No tone (thanh ngang)
	ToneSac                   // Sắc (á)
	ToneHuyen                 // Huyền (à)
	ToneHoi                   // Hỏi (ả)
	ToneNga                   // Ngã (ã)
	ToneNang                  // Nặng (ạ)
)

// VowelMark represents Vietnamese vowel modifications (non-tone diacritics).
type VowelMark int

const (
	VowelNone  VowelMark = iota
	VowelHat             // Circumflex (â, ê, ô)
	VowelBreve           // Breve (ă)
	VowelHorn            // Horn (ơ, ư)
	VowelDBar            // Stroke (đ)
)

// Scheme selects the active encoding scheme.
type Scheme int

const (
	SchemeTelex Scheme = iota
	SchemeVNI
)

// String returns the scheme's display name.
func (s Scheme) String() string {
	if s == SchemeVNI {
		return "VNI"
	}
	return "Telex"
}

// RawKey is one entry in the raw-input log: the unmodified keystroke as typed,
// before any scheme interpretation. Used verbatim for revert, ESC-restore and
// the English auto-restore heuristic.
type RawKey struct {
	Char  rune
	Caps  bool
	Shift bool
}

// GlyphRecord is a single position in the syllable buffer. The visible
// character at a position is a pure function of these four fields via the
// vowel/consonant tables in unicode.go. Deliberately small and copyable (no
// pointers) so the buffer can be backed by a fixed array with no heap traffic.
type GlyphRecord struct {
	Key       rune // originating key (scheme-neutral, lowercase), e.g. 'a', 'd'
	Caps      bool
	VowelMark VowelMark
	ToneMark  ToneMark
}

// Action values for Delta.Action, per spec.md §6.1/§7.
const (
	ActionNoop    = 0 // pass-through: host types the key normally
	ActionEdit    = 1 // perform backspace+insert
	ActionRestore = 2 // restore: replace a transformed form with its raw form
)

// DeltaCap bounds Delta.Chars; 256 covers the longest plausible shortcut
// expansion (spec.md §4.5 caps expansions at 64 code points) plus headroom.
const DeltaCap = 256

// Delta is the engine's response to one keystroke: how many trailing
// characters the host must delete from the focused field, and what to insert
// in their place. It is engine-owned (valid until the next OnKey call) per the
// discipline documented in SPEC_FULL.md §6.1 — callers must copy out anything
// they need to keep past the next call.
type Delta struct {
	Chars     [DeltaCap]rune
	Count     int
	Action    int
	Backspace int
	Flags     uint32
	Seq       uint32 // optional sequence number for host-side desync detection
}

// Text returns the code points to insert as a string.
func (d *Delta) Text() string {
	return string(d.Chars[:d.Count])
}

func (d *Delta) reset() {
	d.Count = 0
	d.Action = ActionNoop
	d.Backspace = 0
	d.Flags = 0
}

func (d *Delta) setEdit(action int, backspace int, text []rune) {
	d.Action = action
	d.Backspace = backspace
	n := copy(d.Chars[:], text)
	d.Count = n
}

// Syllable represents a Vietnamese syllable being composed. It is re-derived
// from the raw-input log on every keystroke (see buffer.go), mirroring the
// teacher engine's "raw is the source of truth" architecture.
type Syllable struct {
	Raw               string    // Raw input characters
	Onset             string    // Initial consonant(s) - phụ âm đầu
	Nucleus           string    // Vowel cluster - nguyên âm
	Coda              string    // Final consonant(s) - phụ âm cuối
	ToneMark          ToneMark  // Tone mark position
	VowelMark         VowelMark // Vowel modification
	Consumed          int       // How many characters from Raw were accounted for
	ConsumedModifiers int       // How many modifier keys were used in transformation
}

// Engine is the interface the legacy (keysym-based) host surface programs
// against; CompositionEngine (engine.go) satisfies it.
type Engine interface {
	// ProcessKey handles a key event and returns the result.
	ProcessKey(event KeyEvent) ProcessResult

	// Reset clears the current composition state.
	Reset()

	// GetPreedit returns the current preedit string.
	GetPreedit() string

	// SetInputMethod sets the typing method (e.g., Telex, VNI).
	SetInputMethod(method InputMethod)

	// SetOutputFormat sets the output encoding format.
	SetOutputFormat(format OutputFormat)
}

// InputMethod defines the interface for different typing methods.
type InputMethod interface {
	// Name returns the name of the input method (e.g., "Telex", "VNI").
	Name() string

	// ProcessChar processes a character and returns the transformation.
	// Returns (transformed string, tone mark, vowel mark, consumed).
	ProcessChar(char rune, current *Syllable) (string, ToneMark, VowelMark, bool)

	// IsToneKey checks if the character is used for tone marking.
	IsToneKey(char rune) bool

	// GetToneMark returns the tone mark for a given character.
	GetToneMark(char rune) ToneMark

	// IsVowelModifier checks if the character modifies a vowel.
	IsVowelModifier(char rune) bool

	// GetVowelMark returns the vowel mark for a given character.
	GetVowelMark(char rune) VowelMark

	// IsStrokeTrigger checks if the character is the đ/Đ stroke trigger
	// (Telex doubled 'd'; VNI digit 9).
	IsStrokeTrigger(char rune) bool

	// IsMarkRemovalTrigger checks if the character clears tone/vowel marks
	// (Telex 'z'; VNI digit 0).
	IsMarkRemovalTrigger(char rune) bool
}

// OutputFormat defines the interface for different output encodings.
type OutputFormat interface {
	// Name returns the name of the output format.
	Name() string

	// Compose creates the final string from a syllable.
	Compose(syllable *Syllable) string

	// ApplyTone applies a tone mark to a vowel character.
	ApplyTone(vowel rune, tone ToneMark) string

	// ApplyVowelMark applies a vowel mark to a character.
	ApplyVowelMark(char rune, mark VowelMark) string
}
