package engine

// BufferCapacity bounds the number of keystrokes held for a single in-progress
// syllable (spec.md §4.3). No Vietnamese syllable requires more than a
// handful of keystrokes even with doubled modifiers; 64 gives generous
// headroom while keeping the buffer a fixed array with no heap traffic on the
// hot path.
const BufferCapacity = 64

// SyllableBuffer holds the current composition state: the raw keystroke log
// (source of truth, replayed through reparse on every
// keystroke) and the derived glyph projection used by callers that want a
// position-addressable view of the syllable (spec.md §4.3 operations).
//
// Both logs are fixed-capacity arrays. Once raw overflows BufferCapacity the
// buffer is marked truncated: the syllable can still be edited, but it stops
// being a candidate for abbreviation lookup or auto-restore, since neither
// can trust that the full word was observed.
type SyllableBuffer struct {
	raw       [BufferCapacity]RawKey
	rawLen    int
	glyphs    [BufferCapacity]GlyphRecord
	glyphLen  int
	syllable  *Syllable
	truncated bool
}

// NewSyllableBuffer creates a new empty buffer.
func NewSyllableBuffer() *SyllableBuffer {
	return &SyllableBuffer{syllable: &Syllable{}}
}

// clear resets the buffer to empty without reallocating.
func (b *SyllableBuffer) clear() {
	b.rawLen = 0
	b.glyphLen = 0
	b.truncated = false
	b.syllable = &Syllable{}
}

// len reports the number of raw keystrokes currently held.
func (b *SyllableBuffer) len() int {
	return b.rawLen
}

// append records one more raw keystroke. If the buffer is already full the
// keystroke is still applied to the parsed syllable (the caller must do
// that separately) but the raw log stops growing and the buffer is marked
// truncated, per spec.md §4.3 overflow handling.
func (b *SyllableBuffer) append(k RawKey) {
	if b.rawLen >= BufferCapacity {
		b.truncated = true
		return
	}
	b.raw[b.rawLen] = k
	b.rawLen++
}

// popRaw removes the most recent raw keystroke, used by backspace handling.
// Reports false if the buffer was already empty.
func (b *SyllableBuffer) popRaw() (RawKey, bool) {
	if b.rawLen == 0 {
		return RawKey{}, false
	}
	b.rawLen--
	k := b.raw[b.rawLen]
	return k, true
}

// rawRunes returns the raw keystrokes as typed, respecting per-key caps
// state, without any scheme transformation applied. Used for revert display
// and the English auto-restore heuristic.
func (b *SyllableBuffer) rawRunes() []rune {
	out := make([]rune, 0, b.rawLen)
	for i := 0; i < b.rawLen; i++ {
		k := b.raw[i]
		r := k.Char
		if k.Caps {
			r = toUpperRune(r)
		}
		out = append(out, r)
	}
	return out
}

// rawString is a convenience wrapper around rawRunes.
func (b *SyllableBuffer) rawString() string {
	return string(b.rawRunes())
}

// setGlyphs replaces the derived glyph projection. Called after each
// reparse; truncates silently at BufferCapacity (should never trigger in
// practice since glyphLen tracks rawLen one-for-one or less).
func (b *SyllableBuffer) setGlyphs(records []GlyphRecord) {
	n := copy(b.glyphs[:], records)
	b.glyphLen = n
}

// glyphAt returns the glyph record at position i, and whether i was in
// range.
func (b *SyllableBuffer) glyphAt(i int) (GlyphRecord, bool) {
	if i < 0 || i >= b.glyphLen {
		return GlyphRecord{}, false
	}
	return b.glyphs[i], true
}

// eligibleForShortcut reports whether the buffer's content may be looked up
// in the abbreviation store: truncated (overflowed) syllables are excluded
// per spec.md §4.5, since the store cannot be sure the full trigger text was
// captured.
func (b *SyllableBuffer) eligibleForShortcut() bool {
	return !b.truncated
}

func toUpperRune(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	switch r {
	case 'đ':
		return 'Đ'
	}
	return r
}
