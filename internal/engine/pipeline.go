package engine

import "unicode"

// OnKey is the engine's scheme-neutral entry point (spec.md §6.1 on_key):
// it consumes one keystroke and returns an engine-owned Delta describing how
// the host's focused field must change. The returned pointer is valid only
// until the next OnKey call; callers needing to keep the text must copy
// Delta.Text() out first.
//
// Gate order: enabled, then control-combo, then word-boundary, backspace,
// escape, and finally the scheme adapter's transform pipeline — matching
// the priority spec.md §4.2 and §6.3 describe.
func (e *CompositionEngine) OnKey(key KeyCode, caps, shift, ctrl bool) *Delta {
	if e.reentrant {
		e.delta.reset()
		return &e.delta
	}
	e.reentrant = true
	defer func() { e.reentrant = false }()

	e.delta.reset()

	if !e.enabled {
		return &e.delta
	}

	if ctrl {
		e.ClearBuffer()
		return &e.delta
	}

	switch key {
	case KeyBackspace:
		e.onBackspace()
		return &e.delta
	case KeyEscape:
		e.onEscape()
		return &e.delta
	case KeyReturn, KeyTab, KeyDelete:
		e.onPassthroughCommit()
		return &e.delta
	}

	if IsWordTerminator(key) {
		e.onWordBoundary(key)
		return &e.delta
	}

	e.onChar(key, caps)
	return &e.delta
}

// onChar runs one printable keystroke through the transform pipeline and
// emits the resulting edit as a backspace+insert pair relative to what the
// host currently shows for the in-progress syllable.
func (e *CompositionEngine) onChar(key KeyCode, caps bool) {
	prev := []rune(e.prevRendered)
	e.applyChar(key, caps)
	next := []rune(e.renderBuffer())
	e.emitDiff(prev, next, ActionEdit)
}

// onBackspace pops the most recent raw keystroke and re-derives the
// syllable, emitting whatever edit is needed to bring the host's display
// back in sync — which may delete and retype more than one character, since
// removing a keystroke can shift where a tone mark lands.
func (e *CompositionEngine) onBackspace() {
	if e.buffer.len() == 0 {
		return
	}
	prev := []rune(e.prevRendered)
	popped, _ := e.buffer.popRaw()
	if e.inputMethod.IsToneKey(popped.Char) {
		// ToneMark survives reparse's rebuild by design (see reparse's doc
		// comment), but that carry-over is wrong here: the keystroke just
		// removed may be the very one that set it. Clearing it before the
		// rebuild handles the common case (type a tone, immediately
		// backspace); a backspace that lands past an earlier double-key
		// revert is a known gap (DESIGN.md Open Questions).
		e.buffer.syllable.ToneMark = ToneNone
	}
	e.reparse()
	next := []rune(e.renderBuffer())
	e.emitDiff(prev, next, ActionEdit)
}

// onEscape implements ESC-restore (spec.md §4.4): if a syllable is
// in-progress, it is restored to its literal keystrokes; otherwise the most
// recently committed word (if any) is restored. With nothing to restore,
// ESC is a no-op pass-through (DESIGN.md Open Question: ESC-restore scope).
func (e *CompositionEngine) onEscape() {
	if !e.config.EscRestore {
		return
	}

	if e.buffer.len() > 0 {
		prev := []rune(e.prevRendered)
		raw := e.buffer.rawString()
		e.history.push(HistoryEntry{Rendered: raw, Raw: raw, Transformed: false})
		e.ClearBuffer()
		e.emitDiff(prev, []rune(raw), ActionRestore)
		// The syllable just restored is committed, literal text now owned
		// by the host, not an in-progress render the engine tracks.
		e.prevRendered = ""
		return
	}

	entry, ok := e.history.popMostRecent()
	if !ok {
		return
	}
	if entry.Rendered == entry.Raw {
		return
	}
	e.emitDiff([]rune(entry.Rendered), []rune(entry.Raw), ActionRestore)
	e.prevRendered = ""
}

// onPassthroughCommit handles Return/Tab/Delete: the in-progress syllable
// commits exactly as-is (no restore/shortcut logic, since these keys don't
// carry a literal character of their own to combine with one), and the key
// itself is left for the host to apply normally.
func (e *CompositionEngine) onPassthroughCommit() {
	e.commitBuffer()
}

// onWordBoundary handles a terminator keystroke (spec.md §6.3): the
// in-progress syllable is finalized (possibly via abbreviation expansion or
// English auto-restore), and the terminator itself is appended to the
// result in the same edit.
func (e *CompositionEngine) onWordBoundary(key KeyCode) {
	prev := []rune(e.prevRendered)
	final := e.commitBuffer()

	if e.config.AutoCapitalize && isSentenceEnd(key) {
		e.capitalizeNext = true
	} else if e.config.AutoCapitalize && key != ' ' && key != '\t' {
		// Non-space, non-sentence-ending punctuation still breaks the
		// capitalization run (e.g. a comma mid-sentence should not
		// capitalize the next word).
		e.capitalizeNext = false
	}

	next := append([]rune(final), key)
	e.emitDiff(prev, next, ActionEdit)
	// final+key has just been committed to the host; the next syllable
	// starts from an empty in-progress render, not from this text.
	e.prevRendered = ""
}

// commitBuffer finalizes the in-progress syllable: abbreviation expansion
// takes priority, then the English auto-restore heuristic, then whatever is
// currently rendered. It records the outcome in word history and clears the
// buffer. Returns the committed text (without any terminator).
func (e *CompositionEngine) commitBuffer() string {
	if e.buffer.len() == 0 {
		return ""
	}

	raw := e.buffer.rawString()
	rendered := e.renderBuffer()
	final := rendered
	transformed := rendered != raw

	if e.buffer.eligibleForShortcut() {
		if expansion, ok := e.abbrev.lookup(raw); ok {
			final = expansion
			transformed = true
		}
	}

	if final == rendered && e.config.EnglishAutoRestore && transformed && looksEnglish(raw) {
		final = raw
	}

	if e.capitalizeNext && final != "" {
		final = capitalizeFirst(final)
		e.capitalizeNext = false
	}

	e.history.push(HistoryEntry{Rendered: final, Raw: raw, Transformed: transformed})
	e.ClearBuffer()
	return final
}

// emitDiff fills e.delta with the backspace+insert needed to turn prev into
// next as currently shown in the host's field, using the longest common
// prefix so a plain append never triggers a spurious backspace.
func (e *CompositionEngine) emitDiff(prev, next []rune, action int) {
	n := commonPrefixLen(prev, next)
	backspace := len(prev) - n
	insert := next[n:]

	if backspace == 0 && len(insert) == 0 {
		e.delta.Action = ActionNoop
		e.prevRendered = string(next)
		return
	}

	e.delta.setEdit(action, backspace, insert)
	e.prevRendered = string(next)
}

func commonPrefixLen(a, b []rune) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func capitalizeFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func isSentenceEnd(key KeyCode) bool {
	switch key {
	case '.', '!', '?':
		return true
	}
	return false
}
