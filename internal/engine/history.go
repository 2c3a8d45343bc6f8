package engine

import "strings"

// HistoryCapacity is the number of committed words the engine remembers for
// ESC-restore (spec.md §4.4).
const HistoryCapacity = 16

// HistoryEntry records one committed word: both the form that was actually
// inserted and the literal keystrokes behind it, so either can be restored.
type HistoryEntry struct {
	Rendered    string // what was inserted (possibly Vietnamese-transformed)
	Raw         string // literal keystrokes, caps applied, no transformation
	Transformed bool   // whether Rendered differs from Raw
}

// WordHistory is a fixed-size ring buffer of recently committed words, plus
// the English-likelihood heuristic that drives auto-restore.
type WordHistory struct {
	entries [HistoryCapacity]HistoryEntry
	count   int // number of valid entries (<= HistoryCapacity)
	head    int // index of the most recently pushed entry
}

// NewWordHistory creates an empty history ring.
func NewWordHistory() *WordHistory {
	return &WordHistory{head: -1}
}

// push records a newly committed word, overwriting the oldest entry once the
// ring is full.
func (h *WordHistory) push(e HistoryEntry) {
	h.head = (h.head + 1) % HistoryCapacity
	h.entries[h.head] = e
	if h.count < HistoryCapacity {
		h.count++
	}
}

// mostRecent returns the last committed entry, if any.
func (h *WordHistory) mostRecent() (HistoryEntry, bool) {
	if h.count == 0 {
		return HistoryEntry{}, false
	}
	return h.entries[h.head], true
}

// popMostRecent removes and returns the last committed entry, so a repeated
// ESC-restore doesn't try to restore the same word twice.
func (h *WordHistory) popMostRecent() (HistoryEntry, bool) {
	e, ok := h.mostRecent()
	if !ok {
		return HistoryEntry{}, false
	}
	h.head = (h.head - 1 + HistoryCapacity) % HistoryCapacity
	h.count--
	return e, true
}

// clear empties the history ring.
func (h *WordHistory) clear() {
	h.count = 0
	h.head = -1
}

// englishOnsetClusters are consonant clusters common at the start of English
// words but not produced by any valid Vietnamese onset (validInitials in
// validation.go) — a strong signal the typed word is not Vietnamese.
var englishOnsetClusters = []string{
	"bl", "br", "cl", "cr", "dr", "fl", "fr", "gl", "gr",
	"pl", "pr", "sc", "sk", "sl", "sm", "sn", "sp", "st", "sw",
}

// englishCodaClusters are consonant clusters common at the end of English
// words but not in validFinals (validation.go).
var englishCodaClusters = []string{
	"ct", "ft", "ld", "lk", "lp", "lt", "nd", "nk", "ns", "rd", "rk", "rt",
	"sk", "sp", "ss", "st", "ts", "xt",
}

// commonEnglishWords is a small closed list of short English words whose
// literal keystrokes happen to collide with tone/vowel-mark triggers in both
// schemes, so the cluster heuristic alone would miss them.
var commonEnglishWords = map[string]bool{
	"of": true, "is": true, "as": true, "if": true, "on": true,
	"or": true, "in": true, "at": true, "it": true, "so": true,
}

// looksEnglish reports whether raw (the literal keystrokes, lowercased)
// looks more like an English word than a Vietnamese one — used to decide
// whether a transformed syllable should be auto-restored to its raw form at
// the word boundary (spec.md §4.4, "English auto-restore").
func looksEnglish(raw string) bool {
	lower := strings.ToLower(raw)
	if commonEnglishWords[lower] {
		return true
	}
	for _, cluster := range englishOnsetClusters {
		if strings.HasPrefix(lower, cluster) {
			return true
		}
	}
	for _, cluster := range englishCodaClusters {
		if strings.HasSuffix(lower, cluster) {
			return true
		}
	}
	return false
}
