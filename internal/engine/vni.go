package engine

import (
	"unicode"
)

// VNIMethod implements the VNI input method.
// VNI uses number keys 1-9 for tone/vowel marks.
type VNIMethod struct{}

// NewVNIMethod creates a new VNI input method.
func NewVNIMethod() *VNIMethod {
	return &VNIMethod{}
}

// Name returns the method name.
func (v *VNIMethod) Name() string {
	return "VNI"
}

// VNI key mappings for tone marks
// 1: sắc    2: huyền   3: hỏi   4: ngã   5: nặng
var vniToneKeys = map[rune]ToneMark{
	'1': ToneSac,   // á
	'2': ToneHuyen, // à
	'3': ToneHoi,   // ả
	'4': ToneNga,   // ã
	'5': ToneNang,  // ạ
}

// VNI key mappings for vowel marks
// 6: circumflex (â, ê, ô)   7: horn (ơ, ư)   8: breve (ă)   9: stroke (đ)
var vniVowelKeys = map[rune]VowelMark{
	'6': VowelHat,   // Circumflex: â, ê, ô
	'7': VowelHorn,  // Horn: ơ, ư
	'8': VowelBreve, // Breve: ă
	'9': VowelDBar,  // Stroke: đ
}

// IsToneKey checks if the character is a VNI tone key (1-5).
func (v *VNIMethod) IsToneKey(char rune) bool {
	_, ok := vniToneKeys[char]
	return ok
}

// GetToneMark returns the tone mark for a VNI character.
func (v *VNIMethod) GetToneMark(char rune) ToneMark {
	if tone, ok := vniToneKeys[char]; ok {
		return tone
	}
	return ToneNone
}

// IsVowelModifier checks if the character modifies a vowel in VNI (6, 7, 8).
// Digit 9 (stroke) is classified separately via IsStrokeTrigger.
func (v *VNIMethod) IsVowelModifier(char rune) bool {
	mark, ok := vniVowelKeys[char]
	return ok && mark != VowelDBar
}

// GetVowelMark returns the vowel mark for a VNI key.
func (v *VNIMethod) GetVowelMark(char rune) VowelMark {
	if mark, ok := vniVowelKeys[char]; ok {
		return mark
	}
	return VowelNone
}

// IsStrokeTrigger checks if the character is the đ/Đ stroke trigger
// (VNI digit 9).
func (v *VNIMethod) IsStrokeTrigger(char rune) bool {
	return char == '9'
}

// IsMarkRemovalTrigger checks if the character clears tone/vowel marks
// (VNI digit 0).
func (v *VNIMethod) IsMarkRemovalTrigger(char rune) bool {
	return char == '0'
}

// ProcessChar reports the tone outcome of a VNI keystroke: applyChar
// (engine.go) consults it only while char is a tone key (1-5), since the
// stroke (9), vowel-modifier (6/7/8), and mark-removal (0) transformations
// are baked directly from the raw keystroke log by the engine's structural
// reparse rather than mutated incrementally here — reparse has to rebuild
// the whole syllable on every keystroke anyway (to keep backspace/revert
// consistent), so deriving those forms twice would just be two sources of
// truth to keep in sync.
func (v *VNIMethod) ProcessChar(char rune, current *Syllable) (string, ToneMark, VowelMark, bool) {
	if current == nil {
		return string(char), ToneNone, VowelNone, false
	}

	if v.IsToneKey(char) && current.Nucleus != "" {
		return "", v.GetToneMark(char), VowelNone, true
	}

	return string(char), ToneNone, VowelNone, false
}

// CanStartWord checks if a character can start a Vietnamese word.
func (v *VNIMethod) CanStartWord(char rune) bool {
	lower := unicode.ToLower(char)
	return unicode.IsLetter(char) ||
		lower == 'a' || lower == 'e' || lower == 'i' ||
		lower == 'o' || lower == 'u' || lower == 'y'
}

// IsWordBreaker checks if a character should break the current word.
func (v *VNIMethod) IsWordBreaker(char rune) bool {
	return unicode.IsSpace(char) || unicode.IsPunct(char)
}

// IsVNIModifier checks if a rune is a VNI modifier (number key used for
// transformation).
func IsVNIModifier(r rune) bool {
	switch r {
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return true
	}
	return false
}
