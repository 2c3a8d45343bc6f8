package engine

import "golang.org/x/text/unicode/norm"

// UnicodeFormat implements OutputFormat for Unicode output. ModernTone
// selects which tone-placement rule findTonePosition uses for the 'oa', 'oe',
// 'uy' pairs (spec.md §4.2): modern places the tone on the second vowel,
// classical (the teacher's original, hardcoded behavior) on the first.
type UnicodeFormat struct {
	ModernTone bool
}

// NewUnicodeFormat creates a new Unicode output format using the classical
// (traditional) tone-placement rule.
func NewUnicodeFormat() *UnicodeFormat {
	return &UnicodeFormat{}
}

var defaultOutputFormat = NewUnicodeFormat()

// Name returns the format name.
func (u *UnicodeFormat) Name() string {
	return "Unicode"
}

// Vietnamese vowels with all tone combinations.
// Format: [base_vowel][tone] -> unicode_char
var unicodeVowelTones = map[rune]map[ToneMark]rune{
	'a': {ToneNone: 'a', ToneSac: 'á', ToneHuyen: 'à', ToneHoi: 'ả', ToneNga: 'ã', ToneNang: 'ạ'},
	'A': {ToneNone: 'A', ToneSac: 'Á', ToneHuyen: 'À', ToneHoi: 'Ả', ToneNga: 'Ã', ToneNang: 'Ạ'},
	'ă': {ToneNone: 'ă', ToneSac: 'ắ', ToneHuyen: 'ằ', ToneHoi: 'ẳ', ToneNga: 'ẵ', ToneNang: 'ặ'},
	'Ă': {ToneNone: 'Ă', ToneSac: 'Ắ', ToneHuyen: 'Ằ', ToneHoi: 'Ẳ', ToneNga: 'Ẵ', ToneNang: 'Ặ'},
	'â': {ToneNone: 'â', ToneSac: 'ấ', ToneHuyen: 'ầ', ToneHoi: 'ẩ', ToneNga: 'ẫ', ToneNang: 'ậ'},
	'Â': {ToneNone: 'Â', ToneSac: 'Ấ', ToneHuyen: 'Ầ', ToneHoi: 'Ẩ', ToneNga: 'Ẫ', ToneNang: 'Ậ'},
	'e': {ToneNone: 'e', ToneSac: 'é', ToneHuyen: 'è', ToneHoi: 'ẻ', ToneNga: 'ẽ', ToneNang: 'ẹ'},
	'E': {ToneNone: 'E', ToneSac: 'É', ToneHuyen: 'È', ToneHoi: 'Ẻ', ToneNga: 'Ẽ', ToneNang: 'Ẹ'},
	'ê': {ToneNone: 'ê', ToneSac: 'ế', ToneHuyen: 'ề', ToneHoi: 'ể', ToneNga: 'ễ', ToneNang: 'ệ'},
	'Ê': {ToneNone: 'Ê', ToneSac: 'Ế', ToneHuyen: 'Ề', ToneHoi: 'Ể', ToneNga: 'Ễ', ToneNang: 'Ệ'},
	'i': {ToneNone: 'i', ToneSac: 'í', ToneHuyen: 'ì', ToneHoi: 'ỉ', ToneNga: 'ĩ', ToneNang: 'ị'},
	'I': {ToneNone: 'I', ToneSac: 'Í', ToneHuyen: 'Ì', ToneHoi: 'Ỉ', ToneNga: 'Ĩ', ToneNang: 'Ị'},
	'o': {ToneNone: 'o', ToneSac: 'ó', ToneHuyen: 'ò', ToneHoi: 'ỏ', ToneNga: 'õ', ToneNang: 'ọ'},
	'O': {ToneNone: 'O', ToneSac: 'Ó', ToneHuyen: 'Ò', ToneHoi: 'Ỏ', ToneNga: 'Õ', ToneNang: 'Ọ'},
	'ô': {ToneNone: 'ô', ToneSac: 'ố', ToneHuyen: 'ồ', ToneHoi: 'ổ', ToneNga: 'ỗ', ToneNang: 'ộ'},
	'Ô': {ToneNone: 'Ô', ToneSac: 'Ố', ToneHuyen: 'Ồ', ToneHoi: 'Ổ', ToneNga: 'Ỗ', ToneNang: 'Ộ'},
	'ơ': {ToneNone: 'ơ', ToneSac: 'ớ', ToneHuyen: 'ờ', ToneHoi: 'ở', ToneNga: 'ỡ', ToneNang: 'ợ'},
	'Ơ': {ToneNone: 'Ơ', ToneSac: 'Ớ', ToneHuyen: 'Ờ', ToneHoi: 'Ở', ToneNga: 'Ỡ', ToneNang: 'Ợ'},
	'u': {ToneNone: 'u', ToneSac: 'ú', ToneHuyen: 'ù', ToneHoi: 'ủ', ToneNga: 'ũ', ToneNang: 'ụ'},
	'U': {ToneNone: 'U', ToneSac: 'Ú', ToneHuyen: 'Ù', ToneHoi: 'Ủ', ToneNga: 'Ũ', ToneNang: 'Ụ'},
	'ư': {ToneNone: 'ư', ToneSac: 'ứ', ToneHuyen: 'ừ', ToneHoi: 'ử', ToneNga: 'ữ', ToneNang: 'ự'},
	'Ư': {ToneNone: 'Ư', ToneSac: 'Ứ', ToneHuyen: 'Ừ', ToneHoi: 'Ử', ToneNga: 'Ữ', ToneNang: 'Ự'},
	'y': {ToneNone: 'y', ToneSac: 'ý', ToneHuyen: 'ỳ', ToneHoi: 'ỷ', ToneNga: 'ỹ', ToneNang: 'ỵ'},
	'Y': {ToneNone: 'Y', ToneSac: 'Ý', ToneHuyen: 'Ỳ', ToneHoi: 'Ỷ', ToneNga: 'Ỹ', ToneNang: 'Ỵ'},
}

// Vowel mark transformations: base_char -> mark -> result_char
var unicodeVowelMarks = map[rune]map[VowelMark]rune{
	// Breve (ă) and circumflex (â) both come off 'a'
	'a': {VowelBreve: 'ă', VowelHat: 'â'},
	'A': {VowelBreve: 'Ă', VowelHat: 'Â'},
	// Circumflex (ê, ô)
	'e': {VowelHat: 'ê'},
	'E': {VowelHat: 'Ê'},
	'o': {VowelHat: 'ô', VowelHorn: 'ơ'},
	'O': {VowelHat: 'Ô', VowelHorn: 'Ơ'},
	// Horn (ư)
	'u': {VowelHorn: 'ư'},
	'U': {VowelHorn: 'Ư'},
	// D-bar
	'd': {VowelDBar: 'đ'},
	'D': {VowelDBar: 'Đ'},
}

// ApplyTone applies a tone mark to a vowel.
func (u *UnicodeFormat) ApplyTone(vowel rune, tone ToneMark) string {
	if tones, ok := unicodeVowelTones[vowel]; ok {
		if result, ok := tones[tone]; ok {
			return string(result)
		}
	}
	return string(vowel)
}

// ApplyVowelMark applies a vowel mark (hat, breve, horn) to a character.
func (u *UnicodeFormat) ApplyVowelMark(char rune, mark VowelMark) string {
	if marks, ok := unicodeVowelMarks[char]; ok {
		if result, ok := marks[mark]; ok {
			return string(result)
		}
	}
	return string(char)
}

// Compose creates the final Unicode string from a syllable, using u's
// configured tone rule.
func (u *UnicodeFormat) Compose(syllable *Syllable) string {
	if syllable == nil {
		return ""
	}
	if syllable.Nucleus == "" {
		// No vowel typed yet: nothing to place a tone/mark on, but an
		// already-transformed onset (stroke trigger baked into đ/Đ) must
		// still show immediately rather than waiting for a vowel.
		return syllable.Onset + syllable.Coda
	}

	result := syllable.Onset

	nucleus := []rune(syllable.Nucleus)
	tonePos := findTonePosition(nucleus, syllable.Coda, u.ModernTone)

	for i, r := range nucleus {
		// Apply vowel mark first
		modified := r
		if marks, ok := unicodeVowelMarks[r]; ok {
			if result, ok := marks[syllable.VowelMark]; ok {
				modified = result
			}
		}

		// Apply tone mark at the correct position
		if i == tonePos {
			result += u.ApplyTone(modified, syllable.ToneMark)
		} else {
			result += string(modified)
		}
	}

	result += syllable.Coda
	return norm.NFC.String(result)
}

// findTonePosition determines where to place the tone mark in a vowel
// cluster, per spec.md §4.2's placement rules:
//  1. A marked vowel (ă, â, ê, ô, ơ, ư) takes the tone; when two are
//     marked (ươ), the later one does (được, người).
//  2. 'oa', 'oe', 'uy' pairs without a coda: modern places it on the second
//     vowel, classical on the first.
//  3. 'ia', 'ua' without a coda: the first vowel (nghĩa, mía, mùa); 'ưa' is
//     settled by rule 1 (lừa).
//  4. With a coda: 2 vowels -> second (oát, oàn); 3+ vowels -> middle.
//  5. Without a coda, 2 vowels not covered above (ao, au, ay, ...) -> first.
//  6. Without a coda, 3+ vowels -> middle.
func findTonePosition(nucleus []rune, coda string, modern bool) int {
	n := len(nucleus)
	if n <= 1 {
		return 0
	}

	// Rule 1: Find marked vowels (the last one gets the tone)
	for i := n - 1; i >= 0; i-- {
		if isMarkedVowel(nucleus[i]) {
			return i
		}
	}

	// Rule 2: For 'oa', 'oe', 'uy' patterns without coda
	if n == 2 && coda == "" {
		first := nucleus[0]
		second := nucleus[1]

		isOaOe := (first == 'o' || first == 'O') &&
			(second == 'a' || second == 'A' || second == 'ă' || second == 'Ă' ||
				second == 'e' || second == 'E')
		isUy := (first == 'u' || first == 'U') && (second == 'y' || second == 'Y')

		if isOaOe || isUy {
			if modern {
				return 1
			}
			return 0
		}
	}

	// Rule 3: Other complex vowel pairs without a coda (traditional rule)
	if n >= 2 && coda == "" {
		first := nucleus[0]
		second := nucleus[1]

		// 'ia' without coda -> first vowel (traditional: nghĩa, not nghiã)
		if (first == 'i' || first == 'I') && (second == 'a' || second == 'A') {
			return 0
		}
	}

	// Rule 4: With coda
	if coda != "" {
		if n == 2 {
			return 1 // Second vowel: oát, oàn, etc.
		}
		return 1 // Middle vowel: uyến, etc.
	}

	// Rule 5/6: Without coda
	if n == 2 {
		return 0 // 'ao', 'au', 'ay', 'eo', 'eu', ...
	}
	return 1
}

// markedVowelBase maps a vowel carrying a non-tone diacritic back to its
// bare ASCII letter, independent of scheme: reparse uses it when Telex's 'z'
// or VNI's '0' mark-removal trigger has to undo an already-baked
// double-letter or digit transformation.
var markedVowelBase = map[rune]rune{
	'ă': 'a', 'â': 'a', 'Ă': 'A', 'Â': 'A',
	'ê': 'e', 'Ê': 'E',
	'ô': 'o', 'ơ': 'o', 'Ô': 'O', 'Ơ': 'O',
	'ư': 'u', 'Ư': 'U',
}

// isMarkedVowel checks if a vowel has a diacritic mark (not tone)
func isMarkedVowel(r rune) bool {
	switch r {
	case 'ă', 'Ă', 'â', 'Â', 'ê', 'Ê', 'ô', 'Ô', 'ơ', 'Ơ', 'ư', 'Ư':
		return true
	}
	return false
}

// GetBaseVowel returns the base form of a vowel (without tone marks).
func GetBaseVowel(r rune) (rune, ToneMark) {
	for base, tones := range unicodeVowelTones {
		for tone, char := range tones {
			if char == r {
				return base, tone
			}
		}
	}
	return r, ToneNone
}

// IsVietnameseVowel checks if a character is a Vietnamese vowel.
func IsVietnameseVowel(r rune) bool {
	switch r {
	case 'a', 'A', 'ă', 'Ă', 'â', 'Â',
		'e', 'E', 'ê', 'Ê',
		'i', 'I', 'y', 'Y',
		'o', 'O', 'ô', 'Ô', 'ơ', 'Ơ',
		'u', 'U', 'ư', 'Ư':
		return true
	}

	_, tone := GetBaseVowel(r)
	return tone != ToneNone
}

// IsVietnameseConsonant checks if a character is a Vietnamese consonant.
func IsVietnameseConsonant(r rune) bool {
	switch r {
	case 'b', 'B', 'c', 'C', 'd', 'D', 'đ', 'Đ',
		'g', 'G', 'h', 'H', 'k', 'K', 'l', 'L',
		'm', 'M', 'n', 'N', 'p', 'P', 'q', 'Q',
		'r', 'R', 's', 'S', 't', 'T', 'v', 'V',
		'x', 'X':
		return true
	}
	return false
}
