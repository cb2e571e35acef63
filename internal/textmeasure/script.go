package textmeasure

import (
	"unicode"
	"unicode/utf8"
)

// Script is the dominant writing system of a text.
type Script string

const (
	ScriptLatin    Script = "Latin"
	ScriptCyrillic Script = "Cyrillic"
	ScriptHan      Script = "Han"
)

// PrimaryScript returns the script with the most characters in s. ASCII
// (whitespace and punctuation included) counts towards Latin, and Latin wins
// unless another script has a strict majority over both others.
func PrimaryScript(s string) Script {
	var latin, cjk, cyrillic int
	for _, r := range s {
		switch {
		case r < utf8.RuneSelf || unicode.Is(unicode.Latin, r):
			latin++
		case unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana) || (r >= 0x3000 && r <= 0x303f):
			cjk++
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		}
	}
	switch {
	case cjk > latin && cjk > cyrillic:
		return ScriptHan
	case cyrillic > latin && cyrillic > cjk:
		return ScriptCyrillic
	default:
		return ScriptLatin
	}
}
