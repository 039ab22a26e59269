package adapt

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// LexiconVersion identifies the keyword lists below. Bump it whenever a list changes
// so journaled decisions can be traced to the words that produced them.
const LexiconVersion = "2025.2"

// Lexicon is a fixed keyword classifier for free-text session notes.
type Lexicon struct {
	Version string
	// Negations are removed from the text before markers are matched.
	Negations []string
	Severe    []string
	Moderate  []string
	Positive  []string
}

// DefaultLexicon is the lexicon used by Evaluate.
var DefaultLexicon = Lexicon{
	Version: LexiconVersion,
	Negations: []string{
		"no pain",
		"without pain",
		"pain free",
		"pain-free",
		"no injury",
		"injury free",
		"injury-free",
		"not injured",
	},
	Severe: []string{
		"pain",
		"injury",
		"injured",
		"couldn't finish",
		"could not finish",
		"couldnt finish",
		"dizzy",
	},
	Moderate: []string{
		"struggled",
		"struggling",
		"heavy legs",
		"legs felt heavy",
		"exhausted",
		"fatigue",
		"fatigued",
		"sore",
		"soreness",
	},
	Positive: []string{
		"felt good",
		"feeling good",
		"controlled",
		"on target",
		"felt strong",
		"comfortable",
	},
}

// NoteSignal is the lexicon classification of one note.
type NoteSignal struct {
	Severe   bool `json:"severe"`
	Moderate bool `json:"moderate"`
	Positive bool `json:"positive"`
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

// Classify reports which marker groups appear in notes. Matching is case-insensitive
// and a marker must start and end on a word boundary.
func (l Lexicon) Classify(notes string) NoteSignal {
	text := apostrophes.Replace(strings.ToLower(notes))
	for _, n := range l.Negations {
		text = strings.ReplaceAll(text, n, " ")
	}
	return NoteSignal{
		Severe:   containsAny(text, l.Severe),
		Moderate: containsAny(text, l.Moderate),
		Positive: containsAny(text, l.Positive),
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if containsWord(text, w) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	for off := 0; off < len(text); {
		i := strings.Index(text[off:], word)
		if i < 0 {
			return false
		}
		start, end := off+i, off+i+len(word)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		off = start + 1
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
