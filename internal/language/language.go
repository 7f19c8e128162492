package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code    string       // value the backend expects
	tag     language.Tag // canonical BCP 47 tag
	display string       // English name
	words   []string     // full word and ISO 639-2 forms
}

var languages = []entry{
	{"en", language.English, "English", []string{"english", "eng"}},
	{"ru", language.Russian, "Russian", []string{"russian", "rus"}},
	{"kz", language.Kazakh, "Kazakh", []string{"kazakh", "kaz", "kk"}},
}

var (
	byCode map[string]*entry
	byWord map[string]*entry
	byBase map[language.Base]*entry
)

func init() {
	byCode = make(map[string]*entry, len(languages))
	byWord = make(map[string]*entry, len(languages)*3)
	byBase = make(map[language.Base]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode[e.code] = e
		for _, w := range e.words {
			byWord[w] = e
		}
		base, _ := e.tag.Base()
		byBase[base] = e
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	tag, err := language.Parse(code)
	if err != nil {
		return nil
	}
	base, _ := tag.Base()
	return byBase[base]
}

// Normalize maps any accepted spelling (code, BCP 47 tag, ISO 639-2, English
// word) to the interview language code the backend understands.
func Normalize(code string) (string, error) {
	if e := lookup(code); e != nil {
		return e.code, nil
	}
	return "", fmt.Errorf("unsupported interview language %q (supported: %s)", strings.TrimSpace(code), strings.Join(Supported(), ", "))
}

// IsSupported reports whether code resolves to an interview language.
func IsSupported(code string) bool {
	return lookup(code) != nil
}

// Supported lists the backend language codes in display order.
func Supported() []string {
	out := make([]string, 0, len(languages))
	for _, e := range languages {
		out = append(out, e.code)
	}
	return out
}

// Tag returns the BCP 47 tag for an interview language, or language.Und.
func Tag(code string) language.Tag {
	if e := lookup(code); e != nil {
		return e.tag
	}
	return language.Und
}

// DisplayName returns the English name for code, "Unknown" for empty input,
// or the uppercased code when unrecognized.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// NativeName returns the language name written in that language, e.g. "русский".
func NativeName(code string) string {
	e := lookup(code)
	if e == nil {
		return DisplayName(code)
	}
	if name := display.Self.Name(e.tag); name != "" {
		return name
	}
	return e.display
}

// SpeechCode returns the ISO 639-1 code used by speech synthesizers. The
// backend spells Kazakh "kz" while synthesizers expect "kk".
func SpeechCode(code string) string {
	e := lookup(code)
	if e == nil {
		return strings.ToLower(strings.TrimSpace(code))
	}
	base, _ := e.tag.Base()
	return base.String()
}
