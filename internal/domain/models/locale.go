// internal/domain/models/locale.go
package models

import "strings"

// Supported content languages. English is the fallback for every lookup.
const (
	LangEN = "en"
	LangSW = "sw"
	LangFR = "fr"
	LangDE = "de"
	LangES = "es"
)

// DefaultLang is the language used when a request names none or an unknown one.
const DefaultLang = LangEN

// Language describes a supported language for the UI picker.
type Language struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// SupportedLanguages lists the site languages in display order.
var SupportedLanguages = []Language{
	{Code: LangEN, Label: "English"},
	{Code: LangSW, Label: "Kiswahili"},
	{Code: LangFR, Label: "Français"},
	{Code: LangDE, Label: "Deutsch"},
	{Code: LangES, Label: "Español"},
}

// SupportedLangCodes returns the codes of SupportedLanguages.
func SupportedLangCodes() []string {
	codes := make([]string, len(SupportedLanguages))
	for i, l := range SupportedLanguages {
		codes[i] = l.Code
	}
	return codes
}

// IsSupportedLang reports whether code is one of the site languages.
func IsSupportedLang(code string) bool {
	for _, l := range SupportedLanguages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// NormalizeLang lowercases and trims code, returning DefaultLang when the
// result is not a supported language.
func NormalizeLang(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if IsSupportedLang(code) {
		return code
	}
	return DefaultLang
}

// LocalizedText holds one string per site language. EN is mandatory;
// the others may be empty.
type LocalizedText struct {
	EN string `bson:"en" json:"en" yaml:"en"`
	SW string `bson:"sw,omitempty" json:"sw,omitempty" yaml:"sw,omitempty"`
	FR string `bson:"fr,omitempty" json:"fr,omitempty" yaml:"fr,omitempty"`
	DE string `bson:"de,omitempty" json:"de,omitempty" yaml:"de,omitempty"`
	ES string `bson:"es,omitempty" json:"es,omitempty" yaml:"es,omitempty"`
}

// Get returns the raw value stored for lang, without fallback.
// Unknown codes return "".
func (t LocalizedText) Get(lang string) string {
	switch lang {
	case LangEN:
		return t.EN
	case LangSW:
		return t.SW
	case LangFR:
		return t.FR
	case LangDE:
		return t.DE
	case LangES:
		return t.ES
	}
	return ""
}

// Set stores s under lang. Unknown codes are ignored and reported false.
func (t *LocalizedText) Set(lang, s string) bool {
	switch lang {
	case LangEN:
		t.EN = s
	case LangSW:
		t.SW = s
	case LangFR:
		t.FR = s
	case LangDE:
		t.DE = s
	case LangES:
		t.ES = s
	default:
		return false
	}
	return true
}

// Resolve returns the text for lang when it is present and not blank,
// otherwise the English text. Unknown codes fall back silently.
func (t LocalizedText) Resolve(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if v := t.Get(lang); strings.TrimSpace(v) != "" {
		return v
	}
	return t.EN
}

// HasEN reports whether the mandatory English text is present.
func (t LocalizedText) HasEN() bool {
	return strings.TrimSpace(t.EN) != ""
}

// Trimmed returns a copy with surrounding whitespace removed from every language.
func (t LocalizedText) Trimmed() LocalizedText {
	return LocalizedText{
		EN: strings.TrimSpace(t.EN),
		SW: strings.TrimSpace(t.SW),
		FR: strings.TrimSpace(t.FR),
		DE: strings.TrimSpace(t.DE),
		ES: strings.TrimSpace(t.ES),
	}
}

// Map applies fn to every non-empty language value.
func (t LocalizedText) Map(fn func(string) string) LocalizedText {
	out := t
	for _, code := range SupportedLangCodes() {
		if v := t.Get(code); v != "" {
			out.Set(code, fn(v))
		}
	}
	return out
}

// SingleLocale wraps text submitted in one language. A non-English
// submission is mirrored into EN so the English value is always present.
func SingleLocale(lang, text string) LocalizedText {
	var t LocalizedText
	lang = NormalizeLang(lang)
	t.Set(lang, text)
	if lang != LangEN {
		t.EN = text
	}
	return t
}
