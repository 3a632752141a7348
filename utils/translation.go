package utils

import (
	"encoding/json"
	"sort"
)

// Translations is a language code → text map stored as JSON in a TEXT column.
type Translations map[string]string

func ParseTranslations(raw string) Translations {
	if raw == "" {
		return Translations{}
	}
	var t Translations
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return Translations{}
	}
	return t
}

func TranslationsJSON(t Translations) (string, error) {
	if t == nil {
		t = Translations{}
	}
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Resolve picks the text for lang, falling back to the default language and
// then to the lexicographically first entry so the result is deterministic.
func (t Translations) Resolve(lang, defaultLang string) string {
	if v, ok := t[lang]; ok && v != "" {
		return v
	}
	if v, ok := t[defaultLang]; ok && v != "" {
		return v
	}
	langs := make([]string, 0, len(t))
	for l := range t {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	for _, l := range langs {
		if t[l] != "" {
			return t[l]
		}
	}
	return ""
}
