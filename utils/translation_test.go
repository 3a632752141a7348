package utils

import "testing"

func TestResolvePrefersRequestedLanguage(t *testing.T) {
	tr := ParseTranslations(`{"en":"Hello","ru":"Привет"}`)
	if got := tr.Resolve("ru", "en"); got != "Привет" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	tr := ParseTranslations(`{"en":"Hello","ru":"Привет"}`)
	if got := tr.Resolve("de", "en"); got != "Hello" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveFallsBackToAnyDeterministically(t *testing.T) {
	tr := ParseTranslations(`{"ru":"Привет","vi":"Chào"}`)
	if got := tr.Resolve("de", "en"); got != "Привет" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveEmptyAndInvalid(t *testing.T) {
	if got := ParseTranslations("").Resolve("en", "en"); got != "" {
		t.Fatalf("empty raw: got %q", got)
	}
	if got := ParseTranslations("not json").Resolve("en", "en"); got != "" {
		t.Fatalf("invalid raw: got %q", got)
	}
}

func TestTranslationsJSONRoundTrip(t *testing.T) {
	raw, err := TranslationsJSON(Translations{"en": "Hello"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := ParseTranslations(raw).Resolve("en", "en"); got != "Hello" {
		t.Fatalf("got %q", got)
	}
}
