package utils

import "testing"

func TestT_Fallback(t *testing.T) {
	if got := T("fr", "health.ok"); got != "ok" {
		t.Fatalf("fallback to en failed: %s", got)
	}
	if got := T("zh", "no.such.key"); got != "no.such.key" {
		t.Fatalf("expected key echo, got %s", got)
	}
}

func TestEveryLocaleHasEveryKey(t *testing.T) {
	for _, loc := range SupportedLocales {
		for key := range translations[DefaultLocale] {
			if _, ok := translations[loc][key]; !ok {
				t.Fatalf("locale %s missing %s", loc, key)
			}
		}
	}
}
