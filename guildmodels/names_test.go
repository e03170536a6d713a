package guildmodels

import "testing"

func TestToStorageKeyReplacesSpaces(t *testing.T) {
	if got := ToStorageKey("Color Roles"); got != "Color_Roles" {
		t.Errorf("expected Color_Roles, got %q", got)
	}
}

func TestToStorageKeyNoSpaces(t *testing.T) {
	if got := ToStorageKey("Pronouns"); got != "Pronouns" {
		t.Errorf("expected Pronouns unchanged, got %q", got)
	}
}

func TestToDisplayName(t *testing.T) {
	if got := ToDisplayName("Color_Roles"); got != "Color Roles" {
		t.Errorf("expected Color Roles, got %q", got)
	}
}

func TestNameRoundTrip(t *testing.T) {
	//Display strings that only use spaces/underscores as separators survive
	//a round trip through the storage form.
	for _, display := range []string{"Color Roles", "one two three", "already_underscored", "Pronouns"} {
		if got := ToDisplayName(ToStorageKey(display)); got != ToDisplayName(display) {
			t.Errorf("round trip of %q produced %q", display, got)
		}
	}
}

func TestStorageKeyNeverContainsSpaces(t *testing.T) {
	for _, display := range []string{"a b c", " leading", "trailing ", "no-spaces"} {
		key := ToStorageKey(display)
		for _, r := range key {
			if r == ' ' {
				t.Errorf("storage key %q for %q contains a space", key, display)
			}
		}
	}
}
