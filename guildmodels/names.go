package guildmodels

import "strings"

//ToStorageKey converts a human-entered group name into its storage form.
//Stored names never contain raw spaces so they can be used as slash option
//values and compared byte-for-byte.
func ToStorageKey(display string) string {
	return strings.ReplaceAll(display, " ", "_")
}

//ToDisplayName converts a stored group name back into its display form.
func ToDisplayName(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}
