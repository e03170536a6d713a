package roles

import (
	"regexp"
	"strings"

	"github.com/forPelevin/gomoji"
)

//Custom emoji names must be at least 2 characters of word characters; the
//trailing number is the emoji's snowflake ID.
var discordEmojiRegex = regexp.MustCompile(`^<a?:\w{2,}:\d+>$`)

//IsValidEmoji reports whether s is a single emoji, either a unicode emoji or
//a custom discord one in <a:name:id> form.
func IsValidEmoji(s string) bool {
	if discordEmojiRegex.MatchString(s) {
		return true
	}
	return gomoji.ContainsEmoji(s) && strings.TrimSpace(gomoji.RemoveEmojis(s)) == ""
}
