package bot

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/mirabot/mira/roles"
	"github.com/sirupsen/logrus"
)

const devUIDEnvVar = "MIRA_DEV_UID"

var roleMentionRegex = regexp.MustCompile(`^<@&(\d+)>$`)
var userMentionRegex = regexp.MustCompile(`^<@!?(\d+)>$`)
var roleIDRegex = regexp.MustCompile(`^\d+$`)
var quotedArgRegex = regexp.MustCompile(`^\s*"([^"]+)"\s*(.*)$`)
var keyValueRegex = regexp.MustCompile(`(\w+)=(?:"([^"]*)"|(\S+))`)

//interpretRoleString resolves a user-typed role token into a live guild role.
//The token may be a role mention, a raw snowflake ID or a role name (matched
//case-insensitively). Returns nil when nothing matches.
func (b *MiraBot) interpretRoleString(guildID string, token string) (*roles.ExternalRole, error) {
	token = strings.TrimSpace(token)
	if match := roleMentionRegex.FindStringSubmatch(token); match != nil {
		return b.Authority.Role(guildID, match[1])
	}
	if roleIDRegex.MatchString(token) {
		return b.Authority.Role(guildID, token)
	}
	guildRoles, err := b.Authority.Roles(guildID)
	if err != nil {
		return nil, err
	}
	for i := range guildRoles {
		if strings.EqualFold(guildRoles[i].Name, token) {
			return &guildRoles[i], nil
		}
	}
	return nil, nil
}

//interpretUserString resolves a user mention or raw snowflake ID into a user
//ID, returning the empty string if the token is neither.
func interpretUserString(token string) string {
	token = strings.TrimSpace(token)
	if match := userMentionRegex.FindStringSubmatch(token); match != nil {
		return match[1]
	}
	if roleIDRegex.MatchString(token) {
		return token
	}
	return ""
}

//popQuotedArg splits a leading double-quoted argument off the front of args,
//returning the argument contents and the remainder.
func popQuotedArg(args string) (string, string, bool) {
	match := quotedArgRegex.FindStringSubmatch(args)
	if match == nil {
		return "", args, false
	}
	return match[1], match[2], true
}

//popArg splits a leading whitespace-delimited argument off the front of args.
func popArg(args string) (string, string) {
	args = strings.TrimSpace(args)
	parts := strings.SplitN(args, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}

//parseKeyValueArgs extracts every key=value pair from args. Values containing
//spaces must be double-quoted.
func parseKeyValueArgs(args string) map[string]string {
	res := map[string]string{}
	for _, match := range keyValueRegex.FindAllStringSubmatch(args, -1) {
		value := match[2]
		if value == "" {
			value = match[3]
		}
		res[strings.ToLower(match[1])] = value
	}
	return res
}

//parseBoolArg accepts the usual spellings of a boolean command argument.
func parseBoolArg(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "yes", "y", "on", "1":
		return true, nil
	case "false", "no", "n", "off", "0":
		return false, nil
	default:
		return false, fmt.Errorf("`%v` is not a valid boolean; use true or false", value)
	}
}

//isFromAdmin checks whether a message's author may run management commands:
//either they hold role management permission in the guild, or they are the
//bot's developer.
func (b *MiraBot) isFromAdmin(msg *discordgo.MessageCreate) bool {
	if devUID, exists := os.LookupEnv(devUIDEnvVar); exists && msg.Author.ID == devUID {
		return true
	}
	canManage, err := b.Authority.CanManageRoles(msg.GuildID, msg.Author.ID)
	if err != nil {
		logrus.Warnf("Failed to check permissions for user %v on guild %v: %v", msg.Author.ID, msg.GuildID, err)
		return false
	}
	return canManage
}
