package roles

import (
	"github.com/bwmarrin/discordgo"
)

//ExternalRole is the engine's view of a live discord role. Position is the
//role's rank in the guild hierarchy (higher outranks lower); Managed marks
//roles owned by an integration, bot or premium tier, which are never
//eligible for tracking.
type ExternalRole struct {
	ID       string
	Name     string
	Position int
	Managed  bool
	Everyone bool
}

//Authority is the engine's window onto the chat platform, which owns the
//real role list. The engine treats it as read-mostly authoritative and
//never assumes locking control over it. The discord package implements it
//on a gateway session.
type Authority interface {
	//Role returns the live role, or nil if it no longer exists.
	Role(guildID string, roleID string) (*ExternalRole, error)
	Roles(guildID string) ([]ExternalRole, error)

	MemberRoleIDs(guildID string, userID string) ([]string, error)
	AddRoleToMember(guildID string, userID string, roleID string, reason string) error
	RemoveRoleFromMember(guildID string, userID string, roleID string, reason string) error

	EditMessage(channelID string, messageID string, content string, components []discordgo.MessageComponent) error

	//BotTopPosition returns the hierarchy position of the bot's own highest
	//role in the guild.
	BotTopPosition(guildID string) (int, error)
	//MemberTopPosition returns the hierarchy position of the member's highest
	//role in the guild.
	MemberTopPosition(guildID string, userID string) (int, error)
	//CanManageRoles reports whether the member holds guild-level role
	//management permission (or owns the guild).
	CanManageRoles(guildID string, userID string) (bool, error)
}
