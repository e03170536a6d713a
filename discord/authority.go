package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/mirabot/mira/roles"
	"github.com/sirupsen/logrus"
)

//Authority adapts a discordgo session to the role engine's view of the chat
//platform. Hierarchy and permission answers are always fetched live rather
//than from gateway state, since they feed authorization decisions.
type Authority struct {
	session *discordgo.Session
}

//NewAuthority wraps a discordgo session.
func NewAuthority(session *discordgo.Session) *Authority {
	return &Authority{session: session}
}

//Role returns the engine's view of a single live role, or nil if the role
//no longer exists in the guild.
func (a *Authority) Role(guildID string, roleID string) (*roles.ExternalRole, error) {
	guildRoles, err := a.session.GuildRoles(guildID)
	if err != nil {
		logrus.Warnf("Failed to fetch guild roles for guild %v: %v", guildID, err)
		return nil, err
	}
	for _, role := range guildRoles {
		if role.ID == roleID {
			ext := externalRole(guildID, role)
			return &ext, nil
		}
	}
	return nil, nil
}

//Roles returns the engine's view of every live role in the guild.
func (a *Authority) Roles(guildID string) ([]roles.ExternalRole, error) {
	guildRoles, err := a.session.GuildRoles(guildID)
	if err != nil {
		logrus.Warnf("Failed to fetch guild roles for guild %v: %v", guildID, err)
		return nil, err
	}
	res := make([]roles.ExternalRole, 0, len(guildRoles))
	for _, role := range guildRoles {
		res = append(res, externalRole(guildID, role))
	}
	return res, nil
}

//MemberRoleIDs returns the IDs of every role the member currently holds.
func (a *Authority) MemberRoleIDs(guildID string, userID string) ([]string, error) {
	member, err := a.session.GuildMember(guildID, userID)
	if err != nil {
		logrus.Warnf("Failed to fetch member %v in guild %v: %v", userID, guildID, err)
		return nil, err
	}
	return member.Roles, nil
}

//AddRoleToMember assigns a role, recording reason in the guild's audit log.
func (a *Authority) AddRoleToMember(guildID string, userID string, roleID string, reason string) error {
	if reason == "" {
		return a.session.GuildMemberRoleAdd(guildID, userID, roleID)
	}
	return a.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithAuditLogReason(reason))
}

//RemoveRoleFromMember removes a role, recording reason in the guild's audit log.
func (a *Authority) RemoveRoleFromMember(guildID string, userID string, roleID string, reason string) error {
	if reason == "" {
		return a.session.GuildMemberRoleRemove(guildID, userID, roleID)
	}
	return a.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithAuditLogReason(reason))
}

//EditMessage replaces the content and components of an existing message.
func (a *Authority) EditMessage(channelID string, messageID string, content string, components []discordgo.MessageComponent) error {
	edit := discordgo.MessageEdit{
		ID:         messageID,
		Channel:    channelID,
		Content:    &content,
		Components: components,
	}
	_, err := a.session.ChannelMessageEditComplex(&edit)
	return err
}

//BotTopPosition returns the hierarchy position of the bot's own highest role
//in the guild.
func (a *Authority) BotTopPosition(guildID string) (int, error) {
	return a.MemberTopPosition(guildID, a.session.State.User.ID)
}

//MemberTopPosition returns the hierarchy position of the member's highest
//role. A member with no roles beyond @everyone sits at position 0.
func (a *Authority) MemberTopPosition(guildID string, userID string) (int, error) {
	member, err := a.session.GuildMember(guildID, userID)
	if err != nil {
		logrus.Warnf("Failed to fetch member %v in guild %v: %v", userID, guildID, err)
		return 0, err
	}
	guildRoles, err := a.session.GuildRoles(guildID)
	if err != nil {
		logrus.Warnf("Failed to fetch guild roles for guild %v: %v", guildID, err)
		return 0, err
	}
	held := make(map[string]bool, len(member.Roles))
	for _, id := range member.Roles {
		held[id] = true
	}
	top := 0
	for _, role := range guildRoles {
		if held[role.ID] && role.Position > top {
			top = role.Position
		}
	}
	return top, nil
}

//CanManageRoles reports whether the member may manage roles in the guild,
//either through ownership or through a role carrying the manage-roles or
//administrator permission.
func (a *Authority) CanManageRoles(guildID string, userID string) (bool, error) {
	guild, err := a.session.Guild(guildID)
	if err != nil {
		logrus.Warnf("Failed to fetch guild %v: %v", guildID, err)
		return false, err
	}
	if guild.OwnerID == userID {
		return true, nil
	}
	member, err := a.session.GuildMember(guildID, userID)
	if err != nil {
		logrus.Warnf("Failed to fetch member %v in guild %v: %v", userID, guildID, err)
		return false, err
	}
	guildRoles, err := a.session.GuildRoles(guildID)
	if err != nil {
		logrus.Warnf("Failed to fetch guild roles for guild %v: %v", guildID, err)
		return false, err
	}
	held := make(map[string]bool, len(member.Roles))
	for _, id := range member.Roles {
		held[id] = true
	}
	var perms int64
	for _, role := range guildRoles {
		//The @everyone role applies to every member.
		if held[role.ID] || role.ID == guildID {
			perms |= role.Permissions
		}
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return true, nil
	}
	return perms&discordgo.PermissionManageRoles != 0, nil
}

func externalRole(guildID string, role *discordgo.Role) roles.ExternalRole {
	return roles.ExternalRole{
		ID:       role.ID,
		Name:     role.Name,
		Position: role.Position,
		Managed:  role.Managed,
		Everyone: role.ID == guildID,
	}
}
