package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/mirabot/mira/guildmodels"
	"github.com/mirabot/mira/roles"
	"github.com/sirupsen/logrus"
)

const selectorSyntax = `!selector "<group name>"`

//handleSelectorCmd posts a self-service role selector for a group into the
//current channel and registers it so future group changes re-render it.
func (b *MiraBot) handleSelectorCmd(msg *discordgo.MessageCreate, args string) {
	const command = "selector"
	if rejection := b.requireAdmin(command, msg); rejection != nil {
		b.respond(msg, rejection)
		return
	}
	groupName, _, ok := popQuotedArg(args)
	if !ok {
		groupName, _ = popArg(args)
	}
	if groupName == "" {
		b.respond(msg, MiraResponseSyntaxError{
			command:     command,
			commandMsg:  msg.Content,
			description: "You need to name the group to build a selector for.",
			syntax:      selectorSyntax,
			timestamp:   time.Now(),
		})
		return
	}
	group, err := b.Registry.FindGroup(msg.GuildID, groupName, true)
	if err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}

	content, components, err := b.Projector.Render(group)
	if err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}
	sent, err := b.DiscordSession().ChannelMessageSendComplex(msg.ChannelID, &discordgo.MessageSend{
		Content:    content,
		Components: components,
	})
	if err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}
	if _, err := b.Registry.RegisterWidget(msg.GuildID, msg.ChannelID, sent.ID, group.ID); err != nil {
		logrus.Errorf("Posted selector message %v for group %v but failed to register it: %v", sent.ID, group.Name, err)
		b.respond(msg, errorResponse(command, msg, err))
		return
	}
	logrus.Infof("Posted selector for group %v in channel %v on guild %v", group.Name, msg.ChannelID, msg.GuildID)
}

//HandleInteraction is called on receipt of a component interaction, and
//routes selector submissions and clear-button presses.
func (b *MiraBot) HandleInteraction(i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent || i.GuildID == "" || i.Member == nil {
		return
	}
	data := i.MessageComponentData()
	switch data.CustomID {
	case roles.SelectCustomID:
		b.handleSelectorPick(i, data.Values)
	case roles.ClearCustomID:
		b.handleSelectorClear(i)
	}
}

//handleSelectorPick reconciles a member's role set against their selector
//submission: selected roles are granted, previously held group roles that
//were deselected are revoked.
func (b *MiraBot) handleSelectorPick(i *discordgo.InteractionCreate, values []string) {
	group, ok := b.selectorGroup(i)
	if !ok {
		return
	}
	userID := i.Member.User.ID

	tracked, err := b.Registry.GroupRoles(group.ID)
	if err != nil {
		b.respondEphemeral(i, "Sorry, something went wrong reading this group's roles. Please try again later.")
		return
	}
	heldIDs, err := b.Authority.MemberRoleIDs(i.GuildID, userID)
	if err != nil {
		b.respondEphemeral(i, "Sorry, something went wrong reading your current roles. Please try again later.")
		return
	}
	held := make(map[string]bool, len(heldIDs))
	for _, id := range heldIDs {
		held[id] = true
	}
	selected := make(map[string]bool, len(values))
	for _, id := range values {
		selected[id] = true
	}

	const reason = "Picked via role selector"
	var added, removed, failed []string

	//Revoke deselected roles before granting, so an exclusive group's
	//conflict sweep during the grant finds nothing left to do.
	for _, managed := range tracked {
		if !managed.Assignable || selected[managed.RoleID] || !held[managed.RoleID] {
			continue
		}
		if err := b.Engine.Revoke(i.GuildID, userID, userID, managed.RoleID, reason); err != nil {
			logrus.Warnf("Selector failed to revoke role %v from member %v: %v", managed.Name, userID, err)
			failed = append(failed, managed.Name)
			continue
		}
		removed = append(removed, managed.Name)
	}
	for _, managed := range tracked {
		if !managed.Assignable || !selected[managed.RoleID] || held[managed.RoleID] {
			continue
		}
		result, err := b.Engine.Grant(i.GuildID, userID, userID, managed.RoleID, reason)
		if err != nil {
			logrus.Warnf("Selector failed to grant role %v to member %v: %v", managed.Name, userID, err)
			failed = append(failed, managed.Name)
			continue
		}
		added = append(added, result.Added.Name)
		for _, conflicting := range result.Removed {
			removed = append(removed, conflicting.Name)
		}
	}

	var lines []string
	if len(added) > 0 {
		lines = append(lines, fmt.Sprintf("Added: %v", strings.Join(added, ", ")))
	}
	if len(removed) > 0 {
		lines = append(lines, fmt.Sprintf("Removed: %v", strings.Join(removed, ", ")))
	}
	if len(failed) > 0 {
		lines = append(lines, fmt.Sprintf("Couldn't change: %v", strings.Join(failed, ", ")))
	}
	if len(lines) == 0 {
		lines = append(lines, "Your roles already matched that selection; nothing changed.")
	}
	b.respondEphemeral(i, strings.Join(lines, "\n"))
}

//handleSelectorClear strips every role of the selector's group from the
//pressing member.
func (b *MiraBot) handleSelectorClear(i *discordgo.InteractionCreate) {
	group, ok := b.selectorGroup(i)
	if !ok {
		return
	}
	userID := i.Member.User.ID
	removed, err := b.Engine.RevokeGroup(i.GuildID, userID, userID, group, "Cleared via role selector")
	if err != nil {
		b.respondEphemeral(i, "Sorry, something went wrong clearing your roles. Please try again later.")
		return
	}
	if len(removed) == 0 {
		b.respondEphemeral(i, fmt.Sprintf("You held no roles from **%v**; nothing changed.", group.DisplayName()))
		return
	}
	names := make([]string, 0, len(removed))
	for _, managed := range removed {
		names = append(names, managed.Name)
	}
	b.respondEphemeral(i, fmt.Sprintf("Removed: %v", strings.Join(names, ", ")))
}

//selectorGroup resolves the interaction's message back to the live group its
//selector was posted for, answering the member directly when the selector is
//no longer active.
func (b *MiraBot) selectorGroup(i *discordgo.InteractionCreate) (*guildmodels.RoleGroup, bool) {
	widget, err := b.DBConnection.GetWidgetByMessage(i.Message.ID)
	if err != nil {
		b.respondEphemeral(i, "Sorry, something went wrong looking up this selector. Please try again later.")
		return nil, false
	}
	if widget == nil || widget.Dead || widget.GuildID != i.GuildID {
		b.respondEphemeral(i, "This selector is no longer active.")
		return nil, false
	}
	group, err := b.DBConnection.GetGroup(widget.GroupID)
	if err != nil || group == nil {
		b.respondEphemeral(i, "This selector's role group no longer exists.")
		return nil, false
	}
	return group, true
}

//respondEphemeral answers an interaction with a message only the pressing
//member can see.
func (b *MiraBot) respondEphemeral(i *discordgo.InteractionCreate, content string) {
	err := b.DiscordSession().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logrus.Warnf("Failed to respond to interaction %v: %v", i.ID, err)
	}
}
