package bot

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/mirabot/mira/roles"
	"github.com/sirupsen/logrus"
)

//HandleMessage is called on receipt of a message from any channel the bot can
//read, and dispatches any command it contains.
func (b *MiraBot) HandleMessage(msg *discordgo.MessageCreate) {
	if !strings.HasPrefix(msg.Content, "!") || msg.GuildID == "" {
		return
	}
	command, args := popArg(strings.TrimPrefix(msg.Content, "!"))
	command = strings.ToLower(command)

	switch command {
	case "addgroup":
		b.handleAddGroupCmd(msg, args)
	case "editgroup":
		b.handleEditGroupCmd(msg, args)
	case "delgroup":
		b.handleDelGroupCmd(msg, args)
	case "groups":
		b.handleListGroupsCmd(msg)
	case "trackrole":
		b.handleTrackRoleCmd(msg, args)
	case "trackall":
		b.handleTrackAllCmd(msg, args)
	case "untrackrole":
		b.handleUntrackRoleCmd(msg, args)
	case "editrole":
		b.handleEditRoleCmd(msg, args)
	case "roles":
		b.handleListRolesCmd(msg, args)
	case "assign":
		b.handleAssignCmd(msg, args)
	case "unassign":
		b.handleUnassignCmd(msg, args)
	case "cleargroup":
		b.handleClearGroupCmd(msg, args)
	case "selector":
		b.handleSelectorCmd(msg, args)
	case "reconcile":
		b.handleReconcileCmd(msg)
	default:
		logrus.Debugf("Ignoring unknown command %v", command)
	}
}

//HandleRoleUpdate is called when the gateway reports a guild role changed.
func (b *MiraBot) HandleRoleUpdate(event *discordgo.GuildRoleUpdate) {
	if event.Role == nil {
		return
	}
	b.Reconciler.OnRoleUpdated(event.GuildID, event.Role.ID, event.Role.Name)
}

//HandleRoleDelete is called when the gateway reports a guild role was deleted.
func (b *MiraBot) HandleRoleDelete(event *discordgo.GuildRoleDelete) {
	b.Reconciler.OnRoleDeleted(event.GuildID, event.RoleID)
}

//respond sends a command result back to the channel it came from, as a reply
//to the triggering message.
func (b *MiraBot) respond(msg *discordgo.MessageCreate, response MiraResponse) {
	response.WriteToLog()
	send := response.DiscordResponse()
	send.Reference = &discordgo.MessageReference{
		MessageID: msg.ID,
		ChannelID: msg.ChannelID,
		GuildID:   msg.GuildID,
	}
	_, err := b.DiscordSession().ChannelMessageSendComplex(msg.ChannelID, send)
	if err != nil {
		logrus.Errorf("Failed to send command response to channel %v: %v", msg.ChannelID, err)
	}
}

//errorResponse classifies a failed command: operator-visible engine failures
//are surfaced verbatim, anything else is reported as an internal error.
func errorResponse(command string, msg *discordgo.MessageCreate, err error) MiraResponse {
	if roles.IsFailure(err) {
		return MiraResponseUserError{
			command:    command,
			commandMsg: msg.Content,
			failure:    err,
			timestamp:  time.Now(),
		}
	}
	return MiraResponseInternalError{
		command:     command,
		commandMsg:  msg.Content,
		description: err.Error(),
		timestamp:   time.Now(),
	}
}

//requireAdmin returns a rejection response when the message author may not
//run management commands, or nil when they may.
func (b *MiraBot) requireAdmin(command string, msg *discordgo.MessageCreate) MiraResponse {
	if b.isFromAdmin(msg) {
		return nil
	}
	return MiraResponseNotAllowed{
		command:     command,
		commandMsg:  msg.Content,
		description: "You need role management permission on this server to use this command.",
		timestamp:   time.Now(),
	}
}

//diffToFields formats an edit diff for inclusion in an embed.
func diffToFields(diff []roles.FieldDiff) map[string]string {
	fields := map[string]string{}
	for _, change := range diff {
		fields[change.Field] = change.Old + " -> " + change.New
	}
	return fields
}
