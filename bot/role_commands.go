package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/mirabot/mira/guildmodels"
	"github.com/mirabot/mira/roles"
)

const trackRoleSyntax = `!trackrole <@role|role id|"role name"> ["<group name>"] [assignable=<bool>] [description="<text>"] [emoji=<emoji>]`
const trackAllSyntax = `!trackall ["<group name>"]`
const untrackRoleSyntax = `!untrackrole <@role|role id|"role name">`
const editRoleSyntax = `!editrole <@role|role id|"role name"> <field>=<value> [...]`
const assignSyntax = `!assign <@role|role id|"role name"> [@user]`
const unassignSyntax = `!unassign <@role|role id|"role name"> [@user]`
const clearGroupSyntax = `!cleargroup "<group name>" [@user]`

//handleTrackRoleCmd places a discord role under bot management.
func (b *MiraBot) handleTrackRoleCmd(msg *discordgo.MessageCreate, args string) {
	const command = "trackrole"
	if rejection := b.requireAdmin(command, msg); rejection != nil {
		b.respond(msg, rejection)
		return
	}
	role, rest, response := b.popRoleArg(command, msg, args, trackRoleSyntax)
	if response != nil {
		b.respond(msg, response)
		return
	}

	groupName, rest, _ := popQuotedArg(rest)
	edit, err := roleEditFromArgs(parseKeyValueArgs(rest))
	if err != nil || edit.Group != nil {
		if err == nil {
			err = fmt.Errorf("the group name goes in quotes after the role, not as a group= field")
		}
		b.respond(msg, MiraResponseSyntaxError{
			command:     command,
			commandMsg:  msg.Content,
			description: err.Error(),
			syntax:      trackRoleSyntax,
			timestamp:   time.Now(),
		})
		return
	}

	description, emoji := "", ""
	assignable := false
	if edit.Description != nil {
		description = *edit.Description
	}
	if edit.Emoji != nil {
		emoji = *edit.Emoji
	}
	if edit.Assignable != nil {
		assignable = *edit.Assignable
	}

	managed, err := b.Registry.TrackRole(msg.GuildID, *role, groupName, description, emoji, assignable)
	if err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}
	groupLabel := b.Registry.Config().DefaultGroupName
	if groupName != "" {
		groupLabel = groupName
		if group, err := b.Registry.FindGroup(msg.GuildID, groupName, false); err == nil {
			groupLabel = group.DisplayName()
		}
	}
	b.respond(msg, MiraResponseSuccess{
		command:     command,
		commandMsg:  msg.Content,
		description: fmt.Sprintf("Now tracking role **%v**.", managed.Name),
		data: map[string]string{
			"Group":        groupLabel,
			"Self-service": strconv.FormatBool(managed.Assignable),
		},
		timestamp: time.Now(),
	})
}

//handleTrackAllCmd sweeps the guild's role list and tracks every eligible
//role.
func (b *MiraBot) handleTrackAllCmd(msg *discordgo.MessageCreate, args string) {
	const command = "trackall"
	if rejection := b.requireAdmin(command, msg); rejection != nil {
		b.respond(msg, rejection)
		return
	}
	groupName, _, ok := popQuotedArg(args)
	if !ok {
		groupName, _ = popArg(args)
	}

	tracked, skipped, err := b.Registry.TrackAll(msg.GuildID, groupName)
	if err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}
	data := map[string]string{
		"Newly tracked": strconv.Itoa(tracked),
		"Skipped":       strconv.Itoa(skipped),
	}
	if skipped > 0 {
		b.respond(msg, MiraResponsePartialSuccess{
			command:     command,
			commandMsg:  msg.Content,
			description: fmt.Sprintf("%v roles were not eligible for tracking and were skipped.", skipped),
			data:        data,
			timestamp:   time.Now(),
		})
		return
	}
	b.respond(msg, MiraResponseSuccess{
		command:     command,
		commandMsg:  msg.Content,
		description: fmt.Sprintf("Now tracking %v new roles.", tracked),
		data:        data,
		timestamp:   time.Now(),
	})
}

//handleUntrackRoleCmd removes a role from bot management. Accepts a raw role
//ID so that records left behind by a deleted discord role can still be
//cleaned up by hand.
func (b *MiraBot) handleUntrackRoleCmd(msg *discordgo.MessageCreate, args string) {
	const command = "untrackrole"
	if rejection := b.requireAdmin(command, msg); rejection != nil {
		b.respond(msg, rejection)
		return
	}
	token, _, ok := popQuotedArg(args)
	if !ok {
		token, _ = popArg(args)
	}

	roleID := ""
	if match := roleMentionRegex.FindStringSubmatch(token); match != nil {
		roleID = match[1]
	} else if roleIDRegex.MatchString(token) {
		roleID = token
	} else if token != "" {
		role, err := b.interpretRoleString(msg.GuildID, token)
		if err != nil {
			b.respond(msg, errorResponse(command, msg, err))
			return
		}
		if role != nil {
			roleID = role.ID
		}
	}
	if roleID == "" {
		b.respond(msg, MiraResponseSyntaxError{
			command:     command,
			commandMsg:  msg.Content,
			description: fmt.Sprintf("Couldn't work out which role you meant by `%v`.", token),
			syntax:      untrackRoleSyntax,
			timestamp:   time.Now(),
		})
		return
	}

	if err := b.Registry.UntrackRole(msg.GuildID, roleID); err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}
	b.respond(msg, MiraResponseSuccess{
		command:     command,
		commandMsg:  msg.Content,
		description: "Stopped tracking that role. Nobody's roles were changed.",
		timestamp:   time.Now(),
	})
}

//handleEditRoleCmd applies field changes to a managed role.
func (b *MiraBot) handleEditRoleCmd(msg *discordgo.MessageCreate, args string) {
	const command = "editrole"
	if rejection := b.requireAdmin(command, msg); rejection != nil {
		b.respond(msg, rejection)
		return
	}
	role, rest, response := b.popRoleArg(command, msg, args, editRoleSyntax)
	if response != nil {
		b.respond(msg, response)
		return
	}
	kvs := parseKeyValueArgs(rest)
	if len(kvs) == 0 {
		b.respond(msg, MiraResponseSyntaxError{
			command:     command,
			commandMsg:  msg.Content,
			description: "You need to give at least one field to change.",
			syntax:      editRoleSyntax,
			timestamp:   time.Now(),
		})
		return
	}
	edit, err := roleEditFromArgs(kvs)
	if err != nil {
		b.respond(msg, MiraResponseSyntaxError{
			command:     command,
			commandMsg:  msg.Content,
			description: err.Error(),
			syntax:      editRoleSyntax,
			timestamp:   time.Now(),
		})
		return
	}

	updated, diff, err := b.Registry.EditRole(msg.GuildID, role.ID, edit)
	if err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}
	if len(diff) == 0 {
		b.respond(msg, MiraResponseSuccess{
			command:     command,
			commandMsg:  msg.Content,
			description: fmt.Sprintf("Role **%v** already looked like that; nothing changed.", updated.Name),
			timestamp:   time.Now(),
		})
		return
	}
	b.respond(msg, MiraResponseSuccess{
		command:     command,
		commandMsg:  msg.Content,
		description: fmt.Sprintf("Updated managed role **%v**.", updated.Name),
		data:        diffToFields(diff),
		timestamp:   time.Now(),
	})
}

//handleListRolesCmd lists the managed roles on the server, grouped by role
//group, or just those of one named group.
func (b *MiraBot) handleListRolesCmd(msg *discordgo.MessageCreate, args string) {
	const command = "roles"
	groupName, _, ok := popQuotedArg(args)
	if !ok {
		groupName, _ = popArg(args)
	}

	groups, err := b.Registry.ListGroups(msg.GuildID)
	if err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}
	if groupName != "" {
		group, err := b.Registry.FindGroup(msg.GuildID, groupName, true)
		if err != nil {
			b.respond(msg, errorResponse(command, msg, err))
			return
		}
		groups = []guildmodels.RoleGroup{*group}
	}

	fields := map[string]string{}
	total := 0
	for _, group := range groups {
		tracked, err := b.Registry.GroupRoles(group.ID)
		if err != nil {
			b.respond(msg, errorResponse(command, msg, err))
			return
		}
		if len(tracked) == 0 {
			continue
		}
		names := make([]string, 0, len(tracked))
		for _, managed := range tracked {
			name := managed.Name
			if managed.Assignable {
				name += " (self-service)"
			}
			names = append(names, name)
		}
		fields[group.DisplayName()] = strings.Join(names, "\n")
		total += len(tracked)
	}
	if total == 0 {
		b.respond(msg, MiraResponseSuccess{
			command:     command,
			commandMsg:  msg.Content,
			description: "No managed roles here yet. Track one with the trackrole command!",
			timestamp:   time.Now(),
		})
		return
	}
	b.respond(msg, MiraResponseSuccess{
		command:     command,
		commandMsg:  msg.Content,
		description: fmt.Sprintf("Tracking %v roles on this server.", total),
		data:        fields,
		timestamp:   time.Now(),
	})
}

//handleAssignCmd grants a managed role, to the sender by default or to a
//mentioned member.
func (b *MiraBot) handleAssignCmd(msg *discordgo.MessageCreate, args string) {
	const command = "assign"
	role, rest, response := b.popRoleArg(command, msg, args, assignSyntax)
	if response != nil {
		b.respond(msg, response)
		return
	}
	targetID := msg.Author.ID
	if token, _ := popArg(rest); token != "" {
		if resolved := interpretUserString(token); resolved != "" {
			targetID = resolved
		}
	}

	reason := fmt.Sprintf("Requested by %v via the assign command", msg.Author.Username)
	result, err := b.Engine.Grant(msg.GuildID, msg.Author.ID, targetID, role.ID, reason)
	if err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}

	var data map[string]string
	if len(result.Removed) > 0 {
		names := make([]string, 0, len(result.Removed))
		for _, removed := range result.Removed {
			names = append(names, removed.Name)
		}
		data = map[string]string{
			"Swapped out": strings.Join(names, ", "),
		}
	}
	b.respond(msg, MiraResponseSuccess{
		command:     command,
		commandMsg:  msg.Content,
		description: fmt.Sprintf("Granted **%v** to <@%v>.", result.Added.Name, targetID),
		data:        data,
		timestamp:   time.Now(),
	})
}

//handleUnassignCmd revokes a managed role, from the sender by default or from
//a mentioned member.
func (b *MiraBot) handleUnassignCmd(msg *discordgo.MessageCreate, args string) {
	const command = "unassign"
	role, rest, response := b.popRoleArg(command, msg, args, unassignSyntax)
	if response != nil {
		b.respond(msg, response)
		return
	}
	targetID := msg.Author.ID
	if token, _ := popArg(rest); token != "" {
		if resolved := interpretUserString(token); resolved != "" {
			targetID = resolved
		}
	}

	reason := fmt.Sprintf("Requested by %v via the unassign command", msg.Author.Username)
	if err := b.Engine.Revoke(msg.GuildID, msg.Author.ID, targetID, role.ID, reason); err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}
	b.respond(msg, MiraResponseSuccess{
		command:     command,
		commandMsg:  msg.Content,
		description: fmt.Sprintf("Removed **%v** from <@%v>.", role.Name, targetID),
		timestamp:   time.Now(),
	})
}

//handleClearGroupCmd strips every role of a group from a member, the sender
//by default.
func (b *MiraBot) handleClearGroupCmd(msg *discordgo.MessageCreate, args string) {
	const command = "cleargroup"
	groupName, rest, ok := popQuotedArg(args)
	if !ok {
		groupName, rest = popArg(args)
	}
	if groupName == "" {
		b.respond(msg, MiraResponseSyntaxError{
			command:     command,
			commandMsg:  msg.Content,
			description: "You need to name the group to clear.",
			syntax:      clearGroupSyntax,
			timestamp:   time.Now(),
		})
		return
	}
	group, err := b.Registry.FindGroup(msg.GuildID, groupName, true)
	if err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}
	targetID := msg.Author.ID
	if token, _ := popArg(rest); token != "" {
		if resolved := interpretUserString(token); resolved != "" {
			targetID = resolved
		}
	}

	reason := fmt.Sprintf("Requested by %v via the cleargroup command", msg.Author.Username)
	removed, err := b.Engine.RevokeGroup(msg.GuildID, msg.Author.ID, targetID, group, reason)
	if err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}
	if len(removed) == 0 {
		b.respond(msg, MiraResponseSuccess{
			command:     command,
			commandMsg:  msg.Content,
			description: fmt.Sprintf("<@%v> held no roles from **%v**; nothing to remove.", targetID, group.DisplayName()),
			timestamp:   time.Now(),
		})
		return
	}
	names := make([]string, 0, len(removed))
	for _, managed := range removed {
		names = append(names, managed.Name)
	}
	b.respond(msg, MiraResponseSuccess{
		command:     command,
		commandMsg:  msg.Content,
		description: fmt.Sprintf("Cleared **%v** roles from <@%v>.", group.DisplayName(), targetID),
		data: map[string]string{
			"Removed": strings.Join(names, ", "),
		},
		timestamp: time.Now(),
	})
}

//handleReconcileCmd runs a drift reconciliation pass over the guild on
//demand.
func (b *MiraBot) handleReconcileCmd(msg *discordgo.MessageCreate) {
	const command = "reconcile"
	if rejection := b.requireAdmin(command, msg); rejection != nil {
		b.respond(msg, rejection)
		return
	}
	result, err := b.Reconciler.Reconcile(msg.GuildID)
	if err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}
	b.respond(msg, MiraResponseSuccess{
		command:     command,
		commandMsg:  msg.Content,
		description: "Checked every tracked role against the live server role list.",
		data: map[string]string{
			"Orphaned records removed": strconv.Itoa(result.Deleted),
			"Drifted names resynced":   strconv.Itoa(result.Renamed),
		},
		timestamp: time.Now(),
	})
}

//popRoleArg parses and resolves a leading role argument, returning a syntax
//error response when nothing resolves.
func (b *MiraBot) popRoleArg(command string, msg *discordgo.MessageCreate, args string, syntax string) (*roles.ExternalRole, string, MiraResponse) {
	token, rest, ok := popQuotedArg(args)
	if !ok {
		token, rest = popArg(args)
	}
	if token == "" {
		return nil, rest, MiraResponseSyntaxError{
			command:     command,
			commandMsg:  msg.Content,
			description: "You need to name a role.",
			syntax:      syntax,
			timestamp:   time.Now(),
		}
	}
	role, err := b.interpretRoleString(msg.GuildID, token)
	if err != nil {
		return nil, rest, errorResponse(command, msg, err)
	}
	if role == nil {
		return nil, rest, MiraResponseSyntaxError{
			command:     command,
			commandMsg:  msg.Content,
			description: fmt.Sprintf("Couldn't find a server role matching `%v`.", token),
			syntax:      syntax,
			timestamp:   time.Now(),
		}
	}
	return role, rest, nil
}

//roleEditFromArgs converts parsed key=value arguments into a role edit,
//validating keys and value types against the role's editable-field table.
func roleEditFromArgs(kvs map[string]string) (roles.RoleEdit, error) {
	var edit roles.RoleEdit
	for key, value := range kvs {
		switch key {
		case "group":
			v := value
			edit.Group = &v
		case "assignable":
			v, err := parseBoolArg(value)
			if err != nil {
				return edit, err
			}
			edit.Assignable = &v
		case "description":
			v := value
			edit.Description = &v
		case "emoji":
			v := value
			edit.Emoji = &v
		case "name":
			return edit, fmt.Errorf("managed role names are mirrored from discord; rename the role in the server settings instead")
		default:
			return edit, fmt.Errorf("unknown field `%v`; editable fields are %v", key, fieldNameList(roles.RoleFormFields()))
		}
	}
	return edit, nil
}
