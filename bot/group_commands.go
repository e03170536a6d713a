package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/mirabot/mira/roles"
)

const addGroupSyntax = `!addgroup "<group name>" [priority=<number>] [color=<hex>] [exclusive_roles=<bool>] [description="<text>"]`
const editGroupSyntax = `!editgroup "<group name>" <field>=<value> [...]`
const delGroupSyntax = `!delgroup "<group name>" ["<transfer group name>"]`

//handleAddGroupCmd creates a new role group.
func (b *MiraBot) handleAddGroupCmd(msg *discordgo.MessageCreate, args string) {
	const command = "addgroup"
	if rejection := b.requireAdmin(command, msg); rejection != nil {
		b.respond(msg, rejection)
		return
	}
	name, rest, ok := popQuotedArg(args)
	if !ok {
		name, rest = popArg(args)
	}
	if name == "" || strings.Contains(name, "=") {
		b.respond(msg, MiraResponseSyntaxError{
			command:     command,
			commandMsg:  msg.Content,
			description: "You need to give the new group a name.",
			syntax:      addGroupSyntax,
			timestamp:   time.Now(),
		})
		return
	}

	edit, err := groupEditFromArgs(parseKeyValueArgs(rest))
	if err != nil || edit.Name != nil {
		if err == nil {
			err = fmt.Errorf("the group name goes in quotes before the fields, not as a name= field")
		}
		b.respond(msg, MiraResponseSyntaxError{
			command:     command,
			commandMsg:  msg.Content,
			description: err.Error(),
			syntax:      addGroupSyntax,
			timestamp:   time.Now(),
		})
		return
	}

	color, description := "", ""
	exclusive := false
	if edit.Color != nil {
		color = *edit.Color
	}
	if edit.Description != nil {
		description = *edit.Description
	}
	if edit.ExclusiveRoles != nil {
		exclusive = *edit.ExclusiveRoles
	}
	group, err := b.Registry.CreateGroup(msg.GuildID, name, edit.Priority, color, exclusive, description)
	if err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}
	b.respond(msg, MiraResponseSuccess{
		command:     command,
		commandMsg:  msg.Content,
		description: fmt.Sprintf("Created role group **%v**.", group.DisplayName()),
		data: map[string]string{
			"Priority": strconv.Itoa(group.Priority),
		},
		timestamp: time.Now(),
	})
}

//handleEditGroupCmd applies field changes to an existing group.
func (b *MiraBot) handleEditGroupCmd(msg *discordgo.MessageCreate, args string) {
	const command = "editgroup"
	if rejection := b.requireAdmin(command, msg); rejection != nil {
		b.respond(msg, rejection)
		return
	}
	name, rest, ok := popQuotedArg(args)
	if !ok {
		name, rest = popArg(args)
	}
	kvs := parseKeyValueArgs(rest)
	if name == "" || len(kvs) == 0 {
		b.respond(msg, MiraResponseSyntaxError{
			command:     command,
			commandMsg:  msg.Content,
			description: "You need to name a group and give at least one field to change.",
			syntax:      editGroupSyntax,
			timestamp:   time.Now(),
		})
		return
	}
	edit, err := groupEditFromArgs(kvs)
	if err != nil {
		b.respond(msg, MiraResponseSyntaxError{
			command:     command,
			commandMsg:  msg.Content,
			description: err.Error(),
			syntax:      editGroupSyntax,
			timestamp:   time.Now(),
		})
		return
	}

	group, err := b.Registry.FindGroup(msg.GuildID, name, true)
	if err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}
	updated, diff, err := b.Registry.EditGroup(msg.GuildID, group.ID, edit)
	if err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}
	if len(diff) == 0 {
		b.respond(msg, MiraResponseSuccess{
			command:     command,
			commandMsg:  msg.Content,
			description: fmt.Sprintf("Group **%v** already looked like that; nothing changed.", updated.DisplayName()),
			timestamp:   time.Now(),
		})
		return
	}
	b.respond(msg, MiraResponseSuccess{
		command:     command,
		commandMsg:  msg.Content,
		description: fmt.Sprintf("Updated role group **%v**.", updated.DisplayName()),
		data:        diffToFields(diff),
		timestamp:   time.Now(),
	})
}

//handleDelGroupCmd deletes a group, optionally re-parenting its roles into a
//second named group first.
func (b *MiraBot) handleDelGroupCmd(msg *discordgo.MessageCreate, args string) {
	const command = "delgroup"
	if rejection := b.requireAdmin(command, msg); rejection != nil {
		b.respond(msg, rejection)
		return
	}
	name, rest, ok := popQuotedArg(args)
	if !ok {
		name, rest = popArg(args)
	}
	if name == "" {
		b.respond(msg, MiraResponseSyntaxError{
			command:     command,
			commandMsg:  msg.Content,
			description: "You need to name the group to delete.",
			syntax:      delGroupSyntax,
			timestamp:   time.Now(),
		})
		return
	}
	group, err := b.Registry.FindGroup(msg.GuildID, name, true)
	if err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}

	transferTo := ""
	outcome := "Its roles are no longer tracked."
	if targetName, _, ok := popQuotedArg(rest); ok {
		target, err := b.Registry.FindGroup(msg.GuildID, targetName, true)
		if err != nil {
			b.respond(msg, errorResponse(command, msg, err))
			return
		}
		transferTo = target.ID
		outcome = fmt.Sprintf("Its roles were moved into **%v**.", target.DisplayName())
	}

	if err := b.Registry.DeleteGroup(msg.GuildID, group.ID, transferTo); err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}
	b.respond(msg, MiraResponseSuccess{
		command:     command,
		commandMsg:  msg.Content,
		description: fmt.Sprintf("Deleted role group **%v**. %v", group.DisplayName(), outcome),
		timestamp:   time.Now(),
	})
}

//handleListGroupsCmd lists every role group on the server.
func (b *MiraBot) handleListGroupsCmd(msg *discordgo.MessageCreate) {
	const command = "groups"
	groups, err := b.Registry.ListGroups(msg.GuildID)
	if err != nil {
		b.respond(msg, errorResponse(command, msg, err))
		return
	}
	if len(groups) == 0 {
		b.respond(msg, MiraResponseSuccess{
			command:     command,
			commandMsg:  msg.Content,
			description: "This server has no role groups yet. Create one with the addgroup command!",
			timestamp:   time.Now(),
		})
		return
	}
	fields := map[string]string{}
	for _, group := range groups {
		tracked, err := b.Registry.GroupRoles(group.ID)
		if err != nil {
			b.respond(msg, errorResponse(command, msg, err))
			return
		}
		summary := fmt.Sprintf("priority %v, %v roles", group.Priority, len(tracked))
		if group.ExclusiveRoles {
			summary += ", exclusive"
		}
		if group.Description != "" {
			summary += "\n" + group.Description
		}
		fields[group.DisplayName()] = summary
	}
	b.respond(msg, MiraResponseSuccess{
		command:     command,
		commandMsg:  msg.Content,
		description: fmt.Sprintf("This server has %v role groups.", len(groups)),
		data:        fields,
		timestamp:   time.Now(),
	})
}

//groupEditFromArgs converts parsed key=value arguments into a group edit,
//validating keys and value types against the group's editable-field table.
func groupEditFromArgs(kvs map[string]string) (roles.GroupEdit, error) {
	var edit roles.GroupEdit
	for key, value := range kvs {
		switch key {
		case "name":
			v := value
			edit.Name = &v
		case "priority":
			n, err := strconv.Atoi(value)
			if err != nil {
				return edit, fmt.Errorf("priority must be a number, got `%v`", value)
			}
			edit.Priority = &n
		case "color", "colour":
			v := value
			edit.Color = &v
		case "exclusive_roles", "exclusive":
			v, err := parseBoolArg(value)
			if err != nil {
				return edit, err
			}
			edit.ExclusiveRoles = &v
		case "description":
			v := value
			edit.Description = &v
		default:
			return edit, fmt.Errorf("unknown field `%v`; editable fields are %v", key, fieldNameList(roles.GroupFormFields()))
		}
	}
	return edit, nil
}

func fieldNameList(fields []roles.FieldDescriptor) string {
	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, field.Name)
	}
	return strings.Join(names, ", ")
}
