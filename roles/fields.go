package roles

import (
	"strconv"

	"github.com/mirabot/mira/guildmodels"
)

//FieldKind tags the input type of an editable entity field.
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldInt
	FieldBool
)

//FieldDescriptor describes one editable field of a persisted entity. The
//command layer iterates these tables to build edit forms instead of
//reflecting over struct metadata at runtime.
type FieldDescriptor struct {
	Name        string
	Kind        FieldKind
	Required    bool
	Placeholder string
}

//FieldDiff records one changed field of an edit, for reporting back to the
//operator.
type FieldDiff struct {
	Field string
	Old   string
	New   string
}

//GroupEdit carries the fields of an editGroup request; nil means "leave
//unchanged".
type GroupEdit struct {
	Name           *string
	Priority       *int
	Color          *string
	ExclusiveRoles *bool
	Description    *string
}

//RoleEdit carries the fields of an editRole request; nil means "leave
//unchanged". Group names the target group (display or storage form) when
//re-parenting the role.
type RoleEdit struct {
	Group       *string
	Assignable  *bool
	Description *string
	Emoji       *string
}

type groupField struct {
	FieldDescriptor
	get func(*guildmodels.RoleGroup) string
}

type roleField struct {
	FieldDescriptor
	get func(*guildmodels.ManagedRole) string
}

var groupFieldTable = []groupField{
	{FieldDescriptor{"name", FieldString, true, "Group name"}, func(g *guildmodels.RoleGroup) string { return g.DisplayName() }},
	{FieldDescriptor{"priority", FieldInt, false, "Display ordering (lower first)"}, func(g *guildmodels.RoleGroup) string { return strconv.Itoa(g.Priority) }},
	{FieldDescriptor{"color", FieldString, false, "Hex color theme"}, func(g *guildmodels.RoleGroup) string { return g.Color }},
	{FieldDescriptor{"exclusive_roles", FieldBool, false, "Allow only one role from this group"}, func(g *guildmodels.RoleGroup) string { return strconv.FormatBool(g.ExclusiveRoles) }},
	{FieldDescriptor{"description", FieldString, false, "Group description"}, func(g *guildmodels.RoleGroup) string { return g.Description }},
}

var roleFieldTable = []roleField{
	{FieldDescriptor{"name", FieldString, true, "Mirrored role name"}, func(r *guildmodels.ManagedRole) string { return r.Name }},
	{FieldDescriptor{"group", FieldString, true, "Owning group"}, func(r *guildmodels.ManagedRole) string { return r.GroupID }},
	{FieldDescriptor{"assignable", FieldBool, false, "Allow self-service assignment"}, func(r *guildmodels.ManagedRole) string { return strconv.FormatBool(r.Assignable) }},
	{FieldDescriptor{"description", FieldString, false, "Role description"}, func(r *guildmodels.ManagedRole) string { return r.Description }},
	{FieldDescriptor{"emoji", FieldString, false, "Selector emoji"}, func(r *guildmodels.ManagedRole) string { return r.Emoji }},
}

//GroupFormFields returns the editable-field list for role groups.
func GroupFormFields() []FieldDescriptor {
	fields := make([]FieldDescriptor, 0, len(groupFieldTable))
	for _, f := range groupFieldTable {
		fields = append(fields, f.FieldDescriptor)
	}
	return fields
}

//RoleFormFields returns the editable-field list for managed roles.
func RoleFormFields() []FieldDescriptor {
	fields := make([]FieldDescriptor, 0, len(roleFieldTable))
	for _, f := range roleFieldTable {
		fields = append(fields, f.FieldDescriptor)
	}
	return fields
}

func diffGroups(before, after *guildmodels.RoleGroup) []FieldDiff {
	var diff []FieldDiff
	for _, f := range groupFieldTable {
		oldVal, newVal := f.get(before), f.get(after)
		if oldVal != newVal {
			diff = append(diff, FieldDiff{Field: f.Name, Old: oldVal, New: newVal})
		}
	}
	return diff
}

func diffRoles(before, after *guildmodels.ManagedRole) []FieldDiff {
	var diff []FieldDiff
	for _, f := range roleFieldTable {
		oldVal, newVal := f.get(before), f.get(after)
		if oldVal != newVal {
			diff = append(diff, FieldDiff{Field: f.Name, Old: oldVal, New: newVal})
		}
	}
	return diff
}
