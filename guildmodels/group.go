package guildmodels

//RoleGroup represents a named bucket of managed roles scoped to a single guild.
//Name is always a storage key (no raw whitespace, see names.go); Priority is
//unique within a guild and only used for display ordering.
type RoleGroup struct {
	ID             string `gorethink:"id"`
	GuildID        string `gorethink:"guild_id"`
	Name           string `gorethink:"name"`
	Priority       int    `gorethink:"priority"`
	Color          string `gorethink:"color,omitempty"`
	ExclusiveRoles bool   `gorethink:"exclusive_roles"`
	Description    string `gorethink:"description"`
}

//DisplayName returns the human-readable form of the group's storage key
func (g *RoleGroup) DisplayName() string {
	return ToDisplayName(g.Name)
}
