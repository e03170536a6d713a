package guildmodels

//ManagedRole represents a single discord role placed under bot management.
//RoleID is the discord-side identifier and is unique across the whole
//registry; Name is only a mirror of the discord display name kept in sync by
//the reconciler and is never authoritative.
type ManagedRole struct {
	ID          string `gorethink:"id"`
	RoleID      string `gorethink:"role_id"`
	GuildID     string `gorethink:"guild_id"`
	Name        string `gorethink:"name"`
	GroupID     string `gorethink:"group_id"`
	Assignable  bool   `gorethink:"assignable"`
	Description string `gorethink:"description"`
	Emoji       string `gorethink:"emoji,omitempty"`
}
