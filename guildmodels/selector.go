package guildmodels

//SelectorWidget represents a live selector message posted into a channel,
//bound to a single role group. The reference is non-owning: deleting the
//group does not delete the widget record, it flips Dead instead so the
//record survives as an audit trail.
type SelectorWidget struct {
	ID        string `gorethink:"id"`
	MessageID string `gorethink:"message_id"`
	ChannelID string `gorethink:"channel_id"`
	GuildID   string `gorethink:"guild_id"`
	GroupID   string `gorethink:"group_id"`
	Dead      bool   `gorethink:"dead"`
}
