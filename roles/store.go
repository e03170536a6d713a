package roles

import (
	"github.com/mirabot/mira/guildmodels"
)

//Store is the persistence surface the engine needs: document CRUD over the
//groups, managed_roles and selector_widgets tables with equality filters and
//one atomic increment-on-filtered-set used by priority renumbering. The db
//package implements it on RethinkDB.
type Store interface {
	//Groups
	InsertGroup(group guildmodels.RoleGroup) error
	GetGroup(id string) (*guildmodels.RoleGroup, error)
	GetGroupByName(guildID string, name string) (*guildmodels.RoleGroup, error)
	ListGroups(guildID string) ([]guildmodels.RoleGroup, error)
	UpdateGroup(group guildmodels.RoleGroup) error
	DeleteGroup(id string) error
	MaxPriority(guildID string) (int, error)
	PriorityTaken(guildID string, priority int) (bool, error)
	//ShiftPriorities increments, in one batch, the priority of every group in
	//the guild whose priority is >= from.
	ShiftPriorities(guildID string, from int) error
	GuildIDs() ([]string, error)

	//Managed roles
	InsertRole(role guildmodels.ManagedRole) error
	GetRoleByRoleID(roleID string) (*guildmodels.ManagedRole, error)
	ListRolesInGroup(groupID string) ([]guildmodels.ManagedRole, error)
	ListRolesInGuild(guildID string) ([]guildmodels.ManagedRole, error)
	CountRolesInGroup(groupID string) (int, error)
	UpdateRole(role guildmodels.ManagedRole) error
	DeleteRole(id string) error
	MoveRolesToGroup(fromGroupID string, toGroupID string) error
	DeleteRolesInGroup(groupID string) error

	//Selector widgets
	InsertWidget(widget guildmodels.SelectorWidget) error
	GetWidgetByMessage(messageID string) (*guildmodels.SelectorWidget, error)
	ListWidgetsForGroup(groupID string) ([]guildmodels.SelectorWidget, error)
	UpdateWidget(widget guildmodels.SelectorWidget) error
}
