package roles

import (
	"fmt"
	"sort"

	"github.com/bwmarrin/discordgo"
	"github.com/mirabot/mira/guildmodels"
)

//fakeStore is an in-memory Store for tests.
type fakeStore struct {
	groups  map[string]guildmodels.RoleGroup
	roles   map[string]guildmodels.ManagedRole
	widgets map[string]guildmodels.SelectorWidget
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		groups:  map[string]guildmodels.RoleGroup{},
		roles:   map[string]guildmodels.ManagedRole{},
		widgets: map[string]guildmodels.SelectorWidget{},
	}
}

func (s *fakeStore) InsertGroup(group guildmodels.RoleGroup) error {
	s.groups[group.ID] = group
	return nil
}

func (s *fakeStore) GetGroup(id string) (*guildmodels.RoleGroup, error) {
	if group, ok := s.groups[id]; ok {
		return &group, nil
	}
	return nil, nil
}

func (s *fakeStore) GetGroupByName(guildID string, name string) (*guildmodels.RoleGroup, error) {
	for _, group := range s.groups {
		if group.GuildID == guildID && group.Name == name {
			copied := group
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListGroups(guildID string) ([]guildmodels.RoleGroup, error) {
	var res []guildmodels.RoleGroup
	for _, group := range s.groups {
		if group.GuildID == guildID {
			res = append(res, group)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Priority < res[j].Priority })
	return res, nil
}

func (s *fakeStore) UpdateGroup(group guildmodels.RoleGroup) error {
	if _, ok := s.groups[group.ID]; !ok {
		return fmt.Errorf("no such group %v", group.ID)
	}
	s.groups[group.ID] = group
	return nil
}

func (s *fakeStore) DeleteGroup(id string) error {
	delete(s.groups, id)
	return nil
}

func (s *fakeStore) MaxPriority(guildID string) (int, error) {
	max := -1
	for _, group := range s.groups {
		if group.GuildID == guildID && group.Priority > max {
			max = group.Priority
		}
	}
	return max, nil
}

func (s *fakeStore) PriorityTaken(guildID string, priority int) (bool, error) {
	for _, group := range s.groups {
		if group.GuildID == guildID && group.Priority == priority {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ShiftPriorities(guildID string, from int) error {
	for id, group := range s.groups {
		if group.GuildID == guildID && group.Priority >= from {
			group.Priority++
			s.groups[id] = group
		}
	}
	return nil
}

func (s *fakeStore) GuildIDs() ([]string, error) {
	seen := map[string]bool{}
	var res []string
	for _, group := range s.groups {
		if !seen[group.GuildID] {
			seen[group.GuildID] = true
			res = append(res, group.GuildID)
		}
	}
	return res, nil
}

func (s *fakeStore) InsertRole(role guildmodels.ManagedRole) error {
	s.roles[role.ID] = role
	return nil
}

func (s *fakeStore) GetRoleByRoleID(roleID string) (*guildmodels.ManagedRole, error) {
	for _, role := range s.roles {
		if role.RoleID == roleID {
			copied := role
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListRolesInGroup(groupID string) ([]guildmodels.ManagedRole, error) {
	var res []guildmodels.ManagedRole
	for _, role := range s.roles {
		if role.GroupID == groupID {
			res = append(res, role)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (s *fakeStore) ListRolesInGuild(guildID string) ([]guildmodels.ManagedRole, error) {
	var res []guildmodels.ManagedRole
	for _, role := range s.roles {
		if role.GuildID == guildID {
			res = append(res, role)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (s *fakeStore) CountRolesInGroup(groupID string) (int, error) {
	count := 0
	for _, role := range s.roles {
		if role.GroupID == groupID {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) UpdateRole(role guildmodels.ManagedRole) error {
	if _, ok := s.roles[role.ID]; !ok {
		return fmt.Errorf("no such role record %v", role.ID)
	}
	s.roles[role.ID] = role
	return nil
}

func (s *fakeStore) DeleteRole(id string) error {
	delete(s.roles, id)
	return nil
}

func (s *fakeStore) MoveRolesToGroup(fromGroupID string, toGroupID string) error {
	for id, role := range s.roles {
		if role.GroupID == fromGroupID {
			role.GroupID = toGroupID
			s.roles[id] = role
		}
	}
	return nil
}

func (s *fakeStore) DeleteRolesInGroup(groupID string) error {
	for id, role := range s.roles {
		if role.GroupID == groupID {
			delete(s.roles, id)
		}
	}
	return nil
}

func (s *fakeStore) InsertWidget(widget guildmodels.SelectorWidget) error {
	s.widgets[widget.ID] = widget
	return nil
}

func (s *fakeStore) GetWidgetByMessage(messageID string) (*guildmodels.SelectorWidget, error) {
	for _, widget := range s.widgets {
		if widget.MessageID == messageID {
			copied := widget
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListWidgetsForGroup(groupID string) ([]guildmodels.SelectorWidget, error) {
	var res []guildmodels.SelectorWidget
	for _, widget := range s.widgets {
		if widget.GroupID == groupID {
			res = append(res, widget)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].MessageID < res[j].MessageID })
	return res, nil
}

func (s *fakeStore) UpdateWidget(widget guildmodels.SelectorWidget) error {
	if _, ok := s.widgets[widget.ID]; !ok {
		return fmt.Errorf("no such widget %v", widget.ID)
	}
	s.widgets[widget.ID] = widget
	return nil
}

type editedMessage struct {
	channelID  string
	messageID  string
	content    string
	components []discordgo.MessageComponent
}

//fakeAuthority is an in-memory Authority for tests, with scripted hierarchy
//and permission answers and a record of every mutation.
type fakeAuthority struct {
	liveRoles map[string]ExternalRole
	members   map[string][]string
	botTop    int
	tops      map[string]int
	managers  map[string]bool

	added    []string
	removed  []string
	edits    []editedMessage
	editErrs map[string]error
}

func newFakeAuthority() *fakeAuthority {
	return &fakeAuthority{
		liveRoles: map[string]ExternalRole{},
		members:   map[string][]string{},
		botTop:    100,
		tops:      map[string]int{},
		managers:  map[string]bool{},
		editErrs:  map[string]error{},
	}
}

func (a *fakeAuthority) Role(guildID string, roleID string) (*ExternalRole, error) {
	if role, ok := a.liveRoles[roleID]; ok {
		return &role, nil
	}
	return nil, nil
}

func (a *fakeAuthority) Roles(guildID string) ([]ExternalRole, error) {
	var res []ExternalRole
	for _, role := range a.liveRoles {
		res = append(res, role)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (a *fakeAuthority) MemberRoleIDs(guildID string, userID string) ([]string, error) {
	return a.members[userID], nil
}

func (a *fakeAuthority) AddRoleToMember(guildID string, userID string, roleID string, reason string) error {
	a.added = append(a.added, userID+":"+roleID)
	a.members[userID] = append(a.members[userID], roleID)
	return nil
}

func (a *fakeAuthority) RemoveRoleFromMember(guildID string, userID string, roleID string, reason string) error {
	a.removed = append(a.removed, userID+":"+roleID)
	held := a.members[userID]
	var remaining []string
	for _, id := range held {
		if id != roleID {
			remaining = append(remaining, id)
		}
	}
	a.members[userID] = remaining
	return nil
}

func (a *fakeAuthority) EditMessage(channelID string, messageID string, content string, components []discordgo.MessageComponent) error {
	if err, ok := a.editErrs[messageID]; ok {
		return err
	}
	a.edits = append(a.edits, editedMessage{
		channelID:  channelID,
		messageID:  messageID,
		content:    content,
		components: components,
	})
	return nil
}

func (a *fakeAuthority) BotTopPosition(guildID string) (int, error) {
	return a.botTop, nil
}

func (a *fakeAuthority) MemberTopPosition(guildID string, userID string) (int, error) {
	return a.tops[userID], nil
}

func (a *fakeAuthority) CanManageRoles(guildID string, userID string) (bool, error) {
	return a.managers[userID], nil
}

//testRig wires a full engine stack over the fakes.
type testRig struct {
	store     *fakeStore
	authority *fakeAuthority
	cfg       Config
	projector *Projector
	registry  *Registry
	engine    *Engine
}

func newTestRig() *testRig {
	store := newFakeStore()
	authority := newFakeAuthority()
	cfg := Config{
		DefaultGroupName:        defaultGroupName,
		DefaultGroupDescription: defaultGroupDescription,
		MaxRolesPerGroup:        selectOptionCeiling,
		MaxSelectOptions:        selectOptionCeiling,
		FuzzyCutoff:             defaultFuzzyCutoff,
		CacheTTL:                defaultCacheTTL,
		CacheGuilds:             defaultCacheGuilds,
		ReconcileInterval:       defaultReconcileInterval,
	}
	projector := NewProjector(store, authority, cfg)
	return &testRig{
		store:     store,
		authority: authority,
		cfg:       cfg,
		projector: projector,
		registry:  NewRegistry(store, authority, projector, cfg),
		engine:    NewEngine(store, authority),
	}
}

//addLiveRole scripts a live discord role into the fake authority.
func (r *testRig) addLiveRole(id string, name string, position int) ExternalRole {
	role := ExternalRole{ID: id, Name: name, Position: position}
	r.authority.liveRoles[id] = role
	return role
}
