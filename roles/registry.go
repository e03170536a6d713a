package roles

import (
	"github.com/google/uuid"
	"github.com/mirabot/mira/guildmodels"
	"github.com/sirupsen/logrus"
)

//Registry owns the persisted group/role/widget entities and enforces their
//invariants: unique (guild, name) and (guild, priority) per group, one owning
//group per managed role, and a registry-wide unique discord role per record.
//All mutations for a guild are serialised behind that guild's lock; read
//paths run lock-free against a short-lived group cache.
type Registry struct {
	store      Store
	authority  Authority
	projector  *Projector
	cfg        Config
	locks      *guildLocks
	cache      *groupCache
	matcher    *Matcher
	validEmoji func(string) bool
}

//NewRegistry builds a registry over the given collaborators.
func NewRegistry(store Store, authority Authority, projector *Projector, cfg Config) *Registry {
	return &Registry{
		store:      store,
		authority:  authority,
		projector:  projector,
		cfg:        cfg,
		locks:      newGuildLocks(),
		cache:      newGroupCache(cfg.CacheTTL, cfg.CacheGuilds),
		matcher:    NewMatcher(cfg.FuzzyCutoff),
		validEmoji: IsValidEmoji,
	}
}

//Config returns the registry's tunables.
func (r *Registry) Config() Config {
	return r.cfg
}

//ListGroups returns the guild's groups ordered by priority. Results may be
//up to one cache TTL stale relative to a concurrent writer.
func (r *Registry) ListGroups(guildID string) ([]guildmodels.RoleGroup, error) {
	if groups, ok := r.cache.get(guildID); ok {
		return groups, nil
	}
	groups, err := r.store.ListGroups(guildID)
	if err != nil {
		return nil, err
	}
	r.cache.put(guildID, groups)
	return groups, nil
}

//GroupRoles returns every managed role owned by the group.
func (r *Registry) GroupRoles(groupID string) ([]guildmodels.ManagedRole, error) {
	return r.store.ListRolesInGroup(groupID)
}

//CreateGroup creates a role group. A nil priority appends the group after
//the guild's current highest; an explicit priority that collides with an
//existing group shifts every group at or above it up by one first, so the
//per-guild priority ordering stays unique.
func (r *Registry) CreateGroup(guildID string, name string, priority *int, color string, exclusive bool, description string) (*guildmodels.RoleGroup, error) {
	unlock := r.locks.lock(guildID)
	defer unlock()
	return r.createGroupLocked(guildID, name, priority, color, exclusive, description)
}

func (r *Registry) createGroupLocked(guildID string, name string, priority *int, color string, exclusive bool, description string) (*guildmodels.RoleGroup, error) {
	key := guildmodels.ToStorageKey(name)
	existing, err := r.store.GetGroupByName(guildID, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, DuplicateNameError{Name: guildmodels.ToDisplayName(key)}
	}

	var resolved int
	if priority == nil {
		max, err := r.store.MaxPriority(guildID)
		if err != nil {
			return nil, err
		}
		resolved = max + 1
	} else {
		resolved = *priority
		taken, err := r.store.PriorityTaken(guildID, resolved)
		if err != nil {
			return nil, err
		}
		if taken {
			if err := r.store.ShiftPriorities(guildID, resolved); err != nil {
				return nil, err
			}
		}
	}

	group := guildmodels.RoleGroup{
		ID:             uuid.NewString(),
		GuildID:        guildID,
		Name:           key,
		Priority:       resolved,
		Color:          color,
		ExclusiveRoles: exclusive,
		Description:    description,
	}
	if err := r.store.InsertGroup(group); err != nil {
		return nil, err
	}
	r.cache.invalidate(guildID)
	logrus.Infof("Created role group %v (priority %v) in guild %v", group.Name, group.Priority, guildID)
	return &group, nil
}

//EditGroup applies the provided fields to a group and returns the diff of
//what actually changed. A no-op edit is detected and skipped without a
//persistence write. Renaming re-validates name uniqueness; re-prioritising
//re-runs the shift step.
func (r *Registry) EditGroup(guildID string, groupID string, edit GroupEdit) (*guildmodels.RoleGroup, []FieldDiff, error) {
	unlock := r.locks.lock(guildID)
	defer unlock()

	before, err := r.store.GetGroup(groupID)
	if err != nil {
		return nil, nil, err
	}
	if before == nil || before.GuildID != guildID {
		return nil, nil, GroupNotFoundError{Name: groupID}
	}
	after := *before

	if edit.Name != nil {
		key := guildmodels.ToStorageKey(*edit.Name)
		if key != before.Name {
			clash, err := r.store.GetGroupByName(guildID, key)
			if err != nil {
				return nil, nil, err
			}
			if clash != nil {
				return nil, nil, DuplicateNameError{Name: guildmodels.ToDisplayName(key)}
			}
			after.Name = key
		}
	}
	if edit.Priority != nil && *edit.Priority != before.Priority {
		taken, err := r.store.PriorityTaken(guildID, *edit.Priority)
		if err != nil {
			return nil, nil, err
		}
		if taken {
			if err := r.store.ShiftPriorities(guildID, *edit.Priority); err != nil {
				return nil, nil, err
			}
		}
		after.Priority = *edit.Priority
	}
	if edit.Color != nil {
		after.Color = *edit.Color
	}
	if edit.ExclusiveRoles != nil {
		after.ExclusiveRoles = *edit.ExclusiveRoles
	}
	if edit.Description != nil {
		after.Description = *edit.Description
	}

	diff := diffGroups(before, &after)
	if len(diff) == 0 {
		return before, nil, nil
	}
	if err := r.store.UpdateGroup(after); err != nil {
		return nil, nil, err
	}
	r.cache.invalidate(guildID)

	if after.ExclusiveRoles != before.ExclusiveRoles {
		//The selector flips between single and multi choice.
		if err := r.projector.Propagate(&after); err != nil && !IsFailure(err) {
			logrus.Warnf("Failed to re-render selectors for group %v after edit: %v", after.Name, err)
		}
	}
	return &after, diff, nil
}

//DeleteGroup deletes a group. Its member roles are either re-parented to the
//group with ID transferTo, or deleted outright when transferTo is empty;
//they are never left orphaned. Selector widgets bound to the group are
//marked dead, not deleted.
func (r *Registry) DeleteGroup(guildID string, groupID string, transferTo string) error {
	unlock := r.locks.lock(guildID)
	defer unlock()

	group, err := r.store.GetGroup(groupID)
	if err != nil {
		return err
	}
	if group == nil || group.GuildID != guildID {
		return GroupNotFoundError{Name: groupID}
	}

	var target *guildmodels.RoleGroup
	if transferTo != "" {
		if transferTo == groupID {
			return SameGroupError{}
		}
		target, err = r.store.GetGroup(transferTo)
		if err != nil {
			return err
		}
		if target == nil || target.GuildID != guildID {
			return GroupNotFoundError{Name: transferTo}
		}
		if err := r.store.MoveRolesToGroup(groupID, target.ID); err != nil {
			return err
		}
	} else {
		if err := r.store.DeleteRolesInGroup(groupID); err != nil {
			return err
		}
	}

	if err := r.projector.MarkDead(group); err != nil {
		logrus.Warnf("Failed to mark selectors dead for deleted group %v: %v", group.Name, err)
	}
	if err := r.store.DeleteGroup(groupID); err != nil {
		return err
	}
	r.cache.invalidate(guildID)
	logrus.Infof("Deleted role group %v from guild %v", group.Name, guildID)

	if target != nil {
		if err := r.projector.Propagate(target); err != nil && !IsFailure(err) {
			logrus.Warnf("Failed to re-render selectors for transfer group %v: %v", target.Name, err)
		}
	}
	return nil
}

//EligibleForTracking reports whether a live discord role may be placed under
//bot management, with a reason when it may not. It never mutates anything
//and must be consulted before every track.
func (r *Registry) EligibleForTracking(guildID string, role ExternalRole) (bool, string, error) {
	if role.Managed {
		return false, "it is owned by an integration, bot or the server's premium tier", nil
	}
	if role.Everyone {
		return false, "it is the server's default role", nil
	}
	botTop, err := r.authority.BotTopPosition(guildID)
	if err != nil {
		return false, "", err
	}
	if botTop <= role.Position {
		return false, "the bot's highest role does not outrank it", nil
	}
	existing, err := r.store.GetRoleByRoleID(role.ID)
	if err != nil {
		return false, "", err
	}
	if existing != nil {
		return false, "it is already tracked", nil
	}
	return true, "", nil
}

//TrackRole places a discord role under bot management. An empty groupName
//targets the guild's default group, creating it on first use. Non-default
//groups are capped at MaxRolesPerGroup roles.
func (r *Registry) TrackRole(guildID string, role ExternalRole, groupName string, description string, emoji string, assignable bool) (*guildmodels.ManagedRole, error) {
	unlock := r.locks.lock(guildID)
	defer unlock()

	eligible, reason, err := r.EligibleForTracking(guildID, role)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, NotEligibleError{RoleName: role.Name, Reason: reason}
	}
	if emoji != "" && !r.validEmoji(emoji) {
		return nil, InvalidEmojiError{Emoji: emoji}
	}

	defaultKey := guildmodels.ToStorageKey(r.cfg.DefaultGroupName)
	var group *guildmodels.RoleGroup
	if groupName == "" {
		group, err = r.store.GetGroupByName(guildID, defaultKey)
		if err != nil {
			return nil, err
		}
		if group == nil {
			group, err = r.createGroupLocked(guildID, r.cfg.DefaultGroupName, nil, "", false, r.cfg.DefaultGroupDescription)
			if err != nil {
				return nil, err
			}
		}
	} else {
		key := guildmodels.ToStorageKey(groupName)
		group, err = r.store.GetGroupByName(guildID, key)
		if err != nil {
			return nil, err
		}
		if group == nil {
			return nil, GroupNotFoundError{Name: groupName}
		}
	}

	//The default group is exempt from the ceiling.
	if group.Name != defaultKey {
		count, err := r.store.CountRolesInGroup(group.ID)
		if err != nil {
			return nil, err
		}
		if count >= r.cfg.MaxRolesPerGroup {
			return nil, GroupFullError{Group: group.DisplayName(), Max: r.cfg.MaxRolesPerGroup}
		}
	}

	managed := guildmodels.ManagedRole{
		ID:          uuid.NewString(),
		RoleID:      role.ID,
		GuildID:     guildID,
		Name:        role.Name,
		GroupID:     group.ID,
		Assignable:  assignable,
		Description: description,
		Emoji:       emoji,
	}
	if err := r.store.InsertRole(managed); err != nil {
		return nil, err
	}
	logrus.Infof("Tracking role %v (%v) in group %v on guild %v", role.Name, role.ID, group.Name, guildID)

	if err := r.projector.Propagate(group); err != nil && !IsFailure(err) {
		logrus.Warnf("Failed to re-render selectors for group %v after tracking %v: %v", group.Name, role.Name, err)
	}
	return &managed, nil
}

//TrackAll sweeps every role in the guild and tracks each eligible one into
//groupName (or the default group). Ineligible roles are skipped, not fatal.
//Returns how many roles were newly tracked and how many were skipped.
func (r *Registry) TrackAll(guildID string, groupName string) (int, int, error) {
	guildRoles, err := r.authority.Roles(guildID)
	if err != nil {
		return 0, 0, err
	}
	tracked, skipped := 0, 0
	for _, role := range guildRoles {
		_, err := r.TrackRole(guildID, role, groupName, "", "", false)
		if err != nil {
			if !IsFailure(err) {
				return tracked, skipped, err
			}
			logrus.Debugf("Skipping role %v during track-all on guild %v: %v", role.Name, guildID, err)
			skipped++
			continue
		}
		tracked++
	}
	return tracked, skipped, nil
}

//UntrackRole removes a role from bot management by its discord role ID.
func (r *Registry) UntrackRole(guildID string, roleID string) error {
	unlock := r.locks.lock(guildID)
	defer unlock()

	managed, err := r.store.GetRoleByRoleID(roleID)
	if err != nil {
		return err
	}
	if managed == nil || managed.GuildID != guildID {
		return NotManagedError{RoleID: roleID}
	}
	if err := r.store.DeleteRole(managed.ID); err != nil {
		return err
	}
	logrus.Infof("Stopped tracking role %v (%v) on guild %v", managed.Name, roleID, guildID)

	group, err := r.store.GetGroup(managed.GroupID)
	if err != nil {
		logrus.Warnf("Failed to fetch group %v after untracking role %v: %v", managed.GroupID, roleID, err)
		return nil
	}
	if group != nil {
		if err := r.projector.Propagate(group); err != nil && !IsFailure(err) {
			logrus.Warnf("Failed to re-render selectors for group %v after untracking %v: %v", group.Name, managed.Name, err)
		}
	}
	return nil
}

//EditRole applies the provided fields to a managed role and returns the diff
//of what actually changed. Moving the role between groups is a first-class
//mutation: the record keeps its identity and both the old and new group's
//selectors are re-rendered.
func (r *Registry) EditRole(guildID string, roleID string, edit RoleEdit) (*guildmodels.ManagedRole, []FieldDiff, error) {
	unlock := r.locks.lock(guildID)
	defer unlock()

	before, err := r.store.GetRoleByRoleID(roleID)
	if err != nil {
		return nil, nil, err
	}
	if before == nil || before.GuildID != guildID {
		return nil, nil, NotManagedError{RoleID: roleID}
	}
	after := *before

	var newGroup *guildmodels.RoleGroup
	if edit.Group != nil {
		key := guildmodels.ToStorageKey(*edit.Group)
		target, err := r.store.GetGroupByName(guildID, key)
		if err != nil {
			return nil, nil, err
		}
		if target == nil {
			return nil, nil, GroupNotFoundError{Name: *edit.Group}
		}
		if target.ID != before.GroupID {
			if target.Name != guildmodels.ToStorageKey(r.cfg.DefaultGroupName) {
				count, err := r.store.CountRolesInGroup(target.ID)
				if err != nil {
					return nil, nil, err
				}
				if count >= r.cfg.MaxRolesPerGroup {
					return nil, nil, GroupFullError{Group: target.DisplayName(), Max: r.cfg.MaxRolesPerGroup}
				}
			}
			after.GroupID = target.ID
			newGroup = target
		}
	}
	if edit.Assignable != nil {
		after.Assignable = *edit.Assignable
	}
	if edit.Description != nil {
		after.Description = *edit.Description
	}
	if edit.Emoji != nil {
		if *edit.Emoji != "" && !r.validEmoji(*edit.Emoji) {
			return nil, nil, InvalidEmojiError{Emoji: *edit.Emoji}
		}
		after.Emoji = *edit.Emoji
	}

	diff := diffRoles(before, &after)
	if len(diff) == 0 {
		return before, nil, nil
	}
	if err := r.store.UpdateRole(after); err != nil {
		return nil, nil, err
	}

	//Report the group move by name rather than by internal ID.
	if newGroup != nil {
		oldGroup, err := r.store.GetGroup(before.GroupID)
		for i := range diff {
			if diff[i].Field != "group" {
				continue
			}
			if err == nil && oldGroup != nil {
				diff[i].Old = oldGroup.DisplayName()
			}
			diff[i].New = newGroup.DisplayName()
		}
		if err == nil && oldGroup != nil {
			if err := r.projector.Propagate(oldGroup); err != nil && !IsFailure(err) {
				logrus.Warnf("Failed to re-render selectors for group %v after moving role %v out: %v", oldGroup.Name, after.Name, err)
			}
		}
		if err := r.projector.Propagate(newGroup); err != nil && !IsFailure(err) {
			logrus.Warnf("Failed to re-render selectors for group %v after moving role %v in: %v", newGroup.Name, after.Name, err)
		}
	} else {
		group, err := r.store.GetGroup(after.GroupID)
		if err == nil && group != nil {
			if err := r.projector.Propagate(group); err != nil && !IsFailure(err) {
				logrus.Warnf("Failed to re-render selectors for group %v after editing role %v: %v", group.Name, after.Name, err)
			}
		}
	}
	return &after, diff, nil
}

//FindGroup resolves a user-typed group name. The normalised name is matched
//exactly first; when fuzzy is set and nothing matches, the approximate
//matcher picks the best candidate above the confidence cutoff.
func (r *Registry) FindGroup(guildID string, name string, fuzzy bool) (*guildmodels.RoleGroup, error) {
	key := guildmodels.ToStorageKey(name)
	groups, err := r.ListGroups(guildID)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if groups[i].Name == key {
			return &groups[i], nil
		}
	}
	if !fuzzy {
		return nil, GroupNotFoundError{Name: name}
	}
	candidates := make([]string, 0, len(groups))
	for _, group := range groups {
		candidates = append(candidates, group.Name)
	}
	best, ok := r.matcher.Best(key, candidates)
	if !ok {
		return nil, GroupNotFoundError{Name: name}
	}
	for i := range groups {
		if groups[i].Name == best {
			return &groups[i], nil
		}
	}
	return nil, GroupNotFoundError{Name: name}
}

//Autocomplete returns up to 25 group display names ranked against the
//operator's partial input, with any extra sentinel options (such as a
//"delete roles" entry) offered first.
func (r *Registry) Autocomplete(guildID string, partial string, extra ...string) ([]string, error) {
	groups, err := r.ListGroups(guildID)
	if err != nil {
		return nil, err
	}
	candidates := make([]string, 0, len(groups)+len(extra))
	candidates = append(candidates, extra...)
	for _, group := range groups {
		candidates = append(candidates, group.DisplayName())
	}
	if partial == "" {
		if len(candidates) > selectOptionCeiling {
			candidates = candidates[:selectOptionCeiling]
		}
		return candidates, nil
	}
	ranked := r.matcher.Match(partial, candidates)
	results := make([]string, 0, len(ranked))
	for _, match := range ranked {
		results = append(results, match.Value)
		if len(results) == selectOptionCeiling {
			break
		}
	}
	return results, nil
}

//RegisterWidget records a freshly posted selector message as a live widget
//bound to a group.
func (r *Registry) RegisterWidget(guildID string, channelID string, messageID string, groupID string) (*guildmodels.SelectorWidget, error) {
	widget := guildmodels.SelectorWidget{
		ID:        uuid.NewString(),
		MessageID: messageID,
		ChannelID: channelID,
		GuildID:   guildID,
		GroupID:   groupID,
	}
	if err := r.store.InsertWidget(widget); err != nil {
		return nil, err
	}
	return &widget, nil
}
