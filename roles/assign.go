package roles

import (
	"fmt"

	"github.com/mirabot/mira/guildmodels"
	"github.com/sirupsen/logrus"
)

//Engine decides whether a requester may grant or revoke a managed role
//to/from a target member, and performs the mutation against discord,
//including mutual-exclusion conflict resolution for exclusive groups.
//Authorization is always re-derived from the live discord hierarchy, never
//from cached state: role ranks can change between the bot's last observation
//and the request.
type Engine struct {
	store     Store
	authority Authority
}

//NewEngine builds an assignment engine over the given collaborators.
func NewEngine(store Store, authority Authority) *Engine {
	return &Engine{
		store:     store,
		authority: authority,
	}
}

//GrantResult reports what a grant actually did: the role added and any
//conflicting exclusive-group roles that were revoked first.
type GrantResult struct {
	Added   guildmodels.ManagedRole
	Removed []guildmodels.ManagedRole
}

//Grant assigns a managed role to the target. Self-service of an assignable
//role bypasses the authorization check; anything else requires the requester
//to hold role-management permission and outrank the role. When the role's
//group is exclusive, every other role the target holds from that group is
//revoked first, best-effort.
//
//The revoke-then-add sequence is two separate discord calls with no
//compensating transaction: a concurrent reader may briefly observe the
//target holding zero or two roles from an exclusive group. Discord offers no
//compare-and-swap here; the window is accepted.
func (e *Engine) Grant(guildID string, requesterID string, targetID string, roleID string, reason string) (*GrantResult, error) {
	managed, err := e.store.GetRoleByRoleID(roleID)
	if err != nil {
		return nil, err
	}
	if managed == nil || managed.GuildID != guildID {
		return nil, RoleNotManagedError{RoleID: roleID}
	}

	if err := e.authorize(guildID, requesterID, targetID, managed); err != nil {
		return nil, err
	}

	result := GrantResult{Added: *managed}

	group, err := e.store.GetGroup(managed.GroupID)
	if err != nil {
		return nil, err
	}
	if group != nil && group.ExclusiveRoles {
		removed, err := e.revokeConflicting(guildID, targetID, group, managed, reason)
		if err != nil {
			return nil, err
		}
		result.Removed = removed
	}

	if err := e.authority.AddRoleToMember(guildID, targetID, roleID, reason); err != nil {
		return nil, err
	}
	logrus.Infof("Granted role %v to member %v on guild %v (requested by %v)", managed.Name, targetID, guildID, requesterID)
	return &result, nil
}

//Revoke removes a managed role from the target, under the same authorization
//rule as Grant.
func (e *Engine) Revoke(guildID string, requesterID string, targetID string, roleID string, reason string) error {
	managed, err := e.store.GetRoleByRoleID(roleID)
	if err != nil {
		return err
	}
	if managed == nil || managed.GuildID != guildID {
		return RoleNotManagedError{RoleID: roleID}
	}
	if err := e.authorize(guildID, requesterID, targetID, managed); err != nil {
		return err
	}
	if err := e.authority.RemoveRoleFromMember(guildID, targetID, roleID, reason); err != nil {
		return err
	}
	logrus.Infof("Revoked role %v from member %v on guild %v (requested by %v)", managed.Name, targetID, guildID, requesterID)
	return nil
}

//RevokeGroup removes every role the target holds from the group. Individual
//revoke failures are logged and skipped rather than aborting the batch;
//the returned slice holds the roles actually removed.
func (e *Engine) RevokeGroup(guildID string, requesterID string, targetID string, group *guildmodels.RoleGroup, reason string) ([]guildmodels.ManagedRole, error) {
	held, err := e.heldGroupRoles(guildID, targetID, group, "")
	if err != nil {
		return nil, err
	}
	var removed []guildmodels.ManagedRole
	for _, managed := range held {
		if err := e.authorize(guildID, requesterID, targetID, &managed); err != nil {
			if IsFailure(err) {
				logrus.Infof("Skipping revoke of %v from member %v: %v", managed.Name, targetID, err)
				continue
			}
			return removed, err
		}
		if err := e.authority.RemoveRoleFromMember(guildID, targetID, managed.RoleID, reason); err != nil {
			logrus.Warnf("Failed to revoke role %v from member %v on guild %v: %v", managed.Name, targetID, guildID, err)
			continue
		}
		removed = append(removed, managed)
	}
	return removed, nil
}

//authorize applies the escalation guard. Self-service of an assignable role
//by its own target needs nothing further; everything else requires
//role-management permission plus outranking the role in the live hierarchy.
func (e *Engine) authorize(guildID string, requesterID string, targetID string, managed *guildmodels.ManagedRole) error {
	if requesterID == targetID && managed.Assignable {
		return nil
	}
	canManage, err := e.authority.CanManageRoles(guildID, requesterID)
	if err != nil {
		return err
	}
	if !canManage {
		return ForbiddenError{Reason: "you need role management permission on this server"}
	}
	live, err := e.authority.Role(guildID, managed.RoleID)
	if err != nil {
		return err
	}
	if live == nil {
		return RoleNotManagedError{RoleID: managed.RoleID}
	}
	requesterTop, err := e.authority.MemberTopPosition(guildID, requesterID)
	if err != nil {
		return err
	}
	if requesterTop <= live.Position {
		return ForbiddenError{Reason: fmt.Sprintf("your highest role does not outrank %v", managed.Name)}
	}
	return nil
}

//revokeConflicting strips every other managed role of an exclusive group
//that the target currently holds. Per-role failures are logged and skipped
//so the enclosing grant still goes through.
func (e *Engine) revokeConflicting(guildID string, targetID string, group *guildmodels.RoleGroup, granting *guildmodels.ManagedRole, reason string) ([]guildmodels.ManagedRole, error) {
	held, err := e.heldGroupRoles(guildID, targetID, group, granting.RoleID)
	if err != nil {
		return nil, err
	}
	revokeReason := fmt.Sprintf("Removing a conflicting role from exclusive group %v while assigning %v", group.DisplayName(), granting.Name)
	if reason != "" {
		revokeReason = fmt.Sprintf("%v (%v)", revokeReason, reason)
	}
	var removed []guildmodels.ManagedRole
	for _, conflicting := range held {
		if err := e.authority.RemoveRoleFromMember(guildID, targetID, conflicting.RoleID, revokeReason); err != nil {
			logrus.Warnf("Failed to revoke conflicting role %v from member %v on guild %v: %v", conflicting.Name, targetID, guildID, err)
			continue
		}
		removed = append(removed, conflicting)
	}
	return removed, nil
}

//heldGroupRoles returns the group's managed roles the target currently
//holds, excluding excludeRoleID.
func (e *Engine) heldGroupRoles(guildID string, targetID string, group *guildmodels.RoleGroup, excludeRoleID string) ([]guildmodels.ManagedRole, error) {
	memberRoleIDs, err := e.authority.MemberRoleIDs(guildID, targetID)
	if err != nil {
		return nil, err
	}
	heldIDs := make(map[string]bool, len(memberRoleIDs))
	for _, id := range memberRoleIDs {
		heldIDs[id] = true
	}
	groupRoles, err := e.store.ListRolesInGroup(group.ID)
	if err != nil {
		return nil, err
	}
	var held []guildmodels.ManagedRole
	for _, managed := range groupRoles {
		if managed.RoleID == excludeRoleID {
			continue
		}
		if heldIDs[managed.RoleID] {
			held = append(held, managed)
		}
	}
	return held, nil
}
