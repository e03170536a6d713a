package roles

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

//Reconciler keeps the registry's mirrored role data consistent with the live
//discord role list. Discord owns the real list: reconciliation only ever
//deletes orphaned records and resyncs drifted mirror names, never group
//structure. It runs on a fixed interval per guild and synchronously when the
//gateway reports a role renamed or deleted.
type Reconciler struct {
	store     Store
	authority Authority
	projector *Projector
	interval  time.Duration
}

//NewReconciler builds a reconciler over the given collaborators.
func NewReconciler(store Store, authority Authority, projector *Projector, cfg Config) *Reconciler {
	return &Reconciler{
		store:     store,
		authority: authority,
		projector: projector,
		interval:  cfg.ReconcileInterval,
	}
}

//ReconcileResult reports what one reconciliation pass did to a guild.
type ReconcileResult struct {
	Deleted int
	Renamed int
}

//Reconcile runs one drift pass over every managed role in the guild. Roles
//whose discord counterpart is gone are deleted; roles whose discord name
//drifted are resynced. Each group touched by at least one change is
//re-projected exactly once. Individual role fetch failures are logged and
//skipped.
func (r *Reconciler) Reconcile(guildID string) (ReconcileResult, error) {
	var result ReconcileResult
	managed, err := r.store.ListRolesInGuild(guildID)
	if err != nil {
		logrus.Warnf("Failed to list managed roles for guild %v during reconciliation: %v", guildID, err)
		return result, err
	}

	dirty := make(map[string]bool)
	for _, record := range managed {
		live, err := r.authority.Role(guildID, record.RoleID)
		if err != nil {
			logrus.Warnf("Skipping role %v (%v) during reconciliation of guild %v: %v", record.Name, record.RoleID, guildID, err)
			continue
		}
		if live == nil {
			if err := r.store.DeleteRole(record.ID); err != nil {
				logrus.Warnf("Failed to delete orphaned role record %v for guild %v: %v", record.Name, guildID, err)
				continue
			}
			logrus.Infof("Reconciliation removed orphaned role %v (%v) from guild %v", record.Name, record.RoleID, guildID)
			dirty[record.GroupID] = true
			result.Deleted++
			continue
		}
		if live.Name != record.Name {
			oldName := record.Name
			record.Name = live.Name
			if err := r.store.UpdateRole(record); err != nil {
				logrus.Warnf("Failed to resync name of role %v for guild %v: %v", record.RoleID, guildID, err)
				continue
			}
			logrus.Infof("Reconciliation renamed role %v to %v on guild %v", oldName, live.Name, guildID)
			dirty[record.GroupID] = true
			result.Renamed++
		}
	}

	for groupID := range dirty {
		group, err := r.store.GetGroup(groupID)
		if err != nil || group == nil {
			logrus.Warnf("Failed to fetch dirty group %v after reconciliation of guild %v: %v", groupID, guildID, err)
			continue
		}
		if err := r.projector.Propagate(group); err != nil && !IsFailure(err) {
			logrus.Warnf("Failed to re-render selectors for group %v after reconciliation: %v", group.Name, err)
		}
	}
	return result, nil
}

//OnRoleDeleted handles a gateway notification that a role was deleted,
//removing its record immediately instead of waiting for the next pass.
func (r *Reconciler) OnRoleDeleted(guildID string, roleID string) {
	record, err := r.store.GetRoleByRoleID(roleID)
	if err != nil {
		logrus.Warnf("Failed to look up deleted role %v on guild %v: %v", roleID, guildID, err)
		return
	}
	if record == nil {
		return
	}
	if err := r.store.DeleteRole(record.ID); err != nil {
		logrus.Warnf("Failed to delete record for removed role %v on guild %v: %v", roleID, guildID, err)
		return
	}
	logrus.Infof("Removed record for deleted role %v (%v) on guild %v", record.Name, roleID, guildID)
	r.propagateGroup(record.GroupID, guildID)
}

//OnRoleUpdated handles a gateway notification that a role changed, resyncing
//the mirrored name if it drifted.
func (r *Reconciler) OnRoleUpdated(guildID string, roleID string, name string) {
	record, err := r.store.GetRoleByRoleID(roleID)
	if err != nil {
		logrus.Warnf("Failed to look up updated role %v on guild %v: %v", roleID, guildID, err)
		return
	}
	if record == nil || record.Name == name {
		return
	}
	record.Name = name
	if err := r.store.UpdateRole(*record); err != nil {
		logrus.Warnf("Failed to resync name of role %v on guild %v: %v", roleID, guildID, err)
		return
	}
	r.propagateGroup(record.GroupID, guildID)
}

//Run reconciles every known guild on the configured interval until the
//context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Stopping drift reconciler...")
			return
		case <-ticker.C:
			guildIDs, err := r.store.GuildIDs()
			if err != nil {
				logrus.Warnf("Failed to enumerate guilds for reconciliation: %v", err)
				continue
			}
			for _, guildID := range guildIDs {
				result, err := r.Reconcile(guildID)
				if err != nil {
					continue
				}
				if result.Deleted > 0 || result.Renamed > 0 {
					logrus.Infof("Reconciled guild %v: deleted %v, renamed %v", guildID, result.Deleted, result.Renamed)
				}
			}
		}
	}
}

func (r *Reconciler) propagateGroup(groupID string, guildID string) {
	group, err := r.store.GetGroup(groupID)
	if err != nil || group == nil {
		logrus.Warnf("Failed to fetch group %v on guild %v for re-projection: %v", groupID, guildID, err)
		return
	}
	if err := r.projector.Propagate(group); err != nil && !IsFailure(err) {
		logrus.Warnf("Failed to re-render selectors for group %v: %v", group.Name, err)
	}
}
