package db

import (
	"fmt"

	"github.com/mirabot/mira/guildmodels"
	"github.com/sirupsen/logrus"
	rethink "gopkg.in/gorethink/gorethink.v3"
)

//InsertRole inserts a new managed role document into the database
func (db *Connection) InsertRole(role guildmodels.ManagedRole) error {
	resp, err := rethink.Table(rolesTable).Insert(role).RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Encountered error inserting managed role %v into database: %v.", role.Name, err)
		return err
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%v", resp.FirstError)
		logrus.Warnf("Encountered error inserting managed role into DB: %v", err)
		return err
	}
	return nil
}

//GetRoleByRoleID fetches the managed role record mirroring the given discord
//role ID, returning nil if the role is not tracked. Discord role IDs are
//unique registry-wide so no guild filter is needed.
func (db *Connection) GetRoleByRoleID(roleID string) (*guildmodels.ManagedRole, error) {
	filter := map[string]interface{}{
		"role_id": roleID,
	}
	res, err := rethink.Table(rolesTable).Filter(filter).Run(db.session)
	if err != nil {
		logrus.Warnf("Encountered error looking up managed role %v in database: %v.", roleID, err)
		return nil, err
	}
	defer res.Close()
	if res.IsNil() {
		return nil, nil
	}
	var role guildmodels.ManagedRole
	err = res.One(&role)
	if err == rethink.ErrEmptyResult {
		return nil, nil
	} else if err != nil {
		logrus.Warnf("Encountered error reading managed role %v from database: %v.", roleID, err)
		return nil, err
	}
	return &role, nil
}

//ListRolesInGroup returns every managed role owned by the given group.
func (db *Connection) ListRolesInGroup(groupID string) ([]guildmodels.ManagedRole, error) {
	filter := map[string]interface{}{
		"group_id": groupID,
	}
	res, err := rethink.Table(rolesTable).Filter(filter).Run(db.session)
	if err != nil {
		logrus.Warnf("Encountered error listing managed roles for group %v: %v.", groupID, err)
		return nil, err
	}
	defer res.Close()
	var roles []guildmodels.ManagedRole
	if res.IsNil() {
		return nil, nil
	}
	err = res.All(&roles)
	if err != nil {
		logrus.Warnf("Encountered error listing managed roles for group %v: %v.", groupID, err)
		return nil, err
	}
	return roles, nil
}

//ListRolesInGuild returns every managed role tracked in the given guild.
func (db *Connection) ListRolesInGuild(guildID string) ([]guildmodels.ManagedRole, error) {
	filter := map[string]interface{}{
		"guild_id": guildID,
	}
	res, err := rethink.Table(rolesTable).Filter(filter).Run(db.session)
	if err != nil {
		logrus.Warnf("Encountered error listing managed roles for guild %v: %v.", guildID, err)
		return nil, err
	}
	defer res.Close()
	var roles []guildmodels.ManagedRole
	if res.IsNil() {
		return nil, nil
	}
	err = res.All(&roles)
	if err != nil {
		logrus.Warnf("Encountered error listing managed roles for guild %v: %v.", guildID, err)
		return nil, err
	}
	return roles, nil
}

//CountRolesInGroup returns the number of managed roles owned by the given group.
func (db *Connection) CountRolesInGroup(groupID string) (int, error) {
	query := rethink.Table(rolesTable).Filter(map[string]interface{}{
		"group_id": groupID,
	}).Count()
	res, err := query.Run(db.session)
	if err != nil {
		logrus.Warnf("Encountered error counting managed roles for group %v: %v.", groupID, err)
		return 0, err
	}
	defer res.Close()
	var count int
	err = res.One(&count)
	if err != nil {
		logrus.Warnf("Encountered error counting managed roles for group %v: %v.", groupID, err)
		return 0, err
	}
	return count, nil
}

//UpdateRole replaces the stored document for a managed role.
func (db *Connection) UpdateRole(role guildmodels.ManagedRole) error {
	resp, err := rethink.Table(rolesTable).Get(role.ID).Replace(role).RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Encountered error updating managed role %v: %v.", role.Name, err)
		return err
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%v", resp.FirstError)
		logrus.Warnf("Encountered error updating managed role %v: %v", role.Name, err)
		return err
	}
	return nil
}

//DeleteRole removes a managed role document by ID.
func (db *Connection) DeleteRole(id string) error {
	resp, err := rethink.Table(rolesTable).Get(id).Delete().RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Encountered error deleting managed role %v: %v.", id, err)
		return err
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%v", resp.FirstError)
		logrus.Warnf("Encountered error deleting managed role %v: %v", id, err)
		return err
	}
	return nil
}

//MoveRolesToGroup re-parents every managed role in fromGroupID to toGroupID
//in a single batch.
func (db *Connection) MoveRolesToGroup(fromGroupID string, toGroupID string) error {
	query := rethink.Table(rolesTable).Filter(map[string]interface{}{
		"group_id": fromGroupID,
	}).Update(map[string]interface{}{
		"group_id": toGroupID,
	})
	resp, err := query.RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Encountered error moving managed roles from group %v to %v: %v.", fromGroupID, toGroupID, err)
		return err
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%v", resp.FirstError)
		logrus.Warnf("Encountered error moving managed roles from group %v to %v: %v", fromGroupID, toGroupID, err)
		return err
	}
	return nil
}

//DeleteRolesInGroup removes every managed role owned by the given group.
func (db *Connection) DeleteRolesInGroup(groupID string) error {
	query := rethink.Table(rolesTable).Filter(map[string]interface{}{
		"group_id": groupID,
	}).Delete()
	resp, err := query.RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Encountered error deleting managed roles in group %v: %v.", groupID, err)
		return err
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%v", resp.FirstError)
		logrus.Warnf("Encountered error deleting managed roles in group %v: %v", groupID, err)
		return err
	}
	return nil
}
