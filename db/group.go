package db

import (
	"fmt"

	"github.com/mirabot/mira/guildmodels"
	"github.com/sirupsen/logrus"
	rethink "gopkg.in/gorethink/gorethink.v3"
)

//InsertGroup inserts a new role group document into the database
func (db *Connection) InsertGroup(group guildmodels.RoleGroup) error {
	resp, err := rethink.Table(groupsTable).Insert(group).RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Encountered error inserting role group %v into database: %v.", group.Name, err)
		return err
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%v", resp.FirstError)
		logrus.Warnf("Encountered error inserting role group into DB: %v", err)
		return err
	}
	return nil
}

//GetGroup fetches a single role group by its ID, returning nil if it does not exist.
func (db *Connection) GetGroup(id string) (*guildmodels.RoleGroup, error) {
	res, err := rethink.Table(groupsTable).Get(id).Run(db.session)
	if err != nil {
		logrus.Warnf("Encountered error looking up role group %v in database: %v.", id, err)
		return nil, err
	}
	defer res.Close()
	if res.IsNil() {
		return nil, nil
	}
	var group guildmodels.RoleGroup
	err = res.One(&group)
	if err != nil {
		logrus.Warnf("Encountered error reading role group %v from database: %v.", id, err)
		return nil, err
	}
	return &group, nil
}

//GetGroupByName fetches the role group with the given storage-key name within a guild,
//returning nil if no such group exists.
func (db *Connection) GetGroupByName(guildID string, name string) (*guildmodels.RoleGroup, error) {
	filter := map[string]interface{}{
		"guild_id": guildID,
		"name":     name,
	}
	res, err := rethink.Table(groupsTable).Filter(filter).Run(db.session)
	if err != nil {
		logrus.Warnf("Encountered error looking up role group %v in guild %v: %v.", name, guildID, err)
		return nil, err
	}
	defer res.Close()
	if res.IsNil() {
		return nil, nil
	}
	var group guildmodels.RoleGroup
	err = res.One(&group)
	if err == rethink.ErrEmptyResult {
		return nil, nil
	} else if err != nil {
		logrus.Warnf("Encountered error reading role group %v in guild %v: %v.", name, guildID, err)
		return nil, err
	}
	return &group, nil
}

//ListGroups returns all role groups in a guild ordered by priority.
func (db *Connection) ListGroups(guildID string) ([]guildmodels.RoleGroup, error) {
	query := rethink.Table(groupsTable).Filter(map[string]interface{}{
		"guild_id": guildID,
	}).OrderBy("priority")
	res, err := query.Run(db.session)
	if err != nil {
		logrus.Warnf("Encountered error listing role groups for guild %v: %v.", guildID, err)
		return nil, err
	}
	defer res.Close()
	var groups []guildmodels.RoleGroup
	if res.IsNil() {
		return nil, nil
	}
	err = res.All(&groups)
	if err != nil {
		logrus.Warnf("Encountered error listing role groups for guild %v: %v.", guildID, err)
		return nil, err
	}
	return groups, nil
}

//UpdateGroup replaces the stored document for a role group.
func (db *Connection) UpdateGroup(group guildmodels.RoleGroup) error {
	resp, err := rethink.Table(groupsTable).Get(group.ID).Replace(group).RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Encountered error updating role group %v: %v.", group.Name, err)
		return err
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%v", resp.FirstError)
		logrus.Warnf("Encountered error updating role group %v: %v", group.Name, err)
		return err
	}
	return nil
}

//DeleteGroup removes a role group document by ID.
func (db *Connection) DeleteGroup(id string) error {
	resp, err := rethink.Table(groupsTable).Get(id).Delete().RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Encountered error deleting role group %v: %v.", id, err)
		return err
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%v", resp.FirstError)
		logrus.Warnf("Encountered error deleting role group %v: %v", id, err)
		return err
	}
	return nil
}

//MaxPriority returns the highest group priority currently used in the guild,
//or -1 if the guild has no groups yet.
func (db *Connection) MaxPriority(guildID string) (int, error) {
	query := rethink.Table(groupsTable).Filter(map[string]interface{}{
		"guild_id": guildID,
	}).Field("priority").Max().Default(-1)
	res, err := query.Run(db.session)
	if err != nil {
		logrus.Warnf("Encountered error fetching max group priority for guild %v: %v.", guildID, err)
		return 0, err
	}
	defer res.Close()
	var max int
	err = res.One(&max)
	if err != nil {
		logrus.Warnf("Encountered error reading max group priority for guild %v: %v.", guildID, err)
		return 0, err
	}
	return max, nil
}

//PriorityTaken returns true iff some group in the guild already holds the given priority.
func (db *Connection) PriorityTaken(guildID string, priority int) (bool, error) {
	query := rethink.Table(groupsTable).Filter(map[string]interface{}{
		"guild_id": guildID,
		"priority": priority,
	}).Count()
	res, err := query.Run(db.session)
	if err != nil {
		logrus.Warnf("Encountered error checking priority %v for guild %v: %v.", priority, guildID, err)
		return false, err
	}
	defer res.Close()
	var count int
	err = res.One(&count)
	if err != nil {
		logrus.Warnf("Encountered error checking priority %v for guild %v: %v.", priority, guildID, err)
		return false, err
	}
	return count > 0, nil
}

//ShiftPriorities increments, in a single batch, the priority of every group
//in the guild whose priority is at or above from. Used to open a slot before
//an insert or edit takes a contested priority.
func (db *Connection) ShiftPriorities(guildID string, from int) error {
	query := rethink.Table(groupsTable).Filter(rethink.And(
		rethink.Row.Field("guild_id").Eq(guildID),
		rethink.Row.Field("priority").Ge(from),
	)).Update(map[string]interface{}{
		"priority": rethink.Row.Field("priority").Add(1),
	})
	resp, err := query.RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Encountered error shifting group priorities >= %v for guild %v: %v.", from, guildID, err)
		return err
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%v", resp.FirstError)
		logrus.Warnf("Encountered error shifting group priorities for guild %v: %v", guildID, err)
		return err
	}
	return nil
}

//GuildIDs returns the ID of every guild that has at least one role group.
func (db *Connection) GuildIDs() ([]string, error) {
	query := rethink.Table(groupsTable).Field("guild_id").Distinct()
	res, err := query.Run(db.session)
	if err != nil {
		logrus.Warnf("Encountered error enumerating guilds: %v.", err)
		return nil, err
	}
	defer res.Close()
	var guildIDs []string
	if res.IsNil() {
		return nil, nil
	}
	err = res.All(&guildIDs)
	if err != nil {
		logrus.Warnf("Encountered error enumerating guilds: %v.", err)
		return nil, err
	}
	return guildIDs, nil
}
