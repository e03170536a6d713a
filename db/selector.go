package db

import (
	"fmt"

	"github.com/mirabot/mira/guildmodels"
	"github.com/sirupsen/logrus"
	rethink "gopkg.in/gorethink/gorethink.v3"
)

//InsertWidget inserts a new selector widget document into the database
func (db *Connection) InsertWidget(widget guildmodels.SelectorWidget) error {
	resp, err := rethink.Table(widgetsTable).Insert(widget).RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Encountered error inserting selector widget %v into database: %v.", widget.MessageID, err)
		return err
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%v", resp.FirstError)
		logrus.Warnf("Encountered error inserting selector widget into DB: %v", err)
		return err
	}
	return nil
}

//GetWidgetByMessage fetches the selector widget bound to the given discord
//message, returning nil if the message is not a tracked selector.
func (db *Connection) GetWidgetByMessage(messageID string) (*guildmodels.SelectorWidget, error) {
	filter := map[string]interface{}{
		"message_id": messageID,
	}
	res, err := rethink.Table(widgetsTable).Filter(filter).Run(db.session)
	if err != nil {
		logrus.Warnf("Encountered error looking up selector widget for message %v: %v.", messageID, err)
		return nil, err
	}
	defer res.Close()
	if res.IsNil() {
		return nil, nil
	}
	var widget guildmodels.SelectorWidget
	err = res.One(&widget)
	if err == rethink.ErrEmptyResult {
		return nil, nil
	} else if err != nil {
		logrus.Warnf("Encountered error reading selector widget for message %v: %v.", messageID, err)
		return nil, err
	}
	return &widget, nil
}

//ListWidgetsForGroup returns every selector widget bound to the given group,
//dead ones included.
func (db *Connection) ListWidgetsForGroup(groupID string) ([]guildmodels.SelectorWidget, error) {
	filter := map[string]interface{}{
		"group_id": groupID,
	}
	res, err := rethink.Table(widgetsTable).Filter(filter).Run(db.session)
	if err != nil {
		logrus.Warnf("Encountered error listing selector widgets for group %v: %v.", groupID, err)
		return nil, err
	}
	defer res.Close()
	var widgets []guildmodels.SelectorWidget
	if res.IsNil() {
		return nil, nil
	}
	err = res.All(&widgets)
	if err != nil {
		logrus.Warnf("Encountered error listing selector widgets for group %v: %v.", groupID, err)
		return nil, err
	}
	return widgets, nil
}

//UpdateWidget replaces the stored document for a selector widget.
func (db *Connection) UpdateWidget(widget guildmodels.SelectorWidget) error {
	resp, err := rethink.Table(widgetsTable).Get(widget.ID).Replace(widget).RunWrite(db.session)
	if err != nil {
		logrus.Warnf("Encountered error updating selector widget %v: %v.", widget.ID, err)
		return err
	} else if resp.Errors > 0 {
		err := fmt.Errorf("%v", resp.FirstError)
		logrus.Warnf("Encountered error updating selector widget %v: %v", widget.ID, err)
		return err
	}
	return nil
}
