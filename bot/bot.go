package bot

import (
	"context"
	"net/url"

	"github.com/bwmarrin/discordgo"
	"github.com/mirabot/mira/db"
	"github.com/mirabot/mira/discord"
	"github.com/mirabot/mira/roles"
	"github.com/prometheus/common/log"
	"github.com/sirupsen/logrus"
)

//MiraBot represents an instance of the discord bot, containing handles to the various external connections
//as well as the role engine built on top of them.
type MiraBot struct {
	DiscordConnection *discord.EventSource
	DBConnection      *db.Connection
	Authority         *discord.Authority
	Registry          *roles.Registry
	Engine            *roles.Engine
	Reconciler        *roles.Reconciler
	Projector         *roles.Projector

	stopReconciler context.CancelFunc
}

//Init creates a new MiraBot instance
func Init() (*MiraBot, error) {
	var res MiraBot
	//Start database connection
	dbConn, err := db.Init()
	if err != nil {
		logrus.Errorf("Cannot start bot due to error initializing database connection: %v", err)
		return nil, err
	}

	//Start discord connection
	disc, err := discord.StartDiscordListener(&res)
	if err != nil {
		logrus.Errorf("Cannot start bot due to error initializing discord connection: %v", err)
		return nil, err
	}

	authority := discord.NewAuthority(disc.Session())
	cfg := roles.ConfigFromEnv()
	projector := roles.NewProjector(dbConn, authority, cfg)

	res.DiscordConnection = disc
	res.DBConnection = dbConn
	res.Authority = authority
	res.Projector = projector
	res.Registry = roles.NewRegistry(dbConn, authority, projector, cfg)
	res.Engine = roles.NewEngine(dbConn, authority)
	res.Reconciler = roles.NewReconciler(dbConn, authority, projector, cfg)

	//Start periodic drift reconciliation
	ctx, cancel := context.WithCancel(context.Background())
	res.stopReconciler = cancel
	go res.Reconciler.Run(ctx)

	return &res, nil
}

//BotAddURL generates a URL that can be used to add the bot to a server
func (b *MiraBot) BotAddURL() (*url.URL, error) {
	return b.DiscordConnection.BotAddURL()
}

//DiscordSession returns a handle to the underlying discord session
func (b *MiraBot) DiscordSession() *discordgo.Session {
	return b.DiscordConnection.Session()
}

//Close cleanly terminates the bot instance
func (b *MiraBot) Close() {
	log.Info("Terminating bot...")
	b.stopReconciler()
	b.DiscordConnection.Close()
	b.DBConnection.Close()
}
