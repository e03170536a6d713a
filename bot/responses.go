package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const (
	successMessageColour int = 0x28bd00
	warnMessageColour    int = 0xbdb900
	errorMessageColour   int = 0xbd1b00
)

//MiraResponse represents the result of a command which can be both communicated over discord and written to the log.
type MiraResponse interface {
	DiscordResponse() *discordgo.MessageSend
	WriteToLog()
}

//MiraResponseSuccess will be returned when a command has been successfully completed
type MiraResponseSuccess struct {
	//The base command name
	command string
	//The entire text contents of the message
	commandMsg string
	//A human-readable description of the outcome
	description string
	//A map containing fields which should be included in the embed
	data map[string]string
	//The time the success was logged at
	timestamp time.Time
}

//DiscordResponse builds a MessageSend object which can be sent back to whoever sent a command message.
func (r MiraResponseSuccess) DiscordResponse() *discordgo.MessageSend {
	description := r.description
	if description == "" {
		description = fmt.Sprintf("Completed %v command successfully!", r.command)
	}
	embed := discordgo.MessageEmbed{
		Title:       "Success! \\o/",
		Type:        discordgo.EmbedTypeRich,
		Description: description,
		Timestamp:   r.timestamp.Format(time.RFC3339),
		Color:       successMessageColour,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Log ID: %d", r.timestamp.UnixNano()),
		},
		Fields: stringMapToFields(r.data),
	}
	msg := discordgo.MessageSend{
		Embed: &embed,
		TTS:   false,
		Files: []*discordgo.File{},
	}
	return &msg
}

//WriteToLog dumps data on a discord command response to the log
func (r MiraResponseSuccess) WriteToLog() {
	logrus.Infof("%v Completed command %v successfully.", logLineLabel(r.timestamp), r.commandMsg)
}

//MiraResponsePartialSuccess will be returned when a command has executed but with issues
type MiraResponsePartialSuccess struct {
	//The base command name
	command string
	//The entire text contents of the message
	commandMsg string
	//A human-readable description of the issue
	description string
	//A map containing fields which should be included in the embed
	data map[string]string
	//The time the success was logged at
	timestamp time.Time
}

//DiscordResponse builds a MessageSend object which can be sent back to whoever sent a command message.
func (r MiraResponsePartialSuccess) DiscordResponse() *discordgo.MessageSend {
	description := fmt.Sprintf("Completed %v command but with errors: \n%v", r.command, r.description)
	embed := discordgo.MessageEmbed{
		Title:       "Partial success...",
		Type:        discordgo.EmbedTypeRich,
		Description: description,
		Timestamp:   r.timestamp.Format(time.RFC3339),
		Color:       warnMessageColour,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Log ID: %d", r.timestamp.UnixNano()),
		},
		Fields: stringMapToFields(r.data),
	}
	msg := discordgo.MessageSend{
		Embed: &embed,
		TTS:   false,
		Files: []*discordgo.File{},
	}
	return &msg
}

//WriteToLog dumps data on a discord command response to the log
func (r MiraResponsePartialSuccess) WriteToLog() {
	logrus.Infof("%v Completed command %v but with errors: %v.", logLineLabel(r.timestamp), r.commandMsg, r.data)
}

//MiraResponseSyntaxError will be returned when there was an issue with the user's input
type MiraResponseSyntaxError struct {
	//The base command name
	command string
	//The entire text contents of the message
	commandMsg string
	//A human-readable description of the issue
	description string
	//A description of the correct syntax
	syntax string
	//The time the error was logged at
	timestamp time.Time
}

//DiscordResponse builds a MessageSend object which can be sent back to whoever sent a command message.
func (r MiraResponseSyntaxError) DiscordResponse() *discordgo.MessageSend {
	description := fmt.Sprintf("Sorry, but there was a problem with the data you supplied for the %v command: \n%v", r.command, r.description)
	fields := map[string]string{
		"Your command":   r.commandMsg,
		"Correct syntax": r.syntax,
	}
	embed := discordgo.MessageEmbed{
		Title:       "Uh-oh, there was something wrong with that command",
		Type:        discordgo.EmbedTypeRich,
		Description: description,
		Timestamp:   r.timestamp.Format(time.RFC3339),
		Color:       errorMessageColour,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Log ID: %d", r.timestamp.UnixNano()),
		},
		Fields: stringMapToFields(fields),
	}
	msg := discordgo.MessageSend{
		Embed: &embed,
		TTS:   false,
		Files: []*discordgo.File{},
	}
	return &msg
}

//WriteToLog dumps data on a discord command response to the log
func (r MiraResponseSyntaxError) WriteToLog() {
	logrus.Infof("%v Syntax error in command %v: %v", logLineLabel(r.timestamp), r.commandMsg, r.description)
}

//MiraResponseUserError will be returned when a command was understood but
//refused: the engine reported an operator-visible failure which is surfaced
//verbatim.
type MiraResponseUserError struct {
	//The base command name
	command string
	//The entire text contents of the message
	commandMsg string
	//The failure reported by the engine
	failure error
	//The time the error was logged at
	timestamp time.Time
}

//DiscordResponse builds a MessageSend object which can be sent back to whoever sent a command message.
func (r MiraResponseUserError) DiscordResponse() *discordgo.MessageSend {
	embed := discordgo.MessageEmbed{
		Title:       "Can't do that",
		Type:        discordgo.EmbedTypeRich,
		Description: r.failure.Error(),
		Timestamp:   r.timestamp.Format(time.RFC3339),
		Color:       warnMessageColour,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Log ID: %d", r.timestamp.UnixNano()),
		},
	}
	msg := discordgo.MessageSend{
		Embed: &embed,
		TTS:   false,
		Files: []*discordgo.File{},
	}
	return &msg
}

//WriteToLog dumps data on a discord command response to the log
func (r MiraResponseUserError) WriteToLog() {
	logrus.Infof("%v Refused command %v: %v", logLineLabel(r.timestamp), r.commandMsg, r.failure)
}

//MiraResponseInternalError will be returned when there was some kind of error within the bot or when communicating with
//APIs
type MiraResponseInternalError struct {
	//The base command name
	command string
	//The entire text contents of the message
	commandMsg string
	//A human-readable description of the issue
	description string
	//A map containing fields which should be included in the embed
	data map[string]string
	//The time the error was logged at
	timestamp time.Time
}

//DiscordResponse builds a MessageSend object which can be sent back to whoever sent a command message.
func (r MiraResponseInternalError) DiscordResponse() *discordgo.MessageSend {
	description := fmt.Sprintf("Oops! I encountered an unexpected error whilst running your %v command. Please try again later or file a bug report.", r.command)
	dataWithDescription := r.data
	if dataWithDescription == nil {
		dataWithDescription = map[string]string{}
	}
	dataWithDescription["Error"] = r.description
	embed := discordgo.MessageEmbed{
		Title:       "Oops, something went wrong ;w;",
		Type:        discordgo.EmbedTypeRich,
		Description: description,
		Timestamp:   r.timestamp.Format(time.RFC3339),
		Color:       errorMessageColour,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Log ID: %d", r.timestamp.UnixNano()),
		},
		Fields: stringMapToFields(dataWithDescription),
	}
	msg := discordgo.MessageSend{
		Embed: &embed,
		TTS:   false,
		Files: []*discordgo.File{},
	}
	return &msg
}

//WriteToLog dumps data on a discord command response to the log
func (r MiraResponseInternalError) WriteToLog() {
	logrus.Infof("%v Internal error whilst executing command %v: %v | data: %v", logLineLabel(r.timestamp), r.commandMsg, r.description, r.data)
}

//MiraResponseNotAllowed will be returned when a user tried to run a command that they do not have the correct role for
type MiraResponseNotAllowed struct {
	//The base command name
	command string
	//The entire text contents of the message
	commandMsg string
	//A human-readable description of the issue
	description string
	//The time the error was logged at
	timestamp time.Time
}

//DiscordResponse builds a MessageSend object which can be sent back to whoever sent a command message.
func (r MiraResponseNotAllowed) DiscordResponse() *discordgo.MessageSend {
	description := "I'm sorry Dave, I can't let you do that..."
	fields := map[string]string{
		"Reason":  r.description,
		"Command": r.commandMsg,
	}
	embed := discordgo.MessageEmbed{
		Title:       "That's illegal m8",
		Type:        discordgo.EmbedTypeRich,
		Description: description,
		Timestamp:   r.timestamp.Format(time.RFC3339),
		Color:       errorMessageColour,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Log ID: %d", r.timestamp.UnixNano()),
		},
		Fields: stringMapToFields(fields),
	}
	msg := discordgo.MessageSend{
		Embed: &embed,
		TTS:   false,
		Files: []*discordgo.File{},
	}
	return &msg
}

//WriteToLog dumps data on a discord command response to the log
func (r MiraResponseNotAllowed) WriteToLog() {
	logrus.Infof("%v Rejected command `%v` as the sender did not have the correct priveliges | description: %v", logLineLabel(r.timestamp), r.commandMsg, r.description)
}

/////////////////////
//Utility Functions//
/////////////////////

func logLineLabel(t time.Time) string {
	return fmt.Sprintf("#%v# | ", t.UnixNano())
}

func stringMapToFields(fields map[string]string) []*discordgo.MessageEmbedField {
	var res []*discordgo.MessageEmbedField
	for fieldName, content := range fields {
		field := discordgo.MessageEmbedField{
			Name:   fieldName,
			Value:  content,
			Inline: false,
		}
		res = append(res, &field)
	}
	return res
}
