package roles

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/bwmarrin/discordgo"
	"github.com/mirabot/mira/guildmodels"
	"github.com/sirupsen/logrus"
)

//SelectCustomID identifies selector submissions in component interactions.
const SelectCustomID string = "mira_role_select"

//ClearCustomID identifies the clear button under every selector.
const ClearCustomID string = "mira_role_clear"

const deadSelectorNotice string = "This selector's role group was deleted. It no longer does anything."
const emptySelectorNotice string = "There are currently no assignable roles in this group."

//Projector regenerates the external representation of every selector widget
//bound to a group. Widgets only ever reflect the assignable-role set as of
//their last projection; the registry and reconciler call back into the
//projector whenever that set may have changed.
type Projector struct {
	store      Store
	authority  Authority
	maxOptions int
}

//NewProjector builds a projector over the given collaborators.
func NewProjector(store Store, authority Authority, cfg Config) *Projector {
	return &Projector{
		store:      store,
		authority:  authority,
		maxOptions: cfg.MaxSelectOptions,
	}
}

//Render builds the message content and components for a group's selector: a
//select over the group's assignable roles (single-choice when the group is
//exclusive) plus a clear button.
func (p *Projector) Render(group *guildmodels.RoleGroup) (string, []discordgo.MessageComponent, error) {
	tracked, err := p.store.ListRolesInGroup(group.ID)
	if err != nil {
		logrus.Warnf("Failed to list roles in group %v while rendering selector: %v", group.Name, err)
		return "", nil, err
	}
	var assignable []guildmodels.ManagedRole
	for _, role := range tracked {
		if role.Assignable {
			assignable = append(assignable, role)
		}
	}
	if len(assignable) == 0 {
		return "", nil, NoAssignableRolesError{Group: group.DisplayName()}
	}
	if len(assignable) > p.maxOptions {
		return "", nil, TooManyOptionsError{Count: len(assignable), Max: p.maxOptions}
	}

	options := make([]discordgo.SelectMenuOption, 0, len(assignable))
	for _, role := range assignable {
		option := discordgo.SelectMenuOption{
			Label:       role.Name,
			Value:       role.RoleID,
			Description: role.Description,
		}
		if role.Emoji != "" {
			option.Emoji = componentEmoji(role.Emoji)
		}
		options = append(options, option)
	}

	minValues := 0
	maxValues := len(options)
	if group.ExclusiveRoles {
		maxValues = 1
	}
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    SelectCustomID,
					Placeholder: fmt.Sprintf("Pick roles from %v", group.DisplayName()),
					MinValues:   &minValues,
					MaxValues:   maxValues,
					Options:     options,
				},
			},
		},
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Clear my roles from this group",
					Style:    discordgo.SecondaryButton,
					CustomID: ClearCustomID,
				},
			},
		},
	}
	content := fmt.Sprintf("Select roles you want from **%v** down below!", group.DisplayName())
	return content, components, nil
}

//Propagate re-renders every live widget bound to the group in place. A
//widget whose message has since been deleted by a user is skipped with a
//warning; a group whose assignable-role set became empty has its widgets
//replaced with a notice. Partial success is expected behaviour.
func (p *Projector) Propagate(group *guildmodels.RoleGroup) error {
	widgets, err := p.store.ListWidgetsForGroup(group.ID)
	if err != nil {
		logrus.Warnf("Failed to list selector widgets for group %v: %v", group.Name, err)
		return err
	}

	content, components, err := p.Render(group)
	if err != nil {
		var empty NoAssignableRolesError
		if !errors.As(err, &empty) {
			return err
		}
		//A group whose last assignable role was untracked still gets its
		//widgets refreshed, just with nothing to select.
		content = emptySelectorNotice
		components = []discordgo.MessageComponent{}
	}

	for _, widget := range widgets {
		if widget.Dead {
			continue
		}
		err := p.authority.EditMessage(widget.ChannelID, widget.MessageID, content, components)
		if err != nil {
			logrus.Warnf("Skipping selector message %v in channel %v for group %v: %v", widget.MessageID, widget.ChannelID, group.Name, err)
		}
	}
	return nil
}

//MarkDead replaces the content of every widget bound to a deleted group with
//a terminal notice and flags the records dead. Records are kept around as an
//audit trail.
func (p *Projector) MarkDead(group *guildmodels.RoleGroup) error {
	widgets, err := p.store.ListWidgetsForGroup(group.ID)
	if err != nil {
		logrus.Warnf("Failed to list selector widgets for group %v: %v", group.Name, err)
		return err
	}
	for _, widget := range widgets {
		if widget.Dead {
			continue
		}
		err := p.authority.EditMessage(widget.ChannelID, widget.MessageID, deadSelectorNotice, []discordgo.MessageComponent{})
		if err != nil {
			logrus.Warnf("Failed to replace dead selector message %v in channel %v: %v", widget.MessageID, widget.ChannelID, err)
		}
		widget.Dead = true
		if err := p.store.UpdateWidget(widget); err != nil {
			logrus.Warnf("Failed to mark selector widget %v dead: %v", widget.ID, err)
		}
	}
	return nil
}

var customEmojiParts = regexp.MustCompile(`^<(a?):(\w{2,}):(\d+)>$`)

//componentEmoji converts a stored emoji string into the form discord's
//component API expects.
func componentEmoji(emoji string) discordgo.ComponentEmoji {
	matches := customEmojiParts.FindStringSubmatch(emoji)
	if matches == nil {
		return discordgo.ComponentEmoji{Name: emoji}
	}
	return discordgo.ComponentEmoji{
		Name:     matches[2],
		ID:       matches[3],
		Animated: matches[1] == "a",
	}
}
