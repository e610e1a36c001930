package discord

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/samosabot/samosa-bot/metrics"
	"github.com/samosabot/samosa-bot/trivia"
)

const (
	actionStart       = "start"
	actionStop        = "stop"
	actionLeaderboard = "leaderboard"

	msgGuildOnly = "Trivia can only be played in a server channel."
)

// maxChoices is discord's limit on choices per option.
const maxChoices = 25

// AddCommands returns the slash commands the bot registers.
func AddCommands(categories []string, maxQuestions int) []*discordgo.ApplicationCommand {
	categoryChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(categories))
	for _, c := range categories {
		if len(categoryChoices) == maxChoices {
			break
		}
		categoryChoices = append(categoryChoices, &discordgo.ApplicationCommandOptionChoice{Name: c, Value: c})
	}

	minQuestions := float64(1)
	questions := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "questions",
		Description: "How many questions to play",
		MinValue:    &minQuestions,
	}
	if maxQuestions > 0 {
		questions.MaxValue = float64(maxQuestions)
	}

	guildOnly := false
	return []*discordgo.ApplicationCommand{
		{
			Name:         "trivia",
			Description:  "Play a game of trivia",
			DMPermission: &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "action",
					Description: "What to do",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Start a game", Value: actionStart},
						{Name: "Stop the game", Value: actionStop},
						{Name: "Show the leaderboard", Value: actionLeaderboard},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "category",
					Description: "Question category",
					Choices:     categoryChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "speed",
					Description: "How fast the questions come",
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: trivia.SpeedNormal.Label(), Value: string(trivia.SpeedNormal)},
						{Name: trivia.SpeedFast.Label(), Value: string(trivia.SpeedFast)},
					},
				},
				questions,
			},
		},
		{
			Name:        "mystats",
			Description: "Show your trivia totals",
		},
		{
			Name:        "help",
			Description: "Get help with the bot",
		},
	}
}

// MakeCommandHandlers returns a map of command names to their respective functions
func (c *Client) MakeCommandHandlers() map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"trivia":  c.triviaCommand,
		"mystats": c.myStats,
		"help":    c.help,
	}
}

func (c *Client) triviaCommand(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	options := optionMap(i.ApplicationCommandData().Options)
	action := ""
	if o, ok := options["action"]; ok {
		action = o.StringValue()
	}
	command := "trivia_" + action

	start := time.Now()
	metrics.DiscordCommandTotal.WithLabelValues(command).Inc()
	defer func() {
		metrics.DiscordCommandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
	}()

	if i.GuildID == "" {
		c.respondEphemeral(i.Interaction, command, msgGuildOnly)
		return
	}

	user, name := interactionUser(i.Interaction)
	r := newInteractionResponder(c.api, i.Interaction)

	var err error
	switch action {
	case actionStart:
		req := trivia.StartRequest{
			GuildID:   i.GuildID,
			ChannelID: i.ChannelID,
			StartedBy: name,
		}
		if o, ok := options["category"]; ok {
			req.Category = o.StringValue()
		}
		if o, ok := options["speed"]; ok {
			req.Speed = trivia.ParseSpeed(o.StringValue())
		}
		if o, ok := options["questions"]; ok {
			req.Questions = int(o.IntValue())
		}
		_, err = c.engine.Start(c.ctx, req, r)
	case actionStop:
		err = c.engine.Stop(c.ctx, i.GuildID, r)
	case actionLeaderboard:
		err = c.engine.Leaderboard(c.ctx, r)
	default:
		err = fmt.Errorf("unknown trivia action %q", action)
		c.respondEphemeral(i.Interaction, command, "Unknown trivia action. Try start, stop or leaderboard.")
	}
	c.handleCommandErr(command, user, err)
}

func (c *Client) myStats(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	start := time.Now()
	metrics.DiscordCommandTotal.WithLabelValues("mystats").Inc()
	defer func() {
		metrics.DiscordCommandDuration.WithLabelValues("mystats").Observe(time.Since(start).Seconds())
	}()

	user, name := interactionUser(i.Interaction)
	if user == nil {
		c.handleCommandErr("mystats", nil, errors.New("interaction has no user"))
		return
	}
	err := c.engine.Stats(c.ctx, user.ID, name, newInteractionResponder(c.api, i.Interaction))
	c.handleCommandErr("mystats", user, err)
}

func (c *Client) handleCommandErr(command string, user *discordgo.User, err error) {
	if err == nil || trivia.IsUserError(err) {
		return
	}
	userID := ""
	if user != nil {
		userID = user.ID
	}
	c.logger.Error("error handling discord command", "command", command, "userID", userID, "error", err.Error())
	metricsCommandError(command)
}

func (c *Client) respondEphemeral(i *discordgo.Interaction, command, content string) {
	err := c.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		c.logger.Error("error responding to discord command", "command", command, "error", err.Error())
		metricsCommandError(command)
		return
	}
	metrics.DiscordMessageSent.Add(1)
}

func (c *Client) respondThrottled(i *discordgo.Interaction, command string, wait time.Duration) {
	metrics.DiscordCommandThrottled.WithLabelValues(command).Inc()
	c.respondEphemeral(i, command, throttleMessage(wait))
}

func throttleMessage(wait time.Duration) string {
	return fmt.Sprintf("⏳ Please wait %d seconds before using another command.", int(math.Ceil(wait.Seconds())))
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, o := range options {
		m[o.Name] = o
	}
	return m
}

func metricsCommandError(command string) {
	metrics.DiscordCommandErrors.WithLabelValues(command).Inc()
}
