package discord

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/samosabot/samosa-bot/ai"
	"github.com/samosabot/samosa-bot/metrics"
	"github.com/samosabot/samosa-bot/trivia"
)

type prefixCommand struct {
	name string
	args []string
}

// parsePrefix splits "!trivia start History" into its command name and arguments.
func parsePrefix(content, prefix string) (prefixCommand, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return prefixCommand{}, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return prefixCommand{}, false
	}
	return prefixCommand{name: strings.ToLower(fields[0]), args: fields[1:]}, true
}

// parseStartArgs reads "<category...> [fast|normal] [count]" with the speed and
// count accepted in either order at the end.
func parseStartArgs(args []string) (category string, speed trivia.Speed, count int) {
	speed = trivia.SpeedNormal
	for range 2 {
		if len(args) == 0 {
			break
		}
		last := strings.ToLower(args[len(args)-1])
		if n, err := strconv.Atoi(last); err == nil && count == 0 {
			count = n
			args = args[:len(args)-1]
			continue
		}
		if last == string(trivia.SpeedFast) || last == string(trivia.SpeedNormal) || last == "slow" {
			speed = trivia.ParseSpeed(last)
			args = args[:len(args)-1]
		}
	}
	return strings.Join(args, " "), speed, count
}

func (c *Client) onMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	cmd, ok := parsePrefix(m.Content, c.prefix)
	if !ok {
		return
	}
	defer c.recoverHandler("prefix_" + cmd.name)
	c.runPrefix(m, cmd)
}

func (c *Client) runPrefix(m *discordgo.MessageCreate, cmd prefixCommand) {
	r := newChannelResponder(c.api, m.ChannelID)
	var command string
	switch cmd.name {
	case "trivia", "mystats", "help":
		command = cmd.name
	default:
		return
	}
	metrics.DiscordMessageRecieved.Add(1)

	if ok, wait := c.throttle.Allow(m.Author.ID, command); !ok {
		metrics.DiscordCommandThrottled.WithLabelValues(command).Inc()
		if _, err := c.api.ChannelMessageSend(m.ChannelID, throttleMessage(wait)); err != nil {
			c.logger.Error("error sending throttle notice", "userID", m.Author.ID, "error", err.Error())
		}
		return
	}

	name := messageAuthorName(m)
	var err error
	switch command {
	case "trivia":
		if m.GuildID == "" {
			_, err = c.api.ChannelMessageSend(m.ChannelID, msgGuildOnly)
			break
		}
		action := ""
		if len(cmd.args) > 0 {
			action = strings.ToLower(cmd.args[0])
		}
		command = "trivia_" + action
		metrics.DiscordCommandTotal.WithLabelValues(command).Inc()
		switch action {
		case actionStart:
			category, speed, count := parseStartArgs(cmd.args[1:])
			category, _ = ai.MatchCategory(c.categories, category)
			_, err = c.engine.Start(c.ctx, trivia.StartRequest{
				GuildID:   m.GuildID,
				ChannelID: m.ChannelID,
				Category:  category,
				Questions: count,
				Speed:     speed,
				StartedBy: name,
			}, r)
		case actionStop:
			err = c.engine.Stop(c.ctx, m.GuildID, r)
		case actionLeaderboard:
			err = c.engine.Leaderboard(c.ctx, r)
		default:
			err = r.Send(c.ctx, "Usage: `"+c.prefix+"trivia start <category> [fast]`, `"+c.prefix+"trivia stop` or `"+c.prefix+"trivia leaderboard`")
		}
	case "mystats":
		metrics.DiscordCommandTotal.WithLabelValues(command).Inc()
		err = c.engine.Stats(c.ctx, m.Author.ID, name, r)
	case "help":
		metrics.DiscordCommandTotal.WithLabelValues(command).Inc()
		err = r.Send(c.ctx, c.helpText())
	}
	c.handleCommandErr(command, m.Author, err)
}
