package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/samosabot/samosa-bot/metrics"
)

func (c *Client) helpText() string {
	var b strings.Builder
	b.WriteString("**SamosaBot Trivia**\n")
	b.WriteString("`/trivia action:start category:<category>` starts a game in this channel. Add `speed:fast` for shorter timers or `questions:<n>` to change the length.\n")
	b.WriteString("`/trivia action:stop` ends the game and shows the scores so far.\n")
	b.WriteString("`/trivia action:leaderboard` shows the all time top players.\n")
	b.WriteString("`/mystats` shows your own totals.\n")
	fmt.Fprintf(&b, "Prefix commands work too: `%[1]strivia start <category> [fast]`, `%[1]strivia stop`, `%[1]strivia leaderboard`, `%[1]smystats`.\n", c.prefix)
	b.WriteString("Click a button to answer. Your first answer is final.")
	if len(c.categories) > 0 {
		fmt.Fprintf(&b, "\nCategories: %s", strings.Join(c.categories, ", "))
	}
	return b.String()
}

func (c *Client) help(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	// Track command metrics
	start := time.Now()
	metrics.DiscordCommandTotal.WithLabelValues("help").Inc()
	defer func() {
		duration := time.Since(start).Seconds()
		metrics.DiscordCommandDuration.WithLabelValues("help").Observe(duration)
	}()

	c.respondEphemeral(i.Interaction, "help", c.helpText())
	c.logger.Debug("help command handled successfully")
}
