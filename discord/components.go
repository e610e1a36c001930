package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/samosabot/samosa-bot/metrics"
	"github.com/samosabot/samosa-bot/trivia"
)

// handleComponent routes answer button clicks to the engine.
func (c *Client) handleComponent(i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	roundID, label, ok := trivia.ParseCustomID(data.CustomID)
	if !ok {
		return
	}
	user, name := interactionUser(i.Interaction)
	if user == nil {
		return
	}
	metrics.DiscordMessageRecieved.Add(1)

	res, err := c.engine.Answer(trivia.AnswerRequest{
		GuildID: i.GuildID,
		RoundID: roundID,
		UserID:  user.ID,
		Name:    name,
		Label:   label,
	})
	if err != nil || !res.Accepted {
		if err != nil {
			c.logger.Debug("answer rejected", "userID", user.ID, "roundID", roundID, "error", err.Error())
		}
		// acknowledge without changing anything
		err = c.api.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		})
		if err != nil {
			c.logger.Error("error acknowledging answer", "userID", user.ID, "error", err.Error())
		}
		return
	}

	err = c.api.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: answerRecorded(res),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		c.logger.Error("error confirming answer", "userID", user.ID, "error", err.Error())
		metricsCommandError("trivia_answer")
	}

	if i.Message == nil {
		return
	}
	err = c.engine.RefreshQuestion(c.ctx, i.GuildID, roundID, func(ctx context.Context, embed *discordgo.MessageEmbed) error {
		edit := discordgo.NewMessageEdit(i.ChannelID, i.Message.ID)
		edit.Embeds = &[]*discordgo.MessageEmbed{embed}
		_, err := c.api.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
		return err
	})
	if err != nil && !errors.Is(err, trivia.ErrRoundClosed) {
		c.logger.Warn("error updating answer count", "messageID", i.Message.ID, "error", err.Error())
	}
}

func answerRecorded(res trivia.AnswerResult) string {
	return fmt.Sprintf("Your answer \"%s\" has been recorded!\n👥 Total answers: %d", res.Option, res.Total)
}
