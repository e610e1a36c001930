package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// messenger is the part of *discordgo.Session the bot talks through.
type messenger interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
}

type interactionState int

const (
	interactionFresh interactionState = iota
	interactionDeferred
	interactionAnswered
)

// interactionResponder answers a slash command. The first message after Defer
// resolves the interaction as a followup, later ones go straight to the channel
// since interaction tokens expire long before a game ends.
type interactionResponder struct {
	api         messenger
	interaction *discordgo.Interaction

	mu    sync.Mutex
	state interactionState
}

func newInteractionResponder(api messenger, interaction *discordgo.Interaction) *interactionResponder {
	return &interactionResponder{api: api, interaction: interaction}
}

func (r *interactionResponder) Defer(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deferLocked(ctx)
}

func (r *interactionResponder) deferLocked(ctx context.Context) error {
	if r.state != interactionFresh {
		return nil
	}
	err := r.api.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	r.state = interactionDeferred
	return nil
}

// claim reports whether the next message should be sent as the interaction followup.
func (r *interactionResponder) claim(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.deferLocked(ctx); err != nil {
		return false, err
	}
	if r.state == interactionDeferred {
		r.state = interactionAnswered
		return true, nil
	}
	return false, nil
}

func (r *interactionResponder) Send(ctx context.Context, content string) error {
	followup, err := r.claim(ctx)
	if err != nil {
		return err
	}
	if followup {
		_, err = r.api.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{Content: content}, discordgo.WithContext(ctx))
		return err
	}
	_, err = r.api.ChannelMessageSend(r.interaction.ChannelID, content, discordgo.WithContext(ctx))
	return err
}

func (r *interactionResponder) SendEmbed(ctx context.Context, embed *discordgo.MessageEmbed) error {
	followup, err := r.claim(ctx)
	if err != nil {
		return err
	}
	if followup {
		_, err = r.api.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{embed},
		}, discordgo.WithContext(ctx))
		return err
	}
	_, err = r.api.ChannelMessageSendEmbed(r.interaction.ChannelID, embed, discordgo.WithContext(ctx))
	return err
}

func (r *interactionResponder) SendMessage(ctx context.Context, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	followup, err := r.claim(ctx)
	if err != nil {
		return nil, err
	}
	if followup {
		return r.api.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
			Content:    msg.Content,
			Embeds:     msg.Embeds,
			Components: msg.Components,
		}, discordgo.WithContext(ctx))
	}
	return r.api.ChannelMessageSendComplex(r.interaction.ChannelID, msg, discordgo.WithContext(ctx))
}

func (r *interactionResponder) EditMessage(ctx context.Context, edit *discordgo.MessageEdit) error {
	_, err := r.api.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	return err
}

// channelResponder answers a prefix command by posting in its channel.
type channelResponder struct {
	api       messenger
	channelID string
}

func newChannelResponder(api messenger, channelID string) *channelResponder {
	return &channelResponder{api: api, channelID: channelID}
}

// Defer shows the typing indicator.
func (r *channelResponder) Defer(ctx context.Context) error {
	return r.api.ChannelTyping(r.channelID, discordgo.WithContext(ctx))
}

func (r *channelResponder) Send(ctx context.Context, content string) error {
	_, err := r.api.ChannelMessageSend(r.channelID, content, discordgo.WithContext(ctx))
	return err
}

func (r *channelResponder) SendEmbed(ctx context.Context, embed *discordgo.MessageEmbed) error {
	_, err := r.api.ChannelMessageSendEmbed(r.channelID, embed, discordgo.WithContext(ctx))
	return err
}

func (r *channelResponder) SendMessage(ctx context.Context, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	return r.api.ChannelMessageSendComplex(r.channelID, msg, discordgo.WithContext(ctx))
}

func (r *channelResponder) EditMessage(ctx context.Context, edit *discordgo.MessageEdit) error {
	_, err := r.api.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	return err
}
