package trivia

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrSessionActive   = errors.New("a trivia game is already running in this guild")
	ErrMissingCategory = errors.New("trivia category is required")
	ErrNoSession       = errors.New("no active trivia game")
	ErrRoundClosed     = errors.New("trivia round is not accepting answers")
	ErrInvalidLabel    = errors.New("answer must be one of A-D")
	ErrShuttingDown    = errors.New("trivia engine is shutting down")
)

// Responder is how the engine talks back to whoever invoked it, a slash command
// interaction or a prefix command in a channel.
type Responder interface {
	// Defer acknowledges the command before slow work starts.
	Defer(ctx context.Context) error
	Send(ctx context.Context, content string) error
	SendEmbed(ctx context.Context, embed *discordgo.MessageEmbed) error
	// SendMessage posts a message with components and returns it so it can be edited.
	SendMessage(ctx context.Context, msg *discordgo.MessageSend) (*discordgo.Message, error)
	EditMessage(ctx context.Context, edit *discordgo.MessageEdit) error
}
