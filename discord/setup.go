package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/samosabot/samosa-bot/logging"
	"github.com/samosabot/samosa-bot/trivia"
)

// Client connects the trivia engine to a discord gateway session.
type Client struct {
	Session *discordgo.Session
	api     messenger
	engine  *trivia.Engine

	// ctx bounds games started from chat; handler contexts die with the request.
	ctx          context.Context
	prefix       string
	categories   []string
	maxQuestions int
	throttle     *Throttle
	logger       *logging.Logger

	commandHandlers map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)
}

// Options configure the chat surface.
type Options struct {
	Token        string
	Prefix       string
	Categories   []string
	MaxQuestions int
	Throttle     *Throttle
}

func newClient(ctx context.Context, api messenger, engine *trivia.Engine, opts Options, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		api:          api,
		engine:       engine,
		ctx:          ctx,
		prefix:       opts.Prefix,
		categories:   opts.Categories,
		maxQuestions: opts.MaxQuestions,
		throttle:     opts.Throttle,
		logger:       logger,
	}
	c.commandHandlers = c.MakeCommandHandlers()
	return c
}

// Setup opens the discord websocket, registers the slash commands and starts
// routing interactions and prefix messages to the engine.
func Setup(ctx context.Context, engine *trivia.Engine, opts Options, logger *logging.Logger) (*Client, error) {
	session, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	c := newClient(ctx, session, engine, opts, logger)
	c.Session = session

	session.AddHandler(c.onInteraction)
	session.AddHandler(c.onMessage)

	// opens websocket connection
	err = session.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening connection to discord: %w", err)
	}
	for _, v := range AddCommands(c.categories, c.maxQuestions) {
		_, err := session.ApplicationCommandCreate(session.State.User.ID, "", v)
		if err != nil {
			session.Close()
			return nil, fmt.Errorf("error creating command %s: %w", v.Name, err)
		}
	}
	c.logger.Info("discord bot connected", "user", session.State.User.Username, "commands", len(c.commandHandlers))
	return c, nil
}

// Close shuts the gateway connection.
func (c *Client) Close() error {
	if c.Session == nil {
		return nil
	}
	return c.Session.Close()
}

func (c *Client) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		h, ok := c.commandHandlers[name]
		if !ok {
			return
		}
		defer c.recoverHandler(name)
		user, _ := interactionUser(i.Interaction)
		if user != nil {
			if ok, wait := c.throttle.Allow(user.ID, name); !ok {
				c.respondThrottled(i.Interaction, name, wait)
				return
			}
		}
		h(s, i)
	case discordgo.InteractionMessageComponent:
		defer c.recoverHandler("trivia_answer")
		c.handleComponent(i)
	}
}

// recoverHandler keeps a panicking handler from taking down the gateway loop.
func (c *Client) recoverHandler(command string) {
	if r := recover(); r != nil {
		c.logger.Error("recovered panic in discord handler", "command", command, "panic", fmt.Sprint(r))
		metricsCommandError(command)
	}
}

// interactionUser returns who triggered the interaction and the name to show for them.
func interactionUser(i *discordgo.Interaction) (*discordgo.User, string) {
	if i.Member != nil && i.Member.User != nil {
		name := i.Member.DisplayName()
		if name == "" {
			name = i.Member.User.Username
		}
		return i.Member.User, name
	}
	if i.User != nil {
		name := i.User.GlobalName
		if name == "" {
			name = i.User.Username
		}
		return i.User, name
	}
	return nil, ""
}

// messageAuthorName picks a member's nickname over the account name.
func messageAuthorName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}
