package discord

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/quantified-ante/qabot/internal/storage/models"
	"github.com/quantified-ante/qabot/pkg/logger"
)

type Pinger interface {
	Ping(ctx context.Context) error
	DatabaseName() string
}

type Retriever interface {
	Retrieve(ctx context.Context, query string) []string
}

type Composer interface {
	Compose(ctx context.Context, question string, chunks []string) (string, error)
}

type HistoryLog interface {
	Record(rec *models.QAHistoryRecord)
	Stats(ctx context.Context, guildID string) (*models.QAStats, error)
	Count(ctx context.Context) (int64, error)
}

type AnswerCache interface {
	GetAnswer(ctx context.Context, question string) (string, bool)
	SetAnswer(ctx context.Context, question, answer string)
}

type Introspector interface {
	Count(ctx context.Context) (int64, error)
	SampleFields(ctx context.Context) ([]string, error)
}

// Services holds every collaborator the command handlers need. It is
// constructed once at startup and passed in explicitly; handlers hold no
// package-level state and never mutate shared connections.
type Services struct {
	Store     Pinger
	Docs      Introspector
	Retriever Retriever
	Composer  Composer
	History   HistoryLog
	Cache     AnswerCache
}

// Bot owns the gateway session and the slash command surface.
type Bot struct {
	session    *discordgo.Session
	svc        *Services
	guildID    string
	splitLimit int
	ready      atomic.Bool
	registered []*discordgo.ApplicationCommand
}

func New(token, guildID string, splitLimit int, svc *Services) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	if splitLimit <= 0 || splitLimit > 2000 {
		splitLimit = 1900
	}

	b := &Bot{
		session:    session,
		svc:        svc,
		guildID:    guildID,
		splitLimit: splitLimit,
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)

	return b, nil
}

// Start opens the gateway connection and registers the slash commands,
// globally or scoped to the configured guild.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open gateway connection: %w", err)
	}

	appID := b.session.State.User.ID
	for _, cmd := range commandDefinitions() {
		created, err := b.session.ApplicationCommandCreate(appID, b.guildID, cmd)
		if err != nil {
			return fmt.Errorf("failed to register command %q: %w", cmd.Name, err)
		}
		b.registered = append(b.registered, created)
	}

	logger.Info("Slash commands registered",
		zap.Int("count", len(b.registered)),
		zap.String("scope", scopeName(b.guildID)),
	)

	return nil
}

// Ready reports whether the gateway handshake completed, for the health
// endpoint.
func (b *Bot) Ready() bool {
	return b.ready.Load()
}

func (b *Bot) Stop() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.ready.Store(true)
	logger.Info("Gateway ready",
		zap.String("username", r.User.Username),
		zap.Int("guilds", len(r.Guilds)),
	)
}

var adminOnly int64 = discordgo.PermissionAdministrator

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Test if the bot and database are working",
		},
		{
			Name:        "ask",
			Description: "Ask about Quantified Ante trading concepts",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "question",
					Description: "Your question about trading",
					Required:    true,
				},
			},
		},
		{
			Name:        "stats",
			Description: "Get Q&A statistics for this server",
		},
		{
			Name:                     "debug",
			Description:              "Inspect database collection contents",
			DefaultMemberPermissions: &adminOnly,
		},
	}
}

func scopeName(guildID string) string {
	if guildID == "" {
		return "global"
	}
	return "guild"
}
