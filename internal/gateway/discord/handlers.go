package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quantified-ante/qabot/internal/compose"
	"github.com/quantified-ante/qabot/internal/metrics"
	"github.com/quantified-ante/qabot/internal/storage/models"
	"github.com/quantified-ante/qabot/pkg/logger"
)

// responder abstracts the three ways a handler can speak to an
// interaction: an immediate acknowledgment, then followup messages.
// Every command produces exactly one user-visible outcome through it.
type responder interface {
	Ack() error
	Followup(content string) error
}

type askMeta struct {
	GuildID   string
	GuildName string
	UserID    string
	Username  string
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	start := time.Now()
	status := "ok"
	defer func() {
		metrics.CommandsTotal.WithLabelValues(name, status).Inc()
		metrics.CommandDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	ctx := context.Background()
	rsp := &interactionResponder{session: s, interaction: i.Interaction}
	meta := metaFromInteraction(s, i)

	switch name {
	case "ping":
		b.runPing(ctx, rsp)
	case "ask":
		question := i.ApplicationCommandData().Options[0].StringValue()
		if !b.runAsk(ctx, rsp, meta, question) {
			status = "failed"
		}
	case "stats":
		b.runStats(ctx, rsp, meta)
	case "debug":
		b.runDebug(ctx, rsp)
	default:
		logger.Warn("Unknown command", zap.String("command", name))
		status = "unknown"
	}
}

// runPing probes the document store. Bounded by the store's connection
// timeout, so a dead database reports failure instead of hanging.
func (b *Bot) runPing(ctx context.Context, rsp responder) {
	if err := rsp.Ack(); err != nil {
		logger.Error("Failed to acknowledge ping", zap.Error(err))
		return
	}

	if err := b.svc.Store.Ping(ctx); err != nil {
		logger.Error("Database ping failed", zap.Error(err))
		b.followup(rsp, "⚠️ Bot is working but the database connection failed.")
		return
	}

	b.followup(rsp, fmt.Sprintf(
		"✅ Bot and database are working!\nDatabase: %s\nLast heartbeat: %s",
		b.svc.Store.DatabaseName(),
		time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
	))
}

// runAsk is the core pipeline: ack, retrieve, compose, record, reply in
// ordered parts. Returns false when the outcome was a failure or
// no-information reply.
func (b *Bot) runAsk(ctx context.Context, rsp responder, meta askMeta, question string) bool {
	if err := rsp.Ack(); err != nil {
		logger.Error("Failed to acknowledge ask", zap.Error(err))
		return false
	}

	logger.Info("Question received",
		zap.String("username", meta.Username),
		zap.String("question", truncate(question, 120)),
	)

	answer, success := b.answerQuestion(ctx, question)

	// Parts are sent sequentially; the platform does not guarantee
	// ordering of concurrent sends. An undelivered answer is not a
	// success, whatever the pipeline produced.
	for n, part := range compose.SplitMessage(answer, b.splitLimit) {
		if err := rsp.Followup(part); err != nil {
			logger.Error("Failed to send answer part",
				zap.Int("part", n),
				zap.Error(err),
			)
			success = false
			break
		}
	}

	b.svc.History.Record(&models.QAHistoryRecord{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		GuildID:   meta.GuildID,
		GuildName: meta.GuildName,
		UserID:    meta.UserID,
		Username:  meta.Username,
		Question:  question,
		Answer:    answer,
		Success:   success,
	})

	return success
}

// answerQuestion runs cache check, retrieval, and composition. It always
// returns user-presentable text, never an error.
func (b *Bot) answerQuestion(ctx context.Context, question string) (string, bool) {
	if cached, ok := b.svc.Cache.GetAnswer(ctx, question); ok {
		logger.Debug("Answer served from cache")
		return cached, true
	}

	chunks := b.svc.Retriever.Retrieve(ctx, question)
	if len(chunks) == 0 {
		return compose.NoInfoReply, false
	}

	answer, err := b.svc.Composer.Compose(ctx, question, chunks)
	if err != nil {
		logger.Error("Composition failed",
			zap.String("question", truncate(question, 120)),
			zap.Error(err),
		)
		return compose.FailureReply, false
	}

	b.svc.Cache.SetAnswer(ctx, question, answer)
	return answer, true
}

func (b *Bot) runStats(ctx context.Context, rsp responder, meta askMeta) {
	if err := rsp.Ack(); err != nil {
		logger.Error("Failed to acknowledge stats", zap.Error(err))
		return
	}

	stats, err := b.svc.History.Stats(ctx, meta.GuildID)
	if err != nil {
		logger.Error("Failed to load stats", zap.Error(err))
		b.followup(rsp, "Couldn't load statistics right now. Please try again later.")
		return
	}

	b.followup(rsp, formatStats(meta.GuildName, stats))
}

func (b *Bot) runDebug(ctx context.Context, rsp responder) {
	if err := rsp.Ack(); err != nil {
		logger.Error("Failed to acknowledge debug", zap.Error(err))
		return
	}

	docsCount, err := b.svc.Docs.Count(ctx)
	if err != nil {
		logger.Error("Failed to count documents", zap.Error(err))
		b.followup(rsp, "Couldn't inspect the database right now.")
		return
	}

	qaCount, err := b.svc.History.Count(ctx)
	if err != nil {
		logger.Error("Failed to count history", zap.Error(err))
		qaCount = -1
	}

	fields, err := b.svc.Docs.SampleFields(ctx)
	if err != nil {
		logger.Error("Failed to sample document", zap.Error(err))
	}

	sample := "No documents found"
	if len(fields) > 0 {
		sample = strings.Join(fields, ", ")
	}

	b.followup(rsp, fmt.Sprintf(
		"📊 Database Debug Info:\nDocuments Collection: %d documents\nQA History: %d entries\n\nSample Document Fields: %s",
		docsCount, qaCount, sample,
	))
}

func (b *Bot) followup(rsp responder, content string) {
	if err := rsp.Followup(content); err != nil {
		logger.Error("Failed to send followup", zap.Error(err))
	}
}

func formatStats(guildName string, stats *models.QAStats) string {
	var sb strings.Builder
	if guildName != "" {
		fmt.Fprintf(&sb, "📊 Stats for %s:\n", guildName)
	} else {
		sb.WriteString("📊 Q&A Statistics:\n")
	}
	fmt.Fprintf(&sb, "Total Questions: %d\n", stats.Total)
	fmt.Fprintf(&sb, "Successful Answers: %d\n", stats.Successful)
	fmt.Fprintf(&sb, "Success Rate: %.1f%%\n", stats.SuccessRate)
	sb.WriteString("\nRecent Questions:")

	for _, qa := range stats.Recent {
		marker := "❌"
		if qa.Success {
			marker = "✅"
		}
		fmt.Fprintf(&sb, "\n%s [%s] %s: %s",
			marker,
			qa.Timestamp.Format("2006-01-02 15:04"),
			qa.Username,
			qa.Question,
		)
	}

	return sb.String()
}

func metaFromInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) askMeta {
	meta := askMeta{GuildID: i.GuildID}

	if i.Member != nil && i.Member.User != nil {
		meta.UserID = i.Member.User.ID
		meta.Username = i.Member.User.Username
	} else if i.User != nil {
		meta.UserID = i.User.ID
		meta.Username = i.User.Username
	}

	if i.GuildID != "" {
		if guild, err := s.State.Guild(i.GuildID); err == nil {
			meta.GuildName = guild.Name
		}
	}

	return meta
}

type interactionResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

func (r *interactionResponder) Ack() error {
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func (r *interactionResponder) Followup(content string) error {
	_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Content: content,
	})
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
