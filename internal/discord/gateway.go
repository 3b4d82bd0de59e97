package discord

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/erg0nix/omnitea/internal/core"
)

type Config struct {
	Token   string
	Channel string // guild channel name the bot answers in; DMs always pass
}

// Gateway owns the discordgo session and adapts platform events and calls to
// the bot's ports. discordgo dispatches each event handler on its own
// goroutine, so turns naturally run concurrently.
type Gateway struct {
	session *discordgo.Session
	channel string
	client  *http.Client
	logger  *slog.Logger
	handler func(ctx context.Context, msg core.RawMessage)
}

func New(cfg Config, logger *slog.Logger) (*Gateway, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return &Gateway{
		session: session,
		channel: cfg.Channel,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}, nil
}

// OnMessage registers the per-turn handler for inbound messages.
func (g *Gateway) OnMessage(handler func(ctx context.Context, msg core.RawMessage)) {
	g.handler = handler
	g.session.AddHandler(g.messageCreate)
}

func (g *Gateway) Open() error {
	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	g.logger.Info("gateway connected", "user", g.session.State.User.Username)

	return nil
}

func (g *Gateway) Close() error {
	return g.session.Close()
}

func (g *Gateway) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}

	channel, err := s.Channel(m.ChannelID)
	if err != nil {
		g.logger.Error("resolve channel failed", "channel_id", m.ChannelID, "error", err)
		return
	}

	switch channel.Type {
	case discordgo.ChannelTypeDM:
	case discordgo.ChannelTypeGuildText:
		if channel.Name != g.channel {
			return
		}
	default:
		return
	}

	g.logger.Info("received message", "channel_id", m.ChannelID, "message_id", m.ID)

	g.handler(context.Background(), g.toRawMessage(s, m.Message))
}

// toRawMessage resolves authorship and inlines attachments once, at
// ingestion.
func (g *Gateway) toRawMessage(s *discordgo.Session, m *discordgo.Message) core.RawMessage {
	raw := core.RawMessage{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Author:    displayName(m),
		Content:   m.Content,
		FromSelf:  m.Author != nil && m.Author.ID == s.State.User.ID,
	}

	for _, attachment := range m.Attachments {
		text, err := g.fetchAttachment(attachment.URL)
		if err != nil {
			g.logger.Warn("fetch attachment failed", "url", attachment.URL, "error", err)
			continue
		}

		raw.Attachments = append(raw.Attachments, core.Attachment{
			Name: attachment.Filename,
			Text: text,
		})
	}

	return raw
}

func displayName(m *discordgo.Message) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}

	if m.Author != nil {
		return m.Author.Username
	}

	return "unknown"
}

func (g *Gateway) fetchAttachment(url string) (string, error) {
	resp, err := g.client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// Before implements window.History. Discord returns pages newest-first;
// they are reversed here into the chronological order the assembler expects.
func (g *Gateway) Before(ctx context.Context, channelID string, beforeID string, limit int) ([]core.RawMessage, error) {
	messages, err := g.session.ChannelMessages(channelID, limit, beforeID, "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	page := make([]core.RawMessage, 0, len(messages))
	for _, message := range messages {
		page = append(page, g.toRawMessage(g.session, message))
	}

	return oldestFirst(page), nil
}

// oldestFirst reverses a newest-first history page into chronological order.
func oldestFirst(page []core.RawMessage) []core.RawMessage {
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}

	return page
}

func (g *Gateway) SendText(ctx context.Context, channelID string, text string) error {
	_, err := g.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	return err
}

func (g *Gateway) SendFile(ctx context.Context, channelID string, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = g.session.ChannelFileSend(channelID, filepath.Base(path), file, discordgo.WithContext(ctx))

	return err
}

func (g *Gateway) React(ctx context.Context, channelID string, messageID string, emoji string) error {
	return g.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
}

func (g *Gateway) Typing(ctx context.Context, channelID string) error {
	return g.session.ChannelTyping(channelID, discordgo.WithContext(ctx))
}
