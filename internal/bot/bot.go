package bot

import (
	"context"
	"log/slog"
	"os"

	"github.com/erg0nix/omnitea/internal/chatlog"
	"github.com/erg0nix/omnitea/internal/core"
	"github.com/erg0nix/omnitea/internal/marker"
	"github.com/erg0nix/omnitea/internal/render"
	"github.com/erg0nix/omnitea/internal/tokenizer"
	"github.com/erg0nix/omnitea/internal/window"
)

const (
	defaultSendLimit = 2000
	fenceMarker      = "```"

	barrierReaction = "✅"
	asideReaction   = "🔇"
)

// Sender delivers outbound content to the platform.
type Sender interface {
	SendText(ctx context.Context, channelID string, text string) error
	SendFile(ctx context.Context, channelID string, path string) error
	React(ctx context.Context, channelID string, messageID string, emoji string) error
	Typing(ctx context.Context, channelID string) error
}

// Completer produces the assistant reply for an assembled chat log.
type Completer interface {
	Complete(ctx context.Context, log chatlog.Log) (chatlog.Entry, error)
}

// Bot runs one conversational turn per inbound message. Turns run
// concurrently and share nothing mutable; every field is read-only after
// construction.
type Bot struct {
	Assembler *window.Assembler
	Completer Completer
	Chunker   *render.Chunker
	Sender    Sender
	Prefixes  marker.Prefixes
	Counter   tokenizer.Counter
	Logger    *slog.Logger
	SendLimit int
}

// HandleMessage runs one turn. Every failure is recovered here: it is logged
// and the turn ends silently, without echoing an error to the channel.
func (b *Bot) HandleMessage(ctx context.Context, msg core.RawMessage) {
	if msg.FromSelf {
		return
	}

	logger := b.Logger.With("turn", core.NewTurnID(), "message_id", msg.ID)

	switch b.Prefixes.Classify(msg.Content).Kind {
	case marker.Barrier:
		logger.Info("barrier received")
		if err := b.Sender.React(ctx, msg.ChannelID, msg.ID, barrierReaction); err != nil {
			logger.Error("react failed", "error", err)
		}
		return
	case marker.Aside:
		logger.Info("aside received")
		if err := b.Sender.React(ctx, msg.ChannelID, msg.ID, asideReaction); err != nil {
			logger.Error("react failed", "error", err)
		}
		return
	}

	log, err := b.Assembler.Assemble(ctx, msg)
	if err != nil {
		logger.Error("window assembly failed", "error", err)
		return
	}

	logger.Info("window assembled", "entries", log.Len(), "tokens", log.TokenCount(b.Counter))

	if err := b.Sender.Typing(ctx, msg.ChannelID); err != nil {
		logger.Debug("typing indicator failed", "error", err)
	}

	reply, err := b.Completer.Complete(ctx, log)
	if err != nil {
		logger.Error("completion failed", "error", err)
		return
	}

	chunks, renderErr := b.Chunker.Chunks(ctx, reply.Content)

	for _, chunk := range chunks {
		b.sendChunk(ctx, logger, msg.ChannelID, chunk)
	}

	if renderErr != nil {
		logger.Error("rendering failed, remaining chunks skipped", "error", renderErr)
	}
}

// sendChunk delivers one chunk best-effort: a failed send is logged and the
// rest of the reply is still attempted.
func (b *Bot) sendChunk(ctx context.Context, logger *slog.Logger, channelID string, chunk render.Chunk) {
	if chunk.Kind == render.ImageChunk {
		for _, path := range chunk.Paths {
			if err := b.Sender.SendFile(ctx, channelID, path); err != nil {
				logger.Error("send attachment failed", "path", path, "error", err)
			}
			// Rendered images are per-call scratch files.
			os.Remove(path)
		}

		b.sendText(ctx, logger, channelID, chunk.Text, true)
		return
	}

	b.sendText(ctx, logger, channelID, chunk.Text, false)
}

// sendText splits text into transport-sized segments. The fence markers
// around code-fenced segments do not count against the split limit.
func (b *Bot) sendText(ctx context.Context, logger *slog.Logger, channelID string, text string, fenced bool) {
	sendLimit := b.SendLimit
	if sendLimit <= 0 {
		sendLimit = defaultSendLimit
	}

	limit := sendLimit - 2*len(fenceMarker)

	for _, segment := range render.Split(text, limit) {
		payload := segment
		if fenced {
			payload = fenceMarker + segment + fenceMarker
		}

		if err := b.Sender.SendText(ctx, channelID, payload); err != nil {
			logger.Error("send message failed", "error", err)
		}
	}
}
