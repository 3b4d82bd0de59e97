package window

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erg0nix/omnitea/internal/chatlog"
	"github.com/erg0nix/omnitea/internal/core"
	"github.com/erg0nix/omnitea/internal/marker"
	"github.com/erg0nix/omnitea/internal/tokenizer"
)

const (
	defaultPageSize = 10
	defaultMaxPages = 512
)

// History supplies pages of channel messages strictly older than a given
// message ID, normalized to oldest-first. An empty page means history is
// exhausted.
type History interface {
	Before(ctx context.Context, channelID string, beforeID string, limit int) ([]core.RawMessage, error)
}

// Config sizes the assembled window.
type Config struct {
	Budget        int    // max token count of a materialized log
	PageSize      int    // history page size per fetch
	MaxPages      int    // defensive cap on fetches per turn
	DefaultPrompt string // system prompt used when no barrier overrides it
}

// Assembler decides which slice of channel history accompanies one
// triggering message into a completion request. It expands backward through
// paginated history until a barrier, an empty page, or the token budget
// stops it, then contracts oldest-first until the materialized log fits.
type Assembler struct {
	History  History
	Counter  tokenizer.Counter
	Prefixes marker.Prefixes
	Config   Config
	Logger   *slog.Logger
}

// state is the working set for one turn: the chronological window plus the
// barrier flag and its optional override prompt. Discarded after the turn.
type state struct {
	window  []core.RawMessage
	barrier bool
	prompt  string
}

// Assemble builds the chat log for one triggering message. The returned log
// always contains the trigger, even when it alone exceeds the budget.
func (a *Assembler) Assemble(ctx context.Context, trigger core.RawMessage) (chatlog.Log, error) {
	st := state{window: []core.RawMessage{trigger}}

	pageSize := a.Config.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	maxPages := a.Config.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	// cursor tracks the oldest fetched message, not the oldest included one,
	// so a page consisting entirely of asides still advances the scan.
	cursor := trigger.ID

	for page := 0; page < maxPages; page++ {
		messages, err := a.History.Before(ctx, trigger.ChannelID, cursor, pageSize)
		if err != nil {
			return chatlog.Log{}, fmt.Errorf("fetch history before %s: %w", cursor, err)
		}

		if len(messages) == 0 {
			break
		}

		cursor = messages[0].ID

		a.absorbPage(&st, messages)

		if st.barrier {
			if a.Logger != nil {
				a.Logger.Debug("barrier found, expansion stopped")
			}
			break
		}

		if a.materialize(st).TokenCount(a.Counter) > a.Config.Budget {
			break
		}
	}

	for len(st.window) > 1 {
		if a.materialize(st).TokenCount(a.Counter) <= a.Config.Budget {
			break
		}
		st.window = st.window[1:]
	}

	return a.materialize(st), nil
}

// absorbPage walks a page newest to oldest, prepending ordinary messages so
// the window stays chronological. Asides are skipped without ending the
// scan; a barrier ends it, dropping everything older in the page.
func (a *Assembler) absorbPage(st *state, page []core.RawMessage) {
	for i := len(page) - 1; i >= 0; i-- {
		msg := page[i]

		m := a.Prefixes.Classify(msg.Content)
		switch m.Kind {
		case marker.Barrier:
			st.barrier = true
			if m.Prompt != "" {
				st.prompt = m.Prompt
			}
			return
		case marker.Aside:
			continue
		}

		st.window = append([]core.RawMessage{msg}, st.window...)
	}
}

// materialize converts the window into a chat log, inserting exactly one
// system entry before the fourth-from-last message, or before the first when
// the window holds fewer than four.
func (a *Assembler) materialize(st state) chatlog.Log {
	prompt := a.Config.DefaultPrompt
	if st.prompt != "" {
		prompt = st.prompt
	}

	insertAt := len(st.window) - 4
	if insertAt < 0 {
		insertAt = 0
	}

	log := chatlog.New()
	for i, msg := range st.window {
		if i == insertAt {
			log = log.System(prompt)
		}
		log = appendMessage(log, msg)
	}

	return log
}

// appendMessage converts a raw message into a transcript entry. The bot's
// own messages become assistant entries verbatim; everything else becomes a
// user entry attributed to its author, with fetched attachments inlined.
func appendMessage(log chatlog.Log, msg core.RawMessage) chatlog.Log {
	if msg.FromSelf {
		return log.Assistant(msg.Content)
	}

	content := msg.Content
	for _, attachment := range msg.Attachments {
		content += fmt.Sprintf("File %s: \n%s", attachment.Name, attachment.Text)
	}

	return log.User(msg.Author + " says: " + content)
}
