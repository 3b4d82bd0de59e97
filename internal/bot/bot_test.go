package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/erg0nix/omnitea/internal/chatlog"
	"github.com/erg0nix/omnitea/internal/core"
	"github.com/erg0nix/omnitea/internal/marker"
	"github.com/erg0nix/omnitea/internal/render"
	"github.com/erg0nix/omnitea/internal/tokenizer"
	"github.com/erg0nix/omnitea/internal/window"
)

type emptyHistory struct{}

func (emptyHistory) Before(ctx context.Context, channelID string, beforeID string, limit int) ([]core.RawMessage, error) {
	return nil, nil
}

type fakeSender struct {
	texts   []string
	files   []string
	reacts  []string
	typing  int
	textErr error
	fileErr error
}

func (s *fakeSender) SendText(ctx context.Context, channelID string, text string) error {
	s.texts = append(s.texts, text)
	return s.textErr
}

func (s *fakeSender) SendFile(ctx context.Context, channelID string, path string) error {
	s.files = append(s.files, path)
	return s.fileErr
}

func (s *fakeSender) React(ctx context.Context, channelID string, messageID string, emoji string) error {
	s.reacts = append(s.reacts, emoji)
	return nil
}

func (s *fakeSender) Typing(ctx context.Context, channelID string) error {
	s.typing++
	return nil
}

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (c *fakeCompleter) Complete(ctx context.Context, log chatlog.Log) (chatlog.Entry, error) {
	c.calls++

	if c.err != nil {
		return chatlog.Entry{}, c.err
	}

	return chatlog.Entry{Role: core.RoleAssistant, Content: c.reply}, nil
}

type stubRenderer struct {
	paths []string
	err   error
	calls int
}

func (r *stubRenderer) Render(ctx context.Context, text string) ([]string, error) {
	r.calls++

	if r.err != nil {
		return nil, r.err
	}

	return r.paths, nil
}

func newTestBot(t *testing.T, completer *fakeCompleter, renderer render.Renderer, sender *fakeSender) *Bot {
	t.Helper()

	counter := tokenizer.Heuristic{}
	prefixes := marker.DefaultPrefixes()

	return &Bot{
		Assembler: &window.Assembler{
			History:  emptyHistory{},
			Counter:  counter,
			Prefixes: prefixes,
			Config:   window.Config{Budget: 3596, DefaultPrompt: "prompt"},
		},
		Completer: completer,
		Chunker:   &render.Chunker{Renderer: renderer},
		Sender:    sender,
		Prefixes:  prefixes,
		Counter:   counter,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		SendLimit: 2000,
	}
}

func trigger(content string) core.RawMessage {
	return core.RawMessage{ID: "10", ChannelID: "chan", Author: "alice", Content: content}
}

func TestHandleMessage_IgnoresOwnMessages(t *testing.T) {
	sender := &fakeSender{}
	completer := &fakeCompleter{reply: "hi"}
	b := newTestBot(t, completer, &stubRenderer{}, sender)

	msg := trigger("hello")
	msg.FromSelf = true

	b.HandleMessage(context.Background(), msg)

	if completer.calls != 0 || len(sender.texts) != 0 {
		t.Error("own message triggered a turn")
	}
}

func TestHandleMessage_BarrierReacts(t *testing.T) {
	sender := &fakeSender{}
	completer := &fakeCompleter{reply: "hi"}
	b := newTestBot(t, completer, &stubRenderer{}, sender)

	b.HandleMessage(context.Background(), trigger("|b| new topic"))

	if completer.calls != 0 {
		t.Error("barrier message reached the completion backend")
	}

	if len(sender.reacts) != 1 || sender.reacts[0] != barrierReaction {
		t.Errorf("expected barrier reaction, got %v", sender.reacts)
	}
}

func TestHandleMessage_AsideReacts(t *testing.T) {
	sender := &fakeSender{}
	completer := &fakeCompleter{reply: "hi"}
	b := newTestBot(t, completer, &stubRenderer{}, sender)

	b.HandleMessage(context.Background(), trigger("|a| just a note"))

	if completer.calls != 0 {
		t.Error("aside message reached the completion backend")
	}

	if len(sender.reacts) != 1 || sender.reacts[0] != asideReaction {
		t.Errorf("expected aside reaction, got %v", sender.reacts)
	}
}

func TestHandleMessage_RepliesWithText(t *testing.T) {
	sender := &fakeSender{}
	completer := &fakeCompleter{reply: "hello there"}
	b := newTestBot(t, completer, &stubRenderer{}, sender)

	b.HandleMessage(context.Background(), trigger("hello"))

	if sender.typing != 1 {
		t.Errorf("expected one typing indicator, got %d", sender.typing)
	}

	if len(sender.texts) != 1 || sender.texts[0] != "hello there" {
		t.Errorf("expected reply sent once, got %v", sender.texts)
	}
}

func TestHandleMessage_LongReplySplit(t *testing.T) {
	sender := &fakeSender{}
	completer := &fakeCompleter{reply: strings.Repeat("y", 5000)}
	b := newTestBot(t, completer, &stubRenderer{}, sender)

	b.HandleMessage(context.Background(), trigger("hello"))

	if len(sender.texts) != 3 {
		t.Fatalf("expected 3 sends, got %d", len(sender.texts))
	}

	wantLengths := []int{1994, 1994, 1012}
	for i, text := range sender.texts {
		if len(text) != wantLengths[i] {
			t.Errorf("send %d: got length %d, want %d", i, len(text), wantLengths[i])
		}
	}

	if strings.Join(sender.texts, "") != completer.reply {
		t.Error("reply characters lost or reordered across sends")
	}
}

func TestHandleMessage_ImageChunkSendsFilesThenFencedSource(t *testing.T) {
	sender := &fakeSender{}
	completer := &fakeCompleter{reply: "$x^2$"}
	renderer := &stubRenderer{paths: []string{"a.png", "b.png"}}
	b := newTestBot(t, completer, renderer, sender)

	b.HandleMessage(context.Background(), trigger("hello"))

	if len(sender.files) != 2 || sender.files[0] != "a.png" || sender.files[1] != "b.png" {
		t.Errorf("expected both images sent in order, got %v", sender.files)
	}

	if len(sender.texts) != 1 || sender.texts[0] != "```$x^2$```" {
		t.Errorf("expected fenced math source after images, got %v", sender.texts)
	}
}

func TestHandleMessage_CompletionErrorSendsNothing(t *testing.T) {
	sender := &fakeSender{}
	completer := &fakeCompleter{err: errors.New("backend down")}
	b := newTestBot(t, completer, &stubRenderer{}, sender)

	b.HandleMessage(context.Background(), trigger("hello"))

	if len(sender.texts) != 0 || len(sender.files) != 0 {
		t.Error("failed turn still sent output")
	}
}

func TestHandleMessage_SendFailuresAreBestEffort(t *testing.T) {
	sender := &fakeSender{textErr: errors.New("send failed")}
	completer := &fakeCompleter{reply: "a\n$x$\nb"}
	renderer := &stubRenderer{paths: []string{"p.png"}}
	b := newTestBot(t, completer, renderer, sender)

	b.HandleMessage(context.Background(), trigger("hello"))

	// Every chunk is still attempted: text "a", fenced "$x$", text "b".
	if len(sender.texts) != 3 {
		t.Errorf("expected 3 send attempts despite failures, got %d", len(sender.texts))
	}

	if len(sender.files) != 1 {
		t.Errorf("expected image attempt despite text failures, got %d", len(sender.files))
	}
}

func TestHandleMessage_RenderFailureDeliversEarlierChunks(t *testing.T) {
	sender := &fakeSender{}
	completer := &fakeCompleter{reply: "a\n$x$\nb"}
	renderer := &stubRenderer{err: errors.New("pandoc exited with status 1")}
	b := newTestBot(t, completer, renderer, sender)

	b.HandleMessage(context.Background(), trigger("hello"))

	if len(sender.texts) != 1 || sender.texts[0] != "a" {
		t.Errorf("expected only the chunk before the failure, got %v", sender.texts)
	}

	if len(sender.files) != 0 {
		t.Errorf("expected no images after render failure, got %v", sender.files)
	}
}
