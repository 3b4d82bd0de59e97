package render

import (
	"context"
	"errors"
	"testing"
)

// stubRenderer returns fixed paths, or fails after a number of calls.
type stubRenderer struct {
	paths    []string
	calls    int
	failFrom int // 1-based call number that starts failing; 0 never fails
}

func (r *stubRenderer) Render(ctx context.Context, text string) ([]string, error) {
	r.calls++

	if r.failFrom > 0 && r.calls >= r.failFrom {
		return nil, errors.New("pipeline exited with status 1")
	}

	return r.paths, nil
}

func TestChunks_OrderPreserved(t *testing.T) {
	renderer := &stubRenderer{paths: []string{"x1.png"}}
	chunker := &Chunker{Renderer: renderer}

	chunks, err := chunker.Chunks(context.Background(), "a\n$x$\nb\nc")
	if err != nil {
		t.Fatalf("Chunks failed: %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	if chunks[0].Kind != TextChunk || chunks[0].Text != "a" {
		t.Errorf("chunk 0: got %+v", chunks[0])
	}

	if chunks[1].Kind != ImageChunk || chunks[1].Text != "$x$" || len(chunks[1].Paths) != 1 {
		t.Errorf("chunk 1: got %+v", chunks[1])
	}

	if chunks[2].Kind != TextChunk || chunks[2].Text != "b\nc" {
		t.Errorf("chunk 2: expected merged text, got %+v", chunks[2])
	}
}

func TestChunks_BlankLinesDropped(t *testing.T) {
	chunker := &Chunker{Renderer: &stubRenderer{}}

	chunks, err := chunker.Chunks(context.Background(), "a\n\n\nb\n   \nc")
	if err != nil {
		t.Fatalf("Chunks failed: %v", err)
	}

	if len(chunks) != 1 || chunks[0].Text != "a\nb\nc" {
		t.Errorf("expected one merged text chunk, got %+v", chunks)
	}
}

func TestChunks_NoMathNoRendererCalls(t *testing.T) {
	renderer := &stubRenderer{}
	chunker := &Chunker{Renderer: renderer}

	chunks, err := chunker.Chunks(context.Background(), "just\nplain\ntext")
	if err != nil {
		t.Fatalf("Chunks failed: %v", err)
	}

	if renderer.calls != 0 {
		t.Errorf("renderer invoked %d times for plain text", renderer.calls)
	}

	if len(chunks) != 1 {
		t.Errorf("expected one chunk, got %d", len(chunks))
	}
}

func TestChunks_AdjacentImagesNeverMerge(t *testing.T) {
	renderer := &stubRenderer{paths: []string{"p.png"}}
	chunker := &Chunker{Renderer: renderer}

	chunks, err := chunker.Chunks(context.Background(), "$a$\n$b$")
	if err != nil {
		t.Fatalf("Chunks failed: %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("expected 2 image chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if chunk.Kind != ImageChunk {
			t.Errorf("chunk %d: expected image, got %+v", i, chunk)
		}
	}
}

func TestChunks_UnterminatedDelimiterIsText(t *testing.T) {
	renderer := &stubRenderer{}
	chunker := &Chunker{Renderer: renderer}

	chunks, err := chunker.Chunks(context.Background(), "costs $5 at most")
	if err != nil {
		t.Fatalf("Chunks failed: %v", err)
	}

	if renderer.calls != 0 {
		t.Error("single delimiter should not trigger rendering")
	}

	if len(chunks) != 1 || chunks[0].Kind != TextChunk {
		t.Errorf("expected one text chunk, got %+v", chunks)
	}
}

func TestChunks_RendererFailureKeepsEarlierChunks(t *testing.T) {
	renderer := &stubRenderer{paths: []string{"p.png"}, failFrom: 1}
	chunker := &Chunker{Renderer: renderer}

	chunks, err := chunker.Chunks(context.Background(), "a\n$x$\nb")
	if err == nil {
		t.Fatal("expected renderer failure to surface")
	}

	if len(chunks) != 1 || chunks[0].Text != "a" {
		t.Errorf("expected the chunk built before the failure, got %+v", chunks)
	}
}
