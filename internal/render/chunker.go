package render

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// mathExpr matches a delimited inline math expression.
var mathExpr = regexp.MustCompile(`\$[^$]+\$`)

type ChunkKind int

const (
	TextChunk ChunkKind = iota
	ImageChunk
)

// Chunk is one unit of outbound content derived from a completion reply:
// plain text, or a rendered image with its original source.
type Chunk struct {
	Kind  ChunkKind
	Text  string   // text content, or the math source line for an image chunk
	Paths []string // rendered image files for an image chunk, in page order
}

// Chunker classifies reply lines and renders math-bearing ones to images.
type Chunker struct {
	Renderer Renderer
}

// Chunks splits a reply into ordered chunks. Math-bearing lines are rendered
// individually and become image chunks; blank lines are dropped; adjacent
// text lines merge into one chunk. On a renderer failure the chunks built so
// far are returned alongside the error so they can still be delivered.
func (c *Chunker) Chunks(ctx context.Context, reply string) ([]Chunk, error) {
	var chunks []Chunk
	var textRun []string

	flush := func() {
		if len(textRun) > 0 {
			chunks = append(chunks, Chunk{Kind: TextChunk, Text: strings.Join(textRun, "\n")})
			textRun = nil
		}
	}

	for _, line := range strings.Split(reply, "\n") {
		switch {
		case strings.TrimSpace(line) == "":
			continue
		case mathExpr.MatchString(line):
			flush()

			paths, err := c.Renderer.Render(ctx, line)
			if err != nil {
				return chunks, fmt.Errorf("render math line: %w", err)
			}

			chunks = append(chunks, Chunk{Kind: ImageChunk, Text: line, Paths: paths})
		default:
			textRun = append(textRun, line)
		}
	}

	flush()

	return chunks, nil
}
