package tokenizer

import (
	"fmt"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Counter measures text in tokens. A Counter must be deterministic and its
// counts must never decrease as text grows.
type Counter interface {
	Count(text string) int
}

// Tiktoken counts with the cl100k_base encoding.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

func NewTiktoken() (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load cl100k_base encoding: %w", err)
	}

	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Heuristic approximates one token per four bytes. Used when the real
// encoding cannot be loaded.
type Heuristic struct{}

func (Heuristic) Count(text string) int {
	return len(text) / 4
}
