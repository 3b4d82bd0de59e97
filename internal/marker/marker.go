package marker

import "strings"

// Kind discriminates the control markers recognized at the start of a
// message.
type Kind int

const (
	// None marks an ordinary message, included in context normally.
	None Kind = iota
	// Aside marks a message excluded from context entirely.
	Aside
	// Barrier halts backward history expansion and may carry a replacement
	// system prompt after the prefix.
	Barrier
)

// Marker is the classification of one message text.
type Marker struct {
	Kind   Kind
	Prompt string // barrier override prompt, empty when the barrier carried none
}

// Prefixes holds the literal marker prefixes. They must not overlap.
type Prefixes struct {
	Barrier string
	Aside   string
}

func DefaultPrefixes() Prefixes {
	return Prefixes{Barrier: "|b|", Aside: "|a|"}
}

// Classify recognizes a barrier or aside prefix at the start of the trimmed
// text; any other text is None. For a barrier, the remainder after the
// prefix is trimmed and kept as the override prompt only if non-empty.
// Pure and total.
func (p Prefixes) Classify(text string) Marker {
	trimmed := strings.TrimSpace(text)

	if p.Barrier != "" && strings.HasPrefix(trimmed, p.Barrier) {
		prompt := strings.TrimSpace(strings.TrimPrefix(trimmed, p.Barrier))
		return Marker{Kind: Barrier, Prompt: prompt}
	}

	if p.Aside != "" && strings.HasPrefix(trimmed, p.Aside) {
		return Marker{Kind: Aside}
	}

	return Marker{Kind: None}
}
