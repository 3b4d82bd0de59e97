package chatlog

import (
	"github.com/erg0nix/omnitea/internal/core"
	"github.com/erg0nix/omnitea/internal/tokenizer"
)

// entryOverhead is the fixed per-entry token cost on top of role and content.
const entryOverhead = 3

// Entry is one role-tagged unit of conversation. Immutable once created.
type Entry struct {
	Role    core.Role `json:"role"`
	Content string    `json:"content"`
}

// Cost is the token cost of a single entry under the given counter: role and
// content are counted independently, plus the per-entry overhead.
func Cost(counter tokenizer.Counter, entry Entry) int {
	return counter.Count(string(entry.Role)) + counter.Count(entry.Content) + entryOverhead
}

// Log is an ordered chat transcript, oldest entry first. Logs are values:
// Append and DropOldest return new logs instead of mutating in place.
type Log struct {
	entries []Entry
}

func New() Log {
	return Log{}
}

func (l Log) Append(role core.Role, content string) Log {
	entries := make([]Entry, len(l.entries), len(l.entries)+1)
	copy(entries, l.entries)
	entries = append(entries, Entry{Role: role, Content: content})

	return Log{entries: entries}
}

func (l Log) System(content string) Log {
	return l.Append(core.RoleSystem, content)
}

func (l Log) User(content string) Log {
	return l.Append(core.RoleUser, content)
}

func (l Log) Assistant(content string) Log {
	return l.Append(core.RoleAssistant, content)
}

// DropOldest returns the log without its first entry.
func (l Log) DropOldest() Log {
	if len(l.entries) == 0 {
		return Log{}
	}

	entries := make([]Entry, len(l.entries)-1)
	copy(entries, l.entries[1:])

	return Log{entries: entries}
}

// Entries returns a copy of the transcript in chronological order.
func (l Log) Entries() []Entry {
	entries := make([]Entry, len(l.entries))
	copy(entries, l.entries)

	return entries
}

func (l Log) Len() int {
	return len(l.entries)
}

// TokenCount is the summed cost of all entries.
func (l Log) TokenCount(counter tokenizer.Counter) int {
	total := 0
	for _, entry := range l.entries {
		total += Cost(counter, entry)
	}

	return total
}
