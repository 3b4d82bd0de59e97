package core

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Attachment is a file attached to a platform message, already fetched into
// text form at ingestion.
type Attachment struct {
	Name string
	Text string
}

// RawMessage is a platform message as the window assembler sees it. IDs are
// snowflakes: totally ordered and monotonic in creation time. Authorship is
// resolved once at ingestion by comparing the author to the bot's own
// identity.
type RawMessage struct {
	ID          string
	ChannelID   string
	Author      string
	Content     string
	FromSelf    bool
	Attachments []Attachment
}
