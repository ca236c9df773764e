// Package storage defines the pluggable contract for agent session
// persistence, the shared result types, and the process-wide registry
// that maps agent identifiers to their storage backends.
package storage

import "time"

// Store provides uniform access to one agent family's on-disk session
// history. Implementations exist per storage layout (JSONL log files,
// directory-per-message trees, date-partitioned stores) and are looked
// up through the Registry by agent identifier.
//
// Not-found conditions are values, not errors: listing a project with
// no sessions returns an empty slice, reading an unknown session returns
// an empty page, and DeleteMessagePair reports failure in its result.
type Store interface {
	// AgentID identifies the agent family this store serves. It is
	// immutable for the lifetime of the instance and is the registry key.
	AgentID() string

	// ListSessions returns every session recorded for the project,
	// newest first. A missing project yields an empty result.
	ListSessions(projectPath string) ([]SessionInfo, error)

	// ListSessionsPaginated returns one page of sessions. An empty
	// cursor starts at the first page; subsequent calls pass the
	// previously returned NextCursor verbatim.
	ListSessionsPaginated(projectPath string, opts PageOptions) (*PaginatedSessions, error)

	// ReadSessionMessages returns a window over the session's ordered
	// message stream. Unknown sessions yield an empty page.
	ReadSessionMessages(projectPath, sessionID string, win MessageWindow) (*MessagesPage, error)

	// SearchSessions scans the fields selected by mode for a
	// case-insensitive substring match. Empty or whitespace-only
	// queries return no results without touching the filesystem.
	SearchSessions(projectPath, query string, mode SearchMode) ([]SearchResult, error)

	// SessionPath returns the session's on-disk location when it can be
	// derived without scanning, or "" when it cannot. Backends whose
	// layout requires walking partitions to locate a session always
	// return "".
	SessionPath(projectPath, sessionID string) string

	// DeleteMessagePair removes the user message identified by
	// userMessageID together with its immediately following assistant
	// response. A non-empty fallbackContent lets the backend retain a
	// stand-in record instead of dropping the user message outright;
	// the exact policy is backend-specific.
	DeleteMessagePair(projectPath, sessionID, userMessageID, fallbackContent string) DeleteResult
}

// OriginStore is an optional capability for backends that track session
// provenance metadata (origin and starred flag) outside the message log.
type OriginStore interface {
	SessionMeta(projectPath, sessionID string) (SessionMeta, bool, error)
	SetSessionOrigin(projectPath, sessionID string, origin Origin) error
	SetStarred(projectPath, sessionID string, starred bool) error
}

// WatchableStore is an optional capability for backends that can emit
// change events for a project's sessions.
type WatchableStore interface {
	Watch(projectPath string) (<-chan Event, error)
}

// SessionInfo describes one discovered conversation.
type SessionInfo struct {
	SessionID    string
	ProjectPath  string
	Title        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// PageOptions selects one page of a session listing. A zero Limit uses
// DefaultPageLimit; an empty Cursor starts at the first page.
type PageOptions struct {
	Cursor string
	Limit  int
}

// PaginatedSessions is one page of a session listing. TotalCount covers
// the full matching population regardless of page size. NextCursor is an
// opaque token, empty on the final page.
type PaginatedSessions struct {
	Sessions   []SessionInfo
	HasMore    bool
	TotalCount int
	NextCursor string
}

// MessageWindow selects an offset+limit window over a message stream.
// A Limit <= 0 means no bound.
type MessageWindow struct {
	Offset int
	Limit  int
}

// MessagesPage is a windowed view over one session's messages.
// HasMore == (offset + len(Messages)) < Total.
type MessagesPage struct {
	Messages []Message
	Total    int
	HasMore  bool
}

// Message is one record in a session's chronological stream. ID is a
// stable per-message identifier where the backend supports addressing
// individual messages.
type Message struct {
	ID        string
	Role      string
	Content   string
	Timestamp time.Time
}

// Message roles shared by every backend.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// SearchResult pairs a matching session with enough context to jump to
// the hit. Field is the session field that matched: "title", "user", or
// "assistant".
type SearchResult struct {
	Session SessionInfo
	Field   string
	Snippet string
}

// Origin records how a session came to exist.
type Origin string

const (
	OriginUser Origin = "user"
	OriginAuto Origin = "auto"
)

// SessionMeta is provenance metadata held outside the message log.
type SessionMeta struct {
	Origin  Origin
	Starred bool
}

// DeleteResult reports the outcome of DeleteMessagePair. Error carries a
// human-readable reason when Success is false. LinesRemoved counts the
// underlying storage records actually removed; 0 is valid when the pair
// was fully substituted rather than removed.
type DeleteResult struct {
	Success      bool
	Error        string
	LinesRemoved int
}

// Event signals a change in a project's session data.
type Event struct {
	Type      EventType
	SessionID string
}

// EventType identifies the kind of storage event.
type EventType string

const (
	EventSessionCreated EventType = "session_created"
	EventSessionUpdated EventType = "session_updated"
	EventMessageAdded   EventType = "message_added"
)
