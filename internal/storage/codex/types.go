package codex

import (
	"encoding/json"
	"strings"
	"time"
)

// RawRecord is one envelope line in a rollout file.
type RawRecord struct {
	Timestamp time.Time       `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

// SessionMetaPayload is the payload of a session_meta record, written as
// the first line of every rollout file.
type SessionMetaPayload struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	CWD       string    `json:"cwd"`
}

// ResponseItemBase carries just enough of a response_item payload to
// dispatch on its inner type.
type ResponseItemBase struct {
	Type string `json:"type"`
}

// ResponseMessagePayload is a message-typed response_item payload.
type ResponseMessagePayload struct {
	Type    string         `json:"type"`
	ID      string         `json:"id"`
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock is one entry of a message payload's content array.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func contentFromBlocks(blocks []ContentBlock) string {
	if len(blocks) == 0 {
		return ""
	}
	var parts []string
	for _, block := range blocks {
		if block.Text == "" {
			continue
		}
		parts = append(parts, block.Text)
	}
	return strings.Join(parts, "\n")
}

// sessionScan is the metadata extracted from one pass over a rollout file.
type sessionScan struct {
	Path             string
	SessionID        string
	CWD              string
	FirstMsg         time.Time
	LastMsg          time.Time
	MsgCount         int
	FirstUserMessage string
}
