package claudecode

import (
	"encoding/json"
	"strings"
	"time"
)

// RawRecord is one JSONL line in a session log.
type RawRecord struct {
	Type      string       `json:"type"`
	UUID      string       `json:"uuid"`
	SessionID string       `json:"sessionId"`
	Timestamp time.Time    `json:"timestamp"`
	Message   *MessageBody `json:"message,omitempty"`
}

// MessageBody holds the actual message data. Content is either a plain
// string or an array of content blocks.
type MessageBody struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// ContentBlock is a single block in a content array.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// contentText flattens a content field to displayable text.
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}

	var blocks []ContentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	texts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			texts = append(texts, b.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// sessionScan is the metadata extracted from one pass over a session log.
type sessionScan struct {
	SessionID        string
	FirstMsg         time.Time
	LastMsg          time.Time
	MsgCount         int
	FirstUserMessage string
}
