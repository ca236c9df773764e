package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DefaultPageLimit bounds a page when PageOptions.Limit is omitted.
const DefaultPageLimit = 100

// cursorToken is the decoded form of a pagination cursor. Cursors are
// opaque to callers: only the adapter that issued one can interpret it,
// enforced by the agent binding and the checksum.
type cursorToken struct {
	Agent  string `json:"agent"`
	Offset int    `json:"offset"`
}

// EncodeCursor issues an opaque continuation token for agentID resuming
// at offset.
func EncodeCursor(agentID string, offset int) string {
	payload, _ := json.Marshal(cursorToken{Agent: agentID, Offset: offset})
	sum := xxhash.Sum64(payload)
	return base64.RawURLEncoding.EncodeToString(payload) + "." + strconv.FormatUint(sum, 16)
}

// DecodeCursor validates a token issued by EncodeCursor and returns the
// resume offset. Tokens issued for another agent, tampered with, or
// otherwise malformed are rejected.
func DecodeCursor(agentID, token string) (int, error) {
	dot := strings.LastIndexByte(token, '.')
	if dot < 0 {
		return 0, fmt.Errorf("invalid cursor: missing checksum")
	}
	payload, err := base64.RawURLEncoding.DecodeString(token[:dot])
	if err != nil {
		return 0, fmt.Errorf("invalid cursor: %w", err)
	}
	sum, err := strconv.ParseUint(token[dot+1:], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor: %w", err)
	}
	if xxhash.Sum64(payload) != sum {
		return 0, fmt.Errorf("invalid cursor: checksum mismatch")
	}
	var tok cursorToken
	if err := json.Unmarshal(payload, &tok); err != nil {
		return 0, fmt.Errorf("invalid cursor: %w", err)
	}
	if tok.Agent != agentID {
		return 0, fmt.Errorf("invalid cursor: issued for agent %q", tok.Agent)
	}
	if tok.Offset < 0 {
		return 0, fmt.Errorf("invalid cursor: negative offset")
	}
	return tok.Offset, nil
}

// Paginate slices a full session listing into one page and issues the
// continuation cursor. Shared by every adapter so cursor semantics stay
// uniform.
func Paginate(agentID string, sessions []SessionInfo, opts PageOptions) (*PaginatedSessions, error) {
	offset := 0
	if opts.Cursor != "" {
		var err error
		offset, err = DecodeCursor(agentID, opts.Cursor)
		if err != nil {
			return nil, err
		}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	total := len(sessions)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := &PaginatedSessions{
		Sessions:   sessions[offset:end],
		HasMore:    end < total,
		TotalCount: total,
	}
	if page.HasMore {
		page.NextCursor = EncodeCursor(agentID, end)
	}
	return page, nil
}

// WindowMessages applies an offset+limit window over a fully parsed
// message stream, preserving the HasMore invariant.
func WindowMessages(messages []Message, win MessageWindow) *MessagesPage {
	total := len(messages)
	offset := win.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if win.Limit > 0 && offset+win.Limit < total {
		end = offset + win.Limit
	}
	return &MessagesPage{
		Messages: messages[offset:end],
		Total:    total,
		HasMore:  end < total,
	}
}
