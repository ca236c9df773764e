package storage

import (
	"strings"
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	token := EncodeCursor("claude", 42)
	offset, err := DecodeCursor("claude", token)
	if err != nil {
		t.Fatalf("DecodeCursor error: %v", err)
	}
	if offset != 42 {
		t.Errorf("offset = %d, want 42", offset)
	}
}

func TestCursorRejectsOtherAgent(t *testing.T) {
	token := EncodeCursor("claude", 10)
	if _, err := DecodeCursor("codex", token); err == nil {
		t.Error("expected error decoding a cursor issued for another agent")
	}
}

func TestCursorRejectsTampering(t *testing.T) {
	token := EncodeCursor("claude", 10)

	// Flip a byte in the payload without touching the checksum
	dot := strings.LastIndexByte(token, '.')
	payload := []byte(token[:dot])
	payload[0] ^= 0x01
	tampered := string(payload) + token[dot:]

	if _, err := DecodeCursor("claude", tampered); err == nil {
		t.Error("expected error decoding a tampered cursor")
	}
}

func TestCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{"not-a-cursor", "a.b", "....", "abc"} {
		if _, err := DecodeCursor("claude", token); err == nil {
			t.Errorf("expected error decoding %q", token)
		}
	}
}

func makeSessions(n int) []SessionInfo {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sessions := make([]SessionInfo, n)
	for i := range sessions {
		sessions[i] = SessionInfo{
			SessionID: string(rune('a' + i)),
			UpdatedAt: base.Add(time.Duration(n-i) * time.Hour),
		}
	}
	return sessions
}

func TestPaginateWalksExactlyOnce(t *testing.T) {
	sessions := makeSessions(5)

	seen := make(map[string]int)
	cursor := ""
	pages := 0
	for {
		page, err := Paginate("claude", sessions, PageOptions{Cursor: cursor, Limit: 1})
		if err != nil {
			t.Fatalf("Paginate error: %v", err)
		}
		if page.TotalCount != 5 {
			t.Errorf("TotalCount = %d, want 5", page.TotalCount)
		}
		for _, s := range page.Sessions {
			seen[s.SessionID]++
		}
		pages++
		if !page.HasMore {
			if page.NextCursor != "" {
				t.Error("NextCursor should be empty on the final page")
			}
			break
		}
		if page.NextCursor == "" {
			t.Fatal("HasMore set but NextCursor empty")
		}
		cursor = page.NextCursor
	}

	if pages != 5 {
		t.Errorf("walked %d pages, want 5", pages)
	}
	for _, s := range sessions {
		if seen[s.SessionID] != 1 {
			t.Errorf("session %s seen %d times, want 1", s.SessionID, seen[s.SessionID])
		}
	}
}

func TestPaginateHasMoreInvariant(t *testing.T) {
	sessions := makeSessions(7)

	for limit := 1; limit <= 8; limit++ {
		page, err := Paginate("claude", sessions, PageOptions{Limit: limit})
		if err != nil {
			t.Fatalf("Paginate error: %v", err)
		}
		wantMore := len(page.Sessions) < len(sessions)
		if page.HasMore != wantMore {
			t.Errorf("limit %d: HasMore = %v, want %v", limit, page.HasMore, wantMore)
		}
	}
}

func TestPaginateOffsetBeyondEnd(t *testing.T) {
	sessions := makeSessions(3)
	token := EncodeCursor("claude", 100)

	page, err := Paginate("claude", sessions, PageOptions{Cursor: token, Limit: 10})
	if err != nil {
		t.Fatalf("Paginate error: %v", err)
	}
	if len(page.Sessions) != 0 {
		t.Errorf("got %d sessions, want 0", len(page.Sessions))
	}
	if page.HasMore {
		t.Error("HasMore should be false past the end")
	}
	if page.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", page.TotalCount)
	}
}

func TestPaginateDefaultLimit(t *testing.T) {
	sessions := makeSessions(5)
	page, err := Paginate("claude", sessions, PageOptions{})
	if err != nil {
		t.Fatalf("Paginate error: %v", err)
	}
	if len(page.Sessions) != 5 || page.HasMore {
		t.Errorf("default limit should cover all 5 sessions, got %d (HasMore=%v)", len(page.Sessions), page.HasMore)
	}
}

func TestWindowMessages(t *testing.T) {
	messages := make([]Message, 10)
	for i := range messages {
		messages[i] = Message{ID: string(rune('a' + i))}
	}

	cases := []struct {
		name    string
		win     MessageWindow
		wantLen int
		wantHas bool
	}{
		{"all", MessageWindow{}, 10, false},
		{"window", MessageWindow{Offset: 2, Limit: 3}, 3, true},
		{"tail", MessageWindow{Offset: 8, Limit: 5}, 2, false},
		{"past end", MessageWindow{Offset: 20, Limit: 5}, 0, false},
		{"negative offset", MessageWindow{Offset: -1, Limit: 4}, 4, true},
	}
	for _, tc := range cases {
		page := WindowMessages(messages, tc.win)
		if len(page.Messages) != tc.wantLen {
			t.Errorf("%s: got %d messages, want %d", tc.name, len(page.Messages), tc.wantLen)
		}
		if page.HasMore != tc.wantHas {
			t.Errorf("%s: HasMore = %v, want %v", tc.name, page.HasMore, tc.wantHas)
		}
		if page.Total != 10 {
			t.Errorf("%s: Total = %d, want 10", tc.name, page.Total)
		}
	}
}
