package opencode

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ryanhaqueIT/agentdeck/internal/storage"
)

type fixture struct {
	adapter *Adapter
	root    string
	project string // worktree path
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	project := t.TempDir()

	writeJSON(t, filepath.Join(root, "project", "proj_1.json"), projectRecord{
		ID:       "proj_1",
		Worktree: project,
	})
	// The global project must never match
	writeJSON(t, filepath.Join(root, "project", "global.json"), projectRecord{
		ID:       "global",
		Worktree: "/",
	})

	return &fixture{
		adapter: New(Options{Root: root}),
		root:    root,
		project: project,
	}
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func (f *fixture) addSession(t *testing.T, sessionID, title string, at time.Time) {
	t.Helper()
	writeJSON(t, filepath.Join(f.root, "session", "proj_1", sessionID+".json"), sessionRecord{
		ID:    sessionID,
		Title: title,
		Time:  timeInfo{Created: at.UnixMilli(), Updated: at.UnixMilli()},
	})
}

func (f *fixture) addMessage(t *testing.T, sessionID, messageID, role, content string, at time.Time) string {
	t.Helper()
	path := filepath.Join(f.root, "message", sessionID, messageID+".json")
	writeJSON(t, path, messageRecord{
		ID:        messageID,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Time:      timeInfo{Created: at.UnixMilli()},
	})
	return path
}

func (f *fixture) addPair(t *testing.T, sessionID string, at time.Time) {
	t.Helper()
	f.addMessage(t, sessionID, "msg_u1", "user", "rename the config flag", at)
	f.addMessage(t, sessionID, "msg_a1", "assistant", "Renaming it across the tree.", at.Add(time.Minute))
}

func TestListSessionsUnknownProject(t *testing.T) {
	f := newFixture(t)
	sessions, err := f.adapter.ListSessions("/not/a/worktree")
	if err != nil {
		t.Fatalf("ListSessions error: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("got %d sessions, want 0", len(sessions))
	}
}

func TestListSessions(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.addSession(t, "ses_old", "older work", base)
	f.addPair(t, "ses_old", base)
	f.addSession(t, "ses_new", "newer work", base.Add(time.Hour))
	f.addPair(t, "ses_new", base.Add(time.Hour))

	sessions, err := f.adapter.ListSessions(f.project)
	if err != nil {
		t.Fatalf("ListSessions error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].SessionID != "ses_new" || sessions[1].SessionID != "ses_old" {
		t.Errorf("order: %s, %s", sessions[0].SessionID, sessions[1].SessionID)
	}
	if sessions[0].Title != "newer work" {
		t.Errorf("Title = %q", sessions[0].Title)
	}
	if sessions[0].MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", sessions[0].MessageCount)
	}
}

func TestListSessionsUntitledFallsBackToShortID(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "ses_0123456789abcdef", "", time.Now())

	sessions, err := f.adapter.ListSessions(f.project)
	if err != nil {
		t.Fatalf("ListSessions error: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].Title != "ses_01234567" {
		t.Errorf("Title = %q, want short id", sessions[0].Title)
	}
}

func TestReadSessionMessagesOrdering(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.addSession(t, "ses_1", "work", base)

	// Written out of order; read back sorted by created time
	f.addMessage(t, "ses_1", "msg_c", "user", "third", base.Add(2*time.Minute))
	f.addMessage(t, "ses_1", "msg_a", "user", "first", base)
	f.addMessage(t, "ses_1", "msg_b", "assistant", "second", base.Add(time.Minute))

	page, err := f.adapter.ReadSessionMessages(f.project, "ses_1", storage.MessageWindow{})
	if err != nil {
		t.Fatalf("ReadSessionMessages error: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("Total = %d, want 3", page.Total)
	}
	got := []string{page.Messages[0].ID, page.Messages[1].ID, page.Messages[2].ID}
	want := []string{"msg_a", "msg_b", "msg_c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	// Windowing over the same stream
	page, err = f.adapter.ReadSessionMessages(f.project, "ses_1", storage.MessageWindow{Offset: 1, Limit: 1})
	if err != nil {
		t.Fatalf("ReadSessionMessages error: %v", err)
	}
	if len(page.Messages) != 1 || page.Messages[0].ID != "msg_b" || !page.HasMore {
		t.Errorf("window: %+v", page)
	}
}

func TestReadSessionMessagesUnknownSession(t *testing.T) {
	f := newFixture(t)
	page, err := f.adapter.ReadSessionMessages(f.project, "ghost", storage.MessageWindow{})
	if err != nil {
		t.Fatalf("ReadSessionMessages error: %v", err)
	}
	if len(page.Messages) != 0 || page.Total != 0 {
		t.Errorf("unknown session page: %+v", page)
	}
}

func TestSearchEmptyQueryShortCircuits(t *testing.T) {
	a := New(Options{Root: "/nonexistent/agentdeck-test"})
	results, err := a.SearchSessions("/work/app", "\t ", storage.SearchModeAll)
	if err != nil {
		t.Fatalf("SearchSessions error: %v", err)
	}
	if results != nil {
		t.Errorf("whitespace query should return nil, got %v", results)
	}
}

func TestSearchTitleAndContent(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.addSession(t, "ses_1", "migrate the database", base)
	f.addMessage(t, "ses_1", "msg_u1", "user", "use sqlite for the cache", base)

	results, err := f.adapter.SearchSessions(f.project, "migrate", storage.SearchModeTitle)
	if err != nil {
		t.Fatalf("SearchSessions error: %v", err)
	}
	if len(results) != 1 || results[0].Field != "title" {
		t.Fatalf("title results: %+v", results)
	}

	results, err = f.adapter.SearchSessions(f.project, "sqlite", storage.SearchModeUser)
	if err != nil {
		t.Fatalf("SearchSessions error: %v", err)
	}
	if len(results) != 1 || results[0].Field != "user" {
		t.Fatalf("user results: %+v", results)
	}
}

func TestSessionPathIsPureJoin(t *testing.T) {
	f := newFixture(t)

	// No filesystem check: the path comes back even for unknown sessions
	path := f.adapter.SessionPath(f.project, "ses_ghost")
	if path == "" {
		t.Fatal("expected a derived path")
	}
	if !strings.HasSuffix(path, filepath.Join("message", "ses_ghost")) {
		t.Errorf("path = %q", path)
	}
}

func TestDeleteMessagePair(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.addSession(t, "ses_1", "work", base)
	userPath := f.addMessage(t, "ses_1", "msg_u1", "user", "question", base)
	asstPath := f.addMessage(t, "ses_1", "msg_a1", "assistant", "answer", base.Add(time.Minute))
	keepPath := f.addMessage(t, "ses_1", "msg_u2", "user", "follow-up", base.Add(2*time.Minute))

	result := f.adapter.DeleteMessagePair(f.project, "ses_1", "msg_u1", "")
	if !result.Success {
		t.Fatalf("delete failed: %s", result.Error)
	}
	if result.LinesRemoved != 2 {
		t.Errorf("LinesRemoved = %d, want 2", result.LinesRemoved)
	}

	for _, path := range []string{userPath, asstPath} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s should be removed", filepath.Base(path))
		}
	}
	if _, err := os.Stat(keepPath); err != nil {
		t.Errorf("unrelated message should survive: %v", err)
	}
}

func TestDeleteMessagePairFallbackRewritesUserFile(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.addSession(t, "ses_1", "work", base)
	userPath := f.addMessage(t, "ses_1", "msg_u1", "user", "secret", base)
	asstPath := f.addMessage(t, "ses_1", "msg_a1", "assistant", "secret answer", base.Add(time.Minute))

	result := f.adapter.DeleteMessagePair(f.project, "ses_1", "msg_u1", "[removed]")
	if !result.Success {
		t.Fatalf("delete failed: %s", result.Error)
	}
	if result.LinesRemoved != 1 {
		t.Errorf("LinesRemoved = %d, want 1 (user file rewritten)", result.LinesRemoved)
	}

	data, err := os.ReadFile(userPath)
	if err != nil {
		t.Fatalf("user file should survive: %v", err)
	}
	var rec messageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("unmarshal rewritten file: %v", err)
	}
	if rec.Content != "[removed]" || rec.ID != "msg_u1" || rec.Role != "user" {
		t.Errorf("rewritten record: %+v", rec)
	}

	if _, err := os.Stat(asstPath); !os.IsNotExist(err) {
		t.Error("assistant file should be removed")
	}
}

func TestDeleteMessagePairErrors(t *testing.T) {
	f := newFixture(t)

	result := f.adapter.DeleteMessagePair(f.project, "ghost", "msg_u1", "")
	if result.Success || result.Error != "No messages found in session ghost" {
		t.Errorf("missing session: %+v", result)
	}

	base := time.Now()
	f.addSession(t, "ses_1", "work", base)
	f.addPair(t, "ses_1", base)
	result = f.adapter.DeleteMessagePair(f.project, "ses_1", "msg_nope", "")
	if result.Success || result.Error != fmt.Sprintf("Message %s not found in session", "msg_nope") {
		t.Errorf("unknown message: %+v", result)
	}
}
