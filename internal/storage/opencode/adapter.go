// Package opencode stores each message as its own JSON file under a
// per-session directory, with project and session metadata in sibling
// JSON trees. Unlike the log-file layouts, a session's location is a
// pure path join.
package opencode

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ryanhaqueIT/agentdeck/internal/storage"
)

const (
	agentID     = "opencode"
	maxTitleLen = 120
)

// Adapter implements storage.Store for the directory-per-message layout.
type Adapter struct {
	storageDir string
}

// Options configures the adapter. All fields are optional.
type Options struct {
	// Root overrides the storage directory. Defaults to
	// ~/.local/share/opencode/storage.
	Root string
}

// New creates a directory-per-message store adapter.
func New(opts Options) *Adapter {
	root := opts.Root
	if root == "" {
		home, _ := os.UserHomeDir()
		root = filepath.Join(home, ".local", "share", "opencode", "storage")
	}
	return &Adapter{storageDir: root}
}

// AgentID returns the registry key for this backend.
func (a *Adapter) AgentID() string { return agentID }

// ListSessions returns every session recorded for the project, newest
// first.
func (a *Adapter) ListSessions(projectPath string) ([]storage.SessionInfo, error) {
	projectID, err := a.findProjectID(projectPath)
	if err != nil {
		return nil, err
	}
	if projectID == "" {
		return nil, nil
	}

	sessionDir := filepath.Join(a.storageDir, "session", projectID)
	entries, err := os.ReadDir(sessionDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []storage.SessionInfo
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(sessionDir, e.Name()))
		if err != nil {
			continue
		}
		var sess sessionRecord
		if err := json.Unmarshal(data, &sess); err != nil {
			continue
		}
		if sess.ID == "" {
			sess.ID = strings.TrimSuffix(e.Name(), ".json")
		}

		title := truncateTitle(sess.Title, maxTitleLen)
		if title == "" {
			title = shortID(sess.ID)
		}

		sessions = append(sessions, storage.SessionInfo{
			SessionID:    sess.ID,
			ProjectPath:  projectPath,
			Title:        title,
			CreatedAt:    sess.Time.CreatedTime(),
			UpdatedAt:    sess.Time.UpdatedTime(),
			MessageCount: a.countMessages(sess.ID),
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].UpdatedAt.Equal(sessions[j].UpdatedAt) {
			return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
		}
		return sessions[i].SessionID < sessions[j].SessionID
	})

	return sessions, nil
}

// ListSessionsPaginated returns one page of the session listing.
func (a *Adapter) ListSessionsPaginated(projectPath string, opts storage.PageOptions) (*storage.PaginatedSessions, error) {
	sessions, err := a.ListSessions(projectPath)
	if err != nil {
		return nil, err
	}
	return storage.Paginate(agentID, sessions, opts)
}

// ReadSessionMessages returns a window over the session's messages,
// ordered by creation time with filename as tie-break.
func (a *Adapter) ReadSessionMessages(projectPath, sessionID string, win storage.MessageWindow) (*storage.MessagesPage, error) {
	messages, _, err := a.loadMessages(sessionID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		return &storage.MessagesPage{Messages: []storage.Message{}}, nil
	}
	return storage.WindowMessages(messages, win), nil
}

// SearchSessions scans the fields selected by mode for a
// case-insensitive substring match, returning at most one hit per
// session.
func (a *Adapter) SearchSessions(projectPath, query string, mode storage.SearchMode) ([]storage.SearchResult, error) {
	q := storage.NormalizeQuery(query)
	if q == "" {
		return nil, nil
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown search mode %q", mode)
	}

	sessions, err := a.ListSessions(projectPath)
	if err != nil {
		return nil, err
	}

	var results []storage.SearchResult
	for _, s := range sessions {
		if mode.ScansTitle() && storage.MatchesQuery(s.Title, q) {
			results = append(results, storage.SearchResult{
				Session: s,
				Field:   "title",
				Snippet: storage.Snippet(s.Title, q),
			})
			continue
		}
		if mode == storage.SearchModeTitle {
			continue
		}
		messages, _, err := a.loadMessages(s.SessionID)
		if err != nil {
			continue
		}
		for _, m := range messages {
			if !mode.ScansRole(m.Role) {
				continue
			}
			if storage.MatchesQuery(m.Content, q) {
				results = append(results, storage.SearchResult{
					Session: s,
					Field:   m.Role,
					Snippet: storage.Snippet(m.Content, q),
				})
				break
			}
		}
	}
	return results, nil
}

// SessionPath returns the session's message directory. The layout makes
// this a pure path join, so no filesystem check is performed; callers
// get the path even for sessions that do not exist yet.
func (a *Adapter) SessionPath(projectPath, sessionID string) string {
	return filepath.Join(a.storageDir, "message", sessionID)
}

// DeleteMessagePair removes the identified user message file and the
// assistant message that immediately follows it. A non-empty
// fallbackContent rewrites the user file in place instead of removing
// it; the assistant file is removed either way.
func (a *Adapter) DeleteMessagePair(projectPath, sessionID, userMessageID, fallbackContent string) storage.DeleteResult {
	messages, paths, err := a.loadMessages(sessionID)
	if err != nil {
		return storage.DeleteResult{Error: err.Error()}
	}
	if len(messages) == 0 {
		return storage.DeleteResult{Error: fmt.Sprintf("No messages found in session %s", sessionID)}
	}

	userIdx := -1
	for i, m := range messages {
		if m.Role == storage.RoleUser && m.ID == userMessageID {
			userIdx = i
			break
		}
	}
	if userIdx == -1 {
		return storage.DeleteResult{Error: fmt.Sprintf("Message %s not found in session", userMessageID)}
	}

	assistantIdx := -1
	if userIdx+1 < len(messages) && messages[userIdx+1].Role == storage.RoleAssistant {
		assistantIdx = userIdx + 1
	}

	removed := 0
	if fallbackContent != "" {
		rec := messageRecord{
			ID:        messages[userIdx].ID,
			SessionID: sessionID,
			Role:      storage.RoleUser,
			Content:   fallbackContent,
			Time:      timeInfo{Created: messages[userIdx].Timestamp.UnixMilli()},
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return storage.DeleteResult{Error: err.Error()}
		}
		if err := storage.AtomicWriteFile(paths[userIdx], data, 0o644); err != nil {
			return storage.DeleteResult{Error: err.Error()}
		}
	} else {
		if err := os.Remove(paths[userIdx]); err != nil {
			return storage.DeleteResult{Error: err.Error()}
		}
		removed++
	}

	if assistantIdx != -1 {
		if err := os.Remove(paths[assistantIdx]); err != nil {
			return storage.DeleteResult{Error: err.Error()}
		}
		removed++
	}

	return storage.DeleteResult{Success: true, LinesRemoved: removed}
}

// Watch emits events when session metadata for the project changes.
func (a *Adapter) Watch(projectPath string) (<-chan storage.Event, error) {
	projectID, err := a.findProjectID(projectPath)
	if err != nil {
		return nil, err
	}
	if projectID == "" {
		return nil, fmt.Errorf("no project found for %s", projectPath)
	}
	sessionDir := filepath.Join(a.storageDir, "session", projectID)
	return storage.WatchDirs([]string{sessionDir}, ".json", func(path string) string {
		return strings.TrimSuffix(filepath.Base(path), ".json")
	})
}

// findProjectID maps a project root to its store-internal project id by
// worktree path. Returns "" when no project matches. The global "/"
// project is never matched.
func (a *Adapter) findProjectID(projectPath string) (string, error) {
	absRoot, err := filepath.Abs(projectPath)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}
	absRoot = filepath.Clean(absRoot)

	projectDir := filepath.Join(a.storageDir, "project")
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(projectDir, e.Name()))
		if err != nil {
			continue
		}
		var proj projectRecord
		if err := json.Unmarshal(data, &proj); err != nil {
			continue
		}
		if proj.Worktree == "/" {
			continue
		}

		worktree := proj.Worktree
		if resolved, err := filepath.EvalSymlinks(worktree); err == nil {
			worktree = resolved
		}
		if filepath.Clean(worktree) == absRoot {
			return proj.ID, nil
		}
	}
	return "", nil
}

// loadMessages reads the session's message files in order, returning
// the parsed messages and the file path backing each. A missing message
// directory yields nil slices and no error.
func (a *Adapter) loadMessages(sessionID string) ([]storage.Message, []string, error) {
	messageDir := filepath.Join(a.storageDir, "message", sessionID)
	entries, err := os.ReadDir(messageDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	type entry struct {
		msg  storage.Message
		path string
	}
	var parsed []entry

	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(messageDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var rec messageRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		if rec.Role != storage.RoleUser && rec.Role != storage.RoleAssistant {
			continue
		}
		parsed = append(parsed, entry{
			msg: storage.Message{
				ID:        rec.ID,
				Role:      rec.Role,
				Content:   rec.Content,
				Timestamp: rec.Time.CreatedTime(),
			},
			path: path,
		})
	}

	sort.Slice(parsed, func(i, j int) bool {
		if !parsed[i].msg.Timestamp.Equal(parsed[j].msg.Timestamp) {
			return parsed[i].msg.Timestamp.Before(parsed[j].msg.Timestamp)
		}
		return parsed[i].path < parsed[j].path
	})

	messages := make([]storage.Message, len(parsed))
	paths := make([]string, len(parsed))
	for i, p := range parsed {
		messages[i] = p.msg
		paths[i] = p.path
	}
	return messages, paths, nil
}

func (a *Adapter) countMessages(sessionID string) int {
	messages, _, err := a.loadMessages(sessionID)
	if err != nil {
		return 0
	}
	return len(messages)
}

func shortID(id string) string {
	if len(id) >= 12 {
		return id[:12]
	}
	return id
}

func truncateTitle(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
