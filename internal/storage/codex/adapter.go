// Package codex stores sessions as JSONL rollout files under
// date-partitioned subdirectories of a single sessions root. Locating a
// session by id means walking the partitions, so the layout cannot
// answer path lookups without scanning.
package codex

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ryanhaqueIT/agentdeck/internal/storage"
)

const (
	agentID     = "codex"
	maxTitleLen = 50
)

// Adapter implements storage.Store for date-partitioned rollout files.
type Adapter struct {
	sessionsDir string
}

// Options configures the adapter. All fields are optional.
type Options struct {
	// Root overrides the sessions directory. Defaults to
	// ~/.codex/sessions.
	Root string
}

// New creates a date-partitioned store adapter.
func New(opts Options) *Adapter {
	root := opts.Root
	if root == "" {
		home, _ := os.UserHomeDir()
		root = filepath.Join(home, ".codex", "sessions")
	}
	return &Adapter{sessionsDir: root}
}

// AgentID returns the registry key for this backend.
func (a *Adapter) AgentID() string { return agentID }

// ListSessions returns every session whose recorded working directory
// falls under the project, newest first.
func (a *Adapter) ListSessions(projectPath string) ([]storage.SessionInfo, error) {
	files, err := a.sessionFiles()
	if err != nil {
		return nil, err
	}

	sessions := make([]storage.SessionInfo, 0, len(files))
	for _, path := range files {
		scan, err := a.scanSession(path)
		if err != nil {
			continue
		}
		if scan.MsgCount == 0 || !cwdMatchesProject(projectPath, scan.CWD) {
			continue
		}

		title := ""
		if scan.FirstUserMessage != "" {
			title = truncateTitle(scan.FirstUserMessage, maxTitleLen)
		}
		if title == "" {
			title = shortID(scan.SessionID)
		}

		sessions = append(sessions, storage.SessionInfo{
			SessionID:    scan.SessionID,
			ProjectPath:  projectPath,
			Title:        title,
			CreatedAt:    scan.FirstMsg,
			UpdatedAt:    scan.LastMsg,
			MessageCount: scan.MsgCount,
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

// ReadSessionMessages returns a window over the session's messages.
func (a *Adapter) ReadSessionMessages(projectPath, sessionID string, win storage.MessageWindow) (*storage.MessagesPage, error) {
	path := a.findSessionFile(sessionID)
	if path == "" {
		return &storage.MessagesPage{Messages: []storage.Message{}}, nil
	}
	messages, err := a.parseMessages(path)
	if err != nil {
		return nil, err
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
		path := a.findSessionFile(s.SessionID)
		if path == "" {
			continue
		}
		messages, err := a.parseMessages(path)
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

// SessionPath always returns "" for this backend: a session's location
// can only be determined by scanning the date partitions, so callers
// must resolve it asynchronously when they need the real path.
func (a *Adapter) SessionPath(projectPath, sessionID string) string {
	return ""
}

// DeleteMessagePair removes the identified user message and its
// immediately following assistant response by rewriting the rollout
// file through a temp file and rename. The rollout format has no
// stand-in record type, so fallbackContent is ignored and both records
// are always removed.
func (a *Adapter) DeleteMessagePair(projectPath, sessionID, userMessageID, fallbackContent string) storage.DeleteResult {
	path := a.findSessionFile(sessionID)
	if path == "" {
		return storage.DeleteResult{Error: "Session file not found"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return storage.DeleteResult{Error: err.Error()}
	}

	lines := strings.Split(string(data), "\n")
	messages := make([]*ResponseMessagePayload, len(lines))
	msgCount := 0
	userIdx := -1
	for i, line := range lines {
		msg := parseMessageLine([]byte(line))
		if msg == nil {
			continue
		}
		messages[i] = msg
		msgCount++
		if userIdx == -1 && msg.Role == storage.RoleUser && msg.ID == userMessageID {
			userIdx = i
		}
	}

	if msgCount == 0 {
		return storage.DeleteResult{Error: "No messages found in session"}
	}
	if userIdx == -1 {
		return storage.DeleteResult{Error: fmt.Sprintf("Message %s not found in session", userMessageID)}
	}

	assistantIdx := -1
	for i := userIdx + 1; i < len(lines); i++ {
		if messages[i] == nil {
			continue
		}
		if messages[i].Role == storage.RoleAssistant {
			assistantIdx = i
		}
		break
	}

	removed := 0
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		switch {
		case i == userIdx || i == assistantIdx:
			removed++
		case i == len(lines)-1 && line == "":
			// Trailing newline artifact from the split
		default:
			out = append(out, line)
		}
	}

	body := strings.Join(out, "\n")
	if len(out) > 0 {
		body += "\n"
	}
	if err := storage.AtomicWriteFile(path, []byte(body), 0o644); err != nil {
		return storage.DeleteResult{Error: err.Error()}
	}
	return storage.DeleteResult{Success: true, LinesRemoved: removed}
}

// Watch emits events when any rollout file under the sessions root or
// its date partitions changes.
func (a *Adapter) Watch(projectPath string) (<-chan storage.Event, error) {
	dirs := []string{a.sessionsDir}
	err := filepath.WalkDir(a.sessionsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != a.sessionsDir {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return storage.WatchDirs(dirs, ".jsonl", func(path string) string {
		scan, err := a.scanSession(path)
		if err != nil || scan.SessionID == "" {
			return strings.TrimSuffix(filepath.Base(path), ".jsonl")
		}
		return scan.SessionID
	})
}

// sessionFiles walks every date partition for rollout files.
func (a *Adapter) sessionFiles() ([]string, error) {
	if _, err := os.Stat(a.sessionsDir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(a.sessionsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".jsonl") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// findSessionFile locates a session's rollout file by scanning the
// partitions. Returns "" when no file records the session.
func (a *Adapter) findSessionFile(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	files, err := a.sessionFiles()
	if err != nil {
		return ""
	}
	for _, path := range files {
		if strings.Contains(filepath.Base(path), sessionID) {
			return path
		}
	}
	for _, path := range files {
		scan, err := a.scanSession(path)
		if err != nil {
			continue
		}
		if scan.SessionID == sessionID {
			return path
		}
	}
	return ""
}

// scanSession extracts listing metadata from one pass over a rollout file.
func (a *Adapter) scanSession(path string) (*sessionScan, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scan := &sessionScan{Path: path}

	scanner := bufio.NewScanner(file)
	buf := storage.GetScannerBuffer()
	defer storage.PutScannerBuffer(buf)
	scanner.Buffer(buf, storage.MaxLineBytes)

	for scanner.Scan() {
		var rec RawRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}

		switch rec.Type {
		case "session_meta":
			var payload SessionMetaPayload
			if err := json.Unmarshal(rec.Payload, &payload); err != nil {
				continue
			}
			if scan.SessionID == "" {
				scan.SessionID = payload.ID
			}
			if scan.CWD == "" {
				scan.CWD = payload.CWD
			}

		case "response_item":
			msg := parseMessagePayload(rec.Payload)
			if msg == nil {
				continue
			}
			if scan.FirstMsg.IsZero() {
				scan.FirstMsg = rec.Timestamp
			}
			if scan.FirstUserMessage == "" && msg.Role == storage.RoleUser {
				scan.FirstUserMessage = contentFromBlocks(msg.Content)
			}
			scan.LastMsg = rec.Timestamp
			scan.MsgCount++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if scan.SessionID == "" {
		scan.SessionID = strings.TrimSuffix(filepath.Base(path), ".jsonl")
	}
	return scan, nil
}

// parseMessages returns the session's ordered message stream.
func (a *Adapter) parseMessages(path string) ([]storage.Message, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var messages []storage.Message

	scanner := bufio.NewScanner(file)
	buf := storage.GetScannerBuffer()
	defer storage.PutScannerBuffer(buf)
	scanner.Buffer(buf, storage.MaxLineBytes)

	for scanner.Scan() {
		var rec RawRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if rec.Type != "response_item" {
			continue
		}
		msg := parseMessagePayload(rec.Payload)
		if msg == nil {
			continue
		}
		messages = append(messages, storage.Message{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   contentFromBlocks(msg.Content),
			Timestamp: rec.Timestamp,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// parseMessageLine parses one raw envelope line into a message payload,
// or nil when the line is not a user/assistant message record.
func parseMessageLine(line []byte) *ResponseMessagePayload {
	trimmed := strings.TrimSpace(string(line))
	if trimmed == "" {
		return nil
	}
	var rec RawRecord
	if err := json.Unmarshal([]byte(trimmed), &rec); err != nil {
		return nil
	}
	if rec.Type != "response_item" {
		return nil
	}
	return parseMessagePayload(rec.Payload)
}

func parseMessagePayload(payload json.RawMessage) *ResponseMessagePayload {
	var base ResponseItemBase
	if err := json.Unmarshal(payload, &base); err != nil || base.Type != "message" {
		return nil
	}
	var msg ResponseMessagePayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil
	}
	if msg.Role != storage.RoleUser && msg.Role != storage.RoleAssistant {
		return nil
	}
	return &msg
}

// cwdMatchesProject reports whether cwd is the project root or lives
// under it.
func cwdMatchesProject(projectPath, cwd string) bool {
	if projectPath == "" || cwd == "" {
		return false
	}
	projectAbs, err := filepath.Abs(projectPath)
	if err != nil {
		return false
	}
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return false
	}
	if resolved, err := filepath.EvalSymlinks(projectAbs); err == nil {
		projectAbs = resolved
	}
	if resolved, err := filepath.EvalSymlinks(cwdAbs); err == nil {
		cwdAbs = resolved
	}
	rel, err := filepath.Rel(filepath.Clean(projectAbs), filepath.Clean(cwdAbs))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return !strings.HasPrefix(rel, "..")
}

func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func truncateTitle(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
