// Package claudecode stores sessions as append-only JSONL logs, one file
// per session, under a per-project directory derived from the project
// path. It is the one backend that tracks session origin/starred
// metadata, through a metastore injected by the host application.
package claudecode

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/ryanhaqueIT/agentdeck/internal/metastore"
	"github.com/ryanhaqueIT/agentdeck/internal/storage"
)

// xmlTagRegex matches XML/HTML-like tags for stripping from session titles.
var xmlTagRegex = regexp.MustCompile(`<[^>]+>`)

const (
	agentID     = "claude"
	maxTitleLen = 120
)

// Adapter implements storage.Store for JSONL session logs.
type Adapter struct {
	projectsDir string

	// meta is the injected shared metadata store. When nil the adapter
	// lazily opens its own, which diverges from any store the rest of
	// the application uses; production wiring must inject the shared
	// instance.
	meta     *metastore.Store
	metaOnce sync.Once
	ownMeta  *metastore.Store
	metaErr  error
}

// Options configures the adapter. All fields are optional.
type Options struct {
	// Root overrides the projects directory. Defaults to the first
	// existing candidate under the user's home.
	Root string

	// Meta is the shared origin/starred store owned by the host
	// application.
	Meta *metastore.Store
}

// New creates a JSONL log-file adapter.
func New(opts Options) *Adapter {
	root := opts.Root
	if root == "" {
		home, _ := os.UserHomeDir()
		root = findProjectsDir(home)
	}
	return &Adapter{
		projectsDir: root,
		meta:        opts.Meta,
	}
}

// findProjectsDir returns the first existing candidate projects
// directory, or the preferred default if none exists yet.
func findProjectsDir(home string) string {
	candidates := []string{
		filepath.Join(home, ".config", "claude", "projects"),
		filepath.Join(home, ".claude", "projects"),
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path
		}
	}
	return candidates[0]
}

// AgentID returns the registry key for this backend.
func (a *Adapter) AgentID() string { return agentID }

// ListSessions returns every session for the project, newest first.
func (a *Adapter) ListSessions(projectPath string) ([]storage.SessionInfo, error) {
	dir := a.projectDirPath(projectPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	sessions := make([]storage.SessionInfo, 0, len(entries))
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		scan, err := a.scanSession(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		// Skip metadata-only files with no messages
		if scan.MsgCount == 0 {
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

	sortSessions(sessions)
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

// ReadSessionMessages streams the requested window out of the session
// log without retaining lines outside it.
func (a *Adapter) ReadSessionMessages(projectPath, sessionID string, win storage.MessageWindow) (*storage.MessagesPage, error) {
	file, err := os.Open(a.sessionFile(projectPath, sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return &storage.MessagesPage{Messages: []storage.Message{}}, nil
		}
		return nil, err
	}
	defer file.Close()

	offset := win.Offset
	if offset < 0 {
		offset = 0
	}

	var messages []storage.Message
	total := 0

	scanner := bufio.NewScanner(file)
	buf := storage.GetScannerBuffer()
	defer storage.PutScannerBuffer(buf)
	scanner.Buffer(buf, storage.MaxLineBytes)

	for scanner.Scan() {
		var rec RawRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if rec.Type != storage.RoleUser && rec.Type != storage.RoleAssistant {
			continue
		}

		idx := total
		total++
		if idx < offset {
			continue
		}
		if win.Limit > 0 && len(messages) >= win.Limit {
			// Keep scanning to count the full population
			continue
		}
		messages = append(messages, recordToMessage(rec))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &storage.MessagesPage{
		Messages: messages,
		Total:    total,
		HasMore:  offset+len(messages) < total,
	}, nil
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
		hit, err := a.searchSessionLog(a.sessionFile(projectPath, s.SessionID), s, q, mode)
		if err != nil {
			continue
		}
		if hit != nil {
			results = append(results, *hit)
		}
	}
	return results, nil
}

// searchSessionLog returns the first in-scope content match in one
// session log, or nil when nothing matches.
func (a *Adapter) searchSessionLog(path string, session storage.SessionInfo, query string, mode storage.SearchMode) (*storage.SearchResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := storage.GetScannerBuffer()
	defer storage.PutScannerBuffer(buf)
	scanner.Buffer(buf, storage.MaxLineBytes)

	for scanner.Scan() {
		var rec RawRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if rec.Type != storage.RoleUser && rec.Type != storage.RoleAssistant {
			continue
		}
		if !mode.ScansRole(rec.Type) || rec.Message == nil {
			continue
		}
		text := contentText(rec.Message.Content)
		if storage.MatchesQuery(text, query) {
			return &storage.SearchResult{
				Session: session,
				Field:   rec.Type,
				Snippet: storage.Snippet(text, query),
			}, nil
		}
	}
	return nil, scanner.Err()
}

// SessionPath returns the session log's location. The path is derivable
// from the layout alone, so this never scans; it returns "" when no log
// exists for the session.
func (a *Adapter) SessionPath(projectPath, sessionID string) string {
	path := a.sessionFile(projectPath, sessionID)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// DeleteMessagePair removes the identified user message and its
// immediately following assistant response by rewriting the log without
// them. A non-empty fallbackContent substitutes a stand-in user record
// instead of dropping the user line, so LinesRemoved counts only the
// assistant line in that case. The rewrite goes through a temp file and
// rename under a file lock, so concurrent readers never observe a
// half-written log.
func (a *Adapter) DeleteMessagePair(projectPath, sessionID, userMessageID, fallbackContent string) storage.DeleteResult {
	path := a.sessionFile(projectPath, sessionID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return storage.DeleteResult{Error: "Session file not found"}
		}
		return storage.DeleteResult{Error: err.Error()}
	}

	lines := strings.Split(string(data), "\n")
	records := make([]*RawRecord, len(lines))
	msgCount := 0
	userIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var rec RawRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		if rec.Type != storage.RoleUser && rec.Type != storage.RoleAssistant {
			continue
		}
		records[i] = &rec
		msgCount++
		if userIdx == -1 && rec.Type == storage.RoleUser && rec.UUID == userMessageID {
			userIdx = i
		}
	}

	if msgCount == 0 {
		return storage.DeleteResult{Error: "No messages found in session"}
	}
	if userIdx == -1 {
		return storage.DeleteResult{Error: fmt.Sprintf("Message %s not found in session", userMessageID)}
	}

	// The pair's assistant half is the next message record, if it is one.
	assistantIdx := -1
	for i := userIdx + 1; i < len(lines); i++ {
		if records[i] == nil {
			continue
		}
		if records[i].Type == storage.RoleAssistant {
			assistantIdx = i
		}
		break
	}

	removed := 0
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		switch {
		case i == userIdx:
			if fallbackContent == "" {
				removed++
				continue
			}
			content, _ := json.Marshal(fallbackContent)
			sub := RawRecord{
				Type:      storage.RoleUser,
				UUID:      records[i].UUID,
				SessionID: sessionID,
				Timestamp: records[i].Timestamp,
				Message:   &MessageBody{Role: storage.RoleUser, Content: content},
			}
			b, err := json.Marshal(sub)
			if err != nil {
				return storage.DeleteResult{Error: err.Error()}
			}
			out = append(out, string(b))
		case i == assistantIdx:
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

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return storage.DeleteResult{Error: err.Error()}
	}
	defer lock.Unlock()

	if err := storage.AtomicWriteFile(path, []byte(body), 0o644); err != nil {
		return storage.DeleteResult{Error: err.Error()}
	}
	return storage.DeleteResult{Success: true, LinesRemoved: removed}
}

// SessionMeta returns the session's origin/starred record from the
// shared metadata store.
func (a *Adapter) SessionMeta(projectPath, sessionID string) (storage.SessionMeta, bool, error) {
	store, err := a.metaStore()
	if err != nil {
		return storage.SessionMeta{}, false, err
	}
	return store.SessionMeta(projectPath, sessionID)
}

// SetSessionOrigin records how a session came to exist.
func (a *Adapter) SetSessionOrigin(projectPath, sessionID string, origin storage.Origin) error {
	store, err := a.metaStore()
	if err != nil {
		return err
	}
	return store.SetSessionOrigin(projectPath, sessionID, origin)
}

// SetStarred toggles a session's starred flag.
func (a *Adapter) SetStarred(projectPath, sessionID string, starred bool) error {
	store, err := a.metaStore()
	if err != nil {
		return err
	}
	return store.SetStarred(projectPath, sessionID, starred)
}

// metaStore returns the injected shared store, or lazily opens a private
// one when nothing was injected.
func (a *Adapter) metaStore() (*metastore.Store, error) {
	if a.meta != nil {
		return a.meta, nil
	}
	a.metaOnce.Do(func() {
		a.ownMeta, a.metaErr = metastore.Open(filepath.Join(a.projectsDir, "origins.db"))
	})
	if a.metaErr != nil {
		return nil, a.metaErr
	}
	return a.ownMeta, nil
}

// Watch emits events when the project's session logs change.
func (a *Adapter) Watch(projectPath string) (<-chan storage.Event, error) {
	dir := a.projectDirPath(projectPath)
	return storage.WatchDirs([]string{dir}, ".jsonl", func(path string) string {
		return strings.TrimSuffix(filepath.Base(path), ".jsonl")
	})
}

// projectDirPath converts a project root path to its session directory.
// The layout replaces "/", ".", and "_" with "-" in the absolute path.
func (a *Adapter) projectDirPath(projectPath string) string {
	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		absPath = projectPath
	}
	munged := strings.ReplaceAll(absPath, "/", "-")
	munged = strings.ReplaceAll(munged, ".", "-")
	munged = strings.ReplaceAll(munged, "_", "-")
	return filepath.Join(a.projectsDir, munged)
}

// sessionFile returns the log path for a session. Purely derived, no I/O.
func (a *Adapter) sessionFile(projectPath, sessionID string) string {
	return filepath.Join(a.projectDirPath(projectPath), sessionID+".jsonl")
}

// scanSession extracts listing metadata from one pass over a session log.
func (a *Adapter) scanSession(path string) (*sessionScan, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scan := &sessionScan{
		SessionID: strings.TrimSuffix(filepath.Base(path), ".jsonl"),
	}

	scanner := bufio.NewScanner(file)
	buf := storage.GetScannerBuffer()
	defer storage.PutScannerBuffer(buf)
	scanner.Buffer(buf, storage.MaxLineBytes)

	for scanner.Scan() {
		var rec RawRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if rec.Type != storage.RoleUser && rec.Type != storage.RoleAssistant {
			continue
		}

		if scan.FirstMsg.IsZero() {
			scan.FirstMsg = rec.Timestamp
		}
		if scan.FirstUserMessage == "" && rec.Type == storage.RoleUser && rec.Message != nil {
			content := contentText(rec.Message.Content)
			if content != "" {
				extracted := extractUserQuery(content)
				if extracted != "" && !isTrivialCommand(extracted) {
					scan.FirstUserMessage = content
				}
			}
		}
		scan.LastMsg = rec.Timestamp
		scan.MsgCount++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return scan, nil
}

func recordToMessage(rec RawRecord) storage.Message {
	role := rec.Type
	content := ""
	if rec.Message != nil {
		if rec.Message.Role != "" {
			role = rec.Message.Role
		}
		content = contentText(rec.Message.Content)
	}
	return storage.Message{
		ID:        rec.UUID,
		Role:      role,
		Content:   content,
		Timestamp: rec.Timestamp,
	}
}

// sortSessions orders newest first; ties break on session ID so cursor
// pagination enumerates a stable sequence.
func sortSessions(sessions []storage.SessionInfo) {
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].UpdatedAt.Equal(sessions[j].UpdatedAt) {
			return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
		}
		return sessions[i].SessionID < sessions[j].SessionID
	})
}

// shortID returns the first 8 characters of an ID, or the full ID if shorter.
func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// extractUserQuery strips the XML-ish context wrapping that the agent
// CLI adds around user prompts, leaving just the user's request.
func extractUserQuery(s string) string {
	if start := strings.Index(s, "<user_query>"); start >= 0 {
		if end := strings.Index(s, "</user_query>"); end > start {
			extracted := strings.TrimSpace(s[start+len("<user_query>") : end])
			if extracted != "" {
				return extracted
			}
		}
	}

	cleaned := xmlTagRegex.ReplaceAllString(s, " ")
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	// Caveat/system boilerplate carries no user content
	if strings.HasPrefix(cleaned, "Caveat:") {
		return ""
	}
	return cleaned
}

// isTrivialCommand reports whether the text is a bare CLI command that
// makes a useless session title.
func isTrivialCommand(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return true
	}
	trivial := []string{
		"/clear", "/compact", "/config", "/help", "/init",
		"/cost", "/doctor", "/login", "/logout",
	}
	for _, cmd := range trivial {
		if s == cmd || strings.HasPrefix(s, cmd+" ") {
			return true
		}
	}
	return false
}

// truncateTitle extracts the user query and truncates it for display.
func truncateTitle(s string, maxLen int) string {
	s = extractUserQuery(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSpace(s)

	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
