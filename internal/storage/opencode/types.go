package opencode

import "time"

// timeInfo holds millisecond-epoch timestamps as written by the store.
type timeInfo struct {
	Created int64 `json:"created"`
	Updated int64 `json:"updated"`
}

func (t timeInfo) CreatedTime() time.Time {
	return time.UnixMilli(t.Created)
}

func (t timeInfo) UpdatedTime() time.Time {
	if t.Updated == 0 {
		return t.CreatedTime()
	}
	return time.UnixMilli(t.Updated)
}

// projectRecord is one project/*.json file mapping a worktree to its
// project id.
type projectRecord struct {
	ID       string   `json:"id"`
	Worktree string   `json:"worktree"`
	Time     timeInfo `json:"time"`
}

// sessionRecord is one session/<projectID>/<sessionID>.json file.
type sessionRecord struct {
	ID       string   `json:"id"`
	ParentID string   `json:"parentID,omitempty"`
	Title    string   `json:"title"`
	Time     timeInfo `json:"time"`
}

// messageRecord is one message/<sessionID>/<messageID>.json file.
type messageRecord struct {
	ID        string   `json:"id"`
	SessionID string   `json:"sessionID"`
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	Time      timeInfo `json:"time"`
}
