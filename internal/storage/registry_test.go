package storage

import "testing"

// stubStore is a minimal Store for registry tests.
type stubStore struct {
	id string
}

func (s *stubStore) AgentID() string { return s.id }
func (s *stubStore) ListSessions(projectPath string) ([]SessionInfo, error) {
	return nil, nil
}
func (s *stubStore) ListSessionsPaginated(projectPath string, opts PageOptions) (*PaginatedSessions, error) {
	return &PaginatedSessions{}, nil
}
func (s *stubStore) ReadSessionMessages(projectPath, sessionID string, win MessageWindow) (*MessagesPage, error) {
	return &MessagesPage{}, nil
}
func (s *stubStore) SearchSessions(projectPath, query string, mode SearchMode) ([]SearchResult, error) {
	return nil, nil
}
func (s *stubStore) SessionPath(projectPath, sessionID string) string { return "" }
func (s *stubStore) DeleteMessagePair(projectPath, sessionID, userMessageID, fallbackContent string) DeleteResult {
	return DeleteResult{}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	store := &stubStore{id: "claude"}
	r.Register(store)

	if got := r.Get("claude"); got != store {
		t.Error("Get should return the registered store")
	}
	if r.Get("unknown") != nil {
		t.Error("Get for an unknown agent should return nil")
	}
	if !r.Has("claude") || r.Has("unknown") {
		t.Error("Has should track registered agents only")
	}
}

func TestRegistryLastWriteWins(t *testing.T) {
	r := NewRegistry()
	first := &stubStore{id: "claude"}
	second := &stubStore{id: "claude"}
	r.Register(first)
	r.Register(second)

	if got := r.Get("claude"); got != second {
		t.Error("re-registering should replace the previous store")
	}
	if len(r.All()) != 1 {
		t.Errorf("All returned %d stores, want 1", len(r.All()))
	}
}

func TestRegistryNilStore(t *testing.T) {
	r := NewRegistry()
	r.Register(nil)
	if len(r.All()) != 0 {
		t.Error("registering nil should be a no-op")
	}
}

func TestRegistryClear(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubStore{id: "claude"})
	r.Register(&stubStore{id: "codex"})
	if len(r.All()) != 2 {
		t.Fatalf("All returned %d stores, want 2", len(r.All()))
	}

	r.Clear()
	if len(r.All()) != 0 || r.Has("claude") {
		t.Error("Clear should empty the registry")
	}

	// Registry stays usable after Clear
	r.Register(&stubStore{id: "opencode"})
	if !r.Has("opencode") {
		t.Error("registry should accept registrations after Clear")
	}
}
