package storage

import "strings"

// SearchMode scopes which session fields a search scans.
type SearchMode string

const (
	SearchModeTitle     SearchMode = "title"
	SearchModeUser      SearchMode = "user"
	SearchModeAssistant SearchMode = "assistant"
	SearchModeAll       SearchMode = "all"
)

// Valid reports whether m is a known search mode.
func (m SearchMode) Valid() bool {
	switch m {
	case SearchModeTitle, SearchModeUser, SearchModeAssistant, SearchModeAll:
		return true
	}
	return false
}

// ScansTitle reports whether the mode includes session titles.
func (m SearchMode) ScansTitle() bool {
	return m == SearchModeTitle || m == SearchModeAll
}

// ScansRole reports whether the mode includes messages with the given role.
func (m SearchMode) ScansRole(role string) bool {
	switch m {
	case SearchModeAll:
		return true
	case SearchModeUser:
		return role == RoleUser
	case SearchModeAssistant:
		return role == RoleAssistant
	}
	return false
}

// NormalizeQuery trims a search query. Adapters short-circuit to an
// empty result set when the normalized query is empty, before any
// filesystem access.
func NormalizeQuery(query string) string {
	return strings.TrimSpace(query)
}

// MatchesQuery reports a case-insensitive substring match.
func MatchesQuery(text, query string) bool {
	if text == "" || query == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(query))
}

// snippetRadius is how many bytes of context surround a hit.
const snippetRadius = 40

// Snippet extracts a single-line excerpt around the first match of
// query in text, with ellipses where the excerpt is truncated.
func Snippet(text, query string) string {
	flat := strings.Join(strings.Fields(text), " ")
	idx := strings.Index(strings.ToLower(flat), strings.ToLower(query))
	if idx < 0 {
		if len(flat) > 2*snippetRadius {
			return flat[:2*snippetRadius] + "..."
		}
		return flat
	}

	start := idx - snippetRadius
	if start < 0 {
		start = 0
	}
	end := idx + len(query) + snippetRadius
	if end > len(flat) {
		end = len(flat)
	}

	out := flat[start:end]
	if start > 0 {
		out = "..." + out
	}
	if end < len(flat) {
		out += "..."
	}
	return out
}
